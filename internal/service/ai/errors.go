package ai

import (
	"errors"
	"net/http"

	"github.com/openai/openai-go"
)

// Provider failures the rest of the service reacts to. Anything the
// remote API reports outside this taxonomy passes through unclassified.
var (
	ErrUnknownProvider    = errors.New("unknown provider")
	ErrUnauthorized       = errors.New("invalid api key")
	ErrRateLimited        = errors.New("rate limit exceeded")
	ErrInsufficientCredit = errors.New("insufficient credits")
	ErrEmptyResponse      = errors.New("no response from model")
)

// classify maps remote API status codes onto the error taxonomy.
func classify(err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		switch apierr.StatusCode {
		case http.StatusUnauthorized:
			return ErrUnauthorized
		case http.StatusPaymentRequired:
			return ErrInsufficientCredit
		case http.StatusTooManyRequests:
			return ErrRateLimited
		}
	}
	return err
}
