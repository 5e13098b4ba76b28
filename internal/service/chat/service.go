package chat

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	model "github.com/rmorell/keychat/internal/model/chat"
	"github.com/rmorell/keychat/internal/store"
)

const (
	maxMessageLen = 4000
	titleLimit    = 50
)

var (
	ErrMessageRequired = errors.New("message is required")
	ErrMessageTooLong  = errors.New("message exceeds 4000 characters")
	ErrAPIKeyRequired  = errors.New("api key is required")
	ErrSessionNotFound = store.ErrSessionNotFound
)

// Completer is the slice of the provider adapter the orchestrator needs.
type Completer interface {
	Complete(ctx context.Context, apiKey, provider string, history []model.Message) (string, error)
}

// Service turns a single user utterance into a persisted exchange with
// the AI provider.
type Service struct {
	store store.Store
	ai    Completer
	log   zerolog.Logger
}

// NewService wires the orchestrator over the store and provider adapter.
func NewService(st store.Store, completer Completer, log zerolog.Logger) *Service {
	return &Service{store: st, ai: completer, log: log}
}

// TurnRequest is one user turn. SessionID is optional; a new session is
// created when it is empty.
type TurnRequest struct {
	SessionID string
	Message   string
	APIKey    string
	Provider  string
}

// MessageView is the wire projection of a stored message.
type MessageView struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// TurnResult is the outcome of a completed exchange.
type TurnResult struct {
	SessionID        string      `json:"sessionId"`
	UserMessage      MessageView `json:"userMessage"`
	AssistantMessage MessageView `json:"assistantMessage"`
}

// SendTurn validates the request, resolves the session, persists the user
// message, asks the provider for a reply using the full conversation
// history, and persists the assistant message.
//
// The user message is not rolled back when the provider call fails.
func (s *Service) SendTurn(ctx context.Context, req TurnRequest) (TurnResult, error) {
	if err := validate(req); err != nil {
		return TurnResult{}, err
	}

	sessionID := req.SessionID
	if sessionID == "" {
		session := s.store.CreateSession(sessionTitle(req.Message))
		sessionID = session.ID
		s.log.Debug().Str("session", sessionID).Msg("session created")
	} else if _, ok := s.store.GetSession(sessionID); !ok {
		return TurnResult{}, ErrSessionNotFound
	}

	userMessage, err := s.store.CreateMessage(sessionID, model.RoleUser, req.Message)
	if err != nil {
		return TurnResult{}, err
	}

	// Full, unbounded context: every prior message plus the one just added.
	history := s.store.ListMessages(sessionID)

	reply, err := s.ai.Complete(ctx, req.APIKey, req.Provider, history)
	if err != nil {
		s.log.Warn().Err(err).Str("session", sessionID).Msg("provider call failed")
		return TurnResult{}, err
	}

	assistantMessage, err := s.store.CreateMessage(sessionID, model.RoleAssistant, reply)
	if err != nil {
		return TurnResult{}, err
	}

	return TurnResult{
		SessionID:        sessionID,
		UserMessage:      view(userMessage),
		AssistantMessage: view(assistantMessage),
	}, nil
}

func validate(req TurnRequest) error {
	if req.Message == "" {
		return ErrMessageRequired
	}
	if len([]rune(req.Message)) > maxMessageLen {
		return ErrMessageTooLong
	}
	if req.APIKey == "" {
		return ErrAPIKeyRequired
	}
	return nil
}

// sessionTitle derives a session title from the opening message,
// truncated at 50 runes with a trailing ellipsis marker.
func sessionTitle(message string) string {
	runes := []rune(message)
	if len(runes) > titleLimit {
		return string(runes[:titleLimit]) + "..."
	}
	return message
}

func view(msg model.Message) MessageView {
	return MessageView{
		ID:        msg.ID,
		Content:   msg.Content,
		Timestamp: msg.Timestamp.UTC().Format(time.RFC3339Nano),
	}
}
