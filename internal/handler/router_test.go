package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/rmorell/keychat/internal/handler"
	model "github.com/rmorell/keychat/internal/model/chat"
	chatservice "github.com/rmorell/keychat/internal/service/chat"
	"github.com/rmorell/keychat/internal/store"
)

type stubAI struct{}

func (stubAI) Complete(_ context.Context, _, _ string, _ []model.Message) (string, error) {
	return "stub reply", nil
}

func (stubAI) TestKey(_ context.Context, _, _ string) error {
	return nil
}

func newTestRouter() http.Handler {
	st := store.NewMemoryStore()
	chatSvc := chatservice.NewService(st, stubAI{}, zerolog.Nop())
	return handler.NewRouter(st, chatSvc, stubAI{}, zerolog.Nop())
}

func TestHealthEndpoint(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodOptions, "/api/sessions", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	if resp.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("missing CORS allow-origin header")
	}
}

func TestSendThroughRouter(t *testing.T) {
	r := newTestRouter()

	payload, _ := json.Marshal(map[string]string{
		"message": "Hello",
		"apiKey":  "valid-key",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/chat/send", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var result struct {
		SessionID        string `json:"sessionId"`
		AssistantMessage struct {
			Content string `json:"content"`
		} `json:"assistantMessage"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.AssistantMessage.Content != "stub reply" {
		t.Fatalf("unexpected assistant content: %q", result.AssistantMessage.Content)
	}
}
