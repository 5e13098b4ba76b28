package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rmorell/keychat/internal/service/ai"
	chatservice "github.com/rmorell/keychat/internal/service/chat"
	"github.com/rmorell/keychat/internal/store"
	"github.com/rmorell/keychat/pkg/utils"
)

// KeyTester probes a provider with a caller-supplied credential.
type KeyTester interface {
	TestKey(ctx context.Context, apiKey, provider string) error
}

// Handler exposes sessions, messages and chat turns over HTTP.
type Handler struct {
	store   store.Store
	chatSvc *chatservice.Service
	keys    KeyTester
}

// New creates the chat handler.
func New(st store.Store, chatSvc *chatservice.Service, keys KeyTester) *Handler {
	return &Handler{
		store:   st,
		chatSvc: chatSvc,
		keys:    keys,
	}
}

// RegisterRoutes mounts all chat and session routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions", h.handleListSessions)
	r.Post("/sessions", h.handleCreateSession)
	r.Delete("/sessions", h.handleDeleteAllSessions)
	r.Get("/sessions/{sessionID}/messages", h.handleListMessages)
	r.Delete("/sessions/{sessionID}", h.handleDeleteSession)
	r.Delete("/sessions/{sessionID}/messages", h.handleDeleteMessages)
	r.Post("/chat/send", h.handleSend)
	r.Post("/chat/test-key", h.handleTestKey)
}

func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.store.ListSessions())
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Title string `json:"title"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Title == "" {
		utils.RespondError(w, http.StatusBadRequest, "title is required")
		return
	}

	session := h.store.CreateSession(payload.Title)
	utils.RespondJSON(w, http.StatusCreated, session)
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	h.store.DeleteSession(chi.URLParam(r, "sessionID"))
	utils.RespondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) handleDeleteAllSessions(w http.ResponseWriter, r *http.Request) {
	h.store.DeleteAllSessions()
	utils.RespondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	messages := h.store.ListMessages(chi.URLParam(r, "sessionID"))
	utils.RespondJSON(w, http.StatusOK, messages)
}

func (h *Handler) handleDeleteMessages(w http.ResponseWriter, r *http.Request) {
	h.store.DeleteMessages(chi.URLParam(r, "sessionID"))
	utils.RespondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"sessionId"`
		Message   string `json:"message"`
		APIKey    string `json:"apiKey"`
		Provider  string `json:"provider"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Provider == "" {
		payload.Provider = ai.ProviderOpenAI
	}

	result, err := h.chatSvc.SendTurn(r.Context(), chatservice.TurnRequest{
		SessionID: payload.SessionID,
		Message:   payload.Message,
		APIKey:    payload.APIKey,
		Provider:  payload.Provider,
	})
	if err != nil {
		respondSendError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, result)
}

func respondSendError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chatservice.ErrMessageRequired),
		errors.Is(err, chatservice.ErrMessageTooLong),
		errors.Is(err, chatservice.ErrAPIKeyRequired),
		errors.Is(err, ai.ErrUnknownProvider):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, chatservice.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ai.ErrUnauthorized):
		utils.RespondError(w, http.StatusUnauthorized, "invalid api key")
	case errors.Is(err, ai.ErrRateLimited):
		utils.RespondError(w, http.StatusTooManyRequests, "rate limit exceeded")
	case errors.Is(err, ai.ErrInsufficientCredit):
		utils.RespondError(w, http.StatusPaymentRequired, "insufficient credits")
	case errors.Is(err, ai.ErrEmptyResponse):
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
	default:
		utils.RespondError(w, http.StatusInternalServerError, "failed to process message")
	}
}

func (h *Handler) handleTestKey(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		APIKey   string `json:"apiKey"`
		Provider string `json:"provider"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.APIKey == "" {
		utils.RespondError(w, http.StatusBadRequest, "api key is required")
		return
	}
	if payload.Provider == "" {
		payload.Provider = ai.ProviderOpenAI
	}

	err := h.keys.TestKey(r.Context(), payload.APIKey, payload.Provider)
	switch {
	case err == nil:
		utils.RespondJSON(w, http.StatusOK, map[string]any{"valid": true})
	case errors.Is(err, ai.ErrUnknownProvider):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ai.ErrUnauthorized):
		utils.RespondJSON(w, http.StatusUnauthorized, map[string]any{
			"valid":   false,
			"message": "invalid api key",
		})
	default:
		utils.RespondJSON(w, http.StatusInternalServerError, map[string]any{
			"valid":   false,
			"message": "failed to test api key",
		})
	}
}
