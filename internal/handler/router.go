package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	chathandler "github.com/rmorell/keychat/internal/handler/chat"
	"github.com/rmorell/keychat/internal/middleware"
	chatservice "github.com/rmorell/keychat/internal/service/chat"
	"github.com/rmorell/keychat/internal/store"
	"github.com/rmorell/keychat/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(st store.Store, chatSvc *chatservice.Service, keys chathandler.KeyTester, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS)

	chatHandler := chathandler.New(st, chatSvc, keys)

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		chatHandler.RegisterRoutes(api)
	})

	return r
}
