package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/mindease/backend/internal/config"
	"github.com/zhouzirui/mindease/backend/internal/handler/chat"
	"github.com/zhouzirui/mindease/backend/internal/handler/meta"
	"github.com/zhouzirui/mindease/backend/internal/handler/socket"
	"github.com/zhouzirui/mindease/backend/internal/handler/stream"
	middlewarePkg "github.com/zhouzirui/mindease/backend/internal/middleware"
	chatService "github.com/zhouzirui/mindease/backend/internal/service/chat"
	"github.com/zhouzirui/mindease/backend/internal/service/conversation"
	"github.com/zhouzirui/mindease/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(page config.PageConfig, chatSvc *chatService.Service, controller *conversation.Controller) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	metaHandler := meta.New(page)
	chatHandler := chat.New(chatSvc, controller)
	streamHandler := stream.New(controller)
	socketHandler := socket.New(chatSvc, controller, page.Disclaimer)

	r.Route("/api", func(api chi.Router) {
		metaHandler.RegisterRoutes(api)
		chatHandler.RegisterRoutes(api)
		socketHandler.RegisterRoutes(api)

		// One turn per request, rendered as SSE
		api.Get("/stream/{sessionID}", func(w http.ResponseWriter, r *http.Request) {
			sessionID := chi.URLParam(r, "sessionID")
			userMessage := r.URL.Query().Get("message")

			err := streamHandler.HandleStreamRequest(r.Context(), w, sessionID, userMessage)
			switch {
			case err == nil:
			case errors.Is(err, chatService.ErrSessionNotFound):
				utils.RespondError(w, http.StatusNotFound, "session not found")
			case errors.Is(err, conversation.ErrInputTooLong):
				utils.RespondError(w, http.StatusBadRequest, err.Error())
			default:
				log.Printf("[stream] error handling request: %v", err)
				utils.RespondError(w, http.StatusInternalServerError, "streaming failed")
			}
		})
	})

	return r
}
