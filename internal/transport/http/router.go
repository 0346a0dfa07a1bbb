package http

import (
	"net/http"
	"time"

	httpmw "github.com/alumni-hub/messaging-service/internal/transport/http/middleware"
	"github.com/alumni-hub/messaging-service/internal/transport/ws"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func NewRouter(h *Handler, wsServer *ws.Server, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middlewareChi.RequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(middlewareChi.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Username"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// WS endpoints authenticate via query params
	r.Get("/ws/messages", wsServer.HandleMessages)
	r.Get("/ws/presence", wsServer.HandlePresence)

	r.Group(func(pr chi.Router) {
		pr.Use(httpmw.AuthMiddleware)
		pr.Use(middlewareChi.Timeout(30 * time.Second))

		pr.Route("/messages", func(rm chi.Router) {
			rm.Get("/", h.ListMessages)
			rm.Get("/thread/{username}", h.GetThread)
			rm.Post("/{username}", h.SendMessage)
			rm.Delete("/{id}", h.DeleteMessage)
		})

		pr.Get("/presence", h.GetPresence)
	})

	// health
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
