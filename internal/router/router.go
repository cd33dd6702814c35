package router

import (
	"net/http"

	"bookorder/internal/handler"
	"bookorder/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(orderHandler *handler.OrderHandler, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Applied outermost first: Recovery -> RequestID -> Logging -> CORS
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, `{"detail": "not found"}`)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, `{"detail": "method not allowed"}`)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusOK, `{"status": "healthy"}`)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Post("/initiate", orderHandler.Initiate)
		r.Post("/verify", orderHandler.Verify)
		r.Post("/resend-code", orderHandler.Resend)
		r.Get("/", orderHandler.List)
		r.Get("/{id}", orderHandler.GetByID)
	})

	return r
}

func writeDetail(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}
