// Package server exposes the design generation pipeline over HTTP.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// New constructs the HTTP server with routes and middleware.
func New(addr string, h *Handler) *http.Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	router.Get("/health", h.Health)
	router.Post("/analyze-image", h.AnalyzeImage)
	router.Post("/generate-standard", h.GenerateStandard)
	router.Post("/generate-real-products", h.GenerateRealProducts)
	router.Get("/sessions", h.ListSessions)
	router.Get("/sessions/{id}", h.GetSession)
	router.Handle("/images/*", http.StripPrefix("/images/", http.FileServer(http.Dir(h.OutputDir))))

	return &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
}
