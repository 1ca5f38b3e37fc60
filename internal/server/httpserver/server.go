// Package httpserver exposes the entries and master-credential operation
// surface over HTTP/JSON.
package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/and161185/passvault/internal/service"
)

// Server wires services into HTTP handlers.
type Server struct {
	entries service.EntryService
	master  service.MasterService
	signKey []byte
	log     *zap.Logger
}

// New constructs an HTTP server with injected services.
func New(entries service.EntryService, master service.MasterService, signKey []byte, log *zap.Logger) *Server {
	return &Server{entries: entries, master: master, signKey: signKey, log: log}
}

// Router builds the chi router with logging, recovery, and auth middleware.
func (s *Server) Router() http.Handler {
	mux := chi.NewRouter()
	mux.Use(Recover(s.log), Logging(s.log))

	mux.Route("/api/entries", func(r chi.Router) {
		r.Use(s.auth)
		r.Get("/challenge", s.handleEntriesChallenge)
		r.Get("/", s.handleList)
		r.Post("/", s.handleCreate)
		r.Patch("/{id}", s.handleUpdate)
		r.Post("/{id}/decrypt", s.handleDecrypt)
		r.Post("/{id}/pin", s.handleTogglePin)
		r.Delete("/{id}", s.handleRemove)
		r.Post("/export", s.handleExport)
	})

	mux.Route("/api/master", func(r chi.Router) {
		r.Use(s.auth)
		r.Get("/challenge", s.handleMasterChallenge)
		r.Post("/", s.handleMasterCreate)
		r.Post("/verify", s.handleMasterVerify)
		r.Post("/otp", s.handleValidateOTP)
	})

	mux.Get("/livez", s.handleLiveness)
	mux.Get("/readyz", s.handleReadiness)

	return mux
}

func (s *Server) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"alive"}`))
}

func (s *Server) handleReadiness(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ready"}`))
}
