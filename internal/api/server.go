// Package api exposes the account registration endpoint alongside metrics
// and health probes. It is a collaborator of the polling core: it writes to
// the shared addressbook but never touches chain state.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/devblac/account-monitor/internal/addressbook"
	"github.com/devblac/account-monitor/internal/metrics"
)

const maxBodyBytes = 16 * 1024

// Server handles account registration and observability endpoints.
type Server struct {
	book    *addressbook.Book
	metrics *metrics.Metrics
	log     *slog.Logger
}

// New builds a server over the shared addressbook.
func New(book *addressbook.Book, mtr *metrics.Metrics, log *slog.Logger) *Server {
	return &Server{book: book, metrics: mtr, log: log}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/accounts", s.handleAccounts)
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.Handle("/metrics", metrics.Handler())
	return mux
}

// Serve starts the server on addr. Shutdown stops it.
func Serve(addr string, handler http.Handler) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 3 * time.Second,
	}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}

// Shutdown gracefully shuts down a server started with Serve.
func Shutdown(ctx context.Context, srv *http.Server) error {
	return srv.Shutdown(ctx)
}

type accountRequest struct {
	Address string `json:"address"`
	Label   string `json:"label"`
}

func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var account accountRequest
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&account); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	if !common.IsHexAddress(account.Address) {
		http.Error(w, "Invalid account address", http.StatusUnprocessableEntity)
		return
	}

	count := s.book.Add(account.Address, account.Label)
	s.metrics.SetMonitoredAccounts(count)
	s.log.Info("watched accounts updated", "count", count)

	w.WriteHeader(http.StatusAccepted)
	_, _ = w.Write([]byte(fmt.Sprintf("Watching %d accounts\n", count)))
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
