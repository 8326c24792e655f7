package gamesim

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/okian/questforge/internal/domain/model"
	"github.com/okian/questforge/pkg/logger"
)

const snapshotPathPrefix = "/v1/wallets/"

// Server serves synthetic wallet snapshots over the same wire shape the
// real game API uses. Snapshots are generated on first request and
// cached, so repeated fetches for a wallet are stable within a process.
type Server struct {
	mu     sync.Mutex
	cache  map[string]*model.Snapshot
	logger logger.Logger
	now    func() time.Time
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock sets the time source.
func WithClock(c func() time.Time) Option {
	return func(s *Server) {
		if c != nil {
			s.now = c
		}
	}
}

// NewServer creates a simulator server.
func NewServer(opts ...Option) *Server {
	s := &Server{
		cache: make(map[string]*model.Snapshot),
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("gamesim")
	} else {
		s.logger = s.logger.Named("gamesim")
	}
	return s
}

// Register attaches the simulator routes to mux.
// Routes:.
//
//	GET /v1/wallets/{wallet}/snapshot -> synthetic snapshot
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc(snapshotPathPrefix, s.handleSnapshot)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, snapshotPathPrefix)
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "snapshot" {
		http.NotFound(w, r)
		return
	}
	wallet := parts[0]

	snap := s.snapshotFor(wallet)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		s.logger.Error(r.Context(), "failed to encode snapshot",
			logger.String("wallet", wallet), logger.Error(err))
	}
}

// snapshotFor returns the cached snapshot for the wallet, generating it
// on first request. ExtractedAt is refreshed on every call.
func (s *Server) snapshotFor(wallet string) *model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.cache[wallet]
	if !ok {
		snap = generateSnapshot(wallet, s.now())
		s.cache[wallet] = snap
	}
	snap.ExtractedAt = s.now()
	return snap
}
