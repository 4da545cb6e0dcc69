// Package server hosts one No-Limit Hold'em tournament table over
// WebSockets: bot seats on /ws, spectators and operators on /spectate,
// with a single session goroutine driving the match.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
)

// Server owns the HTTP listener and the table session.
type Server struct {
	cfg      *Config
	logger   *log.Logger
	session  *Session
	upgrader websocket.Upgrader
	httpSrv  *http.Server
}

// NewServer builds the host from validated configuration.
func NewServer(cfg *Config, clock quartz.Clock, logger *log.Logger) *Server {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Server{
		cfg:     cfg,
		logger:  logger.WithPrefix("server"),
		session: NewSession(cfg, clock, logger),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Session exposes the table session, mainly for tests.
func (s *Server) Session() *Session { return s.session }

// Run serves until the match ends or the context is cancelled. A finished
// match shuts the listener down and returns the session's verdict: nil for
// a clean match end, the invariant error when the table aborted.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc(EndpointBot, s.handleSocket(EndpointBot))
	mux.HandleFunc(EndpointSpectator, s.handleSocket(EndpointSpectator))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.httpSrv = &http.Server{
		Addr:              s.cfg.ListenAddress(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("Listening", "address", s.cfg.ListenAddress())
		if err := s.httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		err := s.session.Run(gctx)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)

		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	return g.Wait()
}

func (s *Server) handleSocket(endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.logger.Error("Upgrade failed", "endpoint", endpoint, "error", err)
			return
		}
		NewConn(ws, endpoint, s.session.Inbox(), s.logger).Start()
	}
}
