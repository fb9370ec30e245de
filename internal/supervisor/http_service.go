package supervisor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// DefaultShutdownGrace bounds a graceful HTTP shutdown when none is given.
const DefaultShutdownGrace = 10 * time.Second

// HTTPServer is the part of *http.Server the service drives.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServerService adapts an HTTP server to suture. ListenAndServe runs on
// the Serve goroutine; cancelling ctx triggers Shutdown with a fresh
// deadline of grace.
type HTTPServerService struct {
	name  string
	srv   HTTPServer
	grace time.Duration
}

// NewHTTPServerService wraps srv. A non-positive grace means
// DefaultShutdownGrace.
func NewHTTPServerService(name string, srv HTTPServer, grace time.Duration) *HTTPServerService {
	if grace <= 0 {
		grace = DefaultShutdownGrace
	}
	return &HTTPServerService{name: name, srv: srv, grace: grace}
}

func (s *HTTPServerService) String() string { return s.name }

// Serve implements suture.Service.
func (s *HTTPServerService) Serve(ctx context.Context) error {
	shutdown := make(chan error, 1)
	stop := context.AfterFunc(ctx, func() {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.grace)
		defer cancel()
		shutdown <- s.srv.Shutdown(sctx)
	})

	err := s.srv.ListenAndServe()
	if stop() {
		// Shutdown was never requested.
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: listen: %w", s.name, err)
		}
		return nil
	}
	if serr := <-shutdown; serr != nil {
		return fmt.Errorf("%s: shutdown: %w", s.name, serr)
	}
	return ctx.Err()
}
