// Package responder implements the SLIM TCP server: it binds a
// listener, accepts connections, and hands each one to its own
// internal/session.Session so FitNesse (or any SLIM client) can drive
// a test run.
package responder

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"
	xnetutil "golang.org/x/net/netutil"

	slimerrors "github.com/fitnesse-go/slimd/internal/errors"
	"github.com/fitnesse-go/slimd/internal/execctx"
	"github.com/fitnesse-go/slimd/internal/fixture"
	"github.com/fitnesse-go/slimd/internal/netutil"
	"github.com/fitnesse-go/slimd/internal/session"
	"github.com/fitnesse-go/slimd/internal/slimlog"
)

// FixtureLoader loads fixture classes from a filesystem path. It is
// the same shape as engine.FixtureLoader; Server takes its own copy
// of the interface so this package never needs to import engine.
type FixtureLoader interface {
	Load(path string) ([]*execctx.ClassEntry, error)
}

// Server accepts SLIM connections and runs one Session per connection.
// A Server is configured once via New and Option values and is not
// safe to reconfigure after Run has been called.
type Server struct {
	host           string
	port           int
	keepalive      bool
	verbose        bool
	maxConnections int
	importPaths    []string
	loader         FixtureLoader
	log            *slog.Logger

	mu       sync.Mutex
	listener net.Listener
}

// New builds a Server from opts. Host defaults to "0.0.0.0", keepalive
// defaults to false (serve exactly one connection then stop, matching
// how FitNesse itself launches a SLIM server per test run), and the
// fixture loader defaults to a fresh fixture.Loader.
func New(opts ...Option) (*Server, error) {
	s := &Server{
		host:   "0.0.0.0",
		loader: fixture.NewLoader(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if s.port < 0 || s.port > 65535 {
		return nil, &slimerrors.ValidationError{Field: "port", Value: s.port, Message: "must be between 0 and 65535"}
	}
	if s.log == nil {
		s.log = slimlog.New(os.Stderr, s.verbose)
	}
	return s, nil
}

// Addr returns the address the server is listening on, or nil if Run
// has not yet bound a listener.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Run binds the listener and serves connections until ctx is
// cancelled, the listener fails, or (when keepalive is false) the
// first connection's session finishes — in which case Run stops
// accepting and waits for that one session to drain before returning.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	l, err := netutil.Listen(ctx, addr)
	if err != nil {
		return err
	}
	if s.maxConnections > 0 {
		l = xnetutil.LimitListener(l, s.maxConnections)
	}

	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()
	defer l.Close()

	s.log.Info("slimd listening", "addr", l.Addr().String(), "keepalive", s.keepalive, "maxConnections", s.maxConnections)

	g, gctx := errgroup.WithContext(ctx)
	go func() {
		<-gctx.Done()
		l.Close()
	}()

	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			return &slimerrors.NetworkError{Operation: "accept", Err: err}
		}

		g.Go(func() error {
			sess := session.New(conn, s.loader, s.importPaths, s.log)
			if err := sess.Run(gctx); err != nil {
				s.log.Debug("session ended", "session", sess.ID(), "err", err)
			}
			return nil
		})

		if !s.keepalive {
			break
		}
	}

	return g.Wait()
}
