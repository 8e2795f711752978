package session

import (
	"bytes"
	"context"
	"log/slog"
	"net"
	"sync"

	"github.com/google/uuid"

	"github.com/fitnesse-go/slimd/internal/codec"
	"github.com/fitnesse-go/slimd/internal/convert"
	slimerrors "github.com/fitnesse-go/slimd/internal/errors"
	"github.com/fitnesse-go/slimd/internal/engine"
	"github.com/fitnesse-go/slimd/internal/execctx"
	"github.com/fitnesse-go/slimd/internal/slimlog"
)

// banner is the version banner sent once, immediately after accept.
// It is not framed like every later message.
const banner = "Slim -- V0.0\n"

// byeBody is the literal client payload that ends a session cleanly.
const byeBody = "bye"

// Session owns everything specific to one connection: its
// ExecutionContext, its ValueConverter registry, and the protocol
// state machine that drives the socket. Nothing here is shared with
// any other Session.
type Session struct {
	id     uuid.UUID
	conn   net.Conn
	ctx    *execctx.ExecutionContext
	reg    *convert.Registry
	loader engine.FixtureLoader
	log    *slog.Logger

	mu            sync.RWMutex
	state         State
	onStateChange func(State)
}

// New returns a Session ready to Run over conn. importPaths seeds the
// ExecutionContext's search path (the server's --fixtures flag);
// loader resolves filesystem Import targets and may be nil if the
// server was started without fixture support. log receives a
// "session" attribute with this session's id for correlation across
// concurrent connections; pass slimlog.Default if the caller has none.
func New(conn net.Conn, loader engine.FixtureLoader, importPaths []string, log *slog.Logger) *Session {
	if log == nil {
		log = slimlog.Default
	}
	id := uuid.New()
	ctx := execctx.New()
	for _, p := range importPaths {
		ctx.AddImportPath(p)
	}
	return &Session{
		id:     id,
		conn:   conn,
		ctx:    ctx,
		reg:    convert.NewRegistry(),
		loader: loader,
		log:    log.With("session", id.String()),
		state:  StateStart,
	}
}

// ID returns the session's correlation id.
func (s *Session) ID() uuid.UUID { return s.id }

// State returns the session's current protocol state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// SetOnStateChange installs a callback fired after every transition;
// it is called without the Session's lock held, to avoid deadlocking
// a test hook that calls back into the Session. The server itself
// never needs it.
func (s *Session) SetOnStateChange(fn func(State)) {
	s.mu.Lock()
	s.onStateChange = fn
	s.mu.Unlock()
}

func (s *Session) setState(next State) {
	s.mu.Lock()
	s.state = next
	cb := s.onStateChange
	s.mu.Unlock()
	s.log.Debug("state transition", "state", next.String())
	if cb != nil {
		cb(next)
	}
}

// Run drives the session to completion: send the banner, then loop
// reading a framed instruction batch, executing it, and writing back
// the framed results, until the client sends "bye" or a fatal error
// occurs. A fatal error (wire framing, I/O) closes this connection and
// is returned to the caller for logging; it must never be allowed to
// bring down the server.
func (s *Session) Run(ctx context.Context) error {
	defer s.conn.Close()

	if done := ctx.Done(); done != nil {
		go func() {
			<-done
			s.conn.Close()
		}()
	}

	s.setState(StateStart)
	if _, err := s.conn.Write([]byte(banner)); err != nil {
		s.setState(StateClosed)
		return &slimerrors.NetworkError{Operation: "write banner", Err: err}
	}
	s.log.Debug("session started", "remote", s.conn.RemoteAddr())

	for {
		s.setState(StateRecvLen)
		body, err := codec.ReadFrame(s.conn)
		if err != nil {
			s.setState(StateClosed)
			s.log.Debug("session ended", "reason", err)
			return err
		}

		s.setState(StateRecvBody)
		if bytes.Equal(body, []byte(byeBody)) {
			s.setState(StateClosed)
			s.log.Debug("session closed by client bye")
			return nil
		}

		response, err := s.handleBatch(body)
		if err != nil {
			s.setState(StateClosed)
			s.log.Debug("session ended", "reason", err)
			return err
		}

		if err := codec.WriteFrame(s.conn, response); err != nil {
			s.setState(StateClosed)
			return &slimerrors.NetworkError{Operation: "write response", Err: err}
		}
	}
}

// handleBatch decodes one instruction batch, executes it against this
// session's ExecutionContext, and packs the results back into wire
// bytes. A decode failure here is the one path out of ExecuteAll: a
// malformed payload never reaches the engine, since the engine has no
// way to report "the request itself wasn't a valid list".
func (s *Session) handleBatch(body []byte) ([]byte, error) {
	list, err := codec.Unpack(string(body))
	if err != nil {
		return nil, err
	}

	instrs, err := engine.ParseList(list)
	if err != nil {
		return nil, &slimerrors.WireFormatError{
			Operation: "parse instruction list",
			Offset:    -1,
			Message:   err.Error(),
			Err:       err,
		}
	}

	results := engine.ExecuteAll(instrs, s.ctx, s.reg, s.loader)
	s.log.Debug("batch executed", "instructions", len(instrs), "results", len(results), "request", slimlog.ByteSize(len(body)))

	packed, err := codec.Pack(engine.Pack(results))
	if err != nil {
		return nil, err
	}
	return []byte(packed), nil
}
