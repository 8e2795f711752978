// Package netutil tunes the TCP listener socket the SLIM server binds.
// A FitNesse-driven CI run starts and stops the server frequently; without
// SO_REUSEADDR a fast restart on the same port fails with "address already
// in use" while the previous listener's sockets drain through TIME_WAIT.
// The socket-option call is platform-specific (golang.org/x/sys/unix vs.
// golang.org/x/sys/windows), so it lives in one file per GOOS.
package netutil

import (
	"context"
	"net"

	slimerrors "github.com/fitnesse-go/slimd/internal/errors"
)

// Listen opens a TCP listener on addr ("host:port") with SO_REUSEADDR
// set before bind.
func Listen(ctx context.Context, addr string) (net.Listener, error) {
	lc := net.ListenConfig{Control: platformControl}
	l, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, &slimerrors.NetworkError{Operation: "listen", Err: err, Details: addr}
	}
	return l, nil
}
