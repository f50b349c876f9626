// Package netx holds the loopback control channel: a single-instance lock
// port that also accepts a shutdown command.
package netx

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/dmitrijs2005/todobot/internal/logging"
)

// ShutdownCommand is the only message the control port understands.
const ShutdownCommand = "SHUTDOWN"

// ErrAlreadyRunning means the control port is taken, most likely by another
// bot instance.
var ErrAlreadyRunning = errors.New("another instance is already running")

type ControlListener struct {
	ln  net.Listener
	log logging.Logger
}

// ListenControl binds addr. Binding is what makes the instance unique.
func ListenControl(addr string, log logging.Logger) (*ControlListener, error) {
	if log == nil {
		log = logging.Nop()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAlreadyRunning, err)
	}
	return &ControlListener{ln: ln, log: log.With("module", "control")}, nil
}

func (c *ControlListener) Addr() string {
	return c.ln.Addr().String()
}

// Close releases the port without waiting for Serve.
func (c *ControlListener) Close() error {
	return c.ln.Close()
}

// Serve accepts connections until ctx is cancelled or a shutdown command
// arrives, in which case onShutdown is called once. Other input is ignored.
func (c *ControlListener) Serve(ctx context.Context, onShutdown func()) {
	go func() {
		<-ctx.Done()
		_ = c.ln.Close()
	}()

	for {
		conn, err := c.ln.Accept()
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, net.ErrClosed) {
				c.log.Warn(ctx, "control accept failed", "error", err)
			}
			return
		}
		if c.handle(ctx, conn) {
			c.log.Info(ctx, "shutdown requested over control port")
			_ = c.ln.Close()
			onShutdown()
			return
		}
	}
}

func (c *ControlListener) handle(ctx context.Context, conn net.Conn) bool {
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	buf := make([]byte, len(ShutdownCommand)+2)
	n, err := conn.Read(buf)
	if err != nil {
		c.log.Debug(ctx, "control read failed", "error", err)
		return false
	}
	return strings.TrimSpace(string(buf[:n])) == ShutdownCommand
}

// SendShutdown asks the instance listening on addr to stop.
func SendShutdown(ctx context.Context, addr string) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("could not connect to the bot at %s: %w", addr, err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(ShutdownCommand)); err != nil {
		return fmt.Errorf("send shutdown: %w", err)
	}
	return nil
}
