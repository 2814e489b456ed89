// Package dispatcher implements ports.Dispatcher against real transports:
// a single external pipe (the dispatcher process that decides whether to
// keep deauthenticating a client), and an in-process fan-out to additional
// observers such as the web dashboard or the audit store.
package dispatcher

import (
	"fmt"
	"io"
	"sync"

	"github.com/zizzania-go/zizzaniad/internal/core/domain"
)

// PipeDispatcher writes dispatcher records to a single io.Writer, typically
// one end of a pipe or Unix socket connected to a separate deauthentication
// process. Each Write call must land the full 13-byte record or fail: a
// short write is treated the same as any other I/O error.
type PipeDispatcher struct {
	mu sync.Mutex
	w  io.Writer
}

// NewPipeDispatcher wraps w. w is typically an *os.File opened on a named
// pipe or the write end of an os.Pipe().
func NewPipeDispatcher(w io.Writer) *PipeDispatcher {
	return &PipeDispatcher{w: w}
}

// Write implements ports.Dispatcher.
func (d *PipeDispatcher) Write(record [13]byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := d.w.Write(record[:])
	if err != nil {
		return fmt.Errorf("pipe dispatcher: %w", err)
	}
	if n != len(record) {
		return fmt.Errorf("pipe dispatcher: short write (%d of %d bytes)", n, len(record))
	}
	return nil
}

// ChannelDispatcher fans a dispatcher record out to a required primary
// (typically a PipeDispatcher talking to the external deauthentication
// process) and any number of best-effort observers, such as a websocket hub
// or an audit-trail writer. Only the primary's errors are fatal; observer
// errors are swallowed since they are not part of the handshake-tracking
// contract.
type ChannelDispatcher struct {
	primary   DispatcherFunc
	observers []DispatcherFunc
}

// DispatcherFunc adapts a plain function to ports.Dispatcher's shape so
// observers can be closures instead of full types.
type DispatcherFunc func(record [13]byte) error

// NewChannelDispatcher builds a ChannelDispatcher around a required primary
// and zero or more additional observers.
func NewChannelDispatcher(primary DispatcherFunc, observers ...DispatcherFunc) *ChannelDispatcher {
	return &ChannelDispatcher{primary: primary, observers: observers}
}

// Write implements ports.Dispatcher.
func (c *ChannelDispatcher) Write(record [13]byte) error {
	for _, observe := range c.observers {
		_ = observe(record)
	}
	if c.primary == nil {
		return nil
	}
	return c.primary(record)
}

// Decode is a convenience for dispatcher-side (reader) code and tests; it
// is a thin rename of domain.DecodeDispatcherMessage so this package's
// consumers don't need to import the domain package just to read back what
// they wrote.
func Decode(buf []byte) (domain.DispatcherMessage, bool) {
	return domain.DecodeDispatcherMessage(buf)
}
