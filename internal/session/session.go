// Package session implements the Session/Transport layer of spec.md
// §4.1: a single outbound, auto-reconnecting connection to the
// controller, framed on a NUL terminator in each direction. It is the
// only layer in the control plane allowed to block (on connect, on
// send, or on the sleep between reconnect attempts).
package session

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/sandia-minimega/sppworker/internal/minilog"
)

// readChunk is the block-granularity of each read (2048 bytes). Reads
// are not non-blocking: each one blocks for up to a 200ms read deadline
// (see serve).
const readChunk = 2048

// maxRecvBuf bounds the receive buffer; exceeding it without finding a
// frame terminator is the layer's one Fatal condition (spec.md §4.1,
// §7: "out-of-memory on receive buffer growth, propagated up to abort
// the process").
const maxRecvBuf = 16 << 20 // 16 MiB

// Status mirrors the Disconnected/Connecting/Connected states of §4.1.
type Status int

const (
	Disconnected Status = iota
	Connecting
	Connected
)

// Config holds the two endpoint parameters and the reconnect cadence. The
// flush acknowledgement tunables are not here; they live in flush.Config.
type Config struct {
	Host           string
	Port           int
	ReconnectDelay time.Duration
}

// DefaultReconnectDelay matches the short fixed cadence named as a
// design default in spec.md §4.1.
const DefaultReconnectDelay = 2 * time.Second

// Handler processes one complete framed message and returns the bytes
// of the reply to send back (already including the terminating NUL, as
// produced by the reply package).
type Handler func(message string) []byte

// Session owns the single outbound controller connection.
type Session struct {
	cfg    Config
	status Status

	conn net.Conn
	recv []byte
}

// New creates a session bound to the controller endpoint in cfg.
func New(cfg Config) *Session {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	return &Session{cfg: cfg, status: Disconnected}
}

// Status returns the session's current connection state.
func (s *Session) Status() Status {
	return s.status
}

// Run drives the reconnect loop forever, invoking handler for every
// framed message received and writing back whatever it returns. It only
// returns on a Fatal transport error (spec.md §4.1's error taxonomy) or
// when stop is closed.
func (s *Session) Run(stop <-chan struct{}, handler Handler) error {
	for {
		select {
		case <-stop:
			return nil
		default:
		}

		if err := s.connect(); err != nil {
			minilog.Info("controller connect failed: %v; retrying in %v", err, s.cfg.ReconnectDelay)
			select {
			case <-stop:
				return nil
			case <-time.After(s.cfg.ReconnectDelay):
			}
			continue
		}

		err := s.serve(stop, handler)
		s.close()

		var fatal fatalError
		if errors.As(err, &fatal) {
			return fmt.Errorf("fatal transport error: %w", fatal.err)
		}
		// Temporary error (or a clean stop): loop back to reconnect.
	}
}

type fatalError struct{ err error }

func (f fatalError) Error() string { return f.err.Error() }
func (f fatalError) Unwrap() error { return f.err }

func (s *Session) connect() error {
	s.status = Connecting
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		s.status = Disconnected
		return err
	}

	s.conn = conn
	s.recv = s.recv[:0]
	s.status = Connected
	minilog.Info("connected to controller at %v", addr)
	return nil
}

func (s *Session) close() {
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.status = Disconnected
}

// serve reads and frames messages until the connection drops or a reply
// write fails (Temporary: Run closes the connection and reconnects) or
// the receive buffer would overflow (Fatal). One message is handled at a time, in arrival order, matching
// the "commands from a single controller session are executed in
// arrival order, one at a time" ordering guarantee of spec.md §5.
func (s *Session) serve(stop <-chan struct{}, handler Handler) error {
	buf := make([]byte, readChunk)

	for {
		select {
		case <-stop:
			return nil
		default:
		}

		s.conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
		n, err := s.conn.Read(buf)
		if n > 0 {
			s.recv = append(s.recv, buf[:n]...)
		}
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				// No data within this poll slice; loop and try again.
				// Drain any complete frames already buffered first.
				if derr := s.drainFrames(handler); derr != nil {
					return derr
				}
				continue
			}
			// Any other read error collapses the session (Temporary).
			return nil
		}

		if err := s.drainFrames(handler); err != nil {
			return err
		}

		if len(s.recv) > maxRecvBuf {
			return fatalError{errors.New("receive buffer exceeded bound without a frame terminator")}
		}
	}
}

// drainFrames extracts every complete NUL-terminated message currently
// buffered and dispatches it to handler, per spec.md §4.1's framing
// contract: a message terminates at the first NUL byte, which is
// consumed and not part of the body; bytes past it start the next
// message.
func (s *Session) drainFrames(handler Handler) error {
	for {
		idx := bytes.IndexByte(s.recv, 0)
		if idx < 0 {
			return nil
		}

		msg := string(s.recv[:idx])
		s.recv = append([]byte(nil), s.recv[idx+1:]...)

		reply := handler(msg)
		if err := s.write(reply); err != nil {
			return err // Temporary: write failure collapses the session.
		}
	}
}

// write sends a fully formed reply (including its terminating NUL) with a
// single Write call. The call is not non-blocking: it blocks for up to a
// 2s write deadline. An error or a partial write is returned, and the
// caller collapses the session.
func (s *Session) write(reply []byte) error {
	s.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	n, err := s.conn.Write(reply)
	if err != nil {
		return err
	}
	if n != len(reply) {
		return fmt.Errorf("partial write: wrote %d of %d bytes", n, len(reply))
	}
	return nil
}

