// Package lifecycle implements spec.md §4.6: SIGTERM/SIGINT set every
// core's status to stop_requested; the data plane observes this and
// transitions itself to stopped, while control waits (bounded) for all
// cores to reach stopped before exiting.
package lifecycle

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sandia-minimega/sppworker/internal/minilog"
	"github.com/sandia-minimega/sppworker/internal/state"
)

// ShutdownTimeout bounds how long WaitForStopped will wait for every core
// to report stopped before giving up and returning anyway.
const ShutdownTimeout = 10 * time.Second

// Supervisor propagates shutdown signals to a ProcessState's cores.
type Supervisor struct {
	ps       *state.ProcessState
	sig      chan os.Signal
	stop     chan struct{}
	stopOnce sync.Once
}

// New registers for SIGTERM/SIGINT. When a signal arrives, Watch makes a
// release-ordered store of each core's status word and closes Stop();
// the signal itself is only received on a channel, never handled in a
// signal-handler context.
func New(ps *state.ProcessState) *Supervisor {
	s := &Supervisor{
		ps:   ps,
		sig:  make(chan os.Signal, 1),
		stop: make(chan struct{}),
	}
	signal.Notify(s.sig, os.Interrupt, syscall.SIGTERM)
	return s
}

// Watch blocks until a shutdown signal arrives, then requests every
// core stop and closes Stop(). Intended to run in its own goroutine.
func (s *Supervisor) Watch() {
	<-s.sig
	minilog.Info("shutdown signal received, requesting core stop")
	s.Shutdown()
}

// Shutdown requests every core stop and closes Stop(), unblocking the
// session loop. Safe to call from both Watch() and an "exit" command
// handler; only the first call has any effect.
func (s *Supervisor) Shutdown() {
	s.stopOnce.Do(func() {
		s.RequestStop()
		close(s.stop)
	})
}

// RequestStop sets every core's status to stop_requested, leaving cores
// already unused untouched.
func (s *Supervisor) RequestStop() {
	for _, core := range s.ps.Cores {
		if core.Status() == state.StatusUnused {
			continue
		}
		core.SetStatus(state.StatusStopRequested)
	}
}

// Stop returns a channel closed once a shutdown has been requested,
// suitable for the session Run loop's stop argument.
func (s *Supervisor) Stop() <-chan struct{} {
	return s.stop
}

// WaitForStopped blocks until every non-unused core reports stopped, or
// ShutdownTimeout elapses.
func (s *Supervisor) WaitForStopped() {
	deadline := time.Now().Add(ShutdownTimeout)
	for time.Now().Before(deadline) {
		if s.allStopped() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	minilog.Warn("timed out waiting for all cores to stop")
}

func (s *Supervisor) allStopped() bool {
	for _, core := range s.ps.Cores {
		st := core.Status()
		if st != state.StatusUnused && st != state.StatusStopped {
			return false
		}
	}
	return true
}
