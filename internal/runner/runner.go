// Package runner implements the command execution engine of spec.md
// §4.3: semantic validation against live state, staged mutation, and a
// request to the flusher to publish the result. All validation happens
// before any mutation, so a rejected command never leaves a partial
// change behind (spec.md §7, property P2).
package runner

import (
	"fmt"

	"github.com/sandia-minimega/sppworker/internal/command"
	"github.com/sandia-minimega/sppworker/internal/flush"
	"github.com/sandia-minimega/sppworker/internal/minilog"
	"github.com/sandia-minimega/sppworker/internal/state"
)

// Result is the runner's outcome, consumed by the formatter (spec.md
// §4.5). Every runner entry point returns only a Result; no runner
// operation returns a separate error.
type Result struct {
	OK      bool
	Command string
	Reason  string
	Status  []StatusCore // only populated for the status command
}

// Runner executes commands against one process's state.
type Runner struct {
	PS      *state.ProcessState
	Flusher *flush.Flusher
}

// New creates a runner bound to ps and the flusher that will publish its
// staged changes.
func New(ps *state.ProcessState, f *flush.Flusher) *Runner {
	return &Runner{PS: ps, Flusher: f}
}

// Execute dispatches a parsed command to the matching runner operation.
// Exit is handled one level up by the session/lifecycle layer (it is not
// itself a state mutation), so Execute treats it as a no-op success.
func (r *Runner) Execute(cmd *command.Command) Result {
	switch cmd.Verb {
	case command.VerbComponent:
		return r.Worker(cmd)
	case command.VerbPort:
		return r.Port(cmd)
	case command.VerbClassifierTable:
		return r.ClsTable(cmd)
	case command.VerbStatus:
		return r.Status()
	case command.VerbExit:
		return Result{OK: true, Command: "exit"}
	default:
		return fail("unknown", "unsupported verb")
	}
}

// commit asks the flusher to publish whatever the caller just staged. On
// failure it rolls back and reports the flush failure as the command's
// error, per spec.md §4.4/§7 ("Collaborator failure during flush").
func (r *Runner) commit(commandName string) Result {
	if err := r.Flusher.Run(r.PS); err != nil {
		minilog.Error("flush failed for %s: %v", commandName, err)
		return Result{OK: false, Command: commandName, Reason: err.Error()}
	}
	return Result{OK: true, Command: commandName}
}

func fail(commandName, format string, args ...interface{}) Result {
	return Result{OK: false, Command: commandName, Reason: fmt.Sprintf(format, args...)}
}
