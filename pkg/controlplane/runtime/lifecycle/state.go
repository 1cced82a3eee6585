package lifecycle

import (
	"errors"
	"fmt"

	"github.com/emudecky/emudecky/pkg/controlplane/models"
)

// State is the coordinator state.
//
//	Uninitialized -> Loading -> Running -> ShuttingDown -> Stopped
//	Loading -> Failed
//
// Failed and Stopped are terminal.
type State int32

const (
	StateUninitialized State = iota
	StateLoading
	StateRunning
	StateShuttingDown
	StateStopped
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting_down"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateStopped || s == StateFailed
}

var (
	// ErrInvalidState is returned when an operation is not allowed in the current state.
	ErrInvalidState = errors.New("invalid coordinator state")

	// ErrDuplicateModule is returned when two implementations claim the same module.
	ErrDuplicateModule = errors.New("module registered twice")
)

// Hook names.
const (
	HookStart = "start"
	HookStop  = "stop"
)

// HookError reports a failed module hook.
type HookError struct {
	Module models.ModuleName
	Hook   string
	Err    error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("module %s: %s hook failed: %v", e.Module, e.Hook, e.Err)
}

func (e *HookError) Unwrap() error {
	return e.Err
}
