package ops

import (
	"errors"
	"fmt"
)

type FaultKind string

const (
	FaultNone      FaultKind = "none"
	FaultTimeout   FaultKind = "timeout"
	FaultTransient FaultKind = "transient"
	FaultPermanent FaultKind = "permanent"
)

var (
	ErrToolTimeout   = errors.New("tool timeout")
	ErrToolTransient = errors.New("tool transient error")
	ErrToolPermanent = errors.New("tool permanent error")
)

// ToolError is raised by the tool boundary. Timeouts and transient errors are
// retryable; permanent errors are not.
type ToolError struct {
	Tool ToolName
	Kind FaultKind
}

func NewToolError(tool ToolName, kind FaultKind) *ToolError {
	return &ToolError{Tool: tool, Kind: kind}
}

func (e *ToolError) Error() string {
	switch e.Kind {
	case FaultTimeout:
		return fmt.Sprintf("%s timed out", e.Tool)
	case FaultTransient:
		return fmt.Sprintf("%s transient failure", e.Tool)
	case FaultPermanent:
		return fmt.Sprintf("%s permanent failure", e.Tool)
	default:
		return fmt.Sprintf("%s failed", e.Tool)
	}
}

func (e *ToolError) Unwrap() error {
	switch e.Kind {
	case FaultTimeout:
		return ErrToolTimeout
	case FaultTransient:
		return ErrToolTransient
	case FaultPermanent:
		return ErrToolPermanent
	default:
		return nil
	}
}

// TypeName is the error class recorded in retry attempts.
func (e *ToolError) TypeName() string {
	switch e.Kind {
	case FaultTimeout:
		return "ToolTimeout"
	case FaultTransient:
		return "ToolTransientError"
	case FaultPermanent:
		return "ToolPermanentError"
	default:
		return "ToolError"
	}
}

func IsRetryable(err error) bool {
	return errors.Is(err, ErrToolTimeout) || errors.Is(err, ErrToolTransient)
}

func IsToolError(err error) bool {
	var te *ToolError
	return errors.As(err, &te)
}
