package queue

import (
	"errors"
	"fmt"
)

// errors returned by registry and invoker
var (
	ErrDuplicateRegistration = errors.New("duplicate registration")
	ErrUnknownCommandType    = errors.New("unknown command type")
	ErrMalformedMessage      = errors.New("malformed message")
	ErrDecodePayload         = errors.New("can't decode payload")
	ErrInvalidTypeID         = errors.New("invalid type id")
	ErrNoHistory             = errors.New("no history")
	ErrUndoNotSupported      = errors.New("undo not supported")
	ErrBackend               = errors.New("backend failure")
	ErrPeriodicLost          = errors.New("periodic command lost, can't requeue")
)

// IsTransient checks if err came from the queue or registry layer, i.e. a broken or unknown message
// or a backend failure. Such errors don't mean the command itself failed, the consumer can skip
// the cycle and keep going. All other errors, including failures of Execute and Undo, are not transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrUnknownCommandType) || errors.Is(err, ErrMalformedMessage) ||
		errors.Is(err, ErrDecodePayload) || errors.Is(err, ErrBackend)
}

// ExecError is a failure of command execution, keeps the message of failed command
type ExecError struct {
	Command string // type id
	Message string
	Err     error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }
