// Package queue implements persistent command queue. Commands are serialized to "type_id:payload"
// messages by Registry, written to a store.Backend by Invoker and executed by a consumer calling
// Invoker.Dequeue. Periodic commands requeue themselves on every dequeue and run only when their
// crontab.Schedule matches the current time.
package queue

import (
	"context"
	"time"
)

// Command is a serializable unit of work. Name is the registered type id,
// Payload is everything needed to reconstruct the command in another process.
type Command interface {
	Name() string
	Payload() any
	Execute(ctx context.Context) error
}

// Undoer is an optional capability of Command reverting the effect of Execute
type Undoer interface {
	Undo(ctx context.Context) error
}

// Recurring is a Command requeued on every dequeue and executed only when due
type Recurring interface {
	Command
	// Due checks if the command should run at now. Returning true claims the run,
	// so it should be followed by Execute.
	Due(now time.Time) bool
	// Expired reports a stale copy which should be dropped instead of requeued
	Expired() bool
}
