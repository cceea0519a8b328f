package store

import (
	"context"
	"errors"
)

//go:generate moq -out mocks/backend.go -pkg mocks -skip-ensure -fmt goimports . Backend

// Backend is a durable ordered message store keyed by queue name
type Backend interface {
	// Write appends msg to the queue
	Write(ctx context.Context, queue, msg string) error
	// Read removes and returns the oldest message. ok is false if the queue is empty.
	Read(ctx context.Context, queue string) (msg string, ok bool, err error)
	// Flush deletes all pending messages of the queue
	Flush(ctx context.Context, queue string) error
	// Len returns the number of pending messages
	Len(ctx context.Context, queue string) (int, error)
}

// ErrEmptyQueueName returned for operations with empty queue name
var ErrEmptyQueueName = errors.New("empty queue name")
