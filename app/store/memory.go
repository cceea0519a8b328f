package store

import (
	"context"
	"sync"
	"time"
)

// Memory implements Backend in memory. Not durable, for tests and embedded use within a single process.
type Memory struct {
	mu     sync.Mutex
	queues map[string][]Record
	seq    int64
}

// NewMemory makes empty in-memory backend
func NewMemory() *Memory {
	return &Memory{queues: make(map[string][]Record)}
}

// Write appends message to the queue
func (m *Memory) Write(_ context.Context, queue, msg string) error {
	if queue == "" {
		return ErrEmptyQueueName
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.queues[queue] = append(m.queues[queue], Record{ID: m.seq, Queue: queue, Message: msg, CreatedAt: time.Now().UnixNano()})
	return nil
}

// Read removes and returns the oldest message
func (m *Memory) Read(_ context.Context, queue string) (msg string, ok bool, err error) {
	if queue == "" {
		return "", false, ErrEmptyQueueName
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	recs := m.queues[queue]
	if len(recs) == 0 {
		return "", false, nil
	}
	msg = recs[0].Message
	if len(recs) == 1 {
		delete(m.queues, queue)
		return msg, true, nil
	}
	recs[0] = Record{} // release read message, the rest moves to a new array on the next growth
	m.queues[queue] = recs[1:]
	return msg, true, nil
}

// Flush drops all messages of the queue
func (m *Memory) Flush(_ context.Context, queue string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.queues, queue)
	return nil
}

// Len returns number of pending messages
func (m *Memory) Len(_ context.Context, queue string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queues[queue]), nil
}

// Peek returns up to limit pending records without removing them
func (m *Memory) Peek(_ context.Context, queue string, limit int) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	recs := m.queues[queue]
	limit = max(limit, 0)
	if limit < len(recs) {
		recs = recs[:limit]
	}
	return append([]Record{}, recs...), nil
}
