package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater"
	"github.com/go-pkgz/repeater/strategy"

	"github.com/umputun/cue/app/store"
)

//go:generate moq -out mocks/journal.go -pkg mocks -skip-ensure -fmt goimports . Journal

// DefaultStackSize is the default capacity of undo history
const DefaultStackSize = 10

// Repeater runs fun with retries, implemented by repeater.Repeater
type Repeater interface {
	Do(ctx context.Context, fun func() error, errors ...error) (err error)
}

// Journal records messages in flight, so commands interrupted by crash can be resumed.
// Implemented by resumer.Resumer
type Journal interface {
	OnStart(msg string) (string, error)
	OnFinish(id string) error
}

// Invoker puts commands to the queue and executes them on dequeue, keeping history of executed messages for undo
type Invoker struct {
	backend   store.Backend
	registry  *Registry
	queue     string
	stackSize int
	repeater  Repeater
	requeue   Repeater
	journal   Journal
	now       func() time.Time

	mu      sync.Mutex
	history []string // newest last
}

// Option func type
type Option func(inv *Invoker)

// WithStackSize sets capacity of the undo history
func WithStackSize(n int) Option {
	return func(inv *Invoker) {
		if n > 0 {
			inv.stackSize = n
		}
	}
}

// WithRepeater sets repeater for command execution. By default commands executed once.
func WithRepeater(r Repeater) Option {
	return func(inv *Invoker) { inv.repeater = r }
}

// WithRequeueRepeater sets repeater for putting periodic command back to the queue.
// By default requeue tried 5 times with 100ms delay.
func WithRequeueRepeater(r Repeater) Option {
	return func(inv *Invoker) { inv.requeue = r }
}

// WithJournal sets journal of in-flight messages
func WithJournal(j Journal) Option {
	return func(inv *Invoker) { inv.journal = j }
}

// WithClock sets time source used to check periodic commands
func WithClock(now func() time.Time) Option {
	return func(inv *Invoker) { inv.now = now }
}

// NewInvoker makes invoker for the named queue in backend
func NewInvoker(backend store.Backend, registry *Registry, queue string, opts ...Option) *Invoker {
	res := &Invoker{
		backend:   backend,
		registry:  registry,
		queue:     queue,
		stackSize: DefaultStackSize,
		repeater:  repeater.New(&strategy.Once{}),
		requeue:   repeater.New(&strategy.FixedDelay{Repeats: 5, Delay: 100 * time.Millisecond}),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(res)
	}
	return res
}

// Queue returns name of the queue
func (inv *Invoker) Queue() string { return inv.queue }

// Enqueue serializes command and writes it to the queue
func (inv *Invoker) Enqueue(ctx context.Context, cmd Command) error {
	msg, err := inv.registry.Serialize(cmd)
	if err != nil {
		return err
	}
	return inv.Write(ctx, msg)
}

// Write puts raw message to the queue
func (inv *Invoker) Write(ctx context.Context, msg string) error {
	if err := inv.backend.Write(ctx, inv.queue, msg); err != nil {
		return fmt.Errorf("failed to enqueue to %s: %w: %w", inv.queue, ErrBackend, err)
	}
	return nil
}

// Dequeue reads one message and executes it. Returns false if nothing executed, i.e. the queue is empty
// or the only message was a periodic command not due yet. A message is removed from the queue by the read,
// so a message failing to deserialize is dropped. Failure of the command itself returned as *ExecError.
// Periodic command which can't be put back to the queue returns ErrPeriodicLost, not transient.
func (inv *Invoker) Dequeue(ctx context.Context) (bool, error) {
	msg, ok, err := inv.backend.Read(ctx, inv.queue)
	if err != nil {
		return false, fmt.Errorf("failed to dequeue from %s: %w: %w", inv.queue, ErrBackend, err)
	}
	if !ok {
		return false, nil
	}

	cmd, err := inv.registry.Deserialize(msg)
	if err != nil {
		return false, fmt.Errorf("message dropped: %w", err)
	}

	if rc, ok := cmd.(Recurring); ok {
		if rc.Expired() {
			log.Printf("[DEBUG] expired periodic %s dropped", rc.Name())
			return false, nil
		}
		// requeue before execution, a failed run doesn't stop the schedule
		if err := inv.requeue.Do(ctx, func() error { return inv.Write(ctx, msg) }); err != nil {
			return false, fmt.Errorf("%s: %w, %v", rc.Name(), ErrPeriodicLost, err) //nolint:errorlint // backend error not wrapped, not transient
		}
		if !rc.Due(inv.now()) {
			return false, nil
		}
		log.Printf("[DEBUG] periodic %s is due", rc.Name())
	}

	if err := inv.execute(ctx, cmd, msg); err != nil {
		return false, err
	}
	inv.push(msg)
	return true, nil
}

func (inv *Invoker) execute(ctx context.Context, cmd Command, msg string) error {
	var jid string
	if inv.journal != nil {
		id, err := inv.journal.OnStart(msg)
		if err != nil {
			return fmt.Errorf("failed to journal %s: %w", cmd.Name(), err)
		}
		jid = id
	}

	st := time.Now()
	if err := inv.repeater.Do(ctx, func() error { return cmd.Execute(ctx) }); err != nil {
		// journal entry kept, the command will be resumed on the next start
		return &ExecError{Command: cmd.Name(), Message: msg, Err: err}
	}
	log.Printf("[DEBUG] command %s completed in %v", cmd.Name(), time.Since(st).Truncate(time.Millisecond))

	if inv.journal != nil {
		if err := inv.journal.OnFinish(jid); err != nil {
			log.Printf("[WARN] failed to finish journal entry %s, %v", jid, err)
		}
	}
	return nil
}

// Undo pops the most recent executed message and calls Undo of the command made from it
func (inv *Invoker) Undo(ctx context.Context) error {
	msg, ok := inv.pop()
	if !ok {
		return ErrNoHistory
	}
	cmd, err := inv.registry.Deserialize(msg)
	if err != nil {
		return fmt.Errorf("can't undo: %w", err)
	}
	u, ok := cmd.(Undoer)
	if !ok {
		return fmt.Errorf("%s: %w", cmd.Name(), ErrUndoNotSupported)
	}
	if err := u.Undo(ctx); err != nil {
		return fmt.Errorf("undo %s failed: %w", cmd.Name(), err)
	}
	return nil
}

// Flush removes all pending messages
func (inv *Invoker) Flush(ctx context.Context) error {
	if err := inv.backend.Flush(ctx, inv.queue); err != nil {
		return fmt.Errorf("failed to flush %s: %w: %w", inv.queue, ErrBackend, err)
	}
	return nil
}

// Len returns number of pending messages
func (inv *Invoker) Len(ctx context.Context) (int, error) {
	n, err := inv.backend.Len(ctx, inv.queue)
	if err != nil {
		return 0, fmt.Errorf("failed to get length of %s: %w: %w", inv.queue, ErrBackend, err)
	}
	return n, nil
}

// History returns copy of executed messages, newest last
func (inv *Invoker) History() []string {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return append([]string{}, inv.history...)
}

// SeedPeriodic starts a new generation of every registered periodic command and puts one copy of each
// to the queue. Copies left from previous runs are dropped on dequeue. Returns number of seeded commands.
func (inv *Invoker) SeedPeriodic(ctx context.Context) (int, error) {
	count := 0
	for _, p := range inv.registry.Periodic() {
		if err := inv.Enqueue(ctx, p.newGeneration()); err != nil {
			return count, fmt.Errorf("failed to seed %s: %w", p.Name(), err)
		}
		log.Printf("[INFO] periodic %s seeded", p)
		count++
	}
	return count, nil
}

func (inv *Invoker) push(msg string) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.history = append(inv.history, msg)
	if len(inv.history) > inv.stackSize {
		inv.history = inv.history[len(inv.history)-inv.stackSize:]
	}
}

func (inv *Invoker) pop() (string, bool) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if len(inv.history) == 0 {
		return "", false
	}
	msg := inv.history[len(inv.history)-1]
	inv.history = inv.history[:len(inv.history)-1]
	return msg, true
}
