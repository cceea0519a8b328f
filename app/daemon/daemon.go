// Package daemon implements queue consumer. Consumer takes the queue lock, puts back messages interrupted
// by the previous run, seeds periodic commands and polls the invoker, backing off while the queue is idle.
// Only one command runs at a time, shutdown takes effect between cycles.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/cue/app/queue"
	"github.com/umputun/cue/app/resumer"
)

//go:generate moq -out mocks/invoker.go -pkg mocks -skip-ensure -fmt goimports . Invoker
//go:generate moq -out mocks/journal.go -pkg mocks -skip-ensure -fmt goimports . Journal
//go:generate moq -out mocks/notifier.go -pkg mocks -skip-ensure -fmt goimports . Notifier

// Invoker defines the part of queue.Invoker used by consumer
type Invoker interface {
	Dequeue(ctx context.Context) (bool, error)
	SeedPeriodic(ctx context.Context) (int, error)
	Write(ctx context.Context, msg string) error
}

// Journal lists messages left in flight by the previous run, implemented by resumer.Resumer
type Journal interface {
	List() []resumer.Entry
	OnFinish(fname string) error
}

// Notifier delivers fatal errors to operator, implemented by notify.Service
type Notifier interface {
	Send(ctx context.Context, subj, text string) error
	MakeErrorHTML(queueName, message, errorLog string) (string, error)
}

// Params of consumer
type Params struct {
	Queue    string
	LockDir  string
	Delay    time.Duration // initial poll delay
	Factor   float64       // backoff factor, >= 1
	MaxDelay time.Duration
}

// Consumer polls the queue and executes commands until the context canceled or a command failed
type Consumer struct {
	Params
	Invoker  Invoker
	Journal  Journal  // optional
	Notifier Notifier // optional

	processed atomic.Int64
	empty     atomic.Int64
	transient atomic.Int64
	delay     atomic.Int64
	started   atomic.Int64
	running   atomic.Bool
}

// Stats is a snapshot of consumer counters
type Stats struct {
	Queue     string        `json:"queue"`
	Running   bool          `json:"running"`
	Started   time.Time     `json:"started"`
	Processed int64         `json:"processed"`
	Empty     int64         `json:"empty"`
	Transient int64         `json:"transient_errors"`
	Delay     time.Duration `json:"delay"`
}

// Run acquires lock and runs the poll loop. Blocking, returns nil on context cancellation
// and error on startup failure or failed command. The lock is released on return.
func (c *Consumer) Run(ctx context.Context) error {
	backoff, err := NewBackoff(c.Delay, c.Factor, c.MaxDelay)
	if err != nil {
		return err
	}

	lock := NewLock(c.LockDir, c.Queue)
	if err := lock.Acquire(); err != nil {
		return err
	}
	defer func() {
		if e := lock.Release(); e != nil {
			log.Printf("[WARN] %v", e)
		}
	}()

	log.Printf("[INFO] consumer started for %q, delay %v, backoff %v, max delay %v", c.Queue, c.Delay, c.Factor, c.MaxDelay)
	c.started.Store(time.Now().UnixNano())
	c.delay.Store(int64(backoff.Current()))
	c.running.Store(true)
	defer c.running.Store(false)

	c.resume(ctx)

	n, err := c.Invoker.SeedPeriodic(ctx)
	if err != nil {
		return fmt.Errorf("can't seed periodic commands: %w", err)
	}
	if n > 0 {
		log.Printf("[INFO] %d periodic commands seeded", n)
	}

	for {
		if ctx.Err() != nil {
			log.Printf("[INFO] consumer for %q terminated", c.Queue)
			return nil
		}

		// running command not interrupted by shutdown
		ok, err := c.Invoker.Dequeue(context.WithoutCancel(ctx))
		if err != nil {
			if !queue.IsTransient(err) {
				c.notify(ctx, err)
				return fmt.Errorf("consumer for %q stopped: %w", c.Queue, err)
			}
			log.Printf("[WARN] %v", err)
			c.transient.Add(1)
			ok = false
		}

		if ok {
			c.processed.Add(1)
			backoff.Reset()
			c.delay.Store(int64(backoff.Current()))
			continue
		}

		c.empty.Add(1)
		delay := backoff.Next()
		c.delay.Store(int64(backoff.Current()))
		select {
		case <-ctx.Done():
		case <-time.After(delay):
		}
	}
}

// Stats returns counters snapshot, safe for concurrent use
func (c *Consumer) Stats() Stats {
	res := Stats{
		Queue:     c.Queue,
		Running:   c.running.Load(),
		Processed: c.processed.Load(),
		Empty:     c.empty.Load(),
		Transient: c.transient.Load(),
		Delay:     time.Duration(c.delay.Load()),
	}
	if st := c.started.Load(); st > 0 {
		res.Started = time.Unix(0, st)
	}
	return res
}

// resume puts messages interrupted by the previous run back to the queue
func (c *Consumer) resume(ctx context.Context) {
	if c.Journal == nil {
		return
	}
	for _, e := range c.Journal.List() {
		if err := c.Invoker.Write(ctx, e.Message); err != nil {
			log.Printf("[WARN] can't resume %s, %v", e.Fname, err)
			continue
		}
		if err := c.Journal.OnFinish(e.Fname); err != nil {
			log.Printf("[WARN] can't remove resumed %s, %v", e.Fname, err)
		}
		log.Printf("[INFO] resumed %.80q", e.Message)
	}
}

func (c *Consumer) notify(ctx context.Context, cmdErr error) {
	if c.Notifier == nil {
		return
	}
	msg := ""
	var execErr *queue.ExecError
	if errors.As(cmdErr, &execErr) {
		msg = execErr.Message
	}
	html, err := c.Notifier.MakeErrorHTML(c.Queue, msg, cmdErr.Error())
	if err != nil {
		log.Printf("[WARN] can't make error notification, %v", err)
		return
	}
	host, _ := os.Hostname()
	subj := fmt.Sprintf("cue consumer for %q failed on %s", c.Queue, host)
	if err := c.Notifier.Send(ctx, subj, html); err != nil {
		log.Printf("[WARN] can't send notification, %v", err)
	}
}
