package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/umputun/cue/app/crontab"
)

// Periodic is a definition of a command running on schedule. A single copy of it circulates in the queue,
// every dequeue requeues it and runs the function only if the schedule matches the current time.
type Periodic struct {
	name     string
	schedule *crontab.Schedule
	fn       func(ctx context.Context) error

	mu      sync.Mutex
	run     string    // current generation, set by Invoker.SeedPeriodic
	lastRun time.Time // minute of the last claimed run
}

type periodicPayload struct {
	Run string `json:"run"`
}

// NewPeriodic makes periodic definition and registers it with name as type id
func NewPeriodic(reg *Registry, name string, schedule *crontab.Schedule, fn func(ctx context.Context) error) (*Periodic, error) {
	if schedule == nil || fn == nil {
		return nil, fmt.Errorf("periodic %q: schedule and function required", name)
	}
	p := &Periodic{name: name, schedule: schedule, fn: fn}
	factory := Typed(func(pl periodicPayload) Command { return &periodicCommand{def: p, payload: pl} })
	if err := reg.Register(name, factory); err != nil {
		return nil, err
	}
	reg.addPeriodic(p)
	return p, nil
}

// MustPeriodic is NewPeriodic panicking on error
func MustPeriodic(reg *Registry, name string, schedule *crontab.Schedule, fn func(ctx context.Context) error) *Periodic {
	p, err := NewPeriodic(reg, name, schedule, fn)
	if err != nil {
		panic(err)
	}
	return p
}

// Name returns type id of the periodic command
func (p *Periodic) Name() string { return p.name }

// Schedule returns attached schedule
func (p *Periodic) Schedule() *crontab.Schedule { return p.schedule }

// Command makes a copy of periodic command for the current generation
func (p *Periodic) Command() Command {
	p.mu.Lock()
	defer p.mu.Unlock()
	return &periodicCommand{def: p, payload: periodicPayload{Run: p.run}}
}

// newGeneration starts a new run generation, older copies in the queue become expired
func (p *Periodic) newGeneration() Command {
	p.mu.Lock()
	p.run = uuid.NewString()
	p.mu.Unlock()
	return p.Command()
}

func (p *Periodic) String() string {
	return fmt.Sprintf("%s [%s]", p.name, p.schedule)
}

type periodicCommand struct {
	def     *Periodic
	payload periodicPayload
}

func (c *periodicCommand) Name() string   { return c.def.name }
func (c *periodicCommand) Payload() any   { return c.payload }
func (c *periodicCommand) String() string { return c.def.String() }

// Execute runs the wrapped function
func (c *periodicCommand) Execute(ctx context.Context) error {
	return c.def.fn(ctx)
}

// Due checks the schedule and claims the minute, so the same definition won't run twice in one minute
func (c *periodicCommand) Due(now time.Time) bool {
	if !c.def.schedule.Match(now) {
		return false
	}
	minute := now.Truncate(time.Minute)
	c.def.mu.Lock()
	defer c.def.mu.Unlock()
	if c.def.lastRun.Equal(minute) {
		return false
	}
	c.def.lastRun = minute
	return true
}

// Expired checks if the copy belongs to an older generation.
// Copies are never expired before the first seeding in this process.
func (c *periodicCommand) Expired() bool {
	c.def.mu.Lock()
	defer c.def.mu.Unlock()
	return c.def.run != "" && c.def.run != c.payload.Run
}
