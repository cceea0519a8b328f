package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-pkgz/repeater"
	"github.com/go-pkgz/repeater/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/cue/app/crontab"
	"github.com/umputun/cue/app/store"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func prepPeriodic(t *testing.T, spec crontab.Spec, fn func(ctx context.Context) error) (*Invoker, *Periodic, *fakeClock) {
	t.Helper()
	reg := NewRegistry(nil)
	p, err := NewPeriodic(reg, "report", crontab.MustNew(spec), fn)
	require.NoError(t, err)
	clock := &fakeClock{now: time.Date(2024, time.January, 7, 8, 30, 0, 0, time.UTC)}
	return NewInvoker(store.NewMemory(), reg, "q", WithClock(clock.Now)), p, clock
}

func TestPeriodic_NotDue(t *testing.T) {
	calls := 0
	inv, _, _ := prepPeriodic(t, crontab.Spec{Minute: "0"}, func(context.Context) error { calls++; return nil })
	ctx := context.Background()

	n, err := inv.SeedPeriodic(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	for range 3 {
		ok, err := inv.Dequeue(ctx)
		require.NoError(t, err)
		assert.False(t, ok, "not due, nothing executed")
	}
	assert.Equal(t, 0, calls)

	l, err := inv.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, l, "requeued on every dequeue")
	assert.Empty(t, inv.History())
}

func TestPeriodic_Due(t *testing.T) {
	calls := 0
	inv, _, clock := prepPeriodic(t, crontab.Spec{Minute: "*/15", Hour: "8"}, func(context.Context) error { calls++; return nil })
	ctx := context.Background()
	_, err := inv.SeedPeriodic(ctx)
	require.NoError(t, err)

	ok, err := inv.Dequeue(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, calls)

	clock.now = clock.now.Add(20 * time.Second)
	ok, err = inv.Dequeue(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "already ran in this minute")
	assert.Equal(t, 1, calls)

	clock.now = time.Date(2024, time.January, 7, 8, 45, 0, 0, time.UTC)
	ok, err = inv.Dequeue(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, calls)

	l, err := inv.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, l)
	require.Len(t, inv.History(), 2)
	assert.Regexp(t, `^report:\{"run":"[0-9a-f-]{36}"\}$`, inv.History()[0])
}

func TestPeriodic_SeedExpiresOldGeneration(t *testing.T) {
	calls := 0
	inv, p, _ := prepPeriodic(t, crontab.Spec{}, func(context.Context) error { calls++; return nil })
	ctx := context.Background()

	// copy made before any seeding has no generation
	require.NoError(t, inv.Enqueue(ctx, p.Command()))
	_, err := inv.SeedPeriodic(ctx)
	require.NoError(t, err)
	_, err = inv.SeedPeriodic(ctx)
	require.NoError(t, err)
	l, err := inv.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, l)

	ok, err := inv.Dequeue(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "copy without generation dropped after seeding")
	ok, err = inv.Dequeue(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "first generation dropped")
	assert.Equal(t, 0, calls)

	ok, err = inv.Dequeue(ctx)
	require.NoError(t, err)
	assert.True(t, ok, "current generation executed")
	assert.Equal(t, 1, calls)

	l, err = inv.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, l, "only current generation left")
}

func TestPeriodic_FailureKeepsSchedule(t *testing.T) {
	inv, _, _ := prepPeriodic(t, crontab.Spec{}, func(context.Context) error { return errors.New("report failed") })
	ctx := context.Background()
	_, err := inv.SeedPeriodic(ctx)
	require.NoError(t, err)

	ok, err := inv.Dequeue(ctx)
	assert.False(t, ok)
	assert.ErrorContains(t, err, "report failed")
	assert.False(t, IsTransient(err))

	l, err := inv.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, l, "requeued before execution")
}

// busyBackend fails the next writes
type busyBackend struct {
	*store.Memory
	mu    sync.Mutex
	fails int
}

func (b *busyBackend) Write(ctx context.Context, queue, msg string) error {
	b.mu.Lock()
	if b.fails > 0 {
		b.fails--
		b.mu.Unlock()
		return errors.New("db is busy")
	}
	b.mu.Unlock()
	return b.Memory.Write(ctx, queue, msg)
}

func (b *busyBackend) failNext(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fails = n
}

func TestPeriodic_RequeueRetry(t *testing.T) {
	calls := 0
	reg := NewRegistry(nil)
	MustPeriodic(reg, "report", crontab.MustNew(crontab.Spec{Minute: "0"}), func(context.Context) error { calls++; return nil })
	be := &busyBackend{Memory: store.NewMemory()}
	inv := NewInvoker(be, reg, "q", WithRequeueRepeater(repeater.New(&strategy.FixedDelay{Repeats: 3, Delay: time.Millisecond})),
		WithClock(func() time.Time { return time.Date(2024, time.January, 7, 8, 30, 0, 0, time.UTC) }))
	ctx := context.Background()
	_, err := inv.SeedPeriodic(ctx)
	require.NoError(t, err)

	be.failNext(1)
	ok, err := inv.Dequeue(ctx)
	require.NoError(t, err, "requeue retried")
	assert.False(t, ok)
	l, err := inv.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, l, "schedule kept after single write failure")

	be.failNext(3)
	ok, err = inv.Dequeue(ctx)
	assert.False(t, ok)
	require.ErrorIs(t, err, ErrPeriodicLost)
	assert.ErrorContains(t, err, "db is busy")
	assert.False(t, IsTransient(err), "lost periodic stops consumer")
	assert.Equal(t, 0, calls)
}

func TestPeriodic_Definition(t *testing.T) {
	reg := NewRegistry(nil)
	sched := crontab.MustNew(crontab.Spec{Hour: "0", Minute: "0"})
	p := MustPeriodic(reg, "nightly", sched, func(context.Context) error { return nil })
	assert.Equal(t, "nightly", p.Name())
	assert.Equal(t, sched, p.Schedule())
	assert.Equal(t, "nightly [0 0 * * *]", p.String())
	assert.Equal(t, []*Periodic{p}, reg.Periodic())

	_, err := NewPeriodic(reg, "nightly", sched, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrDuplicateRegistration)
	_, err = NewPeriodic(reg, "no-schedule", nil, func(context.Context) error { return nil })
	assert.Error(t, err)
	_, err = NewPeriodic(reg, "no-func", sched, nil)
	assert.Error(t, err)
	assert.Panics(t, func() { MustPeriodic(reg, "nightly", sched, func(context.Context) error { return nil }) })
}

func TestPeriodic_GobSerializer(t *testing.T) {
	reg := NewRegistry(Gob{})
	calls := 0
	p := MustPeriodic(reg, "gob-report", crontab.MustNew(crontab.Spec{}), func(context.Context) error { calls++; return nil })
	inv := NewInvoker(store.NewMemory(), reg, "q")
	ctx := context.Background()
	_, err := inv.SeedPeriodic(ctx)
	require.NoError(t, err)

	msg, err := reg.Serialize(p.Command())
	require.NoError(t, err)
	cmd, err := reg.Deserialize(msg)
	require.NoError(t, err)
	assert.Equal(t, p.Command().Payload(), cmd.Payload())

	ok, err := inv.Dequeue(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, calls)
}
