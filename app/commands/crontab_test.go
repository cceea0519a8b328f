package commands

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/cue/app/crontab"
	"github.com/umputun/cue/app/queue"
	"github.com/umputun/cue/app/store"
)

type staticParser struct {
	jobs []crontab.JobSpec
	err  error
}

func (p staticParser) List() ([]crontab.JobSpec, error) { return p.jobs, p.err }
func (p staticParser) String() string                   { return "static" }

func TestCrontab_Register(t *testing.T) {
	jobs := []crontab.JobSpec{
		{Spec: "*/5 * * * *", Command: "echo five"},
		{Spec: "@hourly", Command: "echo hourly"},
		{Spec: "bad spec x y", Command: "echo bad"},
		{Spec: "*/5 * * * *", Command: "echo five"}, // duplicate
		{Spec: "@every 5m", Command: "echo every"},
	}
	reg := queue.NewRegistry(nil)
	require.NoError(t, reg.Discover(Crontab(&Runner{}, staticParser{jobs: jobs})))

	periodic := reg.Periodic()
	require.Len(t, periodic, 2)
	assert.Equal(t, JobTypeID(jobs[0]), periodic[0].Name())
	assert.Equal(t, "*/5 * * * *", periodic[0].Schedule().String())
	assert.Equal(t, JobTypeID(jobs[1]), periodic[1].Name())
}

func TestCrontab_ParserError(t *testing.T) {
	reg := queue.NewRegistry(nil)
	err := reg.Discover(Crontab(&Runner{}, staticParser{err: errors.New("no file")}))
	assert.ErrorContains(t, err, "can't load jobs from static: no file")
}

func TestCrontab_FromFile(t *testing.T) {
	dir := t.TempDir()
	fname := filepath.Join(dir, "crontab")
	data := "# jobs\n* * * * * echo tick >> " + filepath.Join(dir, "ticks") + "\n0 0 1 1 * echo never\n"
	require.NoError(t, os.WriteFile(fname, []byte(data), 0o600))

	reg := queue.NewRegistry(nil)
	r := &Runner{Stdout: bytes.NewBuffer(nil)}
	require.NoError(t, reg.Discover(Crontab(r, crontab.NewParser(fname))))
	require.Len(t, reg.Periodic(), 2)

	now := time.Date(2024, time.March, 5, 10, 20, 0, 0, time.UTC)
	inv := queue.NewInvoker(store.NewMemory(), reg, "cron", queue.WithClock(func() time.Time { return now }))
	ctx := context.Background()
	n, err := inv.SeedPeriodic(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	executed := 0
	for range 4 {
		ok, err := inv.Dequeue(ctx)
		require.NoError(t, err)
		if ok {
			executed++
		}
	}
	assert.Equal(t, 1, executed, "every-minute job runs once in the minute, yearly job not due")

	ticks, err := os.ReadFile(filepath.Join(dir, "ticks")) // nolint gosec
	require.NoError(t, err)
	assert.Equal(t, "tick", strings.TrimSpace(string(ticks)))
}

func TestJobTypeID(t *testing.T) {
	id := JobTypeID(crontab.JobSpec{Spec: "* * * * *", Command: "ls"})
	assert.Regexp(t, `^cron\.[0-9a-f]{16}$`, id)
	assert.Equal(t, id, JobTypeID(crontab.JobSpec{Spec: "* * * * *", Command: "ls"}), "stable")
	assert.NotEqual(t, id, JobTypeID(crontab.JobSpec{Spec: "* * * * *", Command: "ls -la"}))
	assert.NotContains(t, id, ":")
}
