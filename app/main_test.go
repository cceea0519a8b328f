package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/umputun/go-flags"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/umputun/cue/app/commands"
	"github.com/umputun/cue/app/crontab"
	"github.com/umputun/cue/app/daemon"
	"github.com/umputun/cue/app/queue"
	"github.com/umputun/cue/app/store"
)

// prepOpts resets options to defaults with store and lock in temp dir
func prepOpts(t *testing.T, args ...string) string {
	t.Helper()
	opts = options{}
	dir := t.TempDir()
	base := []string{"--queue", "test", "--store.sqlite", filepath.Join(dir, "cue.db"), "--lock-dir", filepath.Join(dir, "locks"),
		"--delay", "10ms", "--max-delay", "50ms"}
	_, err := flags.NewParser(&opts, flags.Default).ParseArgs(append(base, args...))
	require.NoError(t, err)
	return dir
}

func pending(t *testing.T) []store.Record {
	t.Helper()
	s, err := store.OpenSQLite(context.Background(), opts.Store.SQLite)
	require.NoError(t, err)
	defer s.Close()
	recs, err := s.Peek(context.Background(), opts.Queue, 100)
	require.NoError(t, err)
	return recs
}

func Test_makeHostName(t *testing.T) {
	opts.Notify.HostName = "test"
	assert.Equal(t, "test", makeHostName())

	opts.Notify.HostName = ""
	exp, err := os.Hostname()
	require.NoError(t, err)
	assert.Equal(t, exp, makeHostName())
}

func Test_makeNotifier(t *testing.T) {
	prepOpts(t)
	assert.Nil(t, makeNotifier())

	opts.Notify.ToEmails = []string{"test@example.com"}
	notif := makeNotifier()
	require.NotNil(t, notif)
	assert.Equal(t, "cue@"+makeHostName(), opts.Notify.FromEmail,
		"side effect of creating notifier with empty From is setting the From based on hostname")
}

func Test_setupLogsWithLogsDisabled(t *testing.T) {
	opts.Log.Enabled = false
	assert.Equal(t, os.Stdout, setupLogs())
}

func Test_setupLogsToFile(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	opts.Log.Enabled = true
	opts.Log.Filename = tmpfile.Name()
	opts.Log.MaxSize = 100
	opts.Log.MaxBackups = 7
	opts.Log.MaxAge = 0
	opts.Log.EnabledCompress = false
	defer func() { opts.Log.Enabled = false }()

	out := setupLogs()
	assert.IsType(t, &lumberjack.Logger{}, out)

	logger := out.(*lumberjack.Logger)
	assert.Equal(t, tmpfile.Name(), logger.Filename)
	assert.Equal(t, 100, logger.MaxSize)
	assert.Equal(t, 7, logger.MaxBackups)
	assert.Equal(t, 0, logger.MaxAge)
	assert.False(t, logger.Compress)
}

func Test_makeSerializer(t *testing.T) {
	prepOpts(t)
	assert.IsType(t, queue.JSON{}, makeSerializer())
	prepOpts(t, "--serializer", "gob")
	assert.IsType(t, queue.Gob{}, makeSerializer())
}

func Test_makeRegistry(t *testing.T) {
	dir := prepOpts(t)
	reg, err := makeRegistry()
	require.NoError(t, err)
	assert.Equal(t, []string{commands.ShellType}, reg.TypeIDs())
	assert.Empty(t, reg.Periodic())

	file := filepath.Join(dir, "crontab")
	require.NoError(t, os.WriteFile(file, []byte("# jobs\n*/5 * * * * echo one\n0 1 * * 1-5 echo two\nbad line\n"), 0o600))
	prepOpts(t, "--file", file)
	reg, err = makeRegistry()
	require.NoError(t, err)
	assert.Len(t, reg.TypeIDs(), 3)
	assert.Len(t, reg.Periodic(), 2)

	yml := filepath.Join(dir, "jobs.yml")
	require.NoError(t, os.WriteFile(yml, []byte("jobs:\n  - spec: '@daily'\n    command: echo one\n"+
		"  - sched: {minute: '0', hour: '1', weekday: '1-5'}\n    command: echo two\n"), 0o600))
	prepOpts(t, "--file", yml)
	reg, err = makeRegistry()
	require.NoError(t, err)
	assert.Len(t, reg.Periodic(), 2)
	assert.Contains(t, reg.TypeIDs(), commands.JobTypeID(crontab.JobSpec{Spec: "0 1 * * 1-5", Command: "echo two"}),
		"same job as in crontab line format")

	prepOpts(t, "--file", filepath.Join(dir, "no-such-file"))
	_, err = makeRegistry()
	assert.Error(t, err)
}

func Test_schema(t *testing.T) {
	buf := bytes.Buffer{}
	require.NoError(t, schema(&buf))
	assert.Contains(t, buf.String(), `"title": "cue jobs file"`)
	assert.Contains(t, buf.String(), `"command"`)
}

func Test_runUnknownVerb(t *testing.T) {
	prepOpts(t)
	err := run(context.Background(), "blah", nil)
	assert.ErrorIs(t, err, errUnknownVerb)
}

func Test_enqueueStatusFlush(t *testing.T) {
	prepOpts(t, "--dir", "/tmp")
	ctx := context.Background()

	require.Error(t, run(ctx, "enqueue", nil), "empty command")
	require.NoError(t, run(ctx, "enqueue", []string{"echo", "hello"}))
	require.NoError(t, run(ctx, "enqueue", []string{"ls -la"}))

	recs := pending(t)
	require.Len(t, recs, 2)
	assert.Equal(t, `shell:{"command":"echo hello","dir":"/tmp"}`, recs[0].Message)
	assert.Equal(t, `shell:{"command":"ls -la","dir":"/tmp"}`, recs[1].Message)

	buf := bytes.Buffer{}
	require.NoError(t, status(ctx, &buf))
	assert.Equal(t, "queue test: stopped, 2 pending\n", buf.String())

	require.NoError(t, run(ctx, "flush", nil))
	assert.Empty(t, pending(t))
}

func Test_statusRunning(t *testing.T) {
	prepOpts(t)
	lock := daemon.NewLock(opts.LockDir, opts.Queue)
	require.NoError(t, lock.Acquire())
	defer lock.Release()

	buf := bytes.Buffer{}
	require.NoError(t, status(context.Background(), &buf))
	assert.Equal(t, "queue test: running, pid "+strconv.Itoa(os.Getpid())+", 0 pending\n", buf.String())
}

func Test_stop(t *testing.T) {
	t.Run("not running", func(t *testing.T) {
		prepOpts(t)
		assert.NoError(t, run(context.Background(), "stop", nil))
	})

	t.Run("dead process", func(t *testing.T) {
		prepOpts(t, "--stop-timeout", "200ms")
		lockFile := filepath.Join(opts.LockDir, opts.Queue)
		require.NoError(t, os.MkdirAll(opts.LockDir, 0o750))
		require.NoError(t, os.WriteFile(lockFile, []byte("99999999"), 0o600))
		assert.Error(t, stop(context.Background()))
	})

	t.Run("broken lock", func(t *testing.T) {
		prepOpts(t)
		lockFile := filepath.Join(opts.LockDir, opts.Queue)
		require.NoError(t, os.MkdirAll(opts.LockDir, 0o750))
		require.NoError(t, os.WriteFile(lockFile, []byte("not a pid"), 0o600))
		assert.Error(t, stop(context.Background()))
	})
}

func Test_start(t *testing.T) {
	dir := prepOpts(t)
	marker := filepath.Join(dir, "marker")
	ctx := context.Background()
	require.NoError(t, run(ctx, "enqueue", []string{"touch", marker}))

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- run(ctx, "start", nil) }()

	require.Eventually(t, func() bool {
		_, err := os.Stat(marker)
		return err == nil
	}, 5*time.Second, 20*time.Millisecond, "enqueued command executed")
	assert.True(t, daemon.NewLock(opts.LockDir, opts.Queue).Held())

	// second consumer for the same queue rejected
	err := start(context.Background())
	require.ErrorIs(t, err, daemon.ErrLockHeld)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("consumer not stopped")
	}
	assert.False(t, daemon.NewLock(opts.LockDir, opts.Queue).Held(), "lock released")
	assert.Empty(t, pending(t))
}

func Test_startFailedCommand(t *testing.T) {
	dir := prepOpts(t)
	opts.Resume = filepath.Join(dir, "resume")
	require.NoError(t, run(context.Background(), "enqueue", []string{"exit 3"}))

	err := run(context.Background(), "start", nil)
	var execErr *queue.ExecError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, commands.ShellType, execErr.Command)
	assert.False(t, daemon.NewLock(opts.LockDir, opts.Queue).Held(), "lock released")

	files, err := filepath.Glob(filepath.Join(opts.Resume, "*.cue"))
	require.NoError(t, err)
	assert.Len(t, files, 1, "failed command kept for resume")

	// flush drops the failed command, the next start doesn't resume it
	require.NoError(t, run(context.Background(), "flush", nil))
	files, err = filepath.Glob(filepath.Join(opts.Resume, "*.cue"))
	require.NoError(t, err)
	assert.Empty(t, files)
	assert.Empty(t, pending(t))
}

func Test_runBadQueueName(t *testing.T) {
	for _, name := range []string{"../x", "a/b", ".."} {
		prepOpts(t, "--queue", name)
		for _, verb := range []string{"start", "stop", "status", "flush"} {
			assert.ErrorIs(t, run(context.Background(), verb, nil), daemon.ErrBadQueueName, name+" "+verb)
		}
	}
}

func Test_makeRunner(t *testing.T) {
	prepOpts(t, "--templates", "--tz", "America/New_York", "--log-prefix")
	r := makeRunner()
	assert.True(t, r.Templates)
	assert.True(t, r.LogPrefix)
	assert.Equal(t, "America/New_York", r.TimeZone.String())
	assert.Equal(t, 100, r.MaxLogLines)

	prepOpts(t, "--tz", "Nowhere/Bad")
	r = makeRunner()
	assert.Equal(t, time.Local, r.TimeZone)
}
