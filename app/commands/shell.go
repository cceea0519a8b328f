// Package commands provides built-in queue commands: shell command executed with "sh -c" and periodic
// shell jobs loaded from crontab file.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/cue/app/queue"
)

// ShellType is type id of shell command
const ShellType = "shell"

// ShellPayload is the payload of shell command
type ShellPayload struct {
	Command string `json:"command"`
	Dir     string `json:"dir,omitempty"`
}

// Runner executes shell commands, writing their output to Stdout
type Runner struct {
	Stdout      io.Writer // os.Stdout if nil
	LogPrefix   bool      // add {command} prefix to each output line
	MaxLogLines int       // lines of output included in error
	Templates   bool      // expand date templates like {{.YYYYMMDD}} on execution
	TimeZone    *time.Location

	now func() time.Time
}

// Run executes command with "sh -c" in dir (current dir if empty)
func (r *Runner) Run(ctx context.Context, command, dir string) error {
	if r.Templates {
		now := time.Now
		if r.now != nil {
			now = r.now
		}
		expanded, err := expandDays(command, now(), r.TimeZone)
		if err != nil {
			return err
		}
		command = expanded
	}

	out := r.Stdout
	if out == nil {
		out = os.Stdout
	}
	if r.LogPrefix {
		out = NewLogPrefixer(out, command)
	}
	capture := NewOutputCapture(r.MaxLogLines)
	w := io.MultiWriter(capture, out)

	cmd := exec.CommandContext(ctx, "sh", "-c", command) // nolint gosec
	cmd.Dir = dir
	cmd.Stdout = w
	cmd.Stderr = w
	log.Printf("[DEBUG] execute %q", command)
	if err := cmd.Run(); err != nil {
		if output := capture.String(); output != "" {
			return fmt.Errorf("failed to execute %q: %w\n%s", command, err, output)
		}
		return fmt.Errorf("failed to execute %q: %w", command, err)
	}
	return nil
}

// Command makes shell command to be enqueued
func (r *Runner) Command(command, dir string) queue.Command {
	return &shellCmd{runner: r, payload: ShellPayload{Command: command, Dir: dir}}
}

// Shell makes discovery function registering shell command
func Shell(r *Runner) func(*queue.Registry) error {
	return func(reg *queue.Registry) error {
		return reg.Register(ShellType, queue.Typed(func(p ShellPayload) queue.Command {
			return &shellCmd{runner: r, payload: p}
		}))
	}
}

type shellCmd struct {
	runner  *Runner
	payload ShellPayload
}

func (c *shellCmd) Name() string { return ShellType }
func (c *shellCmd) Payload() any { return c.payload }

func (c *shellCmd) Execute(ctx context.Context) error {
	return c.runner.Run(ctx, c.payload.Command, c.payload.Dir)
}
