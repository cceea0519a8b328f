package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/cue/app/crontab"
	"github.com/umputun/cue/app/queue"
)

// CrontabParser loads jobs from crontab, implemented by crontab.Parser
type CrontabParser interface {
	List() ([]crontab.JobSpec, error)
	String() string
}

// Crontab makes discovery function registering a periodic shell command for each job of the crontab.
// Type id of a job is derived from its spec and command, so it's stable across restarts.
func Crontab(r *Runner, parser CrontabParser) func(*queue.Registry) error {
	return func(reg *queue.Registry) error {
		jobs, err := parser.List()
		if err != nil {
			return fmt.Errorf("can't load jobs from %s: %w", parser, err)
		}
		count := 0
		for _, js := range jobs {
			sched, err := crontab.Parse(js.Spec)
			if err != nil {
				log.Printf("[WARN] skip job %q, %v", js.Command, err)
				continue
			}
			command := js.Command
			_, err = queue.NewPeriodic(reg, JobTypeID(js), sched, func(ctx context.Context) error {
				return r.Run(ctx, command, "")
			})
			if errors.Is(err, queue.ErrDuplicateRegistration) {
				log.Printf("[WARN] duplicate job %s %q ignored", js.Spec, js.Command)
				continue
			}
			if err != nil {
				return fmt.Errorf("can't register job %q: %w", js.Command, err)
			}
			log.Printf("[INFO] job %s %q registered", js.Spec, js.Command)
			count++
		}
		log.Printf("[INFO] %d jobs loaded from %s", count, parser)
		return nil
	}
}

// JobTypeID returns type id of periodic shell job, "cron." followed by hash of the job
func JobTypeID(js crontab.JobSpec) string {
	h := sha256.Sum256([]byte(js.Spec + " " + js.Command))
	return "cron." + hex.EncodeToString(h[:8])
}
