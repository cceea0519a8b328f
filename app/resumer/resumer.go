// Package resumer keeps journal of queue messages in flight. A message is recorded in a .cue file
// before execution and the file removed after successful completion, so commands interrupted by
// crash or failed can be put back to the queue on the next start.
package resumer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	log "github.com/go-pkgz/lgr"
)

const ext = ".cue"

// Resumer keeps track of executed messages in .cue files
type Resumer struct {
	location string
	enabled  bool
	maxAge   time.Duration
	seq      uint64
}

// Entry keeps file name and message
type Entry struct {
	Message string
	Fname   string
}

// New makes resumer for given location. Disabled resumer does nothing.
func New(location string, enabled bool) *Resumer {
	if enabled {
		if err := os.MkdirAll(location, 0o700); err != nil {
			log.Printf("[WARN] can't make %s, %s", location, err)
		}
	}
	return &Resumer{location: location, enabled: enabled, maxAge: 24 * time.Hour}
}

// OnStart makes a file for started message as ts-seq.cue
func (r *Resumer) OnStart(msg string) (string, error) {
	if !r.enabled {
		return "", nil
	}
	seq := atomic.AddUint64(&r.seq, 1)
	fname := filepath.Join(r.location, fmt.Sprintf("%d-%d%s", time.Now().UnixNano(), seq, ext))
	log.Printf("[DEBUG] create resumer file %s", fname)
	if err := os.WriteFile(fname, []byte(msg), 0o600); err != nil {
		return "", fmt.Errorf("can't write resumer file: %w", err)
	}
	return fname, nil
}

// OnFinish removes .cue file
func (r *Resumer) OnFinish(fname string) error {
	if !r.enabled || fname == "" {
		return nil
	}
	log.Printf("[DEBUG] delete resumer file %s", fname)
	return os.Remove(fname)
}

// List returns entries left from previous runs, oldest first. Files older than max age removed and skipped.
func (r *Resumer) List() (res []Entry) {
	if !r.enabled {
		return []Entry{}
	}

	entries, err := os.ReadDir(r.location)
	if err != nil {
		log.Printf("[WARN] can't get resume list for %s, %s", r.location, err)
		return []Entry{}
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ext) {
			continue
		}

		finfo, err := entry.Info()
		if err != nil {
			log.Printf("[WARN] can't get resume info for %s, %s", entry.Name(), err)
			continue
		}

		fileName := filepath.Join(r.location, finfo.Name())
		if finfo.ModTime().Add(r.maxAge).Before(time.Now()) {
			log.Printf("[DEBUG] resume file %s too old", fileName)
			if err := os.Remove(fileName); err != nil {
				log.Printf("[WARN] can't delete %s, %s", fileName, err)
			}
			continue
		}
		data, err := os.ReadFile(fileName) // nolint gosec
		if err != nil {
			log.Printf("[WARN] failed to read resume file %s, %s", fileName, err)
			continue
		}
		res = append(res, Entry{Fname: fileName, Message: string(data)})
	}

	// names start with nanosecond timestamp, the same length for any recent time
	sort.Slice(res, func(i, j int) bool { return res[i].Fname < res[j].Fname })
	return res
}

// Purge removes all .cue files, returns number of removed entries. Missing location is not an error.
func (r *Resumer) Purge() (int, error) {
	if !r.enabled {
		return 0, nil
	}
	files, err := filepath.Glob(filepath.Join(r.location, "*"+ext))
	if err != nil {
		return 0, fmt.Errorf("can't list %s: %w", r.location, err)
	}
	count := 0
	for _, fname := range files {
		if err := os.Remove(fname); err != nil && !errors.Is(err, os.ErrNotExist) {
			return count, fmt.Errorf("can't purge %s: %w", fname, err)
		}
		count++
	}
	return count, nil
}

func (r *Resumer) String() string {
	return fmt.Sprintf("enabled:%v, location:%s", r.enabled, r.location)
}
