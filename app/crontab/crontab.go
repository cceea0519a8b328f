// Package crontab implements cron-like schedule matching for periodic commands.
// A schedule is made of five independent fields (minute, hour, day, month and day of week),
// each field supports single values, ranges, steps, lists and wildcards. Day of week 0 is Sunday.
// Unlike classic cron, day and day-of-week are ANDed, a time matches only if all five fields match.
package crontab

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Spec defines schedule by fields. Empty field means "any value", same as "*"
type Spec struct {
	Month     string // 1-12
	Day       string // 1-31
	Hour      string // 0-23
	Minute    string // 0-59
	DayOfWeek string // 0-6, 0 is Sunday
}

// String returns standard 5-fields representation, i.e. "*/5 1-18 * * *"
func (s Spec) String() string {
	f := func(v string) string {
		if strings.TrimSpace(v) == "" {
			return "*"
		}
		return strings.TrimSpace(v)
	}
	return strings.Join([]string{f(s.Minute), f(s.Hour), f(s.Day), f(s.Month), f(s.DayOfWeek)}, " ")
}

// Schedule is a validated Spec able to match timestamps. Safe for concurrent use.
type Schedule struct {
	expr     string
	bits     *cron.SpecSchedule
	Location *time.Location // if set, timestamps converted to this location before matching
}

// New makes Schedule from Spec, validating every field
func New(spec Spec) (*Schedule, error) {
	for _, v := range []string{spec.Minute, spec.Hour, spec.Day, spec.Month, spec.DayOfWeek} {
		if strings.ContainsAny(strings.TrimSpace(v), " \t") {
			return nil, fmt.Errorf("invalid field %q in %+v, spaces not allowed", v, spec)
		}
	}
	return Parse(spec.String())
}

// MustNew makes Schedule from Spec and panics on invalid spec. Intended for package-level definitions.
func MustNew(spec Spec) *Schedule {
	s, err := New(spec)
	if err != nil {
		panic(err)
	}
	return s
}

// Parse makes Schedule from standard 5-fields expression or @descriptor (@hourly, @daily, etc.).
// Optional CRON_TZ= or TZ= prefix sets Location. @every is not supported as it is not a calendar schedule.
func Parse(expr string) (*Schedule, error) {
	expr = strings.TrimSpace(expr)
	if strings.HasPrefix(expr, "@every") {
		return nil, fmt.Errorf("can't parse %q: @every is not supported", expr)
	}
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("can't parse %q: %w", expr, err)
	}
	bits, ok := sched.(*cron.SpecSchedule)
	if !ok {
		return nil, fmt.Errorf("can't parse %q: unsupported schedule type %T", expr, sched)
	}
	res := &Schedule{expr: expr, bits: bits}
	if strings.HasPrefix(expr, "CRON_TZ=") || strings.HasPrefix(expr, "TZ=") {
		res.Location = bits.Location
	}
	return res, nil
}

// Match checks if t satisfies all five fields of the schedule.
// Seconds are ignored, evaluated on each call without any state.
func (s *Schedule) Match(t time.Time) bool {
	if s.Location != nil {
		t = t.In(s.Location)
	}
	has := func(set uint64, v int) bool { return set&(1<<uint(v)) != 0 }

	return has(s.bits.Minute, t.Minute()) &&
		has(s.bits.Hour, t.Hour()) &&
		has(s.bits.Dom, t.Day()) &&
		has(s.bits.Month, int(t.Month())) &&
		has(s.bits.Dow, int(t.Weekday()))
}

func (s *Schedule) String() string {
	return s.expr
}

// JobSpec for spec and cmd + params
type JobSpec struct {
	Spec    string
	Command string
}

var reWhtSpaces = regexp.MustCompile(`[\s\p{Zs}]{2,}`)

// ParseJob splits crontab line to spec and command
func ParseJob(line string) (result JobSpec, err error) {
	if strings.HasPrefix(strings.TrimSpace(line), "#") {
		return JobSpec{}, fmt.Errorf("comment line %s", line)
	}
	l := strings.TrimSpace(line)
	l = strings.ReplaceAll(l, "\t", " ")
	singleSpace := reWhtSpaces.ReplaceAllString(l, " ")
	elems := strings.Split(singleSpace, " ")

	if len(elems) < 2 {
		return JobSpec{}, fmt.Errorf("not enough elements in %s", line)
	}

	// CRON_TZ=UTC 0 1 * * *
	if strings.HasPrefix(elems[0], "CRON_TZ=") || strings.HasPrefix(elems[0], "TZ=") {
		js, err := ParseJob(strings.Join(elems[1:], " "))
		if err != nil {
			return JobSpec{}, fmt.Errorf("not enough elements in %s", line)
		}
		return JobSpec{Spec: elems[0] + " " + js.Spec, Command: js.Command}, nil
	}

	// @midnight
	if strings.HasPrefix(elems[0], "@") {
		return JobSpec{Spec: elems[0], Command: strings.Join(elems[1:], " ")}, nil
	}

	if len(elems) < 6 {
		return JobSpec{}, fmt.Errorf("not enough elements in %s", line)
	}
	// * * * * *
	return JobSpec{Spec: strings.Join(elems[:5], " "), Command: strings.Join(elems[5:], " ")}, nil
}

// Parser loads jobs from crontab file
type Parser struct {
	file string
}

// NewParser makes Parser for file, but not parsing yet
func NewParser(file string) *Parser {
	return &Parser{file: file}
}

// List parses crontab file and returns list of jobs. Comments and broken lines are skipped.
// Files with .yml or .yaml extension parsed as YamlConfig, any broken job fails the whole file.
func (p Parser) List() (result []JobSpec, err error) {
	bs, err := os.ReadFile(p.file)
	if err != nil {
		return []JobSpec{}, fmt.Errorf("can't read %s: %w", p.file, err)
	}
	if isYAML(p.file) {
		return ParseYAML(bs)
	}
	for l := range strings.SplitSeq(string(bs), "\n") {
		if strings.TrimSpace(l) == "" {
			continue
		}
		if js, err := ParseJob(l); err == nil {
			result = append(result, js)
		}
	}
	return result, nil
}

func (p Parser) String() string {
	return p.file
}
