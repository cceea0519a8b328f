package crontab

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"
)

// YamlConfig is jobs file in yaml format, an alternative to crontab lines
type YamlConfig struct {
	Jobs []YamlJob `yaml:"jobs" json:"jobs" jsonschema:"minItems=1,description=list of periodic shell jobs"`
}

// YamlJob defines a job by spec line or by sched fields, but not both
type YamlJob struct {
	Name    string    `yaml:"name,omitempty" json:"name,omitempty" jsonschema:"description=optional job name for logs"`
	Spec    string    `yaml:"spec,omitempty" json:"spec,omitempty" jsonschema:"description=5-fields cron spec or @descriptor"`
	Sched   YamlSched `yaml:"sched,omitempty" json:"sched,omitempty" jsonschema:"description=schedule by fields"`
	Command string    `yaml:"command" json:"command" jsonschema:"minLength=1,description=shell command"`
}

// YamlSched is a schedule by fields, empty field means any value
type YamlSched struct {
	Minute  string `yaml:"minute,omitempty" json:"minute,omitempty"`
	Hour    string `yaml:"hour,omitempty" json:"hour,omitempty"`
	Day     string `yaml:"day,omitempty" json:"day,omitempty"`
	Month   string `yaml:"month,omitempty" json:"month,omitempty"`
	Weekday string `yaml:"weekday,omitempty" json:"weekday,omitempty"`
}

func (s YamlSched) empty() bool {
	return s == YamlSched{}
}

func (s YamlSched) spec() Spec {
	return Spec{Minute: s.Minute, Hour: s.Hour, Day: s.Day, Month: s.Month, DayOfWeek: s.Weekday}
}

// isYAML checks file extension
func isYAML(file string) bool {
	ext := strings.ToLower(filepath.Ext(file))
	return ext == ".yml" || ext == ".yaml"
}

// ParseYAML decodes and verifies yaml jobs config. Unknown keys rejected.
func ParseYAML(data []byte) ([]JobSpec, error) {
	var cfg YamlConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("can't decode yaml: %w", err)
	}
	return cfg.Verify()
}

// Verify checks every job and returns them as JobSpec. Sched fields converted to 5-fields spec.
func (c YamlConfig) Verify() ([]JobSpec, error) {
	if len(c.Jobs) == 0 {
		return nil, errors.New("at least one job is required")
	}
	res := make([]JobSpec, 0, len(c.Jobs))
	for i, job := range c.Jobs {
		name := job.Name
		if name == "" {
			name = fmt.Sprintf("job %d", i+1)
		}
		if strings.TrimSpace(job.Command) == "" {
			return nil, fmt.Errorf("%s: command is required", name)
		}
		switch {
		case job.Spec == "" && job.Sched.empty():
			return nil, fmt.Errorf("%s: either spec or sched is required", name)
		case job.Spec != "" && !job.Sched.empty():
			return nil, fmt.Errorf("%s: spec and sched are mutually exclusive", name)
		case job.Spec != "":
			if _, err := Parse(job.Spec); err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			res = append(res, JobSpec{Spec: strings.TrimSpace(job.Spec), Command: strings.TrimSpace(job.Command)})
		default:
			spec := job.Sched.spec()
			if _, err := New(spec); err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			res = append(res, JobSpec{Spec: spec.String(), Command: strings.TrimSpace(job.Command)})
		}
	}
	return res, nil
}

// Schema returns json schema of yaml jobs config, for editors and external validation
func Schema() ([]byte, error) {
	schema := jsonschema.Reflect(&YamlConfig{})
	schema.Title = "cue jobs file"
	schema.Description = "periodic shell jobs of cue consumer"
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("can't marshal schema: %w", err)
	}
	return data, nil
}
