package commands

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"
)

const prefixCommandMaxLen = 16
const prefixCutCommandSuffix = "..."

// LogPrefixer implements io.Writer and adds {command} prefix to each output line
type LogPrefixer struct {
	writer io.Writer
	prefix []byte
}

// NewLogPrefixer makes prefixer writing to writer
func NewLogPrefixer(writer io.Writer, command string) *LogPrefixer {
	return &LogPrefixer{writer: writer, prefix: prefixForCommand(command)}
}

func (p *LogPrefixer) Write(data []byte) (int, error) {
	reader := bufio.NewReader(bytes.NewReader(data))
	bytesWritten := 0
	for {
		line, err := reader.ReadBytes('\n')
		// line can have data even with io.EOF
		if err != nil && err != io.EOF {
			return bytesWritten, err
		}

		if len(line) > 0 {
			if _, werr := p.writer.Write(p.prefix); werr != nil {
				return bytesWritten, werr
			}
			n, werr := p.writer.Write(line)
			bytesWritten += n
			if werr != nil {
				return bytesWritten, werr
			}
		}

		if err == io.EOF {
			return bytesWritten, nil
		}
	}
}

func prefixForCommand(command string) []byte {
	if len(command) > prefixCommandMaxLen {
		command = command[:prefixCommandMaxLen] + prefixCutCommandSuffix
	}
	return fmt.Appendf(nil, "{%s} ", command)
}

// OutputCapture keeps last N lines of command output (stdout and stderr combined).
// Safe for concurrent writes.
type OutputCapture struct {
	maxLines int
	lines    []string
	mu       sync.Mutex
}

// NewOutputCapture makes capture limited to last maxLines lines, zero disables capture
func NewOutputCapture(maxLines int) *OutputCapture {
	return &OutputCapture{maxLines: maxLines}
}

// Write satisfies io.Writer, always consumes all of p
func (o *OutputCapture) Write(p []byte) (n int, err error) {
	if o.maxLines <= 0 {
		return len(p), nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	for line := range bytes.SplitSeq(p, []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		if len(o.lines) >= o.maxLines {
			o.lines = o.lines[1:]
		}
		o.lines = append(o.lines, string(line))
	}
	return len(p), nil
}

// String returns captured lines joined by new line
func (o *OutputCapture) String() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return strings.Join(o.lines, "\n")
}
