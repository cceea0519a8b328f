package commands

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogPrefixer_Write(t *testing.T) {
	out := bytes.NewBuffer(nil)
	prefixer := NewLogPrefixer(out, "du /var/lib/monitoring")

	n, err := prefixer.Write([]byte("first line of the output\n"))
	require.NoError(t, err)
	assert.Equal(t, 25, n)

	n, err = prefixer.Write([]byte("second line\nthird line"))
	require.NoError(t, err)
	assert.Equal(t, 22, n)

	assert.Equal(t, "{du /var/lib/moni...} first line of the output\n"+
		"{du /var/lib/moni...} second line\n{du /var/lib/moni...} third line", out.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("write failed") }

func TestLogPrefixer_WriteError(t *testing.T) {
	_, err := NewLogPrefixer(failingWriter{}, "ls").Write([]byte("line\n"))
	assert.EqualError(t, err, "write failed")
}

func TestPrefixForCommand(t *testing.T) {
	assert.Equal(t, []byte("{ls -la} "), prefixForCommand("ls -la"))
	assert.Equal(t, []byte("{cat /var/lib/pid} "), prefixForCommand("cat /var/lib/pid"))
	assert.Equal(t, []byte("{du /var/lib/moni...} "), prefixForCommand("du /var/lib/monitoring"))
}

func TestOutputCapture(t *testing.T) {
	t.Run("within limit", func(t *testing.T) {
		oc := NewOutputCapture(5)
		n, err := oc.Write([]byte("line1\nline2\nline3"))
		require.NoError(t, err)
		assert.Equal(t, 17, n)
		assert.Equal(t, "line1\nline2\nline3", oc.String())
	})

	t.Run("keeps last lines", func(t *testing.T) {
		oc := NewOutputCapture(3)
		_, err := oc.Write([]byte("line1\nline2\nline3\nline4\nline5"))
		require.NoError(t, err)
		assert.Equal(t, "line3\nline4\nline5", oc.String())
	})

	t.Run("zero limit disables capture", func(t *testing.T) {
		oc := NewOutputCapture(0)
		n, err := oc.Write([]byte("line1\nline2"))
		require.NoError(t, err)
		assert.Equal(t, 11, n)
		assert.Empty(t, oc.String())
	})

	t.Run("skips empty lines", func(t *testing.T) {
		oc := NewOutputCapture(5)
		_, err := oc.Write([]byte("line1\n\nline2\n\n\nline3"))
		require.NoError(t, err)
		assert.Equal(t, "line1\nline2\nline3", oc.String())
	})
}
