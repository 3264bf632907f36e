package cliutil

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWritef(t *testing.T) {
	var buf bytes.Buffer
	Writef(&buf, "%s: %d items", "Status", 42)
	assert.Equal(t, "Status: 42 items", buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("simulated write error")
}

func TestWritefWriteError(t *testing.T) {
	assert.NotPanics(t, func() {
		Writef(failingWriter{}, "this will fail")
	})
}
