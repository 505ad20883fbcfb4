package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type closeRecorder struct {
	bytes.Buffer
	closed   bool
	closeErr error
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return c.closeErr
}

func TestCopyAndClose(t *testing.T) {
	w := &closeRecorder{}
	n, err := copyAndClose(w, strings.NewReader("artifact"))
	require.NoError(t, err)
	require.EqualValues(t, 8, n)
	require.True(t, w.closed)
	require.Equal(t, "artifact", w.String())
}

func TestCopyAndCloseFailedClose(t *testing.T) {
	w := &closeRecorder{closeErr: errors.New("disk full")}
	_, err := copyAndClose(w, strings.NewReader("artifact"))
	require.ErrorContains(t, err, "disk full")
	require.True(t, w.closed)
}
