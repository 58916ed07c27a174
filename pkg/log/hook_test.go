package log

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type failWriter struct{ err error }

func (w *failWriter) Write(_ []byte) (int, error) { return 0, w.err }

type plainFormatter struct{}

func (plainFormatter) Format(e *Entry) ([]byte, error) { return []byte(e.Message + "\n"), nil }

func newEntry(level Level, msg string) *Entry {
	e := logrus.NewEntry(logrus.New())
	e.Level = level
	e.Message = msg
	return e
}

func TestHook_Fire_Routing(t *testing.T) {
	main, critical, verbose, console := &safeBuffer{}, &safeBuffer{}, &safeBuffer{}, &safeBuffer{}
	h := &hook{
		mainWriter:     main,
		criticalWriter: critical,
		verboseWriter:  verbose,
		consoleWriter:  console,
		formatter:      plainFormatter{},
	}

	tests := []struct {
		level        Level
		msg          string
		wantMain     bool
		wantCritical bool
		wantVerbose  bool
	}{
		{ErrorLevel, "error-msg", true, true, false},
		{WarnLevel, "warn-msg", true, false, false},
		{InfoLevel, "info-msg", true, false, false},
		{DebugLevel, "debug-msg", false, false, true},
		{TraceLevel, "trace-msg", false, false, true},
	}

	for _, tt := range tests {
		require.NoError(t, h.Fire(newEntry(tt.level, tt.msg)))
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.wantMain, bytes.Contains([]byte(main.String()), []byte(tt.msg)))
			assert.Equal(t, tt.wantCritical, bytes.Contains([]byte(critical.String()), []byte(tt.msg)))
			assert.Equal(t, tt.wantVerbose, bytes.Contains([]byte(verbose.String()), []byte(tt.msg)))
			assert.Contains(t, console.String(), tt.msg)
		})
	}
}

func TestHook_Fire_WithoutVerboseWriter_DebugGoesToMain(t *testing.T) {
	main := &safeBuffer{}
	h := &hook{mainWriter: main, formatter: plainFormatter{}}

	require.NoError(t, h.Fire(newEntry(DebugLevel, "debug-msg")))
	assert.Contains(t, main.String(), "debug-msg")
}

func TestHook_Fire_WriteErrorIsReturned(t *testing.T) {
	writeErr := errors.New("disk full")
	main := &safeBuffer{}
	h := &hook{
		mainWriter:     main,
		criticalWriter: &failWriter{err: writeErr},
		formatter:      plainFormatter{},
	}

	err := h.Fire(newEntry(ErrorLevel, "boom"))
	assert.ErrorIs(t, err, writeErr)
	assert.Contains(t, main.String(), "boom", "critical 기록이 실패해도 메인 로그는 기록되어야 합니다")
}

func TestHook_Close(t *testing.T) {
	main := &safeBuffer{}
	h := &hook{mainWriter: main, formatter: plainFormatter{}}

	h.Close()
	require.NoError(t, h.Fire(newEntry(InfoLevel, "after-close")))
	assert.Empty(t, main.String())
}

type countingCloser struct {
	closed int
	err    error
}

func (c *countingCloser) Close() error {
	c.closed++
	return c.err
}

func TestCloser_Idempotent(t *testing.T) {
	c1 := &countingCloser{}
	c2 := &countingCloser{err: errors.New("close failed")}
	h := &hook{mainWriter: io.Discard, formatter: plainFormatter{}}

	c := &closer{closers: []io.Closer{c1, c2}, hook: h}

	err := c.Close()
	assert.Error(t, err)
	assert.NoError(t, c.Close())
	assert.Equal(t, 1, c1.closed)
	assert.Equal(t, 1, c2.closed)
	assert.True(t, h.closed)
}
