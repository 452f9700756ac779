package logger

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// testWriter forwards each rendered line to t.Log
type testWriter struct {
	t testing.TB
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// testLogger renders through t.Log. Fatal is recorded but never exits.
type testLogger struct {
	*zerologLogger
	t testing.TB
}

// NewTestLogger returns a debug level logger whose output appears with the
// test's own output
func NewTestLogger(t testing.TB) Logger {
	return NewTestLoggerWithLevel(t, "debug")
}

// NewTestLoggerWithLevel parses level like NewLoggerWithLevel
func NewTestLoggerWithLevel(t testing.TB, level string) Logger {
	console := zerolog.ConsoleWriter{
		Out:          testWriter{t: t},
		NoColor:      true,
		PartsExclude: []string{zerolog.TimestampFieldName},
	}
	return &testLogger{zerologLogger: newLogger(console, level), t: t}
}

func (l *testLogger) Fatal(msg string) {
	l.logger.WithLevel(zerolog.FatalLevel).Msg(msg)
}

func (l *testLogger) WithField(key string, value interface{}) Logger {
	return &testLogger{zerologLogger: l.zerologLogger.WithField(key, value).(*zerologLogger), t: l.t}
}

func (l *testLogger) WithFields(fields map[string]interface{}) Logger {
	return &testLogger{zerologLogger: l.zerologLogger.WithFields(fields).(*zerologLogger), t: l.t}
}

// NewMockLogger returns a logger for tests that do not inspect log output.
// Without a t everything is discarded.
func NewMockLogger(t ...*testing.T) Logger {
	if len(t) == 0 || t[0] == nil {
		return &zerologLogger{logger: zerolog.Nop()}
	}
	return NewTestLogger(t[0])
}
