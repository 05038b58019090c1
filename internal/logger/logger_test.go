package logger

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"
)

func TestNew(t *testing.T) {
	if l := New(&bytes.Buffer{}, false); l.GetLevel() != LevelWarn {
		t.Errorf("New(false) should set level to LevelWarn, got %v", l.GetLevel())
	}
	if l := New(&bytes.Buffer{}, true); l.GetLevel() != LevelDebug {
		t.Errorf("New(true) should set level to LevelDebug, got %v", l.GetLevel())
	}
}

func TestSetLevel(t *testing.T) {
	l := New(&bytes.Buffer{}, false)
	for _, level := range []Level{LevelDebug, LevelInfo, LevelWarn, LevelError} {
		t.Run(level.String(), func(t *testing.T) {
			l.SetLevel(level)
			if l.GetLevel() != level {
				t.Errorf("SetLevel(%v) failed, got %v", level, l.GetLevel())
			}
		})
	}
}

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if tt.level.String() != tt.expected {
				t.Errorf("Level(%d).String() = %v, want %v", tt.level, tt.level.String(), tt.expected)
			}
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false)

	tests := []struct {
		name       string
		level      Level
		logFunc    func(string, ...interface{})
		shouldShow bool
	}{
		{"debug at debug level", LevelDebug, l.Debug, true},
		{"info at debug level", LevelDebug, l.Info, true},
		{"debug at info level", LevelInfo, l.Debug, false},
		{"info at info level", LevelInfo, l.Info, true},
		{"info at warn level", LevelWarn, l.Info, false},
		{"warn at warn level", LevelWarn, l.Warn, true},
		{"error at warn level", LevelWarn, l.Error, true},
		{"warn at error level", LevelError, l.Warn, false},
		{"error at error level", LevelError, l.Error, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			l.SetLevel(tt.level)

			tt.logFunc("test message")

			if hasOutput := buf.Len() > 0; hasOutput != tt.shouldShow {
				t.Errorf("got output=%v, want output=%v", hasOutput, tt.shouldShow)
			}
		})
	}
}

func TestLogFormatting(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, true)

	l.Debug("test %s %d", "message", 42)
	output := buf.String()

	if !strings.HasPrefix(output, "[DEBUG]") {
		t.Errorf("Missing [DEBUG] prefix: %s", output)
	}
	if !strings.HasSuffix(strings.TrimSpace(output), "test message 42") {
		t.Errorf("Message not at end: %s", output)
	}
}

func TestLogFieldsSorted(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, true)

	l.DebugFields("test", map[string]interface{}{
		"zebra": 1,
		"alpha": 2,
		"beta":  3,
	})
	output := buf.String()

	alphaIdx := strings.Index(output, "alpha=2")
	betaIdx := strings.Index(output, "beta=3")
	zebraIdx := strings.Index(output, "zebra=1")

	if alphaIdx == -1 || betaIdx == -1 || zebraIdx == -1 {
		t.Fatalf("Missing fields in output: %s", output)
	}
	if !(alphaIdx < betaIdx && betaIdx < zebraIdx) {
		t.Errorf("Fields not sorted alphabetically: %s", output)
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	parent := New(&buf, true)
	child := parent.With(map[string]interface{}{"run_id": "abc"})

	child.Info("writing definition")
	if !strings.Contains(buf.String(), "writing definition run_id=abc") {
		t.Errorf("child should append its fields: %s", buf.String())
	}

	buf.Reset()
	child.InfoFields("enabled", map[string]interface{}{"site": "shop-api"})
	if !strings.Contains(buf.String(), "run_id=abc site=shop-api") {
		t.Errorf("call fields should merge with child fields: %s", buf.String())
	}

	buf.Reset()
	parent.Info("plain")
	if strings.Contains(buf.String(), "run_id") {
		t.Errorf("parent must not inherit child fields: %s", buf.String())
	}

	parent.SetLevel(LevelError)
	if child.GetLevel() != LevelError {
		t.Error("child should share the parent's level")
	}
}

func TestLogError(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false)

	l.LogError(nil, "should not log")
	if buf.Len() > 0 {
		t.Error("LogError with nil should not produce output")
	}

	l.LogError(fmt.Errorf("test error"), "operation failed")
	output := buf.String()
	if !strings.Contains(output, "[ERROR]") {
		t.Errorf("LogError should produce ERROR level: %s", output)
	}
	if !strings.Contains(output, "operation failed: test error") {
		t.Errorf("LogError should contain message and error: %s", output)
	}
}

func TestConcurrentLogging(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, true)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			l.Debug("goroutine %d", n)
			l.With(map[string]interface{}{"n": n}).Info("child")
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 200 {
		t.Errorf("Expected 200 log lines, got %d", len(lines))
	}
	for i, line := range lines {
		if !strings.HasPrefix(line, "[DEBUG]") && !strings.HasPrefix(line, "[INFO]") {
			t.Errorf("Line %d may be corrupted: %s", i, line)
		}
	}
}

func TestEmptyFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, true)

	l.DebugFields("no fields", nil)
	trimmed := strings.TrimSpace(buf.String())
	if !strings.HasSuffix(trimmed, "no fields") {
		t.Errorf("Should end with the message: %q", trimmed)
	}
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Error("dropped")
	l.WarnFields("dropped", map[string]interface{}{"k": 1})
}
