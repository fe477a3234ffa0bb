package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{"info at info", log.InfoLevel, func(l *log.Logger) { l.Info("x") }, true},
		{"debug at info", log.InfoLevel, func(l *log.Logger) { l.Debug("x") }, false},
		{"debug at debug", log.DebugLevel, func(l *log.Logger) { l.Debug("x") }, true},
		{"warn at error", log.ErrorLevel, func(l *log.Logger) { l.Warn("x") }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.wantLog {
				t.Errorf("logged = %v, want %v", got, tt.wantLog)
			}
		})
	}
}

func TestPhases(t *testing.T) {
	var buf bytes.Buffer
	p := newPhases(newLogger(&buf, log.DebugLevel))

	time.Sleep(5 * time.Millisecond)
	if d := p.mark("load"); d < 5*time.Millisecond {
		t.Errorf("load took %v, want at least 5ms", d)
	}
	p.mark("scan")
	p.finish("done")

	out := buf.String()
	for _, want := range []string{"phase=load", "phase=scan", "done", "total=", "load=", "scan="} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPhasesQuietAtInfo(t *testing.T) {
	var buf bytes.Buffer
	p := newPhases(newLogger(&buf, log.InfoLevel))
	p.mark("load")
	if buf.Len() != 0 {
		t.Errorf("mark logged at info level: %s", buf.String())
	}
	p.finish("done")
	if !strings.Contains(buf.String(), "done") {
		t.Errorf("finish did not log: %s", buf.String())
	}
}

func TestLoggerFromContext(t *testing.T) {
	if loggerFromContext(context.Background()) == nil {
		t.Fatal("loggerFromContext without a logger returned nil")
	}

	var buf bytes.Buffer
	custom := newLogger(&buf, log.InfoLevel)
	got := loggerFromContext(withLogger(context.Background(), custom))
	if got != custom {
		t.Fatal("loggerFromContext did not return the attached logger")
	}
	got.Info("hello")
	if buf.Len() == 0 {
		t.Error("attached logger did not write")
	}
}
