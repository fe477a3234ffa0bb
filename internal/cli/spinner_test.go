package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/stackscan/pkg/observability"
)

// syncBuffer guards a buffer shared with the spinner goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinnerRendersMessage(t *testing.T) {
	var out syncBuffer
	s := newSpinner(&out, "Scanning...")
	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	if !strings.Contains(out.String(), "Scanning...") {
		t.Errorf("output %q should contain the message", out.String())
	}
	if s.Cancelled() {
		t.Error("a stopped spinner is not cancelled")
	}
}

func TestSpinnerWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	s := newSpinnerWithContext(ctx, io.Discard, "Scanning...")
	s.Start()
	cancel()
	time.Sleep(100 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("spinner should be cancelled after context cancellation")
	}
	s.Stop()
}

func TestSpinnerWithTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	s := newSpinnerWithContext(ctx, io.Discard, "Scanning...")
	s.Start()
	time.Sleep(100 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("spinner should be cancelled after context timeout")
	}
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s := newSpinner(io.Discard, "Scanning...")
	s.Start()
	s.Stop()
	s.Stop()
	s.Stop()
}

func TestSpinnerStopWithStatus(t *testing.T) {
	tests := []struct {
		name string
		stop func(*Spinner)
		want string
	}{
		{"success", func(s *Spinner) { s.StopWithSuccess("Done") }, iconSuccess + " Done"},
		{"error", func(s *Spinner) { s.StopWithError("Failed") }, iconError + " Failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out syncBuffer
			s := newSpinner(&out, "Working...")
			s.Start()
			tt.stop(s)
			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("output %q should contain %q", out.String(), tt.want)
			}
		})
	}
}

func TestScanProgressUpdatesSpinner(t *testing.T) {
	var out syncBuffer
	s := newSpinner(&out, "Scanning 2 files...")
	p := &scanProgress{spinner: s, total: 2}

	restore := trackScan(p)
	s.Start()
	observability.Scan().OnFileComplete(context.Background(), "src/app/main.py", 3, time.Millisecond, nil)
	time.Sleep(200 * time.Millisecond)
	s.Stop()
	restore()

	if !strings.Contains(out.String(), "Scanning 1/2 files (main.py)") {
		t.Errorf("output %q should show progress", out.String())
	}
	if _, ok := observability.Scan().(*scanProgress); ok {
		t.Error("restore should unregister the progress hooks")
	}
}
