package cli

import (
	"context"
	"fmt"
	"path"
	"sync/atomic"
	"time"

	"github.com/matzehuels/stackscan/pkg/observability"
)

// scanProgress mirrors scan hook events onto a spinner line.
type scanProgress struct {
	observability.NoopScanHooks
	spinner *Spinner
	total   int
	done    atomic.Int64
}

func (p *scanProgress) OnFileComplete(_ context.Context, file string, _ int, _ time.Duration, _ error) {
	n := p.done.Add(1)
	p.spinner.SetMessage(fmt.Sprintf("Scanning %d/%d files (%s)", n, p.total, path.Base(file)))
}

// trackScan routes scan hooks to p until the returned func is called,
// then restores the previously registered hooks.
func trackScan(p *scanProgress) (restore func()) {
	prev := observability.Scan()
	observability.SetScanHooks(p)
	return func() { observability.SetScanHooks(prev) }
}
