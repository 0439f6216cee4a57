package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/valter-silva-au/drl-monitor/internal/core"
)

// lockedBuffer is a bytes.Buffer safe for one writer and one polling reader.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestConsoleMonitor_RunStopsAfterCycle(t *testing.T) {
	dir := t.TempDir()
	writeResultsFile(t, dir, "SAC_metrics.csv", "round,accuracy,reward\n1,0.3,0.5\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out lockedBuffer
	start := time.Now()
	m := &consoleMonitor{
		dir:           dir,
		agg:           core.NewAggregator(core.NewTableReader(nil), core.AggregatorOptions{}),
		out:           &out,
		refresh:       time.Hour,
		historyRounds: 5,
		start:         start,
		now:           time.Now,
	}

	done := make(chan int, 1)
	go func() { done <- m.run(ctx) }()

	// Wait for the first frame, then interrupt during the sleep.
	deadline := time.After(3 * time.Second)
	for !strings.Contains(out.String(), "Refresh #1") {
		select {
		case <-deadline:
			t.Fatal("first frame was not rendered")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()

	var n int
	select {
	case n = <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("monitor did not stop")
	}
	if n != 1 {
		t.Errorf("completed cycles = %d, want 1", n)
	}

	text := out.String()
	if !strings.Contains(text, "SAC        1        0.3000") {
		t.Errorf("expected SAC row in output:\n%s", text)
	}
	if !strings.HasSuffix(text, "Monitor terminated successfully\n") {
		t.Errorf("output should end with termination line:\n%s", text)
	}
}

func TestMonitorCmd_NotInitialized(t *testing.T) {
	origAgg, origCfg := Aggregator, Config
	defer func() { Aggregator, Config = origAgg, origCfg }()
	Aggregator, Config = nil, nil

	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"monitor", t.TempDir()})
	if err := Execute(); err == nil {
		t.Fatal("expected error when services are not wired")
	}
}
