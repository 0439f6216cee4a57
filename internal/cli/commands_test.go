package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/valter-silva-au/drl-monitor/internal/core"
	"github.com/valter-silva-au/drl-monitor/pkg/models"
)

// withServices wires the package-level services for one test.
func withServices(t *testing.T) {
	t.Helper()
	origAgg, origCfg := Aggregator, Config
	t.Cleanup(func() { Aggregator, Config = origAgg, origCfg })

	Config = core.DefaultConfig()
	Aggregator = core.NewAggregator(core.NewTableReader(nil), core.AggregatorOptions{})
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := Execute()
	return out.String(), err
}

func seedOutputDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	l, err := core.NewTrainingLogger(dir, "cmd")
	if err != nil {
		t.Fatal(err)
	}
	for c := 0; c < 2; c++ {
		if err := l.LogRound(core.RoundMetrics{Round: 1, ClientID: c, MeanReward: float64(c + 1), Loss: 0.1}); err != nil {
			t.Fatal(err)
		}
	}
	if err := l.LogActionDistribution(1, 0, []int{4, 2}); err != nil {
		t.Fatal(err)
	}
	if err := l.LogCheckpoint(1, "ckpt.pt"); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestStatsCmd_Text(t *testing.T) {
	withServices(t)
	dir := seedOutputDir(t)
	defer func() { statsJSON = false }()

	out, err := runCommand(t, "stats", dir)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	for _, want := range []string{"Current Round: 1", "Number of Clients: 2", "• Average: 1.5000", "• Total Timesteps: 10,000", "skip_0"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestStatsCmd_JSON(t *testing.T) {
	withServices(t)
	dir := seedOutputDir(t)
	defer func() { statsJSON = false }()

	out, err := runCommand(t, "stats", dir, "--json")
	if err != nil {
		t.Fatalf("stats --json: %v", err)
	}

	var report statsReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if !report.HasMetrics || report.Stats.CurrentRound != 1 || report.Stats.RewardBest != 2 {
		t.Errorf("report = %+v", report)
	}
	if len(report.Actions) != models.ActionBucketCount {
		t.Errorf("got %d action buckets", len(report.Actions))
	}
}

func TestStatsCmd_MissingDirectory(t *testing.T) {
	withServices(t)
	missing := filepath.Join(t.TempDir(), "absent")

	_, err := runCommand(t, "stats", missing)
	if err == nil || err.Error() != "Directory '"+missing+"' not found" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestEventsCmd(t *testing.T) {
	dir := seedOutputDir(t)
	defer func() { eventsLevel = "" }()

	out, err := runCommand(t, "events", dir)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if !strings.Contains(out, "[INFO] Logger initialized") || !strings.Contains(out, "[METRIC] Round 1 | Client 1") {
		t.Errorf("unexpected output:\n%s", out)
	}

	out, err = runCommand(t, "events", dir, "--level", "checkpoint")
	if err != nil {
		t.Fatalf("events --level: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 1 || !strings.HasSuffix(lines[0], "[CHECKPOINT] Round 1 | Checkpoint saved: ckpt.pt") {
		t.Errorf("filtered output = %q", out)
	}
}

func TestEventsCmd_InvalidLevel(t *testing.T) {
	dir := seedOutputDir(t)
	defer func() { eventsLevel = "" }()

	_, err := runCommand(t, "events", dir, "--level", "verbose")
	if err == nil || !strings.Contains(err.Error(), "invalid level") {
		t.Errorf("expected invalid level error, got %v", err)
	}
}

func TestEventsCmd_Empty(t *testing.T) {
	defer func() { eventsLevel = "" }()
	out, err := runCommand(t, "events", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "No events found.") {
		t.Errorf("output = %q", out)
	}
}

func TestSimulateCmd(t *testing.T) {
	withServices(t)
	defer func() {
		simRounds, simClients, simExperiment, simResults, simSeed = 3, 3, "", "", 0
	}()

	base := t.TempDir()
	out := filepath.Join(base, "drl_outputs")
	results := filepath.Join(base, "results")

	text, err := runCommand(t, "simulate", out, "--rounds", "2", "--clients", "2",
		"--experiment", "cli", "--results", results, "--seed", "1")
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	for _, want := range []string{"TRAINING SUMMARY", "Total Rounds: 2", "Total Clients: 2", "Total Metrics: 4", "Experiment: cli", "Logs saved to: " + out} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}

	view := Aggregator.Dashboard(results)
	if !view.AnyAvailable() || len(view.Summary) == 0 {
		t.Errorf("expected per-agent results, got %+v", view)
	}
}
