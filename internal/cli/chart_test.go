package cli

import (
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/valter-silva-au/drl-monitor/internal/core"
	"github.com/valter-silva-au/drl-monitor/pkg/models"
)

func newTestChartModel(t *testing.T, dir string) chartModel {
	t.Helper()
	agg := core.NewAggregator(core.NewTableReader(nil), core.AggregatorOptions{})
	m := newChartModel(dir, agg, 2*time.Second, nil)
	m.now = func() time.Time { return time.Date(2025, 6, 1, 14, 3, 9, 0, time.Local) }
	return m
}

func loadInto(t *testing.T, m chartModel) chartModel {
	t.Helper()
	msg := loadChart(m.agg, m.dir)()
	updated, _ := m.Update(msg)
	return updated.(chartModel)
}

func TestChartModel_Init(t *testing.T) {
	m := newTestChartModel(t, t.TempDir())
	if m.loaded {
		t.Error("expected loaded = false on init")
	}
	if cmd := m.Init(); cmd == nil {
		t.Error("expected Init to return a non-nil command")
	}
	if !strings.Contains(m.View(), "Loading data...") {
		t.Error("expected loading view before the first refresh")
	}
}

func TestChartModel_WaitingForData(t *testing.T) {
	m := loadInto(t, newTestChartModel(t, t.TempDir()))

	view := m.View()
	for _, want := range []string{
		"Training Reward Progression",
		"Waiting for training data...",
		"Episode data not available",
		"Loss data not available",
		"Action data not available",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if m.refreshes != 1 {
		t.Errorf("refreshes = %d, want 1", m.refreshes)
	}
}

func TestChartModel_AllPanels(t *testing.T) {
	dir := t.TempDir()
	l, err := core.NewTrainingLogger(dir, "chart")
	if err != nil {
		t.Fatal(err)
	}
	g := 1.5
	rows := []core.RoundMetrics{
		{Round: 1, ClientID: 0, MeanReward: 1, EpisodeLength: 100, Loss: 0.5},
		{Round: 1, ClientID: 1, MeanReward: 2, EpisodeLength: 110, Loss: 0.4, GlobalReward: &g},
		{Round: 2, ClientID: 0, MeanReward: 3, EpisodeLength: 120, Loss: 0.3},
		{Round: 2, ClientID: 1, MeanReward: 4, EpisodeLength: 130, Loss: 0.2, GlobalReward: &g},
	}
	for _, r := range rows {
		if err := l.LogRound(r); err != nil {
			t.Fatal(err)
		}
	}
	if err := l.LogActionDistribution(2, 1, []int{5, 0, 10}); err != nil {
		t.Fatal(err)
	}

	m := loadInto(t, newTestChartModel(t, dir))
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 140, Height: 60})
	m = updated.(chartModel)

	view := m.View()
	for _, want := range []string{
		"Episode Length Over Time",
		"Training Loss",
		"Current Action Distribution",
		"skip_2",
		"prefetch_long",
		"Current Round: 2",
		"Number of Clients: 2",
		"• Average: 3.5000",
		"• Total Timesteps: 20,000",
		"• Elapsed Time: 14:03:09",
		"Client 0",
		"Global",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if strings.Contains(view, "Waiting for training data...") {
		t.Error("unexpected waiting message with data present")
	}
}

func TestChartModel_TickReloads(t *testing.T) {
	m := newTestChartModel(t, t.TempDir())
	_, cmd := m.Update(chartTickMsg{})
	if cmd == nil {
		t.Fatal("tick should schedule a reload and the next tick")
	}
}

func TestChartModel_Quit(t *testing.T) {
	m := newTestChartModel(t, t.TempDir())
	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune{'q'}},
		{Type: tea.KeyCtrlC},
	} {
		_, cmd := m.Update(key)
		if cmd == nil {
			t.Fatalf("%s should return a command", key)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%s should quit", key)
		}
	}
}

func TestWaitForTables(t *testing.T) {
	if waitForTables(nil) != nil {
		t.Error("no watcher means no command")
	}

	ch := make(chan struct{}, 1)
	ch <- struct{}{}
	if _, ok := waitForTables(ch)().(tablesChangedMsg); !ok {
		t.Error("expected tablesChangedMsg")
	}

	close(ch)
	if msg := waitForTables(ch)(); msg != nil {
		t.Errorf("closed channel should yield nil, got %T", msg)
	}
}

func TestAlignSeries(t *testing.T) {
	series := []models.Series{
		{Label: "Client 0", Points: []models.Point{{Round: 1, Value: 1}, {Round: 3, Value: 3}}},
		{Label: "Client 1", Points: []models.Point{{Round: 2, Value: 20}}},
		{Label: "Empty"},
	}
	data, labels := alignSeries(series, nil)

	if strings.Join(labels, ",") != "Client 0,Client 1" {
		t.Fatalf("labels = %v", labels)
	}
	want := [][]float64{{1, 1, 3}, {20, 20, 20}}
	for i := range want {
		for j := range want[i] {
			if data[i][j] != want[i][j] {
				t.Errorf("data[%d] = %v, want %v", i, data[i], want[i])
				break
			}
		}
	}
}

func TestAlignSeries_SinglePointIsWidened(t *testing.T) {
	data, _ := alignSeries([]models.Series{{Label: "a", Points: []models.Point{{Round: 4, Value: 2}}}}, nil)
	if len(data) != 1 || len(data[0]) != 2 {
		t.Fatalf("data = %v, want one row of two points", data)
	}
}

func TestAlignSeries_LogTransformDropsNonPositive(t *testing.T) {
	series := []models.Series{
		{Label: "zero", Points: []models.Point{{Round: 1, Value: 0}}},
		{Label: "ok", Points: []models.Point{{Round: 1, Value: 100}, {Round: 2, Value: 0.01}}},
	}
	data, labels := alignSeries(series, log10Positive)
	if len(labels) != 1 || labels[0] != "ok" {
		t.Fatalf("labels = %v", labels)
	}
	if math.Abs(data[0][0]-2) > 1e-12 || math.Abs(data[0][1]+2) > 1e-12 {
		t.Errorf("data = %v, want [2 -2]", data[0])
	}
}

func TestRenderBars(t *testing.T) {
	out := renderBars([]models.ActionBucket{{Name: "skip_0", Count: 10}, {Name: "skip_1", Count: 5}, {Name: "skip_2"}}, 10)
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines", len(lines))
	}
	if strings.Count(lines[0], "█") != 10 || strings.Count(lines[1], "█") != 5 || strings.Count(lines[2], "█") != 0 {
		t.Errorf("unexpected bar lengths:\n%s", out)
	}
	if !strings.HasSuffix(lines[1], "5.000") {
		t.Errorf("expected value label, got %q", lines[1])
	}
}

func TestGroupThousands(t *testing.T) {
	tests := map[int64]string{0: "0", 999: "999", 1000: "1,000", 1234567: "1,234,567", -50000: "-50,000"}
	for n, want := range tests {
		if got := groupThousands(n); got != want {
			t.Errorf("groupThousands(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestOutputDirArg(t *testing.T) {
	dir := t.TempDir()
	if got, err := outputDirArg([]string{dir}); err != nil || got != dir {
		t.Errorf("outputDirArg(%q) = %q, %v", dir, got, err)
	}

	missing := filepath.Join(dir, "nope")
	_, err := outputDirArg([]string{missing})
	if err == nil || err.Error() != "Directory '"+missing+"' not found" {
		t.Errorf("unexpected error: %v", err)
	}
}
