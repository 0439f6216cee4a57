package cli

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/valter-silva-au/drl-monitor/internal/core"
	"github.com/valter-silva-au/drl-monitor/pkg/models"
)

const (
	defaultChartWidth = 100
	graphHeight       = 8
	barWidth          = 30
)

// Style definitions.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	barStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// seriesPalette colours client lines in order; the global line is always white.
var seriesPalette = []asciigraph.AnsiColor{
	asciigraph.Blue, asciigraph.Green, asciigraph.Red, asciigraph.Yellow,
	asciigraph.Magenta, asciigraph.Cyan, asciigraph.Orange, asciigraph.Purple,
}

type chartModel struct {
	dir      string
	agg      *core.Aggregator
	interval time.Duration
	changes  <-chan struct{}
	now      func() time.Time

	width  int
	height int

	view      models.ChartView
	loaded    bool
	refreshes int
}

// chartTickMsg is the baseline refresh timer.
type chartTickMsg struct{}

// tablesChangedMsg is sent by the optional file watcher.
type tablesChangedMsg struct{}

// chartLoadedMsg carries a freshly aggregated view back to the model.
type chartLoadedMsg struct {
	view models.ChartView
}

func newChartModel(dir string, agg *core.Aggregator, interval time.Duration, changes <-chan struct{}) chartModel {
	return chartModel{
		dir:      dir,
		agg:      agg,
		interval: interval,
		changes:  changes,
		now:      time.Now,
		width:    defaultChartWidth,
	}
}

func (m chartModel) Init() tea.Cmd {
	return tea.Batch(loadChart(m.agg, m.dir), chartTick(m.interval), waitForTables(m.changes))
}

func (m chartModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, loadChart(m.agg, m.dir)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case chartTickMsg:
		return m, tea.Batch(loadChart(m.agg, m.dir), chartTick(m.interval))

	case tablesChangedMsg:
		return m, tea.Batch(loadChart(m.agg, m.dir), waitForTables(m.changes))

	case chartLoadedMsg:
		m.view = msg.view
		m.loaded = true
		m.refreshes++
		return m, nil
	}

	return m, nil
}

func loadChart(agg *core.Aggregator, dir string) tea.Cmd {
	return func() tea.Msg {
		return chartLoadedMsg{view: agg.Chart(dir)}
	}
}

func chartTick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(_ time.Time) tea.Msg {
		return chartTickMsg{}
	})
}

func waitForTables(changes <-chan struct{}) tea.Cmd {
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return tablesChangedMsg{}
	}
}

func (m chartModel) View() string {
	title := titleStyle.Render(" Federated DRL Training - Real-Time Monitor ")
	help := helpStyle.Render(fmt.Sprintf("q: quit | r: refresh | every %s | %s", m.interval, m.dir))

	if !m.loaded {
		return fmt.Sprintf("%s\n\n  Loading data...\n\n%s", title, help)
	}

	full := m.width - 4
	if full < 40 {
		full = 40
	}
	half := full/2 - 2

	reward := panelStyle.Width(full).Render(m.renderRewardPanel(full - 4))
	episodes := panelStyle.Width(half).Render(m.renderEpisodePanel(half - 4))
	losses := panelStyle.Width(half).Render(m.renderLossPanel(half - 4))
	actions := panelStyle.Width(half).Render(m.renderActionPanel(half - 4))
	stats := panelStyle.Width(half).Render(m.renderStatsPanel())

	body := lipgloss.JoinVertical(lipgloss.Left,
		reward,
		lipgloss.JoinHorizontal(lipgloss.Top, episodes, losses),
		lipgloss.JoinHorizontal(lipgloss.Top, actions, stats),
	)
	return fmt.Sprintf("%s\n%s\n%s", title, body, help)
}

func (m chartModel) renderRewardPanel(width int) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Training Reward Progression"))
	b.WriteString("\n")

	if !m.view.HasMetrics {
		b.WriteString(mutedStyle.Render("Waiting for training data..."))
		return b.String()
	}

	series := m.view.Rewards
	if m.view.Global != nil {
		series = append(append([]models.Series(nil), series...), *m.view.Global)
	}
	b.WriteString(plotSeries(series, width, "round → mean reward", nil))
	return b.String()
}

func (m chartModel) renderEpisodePanel(width int) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Episode Length Over Time"))
	b.WriteString("\n")

	if !hasPoints(m.view.EpisodeLengths) {
		b.WriteString(mutedStyle.Render("Episode data not available"))
		return b.String()
	}
	b.WriteString(plotSeries(m.view.EpisodeLengths, width, "round → steps", nil))
	return b.String()
}

func (m chartModel) renderLossPanel(width int) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Training Loss"))
	b.WriteString("\n")

	if !hasPoints(m.view.Losses) {
		b.WriteString(mutedStyle.Render("Loss data not available"))
		return b.String()
	}
	out := plotSeries(m.view.Losses, width, "round → log10(loss)", log10Positive)
	if out == "" {
		b.WriteString(mutedStyle.Render("Loss data not available"))
		return b.String()
	}
	b.WriteString(out)
	return b.String()
}

func (m chartModel) renderActionPanel(width int) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Current Action Distribution"))
	b.WriteString("\n")

	if len(m.view.Actions) == 0 {
		b.WriteString(mutedStyle.Render("Action data not available"))
		return b.String()
	}
	b.WriteString(renderBars(m.view.Actions, min(barWidth, width-24)))
	return b.String()
}

func (m chartModel) renderStatsPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("TRAINING STATISTICS"))
	b.WriteString("\n")
	if !m.view.HasMetrics {
		b.WriteString(mutedStyle.Render("Waiting for training data..."))
		return b.String()
	}
	b.WriteString(renderStatsText(m.view.Stats, m.now()))
	return b.String()
}

// renderStatsText is the statistics panel body.
func renderStatsText(s models.ChartStats, now time.Time) string {
	var b strings.Builder
	b.WriteString(strings.Repeat("═", 31) + "\n")
	fmt.Fprintf(&b, "Current Round: %d\n", s.CurrentRound)
	fmt.Fprintf(&b, "Number of Clients: %d\n\n", s.Clients)
	b.WriteString("REWARDS:\n")
	fmt.Fprintf(&b, "• Average: %.4f\n", s.RewardMean)
	fmt.Fprintf(&b, "• Best Client: %.4f\n", s.RewardBest)
	fmt.Fprintf(&b, "• Worst Client: %.4f\n", s.RewardWorst)
	fmt.Fprintf(&b, "• Std Dev: %.4f\n\n", s.RewardStd)
	b.WriteString("PROGRESS:\n")
	fmt.Fprintf(&b, "• Total Timesteps: %s\n", groupThousands(s.TotalTimesteps))
	fmt.Fprintf(&b, "• Elapsed Time: %s\n\n", now.Format("15:04:05"))
	b.WriteString("STATUS: TRAINING IN PROGRESS")
	return b.String()
}

// renderBars draws one horizontal bar per bucket scaled to the largest count.
func renderBars(buckets []models.ActionBucket, width int) string {
	if width < 1 {
		width = 1
	}
	maxCount := 0.0
	for _, bk := range buckets {
		maxCount = math.Max(maxCount, bk.Count)
	}

	lines := make([]string, 0, len(buckets))
	for _, bk := range buckets {
		n := 0
		if maxCount > 0 && bk.Count > 0 {
			n = int(math.Round(bk.Count / maxCount * float64(width)))
		}
		bar := barStyle.Render(strings.Repeat("█", n))
		lines = append(lines, fmt.Sprintf("%-14s %s %.3f", bk.Name, bar, bk.Count))
	}
	return strings.Join(lines, "\n")
}

// plotSeries aligns the series on a shared round axis and draws them with
// asciigraph. transform may drop values that cannot be plotted. It returns
// an empty string when nothing is left to draw.
func plotSeries(series []models.Series, width int, caption string, transform func(float64) (float64, bool)) string {
	data, labels := alignSeries(series, transform)
	if len(data) == 0 {
		return ""
	}

	colors := make([]asciigraph.AnsiColor, len(labels))
	for i, l := range labels {
		if l == "Global" {
			colors[i] = asciigraph.White
			continue
		}
		colors[i] = seriesPalette[i%len(seriesPalette)]
	}

	opts := []asciigraph.Option{
		asciigraph.Height(graphHeight),
		asciigraph.Precision(2),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(colors...),
		asciigraph.SeriesLegends(labels...),
	}
	if width > 20 {
		opts = append(opts, asciigraph.Width(width-10))
	}
	return asciigraph.PlotMany(data, opts...)
}

// alignSeries resamples every series onto the sorted union of their rounds.
// Gaps are forward-filled, and leading gaps take the first known value, so
// every returned row has the same length. Rows never have fewer than two
// points.
func alignSeries(series []models.Series, transform func(float64) (float64, bool)) ([][]float64, []string) {
	type sample map[int]float64
	var kept []sample
	var labels []string
	roundSet := make(map[int]struct{})

	for _, s := range series {
		values := make(sample, len(s.Points))
		for _, p := range s.Points {
			v := p.Value
			if transform != nil {
				var ok bool
				if v, ok = transform(v); !ok {
					continue
				}
			}
			values[p.Round] = v
			roundSet[p.Round] = struct{}{}
		}
		if len(values) == 0 {
			continue
		}
		kept = append(kept, values)
		labels = append(labels, s.Label)
	}
	if len(kept) == 0 {
		return nil, nil
	}

	rounds := make([]int, 0, len(roundSet))
	for r := range roundSet {
		rounds = append(rounds, r)
	}
	sort.Ints(rounds)

	data := make([][]float64, len(kept))
	for i, values := range kept {
		row := make([]float64, len(rounds))
		first := math.NaN()
		for _, r := range rounds {
			if v, ok := values[r]; ok {
				first = v
				break
			}
		}
		last := first
		for j, r := range rounds {
			if v, ok := values[r]; ok {
				last = v
			}
			row[j] = last
		}
		if len(row) == 1 {
			row = append(row, row[0])
		}
		data[i] = row
	}
	return data, labels
}

func hasPoints(series []models.Series) bool {
	for _, s := range series {
		if len(s.Points) > 0 {
			return true
		}
	}
	return false
}

func log10Positive(v float64) (float64, bool) {
	if v <= 0 {
		return 0, false
	}
	return math.Log10(v), true
}

// groupThousands formats n with comma separators.
func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
