package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/valter-silva-au/drl-monitor/pkg/models"
)

// clearScreen moves the cursor home and clears the terminal.
const clearScreen = "\033[H\033[J"

const ruleWidth = 90

var (
	heavyRule = strings.Repeat("=", ruleWidth)
	lightRule = strings.Repeat("-", ruleWidth)

	bannerColor = color.New(color.FgCyan, color.Bold)
	bestColor   = color.New(color.FgGreen, color.Bold)
	missColor   = color.New(color.FgYellow)
)

// frameInfo carries the per-cycle values that do not come from the results files.
type frameInfo struct {
	ResultsDir    string
	Elapsed       time.Duration
	Now           time.Time
	Refresh       time.Duration
	Iteration     int
	HistoryRounds int
}

// renderBanner is printed once before the first frame.
func renderBanner() string {
	var b strings.Builder
	b.WriteString(heavyRule + "\n")
	b.WriteString(bannerColor.Sprint(strings.Repeat(" ", 25)+"TRAINING MONITOR v2.0") + "\n")
	b.WriteString(heavyRule + "\n\n")
	return b.String()
}

// renderFrame is the full repaint written on every refresh cycle.
func renderFrame(info frameInfo, view models.DashboardView) string {
	var b strings.Builder
	b.WriteString(clearScreen)
	b.WriteString(renderHeader(info))
	b.WriteString(renderProgress(view))
	b.WriteString(renderHistory(view, info.HistoryRounds))
	b.WriteString(renderSummary(view.Summary))
	b.WriteString(renderFooter(info.Iteration))
	return b.String()
}

func renderHeader(info frameInfo) string {
	minutes := int(info.Elapsed / time.Minute)
	seconds := int((info.Elapsed % time.Minute) / time.Second)

	var b strings.Builder
	b.WriteString(heavyRule + "\n")
	b.WriteString(bannerColor.Sprint(strings.Repeat(" ", 20)+"FEDERATED DRL TRAINING MONITOR") + "\n")
	b.WriteString(heavyRule + "\n")
	fmt.Fprintf(&b, "Results Directory: %s\n", info.ResultsDir)
	fmt.Fprintf(&b, "Monitor Runtime: %dm %ds\n", minutes, seconds)
	fmt.Fprintf(&b, "Current Time: %s\n", info.Now.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Refresh Rate: %s\n", info.Refresh)
	b.WriteString(heavyRule + "\n")
	return b.String()
}

func renderProgress(view models.DashboardView) string {
	var b strings.Builder
	b.WriteString("\nTRAINING PROGRESS\n")
	b.WriteString(lightRule + "\n")

	if !view.AnyAvailable() {
		b.WriteString(missColor.Sprint("No training data found. Waiting for training to start...") + "\n")
		return b.String()
	}

	fmt.Fprintf(&b, "%-10s %-8s %-12s %-12s %-12s %-15s\n",
		"Agent", "Round", "Latest Acc", "Mean Acc", "Best Acc", "Latest Reward")
	b.WriteString(lightRule + "\n")

	for _, av := range view.Agents {
		b.WriteString(renderAgentRow(av) + "\n")
	}

	if view.BestAgent != "" {
		b.WriteString("\n" + lightRule + "\n")
		b.WriteString(bestColor.Sprintf("Best Current Performance: %s (Accuracy: %.4f)", view.BestAgent, view.BestAccuracy) + "\n")
	}
	return b.String()
}

func renderAgentRow(av models.AgentView) string {
	if !av.Available {
		return strings.TrimRight(fmt.Sprintf("%-10s %-8s %-12s %-12s %-12s %-15s",
			av.Agent, "N/A", "N/A", "N/A", "N/A", "N/A"), " ")
	}
	return strings.TrimRight(fmt.Sprintf("%-10s %-8d %-12.4f %-12.4f %-12.4f %-15.4f",
		av.Agent, av.Latest.Round, av.Latest.Accuracy, av.Accuracy.Mean, av.Accuracy.Max, av.Latest.Reward), " ")
}

func renderHistory(view models.DashboardView, rounds int) string {
	var b strings.Builder
	b.WriteString("\n" + heavyRule + "\n")
	fmt.Fprintf(&b, "RECENT ACCURACY HISTORY (Last %d Rounds)\n", rounds)
	b.WriteString(lightRule + "\n")

	for _, av := range view.Agents {
		switch {
		case !av.Available:
			fmt.Fprintf(&b, "%-10s No data available\n", av.Agent)
		case av.HistoryErr:
			fmt.Fprintf(&b, "%-10s Data format error\n", av.Agent)
		default:
			fmt.Fprintf(&b, "%-10s %s\n", av.Agent, historyTokens(av.History))
		}
	}
	return b.String()
}

func historyTokens(points []models.HistoryPoint) string {
	tokens := make([]string, 0, len(points))
	for _, p := range points {
		tokens = append(tokens, fmt.Sprintf("R%d:%.3f", p.Round, p.Accuracy))
	}
	return strings.Join(tokens, ", ")
}

// renderSummary is empty until summary.csv appears.
func renderSummary(rows []models.SummaryRow) string {
	if len(rows) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n" + heavyRule + "\n")
	b.WriteString("FINAL SUMMARY STATISTICS\n")
	b.WriteString(lightRule + "\n")
	for _, r := range rows {
		b.WriteString(renderSummaryRow(r) + "\n")
	}
	return b.String()
}

func renderSummaryRow(r models.SummaryRow) string {
	return fmt.Sprintf("%-10s Final: %.4f | Mean: %.4f | Std: %.4f | Time: %.1fs",
		r.Agent, r.FinalAccuracy, r.MeanAccuracy, r.StdAccuracy, r.TrainingTimeSeconds)
}

func renderFooter(iteration int) string {
	return fmt.Sprintf("\n%s\nRefresh #%d | Press Ctrl+C to exit\n%s\n", heavyRule, iteration, heavyRule)
}

// renderStopped is printed once after the poll loop has stopped.
func renderStopped(total time.Duration) string {
	return fmt.Sprintf("\n\nMonitoring stopped by user\nTotal runtime: %ds\nMonitor terminated successfully\n",
		int(total/time.Second))
}
