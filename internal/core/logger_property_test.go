package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/valter-silva-au/drl-monitor/internal/observability"
	"github.com/valter-silva-au/drl-monitor/internal/storage"
	"github.com/valter-silva-au/drl-monitor/pkg/models"
	"pgregory.net/rapid"
)

// =============================================================================
// Generators
// =============================================================================

func genRoundMetrics(t *rapid.T, label string) RoundMetrics {
	m := RoundMetrics{
		Round:         rapid.IntRange(0, 500).Draw(t, label+"_round"),
		ClientID:      rapid.IntRange(0, 9).Draw(t, label+"_client"),
		MeanReward:    rapid.Float64Range(-1000, 1000).Draw(t, label+"_reward"),
		StdReward:     rapid.Float64Range(0, 100).Draw(t, label+"_std"),
		EpisodeLength: rapid.IntRange(0, 10000).Draw(t, label+"_len"),
		Loss:          rapid.Float64Range(0, 10).Draw(t, label+"_loss"),
	}
	if rapid.Bool().Draw(t, label+"_has_global") {
		g := rapid.Float64Range(-1000, 1000).Draw(t, label+"_global")
		m.GlobalReward = &g
	}
	return m
}

// =============================================================================
// Property 4: Appended Rows Read Back In Order
// =============================================================================

// *For any* sequence of N valid rounds, reading metrics.csv back SHALL yield
// exactly N rows in write order with the same values.
func TestProperty4_AppendedRowsReadBackInOrder(t *testing.T) {
	base := t.TempDir()

	rapid.Check(t, func(rt *rapid.T) {
		dir, err := os.MkdirTemp(base, "run-")
		if err != nil {
			rt.Fatal(err)
		}
		l, err := NewTrainingLogger(dir, "prop")
		if err != nil {
			rt.Fatal(err)
		}

		n := rapid.IntRange(0, 20).Draw(rt, "n")
		written := make([]RoundMetrics, n)
		for i := range written {
			written[i] = genRoundMetrics(rt, "m")
			if err := l.LogRound(written[i]); err != nil {
				rt.Fatalf("LogRound: %v", err)
			}
		}

		tbl, err := storage.ReadTable(filepath.Join(dir, models.MetricsFileName))
		if err != nil {
			rt.Fatal(err)
		}
		if len(tbl.Rows) != n {
			rt.Fatalf("read %d rows, wrote %d", len(tbl.Rows), n)
		}
		for i, row := range tbl.Rows {
			w := written[i]
			round, _ := observability.ParseRound(row["round"])
			reward, _ := observability.ParseFloat(row["mean_reward"])
			if round != w.Round || reward != w.MeanReward {
				rt.Errorf("row %d = (%d, %v), want (%d, %v)", i, round, reward, w.Round, w.MeanReward)
			}
			global, hasGlobal := observability.ParseFloat(row["global_reward"])
			if hasGlobal != (w.GlobalReward != nil) {
				rt.Errorf("row %d global present = %v, want %v", i, hasGlobal, w.GlobalReward != nil)
			} else if hasGlobal && global != *w.GlobalReward {
				rt.Errorf("row %d global = %v, want %v", i, global, *w.GlobalReward)
			}
		}
		if l.Summary().TotalMetrics != n {
			rt.Errorf("Summary().TotalMetrics = %d, want %d", l.Summary().TotalMetrics, n)
		}
	})
}

// =============================================================================
// Property 5: Action Rows Always Have Twelve Buckets
// =============================================================================

// *For any* count list of length at most 12, the stored row SHALL carry 12
// bucket values whose prefix equals the input and whose remainder is zero.
func TestProperty5_ActionRowsHaveTwelveBuckets(t *testing.T) {
	base := t.TempDir()

	rapid.Check(t, func(rt *rapid.T) {
		dir, err := os.MkdirTemp(base, "run-")
		if err != nil {
			rt.Fatal(err)
		}
		l, err := NewTrainingLogger(dir, "prop")
		if err != nil {
			rt.Fatal(err)
		}

		counts := rapid.SliceOfN(rapid.IntRange(0, 1000), 0, models.ActionBucketCount).Draw(rt, "counts")
		if err := l.LogActionDistribution(1, 0, counts); err != nil {
			rt.Fatalf("LogActionDistribution: %v", err)
		}

		tbl, err := storage.ReadTable(filepath.Join(dir, models.ActionsFileName))
		if err != nil {
			rt.Fatal(err)
		}
		row := tbl.Rows[0]
		for i, name := range models.ActionBucketNames {
			want := 0
			if i < len(counts) {
				want = counts[i]
			}
			got, ok := observability.ParseRound(row[name])
			if !ok || got != want {
				rt.Errorf("%s = %q, want %d", name, row[name], want)
			}
		}
	})
}
