// Package analytics aggregates graded submission history into compliance
// and weak-point reports.
//
// Analytics are advisory: these functions never fail on malformed history.
// Unusable records are skipped and whatever could be computed is returned.
package analytics

import (
	"math"
	"sort"

	"github.com/jwchung/hagwon/internal/model"
)

// Trend windows and noise threshold. The threshold is a fixed noise filter,
// not a statistically derived value.
const (
	trendWindow    = 3
	trendThreshold = 3.0
)

// Weak-point defaults.
const (
	MinAttempts = 2
	TopN        = 5
)

// CompletionRate computes completed/expected over a set of assignment dates.
// A date counts as completed when it appears in submitted. With nothing
// expected the rate is 100: no homework assigned means full compliance.
func CompletionRate(expected, submitted []string) model.Compliance {
	c := model.Compliance{Total: len(expected)}
	if c.Total == 0 {
		c.Rate = 100
		return c
	}
	done := make(map[string]bool, len(submitted))
	for _, d := range submitted {
		done[d] = true
	}
	for _, d := range expected {
		if done[d] {
			c.Completed++
		}
	}
	c.Rate = int(math.Round(float64(c.Completed) / float64(c.Total) * 100))
	return c
}

// ScoreTrend classifies the direction of scores, ordered oldest first. The
// last trendWindow scores are compared against the trendWindow before them;
// a mean difference beyond the threshold is up or down, anything else
// (including too little history) is stable.
func ScoreTrend(scores []int) model.Trend {
	if len(scores) < 2 {
		return model.TrendStable
	}
	recentStart := len(scores) - trendWindow
	if recentStart < 0 {
		recentStart = 0
	}
	olderStart := recentStart - trendWindow
	if olderStart < 0 {
		olderStart = 0
	}
	recent := scores[recentStart:]
	older := scores[olderStart:recentStart]
	if len(older) == 0 {
		return model.TrendStable
	}

	diff := mean(recent) - mean(older)
	switch {
	case diff > trendThreshold:
		return model.TrendUp
	case diff < -trendThreshold:
		return model.TrendDown
	}
	return model.TrendStable
}

func mean(xs []int) float64 {
	sum := 0
	for _, x := range xs {
		sum += x
	}
	return float64(sum) / float64(len(xs))
}

// WeakPoints accumulates per-question wrong rates across graded results.
// Questions below minAttempts are excluded, as are questions never missed.
// Output is sorted by wrong rate descending, question number ascending on
// ties, truncated to topN. Detail rows with an out-of-range question number
// are skipped rather than failing the aggregation.
func WeakPoints(results []model.GradedResult, questionCount, minAttempts, topN int) []model.WeakPoint {
	attempts := make([]int, questionCount+1)
	wrong := make([]int, questionCount+1)

	for _, r := range results {
		for _, d := range r.Details {
			if d.Number < 1 || d.Number > questionCount {
				continue
			}
			attempts[d.Number]++
			if !d.IsCorrect {
				wrong[d.Number]++
			}
		}
	}

	points := make([]model.WeakPoint, 0, questionCount)
	for n := 1; n <= questionCount; n++ {
		if attempts[n] < minAttempts || wrong[n] == 0 {
			continue
		}
		points = append(points, model.WeakPoint{
			Number:    n,
			Attempts:  attempts[n],
			Wrong:     wrong[n],
			WrongRate: int(math.Round(float64(wrong[n]) / float64(attempts[n]) * 100)),
		})
	}

	sort.SliceStable(points, func(i, j int) bool {
		if points[i].WrongRate != points[j].WrongRate {
			return points[i].WrongRate > points[j].WrongRate
		}
		return points[i].Number < points[j].Number
	})

	if topN > 0 && len(points) > topN {
		points = points[:topN]
	}
	return points
}
