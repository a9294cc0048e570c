package stats

import (
	"time"

	mstats "github.com/montanaflynn/stats"
)

// WeekActivity is one week of commit activity on the default branch.
type WeekActivity struct {
	WeekStart time.Time `json:"week_start"`
	Total     int       `json:"total"`
	Days      []int     `json:"days,omitempty"`
}

// ActivitySummary aggregates a year of weekly commit counts into the
// figures worth reporting: central tendency, spread, and the busiest week.
type ActivitySummary struct {
	Weeks              int       `json:"weeks"`
	TotalCommits       int       `json:"total_commits"`
	WeeklyMean         float64   `json:"weekly_mean"`
	WeeklyMedian       float64   `json:"weekly_median"`
	WeeklyStdDev       float64   `json:"weekly_stddev"`
	BusiestWeek        time.Time `json:"busiest_week,omitzero"`
	BusiestWeekCommits int       `json:"busiest_week_commits"`
}

// SummarizeActivity computes the summary over the given weeks.
// Nil or empty input yields a zero summary rather than an error: a young
// repository legitimately has no activity history yet.
func SummarizeActivity(weeks []WeekActivity) *ActivitySummary {
	summary := &ActivitySummary{Weeks: len(weeks)}
	if len(weeks) == 0 {
		return summary
	}

	totals := make(mstats.Float64Data, len(weeks))
	for i, w := range weeks {
		totals[i] = float64(w.Total)
		summary.TotalCommits += w.Total
		if w.Total > summary.BusiestWeekCommits {
			summary.BusiestWeekCommits = w.Total
			summary.BusiestWeek = w.WeekStart
		}
	}

	if mean, err := mstats.Mean(totals); err == nil {
		summary.WeeklyMean = mean
	}
	if median, err := mstats.Median(totals); err == nil {
		summary.WeeklyMedian = median
	}
	if stddev, err := mstats.StandardDeviation(totals); err == nil {
		summary.WeeklyStdDev = stddev
	}
	return summary
}
