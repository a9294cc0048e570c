package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/forgestats/forgestats/pkg/ratelimit"
	"github.com/forgestats/forgestats/pkg/stats"
)

// renderJSON emits the snapshot as indented JSON.
func renderJSON(w io.Writer, snap *stats.RepositorySnapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

// renderSnapshot prints the snapshot as a styled table, followed by any
// failures and the remaining rate budget.
func renderSnapshot(w io.Writer, snap *stats.RepositorySnapshot, budget ratelimit.Budget) {
	fmt.Fprintln(w, StyleTitle.Render(snap.Repo.String()))
	fmt.Fprintln(w, StyleDim.Render("taken "+snap.TakenAt.Format(time.RFC3339)))
	fmt.Fprintln(w)

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	var rows [][]string
	for _, cat := range stats.AllCategories() {
		res, ok := snap.Result(cat)
		if !ok {
			continue
		}
		rows = append(rows, []string{string(cat), strconv.Itoa(res.Count), resultDetail(res)})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Category", "Count", "Detail").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 1 {
				return StyleNumber
			}
			if col == 2 {
				return StyleDim
			}
			return StyleValue
		})
	fmt.Fprintln(w, t.Render())

	for _, cat := range snap.FailedCategories() {
		f := snap.Failures[cat]
		printError("%s: %s (%s)", cat, f.Message, f.Reason)
	}
	if snap.Status == stats.StatusPartialFailure {
		printWarning("snapshot is partial: %d of %d categories failed",
			len(snap.Failures), len(snap.Results)+len(snap.Failures))
	}

	if budget.Limit > 0 {
		printDetail("rate budget: %d/%d remaining, resets %s",
			budget.Remaining, budget.Limit, budget.ResetAt.Format(time.Kitchen))
	}
}

// resultDetail summarizes a result beyond its count.
func resultDetail(res stats.StatResult) string {
	detail := ""
	switch {
	case len(res.Contributors) > 0:
		top := res.Contributors[0]
		for _, c := range res.Contributors[1:] {
			if c.Contributions > top.Contributions {
				top = c
			}
		}
		detail = fmt.Sprintf("top: %s (%d)", top.Login, top.Contributions)

	case len(res.Commits) > 0:
		latest := res.Commits[0]
		detail = fmt.Sprintf("latest: %s %s", shortSHA(latest.SHA), truncate(latest.Message, 40))

	case res.Activity != nil && res.Activity.Weeks > 0:
		detail = fmt.Sprintf("%.1f/wk mean, busiest %d",
			res.Activity.WeeklyMean, res.Activity.BusiestWeekCommits)
	}

	if res.Truncated {
		if detail != "" {
			detail += ", "
		}
		detail += "truncated"
	}
	return detail
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
