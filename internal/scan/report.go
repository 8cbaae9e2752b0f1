package scan

import (
	"fmt"
	"sort"
	"strings"

	"universe-curator/internal/domain"
)

// RenderReport renders the monthly summary as markdown for the journal.
func RenderReport(r *domain.ScanReport) string {
	var sb strings.Builder

	sb.WriteString("# Monthly Universe Report\n\n")
	fmt.Fprintf(&sb, "Generated: %s\n\n", r.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))

	sb.WriteString("## Universe\n\n")
	fmt.Fprintf(&sb, "- Active entries: %d (%s)\n", r.ActiveCount, formatDelta(r.ActiveDelta))
	fmt.Fprintf(&sb, "- Watchlist entries: %d (%s)\n", r.WatchlistCount, formatDelta(r.WatchlistDelta))
	fmt.Fprintf(&sb, "- Average score: %.1f\n", r.AverageScore)
	fmt.Fprintf(&sb, "- Max score: %d\n\n", r.MaxScore)

	if len(r.ByCategory) > 0 {
		sb.WriteString("## By Category\n\n")
		sb.WriteString("| Category | Count |\n")
		sb.WriteString("|----------|-------|\n")
		cats := make([]domain.Category, 0, len(r.ByCategory))
		for cat := range r.ByCategory {
			cats = append(cats, cat)
		}
		sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
		for _, cat := range cats {
			fmt.Fprintf(&sb, "| %s | %d |\n", cat, r.ByCategory[cat])
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Cleanup Pass\n\n")
	fmt.Fprintf(&sb, "- Revalidated: %d\n", r.Scanned)
	fmt.Fprintf(&sb, "- Deactivated: %d\n", r.Deactivated)

	return sb.String()
}

func formatDelta(d int) string {
	if d == 0 {
		return "unchanged"
	}
	return fmt.Sprintf("%+d", d)
}
