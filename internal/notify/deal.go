package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/cardscout/cardscout/internal/domain"
)

// FormatDealAlert renders one evaluated listing as a notification title and
// body. Both are plain text; each sender applies its own emphasis.
func FormatDealAlert(ev domain.EvaluatedListing) (title, message string) {
	title = fmt.Sprintf("Deal %.1f/10 (%s): %s", ev.Score.FinalScore, ev.Score.Rating, truncate(ev.Listing.Title, 80))

	var b strings.Builder
	fmt.Fprintf(&b, "Price: $%.2f ($%.2f + $%.2f shipping)\n",
		ev.Listing.TotalPrice, ev.Listing.Price, ev.Listing.Shipping)
	if ev.Profit.Sufficient {
		fmt.Fprintf(&b, "EV: $%.2f (ROI %.1f%%, %s)\n",
			ev.Profit.ExpectedValue, ev.Profit.ROIPct, ev.Profit.Recommendation)
	} else {
		b.WriteString("EV: insufficient comparable data\n")
	}
	if ev.Outlier.Band != domain.BandInsufficient {
		fmt.Fprintf(&b, "Vs comps: %.1f%% of mean (%s)\n", ev.Outlier.PctOfMean, ev.Outlier.Band)
	}
	if len(ev.Score.Flags) > 0 {
		fmt.Fprintf(&b, "Flags: %s\n", strings.Join(ev.Score.Flags, ", "))
	}
	if ev.Listing.ItemURL != "" {
		b.WriteString(ev.Listing.ItemURL)
	}
	return title, strings.TrimRight(b.String(), "\n")
}

// FormatRunSummary renders a finished run as a notification.
func FormatRunSummary(run domain.RunResult) (title, message string) {
	title = fmt.Sprintf("Run complete: %q", run.Phrase)
	message = fmt.Sprintf(
		"%d searches, %d raw listings, %d accepted, %d rejected in %s",
		run.SearchCount, run.RawCount, len(run.Accepted), len(run.Rejected),
		run.FinishedAt.Sub(run.StartedAt).Round(100*time.Millisecond),
	)
	return title, message
}

// truncate cuts s to at most n runes, replacing the tail with "..." so a
// multi-byte rune at the cut point never produces invalid UTF-8.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
