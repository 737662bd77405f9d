package main

import (
	"fmt"
	"html"
	"strings"

	"github.com/blueline-sports/streamer-cli/internal/model"
)

// renderHTML formats a recommendation as the email body.
func renderHTML(rec *model.Recommendation) string {
	var b strings.Builder
	b.WriteString("<html><body style=\"font-family:sans-serif\">")
	b.WriteString("<h2>Weekly streaming recommendation</h2>")
	fmt.Fprintf(&b, "<p>%s</p>", html.EscapeString(rec.Summary))

	if rec.Degraded {
		b.WriteString("<p><em>Historical context was unavailable for this run.</em></p>")
	}

	if len(rec.Plan.Entries) > 0 {
		b.WriteString("<h3>Streaming plan</h3><table border=\"1\" cellpadding=\"4\" cellspacing=\"0\">")
		b.WriteString("<tr><th>Date</th><th>Drop</th><th>Add</th><th>Projected gain</th></tr>")
		for _, e := range rec.Plan.Entries {
			fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td><td>%s</td><td>%+.1f</td></tr>",
				e.Date.Format("Mon Jan 2"),
				html.EscapeString(e.DropPlayerName),
				html.EscapeString(e.AddPlayerName),
				e.ExpectedValueDelta)
		}
		fmt.Fprintf(&b, "</table><p>Total projected gain: %+.1f fantasy points</p>", rec.Plan.TotalGain)
	}

	if len(rec.Droppable) > 0 {
		b.WriteString("<h3>Droppable players</h3><ul>")
		for _, d := range rec.Droppable {
			fmt.Fprintf(&b, "<li><strong>%s</strong> (%.0f%%): %s</li>",
				html.EscapeString(d.PlayerName), d.Confidence*100, html.EscapeString(d.Rationale))
		}
		b.WriteString("</ul>")
	}

	if len(rec.HistoricalCaveats) > 0 {
		b.WriteString("<h3>Caveats</h3><ul>")
		for _, c := range rec.HistoricalCaveats {
			fmt.Fprintf(&b, "<li>%s</li>", html.EscapeString(c))
		}
		b.WriteString("</ul>")
	}

	fmt.Fprintf(&b, "<p style=\"color:#888;font-size:12px\">content hash %s</p>", rec.ContentHash)
	b.WriteString("</body></html>")
	return b.String()
}
