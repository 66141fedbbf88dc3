package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/rotisserie/eris"

	"courtscrape/internal/site"
)

const dateLayout = "2006-01-02"

var csvHeader = []string{
	"court_id", "key", "state", "case_name", "case_date", "docket_number",
	"status", "disposition", "judges", "download_url",
}

// Report renders the outcomes of one invocation in each output format.
type Report struct {
	Outcomes []site.Outcome
}

// NewReport wraps outcomes for rendering.
func NewReport(outcomes []site.Outcome) *Report {
	return &Report{Outcomes: outcomes}
}

// ToHTML renders one table per outcome.
func (r *Report) ToHTML() (string, error) {
	var b strings.Builder
	for _, o := range r.Outcomes {
		fmt.Fprintf(&b, "<h2>%s %s</h2>\n", html.EscapeString(o.CourtID), html.EscapeString(o.Key))
		if !o.OK() {
			fmt.Fprintf(&b, "<p>%s: %s</p>\n", html.EscapeString(string(o.State)), html.EscapeString(o.Reason))
			continue
		}
		b.WriteString("<table>\n<thead><tr><th>Date</th><th>Case</th><th>Docket</th><th>Status</th><th>Disposition</th><th>Judges</th><th>URL</th></tr></thead>\n<tbody>\n")
		for _, rec := range o.Records {
			b.WriteString("<tr>")
			for _, cell := range []string{
				rec.CaseDate.Format(dateLayout), rec.CaseName, rec.DocketNumber,
				rec.Status, rec.Disposition, rec.Judges, rec.DownloadURL,
			} {
				fmt.Fprintf(&b, "<td>%s</td>", html.EscapeString(cell))
			}
			b.WriteString("</tr>\n")
		}
		b.WriteString("</tbody>\n</table>\n")
	}
	return b.String(), nil
}

// ToText renders a heading line per outcome and a tab-separated line per
// record.
func (r *Report) ToText() (string, error) {
	var b strings.Builder
	for i, o := range r.Outcomes {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s %s: %s", o.CourtID, o.Key, o.State)
		if o.Reason != "" {
			fmt.Fprintf(&b, " (%s)", o.Reason)
		}
		fmt.Fprintf(&b, ", %d records\n", len(o.Records))
		for _, rec := range o.Records {
			fmt.Fprintf(&b, "%s\t%s\t%s\t%s\n", rec.CaseDate.Format(dateLayout), rec.DocketNumber, rec.CaseName, rec.DownloadURL)
		}
	}
	return b.String(), nil
}

// ToMarkdown converts the HTML rendering, with tables as pipe tables.
func (r *Report) ToMarkdown() (string, error) {
	page, err := r.ToHTML()
	if err != nil {
		return "", err
	}

	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.Table())
	markdown, err := converter.ConvertString(page)
	if err != nil {
		return "", eris.Wrap(err, "output: convert html to markdown")
	}
	return markdown, nil
}

// ToJSON renders the outcomes as indented JSON.
func (r *Report) ToJSON() ([]byte, error) {
	outcomes := r.Outcomes
	if outcomes == nil {
		outcomes = []site.Outcome{}
	}
	data, err := json.MarshalIndent(outcomes, "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "output: marshal json")
	}
	return data, nil
}

// ToCSV renders one row per record across all validated outcomes.
func (r *Report) ToCSV() (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return "", eris.Wrap(err, "output: write csv header")
	}
	for _, o := range r.Outcomes {
		for _, rec := range o.Records {
			row := []string{
				o.CourtID, o.Key, string(o.State), rec.CaseName, rec.CaseDate.Format(dateLayout),
				rec.DocketNumber, rec.Status, rec.Disposition, rec.Judges, rec.DownloadURL,
			}
			if err := w.Write(row); err != nil {
				return "", eris.Wrap(err, "output: write csv row")
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", eris.Wrap(err, "output: flush csv")
	}
	return buf.String(), nil
}
