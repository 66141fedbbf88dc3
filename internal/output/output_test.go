package output

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courtscrape/internal/site"
)

func sampleReport() *Report {
	return NewReport([]site.Outcome{
		{
			CourtID: "cadc",
			Key:     "201609",
			State:   site.StateValidated,
			Records: []site.Record{{
				CaseName:     "Smith v. Jones, Inc.",
				CaseDate:     time.Date(2016, time.September, 1, 0, 0, 0, 0, time.UTC),
				DocketNumber: "16-5001",
				Judges:       "Henderson, Rogers",
				DownloadURL:  "https://c.test/1.mp3",
			}},
		},
		{
			CourtID: "fladistctapp1",
			Key:     "092016",
			State:   site.StateFailedExpected,
			Reason:  "month not yet available",
		},
	})
}

func TestToText(t *testing.T) {
	text, err := sampleReport().ToText()
	require.NoError(t, err)
	assert.Equal(t, "cadc 201609: validated, 1 records\n"+
		"2016-09-01\t16-5001\tSmith v. Jones, Inc.\thttps://c.test/1.mp3\n"+
		"\n"+
		"fladistctapp1 092016: failed_expected (month not yet available), 0 records\n", text)
}

func TestToCSV(t *testing.T) {
	out, err := sampleReport().ToCSV()
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, "Smith v. Jones, Inc.", rows[1][3])
	assert.Equal(t, "2016-09-01", rows[1][4])
}

func TestToJSON(t *testing.T) {
	data, err := sampleReport().ToJSON()
	require.NoError(t, err)

	var got []site.Outcome
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 2)
	assert.Equal(t, site.StateFailedExpected, got[1].State)
	assert.Equal(t, "16-5001", got[0].Records[0].DocketNumber)

	empty, err := NewReport(nil).ToJSON()
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty))
}

func TestToHTMLEscapes(t *testing.T) {
	r := NewReport([]site.Outcome{{
		CourtID: "x", State: site.StateValidated,
		Records: []site.Record{{CaseName: "A <b> & C"}},
	}})
	page, err := r.ToHTML()
	require.NoError(t, err)
	assert.Contains(t, page, "A &lt;b&gt; &amp; C")
}

func TestToMarkdown(t *testing.T) {
	markdown, err := sampleReport().ToMarkdown()
	require.NoError(t, err)
	assert.Contains(t, markdown, "Smith v. Jones, Inc.")
	assert.Regexp(t, `\|\s*Date\s*\|`, markdown)
	assert.Contains(t, markdown, "month not yet available")
}
