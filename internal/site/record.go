package site

import "time"

// Record is one case row of a page.
type Record struct {
	CaseName     string    `json:"case_name"`
	CaseDate     time.Time `json:"case_date"`
	DocketNumber string    `json:"docket_number,omitempty"`
	Status       string    `json:"status,omitempty"`
	Disposition  string    `json:"disposition,omitempty"`
	Judges       string    `json:"judges,omitempty"`
	DownloadURL  string    `json:"download_url"`
}

// State is where a run ended up.
type State string

const (
	StateConfigured     State = "configured"
	StateFetching       State = "fetching"
	StateExtracting     State = "extracting"
	StateValidated      State = "validated"
	StateFailedExpected State = "failed_expected"
	StateFailedFatal    State = "failed_fatal"
)

// Outcome is the result of running a site for one key.
type Outcome struct {
	CourtID    string   `json:"court_id"`
	Key        string   `json:"key"`
	State      State    `json:"state"`
	Records    []Record `json:"records"`
	Reason     string   `json:"reason,omitempty"`
	StatusCode int      `json:"status_code,omitempty"`
	URL        string   `json:"url,omitempty"`
}

// OK reports whether the run produced a validated record set.
func (o Outcome) OK() bool { return o.State == StateValidated }
