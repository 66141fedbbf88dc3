package site

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"courtscrape/internal/backscrape"
	"courtscrape/internal/dates"
	"courtscrape/internal/extractor"
	"courtscrape/internal/fetcher"
)

var tracer = otel.Tracer("courtscrape/site")

// Site runs a Config through a Downloader.
type Site struct {
	cfg    Config
	dl     fetcher.Downloader
	now    func() time.Time
	logger *zap.Logger
}

// Option configures a Site.
type Option func(*Site)

// WithClock replaces time.Now, which drives current keys and context dates.
func WithClock(now func() time.Time) Option {
	return func(s *Site) { s.now = now }
}

// WithLogger sets the parent logger. The default is zap.L().
func WithLogger(l *zap.Logger) Option {
	return func(s *Site) { s.logger = l }
}

// New validates cfg and returns a runnable site.
func New(cfg Config, dl fetcher.Downloader, opts ...Option) (*Site, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if dl == nil {
		return nil, eris.Errorf("site %s: downloader is required", cfg.CourtID)
	}
	s := &Site{cfg: cfg, dl: dl, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.L()
	}
	return s, nil
}

// CourtID returns the site's court identifier.
func (s *Site) CourtID() string { return s.cfg.CourtID }

// CurrentKey returns the key a plain Run uses.
func (s *Site) CurrentKey() string {
	now := s.now()
	if s.cfg.CurrentKey != nil {
		return s.cfg.CurrentKey(now)
	}
	return backscrape.YearMonth(backscrape.PeriodOf(now))
}

// BackScrapeCursor returns the site's historical keys. The cursor is zero
// when the site has none.
func (s *Site) BackScrapeCursor() backscrape.Cursor {
	if s.cfg.BackScrape == nil {
		return backscrape.Cursor{}
	}
	return s.cfg.BackScrape(s.now())
}

// Run scrapes the current key.
func (s *Site) Run(ctx context.Context) (Outcome, error) {
	return s.RunKey(ctx, s.CurrentKey())
}

// RunKey scrapes the page for key. An anticipated navigation failure is
// reported as a FailedExpected outcome with a nil error. Any other failure
// returns a FailedFatal outcome and the underlying error unchanged.
func (s *Site) RunKey(ctx context.Context, key string) (Outcome, error) {
	return s.run(ctx, key, s.request(key))
}

// RunFixture parses the saved page at path instead of fetching the live
// site. Headless steps are skipped since the fixture is already the page
// they lead to.
func (s *Site) RunFixture(ctx context.Context, path string) (Outcome, error) {
	return s.run(ctx, s.CurrentKey(), fetcher.Request{
		CourtID:  s.cfg.CourtID,
		Strategy: fetcher.StrategyLocal,
		URL:      path,
	})
}

// BackScrape runs every key in order. Expected failures are recorded and
// skipped; the first fatal failure stops the walk and is returned together
// with the outcomes so far.
func (s *Site) BackScrape(ctx context.Context, keys iter.Seq[string]) ([]Outcome, error) {
	var outcomes []Outcome
	for key := range keys {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		out, err := s.RunKey(ctx, key)
		outcomes = append(outcomes, out)
		if err != nil {
			return outcomes, err
		}
	}
	return outcomes, nil
}

func (s *Site) request(key string) fetcher.Request {
	expand := s.expander(key)

	var steps []fetcher.Step
	if len(s.cfg.Steps) > 0 {
		steps = make([]fetcher.Step, len(s.cfg.Steps))
		for i, st := range s.cfg.Steps {
			st.Value = expand.Replace(st.Value)
			st.Locator = expand.Replace(st.Locator)
			st.Reason = expand.Replace(st.Reason)
			steps[i] = st
		}
	}

	strategy := s.cfg.Strategy
	if strategy == "" {
		strategy = fetcher.StrategyDirect
	}
	return fetcher.Request{
		CourtID:            s.cfg.CourtID,
		Strategy:           strategy,
		URL:                expand.Replace(s.cfg.URL),
		InsecureSkipVerify: s.cfg.InsecureSkipVerify,
		Steps:              steps,
		ImplicitWait:       s.cfg.ImplicitWait,
	}
}

func (s *Site) expander(key string) *strings.Replacer {
	pairs := []string{"{key}", key}
	for name, value := range s.cfg.Params {
		pairs = append(pairs, "{"+name+"}", value)
	}
	return strings.NewReplacer(pairs...)
}

func (s *Site) run(ctx context.Context, key string, req fetcher.Request) (Outcome, error) {
	ctx, span := tracer.Start(ctx, "Site.Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("court_id", s.cfg.CourtID),
		attribute.String("key", key),
		attribute.String("strategy", string(req.Strategy)),
	)

	log := s.logger.With(
		zap.String("court_id", s.cfg.CourtID),
		zap.String("run_id", uuid.NewString()),
		zap.String("key", key),
	)

	out := Outcome{CourtID: s.cfg.CourtID, Key: key, State: StateConfigured}

	out.State = StateFetching
	log.Debug("fetching", zap.String("url", req.URL))
	res, err := s.dl.Fetch(ctx, req)
	if err != nil {
		var nav *fetcher.NavigationError
		if errors.As(err, &nav) && nav.Expected {
			out.State = StateFailedExpected
			out.Reason = nav.Reason
			log.Info("expected failure", zap.String("reason", nav.Reason))
			span.SetAttributes(attribute.String("outcome", string(out.State)))
			return out, nil
		}
		return s.fail(out, span, log, err)
	}
	out.StatusCode = res.StatusCode
	out.URL = res.URL

	out.State = StateExtracting
	records, err := s.extract(res)
	if err != nil {
		return s.fail(out, span, log, err)
	}
	if s.cfg.Hooks.PostProcess != nil {
		if records, err = s.cfg.Hooks.PostProcess(records); err != nil {
			return s.fail(out, span, log, eris.Wrapf(err, "site %s: post-process", s.cfg.CourtID))
		}
	}

	out.State = StateValidated
	out.Records = records
	log.Info("scraped", zap.Int("records", len(records)), zap.Int("status", res.StatusCode))
	span.SetAttributes(attribute.String("outcome", string(out.State)), attribute.Int("records", len(records)))
	return out, nil
}

func (s *Site) fail(out Outcome, span trace.Span, log *zap.Logger, err error) (Outcome, error) {
	failedIn := out.State
	out.State = StateFailedFatal
	out.Reason = err.Error()
	span.RecordError(err)
	span.SetAttributes(attribute.String("outcome", string(out.State)))
	span.SetStatus(codes.Error, string(failedIn))
	log.Error("scrape failed", zap.String("stage", string(failedIn)), zap.Error(err))
	return out, err
}

// extract reads every declared field, checks the columns line up, and zips
// them into records in case-name order.
func (s *Site) extract(res *fetcher.Result) ([]Record, error) {
	now := s.now()
	cols := make(map[Column][]string, len(s.cfg.Fields))
	var caseDates []time.Time
	lengths := make([]ColumnLength, 0, len(s.cfg.Fields))

	for _, f := range s.cfg.Fields {
		if f.Column == CaseDates {
			d, err := s.extractDates(res, f, now)
			if err != nil {
				return nil, err
			}
			caseDates = d
			lengths = append(lengths, ColumnLength{Column: f.Column, Len: len(d)})
			continue
		}

		values, err := s.extractValues(res, f)
		if err != nil {
			return nil, err
		}
		cols[f.Column] = values
		lengths = append(lengths, ColumnLength{Column: f.Column, Len: len(values)})
	}

	n := len(cols[CaseNames])
	for _, l := range lengths {
		if l.Len != n {
			return nil, &ExtractionError{CourtID: s.cfg.CourtID, Lengths: lengths, Reason: "column lengths differ"}
		}
	}

	records := make([]Record, 0, n)
	seen := make(map[Record]bool, n)
	for i := 0; i < n; i++ {
		r := Record{
			CaseName:     cols[CaseNames][i],
			CaseDate:     caseDates[i],
			DocketNumber: at(cols[DocketNumbers], i),
			Status:       at(cols[PrecedentialStatuses], i),
			Disposition:  at(cols[Dispositions], i),
			Judges:       at(cols[Judges], i),
			DownloadURL:  cols[DownloadURLs][i],
		}
		if _, ok := s.cfg.field(PrecedentialStatuses); !ok {
			r.Status = s.cfg.DefaultStatus
		}
		if strings.TrimSpace(r.CaseName) == "" {
			return nil, &ExtractionError{CourtID: s.cfg.CourtID, Lengths: lengths, Reason: fmt.Sprintf("blank case name in row %d", i)}
		}
		if seen[r] {
			continue
		}
		seen[r] = true
		records = append(records, r)
	}
	return records, nil
}

func (s *Site) extractValues(res *fetcher.Result, f Field) ([]string, error) {
	if f.Query.Kind == extractor.KindCount {
		n, err := extractor.CountMatches(res.Doc, f.Query)
		if err != nil {
			return nil, eris.Wrapf(err, "site %s: count %s", s.cfg.CourtID, f.Column)
		}
		values := make([]string, n)
		for i := range values {
			values[i] = f.Fill
		}
		return values, nil
	}

	values, err := extractor.Extract(res.Doc, f.Query)
	if err != nil {
		return nil, eris.Wrapf(err, "site %s: extract %s", s.cfg.CourtID, f.Column)
	}
	if f.Clean != nil {
		for i, v := range values {
			values[i] = f.Clean(v)
		}
	}
	return values, nil
}

func (s *Site) extractDates(res *fetcher.Result, f Field, now time.Time) ([]time.Time, error) {
	if f.Query.Kind == extractor.KindCount {
		n, err := extractor.CountMatches(res.Doc, f.Query)
		if err != nil {
			return nil, eris.Wrapf(err, "site %s: count %s", s.cfg.CourtID, f.Column)
		}
		return dates.Replicate(s.contextDate(now), n), nil
	}

	raw, err := s.extractValues(res, f)
	if err != nil {
		return nil, err
	}
	out := make([]time.Time, len(raw))
	for i, v := range raw {
		d, err := dates.Normalize(v, f.Layouts...)
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}

func (s *Site) contextDate(now time.Time) time.Time {
	if s.cfg.ContextDate != nil {
		return dates.Civil(s.cfg.ContextDate(now))
	}
	return dates.Yesterday(now)
}

func at(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}
