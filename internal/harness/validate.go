package harness

import (
	"context"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"courtscrape/internal/site"
)

// Report is one validated example page.
type Report struct {
	Fixture string
	Outcome site.Outcome
	Verdict Verdict
}

// Line renders the report the way the validation run prints it.
func (r Report) Line() string {
	return r.Outcome.CourtID + " " + r.Fixture + ": " + string(r.Outcome.State) + r.Verdict.Message
}

// Validate runs s against the saved page at fixture under the guard.
func (g Guard) Validate(ctx context.Context, s *site.Site, fixture string) (Report, error) {
	var out site.Outcome
	v, err := g.Time(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.RunFixture(ctx, fixture)
		return err
	})
	rep := Report{Fixture: fixture, Outcome: out, Verdict: v}

	log := zap.L().With(zap.String("court_id", s.CourtID()), zap.String("fixture", fixture))
	if err != nil {
		log.Error("example failed", zap.Duration("took", v.Duration), zap.Error(err))
		return rep, err
	}
	log.Info("example passed",
		zap.Int("records", len(out.Records)),
		zap.Duration("took", v.Duration),
		zap.String("tier", string(v.Tier)),
	)
	return rep, nil
}

// Examples lists the example pages in fsys, sorted. Example pages are
// files whose base name starts with "example".
func Examples(fsys fs.FS) ([]string, error) {
	var out []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasPrefix(path.Base(p), "example") {
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, eris.Wrap(err, "harness: list examples")
	}
	sort.Strings(out)
	return out, nil
}
