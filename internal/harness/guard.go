// Package harness validates sites against their saved example pages and
// times each run, failing runs that are too slow to keep in a test suite.
package harness

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// SlowWarning is appended to the report line of a run over the warn threshold.
const SlowWarning = " - WARNING: SLOW SCRAPER"

const (
	DefaultWarn = time.Second
	DefaultMax  = 15 * time.Second
)

// Tier grades a run's duration.
type Tier string

const (
	TierOK   Tier = "ok"
	TierWarn Tier = "warn"
	TierFail Tier = "fail"
)

// Verdict is the guard's judgment of one run.
type Verdict struct {
	Duration time.Duration
	Tier     Tier
	Message  string
}

// SlownessError is returned for a run over the max threshold.
type SlownessError struct {
	Duration time.Duration
	Max      time.Duration
}

func (e *SlownessError) Error() string {
	return fmt.Sprintf("This scraper took %gs to test, which is more than the allowed speed of %gs. Please speed it up for tests to pass.",
		e.Duration.Seconds(), e.Max.Seconds())
}

// Environment describes conditions under which slowness is tolerated.
type Environment struct {
	// Debugger is set when a tracer is attached to the process.
	Debugger bool
	// LenientCI is set on CI hosts known to be slow.
	LenientCI bool
}

// Lenient reports whether over-limit runs should pass.
func (e Environment) Lenient() bool { return e.Debugger || e.LenientCI }

// DetectEnvironment inspects the process once. lenientVar names the
// environment variable marking a lenient CI host; any non-empty value other
// than "false" or "0" counts.
func DetectEnvironment(lenientVar string) Environment {
	env := Environment{Debugger: tracerAttached("/proc/self/status")}
	if lenientVar != "" {
		v := strings.ToLower(strings.TrimSpace(os.Getenv(lenientVar)))
		env.LenientCI = v != "" && v != "false" && v != "0"
	}
	return env
}

// tracerAttached reads the TracerPid line of a Linux status file. Other
// platforms, and unreadable files, report no tracer.
func tracerAttached(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		rest, ok := strings.CutPrefix(sc.Text(), "TracerPid:")
		if !ok {
			continue
		}
		pid, err := strconv.Atoi(strings.TrimSpace(rest))
		return err == nil && pid != 0
	}
	return false
}

// Guard grades run durations.
type Guard struct {
	Warn time.Duration
	Max  time.Duration
	Env  Environment
}

// NewGuard fills zero thresholds with the defaults.
func NewGuard(warnAfter, failAfter time.Duration, env Environment) Guard {
	if warnAfter <= 0 {
		warnAfter = DefaultWarn
	}
	if failAfter <= 0 {
		failAfter = DefaultMax
	}
	return Guard{Warn: warnAfter, Max: failAfter, Env: env}
}

// Judge grades d. Over Max it returns a SlownessError unless the
// environment is lenient, in which case the run passes silently.
func (g Guard) Judge(d time.Duration) (Verdict, error) {
	v := Verdict{Duration: d, Tier: TierOK}
	switch {
	case d > g.Max:
		if g.Env.Lenient() {
			return v, nil
		}
		v.Tier = TierFail
		return v, &SlownessError{Duration: d, Max: g.Max}
	case d > g.Warn:
		v.Tier = TierWarn
		v.Message = SlowWarning
	}
	return v, nil
}

// Time runs fn and judges how long it took. An error from fn takes
// precedence over a slowness error.
func (g Guard) Time(ctx context.Context, fn func(context.Context) error) (Verdict, error) {
	start := time.Now()
	err := fn(ctx)
	v, slow := g.Judge(time.Since(start))
	if err != nil {
		return v, err
	}
	return v, slow
}
