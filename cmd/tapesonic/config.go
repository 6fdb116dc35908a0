package main

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/tapesonic/tapesonic/tape"
)

const (
	defaultSymbol       = "TSLA"
	defaultMinThreshold = "90000"
	defaultBigThreshold = "490000"
)

type config struct {
	symbol     string
	thresholds tape.Thresholds
	silent     bool
	replay     bool
	// start is the absolute session start instant in replay mode.
	start time.Time
}

func usage() string {
	return `usage: tapesonic [-silent] [ticker [min-notional [big-notional [date time]]]]

  ticker        symbol to follow (default TSLA)
  min-notional  smallest dollar amount worth reporting (default 90000)
  big-notional  dollar amount that gets the emphasized cue (default 490000)
  date          historical session date, YYYYMMDD; switches to replay mode
  time          historical session start, e.g. 0930am, Eastern time`
}

func parseArgs(args []string) (*config, error) {
	fs := flag.NewFlagSet("tapesonic", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	silent := fs.Bool("silent", false, "run without audio")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	rest := fs.Args()

	switch len(rest) {
	case 0, 1, 2, 3, 5:
	default:
		return nil, fmt.Errorf("expected at most ticker, thresholds and a date with a time, got %d arguments", len(rest))
	}

	cfg := &config{symbol: defaultSymbol, silent: *silent}
	minArg, bigArg := defaultMinThreshold, defaultBigThreshold
	if len(rest) >= 1 {
		cfg.symbol = strings.ToUpper(rest[0])
	}
	if len(rest) >= 2 {
		minArg = rest[1]
	}
	if len(rest) >= 3 {
		bigArg = rest[2]
	}

	minNotional, err := decimal.NewFromString(minArg)
	if err != nil {
		return nil, fmt.Errorf("parsing min-notional %q: %w", minArg, err)
	}
	bigNotional, err := decimal.NewFromString(bigArg)
	if err != nil {
		return nil, fmt.Errorf("parsing big-notional %q: %w", bigArg, err)
	}
	cfg.thresholds = tape.Thresholds{Min: minNotional, Big: bigNotional}
	if err := cfg.thresholds.Validate(); err != nil {
		return nil, err
	}

	if len(rest) == 5 {
		cfg.replay = true
		cfg.start, err = parseSessionStart(rest[3], rest[4])
		if err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// parseSessionStart combines a YYYYMMDD date and a 12-hour hhmm(am|pm)
// clock into an absolute instant on the Eastern market clock.
func parseSessionStart(dateArg, clockArg string) (time.Time, error) {
	parsed, err := time.Parse("20060102", dateArg)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", dateArg, err)
	}
	day := civil.DateOf(parsed)

	clock, err := time.Parse("0304pm", strings.ToLower(clockArg))
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing time %q: %w", clockArg, err)
	}

	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.Time{}, err
	}
	return day.In(loc).Add(
		time.Duration(clock.Hour())*time.Hour + time.Duration(clock.Minute())*time.Minute,
	), nil
}
