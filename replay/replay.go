// Package replay plays a recorded tape back at its original pacing.
package replay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tapesonic/tapesonic/tape"
)

const (
	// extendBefore is how close the cursor may get to the window's end
	// before the window slides forward.
	extendBefore = 2 * time.Minute
	// extendBy is the length of each extension window.
	extendBy = time.Hour
)

// ErrInvalidWindow is returned for a window whose start is not before
// its end.
var ErrInvalidWindow = errors.New("replay: window start must be before its end")

// Window is a half-open time range of tape to fetch.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) Valid() bool {
	return w.Start.Before(w.End)
}

// Source fetches the recorded events inside a window, ordered by
// timestamp.
type Source interface {
	FetchWindow(ctx context.Context, w Window) ([]tape.Event, error)
}

// Scheduler replays events from a Source with the original gaps
// between them, dispatching each to a handler.
type Scheduler struct {
	source Source
	handle func(tape.Event)
	logger tape.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// Option configures a Scheduler.
type Option func(*Scheduler)

func WithLogger(logger tape.Logger) Option {
	return func(s *Scheduler) { s.logger = logger }
}

func NewScheduler(source Source, handle func(tape.Event), opts ...Option) *Scheduler {
	s := &Scheduler{
		source: source,
		handle: handle,
		logger: tape.DefaultLogger(),
		sleep:  sleepFor,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run replays the tape starting at w. While the cursor is running out
// of window (less than extendBefore left) the window slides to the
// hour right after it and the remaining fetched slice is abandoned in
// favor of a fresh fetch. Run returns nil once a fetched window is
// exhausted without triggering an extension, or comes back empty.
func (s *Scheduler) Run(ctx context.Context, w Window) error {
	if !w.Valid() {
		return ErrInvalidWindow
	}
	for {
		events, err := s.source.FetchWindow(ctx, w)
		if err != nil {
			return fmt.Errorf("fetching window [%s, %s): %w",
				w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339), err)
		}
		if len(events) == 0 {
			s.logger.Infof("replay: no events in [%s, %s), done",
				w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
			return nil
		}
		s.logger.Infof("replay: playing %d events from [%s, %s)",
			len(events), w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))

		extended := false
		var prev time.Time
		for _, event := range events {
			ts := event.Time()
			if !prev.IsZero() {
				if gap := ts.Sub(prev); gap > 0 {
					if err := s.sleep(ctx, gap); err != nil {
						return err
					}
				}
			}
			prev = ts

			s.handle(event)

			if w.End.Sub(ts) < extendBefore {
				w = Window{Start: w.End, End: w.End.Add(extendBy)}
				extended = true
				break
			}
		}
		if !extended {
			return nil
		}
	}
}

// sleepFor blocks for d or until ctx is cancelled.
func sleepFor(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
