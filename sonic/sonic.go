// Package sonic turns trade classifications into audio cues.
package sonic

import "github.com/tapesonic/tapesonic/tape"

// Player plays the cue for a classified trade. Playback is
// fire-and-forget and never blocks the event path.
type Player interface {
	Play(category tape.Category, big bool)
}

// Silent is the no-op Player used for -silent runs.
type Silent struct{}

func (Silent) Play(tape.Category, bool) {}

type cue int

const (
	cueBuy cue = iota
	cueSell
	cueAboveAsk
	cueBelowBid
	cueBetween
)

const (
	pitchUp   = 1.5
	pitchDown = 0.8
)

// variant identifies a cue at a playback speed. Ratio 1 is the cue as
// recorded; higher is faster and higher pitched.
type variant struct {
	cue   cue
	ratio float64
}

// cueFor maps a classification to the cue variant that announces it.
// Big prints at a quote side get the pitched version of that side's
// cue. Midpoint prints closer to one side always play the pitched
// between cue, big or not; equidistant and unknown-quote prints play
// it plain.
func cueFor(category tape.Category, big bool) variant {
	switch category {
	case tape.AtAsk:
		return sized(cueBuy, big, pitchUp)
	case tape.AtBid:
		return sized(cueSell, big, pitchDown)
	case tape.AboveAsk:
		return sized(cueAboveAsk, big, pitchUp)
	case tape.BelowBid:
		return sized(cueBelowBid, big, pitchDown)
	case tape.MidpointCloserToAsk:
		return variant{cueBetween, pitchUp}
	case tape.MidpointCloserToBid:
		return variant{cueBetween, pitchDown}
	default:
		return variant{cueBetween, 1}
	}
}

func sized(c cue, big bool, ratio float64) variant {
	if big {
		return variant{c, ratio}
	}
	return variant{c, 1}
}
