package sonic

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"

	"github.com/tapesonic/tapesonic/tape"
)

// ErrEmptyCue is returned when pitch shifting a cue yields no samples.
// The cue is then unavailable at that pitch and the original is used.
var ErrEmptyCue = errors.New("sonic: pitch shift produced an empty cue")

const resampleQuality = 4

// Speaker plays wav cues through the system audio device. All pitched
// variants are rendered once at startup so the hot path only hands a
// prepared buffer to the mixer.
type Speaker struct {
	logger tape.Logger
	cues   map[variant]*beep.Buffer
}

// Option configures a Speaker.
type Option func(*Speaker)

func WithLogger(logger tape.Logger) Option {
	return func(s *Speaker) { s.logger = logger }
}

// NewSpeaker loads the five cues, renders their pitched variants and
// initializes the audio device at the first cue's sample rate.
func NewSpeaker(paths Paths, opts ...Option) (*Speaker, error) {
	s := &Speaker{
		logger: tape.DefaultLogger(),
		cues:   make(map[variant]*beep.Buffer),
	}
	for _, o := range opts {
		o(s)
	}

	files := []struct {
		cue  cue
		path string
	}{
		{cueBuy, paths.Buy},
		{cueSell, paths.Sell},
		{cueAboveAsk, paths.AboveAsk},
		{cueBelowBid, paths.BelowBid},
		{cueBetween, paths.Between},
	}

	var mixFormat beep.Format
	for i, f := range files {
		buf, format, err := loadCue(f.path)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			mixFormat = format
		} else if format.SampleRate != mixFormat.SampleRate {
			// cues recorded at other rates are conformed to the mixer
			resampled := beep.NewBuffer(mixFormat)
			resampled.Append(beep.Resample(resampleQuality, format.SampleRate,
				mixFormat.SampleRate, buf.Streamer(0, buf.Len())))
			buf = resampled
		}
		s.cues[variant{f.cue, 1}] = buf
	}

	for _, v := range []variant{
		{cueBuy, pitchUp},
		{cueSell, pitchDown},
		{cueAboveAsk, pitchUp},
		{cueBelowBid, pitchDown},
		{cueBetween, pitchUp},
		{cueBetween, pitchDown},
	} {
		base := s.cues[variant{v.cue, 1}]
		shifted, err := pitched(base, v.ratio)
		if err != nil {
			s.logger.Warnf("sonic: cue unavailable at pitch %.1f, keeping the original: %v", v.ratio, err)
			shifted = base
		}
		s.cues[v] = shifted
	}

	if err := speaker.Init(mixFormat.SampleRate, mixFormat.SampleRate.N(100*time.Millisecond)); err != nil {
		return nil, fmt.Errorf("initializing audio device: %w", err)
	}
	return s, nil
}

func loadCue(path string) (*beep.Buffer, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("opening cue: %w", err)
	}
	defer f.Close()
	streamer, format, err := wav.Decode(f)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("decoding cue %s: %w", path, err)
	}
	defer streamer.Close()
	buf := beep.NewBuffer(format)
	buf.Append(streamer)
	return buf, format, nil
}

// pitched renders src at the given speed ratio into a fresh buffer.
func pitched(src *beep.Buffer, ratio float64) (*beep.Buffer, error) {
	if src.Len() == 0 {
		return nil, ErrEmptyCue
	}
	out := beep.NewBuffer(src.Format())
	out.Append(beep.ResampleRatio(resampleQuality, ratio, src.Streamer(0, src.Len())))
	if out.Len() == 0 {
		return nil, ErrEmptyCue
	}
	return out, nil
}

// Play hands the cue for the classification to the mixer and returns
// immediately.
func (s *Speaker) Play(category tape.Category, big bool) {
	v := cueFor(category, big)
	buf := s.cues[v]
	if buf == nil {
		buf = s.cues[variant{v.cue, 1}]
	}
	if buf == nil || buf.Len() == 0 {
		return
	}
	speaker.Play(buf.Streamer(0, buf.Len()))
}
