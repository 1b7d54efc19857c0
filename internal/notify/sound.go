package notify

import (
	"math"

	"github.com/rs/zerolog"

	apperrors "github.com/tel9980/boduan/internal/errors"
	"github.com/tel9980/boduan/internal/models"
)

// ToneKind selects the tone played for a notification.
type ToneKind string

const (
	ToneAlert   ToneKind = "alert"
	ToneWarning ToneKind = "warning"
	ToneSuccess ToneKind = "success"
)

// toneFrequencies maps each tone kind to its sine frequency in Hz.
var toneFrequencies = map[ToneKind]float64{
	ToneAlert:   800,
	ToneWarning: 600,
	ToneSuccess: 1000,
}

const (
	toneSampleRate = 44100
	toneDuration   = 0.5  // seconds
	toneStartGain  = 0.3
	toneEndGain    = 0.01
)

// AudioSink is the platform audio capability. A nil AudioSink means the
// platform has no audio support.
type AudioSink interface {
	// Play renders the given mono PCM samples at the given rate.
	Play(samples []float32, sampleRate int) error
}

// SoundChannel synthesizes short notification tones into the audio sink.
// It tolerates a missing or failing sink: Send never returns an error.
type SoundChannel struct {
	sink   AudioSink
	logger zerolog.Logger
}

// NewSoundChannel creates a SoundChannel. sink may be nil.
func NewSoundChannel(sink AudioSink, logger zerolog.Logger) *SoundChannel {
	return &SoundChannel{sink: sink, logger: logger}
}

// Name returns the channel name.
func (c *SoundChannel) Name() string { return "sound" }

// Kind returns the channel kind.
func (c *SoundChannel) Kind() models.ChannelKind { return models.ChannelSound }

// Send plays the alert tone. Every dispatched alert sounds the same.
func (c *SoundChannel) Send(msg Message) error {
	c.PlayTone(ToneAlert)
	return nil
}

// PlayTone synthesizes and plays one tone. Errors are logged, never
// propagated.
func (c *SoundChannel) PlayTone(kind ToneKind) {
	if c.sink == nil {
		c.logger.Debug().Err(apperrors.ErrNoAudioSupport).Str("tone", string(kind)).Msg("Audio capability unavailable")
		return
	}

	samples := Synthesize(kind)
	if err := c.sink.Play(samples, toneSampleRate); err != nil {
		c.logger.Warn().Err(err).Str("tone", string(kind)).Msg("Tone playback failed")
	}
}

// Synthesize renders a short sine tone with an exponential volume decay
// envelope, one distinct frequency per kind.
func Synthesize(kind ToneKind) []float32 {
	freq, ok := toneFrequencies[kind]
	if !ok {
		freq = toneFrequencies[ToneAlert]
	}

	n := int(toneDuration * toneSampleRate)
	samples := make([]float32, n)

	// Exponential ramp from start gain to end gain over the duration,
	// matching gain(t) = g0 * (g1/g0)^(t/d).
	ratio := toneEndGain / toneStartGain
	for i := 0; i < n; i++ {
		t := float64(i) / toneSampleRate
		gain := toneStartGain * math.Pow(ratio, t/toneDuration)
		samples[i] = float32(gain * math.Sin(2*math.Pi*freq*t))
	}

	return samples
}
