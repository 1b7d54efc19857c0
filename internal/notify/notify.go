// Package notify provides multi-channel alert notification dispatch.
package notify

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tel9980/boduan/internal/models"
)

// Severity grades a notification message.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Message is a notification to be fanned out to one or more channels.
type Message struct {
	Title     string
	Body      string
	StockCode string
	Tag       string
	Severity  Severity
}

// Text renders the message as a single line for channels without a
// title/body split.
func (m Message) Text() string {
	if m.Title == "" {
		return m.Body
	}
	return fmt.Sprintf("%s: %s", m.Title, m.Body)
}

// Channel is one notification delivery mechanism.
type Channel interface {
	Name() string
	Kind() models.ChannelKind
	Send(msg Message) error
}

// Dispatcher fans a message out to the channels a rule selects. Each channel
// call is independently guarded: one failing channel never blocks the others,
// and no error escapes to the evaluation loop.
type Dispatcher struct {
	channels map[models.ChannelKind]Channel
	logger   zerolog.Logger
}

// NewDispatcher creates a Dispatcher over the given channels.
func NewDispatcher(logger zerolog.Logger, channels ...Channel) *Dispatcher {
	d := &Dispatcher{
		channels: make(map[models.ChannelKind]Channel),
		logger:   logger,
	}
	for _, ch := range channels {
		d.channels[ch.Kind()] = ch
	}
	return d
}

// Dispatch sends msg to every requested channel that is also enabled in
// settings. Failures are logged and swallowed.
func (d *Dispatcher) Dispatch(kinds []models.ChannelKind, enabled models.ChannelSettings, msg Message) {
	for _, kind := range kinds {
		if !enabled.Enabled(kind) {
			continue
		}
		ch, ok := d.channels[kind]
		if !ok {
			d.logger.Debug().Str("channel", string(kind)).Msg("No channel registered")
			continue
		}
		d.send(ch, msg)
	}
}

// send invokes one channel, containing both errors and panics.
func (d *Dispatcher) send(ch Channel, msg Message) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().
				Str("channel", ch.Name()).
				Interface("panic", r).
				Msg("Notification channel panicked")
		}
	}()

	if err := ch.Send(msg); err != nil {
		d.logger.Warn().
			Str("channel", ch.Name()).
			Err(err).
			Msg("Notification dispatch failed")
	}
}

// Channel returns the registered channel of the given kind, if any.
func (d *Dispatcher) Channel(kind models.ChannelKind) (Channel, bool) {
	ch, ok := d.channels[kind]
	return ch, ok
}
