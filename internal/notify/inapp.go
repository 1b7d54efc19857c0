package notify

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/tel9980/boduan/internal/models"
)

// InAppHandler receives in-app messages, e.g. a terminal printer or a UI
// message bus.
type InAppHandler func(text string, severity Severity)

// InAppChannel is the lowest-common-denominator fallback channel. It always
// succeeds: with no handlers registered, the message is logged.
type InAppChannel struct {
	handlers []InAppHandler
	mu       sync.RWMutex
	logger   zerolog.Logger
}

// NewInAppChannel creates an InAppChannel.
func NewInAppChannel(logger zerolog.Logger) *InAppChannel {
	return &InAppChannel{logger: logger}
}

// Name returns the channel name.
func (c *InAppChannel) Name() string { return "in-app" }

// Kind returns the channel kind.
func (c *InAppChannel) Kind() models.ChannelKind { return models.ChannelInternal }

// AddHandler registers a message handler.
func (c *InAppChannel) AddHandler(handler InAppHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, handler)
}

// Send delivers the message to all handlers. Always returns nil.
func (c *InAppChannel) Send(msg Message) error {
	c.Show(msg.Text(), msg.Severity)
	return nil
}

// Show delivers raw text to all handlers, logging when none are registered.
func (c *InAppChannel) Show(text string, severity Severity) {
	c.mu.RLock()
	handlers := c.handlers
	c.mu.RUnlock()

	if len(handlers) == 0 {
		c.logger.Info().
			Str("severity", string(severity)).
			Msg(text)
		return
	}

	for _, handler := range handlers {
		handler(text, severity)
	}
}
