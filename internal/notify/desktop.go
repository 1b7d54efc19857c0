package notify

import (
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/tel9980/boduan/internal/errors"
	"github.com/tel9980/boduan/internal/models"
)

// Permission is the platform notification permission state.
type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
	PermissionDefault Permission = "default"
)

// DesktopNotification is the payload handed to the platform capability.
type DesktopNotification struct {
	Title   string
	Body    string
	Icon    string
	Tag     string
	OnClick func()
}

// PlatformNotifier is the platform desktop-notification capability. A nil
// PlatformNotifier means the platform has no notification support.
type PlatformNotifier interface {
	// Permission reports the current permission state.
	Permission() Permission
	// RequestPermission prompts the user and returns the resulting state.
	RequestPermission() (Permission, error)
	// Show displays a notification and returns a close function.
	Show(n DesktopNotification) (close func(), err error)
	// Focus brings the application to the foreground.
	Focus()
}

// Navigator requests navigation to a stock's detail view. The navigation
// mechanism itself is an external collaborator.
type Navigator func(stockCode string)

// DesktopChannel delivers notifications through the platform capability,
// degrading to the in-app channel when permission is missing or dispatch
// fails.
type DesktopChannel struct {
	platform     PlatformNotifier
	fallback     *InAppChannel
	navigate     Navigator
	dismissAfter time.Duration
	icon         string
	logger       zerolog.Logger
}

// NewDesktopChannel creates a DesktopChannel. platform and navigate may be
// nil; fallback must not be.
func NewDesktopChannel(platform PlatformNotifier, fallback *InAppChannel, navigate Navigator, logger zerolog.Logger) *DesktopChannel {
	return &DesktopChannel{
		platform:     platform,
		fallback:     fallback,
		navigate:     navigate,
		dismissAfter: 5 * time.Second,
		icon:         "/logo.png",
		logger:       logger,
	}
}

// Name returns the channel name.
func (c *DesktopChannel) Name() string { return "desktop" }

// Kind returns the channel kind.
func (c *DesktopChannel) Kind() models.ChannelKind { return models.ChannelBrowser }

// RequestPermission asks the platform for notification permission. It
// re-queries the platform on every call, memoizing nothing, and reports
// denied when no capability exists.
func (c *DesktopChannel) RequestPermission() Permission {
	if c.platform == nil {
		c.logger.Warn().Err(apperrors.ErrNoNotifySupport).Msg("Notification capability unavailable")
		return PermissionDenied
	}

	if c.platform.Permission() == PermissionGranted {
		return PermissionGranted
	}

	if c.platform.Permission() != PermissionDenied {
		perm, err := c.platform.RequestPermission()
		if err != nil {
			c.logger.Warn().Err(err).Msg("Permission request failed")
			return PermissionDenied
		}
		return perm
	}

	return c.platform.Permission()
}

// Send displays a desktop notification, falling back to the in-app channel
// when not permitted or when the platform dispatch fails.
func (c *DesktopChannel) Send(msg Message) error {
	if c.platform == nil || c.platform.Permission() != PermissionGranted {
		c.logger.Debug().Msg("Desktop notification not permitted, using in-app fallback")
		return c.fallback.Send(msg)
	}

	code := msg.StockCode
	notification := DesktopNotification{
		Title: msg.Title,
		Body:  msg.Body,
		Icon:  c.icon,
		Tag:   msg.Tag,
		OnClick: func() {
			c.platform.Focus()
			if code != "" && c.navigate != nil {
				c.navigate(code)
			}
		},
	}

	closeFn, err := c.platform.Show(notification)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Desktop notification failed, using in-app fallback")
		return c.fallback.Send(msg)
	}

	if closeFn != nil {
		time.AfterFunc(c.dismissAfter, closeFn)
	}
	return nil
}
