package main

import (
	"github.com/llehouerou/qobuz-player-go/internal/config"
	"github.com/llehouerou/qobuz-player-go/internal/notification"
	"github.com/llehouerou/qobuz-player-go/internal/notify"
)

func newDesktopNotifier() (notify.Notifier, error) {
	return notify.New()
}

// desktopNotification maps a loop-level Notification onto the desktop
// notify.Notification shape, using the configured timeout and an
// urgency derived from Kind.
func desktopNotification(n notification.Notification, cfg config.NotificationsConfig) notify.Notification {
	urgency := notify.UrgencyNormal
	title := "Qobuz Player"
	switch n.Kind {
	case notification.Error:
		urgency = notify.UrgencyCritical
		title = "Qobuz Player — Error"
	case notification.Warn:
		title = "Qobuz Player — Warning"
	case notification.Success:
		title = "Qobuz Player"
	}

	return notify.Notification{
		Title:   title,
		Body:    n.Message,
		Timeout: cfg.Timeout,
		Urgency: urgency,
	}
}
