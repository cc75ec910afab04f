package services

import (
	"context"

	"github.com/anonto42/vidspace/backend/internal/metrics"
	"github.com/anonto42/vidspace/backend/internal/models"
)

// Notify appends an unread entry to recipient's log, evicting the oldest
// entries beyond models.MaxNotifications.
func (s *Service) Notify(ctx context.Context, recipient, text, linkType, linkID string) error {
	n := models.Notification{
		Text:      text,
		Timestamp: s.now().UTC(),
		LinkType:  linkType,
		LinkID:    linkID,
	}
	if err := s.notifications.CreateNotification(ctx, recipient, n); err != nil {
		return storageErr("notify", err)
	}
	metrics.NotificationsAppended.Inc()
	return nil
}

// notifyBestEffort is used for notifications that follow a committed write.
// A failure is logged and dropped; the triggering operation still succeeds.
func (s *Service) notifyBestEffort(ctx context.Context, kind, recipient, text, linkType, linkID string) {
	if err := s.Notify(ctx, recipient, text, linkType, linkID); err != nil {
		metrics.DroppedSideEffects.WithLabelValues("notify_" + kind).Inc()
		s.log.Warn().Err(err).Str("recipient", recipient).Str("kind", kind).Msg("notification dropped")
	}
}

// Notifications returns recipient's log newest first.
func (s *Service) Notifications(ctx context.Context, recipient string) ([]models.Notification, error) {
	log, err := s.notifications.GetByRecipient(ctx, recipient)
	if err != nil {
		return nil, storageErr("notifications", err)
	}
	return log, nil
}

// MarkAllRead marks every entry of recipient's log read.
func (s *Service) MarkAllRead(ctx context.Context, recipient string) error {
	return storageErr("mark notifications read", s.notifications.MarkAllAsRead(ctx, recipient))
}

// UnreadNotifications counts the unread entries of recipient's log.
func (s *Service) UnreadNotifications(ctx context.Context, recipient string) (int, error) {
	n, err := s.notifications.GetUnreadCount(ctx, recipient)
	if err != nil {
		return 0, storageErr("unread notifications", err)
	}
	return n, nil
}
