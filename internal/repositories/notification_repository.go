package repositories

import (
	"context"

	"github.com/anonto42/vidspace/backend/internal/docstore"
	"github.com/anonto42/vidspace/backend/internal/models"
)

// NotificationRepository defines the interface for notification operations.
// Notifications live inside the recipient's account document, so every
// operation is a single-document read-modify-write.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, recipient string, notification models.Notification) error
	// GetByRecipient returns the log newest first.
	GetByRecipient(ctx context.Context, recipient string) ([]models.Notification, error)
	GetUnreadCount(ctx context.Context, recipient string) (int, error)
	MarkAllAsRead(ctx context.Context, recipient string) error
}

type documentNotificationRepository struct {
	store docstore.Store
}

// NewNotificationRepository creates a NotificationRepository over a document store
func NewNotificationRepository(store docstore.Store) NotificationRepository {
	return &documentNotificationRepository{store: store}
}

func (r *documentNotificationRepository) CreateNotification(ctx context.Context, recipient string, notification models.Notification) error {
	return r.store.Mutate(ctx, ref(AccountsCollection, recipient), typed(func(a *models.Account) (bool, error) {
		a.Notifications = models.AppendNotification(a.Notifications, notification)
		return true, nil
	}))
}

func (r *documentNotificationRepository) GetByRecipient(ctx context.Context, recipient string) ([]models.Notification, error) {
	account, err := r.account(ctx, recipient)
	if err != nil {
		return nil, err
	}
	return models.NewestFirst(account.Notifications), nil
}

func (r *documentNotificationRepository) GetUnreadCount(ctx context.Context, recipient string) (int, error) {
	account, err := r.account(ctx, recipient)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, n := range account.Notifications {
		if !n.Read {
			count++
		}
	}
	return count, nil
}

func (r *documentNotificationRepository) MarkAllAsRead(ctx context.Context, recipient string) error {
	return r.store.Mutate(ctx, ref(AccountsCollection, recipient), typed(func(a *models.Account) (bool, error) {
		changed := false
		for i := range a.Notifications {
			if !a.Notifications[i].Read {
				a.Notifications[i].Read = true
				changed = true
			}
		}
		return changed, nil
	}))
}

func (r *documentNotificationRepository) account(ctx context.Context, handle string) (*models.Account, error) {
	doc, err := r.store.GetOne(ctx, AccountsCollection, docstore.IDField, handle)
	if err != nil {
		return nil, err
	}
	var account models.Account
	if err := docstore.Decode(doc, &account); err != nil {
		return nil, err
	}
	return &account, nil
}
