package repositories

import (
	"context"

	"github.com/anonto42/vidspace/backend/internal/docstore"
	"github.com/anonto42/vidspace/backend/internal/models"
)

// MessageRepository defines the interface for direct message operations
type MessageRepository interface {
	CreateMessage(ctx context.Context, message *models.Message) error
	// GetMessages returns every message in storage order.
	GetMessages(ctx context.Context) ([]models.Message, error)
	GetThread(ctx context.Context, threadID string) ([]models.Message, error)
	MarkAsRead(ctx context.Context, id string) error
}

type documentMessageRepository struct {
	store docstore.Store
}

// NewMessageRepository creates a MessageRepository over a document store
func NewMessageRepository(store docstore.Store) MessageRepository {
	return &documentMessageRepository{store: store}
}

func (r *documentMessageRepository) CreateMessage(ctx context.Context, message *models.Message) error {
	doc, err := docstore.Encode(message, message.ID)
	if err != nil {
		return err
	}
	return r.store.Insert(ctx, MessagesCollection, doc)
}

func (r *documentMessageRepository) GetMessages(ctx context.Context) ([]models.Message, error) {
	docs, err := r.store.GetAll(ctx, MessagesCollection)
	if err != nil {
		return nil, err
	}
	return decodeAll[models.Message](docs)
}

func (r *documentMessageRepository) GetThread(ctx context.Context, threadID string) ([]models.Message, error) {
	all, err := r.GetMessages(ctx)
	if err != nil {
		return nil, err
	}
	thread := []models.Message{}
	for _, m := range all {
		if m.ThreadID == threadID {
			thread = append(thread, m)
		}
	}
	return thread, nil
}

func (r *documentMessageRepository) MarkAsRead(ctx context.Context, id string) error {
	return r.store.Update(ctx, MessagesCollection, docstore.IDField, id, docstore.Document{"read": true})
}
