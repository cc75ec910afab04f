package repositories

import (
	"context"
	"errors"

	"github.com/anonto42/vidspace/backend/internal/docstore"
	"github.com/anonto42/vidspace/backend/internal/models"
)

// InteractionRepository defines the interface for like/save ledger operations
type InteractionRepository interface {
	// EnsureInteraction creates an empty ledger for handle if none exists.
	EnsureInteraction(ctx context.Context, handle string) error
	// GetInteraction returns the ledger, or an empty one if none exists.
	GetInteraction(ctx context.Context, handle string) (*models.Interaction, error)
	GetInteractions(ctx context.Context) ([]models.Interaction, error)
	// ToggleLike flips the like of handle on videoID and moves the video's
	// counter with it as one unit. It returns the new state and the video
	// as written. Both the account and the video must exist.
	ToggleLike(ctx context.Context, handle, videoID string) (bool, *models.Video, error)
	// ToggleSave flips videoID in the saved set of handle. Both the account
	// and the video must exist.
	ToggleSave(ctx context.Context, handle, videoID string) (bool, error)
}

type documentInteractionRepository struct {
	store docstore.Store
}

// NewInteractionRepository creates an InteractionRepository over a document store
func NewInteractionRepository(store docstore.Store) InteractionRepository {
	return &documentInteractionRepository{store: store}
}

func (r *documentInteractionRepository) EnsureInteraction(ctx context.Context, handle string) error {
	_, err := r.store.GetOne(ctx, InteractionsCollection, docstore.IDField, handle)
	if err == nil {
		return nil
	}
	if !errors.Is(err, docstore.ErrNotFound) {
		return err
	}
	doc, err := docstore.Encode(&models.Interaction{Handle: handle, Likes: []string{}, Saved: []string{}}, handle)
	if err != nil {
		return err
	}
	if err := r.store.Insert(ctx, InteractionsCollection, doc); err != nil && !errors.Is(err, docstore.ErrDuplicate) {
		return err
	}
	return nil
}

func (r *documentInteractionRepository) GetInteraction(ctx context.Context, handle string) (*models.Interaction, error) {
	doc, err := r.store.GetOne(ctx, InteractionsCollection, docstore.IDField, handle)
	if errors.Is(err, docstore.ErrNotFound) {
		return &models.Interaction{Handle: handle}, nil
	}
	if err != nil {
		return nil, err
	}
	var interaction models.Interaction
	if err := docstore.Decode(doc, &interaction); err != nil {
		return nil, err
	}
	return &interaction, nil
}

func (r *documentInteractionRepository) GetInteractions(ctx context.Context) ([]models.Interaction, error) {
	docs, err := r.store.GetAll(ctx, InteractionsCollection)
	if err != nil {
		return nil, err
	}
	return decodeAll[models.Interaction](docs)
}

func (r *documentInteractionRepository) ToggleLike(ctx context.Context, handle, videoID string) (bool, *models.Video, error) {
	if err := r.ensureMember(ctx, handle); err != nil {
		return false, nil, err
	}

	var (
		liked bool
		video models.Video
	)
	err := r.store.MutatePair(ctx,
		ref(InteractionsCollection, handle),
		ref(VideosCollection, videoID),
		typed(func(i *models.Interaction) (bool, error) {
			i.Likes, liked = models.Toggle(i.Likes, videoID)
			return true, nil
		}),
		typed(func(v *models.Video) (bool, error) {
			if liked {
				v.Likes++
			} else if v.Likes > 0 {
				v.Likes--
			}
			video = *v
			return true, nil
		}),
	)
	if err != nil {
		return false, nil, err
	}
	return liked, &video, nil
}

func (r *documentInteractionRepository) ToggleSave(ctx context.Context, handle, videoID string) (bool, error) {
	if err := r.ensureMember(ctx, handle); err != nil {
		return false, err
	}
	if _, err := r.store.GetOne(ctx, VideosCollection, docstore.IDField, videoID); err != nil {
		return false, err
	}

	var saved bool
	err := r.store.Mutate(ctx, ref(InteractionsCollection, handle), typed(func(i *models.Interaction) (bool, error) {
		i.Saved, saved = models.Toggle(i.Saved, videoID)
		return true, nil
	}))
	return saved, err
}

// ensureMember checks that handle is a registered account and gives it a
// ledger. Ledgers only ever exist for accounts.
func (r *documentInteractionRepository) ensureMember(ctx context.Context, handle string) error {
	if _, err := r.store.GetOne(ctx, AccountsCollection, docstore.IDField, handle); err != nil {
		return err
	}
	return r.EnsureInteraction(ctx, handle)
}
