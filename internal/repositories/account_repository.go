package repositories

import (
	"context"

	"github.com/anonto42/vidspace/backend/internal/docstore"
	"github.com/anonto42/vidspace/backend/internal/models"
)

// AccountRepository defines the interface for account data operations
type AccountRepository interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccount(ctx context.Context, handle string) (*models.Account, error)
	GetAccounts(ctx context.Context) ([]models.Account, error)
	UpdateAccount(ctx context.Context, handle string, patch docstore.Document) error
	MutateAccount(ctx context.Context, handle string, fn func(*models.Account) (bool, error)) error
	// FollowEdge sets or clears the follow edge follower -> followee on both
	// accounts as one unit and reports whether the following side changed.
	FollowEdge(ctx context.Context, follower, followee string, follow bool) (bool, error)
}

type documentAccountRepository struct {
	store docstore.Store
}

// NewAccountRepository creates an AccountRepository over a document store
func NewAccountRepository(store docstore.Store) AccountRepository {
	return &documentAccountRepository{store: store}
}

func (r *documentAccountRepository) CreateAccount(ctx context.Context, account *models.Account) error {
	doc, err := docstore.Encode(account, account.Handle)
	if err != nil {
		return err
	}
	return r.store.Insert(ctx, AccountsCollection, doc)
}

func (r *documentAccountRepository) GetAccount(ctx context.Context, handle string) (*models.Account, error) {
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

func (r *documentAccountRepository) GetAccounts(ctx context.Context) ([]models.Account, error) {
	docs, err := r.store.GetAll(ctx, AccountsCollection)
	if err != nil {
		return nil, err
	}
	return decodeAll[models.Account](docs)
}

func (r *documentAccountRepository) UpdateAccount(ctx context.Context, handle string, patch docstore.Document) error {
	return r.store.Update(ctx, AccountsCollection, docstore.IDField, handle, patch)
}

func (r *documentAccountRepository) MutateAccount(ctx context.Context, handle string, fn func(*models.Account) (bool, error)) error {
	return r.store.Mutate(ctx, ref(AccountsCollection, handle), typed(fn))
}

func (r *documentAccountRepository) FollowEdge(ctx context.Context, follower, followee string, follow bool) (bool, error) {
	var changed bool
	err := r.store.MutatePair(ctx,
		ref(AccountsCollection, follower),
		ref(AccountsCollection, followee),
		typed(func(a *models.Account) (bool, error) {
			changed = setMembership(&a.Following, followee, follow)
			return changed, nil
		}),
		// The followers side is applied even when the following side was
		// already in place, which heals a pair left half-written earlier.
		typed(func(b *models.Account) (bool, error) {
			return setMembership(&b.Followers, follower, follow), nil
		}),
	)
	return changed, err
}
