package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/anonto42/vidspace/backend/internal/blobstore"
	"github.com/anonto42/vidspace/backend/internal/docstore"
	"github.com/anonto42/vidspace/backend/internal/models"
	"github.com/anonto42/vidspace/backend/internal/session"
)

// Session is an issued session token bound to one handle.
type Session struct {
	Token     string    `json:"token"`
	Handle    string    `json:"handle"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Register creates an account. The secret is stored only as a bcrypt hash.
func (s *Service) Register(ctx context.Context, handle, secret string) (acc *models.Account, err error) {
	defer func() { observe("register", err) }()

	if err := validate(&models.RegisterRequest{Handle: handle, Password: secret}); err != nil {
		return nil, err
	}

	_, err = s.accounts.GetAccount(ctx, handle)
	switch {
	case err == nil:
		return nil, ErrDuplicateHandle
	case !errors.Is(err, docstore.ErrNotFound):
		return nil, storageErr("register", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, invalid("password longer than 72 bytes")
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	acc = &models.Account{
		Handle:        handle,
		PasswordHash:  string(hash),
		Followers:     []string{},
		Following:     []string{},
		Notifications: []models.Notification{},
		CreatedAt:     s.now().UTC(),
	}
	if err := s.accounts.CreateAccount(ctx, acc); err != nil {
		if errors.Is(err, docstore.ErrDuplicate) {
			return nil, ErrDuplicateHandle
		}
		return nil, storageErr("register", err)
	}
	if err := s.interactions.EnsureInteraction(ctx, handle); err != nil {
		// The ledger is created on first use as well.
		s.log.Warn().Err(err).Str("handle", handle).Msg("create interaction ledger")
	}

	s.log.Info().Str("handle", handle).Msg("account registered")
	return acc, nil
}

// Authenticate verifies a handle and secret and issues a session. Unknown
// handles and wrong secrets fail with the same error.
func (s *Service) Authenticate(ctx context.Context, handle, secret string) (sess *Session, err error) {
	defer func() { observe("authenticate", err) }()

	acc, err := s.accounts.GetAccount(ctx, handle)
	if err != nil {
		if !errors.Is(err, docstore.ErrNotFound) {
			return nil, storageErr("authenticate", err)
		}
		// Spend the same time as a real comparison.
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(secret))
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(secret)) != nil {
		return nil, ErrInvalidCredentials
	}

	sess = &Session{Token: uuid.NewString(), Handle: acc.Handle}
	if s.sessionTTL > 0 {
		sess.ExpiresAt = s.now().Add(s.sessionTTL).UTC()
	}
	if err := s.sessions.Put(ctx, sess.Token, sess.Handle, s.sessionTTL); err != nil {
		return nil, fmt.Errorf("store session: %w: %w", ErrStorageUnavailable, err)
	}
	return sess, nil
}

// ResolveSession returns the handle a token is bound to.
func (s *Service) ResolveSession(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidCredentials
	}
	handle, err := s.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("resolve session: %w: %w", ErrStorageUnavailable, err)
	}
	return handle, nil
}

// Logout revokes a session token.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Delete(ctx, token); err != nil {
		return fmt.Errorf("revoke session: %w: %w", ErrStorageUnavailable, err)
	}
	return nil
}

// Profile returns the public view of an account.
func (s *Service) Profile(ctx context.Context, handle string) (models.Profile, error) {
	acc, err := s.accounts.GetAccount(ctx, handle)
	if err != nil {
		return models.Profile{}, storageErr("profile", err)
	}
	return acc.ToProfile(), nil
}

// UpdateBio replaces an account's bio.
func (s *Service) UpdateBio(ctx context.Context, handle, bio string) (err error) {
	defer func() { observe("update_bio", err) }()

	if err := validate(&models.UpdateBioRequest{Bio: bio}); err != nil {
		return err
	}
	return storageErr("update bio", s.accounts.UpdateAccount(ctx, handle, docstore.Document{"bio": bio}))
}

// UploadProfilePic stores image bytes through the blob store and points the
// account's profile picture at them. The previous picture is not removed.
func (s *Service) UploadProfilePic(ctx context.Context, handle string, data []byte) (profile models.Profile, err error) {
	defer func() { observe("upload_profile_pic", err) }()

	if _, err := s.accounts.GetAccount(ctx, handle); err != nil {
		return models.Profile{}, storageErr("upload profile picture", err)
	}
	ref, err := s.blobs.Store(ctx, data, "avatar-"+handle+"-"+primitive.NewObjectID().Hex())
	if err != nil {
		if errors.Is(err, blobstore.ErrEmpty) {
			return models.Profile{}, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		return models.Profile{}, fmt.Errorf("store profile picture: %w: %w", ErrStorageUnavailable, err)
	}
	if err := s.accounts.UpdateAccount(ctx, handle, docstore.Document{"profile_pic": ref}); err != nil {
		return models.Profile{}, storageErr("upload profile picture", err)
	}
	return s.Profile(ctx, handle)
}

// Accounts lists every registered handle in lexical order.
func (s *Service) Accounts(ctx context.Context) ([]string, error) {
	accounts, err := s.accounts.GetAccounts(ctx)
	if err != nil {
		return nil, storageErr("list accounts", err)
	}
	handles := make([]string, 0, len(accounts))
	for _, a := range accounts {
		handles = append(handles, a.Handle)
	}
	sort.Strings(handles)
	return handles, nil
}

func (s *Service) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.bcryptCost)
	})
	return s.dummyHash
}
