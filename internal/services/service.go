// Package services holds the business-logic core: identity, follow graph,
// content, interactions, feed composition, notifications and messaging. A
// Service is built once around its storage collaborators and is safe for
// concurrent use by any number of request handlers.
package services

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/anonto42/vidspace/backend/internal/blobstore"
	"github.com/anonto42/vidspace/backend/internal/docstore"
	"github.com/anonto42/vidspace/backend/internal/repositories"
	"github.com/anonto42/vidspace/backend/internal/session"
	"github.com/anonto42/vidspace/backend/pkg/logging"
)

const (
	// DefaultFeedLimit caps the bounded feed.
	DefaultFeedLimit = 100
	// DefaultFanOut is the number of concurrent notification writes per publish.
	DefaultFanOut = 8
)

// Service is the application core.
type Service struct {
	accounts      repositories.AccountRepository
	videos        repositories.VideoRepository
	interactions  repositories.InteractionRepository
	messages      repositories.MessageRepository
	notifications repositories.NotificationRepository
	blobs         blobstore.Store
	sessions      session.Store
	atomicPairs   bool

	now        func() time.Time
	bcryptCost int
	sessionTTL time.Duration
	feedLimit  int
	fanOut     int
	log        zerolog.Logger

	dummyOnce sync.Once
	dummyHash []byte
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithBcryptCost sets the credential hashing cost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.bcryptCost = cost }
}

// WithSessionTTL sets the lifetime of issued sessions. Zero means no expiry.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) { s.sessionTTL = ttl }
}

// WithFeedLimit sets the default cap of the bounded feed.
func WithFeedLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.feedLimit = n
		}
	}
}

// WithFanOut sets how many notifications a publish writes concurrently.
func WithFanOut(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.fanOut = n
		}
	}
}

// WithLogger replaces the process logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// New wires a Service around its collaborators.
func New(store docstore.Store, blobs blobstore.Store, sessions session.Store, opts ...Option) *Service {
	s := &Service{
		accounts:      repositories.NewAccountRepository(store),
		videos:        repositories.NewVideoRepository(store),
		interactions:  repositories.NewInteractionRepository(store),
		messages:      repositories.NewMessageRepository(store),
		notifications: repositories.NewNotificationRepository(store),
		blobs:         blobs,
		sessions:      sessions,
		atomicPairs:   docstore.AtomicPairs(store),
		now:           time.Now,
		bcryptCost:    bcrypt.DefaultCost,
		feedLimit:     DefaultFeedLimit,
		fanOut:        DefaultFanOut,
		log:           logging.Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With().Str("component", "services").Logger()
	return s
}

// NeedsReconcile reports whether the document store can leave a follow edge
// or like counter half written, which is when periodic Reconcile passes pay off.
func (s *Service) NeedsReconcile() bool {
	return !s.atomicPairs
}

// Blobs exposes the media collaborator so the HTTP layer can resolve references.
func (s *Service) Blobs() blobstore.Store {
	return s.blobs
}
