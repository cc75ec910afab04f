package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/anonto42/vidspace/backend/internal/blobstore"
	"github.com/anonto42/vidspace/backend/internal/docstore"
	"github.com/anonto42/vidspace/backend/internal/models"
	"github.com/anonto42/vidspace/backend/internal/repositories"
	"github.com/anonto42/vidspace/backend/internal/session"
)

// tickingClock advances by step on every reading.
type tickingClock struct {
	mu   sync.Mutex
	t    time.Time
	step time.Duration
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(c.step)
	return c.t
}

type fixture struct {
	svc   *Service
	store *docstore.MemoryStore
	ctx   context.Context
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	store := docstore.NewMemoryStore()
	clock := &tickingClock{t: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC), step: time.Second}
	base := []Option{
		WithClock(clock.Now),
		WithBcryptCost(bcrypt.MinCost),
		WithLogger(zerolog.Nop()),
	}
	svc := New(store, blobstore.NewInlineStore(), session.NewMemoryStore(), append(base, opts...)...)
	return &fixture{svc: svc, store: store, ctx: context.Background()}
}

func (f *fixture) register(t *testing.T, handles ...string) {
	t.Helper()
	for _, h := range handles {
		_, err := f.svc.Register(f.ctx, h, "secret123")
		require.NoError(t, err)
	}
}

func (f *fixture) publish(t *testing.T, owner, caption string) string {
	t.Helper()
	id, err := f.svc.Publish(f.ctx, owner, "https://cdn.example.com/"+caption, caption, "#go")
	require.NoError(t, err)
	return id
}

func ids(videos []models.Video) []string {
	out := make([]string, len(videos))
	for i, v := range videos {
		out[i] = v.ID
	}
	return out
}

func TestScenario_FollowPublishLikeMessage(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "bob")

	_, err := f.svc.Follow(f.ctx, "bob", "alice")
	require.NoError(t, err)

	c1 := f.publish(t, "alice", "c1")

	bobLog, err := f.svc.Notifications(f.ctx, "bob")
	require.NoError(t, err)
	var refs int
	for _, n := range bobLog {
		if n.LinkType == models.LinkVideo && n.LinkID == c1 {
			refs++
		}
	}
	assert.Equal(t, 1, refs)

	aliceBefore, _ := f.svc.Notifications(f.ctx, "alice")

	res, err := f.svc.ToggleLike(f.ctx, "bob", c1)
	require.NoError(t, err)
	assert.True(t, res.Liked)
	assert.Equal(t, 1, res.Likes)

	aliceAfterLike, _ := f.svc.Notifications(f.ctx, "alice")
	assert.Len(t, aliceAfterLike, len(aliceBefore)+1)
	assert.Equal(t, "@bob liked your video!", aliceAfterLike[0].Text)

	res, err = f.svc.ToggleLike(f.ctx, "bob", c1)
	require.NoError(t, err)
	assert.False(t, res.Liked)
	assert.Equal(t, 0, res.Likes)

	aliceAfterUnlike, _ := f.svc.Notifications(f.ctx, "alice")
	assert.Len(t, aliceAfterUnlike, len(aliceAfterLike))

	_, err = f.svc.Send(f.ctx, "alice", "bob", "hi", "")
	require.NoError(t, err)

	history, err := f.svc.History(f.ctx, "alice", "bob")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "hi", history[0].Text)

	unread, err := f.svc.UnreadMessages(f.ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 1, unread)
}

func TestRegister(t *testing.T) {
	f := newFixture(t)

	acc, err := f.svc.Register(f.ctx, "alice", "secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", acc.PasswordHash)
	assert.Empty(t, acc.Followers)

	_, err = f.svc.Register(f.ctx, "alice", "another1")
	assert.ErrorIs(t, err, ErrDuplicateHandle)

	// Handles are case-sensitive.
	_, err = f.svc.Register(f.ctx, "Alice", "secret123")
	assert.NoError(t, err)

	tests := []struct {
		name, handle, secret string
	}{
		{"short secret", "carol", "abc"},
		{"bad handle", "no spaces", "secret123"},
		{"short handle", "ab", "secret123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Register(f.ctx, tt.handle, tt.secret)
			assert.ErrorIs(t, err, ErrValidation)
			assert.NotEmpty(t, FieldErrors(err))
		})
	}
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice")

	sess, err := f.svc.Authenticate(f.ctx, "alice", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)

	handle, err := f.svc.ResolveSession(f.ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", handle)

	_, errWrong := f.svc.Authenticate(f.ctx, "alice", "wrong-secret")
	_, errUnknown := f.svc.Authenticate(f.ctx, "nobody", "secret123")
	assert.ErrorIs(t, errWrong, ErrInvalidCredentials)
	assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	assert.Equal(t, errWrong.Error(), errUnknown.Error())

	require.NoError(t, f.svc.Logout(f.ctx, sess.Token))
	_, err = f.svc.ResolveSession(f.ctx, sess.Token)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticate_SessionTTL(t *testing.T) {
	f := newFixture(t, WithSessionTTL(time.Hour))
	f.register(t, "alice")

	sess, err := f.svc.Authenticate(f.ctx, "alice", "secret123")
	require.NoError(t, err)
	assert.False(t, sess.ExpiresAt.IsZero())
}

func TestProfileAndBio(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "bob")

	require.NoError(t, f.svc.UpdateBio(f.ctx, "alice", "hello there"))
	_, err := f.svc.Follow(f.ctx, "bob", "alice")
	require.NoError(t, err)

	p, err := f.svc.Profile(f.ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "hello there", p.Bio)
	assert.Equal(t, 1, p.FollowersCount)

	_, err = f.svc.Profile(f.ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)

	err = f.svc.UpdateBio(f.ctx, "alice", string(make([]byte, 201)))
	assert.ErrorIs(t, err, ErrValidation)

	handles, err := f.svc.Accounts(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, handles)
}

func TestUploadProfilePic(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice")

	p, err := f.svc.UploadProfilePic(f.ctx, "alice", []byte("png bytes"))
	require.NoError(t, err)
	require.NotEmpty(t, p.ProfilePic)

	resolved, err := f.svc.Blobs().Resolve(f.ctx, p.ProfilePic)
	require.NoError(t, err)
	assert.Equal(t, []byte("png bytes"), resolved.Data)

	_, err = f.svc.UploadProfilePic(f.ctx, "alice", nil)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.svc.UploadProfilePic(f.ctx, "ghost", []byte("png bytes"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFollow_Symmetry(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "bob")

	st, err := f.svc.Follow(f.ctx, "alice", "bob")
	require.NoError(t, err)
	assert.True(t, st.Following)

	following, _ := f.svc.Following(f.ctx, "alice")
	followers, _ := f.svc.Followers(f.ctx, "bob")
	assert.Contains(t, following, "bob")
	assert.Contains(t, followers, "alice")

	ok, err := f.svc.IsFollowing(f.ctx, "alice", "bob")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = f.svc.Unfollow(f.ctx, "alice", "bob")
	require.NoError(t, err)

	following, _ = f.svc.Following(f.ctx, "alice")
	followers, _ = f.svc.Followers(f.ctx, "bob")
	assert.NotContains(t, following, "bob")
	assert.NotContains(t, followers, "alice")
}

func TestFollow_NoOps(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "bob")

	st, err := f.svc.Follow(f.ctx, "alice", "alice")
	require.NoError(t, err)
	assert.False(t, st.Following)
	following, _ := f.svc.Following(f.ctx, "alice")
	assert.Empty(t, following)

	_, err = f.svc.Follow(f.ctx, "alice", "ghost")
	require.NoError(t, err)
	following, _ = f.svc.Following(f.ctx, "alice")
	assert.Empty(t, following)

	_, err = f.svc.Follow(f.ctx, "alice", "bob")
	require.NoError(t, err)
	_, err = f.svc.Follow(f.ctx, "alice", "bob")
	require.NoError(t, err)

	log, _ := f.svc.Notifications(f.ctx, "bob")
	assert.Len(t, log, 1, "repeat follow does not notify again")
	assert.Equal(t, "@alice started following you!", log[0].Text)
	assert.Equal(t, models.LinkProfile, log[0].LinkType)

	_, err = f.svc.Unfollow(f.ctx, "bob", "alice")
	assert.NoError(t, err)
}

func TestFollow_Concurrent(t *testing.T) {
	f := newFixture(t)
	f.register(t, "star")
	const n = 20
	for i := 0; i < n; i++ {
		f.register(t, fmt.Sprintf("fan%02d", i))
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.Follow(f.ctx, fmt.Sprintf("fan%02d", i), "star")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	followers, err := f.svc.Followers(f.ctx, "star")
	require.NoError(t, err)
	assert.Len(t, followers, n)
}

func TestPublish_FanOutSnapshot(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "bob", "carol")
	_, err := f.svc.Follow(f.ctx, "bob", "alice")
	require.NoError(t, err)

	id := f.publish(t, "alice", "first")

	_, err = f.svc.Follow(f.ctx, "carol", "alice")
	require.NoError(t, err)

	bobLog, _ := f.svc.Notifications(f.ctx, "bob")
	require.Len(t, bobLog, 1)
	assert.Equal(t, "@alice posted a new video!", bobLog[0].Text)
	assert.Equal(t, id, bobLog[0].LinkID)

	carolLog, _ := f.svc.Notifications(f.ctx, "carol")
	assert.Empty(t, carolLog)

	v, err := f.svc.Video(f.ctx, id)
	require.NoError(t, err)
	assert.Zero(t, v.Likes)
	assert.Zero(t, v.Views)
	assert.Empty(t, v.Comments)
}

func TestPublish_Validation(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice")

	_, err := f.svc.Publish(f.ctx, "alice", "ref", "", "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.Publish(f.ctx, "ghost", "ref", "caption", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpload(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice")

	id, err := f.svc.Upload(f.ctx, "alice", []byte("fake-mp4-bytes"), "clip", "#fun")
	require.NoError(t, err)

	v, err := f.svc.Video(f.ctx, id)
	require.NoError(t, err)
	resolved, err := f.svc.Blobs().Resolve(f.ctx, v.MediaRef)
	require.NoError(t, err)
	assert.Equal(t, []byte("fake-mp4-bytes"), resolved.Data)

	_, err = f.svc.Upload(f.ctx, "alice", nil, "clip", "")
	assert.ErrorIs(t, err, ErrValidation)

	mine, _ := f.svc.VideosBy(f.ctx, "alice")
	assert.Len(t, mine, 1)
}

func TestRecordView(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice")
	id := f.publish(t, "alice", "v")

	f.svc.RecordView(f.ctx, id)
	f.svc.RecordView(f.ctx, id)
	f.svc.RecordView(f.ctx, "does-not-exist")

	v, err := f.svc.Video(f.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, v.Views)
}

func TestAddComment(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "bob")
	id := f.publish(t, "alice", "v")

	c, err := f.svc.AddComment(f.ctx, id, "bob", "nice")
	require.NoError(t, err)
	assert.Equal(t, "bob", c.Author)

	_, err = f.svc.AddComment(f.ctx, id, "alice", "thanks")
	require.NoError(t, err)

	log, _ := f.svc.Notifications(f.ctx, "alice")
	require.Len(t, log, 1)
	assert.Equal(t, "@bob commented on your video!", log[0].Text)

	v, _ := f.svc.Video(f.ctx, id)
	require.Len(t, v.Comments, 2)
	assert.Equal(t, "nice", v.Comments[0].Text)
	assert.Equal(t, "thanks", v.Comments[1].Text)

	_, err = f.svc.AddComment(f.ctx, "missing", "bob", "hello")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.AddComment(f.ctx, id, "bob", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "bob")
	id := f.publish(t, "alice", "v")

	assert.ErrorIs(t, f.svc.Delete(f.ctx, id, "bob"), ErrForbidden)
	require.NoError(t, f.svc.Delete(f.ctx, id, "alice"))

	_, err := f.svc.Video(f.ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(f.ctx, id, "alice"), ErrNotFound)
}

func TestVideosBy_NewestFirst(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice")
	first := f.publish(t, "alice", "one")
	second := f.publish(t, "alice", "two")

	videos, err := f.svc.VideosBy(f.ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{second, first}, ids(videos))
}

func TestToggleLike(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "bob")
	id := f.publish(t, "alice", "v")

	// Owners may like their own video without being notified.
	res, err := f.svc.ToggleLike(f.ctx, "alice", id)
	require.NoError(t, err)
	assert.True(t, res.Liked)
	log, _ := f.svc.Notifications(f.ctx, "alice")
	assert.Empty(t, log)

	res, err = f.svc.ToggleLike(f.ctx, "bob", id)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Likes)

	ledger, err := f.svc.Interactions(f.ctx, "bob")
	require.NoError(t, err)
	assert.True(t, ledger.HasLiked(id))

	_, err = f.svc.ToggleLike(f.ctx, "bob", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestToggle_UnregisteredHandle(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice")
	id := f.publish(t, "alice", "v")

	_, err := f.svc.ToggleLike(f.ctx, "ghost", id)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.ToggleSave(f.ctx, "ghost", id)
	assert.ErrorIs(t, err, ErrNotFound)

	v, err := f.svc.Video(f.ctx, id)
	require.NoError(t, err)
	assert.Zero(t, v.Likes)
	ledgers, err := f.store.GetAll(f.ctx, repositories.InteractionsCollection)
	require.NoError(t, err)
	for _, l := range ledgers {
		assert.NotEqual(t, "ghost", l.ID())
	}
}

func TestToggleLike_ConcurrentAccounts(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice")
	id := f.publish(t, "alice", "v")

	const n = 30
	for i := 0; i < n; i++ {
		f.register(t, fmt.Sprintf("user%02d", i))
	}
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h := fmt.Sprintf("user%02d", i)
			// Odd users toggle twice and end where they started.
			toggles := 1 + i%2
			for j := 0; j < toggles; j++ {
				_, err := f.svc.ToggleLike(f.ctx, h, id)
				assert.NoError(t, err)
			}
		}(i)
	}
	wg.Wait()

	v, err := f.svc.Video(f.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, n/2, v.Likes)
}

func TestToggleSaveAndSaved(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "bob")
	keep := f.publish(t, "alice", "keep")
	gone := f.publish(t, "alice", "gone")

	for _, id := range []string{keep, gone} {
		saved, err := f.svc.ToggleSave(f.ctx, "bob", id)
		require.NoError(t, err)
		assert.True(t, saved)
	}
	require.NoError(t, f.svc.Delete(f.ctx, gone, "alice"))

	videos, err := f.svc.Saved(f.ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{keep}, ids(videos))

	_, err = f.svc.ToggleSave(f.ctx, "bob", gone)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestComposeFeed(t *testing.T) {
	f := newFixture(t)
	f.register(t, "viewer", "friend", "stranger", "a1", "a2", "a3")
	_, err := f.svc.Follow(f.ctx, "viewer", "friend")
	require.NoError(t, err)

	friendOld := f.publish(t, "friend", "f1")
	hot := f.publish(t, "stranger", "hot")
	friendNew := f.publish(t, "friend", "f2")
	cold := f.publish(t, "stranger", "cold")

	// Make hot the most liked and friendNew trending too.
	for _, h := range []string{"a1", "a2", "a3"} {
		_, err := f.svc.ToggleLike(f.ctx, h, hot)
		require.NoError(t, err)
	}
	_, err = f.svc.ToggleLike(f.ctx, "a1", friendNew)
	require.NoError(t, err)

	feed, err := f.svc.ComposeFeed(f.ctx, "viewer")
	require.NoError(t, err)
	assert.Equal(t, []string{friendOld, friendNew, hot, cold}, ids(feed))

	anon, err := f.svc.ComposeFeed(f.ctx, "nobody")
	require.NoError(t, err)
	assert.Equal(t, []string{hot, friendNew, cold, friendOld}, ids(anon))

	limited, err := f.svc.ComposeFeedLimit(f.ctx, "viewer", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{friendOld, friendNew, hot}, ids(limited))
}

func TestComposeFeed_DefaultLimit(t *testing.T) {
	f := newFixture(t, WithFeedLimit(2))
	f.register(t, "alice")
	for i := 0; i < 4; i++ {
		f.publish(t, "alice", fmt.Sprintf("v%d", i))
	}

	feed, err := f.svc.ComposeFeedLimit(f.ctx, "alice", 0)
	require.NoError(t, err)
	assert.Len(t, feed, 2)

	all, err := f.svc.ComposeFeed(f.ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestRankFeed_NoDuplicatesAndTierOrder(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	videos := []models.Video{
		{ID: "a", Owner: "x", Likes: 5, CreatedAt: base},
		{ID: "b", Owner: "y", Likes: 9, CreatedAt: base},
		{ID: "c", Owner: "x", Likes: 0, CreatedAt: base.Add(time.Hour)},
		{ID: "d", Owner: "z", Likes: 9, CreatedAt: base.Add(time.Hour)},
	}
	feed := rankFeed([]string{"x"}, videos)
	assert.Equal(t, []string{"a", "c", "d", "b"}, ids(feed))

	seen := map[string]bool{}
	for _, v := range feed {
		assert.False(t, seen[v.ID])
		seen[v.ID] = true
	}
}

func TestNotifications_BoundedLog(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice")

	for i := 0; i < models.MaxNotifications+10; i++ {
		require.NoError(t, f.svc.Notify(f.ctx, "alice", fmt.Sprintf("n%d", i), "", ""))
	}

	log, err := f.svc.Notifications(f.ctx, "alice")
	require.NoError(t, err)
	require.Len(t, log, models.MaxNotifications)
	assert.Equal(t, fmt.Sprintf("n%d", models.MaxNotifications+9), log[0].Text)
	assert.Equal(t, "n10", log[len(log)-1].Text)

	unread, _ := f.svc.UnreadNotifications(f.ctx, "alice")
	assert.Equal(t, models.MaxNotifications, unread)

	require.NoError(t, f.svc.MarkAllRead(f.ctx, "alice"))
	require.NoError(t, f.svc.MarkAllRead(f.ctx, "alice"))
	unread, _ = f.svc.UnreadNotifications(f.ctx, "alice")
	assert.Zero(t, unread)

	assert.ErrorIs(t, f.svc.Notify(f.ctx, "ghost", "x", "", ""), ErrNotFound)
}

func TestMessaging(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "bob", "carol")
	vid := f.publish(t, "carol", "share-me")

	_, err := f.svc.Send(f.ctx, "alice", "bob", "hi", "")
	require.NoError(t, err)
	_, err = f.svc.Send(f.ctx, "bob", "alice", "hey", "")
	require.NoError(t, err)
	_, err = f.svc.Send(f.ctx, "alice", "bob", "", vid)
	require.NoError(t, err)
	_, err = f.svc.Send(f.ctx, "carol", "alice", "yo", "")
	require.NoError(t, err)

	ab, err := f.svc.History(f.ctx, "alice", "bob")
	require.NoError(t, err)
	ba, err := f.svc.History(f.ctx, "bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, ab, ba)
	require.Len(t, ab, 3)
	for i := 1; i < len(ab); i++ {
		assert.False(t, ab[i].Timestamp.Before(ab[i-1].Timestamp))
	}
	assert.Equal(t, vid, ab[2].VideoID)

	threads, err := f.svc.Threads(f.ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "carol"}, threads)

	unread, _ := f.svc.UnreadMessages(f.ctx, "bob")
	assert.Equal(t, 2, unread)

	n, err := f.svc.MarkThreadRead(f.ctx, "bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	unread, _ = f.svc.UnreadMessages(f.ctx, "bob")
	assert.Zero(t, unread)
	unread, _ = f.svc.UnreadMessages(f.ctx, "alice")
	assert.Equal(t, 2, unread)

	log, _ := f.svc.Notifications(f.ctx, "bob")
	require.NotEmpty(t, log)
	assert.Equal(t, "@alice sent you a message", log[0].Text)
	assert.Equal(t, models.LinkChat, log[0].LinkType)
	assert.Equal(t, "alice", log[0].LinkID)
}

func TestMessaging_Errors(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "bob")

	_, err := f.svc.Send(f.ctx, "alice", "alice", "me", "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.Send(f.ctx, "alice", "ghost", "hi", "")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.Send(f.ctx, "alice", "bob", "", "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.Send(f.ctx, "alice", "bob", "look", "missing-video")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHistory_EqualTimestampsKeepInsertionOrder(t *testing.T) {
	frozen := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	f := newFixture(t, WithClock(func() time.Time { return frozen }))
	f.register(t, "alice", "bob")

	for _, text := range []string{"one", "two", "three"} {
		_, err := f.svc.Send(f.ctx, "alice", "bob", text, "")
		require.NoError(t, err)
	}
	history, err := f.svc.History(f.ctx, "bob", "alice")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, []string{"one", "two", "three"}, []string{history[0].Text, history[1].Text, history[2].Text})
}

func TestReconcile(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "bob", "carol")
	id := f.publish(t, "alice", "v")
	_, err := f.svc.Follow(f.ctx, "carol", "alice")
	require.NoError(t, err)
	_, err = f.svc.ToggleLike(f.ctx, "bob", id)
	require.NoError(t, err)

	// bob's following side landed without alice's followers side, and alice
	// carries a follower whose following set does not name her.
	accounts := repositories.NewAccountRepository(f.store)
	require.NoError(t, accounts.UpdateAccount(f.ctx, "bob", docstore.Document{"following": []any{"alice"}}))
	require.NoError(t, accounts.UpdateAccount(f.ctx, "alice", docstore.Document{"followers": []any{"carol", "mallory"}}))
	// The counter drifted away from the ledgers.
	require.NoError(t, f.store.Update(f.ctx, repositories.VideosCollection, docstore.IDField, id, docstore.Document{"likes": 7}))

	report, err := f.svc.Reconcile(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.FollowerSets)
	assert.Equal(t, 1, report.LikeCounters)

	followers, _ := f.svc.Followers(f.ctx, "alice")
	assert.ElementsMatch(t, []string{"bob", "carol"}, followers)
	v, _ := f.svc.Video(f.ctx, id)
	assert.Equal(t, 1, v.Likes)

	report, err = f.svc.Reconcile(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, report.FollowerSets)
	assert.Zero(t, report.LikeCounters)
}

// interleavedStore runs hook once, right after the first GetAll of collection
// returns, to land a write inside a reconcile pass.
type interleavedStore struct {
	*docstore.MemoryStore
	collection string
	hook       func()
}

func (s *interleavedStore) GetAll(ctx context.Context, collection string) ([]docstore.Document, error) {
	docs, err := s.MemoryStore.GetAll(ctx, collection)
	if collection == s.collection && s.hook != nil {
		hook := s.hook
		s.hook = nil
		hook()
	}
	return docs, err
}

func newInterleavedFixture(t *testing.T) (*fixture, *interleavedStore) {
	t.Helper()
	store := &interleavedStore{MemoryStore: docstore.NewMemoryStore()}
	svc := New(store, blobstore.NewInlineStore(), session.NewMemoryStore(),
		WithBcryptCost(bcrypt.MinCost), WithLogger(zerolog.Nop()))
	return &fixture{svc: svc, store: store.MemoryStore, ctx: context.Background()}, store
}

func TestReconcile_KeepsLikeCommittedDuringPass(t *testing.T) {
	for _, collection := range []string{repositories.VideosCollection, repositories.InteractionsCollection} {
		t.Run("after reading "+collection, func(t *testing.T) {
			f, store := newInterleavedFixture(t)
			f.register(t, "alice", "bob")
			id := f.publish(t, "alice", "v")

			store.collection = collection
			store.hook = func() {
				_, err := f.svc.ToggleLike(f.ctx, "bob", id)
				require.NoError(t, err)
			}
			report, err := f.svc.Reconcile(f.ctx)
			require.NoError(t, err)
			assert.Zero(t, report.LikeCounters)

			v, err := f.svc.Video(f.ctx, id)
			require.NoError(t, err)
			assert.Equal(t, 1, v.Likes)
			ledger, err := f.svc.Interactions(f.ctx, "bob")
			require.NoError(t, err)
			assert.True(t, ledger.HasLiked(id))
		})
	}
}

func TestReconcile_SkipsDriftedCounterThatMoved(t *testing.T) {
	f, store := newInterleavedFixture(t)
	f.register(t, "alice", "bob")
	id := f.publish(t, "alice", "v")
	require.NoError(t, f.store.Update(f.ctx, repositories.VideosCollection, docstore.IDField, id, docstore.Document{"likes": 7}))

	store.collection = repositories.VideosCollection
	store.hook = func() {
		_, err := f.svc.ToggleLike(f.ctx, "bob", id)
		require.NoError(t, err)
	}
	report, err := f.svc.Reconcile(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, report.LikeCounters)

	// The next pass sees a stable counter and repairs it.
	report, err = f.svc.Reconcile(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.LikeCounters)
	v, _ := f.svc.Video(f.ctx, id)
	assert.Equal(t, 1, v.Likes)
}

func TestReconcile_KeepsFollowCommittedDuringPass(t *testing.T) {
	f, store := newInterleavedFixture(t)
	f.register(t, "alice", "bob", "carol")
	_, err := f.svc.Follow(f.ctx, "bob", "alice")
	require.NoError(t, err)
	accounts := repositories.NewAccountRepository(f.store)
	require.NoError(t, accounts.UpdateAccount(f.ctx, "alice", docstore.Document{"followers": []any{"bob", "mallory"}}))

	store.collection = repositories.AccountsCollection
	store.hook = func() {
		_, err := f.svc.Follow(f.ctx, "carol", "alice")
		require.NoError(t, err)
	}
	report, err := f.svc.Reconcile(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, report.FollowerSets)

	followers, err := f.svc.Followers(f.ctx, "alice")
	require.NoError(t, err)
	assert.Contains(t, followers, "carol")

	report, err = f.svc.Reconcile(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.FollowerSets)
	followers, _ = f.svc.Followers(f.ctx, "alice")
	assert.ElementsMatch(t, []string{"bob", "carol"}, followers)
}

func TestNeedsReconcile(t *testing.T) {
	assert.False(t, newFixture(t).svc.NeedsReconcile())
	assert.True(t, New(downStore{}, blobstore.NewInlineStore(), session.NewMemoryStore()).NeedsReconcile())
}

// downStore fails every call as an unreachable backend would.
type downStore struct{ docstore.Store }

var errDown = fmt.Errorf("dial tcp: %w", docstore.ErrUnavailable)

func (downStore) GetAll(context.Context, string) ([]docstore.Document, error) { return nil, errDown }
func (downStore) GetOne(context.Context, string, string, any) (docstore.Document, error) {
	return nil, errDown
}
func (downStore) Insert(context.Context, string, docstore.Document) error { return errDown }
func (downStore) Mutate(context.Context, docstore.Ref, docstore.Mutator) error {
	return errDown
}
func (downStore) MutatePair(context.Context, docstore.Ref, docstore.Ref, docstore.Mutator, docstore.Mutator) error {
	return errDown
}

func TestStorageUnavailableSurfaces(t *testing.T) {
	svc := New(downStore{}, blobstore.NewInlineStore(), session.NewMemoryStore(),
		WithBcryptCost(bcrypt.MinCost), WithLogger(zerolog.Nop()))
	ctx := context.Background()

	checks := map[string]error{}
	_, checks["register"] = svc.Register(ctx, "alice", "secret123")
	_, checks["authenticate"] = svc.Authenticate(ctx, "alice", "secret123")
	_, checks["follow"] = svc.Follow(ctx, "alice", "bob")
	_, checks["like"] = svc.ToggleLike(ctx, "alice", "v1")
	_, checks["feed"] = svc.ComposeFeed(ctx, "alice")
	_, checks["history"] = svc.History(ctx, "alice", "bob")
	checks["notify"] = svc.Notify(ctx, "alice", "x", "", "")

	for name, err := range checks {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, err, ErrStorageUnavailable)
			assert.True(t, errors.Is(err, docstore.ErrUnavailable))
			assert.NotErrorIs(t, err, ErrNotFound)
		})
	}

	// Views are best-effort and never fail the caller.
	svc.RecordView(ctx, "v1")
}
