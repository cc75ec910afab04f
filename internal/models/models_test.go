package models

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendNotification_EvictsOldestFirst(t *testing.T) {
	var log []Notification
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < MaxNotifications+5; i++ {
		log = AppendNotification(log, Notification{
			Text:      fmt.Sprintf("n%d", i),
			Timestamp: base.Add(time.Duration(i) * time.Second),
		})
		assert.LessOrEqual(t, len(log), MaxNotifications)
	}

	require.Len(t, log, MaxNotifications)
	assert.Equal(t, "n5", log[0].Text)
	assert.Equal(t, fmt.Sprintf("n%d", MaxNotifications+4), log[len(log)-1].Text)
	for i := 1; i < len(log); i++ {
		assert.True(t, log[i-1].Timestamp.Before(log[i].Timestamp))
	}
}

func TestNewestFirst(t *testing.T) {
	log := []Notification{{Text: "a"}, {Text: "b"}, {Text: "c"}}
	out := NewestFirst(log)

	assert.Equal(t, []string{"c", "b", "a"}, []string{out[0].Text, out[1].Text, out[2].Text})
	assert.Equal(t, "a", log[0].Text)
}

func TestThreadKey(t *testing.T) {
	assert.Equal(t, ThreadKey("alice", "bob"), ThreadKey("bob", "alice"))
	assert.Equal(t, "alice:bob", ThreadKey("bob", "alice"))
	// Handles may contain underscores, which must not make keys collide.
	assert.NotEqual(t, ThreadKey("a_b", "c"), ThreadKey("a", "b_c"))
}

func TestToggle(t *testing.T) {
	set, on := Toggle(nil, "v1")
	assert.True(t, on)
	assert.Equal(t, []string{"v1"}, set)

	set, on = Toggle(set, "v2")
	assert.True(t, on)

	set, on = Toggle(set, "v1")
	assert.False(t, on)
	assert.Equal(t, []string{"v2"}, set)
}

func TestAccount_ToProfile(t *testing.T) {
	acc := &Account{
		Handle:       "alice",
		PasswordHash: "secret-hash",
		Followers:    []string{"bob", "carol"},
		Following:    []string{"bob"},
	}
	p := acc.ToProfile()

	assert.Equal(t, "alice", p.Handle)
	assert.Equal(t, 2, p.FollowersCount)
	assert.Equal(t, 1, p.FollowingCount)

	p.Followers[0] = "mallory"
	assert.Equal(t, "bob", acc.Followers[0])
}
