package blobstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInlineStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewInlineStore()

	ref, err := s.Store(ctx, []byte("fake video bytes"), "vid1")
	require.NoError(t, err)
	assert.Contains(t, ref, "inline:")

	got, err := s.Resolve(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("fake video bytes"), got.Data)
	assert.Empty(t, got.RedirectURL)
	assert.NotEmpty(t, got.ContentType)
}

func TestInlineStore_Errors(t *testing.T) {
	ctx := context.Background()
	s := NewInlineStore()

	_, err := s.Store(ctx, nil, "vid1")
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = s.Resolve(ctx, "gibberish")
	assert.ErrorIs(t, err, ErrUnknownReference)

	_, err = s.Resolve(ctx, "inline:%%%")
	assert.ErrorIs(t, err, ErrUnknownReference)
}

func TestResolve_URLRedirects(t *testing.T) {
	ctx := context.Background()
	url := "https://cdn.example.com/videos/vid1"

	got, err := NewInlineStore().Resolve(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, url, got.RedirectURL)

	got, err = (&MinioStore{}).Resolve(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, url, got.RedirectURL)

	_, err = (&FirebaseStore{}).Resolve(ctx, "inline:abcd")
	assert.ErrorIs(t, err, ErrUnknownReference)
}
