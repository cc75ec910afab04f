// Package blobstore holds the media collaborators. The core only persists and
// forwards the opaque reference a Store returns; it never looks inside it.
package blobstore

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrEmpty is returned when asked to store an empty payload.
	ErrEmpty = errors.New("empty media payload")
	// ErrUnknownReference is returned when a reference cannot be resolved.
	ErrUnknownReference = errors.New("unknown media reference")
)

// Resolved is what a reference points at: either the bytes themselves or a
// URL the client should be redirected to.
type Resolved struct {
	Data        []byte
	ContentType string
	RedirectURL string
}

// Store is the media/blob-store contract.
type Store interface {
	Store(ctx context.Context, data []byte, id string) (string, error)
	Resolve(ctx context.Context, ref string) (Resolved, error)
}

// IsURL reports whether ref is an http(s) URL.
func IsURL(ref string) bool {
	return strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "http://")
}

// resolveURL handles URL references for the cloud-backed stores.
func resolveURL(ref string) (Resolved, error) {
	if !IsURL(ref) {
		return Resolved{}, ErrUnknownReference
	}
	return Resolved{RedirectURL: ref}, nil
}
