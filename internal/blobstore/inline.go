package blobstore

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

const inlinePrefix = "inline:"

// InlineStore encodes media into the reference itself. It needs no backing
// service and is meant for local development and tests.
type InlineStore struct{}

// NewInlineStore creates an InlineStore.
func NewInlineStore() *InlineStore { return &InlineStore{} }

func (InlineStore) Store(ctx context.Context, data []byte, id string) (string, error) {
	if len(data) == 0 {
		return "", ErrEmpty
	}
	return inlinePrefix + base64.StdEncoding.EncodeToString(data), nil
}

func (InlineStore) Resolve(ctx context.Context, ref string) (Resolved, error) {
	if IsURL(ref) {
		return Resolved{RedirectURL: ref}, nil
	}
	if !strings.HasPrefix(ref, inlinePrefix) {
		return Resolved{}, ErrUnknownReference
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(ref, inlinePrefix))
	if err != nil {
		return Resolved{}, fmt.Errorf("%w: %v", ErrUnknownReference, err)
	}
	return Resolved{Data: data, ContentType: http.DetectContentType(data)}, nil
}
