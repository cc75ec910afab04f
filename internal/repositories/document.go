package repositories

import (
	"slices"

	"github.com/anonto42/vidspace/backend/internal/docstore"
)

// Collection names in the document store.
const (
	AccountsCollection     = "accounts"
	VideosCollection       = "videos"
	InteractionsCollection = "interactions"
	MessagesCollection     = "messages"
)

func ref(collection, id string) docstore.Ref {
	return docstore.Ref{Collection: collection, Field: docstore.IDField, Value: id}
}

// typed turns a mutation of a decoded record into a docstore.Mutator. fn
// reports whether it changed the record; unchanged records are not written.
// Fields the record type does not know about are preserved.
func typed[T any](fn func(*T) (bool, error)) docstore.Mutator {
	return func(doc docstore.Document) (docstore.Document, error) {
		var v T
		if err := docstore.Decode(doc, &v); err != nil {
			return nil, err
		}
		changed, err := fn(&v)
		if err != nil || !changed {
			return nil, err
		}
		enc, err := docstore.Encode(&v, doc.ID())
		if err != nil {
			return nil, err
		}
		return docstore.Merge(doc, enc), nil
	}
}

func decodeAll[T any](docs []docstore.Document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var v T
		if err := docstore.Decode(doc, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// setMembership adds or removes v and reports whether set changed.
func setMembership(set *[]string, v string, present bool) bool {
	idx := slices.Index(*set, v)
	switch {
	case present && idx < 0:
		*set = append(*set, v)
		return true
	case !present && idx >= 0:
		*set = slices.Delete(*set, idx, idx+1)
		return true
	}
	return false
}
