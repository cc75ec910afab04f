package docstore

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// MemoryStore keeps collections in process memory. All writes are serialised
// on one mutex, which makes Mutate and MutatePair fully atomic.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string][]Document

	// onWrite is called with the staged contents of a collection before they
	// replace the live ones, while the lock is held. An error aborts the write.
	// FileStore uses it to persist.
	onWrite func(collection string, docs []Document) error
}

// staged is the next contents of one collection.
type staged struct {
	collection string
	docs       []Document
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string][]Document)}
}

func (s *MemoryStore) GetAll(ctx context.Context, collection string) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := s.collections[collection]
	out := make([]Document, len(docs))
	for i, d := range docs {
		out[i] = d.Clone()
	}
	return out, nil
}

func (s *MemoryStore) GetOne(ctx context.Context, collection, field string, value any) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.find(collection, field, value)
	if i < 0 {
		return nil, ErrNotFound
	}
	return s.collections[collection][i].Clone(), nil
}

func (s *MemoryStore) Insert(ctx context.Context, collection string, doc Document) error {
	id := doc.ID()
	if id == "" {
		return fmt.Errorf("insert into %s: document has no %q", collection, IDField)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.find(collection, IDField, id) >= 0 {
		return ErrDuplicate
	}
	next := append(slices.Clone(s.collections[collection]), doc.Clone())
	return s.commit(staged{collection, next})
}

func (s *MemoryStore) Update(ctx context.Context, collection, field string, value any, patch Document) error {
	return s.Mutate(ctx, Ref{Collection: collection, Field: field, Value: value}, func(doc Document) (Document, error) {
		return Merge(doc, patch), nil
	})
}

func (s *MemoryStore) Delete(ctx context.Context, collection, field string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.find(collection, field, value)
	if i < 0 {
		return ErrNotFound
	}
	next := slices.Delete(slices.Clone(s.collections[collection]), i, i+1)
	return s.commit(staged{collection, next})
}

func (s *MemoryStore) Mutate(ctx context.Context, ref Ref, fn Mutator) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.find(ref.Collection, ref.Field, ref.Value)
	if i < 0 {
		return ErrNotFound
	}
	next, err := fn(s.collections[ref.Collection][i].Clone())
	if err != nil || next == nil {
		return err
	}
	docs := slices.Clone(s.collections[ref.Collection])
	docs[i] = keepID(next, docs[i])
	return s.commit(staged{ref.Collection, docs})
}

func (s *MemoryStore) MutatePair(ctx context.Context, first, second Ref, fnFirst, fnSecond Mutator) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.find(first.Collection, first.Field, first.Value)
	j := s.find(second.Collection, second.Field, second.Value)
	if i < 0 || j < 0 {
		return ErrNotFound
	}

	a, err := fnFirst(s.collections[first.Collection][i].Clone())
	if err != nil {
		return err
	}
	b, err := fnSecond(s.collections[second.Collection][j].Clone())
	if err != nil {
		return err
	}

	var changes []staged
	if a != nil {
		docs := slices.Clone(s.collections[first.Collection])
		docs[i] = keepID(a, docs[i])
		changes = append(changes, staged{first.Collection, docs})
	}
	if b != nil {
		if len(changes) > 0 && second.Collection == first.Collection {
			changes[0].docs[j] = keepID(b, changes[0].docs[j])
		} else {
			docs := slices.Clone(s.collections[second.Collection])
			docs[j] = keepID(b, docs[j])
			changes = append(changes, staged{second.Collection, docs})
		}
	}
	return s.commit(changes...)
}

func (s *MemoryStore) Close(ctx context.Context) error { return nil }

// find returns the index of the first matching document; callers hold mu.
func (s *MemoryStore) find(collection, field string, value any) int {
	for i, d := range s.collections[collection] {
		if matches(d, field, value) {
			return i
		}
	}
	return -1
}

// commit persists every staged collection and only then swaps them in. When a
// later collection fails to persist, the earlier ones are persisted again
// from their live contents so storage matches memory. Callers hold mu.
func (s *MemoryStore) commit(changes ...staged) error {
	if s.onWrite != nil {
		for n, c := range changes {
			if err := s.onWrite(c.collection, c.docs); err != nil {
				for _, done := range changes[:n] {
					_ = s.onWrite(done.collection, s.collections[done.collection])
				}
				return err
			}
		}
	}
	for _, c := range changes {
		s.collections[c.collection] = c.docs
	}
	return nil
}

// PairAtomic reports that MutatePair commits both documents as one unit.
func (s *MemoryStore) PairAtomic() bool { return true }

// keepID stores a normalised copy of next, pinning the original identity key.
func keepID(next, prev Document) Document {
	out := next.Clone()
	out[IDField] = prev[IDField]
	return out
}
