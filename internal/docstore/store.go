// Package docstore defines the document-store contract the core depends on and
// the adapters that implement it (in-memory, local JSON files, MongoDB and
// PostgreSQL via GORM).
//
// Documents are JSON-shaped maps. Every document carries an "id" field that is
// its identity key within a collection; adapters index on it and reject a
// second insert with the same id.
package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// IDField is the identity key every document carries.
const IDField = "id"

var (
	// ErrNotFound is returned when no document matches a lookup.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicate is returned when inserting a document whose id already exists.
	ErrDuplicate = errors.New("duplicate document id")
	// ErrUnavailable wraps failures of the backing store itself.
	ErrUnavailable = errors.New("document store unavailable")
	// ErrConflict is returned when an optimistic update kept losing races.
	ErrConflict = errors.New("document update conflict")
)

// Document is a single stored record with JSON-normalised values.
type Document map[string]any

// ID returns the document's identity key, or "" when missing.
func (d Document) ID() string {
	if v, ok := d[IDField].(string); ok {
		return v
	}
	return ""
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out, err := normalize(d)
	if err != nil {
		// Documents only ever hold JSON values, so this cannot fail in practice.
		cp := make(Document, len(d))
		for k, v := range d {
			cp[k] = v
		}
		return cp
	}
	return out
}

// Ref addresses the single document in Collection whose Field equals Value.
type Ref struct {
	Collection string
	Field      string
	Value      any
}

func (r Ref) String() string {
	return fmt.Sprintf("%s[%s=%v]", r.Collection, r.Field, r.Value)
}

// Mutator receives the current document and returns its replacement.
// Returning a nil document leaves the stored document untouched. Adapters
// with optimistic concurrency may invoke a mutator more than once, so it
// must not carry state across calls other than its final outcome.
type Mutator func(Document) (Document, error)

// Store is the document-store contract.
type Store interface {
	// GetAll returns every document of a collection in insertion order.
	GetAll(ctx context.Context, collection string) ([]Document, error)
	// GetOne returns the first document whose field equals value.
	GetOne(ctx context.Context, collection, field string, value any) (Document, error)
	// Insert adds a document. The document must carry an id.
	Insert(ctx context.Context, collection string, doc Document) error
	// Update merges patch into the first document whose field equals value.
	Update(ctx context.Context, collection, field string, value any, patch Document) error
	// Delete removes the first document whose field equals value.
	Delete(ctx context.Context, collection, field string, value any) error
	// Mutate applies fn to one document as a single atomic read-modify-write.
	Mutate(ctx context.Context, ref Ref, fn Mutator) error
	// MutatePair applies fnFirst to first and fnSecond to second as one
	// logical unit. Both documents must exist before either mutator runs.
	// Transactional adapters commit both writes together; the others apply
	// them as two idempotent steps, first then second.
	MutatePair(ctx context.Context, first, second Ref, fnFirst, fnSecond Mutator) error
	// Close releases the adapter's resources.
	Close(ctx context.Context) error
}

// PairAtomic is implemented by adapters that can say whether MutatePair
// commits both documents together.
type PairAtomic interface {
	PairAtomic() bool
}

// AtomicPairs reports whether s commits MutatePair as one unit. Adapters that
// do not implement PairAtomic are assumed to apply two separate steps.
func AtomicPairs(s Store) bool {
	a, ok := s.(PairAtomic)
	return ok && a.PairAtomic()
}

// Encode converts a typed record into a Document and stamps its id.
func Encode(v any, id string) (Document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	doc[IDField] = id
	return doc, nil
}

// Decode fills a typed record from a Document.
func Decode(doc Document, v any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}

// Merge overlays patch onto a copy of base, keeping fields patch does not name.
func Merge(base, patch Document) Document {
	out := base.Clone()
	if out == nil {
		out = Document{}
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

// normalize round-trips a value through JSON so every adapter hands out the
// same value shapes (string, float64, bool, []any, map[string]any).
func normalize(v any) (Document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// matches reports whether doc[field] equals value, comparing JSON forms so
// that e.g. int and float64 representations of the same number agree.
func matches(doc Document, field string, value any) bool {
	got, ok := doc[field]
	if !ok {
		return false
	}
	if gs, ok := got.(string); ok {
		vs, ok := value.(string)
		return ok && gs == vs
	}
	a, errA := json.Marshal(got)
	b, errB := json.Marshal(value)
	return errA == nil && errB == nil && string(a) == string(b)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}
