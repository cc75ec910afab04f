package docstore

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/goccy/go-json"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// documentRecord is one document stored as a jsonb row.
type documentRecord struct {
	Seq        uint   `gorm:"primaryKey"`
	Collection string `gorm:"size:64;not null;uniqueIndex:idx_collection_doc"`
	DocID      string `gorm:"size:128;not null;uniqueIndex:idx_collection_doc"`
	Body       string `gorm:"type:jsonb;not null"`
}

func (documentRecord) TableName() string { return "documents" }

// PostgresStore implements Store on a single PostgreSQL table through GORM.
// Read-modify-writes run in transactions holding row locks, so both Mutate
// and MutatePair are atomic.
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore migrates the documents table and returns the store.
func NewPostgresStore(db *gorm.DB) (*PostgresStore, error) {
	if err := db.AutoMigrate(&documentRecord{}); err != nil {
		return nil, unavailable("migrate documents", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) GetAll(ctx context.Context, collection string) ([]Document, error) {
	var records []documentRecord
	err := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Order("seq ASC").
		Find(&records).Error
	if err != nil {
		return nil, unavailable("find "+collection, err)
	}
	docs := make([]Document, 0, len(records))
	for _, rec := range records {
		doc, err := rec.document()
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *PostgresStore) GetOne(ctx context.Context, collection, field string, value any) (Document, error) {
	rec, err := s.first(s.db.WithContext(ctx), Ref{Collection: collection, Field: field, Value: value}, false)
	if err != nil {
		return nil, err
	}
	return rec.document()
}

func (s *PostgresStore) Insert(ctx context.Context, collection string, doc Document) error {
	id := doc.ID()
	if id == "" {
		return fmt.Errorf("insert into %s: document has no %q", collection, IDField)
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("insert into %s: %w", collection, err)
	}
	rec := documentRecord{Collection: collection, DocID: id, Body: string(body)}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return unavailable("insert into "+collection, err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, collection, field string, value any, patch Document) error {
	return s.Mutate(ctx, Ref{Collection: collection, Field: field, Value: value}, func(doc Document) (Document, error) {
		return Merge(doc, patch), nil
	})
}

func (s *PostgresStore) Delete(ctx context.Context, collection, field string, value any) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := s.first(tx, Ref{Collection: collection, Field: field, Value: value}, true)
		if err != nil {
			return err
		}
		if err := tx.Delete(&documentRecord{}, rec.Seq).Error; err != nil {
			return unavailable("delete from "+collection, err)
		}
		return nil
	})
}

func (s *PostgresStore) Mutate(ctx context.Context, ref Ref, fn Mutator) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := s.first(tx, ref, true)
		if err != nil {
			return err
		}
		return s.apply(tx, rec, fn)
	})
}

func (s *PostgresStore) MutatePair(ctx context.Context, first, second Ref, fnFirst, fnSecond Mutator) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Resolve both rows first, then lock them in a fixed order so two
		// transactions touching the same pair cannot deadlock.
		a, err := s.first(tx, first, false)
		if err != nil {
			return err
		}
		b, err := s.first(tx, second, false)
		if err != nil {
			return err
		}
		seqs := []uint{a.Seq, b.Seq}
		sort.Slice(seqs, func(i, j int) bool { return seqs[i] < seqs[j] })
		var locked []documentRecord
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("seq IN ?", seqs).Order("seq ASC").Find(&locked).Error; err != nil {
			return unavailable("lock documents", err)
		}
		for _, rec := range locked {
			switch rec.Seq {
			case a.Seq:
				a = rec
			case b.Seq:
				b = rec
			}
		}

		if err := s.apply(tx, a, fnFirst); err != nil {
			return err
		}
		return s.apply(tx, b, fnSecond)
	})
}

// PairAtomic reports that MutatePair runs in one transaction.
func (s *PostgresStore) PairAtomic() bool { return true }

func (s *PostgresStore) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// first loads the first row matching ref, optionally locking it.
func (s *PostgresStore) first(tx *gorm.DB, ref Ref, lock bool) (documentRecord, error) {
	q := tx.Where("collection = ?", ref.Collection)
	if ref.Field == IDField {
		q = q.Where("doc_id = ?", fmt.Sprint(ref.Value))
	} else {
		q = q.Where("body->>? = ?", ref.Field, fmt.Sprint(ref.Value))
	}
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var rec documentRecord
	if err := q.Order("seq ASC").First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return rec, ErrNotFound
		}
		return rec, unavailable("find in "+ref.Collection, err)
	}
	return rec, nil
}

func (s *PostgresStore) apply(tx *gorm.DB, rec documentRecord, fn Mutator) error {
	doc, err := rec.document()
	if err != nil {
		return err
	}
	next, err := fn(doc)
	if err != nil || next == nil {
		return err
	}
	next[IDField] = rec.DocID
	body, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode %s: %w", rec.DocID, err)
	}
	if err := tx.Model(&documentRecord{}).Where("seq = ?", rec.Seq).Update("body", string(body)).Error; err != nil {
		return unavailable("update "+rec.Collection, err)
	}
	return nil
}

func (r documentRecord) document() (Document, error) {
	var doc Document
	if err := json.Unmarshal([]byte(r.Body), &doc); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", r.Collection, r.DocID, err)
	}
	return doc, nil
}
