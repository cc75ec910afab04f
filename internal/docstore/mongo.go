package docstore

import (
	"context"
	"errors"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	revField         = "_rev"
	maxMutateRetries = 8
)

// MongoStore implements Store on a MongoDB database, one MongoDB collection
// per document collection. Single-document read-modify-writes use an
// optimistic revision field; MutatePair runs as two ordered idempotent steps.
type MongoStore struct {
	db *mongo.Database

	indexed sync.Map // collection name -> struct{}
}

// NewMongoStore creates a MongoStore over db.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

func (s *MongoStore) collection(ctx context.Context, name string) (*mongo.Collection, error) {
	coll := s.db.Collection(name)
	if _, ok := s.indexed.Load(name); ok {
		return coll, nil
	}
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: IDField, Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, unavailable("ensure index on "+name, err)
	}
	s.indexed.Store(name, struct{}{})
	return coll, nil
}

func (s *MongoStore) GetAll(ctx context.Context, collection string) ([]Document, error) {
	coll, err := s.collection(ctx, collection)
	if err != nil {
		return nil, err
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := coll.Find(ctx, bson.D{}, findOptions)
	if err != nil {
		return nil, unavailable("find "+collection, err)
	}
	defer cursor.Close(ctx)

	var raw []bson.M
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, unavailable("decode "+collection, err)
	}
	docs := make([]Document, 0, len(raw))
	for _, m := range raw {
		doc, _, err := fromBSON(m)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *MongoStore) GetOne(ctx context.Context, collection, field string, value any) (Document, error) {
	coll, err := s.collection(ctx, collection)
	if err != nil {
		return nil, err
	}
	doc, _, err := s.findOne(ctx, coll, field, value)
	return doc, err
}

func (s *MongoStore) findOne(ctx context.Context, coll *mongo.Collection, field string, value any) (Document, int64, error) {
	var m bson.M
	err := coll.FindOne(ctx, bson.M{field: value}).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, unavailable("find one in "+coll.Name(), err)
	}
	return fromBSON(m)
}

func (s *MongoStore) Insert(ctx context.Context, collection string, doc Document) error {
	if doc.ID() == "" {
		return errors.New("insert into " + collection + ": document has no id")
	}
	coll, err := s.collection(ctx, collection)
	if err != nil {
		return err
	}
	if _, err := coll.InsertOne(ctx, toBSON(doc, 0)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return unavailable("insert into "+collection, err)
	}
	return nil
}

func (s *MongoStore) Update(ctx context.Context, collection, field string, value any, patch Document) error {
	coll, err := s.collection(ctx, collection)
	if err != nil {
		return err
	}
	set := bson.M{}
	for k, v := range patch {
		if k == IDField || k == revField || k == "_id" {
			continue
		}
		set[k] = v
	}
	update := bson.M{"$inc": bson.M{revField: 1}}
	if len(set) > 0 {
		update["$set"] = set
	}
	res, err := coll.UpdateOne(ctx, bson.M{field: value}, update)
	if err != nil {
		return unavailable("update "+collection, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, collection, field string, value any) error {
	coll, err := s.collection(ctx, collection)
	if err != nil {
		return err
	}
	res, err := coll.DeleteOne(ctx, bson.M{field: value})
	if err != nil {
		return unavailable("delete from "+collection, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Mutate reads the document with its revision, applies fn and replaces the
// document only if the revision is unchanged, retrying on lost races.
func (s *MongoStore) Mutate(ctx context.Context, ref Ref, fn Mutator) error {
	coll, err := s.collection(ctx, ref.Collection)
	if err != nil {
		return err
	}

	for attempt := 0; attempt < maxMutateRetries; attempt++ {
		doc, rev, err := s.findOne(ctx, coll, ref.Field, ref.Value)
		if err != nil {
			return err
		}
		next, err := fn(doc)
		if err != nil || next == nil {
			return err
		}
		next[IDField] = doc[IDField]

		filter := bson.M{IDField: doc.ID(), revField: rev}
		if rev == 0 {
			// Documents written by other tools may not carry a revision yet.
			filter[revField] = bson.M{"$in": bson.A{0, nil}}
		}
		res, err := coll.ReplaceOne(ctx, filter, toBSON(next, rev+1))
		if err != nil {
			return unavailable("replace in "+ref.Collection, err)
		}
		if res.MatchedCount == 1 {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return ErrConflict
}

// MutatePair checks both documents exist, then mutates first and second in
// that order. Without a replica set there is no multi-document transaction,
// so a failure between the steps leaves the pair to the reconciliation pass.
func (s *MongoStore) MutatePair(ctx context.Context, first, second Ref, fnFirst, fnSecond Mutator) error {
	if _, err := s.GetOne(ctx, second.Collection, second.Field, second.Value); err != nil {
		return err
	}
	if err := s.Mutate(ctx, first, fnFirst); err != nil {
		return err
	}
	return s.Mutate(ctx, second, fnSecond)
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.db.Client().Disconnect(ctx)
}

func fromBSON(m bson.M) (Document, int64, error) {
	var rev int64
	switch v := m[revField].(type) {
	case int32:
		rev = int64(v)
	case int64:
		rev = v
	case float64:
		rev = int64(v)
	}
	delete(m, revField)
	delete(m, "_id")

	doc, err := normalize(m)
	if err != nil {
		return nil, 0, err
	}
	return doc, rev, nil
}

func toBSON(doc Document, rev int64) bson.M {
	m := make(bson.M, len(doc)+1)
	for k, v := range doc {
		m[k] = v
	}
	m[revField] = rev
	return m
}
