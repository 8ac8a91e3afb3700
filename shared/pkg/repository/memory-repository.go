package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

var ErrNoTextIndex = errors.New("text index required for $text query")

const duplicateKeyCode = 11000

// MemoryDatabase holds collections of documents in process. It answers the
// same queries as the Mongo store for the subset the book service issues.
type MemoryDatabase struct {
	mu          sync.RWMutex
	collections map[string][]bson.M
	textIndexes map[string][]string
}

func NewMemoryDatabase() *MemoryDatabase {
	return &MemoryDatabase{
		collections: map[string][]bson.M{},
		textIndexes: map[string][]string{},
	}
}

func (db *MemoryDatabase) Collection(name string) *MemoryRepository {
	return &MemoryRepository{db: db, CollectionName: name}
}

func (db *MemoryDatabase) CreateTextIndex(collection string, fields ...string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.textIndexes[collection] = append([]string(nil), fields...)
}

// Drop removes every collection. Text indexes are kept.
func (db *MemoryDatabase) Drop() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.collections = map[string][]bson.M{}
}

// snapshot resolves $lookup sources; callers already hold the read lock.
type snapshot struct{ db *MemoryDatabase }

func (s snapshot) Documents(collection string) ([]bson.M, error) {
	return s.db.collections[collection], nil
}

type MemoryRepository struct {
	db             *MemoryDatabase
	CollectionName string
}

func (r *MemoryRepository) InsertOne(ctx context.Context, document interface{}) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := toDocument(document)
	if err != nil {
		return nil, err
	}
	id, ok := doc["_id"]
	if oid, isOID := id.(bson.ObjectID); !ok || (isOID && oid.IsZero()) {
		id = bson.NewObjectID()
		doc["_id"] = id
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.collections[r.CollectionName] {
		if valuesEqual(existing["_id"], id) {
			return nil, mongo.WriteException{WriteErrors: mongo.WriteErrors{{
				Code:    duplicateKeyCode,
				Message: fmt.Sprintf("E11000 duplicate key error collection: %s index: _id_ dup key: { _id: %v }", r.CollectionName, id),
			}}}
		}
	}
	r.db.collections[r.CollectionName] = append(r.db.collections[r.CollectionName], doc)
	return id, nil
}

type scoredDoc struct {
	doc   bson.M
	score float64
}

func (r *MemoryRepository) Find(ctx context.Context, filter bson.M, opts FindOptions) (*mongo.Cursor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	terms, isText := searchTerms(filter)
	textFields := r.db.textIndexes[r.CollectionName]
	if isText && len(textFields) == 0 {
		return nil, ErrNoTextIndex
	}
	rest := bson.M{}
	for k, v := range filter {
		if k != "$text" {
			rest[k] = v
		}
	}

	var found []scoredDoc
	for _, doc := range r.db.collections[r.CollectionName] {
		ok, err := matches(doc, rest)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		hit := scoredDoc{doc: cloneDoc(doc)}
		if isText {
			hit.score = textScore(doc, textFields, terms)
			if hit.score == 0 {
				continue
			}
		}
		found = append(found, hit)
	}

	for field, v := range opts.Projection {
		if isTextScoreMeta(v) {
			for _, hit := range found {
				hit.doc[field] = hit.score
			}
		}
	}

	if len(opts.Sort) > 0 {
		sort.SliceStable(found, func(i, j int) bool {
			return lessBySort(found[i], found[j], opts.Sort)
		})
	}

	if opts.Skip > 0 {
		if opts.Skip >= int64(len(found)) {
			found = nil
		} else {
			found = found[opts.Skip:]
		}
	}
	if opts.Limit > 0 && opts.Limit < int64(len(found)) {
		found = found[:opts.Limit]
	}

	docs := make([]interface{}, 0, len(found))
	for _, hit := range found {
		docs = append(docs, hit.doc)
	}
	return mongo.NewCursorFromDocuments(docs, nil, bson.NewRegistry())
}

func lessBySort(a, b scoredDoc, spec bson.D) bool {
	for _, e := range spec {
		if isTextScoreMeta(e.Value) {
			if a.score != b.score {
				return a.score > b.score
			}
			continue
		}
		dir, _ := toFloat(e.Value)
		av, aok := toFloat(a.doc[e.Key])
		bv, bok := toFloat(b.doc[e.Key])
		if aok && bok && av != bv {
			if dir < 0 {
				return av > bv
			}
			return av < bv
		}
		as, _ := a.doc[e.Key].(string)
		bs, _ := b.doc[e.Key].(string)
		if as != bs {
			if dir < 0 {
				return as > bs
			}
			return as < bs
		}
	}
	return false
}

func (r *MemoryRepository) UpdateOne(ctx context.Context, filter bson.M, update bson.M) (*mongo.UpdateResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var set bson.M
	for op, body := range update {
		if op != "$set" {
			return nil, fmt.Errorf("%w: update operator %s", ErrUnsupported, op)
		}
		var err error
		if set, err = toDocument(body); err != nil {
			return nil, err
		}
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	docs := r.db.collections[r.CollectionName]
	for i, doc := range docs {
		ok, err := matches(doc, filter)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		updated := cloneDoc(doc)
		modified := false
		for k, v := range set {
			if !valuesEqual(updated[k], v) {
				modified = true
			}
			updated[k] = v
		}
		docs[i] = updated
		result := &mongo.UpdateResult{MatchedCount: 1}
		if modified {
			result.ModifiedCount = 1
		}
		return result, nil
	}
	return &mongo.UpdateResult{}, nil
}

func (r *MemoryRepository) DeleteOne(ctx context.Context, filter bson.M) (*mongo.DeleteResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	docs := r.db.collections[r.CollectionName]
	for i, doc := range docs {
		ok, err := matches(doc, filter)
		if err != nil {
			return nil, err
		}
		if ok {
			r.db.collections[r.CollectionName] = append(docs[:i:i], docs[i+1:]...)
			return &mongo.DeleteResult{DeletedCount: 1}, nil
		}
	}
	return &mongo.DeleteResult{}, nil
}

func (r *MemoryRepository) Aggregate(ctx context.Context, pipeline Pipeline) (*mongo.Cursor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	source := r.db.collections[r.CollectionName]
	docs := make([]bson.M, 0, len(source))
	for _, doc := range source {
		docs = append(docs, cloneDoc(doc))
	}
	out, err := pipeline.Run(snapshot{db: r.db}, docs)
	if err != nil {
		return nil, err
	}

	results := make([]interface{}, 0, len(out))
	for _, doc := range out {
		results = append(results, doc)
	}
	return mongo.NewCursorFromDocuments(results, nil, bson.NewRegistry())
}
