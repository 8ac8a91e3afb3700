package internal

import (
	"context"
	"fmt"

	interfaces "library/shared/pkg/interface"
	"library/shared/pkg/model"
	"library/shared/pkg/repository"
	"library/shared/pkg/service"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// BookRepository owns every read and write against the books collection,
// including the per-author aggregations.
type BookRepository struct {
	Store     interfaces.DocumentStore
	Validator interfaces.ValidatorInterface[model.Book, model.BookUpdateRequest]
	// IsValidId rejects malformed ids before any store round trip.
	IsValidId func(id string) bool
}

func NewBookRepository(store interfaces.DocumentStore) *BookRepository {
	return &BookRepository{
		Store:     store,
		Validator: service.NewValidationService[model.Book, model.BookUpdateRequest](),
		IsValidId: IsObjectIdHex,
	}
}

func IsObjectIdHex(id string) bool {
	_, err := bson.ObjectIDFromHex(id)
	return err == nil
}

func idFilter(id string) bson.M {
	if oid, err := bson.ObjectIDFromHex(id); err == nil {
		return bson.M{"_id": oid}
	}
	return bson.M{"_id": id}
}

func decodeAll[K any](ctx context.Context, op string, cursor *mongo.Cursor) ([]K, error) {
	defer cursor.Close(ctx)

	results := []K{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, storeError(op, err)
	}
	return results, nil
}

// ListAll pages through books in the store's natural order. perPage 0
// means no limit; defaulting is left to the caller.
func (r *BookRepository) ListAll(ctx context.Context, page int64, perPage int64) ([]model.Book, error) {
	cursor, err := r.Store.Find(ctx, bson.M{}, repository.FindOptions{
		Limit: perPage,
		Skip:  perPage * page,
	})
	if err != nil {
		return nil, storeError("list", err)
	}
	return decodeAll[model.Book](ctx, "list", cursor)
}

func (r *BookRepository) ListByAuthor(ctx context.Context, authorId string) ([]model.Book, error) {
	pipeline := repository.NewPipeline(repository.Match{Filter: bson.M{"authorId": authorId}})
	cursor, err := r.Store.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, storeError("list by author", err)
	}
	return decodeAll[model.Book](ctx, "list by author", cursor)
}

// Search runs a text query over title, genre and blurb. Results carry the
// store's relevance score, best first.
func (r *BookRepository) Search(ctx context.Context, term string) ([]model.Book, error) {
	score := bson.M{"$meta": "textScore"}
	cursor, err := r.Store.Find(ctx, bson.M{"$text": bson.M{"$search": term}}, repository.FindOptions{
		Projection: bson.M{"score": score},
		Sort:       bson.D{{Key: "score", Value: score}},
	})
	if err != nil {
		return nil, storeError("search", err)
	}
	return decodeAll[model.Book](ctx, "search", cursor)
}

func (r *BookRepository) GetById(ctx context.Context, id string) (*model.Book, error) {
	if !r.IsValidId(id) {
		return nil, nil
	}
	cursor, err := r.Store.Find(ctx, idFilter(id), repository.FindOptions{Limit: 1})
	if err != nil {
		return nil, storeError("get", err)
	}
	books, err := decodeAll[model.Book](ctx, "get", cursor)
	if err != nil || len(books) == 0 {
		return nil, err
	}
	return &books[0], nil
}

// DeleteById reports whether the request was well formed, not whether a
// book was removed.
func (r *BookRepository) DeleteById(ctx context.Context, id string) (bool, error) {
	if !r.IsValidId(id) {
		return false, nil
	}
	if _, err := r.Store.DeleteOne(ctx, idFilter(id)); err != nil {
		return false, storeError("delete", err)
	}
	return true, nil
}

// UpdateById sets only the fields present in patch. Like DeleteById the
// result does not say whether a book matched.
func (r *BookRepository) UpdateById(ctx context.Context, id string, patch model.BookUpdateRequest) (bool, error) {
	if !r.IsValidId(id) {
		return false, nil
	}
	set := patch.SetDocument()
	if len(set) == 0 {
		return true, nil
	}
	if _, err := r.Store.UpdateOne(ctx, idFilter(id), bson.M{"$set": set}); err != nil {
		return false, classifyWriteError("update", err)
	}
	return true, nil
}

func (r *BookRepository) Create(ctx context.Context, book model.Book) (*model.Book, error) {
	if err := r.Validator.Validate(book); err != nil {
		return nil, &BadDataError{Message: fmt.Sprintf("books validation failed: %s", err), Err: err}
	}
	book.Id = bson.ObjectID{}
	book.Score = 0

	id, err := r.Store.InsertOne(ctx, book)
	if err != nil {
		return nil, classifyWriteError("create", err)
	}
	if oid, ok := id.(bson.ObjectID); ok {
		book.Id = oid
	}
	return &book, nil
}

func authorStatsPipeline() repository.Pipeline {
	return repository.NewPipeline(
		repository.Group{By: "authorId", Fields: []repository.Accumulator{
			repository.Avg("averagePageCount", "pageCount"),
			repository.Count("numBooks"),
			repository.AddToSet("titles", "title"),
		}},
		repository.Project{Fields: []repository.Projection{
			repository.Exclude("_id"),
			repository.Computed("authorId", repository.ToObjectID(repository.Field("_id"))),
			repository.Include("averagePageCount"),
			repository.Include("numBooks"),
			repository.Computed("titles", repository.ReverseArray(repository.Field("titles"))),
		}},
	)
}

// authorInfoPipeline inner-joins the stats with authors: stats whose author
// does not exist are dropped by the unwind.
func authorInfoPipeline() repository.Pipeline {
	return authorStatsPipeline().Then(
		repository.Lookup{From: model.AuthorCollection, LocalField: "authorId", ForeignField: "_id", As: "author"},
		repository.Unwind{Path: "author"},
	)
}

func (r *BookRepository) AuthorStats(ctx context.Context) ([]model.AuthorStat, error) {
	cursor, err := r.Store.Aggregate(ctx, authorStatsPipeline())
	if err != nil {
		return nil, storeError("author stats", err)
	}
	return decodeAll[model.AuthorStat](ctx, "author stats", cursor)
}

func (r *BookRepository) AuthorInfo(ctx context.Context) ([]model.AuthorInfo, error) {
	cursor, err := r.Store.Aggregate(ctx, authorInfoPipeline())
	if err != nil {
		return nil, storeError("author info", err)
	}
	return decodeAll[model.AuthorInfo](ctx, "author info", cursor)
}
