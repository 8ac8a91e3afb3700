package interfaces

import (
	"context"

	"library/shared/pkg/model"
	"library/shared/pkg/repository"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// DocumentStore is the slice of a document database client the book
// repository depends on. One store addresses one collection.
type DocumentStore interface {
	InsertOne(ctx context.Context, document interface{}) (interface{}, error)
	Find(ctx context.Context, filter bson.M, opts repository.FindOptions) (*mongo.Cursor, error)
	UpdateOne(ctx context.Context, filter bson.M, update bson.M) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter bson.M) (*mongo.DeleteResult, error)
	Aggregate(ctx context.Context, pipeline repository.Pipeline) (*mongo.Cursor, error)
}

type BookRepositoryInterface interface {
	ListAll(ctx context.Context, page int64, perPage int64) ([]model.Book, error)
	ListByAuthor(ctx context.Context, authorId string) ([]model.Book, error)
	Search(ctx context.Context, term string) ([]model.Book, error)
	GetById(ctx context.Context, id string) (*model.Book, error)
	DeleteById(ctx context.Context, id string) (bool, error)
	UpdateById(ctx context.Context, id string, patch model.BookUpdateRequest) (bool, error)
	Create(ctx context.Context, book model.Book) (*model.Book, error)
	AuthorStats(ctx context.Context) ([]model.AuthorStat, error)
	AuthorInfo(ctx context.Context) ([]model.AuthorInfo, error)
}
