package db

import (
	"context"

	"library/services/book/config"
	"library/shared/pkg/model"
	"library/shared/pkg/repository"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/writeconcern"
)

func Connect(cfg *config.MongoConfig) (*mongo.Client, *mongo.Database, error) {
	clientOptions := options.Client()
	clientOptions.ApplyURI(cfg.URI)
	clientOptions.SetMaxPoolSize(cfg.MaxPoolSize)
	clientOptions.SetMinPoolSize(cfg.MinPoolSize)
	clientOptions.SetWriteConcern(writeconcern.W1())

	clientOptions.SetMaxConnIdleTime(cfg.MaxConnIdleTime)
	clientOptions.SetConnectTimeout(cfg.ConnectTimeout)
	clientOptions.SetServerSelectionTimeout(cfg.ServerSelectionTimeout)

	client, err := mongo.Connect(clientOptions)
	if err != nil {
		log.WithField("err", err).Error("Error connecting to database")
		return nil, nil, err
	}

	return client, client.Database(cfg.Database), nil
}

// BookIndexes mirrors the book schema: a text index over the searchable
// fields and a lookup index on authorId.
func BookIndexes() []mongo.IndexModel {
	text := bson.D{}
	for _, field := range model.BookTextFields {
		text = append(text, bson.E{Key: field, Value: "text"})
	}
	return []mongo.IndexModel{
		{Keys: text, Options: options.Index().SetName("books_text")},
		{Keys: bson.D{{Key: "authorId", Value: 1}}, Options: options.Index().SetName("books_authorId")},
	}
}

func EnsureBookIndexes(ctx context.Context, books *repository.BaseRepository) error {
	return books.EnsureIndexes(ctx, BookIndexes())
}
