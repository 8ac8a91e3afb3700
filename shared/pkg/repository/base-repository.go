package repository

import (
	"context"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type FindOptions struct {
	Projection bson.M
	Sort       bson.D
	Limit      int64
	Skip       int64
}

// BaseRepository is the document store backed by one Mongo collection.
type BaseRepository struct {
	Database       *mongo.Database
	CollectionName string
}

func NewRepository(database *mongo.Database, collectionName string) *BaseRepository {
	return &BaseRepository{Database: database, CollectionName: collectionName}
}

func (r *BaseRepository) collection() *mongo.Collection {
	return r.Database.Collection(r.CollectionName)
}

func (r *BaseRepository) InsertOne(ctx context.Context, document interface{}) (interface{}, error) {
	result, err := r.collection().InsertOne(ctx, document)
	if err != nil {
		log.WithFields(log.Fields{"collection": r.CollectionName, "err": err}).Error("Error inserting data")
		return nil, err
	}
	return result.InsertedID, nil
}

func (r *BaseRepository) Find(ctx context.Context, filter bson.M, opts FindOptions) (*mongo.Cursor, error) {
	findOpts := options.Find()
	if opts.Projection != nil {
		findOpts.SetProjection(opts.Projection)
	}
	if len(opts.Sort) > 0 {
		findOpts.SetSort(opts.Sort)
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}
	if opts.Skip > 0 {
		findOpts.SetSkip(opts.Skip)
	}

	cursor, err := r.collection().Find(ctx, filter, findOpts)
	if err != nil {
		log.WithFields(log.Fields{"collection": r.CollectionName, "err": err}).Error("Error fetching data")
	}
	return cursor, err
}

func (r *BaseRepository) UpdateOne(ctx context.Context, filter bson.M, update bson.M) (*mongo.UpdateResult, error) {
	result, err := r.collection().UpdateOne(ctx, filter, update)
	if err != nil {
		log.WithFields(log.Fields{"collection": r.CollectionName, "err": err}).Error("Error updating data")
	}
	return result, err
}

func (r *BaseRepository) DeleteOne(ctx context.Context, filter bson.M) (*mongo.DeleteResult, error) {
	result, err := r.collection().DeleteOne(ctx, filter)
	if err != nil {
		log.WithFields(log.Fields{"collection": r.CollectionName, "err": err}).Error("Error deleting data")
	}
	return result, err
}

func (r *BaseRepository) Aggregate(ctx context.Context, pipeline Pipeline) (*mongo.Cursor, error) {
	cursor, err := r.collection().Aggregate(ctx, pipeline.Mongo())
	if err != nil {
		log.WithFields(log.Fields{"collection": r.CollectionName, "err": err}).Error("Error aggregating data")
	}
	return cursor, err
}

func (r *BaseRepository) EnsureIndexes(ctx context.Context, indexes []mongo.IndexModel) error {
	names, err := r.collection().Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"collection": r.CollectionName, "indexes": names}).Info("Indexes ready")
	return nil
}
