package repository

import (
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// Resolver gives in-process stages access to other collections ($lookup).
type Resolver interface {
	Documents(collection string) ([]bson.M, error)
}

// Stage is one step of an aggregation pipeline. A stage renders itself for
// the Mongo server and can also be applied to records held in memory.
type Stage interface {
	BSON() bson.D
	Apply(r Resolver, docs []bson.M) ([]bson.M, error)
}

type Pipeline []Stage

func NewPipeline(stages ...Stage) Pipeline {
	return Pipeline(stages)
}

// Then returns a new pipeline with stages appended. The receiver is never
// modified, so a shared sub-pipeline can be extended by several callers.
func (p Pipeline) Then(stages ...Stage) Pipeline {
	out := make(Pipeline, 0, len(p)+len(stages))
	out = append(out, p...)
	return append(out, stages...)
}

func (p Pipeline) Mongo() mongo.Pipeline {
	out := make(mongo.Pipeline, 0, len(p))
	for _, stage := range p {
		out = append(out, stage.BSON())
	}
	return out
}

func (p Pipeline) Run(r Resolver, docs []bson.M) ([]bson.M, error) {
	var err error
	for _, stage := range p {
		docs, err = stage.Apply(r, docs)
		if err != nil {
			return nil, err
		}
	}
	return docs, nil
}
