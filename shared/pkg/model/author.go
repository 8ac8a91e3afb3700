package model

import (
	"go.mongodb.org/mongo-driver/v2/bson"
)

type Author struct {
	Id       bson.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name     string        `bson:"name" json:"name"`
	Gender   string        `bson:"gender,omitempty" json:"gender,omitempty"`
	YearBorn int           `bson:"yearBorn,omitempty" json:"yearBorn,omitempty"`
}

// AuthorStat is computed on demand by grouping books on authorId.
type AuthorStat struct {
	AuthorId         bson.ObjectID `bson:"authorId" json:"authorId"`
	AveragePageCount float64       `bson:"averagePageCount" json:"averagePageCount"`
	NumBooks         int           `bson:"numBooks" json:"numBooks"`
	Titles           []string      `bson:"titles" json:"titles"`
}

// AuthorInfo is an AuthorStat joined with its author. Stats whose author
// is missing never produce an AuthorInfo.
type AuthorInfo struct {
	AuthorStat `bson:",inline"`
	Author     Author `bson:"author" json:"author"`
}
