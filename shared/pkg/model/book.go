package model

import (
	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	BookCollection   = "books"
	AuthorCollection = "authors"
)

// BookTextFields are the fields covered by the books text index.
var BookTextFields = []string{"title", "genre", "blurb"}

type Book struct {
	Id              bson.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title           string        `bson:"title" json:"title" validate:"required"`
	Genre           string        `bson:"genre,omitempty" json:"genre,omitempty"`
	ISBN            string        `bson:"ISBN" json:"ISBN" validate:"required"`
	AuthorId        string        `bson:"authorId" json:"authorId" validate:"required"`
	Blurb           string        `bson:"blurb,omitempty" json:"blurb,omitempty"`
	PublicationYear int           `bson:"publicationYear" json:"publicationYear" validate:"required"`
	PageCount       int           `bson:"pageCount" json:"pageCount" validate:"required"`
	Score           float64       `bson:"score,omitempty" json:"score,omitempty"`
}

// BookUpdateRequest is a partial book. Nil fields are left untouched.
type BookUpdateRequest struct {
	Title           *string `json:"title,omitempty" validate:"omitempty"`
	Genre           *string `json:"genre,omitempty" validate:"omitempty"`
	ISBN            *string `json:"ISBN,omitempty" validate:"omitempty"`
	AuthorId        *string `json:"authorId,omitempty" validate:"omitempty"`
	Blurb           *string `json:"blurb,omitempty" validate:"omitempty"`
	PublicationYear *int    `json:"publicationYear,omitempty" validate:"omitempty"`
	PageCount       *int    `json:"pageCount,omitempty" validate:"omitempty"`
}

// SetDocument returns the $set body for the fields present in the request.
func (r BookUpdateRequest) SetDocument() bson.M {
	set := bson.M{}
	if r.Title != nil {
		set["title"] = *r.Title
	}
	if r.Genre != nil {
		set["genre"] = *r.Genre
	}
	if r.ISBN != nil {
		set["ISBN"] = *r.ISBN
	}
	if r.AuthorId != nil {
		set["authorId"] = *r.AuthorId
	}
	if r.Blurb != nil {
		set["blurb"] = *r.Blurb
	}
	if r.PublicationYear != nil {
		set["publicationYear"] = *r.PublicationYear
	}
	if r.PageCount != nil {
		set["pageCount"] = *r.PageCount
	}
	return set
}
