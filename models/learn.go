package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type LearnPost struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Outline     string             `bson:"outline" json:"outline"`
	Description string             `bson:"description" json:"description"`
	Price       int64              `bson:"price" json:"price"`
	AuthorID    primitive.ObjectID `bson:"authorId" json:"authorId"`
	AuthorName  string             `bson:"authorName" json:"authorName"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}
