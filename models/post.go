package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type FeedPost struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Content        string               `bson:"content" json:"content"`
	ImageURL       string               `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	AuthorID       primitive.ObjectID   `bson:"authorId" json:"authorId"`
	AuthorName     string               `bson:"authorName" json:"authorName"`
	AuthorPhotoURL string               `bson:"authorPhotoURL" json:"authorPhotoURL"`
	Likes          []primitive.ObjectID `bson:"likes" json:"likes"`
	LikeCount      int                  `bson:"likeCount" json:"likeCount"`
	Comments       []Comment            `bson:"comments" json:"comments"`
	CommentCount   int                  `bson:"commentCount" json:"commentCount"`
	CreatedAt      time.Time            `bson:"createdAt" json:"createdAt"`
}

type Comment struct {
	ID         string             `bson:"id" json:"id"`
	Text       string             `bson:"text" json:"text"`
	AuthorID   primitive.ObjectID `bson:"authorId" json:"authorId"`
	AuthorName string             `bson:"authorName" json:"authorName"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}

func (p *FeedPost) LikedBy(uid primitive.ObjectID) bool {
	for _, id := range p.Likes {
		if id == uid {
			return true
		}
	}
	return false
}
