package repositories

import (
	"context"

	"linkrite/database"
	"linkrite/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type LearnRepository struct {
	coll *mongo.Collection
}

func NewLearnRepository(db *mongo.Database) *LearnRepository {
	return &LearnRepository{coll: db.Collection(database.LearnPostsCollection)}
}

func (r *LearnRepository) Create(ctx context.Context, p *models.LearnPost) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, p)
	return translate(err)
}

func (r *LearnRepository) List(ctx context.Context) ([]models.LearnPost, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	posts := []models.LearnPost{}
	if err := cur.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}
