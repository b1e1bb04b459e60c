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

type PushRepository struct {
	coll *mongo.Collection
}

func NewPushRepository(db *mongo.Database) *PushRepository {
	return &PushRepository{coll: db.Collection(database.PushSubsCollection)}
}

// Upsert keeps one subscription per user; a new browser replaces the old one.
func (r *PushRepository) Upsert(ctx context.Context, s *models.PushSubscription) error {
	opts := options.Update().SetUpsert(true)
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"userId": s.UserID},
		bson.M{"$set": bson.M{
			"endpoint":  s.Endpoint,
			"keys":      s.Keys,
			"updatedAt": s.UpdatedAt,
		}},
		opts,
	)
	return translate(err)
}

func (r *PushRepository) FindByUser(ctx context.Context, uid primitive.ObjectID) (*models.PushSubscription, error) {
	var s models.PushSubscription
	if err := r.coll.FindOne(ctx, bson.M{"userId": uid}).Decode(&s); err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *PushRepository) DeleteByUser(ctx context.Context, uid primitive.ObjectID) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"userId": uid})
	return err
}
