package repositories

import (
	"context"
	"regexp"
	"time"

	"linkrite/database"
	"linkrite/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type EarnRepository struct {
	coll *mongo.Collection
}

func NewEarnRepository(db *mongo.Database) *EarnRepository {
	return &EarnRepository{coll: db.Collection(database.EarnPostsCollection)}
}

func (r *EarnRepository) Create(ctx context.Context, p *models.EarnPost) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, p)
	return translate(err)
}

func (r *EarnRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.EarnPost, error) {
	var p models.EarnPost
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *EarnRepository) List(ctx context.Context, f models.EarnFilter) ([]models.EarnPost, error) {
	filter := bson.M{}
	if f.Query != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(f.Query), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"description": pattern},
		}
	}
	if f.Platform != "" {
		filter["platform"] = f.Platform
	}
	if !f.AuthorID.IsZero() {
		filter["authorId"] = f.AuthorID
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	posts := []models.EarnPost{}
	if err := cur.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *EarnRepository) Update(ctx context.Context, id primitive.ObjectID, upd models.EarnUpdate, now time.Time) (*models.EarnPost, error) {
	set := bson.M{"updatedAt": now}
	if upd.Title != nil {
		set["title"] = *upd.Title
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Budget != nil {
		set["budget"] = *upd.Budget
		set["totalBudget"] = *upd.Budget
	}
	if upd.Platform != nil {
		set["platform"] = *upd.Platform
	}
	if upd.Reward != nil {
		set["reward"] = *upd.Reward
	}
	return r.findAndUpdate(ctx, id, bson.M{"$set": set})
}

func (r *EarnRepository) AddPayout(ctx context.Context, id primitive.ObjectID, amount int64, now time.Time) (*models.EarnPost, error) {
	return r.findAndUpdate(ctx, id, bson.M{
		"$inc": bson.M{"paidOut": amount},
		"$set": bson.M{"updatedAt": now},
	})
}

func (r *EarnRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *EarnRepository) findAndUpdate(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.EarnPost, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p models.EarnPost
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&p); err != nil {
		return nil, translate(err)
	}
	return &p, nil
}
