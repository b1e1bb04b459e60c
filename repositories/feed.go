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

type FeedRepository struct {
	coll *mongo.Collection
}

func NewFeedRepository(db *mongo.Database) *FeedRepository {
	return &FeedRepository{coll: db.Collection(database.FeedPostsCollection)}
}

func (r *FeedRepository) Create(ctx context.Context, p *models.FeedPost) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.Likes == nil {
		p.Likes = []primitive.ObjectID{}
	}
	if p.Comments == nil {
		p.Comments = []models.Comment{}
	}
	_, err := r.coll.InsertOne(ctx, p)
	return translate(err)
}

func (r *FeedRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.FeedPost, error) {
	var p models.FeedPost
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *FeedRepository) List(ctx context.Context, after *Cursor, limit int) ([]models.FeedPost, error) {
	filter := bson.M{}
	if after != nil {
		filter["$or"] = bson.A{
			bson.M{"createdAt": bson.M{"$lt": after.CreatedAt}},
			bson.M{"createdAt": after.CreatedAt, "_id": bson.M{"$lt": after.ID}},
		}
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	posts := []models.FeedPost{}
	if err := cur.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// ToggleLike runs two conditional updates so a concurrent toggle can never
// double count: the pull only matches when uid is a member, the add only
// when it is not.
func (r *FeedRepository) ToggleLike(ctx context.Context, id, uid primitive.ObjectID) (bool, int, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	for attempt := 0; attempt < 3; attempt++ {
		var p models.FeedPost
		err := r.coll.FindOneAndUpdate(ctx,
			bson.M{"_id": id, "likes": uid},
			bson.M{"$pull": bson.M{"likes": uid}, "$inc": bson.M{"likeCount": -1}},
			opts,
		).Decode(&p)
		if err == nil {
			return false, p.LikeCount, nil
		}
		if err != mongo.ErrNoDocuments {
			return false, 0, err
		}

		err = r.coll.FindOneAndUpdate(ctx,
			bson.M{"_id": id, "likes": bson.M{"$ne": uid}},
			bson.M{"$addToSet": bson.M{"likes": uid}, "$inc": bson.M{"likeCount": 1}},
			opts,
		).Decode(&p)
		if err == nil {
			return true, p.LikeCount, nil
		}
		if err != mongo.ErrNoDocuments {
			return false, 0, err
		}

		if _, ferr := r.FindByID(ctx, id); ferr != nil {
			return false, 0, ferr
		}
	}
	return false, 0, ErrStale
}

func (r *FeedRepository) AddComment(ctx context.Context, id primitive.ObjectID, c models.Comment) (*models.FeedPost, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p models.FeedPost
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$push": bson.M{"comments": c}, "$inc": bson.M{"commentCount": 1}},
		opts,
	).Decode(&p)
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}
