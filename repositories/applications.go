package repositories

import (
	"context"
	"time"

	"linkrite/database"
	"linkrite/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ApplicationRepository struct {
	coll *mongo.Collection
}

func NewApplicationRepository(db *mongo.Database) *ApplicationRepository {
	return &ApplicationRepository{coll: db.Collection(database.ApplicationsCollection)}
}

func (r *ApplicationRepository) Create(ctx context.Context, a *models.Application) error {
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, a)
	return translate(err)
}

func (r *ApplicationRepository) findOne(ctx context.Context, filter bson.M) (*models.Application, error) {
	var a models.Application
	if err := r.coll.FindOne(ctx, filter).Decode(&a); err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *ApplicationRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Application, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *ApplicationRepository) FindByPostAndApplicant(ctx context.Context, postID, applicantID primitive.ObjectID) (*models.Application, error) {
	return r.findOne(ctx, bson.M{"postId": postID, "applicantId": applicantID})
}

func (r *ApplicationRepository) ListByPost(ctx context.Context, postID primitive.ObjectID) ([]models.Application, error) {
	return r.list(ctx, bson.M{"postId": postID})
}

func (r *ApplicationRepository) ListByApplicant(ctx context.Context, applicantID primitive.ObjectID) ([]models.Application, error) {
	return r.list(ctx, bson.M{"applicantId": applicantID})
}

func (r *ApplicationRepository) list(ctx context.Context, filter bson.M) ([]models.Application, error) {
	opts := options.Find().SetSort(bson.D{{Key: "appliedAt", Value: -1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	apps := []models.Application{}
	if err := cur.All(ctx, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.ApplicationStatus, at time.Time) (*models.Application, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	filter := bson.M{"_id": id, "status": from}
	update := bson.M{"$set": bson.M{"status": to, "updatedAt": at}}

	var a models.Application
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&a)
	if err == mongo.ErrNoDocuments {
		if _, ferr := r.FindByID(ctx, id); ferr != nil {
			return nil, ferr
		}
		return nil, ErrStale
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *ApplicationRepository) DeletePending(ctx context.Context, id, applicantID primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{
		"_id":         id,
		"applicantId": applicantID,
		"status":      models.StatusPending,
	})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		if _, ferr := r.FindByID(ctx, id); ferr != nil {
			return ferr
		}
		return ErrStale
	}
	return nil
}

func (r *ApplicationRepository) DeleteByPost(ctx context.Context, postID primitive.ObjectID) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"postId": postID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
