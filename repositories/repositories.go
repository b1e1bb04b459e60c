// Package repositories holds one store per collection. Mongo-backed
// implementations live here; an in-memory one lives in memstore.
package repositories

import (
	"context"
	"errors"
	"time"

	"linkrite/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
	// ErrStale means a conditional write found the document in a different state.
	ErrStale = errors.New("stale state")
)

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	FindByFirebaseUID(ctx context.Context, uid string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, upd models.ProfileUpdate, now time.Time) (*models.User, error)
	UpdateSignIn(ctx context.Context, id primitive.ObjectID, upd models.SignInUpdate) (*models.User, error)
}

type EarnStore interface {
	Create(ctx context.Context, p *models.EarnPost) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.EarnPost, error)
	List(ctx context.Context, f models.EarnFilter) ([]models.EarnPost, error)
	Update(ctx context.Context, id primitive.ObjectID, upd models.EarnUpdate, now time.Time) (*models.EarnPost, error)
	AddPayout(ctx context.Context, id primitive.ObjectID, amount int64, now time.Time) (*models.EarnPost, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type ApplicationStore interface {
	// Create fails with ErrDuplicate when the applicant already applied to the post.
	Create(ctx context.Context, a *models.Application) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Application, error)
	FindByPostAndApplicant(ctx context.Context, postID, applicantID primitive.ObjectID) (*models.Application, error)
	ListByPost(ctx context.Context, postID primitive.ObjectID) ([]models.Application, error)
	ListByApplicant(ctx context.Context, applicantID primitive.ObjectID) ([]models.Application, error)
	// UpdateStatus writes to only if the stored status is still from, else ErrStale.
	UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.ApplicationStatus, at time.Time) (*models.Application, error)
	// DeletePending removes the application only while it is pending and owned by applicantID.
	DeletePending(ctx context.Context, id, applicantID primitive.ObjectID) error
	DeleteByPost(ctx context.Context, postID primitive.ObjectID) (int64, error)
}

type FeedStore interface {
	Create(ctx context.Context, p *models.FeedPost) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.FeedPost, error)
	// List returns posts strictly older than after (newest first).
	List(ctx context.Context, after *Cursor, limit int) ([]models.FeedPost, error)
	// ToggleLike flips uid's membership in the post's like set.
	ToggleLike(ctx context.Context, id, uid primitive.ObjectID) (liked bool, likeCount int, err error)
	AddComment(ctx context.Context, id primitive.ObjectID, c models.Comment) (*models.FeedPost, error)
}

type DMStore interface {
	// ResolveRoom returns the room for the unordered pair, creating it if needed.
	ResolveRoom(ctx context.Context, a, b primitive.ObjectID, now time.Time) (room *models.DMRoom, created bool, err error)
	FindRoom(ctx context.Context, id primitive.ObjectID) (*models.DMRoom, error)
	ListRooms(ctx context.Context, uid primitive.ObjectID) ([]models.DMRoom, error)
	// AppendMessage stores m and bumps the room summary and the recipient's unread count.
	AppendMessage(ctx context.Context, m *models.Message, recipient primitive.ObjectID) error
	ListMessages(ctx context.Context, roomID primitive.ObjectID) ([]models.Message, error)
	MarkRead(ctx context.Context, roomID, uid primitive.ObjectID) error
}

type LearnStore interface {
	Create(ctx context.Context, p *models.LearnPost) error
	List(ctx context.Context) ([]models.LearnPost, error)
}

type PushStore interface {
	Upsert(ctx context.Context, s *models.PushSubscription) error
	FindByUser(ctx context.Context, uid primitive.ObjectID) (*models.PushSubscription, error)
	DeleteByUser(ctx context.Context, uid primitive.ObjectID) error
}

// Stores bundles every store the services need.
type Stores struct {
	Users        UserStore
	Earn         EarnStore
	Applications ApplicationStore
	Feed         FeedStore
	DM           DMStore
	Learn        LearnStore
	Push         PushStore
}

func NewMongoStores(db *mongo.Database) *Stores {
	return &Stores{
		Users:        NewUserRepository(db),
		Earn:         NewEarnRepository(db),
		Applications: NewApplicationRepository(db),
		Feed:         NewFeedRepository(db),
		DM:           NewDMRepository(db),
		Learn:        NewLearnRepository(db),
		Push:         NewPushRepository(db),
	}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	}
	return err
}
