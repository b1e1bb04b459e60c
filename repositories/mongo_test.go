package repositories

import (
	"context"
	"testing"
	"time"

	"linkrite/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

const mockNS = "linkrite.mock"

func mockDB(t *testing.T) *mtest.T {
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

// noMatch is a findAndModify reply whose filter matched nothing.
func noMatch() bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil})
}

func matched(doc bson.D) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "value", Value: doc})
}

func found(docs ...bson.D) bson.D {
	return mtest.CreateCursorResponse(0, mockNS, mtest.FirstBatch, docs...)
}

func duplicateKey() bson.D {
	return mtest.CreateCommandErrorResponse(mtest.CommandError{
		Code:    11000,
		Name:    "DuplicateKey",
		Message: "E11000 duplicate key error",
	})
}

func TestResolveRoomMongo(t *testing.T) {
	mt := mockDB(t)
	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	ctx := context.Background()

	mt.Run("legacy room by membership", func(mt *mtest.T) {
		legacyID := primitive.NewObjectID()
		mt.AddMockResponses(found(bson.D{{Key: "_id", Value: legacyID}, {Key: "members", Value: bson.A{b, a}}}))

		room, created, err := NewDMRepository(mt.DB).ResolveRoom(ctx, a, b, time.Now())
		require.NoError(mt, err)
		assert.False(mt, created)
		assert.Equal(mt, legacyID, room.ID)

		ev := mt.GetStartedEvent()
		require.NotNil(mt, ev)
		assert.Equal(mt, "find", ev.CommandName)
		assert.Equal(mt, int32(2), ev.Command.Lookup("filter", "members", "$size").Int32())
		assert.False(mt, ev.Command.Lookup("filter", "memberKey", "$exists").Boolean())
		assert.Nil(mt, mt.GetStartedEvent(), "no upsert once a legacy room matches")
	})

	mt.Run("upsert on member key", func(mt *mtest.T) {
		roomID := primitive.NewObjectID()
		mt.AddMockResponses(
			found(),
			matched(bson.D{{Key: "_id", Value: roomID}, {Key: "memberKey", Value: models.MemberKey(a, b)}}),
		)

		room, _, err := NewDMRepository(mt.DB).ResolveRoom(ctx, b, a, time.Now())
		require.NoError(mt, err)
		assert.Equal(mt, roomID, room.ID)

		mt.GetStartedEvent()
		ev := mt.GetStartedEvent()
		require.NotNil(mt, ev)
		assert.Equal(mt, "findAndModify", ev.CommandName)
		assert.Equal(mt, models.MemberKey(a, b), ev.Command.Lookup("query", "memberKey").StringValue())
		assert.True(mt, ev.Command.Lookup("upsert").Boolean())
		members, err := ev.Command.Lookup("update", "$setOnInsert", "members").Array().Values()
		require.NoError(mt, err)
		assert.Len(mt, members, 2)
	})

	mt.Run("duplicate key re-reads the winner", func(mt *mtest.T) {
		winner := primitive.NewObjectID()
		mt.AddMockResponses(
			found(),
			duplicateKey(),
			found(bson.D{{Key: "_id", Value: winner}, {Key: "memberKey", Value: models.MemberKey(a, b)}}),
		)

		room, created, err := NewDMRepository(mt.DB).ResolveRoom(ctx, a, b, time.Now())
		require.NoError(mt, err)
		assert.False(mt, created)
		assert.Equal(mt, winner, room.ID)
	})

	mt.Run("duplicate key without a winner", func(mt *mtest.T) {
		mt.AddMockResponses(found(), duplicateKey(), found())

		_, _, err := NewDMRepository(mt.DB).ResolveRoom(ctx, a, b, time.Now())
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}

func TestToggleLikeMongo(t *testing.T) {
	mt := mockDB(t)
	postID, uid := primitive.NewObjectID(), primitive.NewObjectID()
	ctx := context.Background()

	mt.Run("unlike when a member", func(mt *mtest.T) {
		mt.AddMockResponses(matched(bson.D{{Key: "_id", Value: postID}, {Key: "likeCount", Value: 2}}))

		liked, count, err := NewFeedRepository(mt.DB).ToggleLike(ctx, postID, uid)
		require.NoError(mt, err)
		assert.False(mt, liked)
		assert.Equal(mt, 2, count)

		ev := mt.GetStartedEvent()
		require.NotNil(mt, ev)
		assert.Equal(mt, uid, ev.Command.Lookup("query", "likes").ObjectID())
		assert.Equal(mt, int32(-1), ev.Command.Lookup("update", "$inc", "likeCount").Int32())
	})

	mt.Run("like when not a member", func(mt *mtest.T) {
		mt.AddMockResponses(noMatch(), matched(bson.D{{Key: "_id", Value: postID}, {Key: "likeCount", Value: 3}}))

		liked, count, err := NewFeedRepository(mt.DB).ToggleLike(ctx, postID, uid)
		require.NoError(mt, err)
		assert.True(mt, liked)
		assert.Equal(mt, 3, count)

		mt.GetStartedEvent()
		ev := mt.GetStartedEvent()
		require.NotNil(mt, ev)
		assert.Equal(mt, uid, ev.Command.Lookup("query", "likes", "$ne").ObjectID())
		assert.Equal(mt, uid, ev.Command.Lookup("update", "$addToSet", "likes").ObjectID())
	})

	mt.Run("missing post", func(mt *mtest.T) {
		mt.AddMockResponses(noMatch(), noMatch(), found())

		_, _, err := NewFeedRepository(mt.DB).ToggleLike(ctx, postID, uid)
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("gives up while membership keeps flipping", func(mt *mtest.T) {
		post := bson.D{{Key: "_id", Value: postID}}
		for i := 0; i < 3; i++ {
			mt.AddMockResponses(noMatch(), noMatch(), found(post))
		}

		_, _, err := NewFeedRepository(mt.DB).ToggleLike(ctx, postID, uid)
		assert.ErrorIs(mt, err, ErrStale)
	})
}

func TestApplicationStatusMongo(t *testing.T) {
	mt := mockDB(t)
	appID := primitive.NewObjectID()
	ctx := context.Background()
	now := time.Now()

	mt.Run("compare and set", func(mt *mtest.T) {
		mt.AddMockResponses(matched(bson.D{{Key: "_id", Value: appID}, {Key: "status", Value: "accepted"}}))

		app, err := NewApplicationRepository(mt.DB).UpdateStatus(ctx, appID, models.StatusPending, models.StatusAccepted, now)
		require.NoError(mt, err)
		assert.Equal(mt, models.StatusAccepted, app.Status)

		ev := mt.GetStartedEvent()
		require.NotNil(mt, ev)
		assert.Equal(mt, appID, ev.Command.Lookup("query", "_id").ObjectID())
		assert.Equal(mt, "pending", ev.Command.Lookup("query", "status").StringValue())
		assert.Equal(mt, "accepted", ev.Command.Lookup("update", "$set", "status").StringValue())
	})

	mt.Run("status moved underneath", func(mt *mtest.T) {
		mt.AddMockResponses(noMatch(), found(bson.D{{Key: "_id", Value: appID}, {Key: "status", Value: "rejected"}}))

		_, err := NewApplicationRepository(mt.DB).UpdateStatus(ctx, appID, models.StatusPending, models.StatusAccepted, now)
		assert.ErrorIs(mt, err, ErrStale)
	})

	mt.Run("unknown application", func(mt *mtest.T) {
		mt.AddMockResponses(noMatch(), found())

		_, err := NewApplicationRepository(mt.DB).UpdateStatus(ctx, appID, models.StatusPending, models.StatusAccepted, now)
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}

func TestDeletePendingMongo(t *testing.T) {
	mt := mockDB(t)
	appID, applicant := primitive.NewObjectID(), primitive.NewObjectID()
	ctx := context.Background()

	mt.Run("deletes a pending application", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		require.NoError(mt, NewApplicationRepository(mt.DB).DeletePending(ctx, appID, applicant))

		ev := mt.GetStartedEvent()
		require.NotNil(mt, ev)
		assert.Equal(mt, "delete", ev.CommandName)
		assert.Equal(mt, applicant, ev.Command.Lookup("deletes", "0", "q", "applicantId").ObjectID())
		assert.Equal(mt, "pending", ev.Command.Lookup("deletes", "0", "q", "status").StringValue())
	})

	mt.Run("no longer pending", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
			found(bson.D{{Key: "_id", Value: appID}, {Key: "status", Value: "accepted"}}),
		)

		err := NewApplicationRepository(mt.DB).DeletePending(ctx, appID, applicant)
		assert.ErrorIs(mt, err, ErrStale)
	})

	mt.Run("unknown application", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}), found())

		err := NewApplicationRepository(mt.DB).DeletePending(ctx, appID, applicant)
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}

func TestApplyTwiceMongo(t *testing.T) {
	mt := mockDB(t)

	mt.Run("duplicate insert", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error",
		}))

		err := NewApplicationRepository(mt.DB).Create(context.Background(), &models.Application{
			PostID:      primitive.NewObjectID(),
			ApplicantID: primitive.NewObjectID(),
			Status:      models.StatusPending,
		})
		assert.ErrorIs(mt, err, ErrDuplicate)
	})
}
