package repositories

import (
	"context"
	"sort"
	"time"

	"linkrite/database"
	"linkrite/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type DMRepository struct {
	rooms    *mongo.Collection
	messages *mongo.Collection
}

func NewDMRepository(db *mongo.Database) *DMRepository {
	return &DMRepository{
		rooms:    db.Collection(database.DMRoomsCollection),
		messages: db.Collection(database.MessagesCollection),
	}
}

func (r *DMRepository) ResolveRoom(ctx context.Context, a, b primitive.ObjectID, now time.Time) (*models.DMRoom, bool, error) {
	key := models.MemberKey(a, b)

	// Rooms written before memberKey existed are matched on membership instead.
	if legacy, err := r.findLegacy(ctx, a, b); err != nil {
		return nil, false, err
	} else if legacy != nil {
		return legacy, false, nil
	}

	newID := primitive.NewObjectID()
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	// memberKey is seeded from the equality filter on insert.
	update := bson.M{"$setOnInsert": bson.M{
		"_id":         newID,
		"members":     []primitive.ObjectID{a, b},
		"lastMessage": "",
		"unreadCount": map[string]int{a.Hex(): 0, b.Hex(): 0},
		"createdAt":   now,
	}}

	var room models.DMRoom
	err := r.rooms.FindOneAndUpdate(ctx, bson.M{"memberKey": key}, update, opts).Decode(&room)
	if mongo.IsDuplicateKeyError(err) {
		// Lost the upsert race; the winner's room is there now.
		err = r.rooms.FindOne(ctx, bson.M{"memberKey": key}).Decode(&room)
	}
	if err != nil {
		return nil, false, translate(err)
	}
	return &room, room.ID == newID, nil
}

func (r *DMRepository) findLegacy(ctx context.Context, a, b primitive.ObjectID) (*models.DMRoom, error) {
	filter := bson.M{
		"members":   bson.M{"$all": bson.A{a, b}, "$size": 2},
		"memberKey": bson.M{"$exists": false},
	}
	var room models.DMRoom
	err := r.rooms.FindOne(ctx, filter).Decode(&room)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *DMRepository) FindRoom(ctx context.Context, id primitive.ObjectID) (*models.DMRoom, error) {
	var room models.DMRoom
	if err := r.rooms.FindOne(ctx, bson.M{"_id": id}).Decode(&room); err != nil {
		return nil, translate(err)
	}
	return &room, nil
}

func (r *DMRepository) ListRooms(ctx context.Context, uid primitive.ObjectID) ([]models.DMRoom, error) {
	cur, err := r.rooms.Find(ctx, bson.M{"members": uid})
	if err != nil {
		return nil, err
	}
	rooms := []models.DMRoom{}
	if err := cur.All(ctx, &rooms); err != nil {
		return nil, err
	}
	sort.SliceStable(rooms, func(i, j int) bool {
		return rooms[i].SortKey().After(rooms[j].SortKey())
	})
	return rooms, nil
}

func (r *DMRepository) AppendMessage(ctx context.Context, m *models.Message, recipient primitive.ObjectID) error {
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	if _, err := r.messages.InsertOne(ctx, m); err != nil {
		return translate(err)
	}

	res, err := r.rooms.UpdateOne(ctx, bson.M{"_id": m.RoomID}, bson.M{
		"$set": bson.M{
			"lastMessage":       m.Text,
			"lastMessageAt":     m.CreatedAt,
			"lastMessageSender": m.SenderID,
		},
		"$inc": bson.M{"unreadCount." + recipient.Hex(): 1},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *DMRepository) ListMessages(ctx context.Context, roomID primitive.ObjectID) ([]models.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.messages.Find(ctx, bson.M{"roomId": roomID}, opts)
	if err != nil {
		return nil, err
	}
	msgs := []models.Message{}
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *DMRepository) MarkRead(ctx context.Context, roomID, uid primitive.ObjectID) error {
	res, err := r.rooms.UpdateOne(ctx,
		bson.M{"_id": roomID},
		bson.M{"$set": bson.M{"unreadCount." + uid.Hex(): 0}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
