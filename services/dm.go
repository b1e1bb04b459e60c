package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"linkrite/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DMService struct {
	deps Deps
}

// RoomSummary is a room as listed for one of its members.
type RoomSummary struct {
	models.DMRoom
	Partner models.User `json:"partner"`
	Unread  int         `json:"unread"`
}

// RoomDetail is a room with its messages, oldest first.
type RoomDetail struct {
	RoomSummary
	Messages []models.Message `json:"messages"`
}

// OpenRoom returns the single room shared by uid and target, creating it on
// first contact. The same room comes back regardless of who opens it.
func (s *DMService) OpenRoom(ctx context.Context, uid, target primitive.ObjectID) (*models.DMRoom, error) {
	if uid == target {
		return nil, invalid("cannot message yourself")
	}
	if _, err := s.deps.Stores.Users.FindByID(ctx, target); err != nil {
		return nil, fromStore(err, "user")
	}

	room, created, err := s.deps.Stores.DM.ResolveRoom(ctx, uid, target, s.deps.Now())
	if err != nil {
		return nil, fromStore(err, "resolve room")
	}
	if created {
		s.deps.Publisher.Publish(EventRoomCreated, room, uid, target)
	}
	return room, nil
}

func (s *DMService) ListRooms(ctx context.Context, uid primitive.ObjectID) ([]RoomSummary, error) {
	rooms, err := s.deps.Stores.DM.ListRooms(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}

	partnerIDs := make([]primitive.ObjectID, 0, len(rooms))
	for i := range rooms {
		partnerIDs = append(partnerIDs, rooms[i].OtherMember(uid))
	}
	partners, err := s.deps.Stores.Users.FindByIDs(ctx, partnerIDs)
	if err != nil {
		return nil, fmt.Errorf("load partners: %w", err)
	}

	out := make([]RoomSummary, 0, len(rooms))
	for i := range rooms {
		out = append(out, summarize(&rooms[i], uid, partners[rooms[i].OtherMember(uid)]))
	}
	return out, nil
}

func summarize(room *models.DMRoom, uid primitive.ObjectID, partner *models.User) RoomSummary {
	sum := RoomSummary{DMRoom: *room, Unread: room.UnreadCount[uid.Hex()]}
	if partner != nil {
		sum.Partner = partner.Public()
	} else {
		sum.Partner = models.User{ID: room.OtherMember(uid), DisplayName: models.AnonymousName, Skills: []string{}}
	}
	return sum
}

// member loads a room and checks that uid belongs to it.
func (s *DMService) member(ctx context.Context, uid, roomID primitive.ObjectID) (*models.DMRoom, error) {
	room, err := s.deps.Stores.DM.FindRoom(ctx, roomID)
	if err != nil {
		return nil, fromStore(err, "room")
	}
	if !room.HasMember(uid) {
		return nil, fmt.Errorf("%w: not a member of this room", ErrForbidden)
	}
	return room, nil
}

// Open returns the room with its messages and clears the caller's unread count.
func (s *DMService) Open(ctx context.Context, uid, roomID primitive.ObjectID) (*RoomDetail, error) {
	room, err := s.member(ctx, uid, roomID)
	if err != nil {
		return nil, err
	}
	msgs, err := s.deps.Stores.DM.ListMessages(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	if err := s.deps.Stores.DM.MarkRead(ctx, roomID, uid); err != nil {
		return nil, fromStore(err, "room")
	}
	if room.UnreadCount == nil {
		room.UnreadCount = map[string]int{}
	}
	room.UnreadCount[uid.Hex()] = 0

	partner, _ := s.deps.Stores.Users.FindByID(ctx, room.OtherMember(uid))
	return &RoomDetail{RoomSummary: summarize(room, uid, partner), Messages: msgs}, nil
}

func (s *DMService) Messages(ctx context.Context, uid, roomID primitive.ObjectID) ([]models.Message, error) {
	if _, err := s.member(ctx, uid, roomID); err != nil {
		return nil, err
	}
	msgs, err := s.deps.Stores.DM.ListMessages(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

func (s *DMService) Send(ctx context.Context, uid, roomID primitive.ObjectID, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalid("message text is required")
	}
	if utf8.RuneCountInString(text) > models.MaxMessageLength {
		return nil, invalid("message must be at most %d characters", models.MaxMessageLength)
	}

	room, err := s.member(ctx, uid, roomID)
	if err != nil {
		return nil, err
	}
	recipient := room.OtherMember(uid)

	msg := &models.Message{
		RoomID:    roomID,
		SenderID:  uid,
		Text:      text,
		CreatedAt: s.deps.Now(),
	}
	if err := s.deps.Stores.DM.AppendMessage(ctx, msg, recipient); err != nil {
		return nil, fromStore(err, "send message")
	}

	s.deps.Publisher.Publish(EventMessageCreated, msg, uid, recipient)
	if sender, err := s.deps.Stores.Users.FindByID(ctx, uid); err == nil {
		s.deps.Notifier.NewMessage(ctx, recipient, sender, msg)
	}
	return msg, nil
}
