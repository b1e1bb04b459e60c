package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DMRoom struct {
	ID                primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Members           []primitive.ObjectID `bson:"members" json:"members"`
	MemberKey         string               `bson:"memberKey" json:"-"`
	LastMessage       string               `bson:"lastMessage" json:"lastMessage"`
	LastMessageAt     *time.Time           `bson:"lastMessageAt,omitempty" json:"lastMessageAt,omitempty"`
	LastMessageSender primitive.ObjectID   `bson:"lastMessageSender,omitempty" json:"lastMessageSender,omitempty"`
	UnreadCount       map[string]int       `bson:"unreadCount" json:"unreadCount"`
	CreatedAt         time.Time            `bson:"createdAt" json:"createdAt"`
}

// MemberKey is the order-independent identity of a two-member room.
func MemberKey(a, b primitive.ObjectID) string {
	x, y := a.Hex(), b.Hex()
	if y < x {
		x, y = y, x
	}
	return x + ":" + y
}

func (r *DMRoom) HasMember(uid primitive.ObjectID) bool {
	for _, m := range r.Members {
		if m == uid {
			return true
		}
	}
	return false
}

// OtherMember returns the member that is not uid, or NilObjectID.
func (r *DMRoom) OtherMember(uid primitive.ObjectID) primitive.ObjectID {
	for _, m := range r.Members {
		if m != uid {
			return m
		}
	}
	return primitive.NilObjectID
}

// SortKey orders rooms without any message by creation time.
func (r *DMRoom) SortKey() time.Time {
	if r.LastMessageAt != nil {
		return *r.LastMessageAt
	}
	return r.CreatedAt
}
