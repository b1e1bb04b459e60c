package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ProviderEmail    = "email"
	ProviderGoogle   = "google"
	ProviderFirebase = "firebase"
)

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email,omitempty" json:"email,omitempty"`
	PasswordHash *string            `bson:"passwordHash,omitempty" json:"-"`
	AuthProvider string             `bson:"authProvider" json:"authProvider"`
	GoogleID     string             `bson:"googleId,omitempty" json:"-"`
	FirebaseUID  string             `bson:"firebaseUid,omitempty" json:"-"`

	// Profile fields
	Username    string   `bson:"username" json:"username"`
	DisplayName string   `bson:"displayName" json:"displayName"`
	PhotoURL    string   `bson:"photoURL" json:"photoURL"`
	Bio         string   `bson:"bio" json:"bio"`
	Location    string   `bson:"location" json:"location"`
	Occupation  string   `bson:"occupation" json:"occupation"`
	Skills      []string `bson:"skills" json:"skills"`

	// Social handles
	Website   string `bson:"website" json:"website"`
	Twitter   string `bson:"twitter" json:"twitter"`
	GitHub    string `bson:"github" json:"github"`
	Instagram string `bson:"instagram" json:"instagram"`
	YouTube   string `bson:"youtube" json:"youtube"`
	TikTok    string `bson:"tiktok" json:"tiktok"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
	LastSeen  time.Time `bson:"lastSeen" json:"lastSeen"`
}

// Public returns a copy safe to show to other users.
func (u User) Public() User {
	u.Email = ""
	u.PasswordHash = nil
	if u.Skills == nil {
		u.Skills = []string{}
	}
	return u
}

// NameOrAnonymous mirrors the display fallback used on every author field.
func (u *User) NameOrAnonymous() string {
	if u == nil {
		return AnonymousName
	}
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if u.Username != "" {
		return u.Username
	}
	return AnonymousName
}

const AnonymousName = "匿名"

// SignInUpdate carries the fields refreshed on every federated sign-in.
// Empty strings leave the stored value untouched.
type SignInUpdate struct {
	AuthProvider string
	GoogleID     string
	FirebaseUID  string
	PhotoURL     string
	At           time.Time
}
