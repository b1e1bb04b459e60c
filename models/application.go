package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ApplicationStatus string

const (
	StatusPending   ApplicationStatus = "pending"
	StatusAccepted  ApplicationStatus = "accepted"
	StatusApproved  ApplicationStatus = "approved"
	StatusRejected  ApplicationStatus = "rejected"
	StatusCompleted ApplicationStatus = "completed"
)

type Application struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PostID        primitive.ObjectID `bson:"postId" json:"postId"`
	PostTitle     string             `bson:"postTitle" json:"postTitle"`
	ApplicantID   primitive.ObjectID `bson:"applicantId" json:"applicantId"`
	ApplicantName string             `bson:"applicantName" json:"applicantName"`
	Message       string             `bson:"message" json:"message"`
	Status        ApplicationStatus  `bson:"status" json:"status"`
	AppliedAt     time.Time          `bson:"appliedAt" json:"appliedAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}
