package services

import (
	"context"

	"linkrite/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Real-time event types pushed to connected clients.
const (
	EventMessageCreated     = "message.created"
	EventRoomCreated        = "room.created"
	EventFeedCreated        = "feed.created"
	EventFeedUpdated        = "feed.updated"
	EventApplicationCreated = "application.created"
	EventApplicationStatus  = "application.status"
)

// Publisher fans an event out to the given users, or to everyone when no
// recipients are named.
type Publisher interface {
	Publish(eventType string, payload interface{}, recipients ...primitive.ObjectID)
}

// Notifier delivers out-of-band notifications. Implementations must not block
// the caller on network I/O.
type Notifier interface {
	NewMessage(ctx context.Context, recipient primitive.ObjectID, sender *models.User, msg *models.Message)
	ApplicationStatusChanged(ctx context.Context, applicant *models.User, app *models.Application)
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, interface{}, ...primitive.ObjectID) {}

type nopNotifier struct{}

func (nopNotifier) NewMessage(context.Context, primitive.ObjectID, *models.User, *models.Message) {}

func (nopNotifier) ApplicationStatusChanged(context.Context, *models.User, *models.Application) {}
