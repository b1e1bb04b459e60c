package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"linkrite/models"
	"linkrite/repositories"
	"linkrite/repositories/memstore"
	"linkrite/session"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type publishedEvent struct {
	Type       string
	Payload    interface{}
	Recipients []primitive.ObjectID
}

type eventRecorder struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (r *eventRecorder) Publish(eventType string, payload interface{}, recipients ...primitive.ObjectID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, publishedEvent{Type: eventType, Payload: payload, Recipients: recipients})
}

func (r *eventRecorder) ofType(eventType string) []publishedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []publishedEvent
	for _, e := range r.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

type notifierRecorder struct {
	mu       sync.Mutex
	messages int
	statuses []models.ApplicationStatus
}

func (n *notifierRecorder) NewMessage(context.Context, primitive.ObjectID, *models.User, *models.Message) {
	n.mu.Lock()
	n.messages++
	n.mu.Unlock()
}

func (n *notifierRecorder) ApplicationStatusChanged(_ context.Context, _ *models.User, app *models.Application) {
	n.mu.Lock()
	n.statuses = append(n.statuses, app.Status)
	n.mu.Unlock()
}

type fixture struct {
	svc      *Services
	stores   *repositories.Stores
	sessions *session.Manager
	events   *eventRecorder
	notes    *notifierRecorder
}

// newFixture wires services over an in-memory store with a clock that
// advances one second per reading.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	var mu sync.Mutex
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	now := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	}

	f := &fixture{
		stores:   memstore.New(),
		sessions: session.NewManager("test-secret-at-least-16", time.Hour, nil),
		events:   &eventRecorder{},
		notes:    &notifierRecorder{},
	}
	f.svc = New(Deps{
		Stores:    f.stores,
		Sessions:  f.sessions,
		Publisher: f.events,
		Notifier:  f.notes,
		Now:       now,
	})
	return f
}

func (f *fixture) user(t *testing.T, name string) *models.User {
	t.Helper()
	u := &models.User{
		Email:        name + "@example.com",
		AuthProvider: models.ProviderEmail,
		Username:     name,
		DisplayName:  name,
		Skills:       []string{},
	}
	require.NoError(t, f.stores.Users.Create(context.Background(), u))
	return u
}

func (f *fixture) earnPost(t *testing.T, author *models.User, budget int64) *models.EarnPost {
	t.Helper()
	post, err := f.svc.Earn.Create(context.Background(), author.ID, EarnInput{
		Title:       "Edit my travel vlog",
		Description: "Ten minute cut with captions",
		Budget:      budget,
		Platform:    "YouTube",
	})
	require.NoError(t, err)
	return post
}
