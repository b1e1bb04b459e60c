// Package notify delivers web push and e-mail notifications outside the
// request path.
package notify

import (
	"context"
	"fmt"
	"html"
	"time"

	"linkrite/models"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	sendTimeout   = 10 * time.Second
	previewLength = 100
)

// Notifier fans domain events out to push and mail. Either channel may be nil.
type Notifier struct {
	push   *Push
	mailer *Mailer
}

func NewNotifier(push *Push, mailer *Mailer) *Notifier {
	return &Notifier{push: push, mailer: mailer}
}

// detach runs fn in its own goroutine with a fresh deadline; the request
// context is usually cancelled before delivery finishes.
func detach(what string, fn func(ctx context.Context) error) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("notification", what).Msg("notification panicked")
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			log.Warn().Err(err).Str("notification", what).Msg("notification failed")
		}
	}()
}

func (n *Notifier) NewMessage(_ context.Context, recipient primitive.ObjectID, sender *models.User, msg *models.Message) {
	if !n.push.Enabled() {
		return
	}
	title := sender.NameOrAnonymous() + " sent a message"
	body := preview(msg.Text)
	data := map[string]interface{}{
		"url":       "/dm/" + msg.RoomID.Hex(),
		"roomId":    msg.RoomID.Hex(),
		"timestamp": msg.CreatedAt.Unix(),
	}
	detach("message push", func(ctx context.Context) error {
		return n.push.Send(ctx, recipient, title, body, data)
	})
}

func (n *Notifier) ApplicationStatusChanged(_ context.Context, applicant *models.User, app *models.Application) {
	body := fmt.Sprintf("Your application to %q is now %s.", app.PostTitle, app.Status)

	if n.push.Enabled() {
		data := map[string]interface{}{"url": "/applications", "applicationId": app.ID.Hex()}
		detach("status push", func(ctx context.Context) error {
			return n.push.Send(ctx, applicant.ID, "Application updated", body, data)
		})
	}
	if n.mailer.Enabled() && applicant.Email != "" {
		to := applicant.Email
		htmlBody := "<p>" + html.EscapeString(body) + "</p>"
		detach("status mail", func(context.Context) error {
			return n.mailer.Send(to, "Your Linkrite application was updated", htmlBody)
		})
	}
}

func preview(text string) string {
	r := []rune(text)
	if len(r) <= previewLength {
		return text
	}
	return string(r[:previewLength]) + "..."
}
