package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"linkrite/models"
	"linkrite/repositories"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrInvalidSubscription = errors.New("subscription keys are required")

// Push sends Web Push notifications signed with the server's VAPID keys.
type Push struct {
	store      repositories.PushStore
	publicKey  string
	privateKey string
	subject    string
}

func NewPush(store repositories.PushStore, publicKey, privateKey, subject string) *Push {
	if subject == "" {
		subject = "mailto:admin@linkrite.app"
	}
	return &Push{store: store, publicKey: publicKey, privateKey: privateKey, subject: subject}
}

// Enabled is false when no VAPID key pair is configured.
func (p *Push) Enabled() bool {
	return p != nil && p.publicKey != "" && p.privateKey != ""
}

func (p *Push) PublicKey() string {
	if p == nil {
		return ""
	}
	return p.publicKey
}

type SubscribeInput struct {
	Endpoint string          `json:"endpoint" binding:"required,url"`
	Keys     models.PushKeys `json:"keys" binding:"required"`
}

func (p *Push) Subscribe(ctx context.Context, uid primitive.ObjectID, in SubscribeInput) error {
	if in.Keys.P256dh == "" || in.Keys.Auth == "" {
		return ErrInvalidSubscription
	}
	return p.store.Upsert(ctx, &models.PushSubscription{
		UserID:    uid,
		Endpoint:  in.Endpoint,
		Keys:      in.Keys,
		UpdatedAt: time.Now().UTC(),
	})
}

type pushPayload struct {
	Title string                 `json:"title"`
	Body  string                 `json:"body"`
	Data  map[string]interface{} `json:"data,omitempty"`
}

// Send delivers one notification to uid's browser. Expired subscriptions are removed.
func (p *Push) Send(ctx context.Context, uid primitive.ObjectID, title, body string, data map[string]interface{}) error {
	if !p.Enabled() {
		return nil
	}
	sub, err := p.store.FindByUser(ctx, uid)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find push subscription: %w", err)
	}

	payload, err := json.Marshal(pushPayload{Title: title, Body: body, Data: data})
	if err != nil {
		return err
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys:     webpush.Keys{P256dh: sub.Keys.P256dh, Auth: sub.Keys.Auth},
	}, &webpush.Options{
		Subscriber:      p.subject,
		VAPIDPublicKey:  p.publicKey,
		VAPIDPrivateKey: p.privateKey,
		TTL:             30,
	})
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
		log.Info().Str("userId", uid.Hex()).Msg("push subscription expired, deleting")
		return p.store.DeleteByUser(ctx, uid)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("push service returned %d", resp.StatusCode)
	}
	return nil
}
