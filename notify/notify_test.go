package notify

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"linkrite/models"
	"linkrite/repositories"
	"linkrite/repositories/memstore"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func browserKeys(t *testing.T) models.PushKeys {
	t.Helper()
	priv, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)
	secret := make([]byte, 16)
	_, err = rand.Read(secret)
	require.NoError(t, err)
	return models.PushKeys{
		P256dh: base64.RawURLEncoding.EncodeToString(priv.PublicKey().Bytes()),
		Auth:   base64.RawURLEncoding.EncodeToString(secret),
	}
}

func newTestPush(t *testing.T, store repositories.PushStore) *Push {
	t.Helper()
	priv, pub, err := webpush.GenerateVAPIDKeys()
	require.NoError(t, err)
	return NewPush(store, pub, priv, "")
}

func TestPushEnabled(t *testing.T) {
	var nilPush *Push
	assert.False(t, nilPush.Enabled())
	assert.Empty(t, nilPush.PublicKey())
	assert.False(t, NewPush(nil, "pub", "", "").Enabled())
	assert.True(t, NewPush(nil, "pub", "priv", "").Enabled())
}

func TestSubscribeRequiresKeys(t *testing.T) {
	stores := memstore.New()
	p := newTestPush(t, stores.Push)
	uid := primitive.NewObjectID()

	err := p.Subscribe(context.Background(), uid, SubscribeInput{Endpoint: "https://push.example.com/1"})
	assert.ErrorIs(t, err, ErrInvalidSubscription)

	keys := browserKeys(t)
	require.NoError(t, p.Subscribe(context.Background(), uid, SubscribeInput{Endpoint: "https://push.example.com/1", Keys: keys}))
	sub, err := stores.Push.FindByUser(context.Background(), uid)
	require.NoError(t, err)
	assert.Equal(t, keys, sub.Keys)
}

func TestSendDeliversAndDropsExpiredSubscriptions(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusCreated)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.True(t, strings.HasPrefix(r.Header.Get("Authorization"), "vapid "))
		w.WriteHeader(int(status.Load()))
	}))
	defer srv.Close()

	ctx := context.Background()
	stores := memstore.New()
	p := newTestPush(t, stores.Push)
	uid := primitive.NewObjectID()
	require.NoError(t, p.Subscribe(ctx, uid, SubscribeInput{Endpoint: srv.URL + "/push/1", Keys: browserKeys(t)}))

	require.NoError(t, p.Send(ctx, uid, "Hello", "body", nil))
	assert.EqualValues(t, 1, hits.Load())

	status.Store(http.StatusGone)
	require.NoError(t, p.Send(ctx, uid, "Hello", "body", nil))
	_, err := stores.Push.FindByUser(ctx, uid)
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	// No subscription left: nothing is sent.
	require.NoError(t, p.Send(ctx, uid, "Hello", "body", nil))
	assert.EqualValues(t, 2, hits.Load())
}

func TestSendWhenDisabled(t *testing.T) {
	p := NewPush(memstore.New().Push, "", "", "")
	assert.NoError(t, p.Send(context.Background(), primitive.NewObjectID(), "t", "b", nil))
}

func TestMailerEnabled(t *testing.T) {
	var nilMailer *Mailer
	assert.False(t, nilMailer.Enabled())
	assert.NoError(t, nilMailer.Send("a@example.com", "s", "b"))
	assert.True(t, NewMailer(MailConfig{Host: "smtp.example.com", Port: 587, From: "no-reply@example.com"}).Enabled())
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", preview("short"))
	long := strings.Repeat("あ", previewLength+5)
	got := preview(long)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, previewLength+3, len([]rune(got)))
}

func TestNotifierSkipsDisabledChannels(t *testing.T) {
	n := NewNotifier(nil, nil)
	user := &models.User{ID: primitive.NewObjectID(), Email: "a@example.com"}
	assert.NotPanics(t, func() {
		n.NewMessage(context.Background(), user.ID, user, &models.Message{Text: "hi"})
		n.ApplicationStatusChanged(context.Background(), user, &models.Application{Status: models.StatusAccepted})
	})
}
