package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"linkrite/handlers"
	"linkrite/notify"
	"linkrite/repositories/memstore"
	"linkrite/services"
	"linkrite/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAPI struct {
	t      *testing.T
	router *gin.Engine
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	stores := memstore.New()
	sessions := session.NewManager("test-secret-at-least-16", time.Hour, nil)
	svc := services.New(services.Deps{Stores: stores, Sessions: sessions})
	h := handlers.New(svc, notify.NewPush(stores.Push, "", "", ""), handlers.PublicConfig{
		Firebase:             map[string]string{"projectId": "linkrite"},
		StripePublishableKey: "pk_test_123",
	})
	return &testAPI{t: t, router: SetupRouter(Deps{Handler: h, Sessions: sessions})}
}

func (a *testAPI) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	a.t.Helper()
	var req *http.Request
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		req = httptest.NewRequest(method, path, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 && w.Body.Bytes()[0] == '{' {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func (a *testAPI) list(path, token string) []interface{} {
	a.t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	var out []interface{}
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// signup creates an account and returns its token and user id.
func (a *testAPI) signup(name string) (string, string) {
	a.t.Helper()
	w, body := a.do(http.MethodPost, "/api/auth/signup", "", gin.H{
		"email":    name + "@example.com",
		"password": "secret1",
		"username": name,
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	user := body["user"].(map[string]interface{})
	return body["token"].(string), user["id"].(string)
}

func TestHealthAndPublicConfig(t *testing.T) {
	api := newTestAPI(t)

	w, body := api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])

	w, body = api.do(http.MethodGet, "/api/config/public", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pk_test_123", body["stripePublishableKey"])
	assert.Equal(t, false, body["googleSignIn"])

	w, body = api.do(http.MethodGet, "/api/push/vapid-public-key", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unavailable", body["code"])

	w, body = api.do(http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not-found", body["code"])
}

func TestAuthEndpoints(t *testing.T) {
	api := newTestAPI(t)
	token, uid := api.signup("mika")

	w, body := api.do(http.MethodPost, "/api/auth/signup", "", gin.H{"email": "mika@example.com", "password": "secret1", "username": "mika2"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "auth/email-already-in-use", body["code"])

	w, body = api.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "mika@example.com", "password": "wrong1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "auth/invalid-credential", body["code"])

	w, body = api.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "mika@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, body["token"])

	w, body = api.do(http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uid, body["id"])
	assert.NotContains(t, body, "passwordHash")

	w, _ = api.do(http.MethodPost, "/api/auth/google", "", gin.H{"credential": "x"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code, "google sign-in not configured")

	w, _ = api.do(http.MethodPost, "/api/auth/logout", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = api.do(http.MethodGet, "/api/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProfileEndpoints(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.signup("mika")
	otherToken, otherID := api.signup("rio")

	w, body := api.do(http.MethodPut, "/api/me", token, gin.H{"displayName": "Mika S", "skills": []string{"Premiere"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Mika S", body["displayName"])

	w, body = api.do(http.MethodPut, "/api/me", token, gin.H{"displayName": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid-argument", body["code"])

	w, body = api.do(http.MethodGet, "/api/users/"+otherID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	user := body["user"].(map[string]interface{})
	assert.NotContains(t, user, "email")
	assert.Equal(t, false, body["isMe"])

	w, _ = api.do(http.MethodGet, "/api/users/not-an-id", otherToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEarnAndApplicationFlow(t *testing.T) {
	api := newTestAPI(t)
	creator, _ := api.signup("creator")
	editor, _ := api.signup("editor")

	w, _ := api.do(http.MethodGet, "/api/earn", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, post := api.do(http.MethodPost, "/api/earn", creator, gin.H{
		"title": "Edit my vlog", "description": "Ten minutes", "budget": 1000, "platform": "YouTube",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	postID := post["id"].(string)

	assert.Len(t, api.list("/api/earn?platform=YouTube", editor), 1)
	assert.Len(t, api.list("/api/earn?q=podcast", editor), 0)

	w, app := api.do(http.MethodPost, "/api/earn/"+postID+"/applications", editor, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "pending", app["status"])
	appID := app["id"].(string)

	w, body := api.do(http.MethodPost, "/api/earn/"+postID+"/applications", editor, gin.H{"message": "again"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "conflict", body["code"])

	w, _ = api.do(http.MethodPost, "/api/earn/"+postID+"/applications", creator, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Len(t, api.list("/api/earn/"+postID+"/applications", creator), 1)
	w, _ = api.do(http.MethodGet, "/api/earn/"+postID+"/applications", editor, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = api.do(http.MethodPut, "/api/applications/"+appID+"/status", editor, gin.H{"status": "accepted"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body = api.do(http.MethodPut, "/api/applications/"+appID+"/status", creator, gin.H{"status": "accepted"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "accepted", body["status"])

	w, _ = api.do(http.MethodDelete, "/api/applications/"+appID, editor, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, body = api.do(http.MethodGet, "/api/earn/"+postID, editor, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "accepted", body["myApplication"].(map[string]interface{})["status"])

	w, body = api.do(http.MethodPost, "/api/earn/"+postID+"/payouts", creator, gin.H{"amount": 250})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.InDelta(t, 25.0, body["progress"].(float64), 1e-9)

	mine := api.list("/api/applications", editor)
	require.Len(t, mine, 1)

	w, _ = api.do(http.MethodDelete, "/api/earn/"+postID, editor, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = api.do(http.MethodDelete, "/api/earn/"+postID, creator, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w, _ = api.do(http.MethodGet, "/api/earn/"+postID, creator, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFeedEndpoints(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.signup("poster")

	w, body := api.do(http.MethodPost, "/api/feed", token, gin.H{"content": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid-argument", body["code"])

	w, post := api.do(http.MethodPost, "/api/feed", token, gin.H{"content": "New reel"})
	require.Equal(t, http.StatusCreated, w.Code)
	postID := post["id"].(string)

	w, like := api.do(http.MethodPost, "/api/feed/"+postID+"/like", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, like["liked"])
	assert.EqualValues(t, 1, like["likeCount"])

	_, like = api.do(http.MethodPost, "/api/feed/"+postID+"/like", token, nil)
	assert.Equal(t, false, like["liked"])
	assert.EqualValues(t, 0, like["likeCount"])

	w, _ = api.do(http.MethodPost, "/api/feed/"+postID+"/comments", token, gin.H{"text": "first"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w, page := api.do(http.MethodGet, "/api/feed?limit=10", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	posts := page["posts"].([]interface{})
	require.Len(t, posts, 1)
	assert.EqualValues(t, 1, posts[0].(map[string]interface{})["commentCount"])

	w, _ = api.do(http.MethodGet, "/api/feed?limit=abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDirectMessageFlow(t *testing.T) {
	api := newTestAPI(t)
	aTok, aID := api.signup("alice")
	bTok, bID := api.signup("bob")
	cTok, _ := api.signup("carol")

	w, opened := api.do(http.MethodPost, "/api/dm", aTok, gin.H{"targetUserId": bID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	roomID := opened["roomId"].(string)

	_, reopened := api.do(http.MethodPost, "/api/dm", bTok, gin.H{"targetUserId": aID})
	assert.Equal(t, roomID, reopened["roomId"])

	w, _ = api.do(http.MethodPost, "/api/dm", aTok, gin.H{"targetUserId": aID})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, msg := api.do(http.MethodPost, "/api/dm/"+roomID+"/messages", aTok, gin.H{"text": "hi bob"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "hi bob", msg["text"])

	rooms := api.list("/api/dm", bTok)
	require.Len(t, rooms, 1)
	assert.EqualValues(t, 1, rooms[0].(map[string]interface{})["unread"])

	w, detail := api.do(http.MethodGet, "/api/dm/"+roomID, bTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, detail["messages"], 1)
	assert.EqualValues(t, 0, detail["unread"])

	assert.Len(t, api.list("/api/dm/"+roomID+"/messages", aTok), 1)

	w, _ = api.do(http.MethodGet, "/api/dm/"+roomID, cTok, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestLearnAndPushEndpoints(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.signup("mentor")

	w, _ := api.do(http.MethodPost, "/api/learn", token, gin.H{"title": "Color grading", "price": 1500})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Len(t, api.list("/api/learn", token), 1)

	w, _ = api.do(http.MethodPost, "/api/push/subscribe", token, gin.H{"endpoint": "https://push.example.com/x"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRequestBodyLimits(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.signup("bulk")

	w, body := api.do(http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "bulk@example.com",
		"password": strings.Repeat("p", 2<<20),
	})
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "payload-too-large", body["code"])

	// Feed posts may carry an inline image, so a 2 MiB body reaches the
	// handler and fails validation instead.
	w, _ = api.do(http.MethodPost, "/api/feed", token, gin.H{"content": strings.Repeat("a", 2<<20)})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = api.do(http.MethodPost, "/api/feed", token, gin.H{"image": strings.Repeat("A", 9<<20)})
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
