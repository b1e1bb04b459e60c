package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"linkrite/models"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/jwk"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// Identity is a user asserted by an external identity provider.
type Identity struct {
	Provider      string
	Subject       string
	Email         string
	// EmailVerified reports whether the provider confirmed ownership of Email.
	EmailVerified bool
	Name          string
	PhotoURL      string
}

// TokenVerifier turns a provider-issued ID token into an Identity.
type TokenVerifier interface {
	Verify(ctx context.Context, idToken string) (*Identity, error)
}

const (
	googleCertsURL    = "https://www.googleapis.com/oauth2/v3/certs"
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	googleKeysTTL     = time.Hour
)

// GoogleIDTokenVerifier checks Google Identity Services credentials against
// Google's published signing keys.
type GoogleIDTokenVerifier struct {
	clientID string

	mu        sync.Mutex
	keys      jwk.Set
	fetchedAt time.Time
}

func NewGoogleIDTokenVerifier(clientID string) *GoogleIDTokenVerifier {
	return &GoogleIDTokenVerifier{clientID: clientID}
}

func (v *GoogleIDTokenVerifier) keySet(ctx context.Context) (jwk.Set, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.keys != nil && time.Since(v.fetchedAt) < googleKeysTTL {
		return v.keys, nil
	}
	set, err := jwk.Fetch(ctx, googleCertsURL)
	if err != nil {
		return nil, fmt.Errorf("fetch google keys: %w", err)
	}
	v.keys, v.fetchedAt = set, time.Now()
	return set, nil
}

func (v *GoogleIDTokenVerifier) Verify(ctx context.Context, idToken string) (*Identity, error) {
	set, err := v.keySet(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(idToken, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		kid, _ := t.Header["kid"].(string)
		key, found := set.LookupKeyID(kid)
		if !found {
			return nil, fmt.Errorf("no google key for kid %q", kid)
		}
		var pubkey interface{}
		if err := key.Raw(&pubkey); err != nil {
			return nil, err
		}
		return pubkey, nil
	}, jwt.WithAudience(v.clientID))
	if err != nil || !token.Valid {
		return nil, NewAuthError(CodeInvalidIDToken, err)
	}

	iss, _ := claims["iss"].(string)
	if iss != "accounts.google.com" && iss != "https://accounts.google.com" {
		return nil, NewAuthError(CodeInvalidIDToken, fmt.Errorf("unexpected issuer %q", iss))
	}

	id := &Identity{Provider: models.ProviderGoogle}
	id.Subject, _ = claims["sub"].(string)
	id.Email, _ = claims["email"].(string)
	id.EmailVerified = claimTrue(claims["email_verified"])
	id.Name, _ = claims["name"].(string)
	id.PhotoURL, _ = claims["picture"].(string)
	if id.Subject == "" {
		return nil, NewAuthError(CodeInvalidIDToken, errors.New("missing sub"))
	}
	return id, nil
}

// claimTrue reads a boolean claim; some Google tokens carry it as a string.
func claimTrue(v interface{}) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b == "true"
	}
	return false
}

// FirebaseVerifier validates Firebase Auth ID tokens with the Admin SDK.
type FirebaseVerifier struct {
	client *fbauth.Client
}

// NewFirebaseVerifier initializes the Admin SDK from base64 credentials JSON
// or, failing that, a credentials file path.
func NewFirebaseVerifier(ctx context.Context, projectID, credentialsBase64, credentialsFile string) (*FirebaseVerifier, error) {
	var opt option.ClientOption
	switch {
	case credentialsBase64 != "":
		raw, err := base64.StdEncoding.DecodeString(credentialsBase64)
		if err != nil {
			return nil, fmt.Errorf("decode FIREBASE_CREDENTIALS_BASE64: %w", err)
		}
		opt = option.WithCredentialsJSON(raw)
	case credentialsFile != "":
		opt = option.WithCredentialsFile(credentialsFile)
	default:
		return nil, errors.New("no firebase credentials configured")
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opt)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase auth: %w", err)
	}
	return &FirebaseVerifier{client: client}, nil
}

func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (*Identity, error) {
	tok, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, NewAuthError(CodeInvalidIDToken, err)
	}
	id := &Identity{Provider: models.ProviderFirebase, Subject: tok.UID}
	id.Email, _ = tok.Claims["email"].(string)
	id.EmailVerified = claimTrue(tok.Claims["email_verified"])
	id.Name, _ = tok.Claims["name"].(string)
	id.PhotoURL, _ = tok.Claims["picture"].(string)
	return id, nil
}

// GoogleOAuth drives the redirect sign-in flow. The state parameter is a
// short-lived signed token so no server-side session is needed.
type GoogleOAuth struct {
	config   *oauth2.Config
	stateKey []byte
	stateTTL time.Duration
}

func NewGoogleOAuth(clientID, clientSecret, redirectURL string, stateKey []byte) *GoogleOAuth {
	return &GoogleOAuth{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		stateKey: stateKey,
		stateTTL: 10 * time.Minute,
	}
}

func (g *GoogleOAuth) AuthURL() (string, error) {
	now := time.Now()
	state, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "google-oauth-state",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(g.stateTTL)),
	}).SignedString(g.stateKey)
	if err != nil {
		return "", fmt.Errorf("sign oauth state: %w", err)
	}
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.SetAuthURLParam("prompt", "select_account")), nil
}

func (g *GoogleOAuth) validState(state string) bool {
	claims := &jwt.RegisteredClaims{}
	tok, err := jwt.ParseWithClaims(state, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return g.stateKey, nil
	})
	return err == nil && tok.Valid && claims.Subject == "google-oauth-state"
}

type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// Exchange validates the callback parameters and resolves them to an Identity.
// providerErr is the "error" query parameter Google sends on failure.
func (g *GoogleOAuth) Exchange(ctx context.Context, state, code, providerErr string) (*Identity, error) {
	switch {
	case providerErr == "access_denied":
		return nil, NewAuthError(CodeCancelledPopup, nil)
	case providerErr != "":
		return nil, NewAuthError(CodeOperationNotAllowed, errors.New(providerErr))
	case !g.validState(state):
		return nil, NewAuthError(CodeUnauthorizedDomain, errors.New("bad oauth state"))
	case code == "":
		return nil, NewAuthError(CodePopupClosed, nil)
	}

	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return nil, NewAuthError(CodeInvalidCredential, fmt.Errorf("exchange code: %w", err))
	}

	resp, err := g.config.Client(ctx, token).Get(googleUserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch google userinfo: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read google userinfo: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Msg("google userinfo rejected")
		return nil, NewAuthError(CodeInvalidCredential, fmt.Errorf("userinfo status %d", resp.StatusCode))
	}

	var info googleUserInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parse google userinfo: %w", err)
	}
	return &Identity{
		Provider:      models.ProviderGoogle,
		Subject:       info.ID,
		Email:         info.Email,
		EmailVerified: info.VerifiedEmail,
		Name:          info.Name,
		PhotoURL:      info.Picture,
	}, nil
}

// usernameFromEmail derives a handle from the local part of an address.
func usernameFromEmail(email string, suffix string) string {
	local, _, found := strings.Cut(email, "@")
	if !found || local == "" {
		return "user_" + suffix
	}
	return strings.ReplaceAll(local, ".", "") + "_" + suffix
}
