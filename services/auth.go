package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"linkrite/models"
	"linkrite/repositories"
	"linkrite/session"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

type AuthService struct {
	deps Deps
}

// AuthResult is a signed-in user and their session token.
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type SignupInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, NewAuthError(CodeInvalidEmail, err)
	}
	if len(in.Password) < minPasswordLength {
		return nil, NewAuthError(CodeWeakPassword, nil)
	}
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, invalid("username is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	hashStr := string(hash)

	now := s.deps.Now()
	user := &models.User{
		Email:        email,
		PasswordHash: &hashStr,
		AuthProvider: models.ProviderEmail,
		Username:     username,
		DisplayName:  username,
		Skills:       []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
		LastSeen:     now,
	}
	if err := s.deps.Stores.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, NewAuthError(CodeEmailInUse, nil)
		}
		return nil, fromStore(err, "create user")
	}
	log.Info().Str("userId", user.ID.Hex()).Msg("user signed up")
	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.deps.Stores.Users.FindByEmail(ctx, email)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, NewAuthError(CodeInvalidCredential, nil)
	}
	if err != nil {
		return nil, fromStore(err, "find user")
	}
	if user.PasswordHash == nil {
		return nil, NewAuthError(CodeInvalidCredential, errors.New("account has no password"))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)); err != nil {
		return nil, NewAuthError(CodeInvalidCredential, nil)
	}

	user, err = s.deps.Stores.Users.UpdateSignIn(ctx, user.ID, models.SignInUpdate{At: s.deps.Now()})
	if err != nil {
		return nil, fromStore(err, "update user")
	}
	return s.issue(user)
}

func (s *AuthService) GoogleAuthURL() (string, error) {
	if s.deps.GoogleOAuth == nil {
		return "", NewAuthError(CodeOperationNotAllowed, nil)
	}
	return s.deps.GoogleOAuth.AuthURL()
}

// GoogleCallback completes the redirect flow with the callback query values.
func (s *AuthService) GoogleCallback(ctx context.Context, state, code, providerErr string) (*AuthResult, error) {
	if s.deps.GoogleOAuth == nil {
		return nil, NewAuthError(CodeOperationNotAllowed, nil)
	}
	id, err := s.deps.GoogleOAuth.Exchange(ctx, state, code, providerErr)
	if err != nil {
		return nil, err
	}
	return s.SignInWithIdentity(ctx, id)
}

func (s *AuthService) GoogleCredential(ctx context.Context, credential string) (*AuthResult, error) {
	return s.verifyAndSignIn(ctx, s.deps.GoogleIDTokens, credential)
}

func (s *AuthService) Firebase(ctx context.Context, idToken string) (*AuthResult, error) {
	return s.verifyAndSignIn(ctx, s.deps.FirebaseTokens, idToken)
}

func (s *AuthService) verifyAndSignIn(ctx context.Context, v TokenVerifier, token string) (*AuthResult, error) {
	if v == nil {
		return nil, NewAuthError(CodeOperationNotAllowed, nil)
	}
	if strings.TrimSpace(token) == "" {
		return nil, NewAuthError(CodeInvalidIDToken, errors.New("empty token"))
	}
	id, err := v.Verify(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.SignInWithIdentity(ctx, id)
}

// SignInWithIdentity finds the user for a federated identity and creates one
// on first sign-in. An existing account is linked by email only when the
// provider verified that address.
func (s *AuthService) SignInWithIdentity(ctx context.Context, id *Identity) (*AuthResult, error) {
	users := s.deps.Stores.Users
	now := s.deps.Now()

	upd := models.SignInUpdate{AuthProvider: id.Provider, At: now, PhotoURL: id.PhotoURL}
	var find func(context.Context, string) (*models.User, error)
	switch id.Provider {
	case models.ProviderGoogle:
		upd.GoogleID = id.Subject
		find = users.FindByGoogleID
	case models.ProviderFirebase:
		upd.FirebaseUID = id.Subject
		find = users.FindByFirebaseUID
	default:
		return nil, fmt.Errorf("unknown identity provider %q", id.Provider)
	}

	email := strings.ToLower(strings.TrimSpace(id.Email))
	user, err := find(ctx, id.Subject)
	if errors.Is(err, repositories.ErrNotFound) && email != "" {
		user, err = users.FindByEmail(ctx, email)
		if err == nil && !id.EmailVerified {
			log.Warn().Str("provider", id.Provider).Str("userId", user.ID.Hex()).
				Msg("refusing to link federated sign-in with unverified email")
			return nil, NewAuthError(CodeAccountExists, errors.New("unverified email matches an existing account"))
		}
	}
	switch {
	case err == nil:
		user, err = users.UpdateSignIn(ctx, user.ID, upd)
		if err != nil {
			return nil, fromStore(err, "update user")
		}
		return s.issue(user)
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, fromStore(err, "find user")
	}

	// An unverified address is not recorded, so it cannot be linked later.
	if !id.EmailVerified {
		email = ""
	}
	user = &models.User{
		Email:        email,
		AuthProvider: id.Provider,
		GoogleID:     upd.GoogleID,
		FirebaseUID:  upd.FirebaseUID,
		Username:     usernameFromEmail(id.Email, primitive.NewObjectID().Hex()[:4]),
		DisplayName:  id.Name,
		PhotoURL:     id.PhotoURL,
		Skills:       []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
		LastSeen:     now,
	}
	if user.DisplayName == "" {
		user.DisplayName = user.Username
	}
	if err := users.Create(ctx, user); err != nil {
		return nil, fromStore(err, "create user")
	}
	log.Info().Str("userId", user.ID.Hex()).Str("provider", id.Provider).Msg("user created from federated sign-in")
	return s.issue(user)
}

// Logout revokes the presented session token.
func (s *AuthService) Logout(ctx context.Context, claims *session.Claims) error {
	if err := s.deps.Sessions.Revoke(ctx, claims); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, err := s.deps.Sessions.Issue(user.ID.Hex())
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}
