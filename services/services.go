// Package services holds the business rules behind every HTTP endpoint.
package services

import (
	"time"

	"linkrite/repositories"
	"linkrite/session"
)

// Deps are the collaborators shared by all services. Optional integrations
// are nil when not configured; the operations that need them report
// ErrUnavailable.
type Deps struct {
	Stores    *repositories.Stores
	Sessions  *session.Manager
	Publisher Publisher
	Notifier  Notifier
	Now       func() time.Time

	GoogleOAuth    *GoogleOAuth
	GoogleIDTokens TokenVerifier
	FirebaseTokens TokenVerifier
	Avatars        AvatarUploader
}

type Services struct {
	Auth         *AuthService
	Profiles     *ProfileService
	Earn         *EarnService
	Applications *ApplicationService
	Feed         *FeedService
	DM           *DMService
	Learn        *LearnService
}

func New(d Deps) *Services {
	if d.Publisher == nil {
		d.Publisher = nopPublisher{}
	}
	if d.Notifier == nil {
		d.Notifier = nopNotifier{}
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Services{
		Auth:         &AuthService{deps: d},
		Profiles:     &ProfileService{deps: d},
		Earn:         &EarnService{deps: d},
		Applications: &ApplicationService{deps: d},
		Feed:         &FeedService{deps: d},
		DM:           &DMService{deps: d},
		Learn:        &LearnService{deps: d},
	}
}
