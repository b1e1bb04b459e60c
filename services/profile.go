package services

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"strings"
	"unicode/utf8"

	"linkrite/models"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	maxDisplayName = 50
	maxBio         = 500
	maxSkills      = 30
)

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// AvatarUploader stores a profile image and returns its public URL.
type AvatarUploader interface {
	UploadAvatar(ctx context.Context, userID string, file io.Reader) (string, error)
}

type ProfileService struct {
	deps Deps
}

// ProfileView is another user's public profile with their earn posts.
type ProfileView struct {
	User      models.User       `json:"user"`
	EarnPosts []models.EarnPost `json:"earnPosts"`
	IsMe      bool              `json:"isMe"`
}

func (s *ProfileService) Me(ctx context.Context, uid primitive.ObjectID) (*models.User, error) {
	u, err := s.deps.Stores.Users.FindByID(ctx, uid)
	if err != nil {
		return nil, fromStore(err, "user")
	}
	if u.Skills == nil {
		u.Skills = []string{}
	}
	return u, nil
}

func (s *ProfileService) View(ctx context.Context, viewer, uid primitive.ObjectID) (*ProfileView, error) {
	u, err := s.deps.Stores.Users.FindByID(ctx, uid)
	if err != nil {
		return nil, fromStore(err, "user")
	}
	posts, err := s.deps.Stores.Earn.List(ctx, models.EarnFilter{AuthorID: uid})
	if err != nil {
		return nil, fmt.Errorf("list earn posts: %w", err)
	}
	return &ProfileView{User: u.Public(), EarnPosts: posts, IsMe: viewer == uid}, nil
}

func (s *ProfileService) Update(ctx context.Context, uid primitive.ObjectID, upd models.ProfileUpdate) (*models.User, error) {
	if err := normalizeProfile(&upd); err != nil {
		return nil, err
	}
	if upd.IsEmpty() {
		return nil, invalid("no profile fields to update")
	}
	u, err := s.deps.Stores.Users.UpdateProfile(ctx, uid, upd, s.deps.Now())
	if err != nil {
		return nil, fromStore(err, "user")
	}
	return u, nil
}

func (s *ProfileService) UploadAvatar(ctx context.Context, uid primitive.ObjectID, file io.Reader) (*models.User, error) {
	if s.deps.Avatars == nil {
		return nil, fmt.Errorf("%w: avatar storage is not configured", ErrUnavailable)
	}
	url, err := s.deps.Avatars.UploadAvatar(ctx, uid.Hex(), file)
	if err != nil {
		return nil, fmt.Errorf("upload avatar: %w", err)
	}
	u, err := s.deps.Stores.Users.UpdateProfile(ctx, uid, models.ProfileUpdate{PhotoURL: &url}, s.deps.Now())
	if err != nil {
		return nil, fromStore(err, "user")
	}
	return u, nil
}

func normalizeProfile(p *models.ProfileUpdate) error {
	trim := func(sp *string) {
		if sp != nil {
			*sp = strings.TrimSpace(*sp)
		}
	}
	for _, sp := range []*string{p.DisplayName, p.Bio, p.Location, p.Occupation, p.Website,
		p.Twitter, p.GitHub, p.Instagram, p.YouTube, p.TikTok} {
		trim(sp)
	}

	if p.DisplayName != nil {
		n := utf8.RuneCountInString(*p.DisplayName)
		if n == 0 {
			return invalid("displayName is required")
		}
		if n > maxDisplayName {
			return invalid("displayName must be at most %d characters", maxDisplayName)
		}
	}
	if p.Bio != nil && utf8.RuneCountInString(*p.Bio) > maxBio {
		return invalid("bio must be at most %d characters", maxBio)
	}
	if p.Website != nil && *p.Website != "" {
		if err := validate.Var(*p.Website, "url"); err != nil {
			return invalid("website must be a URL")
		}
	}
	if p.Skills != nil {
		skills := make([]string, 0, len(*p.Skills))
		for _, sk := range *p.Skills {
			if sk = strings.TrimSpace(sk); sk != "" {
				skills = append(skills, sk)
			}
		}
		if len(skills) > maxSkills {
			return invalid("at most %d skills", maxSkills)
		}
		p.Skills = &skills
	}
	return nil
}
