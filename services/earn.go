package services

import (
	"context"
	"fmt"
	"strings"

	"linkrite/models"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EarnService struct {
	deps Deps
}

type EarnInput struct {
	Title       string `json:"title" validate:"required,max=120"`
	Description string `json:"description" validate:"required,max=5000"`
	Budget      int64  `json:"budget" validate:"gte=0"`
	Platform    string `json:"platform"`
	Reward      string `json:"reward" validate:"max=1000"`
}

// EarnPostView is an earn post as shown on its detail page.
type EarnPostView struct {
	models.EarnPost
	Progress      float64             `json:"progress"`
	IsAuthor      bool                `json:"isAuthor"`
	MyApplication *models.Application `json:"myApplication,omitempty"`
}

func (s *EarnService) Create(ctx context.Context, uid primitive.ObjectID, in EarnInput) (*models.EarnPost, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Reward = strings.TrimSpace(in.Reward)
	if in.Platform == "" {
		in.Platform = models.DefaultPlatform
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if !models.IsPlatform(in.Platform) {
		return nil, invalid("unknown platform %q", in.Platform)
	}

	author, err := s.deps.Stores.Users.FindByID(ctx, uid)
	if err != nil {
		return nil, fromStore(err, "user")
	}

	now := s.deps.Now()
	post := &models.EarnPost{
		Title:          in.Title,
		Description:    in.Description,
		Budget:         in.Budget,
		TotalBudget:    in.Budget,
		PaidOut:        0,
		Platform:       in.Platform,
		Reward:         in.Reward,
		AuthorID:       uid,
		AuthorName:     author.NameOrAnonymous(),
		AuthorPhotoURL: author.PhotoURL,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.deps.Stores.Earn.Create(ctx, post); err != nil {
		return nil, fromStore(err, "create earn post")
	}
	return post, nil
}

func (s *EarnService) List(ctx context.Context, f models.EarnFilter) ([]models.EarnPost, error) {
	f.Query = strings.TrimSpace(f.Query)
	if f.Platform != "" && !models.IsPlatform(f.Platform) {
		return nil, invalid("unknown platform %q", f.Platform)
	}
	posts, err := s.deps.Stores.Earn.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list earn posts: %w", err)
	}
	return posts, nil
}

func (s *EarnService) Get(ctx context.Context, viewer, id primitive.ObjectID) (*EarnPostView, error) {
	post, err := s.deps.Stores.Earn.FindByID(ctx, id)
	if err != nil {
		return nil, fromStore(err, "earn post")
	}
	view := &EarnPostView{
		EarnPost: *post,
		Progress: ProgressPercentage(post.PaidOut, post.ProgressTotal()),
		IsAuthor: post.AuthorID == viewer,
	}
	if !view.IsAuthor {
		app, err := s.deps.Stores.Applications.FindByPostAndApplicant(ctx, id, viewer)
		if err == nil {
			view.MyApplication = app
		}
	}
	return view, nil
}

// authored loads a post and checks that uid wrote it.
func (s *EarnService) authored(ctx context.Context, uid, id primitive.ObjectID) (*models.EarnPost, error) {
	post, err := s.deps.Stores.Earn.FindByID(ctx, id)
	if err != nil {
		return nil, fromStore(err, "earn post")
	}
	if post.AuthorID != uid {
		return nil, fmt.Errorf("%w: only the author can change this post", ErrForbidden)
	}
	return post, nil
}

func (s *EarnService) Update(ctx context.Context, uid, id primitive.ObjectID, upd models.EarnUpdate) (*models.EarnPost, error) {
	if _, err := s.authored(ctx, uid, id); err != nil {
		return nil, err
	}
	if upd.Title != nil {
		if *upd.Title = strings.TrimSpace(*upd.Title); *upd.Title == "" {
			return nil, invalid("title is required")
		}
	}
	if upd.Description != nil {
		if *upd.Description = strings.TrimSpace(*upd.Description); *upd.Description == "" {
			return nil, invalid("description is required")
		}
	}
	if upd.Budget != nil && *upd.Budget < 0 {
		return nil, invalid("budget must not be negative")
	}
	if upd.Platform != nil && !models.IsPlatform(*upd.Platform) {
		return nil, invalid("unknown platform %q", *upd.Platform)
	}

	post, err := s.deps.Stores.Earn.Update(ctx, id, upd, s.deps.Now())
	if err != nil {
		return nil, fromStore(err, "earn post")
	}
	return post, nil
}

// Delete removes the post and every application made to it.
func (s *EarnService) Delete(ctx context.Context, uid, id primitive.ObjectID) error {
	if _, err := s.authored(ctx, uid, id); err != nil {
		return err
	}
	if err := s.deps.Stores.Earn.Delete(ctx, id); err != nil {
		return fromStore(err, "earn post")
	}
	n, err := s.deps.Stores.Applications.DeleteByPost(ctx, id)
	if err != nil {
		return fmt.Errorf("delete applications: %w", err)
	}
	log.Info().Str("postId", id.Hex()).Int64("applications", n).Msg("earn post deleted")
	return nil
}

// RecordPayout adds amount to the advisory paid-out total.
func (s *EarnService) RecordPayout(ctx context.Context, uid, id primitive.ObjectID, amount int64) (*EarnPostView, error) {
	if amount <= 0 {
		return nil, invalid("amount must be positive")
	}
	if _, err := s.authored(ctx, uid, id); err != nil {
		return nil, err
	}
	post, err := s.deps.Stores.Earn.AddPayout(ctx, id, amount, s.deps.Now())
	if err != nil {
		return nil, fromStore(err, "earn post")
	}
	return &EarnPostView{
		EarnPost: *post,
		Progress: ProgressPercentage(post.PaidOut, post.ProgressTotal()),
		IsAuthor: true,
	}, nil
}
