package services

import (
	"context"
	"fmt"
	"strings"

	"linkrite/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type LearnService struct {
	deps Deps
}

type LearnInput struct {
	Title       string `json:"title" validate:"required,max=120"`
	Outline     string `json:"outline" validate:"max=2000"`
	Description string `json:"description" validate:"max=5000"`
	Price       int64  `json:"price" validate:"gte=0"`
}

func (s *LearnService) Create(ctx context.Context, uid primitive.ObjectID, in LearnInput) (*models.LearnPost, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Outline = strings.TrimSpace(in.Outline)
	in.Description = strings.TrimSpace(in.Description)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	author, err := s.deps.Stores.Users.FindByID(ctx, uid)
	if err != nil {
		return nil, fromStore(err, "user")
	}

	post := &models.LearnPost{
		Title:       in.Title,
		Outline:     in.Outline,
		Description: in.Description,
		Price:       in.Price,
		AuthorID:    uid,
		AuthorName:  author.NameOrAnonymous(),
		CreatedAt:   s.deps.Now(),
	}
	if err := s.deps.Stores.Learn.Create(ctx, post); err != nil {
		return nil, fromStore(err, "create learn post")
	}
	return post, nil
}

func (s *LearnService) List(ctx context.Context) ([]models.LearnPost, error) {
	posts, err := s.deps.Stores.Learn.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list learn posts: %w", err)
	}
	return posts, nil
}
