package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"linkrite/media"
	"linkrite/models"
	"linkrite/repositories"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	maxFeedContent   = 5000
	maxCommentLength = 1000
	defaultFeedLimit = 20
	maxFeedLimit     = 50
)

type FeedService struct {
	deps Deps
}

type FeedPage struct {
	Posts      []models.FeedPost `json:"posts"`
	NextCursor string            `json:"nextCursor,omitempty"`
}

type LikeResult struct {
	PostID    primitive.ObjectID `json:"postId"`
	Liked     bool               `json:"liked"`
	LikeCount int                `json:"likeCount"`
}

func (s *FeedService) Create(ctx context.Context, uid primitive.ObjectID, content, image string) (*models.FeedPost, error) {
	content = strings.TrimSpace(content)
	image = strings.TrimSpace(image)
	if content == "" && image == "" {
		return nil, invalid("content or image is required")
	}
	if utf8.RuneCountInString(content) > maxFeedContent {
		return nil, invalid("content must be at most %d characters", maxFeedContent)
	}

	var imageURL string
	if image != "" {
		var err error
		imageURL, err = media.NormalizeImage(image)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}

	author, err := s.deps.Stores.Users.FindByID(ctx, uid)
	if err != nil {
		return nil, fromStore(err, "user")
	}

	post := &models.FeedPost{
		Content:        content,
		ImageURL:       imageURL,
		AuthorID:       uid,
		AuthorName:     author.NameOrAnonymous(),
		AuthorPhotoURL: author.PhotoURL,
		Likes:          []primitive.ObjectID{},
		Comments:       []models.Comment{},
		CreatedAt:      s.deps.Now(),
	}
	if err := s.deps.Stores.Feed.Create(ctx, post); err != nil {
		return nil, fromStore(err, "create post")
	}
	s.deps.Publisher.Publish(EventFeedCreated, post)
	return post, nil
}

// List returns one page of the feed, newest first.
func (s *FeedService) List(ctx context.Context, cursor string, limit int) (*FeedPage, error) {
	after, err := repositories.DecodeCursor(cursor)
	if err != nil {
		return nil, invalid("bad cursor")
	}
	if limit <= 0 {
		limit = defaultFeedLimit
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}

	posts, err := s.deps.Stores.Feed.List(ctx, after, limit)
	if err != nil {
		return nil, fmt.Errorf("list feed: %w", err)
	}
	page := &FeedPage{Posts: posts}
	if len(posts) == limit {
		last := posts[len(posts)-1]
		page.NextCursor = repositories.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}.Encode()
	}
	return page, nil
}

func (s *FeedService) ToggleLike(ctx context.Context, uid, postID primitive.ObjectID) (*LikeResult, error) {
	liked, count, err := s.deps.Stores.Feed.ToggleLike(ctx, postID, uid)
	if errors.Is(err, repositories.ErrStale) {
		return nil, fmt.Errorf("%w: like changed concurrently", ErrConflict)
	}
	if err != nil {
		return nil, fromStore(err, "post")
	}
	res := &LikeResult{PostID: postID, Liked: liked, LikeCount: count}
	s.deps.Publisher.Publish(EventFeedUpdated, res)
	return res, nil
}

func (s *FeedService) Comment(ctx context.Context, uid, postID primitive.ObjectID, text string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalid("comment text is required")
	}
	if utf8.RuneCountInString(text) > maxCommentLength {
		return nil, invalid("comment must be at most %d characters", maxCommentLength)
	}

	author, err := s.deps.Stores.Users.FindByID(ctx, uid)
	if err != nil {
		return nil, fromStore(err, "user")
	}
	c := models.Comment{
		ID:         uuid.NewString(),
		Text:       text,
		AuthorID:   uid,
		AuthorName: author.NameOrAnonymous(),
		CreatedAt:  s.deps.Now(),
	}
	post, err := s.deps.Stores.Feed.AddComment(ctx, postID, c)
	if err != nil {
		return nil, fromStore(err, "post")
	}
	s.deps.Publisher.Publish(EventFeedUpdated, map[string]interface{}{
		"postId":       post.ID,
		"comment":      c,
		"commentCount": post.CommentCount,
	})
	return &c, nil
}
