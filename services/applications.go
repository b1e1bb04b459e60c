package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"linkrite/models"
	"linkrite/repositories"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ApplicationService struct {
	deps Deps
}

const maxApplicationMessage = 2000

func (s *ApplicationService) Apply(ctx context.Context, uid, postID primitive.ObjectID, message string) (*models.Application, error) {
	message = strings.TrimSpace(message)
	if len([]rune(message)) > maxApplicationMessage {
		return nil, invalid("message must be at most %d characters", maxApplicationMessage)
	}

	post, err := s.deps.Stores.Earn.FindByID(ctx, postID)
	if err != nil {
		return nil, fromStore(err, "earn post")
	}
	if post.AuthorID == uid {
		return nil, invalid("cannot apply to own post")
	}
	applicant, err := s.deps.Stores.Users.FindByID(ctx, uid)
	if err != nil {
		return nil, fromStore(err, "user")
	}

	now := s.deps.Now()
	app := &models.Application{
		PostID:        postID,
		PostTitle:     post.Title,
		ApplicantID:   uid,
		ApplicantName: applicant.NameOrAnonymous(),
		Message:       message,
		Status:        models.StatusPending,
		AppliedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.deps.Stores.Applications.Create(ctx, app); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, fmt.Errorf("%w: already applied", ErrConflict)
		}
		return nil, fromStore(err, "create application")
	}

	s.deps.Publisher.Publish(EventApplicationCreated, app, post.AuthorID)
	return app, nil
}

// ListForPost returns a post's applications to its author.
func (s *ApplicationService) ListForPost(ctx context.Context, uid, postID primitive.ObjectID) ([]models.Application, error) {
	post, err := s.deps.Stores.Earn.FindByID(ctx, postID)
	if err != nil {
		return nil, fromStore(err, "earn post")
	}
	if post.AuthorID != uid {
		return nil, fmt.Errorf("%w: only the author can view applications", ErrForbidden)
	}
	apps, err := s.deps.Stores.Applications.ListByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return apps, nil
}

func (s *ApplicationService) ListMine(ctx context.Context, uid primitive.ObjectID) ([]models.Application, error) {
	apps, err := s.deps.Stores.Applications.ListByApplicant(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return apps, nil
}

// SetStatus moves an application along its lifecycle. Only the post's author
// may do so, and the write only lands if nobody changed the status meanwhile.
func (s *ApplicationService) SetStatus(ctx context.Context, uid, appID primitive.ObjectID, raw string) (*models.Application, error) {
	to, ok := ParseStatus(raw)
	if !ok {
		return nil, invalid("unknown status %q", raw)
	}

	app, err := s.deps.Stores.Applications.FindByID(ctx, appID)
	if err != nil {
		return nil, fromStore(err, "application")
	}
	post, err := s.deps.Stores.Earn.FindByID(ctx, app.PostID)
	if err != nil {
		return nil, fromStore(err, "earn post")
	}
	if post.AuthorID != uid {
		return nil, fmt.Errorf("%w: only the post author can change application status", ErrForbidden)
	}
	if !CanTransition(app.Status, to) {
		return nil, fmt.Errorf("%w: invalid status transition %s -> %s", ErrConflict, app.Status, to)
	}

	updated, err := s.deps.Stores.Applications.UpdateStatus(ctx, appID, app.Status, to, s.deps.Now())
	if errors.Is(err, repositories.ErrStale) {
		return nil, fmt.Errorf("%w: invalid status transition, application changed", ErrConflict)
	}
	if err != nil {
		return nil, fromStore(err, "application")
	}

	s.deps.Publisher.Publish(EventApplicationStatus, updated, updated.ApplicantID)
	if applicant, err := s.deps.Stores.Users.FindByID(ctx, updated.ApplicantID); err == nil {
		s.deps.Notifier.ApplicationStatusChanged(ctx, applicant, updated)
	}
	return updated, nil
}

// Withdraw deletes the caller's own pending application.
func (s *ApplicationService) Withdraw(ctx context.Context, uid, appID primitive.ObjectID) error {
	app, err := s.deps.Stores.Applications.FindByID(ctx, appID)
	if err != nil {
		return fromStore(err, "application")
	}
	if app.ApplicantID != uid {
		return fmt.Errorf("%w: only the applicant can withdraw", ErrForbidden)
	}

	err = s.deps.Stores.Applications.DeletePending(ctx, appID, uid)
	switch {
	case errors.Is(err, repositories.ErrStale):
		return fmt.Errorf("%w: only pending applications can be withdrawn", ErrConflict)
	case err != nil:
		return fromStore(err, "application")
	}
	return nil
}
