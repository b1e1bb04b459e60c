package services

import (
	"context"
	"testing"
	"time"

	"linkrite/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEarnPostDefaults(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, "author")

	post, err := f.svc.Earn.Create(context.Background(), author.ID, EarnInput{
		Title:       "  Shorts editor ",
		Description: "Three shorts a week",
		Budget:      300,
	})
	require.NoError(t, err)
	assert.Equal(t, "Shorts editor", post.Title)
	assert.Equal(t, models.DefaultPlatform, post.Platform)
	assert.Equal(t, int64(300), post.TotalBudget)
	assert.Zero(t, post.PaidOut)
	assert.Equal(t, "author", post.AuthorName)
}

func TestCreateEarnPostValidation(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, "author")
	ctx := context.Background()

	_, err := f.svc.Earn.Create(ctx, author.ID, EarnInput{Description: "no title"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.Earn.Create(ctx, author.ID, EarnInput{Title: "t", Description: "d", Budget: -1})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.Earn.Create(ctx, author.ID, EarnInput{Title: "t", Description: "d", Platform: "MySpace"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestEarnListFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b := f.user(t, "a"), f.user(t, "b")
	f.earnPost(t, a, 100)
	_, err := f.svc.Earn.Create(ctx, b.ID, EarnInput{Title: "Dance edit", Description: "TikTok loop", Platform: "TikTok"})
	require.NoError(t, err)

	all, err := f.svc.Earn.List(ctx, models.EarnFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Dance edit", all[0].Title, "newest first")

	byPlatform, err := f.svc.Earn.List(ctx, models.EarnFilter{Platform: "TikTok"})
	require.NoError(t, err)
	assert.Len(t, byPlatform, 1)

	byQuery, err := f.svc.Earn.List(ctx, models.EarnFilter{Query: "VLOG"})
	require.NoError(t, err)
	require.Len(t, byQuery, 1)
	assert.Equal(t, a.ID, byQuery[0].AuthorID)

	_, err = f.svc.Earn.List(ctx, models.EarnFilter{Platform: "Vine"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestEarnGetShowsViewerApplication(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author, editor := f.user(t, "author"), f.user(t, "editor")
	post := f.earnPost(t, author, 1000)
	_, err := f.svc.Applications.Apply(ctx, editor.ID, post.ID, "")
	require.NoError(t, err)

	view, err := f.svc.Earn.Get(ctx, editor.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, view.IsAuthor)
	require.NotNil(t, view.MyApplication)
	assert.Equal(t, models.StatusPending, view.MyApplication.Status)

	view, err = f.svc.Earn.Get(ctx, author.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, view.IsAuthor)
	assert.Nil(t, view.MyApplication)
}

func TestEarnUpdateAndPayout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author, other := f.user(t, "author"), f.user(t, "other")
	post := f.earnPost(t, author, 1000)

	title := "New title"
	_, err := f.svc.Earn.Update(ctx, other.ID, post.ID, models.EarnUpdate{Title: &title})
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := f.svc.Earn.Update(ctx, author.ID, post.ID, models.EarnUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "New title", updated.Title)

	blank := "  "
	_, err = f.svc.Earn.Update(ctx, author.ID, post.ID, models.EarnUpdate{Title: &blank})
	assert.ErrorIs(t, err, ErrInvalidInput)

	view, err := f.svc.Earn.RecordPayout(ctx, author.ID, post.ID, 250)
	require.NoError(t, err)
	assert.Equal(t, int64(250), view.PaidOut)
	assert.InDelta(t, 25.0, view.Progress, 1e-9)

	_, err = f.svc.Earn.RecordPayout(ctx, author.ID, post.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.svc.Earn.RecordPayout(ctx, other.ID, post.ID, 10)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestEarnDeleteRemovesApplications(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author, editor := f.user(t, "author"), f.user(t, "editor")
	post := f.earnPost(t, author, 1000)
	_, err := f.svc.Applications.Apply(ctx, editor.ID, post.ID, "")
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Earn.Delete(ctx, editor.ID, post.ID), ErrForbidden)
	require.NoError(t, f.svc.Earn.Delete(ctx, author.ID, post.ID))

	_, err = f.svc.Earn.Get(ctx, author.ID, post.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	mine, err := f.svc.Applications.ListMine(ctx, editor.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestEarnProgressFallsBackToBudget(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "legacy")

	// Posts written before totalBudget existed only carry budget.
	post := &models.EarnPost{
		Title:       "Thumbnail pack",
		Description: "Ten thumbnails",
		Budget:      1000,
		PaidOut:     250,
		Platform:    models.DefaultPlatform,
		AuthorID:    author.ID,
		CreatedAt:   time.Now(),
	}
	require.NoError(t, f.stores.Earn.Create(ctx, post))

	view, err := f.svc.Earn.Get(ctx, author.ID, post.ID)
	require.NoError(t, err)
	assert.InDelta(t, 25, view.Progress, 1e-9)

	free := &models.EarnPost{Title: "Volunteer", Description: "Unpaid", AuthorID: author.ID, CreatedAt: time.Now()}
	require.NoError(t, f.stores.Earn.Create(ctx, free))
	view, err = f.svc.Earn.Get(ctx, author.ID, free.ID)
	require.NoError(t, err)
	assert.Zero(t, view.Progress)
}
