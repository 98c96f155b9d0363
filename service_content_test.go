package reviews_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-reviews"
)

type contentFixture struct {
	repo       reviews.RepositoryManager
	categories *reviews.TaxonomyService[*reviews.Category]
	genres     *reviews.TaxonomyService[*reviews.Genre]
	titles     *reviews.TitleService
	reviews    *reviews.ReviewService
	comments   *reviews.CommentService
	admin      reviews.Actor
	moderator  reviews.Actor
	author     reviews.Actor
	stranger   reviews.Actor
}

func setupContent(t *testing.T) *contentFixture {
	t.Helper()

	repo := setupRepo(t)
	opts := []reviews.ServiceOption{reviews.WithServiceLogger(nopLogger{})}

	return &contentFixture{
		repo:       repo,
		categories: reviews.NewCategoryService(repo, opts...),
		genres:     reviews.NewGenreService(repo, opts...),
		titles:     reviews.NewTitleService(repo, opts...),
		reviews:    reviews.NewReviewService(repo, opts...),
		comments:   reviews.NewCommentService(repo, opts...),
		admin:      actorFor(createUser(t, repo, "admin", reviews.RoleAdmin)),
		moderator:  actorFor(createUser(t, repo, "moderator", reviews.RoleModerator)),
		author:     actorFor(createUser(t, repo, "author", reviews.RoleUser)),
		stranger:   actorFor(createUser(t, repo, "stranger", reviews.RoleUser)),
	}
}

func (f *contentFixture) title(t *testing.T, name string, category string, genres ...string) *reviews.Title {
	t.Helper()
	title, err := f.titles.Create(context.Background(), f.admin, reviews.TitlePayload{
		Name:     name,
		Year:     1999,
		Category: category,
		Genre:    genres,
	})
	require.NoError(t, err)
	return title
}

func (f *contentFixture) seedTaxonomy(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	_, err := f.categories.Create(ctx, f.admin, reviews.CategoryPayload{Name: "Movies", Slug: "movies"})
	require.NoError(t, err)
	_, err = f.categories.Create(ctx, f.admin, reviews.CategoryPayload{Name: "Books", Slug: "books"})
	require.NoError(t, err)
	_, err = f.genres.Create(ctx, f.admin, reviews.GenrePayload{Name: "Drama", Slug: "drama"})
	require.NoError(t, err)
	_, err = f.genres.Create(ctx, f.admin, reviews.GenrePayload{Name: "Comedy", Slug: "comedy"})
	require.NoError(t, err)
}

func TestTaxonomyService_Permissions(t *testing.T) {
	f := setupContent(t)
	ctx := context.Background()

	_, err := f.categories.Create(ctx, reviews.Anonymous(), reviews.CategoryPayload{Name: "Movies", Slug: "movies"})
	require.Error(t, err)
	assert.False(t, reviews.IsPermissionDenied(err))
	var richErr *errors.Error
	require.True(t, errors.As(err, &richErr))
	assert.Equal(t, errors.CodeUnauthorized, richErr.Code)

	_, err = f.categories.Create(ctx, f.moderator, reviews.CategoryPayload{Name: "Movies", Slug: "movies"})
	require.Error(t, err)
	assert.True(t, reviews.IsPermissionDenied(err))

	created, err := f.categories.Create(ctx, f.admin, reviews.CategoryPayload{Name: "Movies", Slug: "movies"})
	require.NoError(t, err)
	assert.Equal(t, "movies", created.Slug)

	list, err := f.categories.List(ctx, reviews.Anonymous(), "")
	require.NoError(t, err)
	require.Len(t, list, 1)

	got, err := f.categories.Get(ctx, reviews.Anonymous(), "movies")
	require.NoError(t, err)
	assert.Equal(t, "Movies", got.Name)

	err = f.categories.Delete(ctx, f.author, "movies")
	assert.True(t, reviews.IsPermissionDenied(err))
}

func TestTaxonomyService_UniqueAndValidation(t *testing.T) {
	f := setupContent(t)
	ctx := context.Background()

	_, err := f.genres.Create(ctx, f.admin, reviews.GenrePayload{Name: "Drama", Slug: "drama"})
	require.NoError(t, err)

	_, err = f.genres.Create(ctx, f.admin, reviews.GenrePayload{Name: "Drama", Slug: "drama-2"})
	require.Error(t, err)
	assert.True(t, reviews.IsUniqueViolation(err))

	_, err = f.genres.Create(ctx, f.admin, reviews.GenrePayload{Name: "Other", Slug: "drama"})
	require.Error(t, err)
	assert.True(t, reviews.IsUniqueViolation(err))

	_, err = f.genres.Create(ctx, f.admin, reviews.GenrePayload{Name: "Bad", Slug: "not a slug"})
	require.Error(t, err)
	var richErr *errors.Error
	require.True(t, errors.As(err, &richErr))
	assert.Equal(t, errors.CategoryValidation, richErr.Category)

	_, err = f.categories.Create(ctx, f.admin, reviews.CategoryPayload{Name: "A category name longer than thirty", Slug: "long"})
	require.Error(t, err)
}

func TestTaxonomyService_SearchByExactName(t *testing.T) {
	f := setupContent(t)
	f.seedTaxonomy(t)
	ctx := context.Background()

	found, err := f.categories.List(ctx, reviews.Anonymous(), reviews.NameSearch("Books"))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "books", found[0].Slug)

	none, err := f.categories.List(ctx, reviews.Anonymous(), reviews.NameSearch("Boo"))
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = f.genres.Get(ctx, reviews.Anonymous(), "missing")
	assert.True(t, reviews.IsNotFound(err))
}

func TestTitleService_CreateAndRead(t *testing.T) {
	f := setupContent(t)
	f.seedTaxonomy(t)
	ctx := context.Background()

	title := f.title(t, "The Matrix", "movies", "drama", "comedy")
	require.NotNil(t, title.Category)
	assert.Equal(t, "movies", title.Category.Slug)
	require.Len(t, title.Genres, 2)
	assert.Equal(t, "comedy", title.Genres[0].Slug)
	assert.Nil(t, title.Rating)

	got, err := f.titles.Get(ctx, reviews.Anonymous(), title.ID)
	require.NoError(t, err)
	assert.Equal(t, "The Matrix", got.Name)

	_, err = f.titles.Get(ctx, reviews.Anonymous(), uuid.New())
	assert.True(t, reviews.IsNotFound(err))
}

func TestTitleService_Validation(t *testing.T) {
	f := setupContent(t)
	f.seedTaxonomy(t)
	ctx := context.Background()

	_, err := f.titles.Create(ctx, f.admin, reviews.TitlePayload{Name: "Future", Year: time.Now().Year() + 1})
	require.Error(t, err)

	_, err = f.titles.Create(ctx, f.admin, reviews.TitlePayload{Name: "Now", Year: time.Now().Year()})
	require.NoError(t, err)

	_, err = f.titles.Create(ctx, f.admin, reviews.TitlePayload{Name: "Lost", Year: 2000, Category: "unknown"})
	require.Error(t, err)
	var richErr *errors.Error
	require.True(t, errors.As(err, &richErr))
	assert.Equal(t, reviews.TextCodeUnknownReference, richErr.TextCode)

	_, err = f.titles.Create(ctx, f.admin, reviews.TitlePayload{Name: "Lost", Year: 2000, Genre: []string{"drama", "nope"}})
	require.Error(t, err)
	require.True(t, errors.As(err, &richErr))
	assert.Equal(t, reviews.TextCodeUnknownReference, richErr.TextCode)

	_, err = f.titles.Create(ctx, f.author, reviews.TitlePayload{Name: "Mine", Year: 2000})
	assert.True(t, reviews.IsPermissionDenied(err))
}

func TestTitleService_Filter(t *testing.T) {
	f := setupContent(t)
	f.seedTaxonomy(t)
	ctx := context.Background()

	f.title(t, "Alien", "movies", "drama")
	f.title(t, "Dune", "books", "drama")
	f.title(t, "Airplane", "movies", "comedy")

	all, err := f.titles.List(ctx, reviews.Anonymous(), reviews.TitleFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	movies, err := f.titles.List(ctx, reviews.Anonymous(), reviews.TitleFilter{Category: "movies"})
	require.NoError(t, err)
	assert.Len(t, movies, 2)

	dramas, err := f.titles.List(ctx, reviews.Anonymous(), reviews.TitleFilter{Genre: "drama"})
	require.NoError(t, err)
	assert.Len(t, dramas, 2)

	named, err := f.titles.List(ctx, reviews.Anonymous(), reviews.TitleFilter{Name: "A"})
	require.NoError(t, err)
	require.Len(t, named, 2)
	assert.Equal(t, "Airplane", named[0].Name)

	byYear, err := f.titles.List(ctx, reviews.Anonymous(), reviews.TitleFilter{Year: 1998})
	require.NoError(t, err)
	assert.Empty(t, byYear)
}

func TestTitleService_UpdateAndPartialUpdate(t *testing.T) {
	f := setupContent(t)
	f.seedTaxonomy(t)
	ctx := context.Background()

	title := f.title(t, "Alien", "movies", "drama")

	name := "Aliens"
	updated, err := f.titles.PartialUpdate(ctx, f.admin, title.ID, reviews.TitlePatchPayload{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Aliens", updated.Name)
	assert.Equal(t, 1999, updated.Year)
	require.NotNil(t, updated.Category)
	assert.Equal(t, "movies", updated.Category.Slug)
	require.Len(t, updated.Genres, 1)

	replaced, err := f.titles.Update(ctx, f.admin, title.ID, reviews.TitlePayload{
		Name:  "Alien 3",
		Year:  1992,
		Genre: []string{"comedy"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1992, replaced.Year)
	assert.True(t, replaced.Category == nil || replaced.Category.Slug == "")
	require.Len(t, replaced.Genres, 1)
	assert.Equal(t, "comedy", replaced.Genres[0].Slug)

	_, err = f.titles.PartialUpdate(ctx, f.moderator, title.ID, reviews.TitlePatchPayload{Name: &name})
	assert.True(t, reviews.IsPermissionDenied(err))
}

func TestReviewService_Lifecycle(t *testing.T) {
	f := setupContent(t)
	ctx := context.Background()
	title := f.title(t, "Solaris", "")

	review, err := f.reviews.Create(ctx, f.author, title.ID, reviews.ReviewPayload{Text: "slow", Score: 4})
	require.NoError(t, err)
	assert.Equal(t, f.author.ID(), review.AuthorID)
	require.NotNil(t, review.Author)
	assert.Equal(t, "author", review.Author.Username)
	assert.False(t, review.PubDate.IsZero())

	_, err = f.reviews.Create(ctx, f.author, title.ID, reviews.ReviewPayload{Text: "again", Score: 5})
	require.ErrorIs(t, err, reviews.ErrDuplicateReview)

	_, err = f.reviews.Create(ctx, f.stranger, title.ID, reviews.ReviewPayload{Text: "great", Score: 8})
	require.NoError(t, err)

	rated, err := f.titles.Get(ctx, reviews.Anonymous(), title.ID)
	require.NoError(t, err)
	require.NotNil(t, rated.Rating)
	assert.InDelta(t, 6.0, *rated.Rating, 0.001)

	list, err := f.reviews.List(ctx, reviews.Anonymous(), title.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = f.reviews.List(ctx, reviews.Anonymous(), uuid.New())
	assert.True(t, reviews.IsNotFound(err))

	_, err = f.reviews.Create(ctx, reviews.Anonymous(), title.ID, reviews.ReviewPayload{Text: "anon", Score: 5})
	require.Error(t, err)
	assert.False(t, reviews.IsPermissionDenied(err))
}

func TestReviewService_ScoreBounds(t *testing.T) {
	f := setupContent(t)
	ctx := context.Background()
	title := f.title(t, "Stalker", "")

	for _, score := range []int{0, 11, -1} {
		_, err := f.reviews.Create(ctx, f.author, title.ID, reviews.ReviewPayload{Text: "x", Score: score})
		require.Error(t, err, "score %d", score)
	}

	_, err := f.reviews.Create(ctx, f.author, title.ID, reviews.ReviewPayload{Text: "low", Score: 1})
	require.NoError(t, err)
	_, err = f.reviews.Create(ctx, f.stranger, title.ID, reviews.ReviewPayload{Text: "high", Score: 10})
	require.NoError(t, err)
}

func TestReviewService_ObjectPermissions(t *testing.T) {
	f := setupContent(t)
	ctx := context.Background()
	title := f.title(t, "Mirror", "")

	review, err := f.reviews.Create(ctx, f.author, title.ID, reviews.ReviewPayload{Text: "mine", Score: 7})
	require.NoError(t, err)

	err = f.reviews.Delete(ctx, f.stranger, title.ID, review.ID)
	require.Error(t, err)
	assert.True(t, reviews.IsPermissionDenied(err))

	kept, err := f.reviews.Get(ctx, reviews.Anonymous(), title.ID, review.ID)
	require.NoError(t, err)
	assert.Equal(t, "mine", kept.Text)

	text := "edited"
	_, err = f.reviews.PartialUpdate(ctx, f.stranger, title.ID, review.ID, reviews.ReviewPatchPayload{Text: &text})
	assert.True(t, reviews.IsPermissionDenied(err))

	edited, err := f.reviews.PartialUpdate(ctx, f.author, title.ID, review.ID, reviews.ReviewPatchPayload{Text: &text})
	require.NoError(t, err)
	assert.Equal(t, "edited", edited.Text)
	assert.Equal(t, 7, edited.Score)

	_, err = f.reviews.Update(ctx, f.moderator, title.ID, review.ID, reviews.ReviewPayload{Text: "moderated", Score: 3})
	require.NoError(t, err)

	other := f.title(t, "Other", "")
	_, err = f.reviews.Get(ctx, reviews.Anonymous(), other.ID, review.ID)
	assert.True(t, reviews.IsNotFound(err))

	require.NoError(t, f.reviews.Delete(ctx, f.moderator, title.ID, review.ID))

	_, err = f.reviews.Get(ctx, reviews.Anonymous(), title.ID, review.ID)
	assert.True(t, reviews.IsNotFound(err))
}

func TestCommentService_Lifecycle(t *testing.T) {
	f := setupContent(t)
	ctx := context.Background()
	title := f.title(t, "Ivan", "")

	review, err := f.reviews.Create(ctx, f.author, title.ID, reviews.ReviewPayload{Text: "ok", Score: 6})
	require.NoError(t, err)

	comment, err := f.comments.Create(ctx, f.stranger, title.ID, review.ID, reviews.CommentPayload{Text: "agree"})
	require.NoError(t, err)
	require.NotNil(t, comment.Author)
	assert.Equal(t, "stranger", comment.Author.Username)

	_, err = f.comments.Create(ctx, f.stranger, uuid.New(), review.ID, reviews.CommentPayload{Text: "lost"})
	assert.True(t, reviews.IsNotFound(err))

	_, err = f.comments.Create(ctx, f.stranger, title.ID, review.ID, reviews.CommentPayload{})
	require.Error(t, err)

	list, err := f.comments.List(ctx, reviews.Anonymous(), title.ID, review.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	err = f.comments.Delete(ctx, f.author, title.ID, review.ID, comment.ID)
	assert.True(t, reviews.IsPermissionDenied(err))

	updated, err := f.comments.Update(ctx, f.stranger, title.ID, review.ID, comment.ID, reviews.CommentPayload{Text: "strongly agree"})
	require.NoError(t, err)
	assert.Equal(t, "strongly agree", updated.Text)

	require.NoError(t, f.comments.Delete(ctx, f.admin, title.ID, review.ID, comment.ID))

	_, err = f.comments.Get(ctx, reviews.Anonymous(), title.ID, review.ID, comment.ID)
	assert.True(t, reviews.IsNotFound(err))
}

func TestCascades(t *testing.T) {
	f := setupContent(t)
	f.seedTaxonomy(t)
	ctx := context.Background()

	title := f.title(t, "Nostalghia", "movies", "drama")

	require.NoError(t, f.categories.Delete(ctx, f.admin, "movies"))

	orphan, err := f.titles.Get(ctx, reviews.Anonymous(), title.ID)
	require.NoError(t, err)
	assert.True(t, orphan.Category == nil || orphan.Category.Slug == "")

	require.NoError(t, f.genres.Delete(ctx, f.admin, "drama"))
	orphan, err = f.titles.Get(ctx, reviews.Anonymous(), title.ID)
	require.NoError(t, err)
	assert.Empty(t, orphan.Genres)

	review, err := f.reviews.Create(ctx, f.author, title.ID, reviews.ReviewPayload{Text: "deep", Score: 9})
	require.NoError(t, err)
	comment, err := f.comments.Create(ctx, f.stranger, title.ID, review.ID, reviews.CommentPayload{Text: "yes"})
	require.NoError(t, err)

	require.NoError(t, f.titles.Delete(ctx, f.admin, title.ID))

	_, err = f.titles.Get(ctx, reviews.Anonymous(), title.ID)
	assert.True(t, reviews.IsNotFound(err))
	_, err = f.repo.Reviews().GetForTitle(ctx, title.ID, review.ID)
	assert.True(t, reviews.IsNotFound(err))
	_, err = f.repo.Comments().GetForReview(ctx, review.ID, comment.ID)
	assert.True(t, reviews.IsNotFound(err))
}
