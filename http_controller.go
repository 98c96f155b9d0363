package reviews

import (
	"net/http"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// RouteRegistrar captures the router methods used by the controller
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Put(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Patch(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Delete(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// DefaultAPIPrefix is where RegisterAPIRoutes mounts the API
const DefaultAPIPrefix = "/api/v1"

// APIController exposes the services as JSON handlers
type APIController struct {
	auth       *EmailAuthenticator
	categories *TaxonomyService[*Category]
	genres     *TaxonomyService[*Genre]
	titles     *TitleService
	reviews    *ReviewService
	comments   *CommentService
	users      *UserService

	Prefix       string
	Logger       Logger
	ErrorHandler func(c router.Context, err error) error
}

type APIControllerOption func(*APIController)

func WithControllerLogger(logger Logger) APIControllerOption {
	return func(c *APIController) {
		c.Logger = ResolveLogger(logger)
		c.ErrorHandler = NewErrorHandler(c.Logger)
	}
}

func WithControllerErrorHandler(handler func(router.Context, error) error) APIControllerOption {
	return func(c *APIController) {
		if handler != nil {
			c.ErrorHandler = handler
		}
	}
}

func WithControllerPrefix(prefix string) APIControllerOption {
	return func(c *APIController) {
		c.Prefix = prefix
	}
}

// WithServiceOptions forwards options to every resource service
func WithServiceOptions(repo RepositoryManager, opts ...ServiceOption) APIControllerOption {
	return func(c *APIController) {
		c.categories = NewCategoryService(repo, opts...)
		c.genres = NewGenreService(repo, opts...)
		c.titles = NewTitleService(repo, opts...)
		c.reviews = NewReviewService(repo, opts...)
		c.comments = NewCommentService(repo, opts...)
		c.users = NewUserService(repo, opts...)
	}
}

func NewAPIController(repo RepositoryManager, auth *EmailAuthenticator, opts ...APIControllerOption) *APIController {
	c := &APIController{
		auth:       auth,
		categories: NewCategoryService(repo),
		genres:     NewGenreService(repo),
		titles:     NewTitleService(repo),
		reviews:    NewReviewService(repo),
		comments:   NewCommentService(repo),
		users:      NewUserService(repo),
		Prefix:     DefaultAPIPrefix,
		Logger:     defLogger{},
	}
	c.ErrorHandler = NewErrorHandler(c.Logger)

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// RegisterAPIRoutes mounts every endpoint under the controller prefix. mw
// runs on each route, usually RouteAuthenticator.OptionalRoute.
func RegisterAPIRoutes(app RouteRegistrar, c *APIController, mw ...router.MiddlewareFunc) {
	p := c.Prefix

	app.Post(p+"/auth/email", c.RequestCode).SetName("auth.email.post")
	app.Post(p+"/auth/token", c.RedeemCode).SetName("auth.token.post")
	app.Post(p+"/auth/token/refresh", c.RefreshToken).SetName("auth.token-refresh.post")

	app.Get(p+"/categories", c.ListCategories, mw...).SetName("categories.list")
	app.Post(p+"/categories", c.CreateCategory, mw...).SetName("categories.create")
	app.Get(p+"/categories/:slug", c.GetCategory, mw...).SetName("categories.get")
	app.Delete(p+"/categories/:slug", c.DeleteCategory, mw...).SetName("categories.delete")

	app.Get(p+"/genres", c.ListGenres, mw...).SetName("genres.list")
	app.Post(p+"/genres", c.CreateGenre, mw...).SetName("genres.create")
	app.Get(p+"/genres/:slug", c.GetGenre, mw...).SetName("genres.get")
	app.Delete(p+"/genres/:slug", c.DeleteGenre, mw...).SetName("genres.delete")

	app.Get(p+"/titles", c.ListTitles, mw...).SetName("titles.list")
	app.Post(p+"/titles", c.CreateTitle, mw...).SetName("titles.create")
	app.Get(p+"/titles/:title_id", c.GetTitle, mw...).SetName("titles.get")
	app.Put(p+"/titles/:title_id", c.UpdateTitle, mw...).SetName("titles.update")
	app.Patch(p+"/titles/:title_id", c.PartialUpdateTitle, mw...).SetName("titles.patch")
	app.Delete(p+"/titles/:title_id", c.DeleteTitle, mw...).SetName("titles.delete")

	reviews := p + "/titles/:title_id/reviews"
	app.Get(reviews, c.ListReviews, mw...).SetName("reviews.list")
	app.Post(reviews, c.CreateReview, mw...).SetName("reviews.create")
	app.Get(reviews+"/:review_id", c.GetReview, mw...).SetName("reviews.get")
	app.Put(reviews+"/:review_id", c.UpdateReview, mw...).SetName("reviews.update")
	app.Patch(reviews+"/:review_id", c.PartialUpdateReview, mw...).SetName("reviews.patch")
	app.Delete(reviews+"/:review_id", c.DeleteReview, mw...).SetName("reviews.delete")

	comments := reviews + "/:review_id/comments"
	app.Get(comments, c.ListComments, mw...).SetName("comments.list")
	app.Post(comments, c.CreateComment, mw...).SetName("comments.create")
	app.Get(comments+"/:comment_id", c.GetComment, mw...).SetName("comments.get")
	app.Put(comments+"/:comment_id", c.UpdateComment, mw...).SetName("comments.update")
	app.Patch(comments+"/:comment_id", c.PartialUpdateComment, mw...).SetName("comments.patch")
	app.Delete(comments+"/:comment_id", c.DeleteComment, mw...).SetName("comments.delete")

	// me before :username
	app.Get(p+"/users/me", c.GetSelf, mw...).SetName("users.me.get")
	app.Patch(p+"/users/me", c.UpdateSelf, mw...).SetName("users.me.patch")
	app.Get(p+"/users", c.ListUsers, mw...).SetName("users.list")
	app.Post(p+"/users", c.CreateUser, mw...).SetName("users.create")
	app.Get(p+"/users/:username", c.GetUser, mw...).SetName("users.get")
	app.Put(p+"/users/:username", c.UpdateUser, mw...).SetName("users.update")
	app.Patch(p+"/users/:username", c.PartialUpdateUser, mw...).SetName("users.patch")
	app.Delete(p+"/users/:username", c.DeleteUser, mw...).SetName("users.delete")
}

////////////////////////////////////////////////////////////////////////////
// views

type TaxonomyView struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type TitleView struct {
	ID          uuid.UUID      `json:"id"`
	Name        string         `json:"name"`
	Year        int            `json:"year"`
	Description string         `json:"description"`
	Category    *TaxonomyView  `json:"category"`
	Genre       []TaxonomyView `json:"genre"`
	Rating      *float64       `json:"rating"`
}

type ReviewView struct {
	ID      uuid.UUID `json:"id"`
	Text    string    `json:"text"`
	Author  *string   `json:"author"`
	Score   int       `json:"score"`
	PubDate time.Time `json:"pub_date"`
}

type CommentView struct {
	ID      uuid.UUID `json:"id"`
	Text    string    `json:"text"`
	Author  *string   `json:"author"`
	PubDate time.Time `json:"pub_date"`
}

type UserView struct {
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Bio       string   `json:"bio"`
	Role      UserRole `json:"role"`
}

func NewCategoryView(record *Category) TaxonomyView {
	return TaxonomyView{Name: record.Name, Slug: record.Slug}
}

func NewGenreView(record *Genre) TaxonomyView {
	return TaxonomyView{Name: record.Name, Slug: record.Slug}
}

// NewTitleView renders a title, an unset category becomes null
func NewTitleView(record *Title) TitleView {
	view := TitleView{
		ID:          record.ID,
		Name:        record.Name,
		Year:        record.Year,
		Description: record.Description,
		Genre:       make([]TaxonomyView, 0, len(record.Genres)),
		Rating:      record.Rating,
	}
	if record.Category != nil && record.Category.ID != uuid.Nil {
		category := NewCategoryView(record.Category)
		view.Category = &category
	}
	for _, genre := range record.Genres {
		view.Genre = append(view.Genre, NewGenreView(genre))
	}
	return view
}

func NewReviewView(record *Review) ReviewView {
	return ReviewView{
		ID:      record.ID,
		Text:    record.Text,
		Author:  authorName(record.Author),
		Score:   record.Score,
		PubDate: record.PubDate,
	}
}

func NewCommentView(record *Comment) CommentView {
	return CommentView{
		ID:      record.ID,
		Text:    record.Text,
		Author:  authorName(record.Author),
		PubDate: record.PubDate,
	}
}

func NewUserView(record *User) UserView {
	return UserView{
		Username:  record.Username,
		Email:     record.Email,
		FirstName: record.FirstName,
		LastName:  record.LastName,
		Bio:       record.Bio,
		Role:      record.Role,
	}
}

// authorName is nil when the author row is gone
func authorName(user *User) *string {
	if user == nil || user.Username == "" {
		return nil
	}
	name := user.Username
	return &name
}

func mapViews[T any, V any](records []T, view func(T) V) []V {
	out := make([]V, 0, len(records))
	for _, record := range records {
		out = append(out, view(record))
	}
	return out
}

////////////////////////////////////////////////////////////////////////////
// auth

func (c *APIController) RequestCode(ctx router.Context) error {
	payload := RequestCodePayload{}
	if err := c.bind(ctx, &payload); err != nil {
		return c.fail(ctx, err)
	}

	email, err := c.auth.RequestCode(ctx.Context(), payload)
	if err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, map[string]string{"email": email})
}

func (c *APIController) RedeemCode(ctx router.Context) error {
	payload := RedeemCodePayload{}
	if err := c.bind(ctx, &payload); err != nil {
		return c.fail(ctx, err)
	}

	pair, err := c.auth.RedeemCode(ctx.Context(), payload)
	if err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, pair)
}

func (c *APIController) RefreshToken(ctx router.Context) error {
	payload := RefreshTokenPayload{}
	if err := c.bind(ctx, &payload); err != nil {
		return c.fail(ctx, err)
	}

	token, err := c.auth.RefreshToken(ctx.Context(), payload)
	if err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, map[string]string{"token": token})
}

////////////////////////////////////////////////////////////////////////////
// categories and genres

func (c *APIController) ListCategories(ctx router.Context) error {
	records, err := c.categories.List(ctx.Context(), ActorFromRouterContext(ctx), NameSearch(ctx.Query("search", "")))
	if err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, mapViews(records, NewCategoryView))
}

func (c *APIController) GetCategory(ctx router.Context) error {
	record, err := c.categories.Get(ctx.Context(), ActorFromRouterContext(ctx), ctx.Param("slug"))
	if err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, NewCategoryView(record))
}

func (c *APIController) CreateCategory(ctx router.Context) error {
	payload := CategoryPayload{}
	if err := c.bind(ctx, &payload); err != nil {
		return c.fail(ctx, err)
	}

	record, err := c.categories.Create(ctx.Context(), ActorFromRouterContext(ctx), payload)
	if err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(http.StatusCreated, NewCategoryView(record))
}

func (c *APIController) DeleteCategory(ctx router.Context) error {
	if err := c.categories.Delete(ctx.Context(), ActorFromRouterContext(ctx), ctx.Param("slug")); err != nil {
		return c.fail(ctx, err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (c *APIController) ListGenres(ctx router.Context) error {
	records, err := c.genres.List(ctx.Context(), ActorFromRouterContext(ctx), NameSearch(ctx.Query("search", "")))
	if err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, mapViews(records, NewGenreView))
}

func (c *APIController) GetGenre(ctx router.Context) error {
	record, err := c.genres.Get(ctx.Context(), ActorFromRouterContext(ctx), ctx.Param("slug"))
	if err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, NewGenreView(record))
}

func (c *APIController) CreateGenre(ctx router.Context) error {
	payload := GenrePayload{}
	if err := c.bind(ctx, &payload); err != nil {
		return c.fail(ctx, err)
	}

	record, err := c.genres.Create(ctx.Context(), ActorFromRouterContext(ctx), payload)
	if err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(http.StatusCreated, NewGenreView(record))
}

func (c *APIController) DeleteGenre(ctx router.Context) error {
	if err := c.genres.Delete(ctx.Context(), ActorFromRouterContext(ctx), ctx.Param("slug")); err != nil {
		return c.fail(ctx, err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

////////////////////////////////////////////////////////////////////////////
// titles

func (c *APIController) ListTitles(ctx router.Context) error {
	filter := ParseTitleFilter(func(key string) string {
		return ctx.Query(key, "")
	})

	records, err := c.titles.List(ctx.Context(), ActorFromRouterContext(ctx), filter)
	if err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, mapViews(records, NewTitleView))
}

func (c *APIController) GetTitle(ctx router.Context) error {
	id, err := pathUUID(ctx, "title_id", "title")
	if err != nil {
		return c.fail(ctx, err)
	}

	record, err := c.titles.Get(ctx.Context(), ActorFromRouterContext(ctx), id)
	if err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, NewTitleView(record))
}

func (c *APIController) CreateTitle(ctx router.Context) error {
	payload := TitlePayload{}
	if err := c.bind(ctx, &payload); err != nil {
		return c.fail(ctx, err)
	}

	record, err := c.titles.Create(ctx.Context(), ActorFromRouterContext(ctx), payload)
	if err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(http.StatusCreated, NewTitleView(record))
}

func (c *APIController) UpdateTitle(ctx router.Context) error {
	id, err := pathUUID(ctx, "title_id", "title")
	if err != nil {
		return c.fail(ctx, err)
	}

	payload := TitlePayload{}
	if err := c.bind(ctx, &payload); err != nil {
		return c.fail(ctx, err)
	}

	record, err := c.titles.Update(ctx.Context(), ActorFromRouterContext(ctx), id, payload)
	if err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, NewTitleView(record))
}

func (c *APIController) PartialUpdateTitle(ctx router.Context) error {
	id, err := pathUUID(ctx, "title_id", "title")
	if err != nil {
		return c.fail(ctx, err)
	}

	payload := TitlePatchPayload{}
	if err := c.bind(ctx, &payload); err != nil {
		return c.fail(ctx, err)
	}

	record, err := c.titles.PartialUpdate(ctx.Context(), ActorFromRouterContext(ctx), id, payload)
	if err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, NewTitleView(record))
}

func (c *APIController) DeleteTitle(ctx router.Context) error {
	id, err := pathUUID(ctx, "title_id", "title")
	if err != nil {
		return c.fail(ctx, err)
	}

	if err := c.titles.Delete(ctx.Context(), ActorFromRouterContext(ctx), id); err != nil {
		return c.fail(ctx, err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

////////////////////////////////////////////////////////////////////////////
// reviews

func (c *APIController) ListReviews(ctx router.Context) error {
	titleID, err := pathUUID(ctx, "title_id", "title")
	if err != nil {
		return c.fail(ctx, err)
	}

	records, err := c.reviews.List(ctx.Context(), ActorFromRouterContext(ctx), titleID)
	if err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, mapViews(records, NewReviewView))
}

func (c *APIController) GetReview(ctx router.Context) error {
	titleID, reviewID, err := reviewPath(ctx)
	if err != nil {
		return c.fail(ctx, err)
	}

	record, err := c.reviews.Get(ctx.Context(), ActorFromRouterContext(ctx), titleID, reviewID)
	if err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, NewReviewView(record))
}

func (c *APIController) CreateReview(ctx router.Context) error {
	titleID, err := pathUUID(ctx, "title_id", "title")
	if err != nil {
		return c.fail(ctx, err)
	}

	payload := ReviewPayload{}
	if err := c.bind(ctx, &payload); err != nil {
		return c.fail(ctx, err)
	}

	record, err := c.reviews.Create(ctx.Context(), ActorFromRouterContext(ctx), titleID, payload)
	if err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(http.StatusCreated, NewReviewView(record))
}

func (c *APIController) UpdateReview(ctx router.Context) error {
	titleID, reviewID, err := reviewPath(ctx)
	if err != nil {
		return c.fail(ctx, err)
	}

	payload := ReviewPayload{}
	if err := c.bind(ctx, &payload); err != nil {
		return c.fail(ctx, err)
	}

	record, err := c.reviews.Update(ctx.Context(), ActorFromRouterContext(ctx), titleID, reviewID, payload)
	if err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, NewReviewView(record))
}

func (c *APIController) PartialUpdateReview(ctx router.Context) error {
	titleID, reviewID, err := reviewPath(ctx)
	if err != nil {
		return c.fail(ctx, err)
	}

	payload := ReviewPatchPayload{}
	if err := c.bind(ctx, &payload); err != nil {
		return c.fail(ctx, err)
	}

	record, err := c.reviews.PartialUpdate(ctx.Context(), ActorFromRouterContext(ctx), titleID, reviewID, payload)
	if err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, NewReviewView(record))
}

func (c *APIController) DeleteReview(ctx router.Context) error {
	titleID, reviewID, err := reviewPath(ctx)
	if err != nil {
		return c.fail(ctx, err)
	}

	if err := c.reviews.Delete(ctx.Context(), ActorFromRouterContext(ctx), titleID, reviewID); err != nil {
		return c.fail(ctx, err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

////////////////////////////////////////////////////////////////////////////
// comments

func (c *APIController) ListComments(ctx router.Context) error {
	titleID, reviewID, err := reviewPath(ctx)
	if err != nil {
		return c.fail(ctx, err)
	}

	records, err := c.comments.List(ctx.Context(), ActorFromRouterContext(ctx), titleID, reviewID)
	if err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, mapViews(records, NewCommentView))
}

func (c *APIController) GetComment(ctx router.Context) error {
	titleID, reviewID, commentID, err := commentPath(ctx)
	if err != nil {
		return c.fail(ctx, err)
	}

	record, err := c.comments.Get(ctx.Context(), ActorFromRouterContext(ctx), titleID, reviewID, commentID)
	if err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, NewCommentView(record))
}

func (c *APIController) CreateComment(ctx router.Context) error {
	titleID, reviewID, err := reviewPath(ctx)
	if err != nil {
		return c.fail(ctx, err)
	}

	payload := CommentPayload{}
	if err := c.bind(ctx, &payload); err != nil {
		return c.fail(ctx, err)
	}

	record, err := c.comments.Create(ctx.Context(), ActorFromRouterContext(ctx), titleID, reviewID, payload)
	if err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(http.StatusCreated, NewCommentView(record))
}

func (c *APIController) UpdateComment(ctx router.Context) error {
	titleID, reviewID, commentID, err := commentPath(ctx)
	if err != nil {
		return c.fail(ctx, err)
	}

	payload := CommentPayload{}
	if err := c.bind(ctx, &payload); err != nil {
		return c.fail(ctx, err)
	}

	record, err := c.comments.Update(ctx.Context(), ActorFromRouterContext(ctx), titleID, reviewID, commentID, payload)
	if err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, NewCommentView(record))
}

func (c *APIController) PartialUpdateComment(ctx router.Context) error {
	titleID, reviewID, commentID, err := commentPath(ctx)
	if err != nil {
		return c.fail(ctx, err)
	}

	payload := CommentPatchPayload{}
	if err := c.bind(ctx, &payload); err != nil {
		return c.fail(ctx, err)
	}

	record, err := c.comments.PartialUpdate(ctx.Context(), ActorFromRouterContext(ctx), titleID, reviewID, commentID, payload)
	if err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, NewCommentView(record))
}

func (c *APIController) DeleteComment(ctx router.Context) error {
	titleID, reviewID, commentID, err := commentPath(ctx)
	if err != nil {
		return c.fail(ctx, err)
	}

	if err := c.comments.Delete(ctx.Context(), ActorFromRouterContext(ctx), titleID, reviewID, commentID); err != nil {
		return c.fail(ctx, err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

////////////////////////////////////////////////////////////////////////////
// users

func (c *APIController) ListUsers(ctx router.Context) error {
	records, err := c.users.List(ctx.Context(), ActorFromRouterContext(ctx), ctx.Query("search", ""))
	if err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, mapViews(records, NewUserView))
}

func (c *APIController) GetUser(ctx router.Context) error {
	record, err := c.users.Get(ctx.Context(), ActorFromRouterContext(ctx), ctx.Param("username"))
	if err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, NewUserView(record))
}

func (c *APIController) CreateUser(ctx router.Context) error {
	payload := UserPayload{}
	if err := c.bind(ctx, &payload); err != nil {
		return c.fail(ctx, err)
	}

	record, err := c.users.Create(ctx.Context(), ActorFromRouterContext(ctx), payload)
	if err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(http.StatusCreated, NewUserView(record))
}

func (c *APIController) UpdateUser(ctx router.Context) error {
	payload := UserPayload{}
	if err := c.bind(ctx, &payload); err != nil {
		return c.fail(ctx, err)
	}

	record, err := c.users.Update(ctx.Context(), ActorFromRouterContext(ctx), ctx.Param("username"), payload)
	if err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, NewUserView(record))
}

func (c *APIController) PartialUpdateUser(ctx router.Context) error {
	payload := UserPatchPayload{}
	if err := c.bind(ctx, &payload); err != nil {
		return c.fail(ctx, err)
	}

	record, err := c.users.PartialUpdate(ctx.Context(), ActorFromRouterContext(ctx), ctx.Param("username"), payload)
	if err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, NewUserView(record))
}

func (c *APIController) DeleteUser(ctx router.Context) error {
	if err := c.users.Delete(ctx.Context(), ActorFromRouterContext(ctx), ctx.Param("username")); err != nil {
		return c.fail(ctx, err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (c *APIController) GetSelf(ctx router.Context) error {
	record, err := c.users.GetSelf(ctx.Context(), ActorFromRouterContext(ctx))
	if err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, NewUserView(record))
}

func (c *APIController) UpdateSelf(ctx router.Context) error {
	payload := UserPatchPayload{}
	if err := c.bind(ctx, &payload); err != nil {
		return c.fail(ctx, err)
	}

	record, err := c.users.UpdateSelf(ctx.Context(), ActorFromRouterContext(ctx), payload)
	if err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, NewUserView(record))
}

////////////////////////////////////////////////////////////////////////////

func (c *APIController) bind(ctx router.Context, payload any) error {
	if err := ctx.Bind(payload); err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "Malformed request body").
			WithCode(errors.CodeBadRequest)
	}
	return nil
}

func (c *APIController) fail(ctx router.Context, err error) error {
	return c.ErrorHandler(ctx, err)
}

// a path id that is not a uuid cannot match any record
func pathUUID(ctx router.Context, param, resource string) (uuid.UUID, error) {
	raw := ctx.Param(param)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, NewNotFound(resource, map[string]any{"id": raw})
	}
	return id, nil
}

func reviewPath(ctx router.Context) (uuid.UUID, uuid.UUID, error) {
	titleID, err := pathUUID(ctx, "title_id", "title")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	reviewID, err := pathUUID(ctx, "review_id", "review")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return titleID, reviewID, nil
}

func commentPath(ctx router.Context) (uuid.UUID, uuid.UUID, uuid.UUID, error) {
	titleID, reviewID, err := reviewPath(ctx)
	if err != nil {
		return uuid.Nil, uuid.Nil, uuid.Nil, err
	}
	commentID, err := pathUUID(ctx, "comment_id", "comment")
	if err != nil {
		return uuid.Nil, uuid.Nil, uuid.Nil, err
	}
	return titleID, reviewID, commentID, nil
}
