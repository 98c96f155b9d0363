package reviews

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the user model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero" json:"id,omitempty"`
	Username      string     `bun:"username,notnull" json:"username"`
	Email         string     `bun:"email,notnull" json:"email"`
	Role          UserRole   `bun:"role,notnull" json:"role"`
	FirstName     string     `bun:"first_name,notnull" json:"first_name"`
	LastName      string     `bun:"last_name,notnull" json:"last_name"`
	Bio           string     `bun:"bio,notnull" json:"bio"`
	IsStaff       bool       `bun:"is_staff,notnull" json:"-"`
	Active        bool       `bun:"is_active,notnull" json:"-"`
	LoggedInAt    *time.Time `bun:"loggedin_at" json:"-"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"-"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"-"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"-"`
}

// IsAdmin reports administrative rights, granted by role or by the staff flag
func (u *User) IsAdmin() bool {
	if u == nil {
		return false
	}
	return u.Role == RoleAdmin || u.IsStaff
}

// IsModerator reports the moderator role
func (u *User) IsModerator() bool {
	if u == nil {
		return false
	}
	return u.Role == RoleModerator
}

// Category groups titles, e.g. "Movies" or "Books"
type Category struct {
	bun.BaseModel `bun:"table:categories,alias:cat"`
	ID            uuid.UUID `bun:"id,pk,nullzero" json:"-"`
	Name          string    `bun:"name,notnull,unique" json:"name"`
	Slug          string    `bun:"slug,notnull,unique" json:"slug"`
}

// Genre tags titles, a title can have many
type Genre struct {
	bun.BaseModel `bun:"table:genres,alias:gen"`
	ID            uuid.UUID `bun:"id,pk,nullzero" json:"-"`
	Name          string    `bun:"name,notnull,unique" json:"name"`
	Slug          string    `bun:"slug,notnull,unique" json:"slug"`
}

// Title is the work being reviewed. Rating is the average review
// score, computed on read and never stored.
type Title struct {
	bun.BaseModel `bun:"table:titles,alias:ttl"`
	ID            uuid.UUID  `bun:"id,pk,nullzero" json:"id"`
	Name          string     `bun:"name,notnull" json:"name"`
	Year          int        `bun:"year,notnull" json:"year"`
	Description   string     `bun:"description,notnull" json:"description"`
	CategoryID    *uuid.UUID `bun:"category_id" json:"-"`
	Category      *Category  `bun:"rel:belongs-to,join:category_id=id" json:"category"`
	Genres        []*Genre   `bun:"m2m:genre_title,join:Title=Genre" json:"genre"`
	Rating        *float64   `bun:"rating,scanonly" json:"rating"`
}

// TitleGenre is the join table between titles and genres
type TitleGenre struct {
	bun.BaseModel `bun:"table:genre_title,alias:gt"`
	TitleID       uuid.UUID `bun:"title_id,pk"`
	Title         *Title    `bun:"rel:belongs-to,join:title_id=id"`
	GenreID       uuid.UUID `bun:"genre_id,pk"`
	Genre         *Genre    `bun:"rel:belongs-to,join:genre_id=id"`
}

// Review is a scored text review. A user reviews a title at most once.
type Review struct {
	bun.BaseModel `bun:"table:reviews,alias:rev"`
	ID            uuid.UUID `bun:"id,pk,nullzero" json:"id"`
	TitleID       uuid.UUID `bun:"title_id,notnull" json:"-"`
	AuthorID      uuid.UUID `bun:"author_id,notnull" json:"-"`
	Author        *User     `bun:"rel:belongs-to,join:author_id=id" json:"-"`
	Text          string    `bun:"text,notnull" json:"text"`
	Score         int       `bun:"score,notnull" json:"score"`
	PubDate       time.Time `bun:"pub_date,notnull" json:"pub_date"`
}

// GetAuthorID implements Authored
func (r *Review) GetAuthorID() uuid.UUID {
	return r.AuthorID
}

// Comment is a reply on a review
type Comment struct {
	bun.BaseModel `bun:"table:comments,alias:cmt"`
	ID            uuid.UUID `bun:"id,pk,nullzero" json:"id"`
	ReviewID      uuid.UUID `bun:"review_id,notnull" json:"-"`
	AuthorID      uuid.UUID `bun:"author_id,notnull" json:"-"`
	Author        *User     `bun:"rel:belongs-to,join:author_id=id" json:"-"`
	Text          string    `bun:"text,notnull" json:"text"`
	PubDate       time.Time `bun:"pub_date,notnull" json:"pub_date"`
}

// GetAuthorID implements Authored
func (c *Comment) GetAuthorID() uuid.UUID {
	return c.AuthorID
}

// Authored is implemented by objects owned by a single user
type Authored interface {
	GetAuthorID() uuid.UUID
}

var (
	_ Authored = (*Review)(nil)
	_ Authored = (*Comment)(nil)
)

// Models lists every bun model, join tables first, for db.RegisterModel
func Models() []any {
	return []any{
		(*TitleGenre)(nil),
		(*User)(nil),
		(*Category)(nil),
		(*Genre)(nil),
		(*Title)(nil),
		(*Review)(nil),
		(*Comment)(nil),
	}
}
