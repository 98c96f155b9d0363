package reviews

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
)

var (
	slugPattern     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
)

// reserved usernames collide with routes
var reservedUsernames = []string{"me"}

var currentYear = func() int {
	return time.Now().Year()
}

func validRole(value any) error {
	role, _ := value.(UserRole)
	if p, ok := value.(*UserRole); ok {
		if p == nil {
			return nil
		}
		role = *p
	}
	if role == "" {
		return nil
	}
	if _, ok := ParseRole(string(role)); !ok {
		names := make([]string, 0, len(GetAllRoles()))
		for _, r := range GetAllRoles() {
			names = append(names, r.String())
		}
		return fmt.Errorf("must be one of: %s", strings.Join(names, ", "))
	}
	return nil
}

func notReservedUsername(value any) error {
	username, _ := value.(string)
	if p, ok := value.(*string); ok && p != nil {
		username = *p
	}
	for _, reserved := range reservedUsernames {
		if strings.EqualFold(username, reserved) {
			return fmt.Errorf("%q is reserved", reserved)
		}
	}
	return nil
}

func validateSlugs(slugs []string) error {
	for i, slug := range slugs {
		if err := validation.Validate(slug, append([]validation.Rule{validation.Required}, slugRules(200)...)...); err != nil {
			return fmt.Errorf("item %d: %s", i, err.Error())
		}
	}
	return nil
}

func slugRules(max int) []validation.Rule {
	return []validation.Rule{
		validation.Length(1, max),
		validation.Match(slugPattern).Error("must contain only letters, digits, hyphens or underscores"),
	}
}

// RequestCodePayload asks for a confirmation code
type RequestCodePayload struct {
	Email string `json:"email" form:"email"`
}

func (p RequestCodePayload) Validate() *errors.Error {
	p.Email = NormalizeEmail(p.Email)
	return errors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&p,
			validation.Field(&p.Email, validation.Required, validation.Length(1, 254), is.Email),
		)
	}, "Invalid confirmation code request")
}

// RedeemCodePayload exchanges a confirmation code for a token
type RedeemCodePayload struct {
	Email            string `json:"email" form:"email"`
	ConfirmationCode string `json:"confirmation_code" form:"confirmation_code"`
}

func (p RedeemCodePayload) Validate() *errors.Error {
	p.Email = NormalizeEmail(p.Email)
	return errors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&p,
			validation.Field(&p.Email, validation.Required, validation.Length(1, 254), is.Email),
			validation.Field(&p.ConfirmationCode, validation.Required, validation.Length(1, 128)),
		)
	}, "Invalid token request")
}

// RefreshTokenPayload exchanges a refresh token for a new access token
type RefreshTokenPayload struct {
	Refresh string `json:"refresh" form:"refresh"`
}

func (p RefreshTokenPayload) Validate() *errors.Error {
	return errors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&p,
			validation.Field(&p.Refresh, validation.Required),
		)
	}, "Invalid token refresh request")
}

// CategoryPayload creates a category
type CategoryPayload struct {
	Name string `json:"name" form:"name"`
	Slug string `json:"slug" form:"slug"`
}

func (p CategoryPayload) Validate() *errors.Error {
	return errors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&p,
			validation.Field(&p.Name, validation.Required, validation.Length(1, 30)),
			validation.Field(&p.Slug, append([]validation.Rule{validation.Required}, slugRules(50)...)...),
		)
	}, "Invalid category payload")
}

func (p CategoryPayload) Record() *Category {
	return &Category{
		Name: strings.TrimSpace(p.Name),
		Slug: strings.TrimSpace(p.Slug),
	}
}

// GenrePayload creates a genre
type GenrePayload struct {
	Name string `json:"name" form:"name"`
	Slug string `json:"slug" form:"slug"`
}

func (p GenrePayload) Validate() *errors.Error {
	return errors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&p,
			validation.Field(&p.Name, validation.Required, validation.Length(1, 200)),
			validation.Field(&p.Slug, append([]validation.Rule{validation.Required}, slugRules(200)...)...),
		)
	}, "Invalid genre payload")
}

func (p GenrePayload) Record() *Genre {
	return &Genre{
		Name: strings.TrimSpace(p.Name),
		Slug: strings.TrimSpace(p.Slug),
	}
}

// TitlePayload is the full write shape of a title. Category and genres
// are referenced by slug.
type TitlePayload struct {
	Name        string   `json:"name" form:"name"`
	Year        int      `json:"year" form:"year"`
	Description string   `json:"description" form:"description"`
	Category    string   `json:"category" form:"category"`
	Genre       []string `json:"genre" form:"genre"`
}

func (p TitlePayload) Validate() *errors.Error {
	return errors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&p,
			validation.Field(&p.Name, validation.Required, validation.Length(1, 200)),
			validation.Field(&p.Year, validation.Required, validation.Max(currentYear()).Error("year can not be in the future")),
			validation.Field(&p.Description, validation.Length(0, 500)),
			validation.Field(&p.Category, slugRules(50)...),
			validation.Field(&p.Genre, validation.By(func(any) error { return validateSlugs(p.Genre) })),
		)
	}, "Invalid title payload")
}

// Patch converts the payload into a patch setting every field
func (p TitlePayload) Patch() TitlePatchPayload {
	genre := p.Genre
	if genre == nil {
		genre = []string{}
	}
	return TitlePatchPayload{
		Name:        &p.Name,
		Year:        &p.Year,
		Description: &p.Description,
		Category:    &p.Category,
		Genre:       &genre,
	}
}

// TitlePatchPayload is the partial write shape, nil fields are left untouched
type TitlePatchPayload struct {
	Name        *string   `json:"name" form:"name"`
	Year        *int      `json:"year" form:"year"`
	Description *string   `json:"description" form:"description"`
	Category    *string   `json:"category" form:"category"`
	Genre       *[]string `json:"genre" form:"genre"`
}

func (p TitlePatchPayload) Validate() *errors.Error {
	var genre []string
	if p.Genre != nil {
		genre = *p.Genre
	}
	return errors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&p,
			validation.Field(&p.Genre, validation.By(func(any) error { return validateSlugs(genre) })),
			validation.Field(&p.Name, validation.NilOrNotEmpty, validation.Length(1, 200)),
			validation.Field(&p.Year, validation.NilOrNotEmpty, validation.Max(currentYear()).Error("year can not be in the future")),
			validation.Field(&p.Description, validation.Length(0, 500)),
			validation.Field(&p.Category, slugRules(50)...),
		)
	}, "Invalid title payload")
}

// ReviewPayload is the full write shape of a review
type ReviewPayload struct {
	Text  string `json:"text" form:"text"`
	Score int    `json:"score" form:"score"`
}

func (p ReviewPayload) Validate() *errors.Error {
	return errors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&p,
			validation.Field(&p.Text, validation.Required),
			validation.Field(&p.Score, validation.Required, validation.Min(1), validation.Max(10)),
		)
	}, "Invalid review payload")
}

// Patch converts the payload into a patch setting every field
func (p ReviewPayload) Patch() ReviewPatchPayload {
	return ReviewPatchPayload{Text: &p.Text, Score: &p.Score}
}

// ReviewPatchPayload is the partial write shape of a review
type ReviewPatchPayload struct {
	Text  *string `json:"text" form:"text"`
	Score *int    `json:"score" form:"score"`
}

func (p ReviewPatchPayload) Validate() *errors.Error {
	return errors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&p,
			validation.Field(&p.Text, validation.NilOrNotEmpty),
			validation.Field(&p.Score, validation.NilOrNotEmpty, validation.Min(1), validation.Max(10)),
		)
	}, "Invalid review payload")
}

// CommentPayload is the write shape of a comment
type CommentPayload struct {
	Text string `json:"text" form:"text"`
}

func (p CommentPayload) Validate() *errors.Error {
	return errors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&p,
			validation.Field(&p.Text, validation.Required),
		)
	}, "Invalid comment payload")
}

// CommentPatchPayload is the partial write shape of a comment
type CommentPatchPayload struct {
	Text *string `json:"text" form:"text"`
}

func (p CommentPatchPayload) Validate() *errors.Error {
	return errors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&p,
			validation.Field(&p.Text, validation.NilOrNotEmpty),
		)
	}, "Invalid comment payload")
}

// UserPayload is the admin write shape of a user
type UserPayload struct {
	Username  string   `json:"username" form:"username"`
	Email     string   `json:"email" form:"email"`
	FirstName string   `json:"first_name" form:"first_name"`
	LastName  string   `json:"last_name" form:"last_name"`
	Bio       string   `json:"bio" form:"bio"`
	Role      UserRole `json:"role" form:"role"`
}

func (p UserPayload) Validate() *errors.Error {
	p.Email = NormalizeEmail(p.Email)
	return errors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&p,
			validation.Field(&p.Username,
				validation.Required,
				validation.Length(1, 150),
				validation.Match(usernamePattern),
				validation.By(notReservedUsername),
			),
			validation.Field(&p.Email, validation.Required, validation.Length(1, 254), is.Email),
			validation.Field(&p.FirstName, validation.Length(0, 150)),
			validation.Field(&p.LastName, validation.Length(0, 150)),
			validation.Field(&p.Role, validation.By(validRole)),
		)
	}, "Invalid user payload")
}

// Patch converts the payload into a patch setting every field
func (p UserPayload) Patch() UserPatchPayload {
	patch := UserPatchPayload{
		Username:  &p.Username,
		Email:     &p.Email,
		FirstName: &p.FirstName,
		LastName:  &p.LastName,
		Bio:       &p.Bio,
	}
	if p.Role != "" {
		patch.Role = &p.Role
	}
	return patch
}

// UserPatchPayload is the partial write shape of a user
type UserPatchPayload struct {
	Username  *string   `json:"username" form:"username"`
	Email     *string   `json:"email" form:"email"`
	FirstName *string   `json:"first_name" form:"first_name"`
	LastName  *string   `json:"last_name" form:"last_name"`
	Bio       *string   `json:"bio" form:"bio"`
	Role      *UserRole `json:"role" form:"role"`
}

func (p UserPatchPayload) Validate() *errors.Error {
	if p.Email != nil {
		email := NormalizeEmail(*p.Email)
		p.Email = &email
	}
	return errors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&p,
			validation.Field(&p.Username,
				validation.NilOrNotEmpty,
				validation.Length(1, 150),
				validation.Match(usernamePattern),
				validation.By(notReservedUsername),
			),
			validation.Field(&p.Email, validation.NilOrNotEmpty, validation.Length(1, 254), is.Email),
			validation.Field(&p.FirstName, validation.Length(0, 150)),
			validation.Field(&p.LastName, validation.Length(0, 150)),
			validation.Field(&p.Role, validation.By(validRole)),
		)
	}, "Invalid user payload")
}

// ApplyTo copies the present fields onto user
func (p UserPatchPayload) ApplyTo(user *User) {
	if p.Username != nil {
		user.Username = strings.TrimSpace(*p.Username)
	}
	if p.Email != nil {
		user.Email = NormalizeEmail(*p.Email)
	}
	if p.FirstName != nil {
		user.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		user.LastName = *p.LastName
	}
	if p.Bio != nil {
		user.Bio = *p.Bio
	}
	if p.Role != nil {
		user.Role = *p.Role
	}
}
