package reviews

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users is the user store. Deletes are soft, deleted users are invisible
// to every lookup.
type Users interface {
	repository.Repository[*User]

	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*User, error)
	Search(ctx context.Context, term string) ([]*User, error)

	Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error)
	GetOrCreateByEmailTx(ctx context.Context, tx bun.IDB, record *User) (*User, bool, error)
	SaveProfileTx(ctx context.Context, tx bun.IDB, record *User) (*User, error)
	TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	SoftDeleteTx(ctx context.Context, tx bun.IDB, user *User) error
}

type users struct {
	repository.Repository[*User]
	db  *bun.DB
	now func() time.Time
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

type UsersOption func(*users)

// WithUsersClock overrides the clock used for timestamps
func WithUsersClock(now func() time.Time) UsersOption {
	return func(u *users) {
		if now != nil {
			u.now = now
		}
	}
}

func NewUsersRepository(db *bun.DB, opts ...UsersOption) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "username"
		},
	})

	repoUsers := &users{
		Repository: repo,
		db:         db,
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repoUsers)
		}
	}

	return repoUsers
}

func (a *users) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	return a.GetByIdentifierTx(ctx, a.db, identifier, criteria...)
}

// GetByIdentifierTx resolves identifier as an id, an email or a username
func (a *users) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	for _, opt := range resolveUserIdentifier(identifier) {
		record, err := a.selectOne(ctx, tx, opt.column, opt.value, criteria...)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				continue
			}
			return nil, storeError(err, "user", "get")
		}
		return record, nil
	}

	return nil, NewNotFound("user", map[string]any{
		"identifier": identifier,
	})
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *users) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	record, err := a.selectOne(ctx, tx, "email", NormalizeEmail(email))
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, NewNotFound("user", map[string]any{"email": email})
		}
		return nil, storeError(err, "user", "get")
	}
	return record, nil
}

func (a *users) GetByUsername(ctx context.Context, username string) (*User, error) {
	return a.GetByUsernameTx(ctx, a.db, username)
}

func (a *users) GetByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*User, error) {
	record, err := a.selectOne(ctx, tx, "username", strings.TrimSpace(username))
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, NewNotFound("user", map[string]any{"username": username})
		}
		return nil, storeError(err, "user", "get")
	}
	return record, nil
}

// Search returns users ordered by username, term matches a username substring
func (a *users) Search(ctx context.Context, term string) ([]*User, error) {
	records := []*User{}
	q := a.db.NewSelect().Model(&records)

	if term := strings.TrimSpace(term); term != "" {
		q = q.Where("LOWER(?TableAlias.username) LIKE ?", "%"+strings.ToLower(term)+"%")
	}

	if err := q.OrderExpr("?TableAlias.username ASC").Scan(ctx); err != nil {
		return nil, storeError(err, "user", "list")
	}
	return records, nil
}

func (a *users) Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	a.prepareUserDefaults(record)

	q := tx.NewInsert().Model(record).Returning("NULL")
	for _, c := range criteria {
		q = c(q)
	}

	if _, err := q.Exec(ctx); err != nil {
		return nil, storeError(err, "user", "create")
	}
	return record, nil
}

// GetOrCreateByEmailTx returns the user owning record.Email, creating it
// when missing. A preset id already held by another row, live or deleted,
// is replaced with a random one and a username held by a live user gets an
// id suffix. The insert skips on conflict so a concurrent insert of the same
// email is read back without aborting tx.
func (a *users) GetOrCreateByEmailTx(ctx context.Context, tx bun.IDB, record *User) (*User, bool, error) {
	user, err := a.GetByEmailTx(ctx, tx, record.Email)
	if err == nil {
		return user, false, nil
	}

	if !IsNotFound(err) {
		return nil, false, err
	}

	if err := a.claimIdentityTx(ctx, tx, record); err != nil {
		return nil, false, err
	}
	a.prepareUserDefaults(record)

	res, err := tx.NewInsert().
		Model(record).
		On("CONFLICT DO NOTHING").
		Returning("NULL").
		Exec(ctx)
	if err != nil {
		return nil, false, storeError(err, "user", "create")
	}

	if n, err := res.RowsAffected(); err == nil && n == 1 {
		return record, true, nil
	}

	existing, err := a.GetByEmailTx(ctx, tx, record.Email)
	if err != nil {
		if IsNotFound(err) {
			return nil, false, userConflict(record)
		}
		return nil, false, err
	}
	return existing, false, nil
}

func (a *users) claimIdentityTx(ctx context.Context, tx bun.IDB, record *User) error {
	if record.ID != uuid.Nil {
		taken, err := tx.NewSelect().
			Model((*User)(nil)).
			WhereAllWithDeleted().
			Where("?TableAlias.id = ?", record.ID).
			Exists(ctx)
		if err != nil {
			return storeError(err, "user", "create")
		}
		if taken {
			record.ID = uuid.Nil
		}
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	username := strings.TrimSpace(record.Username)
	if username == "" {
		return nil
	}

	taken, err := tx.NewSelect().
		Model((*User)(nil)).
		Where("?TableAlias.username = ?", username).
		Exists(ctx)
	if err != nil {
		return storeError(err, "user", "create")
	}
	if taken {
		username = fmt.Sprintf("%s-%s", clip(username, maxUsernameLength-9), record.ID.String()[:8])
	}
	record.Username = clip(username, maxUsernameLength)
	return nil
}

const maxUsernameLength = 150

func clip(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

func userConflict(record *User) error {
	return errors.New("user with this email already exists.", errors.CategoryConflict).
		WithTextCode(TextCodeUniqueViolation).
		WithCode(errors.CodeBadRequest).
		WithMetadata(map[string]any{
			"resource": "user",
			"field":    "email",
			"email":    record.Email,
		})
}

// SaveProfileTx persists the editable profile columns of record
func (a *users) SaveProfileTx(ctx context.Context, tx bun.IDB, record *User) (*User, error) {
	now := a.timestamp()
	record.Email = NormalizeEmail(record.Email)
	record.UpdatedAt = &now

	res, err := tx.NewUpdate().
		Model(record).
		Column("username", "email", "role", "first_name", "last_name", "bio", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, storeError(err, "user", "update")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, NewNotFound("user", map[string]any{"id": record.ID.String()})
	}

	return record, nil
}

// TrackSuccessfulLoginTx activates the user and stamps the login time.
// Both columns feed the confirmation code hash so any redeemed code is
// invalidated. The update only applies while the stored login time still
// matches the one user was loaded with, a concurrent redemption that got
// there first yields ErrInvalidConfirmationCode.
func (a *users) TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	previous := user.LoggedInAt
	now := a.timestamp()

	next := *user
	next.Active = true
	next.LoggedInAt = &now

	q := tx.NewUpdate().
		Model(&next).
		Column("is_active", "loggedin_at").
		WherePK()
	if previous == nil {
		q = q.Where("loggedin_at IS NULL")
	} else {
		q = q.Where("loggedin_at = ?", *previous)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return nil, storeError(err, "user", "update")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrInvalidConfirmationCode
	}

	*user = next
	return user, nil
}

func (a *users) SoftDeleteTx(ctx context.Context, tx bun.IDB, user *User) error {
	res, err := tx.NewDelete().
		Model(user).
		WherePK().
		Exec(ctx)
	if err != nil {
		return storeError(err, "user", "delete")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return NewNotFound("user", map[string]any{"id": user.ID.String()})
	}
	return nil
}

func (a *users) selectOne(ctx context.Context, tx bun.IDB, column, value string, criteria ...repository.SelectCriteria) (*User, error) {
	record := &User{}
	q := tx.NewSelect().Model(record)

	for _, c := range criteria {
		q.Apply(c)
	}

	err := q.
		Where("?TableAlias.? = ?", bun.Ident(column), value).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (a *users) timestamp() time.Time {
	return a.now().UTC().Truncate(time.Microsecond)
}

func (a *users) prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.Role == "" {
		record.Role = RoleUser
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	record.Email = NormalizeEmail(record.Email)

	now := a.timestamp()
	if record.CreatedAt == nil {
		record.CreatedAt = &now
	}
	if record.UpdatedAt == nil {
		record.UpdatedAt = &now
	}
}

// NormalizeEmail trims and lowercases an address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type identifierOption struct {
	column string
	value  string
}

func resolveUserIdentifier(identifier string) []identifierOption {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return nil
	}

	options := make([]identifierOption, 0, 3)

	if _, err := uuid.Parse(trimmed); err == nil {
		options = append(options, identifierOption{
			column: "id",
			value:  trimmed,
		})
	}

	if strings.Contains(trimmed, "@") {
		options = append(options, identifierOption{
			column: "email",
			value:  NormalizeEmail(trimmed),
		})
	}

	options = append(options, identifierOption{
		column: "username",
		value:  trimmed,
	})

	return options
}
