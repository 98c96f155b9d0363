package reviews_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"github.com/goliatone/go-reviews"
)

func TestUsersRepository_CreateAndLookup(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	user, err := repo.Users().Create(ctx, &reviews.User{
		Username: "critic",
		Email:    "  Critic@Example.com ",
	})
	require.NoError(t, err)
	assert.Equal(t, reviews.RoleUser, user.Role)
	assert.Equal(t, "critic@example.com", user.Email)
	require.NotNil(t, user.CreatedAt)

	byEmail, err := repo.Users().GetByEmail(ctx, "CRITIC@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	byUsername, err := repo.Users().GetByUsername(ctx, "critic")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byUsername.ID)

	byID, err := repo.Users().GetByIdentifier(ctx, user.ID.String())
	require.NoError(t, err)
	assert.Equal(t, user.Username, byID.Username)
	assert.Equal(t, user.UpdatedAt.UnixMicro(), byID.UpdatedAt.UnixMicro())

	_, err = repo.Users().GetByUsername(ctx, "nobody")
	require.Error(t, err)
	assert.True(t, reviews.IsNotFound(err))
}

func TestUsersRepository_UniqueFields(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	createUser(t, repo, "critic", reviews.RoleUser)

	_, err := repo.Users().Create(ctx, &reviews.User{Username: "critic", Email: "other@example.com"})
	require.Error(t, err)
	assert.True(t, reviews.IsUniqueViolation(err))

	var richErr *errors.Error
	require.True(t, errors.As(err, &richErr))
	assert.Equal(t, errors.CategoryConflict, richErr.Category)
	assert.Equal(t, "username", richErr.Metadata["field"])

	_, err = repo.Users().Create(ctx, &reviews.User{Username: "second", Email: "critic@example.com"})
	require.Error(t, err)
	require.True(t, errors.As(err, &richErr))
	assert.Equal(t, "email", richErr.Metadata["field"])
}

func TestUsersRepository_GetOrCreateByEmail(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	var first, second *reviews.User
	var created bool
	err := repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		first, created, err = repo.Users().GetOrCreateByEmailTx(ctx, tx, &reviews.User{
			Email:    "new@example.com",
			Username: "new@example.com",
		})
		return err
	})
	require.NoError(t, err)
	assert.True(t, created)

	err = repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		second, created, err = repo.Users().GetOrCreateByEmailTx(ctx, tx, &reviews.User{
			Email:    "new@example.com",
			Username: "new@example.com",
		})
		return err
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	all, err := repo.Users().Search(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUsersRepository_SoftDelete(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	user := createUser(t, repo, "leaving", reviews.RoleUser)

	err := repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return repo.Users().SoftDeleteTx(ctx, tx, user)
	})
	require.NoError(t, err)

	_, err = repo.Users().GetByUsername(ctx, "leaving")
	assert.True(t, reviews.IsNotFound(err))

	_, err = repo.Users().GetByIdentifier(ctx, user.ID.String())
	assert.True(t, reviews.IsNotFound(err))
}

func TestUsersRepository_Search(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	createUser(t, repo, "bravo", reviews.RoleUser)
	createUser(t, repo, "alpha", reviews.RoleUser)
	createUser(t, repo, "charlie", reviews.RoleAdmin)

	all, err := repo.Users().Search(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "alpha", all[0].Username)

	found, err := repo.Users().Search(ctx, "HAR")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "charlie", found[0].Username)
}

func TestUsersRepository_PostgresUniqueViolation(t *testing.T) {
	sqldb, mk, err := sqlmock.New()
	require.NoError(t, err)
	defer sqldb.Close()

	db := bun.NewDB(sqldb, pgdialect.New())
	users := reviews.NewUsersRepository(db)

	mk.ExpectExec(regexp.QuoteMeta(`INSERT INTO "users"`)).
		WillReturnError(&pgconn.PgError{
			Code:           "23505",
			TableName:      "users",
			ConstraintName: "uq_users_email",
		})

	_, err = users.Create(context.Background(), &reviews.User{
		Username: "critic",
		Email:    "critic@example.com",
	})
	require.Error(t, err)
	assert.True(t, reviews.IsUniqueViolation(err))

	var richErr *errors.Error
	require.True(t, errors.As(err, &richErr))
	assert.Equal(t, "email", richErr.Metadata["field"])
	assert.Equal(t, errors.CodeBadRequest, richErr.Code)

	require.NoError(t, mk.ExpectationsWereMet())
}

func TestUsersRepository_GetOrCreateByEmailReplacesTakenIdentity(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	holder, err := repo.Users().Create(ctx, &reviews.User{
		Username: "taken@example.com",
		Email:    "holder@example.com",
	})
	require.NoError(t, err)

	var user *reviews.User
	var created bool
	err = repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		user, created, err = repo.Users().GetOrCreateByEmailTx(ctx, tx, &reviews.User{
			ID:       holder.ID,
			Email:    "taken@example.com",
			Username: "taken@example.com",
		})
		return err
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, holder.ID, user.ID)
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, "taken@example.com-"+user.ID.String()[:8], user.Username)
}

func TestUsersRepository_GetOrCreateByEmailConcurrentInsert(t *testing.T) {
	sqldb, mk, err := sqlmock.New()
	require.NoError(t, err)
	defer sqldb.Close()

	db := bun.NewDB(sqldb, pgdialect.New())
	users := reviews.NewUsersRepository(db)
	winner := uuid.New()

	mk.ExpectQuery(`FROM "users" AS "usr" WHERE .*'race@example\.com'`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mk.ExpectQuery(`EXISTS \(SELECT`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mk.ExpectQuery(`EXISTS \(SELECT`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mk.ExpectExec(regexp.QuoteMeta(`ON CONFLICT DO NOTHING`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mk.ExpectQuery(`FROM "users" AS "usr" WHERE .*'race@example\.com'`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "username"}).
			AddRow(winner.String(), "race@example.com", "race@example.com"))

	user, created, err := users.GetOrCreateByEmailTx(context.Background(), db, &reviews.User{
		Email:    "race@example.com",
		Username: "race@example.com",
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, winner, user.ID)

	require.NoError(t, mk.ExpectationsWereMet())
}

func TestUsersRepository_TrackSuccessfulLoginRejectsStaleState(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	createUser(t, repo, "twice", reviews.RoleUser)

	track := func(user *reviews.User) error {
		return repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			_, err := repo.Users().TrackSuccessfulLoginTx(ctx, tx, user)
			return err
		})
	}

	first, err := repo.Users().GetByUsername(ctx, "twice")
	require.NoError(t, err)
	stale, err := repo.Users().GetByUsername(ctx, "twice")
	require.NoError(t, err)

	require.NoError(t, track(first))
	assert.True(t, first.Active)
	require.NotNil(t, first.LoggedInAt)

	err = track(stale)
	require.Error(t, err)
	assert.True(t, errors.Is(err, reviews.ErrInvalidConfirmationCode))
	assert.Nil(t, stale.LoggedInAt)

	reloaded, err := repo.Users().GetByUsername(ctx, "twice")
	require.NoError(t, err)
	require.NoError(t, track(reloaded))
}
