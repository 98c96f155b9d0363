package reviews_test

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/goliatone/go-reviews"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = db.Exec("PRAGMA foreign_keys = ON;")
	require.NoError(t, err)

	reviews.RegisterModels(db)

	_, err = reviews.Migrate(context.Background(), db, nopLogger{})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

func setupRepo(t *testing.T) reviews.RepositoryManager {
	t.Helper()
	repo := reviews.NewRepositoryManager(setupTestDB(t))
	repo.MustValidate()
	return repo
}

func createUser(t *testing.T, repo reviews.RepositoryManager, username string, role reviews.UserRole) *reviews.User {
	t.Helper()

	user, err := repo.Users().Create(context.Background(), &reviews.User{
		Username: username,
		Email:    fmt.Sprintf("%s@example.com", username),
		Role:     role,
	})
	require.NoError(t, err)
	return user
}

func actorFor(user *reviews.User) reviews.Actor {
	return reviews.ActorFromUser(user)
}

// capturedMail keeps the last confirmation code sent per address
type capturedMail struct {
	mu    sync.Mutex
	codes map[string]string
	sent  int
}

func newCapturedMail() *capturedMail {
	return &capturedMail{codes: map[string]string{}}
}

func (m *capturedMail) Send(_ context.Context, to, _, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent++
	m.codes[to] = strings.TrimSpace(body[strings.LastIndex(body, ":")+1:])
	return nil
}

func (m *capturedMail) code(to string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[to]
}
