package reviews

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Users() Users
	Categories() Taxonomy[*Category]
	Genres() Taxonomy[*Genre]
	Titles() Titles
	Reviews() Reviews
	Comments() Comments
}

type mngr struct {
	db         *bun.DB
	users      Users
	categories Taxonomy[*Category]
	genres     Taxonomy[*Genre]
	titles     Titles
	reviews    Reviews
	comments   Comments
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:         db,
		users:      NewUsersRepository(db),
		categories: NewCategoriesRepository(db),
		genres:     NewGenresRepository(db),
		titles:     NewTitlesRepository(db),
		reviews:    NewReviewsRepository(db),
		comments:   NewCommentsRepository(db),
	}
}

func (m mngr) Validate() error {
	switch {
	case m.db == nil:
		return errors.New("database should be initialized")
	case m.users == nil:
		return errors.New("repository users should be initialized")
	case m.categories == nil:
		return errors.New("repository categories should be initialized")
	case m.genres == nil:
		return errors.New("repository genres should be initialized")
	case m.titles == nil:
		return errors.New("repository titles should be initialized")
	case m.reviews == nil:
		return errors.New("repository reviews should be initialized")
	case m.comments == nil:
		return errors.New("repository comments should be initialized")
	}
	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) Categories() Taxonomy[*Category] {
	return m.categories
}

func (m mngr) Genres() Taxonomy[*Genre] {
	return m.genres
}

func (m mngr) Titles() Titles {
	return m.titles
}

func (m mngr) Reviews() Reviews {
	return m.reviews
}

func (m mngr) Comments() Comments {
	return m.comments
}
