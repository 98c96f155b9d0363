package reviews

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Taxonomy stores slug addressed records, categories and genres
type Taxonomy[T any] interface {
	Search(ctx context.Context, search NameSearch) ([]T, error)
	GetBySlug(ctx context.Context, slug string) (T, error)
	GetBySlugTx(ctx context.Context, tx bun.IDB, slug string) (T, error)
	CreateTx(ctx context.Context, tx bun.IDB, record T) (T, error)
	DeleteTx(ctx context.Context, tx bun.IDB, record T) error
}

type taxonomy[T any] struct {
	repository.Repository[T]
	db       *bun.DB
	resource string
	newList  func() *[]T
	prepare  func(T)
	detach   func(ctx context.Context, tx bun.IDB, record T) error
}

// NewCategoriesRepository returns the category store. Deleting a category
// leaves its titles without one.
func NewCategoriesRepository(db *bun.DB) Taxonomy[*Category] {
	return &taxonomy[*Category]{
		Repository: repository.NewRepository[*Category](db, repository.ModelHandlers[*Category]{
			NewRecord: func() *Category { return &Category{} },
			GetID: func(record *Category) uuid.UUID {
				if record == nil {
					return uuid.Nil
				}
				return record.ID
			},
			SetID: func(record *Category, id uuid.UUID) {
				record.ID = id
			},
			GetIdentifier: func() string {
				return "slug"
			},
		}),
		db:       db,
		resource: "category",
		newList:  func() *[]*Category { return &[]*Category{} },
		prepare: func(record *Category) {
			if record.ID == uuid.Nil {
				record.ID = uuid.New()
			}
		},
		detach: func(ctx context.Context, tx bun.IDB, record *Category) error {
			_, err := tx.NewUpdate().
				Model((*Title)(nil)).
				Set("category_id = NULL").
				Where("category_id = ?", record.ID).
				Exec(ctx)
			return err
		},
	}
}

// NewGenresRepository returns the genre store. Deleting a genre unlinks it
// from every title.
func NewGenresRepository(db *bun.DB) Taxonomy[*Genre] {
	return &taxonomy[*Genre]{
		Repository: repository.NewRepository[*Genre](db, repository.ModelHandlers[*Genre]{
			NewRecord: func() *Genre { return &Genre{} },
			GetID: func(record *Genre) uuid.UUID {
				if record == nil {
					return uuid.Nil
				}
				return record.ID
			},
			SetID: func(record *Genre, id uuid.UUID) {
				record.ID = id
			},
			GetIdentifier: func() string {
				return "slug"
			},
		}),
		db:       db,
		resource: "genre",
		newList:  func() *[]*Genre { return &[]*Genre{} },
		prepare: func(record *Genre) {
			if record.ID == uuid.Nil {
				record.ID = uuid.New()
			}
		},
		detach: func(ctx context.Context, tx bun.IDB, record *Genre) error {
			_, err := tx.NewDelete().
				Model((*TitleGenre)(nil)).
				Where("genre_id = ?", record.ID).
				Exec(ctx)
			return err
		},
	}
}

func (t *taxonomy[T]) Search(ctx context.Context, search NameSearch) ([]T, error) {
	records := t.newList()
	q := t.db.NewSelect().Model(records)
	q = search.apply(q)

	if err := q.OrderExpr("?TableAlias.name ASC").Scan(ctx); err != nil {
		return nil, storeError(err, t.resource, "list")
	}
	return *records, nil
}

func (t *taxonomy[T]) GetBySlug(ctx context.Context, slug string) (T, error) {
	return t.GetBySlugTx(ctx, t.db, slug)
}

func (t *taxonomy[T]) GetBySlugTx(ctx context.Context, tx bun.IDB, slug string) (T, error) {
	record, err := t.Repository.GetByIdentifierTx(ctx, tx, slug)
	if err != nil {
		var zero T
		if IsNotFound(err) {
			return zero, NewNotFound(t.resource, map[string]any{"slug": slug})
		}
		return zero, storeError(err, t.resource, "get")
	}
	return record, nil
}

func (t *taxonomy[T]) CreateTx(ctx context.Context, tx bun.IDB, record T) (T, error) {
	t.prepare(record)

	if _, err := tx.NewInsert().Model(record).Returning("NULL").Exec(ctx); err != nil {
		var zero T
		return zero, storeError(err, t.resource, "create")
	}
	return record, nil
}

func (t *taxonomy[T]) DeleteTx(ctx context.Context, tx bun.IDB, record T) error {
	if err := t.detach(ctx, tx, record); err != nil {
		return storeError(err, t.resource, "delete")
	}

	if _, err := tx.NewDelete().Model(record).WherePK().Exec(ctx); err != nil {
		return storeError(err, t.resource, "delete")
	}
	return nil
}
