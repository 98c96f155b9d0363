package reviews

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const ratingColumnExpr = "(SELECT AVG(r.score) FROM reviews AS r WHERE r.title_id = ?TableAlias.id) AS rating"

// Titles is the title store. Reads carry the computed rating and the
// category and genre relations.
type Titles interface {
	Filter(ctx context.Context, filter TitleFilter) ([]*Title, error)
	Get(ctx context.Context, id uuid.UUID) (*Title, error)
	GetTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Title, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Title, genreIDs []uuid.UUID) (*Title, error)
	SaveTx(ctx context.Context, tx bun.IDB, record *Title) error
	SetGenresTx(ctx context.Context, tx bun.IDB, titleID uuid.UUID, genreIDs []uuid.UUID) error
	DeleteTx(ctx context.Context, tx bun.IDB, record *Title) error
}

type titles struct {
	db *bun.DB
}

var _ Titles = (*titles)(nil)

func NewTitlesRepository(db *bun.DB) Titles {
	return &titles{db: db}
}

// withTitleReadColumns selects the title with its rating and relations
func withTitleReadColumns(q *bun.SelectQuery) *bun.SelectQuery {
	return q.
		ColumnExpr("?TableAlias.*").
		ColumnExpr(ratingColumnExpr).
		Relation("Category").
		Relation("Genres", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("?TableAlias.name ASC")
		})
}

func (t *titles) Filter(ctx context.Context, filter TitleFilter) ([]*Title, error) {
	records := []*Title{}
	q := t.db.NewSelect().Model(&records).Apply(withTitleReadColumns)
	q = filter.apply(q)

	if err := q.OrderExpr("?TableAlias.name ASC, ?TableAlias.id ASC").Scan(ctx); err != nil {
		return nil, storeError(err, "title", "list")
	}
	return records, nil
}

func (t *titles) Get(ctx context.Context, id uuid.UUID) (*Title, error) {
	return t.GetTx(ctx, t.db, id)
}

func (t *titles) GetTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Title, error) {
	record := &Title{}
	err := tx.NewSelect().
		Model(record).
		Apply(withTitleReadColumns).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, NewNotFound("title", map[string]any{"id": id.String()})
		}
		return nil, storeError(err, "title", "get")
	}
	return record, nil
}

func (t *titles) CreateTx(ctx context.Context, tx bun.IDB, record *Title, genreIDs []uuid.UUID) (*Title, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	if _, err := tx.NewInsert().Model(record).Returning("NULL").Exec(ctx); err != nil {
		return nil, storeError(err, "title", "create")
	}

	if err := t.SetGenresTx(ctx, tx, record.ID, genreIDs); err != nil {
		return nil, err
	}
	return record, nil
}

func (t *titles) SaveTx(ctx context.Context, tx bun.IDB, record *Title) error {
	_, err := tx.NewUpdate().
		Model(record).
		Column("name", "year", "description", "category_id").
		WherePK().
		Exec(ctx)
	return storeError(err, "title", "update")
}

// SetGenresTx replaces the genre links of a title
func (t *titles) SetGenresTx(ctx context.Context, tx bun.IDB, titleID uuid.UUID, genreIDs []uuid.UUID) error {
	_, err := tx.NewDelete().
		Model((*TitleGenre)(nil)).
		Where("title_id = ?", titleID).
		Exec(ctx)
	if err != nil {
		return storeError(err, "title", "update")
	}

	links := make([]*TitleGenre, 0, len(genreIDs))
	seen := make(map[uuid.UUID]struct{}, len(genreIDs))
	for _, id := range genreIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		links = append(links, &TitleGenre{TitleID: titleID, GenreID: id})
	}

	if len(links) == 0 {
		return nil
	}

	if _, err := tx.NewInsert().Model(&links).Returning("NULL").Exec(ctx); err != nil {
		return storeError(err, "title", "update")
	}
	return nil
}

// DeleteTx removes the title with its genre links, reviews and comments
func (t *titles) DeleteTx(ctx context.Context, tx bun.IDB, record *Title) error {
	_, err := tx.NewDelete().
		Model((*Comment)(nil)).
		Where("review_id IN (SELECT r.id FROM reviews AS r WHERE r.title_id = ?)", record.ID).
		Exec(ctx)
	if err != nil {
		return storeError(err, "title", "delete")
	}

	if _, err := tx.NewDelete().Model((*Review)(nil)).Where("title_id = ?", record.ID).Exec(ctx); err != nil {
		return storeError(err, "title", "delete")
	}

	if _, err := tx.NewDelete().Model((*TitleGenre)(nil)).Where("title_id = ?", record.ID).Exec(ctx); err != nil {
		return storeError(err, "title", "delete")
	}

	if _, err := tx.NewDelete().Model(record).WherePK().Exec(ctx); err != nil {
		return storeError(err, "title", "delete")
	}
	return nil
}
