package reviews

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Reviews is the review store, always scoped to a title
type Reviews interface {
	ListByTitle(ctx context.Context, titleID uuid.UUID) ([]*Review, error)
	GetForTitle(ctx context.Context, titleID, reviewID uuid.UUID) (*Review, error)
	GetForTitleTx(ctx context.Context, tx bun.IDB, titleID, reviewID uuid.UUID) (*Review, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Review) (*Review, error)
	SaveTx(ctx context.Context, tx bun.IDB, record *Review) error
	DeleteTx(ctx context.Context, tx bun.IDB, record *Review) error
}

// Comments is the comment store, always scoped to a review
type Comments interface {
	ListByReview(ctx context.Context, reviewID uuid.UUID) ([]*Comment, error)
	GetForReview(ctx context.Context, reviewID, commentID uuid.UUID) (*Comment, error)
	GetForReviewTx(ctx context.Context, tx bun.IDB, reviewID, commentID uuid.UUID) (*Comment, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Comment) (*Comment, error)
	SaveTx(ctx context.Context, tx bun.IDB, record *Comment) error
	DeleteTx(ctx context.Context, tx bun.IDB, record *Comment) error
}

type reviewsRepo struct {
	db  *bun.DB
	now func() time.Time
}

var _ Reviews = (*reviewsRepo)(nil)

func NewReviewsRepository(db *bun.DB) Reviews {
	return &reviewsRepo{db: db, now: time.Now}
}

func (r *reviewsRepo) ListByTitle(ctx context.Context, titleID uuid.UUID) ([]*Review, error) {
	records := []*Review{}
	err := r.db.NewSelect().
		Model(&records).
		Relation("Author").
		Where("?TableAlias.title_id = ?", titleID).
		OrderExpr("?TableAlias.pub_date ASC, ?TableAlias.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, storeError(err, "review", "list")
	}
	return records, nil
}

func (r *reviewsRepo) GetForTitle(ctx context.Context, titleID, reviewID uuid.UUID) (*Review, error) {
	return r.GetForTitleTx(ctx, r.db, titleID, reviewID)
}

func (r *reviewsRepo) GetForTitleTx(ctx context.Context, tx bun.IDB, titleID, reviewID uuid.UUID) (*Review, error) {
	record := &Review{}
	err := tx.NewSelect().
		Model(record).
		Relation("Author").
		Where("?TableAlias.id = ?", reviewID).
		Where("?TableAlias.title_id = ?", titleID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, NewNotFound("review", map[string]any{
				"id":       reviewID.String(),
				"title_id": titleID.String(),
			})
		}
		return nil, storeError(err, "review", "get")
	}
	return record, nil
}

func (r *reviewsRepo) CreateTx(ctx context.Context, tx bun.IDB, record *Review) (*Review, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.PubDate.IsZero() {
		record.PubDate = r.now().UTC().Truncate(time.Microsecond)
	}

	if _, err := tx.NewInsert().Model(record).Returning("NULL").Exec(ctx); err != nil {
		if IsUniqueViolation(err) {
			return nil, ErrDuplicateReview
		}
		return nil, storeError(err, "review", "create")
	}
	return record, nil
}

func (r *reviewsRepo) SaveTx(ctx context.Context, tx bun.IDB, record *Review) error {
	_, err := tx.NewUpdate().
		Model(record).
		Column("text", "score").
		WherePK().
		Exec(ctx)
	return storeError(err, "review", "update")
}

// DeleteTx removes the review and its comments
func (r *reviewsRepo) DeleteTx(ctx context.Context, tx bun.IDB, record *Review) error {
	if _, err := tx.NewDelete().Model((*Comment)(nil)).Where("review_id = ?", record.ID).Exec(ctx); err != nil {
		return storeError(err, "review", "delete")
	}

	if _, err := tx.NewDelete().Model(record).WherePK().Exec(ctx); err != nil {
		return storeError(err, "review", "delete")
	}
	return nil
}

type commentsRepo struct {
	db  *bun.DB
	now func() time.Time
}

var _ Comments = (*commentsRepo)(nil)

func NewCommentsRepository(db *bun.DB) Comments {
	return &commentsRepo{db: db, now: time.Now}
}

func (c *commentsRepo) ListByReview(ctx context.Context, reviewID uuid.UUID) ([]*Comment, error) {
	records := []*Comment{}
	err := c.db.NewSelect().
		Model(&records).
		Relation("Author").
		Where("?TableAlias.review_id = ?", reviewID).
		OrderExpr("?TableAlias.pub_date ASC, ?TableAlias.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, storeError(err, "comment", "list")
	}
	return records, nil
}

func (c *commentsRepo) GetForReview(ctx context.Context, reviewID, commentID uuid.UUID) (*Comment, error) {
	return c.GetForReviewTx(ctx, c.db, reviewID, commentID)
}

func (c *commentsRepo) GetForReviewTx(ctx context.Context, tx bun.IDB, reviewID, commentID uuid.UUID) (*Comment, error) {
	record := &Comment{}
	err := tx.NewSelect().
		Model(record).
		Relation("Author").
		Where("?TableAlias.id = ?", commentID).
		Where("?TableAlias.review_id = ?", reviewID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, NewNotFound("comment", map[string]any{
				"id":        commentID.String(),
				"review_id": reviewID.String(),
			})
		}
		return nil, storeError(err, "comment", "get")
	}
	return record, nil
}

func (c *commentsRepo) CreateTx(ctx context.Context, tx bun.IDB, record *Comment) (*Comment, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.PubDate.IsZero() {
		record.PubDate = c.now().UTC().Truncate(time.Microsecond)
	}

	if _, err := tx.NewInsert().Model(record).Returning("NULL").Exec(ctx); err != nil {
		return nil, storeError(err, "comment", "create")
	}
	return record, nil
}

func (c *commentsRepo) SaveTx(ctx context.Context, tx bun.IDB, record *Comment) error {
	_, err := tx.NewUpdate().
		Model(record).
		Column("text").
		WherePK().
		Exec(ctx)
	return storeError(err, "comment", "update")
}

func (c *commentsRepo) DeleteTx(ctx context.Context, tx bun.IDB, record *Comment) error {
	_, err := tx.NewDelete().Model(record).WherePK().Exec(ctx)
	return storeError(err, "comment", "delete")
}
