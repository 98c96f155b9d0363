package reviews

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// TaxonomyPayload is a validated write payload of a category or genre
type TaxonomyPayload[T any] interface {
	Validate() *errors.Error
	Record() T
}

// TaxonomyService lists, creates and deletes categories or genres.
// Reads are public, writes are reserved to admins.
type TaxonomyService[T any] struct {
	serviceDeps
	store    func() Taxonomy[T]
	resource string
	policy   Policy
}

func NewCategoryService(repo RepositoryManager, opts ...ServiceOption) *TaxonomyService[*Category] {
	return &TaxonomyService[*Category]{
		serviceDeps: newServiceDeps(repo, opts...),
		store:       repo.Categories,
		resource:    "category",
		policy:      ReadOnlyOrAdmin{},
	}
}

func NewGenreService(repo RepositoryManager, opts ...ServiceOption) *TaxonomyService[*Genre] {
	return &TaxonomyService[*Genre]{
		serviceDeps: newServiceDeps(repo, opts...),
		store:       repo.Genres,
		resource:    "genre",
		policy:      ReadOnlyOrAdmin{},
	}
}

func (s *TaxonomyService[T]) List(ctx context.Context, actor Actor, search NameSearch) ([]T, error) {
	if err := Authorize(actor, MethodGet, nil, s.policy); err != nil {
		return nil, err
	}
	return s.store().Search(ctx, search)
}

func (s *TaxonomyService[T]) Get(ctx context.Context, actor Actor, slug string) (T, error) {
	var zero T
	if err := Authorize(actor, MethodGet, nil, s.policy); err != nil {
		return zero, err
	}

	record, err := s.store().GetBySlug(ctx, slug)
	if err != nil {
		return zero, err
	}

	if err := Authorize(actor, MethodGet, record, s.policy); err != nil {
		return zero, err
	}
	return record, nil
}

func (s *TaxonomyService[T]) Create(ctx context.Context, actor Actor, payload TaxonomyPayload[T]) (T, error) {
	var zero T
	if err := Authorize(actor, MethodPost, nil, s.policy); err != nil {
		return zero, err
	}

	if err := payload.Validate(); err != nil {
		return zero, err
	}

	record := payload.Record()
	err := s.write(ctx, "create "+s.resource, func(ctx context.Context, tx bun.Tx) error {
		var err error
		record, err = s.store().CreateTx(ctx, tx, record)
		return err
	})
	if err != nil {
		return zero, err
	}

	s.logger.Debug("created", "resource", s.resource, "actor", actor.ID().String())
	return record, nil
}

func (s *TaxonomyService[T]) Delete(ctx context.Context, actor Actor, slug string) error {
	if err := Authorize(actor, MethodDelete, nil, s.policy); err != nil {
		return err
	}

	return s.write(ctx, "delete "+s.resource, func(ctx context.Context, tx bun.Tx) error {
		record, err := s.store().GetBySlugTx(ctx, tx, slug)
		if err != nil {
			return err
		}

		if err := Authorize(actor, MethodDelete, record, s.policy); err != nil {
			return err
		}

		return s.store().DeleteTx(ctx, tx, record)
	})
}
