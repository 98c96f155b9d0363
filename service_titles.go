package reviews

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// TitleService manages titles. Reads are public, writes are reserved to
// admins.
type TitleService struct {
	serviceDeps
	policy Policy
}

func NewTitleService(repo RepositoryManager, opts ...ServiceOption) *TitleService {
	return &TitleService{
		serviceDeps: newServiceDeps(repo, opts...),
		policy:      ReadOnlyOrAdmin{},
	}
}

func (s *TitleService) List(ctx context.Context, actor Actor, filter TitleFilter) ([]*Title, error) {
	if err := Authorize(actor, MethodGet, nil, s.policy); err != nil {
		return nil, err
	}
	return s.repo.Titles().Filter(ctx, filter)
}

func (s *TitleService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*Title, error) {
	if err := Authorize(actor, MethodGet, nil, s.policy); err != nil {
		return nil, err
	}

	title, err := s.repo.Titles().Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := Authorize(actor, MethodGet, title, s.policy); err != nil {
		return nil, err
	}
	return title, nil
}

func (s *TitleService) Create(ctx context.Context, actor Actor, payload TitlePayload) (*Title, error) {
	if err := Authorize(actor, MethodPost, nil, s.policy); err != nil {
		return nil, err
	}

	if err := payload.Validate(); err != nil {
		return nil, err
	}

	var title *Title
	err := s.write(ctx, "create title", func(ctx context.Context, tx bun.Tx) error {
		record := &Title{
			Name:        strings.TrimSpace(payload.Name),
			Year:        payload.Year,
			Description: payload.Description,
		}

		categoryID, err := s.resolveCategory(ctx, tx, payload.Category)
		if err != nil {
			return err
		}
		record.CategoryID = categoryID

		genreIDs, err := s.resolveGenres(ctx, tx, payload.Genre)
		if err != nil {
			return err
		}

		if record, err = s.repo.Titles().CreateTx(ctx, tx, record, genreIDs); err != nil {
			return err
		}

		title, err = s.repo.Titles().GetTx(ctx, tx, record.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return title, nil
}

// Update replaces every writable field of the title
func (s *TitleService) Update(ctx context.Context, actor Actor, id uuid.UUID, payload TitlePayload) (*Title, error) {
	if err := Authorize(actor, MethodPut, nil, s.policy); err != nil {
		return nil, err
	}

	if err := payload.Validate(); err != nil {
		return nil, err
	}

	return s.update(ctx, actor, MethodPut, id, payload.Patch())
}

// PartialUpdate writes only the fields present in payload
func (s *TitleService) PartialUpdate(ctx context.Context, actor Actor, id uuid.UUID, payload TitlePatchPayload) (*Title, error) {
	if err := Authorize(actor, MethodPatch, nil, s.policy); err != nil {
		return nil, err
	}

	if err := payload.Validate(); err != nil {
		return nil, err
	}

	return s.update(ctx, actor, MethodPatch, id, payload)
}

func (s *TitleService) update(ctx context.Context, actor Actor, method Method, id uuid.UUID, payload TitlePatchPayload) (*Title, error) {
	var title *Title
	err := s.write(ctx, "update title", func(ctx context.Context, tx bun.Tx) error {
		record, err := s.repo.Titles().GetTx(ctx, tx, id)
		if err != nil {
			return err
		}

		if err := Authorize(actor, method, record, s.policy); err != nil {
			return err
		}

		if payload.Name != nil {
			record.Name = strings.TrimSpace(*payload.Name)
		}
		if payload.Year != nil {
			record.Year = *payload.Year
		}
		if payload.Description != nil {
			record.Description = *payload.Description
		}
		if payload.Category != nil {
			if record.CategoryID, err = s.resolveCategory(ctx, tx, *payload.Category); err != nil {
				return err
			}
		}

		if err := s.repo.Titles().SaveTx(ctx, tx, record); err != nil {
			return err
		}

		if payload.Genre != nil {
			genreIDs, err := s.resolveGenres(ctx, tx, *payload.Genre)
			if err != nil {
				return err
			}
			if err := s.repo.Titles().SetGenresTx(ctx, tx, record.ID, genreIDs); err != nil {
				return err
			}
		}

		title, err = s.repo.Titles().GetTx(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return title, nil
}

// Delete removes the title with its reviews and their comments
func (s *TitleService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if err := Authorize(actor, MethodDelete, nil, s.policy); err != nil {
		return err
	}

	return s.write(ctx, "delete title", func(ctx context.Context, tx bun.Tx) error {
		record, err := s.repo.Titles().GetTx(ctx, tx, id)
		if err != nil {
			return err
		}

		if err := Authorize(actor, MethodDelete, record, s.policy); err != nil {
			return err
		}

		return s.repo.Titles().DeleteTx(ctx, tx, record)
	})
}

// an empty slug clears the category
func (s *TitleService) resolveCategory(ctx context.Context, tx bun.IDB, slug string) (*uuid.UUID, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, nil
	}

	category, err := s.repo.Categories().GetBySlugTx(ctx, tx, slug)
	if err != nil {
		if IsNotFound(err) {
			return nil, NewUnknownReference("category", slug)
		}
		return nil, err
	}
	return &category.ID, nil
}

func (s *TitleService) resolveGenres(ctx context.Context, tx bun.IDB, slugs []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(slugs))
	for _, slug := range slugs {
		slug = strings.TrimSpace(slug)
		genre, err := s.repo.Genres().GetBySlugTx(ctx, tx, slug)
		if err != nil {
			if IsNotFound(err) {
				return nil, NewUnknownReference("genre", slug)
			}
			return nil, err
		}
		ids = append(ids, genre.ID)
	}
	return ids, nil
}
