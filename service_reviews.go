package reviews

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ReviewService manages reviews of a title. Anyone reads, authenticated
// users write, and only the author, a moderator or an admin may change or
// remove an existing review.
type ReviewService struct {
	serviceDeps
	policy Policy
}

func NewReviewService(repo RepositoryManager, opts ...ServiceOption) *ReviewService {
	return &ReviewService{
		serviceDeps: newServiceDeps(repo, opts...),
		policy:      ReadOnlyOrAdminModeratorOrAuthor{},
	}
}

func (s *ReviewService) List(ctx context.Context, actor Actor, titleID uuid.UUID) ([]*Review, error) {
	if err := Authorize(actor, MethodGet, nil, s.policy); err != nil {
		return nil, err
	}

	if _, err := s.repo.Titles().Get(ctx, titleID); err != nil {
		return nil, err
	}

	return s.repo.Reviews().ListByTitle(ctx, titleID)
}

func (s *ReviewService) Get(ctx context.Context, actor Actor, titleID, reviewID uuid.UUID) (*Review, error) {
	if err := Authorize(actor, MethodGet, nil, s.policy); err != nil {
		return nil, err
	}

	review, err := s.repo.Reviews().GetForTitle(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}

	if err := Authorize(actor, MethodGet, review, s.policy); err != nil {
		return nil, err
	}
	return review, nil
}

// Create stores a review by actor. A second review of the same title by
// the same author fails with ErrDuplicateReview.
func (s *ReviewService) Create(ctx context.Context, actor Actor, titleID uuid.UUID, payload ReviewPayload) (*Review, error) {
	if err := Authorize(actor, MethodPost, nil, s.policy); err != nil {
		return nil, err
	}

	if err := payload.Validate(); err != nil {
		return nil, err
	}

	var review *Review
	err := s.write(ctx, "create review", func(ctx context.Context, tx bun.Tx) error {
		if _, err := s.repo.Titles().GetTx(ctx, tx, titleID); err != nil {
			return err
		}

		record, err := s.repo.Reviews().CreateTx(ctx, tx, &Review{
			TitleID:  titleID,
			AuthorID: actor.ID(),
			Text:     payload.Text,
			Score:    payload.Score,
		})
		if err != nil {
			return err
		}

		review, err = s.repo.Reviews().GetForTitleTx(ctx, tx, titleID, record.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

func (s *ReviewService) Update(ctx context.Context, actor Actor, titleID, reviewID uuid.UUID, payload ReviewPayload) (*Review, error) {
	if err := Authorize(actor, MethodPut, nil, s.policy); err != nil {
		return nil, err
	}

	if err := payload.Validate(); err != nil {
		return nil, err
	}

	return s.update(ctx, actor, MethodPut, titleID, reviewID, payload.Patch())
}

func (s *ReviewService) PartialUpdate(ctx context.Context, actor Actor, titleID, reviewID uuid.UUID, payload ReviewPatchPayload) (*Review, error) {
	if err := Authorize(actor, MethodPatch, nil, s.policy); err != nil {
		return nil, err
	}

	if err := payload.Validate(); err != nil {
		return nil, err
	}

	return s.update(ctx, actor, MethodPatch, titleID, reviewID, payload)
}

func (s *ReviewService) update(ctx context.Context, actor Actor, method Method, titleID, reviewID uuid.UUID, payload ReviewPatchPayload) (*Review, error) {
	var review *Review
	err := s.write(ctx, "update review", func(ctx context.Context, tx bun.Tx) error {
		record, err := s.repo.Reviews().GetForTitleTx(ctx, tx, titleID, reviewID)
		if err != nil {
			return err
		}

		if err := Authorize(actor, method, record, s.policy); err != nil {
			return err
		}

		if payload.Text != nil {
			record.Text = *payload.Text
		}
		if payload.Score != nil {
			record.Score = *payload.Score
		}

		if err := s.repo.Reviews().SaveTx(ctx, tx, record); err != nil {
			return err
		}

		review = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

// Delete removes the review and its comments
func (s *ReviewService) Delete(ctx context.Context, actor Actor, titleID, reviewID uuid.UUID) error {
	if err := Authorize(actor, MethodDelete, nil, s.policy); err != nil {
		return err
	}

	return s.write(ctx, "delete review", func(ctx context.Context, tx bun.Tx) error {
		record, err := s.repo.Reviews().GetForTitleTx(ctx, tx, titleID, reviewID)
		if err != nil {
			return err
		}

		if err := Authorize(actor, MethodDelete, record, s.policy); err != nil {
			return err
		}

		return s.repo.Reviews().DeleteTx(ctx, tx, record)
	})
}

// CommentService manages comments of a review, with the same access rules
// as reviews. The review must belong to the title in the path.
type CommentService struct {
	serviceDeps
	policy Policy
}

func NewCommentService(repo RepositoryManager, opts ...ServiceOption) *CommentService {
	return &CommentService{
		serviceDeps: newServiceDeps(repo, opts...),
		policy:      ReadOnlyOrAdminModeratorOrAuthor{},
	}
}

func (s *CommentService) List(ctx context.Context, actor Actor, titleID, reviewID uuid.UUID) ([]*Comment, error) {
	if err := Authorize(actor, MethodGet, nil, s.policy); err != nil {
		return nil, err
	}

	if _, err := s.repo.Reviews().GetForTitle(ctx, titleID, reviewID); err != nil {
		return nil, err
	}

	return s.repo.Comments().ListByReview(ctx, reviewID)
}

func (s *CommentService) Get(ctx context.Context, actor Actor, titleID, reviewID, commentID uuid.UUID) (*Comment, error) {
	if err := Authorize(actor, MethodGet, nil, s.policy); err != nil {
		return nil, err
	}

	if _, err := s.repo.Reviews().GetForTitle(ctx, titleID, reviewID); err != nil {
		return nil, err
	}

	comment, err := s.repo.Comments().GetForReview(ctx, reviewID, commentID)
	if err != nil {
		return nil, err
	}

	if err := Authorize(actor, MethodGet, comment, s.policy); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *CommentService) Create(ctx context.Context, actor Actor, titleID, reviewID uuid.UUID, payload CommentPayload) (*Comment, error) {
	if err := Authorize(actor, MethodPost, nil, s.policy); err != nil {
		return nil, err
	}

	if err := payload.Validate(); err != nil {
		return nil, err
	}

	var comment *Comment
	err := s.write(ctx, "create comment", func(ctx context.Context, tx bun.Tx) error {
		if _, err := s.repo.Reviews().GetForTitleTx(ctx, tx, titleID, reviewID); err != nil {
			return err
		}

		record, err := s.repo.Comments().CreateTx(ctx, tx, &Comment{
			ReviewID: reviewID,
			AuthorID: actor.ID(),
			Text:     payload.Text,
		})
		if err != nil {
			return err
		}

		comment, err = s.repo.Comments().GetForReviewTx(ctx, tx, reviewID, record.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *CommentService) Update(ctx context.Context, actor Actor, titleID, reviewID, commentID uuid.UUID, payload CommentPayload) (*Comment, error) {
	if err := Authorize(actor, MethodPut, nil, s.policy); err != nil {
		return nil, err
	}

	if err := payload.Validate(); err != nil {
		return nil, err
	}

	return s.update(ctx, actor, MethodPut, titleID, reviewID, commentID, CommentPatchPayload{Text: &payload.Text})
}

func (s *CommentService) PartialUpdate(ctx context.Context, actor Actor, titleID, reviewID, commentID uuid.UUID, payload CommentPatchPayload) (*Comment, error) {
	if err := Authorize(actor, MethodPatch, nil, s.policy); err != nil {
		return nil, err
	}

	if err := payload.Validate(); err != nil {
		return nil, err
	}

	return s.update(ctx, actor, MethodPatch, titleID, reviewID, commentID, payload)
}

func (s *CommentService) update(ctx context.Context, actor Actor, method Method, titleID, reviewID, commentID uuid.UUID, payload CommentPatchPayload) (*Comment, error) {
	var comment *Comment
	err := s.write(ctx, "update comment", func(ctx context.Context, tx bun.Tx) error {
		if _, err := s.repo.Reviews().GetForTitleTx(ctx, tx, titleID, reviewID); err != nil {
			return err
		}

		record, err := s.repo.Comments().GetForReviewTx(ctx, tx, reviewID, commentID)
		if err != nil {
			return err
		}

		if err := Authorize(actor, method, record, s.policy); err != nil {
			return err
		}

		if payload.Text != nil {
			record.Text = *payload.Text
		}

		if err := s.repo.Comments().SaveTx(ctx, tx, record); err != nil {
			return err
		}

		comment = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *CommentService) Delete(ctx context.Context, actor Actor, titleID, reviewID, commentID uuid.UUID) error {
	if err := Authorize(actor, MethodDelete, nil, s.policy); err != nil {
		return err
	}

	return s.write(ctx, "delete comment", func(ctx context.Context, tx bun.Tx) error {
		if _, err := s.repo.Reviews().GetForTitleTx(ctx, tx, titleID, reviewID); err != nil {
			return err
		}

		record, err := s.repo.Comments().GetForReviewTx(ctx, tx, reviewID, commentID)
		if err != nil {
			return err
		}

		if err := Authorize(actor, MethodDelete, record, s.policy); err != nil {
			return err
		}

		return s.repo.Comments().DeleteTx(ctx, tx, record)
	})
}
