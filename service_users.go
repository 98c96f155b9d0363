package reviews

import (
	"context"
	"strings"

	"github.com/uptrace/bun"
)

// UserService is the admin user directory plus the self service profile
type UserService struct {
	serviceDeps
	policy     Policy
	selfPolicy Policy
}

func NewUserService(repo RepositoryManager, opts ...ServiceOption) *UserService {
	return &UserService{
		serviceDeps: newServiceDeps(repo, opts...),
		policy:      AllOf(RequireAuthenticated{}, RequireAdmin{}),
		selfPolicy:  RequireAuthenticated{},
	}
}

func (s *UserService) List(ctx context.Context, actor Actor, search string) ([]*User, error) {
	if err := Authorize(actor, MethodGet, nil, s.policy); err != nil {
		return nil, err
	}
	return s.repo.Users().Search(ctx, search)
}

func (s *UserService) Get(ctx context.Context, actor Actor, username string) (*User, error) {
	if err := Authorize(actor, MethodGet, nil, s.policy); err != nil {
		return nil, err
	}

	user, err := s.repo.Users().GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if err := Authorize(actor, MethodGet, user, s.policy); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Create(ctx context.Context, actor Actor, payload UserPayload) (*User, error) {
	if err := Authorize(actor, MethodPost, nil, s.policy); err != nil {
		return nil, err
	}

	if err := payload.Validate(); err != nil {
		return nil, err
	}

	user := &User{}
	payload.Patch().ApplyTo(user)

	err := s.write(ctx, "create user", func(ctx context.Context, tx bun.Tx) error {
		var err error
		user, err = s.repo.Users().CreateTx(ctx, tx, user)
		return err
	})
	if err != nil {
		return nil, err
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEvent{
		EventType: ActivityEventUserCreated,
		ActorID:   actor.ID().String(),
		UserID:    user.ID.String(),
		Metadata:  map[string]any{"source": "admin"},
	})

	return user, nil
}

func (s *UserService) Update(ctx context.Context, actor Actor, username string, payload UserPayload) (*User, error) {
	if err := Authorize(actor, MethodPut, nil, s.policy); err != nil {
		return nil, err
	}

	if err := payload.Validate(); err != nil {
		return nil, err
	}

	return s.update(ctx, actor, MethodPut, username, payload.Patch())
}

func (s *UserService) PartialUpdate(ctx context.Context, actor Actor, username string, payload UserPatchPayload) (*User, error) {
	if err := Authorize(actor, MethodPatch, nil, s.policy); err != nil {
		return nil, err
	}

	if err := payload.Validate(); err != nil {
		return nil, err
	}

	return s.update(ctx, actor, MethodPatch, username, payload)
}

func (s *UserService) update(ctx context.Context, actor Actor, method Method, username string, payload UserPatchPayload) (*User, error) {
	var user *User
	err := s.write(ctx, "update user", func(ctx context.Context, tx bun.Tx) error {
		record, err := s.repo.Users().GetByUsernameTx(ctx, tx, username)
		if err != nil {
			return err
		}

		if err := Authorize(actor, method, record, s.policy); err != nil {
			return err
		}

		payload.ApplyTo(record)
		user, err = s.repo.Users().SaveProfileTx(ctx, tx, record)
		return err
	})
	if err != nil {
		return nil, err
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEvent{
		EventType: ActivityEventUserUpdated,
		ActorID:   actor.ID().String(),
		UserID:    user.ID.String(),
	})

	return user, nil
}

// Delete soft deletes the user, authored content is kept
func (s *UserService) Delete(ctx context.Context, actor Actor, username string) error {
	if err := Authorize(actor, MethodDelete, nil, s.policy); err != nil {
		return err
	}

	var user *User
	err := s.write(ctx, "delete user", func(ctx context.Context, tx bun.Tx) error {
		var err error
		user, err = s.repo.Users().GetByUsernameTx(ctx, tx, username)
		if err != nil {
			return err
		}

		if err := Authorize(actor, MethodDelete, user, s.policy); err != nil {
			return err
		}

		return s.repo.Users().SoftDeleteTx(ctx, tx, user)
	})
	if err != nil {
		return err
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEvent{
		EventType: ActivityEventUserDeleted,
		ActorID:   actor.ID().String(),
		UserID:    user.ID.String(),
	})

	return nil
}

// GetSelf returns the profile of the authenticated actor
func (s *UserService) GetSelf(ctx context.Context, actor Actor) (*User, error) {
	if err := Authorize(actor, MethodGet, nil, s.selfPolicy); err != nil {
		return nil, err
	}
	return s.repo.Users().GetByIdentifier(ctx, actor.ID().String())
}

// UpdateSelf edits the actor profile. The role is never changed here,
// whatever the payload says.
func (s *UserService) UpdateSelf(ctx context.Context, actor Actor, payload UserPatchPayload) (*User, error) {
	if err := Authorize(actor, MethodPatch, nil, s.selfPolicy); err != nil {
		return nil, err
	}

	payload.Role = nil
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	var user *User
	err := s.write(ctx, "update profile", func(ctx context.Context, tx bun.Tx) error {
		record, err := s.repo.Users().GetByIdentifierTx(ctx, tx, actor.ID().String())
		if err != nil {
			return err
		}

		payload.ApplyTo(record)
		user, err = s.repo.Users().SaveProfileTx(ctx, tx, record)
		return err
	})
	if err != nil {
		return nil, err
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEvent{
		EventType: ActivityEventUserUpdated,
		ActorID:   user.ID.String(),
		UserID:    user.ID.String(),
		Metadata:  map[string]any{"source": "self"},
	})

	return user, nil
}

// BootstrapAdmin creates an admin or promotes an existing user. It runs
// outside any request and is meant for operators.
func (s *UserService) BootstrapAdmin(ctx context.Context, email, username string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		username = NormalizeEmail(email)
	}

	payload := UserPayload{Email: email, Username: username, Role: RoleAdmin}
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	var user *User
	err := s.write(ctx, "bootstrap admin", func(ctx context.Context, tx bun.Tx) error {
		existing, err := s.repo.Users().GetByEmailTx(ctx, tx, email)
		if err != nil && !IsNotFound(err) {
			return err
		}

		if existing != nil {
			existing.Role = RoleAdmin
			user, err = s.repo.Users().SaveProfileTx(ctx, tx, existing)
			return err
		}

		user, err = s.repo.Users().CreateTx(ctx, tx, &User{
			Email:    email,
			Username: username,
			Role:     RoleAdmin,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("admin ready", "id", user.ID.String(), "username", user.Username)
	recordActivity(ctx, s.activity, s.logger, ActivityEvent{
		EventType: ActivityEventUserUpdated,
		UserID:    user.ID.String(),
		Metadata:  map[string]any{"source": "bootstrap", "role": string(RoleAdmin)},
	})
	return user, nil
}
