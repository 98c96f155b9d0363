package reviews

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-featuregate/gate"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

const (
	DefaultMailFrom    = "noreply@reviews.local"
	DefaultMailSubject = "Your confirmation code"
)

const authOperationTimeout = 10 * time.Second

// EmailAuthenticator implements the passwordless flow: a confirmation code
// is mailed to an address and exchanged for bearer tokens.
type EmailAuthenticator struct {
	repo        RepositoryManager
	codes       *CodeGenerator
	tokens      TokenService
	mailer      Mailer
	featureGate gate.FeatureGate
	activity    ActivitySink
	logger      Logger
	from        string
	subject     string
}

// EmailAuthenticatorOption configures the authenticator
type EmailAuthenticatorOption func(*EmailAuthenticator)

func WithMailer(mailer Mailer) EmailAuthenticatorOption {
	return func(a *EmailAuthenticator) {
		if mailer != nil {
			a.mailer = mailer
		}
	}
}

// WithMailConfig sets the sender and subject of confirmation mails
func WithMailConfig(cfg MailConfig) EmailAuthenticatorOption {
	return func(a *EmailAuthenticator) {
		if cfg == nil {
			return
		}
		if from := cfg.GetFrom(); from != "" {
			a.from = from
		}
		if subject := cfg.GetSubject(); subject != "" {
			a.subject = subject
		}
	}
}

// WithFeatureGate gates signup of unknown emails
func WithFeatureGate(fg gate.FeatureGate) EmailAuthenticatorOption {
	return func(a *EmailAuthenticator) {
		a.featureGate = fg
	}
}

func WithActivitySink(sink ActivitySink) EmailAuthenticatorOption {
	return func(a *EmailAuthenticator) {
		a.activity = sink
	}
}

func WithAuthLogger(logger Logger) EmailAuthenticatorOption {
	return func(a *EmailAuthenticator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

func NewEmailAuthenticator(repo RepositoryManager, codes *CodeGenerator, tokens TokenService, opts ...EmailAuthenticatorOption) *EmailAuthenticator {
	a := &EmailAuthenticator{
		repo:     repo,
		codes:    codes,
		tokens:   tokens,
		mailer:   noopMailer{},
		activity: noopActivitySink{},
		logger:   defLogger{},
		from:     DefaultMailFrom,
		subject:  DefaultMailSubject,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// RequestCode mails a confirmation code to the payload address, creating
// the user on first contact. It returns the normalized address.
func (a *EmailAuthenticator) RequestCode(ctx context.Context, payload RequestCodePayload) (string, error) {
	select {
	case <-ctx.Done():
		return "", goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during code request")
	default:
	}

	if err := payload.Validate(); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, authOperationTimeout)
	defer cancel()

	email := NormalizeEmail(payload.Email)

	var user *User
	var created bool
	err := a.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		user, err = a.repo.Users().GetByEmailTx(ctx, tx, email)
		if err == nil {
			return nil
		}
		if !IsNotFound(err) {
			return err
		}

		if err := requireSignupGate(ctx, a.featureGate); err != nil {
			return err
		}

		record := &User{
			Email:    email,
			Username: email,
			Role:     RoleUser,
		}
		// stable per address unless the id already belongs to another row
		if id, err := hashid.NewUUID(email); err == nil {
			record.ID = id
		}

		user, created, err = a.repo.Users().GetOrCreateByEmailTx(ctx, tx, record)
		return err
	})
	if err != nil {
		return "", authError(err, "confirmation code request failed")
	}

	if created {
		recordActivity(ctx, a.activity, a.logger, ActivityEvent{
			EventType: ActivityEventUserCreated,
			ActorID:   user.ID.String(),
			UserID:    user.ID.String(),
			Metadata:  map[string]any{"source": "confirmation_code"},
		})
	}

	code, err := a.codes.Generate(user)
	if err != nil {
		return "", authError(err, "failed to generate confirmation code")
	}

	body := fmt.Sprintf("Your confirmation code: %s", code)
	if err := a.mailer.Send(ctx, user.Email, a.subject, body); err != nil {
		a.logger.Warn("confirmation mail failed", "to", user.Email, "error", err)
	}

	recordActivity(ctx, a.activity, a.logger, ActivityEvent{
		EventType: ActivityEventCodeRequested,
		ActorID:   user.ID.String(),
		UserID:    user.ID.String(),
		Metadata:  map[string]any{"created": created},
	})

	return email, nil
}

// RedeemCode exchanges a confirmation code for a token pair. A valid
// code activates the user and stamps the login time, which makes the code
// single use.
func (a *EmailAuthenticator) RedeemCode(ctx context.Context, payload RedeemCodePayload) (TokenPair, error) {
	select {
	case <-ctx.Done():
		return TokenPair{}, goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during code redemption")
	default:
	}

	if err := payload.Validate(); err != nil {
		return TokenPair{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, authOperationTimeout)
	defer cancel()

	var user *User
	err := a.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		user, err = a.repo.Users().GetByEmailTx(ctx, tx, payload.Email)
		if err != nil {
			return err
		}

		if !a.codes.Verify(user, payload.ConfirmationCode) {
			return ErrInvalidConfirmationCode
		}

		tracked, err := a.repo.Users().TrackSuccessfulLoginTx(ctx, tx, user)
		if err != nil {
			return err
		}
		user = tracked
		return nil
	})
	if err != nil {
		if goerrors.Is(err, ErrInvalidConfirmationCode) && user != nil {
			recordActivity(ctx, a.activity, a.logger, ActivityEvent{
				EventType: ActivityEventCodeRejected,
				UserID:    user.ID.String(),
			})
		}
		return TokenPair{}, authError(err, "confirmation code redemption failed")
	}

	pair, err := a.tokens.IssueTokenPair(user)
	if err != nil {
		return TokenPair{}, authError(err, "failed to issue tokens")
	}

	recordActivity(ctx, a.activity, a.logger, ActivityEvent{
		EventType: ActivityEventCodeRedeemed,
		ActorID:   user.ID.String(),
		UserID:    user.ID.String(),
	})

	return pair, nil
}

// RefreshToken issues a new access token for a valid refresh token whose
// user still exists
func (a *EmailAuthenticator) RefreshToken(ctx context.Context, payload RefreshTokenPayload) (string, error) {
	if err := payload.Validate(); err != nil {
		return "", err
	}

	claims, err := a.tokens.ValidateRefresh(payload.Refresh)
	if err != nil {
		return "", err
	}

	user, err := a.repo.Users().GetByIdentifier(ctx, claims.UserID())
	if err != nil {
		if IsNotFound(err) {
			return "", NewAuthenticationRequired("User not found.")
		}
		return "", authError(err, "failed to load user")
	}

	token, err := a.tokens.IssueAccessToken(user)
	if err != nil {
		return "", authError(err, "failed to issue token")
	}

	recordActivity(ctx, a.activity, a.logger, ActivityEvent{
		EventType: ActivityEventTokenRefresh,
		ActorID:   user.ID.String(),
		UserID:    user.ID.String(),
	})

	return token, nil
}

func authError(err error, message string) error {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, message).
		WithCode(goerrors.CodeInternal)
}
