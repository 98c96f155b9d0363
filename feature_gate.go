package reviews

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-featuregate/gate"
	"github.com/goliatone/go-featuregate/gate/guard"
)

func normalizeFeatureGateError(err error) error {
	if err == nil {
		return nil
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return err
	}

	return errors.Wrap(err, errors.CategoryAuthz, "Feature gate check failed").
		WithCode(errors.CodeForbidden)
}

// requireSignupGate allows signup when no gate is configured
func requireSignupGate(ctx context.Context, featureGate gate.FeatureGate) error {
	if featureGate == nil {
		return nil
	}
	return guard.Require(ctx, featureGate, gate.FeatureUsersSignup,
		guard.WithDisabledError(ErrSignupDisabled),
		guard.WithErrorMapper(normalizeFeatureGateError),
	)
}

// StaticFeatureGate resolves features from a fixed map, unknown keys are enabled
type StaticFeatureGate map[string]bool

// Enabled implements gate.FeatureGate
func (s StaticFeatureGate) Enabled(_ context.Context, key string, _ ...gate.ResolveOption) (bool, error) {
	enabled, ok := s[key]
	if !ok {
		return true, nil
	}
	return enabled, nil
}

var _ gate.FeatureGate = StaticFeatureGate(nil)
