package reviews

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

const serviceOperationTimeout = 10 * time.Second

type serviceDeps struct {
	repo     RepositoryManager
	logger   Logger
	activity ActivitySink
}

// ServiceOption configures the resource services
type ServiceOption func(*serviceDeps)

func WithServiceLogger(logger Logger) ServiceOption {
	return func(d *serviceDeps) {
		if logger != nil {
			d.logger = logger
		}
	}
}

func WithServiceActivitySink(sink ActivitySink) ServiceOption {
	return func(d *serviceDeps) {
		d.activity = sink
	}
}

func newServiceDeps(repo RepositoryManager, opts ...ServiceOption) serviceDeps {
	deps := serviceDeps{
		repo:     repo,
		logger:   defLogger{},
		activity: noopActivitySink{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&deps)
		}
	}
	return deps
}

// write runs fn in a transaction bound to the operation timeout
func (d serviceDeps) write(ctx context.Context, operation string, fn func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during "+operation)
	default:
	}

	ctx, cancel := context.WithTimeout(ctx, serviceOperationTimeout)
	defer cancel()

	err := d.repo.RunInTx(ctx, nil, fn)
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr
	}

	d.logger.Error("transaction failed", "operation", operation, "error", err)
	return goerrors.Wrap(err, goerrors.CategoryInternal, operation+" transaction failed").
		WithCode(goerrors.CodeInternal)
}
