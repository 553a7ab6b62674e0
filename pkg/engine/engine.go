// Package engine is the authoritative schedule service behind the HTTP API.
// It re-checks every swap at commit time regardless of any earlier dry run.
package engine

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/residency-scheduler/pkg/core/access"
	"github.com/jakechorley/residency-scheduler/pkg/core/compliance"
	"github.com/jakechorley/residency-scheduler/pkg/core/swaps"
	"github.com/jakechorley/residency-scheduler/pkg/db"
)

// ErrConflict is returned when a change would double-book someone
var ErrConflict = errors.New("schedule conflict")

// Options configures an Engine
type Options struct {
	Now            func() time.Time
	Compliance     compliance.Config
	RollbackWindow time.Duration
}

type Engine struct {
	store     db.Store
	logger    *zap.Logger
	evaluator *compliance.Evaluator
	now       func() time.Time
	window    time.Duration
}

func New(store db.Store, logger *zap.Logger, opts Options) *Engine {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RollbackWindow <= 0 {
		opts.RollbackWindow = swaps.RollbackWindow
	}
	return &Engine{
		store:     store,
		logger:    logger,
		evaluator: compliance.NewEvaluator(opts.Compliance),
		now:       opts.Now,
		window:    opts.RollbackWindow,
	}
}

// Health reports whether the engine can serve requests
func (e *Engine) Health(ctx context.Context) error {
	_, err := e.store.ListSwaps(ctx, "executed")
	return err
}

// actor returns the id of the caller for audit fields
func actor(ctx context.Context) string {
	if identity, ok := access.IdentityFromContext(ctx); ok {
		return identity.UserID
	}
	return ""
}
