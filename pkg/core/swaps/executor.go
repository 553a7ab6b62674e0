package swaps

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/residency-scheduler/pkg/core/access"
	"github.com/jakechorley/residency-scheduler/pkg/core/model"
)

// RollbackWindow is how long after execution a swap may be rolled back
const RollbackWindow = 24 * time.Hour

// Options configures an Executor
type Options struct {
	// RequireValidation only allows validated swaps to be executed. When false,
	// proposed swaps may be executed directly and the service checks them at commit.
	RequireValidation bool

	// Now is the executor clock. Defaults to time.Now.
	Now func() time.Time
}

// Executor drives a swap working copy through its lifecycle:
//
//	proposed -> validated -> executed -> rolled_back
//	proposed/validated -> failed
//
// Every transition issues exactly one mutation and none are retried.
type Executor struct {
	service  SwapService
	identity access.Identity
	logger   *zap.Logger
	opts     Options

	// mu guards the in-flight sets. A working copy is only read or written
	// by a transition that holds it in swaps.
	mu       sync.Mutex
	swaps    map[*model.SwapRequest]struct{}
	inFlight map[string]struct{}
}

func NewExecutor(service SwapService, identity access.Identity, logger *zap.Logger, opts Options) *Executor {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Executor{
		service:  service,
		identity: identity,
		logger:   logger,
		opts:     opts,
		swaps:    make(map[*model.SwapRequest]struct{}),
		inFlight: make(map[string]struct{}),
	}
}

// CanExecute reports whether swap may be executed from its current status
func (e *Executor) CanExecute(swap *model.SwapRequest) bool {
	switch swap.Status {
	case model.SwapValidated:
		return true
	case model.SwapProposed:
		return !e.opts.RequireValidation
	}
	return false
}

// CanRollback reports whether swap is still inside the rollback window at now.
// A swap executed exactly RollbackWindow ago has expired.
func CanRollback(swap *model.SwapRequest, now time.Time) bool {
	if swap.Status != model.SwapExecuted || swap.ExecutedAt == nil {
		return false
	}
	return now.Sub(*swap.ExecutedAt) < RollbackWindow
}

// CanRollback reports whether swap may be rolled back according to the executor clock
func (e *Executor) CanRollback(swap *model.SwapRequest) bool {
	return CanRollback(swap, e.opts.Now())
}

// Execute commits the swap. A service failure or an unsuccessful result moves
// the swap to failed; the caller decides whether to propose it again.
func (e *Executor) Execute(ctx context.Context, swap *model.SwapRequest) (*model.ExecuteSwapResult, error) {
	release, err := e.begin(swap)
	if err != nil {
		return nil, err
	}
	defer release()

	if !e.CanExecute(swap) {
		return nil, fmt.Errorf("cannot execute swap in status %s: %w", swap.Status, model.ErrIllegalTransition)
	}

	if err := CheckProposal(swap.SwapProposal); err != nil {
		return nil, err
	}
	if err := access.Require(e.identity, access.ExecuteSwapAction(e.identity, swap.SourceFacultyID)); err != nil {
		return nil, err
	}

	e.logger.Info("Executing swap",
		zap.String("swap_id", swap.ID),
		zap.String("source_faculty_id", swap.SourceFacultyID),
		zap.String("target_faculty_id", swap.TargetFacultyID),
		zap.String("swap_type", string(swap.SwapType)))

	result, err := e.service.ExecuteSwap(ctx, swap.SwapProposal)
	if err != nil {
		swap.Status = model.SwapFailed
		swap.Message = model.UserMessage(err)
		e.logger.Error("Swap execution failed", zap.String("swap_id", swap.ID), zap.Error(err))
		return nil, serviceError("executeSwap", err)
	}

	if !result.Success {
		swap.Status = model.SwapFailed
		swap.Message = result.Message
		e.logger.Warn("Swap execution rejected", zap.String("swap_id", swap.ID), zap.String("message", result.Message))
		return result, nil
	}

	executedAt := e.opts.Now()
	if result.SwapID != "" {
		swap.ID = result.SwapID
	} else {
		e.logger.Warn("Swap executed without a service swap id, rollback will use the local id",
			zap.String("swap_id", swap.ID))
	}
	swap.Status = model.SwapExecuted
	swap.ExecutedAt = &executedAt
	swap.Message = result.Message

	e.logger.Info("Swap executed", zap.String("swap_id", swap.ID), zap.Time("executed_at", executedAt))
	return result, nil
}

// Rollback reverses an executed swap. Once the rollback window has closed the
// swap is rejected locally with a *model.RollbackWindowExpiredError.
func (e *Executor) Rollback(ctx context.Context, swap *model.SwapRequest, reason string) (*model.RollbackSwapResult, error) {
	release, err := e.begin(swap)
	if err != nil {
		return nil, err
	}
	defer release()

	if swap.Status != model.SwapExecuted {
		return nil, fmt.Errorf("cannot roll back swap in status %s: %w", swap.Status, model.ErrIllegalTransition)
	}
	if swap.ExecutedAt == nil {
		return nil, fmt.Errorf("cannot roll back swap %s without an execution time: %w", swap.ID, model.ErrIllegalTransition)
	}

	if err := access.Require(e.identity, access.ActionRollbackSwap); err != nil {
		return nil, err
	}

	if !e.CanRollback(swap) {
		return nil, &model.RollbackWindowExpiredError{
			SwapID:     swap.ID,
			ExecutedAt: *swap.ExecutedAt,
			Window:     RollbackWindow,
		}
	}

	e.logger.Info("Rolling back swap", zap.String("swap_id", swap.ID), zap.String("reason", reason))

	result, err := e.service.RollbackSwap(ctx, swap.ID, model.RollbackSwapRequest{Reason: reason})
	if err != nil {
		e.logger.Error("Swap rollback failed", zap.String("swap_id", swap.ID), zap.Error(err))
		return nil, serviceError("rollbackSwap", err)
	}

	if !result.Success {
		swap.Message = result.Message
		e.logger.Warn("Swap rollback rejected", zap.String("swap_id", swap.ID), zap.String("message", result.Message))
		return result, nil
	}

	rolledBackAt := e.opts.Now()
	swap.Status = model.SwapRolledBack
	swap.RolledBackAt = &rolledBackAt
	swap.Message = result.Message

	e.logger.Info("Swap rolled back", zap.String("swap_id", swap.ID))
	return result, nil
}

// begin marks a transition on swap as in flight and returns the func that
// clears it. The working copy is claimed before any of its fields are read, and
// its id is captured under the lock so a second copy with the same id is also
// rejected.
func (e *Executor) begin(swap *model.SwapRequest) (func(), error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, busy := e.swaps[swap]; busy {
		return nil, fmt.Errorf("swap transition: %w", model.ErrTransitionInFlight)
	}
	id := swap.ID
	if _, busy := e.inFlight[id]; busy {
		return nil, fmt.Errorf("swap %s: %w", id, model.ErrTransitionInFlight)
	}
	e.swaps[swap] = struct{}{}
	e.inFlight[id] = struct{}{}

	return func() {
		e.mu.Lock()
		delete(e.swaps, swap)
		delete(e.inFlight, id)
		e.mu.Unlock()
	}, nil
}
