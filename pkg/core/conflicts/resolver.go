// Package conflicts applies a single resolution policy to a selection of
// violation records and reports the outcome per violation.
//
// A batch is not atomic. Items applied before a failure or cancellation stay
// applied, and items that were never dispatched are reported as failed so the
// caller can retry them.
package conflicts

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jakechorley/residency-scheduler/pkg/core/access"
	"github.com/jakechorley/residency-scheduler/pkg/core/model"
)

const (
	DefaultChunkSize      = 50
	DefaultMaxConcurrency = 4

	msgNotAttempted     = "not attempted"
	msgNoResultReturned = "no result returned"
)

// ViolationService is the subset of the schedule service used by the resolver
type ViolationService interface {
	BatchResolveViolations(ctx context.Context, req model.BatchResolveRequest) (*model.BatchResolutionResult, error)
	BatchIgnoreViolations(ctx context.Context, req model.BatchIgnoreRequest) (*model.BatchIgnoreResult, error)
	ListViolations(ctx context.Context, filter model.ViolationFilter) ([]model.ViolationRecord, error)
}

// Options configures how a batch is split and dispatched
type Options struct {
	ChunkSize      int
	MaxConcurrency int
}

type Resolver struct {
	service  ViolationService
	identity access.Identity
	logger   *zap.Logger
	opts     Options
}

func NewResolver(service ViolationService, identity access.Identity, logger *zap.Logger, opts Options) *Resolver {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = DefaultMaxConcurrency
	}
	return &Resolver{
		service:  service,
		identity: identity,
		logger:   logger,
		opts:     opts,
	}
}

// chunkOutcome is what a single dispatched chunk reported
type chunkOutcome struct {
	attempted bool
	err       error

	// auto_resolved path
	results map[string]model.BatchItemResult

	// ignored path
	succeeded int
	failed    int
}

// Resolve applies method to every id. Partial failure is reported in the
// result, never as an error; errors are reserved for input that was rejected
// before anything was sent.
func (r *Resolver) Resolve(ctx context.Context, ids []string, method model.ResolutionMethod, reason string) (*model.BatchResolutionResult, error) {
	if err := checkBatch(ids, method, reason); err != nil {
		return nil, err
	}
	if err := access.Require(r.identity, access.ResolutionAction(method)); err != nil {
		return nil, err
	}

	chunks := splitChunks(ids, r.opts.ChunkSize)
	outcomes := make([]chunkOutcome, len(chunks))

	r.logger.Info("Resolving violations",
		zap.Int("count", len(ids)),
		zap.String("method", string(method)),
		zap.Int("chunks", len(chunks)))

	// Each chunk writes only its own slot, so no locking is needed
	var g errgroup.Group
	g.SetLimit(r.opts.MaxConcurrency)
	for i, chunk := range chunks {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			outcomes[i] = r.dispatch(ctx, chunk, method, reason)
			return nil
		})
	}
	_ = g.Wait()

	var result *model.BatchResolutionResult
	if method == model.ResolutionIgnored {
		result = mergeIgnored(chunks, outcomes)
	} else {
		result = mergeResolved(chunks, outcomes)
	}
	result.Method = method
	result.Reason = reason

	r.logger.Info("Violation resolution complete",
		zap.Int("total", result.Total),
		zap.Int("successful", result.Successful),
		zap.Int("failed", result.Failed),
		zap.Int("retryable", len(result.RetryableIDs)))

	return result, nil
}

// Retry re-submits only the ids that previous reported as failed
func (r *Resolver) Retry(ctx context.Context, previous *model.BatchResolutionResult) (*model.BatchResolutionResult, error) {
	if previous == nil || len(previous.RetryableIDs) == 0 {
		if previous != nil && previous.Method == model.ResolutionIgnored && previous.Failed > 0 {
			return nil, &model.ValidationError{Message: fmt.Sprintf(
				"%d violations failed to be ignored but the service reports ignore failures as counts only, so they cannot be retried by id; select the unresolved violations again",
				previous.Failed)}
		}
		return nil, &model.ValidationError{Message: "nothing to retry"}
	}
	ids := make([]string, len(previous.RetryableIDs))
	copy(ids, previous.RetryableIDs)
	return r.Resolve(ctx, ids, previous.Method, previous.Reason)
}

// dispatch issues the mutation for one chunk
func (r *Resolver) dispatch(ctx context.Context, chunk []string, method model.ResolutionMethod, reason string) chunkOutcome {
	outcome := chunkOutcome{attempted: true}

	if method == model.ResolutionIgnored {
		resp, err := r.service.BatchIgnoreViolations(ctx, model.BatchIgnoreRequest{ConflictIDs: chunk, Reason: reason})
		if err != nil {
			r.logger.Warn("Batch ignore chunk failed", zap.Int("size", len(chunk)), zap.Error(err))
			outcome.err = err
			return outcome
		}
		outcome.succeeded, outcome.failed = resp.Success, resp.Failed
		return outcome
	}

	resp, err := r.service.BatchResolveViolations(ctx, model.BatchResolveRequest{ConflictIDs: chunk, ResolutionMethod: method})
	if err != nil {
		r.logger.Warn("Batch resolve chunk failed", zap.Int("size", len(chunk)), zap.Error(err))
		outcome.err = err
		return outcome
	}
	outcome.results = make(map[string]model.BatchItemResult, len(resp.Results))
	for _, item := range resp.Results {
		if _, seen := outcome.results[item.ConflictID]; !seen {
			outcome.results[item.ConflictID] = item
		}
	}
	return outcome
}

// mergeResolved builds per-item results in submission order
func mergeResolved(chunks [][]string, outcomes []chunkOutcome) *model.BatchResolutionResult {
	result := &model.BatchResolutionResult{Results: []model.BatchItemResult{}}

	for i, chunk := range chunks {
		outcome := outcomes[i]
		for _, id := range chunk {
			item := model.BatchItemResult{ConflictID: id}
			switch {
			case !outcome.attempted:
				item.Message = msgNotAttempted
			case outcome.err != nil:
				item.Message = model.UserMessage(outcome.err)
			default:
				reported, ok := outcome.results[id]
				if !ok {
					item.Message = msgNoResultReturned
				} else {
					item.Success = reported.Success
					item.Message = reported.Message
				}
			}

			result.Results = append(result.Results, item)
			result.Total++
			if item.Success {
				result.Successful++
			} else {
				result.Failed++
				result.RetryableIDs = append(result.RetryableIDs, id)
			}
		}
	}
	return result
}

// mergeIgnored sums aggregate counts. Only chunks that were never delivered
// can be retried; failures inside a delivered chunk are not attributable to ids.
func mergeIgnored(chunks [][]string, outcomes []chunkOutcome) *model.BatchResolutionResult {
	result := &model.BatchResolutionResult{}

	for i, chunk := range chunks {
		outcome := outcomes[i]
		result.Total += len(chunk)

		if !outcome.attempted || outcome.err != nil {
			result.Failed += len(chunk)
			result.RetryableIDs = append(result.RetryableIDs, chunk...)
			continue
		}

		succeeded := clamp(outcome.succeeded, 0, len(chunk))
		result.Successful += succeeded
		result.Failed += len(chunk) - succeeded
	}
	return result
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// checkBatch rejects malformed batches before anything is dispatched
func checkBatch(ids []string, method model.ResolutionMethod, reason string) error {
	if len(ids) == 0 {
		return &model.ValidationError{Fields: []string{"conflictIds"}, Message: "no violations selected"}
	}
	if !method.IsValid() {
		return &model.ValidationError{Fields: []string{"resolutionMethod"}, Message: fmt.Sprintf("unknown resolution method %q", method)}
	}
	if method == model.ResolutionIgnored && reason == "" {
		return &model.ValidationError{Fields: []string{"reason"}, Message: "a reason is required to ignore violations"}
	}

	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			return &model.ValidationError{Fields: []string{"conflictIds"}, Message: "empty violation id"}
		}
		if _, dup := seen[id]; dup {
			return &model.ValidationError{Fields: []string{"conflictIds"}, Message: fmt.Sprintf("violation %s selected more than once", id)}
		}
		seen[id] = struct{}{}
	}
	return nil
}

func splitChunks(ids []string, size int) [][]string {
	chunks := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}

// IsPartial reports whether a batch completed for some but not all ids
func IsPartial(result *model.BatchResolutionResult) bool {
	return result != nil && result.Successful > 0 && result.Failed > 0
}
