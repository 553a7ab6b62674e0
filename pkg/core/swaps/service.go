// Package swaps validates and executes schedule swaps against the schedule service.
package swaps

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jakechorley/residency-scheduler/pkg/core/model"
)

// SwapService is the subset of the schedule service used by swap workflows
type SwapService interface {
	ValidateSwap(ctx context.Context, proposal model.SwapProposal) (*model.SwapValidationResult, error)
	ExecuteSwap(ctx context.Context, proposal model.SwapProposal) (*model.ExecuteSwapResult, error)
	RollbackSwap(ctx context.Context, swapID string, req model.RollbackSwapRequest) (*model.RollbackSwapResult, error)
	ListSwaps(ctx context.Context, filter model.SwapFilter) ([]model.SwapRequest, error)
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	// Report fields by their wire names
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
}

// CheckProposal enforces the required fields of a proposal. The target week is
// required only for one-to-one swaps.
func CheckProposal(proposal model.SwapProposal) error {
	err := validate.Struct(proposal)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return &model.ValidationError{Message: err.Error()}
	}

	var missing, invalid []string
	for _, fe := range validationErrors {
		if fe.Tag() == "oneof" {
			invalid = append(invalid, fe.Field())
			continue
		}
		missing = append(missing, fe.Field())
	}

	if len(missing) > 0 {
		return &model.ValidationError{Fields: missing, Message: "missing required fields"}
	}
	return &model.ValidationError{Fields: invalid, Message: "invalid swap type"}
}

// NewSwapRequest creates a working copy of a swap in the proposed state
func NewSwapRequest(proposal model.SwapProposal) *model.SwapRequest {
	return &model.SwapRequest{
		ID:           uuid.New().String(),
		SwapProposal: proposal,
		Status:       model.SwapProposed,
	}
}

// serviceError wraps a failure from the schedule service, passing existing
// service errors through unchanged
func serviceError(op string, err error) error {
	var svcErr *model.ServiceError
	if errors.As(err, &svcErr) {
		return err
	}
	return &model.ServiceError{Op: op, Message: err.Error(), Err: err}
}
