package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	"github.com/jakechorley/residency-scheduler/pkg/core/access"
	"github.com/jakechorley/residency-scheduler/pkg/core/model"
	"github.com/jakechorley/residency-scheduler/pkg/engine"
)

type handlers struct {
	engine *engine.Engine
	logger *zap.Logger
}

var mutationErrors = []int{
	http.StatusUnauthorized,
	http.StatusForbidden,
	http.StatusNotFound,
	http.StatusConflict,
	http.StatusUnprocessableEntity,
	http.StatusInternalServerError,
}

type healthOutput struct {
	Body map[string]string `json:"body"`
}

func registerHealth(api huma.API, h *handlers) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*healthOutput, error) {
		if err := h.engine.Health(ctx); err != nil {
			return nil, h.handleError("health", err)
		}
		return &healthOutput{Body: map[string]string{"status": "ok"}}, nil
	})
}

type swapListOutput struct {
	Body struct {
		Items []model.SwapRequest `json:"items"`
	}
}

func registerSwaps(api huma.API, h *handlers) {
	huma.Register(api, huma.Operation{
		OperationID: "validate-swap",
		Method:      http.MethodPost,
		Path:        "/swaps/validate",
		Summary:     "Dry-run a swap",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		Body model.SwapProposal
	}) (*struct {
		Body model.SwapValidationResult
	}, error) {
		if authErr := h.authorize(ctx, access.ActionValidateSwap); authErr != nil {
			return nil, authErr
		}
		result, err := h.engine.ValidateSwap(ctx, input.Body)
		if err != nil {
			return nil, h.handleError("validateSwap", err)
		}
		return &struct {
			Body model.SwapValidationResult
		}{Body: *result}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "execute-swap",
		Method:      http.MethodPost,
		Path:        "/swaps/execute",
		Summary:     "Execute a swap",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		Body model.SwapProposal
	}) (*struct {
		Body model.ExecuteSwapResult
	}, error) {
		identity, authErr := caller(ctx)
		if authErr != nil {
			return nil, authErr
		}
		// Self-service callers may only execute swaps of their own assignments
		if authErr := h.authorize(ctx, access.ExecuteSwapAction(identity, input.Body.SourceFacultyID)); authErr != nil {
			return nil, authErr
		}
		result, err := h.engine.ExecuteSwap(ctx, input.Body)
		if err != nil {
			return nil, h.handleError("executeSwap", err)
		}
		return &struct {
			Body model.ExecuteSwapResult
		}{Body: *result}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "rollback-swap",
		Method:      http.MethodPost,
		Path:        "/swaps/{swapId}/rollback",
		Summary:     "Roll back an executed swap",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		SwapID string `path:"swapId"`
		Body   model.RollbackSwapRequest
	}) (*struct {
		Body model.RollbackSwapResult
	}, error) {
		if authErr := h.authorize(ctx, access.ActionRollbackSwap); authErr != nil {
			return nil, authErr
		}
		result, err := h.engine.RollbackSwap(ctx, input.SwapID, input.Body)
		if err != nil {
			return nil, h.handleError("rollbackSwap", err)
		}
		return &struct {
			Body model.RollbackSwapResult
		}{Body: *result}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-swaps",
		Method:      http.MethodGet,
		Path:        "/swaps",
		Summary:     "List swaps",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		Status string `query:"status" doc:"Only return swaps with this status"`
	}) (*swapListOutput, error) {
		if authErr := h.authorize(ctx, access.ActionListSwaps); authErr != nil {
			return nil, authErr
		}
		status := model.SwapStatus(input.Status)
		if status != "" && !status.IsValid() {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", fmt.Sprintf("invalid status %q", input.Status))
		}
		items, err := h.engine.ListSwaps(ctx, model.SwapFilter{Status: status})
		if err != nil {
			return nil, h.handleError("listSwaps", err)
		}
		out := &swapListOutput{}
		out.Body.Items = items
		return out, nil
	})
}

type violationListOutput struct {
	Body struct {
		Items []model.ViolationRecord `json:"items"`
	}
}

func registerViolations(api huma.API, h *handlers) {
	huma.Register(api, huma.Operation{
		OperationID: "list-violations",
		Method:      http.MethodGet,
		Path:        "/violations",
		Summary:     "List violations",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		Severity string `query:"severity"`
		Type     string `query:"type"`
		Resolved string `query:"resolved" doc:"true or false"`
	}) (*violationListOutput, error) {
		if authErr := h.authorize(ctx, access.ActionListViolations); authErr != nil {
			return nil, authErr
		}
		filter, badRequest := violationFilter(input.Severity, input.Type, input.Resolved)
		if badRequest != nil {
			return nil, badRequest
		}
		items, err := h.engine.ListViolations(ctx, filter)
		if err != nil {
			return nil, h.handleError("listViolations", err)
		}
		out := &violationListOutput{}
		out.Body.Items = items
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "batch-resolve-violations",
		Method:      http.MethodPost,
		Path:        "/violations/batch-resolve",
		Summary:     "Resolve violations",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		Body model.BatchResolveRequest
	}) (*struct {
		Body model.BatchResolutionResult
	}, error) {
		if authErr := h.authorize(ctx, access.ResolutionAction(input.Body.ResolutionMethod)); authErr != nil {
			return nil, authErr
		}
		result, err := h.engine.BatchResolveViolations(ctx, input.Body)
		if err != nil {
			return nil, h.handleError("batchResolveViolations", err)
		}
		return &struct {
			Body model.BatchResolutionResult
		}{Body: *result}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "batch-ignore-violations",
		Method:      http.MethodPost,
		Path:        "/violations/batch-ignore",
		Summary:     "Ignore violations",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		Body model.BatchIgnoreRequest
	}) (*struct {
		Body model.BatchIgnoreResult
	}, error) {
		if authErr := h.authorize(ctx, access.ActionIgnoreViolations); authErr != nil {
			return nil, authErr
		}
		result, err := h.engine.BatchIgnoreViolations(ctx, input.Body)
		if err != nil {
			return nil, h.handleError("batchIgnoreViolations", err)
		}
		return &struct {
			Body model.BatchIgnoreResult
		}{Body: *result}, nil
	})
}

func violationFilter(severity, warningType, resolved string) (model.ViolationFilter, huma.StatusError) {
	filter := model.ViolationFilter{
		Severity: model.Severity(severity),
		Type:     model.WarningType(warningType),
	}
	if filter.Severity != "" && !filter.Severity.IsValid() {
		return filter, newAPIError(http.StatusBadRequest, "bad_request", fmt.Sprintf("invalid severity %q", severity))
	}
	if filter.Type != "" && !filter.Type.IsValid() {
		return filter, newAPIError(http.StatusBadRequest, "bad_request", fmt.Sprintf("invalid type %q", warningType))
	}
	if resolved != "" {
		value, err := strconv.ParseBool(resolved)
		if err != nil {
			return filter, newAPIError(http.StatusBadRequest, "bad_request", fmt.Sprintf("invalid resolved value %q", resolved))
		}
		filter.Resolved = &value
	}
	return filter, nil
}

func registerAssignments(api huma.API, h *handlers) {
	huma.Register(api, huma.Operation{
		OperationID: "update-assignment",
		Method:      http.MethodPut,
		Path:        "/assignments/{assignmentId}",
		Summary:     "Reassign an assignment",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		AssignmentID string `path:"assignmentId"`
		Body         model.AssignmentUpdate
	}) (*struct {
		Body model.Assignment
	}, error) {
		if authErr := h.authorize(ctx, access.ActionEditAssignment); authErr != nil {
			return nil, authErr
		}
		result, err := h.engine.UpdateAssignment(ctx, input.AssignmentID, input.Body)
		if err != nil {
			return nil, h.handleError("updateAssignment", err)
		}
		return &struct {
			Body model.Assignment
		}{Body: *result}, nil
	})
}
