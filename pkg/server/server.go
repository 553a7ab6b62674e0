// Package server exposes the schedule engine as the /v1 HTTP API
package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/jakechorley/residency-scheduler/pkg/core/model"
	"github.com/jakechorley/residency-scheduler/pkg/db"
	"github.com/jakechorley/residency-scheduler/pkg/engine"
)

// BasePath prefixes every API route
const BasePath = "/v1"

// Config for the HTTP API handler
type Config struct {
	Engine    *engine.Engine
	JWTSecret string
	Logger    *zap.Logger
}

type apiErrorBody struct {
	Code    string `json:"code" example:"conflict"`
	Message string `json:"message" example:"Dr. Baker is already assigned in week 2025-03-10"`
}

// apiError is the error envelope returned for every non-2xx response
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the schedule API
func New(cfg Config) (http.Handler, error) {
	if cfg.Engine == nil {
		return nil, errors.New("engine is required")
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, errors.New("jwt secret is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", withDetails(msg, errs))
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", withDetails(msg, errs))
	}

	router := chi.NewRouter()
	router.Use(newAuthMiddleware(cfg.JWTSecret, cfg.Logger))

	hcfg := huma.DefaultConfig("Residency Schedule API", "1.0.0")
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, BasePath)

	h := &handlers{engine: cfg.Engine, logger: cfg.Logger}
	registerHealth(group, h)
	registerSwaps(group, h)
	registerViolations(group, h)
	registerAssignments(group, h)

	return router, nil
}

func newAPIError(status int, code, message string) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{status: status, Body: apiErrorBody{Code: code, Message: message}}
}

// withDetails folds huma's validation details into the message so the
// client banner shows which field was wrong
func withDetails(msg string, errs []error) string {
	if len(errs) == 0 {
		return msg
	}
	details := make([]string, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			details = append(details, err.Error())
		}
	}
	if len(details) == 0 {
		return msg
	}
	return msg + ": " + strings.Join(details, "; ")
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

// handleError maps engine and store errors to API errors
func (h *handlers) handleError(op string, err error) huma.StatusError {
	var permErr *model.PermissionError
	if errors.As(err, &permErr) {
		return newAPIError(http.StatusForbidden, "forbidden", err.Error())
	}
	var validationErr *model.ValidationError
	if errors.As(err, &validationErr) {
		return newAPIError(http.StatusUnprocessableEntity, "validation_failed", err.Error())
	}
	var expiredErr *model.RollbackWindowExpiredError
	if errors.As(err, &expiredErr) {
		return newAPIError(http.StatusConflict, "rollback_window_expired", err.Error())
	}

	switch {
	case errors.Is(err, db.ErrNotFound):
		return newAPIError(http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, model.ErrIllegalTransition):
		return newAPIError(http.StatusConflict, "illegal_transition", err.Error())
	case errors.Is(err, engine.ErrConflict), errors.Is(err, db.ErrStaleSwap):
		return newAPIError(http.StatusConflict, "conflict", err.Error())
	}

	h.logger.Error("Request failed", zap.String("op", op), zap.Error(err))
	return newAPIError(http.StatusInternalServerError, "internal_error", "internal error")
}
