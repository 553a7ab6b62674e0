// Package scheduleclient is an HTTP client for the schedule service API
package scheduleclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/jakechorley/residency-scheduler/pkg/core/model"
)

const defaultTimeout = 30 * time.Second

// Client calls the schedule service. It satisfies swaps.SwapService and
// conflicts.ViolationService.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates a client that authenticates every request with the bearer token
func New(ctx context.Context, baseURL, token string, logger *zap.Logger) *Client {
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))
	httpClient.Timeout = defaultTimeout
	return NewWithHTTPClient(baseURL, httpClient, logger)
}

// NewWithHTTPClient creates a client using the given HTTP client as-is
func NewWithHTTPClient(baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// errorEnvelope is the body of every non-2xx response
type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type swapList struct {
	Items []model.SwapRequest `json:"items"`
}

type violationList struct {
	Items []model.ViolationRecord `json:"items"`
}

// ValidateSwap dry-runs a swap proposal
func (c *Client) ValidateSwap(ctx context.Context, proposal model.SwapProposal) (*model.SwapValidationResult, error) {
	var resp model.SwapValidationResult
	if err := c.do(ctx, "validateSwap", http.MethodPost, "swaps/validate", proposal, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ExecuteSwap commits a swap
func (c *Client) ExecuteSwap(ctx context.Context, proposal model.SwapProposal) (*model.ExecuteSwapResult, error) {
	var resp model.ExecuteSwapResult
	if err := c.do(ctx, "executeSwap", http.MethodPost, "swaps/execute", proposal, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RollbackSwap reverses an executed swap
func (c *Client) RollbackSwap(ctx context.Context, swapID string, req model.RollbackSwapRequest) (*model.RollbackSwapResult, error) {
	var resp model.RollbackSwapResult
	endpoint := fmt.Sprintf("swaps/%s/rollback", url.PathEscape(swapID))
	if err := c.do(ctx, "rollbackSwap", http.MethodPost, endpoint, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListSwaps lists swaps, optionally by status
func (c *Client) ListSwaps(ctx context.Context, filter model.SwapFilter) ([]model.SwapRequest, error) {
	query := url.Values{}
	if filter.Status != "" {
		query.Set("status", string(filter.Status))
	}

	var resp swapList
	if err := c.do(ctx, "listSwaps", http.MethodGet, withQuery("swaps", query), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// ListViolations lists violation records matching filter
func (c *Client) ListViolations(ctx context.Context, filter model.ViolationFilter) ([]model.ViolationRecord, error) {
	query := url.Values{}
	if filter.Severity != "" {
		query.Set("severity", string(filter.Severity))
	}
	if filter.Type != "" {
		query.Set("type", string(filter.Type))
	}
	if filter.Resolved != nil {
		query.Set("resolved", strconv.FormatBool(*filter.Resolved))
	}

	var resp violationList
	if err := c.do(ctx, "listViolations", http.MethodGet, withQuery("violations", query), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// BatchResolveViolations resolves violations and reports per-item results
func (c *Client) BatchResolveViolations(ctx context.Context, req model.BatchResolveRequest) (*model.BatchResolutionResult, error) {
	var resp model.BatchResolutionResult
	if err := c.do(ctx, "batchResolveViolations", http.MethodPost, "violations/batch-resolve", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// BatchIgnoreViolations ignores violations and reports aggregate counts
func (c *Client) BatchIgnoreViolations(ctx context.Context, req model.BatchIgnoreRequest) (*model.BatchIgnoreResult, error) {
	var resp model.BatchIgnoreResult
	if err := c.do(ctx, "batchIgnoreViolations", http.MethodPost, "violations/batch-ignore", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateAssignment reassigns a block-week assignment to another faculty member
func (c *Client) UpdateAssignment(ctx context.Context, assignmentID string, update model.AssignmentUpdate) (*model.Assignment, error) {
	var resp model.Assignment
	endpoint := fmt.Sprintf("assignments/%s", url.PathEscape(assignmentID))
	if err := c.do(ctx, "updateAssignment", http.MethodPut, endpoint, update, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health checks that the service is reachable
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, "health", http.MethodGet, "health", nil, nil)
}

// do sends one request. Every failure is returned as a *model.ServiceError
// carrying the service's own message where there is one.
func (c *Client) do(ctx context.Context, op, method, endpoint string, body any, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return &model.ServiceError{Op: op, Message: fmt.Sprintf("failed to encode request: %v", err), Err: err}
		}
	}

	target := c.baseURL + "/v1/" + strings.TrimLeft(endpoint, "/")
	req, err := http.NewRequestWithContext(ctx, method, target, &buf)
	if err != nil {
		return &model.ServiceError{Op: op, Message: err.Error(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("Calling schedule service", zap.String("op", op), zap.String("method", method), zap.String("url", target))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		message := err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			message = "schedule service timed out"
		}
		return &model.ServiceError{Op: op, Message: message, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(op, resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &model.ServiceError{
				Op:         op,
				StatusCode: resp.StatusCode,
				Message:    fmt.Sprintf("failed to decode response: %v", err),
				Err:        err,
			}
		}
	}
	return nil
}

func decodeError(op string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	svcErr := &model.ServiceError{Op: op, StatusCode: resp.StatusCode}

	var envelope errorEnvelope
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Message != "" {
		svcErr.Message = envelope.Error.Message
		return svcErr
	}

	if text := strings.TrimSpace(string(raw)); text != "" {
		svcErr.Message = text
	} else {
		svcErr.Message = http.StatusText(resp.StatusCode)
	}
	return svcErr
}

func withQuery(endpoint string, query url.Values) string {
	if len(query) == 0 {
		return endpoint
	}
	return endpoint + "?" + query.Encode()
}
