package scheduleclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/residency-scheduler/pkg/core/conflicts"
	"github.com/jakechorley/residency-scheduler/pkg/core/model"
	"github.com/jakechorley/residency-scheduler/pkg/core/swaps"
)

var (
	_ swaps.SwapService          = (*Client)(nil)
	_ conflicts.ViolationService = (*Client)(nil)
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(context.Background(), server.URL, "test-token", zap.NewNop())
}

func TestExecuteSwap_SendsProposalWithBearerToken(t *testing.T) {
	var received model.SwapProposal
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/swaps/execute", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		_ = json.NewEncoder(w).Encode(model.ExecuteSwapResult{Success: true, SwapID: "swap-9", Message: "done"})
	})

	proposal := model.SwapProposal{
		SourceFacultyID: "fac-1",
		SourceWeek:      "2025-03-10",
		TargetFacultyID: "fac-2",
		SwapType:        model.SwapAbsorb,
	}
	result, err := client.ExecuteSwap(context.Background(), proposal)
	require.NoError(t, err)

	assert.Equal(t, proposal, received)
	assert.True(t, result.Success)
	assert.Equal(t, "swap-9", result.SwapID)
}

func TestRollbackSwap_EscapesID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/swaps/swap%2F1/rollback", r.URL.EscapedPath())

		var body model.RollbackSwapRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "entered in error", body.Reason)

		_ = json.NewEncoder(w).Encode(model.RollbackSwapResult{Success: true})
	})

	result, err := client.RollbackSwap(context.Background(), "swap/1", model.RollbackSwapRequest{Reason: "entered in error"})
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestListViolations_EncodesFilter(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "critical", r.URL.Query().Get("severity"))
		assert.Equal(t, "hours", r.URL.Query().Get("type"))
		assert.Equal(t, "false", r.URL.Query().Get("resolved"))

		_ = json.NewEncoder(w).Encode(violationList{Items: []model.ViolationRecord{{ID: "v1", Type: model.WarningHours, Severity: model.SeverityCritical}}})
	})

	resolved := false
	records, err := client.ListViolations(context.Background(), model.ViolationFilter{
		Severity: model.SeverityCritical,
		Type:     model.WarningHours,
		Resolved: &resolved,
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "v1", records[0].ID)
}

func TestListSwaps_NoFilterHasNoQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		_ = json.NewEncoder(w).Encode(swapList{Items: []model.SwapRequest{{ID: "s1", Status: model.SwapExecuted}}})
	})

	swapsList, err := client.ListSwaps(context.Background(), model.SwapFilter{})
	require.NoError(t, err)
	require.Len(t, swapsList, 1)
	assert.Equal(t, model.SwapExecuted, swapsList[0].Status)
}

func TestErrorEnvelopeBecomesServiceError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":{"code":"conflict","message":"target is already assigned that week"}}`))
	})

	_, err := client.ExecuteSwap(context.Background(), model.SwapProposal{})

	var svcErr *model.ServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, "executeSwap", svcErr.Op)
	assert.Equal(t, http.StatusConflict, svcErr.StatusCode)
	assert.Equal(t, "target is already assigned that week", model.UserMessage(err))
}

func TestPlainErrorBodyIsUsedAsMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})

	err := client.Health(context.Background())

	var svcErr *model.ServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, "bad gateway", svcErr.Message)
}

func TestTransportFailureIsServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()
	client := New(context.Background(), server.URL, "token", zap.NewNop())

	_, err := client.ValidateSwap(context.Background(), model.SwapProposal{})

	var svcErr *model.ServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, "validateSwap", svcErr.Op)
	assert.NotNil(t, svcErr.Err)
}

func TestTimeoutMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := client.BatchIgnoreViolations(ctx, model.BatchIgnoreRequest{ConflictIDs: []string{"v1"}, Reason: "r"})

	var svcErr *model.ServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, "schedule service timed out", svcErr.Message)
}
