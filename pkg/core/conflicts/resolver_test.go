package conflicts

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/jakechorley/residency-scheduler/pkg/core/access"
	"github.com/jakechorley/residency-scheduler/pkg/core/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// mockViolationService resolves ids unless told otherwise
type mockViolationService struct {
	mu sync.Mutex

	rejectIDs map[string]bool // reported with success=false
	dropIDs   map[string]bool // omitted from the response
	errorIDs  map[string]bool // fail the whole chunk containing them

	ignoreSuccess int // overrides the success count for ignore chunks when >= 0
	ignoreFailed  int

	delay    func(chunk []string) time.Duration
	onCall   func()
	records  []model.ViolationRecord
	listErr  error
	received [][]string
}

func newMockService() *mockViolationService {
	return &mockViolationService{
		rejectIDs:     map[string]bool{},
		dropIDs:       map[string]bool{},
		errorIDs:      map[string]bool{},
		ignoreSuccess: -1,
	}
}

func (m *mockViolationService) record(ids []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.received = append(m.received, append([]string(nil), ids...))
}

func (m *mockViolationService) before(ids []string) error {
	m.record(ids)
	if m.onCall != nil {
		m.onCall()
	}
	if m.delay != nil {
		time.Sleep(m.delay(ids))
	}
	for _, id := range ids {
		if m.errorIDs[id] {
			return &model.ServiceError{Op: "batchResolveViolations", StatusCode: 502, Message: "upstream unavailable"}
		}
	}
	return nil
}

func (m *mockViolationService) BatchResolveViolations(ctx context.Context, req model.BatchResolveRequest) (*model.BatchResolutionResult, error) {
	if err := m.before(req.ConflictIDs); err != nil {
		return nil, err
	}

	result := &model.BatchResolutionResult{}
	// Respond in reverse order to show the resolver reorders by submission
	for i := len(req.ConflictIDs) - 1; i >= 0; i-- {
		id := req.ConflictIDs[i]
		if m.dropIDs[id] {
			continue
		}
		if m.rejectIDs[id] {
			result.Results = append(result.Results, model.BatchItemResult{ConflictID: id, Message: "still conflicting"})
			continue
		}
		result.Results = append(result.Results, model.BatchItemResult{ConflictID: id, Success: true, Message: "resolved"})
	}
	return result, nil
}

func (m *mockViolationService) BatchIgnoreViolations(ctx context.Context, req model.BatchIgnoreRequest) (*model.BatchIgnoreResult, error) {
	if err := m.before(req.ConflictIDs); err != nil {
		return nil, err
	}
	if m.ignoreSuccess >= 0 {
		return &model.BatchIgnoreResult{Success: m.ignoreSuccess, Failed: m.ignoreFailed}, nil
	}
	return &model.BatchIgnoreResult{Success: len(req.ConflictIDs)}, nil
}

func (m *mockViolationService) ListViolations(ctx context.Context, filter model.ViolationFilter) ([]model.ViolationRecord, error) {
	return m.records, m.listErr
}

func (m *mockViolationService) submittedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for _, chunk := range m.received {
		ids = append(ids, chunk...)
	}
	sort.Strings(ids)
	return ids
}

var (
	coordinator = access.Identity{UserID: "coord-1", Tier: access.TierCoordinator}
	admin       = access.Identity{UserID: "admin-1", Tier: access.TierAdmin}
)

func ids(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("v%03d", i)
	}
	return out
}

func assertCountsConsistent(t *testing.T, submitted int, result *model.BatchResolutionResult) {
	t.Helper()
	assert.Equal(t, submitted, result.Total)
	assert.Equal(t, result.Total, result.Successful+result.Failed)
}

func TestResolve_AllSucceed(t *testing.T) {
	service := newMockService()
	resolver := NewResolver(service, coordinator, zap.NewNop(), Options{})

	result, err := resolver.Resolve(context.Background(), []string{"c1", "c2", "c3"}, model.ResolutionAutoResolved, "")
	require.NoError(t, err)

	expected := []model.BatchItemResult{
		{ConflictID: "c1", Success: true, Message: "resolved"},
		{ConflictID: "c2", Success: true, Message: "resolved"},
		{ConflictID: "c3", Success: true, Message: "resolved"},
	}
	if diff := cmp.Diff(expected, result.Results); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s", diff)
	}
	assertCountsConsistent(t, 3, result)
	assert.Empty(t, result.RetryableIDs)
	assert.Equal(t, model.ResolutionAutoResolved, result.Method)
}

func TestResolve_PartialFailure(t *testing.T) {
	service := newMockService()
	service.rejectIDs["c2"] = true
	service.dropIDs["c4"] = true
	resolver := NewResolver(service, coordinator, zap.NewNop(), Options{})

	result, err := resolver.Resolve(context.Background(), []string{"c1", "c2", "c3", "c4"}, model.ResolutionAutoResolved, "")
	require.NoError(t, err)

	assertCountsConsistent(t, 4, result)
	require.Len(t, result.Results, 4)
	assert.Equal(t, 2, result.Successful)
	assert.Equal(t, 2, result.Failed)
	assert.Equal(t, "still conflicting", result.Results[1].Message)
	assert.Equal(t, "no result returned", result.Results[3].Message)
	assert.Equal(t, []string{"c2", "c4"}, result.RetryableIDs)
	assert.True(t, IsPartial(result))
}

func TestResolve_PreservesInputOrderAcrossChunks(t *testing.T) {
	service := newMockService()
	// Later chunks finish first
	service.delay = func(chunk []string) time.Duration {
		if chunk[0] == "v007" {
			return 20 * time.Millisecond
		}
		return 0
	}
	resolver := NewResolver(service, coordinator, zap.NewNop(), Options{ChunkSize: 2, MaxConcurrency: 4})

	input := []string{"v007", "v001", "v005", "v000", "v006", "v002", "v004", "v003"}
	result, err := resolver.Resolve(context.Background(), input, model.ResolutionAutoResolved, "")
	require.NoError(t, err)

	got := make([]string, len(result.Results))
	for i, item := range result.Results {
		got[i] = item.ConflictID
	}
	if diff := cmp.Diff(input, got); diff != "" {
		t.Errorf("result order mismatch (-want +got):\n%s", diff)
	}
	assertCountsConsistent(t, len(input), result)
	assert.Len(t, service.received, 4)
}

func TestResolve_ChunkErrorFailsOnlyThatChunk(t *testing.T) {
	service := newMockService()
	service.errorIDs["v003"] = true
	resolver := NewResolver(service, coordinator, zap.NewNop(), Options{ChunkSize: 2, MaxConcurrency: 1})

	result, err := resolver.Resolve(context.Background(), ids(6), model.ResolutionAutoResolved, "")
	require.NoError(t, err)

	assertCountsConsistent(t, 6, result)
	assert.Equal(t, 4, result.Successful)
	assert.Equal(t, []string{"v002", "v003"}, result.RetryableIDs)
	assert.Equal(t, "upstream unavailable", result.Results[2].Message)
	assert.Equal(t, "upstream unavailable", result.Results[3].Message)
}

func TestResolve_CancellationLeavesRemainderUnattempted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	service := newMockService()
	service.onCall = cancel
	resolver := NewResolver(service, coordinator, zap.NewNop(), Options{ChunkSize: 1, MaxConcurrency: 1})

	result, err := resolver.Resolve(ctx, []string{"c1", "c2", "c3"}, model.ResolutionAutoResolved, "")
	require.NoError(t, err)

	assertCountsConsistent(t, 3, result)
	assert.True(t, result.Results[0].Success)
	assert.Equal(t, "not attempted", result.Results[1].Message)
	assert.Equal(t, "not attempted", result.Results[2].Message)
	assert.Equal(t, []string{"c2", "c3"}, result.RetryableIDs)
	assert.Len(t, service.received, 1)
}

func TestRetry_OnlyResubmitsFailures(t *testing.T) {
	service := newMockService()
	service.rejectIDs["v001"] = true
	service.errorIDs["v004"] = true
	resolver := NewResolver(service, coordinator, zap.NewNop(), Options{ChunkSize: 2})

	first, err := resolver.Resolve(context.Background(), ids(6), model.ResolutionAutoResolved, "")
	require.NoError(t, err)
	require.Equal(t, []string{"v001", "v004", "v005"}, first.RetryableIDs)

	// The service recovers
	retryService := newMockService()
	resolver = NewResolver(retryService, coordinator, zap.NewNop(), Options{ChunkSize: 2})

	second, err := resolver.Retry(context.Background(), first)
	require.NoError(t, err)

	assert.Equal(t, []string{"v001", "v004", "v005"}, retryService.submittedIDs())
	assertCountsConsistent(t, 3, second)
	assert.Equal(t, 3, second.Successful)
	assert.Empty(t, second.RetryableIDs)
}

func TestRetry_NothingToRetry(t *testing.T) {
	resolver := NewResolver(newMockService(), coordinator, zap.NewNop(), Options{})

	_, err := resolver.Retry(context.Background(), &model.BatchResolutionResult{Total: 2, Successful: 2})

	var validationErr *model.ValidationError
	assert.True(t, errors.As(err, &validationErr))
}

func TestResolve_IgnoreReturnsAggregateCounts(t *testing.T) {
	service := newMockService()
	resolver := NewResolver(service, admin, zap.NewNop(), Options{ChunkSize: 2})

	result, err := resolver.Resolve(context.Background(), ids(5), model.ResolutionIgnored, "accepted by program director")
	require.NoError(t, err)

	assertCountsConsistent(t, 5, result)
	assert.Equal(t, 5, result.Successful)
	assert.Nil(t, result.Results)
	assert.Equal(t, "accepted by program director", result.Reason)
}

func TestResolve_IgnoreClampsServiceCounts(t *testing.T) {
	service := newMockService()
	service.ignoreSuccess = 7
	resolver := NewResolver(service, admin, zap.NewNop(), Options{})

	result, err := resolver.Resolve(context.Background(), ids(3), model.ResolutionIgnored, "known exception")
	require.NoError(t, err)

	assertCountsConsistent(t, 3, result)
	assert.Equal(t, 3, result.Successful)

	service.ignoreSuccess = 1
	service.ignoreFailed = 0
	result, err = resolver.Resolve(context.Background(), ids(3), model.ResolutionIgnored, "known exception")
	require.NoError(t, err)

	assertCountsConsistent(t, 3, result)
	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, 2, result.Failed)
	// Failures inside a delivered chunk cannot be attributed to ids
	assert.Empty(t, result.RetryableIDs)
}

func TestRetry_IgnoreFailuresWithoutIDsExplainWhy(t *testing.T) {
	service := newMockService()
	service.ignoreSuccess = 1
	resolver := NewResolver(service, admin, zap.NewNop(), Options{})

	first, err := resolver.Resolve(context.Background(), ids(3), model.ResolutionIgnored, "known exception")
	require.NoError(t, err)
	require.Equal(t, 2, first.Failed)
	require.Empty(t, first.RetryableIDs)

	_, err = resolver.Retry(context.Background(), first)

	var validationErr *model.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Contains(t, err.Error(), "2 violations failed to be ignored")
	assert.Contains(t, err.Error(), "cannot be retried by id")
	assert.NotContains(t, err.Error(), "nothing to retry")
}

func TestResolve_IgnoreChunkErrorIsRetryable(t *testing.T) {
	service := newMockService()
	service.errorIDs["v002"] = true
	resolver := NewResolver(service, admin, zap.NewNop(), Options{ChunkSize: 2})

	result, err := resolver.Resolve(context.Background(), ids(4), model.ResolutionIgnored, "known exception")
	require.NoError(t, err)

	assertCountsConsistent(t, 4, result)
	assert.Equal(t, []string{"v002", "v003"}, result.RetryableIDs)
}

func TestResolve_ValidationNeverReachesService(t *testing.T) {
	tests := []struct {
		name   string
		ids    []string
		method model.ResolutionMethod
		reason string
		field  string
	}{
		{"no ids", nil, model.ResolutionAutoResolved, "", "conflictIds"},
		{"duplicate ids", []string{"c1", "c1"}, model.ResolutionAutoResolved, "", "conflictIds"},
		{"empty id", []string{"c1", ""}, model.ResolutionAutoResolved, "", "conflictIds"},
		{"unknown method", []string{"c1"}, model.ResolutionMethod("deleted"), "", "resolutionMethod"},
		{"ignore without reason", []string{"c1"}, model.ResolutionIgnored, "", "reason"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newMockService()
			resolver := NewResolver(service, admin, zap.NewNop(), Options{})

			_, err := resolver.Resolve(context.Background(), tt.ids, tt.method, tt.reason)

			var validationErr *model.ValidationError
			require.True(t, errors.As(err, &validationErr))
			assert.Equal(t, []string{tt.field}, validationErr.Fields)
			assert.Empty(t, service.received)
		})
	}
}

func TestResolve_Permissions(t *testing.T) {
	service := newMockService()

	resident := access.Identity{UserID: "res-1", Tier: access.TierSelfService}
	_, err := NewResolver(service, resident, zap.NewNop(), Options{}).
		Resolve(context.Background(), []string{"c1"}, model.ResolutionAutoResolved, "")
	var permErr *model.PermissionError
	require.True(t, errors.As(err, &permErr))

	_, err = NewResolver(service, coordinator, zap.NewNop(), Options{}).
		Resolve(context.Background(), []string{"c1"}, model.ResolutionIgnored, "reason")
	require.True(t, errors.As(err, &permErr))
	assert.Equal(t, int(access.TierAdmin), permErr.Required)

	assert.Empty(t, service.received)
}

func TestFilterViolations(t *testing.T) {
	records := []model.ViolationRecord{
		{ID: "a", Type: model.WarningHours, Severity: model.SeverityCritical},
		{ID: "b", Type: model.WarningCapacity, Severity: model.SeverityWarning},
		{ID: "c", Type: model.WarningHours, Severity: model.SeverityWarning, Resolved: true},
		{ID: "d", Type: model.WarningHours, Severity: model.SeverityWarning},
	}

	got := FilterViolations(records, model.ViolationFilter{Type: model.WarningHours, Severity: model.SeverityWarning})

	expected := []model.ViolationRecord{records[2], records[3]}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("filter mismatch (-want +got):\n%s", diff)
	}
}

func TestSelectIDs_SkipsResolvedByDefault(t *testing.T) {
	service := newMockService()
	service.records = []model.ViolationRecord{
		{ID: "a", Severity: model.SeverityCritical},
		{ID: "b", Severity: model.SeverityCritical, Resolved: true},
		{ID: "c", Severity: model.SeverityInfo},
	}
	resolver := NewResolver(service, coordinator, zap.NewNop(), Options{})

	selected, err := resolver.SelectIDs(context.Background(), model.ViolationFilter{Severity: model.SeverityCritical})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, selected)

	_, err = resolver.SelectIDs(context.Background(), model.ViolationFilter{Severity: model.SeverityWarning})
	assert.ErrorIs(t, err, ErrNoViolations)
}

func TestSplitChunks(t *testing.T) {
	chunks := splitChunks(ids(5), 2)

	require.Len(t, chunks, 3)
	assert.Equal(t, []string{"v004"}, chunks[2])
}
