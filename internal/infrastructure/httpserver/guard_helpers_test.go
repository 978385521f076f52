package httpserver_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/quotagate/quotagate/internal/core/domain/audit"
	"github.com/quotagate/quotagate/internal/core/domain/quota"
	"github.com/quotagate/quotagate/internal/core/domain/security"
	"github.com/quotagate/quotagate/internal/core/ports"
	"github.com/quotagate/quotagate/internal/infrastructure/httpserver"
)

type resolverStub struct {
	sec *security.Context
	err error
}

func (s *resolverStub) Resolve(ctx context.Context, raw ports.RawIdentity) (*security.Context, error) {
	return s.sec, s.err
}

type limiterStub struct {
	mu       sync.Mutex
	calls    []string
	decision quota.Decision
}

func (s *limiterStub) Check(ctx context.Context, id quota.Identity, operation string, costOverride int) (quota.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, id.String()+"|"+operation)
	return s.decision, nil
}

func (s *limiterStub) Inspect(ctx context.Context, id quota.Identity, operation string) (quota.Bucket, quota.OperationConfig, error) {
	return quota.Bucket{Key: id.BucketKey(operation), Tokens: 42},
		quota.OperationConfig{MaxTokens: 60, RefillRate: 60, CostPerRequest: 1}, nil
}

type auditStub struct {
	mu      sync.Mutex
	records []*audit.Record
}

func (s *auditStub) Record(ctx context.Context, rec *audit.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
}

func (s *auditStub) GetRecords(ctx context.Context, filter *audit.Filter) ([]*audit.Record, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records, len(s.records), nil
}

func adminContext() *security.Context {
	return &security.Context{
		UserID:      uuid.New(),
		TenantID:    uuid.New(),
		Role:        security.RoleAdmin,
		Permissions: security.RoleCapabilities(security.RoleAdmin),
	}
}

func newTestServer(resolver *resolverStub, limiter *limiterStub, sink *auditStub) *httpserver.Server {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return httpserver.NewServer(&httpserver.ServerConfig{Host: "127.0.0.1", Port: "0"}, logger, httpserver.ServerDeps{
		RateLimiter:  limiter,
		Resolver:     resolver,
		AuditService: sink,
	})
}

func do(server *httpserver.Server, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	req.RemoteAddr = "203.0.113.7:51234"
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	server.Echo().ServeHTTP(rec, req)
	return rec
}

func TestQuotaStatus_RateLimitedBeforeInspection(t *testing.T) {
	resolver := &resolverStub{sec: adminContext()}
	limiter := &limiterStub{decision: quota.Decision{Allowed: false, Reason: quota.DenyInsufficientTokens, ResetInSeconds: 15}}
	sink := &auditStub{}
	server := newTestServer(resolver, limiter, sink)

	rec := do(server, http.MethodGet, "/api/v1/quota/action.export")

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "15", rec.Header().Get("Retry-After"))

	require.Len(t, limiter.calls, 1)
	require.Contains(t, limiter.calls[0], "|query.quota.status")

	require.Len(t, sink.records, 1)
	require.Equal(t, "query.quota.status", sink.records[0].Operation)
	require.Equal(t, audit.ReasonRateLimited, sink.records[0].Reason)
}

func TestQuotaStatus_AllowedReportsBucket(t *testing.T) {
	resolver := &resolverStub{sec: adminContext()}
	limiter := &limiterStub{decision: quota.Decision{Allowed: true, TokensRemaining: 59}}
	server := newTestServer(resolver, limiter, &auditStub{})

	rec := do(server, http.MethodGet, "/api/v1/quota/action.export")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"tokens":42`)
}

func TestListAudit_UnresolvedCallerThrottledByOrigin(t *testing.T) {
	// A denied unauthenticated caller gets the rate limit answer, keyed on
	// its network origin; the credential failure stays hidden behind the 429.
	resolver := &resolverStub{err: ports.NewGuardError(ports.CodeUnauthenticated, "no identity supplied")}
	limiter := &limiterStub{decision: quota.Decision{Allowed: false, Reason: quota.DenyBlocked, ResetInSeconds: 300}}
	sink := &auditStub{}
	server := newTestServer(resolver, limiter, sink)

	rec := do(server, http.MethodGet, "/api/v1/audit")

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Len(t, limiter.calls, 1)
	require.Contains(t, limiter.calls[0], "origin:203.0.113.7|query.list.audit")

	require.Len(t, sink.records, 1)
	require.Equal(t, audit.ReasonBlocked, sink.records[0].Reason)
	require.Nil(t, sink.records[0].TenantID)
}

func TestListAudit_PermissionCheckedAfterThrottle(t *testing.T) {
	viewer := adminContext()
	viewer.Role = security.RoleViewer
	viewer.Permissions = security.RoleCapabilities(security.RoleViewer)

	resolver := &resolverStub{sec: viewer}
	limiter := &limiterStub{decision: quota.Decision{Allowed: true, TokensRemaining: 10}}
	server := newTestServer(resolver, limiter, &auditStub{})

	rec := do(server, http.MethodGet, "/api/v1/audit")

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Len(t, limiter.calls, 1, "the rate limit check runs before the permission check")
}

func TestListAudit_AdminGetsTenantRecords(t *testing.T) {
	resolver := &resolverStub{sec: adminContext()}
	limiter := &limiterStub{decision: quota.Decision{Allowed: true, TokensRemaining: 10}}
	server := newTestServer(resolver, limiter, &auditStub{})

	rec := do(server, http.MethodGet, "/api/v1/audit")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"total":0`)
}
