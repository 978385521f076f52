package services_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quotagate/quotagate/internal/core/domain/audit"
	"github.com/quotagate/quotagate/internal/core/domain/document"
	"github.com/quotagate/quotagate/internal/core/domain/quota"
	"github.com/quotagate/quotagate/internal/core/domain/security"
	"github.com/quotagate/quotagate/internal/core/ports"
)

// bucketRepoMock serializes updates behind a single mutex, which is exactly
// the atomicity the port demands.
type bucketRepoMock struct {
	mu      sync.Mutex
	buckets map[string]quota.Bucket
}

func newBucketRepoMock() *bucketRepoMock {
	return &bucketRepoMock{buckets: make(map[string]quota.Bucket)}
}

func (m *bucketRepoMock) Update(ctx context.Context, key string, seed quota.Bucket, fn ports.BucketUpdateFn) (quota.Bucket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.buckets[key]
	if !ok {
		b = seed
	}
	fn(&b)
	m.buckets[key] = b
	return b, nil
}

func (m *bucketRepoMock) Get(ctx context.Context, key string) (*quota.Bucket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.buckets[key]; ok {
		copied := b
		return &copied, nil
	}
	return nil, nil
}

func (m *bucketRepoMock) PurgeExpired(ctx context.Context, staleAfter time.Duration) (int, error) {
	return 0, nil
}

// docStoreMock is a function-field mock over an in-memory document map.
type docStoreMock struct {
	mu      sync.Mutex
	docs    map[uuid.UUID]*document.Document
	inserts int
	patches int
	deletes int

	getFn    func(ctx context.Context, kind string, id uuid.UUID) (*document.Document, error)
	insertFn func(ctx context.Context, doc *document.Document) error
}

func newDocStoreMock() *docStoreMock {
	return &docStoreMock{docs: make(map[uuid.UUID]*document.Document)}
}

func (m *docStoreMock) seed(doc *document.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.ID] = doc
}

func (m *docStoreMock) Get(ctx context.Context, kind string, id uuid.UUID) (*document.Document, error) {
	if m.getFn != nil {
		return m.getFn(ctx, kind, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok || doc.Kind != kind {
		return nil, nil
	}
	copied := *doc
	return &copied, nil
}

func (m *docStoreMock) SelectByTenant(ctx context.Context, kind string, tenantID uuid.UUID) ([]*document.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*document.Document
	for _, doc := range m.docs {
		if doc.Kind == kind && doc.TenantID == tenantID {
			copied := *doc
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *docStoreMock) Insert(ctx context.Context, doc *document.Document) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, doc)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserts++
	copied := *doc
	m.docs[doc.ID] = &copied
	return nil
}

func (m *docStoreMock) Patch(ctx context.Context, kind string, id uuid.UUID, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patches++
	if doc, ok := m.docs[id]; ok {
		for k, v := range fields {
			doc.Data[k] = v
		}
	}
	return nil
}

func (m *docStoreMock) Delete(ctx context.Context, kind string, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	delete(m.docs, id)
	return nil
}

func (m *docStoreMock) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inserts + m.patches + m.deletes
}

// auditSinkMock captures records in memory.
type auditSinkMock struct {
	mu      sync.Mutex
	records []*audit.Record
}

func (m *auditSinkMock) Record(ctx context.Context, rec *audit.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
}

func (m *auditSinkMock) GetRecords(ctx context.Context, filter *audit.Filter) ([]*audit.Record, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records, len(m.records), nil
}

func (m *auditSinkMock) last() *audit.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.records) == 0 {
		return nil
	}
	return m.records[len(m.records)-1]
}

// resolverMock returns a fixed context or error.
type resolverMock struct {
	ctx *security.Context
	err error
}

func (m *resolverMock) Resolve(ctx context.Context, raw ports.RawIdentity) (*security.Context, error) {
	return m.ctx, m.err
}

// limiterMock lets guard tests script decisions and observe calls.
type limiterMock struct {
	mu       sync.Mutex
	calls    []quota.Identity
	decision quota.Decision
	err      error
}

func (m *limiterMock) Check(ctx context.Context, id quota.Identity, operation string, costOverride int) (quota.Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, id)
	return m.decision, m.err
}

func (m *limiterMock) Inspect(ctx context.Context, id quota.Identity, operation string) (quota.Bucket, quota.OperationConfig, error) {
	return quota.Bucket{}, quota.OperationConfig{}, nil
}

// providerMock and accountRepoMock back the resolver tests.
type providerMock struct {
	resolveFn func(ctx context.Context, credential string) (*ports.Subject, error)
}

func (m *providerMock) Resolve(ctx context.Context, credential string) (*ports.Subject, error) {
	if m.resolveFn != nil {
		return m.resolveFn(ctx, credential)
	}
	return nil, nil
}

type accountRepoMock struct {
	getFn func(ctx context.Context, subject string) (*security.Account, error)
}

func (m *accountRepoMock) GetBySubject(ctx context.Context, subject string) (*security.Account, error) {
	if m.getFn != nil {
		return m.getFn(ctx, subject)
	}
	return nil, nil
}

func mustID(s string) uuid.UUID {
	return uuid.MustParse(s)
}

// memberContext builds a resolved context for tests.
func memberContext(role security.Role) *security.Context {
	return &security.Context{
		UserID:      uuid.New(),
		TenantID:    uuid.New(),
		Role:        role,
		Permissions: security.RoleCapabilities(role),
	}
}
