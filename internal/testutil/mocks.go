package testutil

import (
	"context"
	"time"

	"github.com/hostdeck/hostdeck/internal/domain/demoserver"
	"github.com/hostdeck/hostdeck/internal/domain/ledger"
	"github.com/hostdeck/hostdeck/internal/domain/notification"
	"github.com/hostdeck/hostdeck/internal/domain/plan"
	"github.com/hostdeck/hostdeck/internal/panel"
	"github.com/hostdeck/hostdeck/internal/pkg/errors"
)

// MockLedgerRepository is a mock implementation of ledger.Repository. It
// enforces the same version guard as the real repository, so services built
// on optimistic concurrency can be tested against injected races.
type MockLedgerRepository struct {
	Users      map[int64]*ledger.User
	EmailIndex map[string]int64
	NextID     int64

	// UsageWrites counts UpdateUsage calls.
	UsageWrites int

	// PreCommit runs at the start of every UpdateLedger. Tests use it to
	// mutate the stored user and force a version conflict.
	PreCommit func(m *MockLedgerRepository)

	CreateError error
	GetError    error
	UpdateError error
	UsageError  error
}

func NewMockLedgerRepository() *MockLedgerRepository {
	return &MockLedgerRepository{
		Users:      make(map[int64]*ledger.User),
		EmailIndex: make(map[string]int64),
		NextID:     1,
	}
}

// Seed stores a user directly, assigning an ID if it has none.
func (m *MockLedgerRepository) Seed(u *ledger.User) *ledger.User {
	if u.ID == 0 {
		u.ID = m.NextID
		m.NextID++
	}
	if u.OwnedPlans == nil {
		u.OwnedPlans = make(map[int64]ledger.PlanGrant)
	}
	m.Users[u.ID] = copyUser(u)
	m.EmailIndex[u.Email] = u.ID
	return u
}

func (m *MockLedgerRepository) Create(ctx context.Context, u *ledger.User) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	u.ID = m.NextID
	m.NextID++
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	if u.OwnedPlans == nil {
		u.OwnedPlans = make(map[int64]ledger.PlanGrant)
	}
	m.Users[u.ID] = copyUser(u)
	m.EmailIndex[u.Email] = u.ID
	return nil
}

func (m *MockLedgerRepository) GetByID(ctx context.Context, id int64) (*ledger.User, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	u, ok := m.Users[id]
	if !ok {
		return nil, errors.NotFound("User")
	}
	return copyUser(u), nil
}

func (m *MockLedgerRepository) GetByEmail(ctx context.Context, email string) (*ledger.User, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	id, ok := m.EmailIndex[email]
	if !ok {
		return nil, errors.NotFound("User")
	}
	return copyUser(m.Users[id]), nil
}

func (m *MockLedgerRepository) List(ctx context.Context, limit, offset int) ([]*ledger.User, int64, error) {
	var result []*ledger.User
	for _, u := range m.Users {
		result = append(result, copyUser(u))
	}
	return result, int64(len(m.Users)), nil
}

func (m *MockLedgerRepository) ListProvisioned(ctx context.Context) ([]*ledger.User, error) {
	var result []*ledger.User
	for _, u := range m.Users {
		if u.PanelUserID != nil {
			result = append(result, copyUser(u))
		}
	}
	return result, nil
}

func (m *MockLedgerRepository) Update(ctx context.Context, u *ledger.User) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	stored, ok := m.Users[u.ID]
	if !ok {
		return errors.NotFound("User")
	}
	stored.Email = u.Email
	stored.Username = u.Username
	stored.PasswordHash = u.PasswordHash
	stored.PanelUserID = u.PanelUserID
	m.EmailIndex[u.Email] = u.ID
	return nil
}

func (m *MockLedgerRepository) UpdateLedger(ctx context.Context, u *ledger.User, expectedVersion int64) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	if m.PreCommit != nil {
		m.PreCommit(m)
	}
	stored, ok := m.Users[u.ID]
	if !ok {
		return errors.NotFound("User")
	}
	if stored.Version != expectedVersion {
		return ledger.ErrVersionConflict
	}
	stored.Coins = u.Coins
	stored.Limits = u.Limits
	stored.OwnedPlans = copyPlans(u.OwnedPlans)
	stored.Rank = u.Rank
	stored.Version = expectedVersion + 1
	u.Version = stored.Version
	return nil
}

func (m *MockLedgerRepository) UpdateUsage(ctx context.Context, userID int64, usage ledger.Resources) error {
	if m.UsageError != nil {
		return m.UsageError
	}
	stored, ok := m.Users[userID]
	if !ok {
		return errors.NotFound("User")
	}
	stored.Usage = usage
	m.UsageWrites++
	return nil
}

func (m *MockLedgerRepository) Delete(ctx context.Context, id int64) error {
	if u, ok := m.Users[id]; ok {
		delete(m.EmailIndex, u.Email)
		delete(m.Users, id)
		return nil
	}
	return errors.NotFound("User")
}

func copyUser(u *ledger.User) *ledger.User {
	c := *u
	c.OwnedPlans = copyPlans(u.OwnedPlans)
	return &c
}

func copyPlans(plans map[int64]ledger.PlanGrant) map[int64]ledger.PlanGrant {
	out := make(map[int64]ledger.PlanGrant, len(plans))
	for id, g := range plans {
		out[id] = g
	}
	return out
}

// MockPlanRepository is a mock implementation of plan.Repository
type MockPlanRepository struct {
	Plans       map[int64]*plan.Plan
	NextID      int64
	CreateError error
	GetError    error
}

func NewMockPlanRepository() *MockPlanRepository {
	return &MockPlanRepository{
		Plans:  make(map[int64]*plan.Plan),
		NextID: 1,
	}
}

func (m *MockPlanRepository) Create(ctx context.Context, p *plan.Plan) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	p.ID = m.NextID
	m.NextID++
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	stored := *p
	m.Plans[p.ID] = &stored
	return nil
}

func (m *MockPlanRepository) GetByID(ctx context.Context, id int64) (*plan.Plan, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	p, ok := m.Plans[id]
	if !ok {
		return nil, errors.NotFound("Plan")
	}
	c := *p
	return &c, nil
}

func (m *MockPlanRepository) List(ctx context.Context, visibleOnly bool) ([]*plan.Plan, error) {
	var result []*plan.Plan
	for _, p := range m.Plans {
		if visibleOnly && !p.Visible {
			continue
		}
		c := *p
		result = append(result, &c)
	}
	return result, nil
}

func (m *MockPlanRepository) Update(ctx context.Context, p *plan.Plan) error {
	if _, ok := m.Plans[p.ID]; !ok {
		return errors.NotFound("Plan")
	}
	stored := *p
	m.Plans[p.ID] = &stored
	return nil
}

func (m *MockPlanRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.Plans[id]; !ok {
		return errors.NotFound("Plan")
	}
	delete(m.Plans, id)
	return nil
}

// MockOutboxRepository is a mock implementation of notification.Repository
type MockOutboxRepository struct {
	Events       []*notification.Event
	SentIDs      []string
	RetriedIDs   []string
	FailedIDs    []string
	EnqueueError error
	ListError    error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

func (m *MockOutboxRepository) Enqueue(ctx context.Context, e *notification.Event) error {
	if m.EnqueueError != nil {
		return m.EnqueueError
	}
	e.Status = notification.DeliveryStatusPending
	m.Events = append(m.Events, e)
	return nil
}

func (m *MockOutboxRepository) ListPending(ctx context.Context, now time.Time, limit int) ([]*notification.Event, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	var due []*notification.Event
	for _, e := range m.Events {
		if e.Status == notification.DeliveryStatusPending && !e.NextAttemptAt.After(now) {
			due = append(due, e)
			if len(due) == limit {
				break
			}
		}
	}
	return due, nil
}

func (m *MockOutboxRepository) MarkSent(ctx context.Context, id string, at time.Time) error {
	for _, e := range m.Events {
		if e.ID == id {
			e.Status = notification.DeliveryStatusSent
			e.SentAt = &at
		}
	}
	m.SentIDs = append(m.SentIDs, id)
	return nil
}

func (m *MockOutboxRepository) MarkRetry(ctx context.Context, id string, attempts int, next time.Time) error {
	for _, e := range m.Events {
		if e.ID == id {
			e.Attempts = attempts
			e.NextAttemptAt = next
		}
	}
	m.RetriedIDs = append(m.RetriedIDs, id)
	return nil
}

func (m *MockOutboxRepository) MarkFailed(ctx context.Context, id string) error {
	for _, e := range m.Events {
		if e.ID == id {
			e.Status = notification.DeliveryStatusFailed
		}
	}
	m.FailedIDs = append(m.FailedIDs, id)
	return nil
}

// MockPanelAPI is a mock implementation of the panel client surface
type MockPanelAPI struct {
	Servers      []panel.Server
	ListError    error
	SuspendedIDs []int64
	SuspendError error
	ListCalls    int
}

func NewMockPanelAPI() *MockPanelAPI {
	return &MockPanelAPI{}
}

func (m *MockPanelAPI) ListServers(ctx context.Context, panelUserID int64) ([]panel.Server, error) {
	m.ListCalls++
	if m.ListError != nil {
		return nil, m.ListError
	}
	return m.Servers, nil
}

func (m *MockPanelAPI) SuspendServer(ctx context.Context, serverID int64) error {
	if m.SuspendError != nil {
		return m.SuspendError
	}
	m.SuspendedIDs = append(m.SuspendedIDs, serverID)
	return nil
}

// MockDemoServerRepository is a mock implementation of demoserver.Repository
type MockDemoServerRepository struct {
	Servers []*demoserver.DemoServer
	NextID  int64

	ListError error
	MarkError error
}

func NewMockDemoServerRepository() *MockDemoServerRepository {
	return &MockDemoServerRepository{NextID: 1}
}

func (m *MockDemoServerRepository) Create(ctx context.Context, d *demoserver.DemoServer) error {
	d.ID = m.NextID
	m.NextID++
	m.Servers = append(m.Servers, d)
	return nil
}

func (m *MockDemoServerRepository) ListExpired(ctx context.Context, now time.Time) ([]*demoserver.DemoServer, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	var expired []*demoserver.DemoServer
	for _, d := range m.Servers {
		if !d.Suspended && !d.ExpiresAt.After(now) {
			expired = append(expired, d)
		}
	}
	return expired, nil
}

func (m *MockDemoServerRepository) MarkSuspended(ctx context.Context, id int64) error {
	if m.MarkError != nil {
		return m.MarkError
	}
	for _, d := range m.Servers {
		if d.ID == id {
			d.Suspended = true
			return nil
		}
	}
	return errors.NotFound("Demo server")
}

// MockSink is a mock implementation of notification.Sink
type MockSink struct {
	Sent      []*notification.Event
	SendError error
}

func NewMockSink() *MockSink {
	return &MockSink{}
}

func (m *MockSink) Send(ctx context.Context, e *notification.Event) error {
	if m.SendError != nil {
		return m.SendError
	}
	m.Sent = append(m.Sent, e)
	return nil
}
