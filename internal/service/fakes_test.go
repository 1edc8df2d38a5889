package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/city-issue-service/internal/domain"
	"github.com/spec-kit/city-issue-service/internal/geocode"
	"github.com/spec-kit/city-issue-service/internal/persistence"
	"github.com/spec-kit/city-issue-service/internal/repository"
)

type fakeIssueRepo struct {
	mu sync.Mutex

	createErr error
	created   []*domain.Issue

	issues map[string]*domain.Issue

	dupCandidates []domain.Issue
	dupErr        error
	dupCalls      int

	statusUpdates map[string]domain.IssueStatus
	assignedDepts map[string]int
	pending       []domain.Issue
	pendingErr    error
}

var _ repository.IssueRepository = (*fakeIssueRepo)(nil)

func newFakeIssueRepo() *fakeIssueRepo {
	return &fakeIssueRepo{
		issues:        make(map[string]*domain.Issue),
		statusUpdates: make(map[string]domain.IssueStatus),
		assignedDepts: make(map[string]int),
	}
}

func (r *fakeIssueRepo) Create(_ context.Context, _ persistence.DBTX, issue *domain.Issue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	issue.CreatedAt = time.Now()
	issue.UpdatedAt = issue.CreatedAt
	copied := *issue
	r.created = append(r.created, &copied)
	r.issues[issue.ID] = &copied
	return nil
}

func (r *fakeIssueRepo) GetByID(_ context.Context, id string) (*domain.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	issue, ok := r.issues[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *issue
	return &copied, nil
}

func (r *fakeIssueRepo) List(_ context.Context, _ repository.IssueFilter) ([]domain.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Issue
	for _, issue := range r.issues {
		result = append(result, *issue)
	}
	return result, nil
}

func (r *fakeIssueRepo) UpdateStatus(_ context.Context, id string, status domain.IssueStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	issue, ok := r.issues[id]
	if !ok {
		return pgx.ErrNoRows
	}
	issue.Status = status
	r.statusUpdates[id] = status
	return nil
}

func (r *fakeIssueRepo) AssignDepartment(_ context.Context, id string, departmentID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	issue, ok := r.issues[id]
	if !ok {
		return pgx.ErrNoRows
	}
	issue.DepartmentID = &departmentID
	r.assignedDepts[id] = departmentID
	return nil
}

func (r *fakeIssueRepo) FindDuplicateCandidates(_ context.Context, _, _ float64, _ domain.IssueCategory, _ time.Time, _ string, _ float64) ([]domain.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dupCalls++
	if r.dupErr != nil {
		return nil, r.dupErr
	}
	return r.dupCandidates, nil
}

func (r *fakeIssueRepo) FindByStatusIn(_ context.Context, _ []domain.IssueStatus) ([]domain.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pendingErr != nil {
		return nil, r.pendingErr
	}
	return r.pending, nil
}

type fakeDeptRepo struct {
	departments []domain.Department
	listErr     error
}

var _ repository.DepartmentRepository = (*fakeDeptRepo)(nil)

func (r *fakeDeptRepo) GetByID(_ context.Context, id int) (*domain.Department, error) {
	for i := range r.departments {
		if r.departments[i].ID == id {
			return &r.departments[i], nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeDeptRepo) GetByName(_ context.Context, name string) (*domain.Department, error) {
	for i := range r.departments {
		if strings.EqualFold(r.departments[i].Name, name) {
			return &r.departments[i], nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeDeptRepo) List(_ context.Context) ([]domain.Department, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.departments, nil
}

type fakeStatRepo struct {
	stats      map[string]*domain.HistoricalResolutionStat
	err        error
	errForDept map[int]error
}

var _ repository.ResolutionStatRepository = (*fakeStatRepo)(nil)

func statKey(departmentID int, category domain.IssueCategory) string {
	return fmt.Sprintf("%d:%s", departmentID, category)
}

func (r *fakeStatRepo) Find(_ context.Context, departmentID int, category domain.IssueCategory) (*domain.HistoricalResolutionStat, error) {
	if r.err != nil {
		return nil, r.err
	}
	if err, ok := r.errForDept[departmentID]; ok {
		return nil, err
	}
	return r.stats[statKey(departmentID, category)], nil
}

type fakeAdvisor struct {
	mu       sync.Mutex
	response string
	err      error
	block    bool
	prompts  []string
}

func (a *fakeAdvisor) Propose(ctx context.Context, prompt string) (string, error) {
	a.mu.Lock()
	a.prompts = append(a.prompts, prompt)
	block, response, err := a.block, a.response, a.err
	a.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if err != nil {
		return "", err
	}
	return response, nil
}

type fakePublisher struct {
	mu        sync.Mutex
	reported  []string
	validated []validatedEvent
	err       error
}

type validatedEvent struct {
	issueID   string
	priority  int
	duplicate bool
}

func (p *fakePublisher) PublishReported(_ context.Context, issueID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.reported = append(p.reported, issueID)
	return nil
}

func (p *fakePublisher) PublishValidated(_ context.Context, issueID string, priority int, duplicate bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.validated = append(p.validated, validatedEvent{issueID: issueID, priority: priority, duplicate: duplicate})
	return nil
}

func (p *fakePublisher) reportedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.reported)
}

type fakeGeocoder struct {
	result *geocode.Result
	err    error
	calls  int
}

func (g *fakeGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (*geocode.Result, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.result, nil
}

type fakeCommitTx struct {
	commitErr  error
	committed  bool
	rolledBack bool
}

func (t *fakeCommitTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (t *fakeCommitTx) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, nil
}

func (t *fakeCommitTx) QueryRow(context.Context, string, ...any) pgx.Row {
	return nil
}

func (t *fakeCommitTx) Commit(context.Context) error {
	if t.commitErr != nil {
		return t.commitErr
	}
	t.committed = true
	return nil
}

func (t *fakeCommitTx) Rollback(context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type fakeTxStarter struct {
	tx       *fakeCommitTx
	beginErr error
}

var _ persistence.TxStarter = (*fakeTxStarter)(nil)

func (s *fakeTxStarter) Begin(context.Context) (*persistence.UnitOfWork, error) {
	if s.beginErr != nil {
		return nil, s.beginErr
	}
	return persistence.NewUnitOfWork(s.tx), nil
}

type fakePredictionCache struct {
	mu      sync.Mutex
	entries map[string]float64
	ttls    map[string]time.Duration
}

func newFakePredictionCache() *fakePredictionCache {
	return &fakePredictionCache{
		entries: make(map[string]float64),
		ttls:    make(map[string]time.Duration),
	}
}

func (c *fakePredictionCache) Get(_ context.Context, issueID string) (float64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	hours, ok := c.entries[issueID]
	return hours, ok, nil
}

func (c *fakePredictionCache) Set(_ context.Context, issueID string, hours float64, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[issueID] = hours
	c.ttls[issueID] = ttl
	return nil
}
