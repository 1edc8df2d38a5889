package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/city-issue-service/internal/config"
	"github.com/spec-kit/city-issue-service/internal/domain"
	apperrors "github.com/spec-kit/city-issue-service/pkg/util/errorutil"
)

func cityDepartments() []domain.Department {
	return []domain.Department{
		{ID: 1, Name: "Sanitation", Emoji: "🗑️", AvgResolutionHours: 24},
		{ID: 2, Name: "Public Works", Emoji: "🚧", AvgResolutionHours: 72},
		{ID: 3, Name: "Transportation", Emoji: "🚦", AvgResolutionHours: 48},
	}
}

func newRoutingService(depts *fakeDeptRepo, issues *fakeIssueRepo, adv *fakeAdvisor, pub *fakePublisher, timeout time.Duration) *RoutingService {
	return NewRoutingService(RoutingDependencies{
		DepartmentRepo: depts,
		IssueRepo:      issues,
		Advisor:        adv,
		Publisher:      pub,
		Config:         config.RoutingConfig{DefaultDepartment: "Sanitation"},
		CallTimeout:    timeout,
		Logger:         zap.NewNop(),
	})
}

func TestRouteIssueUsesAdvisoryProposal(t *testing.T) {
	depts := &fakeDeptRepo{departments: cityDepartments()}
	adv := &fakeAdvisor{response: "Public Works"}
	svc := newRoutingService(depts, newFakeIssueRepo(), adv, &fakePublisher{}, 0)

	dept, err := svc.RouteIssue(context.Background(), "Broken curb", "curb crumbling", domain.CategorySidewalkDamage)

	require.NoError(t, err)
	assert.Equal(t, 2, dept.ID)
}

func TestRouteIssueMatchesCaseInsensitivelyAndStripsQuotes(t *testing.T) {
	depts := &fakeDeptRepo{departments: cityDepartments()}
	adv := &fakeAdvisor{response: "  \"transportation\" \n"}
	svc := newRoutingService(depts, newFakeIssueRepo(), adv, &fakePublisher{}, 0)

	dept, err := svc.RouteIssue(context.Background(), "Dead signal", "", domain.CategoryStreetlight)

	require.NoError(t, err)
	assert.Equal(t, "Transportation", dept.Name)
}

func TestRouteIssueFallsBackOnUnknownProposal(t *testing.T) {
	depts := &fakeDeptRepo{departments: cityDepartments()}
	adv := &fakeAdvisor{response: "Department of Magic"}
	svc := newRoutingService(depts, newFakeIssueRepo(), adv, &fakePublisher{}, 0)

	dept, err := svc.RouteIssue(context.Background(), "Weird smell", "", domain.CategoryOther)

	require.NoError(t, err)
	assert.Equal(t, "Sanitation", dept.Name)
}

func TestRouteIssueFallsBackOnAdvisoryFailure(t *testing.T) {
	depts := &fakeDeptRepo{departments: cityDepartments()}
	adv := &fakeAdvisor{err: errors.New("model overloaded")}
	svc := newRoutingService(depts, newFakeIssueRepo(), adv, &fakePublisher{}, 0)

	dept, err := svc.RouteIssue(context.Background(), "Pothole on 5th", "", domain.CategoryPothole)

	require.NoError(t, err)
	assert.Equal(t, "Sanitation", dept.Name)
}

func TestRouteIssueFallsBackWhenAdvisoryTimesOut(t *testing.T) {
	depts := &fakeDeptRepo{departments: cityDepartments()}
	adv := &fakeAdvisor{block: true}
	svc := newRoutingService(depts, newFakeIssueRepo(), adv, &fakePublisher{}, 20*time.Millisecond)

	start := time.Now()
	dept, err := svc.RouteIssue(context.Background(), "Pothole on 5th", "", domain.CategoryPothole)

	require.NoError(t, err)
	assert.Equal(t, "Sanitation", dept.Name)
	assert.Less(t, time.Since(start), 5*time.Second, "a hung advisory call must not stall routing")
}

func TestRouteIssueErrorsWhenDefaultDepartmentMissing(t *testing.T) {
	depts := &fakeDeptRepo{departments: []domain.Department{
		{ID: 2, Name: "Public Works"},
	}}
	adv := &fakeAdvisor{err: errors.New("model overloaded")}
	svc := newRoutingService(depts, newFakeIssueRepo(), adv, &fakePublisher{}, 0)

	_, err := svc.RouteIssue(context.Background(), "Pothole on 5th", "", domain.CategoryPothole)

	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeReferenceDataMissing))
}

func TestValidateDefaultDepartment(t *testing.T) {
	adv := &fakeAdvisor{}

	ok := newRoutingService(&fakeDeptRepo{departments: cityDepartments()}, newFakeIssueRepo(), adv, &fakePublisher{}, 0)
	require.NoError(t, ok.ValidateDefaultDepartment(context.Background()))

	missing := newRoutingService(&fakeDeptRepo{}, newFakeIssueRepo(), adv, &fakePublisher{}, 0)
	err := missing.ValidateDefaultDepartment(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeReferenceDataMissing))
}

func TestValidateIssueAssignsAdvancesAndPublishes(t *testing.T) {
	issues := newFakeIssueRepo()
	issues.issues["issue-1"] = &domain.Issue{
		ID:       "issue-1",
		Title:    "Overflowing bin",
		Category: domain.CategoryTrash,
		Status:   domain.IssueStatusReported,
		Priority: 3,
	}
	depts := &fakeDeptRepo{departments: cityDepartments()}
	pub := &fakePublisher{}
	svc := newRoutingService(depts, issues, &fakeAdvisor{response: "Sanitation"}, pub, 0)

	svc.ValidateIssue(context.Background(), "issue-1", true)

	assert.Equal(t, 1, issues.assignedDepts["issue-1"])
	assert.Equal(t, domain.IssueStatusValidated, issues.statusUpdates["issue-1"])
	require.Len(t, pub.validated, 1)
	assert.Equal(t, validatedEvent{issueID: "issue-1", priority: 3, duplicate: true}, pub.validated[0])
}

func TestValidateIssueDoesNotRegressAdvancedStatus(t *testing.T) {
	issues := newFakeIssueRepo()
	issues.issues["issue-2"] = &domain.Issue{
		ID:       "issue-2",
		Title:    "Leak",
		Category: domain.CategoryWaterLeak,
		Status:   domain.IssueStatusInProgress,
		Priority: 3,
	}
	pub := &fakePublisher{}
	svc := newRoutingService(&fakeDeptRepo{departments: cityDepartments()}, issues, &fakeAdvisor{response: "Public Works"}, pub, 0)

	svc.ValidateIssue(context.Background(), "issue-2", false)

	assert.Equal(t, 2, issues.assignedDepts["issue-2"])
	_, updated := issues.statusUpdates["issue-2"]
	assert.False(t, updated, "an issue already past REPORTED keeps its status")
	assert.Len(t, pub.validated, 1)
}

func TestValidateIssueAbsorbsLookupFailure(t *testing.T) {
	pub := &fakePublisher{}
	svc := newRoutingService(&fakeDeptRepo{departments: cityDepartments()}, newFakeIssueRepo(), &fakeAdvisor{}, pub, 0)

	svc.ValidateIssue(context.Background(), "missing", false)

	assert.Empty(t, pub.validated)
}
