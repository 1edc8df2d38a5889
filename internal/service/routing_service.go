package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/city-issue-service/internal/advisor"
	"github.com/spec-kit/city-issue-service/internal/config"
	"github.com/spec-kit/city-issue-service/internal/domain"
	"github.com/spec-kit/city-issue-service/internal/messaging"
	"github.com/spec-kit/city-issue-service/internal/repository"
	apperrors "github.com/spec-kit/city-issue-service/pkg/util/errorutil"
)

// RoutingService picks a department for an issue via the advisory model, with
// a deterministic fallback to the configured default department.
type RoutingService struct {
	departments repository.DepartmentRepository
	issues      repository.IssueRepository
	advisor     advisor.Client
	publisher   messaging.Publisher
	cfg         config.RoutingConfig
	timeout     time.Duration
	logger      *zap.Logger
}

// RoutingDependencies bundles collaborators for the routing service.
type RoutingDependencies struct {
	DepartmentRepo repository.DepartmentRepository
	IssueRepo      repository.IssueRepository
	Advisor        advisor.Client
	Publisher      messaging.Publisher
	Config         config.RoutingConfig
	CallTimeout    time.Duration
	Logger         *zap.Logger
}

// NewRoutingService constructs the service.
func NewRoutingService(deps RoutingDependencies) *RoutingService {
	return &RoutingService{
		departments: deps.DepartmentRepo,
		issues:      deps.IssueRepo,
		advisor:     deps.Advisor,
		publisher:   deps.Publisher,
		cfg:         deps.Config,
		timeout:     deps.CallTimeout,
		logger:      deps.Logger,
	}
}

// ValidateDefaultDepartment confirms the fallback department exists. Called
// at startup; a missing default is a fatal configuration error.
func (s *RoutingService) ValidateDefaultDepartment(ctx context.Context) error {
	if _, err := s.departments.GetByName(ctx, s.cfg.DefaultDepartment); err != nil {
		return apperrors.NewReferenceDataMissing(
			fmt.Sprintf("default department %q not found", s.cfg.DefaultDepartment))
	}
	return nil
}

// RouteIssue asks the advisory model for the best department. Any failure of
// the advisory call, or an unrecognized answer, falls back to the default
// department.
func (s *RoutingService) RouteIssue(ctx context.Context, title, description string, category domain.IssueCategory) (*domain.Department, error) {
	departments, err := s.departments.List(ctx)
	if err != nil {
		return nil, err
	}

	name, err := s.proposeDepartment(ctx, departments, title, description, category)
	if err == nil {
		for i := range departments {
			if strings.EqualFold(departments[i].Name, name) {
				return &departments[i], nil
			}
		}
		s.logger.Warn("advisory model proposed unknown department, using default",
			zap.String("proposed", name),
			zap.String("default", s.cfg.DefaultDepartment))
	} else {
		s.logger.Warn("advisory routing call failed, using default department",
			zap.String("default", s.cfg.DefaultDepartment),
			zap.Error(err))
	}

	fallback, err := s.departments.GetByName(ctx, s.cfg.DefaultDepartment)
	if err != nil {
		return nil, apperrors.NewReferenceDataMissing(
			fmt.Sprintf("default department %q not found", s.cfg.DefaultDepartment))
	}
	return fallback, nil
}

// ValidateIssue runs the background validation step: route, assign the
// department, advance the status and emit issue.validated. Errors are logged
// and absorbed; validation can be retried by operational tooling.
func (s *RoutingService) ValidateIssue(ctx context.Context, issueID string, duplicate bool) {
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		s.logger.Error("validation: issue lookup failed", zap.String("issue_id", issueID), zap.Error(err))
		return
	}

	dept, err := s.RouteIssue(ctx, issue.Title, issue.Description, issue.Category)
	if err != nil {
		s.logger.Error("validation: routing failed", zap.String("issue_id", issueID), zap.Error(err))
		return
	}

	if err := s.issues.AssignDepartment(ctx, issueID, dept.ID); err != nil {
		s.logger.Error("validation: department assignment failed",
			zap.String("issue_id", issueID),
			zap.Int("department_id", dept.ID),
			zap.Error(err))
		return
	}
	if issue.Status == domain.IssueStatusReported {
		if err := s.issues.UpdateStatus(ctx, issueID, domain.IssueStatusValidated); err != nil {
			s.logger.Error("validation: status update failed", zap.String("issue_id", issueID), zap.Error(err))
			return
		}
	}

	if err := s.publisher.PublishValidated(ctx, issueID, issue.Priority, duplicate); err != nil {
		s.logger.Error("failed to publish issue.validated", zap.String("issue_id", issueID), zap.Error(err))
	}
}

func (s *RoutingService) proposeDepartment(ctx context.Context, departments []domain.Department, title, description string, category domain.IssueCategory) (string, error) {
	if description == "" {
		description = "No description provided"
	}

	var names []string
	for _, dept := range departments {
		names = append(names, fmt.Sprintf("%s: %s", dept.Name, dept.Emoji))
	}

	prompt := fmt.Sprintf(`You are a city 311 system router. Given an issue, select the BEST department.

Departments available: %s

Issue: %s
Description: %s
Category: %s

Respond ONLY with the exact department name. If uncertain, respond %q.`,
		strings.Join(names, ", "), title, description, category, s.cfg.DefaultDepartment)

	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	raw, err := s.advisor.Propose(callCtx, prompt)
	if err != nil {
		return "", apperrors.NewAdvisoryCallFailed(err)
	}

	name := strings.TrimSpace(raw)
	name = strings.Trim(name, `"`)
	return name, nil
}
