package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/city-issue-service/internal/domain"
	"github.com/spec-kit/city-issue-service/internal/geocode"
	"github.com/spec-kit/city-issue-service/internal/messaging"
	"github.com/spec-kit/city-issue-service/internal/persistence"
	"github.com/spec-kit/city-issue-service/internal/repository"
	apperrors "github.com/spec-kit/city-issue-service/pkg/util/errorutil"
)

// Geocoder is the address-resolution port the intake path depends on.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (*geocode.Result, error)
}

// IntakeService composes issue creation: persist, detect duplicates, and
// queue the reported notification behind the transaction commit.
type IntakeService struct {
	issues     repository.IssueRepository
	tx         persistence.TxStarter
	duplicates *DuplicateDetector
	geocoder   Geocoder
	publisher  messaging.Publisher
	routing    *RoutingService
	logger     *zap.Logger
}

// IntakeDependencies bundles collaborators for the intake service.
type IntakeDependencies struct {
	IssueRepo  repository.IssueRepository
	Tx         persistence.TxStarter
	Duplicates *DuplicateDetector
	Geocoder   Geocoder
	Publisher  messaging.Publisher
	Routing    *RoutingService
	Logger     *zap.Logger
}

// IntakeInput describes an issue creation payload.
type IntakeInput struct {
	Title         string
	Description   string
	Category      domain.IssueCategory
	Latitude      float64
	Longitude     float64
	Address       string
	ReportedBy    string
	ReporterEmail string
}

// IntakeResult carries the created issue and the advisory duplicate list.
type IntakeResult struct {
	Issue        *domain.Issue
	DuplicateIDs []string
}

// NewIntakeService constructs the service.
func NewIntakeService(deps IntakeDependencies) *IntakeService {
	return &IntakeService{
		issues:     deps.IssueRepo,
		tx:         deps.Tx,
		duplicates: deps.Duplicates,
		geocoder:   deps.Geocoder,
		publisher:  deps.Publisher,
		routing:    deps.Routing,
		logger:     deps.Logger,
	}
}

// CreateIssue persists a new issue and returns it together with any
// near-duplicate candidates. The issue.reported notification goes out only
// after the transaction commits; routing runs in the background afterwards.
func (s *IntakeService) CreateIssue(ctx context.Context, input IntakeInput) (*IntakeResult, error) {
	if err := domain.ValidateCoordinates(input.Latitude, input.Longitude); err != nil {
		return nil, apperrors.NewInvalidCoordinate(err)
	}
	if !input.Category.Valid() {
		return nil, apperrors.NewValidationError("unknown category", map[string]any{"category": input.Category})
	}

	issue := &domain.Issue{
		ID:            uuid.NewString(),
		Title:         strings.TrimSpace(input.Title),
		Description:   strings.TrimSpace(input.Description),
		Category:      input.Category,
		Status:        domain.IssueStatusReported,
		Priority:      domain.DefaultPriority,
		Latitude:      input.Latitude,
		Longitude:     input.Longitude,
		Address:       strings.TrimSpace(input.Address),
		ReportedBy:    strings.TrimSpace(input.ReportedBy),
		ReporterEmail: strings.TrimSpace(input.ReporterEmail),
	}

	if issue.Address == "" {
		issue.Address = s.resolveAddress(ctx, input.Latitude, input.Longitude)
	}

	uow, err := s.tx.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = uow.Rollback(ctx) }()

	if err := s.issues.Create(ctx, uow.DB(), issue); err != nil {
		return nil, err
	}

	// Advisory only: runs before the response goes back but never vetoes
	// creation.
	duplicateIDs := s.duplicates.FindDuplicates(ctx, issue.Latitude, issue.Longitude, issue.Category, issue.ID)

	uow.OnCommit(func(ctx context.Context) {
		if err := s.publisher.PublishReported(ctx, issue.ID); err != nil {
			// Post-commit loss is accepted here; a durable outbox would
			// be the next step if stronger guarantees are needed.
			s.logger.Error("failed to publish issue.reported",
				zap.String("issue_id", issue.ID),
				zap.Error(err))
		}
	})

	if err := uow.Commit(ctx); err != nil {
		return nil, err
	}

	if s.routing != nil {
		go s.routing.ValidateIssue(context.WithoutCancel(ctx), issue.ID, len(duplicateIDs) > 0)
	}

	return &IntakeResult{Issue: issue, DuplicateIDs: duplicateIDs}, nil
}

// UpdateStatus moves an issue forward through its lifecycle. Regressions are
// rejected.
func (s *IntakeService) UpdateStatus(ctx context.Context, issueID string, next domain.IssueStatus) (*domain.Issue, error) {
	if !next.Valid() {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": next})
	}

	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if !issue.Status.CanTransitionTo(next) {
		return nil, apperrors.NewConflict("illegal status transition", map[string]any{
			"from": issue.Status,
			"to":   next,
		})
	}

	if err := s.issues.UpdateStatus(ctx, issueID, next); err != nil {
		return nil, err
	}
	return s.issues.GetByID(ctx, issueID)
}

// GetIssue fetches a single issue.
func (s *IntakeService) GetIssue(ctx context.Context, issueID string) (*domain.Issue, error) {
	return s.issues.GetByID(ctx, issueID)
}

// ListIssues returns a filtered page of issues, newest first.
func (s *IntakeService) ListIssues(ctx context.Context, filter repository.IssueFilter) ([]domain.Issue, error) {
	return s.issues.List(ctx, filter)
}

// resolveAddress degrades to the unknown-location sentinel whenever the
// geocoding gateway fails; address resolution never blocks intake.
func (s *IntakeService) resolveAddress(ctx context.Context, lat, lon float64) string {
	result, err := s.geocoder.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		s.logger.Warn("reverse geocoding failed during intake",
			zap.Float64("lat", lat),
			zap.Float64("lon", lon),
			zap.Error(err))
		return geocode.UnknownLocation
	}
	return result.DisplayName
}
