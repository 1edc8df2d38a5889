package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/city-issue-service/internal/advisor"
	"github.com/spec-kit/city-issue-service/internal/config"
	"github.com/spec-kit/city-issue-service/internal/domain"
	"github.com/spec-kit/city-issue-service/internal/repository"
	apperrors "github.com/spec-kit/city-issue-service/pkg/util/errorutil"
)

// PredictionCache stores predicted hours per issue with a TTL.
type PredictionCache interface {
	Get(ctx context.Context, issueID string) (float64, bool, error)
	Set(ctx context.Context, issueID string, hours float64, ttl time.Duration) error
}

var nonNumeric = regexp.MustCompile(`[^0-9.-]`)

// PredictionService estimates hours-to-resolution for pending issues from
// historical aggregates plus an advisory model call. Every failure path falls
// back to the historical average; one issue's failure never aborts the batch.
type PredictionService struct {
	issues      repository.IssueRepository
	departments repository.DepartmentRepository
	stats       repository.ResolutionStatRepository
	advisor     advisor.Client
	cache       PredictionCache
	cfg         config.PredictorConfig
	timeout     time.Duration
	logger      *zap.Logger
}

// PredictionDependencies bundles collaborators for the prediction service.
type PredictionDependencies struct {
	IssueRepo      repository.IssueRepository
	DepartmentRepo repository.DepartmentRepository
	StatRepo       repository.ResolutionStatRepository
	Advisor        advisor.Client
	Cache          PredictionCache
	Config         config.PredictorConfig
	CallTimeout    time.Duration
	Logger         *zap.Logger
}

// NewPredictionService constructs the service.
func NewPredictionService(deps PredictionDependencies) *PredictionService {
	return &PredictionService{
		issues:      deps.IssueRepo,
		departments: deps.DepartmentRepo,
		stats:       deps.StatRepo,
		advisor:     deps.Advisor,
		cache:       deps.Cache,
		cfg:         deps.Config,
		timeout:     deps.CallTimeout,
		logger:      deps.Logger,
	}
}

// PredictPending refreshes predictions for all issues still awaiting
// assignment.
func (s *PredictionService) PredictPending(ctx context.Context) {
	pending, err := s.issues.FindByStatusIn(ctx, []domain.IssueStatus{
		domain.IssueStatusReported,
		domain.IssueStatusValidated,
	})
	if err != nil {
		s.logger.Error("prediction pass: listing pending issues failed", zap.Error(err))
		return
	}

	s.logger.Info("predicting resolution times", zap.Int("pending", len(pending)))

	for i := range pending {
		if ctx.Err() != nil {
			return
		}
		if err := s.predictForIssue(ctx, &pending[i]); err != nil {
			s.logger.Error("prediction failed for issue",
				zap.String("issue_id", pending[i].ID),
				zap.Error(err))
		}
	}
}

// Prediction returns the cached estimate for an issue, if any.
func (s *PredictionService) Prediction(ctx context.Context, issueID string) (float64, bool, error) {
	return s.cache.Get(ctx, issueID)
}

func (s *PredictionService) predictForIssue(ctx context.Context, issue *domain.Issue) error {
	avgHours, medianHours, err := s.historicalHours(ctx, issue)
	if err != nil {
		return err
	}

	predicted, err := s.proposeHours(ctx, issue, avgHours, medianHours)
	if err != nil {
		s.logger.Warn("advisory prediction failed, caching historical average",
			zap.String("issue_id", issue.ID),
			zap.Error(err))
		predicted = avgHours
	}

	return s.cache.Set(ctx, issue.ID, predicted, s.cfg.CacheTTL)
}

// historicalHours resolves the baseline: (department, category) aggregate,
// then the department's configured default, then the global default.
func (s *PredictionService) historicalHours(ctx context.Context, issue *domain.Issue) (avg, median float64, err error) {
	var stat *domain.HistoricalResolutionStat
	if issue.DepartmentID != nil {
		stat, err = s.stats.Find(ctx, *issue.DepartmentID, issue.Category)
		if err != nil {
			return 0, 0, err
		}
	}

	if stat != nil {
		return stat.AvgHours, stat.MedianHours, nil
	}

	avg = s.cfg.DefaultAvgHours
	if issue.DepartmentID != nil {
		if dept, err := s.departments.GetByID(ctx, *issue.DepartmentID); err == nil && dept.AvgResolutionHours > 0 {
			avg = float64(dept.AvgResolutionHours)
		}
	}
	return avg, avg, nil
}

func (s *PredictionService) proposeHours(ctx context.Context, issue *domain.Issue, avgHours, medianHours float64) (float64, error) {
	prompt := fmt.Sprintf(`Predict resolution time in hours for this issue.

Historical data for this dept/category:
- Average: %.2f hours
- Median: %.2f hours

Current issue: %s
Priority: %d/5

Consider: higher priority = faster, simple issues = faster.
Respond with just a number (hours).`, avgHours, medianHours, issue.Title, issue.Priority)

	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	raw, err := s.advisor.Propose(callCtx, prompt)
	if err != nil {
		return 0, apperrors.NewAdvisoryCallFailed(err)
	}

	cleaned := nonNumeric.ReplaceAllString(raw, "")
	hours, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, apperrors.NewAdvisoryCallFailed(fmt.Errorf("unparseable prediction %q: %w", raw, err))
	}

	// Implausible values are replaced by the historical average rather than
	// rejected outright.
	if hours < 0 || hours > s.cfg.MaxHours {
		s.logger.Warn("predicted hours out of range, using historical average",
			zap.String("issue_id", issue.ID),
			zap.Float64("predicted", hours),
			zap.Float64("avg", avgHours))
		return avgHours, nil
	}
	return hours, nil
}
