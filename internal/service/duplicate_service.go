package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/city-issue-service/internal/config"
	"github.com/spec-kit/city-issue-service/internal/domain"
	"github.com/spec-kit/city-issue-service/internal/repository"
)

// DuplicateDetector flags near-duplicate issues at intake time. Its result is
// advisory: an empty list means "no duplicate," and a store failure degrades
// to an empty list rather than blocking creation.
type DuplicateDetector struct {
	issues repository.IssueRepository
	cfg    config.DedupConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewDuplicateDetector constructs the detector.
func NewDuplicateDetector(issues repository.IssueRepository, cfg config.DedupConfig, logger *zap.Logger) *DuplicateDetector {
	return &DuplicateDetector{
		issues: issues,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// FindDuplicates returns candidate issue ids near the point, same category,
// within the lookback window, ordered nearest first then most recent.
func (d *DuplicateDetector) FindDuplicates(ctx context.Context, lat, lon float64, category domain.IssueCategory, excludeID string) []string {
	cutoff := d.now().Add(-d.cfg.Lookback())

	candidates, err := d.issues.FindDuplicateCandidates(ctx, lat, lon, category, cutoff, excludeID, d.cfg.RadiusMeters)
	if err != nil {
		d.logger.Warn("duplicate lookup failed, treating as no duplicates",
			zap.String("issue_id", excludeID),
			zap.Error(err))
		return nil
	}

	ids := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		ids = append(ids, candidate.ID)
	}
	return ids
}
