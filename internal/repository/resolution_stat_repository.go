package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/city-issue-service/internal/domain"
)

// ResolutionStatRepository reads historical resolution aggregates maintained
// by an external analytics job.
type ResolutionStatRepository interface {
	// Find returns the stat for the pair, or nil when no history exists.
	Find(ctx context.Context, departmentID int, category domain.IssueCategory) (*domain.HistoricalResolutionStat, error)
}

type resolutionStatRepository struct {
	pool *pgxpool.Pool
}

// NewResolutionStatRepository builds the repository.
func NewResolutionStatRepository(pool *pgxpool.Pool) ResolutionStatRepository {
	return &resolutionStatRepository{pool: pool}
}

func (r *resolutionStatRepository) Find(ctx context.Context, departmentID int, category domain.IssueCategory) (*domain.HistoricalResolutionStat, error) {
	const query = `
        SELECT department_id, category, avg_hours, median_hours, sample_count
        FROM historical_resolution_times
        WHERE department_id=$1 AND category=$2`
	var stat domain.HistoricalResolutionStat
	err := r.pool.QueryRow(ctx, query, departmentID, category).Scan(
		&stat.DepartmentID,
		&stat.Category,
		&stat.AvgHours,
		&stat.MedianHours,
		&stat.SampleCount,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &stat, nil
}
