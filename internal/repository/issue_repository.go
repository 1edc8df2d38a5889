package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/city-issue-service/internal/domain"
	"github.com/spec-kit/city-issue-service/internal/persistence"
)

// IssueFilter captures listing parameters.
type IssueFilter struct {
	Status   *domain.IssueStatus
	Category *domain.IssueCategory
	Limit    int
	Offset   int
}

// IssueRepository encapsulates issue persistence over a PostGIS-backed store.
type IssueRepository interface {
	Create(ctx context.Context, db persistence.DBTX, issue *domain.Issue) error
	GetByID(ctx context.Context, id string) (*domain.Issue, error)
	List(ctx context.Context, filter IssueFilter) ([]domain.Issue, error)
	UpdateStatus(ctx context.Context, id string, status domain.IssueStatus) error
	AssignDepartment(ctx context.Context, id string, departmentID int) error
	FindDuplicateCandidates(ctx context.Context, lat, lon float64, category domain.IssueCategory, cutoff time.Time, excludeID string, radiusMeters float64) ([]domain.Issue, error)
	FindByStatusIn(ctx context.Context, statuses []domain.IssueStatus) ([]domain.Issue, error)
}

type issueRepository struct {
	pool *pgxpool.Pool
}

// NewIssueRepository instantiates the repository.
func NewIssueRepository(pool *pgxpool.Pool) IssueRepository {
	return &issueRepository{pool: pool}
}

const issueColumns = `id, title, description, category, status, priority,
               ST_Y(location::geometry), ST_X(location::geometry), address,
               reported_by, reporter_email, department_id, worker_id, created_at, updated_at`

func (r *issueRepository) Create(ctx context.Context, db persistence.DBTX, issue *domain.Issue) error {
	const query = `
        INSERT INTO issues (id, title, description, category, status, priority, location, address, reported_by, reporter_email)
        VALUES ($1,$2,$3,$4,$5,$6, ST_SetSRID(ST_MakePoint($7,$8),4326)::geography, $9,$10,$11)
        RETURNING created_at, updated_at`
	return db.QueryRow(ctx, query,
		issue.ID,
		issue.Title,
		issue.Description,
		issue.Category,
		issue.Status,
		issue.Priority,
		issue.Longitude,
		issue.Latitude,
		issue.Address,
		issue.ReportedBy,
		issue.ReporterEmail,
	).Scan(&issue.CreatedAt, &issue.UpdatedAt)
}

func (r *issueRepository) GetByID(ctx context.Context, id string) (*domain.Issue, error) {
	query := fmt.Sprintf(`SELECT %s FROM issues WHERE id=$1`, issueColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *issueRepository) List(ctx context.Context, filter IssueFilter) ([]domain.Issue, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("category=$%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM issues WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		issueColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIssues(rows)
}

func (r *issueRepository) UpdateStatus(ctx context.Context, id string, status domain.IssueStatus) error {
	const query = `UPDATE issues SET status=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *issueRepository) AssignDepartment(ctx context.Context, id string, departmentID int) error {
	const query = `UPDATE issues SET department_id=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, departmentID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// FindDuplicateCandidates runs a geodesic radius query; the geography cast
// keeps the radius in meters at any latitude. Results come back nearest
// first, ties broken by recency.
func (r *issueRepository) FindDuplicateCandidates(ctx context.Context, lat, lon float64, category domain.IssueCategory, cutoff time.Time, excludeID string, radiusMeters float64) ([]domain.Issue, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM issues
        WHERE ST_DWithin(location, ST_SetSRID(ST_MakePoint($1,$2),4326)::geography, $3)
          AND category = $4
          AND created_at >= $5
          AND id != $6
        ORDER BY ST_Distance(location, ST_SetSRID(ST_MakePoint($1,$2),4326)::geography) ASC,
                 created_at DESC`, issueColumns)

	rows, err := r.pool.Query(ctx, query, lon, lat, radiusMeters, category, cutoff, excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIssues(rows)
}

func (r *issueRepository) FindByStatusIn(ctx context.Context, statuses []domain.IssueStatus) ([]domain.Issue, error) {
	if len(statuses) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(statuses))
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = status
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf(`SELECT %s FROM issues WHERE status IN (%s) ORDER BY created_at ASC`,
		issueColumns, strings.Join(placeholders, ","))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIssues(rows)
}

func (r *issueRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Issue, error) {
	var issue domain.Issue
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&issue.ID,
		&issue.Title,
		&issue.Description,
		&issue.Category,
		&issue.Status,
		&issue.Priority,
		&issue.Latitude,
		&issue.Longitude,
		&issue.Address,
		&issue.ReportedBy,
		&issue.ReporterEmail,
		&issue.DepartmentID,
		&issue.WorkerID,
		&issue.CreatedAt,
		&issue.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &issue, nil
}

func scanIssues(rows pgx.Rows) ([]domain.Issue, error) {
	var result []domain.Issue
	for rows.Next() {
		var issue domain.Issue
		if err := rows.Scan(
			&issue.ID,
			&issue.Title,
			&issue.Description,
			&issue.Category,
			&issue.Status,
			&issue.Priority,
			&issue.Latitude,
			&issue.Longitude,
			&issue.Address,
			&issue.ReportedBy,
			&issue.ReporterEmail,
			&issue.DepartmentID,
			&issue.WorkerID,
			&issue.CreatedAt,
			&issue.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, issue)
	}
	return result, rows.Err()
}
