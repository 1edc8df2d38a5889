package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/city-issue-service/internal/domain"
)

// DepartmentRepository reads department reference data.
type DepartmentRepository interface {
	GetByID(ctx context.Context, id int) (*domain.Department, error)
	GetByName(ctx context.Context, name string) (*domain.Department, error)
	List(ctx context.Context) ([]domain.Department, error)
}

type departmentRepository struct {
	pool *pgxpool.Pool
}

// NewDepartmentRepository builds the repository.
func NewDepartmentRepository(pool *pgxpool.Pool) DepartmentRepository {
	return &departmentRepository{pool: pool}
}

func (r *departmentRepository) GetByID(ctx context.Context, id int) (*domain.Department, error) {
	const query = `
        SELECT id, name, emoji, avg_resolution_hours
        FROM departments WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

// GetByName matches department names case-insensitively.
func (r *departmentRepository) GetByName(ctx context.Context, name string) (*domain.Department, error) {
	const query = `
        SELECT id, name, emoji, avg_resolution_hours
        FROM departments WHERE LOWER(name)=LOWER($1)`
	return r.fetchSingle(ctx, query, name)
}

func (r *departmentRepository) List(ctx context.Context) ([]domain.Department, error) {
	const query = `
        SELECT id, name, emoji, avg_resolution_hours
        FROM departments ORDER BY name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Department
	for rows.Next() {
		var dept domain.Department
		if err := rows.Scan(&dept.ID, &dept.Name, &dept.Emoji, &dept.AvgResolutionHours); err != nil {
			return nil, err
		}
		result = append(result, dept)
	}
	return result, rows.Err()
}

func (r *departmentRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Department, error) {
	var dept domain.Department
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&dept.ID,
		&dept.Name,
		&dept.Emoji,
		&dept.AvgResolutionHours,
	); err != nil {
		return nil, err
	}
	return &dept, nil
}
