package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrilink/agrilink/internal/apperr"
	"github.com/agrilink/agrilink/internal/models"
	"github.com/agrilink/agrilink/pkg/qb"
)

// CategoryRepo persists marketplace categories.
type CategoryRepo struct {
	pool *pgxpool.Pool
	db   *qb.DB
}

// List returns every category, alphabetically.
func (r *CategoryRepo) List(ctx context.Context) ([]models.Category, error) {
	cats, err := qb.Select[models.Category](r.db).OrderByAsc("name").All(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list categories")
	}
	return cats, nil
}

// Get fetches one category.
func (r *CategoryRepo) Get(ctx context.Context, id int64) (*models.Category, error) {
	c, err := qb.Select[models.Category](r.db).Where(qb.Eq("id", id)).First(ctx)
	if err != nil {
		if errors.Is(err, qb.ErrNotFound) {
			return nil, apperr.NotFound("category not found")
		}
		return nil, apperr.Internal(err, "failed to load category")
	}
	return c, nil
}

// Create inserts a category. Duplicate name maps to a conflict error.
func (r *CategoryRepo) Create(ctx context.Context, c models.Category) (*models.Category, error) {
	created, err := qb.Insert[models.Category](r.db).Values(c).One(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Conflict("category name already exists")
		}
		return nil, apperr.Internal(err, "failed to create category")
	}
	return created, nil
}

// Update applies the given column values to one category.
func (r *CategoryRepo) Update(ctx context.Context, id int64, fields map[string]any) (*models.Category, error) {
	q := qb.Update[models.Category](r.db)
	for col, val := range fields {
		q.Set(col, val)
	}
	q.SetRaw("updated_at", "NOW()")

	c, err := q.Where(qb.Eq("id", id)).One(ctx)
	if err != nil {
		if errors.Is(err, qb.ErrNotFound) {
			return nil, apperr.NotFound("category not found")
		}
		if isUniqueViolation(err) {
			return nil, apperr.Conflict("category name already exists")
		}
		return nil, apperr.Internal(err, "failed to update category")
	}
	return c, nil
}

// Delete removes a category. Categories still referenced by products refuse
// to go.
func (r *CategoryRepo) Delete(ctx context.Context, id int64) error {
	affected, err := qb.Delete[models.Category](r.db).Where(qb.Eq("id", id)).Exec(ctx)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperr.Conflict("category still has products")
		}
		return apperr.Internal(err, "failed to delete category")
	}
	if affected == 0 {
		return apperr.NotFound("category not found")
	}
	return nil
}
