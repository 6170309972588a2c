package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrilink/agrilink/internal/apperr"
	"github.com/agrilink/agrilink/internal/models"
	"github.com/agrilink/agrilink/pkg/qb"
)

// ProductFilter narrows product listings.
type ProductFilter struct {
	CategoryID *int64
	FarmerID   *int64
	Query      string
	Available  *bool
	Limit      int
	Offset     int
}

// ProductRepo persists marketplace listings.
type ProductRepo struct {
	pool *pgxpool.Pool
	db   *qb.DB
}

// List returns products matching the filter, newest first.
func (r *ProductRepo) List(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	q := qb.Select[models.Product](r.db)
	if f.CategoryID != nil {
		q.Where(qb.Eq("category_id", *f.CategoryID))
	}
	if f.FarmerID != nil {
		q.Where(qb.Eq("farmer_id", *f.FarmerID))
	}
	if f.Query != "" {
		q.Where(qb.ILike("name", "%"+f.Query+"%"))
	}
	if f.Available != nil {
		q.Where(qb.Eq("is_available", *f.Available))
	}
	if f.Limit > 0 {
		q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q.Offset(f.Offset)
	}

	products, err := q.OrderByDesc("created_at").All(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list products")
	}
	return products, nil
}

// Get fetches one product.
func (r *ProductRepo) Get(ctx context.Context, id int64) (*models.Product, error) {
	p, err := qb.Select[models.Product](r.db).Where(qb.Eq("id", id)).First(ctx)
	if err != nil {
		if errors.Is(err, qb.ErrNotFound) {
			return nil, apperr.NotFound("product not found")
		}
		return nil, apperr.Internal(err, "failed to load product")
	}
	return p, nil
}

// Create inserts a listing.
func (r *ProductRepo) Create(ctx context.Context, p models.Product) (*models.Product, error) {
	created, err := qb.Insert[models.Product](r.db).Values(p).One(ctx)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, apperr.Validation("unknown category", map[string]string{"category_id": "unknown category"})
		}
		return nil, apperr.Internal(err, "failed to create product")
	}
	return created, nil
}

// Update applies the given column values to one product.
func (r *ProductRepo) Update(ctx context.Context, id int64, fields map[string]any) (*models.Product, error) {
	q := qb.Update[models.Product](r.db)
	for col, val := range fields {
		q.Set(col, val)
	}
	q.SetRaw("updated_at", "NOW()")

	p, err := q.Where(qb.Eq("id", id)).One(ctx)
	if err != nil {
		if errors.Is(err, qb.ErrNotFound) {
			return nil, apperr.NotFound("product not found")
		}
		if isForeignKeyViolation(err) {
			return nil, apperr.Validation("unknown category", map[string]string{"category_id": "unknown category"})
		}
		return nil, apperr.Internal(err, "failed to update product")
	}
	return p, nil
}

// Delete removes a listing. Products referenced by order history refuse to
// go; marking unavailable is the supported path there.
func (r *ProductRepo) Delete(ctx context.Context, id int64) error {
	affected, err := qb.Delete[models.Product](r.db).Where(qb.Eq("id", id)).Exec(ctx)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperr.Conflict("product appears in existing orders")
		}
		return apperr.Internal(err, "failed to delete product")
	}
	if affected == 0 {
		return apperr.NotFound("product not found")
	}
	return nil
}
