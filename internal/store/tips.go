package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrilink/agrilink/internal/apperr"
	"github.com/agrilink/agrilink/internal/models"
	"github.com/agrilink/agrilink/pkg/qb"
)

// TipFilter narrows tip listings.
type TipFilter struct {
	CategoryID *int64
	Query      string
	Limit      int
	Offset     int
}

// TipRepo persists farming tips, their categories, likes and bookmarks.
type TipRepo struct {
	pool *pgxpool.Pool
	db   *qb.DB
}

// List returns tips matching the filter, newest first.
func (r *TipRepo) List(ctx context.Context, f TipFilter) ([]models.Tip, error) {
	q := qb.Select[models.Tip](r.db)
	if f.CategoryID != nil {
		q.Where(qb.Eq("category_id", *f.CategoryID))
	}
	if f.Query != "" {
		q.Where(qb.ILike("title", "%"+f.Query+"%"))
	}
	if f.Limit > 0 {
		q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q.Offset(f.Offset)
	}

	tips, err := q.OrderByDesc("created_at").All(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list tips")
	}
	return tips, nil
}

// Get fetches one tip without touching counters.
func (r *TipRepo) Get(ctx context.Context, id int64) (*models.Tip, error) {
	t, err := qb.Select[models.Tip](r.db).Where(qb.Eq("id", id)).First(ctx)
	if err != nil {
		if errors.Is(err, qb.ErrNotFound) {
			return nil, apperr.NotFound("tip not found")
		}
		return nil, apperr.Internal(err, "failed to load tip")
	}
	return t, nil
}

// View fetches one tip, bumping views_count in the same statement.
func (r *TipRepo) View(ctx context.Context, id int64) (*models.Tip, error) {
	t, err := qb.Update[models.Tip](r.db).
		SetRaw("views_count", "views_count + 1").
		Where(qb.Eq("id", id)).
		One(ctx)
	if err != nil {
		if errors.Is(err, qb.ErrNotFound) {
			return nil, apperr.NotFound("tip not found")
		}
		return nil, apperr.Internal(err, "failed to load tip")
	}
	return t, nil
}

// Create inserts a tip.
func (r *TipRepo) Create(ctx context.Context, t models.Tip) (*models.Tip, error) {
	created, err := qb.Insert[models.Tip](r.db).Values(t).One(ctx)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, apperr.Validation("unknown category", map[string]string{"category_id": "unknown category"})
		}
		return nil, apperr.Internal(err, "failed to create tip")
	}
	return created, nil
}

// Update applies the given column values to one tip.
func (r *TipRepo) Update(ctx context.Context, id int64, fields map[string]any) (*models.Tip, error) {
	q := qb.Update[models.Tip](r.db)
	for col, val := range fields {
		q.Set(col, val)
	}
	q.SetRaw("updated_at", "NOW()")

	t, err := q.Where(qb.Eq("id", id)).One(ctx)
	if err != nil {
		if errors.Is(err, qb.ErrNotFound) {
			return nil, apperr.NotFound("tip not found")
		}
		if isForeignKeyViolation(err) {
			return nil, apperr.Validation("unknown category", map[string]string{"category_id": "unknown category"})
		}
		return nil, apperr.Internal(err, "failed to update tip")
	}
	return t, nil
}

// Delete removes a tip; likes and bookmarks cascade.
func (r *TipRepo) Delete(ctx context.Context, id int64) error {
	affected, err := qb.Delete[models.Tip](r.db).Where(qb.Eq("id", id)).Exec(ctx)
	if err != nil {
		return apperr.Internal(err, "failed to delete tip")
	}
	if affected == 0 {
		return apperr.NotFound("tip not found")
	}
	return nil
}

// ToggleLike flips one user's like on a tip and keeps likes_count in step,
// all in one transaction. Returns the new state and count.
func (r *TipRepo) ToggleLike(ctx context.Context, tipID, userID int64) (liked bool, likes int, err error) {
	err = qb.WithinTx(ctx, r.pool, func(db *qb.DB) error {
		removed, err := qb.Delete[models.TipLike](db).
			Where(qb.Eq("tip_id", tipID), qb.Eq("user_id", userID)).
			Exec(ctx)
		if err != nil {
			return apperr.Internal(err, "failed to toggle like")
		}

		expr := "likes_count + 1"
		if removed > 0 {
			expr = "likes_count - 1"
		} else {
			inserted, err := qb.Insert[models.TipLike](db).
				Values(models.TipLike{TipID: tipID, UserID: userID}).
				OnConflictDoNothing("tip_id", "user_id").
				Exec(ctx)
			if err != nil {
				if isForeignKeyViolation(err) {
					return apperr.NotFound("tip not found")
				}
				return apperr.Internal(err, "failed to toggle like")
			}
			if inserted == 0 {
				// Raced with another request that already liked; leave the
				// counter alone.
				expr = "likes_count"
			}
		}

		tip, err := qb.Update[models.Tip](db).
			SetRaw("likes_count", expr).
			Where(qb.Eq("id", tipID)).
			One(ctx)
		if err != nil {
			if errors.Is(err, qb.ErrNotFound) {
				return apperr.NotFound("tip not found")
			}
			return apperr.Internal(err, "failed to update like count")
		}

		liked = removed == 0
		likes = tip.LikesCount
		return nil
	})
	return liked, likes, err
}

// ToggleSave flips one user's bookmark on a tip.
func (r *TipRepo) ToggleSave(ctx context.Context, tipID, userID int64) (saved bool, err error) {
	err = qb.WithinTx(ctx, r.pool, func(db *qb.DB) error {
		removed, err := qb.Delete[models.SavedTip](db).
			Where(qb.Eq("tip_id", tipID), qb.Eq("user_id", userID)).
			Exec(ctx)
		if err != nil {
			return apperr.Internal(err, "failed to toggle bookmark")
		}
		if removed > 0 {
			saved = false
			return nil
		}

		_, err = qb.Insert[models.SavedTip](db).
			Values(models.SavedTip{TipID: tipID, UserID: userID}).
			OnConflictDoNothing("tip_id", "user_id").
			Exec(ctx)
		if err != nil {
			if isForeignKeyViolation(err) {
				return apperr.NotFound("tip not found")
			}
			return apperr.Internal(err, "failed to toggle bookmark")
		}
		saved = true
		return nil
	})
	return saved, err
}

// ListSaved returns the tips a user has bookmarked, most recently saved
// first.
func (r *TipRepo) ListSaved(ctx context.Context, userID int64) ([]models.Tip, error) {
	saved, err := qb.Select[models.SavedTip](r.db).
		Where(qb.Eq("user_id", userID)).
		OrderByDesc("created_at").
		All(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list bookmarks")
	}
	if len(saved) == 0 {
		return []models.Tip{}, nil
	}

	ids := make([]any, len(saved))
	for i, s := range saved {
		ids[i] = s.TipID
	}
	tips, err := qb.Select[models.Tip](r.db).Where(qb.In("id", ids...)).All(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "failed to load saved tips")
	}

	// Keep bookmark order.
	byID := make(map[int64]models.Tip, len(tips))
	for _, t := range tips {
		byID[t.ID] = t
	}
	ordered := make([]models.Tip, 0, len(saved))
	for _, s := range saved {
		if t, ok := byID[s.TipID]; ok {
			ordered = append(ordered, t)
		}
	}
	return ordered, nil
}

// ListCategories returns every tip category, alphabetically.
func (r *TipRepo) ListCategories(ctx context.Context) ([]models.TipCategory, error) {
	cats, err := qb.Select[models.TipCategory](r.db).OrderByAsc("name").All(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list tip categories")
	}
	return cats, nil
}

// CreateCategory inserts a tip category.
func (r *TipRepo) CreateCategory(ctx context.Context, c models.TipCategory) (*models.TipCategory, error) {
	created, err := qb.Insert[models.TipCategory](r.db).Values(c).One(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Conflict("tip category already exists")
		}
		return nil, apperr.Internal(err, "failed to create tip category")
	}
	return created, nil
}

// UpdateCategory renames a tip category.
func (r *TipRepo) UpdateCategory(ctx context.Context, id int64, name string) (*models.TipCategory, error) {
	c, err := qb.Update[models.TipCategory](r.db).
		Set("name", name).
		Where(qb.Eq("id", id)).
		One(ctx)
	if err != nil {
		if errors.Is(err, qb.ErrNotFound) {
			return nil, apperr.NotFound("tip category not found")
		}
		if isUniqueViolation(err) {
			return nil, apperr.Conflict("tip category already exists")
		}
		return nil, apperr.Internal(err, "failed to update tip category")
	}
	return c, nil
}

// DeleteCategory removes a tip category with no tips in it.
func (r *TipRepo) DeleteCategory(ctx context.Context, id int64) error {
	affected, err := qb.Delete[models.TipCategory](r.db).Where(qb.Eq("id", id)).Exec(ctx)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperr.Conflict("tip category still has tips")
		}
		return apperr.Internal(err, "failed to delete tip category")
	}
	if affected == 0 {
		return apperr.NotFound("tip category not found")
	}
	return nil
}
