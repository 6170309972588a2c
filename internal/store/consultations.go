package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrilink/agrilink/internal/apperr"
	"github.com/agrilink/agrilink/internal/models"
	"github.com/agrilink/agrilink/pkg/qb"
)

// ConsultationRepo persists expert consultation bookings.
type ConsultationRepo struct {
	pool *pgxpool.Pool
	db   *qb.DB
}

// Create books a consultation with status pending.
func (r *ConsultationRepo) Create(ctx context.Context, c models.Consultation) (*models.Consultation, error) {
	c.Status = models.ConsultationPending
	created, err := qb.Insert[models.Consultation](r.db).Values(c).One(ctx)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, apperr.NotFound("expert not found")
		}
		return nil, apperr.Internal(err, "failed to create consultation")
	}
	return created, nil
}

// Get fetches one consultation.
func (r *ConsultationRepo) Get(ctx context.Context, id int64) (*models.Consultation, error) {
	c, err := qb.Select[models.Consultation](r.db).Where(qb.Eq("id", id)).First(ctx)
	if err != nil {
		if errors.Is(err, qb.ErrNotFound) {
			return nil, apperr.NotFound("consultation not found")
		}
		return nil, apperr.Internal(err, "failed to load consultation")
	}
	return c, nil
}

// ListFor returns the consultations visible to a user: their own bookings as
// farmer or expert, or everything for admins. Newest first.
func (r *ConsultationRepo) ListFor(ctx context.Context, userID int64, role models.Role) ([]models.Consultation, error) {
	q := qb.Select[models.Consultation](r.db)
	switch role {
	case models.RoleAdmin:
		// No filter.
	case models.RoleExpert:
		q.Where(qb.Eq("expert_id", userID))
	default:
		q.Where(qb.Eq("farmer_id", userID))
	}

	consultations, err := q.OrderByDesc("created_at").All(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list consultations")
	}
	return consultations, nil
}

// UpdateStatus moves a consultation along its lifecycle under a row lock.
// A non-empty notes value overwrites expert_notes.
func (r *ConsultationRepo) UpdateStatus(ctx context.Context, id int64, target models.ConsultationStatus, notes string) (*models.Consultation, error) {
	var consultation *models.Consultation

	err := qb.WithinTx(ctx, r.pool, func(db *qb.DB) error {
		current, err := qb.Select[models.Consultation](db).
			Where(qb.Eq("id", id)).
			ForUpdate().
			First(ctx)
		if err != nil {
			if errors.Is(err, qb.ErrNotFound) {
				return apperr.NotFound("consultation not found")
			}
			return apperr.Internal(err, "failed to lock consultation")
		}

		if !current.Status.CanTransitionTo(target) {
			return apperr.Validation("invalid status transition", map[string]string{
				"status": fmt.Sprintf("cannot move consultation from %s to %s", current.Status, target),
			})
		}

		q := qb.Update[models.Consultation](db).
			Set("status", target).
			SetRaw("updated_at", "NOW()")
		if notes != "" {
			q.Set("expert_notes", notes)
		}

		updated, err := q.Where(qb.Eq("id", id)).One(ctx)
		if err != nil {
			return apperr.Internal(err, "failed to update consultation status")
		}
		consultation = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return consultation, nil
}
