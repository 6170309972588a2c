package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrilink/agrilink/internal/apperr"
	"github.com/agrilink/agrilink/internal/models"
	"github.com/agrilink/agrilink/pkg/qb"
)

// UserRepo persists accounts, issued tokens and password-reset OTPs.
type UserRepo struct {
	pool *pgxpool.Pool
	db   *qb.DB
}

// Create inserts a new account. Duplicate email maps to a conflict error.
func (r *UserRepo) Create(ctx context.Context, u models.User) (*models.User, error) {
	created, err := qb.Insert[models.User](r.db).Values(u).One(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Conflict("email is already registered")
		}
		return nil, apperr.Internal(err, "failed to create user")
	}
	return created, nil
}

// GetByID fetches one account.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u, err := qb.Select[models.User](r.db).Where(qb.Eq("id", id)).First(ctx)
	if err != nil {
		if errors.Is(err, qb.ErrNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal(err, "failed to load user")
	}
	return u, nil
}

// GetByEmail fetches one account by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := qb.Select[models.User](r.db).Where(qb.Eq("email", email)).First(ctx)
	if err != nil {
		if errors.Is(err, qb.ErrNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal(err, "failed to load user")
	}
	return u, nil
}

// UpdateProfile applies the given column values to one account and returns
// the updated row.
func (r *UserRepo) UpdateProfile(ctx context.Context, id int64, fields map[string]any) (*models.User, error) {
	q := qb.Update[models.User](r.db)
	for col, val := range fields {
		q.Set(col, val)
	}
	q.SetRaw("updated_at", "NOW()")

	u, err := q.Where(qb.Eq("id", id)).One(ctx)
	if err != nil {
		if errors.Is(err, qb.ErrNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal(err, "failed to update user")
	}
	return u, nil
}

// UpdatePassword replaces the password hash for every account with the email.
func (r *UserRepo) UpdatePassword(ctx context.Context, email, hash string) error {
	affected, err := qb.Update[models.User](r.db).
		Set("password_hash", hash).
		SetRaw("updated_at", "NOW()").
		Where(qb.Eq("email", email)).
		Exec(ctx)
	if err != nil {
		return apperr.Internal(err, "failed to update password")
	}
	if affected == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}

// CreateToken records an issued bearer token.
func (r *UserRepo) CreateToken(ctx context.Context, t models.AuthToken) error {
	if _, err := qb.Insert[models.AuthToken](r.db).Values(t).Exec(ctx); err != nil {
		return apperr.Internal(err, "failed to store token")
	}
	return nil
}

// GetToken loads a token record by its ID (the JWT jti claim).
func (r *UserRepo) GetToken(ctx context.Context, id string) (*models.AuthToken, error) {
	t, err := qb.Select[models.AuthToken](r.db).Where(qb.Eq("id", id)).First(ctx)
	if err != nil {
		if errors.Is(err, qb.ErrNotFound) {
			return nil, apperr.Unauthorized("token revoked")
		}
		return nil, apperr.Internal(err, "failed to load token")
	}
	return t, nil
}

// DeleteToken revokes one token.
func (r *UserRepo) DeleteToken(ctx context.Context, id string) error {
	if _, err := qb.Delete[models.AuthToken](r.db).Where(qb.Eq("id", id)).Exec(ctx); err != nil {
		return apperr.Internal(err, "failed to revoke token")
	}
	return nil
}

// DeleteExpiredTokens clears tokens past their expiry. Called opportunistically
// at login.
func (r *UserRepo) DeleteExpiredTokens(ctx context.Context) error {
	_, err := r.db.Exec(ctx, "DELETE FROM auth_tokens WHERE expires_at < NOW()")
	if err != nil {
		return apperr.Internal(err, "failed to prune expired tokens")
	}
	return nil
}

// CreateReset stores a password-reset OTP, invalidating earlier unused ones
// for the same email.
func (r *UserRepo) CreateReset(ctx context.Context, reset models.PasswordReset) error {
	return qb.WithinTx(ctx, r.pool, func(db *qb.DB) error {
		_, err := qb.Update[models.PasswordReset](db).
			Set("used", true).
			Where(qb.Eq("email", reset.Email), qb.Eq("used", false)).
			Exec(ctx)
		if err != nil {
			return apperr.Internal(err, "failed to expire old reset codes")
		}
		if _, err := qb.Insert[models.PasswordReset](db).Values(reset).Exec(ctx); err != nil {
			return apperr.Internal(err, "failed to store reset code")
		}
		return nil
	})
}

// ConsumeReset validates an OTP for the email and marks it used. Expired,
// used or unknown codes all fail the same way.
func (r *UserRepo) ConsumeReset(ctx context.Context, email, otp string) error {
	return qb.WithinTx(ctx, r.pool, func(db *qb.DB) error {
		reset, err := qb.Select[models.PasswordReset](db).
			Where(qb.Eq("email", email), qb.Eq("otp_code", otp), qb.Eq("used", false)).
			OrderByDesc("created_at").
			ForUpdate().
			First(ctx)
		if err != nil {
			if errors.Is(err, qb.ErrNotFound) {
				return apperr.Validation("invalid or expired code", map[string]string{"otp": "invalid or expired code"})
			}
			return apperr.Internal(err, "failed to check reset code")
		}
		if time.Now().After(reset.ExpiresAt) {
			return apperr.Validation("invalid or expired code", map[string]string{"otp": "invalid or expired code"})
		}

		_, err = qb.Update[models.PasswordReset](db).
			Set("used", true).
			Where(qb.Eq("id", reset.ID)).
			Exec(ctx)
		if err != nil {
			return apperr.Internal(err, "failed to consume reset code")
		}
		return nil
	})
}
