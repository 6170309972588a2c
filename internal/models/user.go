// Package models defines the database row types and status rules for the
// AgriLink backend.
package models

import "time"

// Role is the account role that gates API actions.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleExpert   Role = "expert"
	RoleFarmer   Role = "farmer"
	RoleCustomer Role = "customer"
)

// Valid reports whether the role is one a user can hold.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleExpert, RoleFarmer, RoleCustomer:
		return true
	}
	return false
}

// User is an account row. PasswordHash never leaves the server.
type User struct {
	ID           int64     `db:"id,pk,auto" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	Phone        string    `db:"phone,omitzero" json:"phone,omitempty"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         Role      `db:"role" json:"role"`
	Bio          string    `db:"bio,omitzero" json:"bio,omitempty"`
	Expertise    string    `db:"expertise,omitzero" json:"expertise,omitempty"`
	AvatarPath   string    `db:"avatar_path,omitzero" json:"avatar_path,omitempty"`
	CreatedAt    time.Time `db:"created_at,omitzero" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at,omitzero" json:"updated_at"`
}

func (User) TableName() string { return "users" }

// AuthToken records an issued bearer token; deleting the row revokes it.
type AuthToken struct {
	ID        string    `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	TokenHash string    `db:"token_hash" json:"-"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time `db:"created_at,omitzero" json:"created_at"`
}

func (AuthToken) TableName() string { return "auth_tokens" }

// PasswordReset stores a pending OTP for password recovery.
type PasswordReset struct {
	ID        int64     `db:"id,pk,auto" json:"id"`
	Email     string    `db:"email" json:"email"`
	OTPCode   string    `db:"otp_code" json:"-"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	Used      bool      `db:"used,omitzero" json:"used"`
	CreatedAt time.Time `db:"created_at,omitzero" json:"created_at"`
}

func (PasswordReset) TableName() string { return "password_resets" }
