// Package auth handles passwords, bearer tokens and password-reset OTPs.
//
// Tokens are HS256 JWTs whose jti is persisted in auth_tokens; logout deletes
// the row, so a token can be revoked before its expiry.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/agrilink/agrilink/internal/apperr"
	"github.com/agrilink/agrilink/internal/models"
	"github.com/agrilink/agrilink/internal/store"
)

// OTPLength is the number of digits in a password-reset code.
const OTPLength = 6

// OTPTTL is how long a password-reset code stays valid.
const OTPTTL = 15 * time.Minute

// Service issues and verifies credentials.
type Service struct {
	users  *store.UserRepo
	secret []byte
	ttl    time.Duration
}

// NewService builds the auth service. ttl bounds issued token lifetime.
func NewService(users *store.UserRepo, secret string, ttl time.Duration) *Service {
	return &Service{users: users, secret: []byte(secret), ttl: ttl}
}

// HashPassword bcrypt-hashes a plaintext password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether the plaintext matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Issue signs a token for the user and records it for revocation.
func (s *Service) Issue(ctx context.Context, user *models.User) (string, error) {
	jti := uuid.NewString()
	expiresAt := time.Now().Add(s.ttl)

	token, err := signToken(s.secret, user.ID, jti, expiresAt)
	if err != nil {
		return "", apperr.Internal(err, "failed to sign token")
	}

	err = s.users.CreateToken(ctx, models.AuthToken{
		ID:        jti,
		UserID:    user.ID,
		TokenHash: hashToken(token),
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// Verify parses and validates a bearer token, checks it has not been
// revoked, and returns the account plus the token ID for later revocation.
func (s *Service) Verify(ctx context.Context, token string) (*models.User, string, error) {
	userID, jti, err := parseToken(s.secret, token)
	if err != nil {
		return nil, "", apperr.Unauthorized("invalid token")
	}

	record, err := s.users.GetToken(ctx, jti)
	if err != nil {
		return nil, "", err
	}
	if record.TokenHash != hashToken(token) || time.Now().After(record.ExpiresAt) {
		return nil, "", apperr.Unauthorized("invalid token")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, "", apperr.Unauthorized("invalid token")
		}
		return nil, "", err
	}
	return user, jti, nil
}

// Revoke deletes a token record, invalidating the token immediately.
func (s *Service) Revoke(ctx context.Context, jti string) error {
	return s.users.DeleteToken(ctx, jti)
}

// NewOTP generates a zero-padded numeric password-reset code.
func NewOTP() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < OTPLength; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", OTPLength, n), nil
}

func signToken(secret []byte, userID int64, jti string, expiresAt time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		ID:        jti,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func parseToken(secret []byte, token string) (userID int64, jti string, err error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return 0, "", err
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.ID == "" {
		return 0, "", fmt.Errorf("malformed claims")
	}
	userID, err = strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("malformed subject: %w", err)
	}
	return userID, claims.ID, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
