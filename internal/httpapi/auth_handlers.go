package httpapi

import (
	"net/http"
	"net/mail"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/agrilink/agrilink/internal/apperr"
	"github.com/agrilink/agrilink/internal/auth"
	"github.com/agrilink/agrilink/internal/models"
)

const minPasswordLen = 8

type registerRequest struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
	Phone    string      `json:"phone"`
}

type authResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	fe := fieldErrors{}
	if req.Name == "" {
		fe.add("name", "name is required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		fe.add("email", "valid email is required")
	}
	if len(req.Password) < minPasswordLen {
		fe.add("password", "password must be at least 8 characters")
	}
	if !req.Role.Valid() || req.Role == models.RoleAdmin {
		fe.add("role", "role must be farmer, customer or expert")
	}
	if err := fe.err(); err != nil {
		respondError(w, r, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(w, r, apperr.Internal(err, "failed to hash password"))
		return
	}

	user, err := s.store.Users.Create(r.Context(), models.User{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: hash,
		Role:         req.Role,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	token, err := s.auth.Issue(r.Context(), user)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, authResponse{User: user, Token: token})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	user, err := s.store.Users.GetByEmail(r.Context(), req.Email)
	if err != nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		// Same answer for unknown email and wrong password.
		respondError(w, r, apperr.Unauthorized("invalid email or password"))
		return
	}

	if err := s.store.Users.DeleteExpiredTokens(r.Context()); err != nil {
		log.Warn().Err(err).Msg("failed to prune expired tokens")
	}

	token, err := s.auth.Issue(r.Context(), user)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, authResponse{User: user, Token: token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Revoke(r.Context(), tokenIDFrom(r.Context())); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, userFrom(r.Context()))
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	fields := map[string]any{}

	if isMultipart(r) {
		if err := r.ParseMultipartForm(s.cfg.MaxUploadMB << 20); err != nil {
			respondError(w, r, apperr.Validation("malformed form data", map[string]string{"body": err.Error()}))
			return
		}
		for _, field := range []string{"name", "phone", "bio", "expertise"} {
			if v := r.FormValue(field); v != "" {
				fields[field] = v
			}
		}
		if fh := formFile(r, "avatar"); fh != nil {
			path, err := s.uploads.SaveImage(fh)
			if err != nil {
				respondError(w, r, err)
				return
			}
			fields["avatar_path"] = path
		}
	} else {
		var req struct {
			Name      *string `json:"name"`
			Phone     *string `json:"phone"`
			Bio       *string `json:"bio"`
			Expertise *string `json:"expertise"`
		}
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, r, err)
			return
		}
		if req.Name != nil {
			fields["name"] = *req.Name
		}
		if req.Phone != nil {
			fields["phone"] = *req.Phone
		}
		if req.Bio != nil {
			fields["bio"] = *req.Bio
		}
		if req.Expertise != nil {
			fields["expertise"] = *req.Expertise
		}
	}

	if name, ok := fields["name"].(string); ok && name == "" {
		respondError(w, r, apperr.Validation("validation failed", map[string]string{"name": "name cannot be empty"}))
		return
	}
	if len(fields) == 0 {
		respond(w, http.StatusOK, user)
		return
	}

	updated, err := s.store.Users.UpdateProfile(r.Context(), user.ID, fields)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, updated)
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	// Whether the account exists or not, the answer is the same; only known
	// emails get a code stored.
	if _, err := s.store.Users.GetByEmail(r.Context(), req.Email); err == nil {
		otp, err := auth.NewOTP()
		if err != nil {
			respondError(w, r, apperr.Internal(err, "failed to generate code"))
			return
		}
		err = s.store.Users.CreateReset(r.Context(), models.PasswordReset{
			Email:     req.Email,
			OTPCode:   otp,
			ExpiresAt: time.Now().Add(auth.OTPTTL),
		})
		if err != nil {
			respondError(w, r, err)
			return
		}
		// There is no mailer; operators read the code from the debug log.
		log.Debug().Str("email", req.Email).Str("otp", otp).Msg("password reset code issued")
	}

	respond(w, http.StatusOK, map[string]string{"status": "if the email exists, a reset code has been sent"})
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		OTP      string `json:"otp"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if len(req.Password) < minPasswordLen {
		respondError(w, r, apperr.Validation("validation failed", map[string]string{
			"password": "password must be at least 8 characters",
		}))
		return
	}

	if err := s.store.Users.ConsumeReset(r.Context(), req.Email, req.OTP); err != nil {
		respondError(w, r, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(w, r, apperr.Internal(err, "failed to hash password"))
		return
	}
	if err := s.store.Users.UpdatePassword(r.Context(), req.Email, hash); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "password updated"})
}
