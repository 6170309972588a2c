package httpapi

import (
	"net/http"
	"time"

	"github.com/agrilink/agrilink/internal/apperr"
	"github.com/agrilink/agrilink/internal/models"
)

type createConsultationRequest struct {
	ExpertID    int64      `json:"expert_id"`
	Topic       string     `json:"topic"`
	Description string     `json:"description"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}

func (s *Server) handleCreateConsultation(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	var req createConsultationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	fe := fieldErrors{}
	if req.ExpertID <= 0 {
		fe.add("expert_id", "expert_id is required")
	}
	if req.Topic == "" {
		fe.add("topic", "topic is required")
	}
	if err := fe.err(); err != nil {
		respondError(w, r, err)
		return
	}

	expert, err := s.store.Users.GetByID(r.Context(), req.ExpertID)
	if err != nil || expert.Role != models.RoleExpert {
		respondError(w, r, apperr.NotFound("expert not found"))
		return
	}

	consultation, err := s.store.Consultations.Create(r.Context(), models.Consultation{
		FarmerID:    user.ID,
		ExpertID:    req.ExpertID,
		Topic:       req.Topic,
		Description: req.Description,
		ScheduledAt: req.ScheduledAt,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, consultation)
}

func (s *Server) handleListConsultations(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	consultations, err := s.store.Consultations.ListFor(r.Context(), user.ID, user.Role)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, consultations)
}

func isConsultationParticipant(user *models.User, c *models.Consultation) bool {
	return user.Role == models.RoleAdmin || user.ID == c.FarmerID || user.ID == c.ExpertID
}

func (s *Server) handleGetConsultation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	consultation, err := s.store.Consultations.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !isConsultationParticipant(userFrom(r.Context()), consultation) {
		respondError(w, r, apperr.Forbidden("not your consultation"))
		return
	}
	respond(w, http.StatusOK, consultation)
}

func (s *Server) handleConsultationStatus(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req struct {
		Status models.ConsultationStatus `json:"status"`
		Notes  string                    `json:"expert_notes"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if !req.Status.Valid() {
		respondError(w, r, fieldErrors{"status": "unknown consultation status"}.err())
		return
	}

	consultation, err := s.store.Consultations.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !isConsultationParticipant(user, consultation) {
		respondError(w, r, apperr.Forbidden("not your consultation"))
		return
	}

	// The expert accepts, declines or completes; either side may cancel.
	if user.Role != models.RoleAdmin {
		switch req.Status {
		case models.ConsultationAccepted, models.ConsultationDeclined, models.ConsultationCompleted:
			if user.ID != consultation.ExpertID {
				respondError(w, r, apperr.Forbidden("only the expert can do that"))
				return
			}
		case models.ConsultationCancelled:
			// Farmer or expert.
		default:
			respondError(w, r, fieldErrors{"status": "unsupported status change"}.err())
			return
		}
	}

	updated, err := s.store.Consultations.UpdateStatus(r.Context(), id, req.Status, req.Notes)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, updated)
}
