package models

import "time"

// ConsultationStatus is the lifecycle state of a consultation request.
type ConsultationStatus string

const (
	ConsultationPending   ConsultationStatus = "pending"
	ConsultationAccepted  ConsultationStatus = "accepted"
	ConsultationDeclined  ConsultationStatus = "declined"
	ConsultationCompleted ConsultationStatus = "completed"
	ConsultationCancelled ConsultationStatus = "cancelled"
)

var consultationTransitions = map[ConsultationStatus][]ConsultationStatus{
	ConsultationPending:  {ConsultationAccepted, ConsultationDeclined, ConsultationCancelled},
	ConsultationAccepted: {ConsultationCompleted, ConsultationCancelled},
}

// CanTransitionTo reports whether the consultation may move to the target
// status.
func (s ConsultationStatus) CanTransitionTo(target ConsultationStatus) bool {
	for _, allowed := range consultationTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Valid reports whether the value is a known consultation status.
func (s ConsultationStatus) Valid() bool {
	switch s {
	case ConsultationPending, ConsultationAccepted, ConsultationDeclined,
		ConsultationCompleted, ConsultationCancelled:
		return true
	}
	return false
}

// Consultation is a farmer's booking with an expert.
type Consultation struct {
	ID          int64              `db:"id,pk,auto" json:"id"`
	FarmerID    int64              `db:"farmer_id" json:"farmer_id"`
	ExpertID    int64              `db:"expert_id" json:"expert_id"`
	Topic       string             `db:"topic" json:"topic"`
	Description string             `db:"description,omitzero" json:"description,omitempty"`
	ScheduledAt *time.Time         `db:"scheduled_at" json:"scheduled_at,omitempty"`
	Status      ConsultationStatus `db:"status,omitzero" json:"status"`
	ExpertNotes string             `db:"expert_notes,omitzero" json:"expert_notes,omitempty"`
	CreatedAt   time.Time          `db:"created_at,omitzero" json:"created_at"`
	UpdatedAt   time.Time          `db:"updated_at,omitzero" json:"updated_at"`
}

func (Consultation) TableName() string { return "consultations" }
