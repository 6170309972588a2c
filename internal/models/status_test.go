package models

import "testing"

func TestOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{OrderPending, OrderProcessing, true},
		{OrderPending, OrderCancelled, true},
		{OrderPending, OrderCompleted, false},
		{OrderProcessing, OrderCompleted, true},
		{OrderProcessing, OrderCancelled, false},
		{OrderProcessing, OrderPending, false},
		{OrderCompleted, OrderCancelled, false},
		{OrderCancelled, OrderPending, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.allowed {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.allowed)
		}
	}
}

func TestConsultationStatusTransitions(t *testing.T) {
	tests := []struct {
		from    ConsultationStatus
		to      ConsultationStatus
		allowed bool
	}{
		{ConsultationPending, ConsultationAccepted, true},
		{ConsultationPending, ConsultationDeclined, true},
		{ConsultationPending, ConsultationCancelled, true},
		{ConsultationPending, ConsultationCompleted, false},
		{ConsultationAccepted, ConsultationCompleted, true},
		{ConsultationAccepted, ConsultationCancelled, true},
		{ConsultationAccepted, ConsultationDeclined, false},
		{ConsultationDeclined, ConsultationAccepted, false},
		{ConsultationCompleted, ConsultationCancelled, false},
		{ConsultationCancelled, ConsultationPending, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.allowed {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.allowed)
		}
	}
}

func TestRoleValid(t *testing.T) {
	for _, r := range []Role{RoleAdmin, RoleExpert, RoleFarmer, RoleCustomer} {
		if !r.Valid() {
			t.Errorf("%s should be valid", r)
		}
	}
	if Role("supplier").Valid() {
		t.Error("unknown role should be invalid")
	}
}
