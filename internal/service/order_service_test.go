package service

import (
	"testing"

	"carpetcare/internal/apperr"
	"carpetcare/internal/model"
)

func TestValidateTransition(t *testing.T) {
	tests := []struct {
		name       string
		role       string
		from, to   string
		wantErr    bool
		wantReason string
	}{
		{"admin may apply any forward move", model.RoleAdmin, model.OrderStatusPending, model.OrderStatusAwaitingAgent, false, ""},
		{"staff may skip stages", model.RoleStaff, model.OrderStatusPending, model.OrderStatusDelivered, false, ""},
		{"staff may cancel", model.RoleStaff, model.OrderStatusAssigned, model.OrderStatusCanceled, false, ""},
		{"admin cannot change a completed order", model.RoleAdmin, model.OrderStatusCompleted, model.OrderStatusPending, true, apperr.ReasonOrderLocked},
		{"admin cannot change a canceled order", model.RoleAdmin, model.OrderStatusCanceled, model.OrderStatusPending, true, apperr.ReasonOrderLocked},

		{"agent accepts an assignment", model.RoleAgent, model.OrderStatusAssigned, model.OrderStatusAgentAccepted, false, ""},
		{"agent rejects an assignment", model.RoleAgent, model.OrderStatusAssigned, model.OrderStatusAgentRejected, false, ""},
		{"agent accepts while awaiting", model.RoleAgent, model.OrderStatusAwaitingAgent, model.OrderStatusAgentAccepted, false, ""},
		{"agent records pickup", model.RoleAgent, model.OrderStatusAgentAccepted, model.OrderStatusPickedUp, false, ""},
		{"agent moves pickup to cleaning", model.RoleAgent, model.OrderStatusPickedUp, model.OrderStatusInCleaning, false, ""},
		{"agent marks cleaned", model.RoleAgent, model.OrderStatusInCleaning, model.OrderStatusCleaned, false, ""},
		{"agent delivers", model.RoleAgent, model.OrderStatusCleaned, model.OrderStatusDelivered, false, ""},
		{"agent completes after delivery", model.RoleAgent, model.OrderStatusDelivered, model.OrderStatusCompleted, false, ""},
		{"agent cannot jump pending to completed", model.RoleAgent, model.OrderStatusPending, model.OrderStatusCompleted, true, apperr.ReasonInvalidTransition},
		{"agent cannot cancel", model.RoleAgent, model.OrderStatusAssigned, model.OrderStatusCanceled, true, apperr.ReasonInvalidTransition},
		{"agent cannot move backwards", model.RoleAgent, model.OrderStatusCleaned, model.OrderStatusInCleaning, true, apperr.ReasonInvalidTransition},

		{"client cannot change status at all", model.RoleClient, model.OrderStatusPending, model.OrderStatusCanceled, true, apperr.ReasonForbidden},

		{"unknown target status rejected", model.RoleAdmin, model.OrderStatusPending, "shipped", true, apperr.ReasonInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTransition(tt.role, tt.from, tt.to)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ValidateTransition(%s, %s, %s) = nil, want error", tt.role, tt.from, tt.to)
				}
				e := apperr.From(err)
				if e == nil {
					t.Fatalf("error %v is not an application error", err)
				}
				if e.Reason != tt.wantReason {
					t.Errorf("reason = %s, want %s", e.Reason, tt.wantReason)
				}
				return
			}
			if err != nil {
				t.Errorf("ValidateTransition(%s, %s, %s) = %v, want nil", tt.role, tt.from, tt.to, err)
			}
		})
	}
}

func TestEligibleForInvoice(t *testing.T) {
	carpets := []model.Carpet{{}}

	tests := []struct {
		name       string
		order      model.Order
		wantReason string
	}{
		{
			name:  "eligible after hq inspection",
			order: model.Order{Status: model.OrderStatusHQInspection, Carpets: carpets},
		},
		{
			name:  "eligible when cleaned",
			order: model.Order{Status: model.OrderStatusCleaned, Carpets: carpets},
		},
		{
			name:  "eligible when delivered",
			order: model.Order{Status: model.OrderStatusDelivered, Carpets: carpets},
		},
		{
			name:  "eligible when completed",
			order: model.Order{Status: model.OrderStatusCompleted, Carpets: carpets},
		},
		{
			name:       "no carpets",
			order:      model.Order{Status: model.OrderStatusCleaned},
			wantReason: apperr.ReasonNoCarpets,
		},
		{
			name: "live invoice blocks a second one",
			order: model.Order{
				Status:  model.OrderStatusCleaned,
				Carpets: carpets,
				Invoice: &model.Invoice{Status: model.InvoiceStatusPending},
			},
			wantReason: apperr.ReasonAlreadyInvoiced,
		},
		{
			name: "cancelled invoice does not block",
			order: model.Order{
				Status:  model.OrderStatusCleaned,
				Carpets: carpets,
				Invoice: &model.Invoice{Status: model.InvoiceStatusCancelled},
			},
		},
		{
			name:       "too early in the lifecycle",
			order:      model.Order{Status: model.OrderStatusInCleaning, Carpets: carpets},
			wantReason: apperr.ReasonNotEligibleStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := EligibleForInvoice(&tt.order)
			if tt.wantReason == "" {
				if err != nil {
					t.Errorf("EligibleForInvoice() = %v, want nil", err)
				}
				return
			}
			e := apperr.From(err)
			if e == nil {
				t.Fatalf("EligibleForInvoice() = %v, want application error", err)
			}
			if e.Reason != tt.wantReason {
				t.Errorf("reason = %s, want %s", e.Reason, tt.wantReason)
			}
		})
	}
}
