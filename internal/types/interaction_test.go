package types

import (
	"errors"
	"testing"
)

func validInteraction() Interaction {
	return Interaction{
		InquiryID:         FirstInquiryID,
		Department:        DeptRegistrar,
		InquiryType:       "Transcript Request",
		Channel:           ChannelPhone,
		StudentType:       "Graduate",
		Quarter:           "Fall 2024",
		Month:             "Oct",
		DayOfWeek:         "Tuesday",
		TimeSlot:          "10-12 PM",
		StaffMember:       "Staff C",
		WaitTimeMin:       6.2,
		ServiceTimeMin:    11.0,
		Resolution:        ResolvedFirstContact,
		SatisfactionScore: 4.4,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Interaction)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Interaction) {}},
		{name: "zero wait is allowed", mutate: func(i *Interaction) { i.WaitTimeMin = 0 }},
		{name: "missing id", mutate: func(i *Interaction) { i.InquiryID = 0 }, wantErr: true},
		{name: "missing department", mutate: func(i *Interaction) { i.Department = "" }, wantErr: true},
		{name: "missing channel", mutate: func(i *Interaction) { i.Channel = "" }, wantErr: true},
		{name: "missing staff", mutate: func(i *Interaction) { i.StaffMember = "" }, wantErr: true},
		{name: "negative wait", mutate: func(i *Interaction) { i.WaitTimeMin = -0.1 }, wantErr: true},
		{name: "wait above cap", mutate: func(i *Interaction) { i.WaitTimeMin = 45.1 }, wantErr: true},
		{name: "negative service", mutate: func(i *Interaction) { i.ServiceTimeMin = -1 }, wantErr: true},
		{name: "service below minimum", mutate: func(i *Interaction) { i.ServiceTimeMin = 1.9 }, wantErr: true},
		{name: "service at minimum", mutate: func(i *Interaction) { i.ServiceTimeMin = MinServiceMin }},
		{name: "service above cap", mutate: func(i *Interaction) { i.ServiceTimeMin = 40.1 }, wantErr: true},
		{name: "missing month", mutate: func(i *Interaction) { i.Month = "" }, wantErr: true},
		{name: "month outside quarter", mutate: func(i *Interaction) { i.Month = "Jan" }, wantErr: true},
		{name: "unknown quarter", mutate: func(i *Interaction) { i.Quarter = "Fall 2031" }, wantErr: true},
		{
			name:    "inquiry type of another department",
			mutate:  func(i *Interaction) { i.InquiryType = "FAFSA Status" },
			wantErr: true,
		},
		{
			name: "inquiry type of its department",
			mutate: func(i *Interaction) {
				i.Department = DeptFinancialAid
				i.InquiryType = "FAFSA Status"
			},
		},
		{name: "satisfaction below one", mutate: func(i *Interaction) { i.SatisfactionScore = 0.9 }, wantErr: true},
		{name: "satisfaction above five", mutate: func(i *Interaction) { i.SatisfactionScore = 5.1 }, wantErr: true},
		{
			name:    "escalated flag without escalation",
			mutate:  func(i *Interaction) { i.Escalated = true },
			wantErr: true,
		},
		{
			name:    "escalation without flag",
			mutate:  func(i *Interaction) { i.Resolution = EscalatedToDept },
			wantErr: true,
		},
		{
			name: "escalation with flag",
			mutate: func(i *Interaction) {
				i.Resolution = EscalatedToDept
				i.Escalated = true
			},
		},
		{
			name:    "callback without follow-up",
			mutate:  func(i *Interaction) { i.CallbackRequired = true },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := validInteraction()
			tt.mutate(&rec)
			err := rec.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRecord) {
					t.Errorf("expected ErrInvalidRecord, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateInCustomCatalog(t *testing.T) {
	rec := validInteraction()
	rec.Department = "Housing"
	rec.InquiryType = "Room Change"
	rec.Quarter = "Fall 2026"

	if err := rec.Validate(); !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("expected the built-in catalog to reject Housing, got %v", err)
	}

	c := Catalog{
		InquiryTypes:  map[string][]string{"Housing": {"Room Change"}},
		QuarterMonths: map[string][]string{"Fall 2026": {"Oct"}},
	}
	if err := rec.ValidateIn(c); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	rec.Month = "Nov"
	if err := rec.ValidateIn(c); !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("expected Nov outside Fall 2026 to fail, got %v", err)
	}
}

func TestDefaultCatalogIsCopied(t *testing.T) {
	c := DefaultCatalog()
	c.InquiryTypes[string(DeptRegistrar)] = nil
	if err := validInteraction().Validate(); err != nil {
		t.Errorf("expected edits to a returned catalog not to leak, got %v", err)
	}
}

func TestQuarterRank(t *testing.T) {
	if QuarterRank("Fall 2024") != 0 || QuarterRank("Summer 2025") != 3 {
		t.Error("unexpected quarter rank for known quarters")
	}
	if QuarterRank("Fall 2030") != len(Quarters) {
		t.Error("expected unknown quarters to rank last")
	}
}
