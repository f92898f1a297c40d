package types

import (
	"errors"
	"fmt"
	"slices"
)

// ErrInvalidRecord is returned when an interaction breaks a field invariant.
var ErrInvalidRecord = errors.New("invalid interaction record")

// Department is a service department of the one-stop center
type Department string

const (
	DeptFinancialAid    Department = "Financial Aid"
	DeptRegistrar       Department = "Registrar"
	DeptBusinessService Department = "Student Business Services"
	DeptAdmissions      Department = "Admissions"
	DeptGeneralInquiry  Department = "General Inquiry"
)

// Channel is how the student reached the center
type Channel string

const (
	ChannelWalkIn  Channel = "Walk-In"
	ChannelPhone   Channel = "Phone"
	ChannelEmail   Channel = "Email"
	ChannelVirtual Channel = "Virtual Appointment"
)

// Resolution is the outcome of an interaction
type Resolution string

const (
	ResolvedFirstContact Resolution = "Resolved on First Contact"
	FollowUpRequired     Resolution = "Follow-Up Required"
	EscalatedToDept      Resolution = "Escalated to Department"
	ReferredElsewhere    Resolution = "Referred to Another Office"
)

// Bounds for the numeric fields.
const (
	MaxWaitMin      = 45.0
	MinServiceMin   = 2.0
	MaxServiceMin   = 40.0
	MinSatisfaction = 1.0
	MaxSatisfaction = 5.0
	FirstInquiryID  = 10001
)

// Calendar orders used when a report lists categories in their natural order.
var (
	Weekdays  = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}
	TimeSlots = []string{"8-10 AM", "10-12 PM", "12-2 PM", "2-4 PM"}
	Quarters  = []string{"Fall 2024", "Winter 2025", "Spring 2025", "Summer 2025"}
)

// Interaction is one student-service contact
type Interaction struct {
	InquiryID         int        `json:"inquiryId"`
	Department        Department `json:"department"`
	InquiryType       string     `json:"inquiryType"`
	Channel           Channel    `json:"channel"`
	StudentType       string     `json:"studentType"`
	Quarter           string     `json:"quarter"`
	Month             string     `json:"month"`
	DayOfWeek         string     `json:"dayOfWeek"`
	TimeSlot          string     `json:"timeSlot"`
	StaffMember       string     `json:"staffMember"`
	WaitTimeMin       float64    `json:"waitTimeMin"`
	ServiceTimeMin    float64    `json:"serviceTimeMin"`
	Resolution        Resolution `json:"resolution"`
	Escalated         bool       `json:"escalated"`
	CallbackRequired  bool       `json:"callbackRequired"`
	SatisfactionScore float64    `json:"satisfactionScore"`
}

// FirstContact reports whether the interaction was resolved without follow-up.
func (i Interaction) FirstContact() bool {
	return i.Resolution == ResolvedFirstContact
}

// Validate checks a record against the field invariants and the built-in
// catalog.
func (i Interaction) Validate() error {
	return i.ValidateIn(defaultCatalog)
}

// ValidateIn checks the field invariants of a record, then that its inquiry
// type belongs to its department and its month to its quarter in c.
func (i Interaction) ValidateIn(c Catalog) error {
	switch {
	case i.InquiryID <= 0:
		return fmt.Errorf("%w: inquiry_id %d", ErrInvalidRecord, i.InquiryID)
	case i.Department == "":
		return fmt.Errorf("%w: %d: missing department", ErrInvalidRecord, i.InquiryID)
	case i.Channel == "":
		return fmt.Errorf("%w: %d: missing channel", ErrInvalidRecord, i.InquiryID)
	case i.InquiryType == "", i.Quarter == "", i.Month == "", i.DayOfWeek == "", i.TimeSlot == "", i.StaffMember == "":
		return fmt.Errorf("%w: %d: missing categorical field", ErrInvalidRecord, i.InquiryID)
	case i.Resolution == "":
		return fmt.Errorf("%w: %d: missing resolution", ErrInvalidRecord, i.InquiryID)
	case i.WaitTimeMin < 0 || i.WaitTimeMin > MaxWaitMin:
		return fmt.Errorf("%w: %d: wait_time_min %.1f out of range", ErrInvalidRecord, i.InquiryID, i.WaitTimeMin)
	case i.ServiceTimeMin < MinServiceMin || i.ServiceTimeMin > MaxServiceMin:
		return fmt.Errorf("%w: %d: service_time_min %.1f out of range", ErrInvalidRecord, i.InquiryID, i.ServiceTimeMin)
	case i.SatisfactionScore < MinSatisfaction || i.SatisfactionScore > MaxSatisfaction:
		return fmt.Errorf("%w: %d: satisfaction_score %.1f out of range", ErrInvalidRecord, i.InquiryID, i.SatisfactionScore)
	case i.Escalated != (i.Resolution == EscalatedToDept):
		return fmt.Errorf("%w: %d: escalated=%t with resolution %q", ErrInvalidRecord, i.InquiryID, i.Escalated, i.Resolution)
	case i.CallbackRequired && i.Resolution != FollowUpRequired:
		return fmt.Errorf("%w: %d: callback without follow-up", ErrInvalidRecord, i.InquiryID)
	case !slices.Contains(c.InquiryTypes[string(i.Department)], i.InquiryType):
		return fmt.Errorf("%w: %d: inquiry_type %q not offered by %s", ErrInvalidRecord, i.InquiryID, i.InquiryType, i.Department)
	case !slices.Contains(c.QuarterMonths[i.Quarter], i.Month):
		return fmt.Errorf("%w: %d: month %q not in quarter %q", ErrInvalidRecord, i.InquiryID, i.Month, i.Quarter)
	}
	return nil
}

// QuarterRank returns the calendar position of a quarter, or len(Quarters)
// for unknown labels so they sort last.
func QuarterRank(q string) int {
	if i := slices.Index(Quarters, q); i >= 0 {
		return i
	}
	return len(Quarters)
}
