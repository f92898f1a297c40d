package simulate

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dennisdiepolder/studentops/internal/types"
)

// ErrInvalidProfile is returned when a profile cannot drive the generator.
var ErrInvalidProfile = errors.New("invalid generation profile")

// Weighted pairs a category label with a relative weight.
type Weighted struct {
	Name   string  `yaml:"name"`
	Weight float64 `yaml:"weight"`
}

// QuarterSpec is a reporting quarter with the months it covers.
type QuarterSpec struct {
	Name   string   `yaml:"name"`
	Weight float64  `yaml:"weight"`
	Months []string `yaml:"months"`
}

// WaitPolicy holds the additive wait time adjustments in minutes.
type WaitPolicy struct {
	MeanBase     float64            `yaml:"mean_base"`
	ChannelBonus map[string]float64 `yaml:"channel_bonus"`
	PeakQuarter  string             `yaml:"peak_quarter"`
	QuarterBonus float64            `yaml:"quarter_bonus"`
	PeakMonths   []string           `yaml:"peak_months"`
	MonthBonus   float64            `yaml:"month_bonus"`
}

// ServicePolicy holds the service time distribution and adjustments.
type ServicePolicy struct {
	Mean            float64            `yaml:"mean"`
	StdDev          float64            `yaml:"std_dev"`
	DepartmentBonus map[string]float64 `yaml:"department_bonus"`
	ChannelBonus    map[string]float64 `yaml:"channel_bonus"`
}

// SatisfactionPolicy shifts the satisfaction mean by outcome and timing.
type SatisfactionPolicy struct {
	Mean               float64 `yaml:"mean"`
	StdDev             float64 `yaml:"std_dev"`
	FirstContactBonus  float64 `yaml:"first_contact_bonus"`
	EscalationPenalty  float64 `yaml:"escalation_penalty"`
	LongWaitMin        float64 `yaml:"long_wait_min"`
	LongWaitPenalty    float64 `yaml:"long_wait_penalty"`
	ShortWaitMin       float64 `yaml:"short_wait_min"`
	ShortWaitBonus     float64 `yaml:"short_wait_bonus"`
	LongServiceMin     float64 `yaml:"long_service_min"`
	LongServicePenalty float64 `yaml:"long_service_penalty"`
}

// Profile is the full set of probability tables and adjustments that shape a
// generated dataset.
type Profile struct {
	Departments       []Weighted          `yaml:"departments"`
	InquiryTypes      map[string][]string `yaml:"inquiry_types"`
	Channels          []Weighted          `yaml:"channels"`
	Quarters          []QuarterSpec       `yaml:"quarters"`
	Days              []Weighted          `yaml:"days"`
	TimeSlots         []Weighted          `yaml:"time_slots"`
	StudentTypes      []Weighted          `yaml:"student_types"`
	Staff             []string            `yaml:"staff"`
	Resolutions       []Weighted          `yaml:"resolutions"`
	FirstContactBoost map[string]float64  `yaml:"first_contact_boost"`
	CallbackRate      float64             `yaml:"callback_rate"`
	Wait              WaitPolicy          `yaml:"wait"`
	Service           ServicePolicy       `yaml:"service"`
	Satisfaction      SatisfactionPolicy  `yaml:"satisfaction"`
}

// DefaultProfile returns the built-in tables of a university one-stop
// enrollment services center.
func DefaultProfile() Profile {
	catalog := types.DefaultCatalog()
	return Profile{
		Departments: []Weighted{
			{Name: string(types.DeptFinancialAid), Weight: 0.30},
			{Name: string(types.DeptRegistrar), Weight: 0.25},
			{Name: string(types.DeptBusinessService), Weight: 0.20},
			{Name: string(types.DeptAdmissions), Weight: 0.15},
			{Name: string(types.DeptGeneralInquiry), Weight: 0.10},
		},
		InquiryTypes: catalog.InquiryTypes,
		Channels: []Weighted{
			{Name: string(types.ChannelWalkIn), Weight: 0.45},
			{Name: string(types.ChannelPhone), Weight: 0.25},
			{Name: string(types.ChannelEmail), Weight: 0.20},
			{Name: string(types.ChannelVirtual), Weight: 0.10},
		},
		Quarters: []QuarterSpec{
			{Name: "Fall 2024", Weight: 0.35, Months: catalog.QuarterMonths["Fall 2024"]},
			{Name: "Winter 2025", Weight: 0.25, Months: catalog.QuarterMonths["Winter 2025"]},
			{Name: "Spring 2025", Weight: 0.25, Months: catalog.QuarterMonths["Spring 2025"]},
			{Name: "Summer 2025", Weight: 0.15, Months: catalog.QuarterMonths["Summer 2025"]},
		},
		Days: []Weighted{
			{Name: "Monday", Weight: 0.22},
			{Name: "Tuesday", Weight: 0.20},
			{Name: "Wednesday", Weight: 0.20},
			{Name: "Thursday", Weight: 0.20},
			{Name: "Friday", Weight: 0.18},
		},
		TimeSlots: []Weighted{
			{Name: "8-10 AM", Weight: 0.20},
			{Name: "10-12 PM", Weight: 0.35},
			{Name: "12-2 PM", Weight: 0.25},
			{Name: "2-4 PM", Weight: 0.20},
		},
		StudentTypes: []Weighted{
			{Name: "Undergraduate", Weight: 0.55},
			{Name: "Graduate", Weight: 0.20},
			{Name: "Prospective", Weight: 0.15},
			{Name: "Parent/Guardian", Weight: 0.10},
		},
		Staff: []string{"Staff A", "Staff B", "Staff C", "Staff D", "Staff E", "Staff F", "Staff G", "Staff H"},
		Resolutions: []Weighted{
			{Name: string(types.ResolvedFirstContact), Weight: 0.55},
			{Name: string(types.FollowUpRequired), Weight: 0.20},
			{Name: string(types.EscalatedToDept), Weight: 0.15},
			{Name: string(types.ReferredElsewhere), Weight: 0.10},
		},
		FirstContactBoost: map[string]float64{
			string(types.DeptGeneralInquiry): 0.15,
			string(types.DeptRegistrar):      0.05,
		},
		CallbackRate: 0.70,
		Wait: WaitPolicy{
			MeanBase:     8,
			ChannelBonus: map[string]float64{string(types.ChannelWalkIn): 5},
			PeakQuarter:  "Fall 2024",
			QuarterBonus: 4,
			PeakMonths:   []string{"Sep", "Jan"},
			MonthBonus:   3,
		},
		Service: ServicePolicy{
			Mean:   12,
			StdDev: 5,
			DepartmentBonus: map[string]float64{
				string(types.DeptFinancialAid):    5,
				string(types.DeptBusinessService): 3,
			},
			ChannelBonus: map[string]float64{string(types.ChannelEmail): -4},
		},
		Satisfaction: SatisfactionPolicy{
			Mean:               3.8,
			StdDev:             0.8,
			FirstContactBonus:  0.5,
			EscalationPenalty:  0.3,
			LongWaitMin:        20,
			LongWaitPenalty:    0.4,
			ShortWaitMin:       5,
			ShortWaitBonus:     0.3,
			LongServiceMin:     25,
			LongServicePenalty: 0.2,
		},
	}
}

// Catalog returns the inquiry types and quarter months a dataset generated
// from p may contain.
func (p Profile) Catalog() types.Catalog {
	c := types.Catalog{
		InquiryTypes:  make(map[string][]string, len(p.InquiryTypes)),
		QuarterMonths: make(map[string][]string, len(p.Quarters)),
	}
	for dept, inquiries := range p.InquiryTypes {
		c.InquiryTypes[dept] = inquiries
	}
	for _, q := range p.Quarters {
		c.QuarterMonths[q.Name] = q.Months
	}
	return c
}

// LoadProfile reads a YAML profile. Fields absent from the file keep their
// default values.
func LoadProfile(path string) (Profile, error) {
	p := DefaultProfile()

	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("failed to read profile %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// Validate rejects profiles with empty tables, non-positive weights or
// departments without inquiry types.
func (p Profile) Validate() error {
	tables := map[string][]Weighted{
		"departments":   p.Departments,
		"channels":      p.Channels,
		"days":          p.Days,
		"time_slots":    p.TimeSlots,
		"student_types": p.StudentTypes,
		"resolutions":   p.Resolutions,
	}
	for name, table := range tables {
		if err := validateWeights(name, table); err != nil {
			return err
		}
	}

	if len(p.Quarters) == 0 {
		return fmt.Errorf("%w: quarters is empty", ErrInvalidProfile)
	}
	for _, q := range p.Quarters {
		if q.Weight <= 0 {
			return fmt.Errorf("%w: quarter %q has weight %v", ErrInvalidProfile, q.Name, q.Weight)
		}
		if len(q.Months) == 0 {
			return fmt.Errorf("%w: quarter %q has no months", ErrInvalidProfile, q.Name)
		}
	}

	for _, d := range p.Departments {
		if len(p.InquiryTypes[d.Name]) == 0 {
			return fmt.Errorf("%w: department %q has no inquiry types", ErrInvalidProfile, d.Name)
		}
	}

	if len(p.Staff) == 0 {
		return fmt.Errorf("%w: staff is empty", ErrInvalidProfile)
	}
	if p.CallbackRate < 0 || p.CallbackRate > 1 {
		return fmt.Errorf("%w: callback_rate %v not in [0,1]", ErrInvalidProfile, p.CallbackRate)
	}
	if p.Wait.MeanBase <= 0 {
		return fmt.Errorf("%w: wait.mean_base must be positive", ErrInvalidProfile)
	}
	if p.Service.StdDev < 0 || p.Satisfaction.StdDev < 0 {
		return fmt.Errorf("%w: standard deviations must not be negative", ErrInvalidProfile)
	}

	hasFirstContact := false
	for _, r := range p.Resolutions {
		if r.Name == string(types.ResolvedFirstContact) {
			hasFirstContact = true
		}
	}
	if !hasFirstContact {
		return fmt.Errorf("%w: resolutions must include %q", ErrInvalidProfile, types.ResolvedFirstContact)
	}
	return nil
}

func validateWeights(name string, table []Weighted) error {
	if len(table) == 0 {
		return fmt.Errorf("%w: %s is empty", ErrInvalidProfile, name)
	}
	for _, w := range table {
		if w.Name == "" {
			return fmt.Errorf("%w: %s has an unnamed entry", ErrInvalidProfile, name)
		}
		if w.Weight <= 0 {
			return fmt.Errorf("%w: %s entry %q has weight %v", ErrInvalidProfile, name, w.Name, w.Weight)
		}
	}
	return nil
}
