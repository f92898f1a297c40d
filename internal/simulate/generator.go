package simulate

import (
	"fmt"
	"math"
	"math/rand"
	"slices"

	"github.com/dennisdiepolder/studentops/internal/types"
)

// Generator creates synthetic student-service interactions
type Generator struct {
	profile     Profile
	rng         *rand.Rand
	quarters    []Weighted
	resolutions map[string][]Weighted // per department, first-contact boost applied
}

// NewGenerator creates a generator for the given profile. The same seed always
// yields the same dataset.
func NewGenerator(profile Profile, seed int64) (*Generator, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	quarters := make([]Weighted, len(profile.Quarters))
	for i, q := range profile.Quarters {
		quarters[i] = Weighted{Name: q.Name, Weight: q.Weight}
	}

	resolutions := make(map[string][]Weighted, len(profile.Departments))
	for _, d := range profile.Departments {
		resolutions[d.Name] = boostFirstContact(profile.Resolutions, profile.FirstContactBoost[d.Name])
	}

	return &Generator{
		profile:     profile,
		rng:         rand.New(rand.NewSource(seed)),
		quarters:    quarters,
		resolutions: resolutions,
	}, nil
}

// Generate creates n interactions with sequential inquiry ids starting at
// types.FirstInquiryID.
func (g *Generator) Generate(n int) ([]types.Interaction, error) {
	if n <= 0 {
		return nil, fmt.Errorf("record count must be positive, got %d", n)
	}

	records := make([]types.Interaction, n)
	for i := 0; i < n; i++ {
		records[i] = g.next(types.FirstInquiryID + i)
	}
	return records, nil
}

// next draws a single interaction. Categorical fields come first because the
// numeric fields depend on them.
func (g *Generator) next(id int) types.Interaction {
	p := g.profile

	dept := pickWeighted(g.rng, p.Departments)
	channel := pickWeighted(g.rng, p.Channels)
	quarter := pickWeighted(g.rng, g.quarters)
	month := g.pickMonth(quarter)

	rec := types.Interaction{
		InquiryID:   id,
		Department:  types.Department(dept),
		InquiryType: pickUniform(g.rng, p.InquiryTypes[dept]),
		Channel:     types.Channel(channel),
		StudentType: pickWeighted(g.rng, p.StudentTypes),
		Quarter:     quarter,
		Month:       month,
		DayOfWeek:   pickWeighted(g.rng, p.Days),
		TimeSlot:    pickWeighted(g.rng, p.TimeSlots),
		StaffMember: pickUniform(g.rng, p.Staff),
	}

	rec.WaitTimeMin = g.waitTime(channel, quarter, month)
	rec.ServiceTimeMin = g.serviceTime(dept, channel)

	rec.Resolution = types.Resolution(pickWeighted(g.rng, g.resolutions[dept]))
	rec.Escalated = rec.Resolution == types.EscalatedToDept
	if rec.Resolution == types.FollowUpRequired {
		rec.CallbackRequired = g.rng.Float64() < p.CallbackRate
	}

	rec.SatisfactionScore = g.satisfaction(rec)
	return rec
}

func (g *Generator) pickMonth(quarter string) string {
	for _, q := range g.profile.Quarters {
		if q.Name == quarter {
			return pickUniform(g.rng, q.Months)
		}
	}
	return ""
}

// waitTime is exponential around the base mean, shifted up for busy channels,
// the peak quarter and the peak months.
func (g *Generator) waitTime(channel, quarter, month string) float64 {
	w := g.profile.Wait
	v := g.rng.ExpFloat64()*w.MeanBase + w.ChannelBonus[channel]
	if quarter == w.PeakQuarter {
		v += w.QuarterBonus
	}
	if slices.Contains(w.PeakMonths, month) {
		v += w.MonthBonus
	}
	return round1(clamp(v, 0, types.MaxWaitMin))
}

func (g *Generator) serviceTime(dept, channel string) float64 {
	s := g.profile.Service
	v := g.rng.NormFloat64()*s.StdDev + s.Mean + s.DepartmentBonus[dept] + s.ChannelBonus[channel]
	return round1(clamp(v, types.MinServiceMin, types.MaxServiceMin))
}

// satisfaction is a noisy score whose mean rises with first-contact resolution
// and short waits, and falls with escalation, long waits and long service.
func (g *Generator) satisfaction(rec types.Interaction) float64 {
	s := g.profile.Satisfaction
	v := g.rng.NormFloat64()*s.StdDev + s.Mean

	switch rec.Resolution {
	case types.ResolvedFirstContact:
		v += s.FirstContactBonus
	case types.EscalatedToDept:
		v -= s.EscalationPenalty
	}
	if rec.WaitTimeMin > s.LongWaitMin {
		v -= s.LongWaitPenalty
	}
	if rec.WaitTimeMin < s.ShortWaitMin {
		v += s.ShortWaitBonus
	}
	if rec.ServiceTimeMin > s.LongServiceMin {
		v -= s.LongServicePenalty
	}
	return round1(clamp(v, types.MinSatisfaction, types.MaxSatisfaction))
}

// boostFirstContact raises the first-contact share of a resolution table by
// boost and scales the other outcomes down so the table still sums to one.
func boostFirstContact(table []Weighted, boost float64) []Weighted {
	var total, first float64
	for _, w := range table {
		total += w.Weight
		if w.Name == string(types.ResolvedFirstContact) {
			first += w.Weight
		}
	}

	base := first / total
	target := clamp(base+boost, 0, 1)

	out := make([]Weighted, len(table))
	for i, w := range table {
		p := w.Weight / total
		switch {
		case w.Name == string(types.ResolvedFirstContact):
			p = target
		case base < 1:
			p *= (1 - target) / (1 - base)
		}
		out[i] = Weighted{Name: w.Name, Weight: p}
	}
	return out
}

// pickWeighted selects a label based on the configured weights.
func pickWeighted(rng *rand.Rand, table []Weighted) string {
	if len(table) == 0 {
		return ""
	}

	var total float64
	for _, w := range table {
		total += w.Weight
	}

	r := rng.Float64() * total
	for _, w := range table {
		r -= w.Weight
		if r < 0 {
			return w.Name
		}
	}
	return table[len(table)-1].Name
}

func pickUniform(rng *rand.Rand, items []string) string {
	if len(items) == 0 {
		return ""
	}
	return items[rng.Intn(len(items))]
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
