package report

import (
	"slices"

	"github.com/dennisdiepolder/studentops/internal/types"
)

// Overview is the headline KPI block of the dashboard.
type Overview struct {
	Total           int      `json:"total"`
	Departments     int      `json:"departments"`
	Channels        []string `json:"channels"`
	Quarters        int      `json:"quarters"`
	AvgWait         *float64 `json:"avgWait"`
	AvgService      *float64 `json:"avgService"`
	FCRPct          *float64 `json:"fcrPct"`
	EscalationPct   *float64 `json:"escalationPct"`
	CallbackPct     *float64 `json:"callbackPct"`
	AvgSatisfaction *float64 `json:"avgSatisfaction"`
}

// BuildOverview computes the headline KPIs over every record.
func BuildOverview(records []types.Interaction) Overview {
	acc := newAccumulator(nil)
	depts := map[types.Department]bool{}
	quarters := map[string]bool{}
	var channels []string

	for _, r := range records {
		acc.add(r)
		depts[r.Department] = true
		quarters[r.Quarter] = true
		if !slices.Contains(channels, string(r.Channel)) {
			channels = append(channels, string(r.Channel))
		}
	}

	row := acc.row(len(records))
	return Overview{
		Total:           len(records),
		Departments:     len(depts),
		Channels:        channels,
		Quarters:        len(quarters),
		AvgWait:         row.AvgWait,
		AvgService:      row.AvgService,
		FCRPct:          row.FCRPct,
		EscalationPct:   row.EscalationPct,
		CallbackPct:     Percent(acc.callbacks, acc.volume),
		AvgSatisfaction: row.AvgSatisfaction,
	}
}

// VolumeByCategory groups records by column and lists the groups in the given
// order. Categories with no interactions are kept with zero volume and nil
// averages; values missing from order follow in order of first appearance.
func VolumeByCategory(records []types.Interaction, column Column, order []string) []Row {
	groups := groupBy(records, []Column{column})
	byKey := make(map[string]*accumulator, len(groups))
	for _, g := range groups {
		byKey[g.key[0]] = g
	}

	rows := make([]Row, 0, len(order)+len(groups))
	for _, v := range order {
		g, ok := byKey[v]
		if !ok {
			g = newAccumulator([]string{v})
		}
		rows = append(rows, g.row(len(records)))
	}
	for _, g := range groups {
		if !slices.Contains(order, g.key[0]) {
			rows = append(rows, g.row(len(records)))
		}
	}
	return rows
}

// WaitBucket is a right-closed wait time range in minutes. The first bucket
// also includes zero.
type WaitBucket struct {
	Label string
	Lo    float64
	Hi    float64
}

// WaitBuckets are the satisfaction-by-wait ranges.
var WaitBuckets = []WaitBucket{
	{Label: "0-5 min", Lo: 0, Hi: 5},
	{Label: "5-10 min", Lo: 5, Hi: 10},
	{Label: "10-15 min", Lo: 10, Hi: 15},
	{Label: "15-20 min", Lo: 15, Hi: 20},
	{Label: "20+ min", Lo: 20, Hi: 50},
}

// bucketFor returns the index of the bucket holding wait, or -1.
func bucketFor(wait float64) int {
	for i, b := range WaitBuckets {
		if wait <= b.Hi && (wait > b.Lo || (i == 0 && wait == b.Lo)) {
			return i
		}
	}
	return -1
}

// SatisfactionByWait reports volume and average satisfaction per wait bucket.
// Empty buckets are kept with nil averages.
func SatisfactionByWait(records []types.Interaction) []Row {
	accs := make([]*accumulator, len(WaitBuckets))
	for i, b := range WaitBuckets {
		accs[i] = newAccumulator([]string{b.Label})
	}
	for _, r := range records {
		if i := bucketFor(r.WaitTimeMin); i >= 0 {
			accs[i].add(r)
		}
	}

	rows := make([]Row, len(accs))
	for i, a := range accs {
		rows[i] = a.row(len(records))
	}
	return rows
}

// Peak returns the row with the highest volume, preferring the earliest row
// on ties. ok is false when rows is empty.
func Peak(rows []Row) (Row, bool) {
	if len(rows) == 0 {
		return Row{}, false
	}
	best := rows[0]
	for _, r := range rows[1:] {
		if r.Volume > best.Volume {
			best = r
		}
	}
	return best, true
}
