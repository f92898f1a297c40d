package report

import (
	"context"
	"errors"
	"slices"

	"github.com/dennisdiepolder/studentops/internal/types"
)

// ErrUnknownQuery is returned by engines asked to run a query they do not know.
var ErrUnknownQuery = errors.New("unknown query")

// DefaultHotspotThreshold drops department and inquiry-type pairs with this
// many interactions or fewer from the escalation report.
const DefaultHotspotThreshold = 20

// Column is a groupable field of the interaction table
type Column string

const (
	ColDepartment  Column = "department"
	ColInquiryType Column = "inquiry_type"
	ColChannel     Column = "channel"
	ColDayOfWeek   Column = "day_of_week"
	ColTimeSlot    Column = "time_slot"
	ColStaffMember Column = "staff_member"
	ColResolution  Column = "resolution"
	ColQuarter     Column = "quarter"
)

// Value extracts the column from a record.
func (c Column) Value(r types.Interaction) string {
	switch c {
	case ColDepartment:
		return string(r.Department)
	case ColInquiryType:
		return r.InquiryType
	case ColChannel:
		return string(r.Channel)
	case ColDayOfWeek:
		return r.DayOfWeek
	case ColTimeSlot:
		return r.TimeSlot
	case ColStaffMember:
		return r.StaffMember
	case ColResolution:
		return string(r.Resolution)
	case ColQuarter:
		return r.Quarter
	}
	return ""
}

// calendarRank positions a value in its natural order. Columns without one
// rank everything equally.
func (c Column) calendarRank(v string) int {
	var order []string
	switch c {
	case ColQuarter:
		return types.QuarterRank(v)
	case ColDayOfWeek:
		order = types.Weekdays
	case ColTimeSlot:
		order = types.TimeSlots
	default:
		return 0
	}
	if i := slices.Index(order, v); i >= 0 {
		return i
	}
	return len(order)
}

// Order is the sort applied to a query result. Ties always fall back to the
// group whose first interaction came earliest.
type Order int

const (
	OrderVolumeDesc Order = iota
	OrderSatisfactionDesc
	OrderEscalationDesc
	OrderCalendar
)

// QueryName identifies one of the fixed reports
type QueryName string

const (
	QueryDepartmentKPIs     QueryName = "department_kpis"
	QueryChannelPerformance QueryName = "channel_performance"
	QueryPeakPeriods        QueryName = "peak_periods"
	QueryStaffPerformance   QueryName = "staff_performance"
	QueryResolutionOutcomes QueryName = "resolution_outcomes"
	QueryQuarterlyTrend     QueryName = "quarterly_trend"
	QueryEscalationHotspots QueryName = "escalation_hotspots"
)

// Query describes a grouped aggregate over the interaction table.
type Query struct {
	Name    QueryName `json:"name"`
	Title   string    `json:"title"`
	GroupBy []Column  `json:"groupBy"`
	Order   Order     `json:"order"`
	// VolumeAbove keeps only groups with more than this many interactions.
	VolumeAbove int `json:"volumeAbove"`
}

// Queries returns the fixed report set in presentation order.
func Queries(hotspotThreshold int) []Query {
	return []Query{
		{Name: QueryDepartmentKPIs, Title: "KPIs by Department", GroupBy: []Column{ColDepartment}, Order: OrderVolumeDesc},
		{Name: QueryChannelPerformance, Title: "Channel Performance", GroupBy: []Column{ColChannel}, Order: OrderVolumeDesc},
		{Name: QueryPeakPeriods, Title: "Peak Periods", GroupBy: []Column{ColDayOfWeek, ColTimeSlot}, Order: OrderVolumeDesc},
		{Name: QueryStaffPerformance, Title: "Staff Performance", GroupBy: []Column{ColStaffMember}, Order: OrderSatisfactionDesc},
		{Name: QueryResolutionOutcomes, Title: "Satisfaction by Resolution", GroupBy: []Column{ColResolution}, Order: OrderSatisfactionDesc},
		{Name: QueryQuarterlyTrend, Title: "Quarterly Trend", GroupBy: []Column{ColQuarter}, Order: OrderCalendar},
		{
			Name:        QueryEscalationHotspots,
			Title:       "Escalation Hotspots",
			GroupBy:     []Column{ColDepartment, ColInquiryType},
			Order:       OrderEscalationDesc,
			VolumeAbove: hotspotThreshold,
		},
	}
}

// Row is one group of a query result. Averages and rates are nil when the
// group is empty.
type Row struct {
	Key             []string `json:"key"`
	Volume          int      `json:"volume"`
	SharePct        *float64 `json:"sharePct"`
	AvgWait         *float64 `json:"avgWait"`
	AvgService      *float64 `json:"avgService"`
	FCRPct          *float64 `json:"fcrPct"`
	AvgSatisfaction *float64 `json:"avgSatisfaction"`
	Escalations     int      `json:"escalations"`
	EscalationPct   *float64 `json:"escalationPct"`
	// FirstID is the smallest inquiry id in the group, used to break ties.
	FirstID int `json:"-"`
}

// Table is the result of running a Query.
type Table struct {
	Query   QueryName `json:"query"`
	Title   string    `json:"title"`
	Columns []Column  `json:"columns"`
	Rows    []Row     `json:"rows"`
}

// Find returns the row with the given key.
func (t *Table) Find(key ...string) (Row, bool) {
	for _, r := range t.Rows {
		if slices.Equal(r.Key, key) {
			return r, true
		}
	}
	return Row{}, false
}

// TotalVolume sums the volume of every row.
func (t *Table) TotalVolume() int {
	total := 0
	for _, r := range t.Rows {
		total += r.Volume
	}
	return total
}

// Engine executes report queries over a loaded interaction table.
type Engine interface {
	Run(ctx context.Context, q Query) (*Table, error)
}
