package report

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/dennisdiepolder/studentops/internal/types"
)

// MemoryEngine runs queries by grouping the records in memory.
type MemoryEngine struct {
	records []types.Interaction
}

// NewMemoryEngine creates an engine over records. The slice is not copied and
// must not be modified while the engine is in use.
func NewMemoryEngine(records []types.Interaction) *MemoryEngine {
	return &MemoryEngine{records: records}
}

// Run groups, aggregates, filters and sorts according to q.
func (e *MemoryEngine) Run(ctx context.Context, q Query) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(q.GroupBy) == 0 {
		return nil, fmt.Errorf("%w: %s has no group columns", ErrUnknownQuery, q.Name)
	}

	groups := groupBy(e.records, q.GroupBy)

	rows := make([]Row, 0, len(groups))
	for _, g := range groups {
		if g.volume <= q.VolumeAbove {
			continue
		}
		rows = append(rows, g.row(len(e.records)))
	}
	SortRows(rows, q)

	return &Table{Query: q.Name, Title: q.Title, Columns: q.GroupBy, Rows: rows}, nil
}

// groupBy buckets records by the tuple of column values, keeping groups in
// order of first appearance.
func groupBy(records []types.Interaction, columns []Column) []*accumulator {
	index := make(map[string]*accumulator)
	order := make([]*accumulator, 0)

	for _, r := range records {
		key := make([]string, len(columns))
		for i, c := range columns {
			key[i] = c.Value(r)
		}
		id := strings.Join(key, "\x1f")

		acc, ok := index[id]
		if !ok {
			acc = newAccumulator(key)
			index[id] = acc
			order = append(order, acc)
		}
		acc.add(r)
	}
	return order
}

// accumulator tracks the running counts and sums of one group
type accumulator struct {
	key          []string
	firstID      int
	volume       int
	waitSum      float64
	serviceSum   float64
	satSum       float64
	firstContact int
	escalations  int
	callbacks    int
}

func newAccumulator(key []string) *accumulator {
	return &accumulator{key: key, firstID: math.MaxInt}
}

// add records an interaction in the group
func (a *accumulator) add(r types.Interaction) {
	a.volume++
	a.firstID = min(a.firstID, r.InquiryID)
	a.waitSum += r.WaitTimeMin
	a.serviceSum += r.ServiceTimeMin
	a.satSum += r.SatisfactionScore
	if r.FirstContact() {
		a.firstContact++
	}
	if r.Escalated {
		a.escalations++
	}
	if r.CallbackRequired {
		a.callbacks++
	}
}

// row snapshots the group as a result row. total is the size of the whole
// table and drives the share column.
func (a *accumulator) row(total int) Row {
	firstID := a.firstID
	if a.volume == 0 {
		firstID = 0
	}
	return Row{
		Key:             a.key,
		Volume:          a.volume,
		SharePct:        Percent(a.volume, total),
		AvgWait:         Average(a.waitSum, a.volume),
		AvgService:      Average(a.serviceSum, a.volume),
		FCRPct:          Percent(a.firstContact, a.volume),
		AvgSatisfaction: Average(a.satSum, a.volume),
		Escalations:     a.escalations,
		EscalationPct:   Percent(a.escalations, a.volume),
		FirstID:         firstID,
	}
}

// Average returns sum/n rounded to two decimals, or nil when n is zero.
func Average(sum float64, n int) *float64 {
	if n == 0 {
		return nil
	}
	v := Round(sum/float64(n), 2)
	return &v
}

// Percent returns 100*hits/n rounded to one decimal, or nil when n is zero.
func Percent(hits, n int) *float64 {
	if n == 0 {
		return nil
	}
	v := Round(100*float64(hits)/float64(n), 1)
	return &v
}

// Round rounds half away from zero to the given number of decimals.
func Round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}

// SortRows orders rows in place according to q. Missing metrics sort last and
// ties go to the group seen first.
func SortRows(rows []Row, q Query) {
	slices.SortStableFunc(rows, func(a, b Row) int {
		var c int
		switch q.Order {
		case OrderVolumeDesc:
			c = cmp.Compare(b.Volume, a.Volume)
		case OrderSatisfactionDesc:
			c = compareDesc(a.AvgSatisfaction, b.AvgSatisfaction)
		case OrderEscalationDesc:
			c = compareDesc(a.EscalationPct, b.EscalationPct)
		case OrderCalendar:
			c = compareCalendar(q.GroupBy, a.Key, b.Key)
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.FirstID, b.FirstID)
	})
}

func compareDesc(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return cmp.Compare(*b, *a)
}

func compareCalendar(columns []Column, a, b []string) int {
	for i, col := range columns {
		if i >= len(a) || i >= len(b) {
			break
		}
		if c := cmp.Compare(col.calendarRank(a[i]), col.calendarRank(b[i])); c != 0 {
			return c
		}
	}
	return 0
}
