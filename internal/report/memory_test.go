package report

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dennisdiepolder/studentops/internal/simulate"
	"github.com/dennisdiepolder/studentops/internal/types"
)

func generated(t *testing.T, n int) []types.Interaction {
	t.Helper()
	g, err := simulate.NewGenerator(simulate.DefaultProfile(), 42)
	require.NoError(t, err)
	records, err := g.Generate(n)
	require.NoError(t, err)
	return records
}

func interaction(id int, dept types.Department, res types.Resolution, sat float64) types.Interaction {
	return types.Interaction{
		InquiryID:         id,
		Department:        dept,
		InquiryType:       "General Question",
		Channel:           types.ChannelPhone,
		StudentType:       "Undergraduate",
		Quarter:           "Fall 2024",
		Month:             "Oct",
		DayOfWeek:         "Monday",
		TimeSlot:          "8-10 AM",
		StaffMember:       "Staff A",
		WaitTimeMin:       4,
		ServiceTimeMin:    10,
		Resolution:        res,
		Escalated:         res == types.EscalatedToDept,
		SatisfactionScore: sat,
	}
}

func queryByName(t *testing.T, name QueryName) Query {
	t.Helper()
	for _, q := range Queries(DefaultHotspotThreshold) {
		if q.Name == name {
			return q
		}
	}
	t.Fatalf("query %s not found", name)
	return Query{}
}

func TestQueriesCatalog(t *testing.T) {
	qs := Queries(DefaultHotspotThreshold)
	require.Len(t, qs, 7)

	seen := map[QueryName]bool{}
	for _, q := range qs {
		assert.False(t, seen[q.Name], "duplicate query %s", q.Name)
		seen[q.Name] = true
		assert.NotEmpty(t, q.GroupBy)
	}
	assert.Equal(t, DefaultHotspotThreshold, queryByName(t, QueryEscalationHotspots).VolumeAbove)
}

func TestDepartmentVolumesSumToTotal(t *testing.T) {
	records := generated(t, 3000)
	table, err := NewMemoryEngine(records).Run(context.Background(), queryByName(t, QueryDepartmentKPIs))
	require.NoError(t, err)

	assert.Equal(t, 3000, table.TotalVolume())
	for i := 1; i < len(table.Rows); i++ {
		assert.GreaterOrEqual(t, table.Rows[i-1].Volume, table.Rows[i].Volume, "rows must be ordered by volume")
	}
}

func TestDepartmentFCRPercent(t *testing.T) {
	records := generated(t, 3000)
	table, err := NewMemoryEngine(records).Run(context.Background(), queryByName(t, QueryDepartmentKPIs))
	require.NoError(t, err)

	for _, row := range table.Rows {
		first, total := 0, 0
		for _, r := range records {
			if string(r.Department) != row.Key[0] {
				continue
			}
			total++
			if r.FirstContact() {
				first++
			}
		}
		require.NotNil(t, row.FCRPct)
		assert.Equal(t, total, row.Volume)
		assert.Equal(t, Round(100*float64(first)/float64(total), 1), *row.FCRPct, row.Key[0])
	}
}

func TestEscalationHotspotsFilter(t *testing.T) {
	records := generated(t, 3000)
	q := queryByName(t, QueryEscalationHotspots)
	table, err := NewMemoryEngine(records).Run(context.Background(), q)
	require.NoError(t, err)

	counts := map[[2]string]int{}
	for _, r := range records {
		counts[[2]string{string(r.Department), r.InquiryType}]++
	}
	kept := 0
	for _, n := range counts {
		if n > 20 {
			kept++
		}
	}

	assert.Len(t, table.Rows, kept)
	for _, row := range table.Rows {
		assert.Greater(t, row.Volume, 20)
	}
	for i := 1; i < len(table.Rows); i++ {
		assert.GreaterOrEqual(t, *table.Rows[i-1].EscalationPct, *table.Rows[i].EscalationPct)
	}
}

func TestHotspotThresholdBoundary(t *testing.T) {
	var records []types.Interaction
	id := 1
	for i := 0; i < 20; i++ {
		records = append(records, interaction(id, types.DeptRegistrar, types.EscalatedToDept, 2))
		id++
	}
	for i := 0; i < 21; i++ {
		records = append(records, interaction(id, types.DeptAdmissions, types.ResolvedFirstContact, 4))
		id++
	}

	table, err := NewMemoryEngine(records).Run(context.Background(), queryByName(t, QueryEscalationHotspots))
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, []string{string(types.DeptAdmissions), "General Question"}, table.Rows[0].Key)
}

func TestAllFirstContactGroup(t *testing.T) {
	records := []types.Interaction{
		interaction(1, types.DeptRegistrar, types.ResolvedFirstContact, 5),
		interaction(2, types.DeptRegistrar, types.ResolvedFirstContact, 5),
		interaction(3, types.DeptRegistrar, types.ResolvedFirstContact, 5),
	}

	table, err := NewMemoryEngine(records).Run(context.Background(), queryByName(t, QueryDepartmentKPIs))
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)

	row := table.Rows[0]
	assert.Equal(t, 3, row.Volume)
	assert.Equal(t, 100.0, *row.FCRPct)
	assert.Equal(t, 5.00, *row.AvgSatisfaction)
	assert.Equal(t, 100.0, *row.SharePct)
	assert.Equal(t, 0.0, *row.EscalationPct)
}

func TestTiesKeepFirstAppearance(t *testing.T) {
	records := []types.Interaction{
		interaction(1, types.DeptAdmissions, types.ResolvedFirstContact, 4),
		interaction(2, types.DeptRegistrar, types.ResolvedFirstContact, 4),
		interaction(3, types.DeptFinancialAid, types.ResolvedFirstContact, 4),
		interaction(4, types.DeptFinancialAid, types.ResolvedFirstContact, 4),
	}

	table, err := NewMemoryEngine(records).Run(context.Background(), queryByName(t, QueryDepartmentKPIs))
	require.NoError(t, err)

	var keys []string
	for _, r := range table.Rows {
		keys = append(keys, r.Key[0])
	}
	assert.Equal(t, []string{"Financial Aid", "Admissions", "Registrar"}, keys)
}

func TestSatisfactionOrder(t *testing.T) {
	records := []types.Interaction{
		interaction(1, types.DeptRegistrar, types.FollowUpRequired, 3),
		interaction(2, types.DeptRegistrar, types.ResolvedFirstContact, 5),
		interaction(3, types.DeptRegistrar, types.EscalatedToDept, 2),
	}

	table, err := NewMemoryEngine(records).Run(context.Background(), queryByName(t, QueryResolutionOutcomes))
	require.NoError(t, err)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, string(types.ResolvedFirstContact), table.Rows[0].Key[0])
	assert.Equal(t, string(types.EscalatedToDept), table.Rows[2].Key[0])
}

func TestQuarterlyTrendCalendarOrder(t *testing.T) {
	records := generated(t, 1000)
	table, err := NewMemoryEngine(records).Run(context.Background(), queryByName(t, QueryQuarterlyTrend))
	require.NoError(t, err)

	var keys []string
	for _, r := range table.Rows {
		keys = append(keys, r.Key[0])
	}
	assert.Equal(t, types.Quarters, keys)
}

func TestSortRowsNilLast(t *testing.T) {
	v := 4.0
	rows := []Row{
		{Key: []string{"empty"}, FirstID: 1},
		{Key: []string{"scored"}, AvgSatisfaction: &v, FirstID: 2},
	}
	SortRows(rows, Query{Order: OrderSatisfactionDesc})
	assert.Equal(t, "scored", rows[0].Key[0])
}

func TestRunRejectsEmptyGroupBy(t *testing.T) {
	_, err := NewMemoryEngine(nil).Run(context.Background(), Query{Name: "broken"})
	assert.True(t, errors.Is(err, ErrUnknownQuery))
}

func TestRunHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMemoryEngine(nil).Run(ctx, queryByName(t, QueryDepartmentKPIs))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAverageAndPercentEmpty(t *testing.T) {
	assert.Nil(t, Average(10, 0))
	assert.Nil(t, Percent(0, 0))
	assert.Equal(t, 33.3, *Percent(1, 3))
	assert.Equal(t, 2.67, *Average(8, 3))
}
