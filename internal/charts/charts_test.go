package charts

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dennisdiepolder/studentops/internal/report"
	"github.com/dennisdiepolder/studentops/internal/simulate"
	"github.com/dennisdiepolder/studentops/internal/types"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func summary(t *testing.T, n int) *report.Summary {
	t.Helper()
	g, err := simulate.NewGenerator(simulate.DefaultProfile(), 42)
	require.NoError(t, err)
	records, err := g.Generate(n)
	require.NoError(t, err)

	b := report.NewBuilder(report.NewMemoryEngine(records), report.Options{HotspotThreshold: report.DefaultHotspotThreshold}, zerolog.Nop())
	s, err := b.Build(context.Background(), records)
	require.NoError(t, err)
	return s
}

func TestBuildCharts(t *testing.T) {
	s := summary(t, 1000)
	charts := Build(s)
	require.Len(t, charts, 9)

	files := map[string]Chart{}
	for _, c := range charts {
		require.NotEmpty(t, c.Series, c.File)
		for _, series := range c.Series {
			assert.Len(t, series.Values, len(c.Labels), c.File)
		}
		files[c.File] = c
	}
	assert.Len(t, files["wait_by_department.png"].Labels, 5)
	assert.Len(t, files["satisfaction_by_wait.png"].Labels, len(report.WaitBuckets))
	assert.Len(t, files["channel_wait_service.png"].Series, 2)
	assert.Len(t, files["staff_performance.png"].Series, 3)
}

func TestStaffChartScalesSatisfaction(t *testing.T) {
	s := summary(t, 1000)
	staff := s.Table(report.QueryStaffPerformance)
	require.NotNil(t, staff)

	var chart Chart
	for _, c := range Build(s) {
		if c.File == "staff_performance.png" {
			chart = c
		}
	}
	require.Len(t, chart.Series, 3)
	for i, r := range staff.Rows {
		assert.Equal(t, *r.FCRPct, chart.Series[0].Values[i])
		assert.InDelta(t, *r.AvgSatisfaction*20, chart.Series[1].Values[i], 1e-9)
		assert.Equal(t, *r.EscalationPct, chart.Series[2].Values[i])
	}
}

func TestVolumeHeatmap(t *testing.T) {
	rows := []report.Row{
		{Key: []string{"Tuesday", "10-12 PM"}, Volume: 12},
		{Key: []string{"Monday", "8-10 AM"}, Volume: 3},
	}
	c := volumeHeatmap(rows)

	assert.Equal(t, types.Weekdays, c.Labels)
	require.Len(t, c.Series, len(types.TimeSlots))
	assert.Equal(t, "8-10 AM", c.Series[0].Name)
	assert.Equal(t, []float64{3, 0, 0, 0, 0}, c.Series[0].Values)
	assert.Equal(t, []float64{0, 12, 0, 0, 0}, c.Series[1].Values)

	total := 0.0
	for _, s := range c.Series {
		for _, v := range s.Values {
			total += v
		}
	}
	assert.Equal(t, 15.0, total)

	assert.Empty(t, volumeHeatmap(nil).Labels)
}

func TestVolumeHeatmapMatchesPeakPeriods(t *testing.T) {
	s := summary(t, 1000)
	c := volumeHeatmap(s.Table(report.QueryPeakPeriods).Rows)

	total := 0.0
	for _, series := range c.Series {
		for _, v := range series.Values {
			total += v
		}
	}
	assert.Equal(t, 1000.0, total)
}

func TestFromRowsNilIsZero(t *testing.T) {
	score := 4.5
	rows := []report.Row{
		{Key: []string{"a"}, AvgSatisfaction: &score},
		{Key: []string{"b", "c"}},
	}
	c := fromRows("x.png", "X", "Y", rows, metric{fn: avgSatisfaction})

	assert.Equal(t, []string{"a", "b / c"}, c.Labels)
	require.Len(t, c.Series, 1)
	assert.Equal(t, []float64{4.5, 0}, c.Series[0].Values)
}

func TestWriterWritesPNGs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dashboards")
	paths, err := NewWriter(dir, zerolog.Nop()).Write(summary(t, 1000))
	require.NoError(t, err)
	require.Len(t, paths, 9)

	for _, p := range paths {
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, pngMagic), p)
	}
}

func TestWriterSkipsEmptyCharts(t *testing.T) {
	paths, err := NewWriter(t.TempDir(), zerolog.Nop()).Write(&report.Summary{})
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestWriterErrors(t *testing.T) {
	_, err := NewWriter("", zerolog.Nop()).Write(&report.Summary{})
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "taken")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = NewWriter(filepath.Join(file, "sub"), zerolog.Nop()).Write(&report.Summary{})
	assert.Error(t, err)
}

func TestRenderRejectsBadCharts(t *testing.T) {
	tests := []struct {
		name  string
		chart Chart
	}{
		{name: "no series", chart: Chart{File: "bad.png", Labels: []string{"a"}}},
		{
			name:  "mismatched labels",
			chart: Chart{File: "bad.png", Labels: []string{"a"}, Series: []Series{{Values: []float64{1, 2}}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, Render(tt.chart, filepath.Join(t.TempDir(), "bad.png")))
		})
	}
}

func TestRenderGroupedChart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grouped.png")
	c := Chart{
		File:   "grouped.png",
		Labels: []string{"Walk-In", "Email"},
		Series: []Series{
			{Name: "Avg Wait", Values: []float64{14.2, 8.1}},
			{Name: "Avg Service", Values: []float64{12.5, 8.4}},
		},
	}
	require.NoError(t, Render(c, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngMagic))
}
