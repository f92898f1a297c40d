// Package charts renders the report summary as PNG bar charts.
package charts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/dennisdiepolder/studentops/internal/report"
	"github.com/dennisdiepolder/studentops/internal/types"
)

// Series is one set of bars sharing a color. An unnamed series gets no
// legend entry.
type Series struct {
	Name   string
	Values []float64
}

// Chart is one bar chart of the dashboard. With several series the bars of
// each label are drawn side by side.
type Chart struct {
	File   string
	Title  string
	YLabel string
	Labels []string
	Series []Series
}

const (
	chartWidth  = 8 * vg.Inch
	chartHeight = 4.5 * vg.Inch
	groupWidth  = 36
)

// Writer renders dashboards into a directory.
type Writer struct {
	dir    string
	logger zerolog.Logger
}

// NewWriter creates a writer for dir.
func NewWriter(dir string, logger zerolog.Logger) *Writer {
	return &Writer{dir: dir, logger: logger}
}

// Write renders every chart built from s and returns the written paths.
// Charts without data are skipped.
func (w *Writer) Write(s *report.Summary) ([]string, error) {
	if w.dir == "" {
		return nil, errors.New("dashboard directory is empty")
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create dashboard directory: %w", err)
	}

	var paths []string
	for _, c := range Build(s) {
		if len(c.Labels) == 0 {
			w.logger.Warn().Str("chart", c.File).Msg("no data, chart skipped")
			continue
		}
		path := filepath.Join(w.dir, c.File)
		if err := Render(c, path); err != nil {
			return paths, err
		}
		w.logger.Debug().Str("path", path).Int("groups", len(c.Labels)).Int("series", len(c.Series)).Msg("chart written")
		paths = append(paths, path)
	}

	w.logger.Info().Str("dir", w.dir).Int("charts", len(paths)).Msg("dashboards written")
	return paths, nil
}

// Build lays out the dashboard charts for s.
func Build(s *report.Summary) []Chart {
	depts := rowsOf(s, report.QueryDepartmentKPIs)
	channels := rowsOf(s, report.QueryChannelPerformance)
	staff := rowsOf(s, report.QueryStaffPerformance)

	return []Chart{
		fromRows("wait_by_department.png", "Average Wait Time by Department", "Minutes", depts,
			metric{fn: avgWait}),
		fromRows("fcr_by_department.png", "First Contact Resolution by Department", "FCR %", depts,
			metric{fn: fcrPct}),
		fromRows("satisfaction_by_department.png", "Satisfaction by Department", "Score (1-5)", depts,
			metric{fn: avgSatisfaction}),
		volumeHeatmap(rowsOf(s, report.QueryPeakPeriods)),
		fromRows("channel_volume.png", "Interactions by Channel", "Interactions", channels,
			metric{fn: volume}),
		fromRows("channel_wait_service.png", "Wait vs Service Time by Channel", "Minutes", channels,
			metric{name: "Avg Wait", fn: avgWait},
			metric{name: "Avg Service", fn: avgService}),
		fromRows("staff_performance.png", "Staff Performance", "Percent", staff,
			metric{name: "FCR %", fn: fcrPct},
			metric{name: "Satisfaction x20", fn: scaled(avgSatisfaction, 20)},
			metric{name: "Escalation %", fn: escalationPct}),
		fromRows("satisfaction_by_resolution.png", "Satisfaction by Resolution", "Score (1-5)", rowsOf(s, report.QueryResolutionOutcomes),
			metric{fn: avgSatisfaction}),
		fromRows("satisfaction_by_wait.png", "Satisfaction by Wait Time", "Score (1-5)", s.SatisfactionByWait,
			metric{fn: avgSatisfaction}),
	}
}

type metric struct {
	name string
	fn   func(report.Row) *float64
}

func avgWait(r report.Row) *float64         { return r.AvgWait }
func avgService(r report.Row) *float64      { return r.AvgService }
func fcrPct(r report.Row) *float64          { return r.FCRPct }
func avgSatisfaction(r report.Row) *float64 { return r.AvgSatisfaction }
func escalationPct(r report.Row) *float64   { return r.EscalationPct }

func volume(r report.Row) *float64 {
	v := float64(r.Volume)
	return &v
}

func scaled(fn func(report.Row) *float64, factor float64) func(report.Row) *float64 {
	return func(r report.Row) *float64 {
		v := fn(r)
		if v == nil {
			return nil
		}
		out := *v * factor
		return &out
	}
}

func rowsOf(s *report.Summary, name report.QueryName) []report.Row {
	if t := s.Table(name); t != nil {
		return t.Rows
	}
	return nil
}

// fromRows takes one label per row and one series per metric. Missing values
// are drawn as zero.
func fromRows(file, title, ylabel string, rows []report.Row, metrics ...metric) Chart {
	c := Chart{File: file, Title: title, YLabel: ylabel}
	for _, r := range rows {
		c.Labels = append(c.Labels, strings.Join(r.Key, " / "))
	}
	for _, m := range metrics {
		series := Series{Name: m.name, Values: make([]float64, len(rows))}
		for i, r := range rows {
			if v := m.fn(r); v != nil {
				series.Values[i] = *v
			}
		}
		c.Series = append(c.Series, series)
	}
	return c
}

// volumeHeatmap draws the day by time slot volume grid as bars grouped by
// day, one series per time slot. Slots with no interactions are zero.
func volumeHeatmap(rows []report.Row) Chart {
	c := Chart{File: "volume_by_day_slot.png", Title: "Interactions by Day and Time Slot", YLabel: "Interactions"}
	if len(rows) == 0 {
		return c
	}

	counts := make(map[[2]string]int, len(rows))
	for _, r := range rows {
		if len(r.Key) == 2 {
			counts[[2]string{r.Key[0], r.Key[1]}] = r.Volume
		}
	}

	c.Labels = append(c.Labels, types.Weekdays...)
	for _, slot := range types.TimeSlots {
		series := Series{Name: slot, Values: make([]float64, len(types.Weekdays))}
		for i, day := range types.Weekdays {
			series.Values[i] = float64(counts[[2]string{day, slot}])
		}
		c.Series = append(c.Series, series)
	}
	return c
}

// Render draws c and saves it to path. The format follows the extension.
func Render(c Chart, path string) error {
	if len(c.Series) == 0 {
		return fmt.Errorf("chart %s: no series", c.File)
	}
	for _, s := range c.Series {
		if len(s.Values) != len(c.Labels) {
			return fmt.Errorf("chart %s: %d labels for %d values in %q", c.File, len(c.Labels), len(s.Values), s.Name)
		}
	}

	p := plot.New()
	p.Title.Text = c.Title
	p.Y.Label.Text = c.YLabel
	p.Y.Min = 0
	p.Legend.Top = true

	width := vg.Points(groupWidth) / vg.Length(len(c.Series))
	for i, s := range c.Series {
		bars, err := plotter.NewBarChart(plotter.Values(s.Values), width)
		if err != nil {
			return fmt.Errorf("chart %s: %w", c.File, err)
		}
		bars.LineStyle.Width = vg.Length(0)
		bars.Color = plotutil.Color(i)
		bars.Offset = width * vg.Length(2*i-len(c.Series)+1) / 2
		p.Add(bars)
		if s.Name != "" {
			p.Legend.Add(s.Name, bars)
		}
	}
	p.NominalX(c.Labels...)

	if err := p.Save(chartWidth, chartHeight, path); err != nil {
		return fmt.Errorf("failed to save chart %s: %w", c.File, err)
	}
	return nil
}
