package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/dennisdiepolder/studentops/internal/stats"
	"github.com/dennisdiepolder/studentops/internal/types"
)

// Summary is everything a report run produces.
type Summary struct {
	RunID              string                  `json:"runId"`
	GeneratedAt        time.Time               `json:"generatedAt"`
	Engine             string                  `json:"engine"`
	Source             string                  `json:"source,omitempty"`
	Overview           Overview                `json:"overview"`
	Tables             []*Table                `json:"tables"`
	VolumeByDay        []Row                   `json:"volumeByDay"`
	VolumeByTimeSlot   []Row                   `json:"volumeByTimeSlot"`
	SatisfactionByWait []Row                   `json:"satisfactionByWait"`
	FirstContactTest   stats.TTestResult       `json:"firstContactTest"`
	WaitSatisfaction   stats.CorrelationResult `json:"waitSatisfaction"`
	Findings           Findings                `json:"findings"`
}

// Table returns the result of the named query, or nil.
func (s *Summary) Table(name QueryName) *Table {
	for _, t := range s.Tables {
		if t.Query == name {
			return t
		}
	}
	return nil
}

// WriteJSON writes the summary as indented JSON, creating the parent directory.
func (s *Summary) WriteJSON(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create summary directory: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

// Options tune a report run.
type Options struct {
	RunID            string
	EngineName       string
	Source           string
	Alpha            float64
	HotspotThreshold int
}

// Builder runs the fixed queries and statistics over a dataset
type Builder struct {
	engine Engine
	opts   Options
	logger zerolog.Logger
}

// NewBuilder creates a builder that sends grouped queries to engine.
func NewBuilder(engine Engine, opts Options, logger zerolog.Logger) *Builder {
	if opts.Alpha <= 0 {
		opts.Alpha = stats.DefaultAlpha
	}
	return &Builder{engine: engine, opts: opts, logger: logger}
}

// Build produces the summary for records. Engine and query errors are fatal;
// empty groups and underpowered tests are reported in the summary instead.
func (b *Builder) Build(ctx context.Context, records []types.Interaction) (*Summary, error) {
	start := time.Now()
	s := &Summary{
		RunID:       b.opts.RunID,
		GeneratedAt: start.UTC(),
		Engine:      b.opts.EngineName,
		Source:      b.opts.Source,
		Overview:    BuildOverview(records),
	}

	for _, q := range Queries(b.opts.HotspotThreshold) {
		t, err := b.engine.Run(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", q.Name, err)
		}
		b.logger.Debug().
			Str("query", string(q.Name)).
			Int("rows", len(t.Rows)).
			Msg("query complete")
		s.Tables = append(s.Tables, t)
	}

	s.VolumeByDay = VolumeByCategory(records, ColDayOfWeek, types.Weekdays)
	s.VolumeByTimeSlot = VolumeByCategory(records, ColTimeSlot, types.TimeSlots)
	s.SatisfactionByWait = SatisfactionByWait(records)

	var fcr, other, wait, sat []float64
	for _, r := range records {
		if r.FirstContact() {
			fcr = append(fcr, r.SatisfactionScore)
		} else {
			other = append(other, r.SatisfactionScore)
		}
		wait = append(wait, r.WaitTimeMin)
		sat = append(sat, r.SatisfactionScore)
	}
	s.FirstContactTest = stats.TTest(fcr, other, b.opts.Alpha)
	s.WaitSatisfaction = stats.Pearson(wait, sat, b.opts.Alpha)

	if s.FirstContactTest.Inconclusive {
		b.logger.Warn().Str("reason", s.FirstContactTest.Reason).Msg("first contact t-test inconclusive")
	}
	if s.WaitSatisfaction.Inconclusive {
		b.logger.Warn().Str("reason", s.WaitSatisfaction.Reason).Msg("wait/satisfaction correlation inconclusive")
	}

	s.Findings = BuildFindings(s)

	b.logger.Info().
		Str("run_id", s.RunID).
		Int("records", len(records)).
		Int("tables", len(s.Tables)).
		Dur("elapsed", time.Since(start)).
		Msg("report built")
	return s, nil
}
