// Package dataset reads and writes the flat interaction file shared by the
// generator and the reports.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"

	"github.com/dennisdiepolder/studentops/internal/types"
)

// ErrMissingColumn is returned when the input file lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// Columns is the header of the interaction file, in order.
var Columns = []string{
	"inquiry_id",
	"department",
	"inquiry_type",
	"channel",
	"student_type",
	"quarter",
	"month",
	"day_of_week",
	"time_slot",
	"staff_member",
	"wait_time_min",
	"service_time_min",
	"resolution",
	"escalated",
	"callback_required",
	"satisfaction_score",
}

// Write encodes records as CSV with a header row.
func Write(w io.Writer, records []types.Interaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(encode(r)); err != nil {
			return fmt.Errorf("failed to write record %d: %w", r.InquiryID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes records to path, creating the parent directory.
func WriteFile(path string, records []types.Interaction) (err error) {
	if strings.TrimSpace(path) == "" {
		return errors.New("output path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return Write(f, records)
}

// Read decodes an interaction file and validates it against the built-in
// catalog.
func Read(r io.Reader) ([]types.Interaction, error) {
	return ReadWithCatalog(r, types.DefaultCatalog())
}

// ReadWithCatalog decodes an interaction file and validates every record
// against c.
func ReadWithCatalog(r io.Reader, c types.Catalog) ([]types.Interaction, error) {
	// Categorical labels such as "NA" are data, not missing values.
	df := dataframe.ReadCSV(r,
		dataframe.DetectTypes(false),
		dataframe.HasHeader(true),
		dataframe.NaNValues(nil),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", df.Err)
	}

	present := make(map[string]bool, df.Ncol())
	for _, name := range df.Names() {
		present[name] = true
	}
	cols := make(map[string][]string, len(Columns))
	for _, name := range Columns {
		if !present[name] {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
		cols[name] = df.Col(name).Records()
	}

	records := make([]types.Interaction, df.Nrow())
	for i := range records {
		row := make(map[string]string, len(Columns))
		for _, name := range Columns {
			row[name] = strings.TrimSpace(cols[name][i])
		}
		rec, err := decode(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		if err := rec.ValidateIn(c); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		records[i] = rec
	}
	return records, nil
}

// ReadFile opens path and reads it with Read.
func ReadFile(path string) ([]types.Interaction, error) {
	return ReadFileWithCatalog(path, types.DefaultCatalog())
}

// ReadFileWithCatalog opens path and reads it with ReadWithCatalog.
func ReadFileWithCatalog(path string, c types.Catalog) ([]types.Interaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	return ReadWithCatalog(f, c)
}

func encode(r types.Interaction) []string {
	return []string{
		strconv.Itoa(r.InquiryID),
		string(r.Department),
		r.InquiryType,
		string(r.Channel),
		r.StudentType,
		r.Quarter,
		r.Month,
		r.DayOfWeek,
		r.TimeSlot,
		r.StaffMember,
		formatMinutes(r.WaitTimeMin),
		formatMinutes(r.ServiceTimeMin),
		string(r.Resolution),
		formatYesNo(r.Escalated),
		formatYesNo(r.CallbackRequired),
		formatMinutes(r.SatisfactionScore),
	}
}

func decode(row map[string]string) (types.Interaction, error) {
	var rec types.Interaction
	var err error

	if rec.InquiryID, err = strconv.Atoi(row["inquiry_id"]); err != nil {
		return rec, fmt.Errorf("inquiry_id: %w", err)
	}
	if rec.WaitTimeMin, err = strconv.ParseFloat(row["wait_time_min"], 64); err != nil {
		return rec, fmt.Errorf("wait_time_min: %w", err)
	}
	if rec.ServiceTimeMin, err = strconv.ParseFloat(row["service_time_min"], 64); err != nil {
		return rec, fmt.Errorf("service_time_min: %w", err)
	}
	if rec.SatisfactionScore, err = strconv.ParseFloat(row["satisfaction_score"], 64); err != nil {
		return rec, fmt.Errorf("satisfaction_score: %w", err)
	}
	if rec.Escalated, err = parseYesNo(row["escalated"]); err != nil {
		return rec, fmt.Errorf("escalated: %w", err)
	}
	if rec.CallbackRequired, err = parseYesNo(row["callback_required"]); err != nil {
		return rec, fmt.Errorf("callback_required: %w", err)
	}

	rec.Department = types.Department(row["department"])
	rec.InquiryType = row["inquiry_type"]
	rec.Channel = types.Channel(row["channel"])
	rec.StudentType = row["student_type"]
	rec.Quarter = row["quarter"]
	rec.Month = row["month"]
	rec.DayOfWeek = row["day_of_week"]
	rec.TimeSlot = row["time_slot"]
	rec.StaffMember = row["staff_member"]
	rec.Resolution = types.Resolution(row["resolution"])
	return rec, nil
}

func formatMinutes(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func formatYesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func parseYesNo(s string) (bool, error) {
	switch s {
	case "Yes":
		return true, nil
	case "No":
		return false, nil
	}
	return false, fmt.Errorf("expected Yes or No, got %q", s)
}
