// Package sqlreport runs the report queries as SQL over an in-memory SQLite
// copy of the interaction table.
package sqlreport

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/dennisdiepolder/studentops/internal/report"
	"github.com/dennisdiepolder/studentops/internal/types"
)

//go:embed queries/*.sql
var queryFS embed.FS

const schema = `
CREATE TABLE interactions (
    inquiry_id INTEGER PRIMARY KEY,
    department TEXT NOT NULL,
    inquiry_type TEXT NOT NULL,
    channel TEXT NOT NULL,
    student_type TEXT NOT NULL,
    quarter TEXT NOT NULL,
    month TEXT NOT NULL,
    day_of_week TEXT NOT NULL,
    time_slot TEXT NOT NULL,
    staff_member TEXT NOT NULL,
    wait_time_min REAL NOT NULL,
    service_time_min REAL NOT NULL,
    resolution TEXT NOT NULL,
    escalated TEXT NOT NULL,
    callback_required TEXT NOT NULL,
    satisfaction_score REAL NOT NULL
);`

const insert = `
INSERT INTO interactions (
    inquiry_id, department, inquiry_type, channel, student_type, quarter, month,
    day_of_week, time_slot, staff_member, wait_time_min, service_time_min,
    resolution, escalated, callback_required, satisfaction_score
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Engine implements report.Engine on SQLite.
type Engine struct {
	db     *sql.DB
	logger zerolog.Logger
}

// Open creates an in-memory database and loads records into it.
func Open(ctx context.Context, records []types.Interaction, logger zerolog.Logger) (*Engine, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	e := &Engine{db: db, logger: logger}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	if err := e.load(ctx, records); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Debug().Int("records", len(records)).Msg("sqlite table loaded")
	return e, nil
}

func (e *Engine) load(ctx context.Context, records []types.Interaction) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin load: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range records {
		_, err := stmt.ExecContext(ctx,
			r.InquiryID, string(r.Department), r.InquiryType, string(r.Channel), r.StudentType,
			r.Quarter, r.Month, r.DayOfWeek, r.TimeSlot, r.StaffMember,
			r.WaitTimeMin, r.ServiceTimeMin, string(r.Resolution),
			yesNo(r.Escalated), yesNo(r.CallbackRequired), r.SatisfactionScore,
		)
		if err != nil {
			return fmt.Errorf("failed to insert record %d: %w", r.InquiryID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit load: %w", err)
	}
	return nil
}

// Close releases the database.
func (e *Engine) Close() error {
	return e.db.Close()
}

// SQL returns the statement behind a named query.
func SQL(name report.QueryName) (string, error) {
	data, err := queryFS.ReadFile("queries/" + string(name) + ".sql")
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", report.ErrUnknownQuery, name)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Run executes the SQL file for q and scans the grouped rows.
func (e *Engine) Run(ctx context.Context, q report.Query) (*report.Table, error) {
	query, err := SQL(q.Name)
	if err != nil {
		return nil, err
	}

	rows, err := e.db.QueryContext(ctx, query, q.VolumeAbove)
	if err != nil {
		return nil, fmt.Errorf("failed to run %s: %w", q.Name, err)
	}
	defer func() { _ = rows.Close() }()

	table := &report.Table{Query: q.Name, Title: q.Title, Columns: q.GroupBy, Rows: []report.Row{}}
	for rows.Next() {
		row := report.Row{Key: make([]string, len(q.GroupBy))}
		dest := make([]any, 0, len(q.GroupBy)+9)
		for i := range row.Key {
			dest = append(dest, &row.Key[i])
		}
		dest = append(dest,
			&row.Volume, &row.SharePct, &row.AvgWait, &row.AvgService, &row.FCRPct,
			&row.AvgSatisfaction, &row.Escalations, &row.EscalationPct, &row.FirstID,
		)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", q.Name, err)
		}
		table.Rows = append(table.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", q.Name, err)
	}

	e.logger.Debug().Str("query", string(q.Name)).Int("rows", len(table.Rows)).Msg("sql query complete")
	return table, nil
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
