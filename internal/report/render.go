package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

const rule = "============================================================"

// Render writes the operator-facing text version of a summary.
func Render(w io.Writer, s *Summary) error {
	ew := &errWriter{w: w}
	ov := s.Overview

	ew.printf("%s\nSTUDENT SERVICES OPERATIONS ANALYTICS\n%s\n", rule, rule)
	ew.printf("\nDataset: %d interactions across %d departments\n", ov.Total, ov.Departments)
	ew.printf("Channels: %s\n", strings.Join(ov.Channels, ", "))
	ew.printf("Coverage: %d quarters\n", ov.Quarters)
	if s.RunID != "" {
		ew.printf("Run: %s (%s engine)\n", s.RunID, s.Engine)
	}

	section(ew, "OPERATIONS OVERVIEW & KPIs")
	tw := tabwriter.NewWriter(ew, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Total Interactions:\t%d\t\n", ov.Total)
	fmt.Fprintf(tw, "Avg Wait Time:\t%s min\t\n", formatValue(ov.AvgWait, 1))
	fmt.Fprintf(tw, "Avg Service Time:\t%s min\t\n", formatValue(ov.AvgService, 1))
	fmt.Fprintf(tw, "First Contact Resolution:\t%s%%\t\n", formatValue(ov.FCRPct, 1))
	fmt.Fprintf(tw, "Escalation Rate:\t%s%%\t\n", formatValue(ov.EscalationPct, 1))
	fmt.Fprintf(tw, "Callback Rate:\t%s%%\t\n", formatValue(ov.CallbackPct, 1))
	fmt.Fprintf(tw, "Avg Satisfaction:\t%s/5.0\t\n", formatValue(ov.AvgSatisfaction, 2))
	_ = tw.Flush()

	for _, t := range s.Tables {
		section(ew, t.Title)
		renderTable(ew, t)
	}

	section(ew, "VOLUME BY DAY AND TIME SLOT")
	renderVolume(ew, "Day", s.VolumeByDay)
	ew.printf("\n")
	renderVolume(ew, "Time Slot", s.VolumeByTimeSlot)

	section(ew, "SATISFACTION DRIVERS & STATISTICAL ANALYSIS")
	t := s.FirstContactTest
	ew.printf("T-Test: First Contact Resolution Impact on Satisfaction\n")
	if t.Inconclusive {
		ew.printf("  Inconclusive: %s\n", t.Reason)
	} else {
		ew.printf("  FCR Avg Satisfaction:     %.2f (n=%d)\n", t.MeanA, t.NA)
		ew.printf("  Non-FCR Avg Satisfaction: %.2f (n=%d)\n", t.MeanB, t.NB)
		ew.printf("  Difference:               %+.2f\n", t.Difference)
		ew.printf("  t-statistic:              %.4f\n", t.T)
		ew.printf("  p-value:                  %.6f\n", t.P)
		ew.printf("  Significant:              %s\n", yesNo(t.Significant, t.Alpha))
	}

	c := s.WaitSatisfaction
	ew.printf("\nCorrelation: Wait Time vs Satisfaction\n")
	if c.Inconclusive {
		ew.printf("  Inconclusive: %s\n", c.Reason)
	} else {
		ew.printf("  r = %.4f, p = %.6f (n=%d)\n", c.R, c.P, c.N)
	}

	ew.printf("\nSatisfaction by Wait Time:\n")
	for _, r := range s.SatisfactionByWait {
		ew.printf("  %-12s n=%5d  Sat: %s\n", r.Key[0], r.Volume, formatValue(r.AvgSatisfaction, 2))
	}

	section(ew, "KEY FINDINGS & PROCESS IMPROVEMENT RECOMMENDATIONS")
	ew.printf("FINDINGS:\n")
	for i, line := range s.Findings.Findings {
		ew.printf("%d. %s\n", i+1, line)
	}
	ew.printf("\nRECOMMENDATIONS:\n")
	for i, line := range s.Findings.Recommendations {
		ew.printf("%d. %s\n", i+1, line)
	}
	return ew.err
}

func renderTable(w io.Writer, t *Table) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := make([]string, 0, len(t.Columns)+8)
	for _, c := range t.Columns {
		header = append(header, strings.ToUpper(string(c)))
	}
	header = append(header, "VOLUME", "SHARE", "WAIT", "SERVICE", "FCR", "SAT", "ESC", "ESC%")
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, r := range t.Rows {
		cells := append([]string{}, r.Key...)
		cells = append(cells,
			fmt.Sprintf("%d", r.Volume),
			formatValue(r.SharePct, 1)+"%",
			formatValue(r.AvgWait, 1)+"m",
			formatValue(r.AvgService, 1)+"m",
			formatValue(r.FCRPct, 1)+"%",
			formatValue(r.AvgSatisfaction, 2),
			fmt.Sprintf("%d", r.Escalations),
			formatValue(r.EscalationPct, 1)+"%",
		)
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	_ = tw.Flush()
}

func renderVolume(w io.Writer, label string, rows []Row) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\tVOLUME\tAVG WAIT\n", strings.ToUpper(label))
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", r.Key[0], r.Volume, formatValue(r.AvgWait, 1))
	}
	_ = tw.Flush()
}

func section(w *errWriter, title string) {
	w.printf("\n%s\n%s\n%s\n", rule, strings.ToUpper(title), rule)
}

func yesNo(significant bool, alpha float64) string {
	if significant {
		return fmt.Sprintf("Yes (p < %.2f)", alpha)
	}
	return "No"
}

// errWriter keeps the first write error so rendering code can stay linear.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}

func (e *errWriter) printf(format string, args ...any) {
	fmt.Fprintf(e, format, args...)
}
