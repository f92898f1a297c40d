package report

import (
	"fmt"

	"github.com/dennisdiepolder/studentops/internal/types"
)

// WaitTargetMin is the wait time the recommendations aim for.
const WaitTargetMin = 10

// Findings are the narrative conclusions drawn from a summary.
type Findings struct {
	Findings        []string `json:"findings"`
	Recommendations []string `json:"recommendations"`
}

// BuildFindings derives findings and recommendations from the computed
// tables and tests. Sections whose inputs are missing are skipped.
func BuildFindings(s *Summary) Findings {
	var f Findings
	ov := s.Overview

	fcr := s.FirstContactTest
	switch {
	case fcr.Inconclusive:
		f.Findings = append(f.Findings, fmt.Sprintf(
			"First Contact Resolution of %s%%; satisfaction impact is inconclusive (%s)",
			formatValue(ov.FCRPct, 1), fcr.Reason))
	case fcr.Significant:
		f.Findings = append(f.Findings, fmt.Sprintf(
			"First Contact Resolution of %s%% - students resolved on first contact report %+.2f satisfaction (statistically significant, p < %.2f)",
			formatValue(ov.FCRPct, 1), fcr.Difference, fcr.Alpha))
	default:
		f.Findings = append(f.Findings, fmt.Sprintf(
			"First Contact Resolution of %s%% - satisfaction difference of %+.2f is not statistically significant (p = %.4f)",
			formatValue(ov.FCRPct, 1), fcr.Difference, fcr.P))
	}

	if channels := s.Table(QueryChannelPerformance); channels != nil {
		if walkIn, ok := channels.Find(string(types.ChannelWalkIn)); ok {
			line := fmt.Sprintf("Walk-in channel handles %s%% of volume", formatValue(walkIn.SharePct, 0))
			if top, ok := maxBy(channels.Rows, func(r Row) *float64 { return r.AvgWait }); ok && top.Key[0] == walkIn.Key[0] {
				line += " with the highest wait times - staffing optimization opportunity"
			}
			f.Findings = append(f.Findings, line)
		}
	}

	var slowestDept, weakestDept string
	if depts := s.Table(QueryDepartmentKPIs); depts != nil {
		if slow, ok := maxBy(depts.Rows, func(r Row) *float64 { return r.AvgWait }); ok {
			slowestDept = slow.Key[0]
			f.Findings = append(f.Findings, fmt.Sprintf(
				"%s has the longest average wait time (%s min) - may need additional staff or process streamlining",
				slowestDept, formatValue(slow.AvgWait, 1)))
		}
		if weak, ok := minBy(depts.Rows, func(r Row) *float64 { return r.FCRPct }); ok {
			weakestDept = weak.Key[0]
		}
	}

	peakDay, hasDay := Peak(s.VolumeByDay)
	peakSlot, hasSlot := Peak(s.VolumeByTimeSlot)
	if hasDay && hasSlot {
		f.Findings = append(f.Findings, fmt.Sprintf(
			"%ss and %s are peak periods requiring maximum staffing coverage", peakDay.Key[0], peakSlot.Key[0]))
	}

	corr := s.WaitSatisfaction
	switch {
	case corr.Inconclusive:
		f.Findings = append(f.Findings, fmt.Sprintf("Wait time vs satisfaction correlation is inconclusive (%s)", corr.Reason))
	case corr.Significant && corr.R < 0:
		f.Findings = append(f.Findings, fmt.Sprintf(
			"Longer waits correlate with lower satisfaction (r = %.4f, p = %.6f)", corr.R, corr.P))
	default:
		f.Findings = append(f.Findings, fmt.Sprintf(
			"No significant negative correlation between wait time and satisfaction (r = %.4f, p = %.6f)", corr.R, corr.P))
	}

	f.Findings = append(f.Findings, fmt.Sprintf(
		"Escalation rate of %s%% suggests opportunity for expanded staff training", formatValue(ov.EscalationPct, 1)))

	if hasDay && hasSlot {
		f.Recommendations = append(f.Recommendations, fmt.Sprintf(
			"Increase staffing during peak periods (%ss, %s) to reduce wait times below the %d-minute target",
			peakDay.Key[0], peakSlot.Key[0], WaitTargetMin))
	}
	if weakestDept != "" {
		f.Recommendations = append(f.Recommendations, fmt.Sprintf(
			"Expand staff training for %s inquiries to improve first contact resolution", weakestDept))
	}
	if slowestDept != "" {
		f.Recommendations = append(f.Recommendations, fmt.Sprintf(
			"Review %s intake to bring its average wait in line with other departments", slowestDept))
	}
	f.Recommendations = append(f.Recommendations,
		"Implement queue management to redirect walk-in overflow to virtual appointments during peaks",
		"Create reference materials for common inquiry types to reduce escalations",
		fmt.Sprintf("Set a wait time target of under %d minutes and track it per department", WaitTargetMin),
		"Use staff performance scorecards (FCR, satisfaction, escalation rate) for coaching and development",
	)
	return f
}

func maxBy(rows []Row, metric func(Row) *float64) (Row, bool) {
	return pickBy(rows, metric, func(a, b float64) bool { return a > b })
}

func minBy(rows []Row, metric func(Row) *float64) (Row, bool) {
	return pickBy(rows, metric, func(a, b float64) bool { return a < b })
}

func pickBy(rows []Row, metric func(Row) *float64, better func(a, b float64) bool) (Row, bool) {
	var best Row
	found := false
	for _, r := range rows {
		v := metric(r)
		if v == nil {
			continue
		}
		if !found || better(*v, *metric(best)) {
			best, found = r, true
		}
	}
	return best, found
}

func formatValue(v *float64, places int) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.*f", places, *v)
}
