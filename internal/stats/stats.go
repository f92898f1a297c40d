// Package stats holds the inferential tests run over the interaction table.
package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultAlpha is the significance level used when none is configured.
const DefaultAlpha = 0.05

// TTestResult is an independent-samples comparison of two groups.
type TTestResult struct {
	NA           int     `json:"nA"`
	NB           int     `json:"nB"`
	MeanA        float64 `json:"meanA"`
	MeanB        float64 `json:"meanB"`
	Difference   float64 `json:"difference"`
	T            float64 `json:"t"`
	DF           float64 `json:"df"`
	P            float64 `json:"p"`
	Alpha        float64 `json:"alpha"`
	Significant  bool    `json:"significant"`
	Inconclusive bool    `json:"inconclusive"`
	Reason       string  `json:"reason,omitempty"`
}

// CorrelationResult is a Pearson correlation with its two-sided p-value.
type CorrelationResult struct {
	N            int     `json:"n"`
	R            float64 `json:"r"`
	P            float64 `json:"p"`
	Alpha        float64 `json:"alpha"`
	Significant  bool    `json:"significant"`
	Inconclusive bool    `json:"inconclusive"`
	Reason       string  `json:"reason,omitempty"`
}

// TTest runs a pooled-variance Student t-test of a against b.
func TTest(a, b []float64, alpha float64) TTestResult {
	res := TTestResult{NA: len(a), NB: len(b), Alpha: alpha}
	if len(a) < 2 || len(b) < 2 {
		res.Inconclusive = true
		res.Reason = fmt.Sprintf("need at least 2 samples per group, got %d and %d", len(a), len(b))
		if len(a) > 0 {
			res.MeanA = stat.Mean(a, nil)
		}
		if len(b) > 0 {
			res.MeanB = stat.Mean(b, nil)
		}
		res.Difference = res.MeanA - res.MeanB
		return res
	}

	res.MeanA = stat.Mean(a, nil)
	res.MeanB = stat.Mean(b, nil)
	res.Difference = res.MeanA - res.MeanB

	na, nb := float64(len(a)), float64(len(b))
	res.DF = na + nb - 2
	pooled := ((na-1)*stat.Variance(a, nil) + (nb-1)*stat.Variance(b, nil)) / res.DF
	se := math.Sqrt(pooled * (1/na + 1/nb))
	if se == 0 || math.IsNaN(se) {
		res.Inconclusive = true
		res.Reason = "both groups have zero variance"
		return res
	}

	res.T = res.Difference / se
	res.P = twoSidedP(res.T, res.DF)
	res.Significant = res.P < alpha
	return res
}

// Pearson correlates x with y.
func Pearson(x, y []float64, alpha float64) CorrelationResult {
	res := CorrelationResult{N: len(x), Alpha: alpha}
	switch {
	case len(x) != len(y):
		res.Inconclusive = true
		res.Reason = fmt.Sprintf("length mismatch: %d and %d", len(x), len(y))
		return res
	case len(x) < 3:
		res.Inconclusive = true
		res.Reason = fmt.Sprintf("need at least 3 pairs, got %d", len(x))
		return res
	}

	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		res.Inconclusive = true
		res.Reason = "zero variance in one of the series"
		return res
	}
	res.R = r

	if math.Abs(r) >= 1 {
		res.P = 0
	} else {
		df := float64(len(x) - 2)
		t := r * math.Sqrt(df/(1-r*r))
		res.P = twoSidedP(t, df)
	}
	res.Significant = res.P < alpha
	return res
}

func twoSidedP(t, df float64) float64 {
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return 2 * dist.Survival(math.Abs(t))
}
