// Package analytics computes the comparison and harmonization views:
// cross-jury statistics over collections of finalized evaluations. All
// functions are pure and safe on empty input.
package analytics

import (
	"sort"

	"github.com/CodBad25/oral-dnb/internal/rubric"
	"github.com/CodBad25/oral-dnb/internal/score"
	"github.com/CodBad25/oral-dnb/internal/session"
)

// SignificantDeviation is the harmonization threshold, in points on
// the 20-point scale: a jury whose mean differs from the global mean
// by strictly more than this is flagged. Tunable; the strict
// inequality mirrors the historical behavior.
const SignificantDeviation = 2.0

// Tagged is one evaluation annotated with its owning jury, the unit
// all harmonization stats consume.
type Tagged struct {
	State      session.EvaluationState `json:"state"`
	JuryNumber string                  `json:"juryNumber"`
}

// Total is the tagged evaluation's grand total.
func (t Tagged) Total() float64 { return score.GrandTotal(t.State.Scores) }

// Stats bundles the standard descriptive statistics.
type Stats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"stdDev"`
}

func describe(values []float64) Stats {
	return Stats{
		Count:  len(values),
		Mean:   score.Mean(values),
		Median: score.Median(values),
		Min:    score.Min(values),
		Max:    score.Max(values),
		StdDev: score.StdDev(values),
	}
}

// Totals extracts the grand totals of a collection.
func Totals(candidates []Tagged) []float64 {
	out := make([]float64, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.Total())
	}
	return out
}

// GlobalStats describes the whole collection's totals.
func GlobalStats(candidates []Tagged) Stats {
	return describe(Totals(candidates))
}

// CriterionStats computes per-criterion statistics across the
// collection. Unscored criteria are skipped, not counted as zero.
func CriterionStats(g *rubric.Grille, candidates []Tagged) map[string]Stats {
	out := make(map[string]Stats)
	for _, c := range g.Criteria() {
		var values []float64
		for _, cand := range candidates {
			if v, ok := cand.State.Scores[c.ID]; ok {
				values = append(values, v)
			}
		}
		out[c.ID] = describe(values)
	}
	return out
}

// JuryStats describes one jury against the global mean.
type JuryStats struct {
	JuryNumber  string  `json:"juryNumber"`
	Stats       Stats   `json:"stats"`
	Deviation   float64 `json:"deviation"` // jury mean minus global mean
	Significant bool    `json:"significant"`
}

// ByJury slices the collection per jury, computes each jury's stats
// and flags significant deviations from the global mean. Juries come
// back sorted by number.
func ByJury(candidates []Tagged) []JuryStats {
	global := score.Mean(Totals(candidates))
	grouped := make(map[string][]float64)
	for _, c := range candidates {
		grouped[c.JuryNumber] = append(grouped[c.JuryNumber], c.Total())
	}
	numbers := make([]string, 0, len(grouped))
	for jn := range grouped {
		numbers = append(numbers, jn)
	}
	sort.Strings(numbers)

	out := make([]JuryStats, 0, len(numbers))
	for _, jn := range numbers {
		st := describe(grouped[jn])
		dev := st.Mean - global
		out = append(out, JuryStats{
			JuryNumber:  jn,
			Stats:       st,
			Deviation:   dev,
			Significant: Significant(dev),
		})
	}
	return out
}

// Significant applies the deviation threshold (strictly greater than).
func Significant(deviation float64) bool {
	if deviation < 0 {
		deviation = -deviation
	}
	return deviation > SignificantDeviation
}
