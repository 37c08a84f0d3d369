package analytics

import (
	"sort"

	"github.com/CodBad25/oral-dnb/internal/rubric"
	"github.com/CodBad25/oral-dnb/internal/score"
)

// HistogramBands returns the five fixed score bands used by the
// ranking views. They assume a 20-point total and must be re-derived
// if the grille's total ever changes.
func HistogramBands() []score.Range {
	return []score.Range{
		{Min: 0, Max: 4},
		{Min: 5, Max: 8},
		{Min: 9, Max: 12},
		{Min: 13, Max: 16},
		{Min: 17, Max: 20},
	}
}

// Histogram counts the collection's totals per fixed band.
func Histogram(candidates []Tagged) []int {
	return score.Distribution(Totals(candidates), HistogramBands())
}

// MasteryCounts holds candidate counts per mastery band.
type MasteryCounts map[rubric.Mastery]int

// MasteryDistribution counts, for each criterion, how many candidates
// landed in each of the four bands. Unscored criteria are skipped;
// scores matching no band (stale data from another grille) are
// skipped too.
func MasteryDistribution(g *rubric.Grille, candidates []Tagged) map[string]MasteryCounts {
	out := make(map[string]MasteryCounts)
	for _, c := range g.Criteria() {
		counts := MasteryCounts{}
		for _, cand := range candidates {
			v, ok := cand.State.Scores[c.ID]
			if !ok {
				continue
			}
			level, ok := score.LevelForScore(c.Levels, v)
			if !ok {
				continue
			}
			counts[level.Mastery]++
		}
		out[c.ID] = counts
	}
	return out
}

// GlobalMasteryDistribution aggregates the per-criterion mastery
// counts into one distribution.
func GlobalMasteryDistribution(g *rubric.Grille, candidates []Tagged) MasteryCounts {
	total := MasteryCounts{}
	for _, counts := range MasteryDistribution(g, candidates) {
		for m, n := range counts {
			total[m] += n
		}
	}
	return total
}

// Ranking returns the collection sorted by grand total, best first.
// Ties keep their input order.
func Ranking(candidates []Tagged) []Tagged {
	out := make([]Tagged, len(candidates))
	copy(out, candidates)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total() > out[j].Total() })
	return out
}
