// Package score holds the pure scoring math: section and grand totals
// over sparse score maps, mastery-level classification, and the stats
// used by the harmonization views.
//
// Score maps are sparse on purpose: an absent key means "not yet
// scored", which is distinct from the lowest level's own point value.
// Completion checks rely on key presence, never on the value.
package score

import (
	"strings"

	"github.com/CodBad25/oral-dnb/internal/rubric"
)

// Map associates criterion ids with awarded points.
type Map map[string]float64

// SectionTotal sums awarded points for criteria whose id carries the
// section's prefix. Unscored criteria contribute 0.
func SectionTotal(scores Map, section rubric.Section) float64 {
	prefix := section.Prefix()
	var sum float64
	for id, pts := range scores {
		if strings.HasPrefix(id, prefix) {
			sum += pts
		}
	}
	return sum
}

// GrandTotal sums every entry of the score map.
func GrandTotal(scores Map) float64 {
	var sum float64
	for _, pts := range scores {
		sum += pts
	}
	return sum
}

// LevelForScore maps an awarded value back to a mastery level. A score
// of exactly 0 falls into the first (insufficient) band by convention;
// otherwise the level whose points equal the score is returned. An ok
// of false means the value matches no band, which only happens for
// scores that never came from the grille.
func LevelForScore(levels []rubric.Level, score float64) (rubric.Level, bool) {
	if len(levels) == 0 {
		return rubric.Level{}, false
	}
	if score == 0 {
		return levels[0], true
	}
	for _, l := range levels {
		if l.Points == score {
			return l, true
		}
	}
	return rubric.Level{}, false
}

// MasteryForCriterion resolves the mastery band awarded to a criterion,
// looking the criterion up in the grille first.
func MasteryForCriterion(g *rubric.Grille, criterionID string, score float64) (rubric.Mastery, bool) {
	c, ok := g.FindCriterion(criterionID)
	if !ok {
		return "", false
	}
	l, ok := LevelForScore(c.Levels, score)
	if !ok {
		return "", false
	}
	return l.Mastery, true
}

// SectionComplete reports whether every criterion of the section has an
// entry in the score map, whatever the awarded value.
func SectionComplete(scores Map, section rubric.Section) bool {
	for _, c := range section.Criteria {
		if _, ok := scores[c.ID]; !ok {
			return false
		}
	}
	return true
}

// Complete reports whether every criterion of the grille is scored.
func Complete(scores Map, g *rubric.Grille) bool {
	for _, s := range g.Sections {
		if !SectionComplete(scores, s) {
			return false
		}
	}
	return true
}
