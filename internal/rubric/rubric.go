package rubric

import (
	"fmt"
	"strconv"
	"strings"
)

// Mastery tags one of the four qualitative bands a criterion can be
// graded at. The set is closed; Validate rejects anything else.
type Mastery string

const (
	MasteryInsufficient Mastery = "insufficient"
	MasteryFragile      Mastery = "fragile"
	MasterySatisfactory Mastery = "satisfactory"
	MasteryExcellent    Mastery = "excellent"
)

var masteryOrder = []Mastery{MasteryInsufficient, MasteryFragile, MasterySatisfactory, MasteryExcellent}

// Level is one mastery band of a criterion with its fixed point value.
type Level struct {
	Name        string  `yaml:"name" json:"name"`
	Description string  `yaml:"description" json:"description"`
	Points      float64 `yaml:"points" json:"points"`
	Mastery     Mastery `yaml:"mastery" json:"color"`
}

// Criterion is one gradable dimension within a section. IDs are stable
// strings of the form "<section>-<n>" (e.g. "1-1") and double as the
// keys of the score map.
type Criterion struct {
	ID        string  `yaml:"id" json:"id"`
	Title     string  `yaml:"title" json:"title"`
	MaxPoints float64 `yaml:"max_points" json:"maxPoints"`
	Levels    []Level `yaml:"levels" json:"levels"`
}

// Section groups criteria under a named subtotal.
type Section struct {
	ID        int         `yaml:"id" json:"id"`
	Title     string      `yaml:"title" json:"title"`
	MaxPoints float64     `yaml:"max_points" json:"maxPoints"`
	Criteria  []Criterion `yaml:"criteria" json:"criteria"`
}

// Prefix is the score-map key prefix shared by all criteria of the
// section ("1-" for section 1).
func (s Section) Prefix() string { return strconv.Itoa(s.ID) + "-" }

// Grille is the immutable scoring schema for one session year.
type Grille struct {
	Session     string    `yaml:"session" json:"session"`
	TotalPoints float64   `yaml:"total_points" json:"totalPoints"`
	Sections    []Section `yaml:"sections" json:"sections"`
}

// FindCriterion returns the criterion with the given id, or false when
// no section carries it.
func (g *Grille) FindCriterion(id string) (Criterion, bool) {
	for _, s := range g.Sections {
		for _, c := range s.Criteria {
			if c.ID == id {
				return c, true
			}
		}
	}
	return Criterion{}, false
}

// Criteria returns every criterion in grid order (section order, then
// criterion order within the section).
func (g *Grille) Criteria() []Criterion {
	var out []Criterion
	for _, s := range g.Sections {
		out = append(out, s.Criteria...)
	}
	return out
}

// Validate checks the structural invariants: four strictly increasing
// levels per criterion in mastery order, criterion ids prefixed by
// their section, criterion points summing to the section maximum and
// section maximums summing to the grille total.
func (g *Grille) Validate() error {
	if len(g.Sections) == 0 {
		return fmt.Errorf("grille %s: no sections", g.Session)
	}
	var sectionSum float64
	for _, s := range g.Sections {
		if len(s.Criteria) == 0 {
			return fmt.Errorf("section %d: no criteria", s.ID)
		}
		var critSum float64
		for _, c := range s.Criteria {
			if !strings.HasPrefix(c.ID, s.Prefix()) {
				return fmt.Errorf("criterion %s: id not prefixed by section %d", c.ID, s.ID)
			}
			if len(c.Levels) != len(masteryOrder) {
				return fmt.Errorf("criterion %s: want %d levels, got %d", c.ID, len(masteryOrder), len(c.Levels))
			}
			for i, l := range c.Levels {
				if l.Mastery != masteryOrder[i] {
					return fmt.Errorf("criterion %s: level %d tagged %q, want %q", c.ID, i, l.Mastery, masteryOrder[i])
				}
				if i > 0 && l.Points <= c.Levels[i-1].Points {
					return fmt.Errorf("criterion %s: level points not strictly increasing", c.ID)
				}
			}
			if top := c.Levels[len(c.Levels)-1].Points; top != c.MaxPoints {
				return fmt.Errorf("criterion %s: top level worth %v, max is %v", c.ID, top, c.MaxPoints)
			}
			critSum += c.MaxPoints
		}
		if critSum != s.MaxPoints {
			return fmt.Errorf("section %d: criteria sum %v, max is %v", s.ID, critSum, s.MaxPoints)
		}
		sectionSum += s.MaxPoints
	}
	if sectionSum != g.TotalPoints {
		return fmt.Errorf("grille %s: sections sum %v, total is %v", g.Session, sectionSum, g.TotalPoints)
	}
	return nil
}
