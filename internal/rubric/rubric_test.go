package rubric

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultGrille(t *testing.T) {
	g := Default()
	if g.Session != "2026" {
		t.Errorf("session = %q, want 2026", g.Session)
	}
	if g.TotalPoints != 20 {
		t.Errorf("total = %v, want 20", g.TotalPoints)
	}
	if len(g.Sections) != 2 {
		t.Fatalf("sections = %d, want 2", len(g.Sections))
	}
	if g.Sections[0].MaxPoints != 12 || g.Sections[1].MaxPoints != 8 {
		t.Errorf("section maxima = %v/%v, want 12/8", g.Sections[0].MaxPoints, g.Sections[1].MaxPoints)
	}
	if got := len(g.Criteria()); got != 9 {
		t.Errorf("criteria = %d, want 9", got)
	}
	if err := g.Validate(); err != nil {
		t.Fatalf("embedded grille invalid: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grille.yaml")
	if err := os.WriteFile(path, embedded, 0o644); err != nil {
		t.Fatal(err)
	}
	g, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if g.Session != Default().Session {
		t.Errorf("session = %q", g.Session)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("missing file accepted")
	}
}

func TestFindCriterion(t *testing.T) {
	g := Default()
	c, ok := g.FindCriterion("2-3")
	if !ok {
		t.Fatal("2-3 not found")
	}
	if c.MaxPoints != 2 || len(c.Levels) != 4 {
		t.Errorf("2-3 = %v max, %d levels", c.MaxPoints, len(c.Levels))
	}
	if _, ok := g.FindCriterion("3-1"); ok {
		t.Error("found criterion that does not exist")
	}
}

func TestValidateRejectsTampering(t *testing.T) {
	base := func() *Grille {
		g, err := Parse(embedded)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		return g
	}

	tests := []struct {
		name   string
		mutate func(*Grille)
	}{
		{"section sum mismatch", func(g *Grille) { g.TotalPoints = 19 }},
		{"criterion sum mismatch", func(g *Grille) { g.Sections[0].MaxPoints = 13 }},
		{"top level below max", func(g *Grille) { g.Sections[0].Criteria[0].Levels[3].Points = 3.5 }},
		{"non-increasing levels", func(g *Grille) { g.Sections[1].Criteria[0].Levels[2].Points = 1 }},
		{"wrong mastery order", func(g *Grille) {
			g.Sections[0].Criteria[0].Levels[1].Mastery = MasteryExcellent
		}},
		{"foreign id prefix", func(g *Grille) { g.Sections[1].Criteria[0].ID = "1-9" }},
		{"missing level", func(g *Grille) {
			c := &g.Sections[0].Criteria[0]
			c.Levels = c.Levels[:3]
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := base()
			tt.mutate(g)
			if err := g.Validate(); err == nil {
				t.Fatal("tampered grille passed validation")
			}
		})
	}
}
