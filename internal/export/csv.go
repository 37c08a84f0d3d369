// Package export renders finalized evaluations into the three document
// formats: the paginated PDF grid, the flat CSV files and, through the
// interchange package, the JSON envelope.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/CodBad25/oral-dnb/internal/analytics"
	"github.com/CodBad25/oral-dnb/internal/rubric"
	"github.com/CodBad25/oral-dnb/internal/score"
	"github.com/CodBad25/oral-dnb/internal/session"
)

// utf8BOM keeps spreadsheet tools from mangling accented headers.
const utf8BOM = "\uFEFF"

func newCSVWriter(w io.Writer) (*csv.Writer, error) {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return nil, err
	}
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	return cw, nil
}

// WriteCSV writes one row per evaluation: identity fields, every
// criterion score, section subtotals, grand total, timer seconds and
// comments. Semicolon-delimited, UTF-8 with BOM.
func WriteCSV(w io.Writer, g *rubric.Grille, entries []session.EvaluationState) error {
	cw, err := newCSVWriter(w)
	if err != nil {
		return err
	}

	header := []string{"Nom", "Prenom", "Classe", "Horaire", "Sujet"}
	for _, c := range g.Criteria() {
		header = append(header, c.Title)
	}
	for _, s := range g.Sections {
		header = append(header, "Total "+s.Title)
	}
	header = append(header, "Total", "Expose (s)", "Entretien (s)", "Commentaires")
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, e := range entries {
		row := []string{e.Candidate.Nom, e.Candidate.Prenom, e.Candidate.Classe, e.Candidate.Horaire, e.Candidate.Sujet}
		for _, c := range g.Criteria() {
			row = append(row, score.FormatPoints(e.Scores[c.ID]))
		}
		for _, s := range g.Sections {
			row = append(row, score.FormatPoints(score.SectionTotal(e.Scores, s)))
		}
		row = append(row, score.FormatPoints(score.GrandTotal(e.Scores)))
		row = append(row, timerSeconds(e.Timers, session.PhaseExpose), timerSeconds(e.Timers, session.PhaseEntretien))
		row = append(row, e.Comments)
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteRankingCSV writes the cross-jury ranking: candidates sorted by
// grand total descending with a rank column and the owning jury.
func WriteRankingCSV(w io.Writer, g *rubric.Grille, candidates []analytics.Tagged) error {
	cw, err := newCSVWriter(w)
	if err != nil {
		return err
	}

	header := []string{"Rang", "Nom", "Prenom", "Classe", "Sujet", "Jury"}
	for _, s := range g.Sections {
		header = append(header, "Total "+s.Title)
	}
	header = append(header, "Total")
	if err := cw.Write(header); err != nil {
		return err
	}

	for i, c := range analytics.Ranking(candidates) {
		row := []string{
			strconv.Itoa(i + 1),
			c.State.Candidate.Nom,
			c.State.Candidate.Prenom,
			c.State.Candidate.Classe,
			c.State.Candidate.Sujet,
			c.JuryNumber,
		}
		for _, s := range g.Sections {
			row = append(row, score.FormatPoints(score.SectionTotal(c.State.Scores, s)))
		}
		row = append(row, score.FormatPoints(c.Total()))
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func timerSeconds(t *session.Timers, phase session.Phase) string {
	if t == nil {
		return ""
	}
	var d *session.TimerData
	if phase == session.PhaseEntretien {
		d = t.Entretien
	} else {
		d = t.Expose
	}
	if d == nil {
		return ""
	}
	return fmt.Sprintf("%d", d.ActualSeconds)
}
