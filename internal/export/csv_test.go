package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/CodBad25/oral-dnb/internal/analytics"
	"github.com/CodBad25/oral-dnb/internal/rubric"
	"github.com/CodBad25/oral-dnb/internal/session"
)

func fullState(nom string, levelIdx int) session.EvaluationState {
	g := rubric.Default()
	st := session.NewState()
	st.Candidate = session.CandidateInfo{Nom: nom, Prenom: "Test", Classe: "3B", Horaire: "9h00", Sujet: "Stage; découverte"}
	for _, c := range g.Criteria() {
		st.Scores[c.ID] = c.Levels[levelIdx].Points
	}
	st.Comments = "Très \"bon\" passage"
	st.Timers = &session.Timers{
		Expose:    &session.TimerData{ExpectedSeconds: 300, ActualSeconds: 287},
		Entretien: &session.TimerData{ExpectedSeconds: 600, ActualSeconds: 612},
	}
	return st
}

func TestWriteCSV(t *testing.T) {
	g := rubric.Default()
	var buf bytes.Buffer
	if err := WriteCSV(&buf, g, []session.EvaluationState{fullState("Durand", 2)}); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, utf8BOM) {
		t.Error("missing UTF-8 BOM")
	}

	r := csv.NewReader(strings.NewReader(strings.TrimPrefix(out, utf8BOM)))
	r.Comma = ';'
	rows, err := r.ReadAll()
	if err != nil {
		t.Fatalf("unparsable csv: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want header + 1", len(rows))
	}

	header, row := rows[0], rows[1]
	// 5 identity + 9 criteria + 2 section totals + total + 2 timers + comments.
	if want := 5 + 9 + 2 + 1 + 2 + 1; len(header) != want {
		t.Fatalf("columns = %d, want %d", len(header), want)
	}
	if header[0] != "Nom" || header[len(header)-1] != "Commentaires" {
		t.Fatalf("header = %v", header)
	}
	if row[0] != "Durand" {
		t.Errorf("nom = %q", row[0])
	}
	// Semicolons and quotes in fields survive the round trip.
	if row[4] != "Stage; découverte" {
		t.Errorf("sujet = %q", row[4])
	}
	if row[len(row)-1] != `Très "bon" passage` {
		t.Errorf("comments = %q", row[len(row)-1])
	}
	// Satisfactory everywhere: sections 9 and 6, total 15, comma decimals.
	if row[5] != "3" || row[6] != "1,5" {
		t.Errorf("criterion cells = %q %q", row[5], row[6])
	}
	if row[14] != "9" || row[15] != "6" || row[16] != "15" {
		t.Errorf("totals = %q %q %q", row[14], row[15], row[16])
	}
	if row[17] != "287" || row[18] != "612" {
		t.Errorf("timers = %q %q", row[17], row[18])
	}
}

func TestWriteCSVNoTimers(t *testing.T) {
	g := rubric.Default()
	st := fullState("Sans", 1)
	st.Timers = nil
	var buf bytes.Buffer
	if err := WriteCSV(&buf, g, []session.EvaluationState{st}); err != nil {
		t.Fatal(err)
	}
	r := csv.NewReader(strings.NewReader(strings.TrimPrefix(buf.String(), utf8BOM)))
	r.Comma = ';'
	rows, err := r.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	row := rows[1]
	if row[17] != "" || row[18] != "" {
		t.Errorf("timer cells = %q %q, want empty", row[17], row[18])
	}
}

func TestWriteRankingCSV(t *testing.T) {
	g := rubric.Default()
	cands := []analytics.Tagged{
		{State: fullState("Milieu", 2), JuryNumber: "1"},   // 15
		{State: fullState("Meilleur", 3), JuryNumber: "2"}, // 20
		{State: fullState("Dernier", 0), JuryNumber: "1"},  // 5
	}

	var buf bytes.Buffer
	if err := WriteRankingCSV(&buf, g, cands); err != nil {
		t.Fatal(err)
	}
	r := csv.NewReader(strings.NewReader(strings.TrimPrefix(buf.String(), utf8BOM)))
	r.Comma = ';'
	rows, err := r.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("rows = %d", len(rows))
	}
	if rows[1][0] != "1" || rows[1][1] != "Meilleur" || rows[1][5] != "2" {
		t.Fatalf("rank 1 = %v", rows[1])
	}
	if rows[2][1] != "Milieu" || rows[3][1] != "Dernier" {
		t.Fatalf("order = %q, %q", rows[2][1], rows[3][1])
	}
	if got := rows[3][len(rows[3])-1]; got != "5" {
		t.Errorf("lowest total = %q, want 5", got)
	}
}

func TestFilenames(t *testing.T) {
	now := time.Date(2026, 6, 12, 0, 0, 0, 0, time.UTC)

	c := session.CandidateInfo{Nom: "De La Tour", Prenom: "Marie Anne"}
	if got := PDFFilename(c); got != "evaluation_De_La_Tour_Marie_Anne.pdf" {
		t.Errorf("pdf filename = %q", got)
	}
	if got := BulkPDFFilename(now); got != "evaluations_oral_dnb_2026-06-12.pdf" {
		t.Errorf("bulk pdf filename = %q", got)
	}
	if got := CSVFilename(now); got != "evaluations_oral_dnb_2026-06-12.csv" {
		t.Errorf("csv filename = %q", got)
	}
	if got := RankingCSVFilename(now); got != "classement_oral_dnb_2026-06-12.csv" {
		t.Errorf("ranking filename = %q", got)
	}
}
