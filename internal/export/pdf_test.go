package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/go-pdf/fpdf"

	"github.com/CodBad25/oral-dnb/internal/rubric"
	"github.com/CodBad25/oral-dnb/internal/session"
)

func TestWritePDFSingleCandidate(t *testing.T) {
	g := rubric.Default()
	var buf bytes.Buffer
	if err := WritePDF(&buf, g, []session.EvaluationState{fullState("Durand", 2)}); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Fatal("output is not a PDF")
	}
	if buf.Len() < 1000 {
		t.Fatalf("suspiciously small document: %d bytes", buf.Len())
	}
}

func TestWritePDFHandlesPartialScores(t *testing.T) {
	g := rubric.Default()
	st := session.NewState()
	st.Candidate = session.CandidateInfo{Nom: "Partiel", Prenom: "Éva"}
	st.Scores["1-1"] = 0 // zero highlights the insufficient column
	var buf bytes.Buffer
	if err := WritePDF(&buf, g, []session.EvaluationState{st}); err != nil {
		t.Fatal(err)
	}
	if buf.Len() == 0 {
		t.Fatal("empty output")
	}
}

func TestWritePDFBulkGrows(t *testing.T) {
	g := rubric.Default()
	var one, three bytes.Buffer

	if err := WritePDF(&one, g, []session.EvaluationState{fullState("A", 1)}); err != nil {
		t.Fatal(err)
	}
	states := []session.EvaluationState{fullState("A", 1), fullState("B", 2), fullState("C", 3)}
	if err := WritePDF(&three, g, states); err != nil {
		t.Fatal(err)
	}
	if three.Len() <= one.Len() {
		t.Fatalf("bulk (%d bytes) not larger than single (%d bytes)", three.Len(), one.Len())
	}
}

func TestPDFLongCommentsBreakToNewPage(t *testing.T) {
	g := rubric.Default()

	render := func(comments string) int {
		st := fullState("Bavard", 2)
		st.Comments = comments
		doc := fpdf.New("L", "mm", "A4", "")
		doc.SetAutoPageBreak(false, 0)
		r := &pdfRenderer{doc: doc, tr: doc.UnicodeTranslatorFromDescriptor(""), grille: g}
		r.renderCandidate(st)
		return doc.PageCount()
	}

	short := render("RAS.")
	long := render(strings.Repeat("Un très long commentaire du jury sur la prestation. ", 200))
	if long <= short {
		t.Fatalf("pages short=%d long=%d, want the comments to spill onto a new page", short, long)
	}
}

func TestWritePDFRejectsEmptyInput(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePDF(&buf, rubric.Default(), nil); err == nil {
		t.Fatal("empty export accepted")
	}
}
