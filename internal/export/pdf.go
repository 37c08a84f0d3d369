package export

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"github.com/CodBad25/oral-dnb/internal/rubric"
	"github.com/CodBad25/oral-dnb/internal/score"
	"github.com/CodBad25/oral-dnb/internal/session"
)

// Landscape A4 layout, all in millimeters.
const (
	pdfMargin = 10
	pageW     = 297
	pageH     = 210
	contentW  = pageW - 2*pdfMargin

	colCritW  = 48
	colLevelW = 52
	colBarW   = 21 // colCritW + 4*colLevelW + colBarW = contentW

	descFontSize   = 7
	pointsRowH     = 5
	cellPad        = 2
	bottomReserve  = 15 // pagination trigger above the page edge
	signatureBandY = pageH - 20
)

type rgb struct{ r, g, b int }

var (
	headerFill  = rgb{70, 70, 70}
	sectionFill = rgb{235, 235, 235}
	totalFill   = rgb{240, 240, 240}

	highlightFill = map[rubric.Mastery]rgb{
		rubric.MasteryInsufficient: {254, 226, 226},
		rubric.MasteryFragile:      {255, 237, 213},
		rubric.MasterySatisfactory: {219, 234, 254},
		rubric.MasteryExcellent:    {220, 252, 231},
	}
)

func colX(i int) float64 {
	switch {
	case i == 0:
		return pdfMargin
	case i <= 5:
		return pdfMargin + colCritW + colLevelW*float64(i-1)
	default:
		return pdfMargin + contentW
	}
}

func colW(i int) float64 {
	switch i {
	case 0:
		return colCritW
	case 5:
		return colBarW
	default:
		return colLevelW
	}
}

// WritePDF renders the evaluations into one landscape document, one
// page per rubric section per candidate, mirroring the on-screen grid
// with the awarded level highlighted in its mastery color.
func WritePDF(w io.Writer, g *rubric.Grille, entries []session.EvaluationState) error {
	if len(entries) == 0 {
		return fmt.Errorf("pdf export: no evaluations")
	}
	doc := fpdf.New("L", "mm", "A4", "")
	doc.SetAutoPageBreak(false, 0)
	r := &pdfRenderer{doc: doc, tr: doc.UnicodeTranslatorFromDescriptor(""), grille: g}
	for _, e := range entries {
		r.renderCandidate(e)
	}
	return doc.Output(w)
}

type pdfRenderer struct {
	doc    *fpdf.Fpdf
	tr     func(string) string
	grille *rubric.Grille
	y      float64
}

func (r *pdfRenderer) renderCandidate(e session.EvaluationState) {
	doc := r.doc
	doc.AddPage()
	doc.SetDrawColor(0, 0, 0)
	doc.SetLineWidth(0.3)
	r.y = pdfMargin

	r.drawTitle()
	r.drawIdentity(e)

	for i, section := range r.grille.Sections {
		if i > 0 {
			doc.AddPage()
			r.y = pdfMargin
		}
		r.drawTableHeader()
		r.drawSectionHeader(section.Title)
		for _, c := range section.Criteria {
			awarded, scored := e.Scores[c.ID]
			r.drawCriterionRow(c, awarded, scored)
		}
		r.drawSubtotalRow("Sous-total points", section.MaxPoints, score.SectionTotal(e.Scores, section))
	}

	r.drawTotalRow(score.GrandTotal(e.Scores))
	r.drawComments(e.Comments)
	r.drawSignatures(e.Jury)
}

func (r *pdfRenderer) drawTitle() {
	doc := r.doc
	doc.SetFont("Helvetica", "B", 14)
	title := fmt.Sprintf("Grille d'évaluation de l'épreuve orale de 3ème - %s", r.grille.Session)
	doc.SetXY(pdfMargin, r.y)
	doc.CellFormat(contentW, 8, r.tr(title), "", 0, "C", false, 0, "")
	r.y += 10
}

func (r *pdfRenderer) drawIdentity(e session.EvaluationState) {
	doc := r.doc
	doc.SetFont("Helvetica", "B", 10)
	doc.Text(pdfMargin+10, r.y+5, r.tr("CANDIDAT : "+e.Candidate.Nom))
	doc.Text(pageW/2-20, r.y+5, r.tr("PRÉNOM : "+e.Candidate.Prenom))
	doc.Text(pageW-pdfMargin-40, r.y+5, r.tr("Classe : "+e.Candidate.Classe))
	r.y += 7

	doc.SetFont("Helvetica", "", 9)
	doc.Text(pdfMargin+50, r.y+4, r.tr("Jury : "+e.Jury.JuryNumber))
	doc.Text(pageW/2-20, r.y+4, r.tr("Horaires : "+e.Candidate.Horaire))
	doc.Text(pageW/2+40, r.y+4, r.tr("Salle : "+e.Jury.Salle))
	r.y += 8
}

func (r *pdfRenderer) drawTableHeader() {
	doc := r.doc
	const hh = 8
	headers := []string{
		"Critères d'évaluation", "Maîtrise insuffisante", "Maîtrise fragile",
		"Maîtrise satisfaisante", "Très bonne maîtrise", "Barème",
	}
	doc.SetFillColor(headerFill.r, headerFill.g, headerFill.b)
	doc.SetTextColor(255, 255, 255)
	doc.SetFont("Helvetica", "B", 7.5)
	for i, h := range headers {
		doc.SetXY(colX(i), r.y)
		doc.CellFormat(colW(i), hh, r.tr(h), "1", 0, "C", true, 0, "")
	}
	doc.SetTextColor(0, 0, 0)
	r.y += hh
}

func (r *pdfRenderer) drawSectionHeader(title string) {
	doc := r.doc
	const hh = 7
	doc.SetFillColor(sectionFill.r, sectionFill.g, sectionFill.b)
	doc.Rect(pdfMargin, r.y, contentW, hh, "FD")
	doc.SetFont("Helvetica", "B", 9)
	doc.Text(pdfMargin+2, r.y+5, r.tr(title))
	r.y += hh
}

// textHeight measures wrapped text at the description font size.
func (r *pdfRenderer) textHeight(text string, maxW float64) float64 {
	r.doc.SetFont("Helvetica", "", descFontSize)
	lines := r.doc.SplitText(r.tr(text), maxW-3)
	return float64(len(lines)) * descFontSize * 0.38
}

func (r *pdfRenderer) drawWrapped(text string, x, y, maxW float64) {
	lines := r.doc.SplitText(r.tr(text), maxW)
	for i, line := range lines {
		r.doc.Text(x, y+float64(i)*descFontSize*0.38, line)
	}
}

func (r *pdfRenderer) drawCriterionRow(c rubric.Criterion, awarded float64, scored bool) {
	doc := r.doc

	// Row height follows the tallest wrapped text in the row so
	// nothing is clipped.
	maxDescH := r.textHeight("- "+c.Title, colCritW)
	for _, l := range c.Levels {
		if h := r.textHeight(l.Description, colLevelW); h > maxDescH {
			maxDescH = h
		}
	}
	rowH := maxDescH + pointsRowH + cellPad*2 + 2

	if r.y+rowH > pageH-bottomReserve {
		doc.AddPage()
		r.y = pdfMargin
		r.drawTableHeader()
	}
	rowTop := r.y

	for i := 0; i < 6; i++ {
		fill, ok := r.highlightFor(c, i, awarded, scored)
		if ok {
			doc.SetFillColor(fill.r, fill.g, fill.b)
			doc.Rect(colX(i), rowTop, colW(i), rowH, "FD")
		} else {
			doc.Rect(colX(i), rowTop, colW(i), rowH, "D")
		}
	}

	doc.SetTextColor(0, 0, 0)
	doc.SetFont("Helvetica", "B", descFontSize)
	r.drawWrapped("- "+c.Title, colX(0)+2, rowTop+cellPad+3, colCritW-4)

	doc.SetFont("Helvetica", "", descFontSize)
	for li, l := range c.Levels {
		r.drawWrapped(l.Description, colX(li+1)+2, rowTop+cellPad+3, colLevelW-4)
	}

	r.drawLevelPoints(c, rowTop+rowH-pointsRowH-1, awarded, scored)

	doc.SetFont("Helvetica", "", 9)
	doc.SetXY(colX(5), rowTop+rowH/2-2)
	doc.CellFormat(colBarW, 4, "/"+score.FormatPoints(c.MaxPoints), "", 0, "C", false, 0, "")

	r.y += rowH
}

// highlightFor picks the mastery fill for a level column when it holds
// the awarded score. A score of 0 highlights the insufficient column.
func (r *pdfRenderer) highlightFor(c rubric.Criterion, col int, awarded float64, scored bool) (rgb, bool) {
	if !scored || col < 1 || col > 4 {
		return rgb{}, false
	}
	l := c.Levels[col-1]
	if awarded == l.Points || (col == 1 && awarded == 0) {
		return highlightFill[l.Mastery], true
	}
	return rgb{}, false
}

func (r *pdfRenderer) drawLevelPoints(c rubric.Criterion, pointsY, awarded float64, scored bool) {
	doc := r.doc
	doc.SetFontSize(descFontSize)
	for li, l := range c.Levels {
		label := score.FormatPoints(l.Points) + " point"
		if l.Points > 1 {
			label += "s"
		}
		label = r.tr(label)
		selected := scored && (awarded == l.Points || (li == 0 && awarded == 0))
		x := colX(li + 1)
		w := colW(li + 1)
		if selected {
			doc.SetFont("Helvetica", "B", descFontSize)
			tw := doc.GetStringWidth(label) + 4
			bx := x + w - tw - 2
			fill := highlightFill[l.Mastery]
			doc.SetFillColor(fill.r, fill.g, fill.b)
			doc.SetDrawColor(0, 0, 0)
			doc.Rect(bx, pointsY-1, tw, 5, "FD")
			doc.Text(bx+2, pointsY+2.5, label)
		} else {
			doc.SetFont("Helvetica", "", descFontSize)
			tw := doc.GetStringWidth(label)
			tx := x + w - tw - 3
			doc.Text(tx, pointsY+2.5, label)
			doc.SetLineWidth(0.2)
			doc.Line(tx-0.5, pointsY+3.5, tx+tw+0.5, pointsY+3.5)
			doc.SetLineWidth(0.3)
		}
	}
}

// ensureRoom breaks to a fresh page when the next block would run into
// the signature band.
func (r *pdfRenderer) ensureRoom(needed float64) {
	if r.y+needed > pageH-bottomReserve {
		r.doc.AddPage()
		r.y = pdfMargin
	}
}

func (r *pdfRenderer) drawSubtotalRow(label string, maxPts, actualPts float64) {
	doc := r.doc
	const hh = 8
	r.ensureRoom(hh)
	doc.Rect(pdfMargin, r.y, contentW, hh, "D")
	doc.SetFont("Helvetica", "B", 9)
	doc.Text(pdfMargin+2, r.y+5.5, r.tr(label))
	text := score.FormatPoints(actualPts) + "   /" + score.FormatPoints(maxPts)
	doc.SetXY(colX(5), r.y+1)
	doc.CellFormat(colBarW, hh-2, r.tr(text), "", 0, "C", false, 0, "")
	r.y += hh
}

func (r *pdfRenderer) drawTotalRow(total float64) {
	doc := r.doc
	const hh = 8
	r.ensureRoom(hh)
	doc.SetFillColor(totalFill.r, totalFill.g, totalFill.b)
	doc.Rect(pdfMargin, r.y, contentW, hh, "FD")
	doc.SetFont("Helvetica", "B", 10)
	doc.Text(pdfMargin+2, r.y+5.5, "Total points")
	text := score.FormatPoints(total) + "   /" + score.FormatPoints(r.grille.TotalPoints)
	doc.SetXY(colX(5), r.y+1)
	doc.CellFormat(colBarW, hh-2, r.tr(text), "", 0, "C", false, 0, "")
	r.y += hh
}

func (r *pdfRenderer) drawComments(comments string) {
	if comments == "" {
		return
	}
	doc := r.doc
	doc.SetFont("Helvetica", "", 8)
	lines := doc.SplitText(r.tr(comments), contentW)
	r.ensureRoom(8 + float64(len(lines))*3.5)
	r.y += 3
	doc.SetFont("Helvetica", "B", 8)
	doc.Text(pdfMargin, r.y+3, "Remarques :")
	r.y += 5
	doc.SetFont("Helvetica", "", 8)
	for i, line := range lines {
		doc.Text(pdfMargin, r.y+3+float64(i)*3.5, line)
	}
	r.y += float64(len(lines)) * 3.5
}

func (r *pdfRenderer) drawSignatures(j session.JuryInfo) {
	doc := r.doc
	y := float64(signatureBandY)
	doc.SetFont("Helvetica", "", 8)
	doc.Text(pdfMargin+20, y, r.tr(fmt.Sprintf("%s %s - signature Professeur 1", j.Prof1Prenom, j.Prof1Nom)))
	doc.Text(pageW-pdfMargin-80, y, r.tr(fmt.Sprintf("%s %s - signature Professeur 2", j.Prof2Prenom, j.Prof2Nom)))
	doc.SetLineWidth(0.3)
	doc.Line(pdfMargin+10, y+8, pdfMargin+100, y+8)
	doc.Line(pageW-pdfMargin-100, y+8, pageW-pdfMargin-10, y+8)
}
