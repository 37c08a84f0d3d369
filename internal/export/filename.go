package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/CodBad25/oral-dnb/internal/session"
)

// PDFFilename names a single-candidate export after the candidate.
func PDFFilename(c session.CandidateInfo) string {
	name := fmt.Sprintf("evaluation_%s_%s.pdf", c.Nom, c.Prenom)
	return strings.ReplaceAll(name, " ", "_")
}

// BulkPDFFilename names a whole-session export after the day.
func BulkPDFFilename(now time.Time) string {
	return fmt.Sprintf("evaluations_oral_dnb_%s.pdf", now.Format("2006-01-02"))
}

// CSVFilename names the flat export after the day.
func CSVFilename(now time.Time) string {
	return fmt.Sprintf("evaluations_oral_dnb_%s.csv", now.Format("2006-01-02"))
}

// RankingCSVFilename names the cross-jury ranking export.
func RankingCSVFilename(now time.Time) string {
	return fmt.Sprintf("classement_oral_dnb_%s.csv", now.Format("2006-01-02"))
}
