// Package interchange implements the portable JSON envelope used for
// jury-to-jury exchange and admin bulk import, plus the locally cached
// collection of imported juries.
package interchange

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/CodBad25/oral-dnb/internal/session"
)

// Version is the only envelope version understood by the importer.
const Version = 1

// Payload is the versioned interchange envelope.
type Payload struct {
	Version    int                       `json:"version"`
	ExportDate string                    `json:"exportDate"`
	Jury       session.JuryInfo          `json:"jury"`
	Candidates []session.EvaluationState `json:"candidates"`
}

// Import rejection reasons. These are user-facing strings: the import
// dialog shows them verbatim, so they stay in the jurors' language.
var (
	ErrInvalidFile  = errors.New("Le fichier ne contient pas de données valides.")
	ErrBadVersion   = errors.New("Version du fichier non supportée.")
	ErrMissingJury  = errors.New("Informations du jury manquantes.")
	ErrNoCandidates = errors.New("Aucun candidat trouvé dans le fichier.")
	ErrBadCandidate = errors.New("Format de candidat invalide.")
)

// DuplicateJuryError rejects re-importing a jury number already held
// in the imported set. Distinct from the format errors above.
type DuplicateJuryError struct{ JuryNumber string }

func (e *DuplicateJuryError) Error() string {
	return fmt.Sprintf("Le jury %s a déjà été importé.", e.JuryNumber)
}

var validate = validator.New()

// candidateProbe mirrors one candidate entry with presence-sensitive
// types so that absent objects are distinguishable from empty ones.
type candidateProbe struct {
	Candidate map[string]any     `json:"candidate" validate:"required"`
	Scores    map[string]float64 `json:"scores" validate:"required"`
}

// Decode parses and validates an interchange file. The envelope is
// probed field by field so a missing or malformed value answers with
// its own rejection reason; nothing is partially applied.
func Decode(data []byte) (*Payload, error) {
	var raw struct {
		Version    json.RawMessage `json:"version"`
		Jury       json.RawMessage `json:"jury"`
		Candidates json.RawMessage `json:"candidates"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, ErrInvalidFile
	}

	var version int
	if len(raw.Version) == 0 || json.Unmarshal(raw.Version, &version) != nil || version != Version {
		return nil, ErrBadVersion
	}

	var jury map[string]any
	if len(raw.Jury) == 0 || json.Unmarshal(raw.Jury, &jury) != nil || len(jury) == 0 {
		return nil, ErrMissingJury
	}

	var elems []json.RawMessage
	if len(raw.Candidates) == 0 || json.Unmarshal(raw.Candidates, &elems) != nil || len(elems) == 0 {
		return nil, ErrNoCandidates
	}
	for _, el := range elems {
		var cp candidateProbe
		if err := json.Unmarshal(el, &cp); err != nil {
			return nil, ErrBadCandidate
		}
		if err := validate.Struct(&cp); err != nil {
			return nil, ErrBadCandidate
		}
	}

	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, ErrInvalidFile
	}
	return &p, nil
}

// Export wraps a jury's candidates in a fresh envelope.
func Export(jury session.JuryInfo, candidates []session.EvaluationState) Payload {
	return Payload{
		Version:    Version,
		ExportDate: time.Now().UTC().Format(time.RFC3339),
		Jury:       jury,
		Candidates: candidates,
	}
}

// Encode renders the envelope the way exported files look on disk.
func (p Payload) Encode() ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

// Filename follows the jury_{number}_{date}.json convention.
func (p Payload) Filename(now time.Time) string {
	num := p.Jury.JuryNumber
	if num == "" {
		num = "x"
	}
	return fmt.Sprintf("jury_%s_%s.json", num, now.Format("2006-01-02"))
}
