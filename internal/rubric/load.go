package rubric

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed grille-2026.yaml
var embedded []byte

var (
	defaultOnce   sync.Once
	defaultGrille *Grille
)

// Default returns the embedded grille for the current session. The
// embedded data is validated at first use; a broken embed is a build
// defect, so it panics rather than returning an error.
func Default() *Grille {
	defaultOnce.Do(func() {
		g, err := Parse(embedded)
		if err != nil {
			panic(fmt.Sprintf("rubric: embedded grille invalid: %v", err))
		}
		defaultGrille = g
	})
	return defaultGrille
}

// Parse decodes and validates a YAML grille.
func Parse(data []byte) (*Grille, error) {
	var g Grille
	if err := yaml.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("decode grille: %w", err)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &g, nil
}

// Load reads a grille from r, e.g. to swap in another session year.
func Load(r io.Reader) (*Grille, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// LoadFile loads a grille from a YAML file on disk.
func LoadFile(path string) (*Grille, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}
