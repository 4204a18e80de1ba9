// Package refdata is a static, YAML-backed implementation of the reference
// data lookups used by rule evaluation, plus the enrichers that read it.
package refdata

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/caseintake/internal/domain"
)

//go:embed default.yaml
var defaultYAML []byte

// File is the on-disk shape of a reference data fixture.
type File struct {
	Offences          []domain.OffenceRef       `yaml:"offences"`
	OrganisationUnits []domain.OrganisationUnit `yaml:"organisation_units"`
	Nationalities     []domain.Nationality      `yaml:"nationalities"`
	DocumentTypes     []string                  `yaml:"document_types"`
}

// Static answers lookups from in-memory tables. Codes are matched
// case-insensitively. A Static is read-only after construction and safe for
// concurrent use.
type Static struct {
	offences      map[string]domain.OffenceRef
	units         map[string]domain.OrganisationUnit
	nationalities map[string]domain.Nationality
	documentTypes map[string]bool
}

var _ domain.ReferenceData = (*Static)(nil)

// New indexes the tables of f.
func New(f File) *Static {
	s := &Static{
		offences:      make(map[string]domain.OffenceRef, len(f.Offences)),
		units:         make(map[string]domain.OrganisationUnit, len(f.OrganisationUnits)),
		nationalities: make(map[string]domain.Nationality, len(f.Nationalities)),
		documentTypes: make(map[string]bool, len(f.DocumentTypes)),
	}
	for _, o := range f.Offences {
		s.offences[domain.Fold(o.Code)] = o
	}
	for _, u := range f.OrganisationUnits {
		s.units[domain.Fold(u.OUCode)] = u
	}
	for _, n := range f.Nationalities {
		s.nationalities[domain.Fold(n.Code)] = n
	}
	for _, t := range f.DocumentTypes {
		s.documentTypes[domain.Fold(t)] = true
	}
	return s
}

// Load decodes a YAML fixture. Unknown keys are rejected.
func Load(r io.Reader) (*Static, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode reference data: %w", err)
	}
	return New(f), nil
}

// LoadFile reads a YAML fixture from path.
func LoadFile(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reference data: %w", err)
	}
	s, err := Load(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Default returns the reference data shipped with the binary.
func Default() *Static {
	s, err := Load(bytes.NewReader(defaultYAML))
	if err != nil {
		panic(fmt.Sprintf("refdata: embedded default.yaml is invalid: %v", err))
	}
	return s
}

// Offences returns the rows for the known codes among codes, in order.
func (s *Static) Offences(codes []string) []domain.OffenceRef {
	var out []domain.OffenceRef
	for _, c := range codes {
		if o, ok := s.offences[domain.Fold(c)]; ok {
			out = append(out, o)
		}
	}
	return out
}

// OrganisationUnit looks up a court organisational unit.
func (s *Static) OrganisationUnit(ouCode string) (domain.OrganisationUnit, bool) {
	u, ok := s.units[domain.Fold(ouCode)]
	return u, ok
}

// Nationality looks up a nationality code.
func (s *Static) Nationality(code string) (domain.Nationality, bool) {
	n, ok := s.nationalities[domain.Fold(code)]
	return n, ok
}

// DocumentTypeSupported reports whether materials of documentType are accepted.
func (s *Static) DocumentTypeSupported(documentType string) bool {
	return s.documentTypes[domain.Fold(documentType)]
}
