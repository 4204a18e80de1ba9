package domain

import "time"

// MaterialShape distinguishes the original material payload from the
// extended (V2) one.
type MaterialShape string

const (
	MaterialShapeV1 MaterialShape = "v1"
	MaterialShapeV2 MaterialShape = "v2"
)

// DocumentTypeIDPC is the document classification for the initial details
// of the prosecution case.
const DocumentTypeIDPC = "IDPC"

// Material is a document or evidence item submitted against a case.
//
// DefendantRef is a prosecutor defendant reference and may be empty when
// the owning defendant is not yet resolvable. V2 materials may name several
// defendants through DefendantRefs and carry a submission id.
type Material struct {
	Reference            string        `json:"reference"`
	ProsecutingAuthority string        `json:"prosecutingAuthority"`
	DefendantRef         string        `json:"defendantRef,omitempty"`
	DocumentType         string        `json:"documentType"`
	ReceivedAt           time.Time     `json:"receivedAt"`
	Shape                MaterialShape `json:"shape,omitempty"`
	SubmissionID         string        `json:"submissionId,omitempty"`
	DefendantRefs        []string      `json:"defendantRefs,omitempty"`
}

// TargetRefs returns every defendant reference the material names.
func (m Material) TargetRefs() []string {
	var refs []string
	if m.DefendantRef != "" {
		refs = append(refs, m.DefendantRef)
	}
	for _, r := range m.DefendantRefs {
		if r != "" && !EqualFold(r, m.DefendantRef) {
			refs = append(refs, r)
		}
	}
	return refs
}

// Clone returns a deep copy of the material.
func (m Material) Clone() Material {
	out := m
	if m.DefendantRefs != nil {
		out.DefendantRefs = append([]string(nil), m.DefendantRefs...)
	}
	return out
}
