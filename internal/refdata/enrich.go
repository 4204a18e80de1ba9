package refdata

import "github.com/roach88/caseintake/internal/domain"

// Annotation keys written by CourtCentreEnricher.
const (
	AnnotationCourtCentreID = "courtCentreId"
	AnnotationCourtName     = "courtName"
)

// CourtCentreEnricher annotates a case with the court centre of its first
// defendant hearing. It adds nothing when no hearing court resolves.
func CourtCentreEnricher() domain.Enricher {
	return domain.EnricherFunc(func(c domain.CaseWithReferenceData) map[string]string {
		if c.Reference == nil {
			return nil
		}
		for _, d := range c.Defendants {
			if d.Hearing == nil || d.Hearing.CourtCode == "" {
				continue
			}
			ou, ok := c.Reference.OrganisationUnit(d.Hearing.CourtCode)
			if !ok {
				return nil
			}
			return map[string]string{
				AnnotationCourtCentreID: ou.CourtCentreID,
				AnnotationCourtName:     ou.Name,
			}
		}
		return nil
	})
}
