package dedup

import (
	"github.com/roach88/caseintake/internal/domain"
)

func present(s string) bool {
	return domain.Fold(s) != ""
}

func matchASN(candidate, existing domain.Defendant) Verdict {
	if present(candidate.ASN) && present(existing.ASN) && domain.EqualFold(candidate.ASN, existing.ASN) {
		return Duplicate
	}
	return NoMatch
}

func matchOrganisationName(candidate, existing domain.Defendant) Verdict {
	if candidate.Organisation == nil || existing.Organisation == nil {
		return NoMatch
	}
	a, b := candidate.Organisation.Name, existing.Organisation.Name
	if present(a) && domain.EqualFold(a, b) {
		return Duplicate
	}
	return NoMatch
}

// people returns both person identities when both sides have one.
func people(candidate, existing domain.Defendant) (*domain.Person, *domain.Person, bool) {
	if candidate.Person == nil || existing.Person == nil {
		return nil, nil, false
	}
	return candidate.Person, existing.Person, true
}

func lastNamesMatch(a, b *domain.Person) bool {
	return present(a.LastName) && domain.EqualFold(a.LastName, b.LastName)
}

func namesMatch(a, b *domain.Person) bool {
	return lastNamesMatch(a, b) && domain.EqualFold(a.FirstName, b.FirstName)
}

func datesOfBirthEqual(a, b *domain.Person) bool {
	return present(a.DateOfBirth) && present(b.DateOfBirth) && domain.EqualFold(a.DateOfBirth, b.DateOfBirth)
}

func matchNameAndDateOfBirth(candidate, existing domain.Defendant) Verdict {
	a, b, ok := people(candidate, existing)
	if ok && namesMatch(a, b) && datesOfBirthEqual(a, b) {
		return Duplicate
	}
	return NoMatch
}

// Neither side carries a date of birth, so the pair cannot be told apart.
func matchNameWithoutDateOfBirth(candidate, existing domain.Defendant) Verdict {
	a, b, ok := people(candidate, existing)
	if ok && namesMatch(a, b) && !present(a.DateOfBirth) && !present(b.DateOfBirth) {
		return Duplicate
	}
	return NoMatch
}

func matchLastNameAndDateOfBirth(candidate, existing domain.Defendant) Verdict {
	a, b, ok := people(candidate, existing)
	if !ok || !lastNamesMatch(a, b) {
		return NoMatch
	}
	if (!present(a.FirstName) || !present(b.FirstName)) && datesOfBirthEqual(a, b) {
		return Duplicate
	}
	return NoMatch
}

// A first name on exactly one side marks a different, partially described
// defendant. This stops the cascade with a negative verdict.
func matchFirstNamePresenceDiffers(candidate, existing domain.Defendant) Verdict {
	a, b, ok := people(candidate, existing)
	if ok && lastNamesMatch(a, b) && present(a.FirstName) != present(b.FirstName) {
		return Distinct
	}
	return NoMatch
}
