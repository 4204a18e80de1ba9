// Package dedup decides whether a newly submitted defendant is already known
// on a case.
//
// The decision is a cascade of matchers evaluated in declaration order. The
// first decisive verdict wins. A matcher may decide Duplicate, decide
// Distinct (an explicit "not a duplicate" that stops the cascade), or
// abstain with NoMatch. All string comparison is case-insensitive.
package dedup

import (
	"github.com/roach88/caseintake/internal/domain"
)

// Verdict is the outcome of a single matcher.
type Verdict int

const (
	// NoMatch means the matcher has nothing to say; the cascade continues.
	NoMatch Verdict = iota
	// Duplicate means the candidate is the existing defendant.
	Duplicate
	// Distinct means the candidate is explicitly a different defendant.
	Distinct
)

// String returns the verdict name.
func (v Verdict) String() string {
	switch v {
	case NoMatch:
		return "no-match"
	case Duplicate:
		return "duplicate"
	case Distinct:
		return "distinct"
	default:
		return "unknown"
	}
}

// Matcher is one named step of the cascade.
type Matcher struct {
	Name  string
	Match func(candidate, existing domain.Defendant) Verdict
}

// Result is the decisive verdict and the matcher that produced it.
// Rule is empty when no matcher was decisive.
type Result struct {
	Verdict Verdict
	Rule    string
}

// Matcher names.
const (
	RuleASN                      = "asn"
	RuleOrganisationName         = "organisationName"
	RuleNameAndDateOfBirth       = "nameAndDateOfBirth"
	RuleNameWithoutDateOfBirth   = "nameWithoutDateOfBirth"
	RuleLastNameAndDateOfBirth   = "lastNameAndDateOfBirth"
	RuleFirstNamePresenceDiffers = "firstNamePresenceDiffers"
)

// Cascade is the ordered list of matchers. Order is significant.
var Cascade = []Matcher{
	{Name: RuleASN, Match: matchASN},
	{Name: RuleOrganisationName, Match: matchOrganisationName},
	{Name: RuleNameAndDateOfBirth, Match: matchNameAndDateOfBirth},
	{Name: RuleNameWithoutDateOfBirth, Match: matchNameWithoutDateOfBirth},
	{Name: RuleLastNameAndDateOfBirth, Match: matchLastNameAndDateOfBirth},
	{Name: RuleFirstNamePresenceDiffers, Match: matchFirstNamePresenceDiffers},
}

// Evaluate runs the cascade for one candidate/existing pair.
func Evaluate(candidate, existing domain.Defendant) Result {
	for _, m := range Cascade {
		if v := m.Match(candidate, existing); v != NoMatch {
			return Result{Verdict: v, Rule: m.Name}
		}
	}
	return Result{Verdict: NoMatch}
}

// IsDuplicate reports whether candidate duplicates existing.
func IsDuplicate(candidate, existing domain.Defendant) bool {
	return Evaluate(candidate, existing).Verdict == Duplicate
}

// Classification splits incoming defendants into new and duplicate ones.
// Both slices preserve submission order.
type Classification struct {
	New        []domain.Defendant
	Duplicates []domain.Defendant
	// MatchedIDs maps a duplicate's ID to the ID of the known defendant it matched.
	MatchedIDs map[string]string
}

// Classify compares each incoming defendant against every known defendant of
// the same prosecutor case reference. The caller is responsible for passing
// only defendants of that reference as known.
func Classify(incoming, known []domain.Defendant) Classification {
	c := Classification{MatchedIDs: make(map[string]string)}
	for _, cand := range incoming {
		matched := ""
		for _, k := range known {
			if IsDuplicate(cand, k) {
				matched = k.ID
				break
			}
		}
		if matched != "" {
			c.Duplicates = append(c.Duplicates, cand)
			c.MatchedIDs[cand.ID] = matched
			continue
		}
		c.New = append(c.New, cand)
	}
	return c
}
