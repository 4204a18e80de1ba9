package domain

// Severity classifies a validation problem.
type Severity string

const (
	// SeverityError blocks acceptance.
	SeverityError Severity = "ERROR"
	// SeverityWarning flags the case but does not block acceptance.
	SeverityWarning Severity = "WARNING"
)

// ProblemValue is a contextual key/value attached to a problem.
type ProblemValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Problem is a typed validation finding.
type Problem struct {
	Code        string         `json:"code"`
	Severity    Severity       `json:"severity"`
	DefendantID string         `json:"defendantId,omitempty"`
	Values      []ProblemValue `json:"values,omitempty"`
}

// Problem codes raised outside the rule catalogue.
const (
	CodeMaterialExpired = "MATERIAL_EXPIRED"
)

// NewError builds an error-severity problem from alternating key/value pairs.
func NewError(code string, kv ...string) Problem {
	return Problem{Code: code, Severity: SeverityError, Values: pairs(kv)}
}

// NewWarning builds a warning-severity problem from alternating key/value pairs.
func NewWarning(code string, kv ...string) Problem {
	return Problem{Code: code, Severity: SeverityWarning, Values: pairs(kv)}
}

func pairs(kv []string) []ProblemValue {
	if len(kv) == 0 {
		return nil
	}
	out := make([]ProblemValue, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, ProblemValue{Key: kv[i], Value: kv[i+1]})
	}
	return out
}

// IsError reports whether the problem blocks acceptance.
func (p Problem) IsError() bool {
	return p.Severity == SeverityError
}

// Value returns the contextual value stored under key.
func (p Problem) Value(key string) (string, bool) {
	for _, v := range p.Values {
		if v.Key == key {
			return v.Value, true
		}
	}
	return "", false
}

// SplitProblems partitions problems into errors and warnings, preserving order.
func SplitProblems(ps []Problem) (errs, warns []Problem) {
	for _, p := range ps {
		if p.IsError() {
			errs = append(errs, p)
		} else {
			warns = append(warns, p)
		}
	}
	return errs, warns
}

// CloneProblems deep-copies a problem slice, preserving nil.
func CloneProblems(ps []Problem) []Problem {
	if ps == nil {
		return nil
	}
	out := make([]Problem, len(ps))
	for i, p := range ps {
		out[i] = p
		if p.Values != nil {
			out[i].Values = append([]ProblemValue(nil), p.Values...)
		}
	}
	return out
}
