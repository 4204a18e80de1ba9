// Package rules runs ordered lists of validation rules against a fact.
//
// A rule is a pure function from a fact to zero or more problems. A
// pipeline runs every rule in declaration order and collects every problem;
// it never short-circuits. Which pipeline runs for a submission is decided
// by a Selector, supplied by the caller, usually a Registry built from a
// CUE rule-set document.
package rules

import (
	"github.com/roach88/caseintake/internal/domain"
)

// Rule is a named predicate over a fact of type F.
type Rule[F any] struct {
	Name  string
	Check func(F) []domain.Problem
}

// Pipeline is an ordered list of rules.
//
// Downgrade lists problem codes that are reported as warnings regardless of
// the severity the rule raised them with.
type Pipeline[F any] struct {
	Name      string
	Rules     []Rule[F]
	Downgrade map[string]bool
}

// Result holds every problem raised by a pipeline run, in rule order.
type Result struct {
	Problems []domain.Problem
}

// Run evaluates every rule against fact.
func (p Pipeline[F]) Run(fact F) Result {
	var res Result
	for _, r := range p.Rules {
		for _, prob := range r.Check(fact) {
			if p.Downgrade[prob.Code] {
				prob.Severity = domain.SeverityWarning
			}
			res.Problems = append(res.Problems, prob)
		}
	}
	return res
}

// RuleNames returns the names of the pipeline's rules in order.
func (p Pipeline[F]) RuleNames() []string {
	names := make([]string, 0, len(p.Rules))
	for _, r := range p.Rules {
		names = append(names, r.Name)
	}
	return names
}

// Errors returns the blocking problems.
func (r Result) Errors() []domain.Problem {
	errs, _ := domain.SplitProblems(r.Problems)
	return errs
}

// Warnings returns the non-blocking problems.
func (r Result) Warnings() []domain.Problem {
	_, warns := domain.SplitProblems(r.Problems)
	return warns
}

// HasErrors reports whether any problem blocks acceptance.
func (r Result) HasErrors() bool {
	for _, p := range r.Problems {
		if p.IsError() {
			return true
		}
	}
	return false
}

// Merge appends other's problems to r.
func (r Result) Merge(other Result) Result {
	out := Result{Problems: make([]domain.Problem, 0, len(r.Problems)+len(other.Problems))}
	out.Problems = append(out.Problems, r.Problems...)
	out.Problems = append(out.Problems, other.Problems...)
	return out
}
