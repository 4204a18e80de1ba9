package rules

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/caseintake/internal/domain"
)

//go:embed schema.cue
var schemaSource string

//go:embed default.cue
var defaultSource []byte

// Wildcard matches any channel or initiation code.
const Wildcard = "*"

// RuleSet names the rules that apply to one (channel, initiation) pair.
type RuleSet struct {
	Name       string   `json:"-"`
	Channel    string   `json:"channel"`
	Initiation string   `json:"initiation"`
	Case       []string `json:"case"`
	Defendant  []string `json:"defendant"`
	Material   []string `json:"material"`
	Warnings   []string `json:"warnings"`
}

// LoadError reports a malformed rule-set document.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Load parses a CUE rule-set document and validates it against the embedded
// schema. Rule sets are returned sorted by name.
func Load(src []byte, filename string) ([]RuleSet, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile rule-set schema: %w", err)
	}

	doc := ctx.CompileBytes(src, cue.Filename(filename))
	if err := doc.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	v := schema.Unify(doc)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	if !doc.LookupPath(cue.ParsePath("rulesets")).Exists() {
		return nil, &LoadError{Code: "RULESETS_MISSING", Message: "rulesets is required", Pos: doc.Pos()}
	}
	setsVal := v.LookupPath(cue.ParsePath("rulesets"))

	iter, err := setsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var sets []RuleSet
	for iter.Next() {
		var rs RuleSet
		if err := iter.Value().Decode(&rs); err != nil {
			return nil, formatCUEError(err)
		}
		rs.Name = iter.Label()
		sets = append(sets, rs)
	}
	if len(sets) == 0 {
		return nil, &LoadError{Code: "RULESETS_EMPTY", Message: "at least one rule set is required", Pos: setsVal.Pos()}
	}

	sort.Slice(sets, func(i, j int) bool { return sets[i].Name < sets[j].Name })
	return sets, nil
}

// DefaultRuleSets returns the rule sets shipped with the binary.
func DefaultRuleSets() []RuleSet {
	sets, err := Load(defaultSource, "default.cue")
	if err != nil {
		panic(fmt.Sprintf("rules: embedded default.cue is invalid: %v", err))
	}
	return sets
}

func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &LoadError{Code: "CUE", Message: first.Error(), Pos: positions[0]}
	}
	return &LoadError{Code: "CUE", Message: first.Error()}
}

// Selection is the set of pipelines chosen for one submission.
type Selection struct {
	RuleSet   string
	Case      Pipeline[CaseFact]
	Defendant Pipeline[DefendantFact]
	Material  Pipeline[MaterialFact]
}

// Selector chooses the pipelines for a (channel, initiation) pair.
type Selector interface {
	Select(ch domain.Channel, ic domain.InitiationCode) Selection
}

// Registry is a Selector backed by compiled rule sets.
//
// Matching prefers an exact (channel, initiation) pair, then an exact
// channel, then an exact initiation code, then the (*, *) fallback. If no
// rule set matches, Select returns empty pipelines.
type Registry struct {
	byKey map[[2]string]Selection
}

// NewRegistry resolves rule names against cat and compiles each rule set.
func NewRegistry(cat Catalogue, sets []RuleSet) (*Registry, error) {
	r := &Registry{byKey: make(map[[2]string]Selection, len(sets))}
	for _, rs := range sets {
		key := [2]string{orWildcard(rs.Channel), orWildcard(rs.Initiation)}
		if prev, dup := r.byKey[key]; dup {
			return nil, &LoadError{
				Code:    "DUPLICATE_RULESET",
				Message: fmt.Sprintf("rule sets %q and %q both match channel %s initiation %s", prev.RuleSet, rs.Name, key[0], key[1]),
			}
		}
		sel, err := compile(cat, rs)
		if err != nil {
			return nil, err
		}
		r.byKey[key] = sel
	}
	return r, nil
}

// DefaultRegistry compiles the embedded rule sets against the built-in catalogue.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(Builtin(), DefaultRuleSets())
	if err != nil {
		panic(fmt.Sprintf("rules: default registry: %v", err))
	}
	return r
}

// LoadRegistry compiles the rule-set document at path against the built-in
// catalogue. An empty path yields DefaultRegistry.
func LoadRegistry(path string) (*Registry, error) {
	if path == "" {
		return DefaultRegistry(), nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule sets: %w", err)
	}
	sets, err := Load(src, path)
	if err != nil {
		return nil, err
	}
	return NewRegistry(Builtin(), sets)
}

// Select implements Selector.
func (r *Registry) Select(ch domain.Channel, ic domain.InitiationCode) Selection {
	for _, key := range [][2]string{
		{string(ch), string(ic)},
		{string(ch), Wildcard},
		{Wildcard, string(ic)},
		{Wildcard, Wildcard},
	} {
		if sel, ok := r.byKey[key]; ok {
			return sel
		}
	}
	return Selection{}
}

// Names returns the compiled rule-set names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byKey))
	for _, sel := range r.byKey {
		names = append(names, sel.RuleSet)
	}
	sort.Strings(names)
	return names
}

func compile(cat Catalogue, rs RuleSet) (Selection, error) {
	downgrade := make(map[string]bool, len(rs.Warnings))
	for _, code := range rs.Warnings {
		downgrade[code] = true
	}
	caseRules, err := resolve(rs.Name, "case", cat.Case, rs.Case)
	if err != nil {
		return Selection{}, err
	}
	defRules, err := resolve(rs.Name, "defendant", cat.Defendant, rs.Defendant)
	if err != nil {
		return Selection{}, err
	}
	matRules, err := resolve(rs.Name, "material", cat.Material, rs.Material)
	if err != nil {
		return Selection{}, err
	}
	return Selection{
		RuleSet:   rs.Name,
		Case:      Pipeline[CaseFact]{Name: rs.Name + "/case", Rules: caseRules, Downgrade: downgrade},
		Defendant: Pipeline[DefendantFact]{Name: rs.Name + "/defendant", Rules: defRules, Downgrade: downgrade},
		Material:  Pipeline[MaterialFact]{Name: rs.Name + "/material", Rules: matRules, Downgrade: downgrade},
	}, nil
}

func resolve[F any](set, level string, available map[string]Rule[F], names []string) ([]Rule[F], error) {
	out := make([]Rule[F], 0, len(names))
	for _, name := range names {
		r, ok := available[name]
		if !ok {
			return nil, &LoadError{
				Code:    "UNKNOWN_RULE",
				Message: fmt.Sprintf("rule set %q: unknown %s rule %q", set, level, name),
			}
		}
		out = append(out, r)
	}
	return out, nil
}

func orWildcard(s string) string {
	if s == "" {
		return Wildcard
	}
	return s
}
