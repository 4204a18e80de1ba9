package rules

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/caseintake/internal/domain"
)

func TestDefaultRuleSets(t *testing.T) {
	sets := DefaultRuleSets()
	names := make([]string, 0, len(sets))
	for _, s := range sets {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"civil", "default", "sjp"}, names)

	def := sets[1]
	assert.Equal(t, Wildcard, def.Channel)
	assert.Equal(t, Wildcard, def.Initiation)
	assert.Contains(t, def.Defendant, "offenceCodesKnown")
	assert.Empty(t, def.Warnings)
}

func TestRegistry_Specificity(t *testing.T) {
	sets := []RuleSet{
		{Name: "any", Channel: "*", Initiation: "*"},
		{Name: "spi", Channel: "SPI", Initiation: "*"},
		{Name: "summons", Channel: "*", Initiation: "S"},
		{Name: "spi-summons", Channel: "SPI", Initiation: "S"},
	}
	r, err := NewRegistry(Builtin(), sets)
	require.NoError(t, err)

	assert.Equal(t, "spi-summons", r.Select(domain.ChannelSPI, domain.InitiationSummons).RuleSet)
	assert.Equal(t, "spi", r.Select(domain.ChannelSPI, domain.InitiationCharge).RuleSet)
	assert.Equal(t, "summons", r.Select(domain.ChannelMCC, domain.InitiationSummons).RuleSet)
	assert.Equal(t, "any", r.Select(domain.ChannelMCC, domain.InitiationCharge).RuleSet)
	assert.Equal(t, []string{"any", "spi", "spi-summons", "summons"}, r.Names())
}

func TestRegistry_NoMatchIsEmpty(t *testing.T) {
	r, err := NewRegistry(Builtin(), []RuleSet{{Name: "spi", Channel: "SPI", Initiation: "*"}})
	require.NoError(t, err)
	sel := r.Select(domain.ChannelMCC, domain.InitiationCharge)
	assert.Empty(t, sel.RuleSet)
	assert.Empty(t, sel.Defendant.Run(DefendantFact{}).Problems)
}

func TestRegistry_Errors(t *testing.T) {
	_, err := NewRegistry(Builtin(), []RuleSet{{Name: "x", Defendant: []string{"noSuchRule"}}})
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "UNKNOWN_RULE", le.Code)
	assert.Contains(t, le.Error(), "noSuchRule")

	_, err = NewRegistry(Builtin(), []RuleSet{{Name: "a"}, {Name: "b", Channel: "*", Initiation: "*"}})
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "DUPLICATE_RULESET", le.Code)
}

func TestLoad_AppliesSchemaDefaults(t *testing.T) {
	sets, err := Load([]byte(`
rulesets: mcc: {
	channel: "MCC"
	defendant: ["defendantIdentityPresent"]
}
`), "mcc.cue")
	require.NoError(t, err)
	require.Len(t, sets, 1)
	rs := sets[0]
	assert.Equal(t, "mcc", rs.Name)
	assert.Equal(t, "MCC", rs.Channel)
	assert.Equal(t, Wildcard, rs.Initiation)
	assert.Equal(t, []string{"defendantIdentityPresent"}, rs.Defendant)
	assert.Empty(t, rs.Case)
	assert.Empty(t, rs.Material)
	assert.Empty(t, rs.Warnings)
}

func TestLoad_RejectsBadDocuments(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
	}{
		{name: "syntax error", src: `rulesets: {`, code: "CUE"},
		{name: "unknown channel", src: `rulesets: x: channel: "FAX"`, code: "CUE"},
		{name: "unknown field", src: `rulesets: x: cases: []`, code: "CUE"},
		{name: "missing rulesets", src: `other: 1`, code: "RULESETS_MISSING"},
		{name: "empty rulesets", src: `rulesets: {}`, code: "RULESETS_EMPTY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.src), "bad.cue")
			require.Error(t, err)
			var le *LoadError
			require.True(t, errors.As(err, &le), "got %T: %v", err, err)
			assert.Equal(t, tt.code, le.Code)
		})
	}
}

func TestLoadError_Position(t *testing.T) {
	_, err := Load([]byte("rulesets: x: {\n\tchannel: \"FAX\"\n}\n"), "pos.cue")
	var le *LoadError
	require.True(t, errors.As(err, &le))
	if le.Pos.IsValid() {
		assert.Contains(t, le.Error(), "pos.cue:")
	}
}

func TestLoadRegistry(t *testing.T) {
	r, err := LoadRegistry("")
	require.NoError(t, err)
	assert.Equal(t, []string{"civil", "default", "sjp"}, r.Names())

	path := filepath.Join(t.TempDir(), "rules.cue")
	require.NoError(t, os.WriteFile(path, []byte(`rulesets: only: {case: ["defendantsRequired"]}`), 0o644))
	r, err = LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, r.Names())

	_, err = LoadRegistry(filepath.Join(t.TempDir(), "missing.cue"))
	assert.ErrorContains(t, err, "read rule sets")
}
