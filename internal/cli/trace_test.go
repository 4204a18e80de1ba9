package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceCommand_RequiresCase(t *testing.T) {
	_, err := execute(NewTraceCommand(testRootOptions(t, "text")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestTraceCommand_UnknownCase(t *testing.T) {
	out, err := execute(NewTraceCommand(testRootOptions(t, "text")), "--case", "nope")
	require.NoError(t, err)
	assert.Contains(t, out, "No events found for case: nope")
}

func TestTraceCommand_UnknownCaseJSON(t *testing.T) {
	out, err := execute(NewTraceCommand(testRootOptions(t, "json")), "--case", "nope")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "nope", resp.Data.CaseID)
	assert.Empty(t, resp.Data.Timeline)
}

func TestTraceCommand_TextOutput(t *testing.T) {
	opts := testRootOptions(t, "text")
	seedLog(t, opts)

	out, err := execute(NewTraceCommand(opts), "--case", "C1")
	require.NoError(t, err)

	assert.Contains(t, out, "Trace for Case: C1")
	assert.Contains(t, out, "=== Timeline ===")
	assert.Contains(t, out, "[1] CaseReceived")
	assert.Contains(t, out, "[2] MaterialPending")
	assert.Contains(t, out, "[3] CaseAccepted")
	assert.Contains(t, out, "[4] MaterialAdded")
	assert.Contains(t, out, "=== State ===")
	assert.Contains(t, out, "accepted=true")
	assert.Contains(t, out, "version=4")
	assert.Contains(t, out, "=== Stats ===")
	assert.Contains(t, out, "Total Events: 4")
	assert.Contains(t, out, "CaseReceived: 1")
}

func TestTraceCommand_Verbose(t *testing.T) {
	opts := testRootOptions(t, "text")
	seedLog(t, opts)
	opts.Verbose = true

	out, err := execute(NewTraceCommand(opts), "--case", "C2")
	require.NoError(t, err)
	assert.Contains(t, out, "Payload: {caseId=C2, material={")
	assert.Contains(t, out, "reference=M2")
	assert.Contains(t, out, "Recorded: ")
}

func TestTraceCommand_KindFilterJSON(t *testing.T) {
	opts := testRootOptions(t, "text")
	seedLog(t, opts)
	opts.Format = "json"

	out, err := execute(NewTraceCommand(opts), "--case", "C1", "--kind", "MaterialAdded")
	require.NoError(t, err)

	var resp struct {
		Data TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Timeline, 1)
	assert.Equal(t, "MaterialAdded", resp.Data.Timeline[0].Kind)
	assert.Equal(t, int64(4), resp.Data.Timeline[0].Seq)
	assert.Equal(t, 4, resp.Data.Stats.TotalEvents)
	assert.Equal(t, 1, resp.Data.Stats.Kinds["MaterialPending"])
	assert.Equal(t, true, resp.Data.State["accepted"])
	assert.Equal(t, float64(0), resp.Data.State["pending_materials"])
}

func TestFormatArgs(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"empty", map[string]any{}, "{}"},
		{"nil", nil, "{}"},
		{"sorted", map[string]any{"b": 2, "a": "x"}, "{a=x, b=2}"},
		{"nested", map[string]any{"m": map[string]any{"z": 1, "y": []any{"p", 3}}}, "{m={y=[p, 3], z=1}}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatArgs(tt.args))
		})
	}
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "short", truncateID("short"))
	assert.Equal(t, "0123456789abcdef", truncateID("0123456789abcdef"))
	assert.Equal(t, "01234567...89abcdef", truncateID("0123456789abcdef0123456789abcdef"))
}
