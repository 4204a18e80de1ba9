package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/caseintake/internal/intake"
)

func TestDispatchCommand_RequiresKind(t *testing.T) {
	_, err := execute(NewDispatchCommand(testRootOptions(t, "text")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestDispatchCommand_RequiresBody(t *testing.T) {
	_, err := execute(NewDispatchCommand(testRootOptions(t, "text")), "AcceptCase")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "one of --args or --file is required")
}

func TestDispatchCommand_ArgsAndFileExclusive(t *testing.T) {
	_, err := execute(NewDispatchCommand(testRootOptions(t, "text")),
		"AcceptCase", "--args", `{"caseId":"C1"}`, "--file", "body.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "none of the others can be")
}

func TestDispatchCommand_UnknownKind(t *testing.T) {
	_, err := execute(NewDispatchCommand(testRootOptions(t, "text")), "Explode", "--args", `{"caseId":"C1"}`)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid command")
}

func TestDispatchCommand_TextOutput(t *testing.T) {
	opts := testRootOptions(t, "text")
	out, err := execute(NewDispatchCommand(opts), "AddMaterial",
		"--args", `{"caseId":"C9","material":{"reference":"M9","documentType":"SJPN"}}`)
	require.NoError(t, err)

	assert.Contains(t, out, "AddMaterial C9 (correlation ")
	assert.Contains(t, out, "[1] MaterialPending")
	assert.Contains(t, out, "Version: 1")
}

func TestDispatchCommand_NoEvents(t *testing.T) {
	opts := testRootOptions(t, "text")
	out, err := execute(NewDispatchCommand(opts), "AcceptCase", "--args", `{"caseId":"C9"}`)
	require.NoError(t, err)
	assert.Contains(t, out, "(no events)")
	assert.Contains(t, out, "Version: 0")
}

func TestDispatchCommand_FromFile(t *testing.T) {
	opts := testRootOptions(t, "json")
	path := writeFile(t, t.TempDir(), "material.json",
		`{"caseId":"C9","material":{"reference":"M9","documentType":"SJPN"}}`)

	out, err := execute(NewDispatchCommand(opts), "AddMaterial", "--file", path)
	require.NoError(t, err)

	var resp struct {
		Status string         `json:"status"`
		Data   DispatchResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "C9", resp.Data.CaseID)
	assert.Equal(t, "AddMaterial", resp.Data.Command)
	assert.NotEmpty(t, resp.Data.CorrelationID)
	require.Len(t, resp.Data.Events, 1)
	assert.Equal(t, int64(1), resp.Data.Events[0].Seq)
	assert.Equal(t, "MaterialPending", resp.Data.Events[0].Kind)
	assert.NotEmpty(t, resp.Data.Events[0].ID)
	assert.Equal(t, int64(1), resp.Data.Version)
}

func TestDispatchCommand_FromStdin(t *testing.T) {
	opts := testRootOptions(t, "text")
	cmd := NewDispatchCommand(opts)
	cmd.SetIn(strings.NewReader(`{"caseId":"C9","material":{"reference":"M9"}}`))

	out, err := execute(cmd, "AddMaterial", "--file", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "[1] MaterialPending")
}

func TestDispatchCommand_GeneratesMaterialReference(t *testing.T) {
	opts := testRootOptions(t, "text")
	_, err := execute(NewDispatchCommand(opts), "AddMaterial",
		"--args", `{"caseId":"C9","material":{"documentType":"SJPN"}}`)
	require.NoError(t, err)

	opts.Format = "json"
	out, err := execute(NewTraceCommand(opts), "--case", "C9")
	require.NoError(t, err)

	var resp struct {
		Data TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Timeline, 1)
	material, ok := resp.Data.Timeline[0].Payload["material"].(map[string]any)
	require.True(t, ok)
	ref, _ := material["reference"].(string)
	_, err = uuid.Parse(ref)
	assert.NoError(t, err, "reference %q should be a UUID", ref)
}

func TestWithMaterialReference(t *testing.T) {
	kept := withMaterialReference(intake.AddMaterial{CaseID: "C1"})
	m, ok := kept.(intake.AddMaterial)
	require.True(t, ok)
	assert.NotEmpty(t, m.Material.Reference)

	v2 := withMaterialReference(intake.AddMaterialV2{CaseID: "C1"})
	m2, ok := v2.(intake.AddMaterialV2)
	require.True(t, ok)
	assert.NotEmpty(t, m2.Material.Reference)

	accept := intake.AcceptCase{CaseID: "C1"}
	assert.Equal(t, intake.Command(accept), withMaterialReference(accept))
}
