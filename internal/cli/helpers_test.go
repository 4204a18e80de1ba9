package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/roach88/caseintake/internal/config"
)

// testRootOptions returns options with a resolved config pointing at a
// fresh database and a no-op logger.
func testRootOptions(t *testing.T, format string) *RootOptions {
	t.Helper()
	return &RootOptions{
		Format: format,
		Config: &config.Config{
			Database:         filepath.Join(t.TempDir(), "test.db"),
			LogLevel:         "info",
			LogFormat:        "console",
			MaterialLifetime: 720 * time.Hour,
		},
		Logger: zap.NewNop(),
	}
}

func execute(cmd *cobra.Command, args ...string) (string, error) {
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const intakeScenario = `
name: intake
description: "receive, park a material, accept"
now: 2024-03-01T09:00:00Z
steps:
  - command: ReceiveSubmission
    args:
      externalId: X1
      case:
        caseId: C1
        prosecutorCaseReference: REF-1
        prosecutingAuthority: TFL
        channel: SPI
        initiationCode: "C"
      defendants:
        - id: D1
          prosecutorDefendantReference: PD1
          person: {firstName: Ann, lastName: Jones}
          offences: [{code: TH68001}]
          hearing: {courtCode: B01LY00}
    expect: [CaseReceived]
  - command: AddMaterial
    args:
      caseId: C1
      material: {reference: M1, prosecutingAuthority: TFL, defendantRef: PD1, documentType: SJPN}
    expect: [MaterialPending]
  - command: AddMaterial
    args:
      caseId: C2
      material: {reference: M2, documentType: SJPN}
    expect: [MaterialPending]
  - command: AcceptCase
    at: 2024-03-01T10:00:00Z
    args: {caseId: C1}
    expect: [CaseAccepted, MaterialAdded]
`

// seedLog runs intakeScenario into the configured database.
func seedLog(t *testing.T, opts *RootOptions) {
	t.Helper()
	path := writeFile(t, t.TempDir(), "intake.yaml", intakeScenario)
	_, err := execute(NewRunCommand(opts), "--scenario", path)
	require.NoError(t, err)
}
