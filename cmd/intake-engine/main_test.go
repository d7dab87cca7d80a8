package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const testCatalog = "../../configs/programs.yaml"

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// resetFlags restores every flag to its default between executions.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// writeTestConfig writes a config using a pure-Go SQLite audit database in
// dir and returns its path.
func writeTestConfig(t *testing.T, dir string) string {
	t.Helper()
	catalogPath, err := filepath.Abs(testCatalog)
	if err != nil {
		t.Fatal(err)
	}
	content := fmt.Sprintf(`catalog:
  path: %q
audit:
  backend: sqlite
  sqlite:
    driver: sqlite
    path: %q
telemetry:
  logging:
    level: error
  metrics:
    enabled: false
`, catalogPath, filepath.Join(dir, "audit.db"))
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

const shopliftingSnapshot = `case_id: %s
youth:
  age: 14
  admits_responsibility: true
  family_participation_consent: true
  school_enrolled: true
  responsible_adult_available: true
offense:
  severity: misdemeanor_property
  tags: [shoplifting]
supervision: [none]
living_situation: stable_guardian
flags:
  substance_use_indicated: false
  mental_health_need: false
protective_factors: [engaged guardian]
`

func writeSnapshot(t *testing.T, dir, caseID string) string {
	t.Helper()
	path := filepath.Join(dir, caseID+".yaml")
	if err := os.WriteFile(path, []byte(fmt.Sprintf(shopliftingSnapshot, caseID)), 0o644); err != nil {
		t.Fatalf("failed to write snapshot: %v", err)
	}
	return path
}
