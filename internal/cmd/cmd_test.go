package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	goverrors "github.com/felixgeelhaar/apigov/internal/errors"
	"github.com/felixgeelhaar/apigov/internal/exitcode"
	"github.com/felixgeelhaar/apigov/internal/policy"
	"github.com/felixgeelhaar/apigov/internal/telemetry"
)

const oldAPI = `openapi: 3.0.3
info:
  title: Users
  version: 1.0.0
paths:
  /users:
    get:
      responses:
        "200":
          description: ok
  /legacy:
    get:
      deprecated: true
      x-sunset: "2020-01-01"
      responses:
        "200":
          description: ok
    post:
      responses:
        "201":
          description: created
`

// legacy GET retired after its sunset, orders added.
const compatibleAPI = `openapi: 3.0.3
info:
  title: Users
  version: 1.0.0
paths:
  /users:
    get:
      responses:
        "200":
          description: ok
  /legacy:
    post:
      responses:
        "201":
          description: created
  /orders:
    get:
      responses:
        "200":
          description: ok
`

// /users removed without deprecation.
const breakingAPI = `openapi: 3.0.3
info:
  title: Users
  version: 1.0.0
paths:
  /legacy:
    get:
      deprecated: true
      x-sunset: "2020-01-01"
      responses:
        "200":
          description: ok
    post:
      responses:
        "201":
          description: created
`

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// schemas writes old and new single-document corpora and returns their roots.
func schemas(t *testing.T, newDoc string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "old", "api.yaml"), oldAPI)
	writeFile(t, filepath.Join(dir, "new", "api.yaml"), newDoc)
	return filepath.Join(dir, "old"), filepath.Join(dir, "new")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(policy.EnvEnforcement, "")
	t.Setenv(policy.EnvWindowDays, "")
	t.Setenv(telemetry.EnvTracing, "false")

	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func decodeJSON(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &m), s)
	return m
}

func TestRootRegistersCommands(t *testing.T) {
	root := newRootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"check", "classify", "diff", "bump", "overrides", "config", "version"} {
		assert.True(t, names[want], "missing command %s", want)
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("log-level"))
	assert.NotNil(t, root.PersistentFlags().Lookup("log-format"))
}

func TestCheckDeprecatedRemovalPasses(t *testing.T) {
	oldDir, newDir := schemas(t, compatibleAPI)

	out, err := execute(t, "check", "--old", oldDir, "--new", newDir, "--enforcement", "block", "--format", "json")
	require.NoError(t, err)

	r := decodeJSON(t, out)
	assert.Equal(t, "PASS", r["verdict"])
	assert.Equal(t, "major", r["bump"])
	approvals := r["approvals"].([]any)
	require.Len(t, approvals, 1)
	first := approvals[0].(map[string]any)
	assert.Equal(t, "paths./legacy.get", first["path"])
	assert.Equal(t, "deprecation", first["source"])
	assert.Empty(t, r["unresolved"])
	assert.NotEmpty(t, r["old"].(map[string]any)["fingerprint"])
}

func TestCheckComparesTwoSchemaFiles(t *testing.T) {
	dir := t.TempDir()
	oldFile := writeFile(t, filepath.Join(dir, "api-v1.yaml"), oldAPI)
	newFile := writeFile(t, filepath.Join(dir, "api-v2.yaml"), oldAPI+`  /orders:
    get:
      responses:
        "200":
          description: ok
`)

	out, err := execute(t, "check", "--old", oldFile, "--new", newFile, "--enforcement", "block", "--format", "json")
	require.NoError(t, err)

	r := decodeJSON(t, out)
	assert.Equal(t, "PASS", r["verdict"])
	assert.Equal(t, "minor", r["bump"])
	changes := r["changes"].(map[string]any)
	assert.Empty(t, changes["breaking"])
	additive := changes["additive"].([]any)
	require.Len(t, additive, 1)
	assert.Equal(t, "paths./orders", additive[0].(map[string]any)["path"])
}

func TestCheckBlockFails(t *testing.T) {
	oldDir, newDir := schemas(t, breakingAPI)

	out, err := execute(t, "check", "--old", oldDir, "--new", newDir, "--enforcement", "block", "--no-color")
	require.Error(t, err)

	code, ok := goverrors.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, goverrors.ErrCodeGovViolation, code)
	assert.Equal(t, exitcode.GovernanceViolation, exitcode.DetermineExitCode(err))

	assert.Contains(t, out, "API governance: FAIL")
	assert.Contains(t, out, "✗ paths./users")
}

func TestCheckWarnReportsButPasses(t *testing.T) {
	oldDir, newDir := schemas(t, breakingAPI)

	out, err := execute(t, "check", "--old", oldDir, "--new", newDir, "--format", "json")
	require.NoError(t, err)

	r := decodeJSON(t, out)
	assert.Equal(t, "PASS", r["verdict"])
	assert.Len(t, r["warnings"], 1)
	assert.Len(t, r["unresolved"], 1)
}

func TestCheckOverrideApproves(t *testing.T) {
	oldDir, newDir := schemas(t, breakingAPI)
	overrides := writeFile(t, filepath.Join(t.TempDir(), "overrides.yaml"), `overrides:
  - issueNumber: API-42
    reason: users moved to the accounts API
    approver: api-board
    impactedPaths: [paths./users]
  - issueNumber: API-43
    reason: too broad
    approver: api-board
    impactedPaths: ["paths.*"]
`)

	out, err := execute(t, "check", "--old", oldDir, "--new", newDir,
		"--enforcement", "block", "--overrides", overrides, "--format", "json")
	require.NoError(t, err)

	r := decodeJSON(t, out)
	assert.Equal(t, "PASS", r["verdict"])
	approvals := r["approvals"].([]any)
	require.Len(t, approvals, 1)
	assert.Equal(t, "API-42", approvals[0].(map[string]any)["issueNumber"])
	assert.Len(t, r["rejectedOverrides"], 1)
}

func TestCheckVersionInconsistent(t *testing.T) {
	oldDir, newDir := schemas(t, compatibleAPI)

	_, err := execute(t, "check", "--old", oldDir, "--new", newDir,
		"--current-version", "1.0.0", "--proposed-version", "1.1.0", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, exitcode.VersionInconsistent, exitcode.DetermineExitCode(err))
	assert.Contains(t, err.Error(), "2.0.0")

	_, err = execute(t, "check", "--old", oldDir, "--new", newDir, "--current-version", "1.0.0")
	assert.Error(t, err, "versions must be given together")
}

func TestCheckWritesOutputAndMetrics(t *testing.T) {
	oldDir, newDir := schemas(t, compatibleAPI)
	dir := t.TempDir()
	reportPath := filepath.Join(dir, "report.sarif")
	metricsPath := filepath.Join(dir, "apigov.prom")

	out, err := execute(t, "check", "--old", oldDir, "--new", newDir,
		"--format", "sarif", "--output", reportPath, "--metrics-file", metricsPath)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "apigov/approved-breaking-change")

	prom, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "apigov_runs_total")
	assert.Contains(t, string(prom), `apigov_changes_total{category="breaking"} 1`)
}

func TestCheckInputErrors(t *testing.T) {
	oldDir, _ := schemas(t, compatibleAPI)

	_, err := execute(t, "check", "--old", oldDir, "--new", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	code, _ := goverrors.CodeOf(err)
	assert.Equal(t, goverrors.ErrCodeCorpusNotFound, code)
	assert.Equal(t, exitcode.InvalidInput, exitcode.DetermineExitCode(err))

	badConfig := writeFile(t, filepath.Join(t.TempDir(), "apigov.yaml"), "deprecationWindowDays: -1\n")
	_, err = execute(t, "check", "--old", oldDir, "--new", oldDir, "--config", badConfig)
	require.Error(t, err)
	code, _ = goverrors.CodeOf(err)
	assert.Equal(t, goverrors.ErrCodeConfigInvalid, code)

	_, err = execute(t, "check", "--old", oldDir, "--new", oldDir, "--enforcement", "strict")
	require.Error(t, err)
	assert.Equal(t, exitcode.InvalidInput, exitcode.DetermineExitCode(err))

	_, err = execute(t, "check", "--old", oldDir)
	require.Error(t, err)
	assert.Equal(t, exitcode.UsageError, exitcode.DetermineExitCode(err))
}

func TestDiffThenClassify(t *testing.T) {
	oldDir, newDir := schemas(t, breakingAPI)
	changes := filepath.Join(t.TempDir(), "changes.json")

	_, err := execute(t, "diff", "--old", oldDir, "--new", newDir, "-o", changes)
	require.NoError(t, err)

	data, err := os.ReadFile(changes)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"classificationHint": "endpoint_removed"`)

	out, err := execute(t, "classify", "--changes", changes, "--format", "json")
	require.NoError(t, err)
	r := decodeJSON(t, out)
	assert.Equal(t, "classify", r["command"])
	assert.Equal(t, float64(1), r["counts"].(map[string]any)["breaking"])

	_, err = execute(t, "classify", "--changes", changes, "--enforcement", "block", "--format", "json")
	assert.Equal(t, exitcode.GovernanceViolation, exitcode.DetermineExitCode(err))
}

func TestClassifyRejectsMalformedRecords(t *testing.T) {
	changes := writeFile(t, filepath.Join(t.TempDir(), "changes.yaml"), `changes:
  - type: remove
    path: [paths, /users]
`)

	_, err := execute(t, "classify", "--changes", changes)
	require.Error(t, err)
	code, _ := goverrors.CodeOf(err)
	assert.Equal(t, goverrors.ErrCodeChangeMalformed, code)
	assert.Equal(t, exitcode.InvalidInput, exitcode.DetermineExitCode(err))
}

func TestBump(t *testing.T) {
	oldDir, newDir := schemas(t, compatibleAPI)

	out, err := execute(t, "bump", "--old", oldDir, "--new", newDir, "--current-version", "v1.4.2")
	require.NoError(t, err)
	assert.Contains(t, out, "required bump: major")
	assert.Contains(t, out, "next version: v1.4.2 -> v2.0.0")

	changes := writeFile(t, filepath.Join(t.TempDir(), "changes.json"),
		`[{"type": "add", "path": ["paths", "/orders", "get"], "newValue": {}, "classificationHint": "endpoint_added"}]`)
	out, err = execute(t, "bump", "--changes", changes, "--current-version", "1.4.2", "--json")
	require.NoError(t, err)
	r := decodeJSON(t, out)
	assert.Equal(t, "minor", r["bump"])
	assert.Equal(t, "1.5.0", r["nextVersion"])

	_, err = execute(t, "bump")
	assert.Error(t, err)
}

func TestOverridesValidate(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "overrides.yaml"), `- issueNumber: API-1
  reason: migration
  approver: lead
  impactedPaths: [paths./users.get]
- issueNumber: API-2
  reason: expired
  approver: lead
  impactedPaths: [paths./orders.get]
  expiresAt: "2020-01-01"
- issueNumber: API-3
  reason: glob
  impactedPaths: [paths./users.*]
`)

	out, err := execute(t, "overrides", "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "2 valid, 1 rejected")
	assert.Contains(t, out, "✓ API-1 by lead: paths./users.get")
	assert.Contains(t, out, "- API-2 expired 2020-01-01")
	assert.Contains(t, out, "✗ API-3: ")
	assert.Contains(t, out, "approver is required")

	_, err = execute(t, "overrides", "validate", path, "--strict")
	require.Error(t, err)
	assert.Equal(t, exitcode.InvalidInput, exitcode.DetermineExitCode(err))

	out, err = execute(t, "overrides", "validate", path, "--json")
	require.NoError(t, err)
	var statuses []overrideStatus
	require.NoError(t, json.Unmarshal([]byte(out), &statuses))
	require.Len(t, statuses, 3)
	assert.True(t, statuses[1].Expired)
	assert.False(t, statuses[2].Valid)
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apigov.yaml")

	_, err := execute(t, "config", "init", "--output", path, "--enforcement", "block")
	require.NoError(t, err)

	cfg, err := policy.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "block", string(cfg.Enforcement))

	_, err = execute(t, "config", "init", "--output", path)
	assert.Error(t, err, "existing file is not overwritten")
	_, err = execute(t, "config", "init", "--output", path, "--force")
	assert.NoError(t, err)

	out, err := execute(t, "config", "show", "--config", path, "--window-days", "30")
	require.NoError(t, err)
	assert.Contains(t, out, "enforcement: warn")
	assert.Contains(t, out, "deprecationWindowDays: 30")
}

func TestVersionJSON(t *testing.T) {
	out, err := execute(t, "version", "--json")
	require.NoError(t, err)
	r := decodeJSON(t, out)
	assert.Contains(t, r, "version")

	out, err = execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "apigov ")
}
