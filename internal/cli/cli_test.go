package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/walletgate/internal/audit"
	"github.com/ppiankov/walletgate/internal/policyfile"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireExit(t *testing.T, err error, code int) {
	t.Helper()
	var exit *exitError
	require.ErrorAs(t, err, &exit)
	assert.Equal(t, code, exit.code)
}

func writePolicies(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policies.yaml")
	require.NoError(t, os.WriteFile(path, []byte(policyfile.DefaultYAML()), 0o600))
	return path
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "version")
	require.NoError(t, err)
	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "walletgate", info["name"])
	assert.Equal(t, version, info["version"])
}

func TestInvalidLogLevel(t *testing.T) {
	_, _, err := run(t, "--log-level", "loud", "version")
	require.Error(t, err)
}

func TestPolicyInitAndLint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.yaml")
	out, _, err := run(t, "policy", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Created "+path)

	_, _, err = run(t, "policy", "init", path)
	require.Error(t, err, "init must not overwrite without --force")
	_, _, err = run(t, "policy", "init", "--force", path)
	require.NoError(t, err)

	out, _, err = run(t, "--log-level", "debug", "policy", "lint", path)
	require.NoError(t, err)
	assert.Contains(t, out, "OK: 4 policies (sha256:")
	assert.Contains(t, out, "max-transfer-1eth")
	assert.Contains(t, out, "target=protocol:ethereum/velora")
}

func TestPolicyLintReportsAllErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
policies:
  - name: a
    rule: frobnicate
  - name: b
    rule: max_value
`), 0o600))

	_, stderr, err := run(t, "policy", "lint", path)
	requireExit(t, err, 1)
	assert.Contains(t, stderr, "INVALID")
	assert.Contains(t, stderr, "policies[0]")
	assert.Contains(t, stderr, "policies[1]")
}

func TestPolicyCheckAllow(t *testing.T) {
	path := writePolicies(t)
	out, _, err := run(t, "policy", "check", path,
		"--blockchain", "ethereum", "--method", "sendTransaction",
		"--params", `{"value": "500000000000000000"}`)
	require.NoError(t, err)
	assert.Contains(t, out, "ALLOW sendTransaction on ethereum")
	assert.Contains(t, out, "max-transfer-1eth, ethereum-hourly-budget")
}

func TestPolicyCheckDeny(t *testing.T) {
	path := writePolicies(t)
	out, _, err := run(t, "policy", "check", path,
		"--blockchain", "ethereum", "--method", "sendTransaction",
		"--params", `{"value": 2000000000000000000}`)
	requireExit(t, err, 1)
	assert.Contains(t, out, "DENY sendTransaction on ethereum")
	assert.Contains(t, out, `Policy "max-transfer-1eth" rejected method "sendTransaction" for global`)
}

func TestPolicyCheckProtocolJSON(t *testing.T) {
	path := writePolicies(t)
	out, _, err := run(t, "policy", "check", path,
		"--blockchain", "ethereum", "--protocol", "velora", "--method", "swap", "--json")
	require.NoError(t, err)

	var res checkResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "allow", res.Decision)
	assert.Equal(t, "ethereum/velora", res.Target)
	assert.Equal(t, []string{"swap-rate-limit"}, res.Evaluated)
}

func TestPolicyCheckGlobalDeny(t *testing.T) {
	path := writePolicies(t)
	out, _, err := run(t, "policy", "check", path, "--blockchain", "ton", "--method", "bridge")
	requireExit(t, err, 1)
	assert.Contains(t, out, `Policy "no-bridging" rejected method "bridge" for global`)
}

func TestPolicyCheckReadOnlyMethod(t *testing.T) {
	path := writePolicies(t)
	out, _, err := run(t, "policy", "check", path, "--blockchain", "ethereum", "--method", "getBalance")
	require.NoError(t, err)
	assert.Contains(t, out, "not a mutating method")
	assert.Contains(t, out, "evaluated: none")
}

func TestPolicyCheckRequiresFlags(t *testing.T) {
	path := writePolicies(t)
	_, _, err := run(t, "policy", "check", path, "--method", "swap")
	require.Error(t, err)
}

func TestPolicyCheckBadParams(t *testing.T) {
	path := writePolicies(t)
	_, _, err := run(t, "policy", "check", path, "--blockchain", "ethereum", "--method", "transfer", "--params", "{nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --params JSON")
}

func writeAuditLog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	log, err := audit.Open(path)
	require.NoError(t, err)
	defer log.Close()
	for _, e := range []audit.Entry{
		{CallID: "1", Method: "transfer", Scope: "blockchain", Target: "ethereum", Decision: "allow", Evaluated: []string{"p"}},
		{CallID: "2", Method: "bridge", Scope: "blockchain", Target: "ethereum", Decision: "deny", Policy: "no-bridging", Evaluated: []string{"p", "no-bridging"}},
		{CallID: "3", Method: "swap", Scope: "protocol", Target: "ethereum/velora", Decision: "allow"},
	} {
		require.NoError(t, log.Record(e))
	}
	return path
}

func TestAuditVerify(t *testing.T) {
	path := writeAuditLog(t)
	out, _, err := run(t, "audit", "verify", path)
	require.NoError(t, err)
	assert.Contains(t, out, "OK: 3 entries verified")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	tampered := strings.Replace(string(data), `"decision":"deny"`, `"decision":"allow"`, 1)
	require.NoError(t, os.WriteFile(path, []byte(tampered), 0o600))

	_, stderr, err := run(t, "audit", "verify", path)
	requireExit(t, err, 1)
	assert.Contains(t, stderr, "FAILED at line")
}

func TestAuditTail(t *testing.T) {
	path := writeAuditLog(t)

	out, _, err := run(t, "audit", "tail", path, "-n", "2")
	require.NoError(t, err)
	assert.NotContains(t, out, "transfer")
	assert.Contains(t, out, "DENY")
	assert.Contains(t, out, "2 calls: 1 allowed, 1 denied, 0 errors")

	out, _, err = run(t, "audit", "tail", path, "--decision", "deny", "--format", "json")
	require.NoError(t, err)
	var doc struct {
		Entries []audit.Entry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Entries, 1)
	assert.Equal(t, "no-bridging", doc.Entries[0].Policy)

	_, _, err = run(t, "audit", "tail", path, "--format", "xml")
	require.Error(t, err)
}

func TestPolicyDiff(t *testing.T) {
	oldPath := writePolicies(t)
	newPath := filepath.Join(t.TempDir(), "new.yaml")
	changed := strings.Replace(string(policyfile.DefaultYAML()), `max: "1000000000000000000"`, `max: "2000000000000000000"`, 1)
	require.NoError(t, os.WriteFile(newPath, []byte(changed), 0o600))

	out, _, err := run(t, "policy", "diff", oldPath, newPath)
	require.NoError(t, err)
	assert.Contains(t, out, "~ max-transfer-1eth:")
	assert.Contains(t, out, "(looser)")

	_, _, err = run(t, "policy", "diff", oldPath, newPath, "--exit-code")
	requireExit(t, err, 1)

	out, _, err = run(t, "policy", "diff", oldPath, oldPath, "--exit-code", "-f", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"has_changes": false`)
}

func TestPolicyMethods(t *testing.T) {
	out, _, err := run(t, "policy", "methods")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 28)
	assert.Equal(t, "sign", lines[0])
	assert.Contains(t, lines, "removeLiquidity")
	assert.NotContains(t, lines, "getAddress")

	out, _, err = run(t, "policy", "methods", "--json")
	require.NoError(t, err)
	var names []string
	require.NoError(t, json.Unmarshal([]byte(out), &names))
	assert.Equal(t, lines, names)
}
