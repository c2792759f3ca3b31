package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unkn0wn-root/infracache/infrastructure"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "infractl.yaml")
	doc := `
connectionstrings:
  cleanarchitecturedb: "file::memory:"
database:
  provider: sqlite
cache:
  enabled: true
  backend: bolt
  boltpath: "` + filepath.ToSlash(filepath.Join(dir, "cache.db")) + `"
identity:
  tokenkey: "0123456789abcdef0123456789abcdef"
  administratorpassword: "Administrator1!"
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmdWith(&rootOpts{deps: infrastructure.Deps{Logger: zap.NewNop()}})
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCheck(t *testing.T) {
	cfg := writeConfig(t)
	out, err := run(t, "--config", cfg, "check")
	require.NoError(t, err)
	require.Contains(t, out, "database: ok (sqlite)")
	require.Contains(t, out, "cache: ok (bolt)")
}

func TestCacheRoundTrip(t *testing.T) {
	cfg := writeConfig(t)

	_, err := run(t, "-c", cfg, "cache", "set", "session:42", `{"user":"alice"}`)
	require.NoError(t, err)

	out, err := run(t, "-c", cfg, "cache", "exists", "session:42")
	require.NoError(t, err)
	require.Equal(t, "true", strings.TrimSpace(out))

	out, err = run(t, "-c", cfg, "cache", "get", "session:42")
	require.NoError(t, err)
	require.Contains(t, out, `"user": "alice"`)

	_, err = run(t, "-c", cfg, "cache", "rm", "session:42")
	require.NoError(t, err)

	out, err = run(t, "-c", cfg, "cache", "exists", "session:42")
	require.NoError(t, err)
	require.Equal(t, "false", strings.TrimSpace(out))

	_, err = run(t, "-c", cfg, "cache", "get", "session:42")
	require.ErrorIs(t, err, errNotFound)
}

func TestCacheSetRejectsInvalidJSON(t *testing.T) {
	_, err := run(t, "-c", writeConfig(t), "cache", "set", "k", "{nope")
	require.ErrorContains(t, err, "not JSON")
}

func TestToken(t *testing.T) {
	cfg := writeConfig(t)
	out, err := run(t, "-c", cfg, "token", "administrator@localhost", "Administrator1!")
	require.NoError(t, err)
	require.Contains(t, out, `"token_type": "Bearer"`)
	require.Contains(t, out, `"access_token"`)

	_, err = run(t, "-c", cfg, "token", "administrator@localhost", "wrong")
	require.Error(t, err)
}

func TestMissingConnectionString(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cache:\n  enabled: false\n"), 0o600))
	_, err := run(t, "-c", path, "check")
	require.ErrorContains(t, err, "CleanArchitectureDb")
}
