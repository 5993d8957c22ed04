package commands

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// execute runs the root command and restores the global loggers it
// reconfigures.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})

	var out bytes.Buffer
	cmd := newRootCommand("test", "none", "today")
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRun_AttributesScriptLogs(t *testing.T) {
	dir := t.TempDir()
	script := writeFile(t, filepath.Join(dir, "jobs", "main.star"), `chassis.warning("disk low")
print("hi")
answer = 40 + int(bump)
`)
	logFile := filepath.Join(dir, "chassis.log")

	out, err := execute(t,
		"--basedir", dir,
		"--log-format", "json",
		"--log-file", logFile,
		"--log-level", "trace",
		"run", "--dump", "--var", "bump=2", script,
	)
	require.NoError(t, err)

	logs, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(logs), `"message":"(jobs/main.star:1) disk low"`)
	assert.Contains(t, string(logs), `"message":"(jobs/main.star:2) hi"`)
	assert.Contains(t, string(logs), `"component":"script"`)

	assert.Contains(t, out, "answer: 42")
	assert.Contains(t, out, "script: "+script)
}

func TestRun_ShutdownSkipsRemainingScripts(t *testing.T) {
	dir := t.TempDir()
	first := writeFile(t, filepath.Join(dir, "first.star"), "chassis.set_shutdown()\n")
	second := writeFile(t, filepath.Join(dir, "second.star"), "x = 1\n")

	out, err := execute(t,
		"--basedir", dir,
		"--log-file", filepath.Join(dir, "chassis.log"),
		"--script", first,
		"--verbose-shutdown",
		"run", "--dump", second,
	)
	require.NoError(t, err)
	assert.Contains(t, out, "first.star")
	assert.NotContains(t, out, "second.star")
}

func TestRun_NoScripts(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "--basedir", dir, "--log-file", filepath.Join(dir, "chassis.log"), "run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no scripts to run")
}

func TestRun_ScriptFailure(t *testing.T) {
	dir := t.TempDir()
	script := writeFile(t, filepath.Join(dir, "bad.star"), "fail('boom')\n")

	_, err := execute(t, "--basedir", dir, "--log-file", filepath.Join(dir, "chassis.log"), "run", script)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestConfigShow(t *testing.T) {
	dir := t.TempDir()
	keyfile := writeFile(t, filepath.Join(dir, "chassis.ini"), `[chassis]
basedir = `+dir+`
log-level = debug
script = a.star;b.star
`)

	out, err := execute(t, "--defaults-file", keyfile, "--stack-depth", "5", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "basedir: "+dir)
	assert.Contains(t, out, "log-level: debug")
	assert.Contains(t, out, "stack-depth: 5")
	assert.Contains(t, out, "- "+filepath.Join(dir, "b.star"))

	out, err = execute(t, "--defaults-file", keyfile, "config", "show", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"log_level": "debug"`)

	_, err = execute(t, "config", "show", "--format", "toml")
	assert.Error(t, err)
}

func TestConfigCheck(t *testing.T) {
	dir := t.TempDir()
	keyfile := writeFile(t, filepath.Join(dir, "chassis.ini"), `[chassis]
stack-depth = deep
log-caller = maybe
`)

	out, err := execute(t, "--defaults-file", keyfile, "config", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "status: partial_failure")
	assert.Contains(t, out, `[chassis] stack-depth = "deep"`)
	assert.Contains(t, out, `[chassis] log-caller = "maybe"`)

	_, err = execute(t, "--defaults-file", keyfile, "config", "check", "--strict")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed values")
}
