package logbridge

import (
	"bufio"
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

type record map[string]interface{}

func newTestBridge(t *testing.T, baseDir string, opts ...Option) (*Bridge, *bytes.Buffer) {
	t.Helper()

	prev := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.TraceLevel)
	opts = append([]Option{WithWalker(NewWalker(baseDir, DefaultMaxDepth))}, opts...)
	return New(logger, opts...), &buf
}

func records(t *testing.T, buf *bytes.Buffer) []record {
	t.Helper()
	var out []record
	sc := bufio.NewScanner(bytes.NewReader(buf.Bytes()))
	for sc.Scan() {
		var r record
		require.NoError(t, json.Unmarshal(sc.Bytes(), &r), sc.Text())
		out = append(out, r)
	}
	return out
}

type countingObserver struct {
	bySeverity map[string]int
	fallbacks  int
}

func (c *countingObserver) ObserveLogRecord(severity string, fallback bool) {
	if c.bySeverity == nil {
		c.bySeverity = make(map[string]int)
	}
	c.bySeverity[severity]++
	if fallback {
		c.fallbacks++
	}
}

func TestBridge_Log(t *testing.T) {
	var obs countingObserver
	b, buf := newTestBridge(t, "/app", WithObserver(&obs))

	frames := FrameList{{Source: "<builtin>"}, {Source: "@/app/scripts/foo.star", Line: 7}}
	ev := b.Log(frames, SeverityWarning, "pool exhausted")

	assert.Equal(t, Event{Severity: SeverityWarning, Text: "pool exhausted", Path: "scripts/foo.star", Line: 7}, ev)

	recs := records(t, buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "warn", recs[0]["level"])
	assert.Equal(t, "warning", recs[0]["severity"])
	assert.Equal(t, "(scripts/foo.star:7) pool exhausted", recs[0]["message"])
	assert.Equal(t, "scripts/foo.star", recs[0]["source"])
	assert.Equal(t, float64(7), recs[0]["line"])
	assert.Equal(t, false, recs[0]["attribution_fallback"])

	assert.Equal(t, 1, obs.bySeverity["warning"])
	assert.Zero(t, obs.fallbacks)
}

func TestBridge_Fallback(t *testing.T) {
	var obs countingObserver
	b, buf := newTestBridge(t, "", WithObserver(&obs))

	b.Log(FrameList{{Source: "<builtin>"}}, SeverityMessage, NilMessage)

	recs := records(t, buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "(unknown:-1) nil", recs[0]["message"])
	assert.Equal(t, true, recs[0]["attribution_fallback"])
	assert.Equal(t, 1, obs.fallbacks)
}

func TestBridge_SeveritiesDifferOnlyInLevel(t *testing.T) {
	b, buf := newTestBridge(t, "/app")
	frames := FrameList{{Source: "<builtin>"}, {Source: "/app/main.star", Line: 3}}

	for _, s := range Severities {
		b.Log(frames, s, "same text")
	}

	recs := records(t, buf)
	require.Len(t, recs, len(Severities))

	wantLevels := []string{"fatal", "error", "warn", "info", "debug", "trace"}
	for i, r := range recs {
		assert.Equal(t, wantLevels[i], r["level"])
		assert.Equal(t, Severities[i].String(), r["severity"])

		delete(r, "level")
		delete(r, "severity")
		assert.Equal(t, recs[0], r, "record %d differs beyond its severity", i)
	}
}

const bridgeScript = `
def helper():
    chassis.warning("from helper")

helper()
chassis.log("INFO", "hello")
chassis.log("bogus")
chassis.debug(42)
chassis.error(message = "kw")
print("printed", 42)
os.print("raw", "out", sep = "-")
`

func execWithBridge(t *testing.T, b *Bridge, chunk, src string, redirect bool) (*starlark.Thread, *bytes.Buffer) {
	t.Helper()

	var raw bytes.Buffer
	thread := &starlark.Thread{Name: "test"}
	env := starlark.StringDict{
		"chassis": &starlarkstruct.Module{Name: "chassis", Members: b.Builtins()},
	}
	if redirect {
		require.NoError(t, NewRedirect(b, &raw).Install(thread, env))
	}
	_, err := starlark.ExecFile(thread, chunk, src, env)
	require.NoError(t, err)
	return thread, &raw
}

func TestBridge_StarlarkAttribution(t *testing.T) {
	b, buf := newTestBridge(t, "/app")
	_, raw := execWithBridge(t, b, "@/app/scripts/foo.star", bridgeScript, true)

	recs := records(t, buf)
	require.Len(t, recs, 6)

	want := []struct {
		severity string
		message  string
	}{
		{"warning", "(scripts/foo.star:3) from helper"},
		{"info", "(scripts/foo.star:6) hello"},
		{"message", "(scripts/foo.star:7) nil"},
		{"debug", "(scripts/foo.star:8) 42"},
		{"error", "(scripts/foo.star:9) kw"},
		{"message", "(scripts/foo.star:10) printed 42"},
	}
	for i, w := range want {
		assert.Equal(t, w.severity, recs[i]["severity"], "record %d", i)
		assert.Equal(t, w.message, recs[i]["message"], "record %d", i)
	}

	assert.Equal(t, "raw-out\n", raw.String())
}

func TestBridge_StarlarkInlineChunkFallsBack(t *testing.T) {
	b, buf := newTestBridge(t, "/app")
	execWithBridge(t, b, "inline", `chassis.message("hi")`, false)

	recs := records(t, buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "(inline:1) hi", recs[0]["message"])
	assert.Equal(t, true, recs[0]["attribution_fallback"])
}

func TestRedirect_InstallTwice(t *testing.T) {
	b, _ := newTestBridge(t, "")
	thread := &starlark.Thread{}
	env := starlark.StringDict{}
	r := NewRedirect(b, nil)

	assert.False(t, Installed(thread))
	require.NoError(t, r.Install(thread, env))
	assert.True(t, Installed(thread))
	assert.ErrorIs(t, r.Install(thread, env), ErrAlreadyInstalled)

	_, ok := env["os"].(*starlarkstruct.Module)
	assert.True(t, ok)
}

func TestRedirect_KeepsPreviousOutput(t *testing.T) {
	b, buf := newTestBridge(t, "")

	var printed []string
	thread := &starlark.Thread{Print: func(_ *starlark.Thread, msg string) { printed = append(printed, msg) }}
	env := starlark.StringDict{
		"os": &starlarkstruct.Module{Name: "os", Members: starlark.StringDict{"sep": starlark.String("/")}},
	}
	require.NoError(t, NewRedirect(b, nil).Install(thread, env))

	_, err := starlark.ExecFile(thread, "/x.star", "os.print('a', os.sep)\nprint('b')\n", env)
	require.NoError(t, err)

	assert.Equal(t, []string{"a /"}, printed)
	recs := records(t, buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "(/x.star:2) b", recs[0]["message"])
}
