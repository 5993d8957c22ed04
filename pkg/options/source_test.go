package options

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadKeyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chassis.ini")
	content := `[chassis]
basedir = /srv/app
scripts = init.star ; admin.star
Key = upper

[plugins]
enabled = true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	kf, err := LoadKeyFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, kf.Path())
	assert.Equal(t, []string{"chassis", "plugins"}, kf.Groups())

	g, ok := kf.Group("chassis")
	require.True(t, ok)

	v, err := g.Lookup("basedir")
	require.NoError(t, err)
	assert.Equal(t, "/srv/app", v)

	v, err = g.Lookup("scripts")
	require.NoError(t, err)
	assert.Equal(t, "init.star ; admin.star", v, "';' in a value is not a comment")

	_, err = g.Lookup("key")
	assert.ErrorIs(t, err, ErrKeyNotFound, "keys are case-sensitive")

	_, ok = kf.Group("missing")
	assert.False(t, ok)
}

func TestParseKeyFile_ValuesAreRaw(t *testing.T) {
	kf, err := ParseKeyFile([]byte("[g]\nq = \"quoted\"\ni = %(q)s-x\ns = 'single'\n"))
	require.NoError(t, err)

	g, ok := kf.Group("g")
	require.True(t, ok)

	tests := []struct {
		key  string
		want string
	}{
		{key: "q", want: `"quoted"`},
		{key: "i", want: "%(q)s-x"},
		{key: "s", want: "'single'"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			v, err := g.Lookup(tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestResolve_QuotedStringIsVerbatim(t *testing.T) {
	kf, err := ParseKeyFile([]byte("[chassis]\nname = \"with quotes\"\n"))
	require.NoError(t, err)

	var name Value[string]
	status, err := Resolve(kf, "chassis", Table{String("name", &name, "")})
	require.NoError(t, err)
	assert.Equal(t, StatusOK, status)
	assert.Equal(t, `"with quotes"`, name.Get())
}

func TestLoadKeyFile_Missing(t *testing.T) {
	_, err := LoadKeyFile(filepath.Join(t.TempDir(), "nope.ini"))
	assert.Error(t, err)
}

func TestMapSource(t *testing.T) {
	src := MapSource{"g": {"k": "v"}}

	g, ok := src.Group("g")
	require.True(t, ok)
	v, err := g.Lookup("k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	_, err = g.Lookup("other")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	_, ok = src.Group("G")
	assert.False(t, ok)
}
