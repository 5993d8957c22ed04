package options

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseString(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "plain", raw: "hello world", want: "hello world"},
		{name: "escaped space", raw: `\sindented`, want: " indented"},
		{name: "newline and tab", raw: `a\nb\tc`, want: "a\nb\tc"},
		{name: "backslash", raw: `C:\\tmp`, want: `C:\tmp`},
		{name: "escaped separator", raw: `a\;b`, want: "a;b"},
		{name: "trailing escape", raw: `oops\`, wantErr: true},
		{name: "unknown escape", raw: `\q`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseString(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidValue))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseStringList(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "empty", raw: "", want: []string{}},
		{name: "single", raw: "a", want: []string{"a"}},
		{name: "several", raw: "a;b;c", want: []string{"a", "b", "c"}},
		{name: "trailing separator dropped", raw: "a;b;", want: []string{"a", "b"}},
		{name: "empty middle kept", raw: "a;;b", want: []string{"a", "", "b"}},
		{name: "escaped separator", raw: `a\;b;c`, want: []string{"a;b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStringList(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseBool(t *testing.T) {
	for raw, want := range map[string]bool{"true": true, "1": true, "false": false, "0": false, " true ": true} {
		got, err := ParseBool(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	for _, raw := range []string{"yes", "TRUE", "on", "", "2"} {
		_, err := ParseBool(raw)
		assert.ErrorIs(t, err, ErrInvalidValue, raw)
	}
}

func TestParseNumbers(t *testing.T) {
	n, err := ParseInt("-42")
	require.NoError(t, err)
	assert.Equal(t, -42, n)

	_, err = ParseInt("0x10")
	assert.ErrorIs(t, err, ErrInvalidValue, "hex is not base 10")

	_, err = ParseInt("12abc")
	assert.ErrorIs(t, err, ErrInvalidValue)

	f, err := ParseDouble("2.5")
	require.NoError(t, err)
	assert.InDelta(t, 2.5, f, 1e-9)

	_, err = ParseDouble("fast")
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestValue(t *testing.T) {
	var v Value[string]
	assert.False(t, v.IsSet())
	assert.Equal(t, "fallback", v.Or("fallback"))

	v.Set("")
	assert.True(t, v.IsSet(), "an explicit empty string still counts as set")
	assert.Equal(t, "", v.Or("fallback"))

	v.Reset()
	assert.False(t, v.IsSet())

	n := NewValue(7)
	assert.True(t, n.IsSet())
	assert.Equal(t, 7, n.Get())
}
