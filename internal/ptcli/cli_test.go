package ptcli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringListAccumulatesRepeatedFlags(t *testing.T) {
	var s stringList
	require.NoError(t, s.Set("a"))
	require.NoError(t, s.Set("b"))
	assert.Equal(t, stringList{"a", "b"}, s)
	assert.Equal(t, "[a b]", s.String())
}

func TestParseArgsFillsInputAndOutputPrefix(t *testing.T) {
	fs, c := NewFlagSet("pt-test")
	err := ParseArgs(fs, c, []string{"-s", "10", "in.dat", "out_prefix"})
	require.NoError(t, err)
	assert.Equal(t, "in.dat", c.Input)
	assert.Equal(t, "out_prefix", c.OutputPrefix)
	assert.Equal(t, int64(10), c.Skip)
}

func TestParseArgsRejectsWrongPositionalCount(t *testing.T) {
	fs, c := NewFlagSet("pt-test")
	err := ParseArgs(fs, c, []string{"only_one_arg"})
	require.Error(t, err)
}

func TestParseArgsRecordsQuietVerboseFlags(t *testing.T) {
	fs, c := NewFlagSet("pt-test")
	require.NoError(t, ParseArgs(fs, c, []string{"-q", "in", "out"}))
	assert.True(t, c.Quiet)

	fs2, c2 := NewFlagSet("pt-test")
	require.NoError(t, ParseArgs(fs2, c2, []string{"-v", "in", "out"}))
	assert.True(t, c2.Verbose)
}

func TestMaskPathsAreRepeatable(t *testing.T) {
	fs, c := NewFlagSet("pt-test")
	require.NoError(t, ParseArgs(fs, c, []string{"-m", "a.toml", "-m", "b.toml", "in", "out"}))
	assert.Equal(t, stringList{"a.toml", "b.toml"}, c.MaskPaths)
}

func TestLoadDeviceRequiresDevicePath(t *testing.T) {
	_, err := LoadDevice(&Common{})
	require.Error(t, err)
}
