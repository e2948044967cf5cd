package appctx

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/PierreBx/ariane-xml-sub000/internal/query"
)

func TestNewDefaultsToStandardModeAndAutoVersion(t *testing.T) {
	require := require.New(t)
	c := New()
	require.Equal(query.ModeStandard, c.Mode())
	require.Equal(query.DSNVersionAuto, c.DSNVersion())
	require.False(c.Verbose())
}

func TestSetModeAndVerboseAreIndependent(t *testing.T) {
	require := require.New(t)
	c := New()
	c.SetMode(query.ModeDSN)
	c.SetVerbose(true)
	require.Equal(query.ModeDSN, c.Mode())
	require.True(c.Verbose())
}

func TestSetDestPathCreatesDirectory(t *testing.T) {
	require := require.New(t)
	c := New()
	dir := filepath.Join(t.TempDir(), "out")
	require.NoError(c.SetDestPath(dir))
	require.Equal(dir, c.DestPath())
	require.DirExists(dir)
}

func TestSetXSDPathInStandardModeDoesNotLoadSchema(t *testing.T) {
	require := require.New(t)
	c := New()
	_, err := c.SetXSDPath(t.TempDir())
	require.NoError(err)
	require.Nil(c.Schema())
}

func TestApplyDefaultsSkipsBlankFields(t *testing.T) {
	require := require.New(t)
	c := New()
	ApplyDefaults(c, &Defaults{DSNVersion: "P26"})
	require.Equal(query.DSNVersion("P26"), c.DSNVersion())
	require.Equal("", c.DestPath())
}

func TestLoadDefaultsMissingFileIsNotAnError(t *testing.T) {
	require := require.New(t)
	d, err := LoadDefaults()
	require.NoError(err)
	require.NotNil(d)
}
