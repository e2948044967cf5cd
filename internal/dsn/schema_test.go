package dsn

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleXSD = `<?xml version="1.0"?>
<schema>
  <element name="S21_G00_30_001" type="xs:string" minOccurs="1">
    <annotation><documentation>SIRET</documentation></annotation>
  </element>
  <element name="S21_G00_30_002" type="xs:string" minOccurs="0"/>
  <element name="S21_G00_30_006" type="xs:string" minOccurs="0"/>
</schema>`

const sampleXSDOtherBloc = `<?xml version="1.0"?>
<schema>
  <element name="S21_G00_40_001" type="xs:string" minOccurs="0"/>
</schema>`

const sampleXSDAmbiguous = `<?xml version="1.0"?>
<schema>
  <element name="S30_G99_40_001" type="xs:string" minOccurs="0"/>
</schema>`

func writeXSD(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadBuildsShortIDAndFullNameMaps(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	writeXSD(t, dir, "S21_G00_30.xsd", sampleXSD)

	s, warnings, err := Load(dir, "P26")
	require.NoError(err)
	require.Empty(warnings)

	attr, ok := s.FullName("S21_G00_30_001")
	require.True(ok)
	require.Equal("SIRET", attr.Description)
	require.True(attr.Mandatory)

	matches := s.ShortIDs("30_001")
	require.Len(matches, 1)
	require.Equal("S21_G00_30_001", matches[0].FullName)
}

func TestLoadEmptyDirectoryIsError(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	_, _, err := Load(dir, "P26")
	require.Error(err)
}

func TestResolveUniqueMatch(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	writeXSD(t, dir, "S21_G00_30.xsd", sampleXSD)
	s, _, err := Load(dir, "P26")
	require.NoError(err)

	r := s.Resolve("30.002", "")
	require.True(r.Resolved)
	require.False(r.Ambiguous)
	require.Equal("S21_G00_30_002", r.FullName)
}

func TestResolveNoMatchLeavesAsIs(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	writeXSD(t, dir, "S21_G00_30.xsd", sampleXSD)
	s, _, err := Load(dir, "P26")
	require.NoError(err)

	r := s.Resolve("99.999", "")
	require.False(r.Resolved)
	require.Equal("99.999", r.FullName)
}

func TestResolvePrefersPriorComponent(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	writeXSD(t, dir, "S21_G00_40.xsd", sampleXSDOtherBloc)
	writeXSD(t, dir, "S30_G99_40.xsd", sampleXSDAmbiguous)
	s, _, err := Load(dir, "P26")
	require.NoError(err)

	r := s.Resolve("40.001", "S21_G00")
	require.True(r.Resolved)
	require.False(r.Ambiguous)
	require.Equal("S21_G00_40_001", r.FullName)
}

func TestResolveAmbiguousWarnsAndTakesFirst(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	writeXSD(t, dir, "S21_G00_40.xsd", sampleXSDOtherBloc)
	writeXSD(t, dir, "S30_G99_40.xsd", sampleXSDAmbiguous)
	s, _, err := Load(dir, "P26")
	require.NoError(err)

	r := s.Resolve("40.001", "")
	require.True(r.Resolved)
	require.True(r.Ambiguous)
	require.Len(r.Candidates, 2)
}

func TestResolveUnderscoreAndDotFormsAreEquivalent(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	writeXSD(t, dir, "S21_G00_30.xsd", sampleXSD)
	s, _, err := Load(dir, "P26")
	require.NoError(err)

	a := s.Resolve("30_002", "")
	b := s.Resolve("30.002", "")
	require.Equal(a.FullName, b.FullName)
}

func TestLoadWithDiskCacheRoundTrips(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	writeXSD(t, dir, "S21_G00_30.xsd", sampleXSD)
	cachePath := filepath.Join(t.TempDir(), "schema.cache")

	s1, _, err := LoadWithDiskCache(dir, "P26", cachePath)
	require.NoError(err)
	require.NotNil(s1)

	s2, _, err := LoadWithDiskCache(dir, "P26", cachePath)
	require.NoError(err)
	attr, ok := s2.FullName("S21_G00_30_001")
	require.True(ok)
	require.Equal("SIRET", attr.Description)
}

func TestLoadWithDiskCacheMissFallsBackOnCorruptFile(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	writeXSD(t, dir, "S21_G00_30.xsd", sampleXSD)
	cachePath := filepath.Join(t.TempDir(), "schema.cache")
	require.NoError(os.WriteFile(cachePath, []byte("not a bolt db"), 0o644))

	s, _, err := LoadWithDiskCache(dir, "P26", cachePath)
	require.NoError(err)
	require.NotNil(s)
}
