package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogueYAML = `
meubles:
  - sofa
  - divan
matelas:
  - matelas
  - sommier
electromenagers:
  - laveuse
`

func TestParseCatalogue_PreservesOrder(t *testing.T) {
	cat, err := ParseCatalogue([]byte(catalogueYAML))
	require.NoError(t, err)

	require.Len(t, cat.Categories, 3)
	assert.Equal(t, "meubles", cat.Categories[0].Name)
	assert.Equal(t, "matelas", cat.Categories[1].Name)
	assert.Equal(t, "electromenagers", cat.Categories[2].Name)

	assert.Equal(t, []string{"sofa", "divan"}, cat.Categories[0].Keywords)
	assert.Equal(t, 5, cat.TotalKeywords())
}

func TestCatalogue_KeywordsLookup(t *testing.T) {
	cat, err := ParseCatalogue([]byte(catalogueYAML))
	require.NoError(t, err)

	keywords, ok := cat.Keywords("matelas")
	require.True(t, ok)
	assert.Equal(t, []string{"matelas", "sommier"}, keywords)

	_, ok = cat.Keywords("jardin")
	assert.False(t, ok)
}

func TestParseCatalogue_RejectsNonMapping(t *testing.T) {
	_, err := ParseCatalogue([]byte("- sofa\n- divan\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mapping")
}

func TestParseCatalogue_Empty(t *testing.T) {
	cat, err := ParseCatalogue(nil)
	require.NoError(t, err)
	assert.Empty(t, cat.Categories)
	assert.Equal(t, 0, cat.TotalKeywords())
}

func TestLoadCatalogue_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keywords.yaml")
	require.NoError(t, os.WriteFile(path, []byte(catalogueYAML), 0o644))

	cat, err := LoadCatalogue(path)
	require.NoError(t, err)
	assert.Len(t, cat.Categories, 3)
}

func TestLoadCatalogue_MissingFile(t *testing.T) {
	_, err := LoadCatalogue(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
