package results

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const costs2030 = `technology,parameter,value,unit,source,further description
solar,lifetime,32.5,years,"DEA, technology catalogue",utility scale
solar,investment,430,EUR/kW,"DEA, technology catalogue",
onwind,lifetime,28.5,years,"DEA, technology catalogue",
`

const costs2040 = `technology,parameter,value,unit,source,further description
solar,lifetime,35,years,"DEA, technology catalogue",
`

func writeOutputs(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0600))
	}
	return dir
}

func TestLoad(t *testing.T) {
	dir := writeOutputs(t, map[string]string{
		"costs_2030.csv": costs2030,
		"costs_2040.csv": costs2040,
		"notes.txt":      "ignored",
	})

	table, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, []int{2030, 2040}, table.Years())
	assert.Equal(t, 4, table.Len())

	row, ok := table.Get(2030, "solar", "lifetime")
	require.True(t, ok)
	assert.Equal(t, 32.5, row.Value)
	assert.Equal(t, "years", row.Unit)
	assert.Equal(t, "DEA, technology catalogue", row.Source)
	assert.Equal(t, "utility scale", row.FurtherDescription)
}

func TestTable_Technologies(t *testing.T) {
	dir := writeOutputs(t, map[string]string{"costs_2030.csv": costs2030})
	table, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"onwind", "solar"}, table.Technologies(2030))

	// An unknown year yields an empty slice, not an error.
	assert.Empty(t, table.Technologies(1999))
}

func TestTable_Parameters(t *testing.T) {
	dir := writeOutputs(t, map[string]string{"costs_2030.csv": costs2030})
	table, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"investment", "lifetime"}, table.Parameters(2030, "solar"))
	assert.Empty(t, table.Parameters(2030, "fusion"))
	assert.Empty(t, table.Parameters(1999, "solar"))
}

func TestLoad_NoOutputFiles(t *testing.T) {
	dir := writeOutputs(t, map[string]string{"notes.txt": "nothing tabular"})

	_, err := Load(dir)
	require.Error(t, err)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestLoad_MissingDirectory(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestLoad_InvalidValue(t *testing.T) {
	dir := writeOutputs(t, map[string]string{
		"costs_2030.csv": "technology,parameter,value,unit,source\nsolar,lifetime,NaN?,years,DEA\n",
	})

	_, err := Load(dir)
	require.Error(t, err)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, parseErr.Err.Error(), "invalid value")
}

func TestLoad_MissingColumn(t *testing.T) {
	dir := writeOutputs(t, map[string]string{
		"costs_2030.csv": "technology,parameter,value\nsolar,lifetime,32.5\n",
	})

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing column")
}

func TestLoad_DuplicateKey(t *testing.T) {
	dir := writeOutputs(t, map[string]string{
		"costs_2030.csv": "technology,parameter,value,unit,source\n" +
			"solar,lifetime,32.5,years,DEA\n" +
			"solar,lifetime,33.0,years,DEA\n",
	})

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate row")
}

func TestLoad_NoDescriptionColumn(t *testing.T) {
	dir := writeOutputs(t, map[string]string{
		"costs_2030.csv": "technology,parameter,value,unit,source\nsolar,lifetime,32.5,years,DEA\n",
	})

	table, err := Load(dir)
	require.NoError(t, err)

	row, ok := table.Get(2030, "solar", "lifetime")
	require.True(t, ok)
	assert.Empty(t, row.FurtherDescription)
}
