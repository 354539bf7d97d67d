package data

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSnapshot(t *testing.T, dir, name string, v interface{}) {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), raw, 0o644))
}

func TestFileSourceReadsSnapshot(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "005930.json", sampleCandles())

	source := NewFileSource(dir)
	candles, err := source.Fetch("005930", 100)

	require.NoError(t, err)
	assert.Equal(t, sampleCandles(), candles)
}

func TestFileSourceTrimsToLookback(t *testing.T) {
	dir := t.TempDir()
	all := sampleCandles()
	writeSnapshot(t, dir, "005930.json", all)

	source := NewFileSource(dir)
	candles, err := source.Fetch("005930", 1)

	require.NoError(t, err)
	require.Len(t, candles, 1)
	assert.Equal(t, all[len(all)-1], candles[0])
}

func TestFileSourceMissingInstrument(t *testing.T) {
	source := NewFileSource(t.TempDir())

	_, err := source.Fetch("NOPE", 100)

	assert.Error(t, err)
}

func TestFileStatementSourceAbsentFileIsNotAnError(t *testing.T) {
	source := NewFileStatementSource(t.TempDir())

	current, previous, err := source.Statements("005930")

	require.NoError(t, err)
	assert.Nil(t, current)
	assert.Nil(t, previous)
}

func TestFileStatementSourceReadsSnapshot(t *testing.T) {
	dir := t.TempDir()
	revenue := 1_000_000.0
	writeSnapshot(t, dir, "005930.json", map[string]interface{}{
		"current": map[string]float64{"revenue": revenue},
	})

	source := NewFileStatementSource(dir)
	current, previous, err := source.Statements("005930")

	require.NoError(t, err)
	require.NotNil(t, current)
	require.NotNil(t, current.Revenue)
	assert.Equal(t, revenue, *current.Revenue)
	assert.Nil(t, previous)
}
