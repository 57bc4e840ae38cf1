package features

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCalibration_MissingFileUsesDefaults(t *testing.T) {
	cal, err := LoadCalibration(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultCalibration(), cal)
}

func TestLoadCalibration_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "calibration.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"mean_worst_iv": 40.0, "mean_rank1_iv": 50.0}`), 0o644))

	cal, err := LoadCalibration(path)
	require.NoError(t, err)
	assert.Equal(t, 40.0, cal.MeanWorstIV)
	assert.Equal(t, 50.0, cal.MeanRank1IV)
}

func TestLoadCalibration_RejectsMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`not json`), 0o644))

	_, err := LoadCalibration(path)
	assert.Error(t, err)
}

func TestLoadCalibration_RejectsNonPositive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "zero.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"mean_worst_iv": 0, "mean_rank1_iv": 50.0}`), 0o644))

	_, err := LoadCalibration(path)
	assert.Error(t, err)
}
