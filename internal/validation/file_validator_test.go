package validation

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etfseasonal/internal/shared/testutil"
)

func TestFileValidator_ValidateDatasetDirectory(t *testing.T) {
	tests := []struct {
		name          string
		setupFunc     func(t *testing.T) string
		categories    []string
		wantErr       bool
		errorContains string
	}{
		{
			name:       "fixture tree",
			setupFunc:  func(t *testing.T) string { return testutil.NewDatasetTree(t) },
			categories: []string{testutil.FixtureCategory},
		},
		{
			name: "nested category",
			setupFunc: func(t *testing.T) string {
				dir := t.TempDir()
				require.NoError(t, os.MkdirAll(filepath.Join(dir, "ETF_equity", "PPA"), 0755))
				return dir
			},
			categories: []string{"ETF_equity/PPA"},
		},
		{
			name:          "missing category",
			setupFunc:     func(t *testing.T) string { return testutil.NewDatasetTree(t) },
			categories:    []string{testutil.FixtureCategory, "ETF_bond"},
			wantErr:       true,
			errorContains: "ETF_bond",
		},
		{
			name: "missing directory",
			setupFunc: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "nope")
			},
			wantErr:       true,
			errorContains: "does not exist",
		},
		{
			name: "file instead of directory",
			setupFunc: func(t *testing.T) string {
				file := filepath.Join(t.TempDir(), "dataset")
				require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
				return file
			},
			wantErr:       true,
			errorContains: "not a directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			v := NewFileValidator(logger)

			err := v.ValidateDatasetDirectory(tt.setupFunc(t), tt.categories)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFileValidator_ValidateOutputDirectory(t *testing.T) {
	v := NewFileValidator(nil)

	dir := filepath.Join(t.TempDir(), "exports", "nested")
	require.NoError(t, v.ValidateOutputDirectory(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	_, err = os.Stat(filepath.Join(dir, ".write_test"))
	assert.True(t, os.IsNotExist(err))
}

func TestFileValidator_ValidateCollectionFile(t *testing.T) {
	dir := t.TempDir()
	jsonFile := filepath.Join(dir, "pivot_stats.json")
	csvFile := filepath.Join(dir, "pivot_stats.csv")
	require.NoError(t, os.WriteFile(jsonFile, []byte("[]"), 0644))
	require.NoError(t, os.WriteFile(csvFile, []byte("a,b"), 0644))

	v := NewFileValidator(nil)
	assert.NoError(t, v.ValidateCollectionFile(jsonFile))
	assert.ErrorContains(t, v.ValidateCollectionFile(csvFile), "not a JSON collection")
	assert.ErrorContains(t, v.ValidateCollectionFile(dir), "is a directory")
	assert.ErrorContains(t, v.ValidateCollectionFile(filepath.Join(dir, "x.json")), "does not exist")
}

func TestFileValidator_CountCollections(t *testing.T) {
	root := testutil.NewDatasetTree(t)
	v := NewFileValidator(nil)

	n, err := v.CountCollections(root, testutil.FixtureCategory)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = v.CountCollections(root, "ETF_bond")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFileValidator_LatestCollection(t *testing.T) {
	root := testutil.NewDatasetTree(t)
	newest := filepath.Join(root, testutil.FixtureCategory, testutil.FixtureTicker, "storage", "pivot_vol_stats.json")
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(newest, future, future))

	v := NewFileValidator(nil)
	latest, ok, err := v.LatestCollection(root, testutil.FixtureCategory)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, newest, latest.Path)

	_, ok, err = v.LatestCollection(root, "ETF_bond")
	require.NoError(t, err)
	assert.False(t, ok)
}
