package services

import (
	"path/filepath"
	"testing"
	"time"

	"capsules-stat/internal/common"
	"capsules-stat/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorage_ExportsAreScopedByProject(t *testing.T) {
	s := newTestStorage(t)

	require.NoError(t, s.SaveExport(&models.ExportRecord{ProjectID: 1, JobID: 10, JobName: "a"}))
	require.NoError(t, s.SaveExport(&models.ExportRecord{ProjectID: 12, JobID: 10, JobName: "b"}))
	require.NoError(t, s.SaveExport(&models.ExportRecord{ProjectID: 1, JobID: 11, JobName: "c"}))

	records, err := s.LoadExports(1)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, "a", records[10].JobName)
	assert.Equal(t, "c", records[11].JobName)

	records, err = s.LoadExports(12)
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, "b", records[10].JobName)
}

func TestStorage_SaveExportReplacesRecord(t *testing.T) {
	s := newTestStorage(t)

	require.NoError(t, s.SaveExport(&models.ExportRecord{ProjectID: 1, JobID: 10, Bytes: 5}))
	require.NoError(t, s.SaveExport(&models.ExportRecord{ProjectID: 1, JobID: 10, Bytes: 8}))

	records, err := s.LoadExports(1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 8, records[10].Bytes)
}

func TestStorage_LastRun(t *testing.T) {
	s := newTestStorage(t)

	last, err := s.GetLastRun(5)
	require.NoError(t, err)
	assert.Nil(t, last)

	finished := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveRun(&models.RunSummary{ProjectID: 5, StartPage: 101, EndPage: 200, TracesWritten: 3, FinishedAt: finished}))

	last, err = s.GetLastRun(5)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, 101, last.StartPage)
	assert.Equal(t, 200, last.EndPage)
	assert.Equal(t, 3, last.TracesWritten)
	assert.True(t, finished.Equal(last.FinishedAt))
}

func TestStorage_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "ledger.db")

	s, err := NewStorage(&common.StorageConfig{DatabasePath: path})
	require.NoError(t, err)
	require.NoError(t, s.SaveExport(&models.ExportRecord{ProjectID: 3, JobID: 30}))
	require.NoError(t, s.Close())

	s, err = NewStorage(&common.StorageConfig{DatabasePath: path})
	require.NoError(t, err)
	defer s.Close()

	records, err := s.LoadExports(3)
	require.NoError(t, err)
	assert.Contains(t, records, int64(30))
}
