package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	. "capsules-stat/internal/common"
	. "capsules-stat/internal/interfaces"
	"capsules-stat/internal/models"

	bolt "go.etcd.io/bbolt"
)

const (
	exportsBucket = "exports"
	runsBucket    = "runs"
	lastRunKey    = "last_run"
)

type storage struct {
	db     *bolt.DB
	config *StorageConfig
}

// NewStorage opens, or creates, the export ledger
func NewStorage(config *StorageConfig) (Storage, error) {
	dbDir := filepath.Dir(config.DatabasePath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, WrapError(err, ErrorTypeStorage, "DB_DIR", "failed to create database directory")
	}

	db, err := bolt.Open(config.DatabasePath, 0600, &bolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, WrapError(err, ErrorTypeStorage, "DB_OPEN", "failed to open database").
			WithContext("path", config.DatabasePath)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(exportsBucket)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(runsBucket)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, WrapError(err, ErrorTypeStorage, "DB_BUCKETS", "failed to create buckets")
	}

	return &storage{
		db:     db,
		config: config,
	}, nil
}

func (s *storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func exportKey(projectID, jobID int64) []byte {
	return []byte(fmt.Sprintf("%d:%d", projectID, jobID))
}

func projectPrefix(projectID int64) []byte {
	return []byte(strconv.FormatInt(projectID, 10) + ":")
}

// SaveExport stores the record, replacing any earlier export of the same job
func (s *storage) SaveExport(record *models.ExportRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return WrapError(err, ErrorTypeStorage, "EXPORT_MARSHAL", fmt.Sprintf("failed to marshal export of job %d", record.JobID))
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(exportsBucket)).Put(exportKey(record.ProjectID, record.JobID), data)
	})
	if err != nil {
		return WrapError(err, ErrorTypeStorage, "EXPORT_SAVE", fmt.Sprintf("failed to save export of job %d", record.JobID))
	}
	return nil
}

func (s *storage) LoadExports(projectID int64) (map[int64]*models.ExportRecord, error) {
	records := make(map[int64]*models.ExportRecord)

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(exportsBucket))
		prefix := projectPrefix(projectID)

		c := bucket.Cursor()
		for k, v := c.Seek(prefix); k != nil && len(k) >= len(prefix) && string(k[:len(prefix)]) == string(prefix); k, v = c.Next() {
			var record models.ExportRecord
			if err := json.Unmarshal(v, &record); err != nil {
				continue
			}
			records[record.JobID] = &record
		}

		return nil
	})
	if err != nil {
		return nil, WrapError(err, ErrorTypeStorage, "EXPORT_LOAD", "failed to load exports")
	}

	return records, nil
}

func (s *storage) SaveRun(summary *models.RunSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return WrapError(err, ErrorTypeStorage, "RUN_MARSHAL", "failed to marshal run summary")
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		key := append(projectPrefix(summary.ProjectID), lastRunKey...)
		return tx.Bucket([]byte(runsBucket)).Put(key, data)
	})
	if err != nil {
		return WrapError(err, ErrorTypeStorage, "RUN_SAVE", "failed to save run summary")
	}
	return nil
}

// GetLastRun returns nil without error when the project has no recorded run
func (s *storage) GetLastRun(projectID int64) (*models.RunSummary, error) {
	var summary *models.RunSummary

	err := s.db.View(func(tx *bolt.Tx) error {
		key := append(projectPrefix(projectID), lastRunKey...)
		data := tx.Bucket([]byte(runsBucket)).Get(key)
		if data == nil {
			return nil
		}

		summary = &models.RunSummary{}
		return json.Unmarshal(data, summary)
	})
	if err != nil {
		return nil, WrapError(err, ErrorTypeStorage, "RUN_LOAD", "failed to load last run")
	}

	return summary, nil
}
