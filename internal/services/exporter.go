package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	. "capsules-stat/internal/common"
	. "capsules-stat/internal/interfaces"
	"capsules-stat/internal/models"

	"github.com/ternarybob/arbor"
)

const (
	// PageCount is the number of job pages requested per run, empty or not.
	PageCount = 100
	// JobsPerPage is the page size requested from the jobs listing.
	JobsPerPage = 100
	// TraceDelay is the pause after every trace written.
	TraceDelay = 1 * time.Second
)

var exportedJobNames = map[string]struct{}{
	"cargo-build-debug-linux":          {},
	"cargo-build-release-linux-native": {},
	"generic-guest-os-diskimg":         {},
}

// IsExportedJob reports whether a job with this name has its trace exported
func IsExportedJob(name string) bool {
	_, ok := exportedJobNames[name]
	return ok
}

// DecodeTrace converts raw trace bytes to text, dropping invalid UTF-8 sequences
func DecodeTrace(raw []byte) string {
	return strings.ToValidUTF8(string(raw), "")
}

type exporter struct {
	config  *ExportConfig
	client  GitLabClient
	storage Storage
	logger  arbor.ILogger
	delay   time.Duration
	now     func() time.Time
}

type ExporterOption func(*exporter)

// WithDelay overrides the pause after each trace
func WithDelay(d time.Duration) ExporterOption {
	return func(e *exporter) {
		e.delay = d
	}
}

func NewExporter(config *ExportConfig, client GitLabClient, storage Storage, logger arbor.ILogger, opts ...ExporterOption) Exporter {
	e := &exporter{
		config:  config,
		client:  client,
		storage: storage,
		logger:  logger,
		delay:   TraceDelay,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *exporter) Export(ctx context.Context, project *models.Project) (*models.RunSummary, error) {
	summary := &models.RunSummary{
		ProjectID: project.ID,
		StartPage: e.config.StartPage,
		EndPage:   e.config.StartPage + PageCount - 1,
		StartedAt: e.now(),
	}

	if err := os.MkdirAll(e.config.OutputDir, 0755); err != nil {
		return summary, WrapError(err, ErrorTypeExport, "OUTPUT_DIR", "failed to create output directory").
			WithContext("path", e.config.OutputDir)
	}

	for page := summary.StartPage; page <= summary.EndPage; page++ {
		e.logger.Info().Int("page", page).Msg("Page")

		jobs, err := e.client.ListJobs(ctx, project.ID, page, JobsPerPage)
		summary.PagesRequested++
		if err != nil {
			return summary, err
		}
		summary.JobsSeen += len(jobs)

		for _, job := range jobs {
			if !IsExportedJob(job.Name) {
				continue
			}

			if err := e.exportJob(ctx, project.ID, page, job); err != nil {
				return summary, err
			}
			summary.TracesWritten++

			if err := e.pause(ctx); err != nil {
				return summary, err
			}
		}
	}

	summary.FinishedAt = e.now()
	if err := e.storage.SaveRun(summary); err != nil {
		return summary, err
	}

	return summary, nil
}

func (e *exporter) exportJob(ctx context.Context, projectID int64, page int, job models.Job) error {
	raw, err := e.client.GetJobTrace(ctx, projectID, job.ID)
	if err != nil {
		return err
	}

	text := DecodeTrace(raw)
	path := filepath.Join(e.config.OutputDir, strconv.FormatInt(job.ID, 10))
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return WrapError(err, ErrorTypeExport, "TRACE_WRITE", "failed to write trace").
			WithContext("job_id", job.ID).
			WithContext("path", path)
	}

	hash := sha256.Sum256([]byte(text))
	record := &models.ExportRecord{
		ProjectID:  projectID,
		JobID:      job.ID,
		JobName:    job.Name,
		Page:       page,
		Path:       path,
		Bytes:      len(text),
		Hash:       hex.EncodeToString(hash[:8]),
		ExportedAt: e.now(),
	}
	if err := e.storage.SaveExport(record); err != nil {
		return err
	}

	e.logger.Debug().
		Str("job", job.Name).
		Str("path", path).
		Int("bytes", len(text)).
		Msg("Trace written")

	return nil
}

func (e *exporter) pause(ctx context.Context) error {
	if ctx.Err() == nil && e.delay > 0 {
		timer := time.NewTimer(e.delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
		case <-timer.C:
			return nil
		}
	}

	if err := ctx.Err(); err != nil {
		return WrapError(err, ErrorTypeInternal, "CANCELLED", "export cancelled")
	}
	return nil
}
