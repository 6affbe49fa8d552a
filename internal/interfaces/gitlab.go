package interfaces

import (
	"context"

	"capsules-stat/internal/models"
)

type GitLabClient interface {
	GetProject(ctx context.Context, projectID int64) (*models.Project, error)
	ListJobs(ctx context.Context, projectID int64, page, perPage int) ([]models.Job, error)
	GetJobTrace(ctx context.Context, projectID, jobID int64) ([]byte, error)
}

type Storage interface {
	SaveExport(record *models.ExportRecord) error
	LoadExports(projectID int64) (map[int64]*models.ExportRecord, error)
	SaveRun(summary *models.RunSummary) error
	GetLastRun(projectID int64) (*models.RunSummary, error)
	Close() error
}

type Exporter interface {
	Export(ctx context.Context, project *models.Project) (*models.RunSummary, error)
}
