package models

import "time"

// Job represents a CI job summary from the project jobs listing
type Job struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Stage     string    `json:"stage"`
	Ref       string    `json:"ref"`
	WebURL    string    `json:"web_url"`
	CreatedAt time.Time `json:"created_at"`
}

// ExportRecord describes one trace written to the output directory
type ExportRecord struct {
	ProjectID  int64     `json:"project_id"`
	JobID      int64     `json:"job_id"`
	JobName    string    `json:"job_name"`
	Page       int       `json:"page"`
	Path       string    `json:"path"`
	Bytes      int       `json:"bytes"`
	Hash       string    `json:"hash"`
	ExportedAt time.Time `json:"exported_at"`
}

// RunSummary captures the outcome of a single export pass
type RunSummary struct {
	ProjectID      int64     `json:"project_id"`
	StartPage      int       `json:"start_page"`
	EndPage        int       `json:"end_page"`
	PagesRequested int       `json:"pages_requested"`
	JobsSeen       int       `json:"jobs_seen"`
	TracesWritten  int       `json:"traces_written"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
}
