package services

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	. "capsules-stat/internal/common"
	. "capsules-stat/internal/interfaces"
	"capsules-stat/internal/middleware"
	"capsules-stat/internal/models"

	"github.com/go-resty/resty/v2"
	"github.com/ternarybob/arbor"
)

const apiPrefix = "/api/v4"

type gitlabClient struct {
	client *resty.Client
	logger arbor.ILogger
}

// NewGitLabClient builds a REST v4 client authenticated with a personal access token.
// The token must be validated by the caller; no request is made here.
func NewGitLabClient(config *GitLabConfig, token string, logger arbor.ILogger) GitLabClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(config.URI, "/")+apiPrefix).
		SetHeader("PRIVATE-TOKEN", token).
		SetHeader("Accept", "application/json").
		SetTimeout(time.Duration(config.TimeoutSeconds) * time.Second)

	return &gitlabClient{
		client: middleware.Logging(client, logger),
		logger: logger,
	}
}

func (gc *gitlabClient) GetProject(ctx context.Context, projectID int64) (*models.Project, error) {
	var project models.Project

	resp, err := gc.client.R().
		SetContext(ctx).
		SetPathParam("id", strconv.FormatInt(projectID, 10)).
		SetResult(&project).
		Get("/projects/{id}")
	if err != nil {
		return nil, WrapError(err, ErrorTypeNetwork, "PROJECT_REQUEST", "failed to get project").
			WithContext("project_id", projectID)
	}

	if resp.StatusCode() == http.StatusNotFound {
		return nil, NewGitLabError("PROJECT_NOT_FOUND", fmt.Sprintf("project %d not found", projectID)).
			WithContext("project_id", projectID)
	}
	if err := checkStatus(resp, "GET_PROJECT"); err != nil {
		return nil, err.WithContext("project_id", projectID)
	}

	return &project, nil
}

func (gc *gitlabClient) ListJobs(ctx context.Context, projectID int64, page, perPage int) ([]models.Job, error) {
	var jobs []models.Job

	resp, err := gc.client.R().
		SetContext(ctx).
		SetPathParam("id", strconv.FormatInt(projectID, 10)).
		SetQueryParam("page", strconv.Itoa(page)).
		SetQueryParam("per_page", strconv.Itoa(perPage)).
		SetResult(&jobs).
		Get("/projects/{id}/jobs")
	if err != nil {
		return nil, WrapError(err, ErrorTypeNetwork, "JOBS_REQUEST", "failed to list jobs").
			WithContext("project_id", projectID).
			WithContext("page", page)
	}

	if err := checkStatus(resp, "LIST_JOBS"); err != nil {
		return nil, err.WithContext("project_id", projectID).WithContext("page", page)
	}

	return jobs, nil
}

func (gc *gitlabClient) GetJobTrace(ctx context.Context, projectID, jobID int64) ([]byte, error) {
	resp, err := gc.client.R().
		SetContext(ctx).
		SetHeader("Accept", "text/plain").
		SetPathParams(map[string]string{
			"id":     strconv.FormatInt(projectID, 10),
			"job_id": strconv.FormatInt(jobID, 10),
		}).
		Get("/projects/{id}/jobs/{job_id}/trace")
	if err != nil {
		return nil, WrapError(err, ErrorTypeNetwork, "TRACE_REQUEST", "failed to get job trace").
			WithContext("job_id", jobID)
	}

	if err := checkStatus(resp, "GET_TRACE"); err != nil {
		return nil, err.WithContext("job_id", jobID)
	}

	return resp.Body(), nil
}

func checkStatus(resp *resty.Response, code string) *CollectorError {
	switch status := resp.StatusCode(); {
	case status == http.StatusOK:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return NewAuthError(code+"_DENIED", fmt.Sprintf("GitLab API returned status %d", status)).
			WithDetails(resp.String())
	default:
		return NewGitLabError(code+"_FAILED", fmt.Sprintf("GitLab API returned status %d", status)).
			WithDetails(resp.String())
	}
}
