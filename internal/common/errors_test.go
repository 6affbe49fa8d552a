package common

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollectorError_Error(t *testing.T) {
	err := NewGitLabError("LIST_JOBS_FAILED", "GitLab API returned status 500").WithDetails("boom")
	assert.Equal(t, "[gitlab:LIST_JOBS_FAILED] GitLab API returned status 500: boom", err.Error())

	wrapped := WrapError(io.ErrUnexpectedEOF, ErrorTypeNetwork, "TRACE_REQUEST", "failed to get job trace")
	assert.Equal(t, "[network:TRACE_REQUEST] failed to get job trace: unexpected EOF", wrapped.Error())
}

func TestCollectorError_Unwrap(t *testing.T) {
	err := WrapError(io.EOF, ErrorTypeStorage, "DB_OPEN", "failed to open database")
	assert.ErrorIs(t, err, io.EOF)

	outer := fmt.Errorf("run failed: %w", err)
	assert.ErrorIs(t, outer, io.EOF)
	assert.Equal(t, "DB_OPEN", ErrorCode(outer))
}

func TestIsErrorType(t *testing.T) {
	inner := NewAuthError("GET_PROJECT_DENIED", "GitLab API returned status 401")
	outer := WrapError(inner, ErrorTypeInternal, "RUN", "export failed")

	assert.True(t, IsErrorType(outer, ErrorTypeInternal))
	assert.True(t, IsErrorType(outer, ErrorTypeAuth))
	assert.False(t, IsErrorType(outer, ErrorTypeNetwork))
	assert.False(t, IsErrorType(errors.New("plain"), ErrorTypeAuth))
	assert.False(t, IsErrorType(nil, ErrorTypeAuth))
}

func TestCollectorError_WithContext(t *testing.T) {
	err := NewConfigurationError("PROJECT_ID_INVALID", "gitlab project_id must be positive").
		WithContext("project_id", int64(0))
	assert.Equal(t, int64(0), err.Context["project_id"])
	assert.Equal(t, ErrorTypeConfiguration, err.Type)
	assert.False(t, err.Timestamp.IsZero())
}
