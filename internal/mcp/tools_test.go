package mcp

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func toolRequest(args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func TestHandleDetectFileMissingPath(t *testing.T) {
	srv, err := NewServer(testConfig(t))
	require.NoError(t, err)

	result, err := srv.handleDetectFile(context.Background(), toolRequest(map[string]interface{}{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleDetectFileNonexistent(t *testing.T) {
	srv, err := NewServer(testConfig(t))
	require.NoError(t, err)

	result, err := srv.handleDetectFile(context.Background(), toolRequest(map[string]interface{}{
		"path": "/nonexistent/form.pdf",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleLocateFieldMissingField(t *testing.T) {
	srv, err := NewServer(testConfig(t))
	require.NoError(t, err)

	result, err := srv.handleLocateField(context.Background(), toolRequest(map[string]interface{}{
		"path": "form.pdf",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleProcessFileRequiresCredentials(t *testing.T) {
	srv, err := NewServer(testConfig(t))
	require.NoError(t, err)

	result, err := srv.handleProcessFile(context.Background(), toolRequest(map[string]interface{}{
		"path":      "form.pdf",
		"emr_files": "visit.txt",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleProcessFileRequiresEMRFiles(t *testing.T) {
	cfg := testConfig(t)
	cfg.OpenAIAPIKey = "test-key"
	srv, err := NewServer(cfg)
	require.NoError(t, err)

	result, err := srv.handleProcessFile(context.Background(), toolRequest(map[string]interface{}{
		"path":      "form.pdf",
		"emr_files": " , ",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
