package mcp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autoscribe/mcp-form-filler/internal/config"
	"github.com/autoscribe/mcp-form-filler/internal/layout"
	"github.com/autoscribe/mcp-form-filler/internal/pdf"
	"github.com/autoscribe/mcp-form-filler/internal/pipeline"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.OutputDir = t.TempDir()
	return cfg
}

func TestNewServer(t *testing.T) {
	srv, err := NewServer(testConfig(t))
	require.NoError(t, err)
	require.NotNil(t, srv)
}

func TestNewServerNilConfig(t *testing.T) {
	srv, err := NewServer(nil)
	assert.Error(t, err)
	assert.Nil(t, srv)
}

func TestCompleterRequiresAPIKey(t *testing.T) {
	srv, err := NewServer(testConfig(t))
	require.NoError(t, err)

	_, err = srv.completer()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OpenAI API key")
}

func TestOCRClientRequiresEndpoint(t *testing.T) {
	srv, err := NewServer(testConfig(t))
	require.NoError(t, err)

	_, err = srv.ocrClient()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Document AI endpoint")
}

func TestProcessorForDigital(t *testing.T) {
	cfg := testConfig(t)
	cfg.OpenAIAPIKey = "test-key"
	srv, err := NewServer(cfg)
	require.NoError(t, err)

	completer, err := srv.completer()
	require.NoError(t, err)

	proc, err := srv.processorFor("form.pdf", []string{"emr.txt"}, t.TempDir(), true, completer)
	require.NoError(t, err)
	_, ok := proc.(*pipeline.DigitalProcessor)
	assert.True(t, ok)
}

func TestProcessorForImageRequiresFont(t *testing.T) {
	cfg := testConfig(t)
	cfg.OpenAIAPIKey = "test-key"
	cfg.DocAIEndpoint = "https://docai.example.com/v1/processor:process"
	srv, err := NewServer(cfg)
	require.NoError(t, err)

	completer, err := srv.completer()
	require.NoError(t, err)

	_, err = srv.processorFor("form.pdf", []string{"emr.txt"}, t.TempDir(), false, completer)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "font")

	cfg.FontPath = "fonts/test.ttf"
	proc, err := srv.processorFor("form.pdf", []string{"emr.txt"}, t.TempDir(), false, completer)
	require.NoError(t, err)
	_, ok := proc.(*pipeline.ImageProcessor)
	assert.True(t, ok)
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		arg  string
		want []string
	}{
		{"a.txt,b.txt", []string{"a.txt", "b.txt"}},
		{" a.txt , b.txt ", []string{"a.txt", "b.txt"}},
		{"a.txt,,", []string{"a.txt"}},
		{"", nil},
		{" , ", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, splitList(tt.arg), "splitList(%q)", tt.arg)
	}
}

func TestCountAnswered(t *testing.T) {
	yes := "yes"
	blank := "  "
	questions := []layout.Question{
		{Key: "Q1", Answer: &yes},
		{Key: "Q2", Answer: nil},
		{Key: "Q3", Answer: &blank},
	}
	assert.Equal(t, 1, countAnswered(questions))
}

func TestFormatProcessResult(t *testing.T) {
	srv, err := NewServer(testConfig(t))
	require.NoError(t, err)

	answer := "Jane Doe"
	result := &pipeline.Result{
		Questions:  []layout.Question{{Key: "Q1", Answer: &answer}},
		Answers:    []layout.Question{{Key: "Q1", Answer: &answer}},
		Success:    true,
		OutputPath: "/tmp/run/filled_form.pdf",
		FillStats:  &pdf.FillStats{Filled: 1, Skipped: 2},
	}

	text := srv.formatProcessResult("/tmp/form.pdf", "/tmp/run", true, result)

	assert.True(t, strings.Contains(text, "digital form"))
	assert.True(t, strings.Contains(text, "Questions answered: 1"))
	assert.True(t, strings.Contains(text, "Filled: 1, Skipped: 2"))
	assert.True(t, strings.Contains(text, "filled_form.pdf"))

	result.Success = false
	text = srv.formatProcessResult("/tmp/form.pdf", "/tmp/run", false, result)
	assert.True(t, strings.Contains(text, "image form"))
	assert.True(t, strings.Contains(text, "WARNING"))
}
