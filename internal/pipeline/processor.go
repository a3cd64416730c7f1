package pipeline

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/autoscribe/mcp-form-filler/internal/ai"
	"github.com/autoscribe/mcp-form-filler/internal/layout"
	"github.com/autoscribe/mcp-form-filler/internal/pdf"
)

// Processor runs one end-to-end form filling pipeline for a single PDF
type Processor interface {
	Run(ctx context.Context) (*Result, error)
}

// Result packages the pipeline output for callers. The same payload is
// persisted as individual artifact files in the run directory.
type Result struct {
	Questions  []layout.Question `json:"questions"`
	Summary    string            `json:"summary"`
	Answers    []layout.Question `json:"answers"`
	Success    bool              `json:"success"`
	OutputPath string            `json:"output_path,omitempty"`
	FillStats  *pdf.FillStats    `json:"fill_stats,omitempty"`
}

// base holds the inputs and collaborators both pipelines share.
type base struct {
	pdfPath   string
	emrFiles  []string
	outputDir string
	completer ai.Completer
	logger    *log.Logger
}

func newBase(pdfPath string, emrFiles []string, outputDir string, completer ai.Completer, logger *log.Logger) base {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return base{
		pdfPath:   pdfPath,
		emrFiles:  emrFiles,
		outputDir: outputDir,
		completer: completer,
		logger:    logger,
	}
}

// summarize condenses the EMR documents into the answer source text.
func (b *base) summarize(ctx context.Context) (string, error) {
	b.logger.Printf("summarizing %d EMR documents", len(b.emrFiles))
	summary, err := ai.NewSummarizer(b.completer).SummarizeFiles(ctx, b.emrFiles)
	if err != nil {
		return "", fmt.Errorf("document summarization failed: %w", err)
	}
	return summary, nil
}

// answer fills in the Answer field of every keyed question from the
// summary text.
func (b *base) answer(ctx context.Context, summary string, questions []layout.Question) ([]layout.Question, error) {
	b.logger.Printf("generating answers for %d questions", len(questions))
	answered, err := ai.NewAnswerGenerator(b.completer).Generate(ctx, summary, questions)
	if err != nil {
		return nil, fmt.Errorf("answer generation failed: %w", err)
	}
	return answered, nil
}
