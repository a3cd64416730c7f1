package pipeline

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/autoscribe/mcp-form-filler/internal/ai"
	"github.com/autoscribe/mcp-form-filler/internal/docai"
	"github.com/autoscribe/mcp-form-filler/internal/layout"
	"github.com/autoscribe/mcp-form-filler/internal/pdf"
)

// ImageProcessor fills scanned PDFs that carry no AcroForm. Form
// structure is recovered by OCR, answer positions are estimated from
// the learned layout, and answers are drawn on top of the source pages.
type ImageProcessor struct {
	base
	ocr       *docai.Client
	overlay   *pdf.OverlayFiller
	geometry  layout.PageGeometry
	layoutCfg layout.LayoutConfig
}

// ImageOptions configures an image form pipeline run.
type ImageOptions struct {
	PDFPath   string
	EMRFiles  []string
	OutputDir string
	Completer ai.Completer
	OCR       *docai.Client
	FontPath  string
	Geometry  layout.PageGeometry
	Layout    layout.LayoutConfig
	Logger    *log.Logger
}

// NewImageProcessor creates a processor for image-based PDFs.
func NewImageProcessor(opts ImageOptions) *ImageProcessor {
	return &ImageProcessor{
		base:      newBase(opts.PDFPath, opts.EMRFiles, opts.OutputDir, opts.Completer, opts.Logger),
		ocr:       opts.OCR,
		overlay:   pdf.NewOverlayFiller(opts.FontPath),
		geometry:  opts.Geometry,
		layoutCfg: opts.Layout,
	}
}

// Run executes the image pipeline: OCR the document, group the raw
// segments into blocks, derive questions and match them back to the
// blocks, estimate where answers belong, then generate answers from the
// EMR summary and draw them onto the pages.
func (p *ImageProcessor) Run(ctx context.Context) (*Result, error) {
	p.logger.Printf("running OCR on %s", p.pdfPath)
	resp, err := p.ocr.ProcessFile(ctx, p.pdfPath)
	if err != nil {
		return nil, fmt.Errorf("OCR processing failed: %w", err)
	}
	pageCount := len(resp.Document.Pages)

	segments, err := docai.ParseSegments(resp)
	if err != nil {
		return nil, fmt.Errorf("segment parsing failed: %w", err)
	}
	p.logger.Printf("parsed %d segments across %d pages", len(segments), pageCount)

	blocks, err := ai.NewBlockCombiner(p.completer).Combine(ctx, segments)
	if err != nil {
		return nil, fmt.Errorf("block grouping failed: %w", err)
	}

	questions, err := ai.NewQuestionExtractor(p.completer).Extract(ctx, blocks)
	if err != nil {
		return nil, fmt.Errorf("question extraction failed: %w", err)
	}

	matched, err := ai.NewQuestionMatcher(p.completer).Match(ctx, questions, blocks)
	if err != nil {
		return nil, fmt.Errorf("question matching failed: %w", err)
	}

	p.logger.Printf("estimating answer boxes for %d blocks", len(matched))
	analyzer := layout.NewFormAnalyzer(matched, p.geometry, p.layoutCfg)
	results := analyzer.EstimateAnswerBoxes()

	summary, err := p.summarize(ctx)
	if err != nil {
		return nil, err
	}

	answered, err := p.answer(ctx, summary, questions)
	if err != nil {
		return nil, err
	}
	results = attachAnswers(results, answered)

	filledPath := filepath.Join(p.outputDir, filledFormFile)
	p.logger.Printf("drawing answers into %s", filledPath)
	stats, err := p.overlay.Fill(p.pdfPath, filledPath, pageCount, results, p.geometry)
	result := &Result{
		Questions:  answered,
		Summary:    summary,
		Answers:    answered,
		Success:    err == nil,
		OutputPath: filledPath,
		FillStats:  stats,
	}
	if err != nil {
		p.logger.Printf("overlay filling failed: %v", err)
		result.OutputPath = ""
	}

	if saveErr := p.saveOutputs(result, results); saveErr != nil {
		return result, saveErr
	}
	return result, nil
}

// saveOutputs writes the image run artifacts. final_blocks.json holds
// the full estimated structure with attached answers.
func (p *ImageProcessor) saveOutputs(result *Result, blocks []layout.AnswerBoxResult) error {
	if err := writeText(filepath.Join(p.outputDir, summaryFile), result.Summary); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(p.outputDir, answersFile), result.Answers); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(p.outputDir, finalBlocksFile), blocks); err != nil {
		return err
	}
	if result.FillStats != nil {
		if err := writeJSON(filepath.Join(p.outputDir, fillStatsFile), result.FillStats); err != nil {
			return err
		}
	}
	return nil
}

// attachAnswers returns a copy of the estimation results with each
// question's answer filled in by key. Inputs are left untouched.
func attachAnswers(results []layout.AnswerBoxResult, answered []layout.Question) []layout.AnswerBoxResult {
	byKey := make(map[string]*string, len(answered))
	for _, q := range answered {
		if q.Key != "" {
			byKey[q.Key] = q.Answer
		}
	}

	out := make([]layout.AnswerBoxResult, len(results))
	for i, res := range results {
		questions := make([]layout.Question, len(res.Questions))
		for j, q := range res.Questions {
			if answer, ok := byKey[q.Key]; ok {
				q.Answer = answer
			}
			questions[j] = q
		}
		res.Questions = questions
		out[i] = res
	}
	return out
}
