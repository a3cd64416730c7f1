package pipeline

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"strings"

	"github.com/autoscribe/mcp-form-filler/internal/ai"
	"github.com/autoscribe/mcp-form-filler/internal/layout"
	"github.com/autoscribe/mcp-form-filler/internal/locator"
	"github.com/autoscribe/mcp-form-filler/internal/pdf"
)

// DigitalProcessor fills PDFs that carry an AcroForm. Field values are
// written into the form itself, so no layout estimation is needed.
type DigitalProcessor struct {
	base
	extractor *pdf.FormExtractor
	reader    *pdf.TextReader
	scorer    *locator.FieldScorer
	filler    *pdf.FormFiller
}

// DigitalOptions configures a digital form pipeline run.
type DigitalOptions struct {
	PDFPath     string
	EMRFiles    []string
	OutputDir   string
	Completer   ai.Completer
	MaxFileSize int64
	Logger      *log.Logger
}

// NewDigitalProcessor creates a processor for AcroForm PDFs.
func NewDigitalProcessor(opts DigitalOptions) *DigitalProcessor {
	return &DigitalProcessor{
		base:      newBase(opts.PDFPath, opts.EMRFiles, opts.OutputDir, opts.Completer, opts.Logger),
		extractor: pdf.NewFormExtractor(),
		reader:    pdf.NewTextReader(opts.MaxFileSize),
		scorer:    locator.NewFieldScorer(locator.DefaultScoringWeights()),
		filler:    pdf.NewFormFiller(),
	}
}

// Run executes the digital pipeline: extract the form fields, resolve
// their pages against the visible text, generate questions and answers
// from the EMR summary, and write the values back into the form.
func (p *DigitalProcessor) Run(ctx context.Context) (*Result, error) {
	p.logger.Printf("extracting form fields from %s", p.pdfPath)
	fields, err := p.extractor.ExtractFromFile(p.pdfPath)
	if err != nil {
		return nil, fmt.Errorf("form extraction failed: %w", err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("no form fields found in %s", p.pdfPath)
	}

	pages, err := p.reader.ReadPages(p.pdfPath)
	if err != nil {
		return nil, fmt.Errorf("text extraction failed: %w", err)
	}
	p.assignPages(fields, pages)

	p.logger.Printf("generating questions for %d fields", len(fields))
	questions, err := ai.NewQuestionGenerator(p.completer).Generate(ctx, joinPageText(pages), fields)
	if err != nil {
		return nil, fmt.Errorf("question generation failed: %w", err)
	}

	summary, err := p.summarize(ctx)
	if err != nil {
		return nil, err
	}

	answered, err := p.answer(ctx, summary, questions)
	if err != nil {
		return nil, err
	}

	filledPath := filepath.Join(p.outputDir, filledFormFile)
	p.logger.Printf("filling form into %s", filledPath)
	stats, err := p.filler.Fill(p.pdfPath, filledPath, fields, answersByField(answered))
	result := &Result{
		Questions:  answered,
		Summary:    summary,
		Answers:    answered,
		Success:    err == nil,
		OutputPath: filledPath,
		FillStats:  stats,
	}
	if err != nil {
		p.logger.Printf("form filling failed: %v", err)
		result.OutputPath = ""
	}

	if saveErr := p.saveOutputs(result); saveErr != nil {
		return result, saveErr
	}
	return result, nil
}

// assignPages resolves each field's page by scoring the visible page
// text. Extraction reports page 0 because widget annotations do not
// carry a page reference.
func (p *DigitalProcessor) assignPages(fields []pdf.FormField, pages map[int]locator.PageText) {
	for i := range fields {
		if page, ok := p.scorer.LocatePage(fields[i].Name, pages, fields[i].Options); ok {
			fields[i].Page = page
		}
	}
}

// saveOutputs writes the digital run artifacts.
func (p *DigitalProcessor) saveOutputs(result *Result) error {
	if err := writeJSON(filepath.Join(p.outputDir, questionsFile), result.Questions); err != nil {
		return err
	}
	if err := writeText(filepath.Join(p.outputDir, summaryFile), result.Summary); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(p.outputDir, answersFile), result.Answers); err != nil {
		return err
	}
	if result.FillStats != nil {
		if err := writeJSON(filepath.Join(p.outputDir, fillStatsFile), result.FillStats); err != nil {
			return err
		}
	}
	return nil
}

// answersByField keys the generated answers by form field name for the
// filler. Questions without a field name are skipped.
func answersByField(answered []layout.Question) map[string]*string {
	byField := make(map[string]*string, len(answered))
	for _, q := range answered {
		if q.FieldName != "" {
			byField[q.FieldName] = q.Answer
		}
	}
	return byField
}

// joinPageText concatenates page text in page order for use as prompt
// context.
func joinPageText(pages map[int]locator.PageText) string {
	nums := make([]int, 0, len(pages))
	for n := range pages {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	var sb strings.Builder
	for _, n := range nums {
		sb.WriteString(pages[n].FullText)
		sb.WriteString("\n")
	}
	return sb.String()
}
