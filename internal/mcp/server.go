package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/autoscribe/mcp-form-filler/internal/ai"
	"github.com/autoscribe/mcp-form-filler/internal/config"
	"github.com/autoscribe/mcp-form-filler/internal/descriptions"
	"github.com/autoscribe/mcp-form-filler/internal/docai"
	"github.com/autoscribe/mcp-form-filler/internal/layout"
	"github.com/autoscribe/mcp-form-filler/internal/locator"
	"github.com/autoscribe/mcp-form-filler/internal/pdf"
	"github.com/autoscribe/mcp-form-filler/internal/pipeline"
)

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // We don't support dynamic tool capabilities
	)

	s := &Server{
		config:    cfg,
		mcpServer: mcpServer,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	// Register full pipeline tool
	processTool := mcp.NewTool(
		"form_process_file",
		mcp.WithDescription(descriptions.FormProcessFileDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the form PDF"),
		),
		mcp.WithString("emr_files",
			mcp.Required(),
			mcp.Description("Comma-separated paths of EMR documents to answer from"),
		),
		mcp.WithString("output_dir",
			mcp.Description("Run output directory (a fresh run directory is created if empty)"),
		),
	)
	s.mcpServer.AddTool(processTool, s.handleProcessFile)

	// Register analysis tool
	analyzeTool := mcp.NewTool(
		"form_analyze_file",
		mcp.WithDescription(descriptions.FormAnalyzeFileDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the form PDF"),
		),
	)
	s.mcpServer.AddTool(analyzeTool, s.handleAnalyzeFile)

	// Register field locator tool
	locateTool := mcp.NewTool(
		"form_locate_field",
		mcp.WithDescription(descriptions.FormLocateFieldDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the form PDF"),
		),
		mcp.WithString("field",
			mcp.Required(),
			mcp.Description("Form field name, e.g. patient_name"),
		),
		mcp.WithString("options",
			mcp.Description("Comma-separated option values of the field, if any"),
		),
	)
	s.mcpServer.AddTool(locateTool, s.handleLocateField)

	// Register detection tool
	detectTool := mcp.NewTool(
		"form_detect_file",
		mcp.WithDescription(descriptions.FormDetectFileDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the form PDF"),
		),
	)
	s.mcpServer.AddTool(detectTool, s.handleDetectFile)
}

// Handler functions
func (s *Server) handleProcessFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	emrArg, err := request.RequireString("emr_files")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	emrFiles := splitList(emrArg)
	if len(emrFiles) == 0 {
		return mcp.NewToolResultError("emr_files must name at least one document"), nil
	}

	completer, err := s.completer()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	outputDir := ""
	if dir, ok := request.GetArguments()["output_dir"].(string); ok && dir != "" {
		outputDir = dir
	} else {
		outputDir, err = pipeline.NewRunDir(s.config.OutputDir)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	digital, err := pdf.DetectDigitalForm(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("form detection failed: %v", err)), nil
	}

	processor, err := s.processorFor(path, emrFiles, outputDir, digital, completer)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := processor.Run(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("pipeline failed: %v", err)), nil
	}

	return mcp.NewToolResultText(s.formatProcessResult(path, outputDir, digital, result)), nil
}

func (s *Server) handleAnalyzeFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	digital, err := pdf.DetectDigitalForm(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("form detection failed: %v", err)), nil
	}

	var payload any
	if digital {
		payload, err = s.analyzeDigital(path)
	} else {
		payload, err = s.analyzeImage(ctx, path)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode analysis: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleLocateField(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	field, err := request.RequireString("field")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var options []string
	if opt, ok := request.GetArguments()["options"].(string); ok {
		options = splitList(opt)
	}

	reader := pdf.NewTextReader(s.config.MaxFileSize)
	pages, err := reader.ReadPages(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("text extraction failed: %v", err)), nil
	}

	scorer := locator.NewFieldScorer(locator.DefaultScoringWeights())
	scores := scorer.ScorePages(field, pages, options)
	page, ok := scorer.LocatePage(field, pages, options)

	var responseText string
	if ok {
		responseText = fmt.Sprintf("Field %q located on page %d\n", field, page)
	} else {
		responseText = fmt.Sprintf("Field %q could not be located\n", field)
	}
	responseText += "\nPage scores:\n"
	nums := make([]int, 0, len(scores))
	for n := range scores {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	for _, n := range nums {
		responseText += fmt.Sprintf("  page %d: %d\n", n, scores[n])
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleDetectFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	digital, err := pdf.DetectDigitalForm(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("form detection failed: %v", err)), nil
	}

	var responseText string
	if digital {
		responseText = fmt.Sprintf("%s is a digital form: it carries fillable form fields", path)
	} else {
		responseText = fmt.Sprintf("%s is an image form: no fillable form fields found, "+
			"answers must be drawn onto the pages", path)
	}
	return mcp.NewToolResultText(responseText), nil
}

// processorFor builds the pipeline matching the detected form kind.
func (s *Server) processorFor(path string, emrFiles []string, outputDir string, digital bool, completer ai.Completer) (pipeline.Processor, error) {
	if digital {
		return pipeline.NewDigitalProcessor(pipeline.DigitalOptions{
			PDFPath:     path,
			EMRFiles:    emrFiles,
			OutputDir:   outputDir,
			Completer:   completer,
			MaxFileSize: s.config.MaxFileSize,
			Logger:      s.pipelineLogger(),
		}), nil
	}

	ocr, err := s.ocrClient()
	if err != nil {
		return nil, err
	}
	if s.config.FontPath == "" {
		return nil, fmt.Errorf("image forms require an overlay font, set --fontpath")
	}
	return pipeline.NewImageProcessor(pipeline.ImageOptions{
		PDFPath:   path,
		EMRFiles:  emrFiles,
		OutputDir: outputDir,
		Completer: completer,
		OCR:       ocr,
		FontPath:  s.config.FontPath,
		Geometry:  layout.NewPageGeometry(s.config.PageWidth, s.config.PageHeight),
		Layout:    layout.DefaultLayoutConfig(),
		Logger:    s.pipelineLogger(),
	}), nil
}

// analyzeDigital extracts the form fields and resolves their pages.
func (s *Server) analyzeDigital(path string) ([]pdf.FormField, error) {
	fields, err := pdf.NewFormExtractor().ExtractFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("form extraction failed: %w", err)
	}

	pages, err := pdf.NewTextReader(s.config.MaxFileSize).ReadPages(path)
	if err != nil {
		return nil, fmt.Errorf("text extraction failed: %w", err)
	}
	scorer := locator.NewFieldScorer(locator.DefaultScoringWeights())
	for i := range fields {
		if page, ok := scorer.LocatePage(fields[i].Name, pages, fields[i].Options); ok {
			fields[i].Page = page
		}
	}
	return fields, nil
}

// analyzeImage recovers the form structure by OCR and estimates where
// answers belong without filling anything.
func (s *Server) analyzeImage(ctx context.Context, path string) ([]layout.AnswerBoxResult, error) {
	completer, err := s.completer()
	if err != nil {
		return nil, err
	}
	ocr, err := s.ocrClient()
	if err != nil {
		return nil, err
	}

	resp, err := ocr.ProcessFile(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("OCR processing failed: %w", err)
	}
	segments, err := docai.ParseSegments(resp)
	if err != nil {
		return nil, fmt.Errorf("segment parsing failed: %w", err)
	}

	blocks, err := ai.NewBlockCombiner(completer).Combine(ctx, segments)
	if err != nil {
		return nil, fmt.Errorf("block grouping failed: %w", err)
	}
	questions, err := ai.NewQuestionExtractor(completer).Extract(ctx, blocks)
	if err != nil {
		return nil, fmt.Errorf("question extraction failed: %w", err)
	}
	matched, err := ai.NewQuestionMatcher(completer).Match(ctx, questions, blocks)
	if err != nil {
		return nil, fmt.Errorf("question matching failed: %w", err)
	}

	geometry := layout.NewPageGeometry(s.config.PageWidth, s.config.PageHeight)
	analyzer := layout.NewFormAnalyzer(matched, geometry, layout.DefaultLayoutConfig())
	return analyzer.EstimateAnswerBoxes(), nil
}

// completer builds the chat client from configuration.
func (s *Server) completer() (ai.Completer, error) {
	if s.config.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is not configured, set --openai-key or MCP_FORM_OPENAI_KEY")
	}
	return ai.NewChatClient(ai.ChatConfig{
		APIKey:      s.config.OpenAIAPIKey,
		BaseURL:     s.config.OpenAIBaseURL,
		Model:       s.config.OpenAIModel,
		Temperature: s.config.OpenAITemperature,
		MaxTokens:   int64(s.config.OpenAIMaxTokens),
		MaxRetries:  s.config.OpenAIMaxRetries,
	}), nil
}

// ocrClient builds the Document AI client from configuration.
func (s *Server) ocrClient() (*docai.Client, error) {
	if s.config.DocAIEndpoint == "" {
		return nil, fmt.Errorf("Document AI endpoint is not configured, set --docai-endpoint or MCP_FORM_DOCAI_ENDPOINT")
	}
	return docai.NewClient(s.config.DocAIEndpoint, s.config.DocAIAPIKey), nil
}

// pipelineLogger returns the logger pipelines report progress to. In
// stdio mode output must stay off stdout to not break the protocol.
func (s *Server) pipelineLogger() *log.Logger {
	if s.config.IsStdioMode() && !s.config.IsDebug() {
		return nil
	}
	return log.Default()
}

// Formatting methods
func (s *Server) formatProcessResult(path, outputDir string, digital bool, result *pipeline.Result) string {
	kind := "image"
	if digital {
		kind = "digital"
	}

	text := fmt.Sprintf("Processed %s form: %s\n", kind, path)
	text += fmt.Sprintf("Output directory: %s\n", outputDir)
	text += fmt.Sprintf("Questions answered: %d\n", countAnswered(result.Answers))
	text += fmt.Sprintf("Questions total: %d\n", len(result.Questions))

	if result.FillStats != nil {
		text += fmt.Sprintf("Filled: %d, Skipped: %d, Failed: %d\n",
			result.FillStats.Filled, result.FillStats.Skipped, result.FillStats.Failed)
		for _, e := range result.FillStats.Errors {
			text += fmt.Sprintf("  error: %s\n", e)
		}
	}

	if result.Success {
		text += fmt.Sprintf("\nFilled PDF: %s\n", result.OutputPath)
	} else {
		text += "\nWARNING: form filling failed, see artifacts for partial results\n"
	}
	return text
}

func countAnswered(questions []layout.Question) int {
	n := 0
	for _, q := range questions {
		if q.Answer != nil && strings.TrimSpace(*q.Answer) != "" {
			n++
		}
	}
	return n
}

// splitList parses a comma-separated argument into trimmed entries.
func splitList(arg string) []string {
	var out []string
	for _, part := range strings.Split(arg, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

// runStdioMode runs the server in stdio mode
func (s *Server) runStdioMode(_ context.Context) error {
	if s.config.IsDebug() {
		log.Printf("Starting form filler MCP server in stdio mode")
		log.Printf("Output directory: %s", s.config.OutputDir)
	}

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode runs the server in HTTP server mode
func (s *Server) runServerMode(ctx context.Context) error {
	log.Printf("Server mode not yet implemented with mark3labs/mcp-go")
	log.Printf("Falling back to stdio mode")
	return s.runStdioMode(ctx)
}
