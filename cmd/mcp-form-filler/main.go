package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/autoscribe/mcp-form-filler/internal/ai"
	"github.com/autoscribe/mcp-form-filler/internal/config"
	"github.com/autoscribe/mcp-form-filler/internal/docai"
	"github.com/autoscribe/mcp-form-filler/internal/layout"
	"github.com/autoscribe/mcp-form-filler/internal/mcp"
	"github.com/autoscribe/mcp-form-filler/internal/pdf"
	"github.com/autoscribe/mcp-form-filler/internal/pipeline"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// setupLogging configures logging based on the server mode
func setupLogging(cfg *config.Config) {
	if cfg.IsStdioMode() {
		// In stdio mode, redirect log output to stderr to avoid interfering with MCP protocol
		log.SetOutput(os.Stderr)
		// Reduce log verbosity in stdio mode unless debug is enabled
		if !cfg.IsDebug() {
			log.SetOutput(os.NewFile(0, os.DevNull))
		}
	} else {
		// Outside stdio mode, use normal stdout logging with more detail
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}
}

// runServerMode handles server mode execution with signal handling
func runServerMode(ctx context.Context, cancel context.CancelFunc, server *mcp.Server) {
	// Set up signal handling for graceful shutdown
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	// Start server in a goroutine
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.Run(ctx)
	}()

	// Wait for shutdown signal or server error
	select {
	case sig := <-signalCh:
		log.Printf("Received signal: %s", sig)
		log.Println("Initiating graceful shutdown...")
		cancel()

		// Wait for server to shutdown
		if err := <-serverErrCh; err != nil {
			log.Printf("Server shutdown with error: %v", err)
			os.Exit(1)
		}

	case err := <-serverErrCh:
		if err != nil {
			log.Printf("Server error: %v", err)
			os.Exit(1)
		}
	}

	log.Println("Server stopped successfully")
}

// runStdioMode handles stdio mode execution
func runStdioMode(ctx context.Context, _ context.CancelFunc, server *mcp.Server) {
	// In stdio mode, the parent process controls our lifecycle
	// We should exit cleanly when stdin is closed or we get an error

	// Start server and wait for it to complete
	if err := server.Run(ctx); err != nil {
		// Only log to stderr in debug mode to avoid protocol interference
		if os.Getenv("DEBUG") != "" {
			log.Printf("Server error: %v", err)
		}
		os.Exit(1)
	}
}

// runProcessMode runs one pipeline for the configured PDF and exits
func runProcessMode(ctx context.Context, cfg *config.Config) {
	completer := ai.NewChatClient(ai.ChatConfig{
		APIKey:      cfg.OpenAIAPIKey,
		BaseURL:     cfg.OpenAIBaseURL,
		Model:       cfg.OpenAIModel,
		Temperature: cfg.OpenAITemperature,
		MaxTokens:   int64(cfg.OpenAIMaxTokens),
		MaxRetries:  cfg.OpenAIMaxRetries,
	})

	outputDir, err := pipeline.NewRunDir(cfg.OutputDir)
	if err != nil {
		log.Fatalf("Failed to create run directory: %v", err)
	}

	digital, err := pdf.DetectDigitalForm(cfg.PDFPath)
	if err != nil {
		log.Fatalf("Form detection failed: %v", err)
	}

	var processor pipeline.Processor
	if digital {
		processor = pipeline.NewDigitalProcessor(pipeline.DigitalOptions{
			PDFPath:     cfg.PDFPath,
			EMRFiles:    cfg.EMRFiles,
			OutputDir:   outputDir,
			Completer:   completer,
			MaxFileSize: cfg.MaxFileSize,
			Logger:      log.Default(),
		})
	} else {
		if cfg.DocAIEndpoint == "" {
			log.Fatalf("Image forms require a Document AI endpoint, set --docai-endpoint")
		}
		if cfg.FontPath == "" {
			log.Fatalf("Image forms require an overlay font, set --fontpath")
		}
		processor = pipeline.NewImageProcessor(pipeline.ImageOptions{
			PDFPath:   cfg.PDFPath,
			EMRFiles:  cfg.EMRFiles,
			OutputDir: outputDir,
			Completer: completer,
			OCR:       docai.NewClient(cfg.DocAIEndpoint, cfg.DocAIAPIKey),
			FontPath:  cfg.FontPath,
			Geometry:  layout.NewPageGeometry(cfg.PageWidth, cfg.PageHeight),
			Layout:    layout.DefaultLayoutConfig(),
			Logger:    log.Default(),
		})
	}

	result, err := processor.Run(ctx)
	if err != nil {
		log.Fatalf("Pipeline failed: %v", err)
	}

	log.Printf("Artifacts written to %s", outputDir)
	if result.Success {
		log.Printf("Filled PDF saved to %s", result.OutputPath)
	} else {
		log.Printf("Form filling failed, see artifacts for partial results")
	}
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion()
			return
		}
	}

	// Load configuration from flags first
	cfg, err := config.LoadFromFlags()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up logging based on mode
	setupLogging(cfg)

	// Set version if it was provided during build
	if version != "dev" {
		cfg.Version = version
	}

	if cfg.IsDebug() && !cfg.IsStdioMode() {
		log.Printf("Starting with configuration: %s", cfg.String())
	}

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.IsProcessMode() {
		runProcessMode(ctx, cfg)
		return
	}

	// Create MCP server
	server, err := mcp.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create MCP server: %v", err)
	}

	// Handle different modes
	if cfg.IsServerMode() {
		runServerMode(ctx, cancel, server)
	} else {
		runStdioMode(ctx, cancel, server)
	}
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("MCP Form Filler\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
