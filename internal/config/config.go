package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio   = "stdio"
	ModeServer  = "server"
	ModeProcess = "process"

	// Default values
	DefaultPort        = 8080
	DefaultHost        = "127.0.0.1"
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB
	DefaultOutputDir   = "outputs"
	DefaultModel       = "gpt-4o"
	DefaultTemperature = 0.3
	DefaultMaxTokens   = 2000
	DefaultMaxRetries  = 3
	DefaultPageWidth   = 612.0 // US Letter, points
	DefaultPageHeight  = 792.0

	// Directory permissions
	DefaultDirPerm = 0o750
)

// Config holds all configuration for the form filler MCP server
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// Pipeline configuration
	OutputDir  string
	FontPath   string // TTF font used for overlay filling
	PageWidth  float64
	PageHeight float64

	// One-shot process mode inputs
	PDFPath  string
	EMRFiles []string

	// OpenAI configuration
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OpenAIModel       string
	OpenAITemperature float64
	OpenAIMaxTokens   int
	OpenAIMaxRetries  int

	// Document AI configuration
	DocAIEndpoint string
	DocAIAPIKey   string

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum PDF file size in bytes
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Mode:              ModeStdio, // Default to stdio mode for MCP compatibility
		Host:              DefaultHost,
		Port:              DefaultPort,
		OutputDir:         DefaultOutputDir,
		PageWidth:         DefaultPageWidth,
		PageHeight:        DefaultPageHeight,
		OpenAIModel:       DefaultModel,
		OpenAITemperature: DefaultTemperature,
		OpenAIMaxTokens:   DefaultMaxTokens,
		OpenAIMaxRetries:  DefaultMaxRetries,
		Version:           "1.0.0",
		ServerName:        "mcp-form-filler",
		LogLevel:          DefaultLogLevel,
		MaxFileSize:       DefaultMaxFileSize,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	pflag.Parse()

	populateConfigFromViper(cfg)

	// Expand paths if needed
	if cfg.OutputDir != "" {
		if expandedPath, err := filepath.Abs(cfg.OutputDir); err == nil {
			cfg.OutputDir = expandedPath
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix("MCP_FORM")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("outdir", cfg.OutputDir)
	viper.SetDefault("fontpath", cfg.FontPath)
	viper.SetDefault("pagewidth", cfg.PageWidth)
	viper.SetDefault("pageheight", cfg.PageHeight)
	viper.SetDefault("pdf", cfg.PDFPath)
	viper.SetDefault("emr", cfg.EMRFiles)
	viper.SetDefault("openai-key", cfg.OpenAIAPIKey)
	viper.SetDefault("openai-baseurl", cfg.OpenAIBaseURL)
	viper.SetDefault("openai-model", cfg.OpenAIModel)
	viper.SetDefault("openai-temperature", cfg.OpenAITemperature)
	viper.SetDefault("openai-maxtokens", cfg.OpenAIMaxTokens)
	viper.SetDefault("openai-maxretries", cfg.OpenAIMaxRetries)
	viper.SetDefault("docai-endpoint", cfg.DocAIEndpoint)
	viper.SetDefault("docai-key", cfg.DocAIAPIKey)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP server")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("outdir", cfg.OutputDir, "Base directory for pipeline run outputs")
	pflag.String("fontpath", cfg.FontPath, "TTF font file used for overlay filling of image forms")
	pflag.Float64("pagewidth", cfg.PageWidth, "Page width in points for coordinate conversion")
	pflag.Float64("pageheight", cfg.PageHeight, "Page height in points for coordinate conversion")
	pflag.String("pdf", cfg.PDFPath, "Form PDF to fill (process mode only)")
	pflag.StringSlice("emr", cfg.EMRFiles, "EMR documents to answer from (process mode only)")
	pflag.String("openai-key", cfg.OpenAIAPIKey, "OpenAI API key")
	pflag.String("openai-baseurl", cfg.OpenAIBaseURL, "OpenAI-compatible API base URL (empty for default)")
	pflag.String("openai-model", cfg.OpenAIModel, "Chat model used for questions, summaries and answers")
	pflag.Float64("openai-temperature", cfg.OpenAITemperature, "Sampling temperature for chat completions")
	pflag.Int("openai-maxtokens", cfg.OpenAIMaxTokens, "Maximum completion tokens per chat request")
	pflag.Int("openai-maxretries", cfg.OpenAIMaxRetries, "Retry attempts for chat requests")
	pflag.String("docai-endpoint", cfg.DocAIEndpoint, "Document AI processor endpoint URL")
	pflag.String("docai-key", cfg.DocAIAPIKey, "Document AI access token")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, name := range []string{
		"mode", "host", "port", "outdir", "fontpath", "pagewidth", "pageheight",
		"pdf", "emr", "openai-key", "openai-baseurl", "openai-model", "openai-temperature",
		"openai-maxtokens", "openai-maxretries", "docai-endpoint", "docai-key",
		"loglevel", "maxfilesize",
	} {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nMCP Form Filler - A Model Context Protocol server for filling medical PDF forms\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                  # stdio mode (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --outdir=/data/runs              # stdio mode with custom output directory\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --port=8081        # server mode\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=process --pdf=form.pdf --emr=visit.txt --emr=labs.txt "+
			"# run one pipeline and exit\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  MCP_FORM_MODE            Server mode\n")
		fmt.Fprintf(os.Stderr, "  MCP_FORM_OUTDIR          Output directory\n")
		fmt.Fprintf(os.Stderr, "  MCP_FORM_OPENAI_KEY      OpenAI API key\n")
		fmt.Fprintf(os.Stderr, "  MCP_FORM_OPENAI_MODEL    Chat model\n")
		fmt.Fprintf(os.Stderr, "  MCP_FORM_DOCAI_ENDPOINT  Document AI endpoint\n")
		fmt.Fprintf(os.Stderr, "  MCP_FORM_DOCAI_KEY       Document AI token\n")
		fmt.Fprintf(os.Stderr, "  MCP_FORM_FONTPATH        Overlay TTF font\n")
		fmt.Fprintf(os.Stderr, "  MCP_FORM_MAXFILESIZE     Maximum file size\n")
	}
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.OutputDir = viper.GetString("outdir")
	cfg.FontPath = viper.GetString("fontpath")
	cfg.PageWidth = viper.GetFloat64("pagewidth")
	cfg.PageHeight = viper.GetFloat64("pageheight")
	cfg.PDFPath = viper.GetString("pdf")
	cfg.EMRFiles = viper.GetStringSlice("emr")
	cfg.OpenAIAPIKey = viper.GetString("openai-key")
	cfg.OpenAIBaseURL = viper.GetString("openai-baseurl")
	cfg.OpenAIModel = viper.GetString("openai-model")
	cfg.OpenAITemperature = viper.GetFloat64("openai-temperature")
	cfg.OpenAIMaxTokens = viper.GetInt("openai-maxtokens")
	cfg.OpenAIMaxRetries = viper.GetInt("openai-maxretries")
	cfg.DocAIEndpoint = viper.GetString("docai-endpoint")
	cfg.DocAIAPIKey = viper.GetString("docai-key")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer && c.Mode != ModeProcess {
		return errors.New("mode must be one of 'stdio', 'server' or 'process'")
	}

	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.Mode == ModeProcess {
		if c.PDFPath == "" {
			return errors.New("process mode requires --pdf")
		}
		if len(c.EMRFiles) == 0 {
			return errors.New("process mode requires at least one --emr document")
		}
	}

	if c.OutputDir == "" {
		return errors.New("output directory cannot be empty")
	}

	// Create the output directory if it doesn't exist
	if _, err := os.Stat(c.OutputDir); os.IsNotExist(err) {
		if err := os.MkdirAll(c.OutputDir, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create output directory %s: %w", c.OutputDir, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access output directory %s: %w", c.OutputDir, err)
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if c.PageWidth <= 0 || c.PageHeight <= 0 {
		return errors.New("page dimensions must be positive")
	}

	if c.OpenAITemperature < 0 || c.OpenAITemperature > 2 {
		return errors.New("temperature must be between 0 and 2")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration. Secrets
// are omitted.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, OutputDir: %s, Model: %s, LogLevel: %s, MaxFileSize: %d}",
		c.Mode, c.Host, c.Port, c.OutputDir, c.OpenAIModel, c.LogLevel, c.MaxFileSize)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}

// IsProcessMode returns true when running one pipeline and exiting
func (c *Config) IsProcessMode() bool {
	return c.Mode == ModeProcess
}
