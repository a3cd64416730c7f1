package config

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Mode != ModeStdio {
		t.Errorf("expected default mode %q, got %q", ModeStdio, cfg.Mode)
	}
	if cfg.Host != DefaultHost {
		t.Errorf("expected default host %q, got %q", DefaultHost, cfg.Host)
	}
	if cfg.Port != DefaultPort {
		t.Errorf("expected default port %d, got %d", DefaultPort, cfg.Port)
	}
	if cfg.OpenAIModel != DefaultModel {
		t.Errorf("expected default model %q, got %q", DefaultModel, cfg.OpenAIModel)
	}
	if cfg.PageWidth != DefaultPageWidth || cfg.PageHeight != DefaultPageHeight {
		t.Errorf("unexpected default page size %gx%g", cfg.PageWidth, cfg.PageHeight)
	}
	if cfg.MaxFileSize != DefaultMaxFileSize {
		t.Errorf("expected default max file size %d, got %d", DefaultMaxFileSize, cfg.MaxFileSize)
	}
}

func TestValidate(t *testing.T) {
	valid := func(t *testing.T) *Config {
		t.Helper()
		cfg := DefaultConfig()
		cfg.OutputDir = t.TempDir()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(c *Config) {},
		},
		{
			name:    "bad mode",
			mutate:  func(c *Config) { c.Mode = "daemon" },
			wantErr: "mode must be",
		},
		{
			name:    "bad port in server mode",
			mutate:  func(c *Config) { c.Mode = ModeServer; c.Port = 0 },
			wantErr: "port must be",
		},
		{
			name:   "bad port ignored in stdio mode",
			mutate: func(c *Config) { c.Port = 0 },
		},
		{
			name:    "process mode without pdf",
			mutate:  func(c *Config) { c.Mode = ModeProcess; c.EMRFiles = []string{"visit.txt"} },
			wantErr: "requires --pdf",
		},
		{
			name:    "process mode without emr documents",
			mutate:  func(c *Config) { c.Mode = ModeProcess; c.PDFPath = "form.pdf" },
			wantErr: "--emr",
		},
		{
			name: "valid process mode",
			mutate: func(c *Config) {
				c.Mode = ModeProcess
				c.PDFPath = "form.pdf"
				c.EMRFiles = []string{"visit.txt"}
			},
		},
		{
			name:    "empty output dir",
			mutate:  func(c *Config) { c.OutputDir = "" },
			wantErr: "output directory",
		},
		{
			name:    "zero max file size",
			mutate:  func(c *Config) { c.MaxFileSize = 0 },
			wantErr: "file size",
		},
		{
			name:    "negative page width",
			mutate:  func(c *Config) { c.PageWidth = -1 },
			wantErr: "page dimensions",
		},
		{
			name:    "temperature out of range",
			mutate:  func(c *Config) { c.OpenAITemperature = 2.5 },
			wantErr: "temperature",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: "log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected valid config, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateCreatesOutputDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OutputDir = filepath.Join(t.TempDir(), "nested", "runs")

	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate failed: %v", err)
	}
}

func TestAddress(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Host = "0.0.0.0"
	cfg.Port = 9090

	if got := cfg.Address(); got != "0.0.0.0:9090" {
		t.Errorf("expected address 0.0.0.0:9090, got %s", got)
	}
}

func TestModeHelpers(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.IsStdioMode() || cfg.IsServerMode() {
		t.Error("default config should be stdio mode")
	}

	cfg.Mode = ModeServer
	if cfg.IsStdioMode() || !cfg.IsServerMode() {
		t.Error("server mode helpers inconsistent")
	}

	cfg.Mode = ModeProcess
	if !cfg.IsProcessMode() || cfg.IsServerMode() || cfg.IsStdioMode() {
		t.Error("process mode helpers inconsistent")
	}
}

func TestStringOmitsSecrets(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OpenAIAPIKey = "sk-secret"
	cfg.DocAIAPIKey = "docai-secret"

	s := cfg.String()
	if strings.Contains(s, "secret") {
		t.Errorf("config string leaks secrets: %s", s)
	}
}
