package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Artifact file names written into the run directory.
const (
	filledFormFile  = "filled_form.pdf"
	questionsFile   = "questions.json"
	summaryFile     = "summary.txt"
	answersFile     = "answers.json"
	finalBlocksFile = "final_blocks.json"
	fillStatsFile   = "fill_stats.json"
)

// NewRunDir creates a fresh run directory under base. The name combines
// a timestamp with a short uuid so concurrent runs never collide.
func NewRunDir(base string) (string, error) {
	stamp := time.Now().Format("20060102_150405")
	name := fmt.Sprintf("run-%s-%s", stamp, uuid.NewString()[:8])
	dir := filepath.Join(base, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create run directory: %w", err)
	}
	return dir, nil
}

// writeJSON persists v as indented JSON at path.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// writeText persists plain text at path.
func writeText(path, text string) error {
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}
