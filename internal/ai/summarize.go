package ai

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Summarizer condenses EMR documents into the summary text the answer
// generator works from.
type Summarizer struct {
	completer Completer
}

// NewSummarizer creates a document summarizer.
func NewSummarizer(completer Completer) *Summarizer {
	return &Summarizer{completer: completer}
}

// SummarizeText summarizes one document's text.
func (s *Summarizer) SummarizeText(ctx context.Context, text string) (string, error) {
	system := "You are an AI assistant summarizing medical documents."
	user := fmt.Sprintf("Summarize the key details of this medical document:\n\n%s", text)

	reply, err := s.completer.Complete(ctx, system, user)
	if err != nil {
		return "", fmt.Errorf("summarization failed: %w", err)
	}
	return strings.TrimSpace(reply), nil
}

// SummarizeFiles summarizes each file and joins the summaries under
// per-file headers.
func (s *Summarizer) SummarizeFiles(ctx context.Context, paths []string) (string, error) {
	var sections []string
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
		summary, err := s.SummarizeText(ctx, string(content))
		if err != nil {
			return "", err
		}
		sections = append(sections, joinSummary(path, summary))
	}
	return strings.Join(sections, "\n\n"), nil
}

// joinSummary formats one file summary under its source header.
func joinSummary(source, summary string) string {
	return fmt.Sprintf("===== %s =====\n%s\n\n", source, summary)
}
