package pdf

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/autoscribe/mcp-form-filler/internal/locator"
)

// defaultMaxFileSize bounds PDF reads when no limit is configured.
const defaultMaxFileSize = 100 * 1024 * 1024 // 100MB

// TextReader extracts per-page text from a PDF file
type TextReader struct {
	maxFileSize int64
}

// NewTextReader creates a new page text reader with the given file size
// limit
func NewTextReader(maxFileSize int64) *TextReader {
	if maxFileSize <= 0 {
		maxFileSize = defaultMaxFileSize
	}
	return &TextReader{maxFileSize: maxFileSize}
}

// ReadPages returns the text of every page, keyed by 1-based page
// number, as full text plus the individual word fragments the page
// locator scores against. Pages that fail to parse are skipped.
func (r *TextReader) ReadPages(filePath string) (map[int]locator.PageText, error) {
	if filePath == "" {
		return nil, fmt.Errorf("path cannot be empty")
	}

	fileInfo, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("file does not exist: %s", filePath)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot access file: %w", err)
	}
	if err := r.validatePDFFile(filePath, fileInfo); err != nil {
		return nil, err
	}

	f, pdfReader, err := pdf.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	pages := make(map[int]locator.PageText, pdfReader.NumPage())
	for pageNum := 1; pageNum <= pdfReader.NumPage(); pageNum++ {
		page := pdfReader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text := locator.PageText{}

		if content, err := page.GetPlainText(nil); err == nil {
			text.FullText = content
		}

		for _, item := range page.Content().Text {
			if s := strings.TrimSpace(item.S); s != "" {
				text.Words = append(text.Words, s)
			}
		}

		pages[pageNum] = text
	}

	return pages, nil
}

// PageCount returns the number of pages in the document
func (r *TextReader) PageCount(filePath string) (int, error) {
	f, pdfReader, err := pdf.Open(filePath)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	return pdfReader.NumPage(), nil
}

// validatePDFFile performs basic validation on a PDF file
func (r *TextReader) validatePDFFile(filePath string, fileInfo os.FileInfo) error {
	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filePath)
	}
	if !strings.HasSuffix(strings.ToLower(filePath), ".pdf") {
		return fmt.Errorf("file is not a PDF: %s", filePath)
	}
	if fileInfo.Size() > r.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)",
			fileInfo.Size(), r.maxFileSize)
	}
	return nil
}
