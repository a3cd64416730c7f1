package pdf

import "fmt"

// DetectDigitalForm reports whether the document carries at least one
// fillable AcroForm field. The pipeline routes digital forms through
// native field filling and everything else through the image path.
func DetectDigitalForm(filePath string) (bool, error) {
	fields, err := NewFormExtractor().ExtractFromFile(filePath)
	if err != nil {
		return false, fmt.Errorf("failed to inspect form fields: %w", err)
	}
	return len(fields) > 0, nil
}
