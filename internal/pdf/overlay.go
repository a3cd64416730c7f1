package pdf

import (
	"fmt"
	"strings"

	"github.com/signintech/gopdf"

	"github.com/autoscribe/mcp-form-filler/internal/layout"
)

// overlayFontFamily is the registration name of the overlay font.
const overlayFontFamily = "overlay"

const (
	minOverlayFontSize = 6.0
	maxOverlayFontSize = 14.0
	overlayPadding     = 2.0
)

// OverlayFiller draws answer text onto image-form pages at the
// estimated answer-box positions, producing a new PDF with the source
// pages imported underneath
type OverlayFiller struct {
	fontPath string
}

// NewOverlayFiller creates an overlay filler. fontPath must point to a
// TTF font file used for the drawn text.
func NewOverlayFiller(fontPath string) *OverlayFiller {
	return &OverlayFiller{fontPath: fontPath}
}

// Fill imports every source page and draws each answered result's text
// inside its absolute answer box, top-left anchored, with the font size
// fitted to the box height. Results without an answer box or without
// answer text are skipped.
func (of *OverlayFiller) Fill(inPath, outPath string, pageCount int, results []layout.AnswerBoxResult, geometry layout.PageGeometry) (*FillStats, error) {
	if pageCount <= 0 {
		return nil, fmt.Errorf("page count must be positive, got %d", pageCount)
	}

	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: gopdf.Rect{W: geometry.Width, H: geometry.Height}})

	if err := pdf.AddTTFFont(overlayFontFamily, of.fontPath); err != nil {
		return nil, fmt.Errorf("failed to load overlay font %s: %w", of.fontPath, err)
	}

	byPage := make(map[int][]layout.AnswerBoxResult)
	for _, res := range results {
		byPage[res.Page] = append(byPage[res.Page], res)
	}

	stats := &FillStats{}
	for page := 1; page <= pageCount; page++ {
		tpl := pdf.ImportPage(inPath, page, "/MediaBox")
		pdf.AddPage()
		pdf.UseImportedTemplate(tpl, 0, 0, geometry.Width, geometry.Height)

		for _, res := range byPage[page] {
			text := answerText(res)
			if res.AnswerBoxAbs == nil || text == "" {
				stats.Skipped++
				continue
			}
			if err := of.drawAnswer(&pdf, *res.AnswerBoxAbs, text); err != nil {
				stats.Failed++
				stats.Errors = append(stats.Errors, fmt.Sprintf("%s: %v", res.UID, err))
				continue
			}
			stats.Filled++
		}
	}

	if err := pdf.WritePdf(outPath); err != nil {
		return stats, fmt.Errorf("failed to write filled PDF: %w", err)
	}
	return stats, nil
}

// drawAnswer writes one answer string inside its box, wrapping within
// the box width.
func (of *OverlayFiller) drawAnswer(pdf *gopdf.GoPdf, box layout.Rect, text string) error {
	size := fitFontSize(box.Height())
	if err := pdf.SetFont(overlayFontFamily, "", size); err != nil {
		return fmt.Errorf("failed to set font: %w", err)
	}
	pdf.SetTextColor(0, 0, 180)

	pdf.SetXY(box.X1+overlayPadding, box.Y1+overlayPadding)
	rect := gopdf.Rect{
		W: box.Width() - 2*overlayPadding,
		H: box.Height() - 2*overlayPadding,
	}
	if rect.W <= 0 || rect.H <= 0 {
		return fmt.Errorf("answer box too small to draw into")
	}
	if err := pdf.MultiCell(&rect, text); err != nil {
		return fmt.Errorf("failed to draw text: %w", err)
	}
	return nil
}

// fitFontSize picks a font size that fits a single line in the box
// height, bounded to a readable range.
func fitFontSize(boxHeight float64) float64 {
	size := boxHeight * 0.6
	if size < minOverlayFontSize {
		return minOverlayFontSize
	}
	if size > maxOverlayFontSize {
		return maxOverlayFontSize
	}
	return size
}

// answerText joins the non-empty answers attached to a result.
func answerText(res layout.AnswerBoxResult) string {
	var parts []string
	for _, q := range res.Questions {
		if q.Answer != nil && strings.TrimSpace(*q.Answer) != "" {
			parts = append(parts, strings.TrimSpace(*q.Answer))
		}
	}
	return strings.Join(parts, "; ")
}
