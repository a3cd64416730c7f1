package docai

import (
	"fmt"
	"math"
	"strings"

	"github.com/autoscribe/mcp-form-filler/internal/layout"
)

// ProcessResponse is the decoded Document AI :process response, reduced
// to the parts the segment parser consumes.
type ProcessResponse struct {
	Document Document `json:"document"`
}

// Document carries the OCR full text and per-page layout.
type Document struct {
	Text  string `json:"text"`
	Pages []Page `json:"pages"`
}

// Page is one OCR page with its pixel dimensions and paragraphs.
type Page struct {
	PageNumber int         `json:"pageNumber"`
	Dimension  Dimension   `json:"dimension"`
	Paragraphs []Paragraph `json:"paragraphs"`
}

// Dimension is the page size in the OCR engine's pixel units.
type Dimension struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Paragraph wraps the layout of one detected text run.
type Paragraph struct {
	Layout Layout `json:"layout"`
}

// Layout anchors a paragraph into the full text and bounds it on the
// page.
type Layout struct {
	TextAnchor   TextAnchor   `json:"textAnchor"`
	BoundingPoly BoundingPoly `json:"boundingPoly"`
}

// TextAnchor references substrings of the document full text.
type TextAnchor struct {
	TextSegments []TextSegment `json:"textSegments"`
}

// TextSegment is a half-open [StartIndex, EndIndex) range into the full
// text. Document AI encodes the indices as strings.
type TextSegment struct {
	StartIndex string `json:"startIndex"`
	EndIndex   string `json:"endIndex"`
}

// BoundingPoly bounds a paragraph, either normalized or in pixels.
type BoundingPoly struct {
	NormalizedVertices []Vertex `json:"normalizedVertices"`
	Vertices           []Vertex `json:"vertices"`
}

// Vertex is one polygon corner.
type Vertex struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ParseSegments converts the OCR response into ordered text segments,
// one per anchored paragraph range, with normalized bounding boxes.
// Empty-text and malformed-polygon paragraphs are dropped. Segment uids
// are seg1, seg2, ... in document order.
func ParseSegments(resp *ProcessResponse) ([]layout.Block, error) {
	if resp == nil {
		return nil, fmt.Errorf("nil response")
	}

	fullText := resp.Document.Text
	if fullText == "" {
		return nil, fmt.Errorf("no text in OCR result")
	}

	var segments []layout.Block
	counter := 1

	for _, page := range resp.Document.Pages {
		for _, paragraph := range page.Paragraphs {
			poly := paragraph.Layout.BoundingPoly
			box, ok := parseBoundingBox(poly, page.Dimension)
			if !ok {
				continue
			}

			for _, seg := range paragraph.Layout.TextAnchor.TextSegments {
				text := anchoredText(fullText, seg)
				if text == "" {
					continue
				}
				segments = append(segments, layout.Block{
					UID:         fmt.Sprintf("seg%d", counter),
					PageNumber:  page.PageNumber,
					Text:        text,
					QuestionBox: &box,
				})
				counter++
			}
		}
	}

	if len(segments) == 0 {
		return nil, fmt.Errorf("no segments found")
	}
	return segments, nil
}

// anchoredText slices the anchored range out of the full text,
// tolerating missing or out-of-range indices.
func anchoredText(fullText string, seg TextSegment) string {
	start := parseIndex(seg.StartIndex)
	end := parseIndex(seg.EndIndex)
	if start < 0 || end > len(fullText) || start >= end {
		return ""
	}
	return strings.TrimSpace(fullText[start:end])
}

// parseIndex reads a Document AI string-encoded index; absent indices
// mean zero.
func parseIndex(s string) int {
	if s == "" {
		return 0
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return -1
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// parseBoundingBox resolves a polygon into a normalized rectangle,
// preferring normalized vertices and falling back to pixel vertices
// divided by the page dimensions.
func parseBoundingBox(poly BoundingPoly, dim Dimension) (layout.Rect, bool) {
	var xs, ys []float64

	switch {
	case len(poly.NormalizedVertices) == 4:
		for _, v := range poly.NormalizedVertices {
			xs = append(xs, v.X)
			ys = append(ys, v.Y)
		}
	case len(poly.Vertices) == 4:
		w, h := dim.Width, dim.Height
		if w <= 0 || h <= 0 {
			return layout.Rect{}, false
		}
		for _, v := range poly.Vertices {
			xs = append(xs, v.X/w)
			ys = append(ys, v.Y/h)
		}
	default:
		return layout.Rect{}, false
	}

	return layout.Rect{
		X1: round6(minFloat(xs)),
		Y1: round6(minFloat(ys)),
		X2: round6(maxFloat(xs)),
		Y2: round6(maxFloat(ys)),
	}, true
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

func minFloat(vs []float64) float64 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxFloat(vs []float64) float64 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
