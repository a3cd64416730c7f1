// Package locator assigns form fields to document pages by scoring page
// text against the field name with several weighted signals.
package locator

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"
)

// PageText is the extracted text of one page: the full page text plus
// its individual word fragments in reading order.
type PageText struct {
	FullText string   `json:"full_text"`
	Words    []string `json:"words"`
}

// ScoringWeights is the declarative signal table of the page scorer.
// Every signal contributes independently; changing a weight changes
// policy without touching the scoring code.
type ScoringWeights struct {
	Variation       int     // exact variation occurrence
	Pattern         int     // label-style pattern occurrence
	Proximity       int     // instruction word co-occurring with the field name
	Context         int     // field name inside a sentence-length fragment
	MultiOption     int     // per option, when more than one option appears
	SingleOption    int     // flat bonus when exactly one option appears
	SimilarityFloor float64 // minimum ratio before the similarity bonus applies
	ContextMinWords int     // fragment word count above which context applies
}

// DefaultScoringWeights returns the tuned signal table.
func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{
		Variation:       5,
		Pattern:         8,
		Proximity:       3,
		Context:         2,
		MultiOption:     10,
		SingleOption:    5,
		SimilarityFloor: 0.8,
		ContextMinWords: 5,
	}
}

// proximityIndicators are instruction words whose presence near a field
// name suggests a fill-in context.
var proximityIndicators = []string{
	"enter", "provide", "fill", "input", "required", "optional",
	"please", "select", "choose", "specify", "indicate",
}

// subwordStopwords are dropped during subword extraction.
var subwordStopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "of": {}, "or": {},
	"to": {}, "in": {}, "on": {}, "at": {}, "by": {},
}

var (
	fieldPrefixRe = regexp.MustCompile(`(?i)^(field_|input_)`)
	camelBoundRe  = regexp.MustCompile(`([a-z])([A-Z])`)
)

// FieldScorer locates the page a named form field belongs to. The
// zero-weight scorer is not useful; construct one with NewFieldScorer.
type FieldScorer struct {
	weights ScoringWeights
}

// NewFieldScorer creates a scorer with the given signal weights.
func NewFieldScorer(weights ScoringWeights) *FieldScorer {
	return &FieldScorer{weights: weights}
}

// LocatePage returns the 1-based page the field most likely belongs to.
// When every page scores zero it falls back to a pure fuzzy match over
// all fragments; ok is false only when the document has no text
// fragments at all.
func (s *FieldScorer) LocatePage(fieldName string, pages map[int]PageText, options []string) (page int, ok bool) {
	scores := s.ScorePages(fieldName, pages, options)

	bestPage, bestScore := 0, 0
	for _, p := range sortedPages(pages) {
		if score := scores[p]; score > bestScore {
			bestPage, bestScore = p, score
		}
	}
	if bestScore > 0 {
		return bestPage, true
	}

	return s.fuzzyFallback(fieldName, pages)
}

// ScorePages computes the full page score map for one field. Exposed so
// callers can inspect or log the evidence behind a page decision.
func (s *FieldScorer) ScorePages(fieldName string, pages map[int]PageText, options []string) map[int]int {
	variations := fieldVariations(fieldName)
	patterns := labelPatterns(variations)
	subwords := fieldSubwords(fieldName)
	fieldLower := strings.ToLower(fieldName)

	scores := make(map[int]int, len(pages))
	for pageNum, text := range pages {
		score := 0
		for _, fragment := range fragments(text) {
			textLower := strings.ToLower(fragment)

			for _, v := range variations {
				if strings.Contains(textLower, strings.ToLower(v)) {
					score += s.weights.Variation
				}
			}
			for _, p := range patterns {
				if strings.Contains(textLower, strings.ToLower(p)) {
					score += s.weights.Pattern
				}
			}
			if strings.Contains(textLower, fieldLower) {
				for _, ind := range proximityIndicators {
					if strings.Contains(textLower, ind) {
						score += s.weights.Proximity
					}
				}
				if len(strings.Fields(textLower)) > s.weights.ContextMinWords {
					score += s.weights.Context
				}
			}

			if ratio := similarityRatio(fieldLower, textLower); ratio > s.weights.SimilarityFloor {
				score += int(math.Round(ratio * 10))
			}

			for _, sw := range subwords {
				if strings.Contains(textLower, sw) {
					score += minInt(len(sw), 5)
				}
			}
		}

		score += s.scoreOptions(text, options)
		scores[pageNum] = score
	}
	return scores
}

// scoreOptions rewards pages carrying the field's selectable options;
// several options together are much stronger evidence than one.
func (s *FieldScorer) scoreOptions(text PageText, options []string) int {
	if len(options) == 0 {
		return 0
	}

	pageLower := strings.ToLower(strings.Join(fragments(text), " "))
	found := 0
	for _, opt := range options {
		if opt != "" && strings.Contains(pageLower, strings.ToLower(opt)) {
			found++
		}
	}

	switch {
	case found > 1:
		return found * s.weights.MultiOption
	case found == 1:
		return s.weights.SingleOption
	default:
		return 0
	}
}

// fuzzyFallback picks the page containing the single fragment most
// similar to the field name.
func (s *FieldScorer) fuzzyFallback(fieldName string, pages map[int]PageText) (int, bool) {
	fieldLower := strings.ToLower(fieldName)

	bestPage, bestRatio, found := 0, 0.0, false
	for _, p := range sortedPages(pages) {
		for _, fragment := range fragments(pages[p]) {
			found = true
			if ratio := similarityRatio(fieldLower, strings.ToLower(fragment)); ratio > bestRatio {
				bestPage, bestRatio = p, ratio
			}
		}
	}
	if !found {
		return 0, false
	}
	if bestPage == 0 {
		// All ratios were zero; settle on the first page with fragments.
		for _, p := range sortedPages(pages) {
			if len(fragments(pages[p])) > 0 {
				return p, true
			}
		}
	}
	return bestPage, true
}

// fragments returns the scorable text units of a page: the word list
// when present, otherwise the full page text as a single fragment.
func fragments(text PageText) []string {
	if len(text.Words) > 0 {
		return text.Words
	}
	if strings.TrimSpace(text.FullText) != "" {
		return []string{text.FullText}
	}
	return nil
}

// similarityRatio is the sequence-match ratio of two strings over their
// characters: 2*matched/total, 1.0 for identical strings.
func similarityRatio(a, b string) float64 {
	return difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, "")).Ratio()
}

// fieldVariations generates the spelled-out forms a field name may take
// as a printed label.
func fieldVariations(fieldName string) []string {
	return []string{
		fieldName,
		strings.ToLower(fieldName),
		strings.ToUpper(fieldName),
		titleCase(fieldName),
		strings.ReplaceAll(fieldName, "_", " "),
		strings.ReplaceAll(fieldName, "-", " "),
		fieldPrefixRe.ReplaceAllString(fieldName, ""),
	}
}

// labelPatterns decorates each variation with the punctuation forms
// labels use on printed forms.
func labelPatterns(variations []string) []string {
	patterns := make([]string, 0, len(variations)*8)
	for _, v := range variations {
		patterns = append(patterns,
			v+":",
			v+" *",
			v+"*",
			v+" (",
			"*"+v+"*",
			"*"+v,
			`"`+v+`"`,
			"'"+v+"'",
		)
	}
	return patterns
}

// fieldSubwords splits the field name on delimiters and camel-case
// boundaries and keeps the meaningful parts, the whole name included.
func fieldSubwords(fieldName string) []string {
	lower := strings.ToLower(fieldName)

	parts := map[string]struct{}{lower: {}}
	for _, delim := range []string{"_", "-", "/", " "} {
		next := make(map[string]struct{}, len(parts))
		for part := range parts {
			next[part] = struct{}{}
			for _, word := range strings.Split(part, delim) {
				next[word] = struct{}{}
			}
		}
		parts = next
	}

	camel := strings.ToLower(camelBoundRe.ReplaceAllString(fieldName, "$1 $2"))
	for _, word := range strings.Fields(camel) {
		parts[word] = struct{}{}
	}

	var subwords []string
	for word := range parts {
		if len(word) <= 2 {
			continue
		}
		if _, stop := subwordStopwords[word]; stop {
			continue
		}
		subwords = append(subwords, word)
	}
	sort.Strings(subwords)
	return subwords
}

// titleCase uppercases the first letter of every word.
func titleCase(s string) string {
	prev := ' '
	return strings.Map(func(r rune) rune {
		out := r
		if unicode.IsSpace(prev) || prev == '_' || prev == '-' {
			out = unicode.ToUpper(r)
		} else {
			out = unicode.ToLower(r)
		}
		prev = r
		return out
	}, s)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// sortedPages returns page numbers in ascending order so ties resolve
// to the lowest page.
func sortedPages(pages map[int]PageText) []int {
	nums := make([]int, 0, len(pages))
	for p := range pages {
		nums = append(nums, p)
	}
	sort.Ints(nums)
	return nums
}
