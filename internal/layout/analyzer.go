package layout

import (
	"fmt"
	"sort"
)

// defaultElementBox is substituted when a block carries no usable
// coordinates at all.
var defaultElementBox = Rect{X1: 0.1, Y1: 0.1, X2: 0.3, Y2: 0.12}

// FormAnalyzer learns the spatial structure of one document and places
// answer boxes for its elements. An analyzer is built once per document
// and is safe for concurrent reads after construction.
type FormAnalyzer struct {
	pages     map[int][]FormElement
	structure FormStructure
	geometry  PageGeometry
	config    LayoutConfig
}

// NewFormAnalyzer resolves the raw blocks into form elements, organizes
// them by page in reading order and learns the document structure. The
// input slice is not retained or mutated.
func NewFormAnalyzer(blocks []Block, geometry PageGeometry, config LayoutConfig) *FormAnalyzer {
	pages := make(map[int][]FormElement)
	total := 0
	for i, b := range blocks {
		el := resolveBlock(b, i)
		pages[el.PageNumber] = append(pages[el.PageNumber], el)
		total++
	}
	for _, items := range pages {
		sort.SliceStable(items, func(i, j int) bool {
			if items[i].Box.Y1 != items[j].Box.Y1 {
				return items[i].Box.Y1 < items[j].Box.Y1
			}
			return items[i].Box.X1 < items[j].Box.X1
		})
	}

	cfg := config
	sort.SliceStable(cfg.Rules, func(i, j int) bool {
		return cfg.Rules[i].Priority < cfg.Rules[j].Priority
	})

	return &FormAnalyzer{
		pages:     pages,
		structure: learnStructure(pages, total, &cfg),
		geometry:  geometry,
		config:    cfg,
	}
}

// resolveBlock applies the ingestion defaults: a generated uid when the
// block has none, the question box falling back to the label box and
// finally to a fixed default, and the needs-user-input flag derived from
// the presence of questions.
func resolveBlock(b Block, position int) FormElement {
	uid := b.UID
	if uid == "" {
		uid = fmt.Sprintf("item_%d", position)
	}

	box := defaultElementBox
	if b.QuestionBox != nil {
		box = *b.QuestionBox
	} else if b.LabelBox != nil {
		box = *b.LabelBox
	}

	label := b.Label
	if label == "" {
		label = b.Text
	}

	return FormElement{
		UID:            uid,
		PageNumber:     b.PageNumber,
		Label:          label,
		Box:            box.Clamp(),
		NeedsUserInput: len(b.Questions) > 0,
		Questions:      b.Questions,
	}
}

// Structure returns the learned layout statistics.
func (a *FormAnalyzer) Structure() FormStructure {
	return a.structure
}

// EstimateAnswerBoxes runs the placement engine over every element and
// returns one result per element, ordered by page and reading order.
// Question identifiers restart at 1 on every page. Elements that need no
// user input get placement none and nil answer boxes.
func (a *FormAnalyzer) EstimateAnswerBoxes() []AnswerBoxResult {
	pageNums := make([]int, 0, len(a.pages))
	for p := range a.pages {
		pageNums = append(pageNums, p)
	}
	sort.Ints(pageNums)

	var results []AnswerBoxResult
	for _, page := range pageNums {
		items := a.pages[page]
		for i, item := range items {
			res := AnswerBoxResult{
				QuestionID:      i + 1,
				Question:        item.Label,
				QuestionBoxNorm: item.Box,
				QuestionBoxAbs:  a.geometry.ToAbsolute(item.Box),
				Placement:       PlacementNone,
				Page:            page,
				NeedsUserInput:  item.NeedsUserInput,
				UID:             item.UID,
				Questions:       item.Questions,
			}

			if item.NeedsUserInput {
				nb := findNeighbors(item, items, a.structure, &a.config)
				placement, box := decidePlacement(item, nb, a.structure, &a.config)
				res.Placement = placement
				if box != nil {
					res.AnswerBoxNorm = box
					abs := a.geometry.ToAbsolute(*box)
					res.AnswerBoxAbs = &abs
				}
			}

			results = append(results, res)
		}
	}
	return results
}
