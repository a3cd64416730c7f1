package layout

import (
	"math"
	"strings"
)

// placementInput gathers everything the decision engine needs for one
// element: measured free space, crowding, and label/type context.
type placementInput struct {
	item       FormElement
	neighbors  spatialNeighbors
	rightSpace float64
	belowSpace float64
	hCrowded   bool
	vCrowded   bool
	qType      QuestionType

	minAnswerWidth  float64
	minAnswerHeight float64
	hGap            float64
	vGap            float64
}

// decidePlacement runs the three-stage placement engine for one element:
// forced rules first, scored placement when no rule fires or the forced
// choice was rejected for space reasons, then box geometry. It always
// terminates in exactly one of right, below or none.
func decidePlacement(item FormElement, nb spatialNeighbors, structure FormStructure, cfg *LayoutConfig) (Placement, *Rect) {
	in := measure(item, nb, structure, cfg)

	forced, _ := cfg.forcedPlacement(RuleContext{
		Label:               item.Label,
		LabelLength:         len(item.Label),
		Type:                in.qType,
		HorizontallyCrowded: in.hCrowded,
		VerticallyCrowded:   in.vCrowded,
	})

	switch forced {
	case PlacementRight:
		if box, ok := forcedRightBox(in, cfg); ok {
			return PlacementRight, box
		}
		// Not enough usable width after clamping; fall through to scoring.
	case PlacementBelow:
		if in.belowSpace >= in.minAnswerHeight*cfg.MinBelowSpaceRatio {
			return PlacementBelow, belowBox(in, cfg, cfg.MaxForcedBelowHeight, cfg.MaxForcedBelowWidth, true)
		}
		// Too little vertical room; fall through to scoring.
	}

	return scoredPlacement(in, cfg)
}

// measure computes the free space around the element and the derived
// context shared by every placement stage. All divisions downstream
// guard their denominators, so degenerate (zero or negative) space never
// faults.
func measure(item FormElement, nb spatialNeighbors, structure FormStructure, cfg *LayoutConfig) placementInput {
	box := item.Box

	in := placementInput{
		item:            item,
		neighbors:       nb,
		qType:           item.questionType(),
		minAnswerWidth:  math.Min(structure.AvgQuestionWidth, structure.MinQuestionWidth),
		minAnswerHeight: structure.AvgQuestionHeight,
		hGap:            math.Max(cfg.HGapAbsoluteFloor, structure.MinHorizontalGap*cfg.HGapShrink),
		vGap:            math.Max(cfg.VGapAbsoluteFloor, structure.MinVerticalGap*cfg.VGapShrink),
	}

	if len(nb.Right) == 0 {
		in.rightSpace = 1.0 - box.X2 - in.hGap - cfg.EdgeMargin
	} else {
		in.rightSpace = nb.Right[0].Box.X1 - box.X2 - in.hGap
		in.hCrowded = math.Abs(nb.Right[0].Box.X1-box.X2) < cfg.HorizontalCrowdGap
	}

	if len(nb.Below) == 0 {
		in.belowSpace = 1.0 - box.Y2 - in.vGap - cfg.EdgeMargin
	} else {
		in.belowSpace = nb.Below[0].Box.Y1 - box.Y2 - in.vGap
		in.vCrowded = math.Abs(nb.Below[0].Box.Y1-box.Y2) < cfg.VerticalCrowdGap
	}

	return in
}

// forcedRightBox builds the answer box for a forced right placement.
// The exact label vocabulary gets a standardized width; everything else
// takes the available space up to the ceiling. The box is clamped to the
// page's right edge limit and rejected when the surviving width is not
// usable.
func forcedRightBox(in placementInput, cfg *LayoutConfig) (*Rect, bool) {
	box := in.item.Box

	var width float64
	if containsString(cfg.RightLabelVocabulary, in.item.Label) {
		width = math.Min(math.Min(in.rightSpace, cfg.StandardRightWidth), cfg.MaxRightWidth)
		width = math.Max(width, cfg.MinVocabularyWidth)
	} else {
		width = math.Min(in.rightSpace, cfg.MaxRightWidth)
		width = math.Max(width, in.minAnswerWidth)
	}

	gap := math.Min(in.hGap, cfg.MaxHGap)
	x1 := box.X2 + gap
	x2 := math.Min(x1+width, cfg.RightEdgeLimit)

	if x2-x1 <= cfg.MinUsableWidth {
		return nil, false
	}

	height := box.Height()
	if in.qType == QuestionTypeCheckbox || in.qType == QuestionTypeMultipleChoice {
		height *= cfg.ChoiceHeightScale
	}

	r := Rect{X1: x1, Y1: box.Y1, X2: x2, Y2: box.Y1 + height}.Clamp()
	return &r, true
}

// scoredPlacement seeds both directions at 1.0, scales by available
// space over the minimum usable dimension, applies the multiplicative
// adjustments from cfg.Weights, and picks below only when it both wins
// the score and offers enough vertical room.
func scoredPlacement(in placementInput, cfg *LayoutConfig) (Placement, *Rect) {
	w := cfg.Weights
	label := in.item.Label

	rightScore := 1.0
	if in.rightSpace > 0 {
		rightScore = in.rightSpace / math.Max(0.01, in.minAnswerWidth)
	}
	belowScore := 1.0
	if in.belowSpace > 0 {
		belowScore = in.belowSpace / math.Max(0.01, in.minAnswerHeight)
	}

	if in.belowSpace > w.AmpleBelowThreshold {
		belowScore *= w.AmpleBelowSpace
	}
	if in.rightSpace < w.TightRightThreshold {
		rightScore *= w.TightRightSpace
	}
	if len(label) > w.LongLabelLength {
		belowScore *= w.LongLabelBelow
	}

	switch in.qType {
	case QuestionTypeText:
		belowScore *= w.TextBelow
	case QuestionTypeCheckbox, QuestionTypeMultipleChoice:
		rightScore *= w.ChoiceRight
	case QuestionTypeDate, QuestionTypeSignature:
		rightScore *= w.DateSignatureRight
	}

	if in.vCrowded {
		belowScore *= w.CrowdPenalty
	}
	if in.hCrowded {
		rightScore *= w.CrowdPenalty
	}

	if len(label) < w.ShortLabelLength && strings.HasSuffix(label, ":") {
		rightScore *= w.ColonLabelRight
	}

	useBelow := belowScore > rightScore && in.belowSpace >= in.minAnswerHeight*cfg.MinBelowSpaceRatio
	if !useBelow {
		return PlacementRight, scoredRightBox(in, cfg)
	}
	return PlacementBelow, belowBox(in, cfg, cfg.MaxBelowHeight, cfg.MaxBelowWidth, false)
}

// scoredRightBox builds the answer box for a scored right placement.
// Zero or negative space still yields a minimal box; overlap with a
// close neighbor is accepted over producing nothing.
func scoredRightBox(in placementInput, cfg *LayoutConfig) *Rect {
	box := in.item.Box

	var width float64
	if in.rightSpace <= 0 {
		width = math.Max(cfg.RightWidthFloor, in.minAnswerWidth)
	} else {
		width = math.Min(in.rightSpace, cfg.MaxRightWidth)
		width = math.Max(width, math.Min(cfg.RightWidthFloor, in.minAnswerWidth))
	}

	gap := math.Min(in.hGap, cfg.MaxHGap)
	height := box.Height()
	if in.qType == QuestionTypeCheckbox || in.qType == QuestionTypeMultipleChoice {
		height *= cfg.ChoiceHeightScale
	}

	x1 := box.X2 + gap
	x2 := math.Min(x1+width, cfg.RightEdgeLimit)

	r := Rect{X1: x1, Y1: box.Y1, X2: x2, Y2: box.Y1 + height}.Clamp()
	return &r
}

// belowBox builds the answer box for a below placement. Text answers
// widen up to the configured cap; forced placements allow a taller box
// and a wider text expansion than scored ones.
func belowBox(in placementInput, cfg *LayoutConfig, maxHeight, maxWidth float64, forced bool) *Rect {
	box := in.item.Box

	height := math.Min(maxHeight, in.belowSpace)
	height = math.Max(height, math.Min(in.minAnswerHeight, 0.01))

	width := box.Width()
	if in.qType == QuestionTypeText {
		if forced || len(in.item.Label) > cfg.Weights.KeywordMinLength {
			width = math.Min(maxWidth, width*cfg.TextWidthScale)
		}
	}

	gap := math.Min(in.vGap, cfg.MaxVGap)
	y1 := box.Y2 + gap

	r := Rect{X1: box.X1, Y1: y1, X2: box.X1 + width, Y2: y1 + height}.Clamp()
	return &r
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
