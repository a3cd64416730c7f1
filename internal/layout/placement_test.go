package layout

import (
	"strings"
	"testing"
)

func strPtr(s string) *string { return &s }

func analyzerFor(t *testing.T, blocks []Block) *FormAnalyzer {
	t.Helper()
	return NewFormAnalyzer(blocks, DefaultPageGeometry(), DefaultLayoutConfig())
}

func resultByUID(t *testing.T, results []AnswerBoxResult, uid string) AnswerBoxResult {
	t.Helper()
	for _, r := range results {
		if r.UID == uid {
			return r
		}
	}
	t.Fatalf("No result with uid %q", uid)
	return AnswerBoxResult{}
}

func TestForcedRulesFirstMatchWins(t *testing.T) {
	cfg := DefaultLayoutConfig()

	// A long clinical label also ending in a colon: the below rule has
	// higher priority than the short-label right rule and must win.
	placement, name := cfg.forcedPlacement(RuleContext{
		Label:       "Please describe the treatment plan and expected outcomes in detail:",
		LabelLength: 66,
		Type:        QuestionTypeText,
	})
	if placement != PlacementBelow {
		t.Errorf("Expected below placement, got %v", placement)
	}
	if name != "clinical_keyword_long_label" {
		t.Errorf("Expected clinical keyword rule, got %q", name)
	}
}

func TestForcedRuleShortColonLabel(t *testing.T) {
	cfg := DefaultLayoutConfig()

	placement, name := cfg.forcedPlacement(RuleContext{
		Label:       "Date of Birth:",
		LabelLength: len("Date of Birth:"),
		Type:        QuestionTypeText,
	})
	if placement != PlacementRight {
		t.Errorf("Expected right placement, got %v", placement)
	}
	if name != "short_field_label" {
		t.Errorf("Expected short field label rule, got %q", name)
	}
}

func TestForcedRuleStagingVocabulary(t *testing.T) {
	cfg := DefaultLayoutConfig()

	placement, name := cfg.forcedPlacement(RuleContext{
		Label:       "TNM classification",
		LabelLength: len("TNM classification"),
		Type:        QuestionTypeText,
	})
	if placement != PlacementBelow {
		t.Errorf("Expected below placement, got %v", placement)
	}
	if name != "staging_vocabulary" {
		t.Errorf("Expected staging vocabulary rule, got %q", name)
	}
}

func TestForcedRuleCrowdedChoiceDoesNotFire(t *testing.T) {
	cfg := DefaultLayoutConfig()

	placement, _ := cfg.forcedPlacement(RuleContext{
		Label:               "Has the patient been hospitalized for this condition recently",
		LabelLength:         61,
		Type:                QuestionTypeCheckbox,
		HorizontallyCrowded: true,
	})
	// Both the clinical keyword rule ("condition") and crowding apply,
	// so the outcome is below, not a forced right.
	if placement != PlacementBelow {
		t.Errorf("Expected below placement for crowded clinical checkbox, got %v", placement)
	}
}

func TestNoForcedRuleMatches(t *testing.T) {
	cfg := DefaultLayoutConfig()

	placement, name := cfg.forcedPlacement(RuleContext{
		Label:       "An ordinary middle length label without punctuation",
		LabelLength: 51,
		Type:        QuestionTypeText,
	})
	if placement != PlacementNone || name != "" {
		t.Errorf("Expected no forced placement, got %v (%q)", placement, name)
	}
}

func TestCheckboxPlacedRightWithScaledHeight(t *testing.T) {
	blocks := []Block{
		{
			UID:         "cb1",
			PageNumber:  1,
			Label:       "Smoker?",
			QuestionBox: &Rect{X1: 0.1, Y1: 0.3, X2: 0.35, Y2: 0.33},
			Questions: []Question{
				{Key: "smoker", Type: QuestionTypeCheckbox, Options: []string{"Yes", "No"}, Answer: strPtr("Yes")},
			},
		},
	}

	results := analyzerFor(t, blocks).EstimateAnswerBoxes()
	res := resultByUID(t, results, "cb1")

	if res.Placement != PlacementRight {
		t.Fatalf("Expected right placement for uncrowded checkbox, got %v", res.Placement)
	}
	if res.AnswerBoxNorm == nil {
		t.Fatal("Expected an answer box")
	}

	box := *res.AnswerBoxNorm
	if box.X1 <= 0.35 {
		t.Errorf("Expected answer box to start right of the question, got x1=%v", box.X1)
	}
	if box.Width() > 0.3+1e-9 {
		t.Errorf("Expected width at most 0.3, got %v", box.Width())
	}
	wantHeight := 0.03 * 1.2
	if !almostEqual(box.Height(), wantHeight) {
		t.Errorf("Expected height %v (question height scaled 1.2), got %v", wantHeight, box.Height())
	}
	if box.X2 > 0.98+1e-9 {
		t.Errorf("Expected x2 clamped to 0.98, got %v", box.X2)
	}
}

func TestLongTreatmentLabelPlacedBelow(t *testing.T) {
	blocks := []Block{
		{
			UID:         "tx1",
			PageNumber:  1,
			Label:       "Describe the type and date of any treatment the patient has received",
			QuestionBox: &Rect{X1: 0.1, Y1: 0.2, X2: 0.6, Y2: 0.24},
			Questions: []Question{
				{Key: "treatment", Type: QuestionTypeText, Answer: strPtr("Chemotherapy started in March")},
			},
		},
	}

	results := analyzerFor(t, blocks).EstimateAnswerBoxes()
	res := resultByUID(t, results, "tx1")

	if res.Placement != PlacementBelow {
		t.Fatalf("Expected below placement for narrative treatment label, got %v", res.Placement)
	}
	box := *res.AnswerBoxNorm
	if box.Y1 <= 0.24 {
		t.Errorf("Expected answer box below the question, got y1=%v", box.Y1)
	}
	if box.Height() > 0.15+1e-9 {
		t.Errorf("Expected forced below height at most 0.15, got %v", box.Height())
	}
	if box.Width() > 0.8+1e-9 {
		t.Errorf("Expected forced below width at most 0.8, got %v", box.Width())
	}
}

func TestNoUserInputYieldsNoPlacement(t *testing.T) {
	blocks := []Block{
		{
			UID:         "info",
			PageNumber:  1,
			Text:        "Section B: Attending Physician Statement",
			QuestionBox: &Rect{X1: 0.1, Y1: 0.05, X2: 0.9, Y2: 0.08},
		},
	}

	results := analyzerFor(t, blocks).EstimateAnswerBoxes()
	res := resultByUID(t, results, "info")

	if res.Placement != PlacementNone {
		t.Errorf("Expected no placement for informational block, got %v", res.Placement)
	}
	if res.AnswerBoxNorm != nil || res.AnswerBoxAbs != nil {
		t.Error("Expected nil answer boxes for informational block")
	}
	if res.NeedsUserInput {
		t.Error("Expected needs_user_input false for a block without questions")
	}
}

func TestAnswerBoxStaysInsideUnitSquare(t *testing.T) {
	// Question hugging the right edge with no neighbors anywhere.
	blocks := []Block{
		{
			UID:         "edge",
			PageNumber:  1,
			Label:       "Phone Number:",
			QuestionBox: &Rect{X1: 0.75, Y1: 0.9, X2: 0.96, Y2: 0.93},
			Questions: []Question{
				{Key: "phone", Type: QuestionTypeText, Answer: strPtr("555-0100")},
			},
		},
	}

	results := analyzerFor(t, blocks).EstimateAnswerBoxes()
	res := resultByUID(t, results, "edge")

	if res.AnswerBoxNorm == nil {
		t.Fatal("Expected an answer box")
	}
	box := *res.AnswerBoxNorm
	if box.X1 < 0 || box.Y1 < 0 || box.X2 > 1 || box.Y2 > 1 {
		t.Errorf("Answer box escapes the unit square: %+v", box)
	}
	if box.X2 < box.X1 || box.Y2 < box.Y1 {
		t.Errorf("Answer box is inverted: %+v", box)
	}
}

func TestRightBoxShrinksForCloseNeighbor(t *testing.T) {
	question := Block{
		UID:         "q",
		PageNumber:  1,
		Label:       "Name:",
		QuestionBox: &Rect{X1: 0.1, Y1: 0.3, X2: 0.3, Y2: 0.34},
		Questions: []Question{
			{Key: "name", Type: QuestionTypeText, Answer: strPtr("Jane Roe")},
		},
	}
	farNeighbor := Block{
		UID:         "far",
		PageNumber:  1,
		QuestionBox: &Rect{X1: 0.85, Y1: 0.3, X2: 0.95, Y2: 0.34},
	}
	closeNeighbor := Block{
		UID:         "close",
		PageNumber:  1,
		QuestionBox: &Rect{X1: 0.45, Y1: 0.3, X2: 0.95, Y2: 0.34},
	}

	wide := resultByUID(t, analyzerFor(t, []Block{question, farNeighbor}).EstimateAnswerBoxes(), "q")
	narrow := resultByUID(t, analyzerFor(t, []Block{question, closeNeighbor}).EstimateAnswerBoxes(), "q")

	if wide.AnswerBoxNorm == nil || narrow.AnswerBoxNorm == nil {
		t.Fatal("Expected answer boxes in both layouts")
	}
	if narrow.AnswerBoxNorm.Width() > wide.AnswerBoxNorm.Width()+1e-9 {
		t.Errorf("Closer neighbor should not widen the box: wide=%v narrow=%v",
			wide.AnswerBoxNorm.Width(), narrow.AnswerBoxNorm.Width())
	}
}

func TestEstimateIsDeterministic(t *testing.T) {
	blocks := []Block{
		{
			UID: "a", PageNumber: 1, Label: "Date:",
			QuestionBox: &Rect{X1: 0.1, Y1: 0.1, X2: 0.2, Y2: 0.13},
			Questions:   []Question{{Key: "date", Type: QuestionTypeDate, Answer: strPtr("2024-01-15")}},
		},
		{
			UID: "b", PageNumber: 1, Label: "Please outline the expected recovery timeline for your patient",
			QuestionBox: &Rect{X1: 0.1, Y1: 0.3, X2: 0.7, Y2: 0.34},
			Questions:   []Question{{Key: "recovery", Type: QuestionTypeText, Answer: nil}},
		},
	}

	analyzer := analyzerFor(t, blocks)
	first := analyzer.EstimateAnswerBoxes()
	second := analyzer.EstimateAnswerBoxes()

	if len(first) != len(second) {
		t.Fatalf("Result counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Placement != second[i].Placement || first[i].UID != second[i].UID {
			t.Errorf("Result %d differs between runs", i)
		}
		a, b := first[i].AnswerBoxNorm, second[i].AnswerBoxNorm
		if (a == nil) != (b == nil) {
			t.Errorf("Result %d answer box presence differs", i)
		}
		if a != nil && *a != *b {
			t.Errorf("Result %d answer box differs: %+v vs %+v", i, *a, *b)
		}
	}
}

func TestQuestionIDsRestartPerPage(t *testing.T) {
	blocks := []Block{
		{UID: "p1a", PageNumber: 1, Label: "Name:", QuestionBox: &Rect{X1: 0.1, Y1: 0.1, X2: 0.3, Y2: 0.13}},
		{UID: "p1b", PageNumber: 1, Label: "Date:", QuestionBox: &Rect{X1: 0.1, Y1: 0.2, X2: 0.3, Y2: 0.23}},
		{UID: "p2a", PageNumber: 2, Label: "Signature", QuestionBox: &Rect{X1: 0.1, Y1: 0.1, X2: 0.3, Y2: 0.13}},
	}

	results := analyzerFor(t, blocks).EstimateAnswerBoxes()

	if resultByUID(t, results, "p1a").QuestionID != 1 {
		t.Error("Expected first element on page 1 to be question 1")
	}
	if resultByUID(t, results, "p1b").QuestionID != 2 {
		t.Error("Expected second element on page 1 to be question 2")
	}
	if resultByUID(t, results, "p2a").QuestionID != 1 {
		t.Error("Expected identifiers to restart at 1 on page 2")
	}
}

func TestAbsoluteBoxesMatchGeometry(t *testing.T) {
	blocks := []Block{
		{
			UID: "q", PageNumber: 1, Label: "Date:",
			QuestionBox: &Rect{X1: 0.25, Y1: 0.5, X2: 0.5, Y2: 0.53},
			Questions:   []Question{{Key: "date", Type: QuestionTypeDate, Answer: strPtr("2024-01-15")}},
		},
	}

	geom := NewPageGeometry(612, 792)
	analyzer := NewFormAnalyzer(blocks, geom, DefaultLayoutConfig())
	res := resultByUID(t, analyzer.EstimateAnswerBoxes(), "q")

	if !almostEqual(res.QuestionBoxAbs.X1, 0.25*612) {
		t.Errorf("Expected absolute x1 %v, got %v", 0.25*612, res.QuestionBoxAbs.X1)
	}
	if !almostEqual(res.QuestionBoxAbs.Y2, 0.53*792) {
		t.Errorf("Expected absolute y2 %v, got %v", 0.53*792, res.QuestionBoxAbs.Y2)
	}

	if res.AnswerBoxAbs == nil || res.AnswerBoxNorm == nil {
		t.Fatal("Expected answer boxes")
	}
	roundTrip := geom.ToNormalized(*res.AnswerBoxAbs)
	if !almostEqual(roundTrip.X1, res.AnswerBoxNorm.X1) || !almostEqual(roundTrip.Y2, res.AnswerBoxNorm.Y2) {
		t.Error("Absolute answer box does not round-trip to the normalized one")
	}
}

func TestResolveBlockDefaults(t *testing.T) {
	el := resolveBlock(Block{PageNumber: 3, Text: "Some instructions"}, 7)

	if el.UID != "item_7" {
		t.Errorf("Expected generated uid item_7, got %q", el.UID)
	}
	if el.Box != defaultElementBox {
		t.Errorf("Expected default box, got %+v", el.Box)
	}
	if el.Label != "Some instructions" {
		t.Errorf("Expected label from text fallback, got %q", el.Label)
	}
	if el.NeedsUserInput {
		t.Error("Expected needs_user_input false without questions")
	}

	withLabelBox := resolveBlock(Block{
		UID:        "x",
		PageNumber: 1,
		LabelBox:   &Rect{X1: 0.2, Y1: 0.2, X2: 0.4, Y2: 0.25},
	}, 0)
	if withLabelBox.Box.X1 != 0.2 {
		t.Error("Expected label box fallback when question box is missing")
	}
}

func TestQuestionTypeResolution(t *testing.T) {
	el := FormElement{Questions: []Question{{Type: QuestionTypeDate}}}
	if el.questionType() != QuestionTypeDate {
		t.Error("Expected first question's type")
	}

	unspecified := FormElement{Questions: []Question{{Type: QuestionTypeUnspecified}}}
	if unspecified.questionType() != QuestionTypeText {
		t.Error("Expected unspecified to default to text")
	}

	none := FormElement{}
	if none.questionType() != QuestionTypeText {
		t.Error("Expected missing questions to default to text")
	}
}

func TestNarrativeLeadInsForceBelow(t *testing.T) {
	cfg := DefaultLayoutConfig()
	for _, phrase := range cfg.NarrativeLeadIns {
		label := phrase + " with a continuation of the sentence"
		placement, _ := cfg.forcedPlacement(RuleContext{
			Label:       label,
			LabelLength: len(label),
			Type:        QuestionTypeText,
		})
		if placement != PlacementBelow {
			t.Errorf("Expected below for lead-in %q, got %v", phrase, placement)
		}
	}
}

func TestRightVocabularyGetsStandardWidth(t *testing.T) {
	cfg := DefaultLayoutConfig()
	for _, label := range cfg.RightLabelVocabulary {
		if !strings.HasSuffix(label, ":") && label != "Signature" {
			t.Errorf("Unexpected vocabulary entry %q", label)
		}
	}

	blocks := []Block{
		{
			UID: "sig", PageNumber: 1, Label: "Signature:",
			QuestionBox: &Rect{X1: 0.1, Y1: 0.8, X2: 0.25, Y2: 0.83},
			Questions:   []Question{{Key: "sig", Type: QuestionTypeSignature, Answer: nil}},
		},
	}
	res := resultByUID(t, analyzerFor(t, blocks).EstimateAnswerBoxes(), "sig")

	if res.Placement != PlacementRight {
		t.Fatalf("Expected right placement, got %v", res.Placement)
	}
	box := *res.AnswerBoxNorm
	if box.Width() < 0.1-1e-9 {
		t.Errorf("Expected vocabulary width floor 0.1, got %v", box.Width())
	}
	if box.Width() > 0.25+1e-9 {
		t.Errorf("Expected vocabulary width at most 0.25, got %v", box.Width())
	}
}
