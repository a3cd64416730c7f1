package layout

import "strings"

// RuleContext is the evaluated view of one element handed to the forced
// placement rules.
type RuleContext struct {
	Label               string
	LabelLength         int
	Type                QuestionType
	HorizontallyCrowded bool
	VerticallyCrowded   bool

	cfg *LayoutConfig
}

// PlacementRule forces a placement when its predicate matches. Rules are
// evaluated in ascending priority order and the first match wins, which
// makes the precedence between overlapping rules explicit and testable.
type PlacementRule struct {
	Name     string
	Priority int
	Outcome  Placement
	Matches  func(ctx RuleContext) bool
}

// DefaultPlacementRules returns the forced placement cascade. Below rules
// outrank right rules: a narrative or clinical question keeps its below
// placement even when its label also looks like a short field label.
func DefaultPlacementRules() []PlacementRule {
	return []PlacementRule{
		{
			Name:     "clinical_keyword_long_label",
			Priority: 1,
			Outcome:  PlacementBelow,
			Matches: func(ctx RuleContext) bool {
				if ctx.LabelLength <= ctx.cfg.Weights.KeywordMinLength {
					return false
				}
				lower := strings.ToLower(ctx.Label)
				for _, kw := range ctx.cfg.ClinicalKeywords {
					if strings.Contains(lower, kw) {
						return true
					}
				}
				return false
			},
		},
		{
			Name:     "staging_vocabulary",
			Priority: 2,
			Outcome:  PlacementBelow,
			Matches: func(ctx RuleContext) bool {
				return strings.Contains(strings.ToLower(ctx.Label), "stage") ||
					strings.Contains(ctx.Label, "TNM")
			},
		},
		{
			Name:     "narrative_lead_in",
			Priority: 3,
			Outcome:  PlacementBelow,
			Matches: func(ctx RuleContext) bool {
				for _, phrase := range ctx.cfg.NarrativeLeadIns {
					if strings.HasPrefix(ctx.Label, phrase) {
						return true
					}
				}
				return false
			},
		},
		{
			Name:     "short_field_label",
			Priority: 4,
			Outcome:  PlacementRight,
			Matches: func(ctx RuleContext) bool {
				if ctx.LabelLength >= ctx.cfg.Weights.ShortLabelLength {
					return false
				}
				if strings.HasSuffix(ctx.Label, ":") {
					return true
				}
				for _, exact := range ctx.cfg.RightLabelVocabulary {
					if ctx.Label == exact {
						return true
					}
				}
				return false
			},
		},
		{
			Name:     "uncrowded_choice_field",
			Priority: 5,
			Outcome:  PlacementRight,
			Matches: func(ctx RuleContext) bool {
				if ctx.HorizontallyCrowded {
					return false
				}
				return ctx.Type == QuestionTypeCheckbox || ctx.Type == QuestionTypeMultipleChoice
			},
		},
	}
}

// forcedPlacement evaluates the rule cascade and returns the first
// matching outcome, or PlacementNone when no rule fires.
func (c *LayoutConfig) forcedPlacement(ctx RuleContext) (Placement, string) {
	ctx.cfg = c
	for _, rule := range c.Rules {
		if rule.Matches != nil && rule.Matches(ctx) {
			return rule.Outcome, rule.Name
		}
	}
	return PlacementNone, ""
}
