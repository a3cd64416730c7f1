package layout

// LayoutConfig collects every tunable used by the structure learner, the
// neighbor finder and the placement engine. Placement policy is data, not
// code: swapping weights, rules or vocabularies changes behavior without
// touching the engine.
type LayoutConfig struct {
	// Structure learning
	AlignmentTolerance float64 // same-row/same-column y1/x1 tolerance
	ColumnBins         int     // x-position bin resolution
	RowBins            int     // y-position bin resolution
	MinBinCount        int     // absolute floor for a recurring position
	BinCountShare      float64 // fraction of elements a position must reach
	GapPercentile      float64 // low percentile used for minimum gaps
	HGapFloor          float64 // floor applied to the horizontal gap percentile
	VGapFloor          float64 // floor applied to the vertical gap percentile

	// Substitutes when a statistic has no observations
	DefaultAvgWidth  float64
	DefaultMinWidth  float64
	DefaultMaxWidth  float64
	DefaultAvgHeight float64
	DefaultMinHeight float64
	DefaultMaxHeight float64
	DefaultAvgHGap   float64
	DefaultMinHGap   float64
	DefaultAvgVGap   float64
	DefaultMinVGap   float64

	// Neighbor search radius scales with the document's own spacing
	NeighborGapMultiplier float64

	// Placement geometry
	EdgeMargin           float64 // free-space margin kept at page edges
	RightEdgeLimit       float64 // hard x2 ceiling for right boxes
	MaxRightWidth        float64 // width ceiling for right boxes
	StandardRightWidth   float64 // preferred width for exact-vocabulary labels
	MinVocabularyWidth   float64 // width floor for exact-vocabulary labels
	MaxBelowHeight       float64 // height ceiling for scored below boxes
	MaxForcedBelowHeight float64 // height ceiling for forced below boxes
	MaxBelowWidth        float64 // width ceiling for scored below text boxes
	MaxForcedBelowWidth  float64 // width ceiling for forced below text boxes
	MaxHGap              float64 // ceiling on the question/answer horizontal gap
	MaxVGap              float64 // ceiling on the question/answer vertical gap
	HGapShrink           float64 // fraction of the learned minimum gap kept
	VGapShrink           float64
	HGapAbsoluteFloor    float64
	VGapAbsoluteFloor    float64
	MinUsableWidth       float64 // a right box narrower than this is rejected
	RightWidthFloor      float64 // width floor for scored right boxes
	MinBelowSpaceRatio   float64 // fraction of the minimum answer height below must offer
	VerticalCrowdGap     float64 // below-neighbor distance that counts as crowded
	HorizontalCrowdGap   float64 // right-neighbor distance that counts as crowded
	TextWidthScale       float64 // below-box widening factor for text answers
	ChoiceHeightScale    float64 // right-box height factor for choice fields

	Weights PlacementWeights
	Rules   []PlacementRule

	// Label vocabularies consumed by the default rules
	RightLabelVocabulary []string
	NarrativeLeadIns     []string
	ClinicalKeywords     []string
}

// PlacementWeights holds the multiplicative score adjustments of the
// scored placement stage.
type PlacementWeights struct {
	AmpleBelowSpace     float64 // below bonus when vertical space is generous
	AmpleBelowThreshold float64
	TightRightSpace     float64 // right penalty when horizontal space is scarce
	TightRightThreshold float64
	LongLabelBelow      float64 // below bonus for long question labels
	LongLabelLength     int
	TextBelow           float64 // type bonuses
	ChoiceRight         float64
	DateSignatureRight  float64
	CrowdPenalty        float64 // applied to a crowded direction
	ColonLabelRight     float64 // strong right preference for short "Label:" fields
	ShortLabelLength    int
	KeywordMinLength    int // label length gate for the clinical-keyword rule
}

// DefaultLayoutConfig returns the tuned configuration. The right-label
// vocabulary and narrative phrase lists are calibrated against disability
// and insurance claim forms; see DESIGN.md before generalizing them.
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{
		AlignmentTolerance: 0.02,
		ColumnBins:         20,
		RowBins:            50,
		MinBinCount:        2,
		BinCountShare:      0.1,
		GapPercentile:      0.10,
		HGapFloor:          0.01,
		VGapFloor:          0.005,

		DefaultAvgWidth:  0.2,
		DefaultMinWidth:  0.1,
		DefaultMaxWidth:  0.3,
		DefaultAvgHeight: 0.03,
		DefaultMinHeight: 0.02,
		DefaultMaxHeight: 0.05,
		DefaultAvgHGap:   0.03,
		DefaultMinHGap:   0.01,
		DefaultAvgVGap:   0.02,
		DefaultMinVGap:   0.005,

		NeighborGapMultiplier: 4,

		EdgeMargin:           0.02,
		RightEdgeLimit:       0.98,
		MaxRightWidth:        0.3,
		StandardRightWidth:   0.25,
		MinVocabularyWidth:   0.1,
		MaxBelowHeight:       0.1,
		MaxForcedBelowHeight: 0.15,
		MaxBelowWidth:        0.7,
		MaxForcedBelowWidth:  0.8,
		MaxHGap:              0.01,
		MaxVGap:              0.005,
		HGapShrink:           0.3,
		VGapShrink:           0.3,
		HGapAbsoluteFloor:    0.005,
		VGapAbsoluteFloor:    0.003,
		MinUsableWidth:       0.01,
		RightWidthFloor:      0.05,
		MinBelowSpaceRatio:   0.5,
		VerticalCrowdGap:     0.05,
		HorizontalCrowdGap:   0.1,
		TextWidthScale:       1.5,
		ChoiceHeightScale:    1.2,

		Weights: PlacementWeights{
			AmpleBelowSpace:     1.2,
			AmpleBelowThreshold: 0.1,
			TightRightSpace:     0.7,
			TightRightThreshold: 0.15,
			LongLabelBelow:      1.3,
			LongLabelLength:     60,
			TextBelow:           1.2,
			ChoiceRight:         1.2,
			DateSignatureRight:  1.5,
			CrowdPenalty:        0.5,
			ColonLabelRight:     2.0,
			ShortLabelLength:    25,
			KeywordMinLength:    30,
		},

		Rules: DefaultPlacementRules(),

		RightLabelVocabulary: []string{
			"Date:",
			"Signature:",
			"Signature",
			"Print Name:",
			"Phone Number:",
		},
		NarrativeLeadIns: []string{
			"Please provide copies",
			"Please indicate the primary",
			"Provide the current stage",
			"Describe the type and date",
			"If your patient's treatment",
			"Please outline the expected",
			"Please outline any additional",
			"Will your patient be left",
			"Canada Life supports",
			"Please provide any additional",
		},
		ClinicalKeywords: []string{
			"cancer", "stage", "tnm", "surgical", "treatment", "therapy",
			"condition", "prognosis", "outline", "describe", "provide",
		},
	}
}
