package layout

// QuestionType represents the input style of a form question
type QuestionType string

const (
	QuestionTypeText           QuestionType = "text"
	QuestionTypeCheckbox       QuestionType = "checkbox"
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeDate           QuestionType = "date"
	QuestionTypeSignature      QuestionType = "signature"
	QuestionTypeUnspecified    QuestionType = "unspecified"
)

// Placement indicates on which side of a question element the answer box sits
type Placement string

const (
	PlacementRight Placement = "right"
	PlacementBelow Placement = "below"
	PlacementNone  Placement = "none"
)

// Question is a single answerable question attached to a form element
type Question struct {
	Key       string       `json:"key"`
	FieldName string       `json:"field_name,omitempty"`
	Text      string       `json:"generated_question"`
	Type      QuestionType `json:"type"`
	Options   []string     `json:"options,omitempty"`
	Answer    *string      `json:"answers"`
	Required  bool         `json:"required,omitempty"`
}

// Block is one visual unit of a form as produced by upstream extraction.
// Box coordinates are admitted through several keys: QuestionBox wins,
// LabelBox is the fallback, and a fixed default applies when both are
// missing. A Block that carries Questions needs user input.
type Block struct {
	UID         string     `json:"uid,omitempty"`
	PageNumber  int        `json:"pageNumber"`
	Text        string     `json:"text,omitempty"`
	Label       string     `json:"label,omitempty"`
	QuestionBox *Rect      `json:"question_box_norm,omitempty"`
	LabelBox    *Rect      `json:"label_box,omitempty"`
	Segments    []string   `json:"segments,omitempty"`
	Questions   []Question `json:"questions,omitempty"`
}

// FormElement is a Block resolved for analysis: box, label and
// needs-user-input defaults applied. Elements are value types; the
// analyzer never mutates its inputs.
type FormElement struct {
	UID            string
	PageNumber     int
	Label          string
	Box            Rect
	NeedsUserInput bool
	Questions      []Question
}

// questionType returns the type of the first attached question,
// defaulting to text when unspecified.
func (e FormElement) questionType() QuestionType {
	if len(e.Questions) > 0 && e.Questions[0].Type != "" && e.Questions[0].Type != QuestionTypeUnspecified {
		return e.Questions[0].Type
	}
	return QuestionTypeText
}

// FormStructure is the statistical layout signature of one document,
// computed once over all elements and treated as read-only afterwards.
// All values are in normalized page units.
type FormStructure struct {
	AvgQuestionWidth  float64 `json:"avg_question_width"`
	MinQuestionWidth  float64 `json:"min_question_width"`
	MaxQuestionWidth  float64 `json:"max_question_width"`
	AvgQuestionHeight float64 `json:"avg_question_height"`
	MinQuestionHeight float64 `json:"min_question_height"`
	MaxQuestionHeight float64 `json:"max_question_height"`

	// Gaps use the median and a low percentile rather than mean/min so a
	// single outlier pair cannot contaminate the learned spacing.
	AvgHorizontalGap float64 `json:"avg_horizontal_gap"`
	MinHorizontalGap float64 `json:"min_horizontal_gap"`
	AvgVerticalGap   float64 `json:"avg_vertical_gap"`
	MinVerticalGap   float64 `json:"min_vertical_gap"`

	// Frequently recurring binned x/y positions
	Columns []float64 `json:"columns"`
	Rows    []float64 `json:"rows"`
}

// AnswerBoxResult is the per-element output record of the estimator.
// Boxes are reported in both normalized and page-absolute coordinates;
// answer boxes are nil when the placement is none.
type AnswerBoxResult struct {
	QuestionID      int        `json:"question_id"`
	Question        string     `json:"question"`
	QuestionBoxNorm Rect       `json:"question_box_norm"`
	QuestionBoxAbs  Rect       `json:"question_box_abs"`
	AnswerBoxNorm   *Rect      `json:"answer_box_norm"`
	AnswerBoxAbs    *Rect      `json:"answer_box_abs"`
	Placement       Placement  `json:"placement"`
	Page            int        `json:"page"`
	NeedsUserInput  bool       `json:"needs_user_input"`
	UID             string     `json:"uid"`
	Questions       []Question `json:"questions,omitempty"`
}
