package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/autoscribe/mcp-form-filler/internal/layout"
	"github.com/autoscribe/mcp-form-filler/internal/pdf"
)

// questionBatchSize bounds the number of fields per prompt.
const questionBatchSize = 10

// QuestionGenerator turns extracted AcroForm fields into user-facing
// questions via batched prompts. Keys Q1, Q2, ... are assigned before
// prompting and the model must echo them back.
type QuestionGenerator struct {
	completer Completer
}

// NewQuestionGenerator creates a question generator.
func NewQuestionGenerator(completer Completer) *QuestionGenerator {
	return &QuestionGenerator{completer: completer}
}

type promptField struct {
	Key       string   `json:"key"`
	FieldName string   `json:"field_name"`
	Type      string   `json:"type"`
	Options   []string `json:"options"`
}

// Generate produces one question per field, preserving field order.
// Fields the model skipped keep an empty question text.
func (qg *QuestionGenerator) Generate(ctx context.Context, sectionText string, fields []pdf.FormField) ([]layout.Question, error) {
	questions := make([]layout.Question, len(fields))
	for i, field := range fields {
		questions[i] = layout.Question{
			Key:       fmt.Sprintf("Q%d", i+1),
			FieldName: field.Name,
			Type:      field.Type.QuestionType(),
			Options:   field.Options,
			Required:  field.Required,
		}
	}

	generated := make(map[string]string)
	for start := 0; start < len(questions); start += questionBatchSize {
		end := start + questionBatchSize
		if end > len(questions) {
			end = len(questions)
		}

		reply, err := qg.promptBatch(ctx, sectionText, questions[start:end])
		if err != nil {
			return nil, err
		}
		for key, text := range parseGeneratedQuestions(reply) {
			generated[key] = text
		}
	}

	for i := range questions {
		questions[i].Text = generated[questions[i].Key]
	}
	return questions, nil
}

func (qg *QuestionGenerator) promptBatch(ctx context.Context, sectionText string, batch []layout.Question) (string, error) {
	promptFields := make([]promptField, len(batch))
	for i, q := range batch {
		promptFields[i] = promptField{
			Key:       q.Key,
			FieldName: q.FieldName,
			Type:      string(q.Type),
			Options:   q.Options,
		}
	}
	fieldsText, err := json.MarshalIndent(promptFields, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode fields: %w", err)
	}

	system := "You are an AI assistant that generates questions for medical form fields. " +
		"You must ALWAYS return the unique key for each field exactly as provided."
	user := fmt.Sprintf(
		"Here is a section content of a medical form:\n\n%s\n\n"+
			"Below are the fields with their unique keys, names, types, and options of the section:\n%s\n\n"+
			"Generate relevant questions for EVERY field listed above based on their context.\n"+
			"Return ONLY the following structured text format (not JSON):\n\n"+
			"Key: <unique_key>\n"+
			"Generated Question: <generated_question>\n"+
			"---\n"+
			"IMPORTANT: You MUST include the unique key for each field exactly as provided.\n"+
			"**DO NOT** return any other information like field names, types, or options.\n"+
			"**DO NOT** return in JSON format.\n"+
			"**DO NOT** generate new fields.\n"+
			"Use ONLY the structured text format above.",
		sectionText, fieldsText,
	)

	reply, err := qg.completer.Complete(ctx, system, user)
	if err != nil {
		return "", fmt.Errorf("question generation failed: %w", err)
	}
	return reply, nil
}

// parseGeneratedQuestions reads Key/Generated Question pairs from the
// structured text reply. A new Key line or a --- separator closes the
// current pair; pairs missing either part are dropped.
func parseGeneratedQuestions(reply string) map[string]string {
	questions := make(map[string]string)
	var key, text string
	flush := func() {
		if key != "" && text != "" {
			questions[key] = text
		}
		key, text = "", ""
	}

	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "---":
			flush()
		case strings.HasPrefix(line, "Key:"):
			flush()
			key = strings.TrimSpace(strings.TrimPrefix(line, "Key:"))
		case strings.HasPrefix(line, "Generated Question:"):
			text = strings.TrimSpace(strings.TrimPrefix(line, "Generated Question:"))
		}
	}
	flush()
	return questions
}

// QuestionExtractor pulls fillable questions out of combined image-form
// block text with a single prompt.
type QuestionExtractor struct {
	completer Completer
}

// NewQuestionExtractor creates a question extractor.
func NewQuestionExtractor(completer Completer) *QuestionExtractor {
	return &QuestionExtractor{completer: completer}
}

// Extract asks the model for the fillable questions in the blocks and
// parses its numbered reply.
func (qe *QuestionExtractor) Extract(ctx context.Context, blocks []layout.Block) ([]layout.Question, error) {
	texts := make([]string, len(blocks))
	for i, block := range blocks {
		texts[i] = block.Text
	}

	system := "You extract structured questions from text."
	user := fmt.Sprintf(
		"Below is a medical form text. Extract all user-fillable questions.\n\n"+
			"For each question, return:\n"+
			"- Question (rephrased if needed)\n"+
			"- Type: one of [text, yes_no, multiple_choice, checkbox, number, date]\n"+
			"- Options (if applicable)\n\n"+
			"Format:\n"+
			"Q1. [question]\n"+
			"Type: [type]\n"+
			"Options: [comma-separated options]\n\n"+
			"Only list the questions. No explanation.\n\n"+
			"Text:\n\"\"\"\n%s\n\"\"\"",
		strings.Join(texts, "\n\n"),
	)

	reply, err := qe.completer.Complete(ctx, system, user)
	if err != nil {
		return nil, fmt.Errorf("question extraction failed: %w", err)
	}

	questions := parseRawQuestions(reply)
	if len(questions) == 0 {
		return nil, fmt.Errorf("no questions in model reply")
	}
	return questions, nil
}

var (
	questionSplitRe = regexp.MustCompile(`(?m)^Q\d+\.\s*`)
	typeRe          = regexp.MustCompile(`Type:\s*(\w+)`)
	optionsRe       = regexp.MustCompile(`Options:\s*(.*)`)
)

// parseRawQuestions parses the Q{n}./Type:/Options: reply format into
// question records keyed Q1, Q2, ... in reply order.
func parseRawQuestions(reply string) []layout.Question {
	var questions []layout.Question

	for _, block := range questionSplitRe.Split(reply, -1) {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}

		text := block
		if idx := strings.IndexByte(block, '\n'); idx >= 0 {
			text = strings.TrimSpace(block[:idx])
		}
		if text == "" {
			continue
		}

		qType := layout.QuestionTypeText
		if m := typeRe.FindStringSubmatch(block); m != nil {
			qType = normalizeQuestionType(m[1])
		}

		var options []string
		if m := optionsRe.FindStringSubmatch(block); m != nil {
			for _, opt := range strings.Split(m[1], ",") {
				if trimmed := strings.TrimSpace(opt); trimmed != "" {
					options = append(options, trimmed)
				}
			}
		}

		questions = append(questions, layout.Question{
			Key:     fmt.Sprintf("Q%d", len(questions)+1),
			Text:    text,
			Type:    qType,
			Options: options,
		})
	}
	return questions
}

// normalizeQuestionType maps the extraction vocabulary onto the layout
// taxonomy.
func normalizeQuestionType(raw string) layout.QuestionType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "checkbox", "yes_no":
		return layout.QuestionTypeCheckbox
	case "multiple_choice":
		return layout.QuestionTypeMultipleChoice
	case "date":
		return layout.QuestionTypeDate
	case "signature":
		return layout.QuestionTypeSignature
	case "text", "number":
		return layout.QuestionTypeText
	default:
		return layout.QuestionTypeText
	}
}
