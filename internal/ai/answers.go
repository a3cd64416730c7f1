package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/autoscribe/mcp-form-filler/internal/layout"
)

// AnswerGenerator answers form questions from summarized EMR material.
// Questions go out in batches; replies come back in a Key/Answer text
// protocol with a null sentinel for unanswerable questions.
type AnswerGenerator struct {
	completer Completer
}

// NewAnswerGenerator creates an answer generator.
func NewAnswerGenerator(completer Completer) *AnswerGenerator {
	return &AnswerGenerator{completer: completer}
}

// Generate answers every question against the summary. The returned
// slice holds one entry per input question with a key, in input order;
// questions the model skipped carry a nil answer. Choice answers are
// sanitized against the question's options.
func (ag *AnswerGenerator) Generate(ctx context.Context, summary string, questions []layout.Question) ([]layout.Question, error) {
	var keyed []layout.Question
	for _, q := range questions {
		if q.Key != "" {
			keyed = append(keyed, q)
		}
	}

	answers := make(map[string]*string)
	for start := 0; start < len(keyed); start += questionBatchSize {
		end := start + questionBatchSize
		if end > len(keyed) {
			end = len(keyed)
		}
		batch := keyed[start:end]

		reply, err := ag.promptBatch(ctx, summary, batch)
		if err != nil {
			return nil, err
		}
		for key, answer := range parseAnswerBlocks(reply) {
			answers[key] = answer
		}
	}

	answered := make([]layout.Question, len(keyed))
	for i, q := range keyed {
		q.Answer = sanitizeAnswer(answers[q.Key], q)
		answered[i] = q
	}
	return answered, nil
}

func (ag *AnswerGenerator) promptBatch(ctx context.Context, summary string, batch []layout.Question) (string, error) {
	var lines []string
	for _, q := range batch {
		options := "N/A"
		if len(q.Options) > 0 {
			options = strings.Join(q.Options, ", ")
		}
		lines = append(lines, fmt.Sprintf(
			"Key: %s\nQuestion: %s\nType: %s\nOptions: %s",
			q.Key, q.Text, q.Type, options,
		))
	}

	system := "You are an AI assistant answering medical-related questions based on the " +
		"provided medical document. For checkbox questions, ensure answers match the " +
		"available options. Do not use external knowledge beyond what's in the summary. " +
		"Your response format must be EXACTLY as specified."
	user := fmt.Sprintf(
		"Using the following medical document, answer these questions concisely:\n\n"+
			"Medical Document:\n%s\n\n"+
			"Questions:\n%s\n\n"+
			"Provide answers in this EXACT format for each question:\n"+
			"Key: <question_key>\n"+
			"Answer: <answer>\n"+
			"---\n"+
			"\nExample:\n"+
			"Key: Q1\n"+
			"Answer: 120/80\n"+
			"---\n"+
			"Key: Q2\n"+
			"Answer: Yes\n"+
			"---\n"+
			"\nIf a question cannot be answered, use:\n"+
			"Key: <question_key>\n"+
			"Answer: null\n"+
			"---\n",
		summary, strings.Join(lines, "\n\n"),
	)

	reply, err := ag.completer.Complete(ctx, system, user)
	if err != nil {
		return "", fmt.Errorf("answer generation failed: %w", err)
	}
	return reply, nil
}

// parseAnswerBlocks splits the reply on --- separators and reads one
// Key/Answer pair per block. The null sentinel maps to a nil answer.
func parseAnswerBlocks(reply string) map[string]*string {
	answers := make(map[string]*string)

	for _, block := range strings.Split(strings.TrimSpace(reply), "---") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}

		var key, value string
		for _, line := range strings.Split(block, "\n") {
			line = strings.TrimSpace(line)
			lower := strings.ToLower(line)
			switch {
			case strings.HasPrefix(lower, "key:"):
				key = strings.TrimSpace(line[4:])
			case strings.HasPrefix(lower, "answer:"):
				value = strings.TrimSpace(line[7:])
			}
		}
		if key == "" {
			continue
		}
		if value == "" || strings.EqualFold(value, "null") {
			answers[key] = nil
		} else {
			v := value
			answers[key] = &v
		}
	}
	return answers
}

// sanitizeAnswer normalizes a raw model answer for its question. Choice
// answers are snapped onto the declared options, exact match first and
// substring match as fallback, so the filler writes a value the form
// accepts.
func sanitizeAnswer(raw *string, q layout.Question) *string {
	if raw == nil {
		return nil
	}

	answer := strings.TrimSpace(*raw)
	answer = strings.Trim(answer, `"'`)
	if answer == "" {
		return nil
	}

	isChoice := q.Type == layout.QuestionTypeCheckbox || q.Type == layout.QuestionTypeMultipleChoice
	if isChoice && len(q.Options) > 0 {
		for _, option := range q.Options {
			if strings.EqualFold(answer, option) {
				o := option
				return &o
			}
		}
		lowerAnswer := strings.ToLower(answer)
		for _, option := range q.Options {
			lowerOption := strings.ToLower(option)
			if strings.Contains(lowerOption, lowerAnswer) || strings.Contains(lowerAnswer, lowerOption) {
				o := option
				return &o
			}
		}
	}

	return &answer
}
