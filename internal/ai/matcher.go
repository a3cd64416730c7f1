package ai

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/autoscribe/mcp-form-filler/internal/layout"
)

// QuestionMatcher attaches extracted questions to the form blocks they
// belong to, one numbered-choice prompt per question.
type QuestionMatcher struct {
	completer Completer
}

// NewQuestionMatcher creates a question matcher.
func NewQuestionMatcher(completer Completer) *QuestionMatcher {
	return &QuestionMatcher{completer: completer}
}

// Match returns a copy of blocks with each question appended to the
// Questions of its best-matching block. Questions the model cannot
// place are dropped; a prompt failure aborts the match.
func (qm *QuestionMatcher) Match(ctx context.Context, questions []layout.Question, blocks []layout.Block) ([]layout.Block, error) {
	matched := make([]layout.Block, len(blocks))
	for i, block := range blocks {
		// Questions get their own backing array so appends never reach
		// the caller's slices.
		block.Questions = append([]layout.Question(nil), block.Questions...)
		matched[i] = block
	}

	for _, q := range questions {
		idx, err := qm.matchOne(ctx, q.Text, matched)
		if err != nil {
			return nil, err
		}
		if idx < 0 {
			continue
		}
		matched[idx].Questions = append(matched[idx].Questions, q)
	}
	return matched, nil
}

func (qm *QuestionMatcher) matchOne(ctx context.Context, question string, blocks []layout.Block) (int, error) {
	var choices strings.Builder
	for i, block := range blocks {
		fmt.Fprintf(&choices, "%d. %s\n", i+1, block.Text)
	}

	system := "You're a form mapping assistant."
	user := fmt.Sprintf(
		"You're helping match a question to the most relevant form block from a medical form.\n"+
			"Question: %q\n"+
			"Ignore blocks that are just headers, footers, fax information, or metadata. "+
			"Only choose blocks that contain user-facing content that could relate to this question.\n\n"+
			"Here are the blocks:\n\n%s\n"+
			"Which block best matches the question? Respond with the block number only.",
		question, choices.String(),
	)

	reply, err := qm.completer.Complete(ctx, system, user)
	if err != nil {
		return -1, fmt.Errorf("question matching failed: %w", err)
	}

	return parseBlockChoice(reply, len(blocks)), nil
}

var firstNumberRe = regexp.MustCompile(`\d+`)

// parseBlockChoice reads the first integer of the reply as a 1-based
// block number, returning a 0-based index or -1 when out of range.
func parseBlockChoice(reply string, blockCount int) int {
	m := firstNumberRe.FindString(reply)
	if m == "" {
		return -1
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return -1
	}
	idx := n - 1
	if idx < 0 || idx >= blockCount {
		return -1
	}
	return idx
}
