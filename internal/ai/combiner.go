package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/autoscribe/mcp-form-filler/internal/layout"
)

// BlockCombiner groups OCR text segments into question blocks. The
// grouping decision is delegated to the model; the merge is local.
type BlockCombiner struct {
	completer Completer
}

// NewBlockCombiner creates a block combiner.
func NewBlockCombiner(completer Completer) *BlockCombiner {
	return &BlockCombiner{completer: completer}
}

// Combine asks the model to group the segments by uid and merges each
// group into one block.
func (bc *BlockCombiner) Combine(ctx context.Context, segments []layout.Block) ([]layout.Block, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("no segments to combine")
	}

	var sb strings.Builder
	for _, seg := range segments {
		fmt.Fprintf(&sb, "%s (uid: %s)\n", seg.Text, seg.UID)
	}

	system := "You group form segments into logical blocks using their uids."
	user := fmt.Sprintf(
		"Here is the raw content I extracted from an image-based PDF, which is a form, "+
			"and includes some questions that need to be filled in by users.\n\n"+
			"Content of the pdf:\n%s\n"+
			"Please group the data into question blocks. Since it's a form, you should "+
			"combine the question and the options (e.g., checkboxes) into a single group. "+
			"Treat each label field (like name, date, policy number) as a separate block "+
			"unless it's clearly part of a question + options structure. "+
			"Just output the uid groups as raw text, one group per line like this:\n"+
			"seg1, seg2\nseg3\nseg4, seg5, seg6",
		sb.String(),
	)

	reply, err := bc.completer.Complete(ctx, system, user)
	if err != nil {
		return nil, fmt.Errorf("segment grouping failed: %w", err)
	}

	groups := parseUIDGroups(reply)
	if len(groups) == 0 {
		return nil, fmt.Errorf("no uid groups in model reply")
	}

	return MergeSegments(segments, groups), nil
}

// parseUIDGroups reads one uid group per line, comma-separated.
func parseUIDGroups(reply string) [][]string {
	var groups [][]string
	for _, line := range strings.Split(strings.TrimSpace(reply), "\n") {
		var uids []string
		for _, uid := range strings.Split(line, ",") {
			if trimmed := strings.TrimSpace(uid); trimmed != "" {
				uids = append(uids, trimmed)
			}
		}
		if len(uids) > 0 {
			groups = append(groups, uids)
		}
	}
	return groups
}

// MergeSegments merges each uid group into a single block: the union
// box over the group's dominant (highest) page, the joined text, and a
// group{n} uid. Groups whose segments carry no boxes on that page are
// dropped.
func MergeSegments(segments []layout.Block, groups [][]string) []layout.Block {
	byUID := make(map[string]layout.Block, len(segments))
	for _, seg := range segments {
		byUID[seg.UID] = seg
	}

	var merged []layout.Block
	for i, group := range groups {
		var (
			texts   []string
			uids    []string
			members []layout.Block
			maxPage = 1
		)
		for _, uid := range group {
			seg, ok := byUID[uid]
			if !ok {
				continue
			}
			members = append(members, seg)
			texts = append(texts, seg.Text)
			uids = append(uids, seg.UID)
			if seg.PageNumber > maxPage {
				maxPage = seg.PageNumber
			}
		}

		var boxes []layout.Rect
		for _, seg := range members {
			if seg.PageNumber == maxPage && seg.QuestionBox != nil {
				boxes = append(boxes, *seg.QuestionBox)
			}
		}
		if len(boxes) == 0 {
			continue
		}

		box := unionBoxes(boxes)
		merged = append(merged, layout.Block{
			UID:         fmt.Sprintf("group%d", i+1),
			PageNumber:  maxPage,
			Text:        strings.Join(texts, " "),
			QuestionBox: &box,
			Segments:    uids,
		})
	}
	return merged
}

func unionBoxes(boxes []layout.Rect) layout.Rect {
	u := boxes[0]
	for _, b := range boxes[1:] {
		if b.X1 < u.X1 {
			u.X1 = b.X1
		}
		if b.Y1 < u.Y1 {
			u.Y1 = b.Y1
		}
		if b.X2 > u.X2 {
			u.X2 = b.X2
		}
		if b.Y2 > u.Y2 {
			u.Y2 = b.Y2
		}
	}
	return u
}
