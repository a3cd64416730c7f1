package layout

import (
	"math"
	"sort"
)

// spatialNeighbors holds the elements adjacent to one element, nearest
// first. Either list may be empty; the lists are recomputed per call and
// never cached.
type spatialNeighbors struct {
	Right []FormElement
	Below []FormElement
}

// findNeighbors locates the elements to the right of and below the given
// element among the elements sharing its page. The search radius is
// adaptive: it scales with the document's own learned spacing rather
// than a fixed constant, which lets the same algorithm work across
// visually different forms without per-form tuning.
func findNeighbors(item FormElement, pageItems []FormElement, structure FormStructure, cfg *LayoutConfig) spatialNeighbors {
	hThreshold := math.Max(structure.AvgHorizontalGap*cfg.NeighborGapMultiplier, structure.MaxQuestionWidth)
	vThreshold := math.Max(structure.AvgVerticalGap*cfg.NeighborGapMultiplier, structure.MaxQuestionHeight)

	box := item.Box

	type candidate struct {
		el   FormElement
		dist float64
	}
	var right, below []candidate

	for _, other := range pageItems {
		if other.UID == item.UID {
			continue
		}
		ob := other.Box

		// Right neighbor: horizontally adjacent, vertical centers aligned.
		if ob.X1 > box.X2 &&
			ob.X1-box.X2 < hThreshold &&
			math.Abs(box.CenterY()-ob.CenterY()) < vThreshold {
			right = append(right, candidate{other, ob.X1 - box.X2})
		}

		// Below neighbor: vertically adjacent, horizontal centers aligned.
		if ob.Y1 > box.Y2 &&
			ob.Y1-box.Y2 < vThreshold &&
			math.Abs(box.CenterX()-ob.CenterX()) < hThreshold {
			below = append(below, candidate{other, ob.Y1 - box.Y2})
		}
	}

	sort.SliceStable(right, func(i, j int) bool { return right[i].dist < right[j].dist })
	sort.SliceStable(below, func(i, j int) bool { return below[i].dist < below[j].dist })

	n := spatialNeighbors{}
	for _, c := range right {
		n.Right = append(n.Right, c.el)
	}
	for _, c := range below {
		n.Below = append(n.Below, c.el)
	}
	return n
}
