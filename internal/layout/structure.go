package layout

import (
	"math"
	"sort"
)

// learnStructure computes the statistical layout signature of the
// document from all of its elements, grouped and sorted per page. The
// result is computed once per analyzer and never modified afterwards.
func learnStructure(pages map[int][]FormElement, totalElements int, cfg *LayoutConfig) FormStructure {
	var widths, heights, hGaps, vGaps []float64
	xCounts := make(map[float64]int)
	yCounts := make(map[float64]int)

	for _, items := range pages {
		for _, item := range items {
			widths = append(widths, item.Box.Width())
			heights = append(heights, item.Box.Height())

			// Bin positions at a fixed resolution; recurring bins reveal
			// the form's column and row grid.
			xCounts[binned(item.Box.X1, cfg.ColumnBins)]++
			yCounts[binned(item.Box.Y1, cfg.RowBins)]++
		}

		// Gaps are measured between adjacent pairs in reading order only.
		for i := 1; i < len(items); i++ {
			prev, curr := items[i-1].Box, items[i].Box

			if math.Abs(curr.Y1-prev.Y1) < cfg.AlignmentTolerance {
				if gap := curr.X1 - prev.X2; gap > 0 {
					hGaps = append(hGaps, gap)
				}
			}
			if math.Abs(curr.X1-prev.X1) < cfg.AlignmentTolerance {
				if gap := curr.Y1 - prev.Y2; gap > 0 {
					vGaps = append(vGaps, gap)
				}
			}
		}
	}

	s := FormStructure{}

	if len(widths) > 0 {
		s.AvgQuestionWidth = mean(widths)
		s.MinQuestionWidth = minOf(widths)
		s.MaxQuestionWidth = maxOf(widths)
	} else {
		s.AvgQuestionWidth = cfg.DefaultAvgWidth
		s.MinQuestionWidth = cfg.DefaultMinWidth
		s.MaxQuestionWidth = cfg.DefaultMaxWidth
	}

	if len(heights) > 0 {
		s.AvgQuestionHeight = mean(heights)
		s.MinQuestionHeight = minOf(heights)
		s.MaxQuestionHeight = maxOf(heights)
	} else {
		s.AvgQuestionHeight = cfg.DefaultAvgHeight
		s.MinQuestionHeight = cfg.DefaultMinHeight
		s.MaxQuestionHeight = cfg.DefaultMaxHeight
	}

	if len(hGaps) > 0 {
		s.AvgHorizontalGap = median(hGaps)
		s.MinHorizontalGap = math.Max(cfg.HGapFloor, percentile(hGaps, cfg.GapPercentile))
	} else {
		s.AvgHorizontalGap = cfg.DefaultAvgHGap
		s.MinHorizontalGap = cfg.DefaultMinHGap
	}

	if len(vGaps) > 0 {
		s.AvgVerticalGap = median(vGaps)
		s.MinVerticalGap = math.Max(cfg.VGapFloor, percentile(vGaps, cfg.GapPercentile))
	} else {
		s.AvgVerticalGap = cfg.DefaultAvgVGap
		s.MinVerticalGap = cfg.DefaultMinVGap
	}

	// A position is a column/row only when enough elements share it.
	threshold := int(math.Max(float64(cfg.MinBinCount), float64(totalElements)*cfg.BinCountShare))
	s.Columns = frequentPositions(xCounts, threshold)
	s.Rows = frequentPositions(yCounts, threshold)

	return s
}

// binned snaps a normalized coordinate onto a grid of n buckets.
func binned(v float64, n int) float64 {
	return math.Round(v*float64(n)) / float64(n)
}

// frequentPositions returns the sorted positions whose occurrence count
// reaches the threshold.
func frequentPositions(counts map[float64]int, threshold int) []float64 {
	positions := []float64{}
	for pos, count := range counts {
		if count >= threshold {
			positions = append(positions, pos)
		}
	}
	sort.Float64s(positions)
	return positions
}

func mean(vs []float64) float64 {
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

func minOf(vs []float64) float64 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(vs []float64) float64 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// median returns the middle value, averaging the two central values for
// even-length input.
func median(vs []float64) float64 {
	sorted := append([]float64(nil), vs...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// percentile returns the value at fraction p of the sorted input using
// linear interpolation between adjacent ranks.
func percentile(vs []float64, p float64) float64 {
	sorted := append([]float64(nil), vs...)
	sort.Float64s(sorted)
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
