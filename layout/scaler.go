package layout

import "math"

// scaleLineToFit scales one line's item widths so the line matches the
// available width, respecting per-item bounds. Items whose bound beats the
// factor are pinned and excluded from the remaining budget; the factor is
// recomputed until stable.
//
// Shrinking (expand false) pins against the minimum widths; a factor of 0 is
// returned when even the combined minimum widths overflow the line, in which
// case every item sits at its minimum and the line overflows. Expanding
// (expand true) pins against the maximum widths and never shrinks; the factor
// stays at 1 when the line cannot grow.
//
// mins entries of -1 mean unconstrained (0); maxs entries of -1 mean
// unconstrained (+Inf). The returned widths include no spacing.
func scaleLineToFit(widths, mins, maxs []float64, minItemSpacing, availableWidth float64, expand bool) ([]float64, float64) {
	count := len(widths)
	scaled := make([]float64, count)
	if count == 0 {
		return scaled, 1
	}

	spacings := minItemSpacing * float64(count-1)

	minAt := func(i int) float64 {
		if i < len(mins) && mins[i] > 0 {
			return mins[i]
		}
		return 0
	}
	maxAt := func(i int) float64 {
		if i < len(maxs) && maxs[i] > 0 {
			return maxs[i]
		}
		return math.Inf(1)
	}

	pinned := make([]bool, count)
	factor := 1.0

	for {
		pinnedTotal := 0.0
		unpinnedTotal := 0.0
		for i := 0; i < count; i++ {
			if pinned[i] {
				if expand {
					pinnedTotal += maxAt(i)
				} else {
					pinnedTotal += minAt(i)
				}
			} else {
				unpinnedTotal += widths[i]
			}
		}

		if unpinnedTotal <= 0 {
			factor = 0
			break
		}

		// The factor compares the full line width, spacings included, to the
		// available width; it is then applied to the item widths alone.
		factor = (availableWidth - pinnedTotal) / (unpinnedTotal + spacings)

		changed := false
		for i := 0; i < count; i++ {
			if pinned[i] {
				continue
			}
			if !expand && factor*widths[i] < minAt(i) {
				pinned[i] = true
				changed = true
			}
			if expand && factor*widths[i] > maxAt(i) {
				pinned[i] = true
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	if !expand && factor < 0 {
		// Even the minimum widths overflow: partial failure, the line stays
		// at its minimums.
		factor = 0
	}
	if expand && factor < 1 {
		factor = 1
	}

	for i := 0; i < count; i++ {
		switch {
		case pinned[i] && expand:
			scaled[i] = maxAt(i)
		case pinned[i] || factor == 0:
			scaled[i] = minAt(i)
		default:
			scaled[i] = factor * widths[i]
		}
	}
	return scaled, factor
}

// lineScalePlan decides how one line is scaled given its desired width and
// the stretch setting: lines over the available width always shrink; lines
// under it expand only when stretching is enabled.
func lineScalePlan(lineWidth, availableWidth float64, stretch ItemsStretch) (shrink, expand bool) {
	if lineWidth > availableWidth {
		return true, false
	}
	if lineWidth < availableWidth && stretch == StretchFill {
		return false, true
	}
	return false, false
}
