package layout

import "math"

// itemsLayout is an ordered partition of a contiguous item range into lines:
// per-line item counts and total widths, plus the scalar drawback and the
// four special items driving the regular-path search.
//
// Line widths include the inter-item spacings of the line.
type itemsLayout struct {
	lineItemCounts []int
	lineItemWidths []float64

	availableLineItemsWidth float64
	drawback                float64

	smallestHeadItemWidth float64
	smallestTailItemWidth float64

	bestEqualizingHeadItemDrawbackImprovement float64
	bestEqualizingTailItemDrawbackImprovement float64

	smallestHeadItemIndex int
	smallestTailItemIndex int
	smallestHeadLineIndex int
	smallestTailLineIndex int

	bestEqualizingHeadItemIndex int
	bestEqualizingTailItemIndex int
	bestEqualizingHeadLineIndex int
	bestEqualizingTailLineIndex int
}

// lineCount returns the number of lines the partition actually used.
func (il *itemsLayout) lineCount() int {
	return len(il.lineItemCounts)
}

// itemCount returns the total number of items across all lines.
func (il *itemsLayout) itemCount() int {
	total := 0
	for _, count := range il.lineItemCounts {
		total += count
	}
	return total
}

// lockLookup resolves item locks during partitioning. Implementations combine
// external locks, the internal per-session locks and the implicit first/last
// item locks.
type lockLookup interface {
	// lockedLine returns the line an item is locked to.
	lockedLine(itemIndex int) (lineIndex int, ok bool)

	// nextLockedItem returns the nearest locked item at or after fromItemIndex
	// in traversal order (at or before it when forward is false) whose locked
	// line lies within [firstLineIndex, lastLineIndex].
	nextLockedItem(forward bool, firstLineIndex, lastLineIndex, fromItemIndex int) (itemIndex, lineIndex int, ok bool)
}

// noLocks is the lockLookup used when no item locks exist.
type noLocks struct{}

func (noLocks) lockedLine(int) (int, bool) { return 0, false }
func (noLocks) nextLockedItem(bool, int, int, int) (int, int, bool) {
	return 0, 0, false
}

// partitionInput describes one trial partitioning of a contiguous item range
// onto an allotted line range.
type partitionInput struct {
	// itemWidth returns the desired arrange width of an item.
	itemWidth func(itemIndex int) float64

	firstItemIndex int
	lastItemIndex  int
	firstLineIndex int
	lastLineIndex  int

	// availableWidth is the trial "available-line-items width" the lines are
	// balanced against.
	availableWidth float64

	// averageLineItemsWidth enables the equalizing heuristic when positive:
	// lines running ahead of the average prefer to wrap, lines running behind
	// prefer to keep cumulating.
	averageLineItemsWidth float64

	minItemSpacing float64
	wrapMultiplier float64

	forward bool

	// lastLineExempt excludes the trailing line from the drawback when it is
	// under-full, which is the case when it is the collection's actual last
	// line and stretching is off.
	lastLineExempt bool

	locks lockLookup
}

// computeItemsLayout assigns the input's items to lines against the trial
// width and computes the layout's drawback and special items.
//
// Guarantees: every produced line holds at least one item, the per-line
// counts sum to the input range size, and locked items land on their locked
// lines whenever the lock is satisfiable within the allotted range.
func computeItemsLayout(in partitionInput) *itemsLayout {
	layout := &itemsLayout{
		availableLineItemsWidth: in.availableWidth,
		smallestHeadItemIndex:   -1,
		smallestTailItemIndex:   -1,
		smallestHeadLineIndex:   -1,
		smallestTailLineIndex:   -1,

		bestEqualizingHeadItemIndex: -1,
		bestEqualizingTailItemIndex: -1,
		bestEqualizingHeadLineIndex: -1,
		bestEqualizingTailLineIndex: -1,
	}

	itemTotal := in.lastItemIndex - in.firstItemIndex + 1
	lineTotal := in.lastLineIndex - in.firstLineIndex + 1
	if itemTotal <= 0 || lineTotal <= 0 {
		return layout
	}
	if in.locks == nil {
		in.locks = noLocks{}
	}

	// Traversal-order helpers. Positions run 0..itemTotal-1 and 0..lineTotal-1
	// regardless of direction; the mapping localizes the forward/backward
	// asymmetry.
	itemAt := func(pos int) int {
		if in.forward {
			return in.firstItemIndex + pos
		}
		return in.lastItemIndex - pos
	}
	linePosOf := func(lineIndex int) int {
		if in.forward {
			return lineIndex - in.firstLineIndex
		}
		return in.lastLineIndex - lineIndex
	}
	itemPosOf := func(itemIndex int) int {
		if in.forward {
			return itemIndex - in.firstItemIndex
		}
		return in.lastItemIndex - itemIndex
	}

	counts := make([]int, 0, lineTotal)
	widths := make([]float64, 0, lineTotal)

	curLinePos := 0
	curCount := 0
	curWidth := 0.0
	totalWidth := 0.0

	pushLine := func() {
		counts = append(counts, curCount)
		widths = append(widths, curWidth)
		curCount = 0
		curWidth = 0
	}

	for pos := 0; pos < itemTotal; pos++ {
		itemIndex := itemAt(pos)
		width := math.Max(0, in.itemWidth(itemIndex))

		remainingItems := itemTotal - pos
		linesAfter := lineTotal - 1 - curLinePos

		lockedLine, isLocked := in.locks.lockedLine(itemIndex)
		lockedPos := -1
		if isLocked {
			lockedPos = linePosOf(lockedLine)
			if lockedPos < 0 || lockedPos >= lineTotal {
				// A lock outside the allotted window cannot be honored here.
				isLocked = false
				lockedPos = -1
			}
		}

		nextLockedIndex, nextLockedLine, hasNextLocked :=
			in.locks.nextLockedItem(in.forward, in.firstLineIndex, in.lastLineIndex, itemIndex)
		nextLockedLinePos, nextLockedItemPos := -1, -1
		if hasNextLocked {
			nextLockedLinePos = linePosOf(nextLockedLine)
			nextLockedItemPos = itemPosOf(nextLockedIndex)
			if nextLockedLinePos < 0 || nextLockedLinePos >= lineTotal {
				hasNextLocked = false
			}
		}

		cumulate := false
		switch {
		case curCount == 0:
			// An empty line always takes the item.
			cumulate = true

		case isLocked && lockedPos > curLinePos:
			// Locked ahead of the current line.
			cumulate = false

		case isLocked && lockedPos == curLinePos:
			cumulate = true

		case hasNextLocked && nextLockedLinePos == curLinePos:
			// A locked item ahead on this very line keeps the item here.
			cumulate = true

		case remainingItems <= linesAfter:
			// The remaining items exactly cover the remaining lines.
			cumulate = false

		case hasNextLocked && nextLockedLinePos > curLinePos &&
			nextLockedItemPos-pos < nextLockedLinePos-curLinePos:
			// A farther locked item leaves insufficient slack: wrapping now
			// keeps enough items for the lines before its locked line.
			cumulate = false

		case curLinePos == lineTotal-1:
			// The last allotted line takes everything that remains.
			cumulate = true

		default:
			canCumulate := curWidth+in.minItemSpacing+width <= in.availableWidth

			if in.averageLineItemsWidth > 0 && in.wrapMultiplier > 0 {
				expected := in.averageLineItemsWidth * float64(curLinePos+1)
				actual := totalWidth + in.minItemSpacing + width
				margin := in.wrapMultiplier * width

				switch {
				case actual-expected > margin:
					cumulate = false
				case expected-actual > margin:
					cumulate = true
				default:
					cumulate = canCumulate
				}
			} else {
				cumulate = canCumulate
			}
		}

		if !cumulate {
			pushLine()
			curLinePos++
		}

		if curCount > 0 {
			curWidth += in.minItemSpacing
			totalWidth += in.minItemSpacing
		}
		curCount++
		curWidth += width
		totalWidth += width
	}
	pushLine()

	if !in.forward {
		reverseInts(counts)
		reverseFloats(widths)
	}

	layout.lineItemCounts = counts
	layout.lineItemWidths = widths

	computeItemsLayoutDrawback(layout, in)
	computeItemsLayoutSpecials(layout, in)
	return layout
}

// lineDrawback is the cost of one line's deviation from the available width:
// over-width is cubic, under-width quadratic.
func lineDrawback(lineWidth, availableWidth float64) float64 {
	delta := lineWidth - availableWidth
	if delta > 0 {
		return delta * delta * delta
	}
	return delta * delta
}

// computeItemsLayoutDrawback sums the per-line drawbacks, exempting an
// under-full trailing line when the input allows it.
func computeItemsLayoutDrawback(layout *itemsLayout, in partitionInput) {
	drawback := 0.0
	last := len(layout.lineItemWidths) - 1

	for i, lineWidth := range layout.lineItemWidths {
		if i == last && in.lastLineExempt && lineWidth <= in.availableWidth {
			continue
		}
		drawback += lineDrawback(lineWidth, in.availableWidth)
	}
	layout.drawback = drawback
}

// computeItemsLayoutSpecials walks the finished lines to find the smallest
// head/tail items and the head/tail transfers that most reduce the drawback.
// Locked items are not candidates: they cannot change lines.
func computeItemsLayoutSpecials(layout *itemsLayout, in partitionInput) {
	lineCount := len(layout.lineItemCounts)
	if lineCount < 2 {
		return
	}

	layout.smallestHeadItemWidth = math.Inf(1)
	layout.smallestTailItemWidth = math.Inf(1)
	layout.bestEqualizingHeadItemDrawbackImprovement = math.Inf(-1)
	layout.bestEqualizingTailItemDrawbackImprovement = math.Inf(-1)

	last := lineCount - 1
	lineF := func(lineIndex int, lineWidth float64) float64 {
		if lineIndex == last && in.lastLineExempt && lineWidth <= in.availableWidth {
			return 0
		}
		return lineDrawback(lineWidth, in.availableWidth)
	}

	itemIndex := in.firstItemIndex
	for li := 0; li < lineCount; li++ {
		count := layout.lineItemCounts[li]
		headIndex := itemIndex
		tailIndex := itemIndex + count - 1
		itemIndex += count

		lineIndex := in.firstLineIndex + li
		lineWidth := layout.lineItemWidths[li]

		// Head candidate: the line's first item moving to the previous line.
		if li > 0 && count > 1 && !isLockedItem(in.locks, headIndex) {
			width := in.itemWidth(headIndex)
			prevWidth := layout.lineItemWidths[li-1]
			moved := width + in.minItemSpacing

			improvement := lineF(li-1, prevWidth) + lineF(li, lineWidth) -
				lineF(li-1, prevWidth+moved) - lineF(li, lineWidth-moved)

			if width < layout.smallestHeadItemWidth {
				layout.smallestHeadItemWidth = width
				layout.smallestHeadItemIndex = headIndex
				layout.smallestHeadLineIndex = lineIndex
			}
			if improvement > layout.bestEqualizingHeadItemDrawbackImprovement {
				layout.bestEqualizingHeadItemDrawbackImprovement = improvement
				layout.bestEqualizingHeadItemIndex = headIndex
				layout.bestEqualizingHeadLineIndex = lineIndex
			}
		}

		// Tail candidate: the line's last item moving to the next line.
		if li < last && count > 1 && !isLockedItem(in.locks, tailIndex) {
			width := in.itemWidth(tailIndex)
			nextWidth := layout.lineItemWidths[li+1]
			moved := width + in.minItemSpacing

			improvement := lineF(li, lineWidth) + lineF(li+1, nextWidth) -
				lineF(li, lineWidth-moved) - lineF(li+1, nextWidth+moved)

			if width < layout.smallestTailItemWidth {
				layout.smallestTailItemWidth = width
				layout.smallestTailItemIndex = tailIndex
				layout.smallestTailLineIndex = lineIndex
			}
			if improvement > layout.bestEqualizingTailItemDrawbackImprovement {
				layout.bestEqualizingTailItemDrawbackImprovement = improvement
				layout.bestEqualizingTailItemIndex = tailIndex
				layout.bestEqualizingTailLineIndex = lineIndex
			}
		}
	}

	if layout.smallestHeadItemIndex == -1 {
		layout.smallestHeadItemWidth = 0
	}
	if layout.smallestTailItemIndex == -1 {
		layout.smallestTailItemWidth = 0
	}
	if layout.bestEqualizingHeadItemIndex == -1 {
		layout.bestEqualizingHeadItemDrawbackImprovement = 0
	}
	if layout.bestEqualizingTailItemIndex == -1 {
		layout.bestEqualizingTailItemDrawbackImprovement = 0
	}
}

func isLockedItem(locks lockLookup, itemIndex int) bool {
	_, ok := locks.lockedLine(itemIndex)
	return ok
}

func reverseInts(s []int) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func reverseFloats(s []float64) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
