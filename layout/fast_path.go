package layout

import (
	"math"

	"github.com/Krispeckt/linedflow/internal/core/geom"
)

// measureConstrainedLinesFastPath lays out the entire collection in a single
// pass from host-supplied sizing data. Returns false when the host's answer
// does not cover the whole collection, in which case the regular path takes
// over reusing whatever was collected.
//
// Once a fast-path layout exists, scrolling with an unchanged available width
// issues no partitioning at all: the realization window is re-derived from
// scroll geometry and elements are realized or recycled to match.
func (l *LinedFlowLayout) measureConstrainedLinesFastPath(availableWidth float64) (Size, bool) {
	if l.fastPathLayout && !l.forceRelayout &&
		availableWidth == l.previousAvailableWidth &&
		len(l.fastArrangeWidths) == l.itemCount {
		l.ensureItemRangeFastPath()
		return l.desiredSizeForLines(availableWidth, len(l.lineItemCounts)), true
	}

	info, args := l.raiseItemsInfoRequested(0, l.itemCount)
	if args == nil || !info.coversAllItems(l.itemCount) {
		// Partial or missing data: stitch what arrived into the regular-path
		// window so the fall-through pass can reuse it.
		if info.rangeStartIndex >= 0 {
			l.stitchPartialFastAnswer(info, args)
		}
		return Size{}, false
	}

	l.fastDesiredAspectRatios = args.desiredAspectRatios
	l.fastMinWidths = args.minWidths
	l.fastMaxWidths = args.maxWidths
	if info.minWidth >= 0 {
		l.itemsInfoMinWidth = info.minWidth
	}
	if info.maxWidth >= 0 {
		l.itemsInfoMaxWidth = info.maxWidth
	}

	averageRatio := l.fastPathAverageRatio()
	l.lastAverageAspectRatio = averageRatio

	widths := make([]float64, l.itemCount)
	for itemIndex := range widths {
		widths[itemIndex] = l.arrangeWidthFromItemsInfo(itemIndex, averageRatio, 1, true)
	}

	counts := partitionFastPath(widths, l.minItemSpacing, availableWidth)
	l.lineItemCounts = counts
	l.fastPathLayout = true
	l.firstSizedLineIndex = 0
	l.lastSizedLineIndex = len(counts) - 1
	l.firstSizedItemIndex = 0
	l.lastSizedItemIndex = l.itemCount - 1

	l.scaleFastPathLines(widths, counts, availableWidth)

	if len(counts) > 0 {
		raw := float64(l.itemCount) / float64(len(counts))
		l.setAverageItemsPerLine(snapAverageItemsPerLine(l.averageItems, raw), true)
	}

	l.ensureItemRangeFastPath()

	// Sizing info is in use: the lazy-load poller is unnecessary.
	l.stopRemeasureTimer()
	l.resetItemsInfoForFastPath()

	return l.desiredSizeForLines(availableWidth, len(counts)), true
}

// fastPathAverageRatio averages the positive host-supplied ratios, falling
// back to the tracked store average.
func (l *LinedFlowLayout) fastPathAverageRatio() float64 {
	total := 0.0
	count := 0
	for _, ratio := range l.fastDesiredAspectRatios {
		if ratio > 0 {
			total += ratio
			count++
		}
	}
	if count > 0 {
		return total / float64(count)
	}
	return l.averageAspectRatio(l.firstSizedItemIndex, l.lastSizedItemIndex)
}

// partitionFastPath assigns items to lines in one forward pass. When
// appending the next item would overflow the line, the closer-to-1 of the
// line's shrink factor (append anyway) and expand factor (wrap now) decides.
// An item wider than the available width goes through the same comparison, so
// it may join a short line; the line then shrinks to fit.
func partitionFastPath(widths []float64, minItemSpacing, availableWidth float64) []int {
	var counts []int
	lineCount := 0
	lineWidth := 0.0

	for _, width := range widths {
		if lineCount == 0 {
			lineCount = 1
			lineWidth = width
			continue
		}

		appended := lineWidth + minItemSpacing + width
		if appended <= availableWidth {
			lineCount++
			lineWidth = appended
			continue
		}

		shrinkFactor := availableWidth / appended
		expandFactor := availableWidth / lineWidth
		if lineWidth <= 0 {
			expandFactor = math.Inf(1)
		}

		if math.Abs(1-shrinkFactor) <= math.Abs(expandFactor-1) {
			// Shrinking the line with the item beats stretching it without.
			lineCount++
			lineWidth = appended
			continue
		}

		counts = append(counts, lineCount)
		lineCount = 1
		lineWidth = width
	}

	if lineCount > 0 {
		counts = append(counts, lineCount)
	}
	return counts
}

// scaleFastPathLines persists the scaled arrange width of every item. Lines
// over the available width always shrink; under-full lines expand only when
// stretching is enabled, the trailing line included.
func (l *LinedFlowLayout) scaleFastPathLines(widths []float64, counts []int, availableWidth float64) {
	l.fastArrangeWidths = make([]float64, len(widths))
	l.maxLineWidth = 0
	itemIndex := 0

	for _, count := range counts {
		lineWidths := widths[itemIndex : itemIndex+count]
		mins := make([]float64, count)
		maxs := make([]float64, count)
		lineWidth := 0.0
		for at := 0; at < count; at++ {
			mins[at] = l.minWidthFromItemsInfo(itemIndex+at, true)
			maxs[at] = l.maxWidthFromItemsInfo(itemIndex+at, true)
			lineWidth += lineWidths[at]
		}
		if count > 1 {
			lineWidth += float64(count-1) * l.minItemSpacing
		}

		scaled := lineWidths
		if shrink, expand := lineScalePlan(lineWidth, availableWidth, l.stretch); shrink || expand {
			scaled, _ = scaleLineToFit(lineWidths, mins, maxs, l.minItemSpacing, availableWidth, expand)
		}

		scaledLineWidth := 0.0
		for at := 0; at < count; at++ {
			l.fastArrangeWidths[itemIndex+at] = scaled[at]
			scaledLineWidth += scaled[at]
		}
		if count > 1 {
			scaledLineWidth += float64(count-1) * l.minItemSpacing
		}
		l.maxLineWidth = geom.MaxF64(l.maxLineWidth, scaledLineWidth)

		itemIndex += count
	}
}

// ensureItemRangeFastPath re-derives the realization window purely from line
// indexes and scroll geometry, then realizes and measures the missing
// elements and recycles the ones that scrolled out.
func (l *LinedFlowLayout) ensureItemRangeFastPath() {
	lineCount := len(l.lineItemCounts)
	if lineCount == 0 {
		l.elements.clear()
		return
	}

	visible := l.ctx.VisibleRect()
	realization := l.ctx.RealizationRect()

	plan := planZones(zoneInput{
		scrollViewport:   visible.Height,
		scrollOffset:     visible.Y,
		lineSpacing:      l.lineSpacing,
		actualLineHeight: l.actualLineHeight,
		lineCount:        lineCount,
		realizationRect:  realization,
	})
	if plan.firstRealizedLine < 0 {
		l.elements.clear()
		return
	}

	l.firstFrozenLineIndex = plan.firstFrozenLine
	l.lastFrozenLineIndex = plan.lastFrozenLine
	l.firstFrozenItemIndex = l.firstItemIndexInLine(plan.firstFrozenLine)
	l.lastFrozenItemIndex = l.lastItemIndexInLine(plan.lastFrozenLine)

	firstItemIndex := l.firstItemIndexInLine(plan.firstRealizedLine)
	lastItemIndex := l.lastItemIndexInLine(plan.lastRealizedLine)
	if firstItemIndex < 0 || lastItemIndex < 0 {
		return
	}

	l.elements.discardOutside(true, firstItemIndex)
	l.elements.discardOutside(false, lastItemIndex+1)

	if existing := l.elements.firstIndex(); existing > firstItemIndex && existing >= 0 {
		for itemIndex := existing - 1; itemIndex >= firstItemIndex; itemIndex-- {
			l.measureFastPathItem(l.elements.ensureRealized(false, itemIndex), itemIndex)
		}
	}
	for itemIndex := firstItemIndex; itemIndex <= lastItemIndex; itemIndex++ {
		if l.elements.get(itemIndex) == nil {
			l.measureFastPathItem(l.elements.ensureRealized(true, itemIndex), itemIndex)
		}
	}
}

// measureFastPathItem measures a newly realized element at its persisted
// arrange width.
func (l *LinedFlowLayout) measureFastPathItem(element Element, itemIndex int) {
	if element == nil || itemIndex >= len(l.fastArrangeWidths) {
		return
	}
	element.Measure(NewSize(l.fastArrangeWidths[itemIndex], l.actualLineHeight))
}

// stitchPartialFastAnswer folds a partial fast-path answer into the
// regular-path window so the collected data is not wasted.
func (l *LinedFlowLayout) stitchPartialFastAnswer(info itemsInfo, args *ItemsInfoRequestedArgs) {
	if info.rangeLength <= 0 {
		return
	}

	l.itemsInfoFirstIndex = info.rangeStartIndex
	l.itemsInfoDesiredAspectRatios = append([]float64(nil), args.desiredAspectRatios[:info.rangeLength]...)
	l.itemsInfoMinWidths = newFilledSlice(info.rangeLength, -1)
	l.itemsInfoMaxWidths = newFilledSlice(info.rangeLength, -1)
	copy(l.itemsInfoMinWidths, args.minWidths)
	copy(l.itemsInfoMaxWidths, args.maxWidths)
	if info.minWidth >= 0 {
		l.itemsInfoMinWidth = info.minWidth
	}
	if info.maxWidth >= 0 {
		l.itemsInfoMaxWidth = info.maxWidth
	}
}
