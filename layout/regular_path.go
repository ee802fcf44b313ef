package layout

import (
	"math"

	"github.com/Krispeckt/linedflow/internal/core/geom"
	"github.com/Krispeckt/linedflow/internal/ratios"
)

// aspectRatioViewportFactor bounds the aspect-ratio store capacity to roughly
// this many viewports of items.
const aspectRatioViewportFactor = 10

// neighborWidthBand bounds how far phase 3 may wander from the phase-2 mean.
const neighborWidthBand = 0.3

// measureConstrainedLinesRegularPath runs the incremental measure used for
// virtualized scrolling: zone planning, items-info stitching, element
// realization, the six-phase width search and the final per-line scaling.
func (l *LinedFlowLayout) measureConstrainedLinesRegularPath(availableWidth float64) Size {
	ctx := l.ctx
	visible := ctx.VisibleRect()
	realization := ctx.RealizationRect()
	pitch := l.linePitch()

	// Phase 0a: items-per-line average and the dense line count.
	average := l.averageItemsPerLineFor(availableWidth)
	l.setAverageItemsPerLine(average, true)
	lineCount := lineCountFor(l.itemCount, average.snapped)
	if lineCount <= 0 {
		return Size{}
	}

	// Phase 0b: anchor-driven realization window placement.
	scrollOffset := visible.Y
	scrollViewport := visible.Height
	scrollOffset, realization = l.applyAnchor(scrollOffset, scrollViewport, realization, pitch, lineCount)

	plan := planZones(zoneInput{
		scrollViewport:   scrollViewport,
		scrollOffset:     scrollOffset,
		lineSpacing:      l.lineSpacing,
		actualLineHeight: l.actualLineHeight,
		lineCount:        lineCount,
		realizationRect:  realization,
	})
	if plan.firstSizedLine < 0 {
		return l.desiredSizeForLines(availableWidth, lineCount)
	}

	firstSizedItem := l.estimatedFirstItemInLine(plan.firstSizedLine, lineCount)
	lastSizedItem := l.estimatedLastItemInLine(plan.lastSizedLine, lineCount)
	firstRealizedItem := l.estimatedFirstItemInLine(plan.firstRealizedLine, lineCount)
	lastRealizedItem := l.estimatedLastItemInLine(plan.lastRealizedLine, lineCount)

	l.firstSizedLineIndex = plan.firstSizedLine
	l.lastSizedLineIndex = plan.lastSizedLine
	l.firstSizedItemIndex = firstSizedItem
	l.lastSizedItemIndex = lastSizedItem

	// The store covers about ten viewports of items around the viewport.
	viewportItems := int(math.Ceil(scrollViewport/pitch+1) * math.Max(1, average.snapped))
	referenceItem := geom.ClampInt(
		l.estimatedFirstItemInLine(geom.MaxInt(0, plan.firstDisplayedLine), lineCount),
		0, l.itemCount-1)
	l.aspectRatios.Resize(geom.MaxInt(ratios.BlockSize, aspectRatioViewportFactor*viewportItems), referenceItem)

	// Sizing data for the sized window, stitched across passes.
	l.updateItemsInfoWindow(firstSizedItem, lastSizedItem)
	l.ensureArrangeWidthWindow(firstSizedItem, lastSizedItem)

	// Realize and measure the realized window.
	hasUnsizedRealization := l.ensureAndMeasureItemRange(availableWidth, firstRealizedItem, lastRealizedItem)

	averageRatio := l.lastAverageAspectRatio
	widthOf := func(itemIndex int) float64 {
		return l.sizedItemDesiredWidth(itemIndex, averageRatio)
	}

	// Phases 1-5: search for the best partition of the sized window.
	forward := !(lastSizedItem == l.itemCount-1 && firstSizedItem > 0)
	lastLineExempt := lastSizedItem == l.itemCount-1 && l.stretch == StretchNone

	locks := newLockTable(l.lockedItems, nil)
	locks.withImplicitBounds(0, 0, l.itemCount-1, lineCount-1)

	best := l.runLayoutSearch(layoutSearchInput{
		widthOf:        widthOf,
		availableWidth: availableWidth,
		firstItemIndex: firstSizedItem,
		lastItemIndex:  lastSizedItem,
		firstLineIndex: plan.firstSizedLine,
		lastLineIndex:  plan.lastSizedLine,
		forward:        forward,
		lastLineExempt: lastLineExempt,
		external:       locks,
	})

	// Commit the partition. The window may have used fewer lines than it was
	// allotted when it holds fewer items than lines.
	l.lineItemCounts = best.lineItemCounts
	if used := best.lineCount(); used > 0 {
		if forward {
			l.lastSizedLineIndex = plan.firstSizedLine + used - 1
		} else {
			l.firstSizedLineIndex = plan.lastSizedLine - used + 1
		}
	}

	l.commitFrozenZone(plan)

	// Phase 6: scaling and final element measurement.
	l.scaleSizedLines(best, availableWidth, widthOf)

	// Confidence and lazy-loading follow-ups.
	if hasUnsizedRealization {
		l.restartRemeasureTimerIfIdle()
	} else {
		l.stopRemeasureTimer()
	}
	if l.aspectRatios.HasLowerWeight(firstSizedItem, lastSizedItem, ratios.MaxWeight) {
		l.invalidateMeasureAsync()
	}

	return l.desiredSizeForLines(availableWidth, lineCount)
}

// applyAnchor recenters the realization geometry around the host's
// recommended anchor and retains the anchor across transient -1
// advertisements during bring-into-view.
func (l *LinedFlowLayout) applyAnchor(scrollOffset, scrollViewport float64, realization Rect, pitch float64, lineCount int) (float64, Rect) {
	anchor := l.ctx.RecommendedAnchorIndex()

	switch {
	case anchor >= 0 && anchor < l.itemCount:
		if anchor == l.anchorIndex {
			l.anchorRetentionCount = anchorRetentionStart
		} else if !l.lineInsideRealization(anchor, pitch, realization) {
			l.anchorIndex = anchor
			l.anchorRetentionCount = anchorRetentionStart
		}
	case l.anchorIndex >= 0:
		if l.anchorRetentionCount <= 0 {
			l.anchorIndex = -1
		} else {
			l.anchorRetentionCount--
			// Keep probing: the host may advertise the anchor again while
			// the bring-into-view settles.
			l.invalidateMeasureAsync()
		}
	}

	if l.anchorIndex < 0 || l.anchorIndex >= l.itemCount {
		return scrollOffset, realization
	}

	anchorLine := lineIndexFromAverage(l.anchorIndex, l.averageItems.snapped)
	centered := float64(anchorLine)*pitch + pitch/2 - scrollViewport/2
	maxOffset := geom.MaxF64(0, float64(lineCount)*pitch-scrollViewport)
	centered = geom.ClampF64(centered, 0, maxOffset)

	height := realization.Height
	if realization.IsInfinite() || height <= 0 {
		height = 3 * scrollViewport
	}
	recentered := NewRect(realization.X, centered-(height-scrollViewport)/2, realization.Width, height)
	return centered, recentered
}

// lineInsideRealization reports whether the item's presumed line lies within
// the realization rect.
func (l *LinedFlowLayout) lineInsideRealization(itemIndex int, pitch float64, realization Rect) bool {
	if realization.IsInfinite() {
		return true
	}
	lineTop := float64(lineIndexFromAverage(itemIndex, l.averageItems.snapped)) * pitch
	return lineTop >= realization.Top() && lineTop+pitch <= realization.Bottom()
}

// estimatedFirstItemInLine estimates the first item of a line from the
// snapped average, exact at the collection boundaries.
func (l *LinedFlowLayout) estimatedFirstItemInLine(lineIndex, lineCount int) int {
	if lineIndex <= 0 {
		return 0
	}
	if lineIndex >= lineCount {
		return l.itemCount - 1
	}
	return geom.ClampInt(int(float64(lineIndex)*l.averageItems.snapped), 0, l.itemCount-1)
}

// estimatedLastItemInLine estimates the last item of a line from the snapped
// average, exact at the collection boundaries.
func (l *LinedFlowLayout) estimatedLastItemInLine(lineIndex, lineCount int) int {
	if lineIndex >= lineCount-1 {
		return l.itemCount - 1
	}
	return geom.ClampInt(int(float64(lineIndex+1)*l.averageItems.snapped)-1, 0, l.itemCount-1)
}

// ensureAndMeasureItemRange realizes [firstItemIndex, lastItemIndex],
// recycles elements outside it, measures the elements that have no host
// sizing data and folds their desired widths into the aspect-ratio store.
// Returns true when at least one realized element had to be measured without
// sizing info, which arms the re-measure timer.
func (l *LinedFlowLayout) ensureAndMeasureItemRange(availableWidth float64, firstItemIndex, lastItemIndex int) bool {
	firstItemIndex = geom.ClampInt(firstItemIndex, 0, l.itemCount-1)
	lastItemIndex = geom.ClampInt(lastItemIndex, firstItemIndex, l.itemCount-1)

	l.elements.discardOutside(true, firstItemIndex)
	l.elements.discardOutside(false, lastItemIndex+1)

	oldDesiredWidths := l.elementDesiredWidths
	newAvailableWidths := make(map[Element]float64, lastItemIndex-firstItemIndex+1)
	newDesiredWidths := make(map[Element]float64, lastItemIndex-firstItemIndex+1)

	hasUnsizedRealization := false

	// Grow the contiguous window backward, then forward.
	if existing := l.elements.firstIndex(); existing > firstItemIndex && existing >= 0 {
		for itemIndex := existing - 1; itemIndex >= firstItemIndex; itemIndex-- {
			l.elements.ensureRealized(false, itemIndex)
		}
	}
	for itemIndex := firstItemIndex; itemIndex <= lastItemIndex; itemIndex++ {
		element := l.elements.ensureRealized(true, itemIndex)
		if element == nil {
			continue
		}

		if l.desiredAspectRatioFromItemsInfo(itemIndex, false) > 0 {
			// The host supplied this item's ratio; the element is measured at
			// its final width during scaling.
			continue
		}
		hasUnsizedRealization = true

		measureSize := NewSize(availableWidth, l.actualLineHeight)
		element.Measure(measureSize)
		desired := element.DesiredSize()
		newAvailableWidths[element] = measureSize.Width
		newDesiredWidths[element] = desired.Width

		if old, ok := oldDesiredWidths[element]; ok && old != desired.Width {
			l.lastInvalidationTrigger = TriggerDesiredSizeChange
			l.forceRelayout = true
		}

		l.recordAspectRatio(itemIndex, element, desired)
	}

	l.elementAvailableWidths = newAvailableWidths
	l.elementDesiredWidths = newDesiredWidths
	return hasUnsizedRealization
}

// recordAspectRatio folds one measured desired size into the store. Weights
// saturate at the maximum; an element measuring wider than its minimum width
// is trusted immediately.
func (l *LinedFlowLayout) recordAspectRatio(itemIndex int, element Element, desired Size) {
	if l.actualLineHeight <= 0 || desired.Width <= 0 {
		return
	}

	record := l.aspectRatios.Get(itemIndex)
	weight := geom.MinInt(record.Weight+1, ratios.MaxWeight)
	if desired.Width > elementMinWidth(element) {
		weight = ratios.MaxWeight
	}
	l.aspectRatios.Set(itemIndex, ratios.Record{
		Ratio:  desired.Width / l.actualLineHeight,
		Weight: weight,
	})
}

// sizedItemDesiredWidth resolves a sized item's desired arrange width: host
// sizing data first, then the last measured desired width, then the average
// aspect ratio.
func (l *LinedFlowLayout) sizedItemDesiredWidth(itemIndex int, averageRatio float64) float64 {
	if l.desiredAspectRatioFromItemsInfo(itemIndex, false) > 0 {
		return l.arrangeWidthFromItemsInfo(itemIndex, averageRatio, 1, false)
	}

	if element := l.elements.get(itemIndex); element != nil {
		if width, ok := l.elementDesiredWidths[element]; ok && width > 0 {
			return width
		}
		if width := element.DesiredSize().Width; width > 0 {
			return width
		}
	}

	if record := l.aspectRatios.Get(itemIndex); !record.IsEmpty() {
		return record.Ratio * l.actualLineHeight
	}
	return arrangeWidth(0,
		l.minWidthFromItemsInfo(itemIndex, false),
		l.maxWidthFromItemsInfo(itemIndex, false),
		l.actualLineHeight, averageRatio, 1)
}

// layoutSearchInput parameterizes the six-phase trial-width search.
type layoutSearchInput struct {
	widthOf        func(itemIndex int) float64
	availableWidth float64
	firstItemIndex int
	lastItemIndex  int
	firstLineIndex int
	lastLineIndex  int
	forward        bool
	lastLineExempt bool
	external       *lockTable
}

// runLayoutSearch performs the six-phase search over trial widths and
// equalizing local moves, returning the minimum-drawback layout found.
func (l *LinedFlowLayout) runLayoutSearch(in layoutSearchInput) *itemsLayout {
	partition := func(trialWidth, averageLineWidth float64, internal map[int]int) *itemsLayout {
		locks := in.external
		if len(internal) > 0 {
			locks = newLockTable(in.external.lines, internal)
			locks.withImplicitBounds(
				in.external.implicitFirstItem, in.external.implicitFirstLine,
				in.external.implicitLastItem, in.external.implicitLastLine)
		}
		return computeItemsLayout(partitionInput{
			itemWidth:             in.widthOf,
			firstItemIndex:        in.firstItemIndex,
			lastItemIndex:         in.lastItemIndex,
			firstLineIndex:        in.firstLineIndex,
			lastLineIndex:         in.lastLineIndex,
			availableWidth:        trialWidth,
			averageLineItemsWidth: averageLineWidth,
			minItemSpacing:        l.minItemSpacing,
			wrapMultiplier:        l.wrapMultiplierValue(),
			forward:               in.forward,
			lastLineExempt:        in.lastLineExempt,
			locks:                 locks,
		})
	}

	tried := make(map[int64]bool)
	markTried := func(width float64) { tried[int64(math.Round(width*16))] = true }
	wasTried := func(width float64) bool { return tried[int64(math.Round(width*16))] }

	// Phase 1: the host-supplied available width.
	markTried(in.availableWidth)
	best := partition(in.availableWidth, 0, nil)

	// Phase 2: the mean line width of phase 1 is the direct feedback signal.
	feedbackWidth := meanLineWidth(best)
	if feedbackWidth <= 0 {
		feedbackWidth = in.availableWidth
	}
	if !wasTried(feedbackWidth) {
		markTried(feedbackWidth)
		if candidate := partition(feedbackWidth, feedbackWidth, nil); candidate.drawback < best.drawback {
			best = candidate
		}
	}

	// Phase 3: explore neighboring widths offset by the smallest head and
	// tail items, staying within the band around the phase-2 mean.
	for round := 0; round < 16; round++ {
		improved := false
		for _, candidateWidth := range []float64{
			best.availableLineItemsWidth + best.smallestHeadItemWidth,
			best.availableLineItemsWidth - best.smallestTailItemWidth,
		} {
			if candidateWidth <= 0 || wasTried(candidateWidth) {
				continue
			}
			if math.Abs(candidateWidth-feedbackWidth) > neighborWidthBand*feedbackWidth {
				continue
			}
			markTried(candidateWidth)
			if candidate := partition(candidateWidth, feedbackWidth, nil); candidate.drawback < best.drawback {
				best = candidate
				improved = true
			}
		}
		if !improved {
			break
		}
	}

	// Phase 4: the midpoint between the two viable widths.
	midWidth := (best.availableLineItemsWidth + feedbackWidth) / 2
	if midWidth > 0 && !wasTried(midWidth) {
		markTried(midWidth)
		if candidate := partition(midWidth, feedbackWidth, nil); candidate.drawback < best.drawback {
			best = candidate
		}
	}

	// Phase 5: equalizing local moves under internal locks. Each move pins
	// the chosen item to its neighboring line and re-partitions; misses are
	// tolerated until they exceed half the line count.
	internal := make(map[int]int)
	attempted := make(map[int]bool)
	misses := 0
	maxMisses := geom.MaxInt(1, (in.lastLineIndex-in.firstLineIndex+1)/2)

	for misses <= maxMisses {
		itemIndex, targetLine, ok := bestEqualizingMove(best, attempted)
		if !ok {
			break
		}
		attempted[itemIndex] = true
		internal[itemIndex] = targetLine

		candidate := partition(best.availableLineItemsWidth, feedbackWidth, internal)
		if candidate.drawback < best.drawback {
			best = candidate
		} else {
			delete(internal, itemIndex)
			misses++
		}
	}

	return best
}

// bestEqualizingMove picks the head or tail transfer with the larger positive
// drawback improvement that has not been attempted yet.
func bestEqualizingMove(layout *itemsLayout, attempted map[int]bool) (itemIndex, targetLine int, ok bool) {
	headOK := layout.bestEqualizingHeadItemIndex >= 0 &&
		layout.bestEqualizingHeadItemDrawbackImprovement > 0 &&
		!attempted[layout.bestEqualizingHeadItemIndex]
	tailOK := layout.bestEqualizingTailItemIndex >= 0 &&
		layout.bestEqualizingTailItemDrawbackImprovement > 0 &&
		!attempted[layout.bestEqualizingTailItemIndex]

	switch {
	case headOK && (!tailOK ||
		layout.bestEqualizingHeadItemDrawbackImprovement >= layout.bestEqualizingTailItemDrawbackImprovement):
		return layout.bestEqualizingHeadItemIndex, layout.bestEqualizingHeadLineIndex - 1, true
	case tailOK:
		return layout.bestEqualizingTailItemIndex, layout.bestEqualizingTailLineIndex + 1, true
	}
	return 0, 0, false
}

// meanLineWidth returns the average of the layout's line widths.
func meanLineWidth(layout *itemsLayout) float64 {
	if len(layout.lineItemWidths) == 0 {
		return 0
	}
	total := 0.0
	for _, width := range layout.lineItemWidths {
		total += width
	}
	return total / float64(len(layout.lineItemWidths))
}

// commitFrozenZone records the frozen line and item boundaries from the zone
// plan and the committed partition.
func (l *LinedFlowLayout) commitFrozenZone(plan zonePlan) {
	l.firstFrozenLineIndex = geom.ClampInt(plan.firstFrozenLine, l.firstSizedLineIndex, l.lastSizedLineIndex)
	l.lastFrozenLineIndex = geom.ClampInt(plan.lastFrozenLine, l.firstSizedLineIndex, l.lastSizedLineIndex)
	if plan.firstFrozenLine < 0 {
		l.firstFrozenLineIndex = -1
		l.lastFrozenLineIndex = -1
		l.firstFrozenItemIndex = -1
		l.lastFrozenItemIndex = -1
		return
	}
	l.firstFrozenItemIndex = l.firstItemIndexInLine(l.firstFrozenLineIndex)
	l.lastFrozenItemIndex = l.lastItemIndexInLine(l.lastFrozenLineIndex)
}

// scaleSizedLines applies the per-line shrink or expand factor to every sized
// line, records the resulting arrange widths and re-measures the realized
// elements at their assigned widths.
func (l *LinedFlowLayout) scaleSizedLines(best *itemsLayout, availableWidth float64, widthOf func(int) float64) {
	l.maxLineWidth = 0
	itemIndex := l.firstSizedItemIndex

	for _, count := range best.lineItemCounts {
		widths := make([]float64, count)
		mins := make([]float64, count)
		maxs := make([]float64, count)
		lineWidth := 0.0

		for at := 0; at < count; at++ {
			widths[at] = widthOf(itemIndex + at)
			mins[at] = l.minWidthFromItemsInfo(itemIndex+at, false)
			maxs[at] = l.maxWidthFromItemsInfo(itemIndex+at, false)
			if element := l.elements.get(itemIndex + at); element != nil {
				mins[at] = combineMinWidths(mins[at], boundOrUnspecified(elementMinWidth(element)))
				maxs[at] = combineMaxWidths(maxs[at], boundOrUnspecified(finiteOrUnspecified(elementMaxWidth(element))))
			}
			lineWidth += widths[at]
		}
		if count > 1 {
			lineWidth += float64(count-1) * l.minItemSpacing
		}

		scaled := widths
		if shrink, expand := lineScalePlan(lineWidth, availableWidth, l.stretch); shrink || expand {
			scaled, _ = scaleLineToFit(widths, mins, maxs, l.minItemSpacing, availableWidth, expand)
		}

		scaledLineWidth := 0.0
		for at := 0; at < count; at++ {
			l.setArrangeWidth(itemIndex+at, scaled[at])
			scaledLineWidth += scaled[at]

			if element := l.elements.get(itemIndex + at); element != nil {
				measureSize := NewSize(scaled[at], l.actualLineHeight)
				element.Measure(measureSize)
				l.elementAvailableWidths[element] = measureSize.Width
			}
		}
		if count > 1 {
			scaledLineWidth += float64(count-1) * l.minItemSpacing
		}
		l.maxLineWidth = geom.MaxF64(l.maxLineWidth, scaledLineWidth)

		itemIndex += count
	}
}

// boundOrUnspecified maps a zero bound to the items-info "unspecified"
// convention of -1.
func boundOrUnspecified(bound float64) float64 {
	if bound <= 0 {
		return -1
	}
	return bound
}

// finiteOrUnspecified maps an infinite bound to 0 so boundOrUnspecified
// treats it as unspecified.
func finiteOrUnspecified(bound float64) float64 {
	if math.IsInf(bound, 1) {
		return 0
	}
	return bound
}
