package layout

import (
	"math"

	"github.com/Krispeckt/linedflow/internal/core/geom"
)

// itemsInfo summarizes one answered items-info request.
type itemsInfo struct {
	rangeStartIndex int
	rangeLength     int
	minWidth        float64
	maxWidth        float64
}

var emptyItemsInfo = itemsInfo{
	rangeStartIndex: -1,
	rangeLength:     -1,
	minWidth:        -1,
	maxWidth:        -1,
}

// raiseItemsInfoRequested raises the items-info event for the given range and
// captures the handler's answer. The args object is detached afterwards so
// late writes become no-ops.
func (l *LinedFlowLayout) raiseItemsInfoRequested(rangeStartIndex, rangeLength int) (itemsInfo, *ItemsInfoRequestedArgs) {
	if l.itemsInfoRequestedHandler == nil {
		return emptyItemsInfo, nil
	}

	l.requestedRangeStartIndex = rangeStartIndex
	l.requestedRangeLength = rangeLength

	args := newItemsInfoRequestedArgs(rangeStartIndex, rangeLength)
	l.itemsInfoRequestedHandler(args)
	args.detach()

	if len(args.desiredAspectRatios) == 0 {
		return emptyItemsInfo, args
	}

	info := itemsInfo{
		rangeStartIndex: args.itemsRangeStartIndex,
		rangeLength:     args.itemsRangeLength,
		minWidth:        args.minWidth,
		maxWidth:        args.maxWidth,
	}
	if info.rangeLength > len(args.desiredAspectRatios) {
		// Fewer ratios than advertised: trust the array.
		info.rangeLength = len(args.desiredAspectRatios)
	}
	return info, args
}

// coversAllItems reports whether the answered range spans the whole source
// collection, which makes the fast path eligible.
func (info itemsInfo) coversAllItems(itemCount int) bool {
	return info.rangeStartIndex == 0 && info.rangeLength >= itemCount
}

// resetItemsInfo drops the regular-path sliding window and the request-global
// width bounds.
func (l *LinedFlowLayout) resetItemsInfo() {
	l.itemsInfoFirstIndex = -1
	l.itemsInfoDesiredAspectRatios = nil
	l.itemsInfoMinWidths = nil
	l.itemsInfoMaxWidths = nil
	l.itemsInfoMinWidth = -1
	l.itemsInfoMaxWidth = -1
	l.arrangeWidthsFirstIndex = -1
	l.arrangeWidths = nil
}

// resetItemsInfoForFastPath drops the transient full-collection arrays once a
// fast-path measure pass ends.
func (l *LinedFlowLayout) resetItemsInfoForFastPath() {
	l.fastDesiredAspectRatios = nil
	l.fastMinWidths = nil
	l.fastMaxWidths = nil
}

// itemsInfoLen returns the regular-path window length.
func (l *LinedFlowLayout) itemsInfoLen() int {
	return len(l.itemsInfoDesiredAspectRatios)
}

// hasItemsInfo reports whether the regular-path window covers
// [firstItemIndex, lastItemIndex].
func (l *LinedFlowLayout) hasItemsInfo(firstItemIndex, lastItemIndex int) bool {
	return l.itemsInfoFirstIndex >= 0 &&
		firstItemIndex >= l.itemsInfoFirstIndex &&
		lastItemIndex < l.itemsInfoFirstIndex+l.itemsInfoLen()
}

// updateItemsInfoWindow rebuilds the regular-path sliding window to cover
// [firstItemIndex, lastItemIndex]. Entries overlapping the previous window
// are copied; only the missing prefix and suffix segments are requested from
// the host. Returns false when the host answered with nothing usable.
func (l *LinedFlowLayout) updateItemsInfoWindow(firstItemIndex, lastItemIndex int) bool {
	if l.itemsInfoRequestedHandler == nil {
		return false
	}
	if l.hasItemsInfo(firstItemIndex, lastItemIndex) {
		return true
	}

	newLen := lastItemIndex - firstItemIndex + 1
	if newLen <= 0 {
		return false
	}

	oldFirst := l.itemsInfoFirstIndex
	oldRatios := l.itemsInfoDesiredAspectRatios
	oldMins := l.itemsInfoMinWidths
	oldMaxs := l.itemsInfoMaxWidths

	ratios := newFilledSlice(newLen, 0)
	mins := newFilledSlice(newLen, -1)
	maxs := newFilledSlice(newLen, -1)

	// Copy the overlap with the previous window.
	overlapFirst, overlapLast := -1, -1
	if oldFirst >= 0 {
		overlapFirst = geom.MaxInt(oldFirst, firstItemIndex)
		overlapLast = geom.MinInt(oldFirst+len(oldRatios)-1, lastItemIndex)
		if overlapFirst > overlapLast {
			// Disjoint ranges: rebuild from scratch.
			overlapFirst, overlapLast = -1, -1
		}
		for itemIndex := overlapFirst; itemIndex >= 0 && itemIndex <= overlapLast; itemIndex++ {
			ratios[itemIndex-firstItemIndex] = oldRatios[itemIndex-oldFirst]
			if oldMins != nil {
				mins[itemIndex-firstItemIndex] = oldMins[itemIndex-oldFirst]
			}
			if oldMaxs != nil {
				maxs[itemIndex-firstItemIndex] = oldMaxs[itemIndex-oldFirst]
			}
		}
	}

	l.itemsInfoFirstIndex = firstItemIndex
	l.itemsInfoDesiredAspectRatios = ratios
	l.itemsInfoMinWidths = mins
	l.itemsInfoMaxWidths = maxs

	fetched := false
	if overlapFirst > firstItemIndex || overlapFirst == -1 {
		// Missing prefix (or the whole disjoint range).
		prefixLast := lastItemIndex
		if overlapFirst != -1 {
			prefixLast = overlapFirst - 1
		}
		fetched = l.fetchItemsInfoSegment(firstItemIndex, prefixLast) || fetched
	}
	if overlapLast != -1 && overlapLast < lastItemIndex {
		suffixFetched := l.fetchItemsInfoSegment(overlapLast+1, lastItemIndex)
		fetched = fetched || suffixFetched
	}

	return fetched || overlapFirst != -1
}

// fetchItemsInfoSegment requests [firstItemIndex, lastItemIndex] from the
// host and folds the answer into the current window. Partial answers are
// kept; items the handler skipped keep ratio 0 (use measured widths).
func (l *LinedFlowLayout) fetchItemsInfoSegment(firstItemIndex, lastItemIndex int) bool {
	info, args := l.raiseItemsInfoRequested(firstItemIndex, lastItemIndex-firstItemIndex+1)
	if info.rangeStartIndex < 0 || args == nil {
		return false
	}

	if info.minWidth >= 0 {
		l.itemsInfoMinWidth = info.minWidth
	}
	if info.maxWidth >= 0 {
		l.itemsInfoMaxWidth = info.maxWidth
	}

	windowFirst := l.itemsInfoFirstIndex
	windowLast := windowFirst + l.itemsInfoLen() - 1

	copyFirst := geom.MaxInt(info.rangeStartIndex, windowFirst)
	copyLast := geom.MinInt(info.rangeStartIndex+info.rangeLength-1, windowLast)

	for itemIndex := copyFirst; itemIndex <= copyLast; itemIndex++ {
		at := itemIndex - info.rangeStartIndex
		l.itemsInfoDesiredAspectRatios[itemIndex-windowFirst] = args.desiredAspectRatios[at]
		if at < len(args.minWidths) {
			l.itemsInfoMinWidths[itemIndex-windowFirst] = args.minWidths[at]
		}
		if at < len(args.maxWidths) {
			l.itemsInfoMaxWidths[itemIndex-windowFirst] = args.maxWidths[at]
		}
	}
	return copyLast >= copyFirst
}

// desiredAspectRatioFromItemsInfo returns the host-provided aspect ratio for
// an item, from the fast-path arrays or the regular-path window. Zero or
// negative means "use the running average".
func (l *LinedFlowLayout) desiredAspectRatioFromItemsInfo(itemIndex int, fastPath bool) float64 {
	if fastPath {
		if itemIndex >= 0 && itemIndex < len(l.fastDesiredAspectRatios) {
			return l.fastDesiredAspectRatios[itemIndex]
		}
		return 0
	}
	if l.itemsInfoFirstIndex < 0 {
		return 0
	}
	at := itemIndex - l.itemsInfoFirstIndex
	if at < 0 || at >= l.itemsInfoLen() {
		return 0
	}
	return l.itemsInfoDesiredAspectRatios[at]
}

// minWidthFromItemsInfo combines the per-item and request-global minimum
// widths; unspecified values are -1.
func (l *LinedFlowLayout) minWidthFromItemsInfo(itemIndex int, fastPath bool) float64 {
	perItem := -1.0
	if fastPath {
		if itemIndex >= 0 && itemIndex < len(l.fastMinWidths) {
			perItem = l.fastMinWidths[itemIndex]
		}
	} else if l.itemsInfoFirstIndex >= 0 {
		at := itemIndex - l.itemsInfoFirstIndex
		if at >= 0 && at < len(l.itemsInfoMinWidths) {
			perItem = l.itemsInfoMinWidths[at]
		}
	}
	return combineMinWidths(perItem, l.itemsInfoMinWidth)
}

// maxWidthFromItemsInfo combines the per-item and request-global maximum
// widths; unspecified values are -1.
func (l *LinedFlowLayout) maxWidthFromItemsInfo(itemIndex int, fastPath bool) float64 {
	perItem := -1.0
	if fastPath {
		if itemIndex >= 0 && itemIndex < len(l.fastMaxWidths) {
			perItem = l.fastMaxWidths[itemIndex]
		}
	} else if l.itemsInfoFirstIndex >= 0 {
		at := itemIndex - l.itemsInfoFirstIndex
		if at >= 0 && at < len(l.itemsInfoMaxWidths) {
			perItem = l.itemsInfoMaxWidths[at]
		}
	}
	return combineMaxWidths(perItem, l.itemsInfoMaxWidth)
}

// combineMinWidths takes the stricter (larger) of two minimums, where -1
// means unspecified.
func combineMinWidths(perItem, global float64) float64 {
	switch {
	case perItem < 0:
		return global
	case global < 0:
		return perItem
	default:
		return geom.MaxF64(perItem, global)
	}
}

// combineMaxWidths takes the stricter (smaller) of two maximums, where -1
// means unspecified.
func combineMaxWidths(perItem, global float64) float64 {
	switch {
	case perItem < 0:
		return global
	case global < 0:
		return perItem
	default:
		return geom.MinF64(perItem, global)
	}
}

// arrangeWidth resolves an item's arrange width from its desired aspect
// ratio: clamp(ratio · lineHeight · scale, min, max). A non-positive ratio
// falls back to averageAspectRatio.
func arrangeWidth(desiredAspectRatio, minWidth, maxWidth, actualLineHeight, averageAspectRatio, scaleFactor float64) float64 {
	ratio := desiredAspectRatio
	if ratio <= 0 {
		ratio = averageAspectRatio
	}

	width := ratio * actualLineHeight * scaleFactor
	if minWidth >= 0 {
		width = geom.MaxF64(width, minWidth)
	}
	if maxWidth >= 0 {
		width = geom.MinF64(width, maxWidth)
	}
	if math.IsNaN(width) || width < 0 {
		return 0
	}
	return width
}

// arrangeWidthFromItemsInfo resolves the arrange width of a sized item from
// the items-info data.
func (l *LinedFlowLayout) arrangeWidthFromItemsInfo(itemIndex int, averageAspectRatio, scaleFactor float64, fastPath bool) float64 {
	return arrangeWidth(
		l.desiredAspectRatioFromItemsInfo(itemIndex, fastPath),
		l.minWidthFromItemsInfo(itemIndex, fastPath),
		l.maxWidthFromItemsInfo(itemIndex, fastPath),
		l.actualLineHeight,
		averageAspectRatio,
		scaleFactor)
}

// ensureArrangeWidthWindow sizes the regular-path arrange-width window to the
// sized item range. Existing entries overlapping the new range are kept.
func (l *LinedFlowLayout) ensureArrangeWidthWindow(firstItemIndex, lastItemIndex int) {
	newLen := lastItemIndex - firstItemIndex + 1
	if newLen <= 0 {
		l.arrangeWidthsFirstIndex = -1
		l.arrangeWidths = nil
		return
	}

	widths := make([]float64, newLen)
	if l.arrangeWidthsFirstIndex >= 0 {
		overlapFirst := geom.MaxInt(l.arrangeWidthsFirstIndex, firstItemIndex)
		overlapLast := geom.MinInt(l.arrangeWidthsFirstIndex+len(l.arrangeWidths)-1, lastItemIndex)
		for itemIndex := overlapFirst; itemIndex <= overlapLast; itemIndex++ {
			widths[itemIndex-firstItemIndex] = l.arrangeWidths[itemIndex-l.arrangeWidthsFirstIndex]
		}
	}
	l.arrangeWidthsFirstIndex = firstItemIndex
	l.arrangeWidths = widths
}

// setArrangeWidth records the resolved arrange width for a sized item.
func (l *LinedFlowLayout) setArrangeWidth(itemIndex int, width float64) {
	if l.arrangeWidthsFirstIndex < 0 {
		return
	}
	at := itemIndex - l.arrangeWidthsFirstIndex
	if at >= 0 && at < len(l.arrangeWidths) {
		l.arrangeWidths[at] = width
	}
}

// arrangeWidthAt returns the recorded arrange width for a sized item, or 0.
func (l *LinedFlowLayout) arrangeWidthAt(itemIndex int) float64 {
	if l.usesFastPathLayout() {
		if itemIndex >= 0 && itemIndex < len(l.fastArrangeWidths) {
			return l.fastArrangeWidths[itemIndex]
		}
		return 0
	}
	if l.arrangeWidthsFirstIndex < 0 {
		return 0
	}
	at := itemIndex - l.arrangeWidthsFirstIndex
	if at < 0 || at >= len(l.arrangeWidths) {
		return 0
	}
	return l.arrangeWidths[at]
}

func newFilledSlice(length int, value float64) []float64 {
	s := make([]float64, length)
	if value != 0 {
		for i := range s {
			s[i] = value
		}
	}
	return s
}
