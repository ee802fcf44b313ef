package layout

import (
	"math"

	"github.com/Krispeckt/linedflow/internal/core/geom"
)

// Measure computes the layout's desired size for the given available size.
// It rebuilds the sized window, runs the unconstrained, fast or regular path,
// and leaves the line partition ready for the following Arrange call.
func (l *LinedFlowLayout) Measure(ctx LayoutContext, availableSize Size) (Size, error) {
	if l.ctx == nil || ctx != l.ctx {
		return Size{}, ErrLayoutUnbound
	}

	l.itemCount = ctx.ItemCount()
	l.isVirtualizingContext = !ctx.RealizationRect().IsInfinite()

	if l.itemCount == 0 {
		l.stopRemeasureTimer()
		l.elements.clear()
		l.resetSizedLines()
		l.unconstrainedLayout = false
		l.previousAvailableWidth = availableSize.Width
		return Size{}, nil
	}

	l.updateActualLineHeight(availableSize)
	if l.actualLineHeight <= 0 {
		return Size{}, nil
	}

	if !l.isVirtualizingContext {
		// Non-virtualizing hosts re-layout everything on every pass.
		l.forceRelayout = true
		l.unlockItems()
	}

	if availableSize.HasInfiniteWidth() {
		l.unconstrainedLayout = true
		desired := l.measureUnconstrainedLine()
		l.previousAvailableWidth = availableSize.Width
		l.decrementMeasureCountdown()
		return desired, nil
	}
	l.unconstrainedLayout = false

	availableWidth := availableSize.Width

	if l.fastPathSupported && l.itemsInfoRequestedHandler != nil {
		if desired, ok := l.measureConstrainedLinesFastPath(availableWidth); ok {
			l.forceRelayout = false
			l.previousAvailableWidth = availableWidth
			l.decrementMeasureCountdown()
			return desired, nil
		}
		// Insufficient data: fall through to the regular path reusing what
		// the handler did provide.
	}
	l.fastPathLayout = false
	l.fastArrangeWidths = nil

	desired := l.measureConstrainedLinesRegularPath(availableWidth)
	l.forceRelayout = false
	l.previousAvailableWidth = availableWidth
	l.decrementMeasureCountdown()
	return desired, nil
}

// Arrange positions the realized elements according to the partition the
// preceding Measure computed. Partial arrange is permitted: items outside the
// realized range are skipped.
func (l *LinedFlowLayout) Arrange(ctx LayoutContext, finalSize Size) Size {
	if l.ctx == nil || ctx != l.ctx || l.itemCount == 0 || l.actualLineHeight <= 0 {
		return finalSize
	}

	l.updateRoundingScaleFactor()
	ctx.SetLayoutOrigin(Point{})

	if l.unconstrainedLayout {
		l.arrangeUnconstrainedLine()
	} else {
		l.arrangeConstrainedLines(finalSize)
	}
	return finalSize
}

// decrementMeasureCountdown advances the initial-loading countdown that
// clamps the average aspect ratio and its fallback floor.
func (l *LinedFlowLayout) decrementMeasureCountdown() {
	if l.measureCountdown > 0 {
		l.measureCountdown--
	}
}

// updateActualLineHeight resolves the effective line height from the explicit
// property, or once from the first item's unconstrained desired height.
func (l *LinedFlowLayout) updateActualLineHeight(availableSize Size) {
	if !math.IsNaN(l.lineHeight) {
		l.actualLineHeight = l.lineHeight
		return
	}
	if l.actualLineHeight > 0 {
		return
	}

	element := l.elements.ensureRealized(true, 0)
	if element == nil {
		return
	}
	element.Measure(InfiniteSize())
	l.actualLineHeight = element.DesiredSize().Height
}

// linePitch returns the vertical distance between two line tops.
func (l *LinedFlowLayout) linePitch() float64 {
	return l.actualLineHeight + l.lineSpacing
}

// desiredSizeForLines computes the layout's desired size from the line count
// and the widest sized line.
func (l *LinedFlowLayout) desiredSizeForLines(availableWidth float64, lineCount int) Size {
	if lineCount <= 0 {
		return Size{}
	}
	return Size{
		Width:  geom.MaxF64(availableWidth, l.maxLineWidth),
		Height: float64(lineCount)*l.linePitch() - l.lineSpacing,
	}
}

// measureUnconstrainedLine lays every item out on a single line: each element
// measures with an infinite available width and keeps its desired width.
func (l *LinedFlowLayout) measureUnconstrainedLine() Size {
	totalWidth := 0.0

	for itemIndex := 0; itemIndex < l.itemCount; itemIndex++ {
		element := l.elements.ensureRealized(true, itemIndex)
		if element == nil {
			continue
		}
		element.Measure(NewSize(math.Inf(1), l.actualLineHeight))
		totalWidth += element.DesiredSize().Width
	}
	if l.itemCount > 1 {
		totalWidth += float64(l.itemCount-1) * l.minItemSpacing
	}

	l.setAverageItemsPerLine(snapAverageItemsPerLine(l.averageItems, float64(l.itemCount)), true)
	l.maxLineWidth = totalWidth
	return NewSize(totalWidth, l.actualLineHeight)
}

// arrangeUnconstrainedLine places the single unconstrained line.
func (l *LinedFlowLayout) arrangeUnconstrainedLine() {
	x := 0.0
	scale := l.roundingScaleFactor

	for itemIndex := 0; itemIndex < l.itemCount; itemIndex++ {
		element := l.elements.get(itemIndex)
		if element == nil {
			continue
		}
		width := element.DesiredSize().Width
		element.Arrange(NewRect(
			geom.RoundToScale(x, scale),
			0,
			geom.RoundToScale(width, scale),
			l.actualLineHeight))
		x += width + l.minItemSpacing
	}
}

// updateRoundingScaleFactor fetches the display's rasterization scale from
// any realized element able to report one. Enumeration failures fall back to
// a factor of 1 and the layout continues.
func (l *LinedFlowLayout) updateRoundingScaleFactor() {
	first := l.elements.firstIndex()
	if first < 0 {
		return
	}
	element := l.elements.get(first)
	provider, ok := element.(RasterizationScaleProvider)
	if !ok {
		return
	}
	scale, err := provider.RasterizationScale()
	if err != nil || scale <= 0 {
		l.roundingScaleFactor = 1
		return
	}
	l.roundingScaleFactor = scale
}
