package layout

import (
	"math"

	"github.com/Krispeckt/linedflow/internal/core/geom"
)

// sizedViewportFactor enlarges the sized rectangle to a multiple of the
// visible viewport so the partitioner always has lines of context around the
// displayed zone.
const sizedViewportFactor = 5.0

// minSizedLineCount is the smallest sized span handed to the partitioner when
// the collection allows it.
const minSizedLineCount = 20

// zoneInput is the viewport geometry a zone plan derives from.
type zoneInput struct {
	scrollViewport   float64 // visible viewport height
	scrollOffset     float64
	lineSpacing      float64
	actualLineHeight float64
	lineCount        int
	realizationRect  Rect
}

// zonePlan partitions the whole line space into the displayed, frozen,
// realized and sized zones. Line indices are inclusive; -1 marks an empty
// zone. Invariant: displayed ⊆ frozen ⊆ realized ⊆ sized ⊆ [0, lineCount).
type zonePlan struct {
	firstDisplayedLine int
	lastDisplayedLine  int
	firstFrozenLine    int
	lastFrozenLine     int
	firstRealizedLine  int
	lastRealizedLine   int
	firstSizedLine     int
	lastSizedLine      int
}

// linePitch returns the distance between two line tops.
func (in zoneInput) linePitch() float64 {
	return in.actualLineHeight + in.lineSpacing
}

// planZones derives the zone plan from the viewport geometry. It is a pure
// function of its input.
func planZones(in zoneInput) zonePlan {
	plan := zonePlan{
		firstDisplayedLine: -1,
		lastDisplayedLine:  -1,
		firstFrozenLine:    -1,
		lastFrozenLine:     -1,
		firstRealizedLine:  -1,
		lastRealizedLine:   -1,
		firstSizedLine:     -1,
		lastSizedLine:      -1,
	}

	pitch := in.linePitch()
	if in.lineCount <= 0 || in.actualLineHeight <= 0 || pitch <= 0 {
		return plan
	}

	viewport := in.scrollViewport
	offset := in.scrollOffset

	// Sized zone: the realization rect enlarged to at least five viewports,
	// and to at least a fixed number of lines, centered on the viewport.
	sizedTop := offset - (sizedViewportFactor*viewport-viewport)/2
	sizedBottom := offset + viewport + (sizedViewportFactor*viewport-viewport)/2
	if !in.realizationRect.IsInfinite() && !in.realizationRect.IsEmpty() {
		sizedTop = geom.MinF64(sizedTop, in.realizationRect.Top())
		sizedBottom = geom.MaxF64(sizedBottom, in.realizationRect.Bottom())
	}

	firstSized := lineIndexAt(sizedTop, pitch)
	lastSized := lineIndexAt(sizedBottom-1e-9, pitch)
	if span := minSizedLineCount - (lastSized - firstSized + 1); span > 0 {
		firstSized -= span / 2
		lastSized += span - span/2
	}
	firstSized = geom.ClampInt(firstSized, 0, in.lineCount-1)
	lastSized = geom.ClampInt(lastSized, 0, in.lineCount-1)
	if missing := minSizedLineCount - (lastSized - firstSized + 1); missing > 0 {
		// A collection end cut the span short: extend the other side.
		firstSized = geom.MaxInt(0, firstSized-missing)
		lastSized = geom.MinInt(in.lineCount-1, lastSized+missing)
	}
	plan.firstSizedLine = firstSized
	plan.lastSizedLine = lastSized

	if viewport <= 0 {
		// Empty viewport: displayed and frozen zones stay empty, realization
		// still follows the realization rect so pre-rendering works.
		plan.firstRealizedLine, plan.lastRealizedLine =
			realizedLineRange(in, pitch, firstSized, lastSized)
		return plan
	}

	// Displayed zone: lines intersecting the visible viewport. A hairline
	// sliver thinner than the line spacing at a seam does not count.
	epsilon := geom.MinF64(in.lineSpacing, in.actualLineHeight/2)
	firstDisplayed := lineIndexAt(offset+epsilon, pitch)
	lastDisplayed := lineIndexAt(offset+viewport-epsilon-1e-9, pitch)
	if lastDisplayed < firstDisplayed {
		lastDisplayed = firstDisplayed
	}
	firstDisplayed = geom.ClampInt(firstDisplayed, 0, in.lineCount-1)
	lastDisplayed = geom.ClampInt(lastDisplayed, 0, in.lineCount-1)
	plan.firstDisplayedLine = firstDisplayed
	plan.lastDisplayedLine = lastDisplayed

	// Realized zone.
	firstRealized, lastRealized := realizedLineRange(in, pitch, firstSized, lastSized)
	firstRealized = geom.MinInt(firstRealized, firstDisplayed)
	lastRealized = geom.MaxInt(lastRealized, lastDisplayed)
	plan.firstRealizedLine = firstRealized
	plan.lastRealizedLine = lastRealized

	// Frozen zone: displayed padded outward by the larger of 0.8 viewports
	// and 40% of the gap to the sized boundary, clamped to the realized span.
	viewportPad := int(math.Ceil(0.8 * viewport / pitch))
	nearGapPad := int(math.Ceil(0.4 * float64(firstDisplayed-firstSized)))
	farGapPad := int(math.Ceil(0.4 * float64(lastSized-lastDisplayed)))

	firstFrozen := firstDisplayed - geom.MaxInt(viewportPad, nearGapPad)
	lastFrozen := lastDisplayed + geom.MaxInt(viewportPad, farGapPad)
	plan.firstFrozenLine = geom.ClampInt(firstFrozen, firstRealized, firstDisplayed)
	plan.lastFrozenLine = geom.ClampInt(lastFrozen, lastDisplayed, lastRealized)

	return plan
}

// realizedLineRange converts the realization rect, inflated on each side by
// the larger of one viewport and four line pitches, into a line range clamped
// to the sized zone.
func realizedLineRange(in zoneInput, pitch float64, firstSized, lastSized int) (int, int) {
	rect := in.realizationRect
	top := in.scrollOffset
	bottom := in.scrollOffset + in.scrollViewport
	if !rect.IsInfinite() && !rect.IsEmpty() {
		top = rect.Top()
		bottom = rect.Bottom()
	}

	inflate := geom.MaxF64(in.scrollViewport, 4*pitch)
	first := lineIndexAt(top-inflate, pitch)
	last := lineIndexAt(bottom+inflate-1e-9, pitch)

	first = geom.ClampInt(first, firstSized, lastSized)
	last = geom.ClampInt(last, firstSized, lastSized)
	return first, last
}

// lineIndexAt returns the index of the line containing the vertical offset.
func lineIndexAt(offset, pitch float64) int {
	if offset <= 0 {
		return int(math.Floor(offset / pitch))
	}
	return int(offset / pitch)
}
