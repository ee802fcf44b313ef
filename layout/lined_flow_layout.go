package layout

import (
	"math"

	"github.com/Krispeckt/linedflow/internal/ratios"
)

// ItemsJustification defines how free space is distributed along a line when
// items are not stretched.
type ItemsJustification int

const (
	JustifyStart        ItemsJustification = iota // Items packed at line start (default)
	JustifyCenter                                 // Items centered on the line
	JustifyEnd                                    // Items packed at line end
	JustifySpaceBetween                           // Even spacing between items, none at ends
	JustifySpaceAround                            // Equal spacing around items, half-space at edges
	JustifySpaceEvenly                            // Equal spacing including line edges
)

// ItemsStretch defines whether under-full lines scale their items up to fill
// the available width.
type ItemsStretch int

const (
	// StretchNone leaves under-full lines at their desired widths.
	StretchNone ItemsStretch = iota
	// StretchFill expands items, respecting their maximum widths, until the
	// line fills the available width.
	StretchFill
)

// measureCountdownStart is the number of initial measure passes during which
// the average aspect ratio is clamped and its fallback floor decays.
const measureCountdownStart = 5

// anchorRetentionStart is the number of measure passes a recommended anchor
// survives transient -1 advertisements during a bring-into-view operation.
const anchorRetentionStart = 10

// defaultWrapMultiplier scales the margin the equalizing heuristic demands
// before it overrides the plain fits/does-not-fit decision.
const defaultWrapMultiplier = 2.0

// LinedFlowLayout arranges a virtualized, scrollable collection of items into
// horizontal lines of a fixed height. Items keep their intrinsic aspect
// ratio: each is sized to the line height and its natural width, then scaled
// with its line so lines stay visually balanced.
//
// The layout binds to exactly one hosting context for its whole lifetime and
// runs entirely on the host's UI thread.
type LinedFlowLayout struct {
	ctx            LayoutContext
	dispatcher     Dispatcher
	wasInitialized bool

	elements *elementManager

	aspectRatios *ratios.Store

	// Locked items. Key: item index, value: index of the holding line.
	lockedItems             map[int]int
	isFirstOrLastItemLocked bool

	// Anchor used in bring-into-view operations to disconnected items.
	anchorIndex          int
	anchorRetentionCount int

	// Last known per-element measure widths. Elements may be recycled by the
	// host at any time; stale entries are dropped when the maps rebuild each
	// measure pass.
	elementAvailableWidths map[Element]float64
	elementDesiredWidths   map[Element]float64

	// lineItemCounts covers the sized lines on the regular path and every
	// line on the fast path.
	lineItemCounts []int

	// Items info collected through the items-info event.
	// Regular path: a sliding window stitched across measure passes.
	itemsInfoFirstIndex          int
	itemsInfoDesiredAspectRatios []float64
	itemsInfoMinWidths           []float64
	itemsInfoMaxWidths           []float64
	// Both paths: request-global bounds, -1 when unspecified.
	itemsInfoMinWidth float64
	itemsInfoMaxWidth float64
	// Regular path: resolved arrange widths over the sized item range.
	arrangeWidthsFirstIndex int
	arrangeWidths           []float64
	// Fast path: transient full-collection arrays, discarded at pass end.
	fastDesiredAspectRatios []float64
	fastMinWidths           []float64
	fastMaxWidths           []float64
	// Fast path: persisted arrange widths for the entire collection.
	fastArrangeWidths []float64
	fastPathLayout    bool

	measureCountdown int

	itemCount            int
	firstSizedLineIndex  int
	lastSizedLineIndex   int
	firstSizedItemIndex  int
	lastSizedItemIndex   int
	firstFrozenLineIndex int
	lastFrozenLineIndex  int
	firstFrozenItemIndex int
	lastFrozenItemIndex  int

	averageItems           averageItemsPerLine
	lastAverageAspectRatio float64

	isVirtualizingContext  bool
	forceRelayout          bool
	unconstrainedLayout    bool
	previousAvailableWidth float64
	maxLineWidth           float64
	roundingScaleFactor    float64

	// Configuration. lineHeight of NaN derives the height from the first item.
	lineHeight       float64
	lineSpacing      float64
	minItemSpacing   float64
	justification    ItemsJustification
	stretch          ItemsStretch
	actualLineHeight float64

	// Asynchronous re-measure timer state.
	timerTickCount int
	timerCancel    func()

	itemsInfoRequestedHandler ItemsInfoRequestedHandler
	itemsUnlockedHandler      ItemsUnlockedHandler
	measureInvalidatedHandler MeasureInvalidatedHandler

	requestedRangeStartIndex int
	requestedRangeLength     int

	lastInvalidationTrigger InvalidationTrigger

	// Instrumentation hooks.
	forcedAverageAspectRatio         float64
	forcedAverageItemsPerLineDivider float64
	forcedWrapMultiplier             float64
	fastPathSupported                bool
}

var _ VirtualizingLayout = (*LinedFlowLayout)(nil)

// NewLinedFlowLayout constructs an unbound layout with default configuration:
// derived line height, zero spacings, start justification and no stretch.
func NewLinedFlowLayout() *LinedFlowLayout {
	return &LinedFlowLayout{
		aspectRatios:            ratios.NewStore(),
		anchorIndex:             -1,
		itemsInfoFirstIndex:     -1,
		itemsInfoMinWidth:       -1,
		itemsInfoMaxWidth:       -1,
		arrangeWidthsFirstIndex: -1,
		measureCountdown:        measureCountdownStart,
		firstSizedLineIndex:     -1,
		lastSizedLineIndex:      -1,
		firstSizedItemIndex:     -1,
		lastSizedItemIndex:      -1,
		firstFrozenLineIndex:    -1,
		lastFrozenLineIndex:     -1,
		firstFrozenItemIndex:    -1,
		lastFrozenItemIndex:     -1,
		roundingScaleFactor:     1,
		lineHeight:              math.NaN(),
		fastPathSupported:       true,
	}
}

// InitializeForContext binds the layout to its hosting context. A layout
// instance cannot be shared: any second initialization fails with
// ErrLayoutShared.
func (l *LinedFlowLayout) InitializeForContext(ctx LayoutContext) error {
	if l.wasInitialized {
		return ErrLayoutShared
	}
	l.wasInitialized = true
	l.ctx = ctx
	l.elements = newElementManager(ctx)
	if d, ok := ctx.(Dispatcher); ok {
		l.dispatcher = d
	}
	return nil
}

// UninitializeForContext releases the binding: the re-measure timer is
// stopped, all items are unlocked and realized elements are recycled. The
// instance stays consumed and cannot bind again.
func (l *LinedFlowLayout) UninitializeForContext(ctx LayoutContext) {
	if l.ctx == nil || l.ctx != ctx {
		return
	}
	l.stopRemeasureTimer()
	l.unlockItems()
	l.elements.clear()
	l.ctx = nil
	l.dispatcher = nil
}

// OnItemsChanged reacts to a source collection mutation: locks are dropped,
// the sized state is rebuilt on the next measure, and a reset additionally
// forgets every tracked aspect ratio.
func (l *LinedFlowLayout) OnItemsChanged(ctx LayoutContext, change CollectionChange) {
	if l.ctx == nil || l.ctx != ctx {
		return
	}

	l.lastInvalidationTrigger = TriggerCollectionChange
	l.unlockItems()
	l.resetItemsInfo()
	l.resetSizedLines()
	l.fastArrangeWidths = nil
	l.fastPathLayout = false
	l.forceRelayout = true

	if change.Kind == CollectionReset {
		l.aspectRatios.Clear()
		l.measureCountdown = measureCountdownStart
	}

	l.invalidateMeasureAsync()
}

// Configuration accessors. Setters invalidate measure when the value changes.

// LineHeight returns the explicit line height, NaN meaning "derive from the
// first item".
func (l *LinedFlowLayout) LineHeight() float64 { return l.lineHeight }

// SetLineHeight sets an explicit line height. NaN restores derivation from
// the first item's desired height.
func (l *LinedFlowLayout) SetLineHeight(height float64) {
	if height == l.lineHeight || (math.IsNaN(height) && math.IsNaN(l.lineHeight)) {
		return
	}
	l.lineHeight = height
	l.invalidateLayout(TriggerHostInitiated)
}

// ActualLineHeight returns the effective line height: the explicit property
// or the value derived from the first item.
func (l *LinedFlowLayout) ActualLineHeight() float64 { return l.actualLineHeight }

// LineSpacing returns the vertical gap between lines.
func (l *LinedFlowLayout) LineSpacing() float64 { return l.lineSpacing }

// SetLineSpacing sets the vertical gap between lines.
func (l *LinedFlowLayout) SetLineSpacing(spacing float64) {
	if spacing == l.lineSpacing {
		return
	}
	l.lineSpacing = spacing
	l.invalidateLayout(TriggerHostInitiated)
}

// MinItemSpacing returns the minimum horizontal gap between items on a line.
func (l *LinedFlowLayout) MinItemSpacing() float64 { return l.minItemSpacing }

// SetMinItemSpacing sets the minimum horizontal gap between items on a line.
func (l *LinedFlowLayout) SetMinItemSpacing(spacing float64) {
	if spacing == l.minItemSpacing {
		return
	}
	l.minItemSpacing = spacing
	l.invalidateLayout(TriggerHostInitiated)
}

// ItemsJustification returns the horizontal distribution of under-full lines.
func (l *LinedFlowLayout) ItemsJustification() ItemsJustification { return l.justification }

// SetItemsJustification sets the horizontal distribution of under-full lines.
func (l *LinedFlowLayout) SetItemsJustification(justification ItemsJustification) {
	if justification == l.justification {
		return
	}
	l.justification = justification
	l.invalidateLayout(TriggerHostInitiated)
}

// ItemsStretch returns whether items scale up to fill under-full lines.
func (l *LinedFlowLayout) ItemsStretch() ItemsStretch { return l.stretch }

// SetItemsStretch sets whether items scale up to fill under-full lines.
func (l *LinedFlowLayout) SetItemsStretch(stretch ItemsStretch) {
	if stretch == l.stretch {
		return
	}
	l.stretch = stretch
	l.invalidateLayout(TriggerHostInitiated)
}

// Event wiring.

// OnItemsInfoRequested installs the handler answering per-item sizing
// requests. Installing or removing it resets collected sizing data.
func (l *LinedFlowLayout) OnItemsInfoRequested(handler ItemsInfoRequestedHandler) {
	l.itemsInfoRequestedHandler = handler
	l.InvalidateItemsInfo()
}

// OnItemsUnlocked installs the handler raised whenever the lock registry is
// cleared.
func (l *LinedFlowLayout) OnItemsUnlocked(handler ItemsUnlockedHandler) {
	l.itemsUnlockedHandler = handler
}

// OnMeasureInvalidated installs the handler through which the layout asks its
// host for a fresh measure pass.
func (l *LinedFlowLayout) OnMeasureInvalidated(handler MeasureInvalidatedHandler) {
	l.measureInvalidatedHandler = handler
}

// InvalidateItemsInfo drops all sizing data collected through the items-info
// event and schedules a full relayout.
func (l *LinedFlowLayout) InvalidateItemsInfo() {
	l.resetItemsInfo()
	l.resetItemsInfoForFastPath()
	l.fastArrangeWidths = nil
	l.fastPathLayout = false
	l.invalidateLayout(TriggerHostInitiated)
}

// ClearItemAspectRatios forgets every tracked aspect ratio.
func (l *LinedFlowLayout) ClearItemAspectRatios() {
	l.aspectRatios.Clear()
}

// RequestedRangeStartIndex returns the start of the most recent items-info
// request raised to the host.
func (l *LinedFlowLayout) RequestedRangeStartIndex() int { return l.requestedRangeStartIndex }

// RequestedRangeLength returns the length of the most recent items-info
// request raised to the host.
func (l *LinedFlowLayout) RequestedRangeLength() int { return l.requestedRangeLength }

// invalidateLayout marks the layout for a full relayout on the next measure
// and asks the host for one.
func (l *LinedFlowLayout) invalidateLayout(trigger InvalidationTrigger) {
	l.lastInvalidationTrigger = trigger
	l.forceRelayout = true
	if trigger == TriggerSnappedAverageChange || trigger == TriggerCollectionChange {
		l.unlockItems()
	}
	l.invalidateMeasureAsync()
}

// invalidateMeasureAsync requests a measure pass through the host dispatcher
// so a running pass is never re-entered. Without a dispatcher the request is
// delivered synchronously; hosts measuring on demand are unaffected.
func (l *LinedFlowLayout) invalidateMeasureAsync() {
	if l.measureInvalidatedHandler == nil {
		return
	}
	if l.dispatcher != nil {
		l.dispatcher.ScheduleOnce(0, l.measureInvalidatedHandler)
		return
	}
	l.measureInvalidatedHandler()
}

// setAverageItemsPerLine installs a new average pair. A change of the snapped
// value invalidates every item lock.
func (l *LinedFlowLayout) setAverageItemsPerLine(average averageItemsPerLine, unlock bool) {
	snappedChanged := average.snapped != l.averageItems.snapped
	l.averageItems = average

	if snappedChanged && unlock {
		l.lastInvalidationTrigger = TriggerSnappedAverageChange
		l.unlockItems()
	}
}

// resetSizedLines forgets the sized window so the next measure rebuilds it.
func (l *LinedFlowLayout) resetSizedLines() {
	l.firstSizedLineIndex = -1
	l.lastSizedLineIndex = -1
	l.firstSizedItemIndex = -1
	l.lastSizedItemIndex = -1
	l.firstFrozenLineIndex = -1
	l.lastFrozenLineIndex = -1
	l.firstFrozenItemIndex = -1
	l.lastFrozenItemIndex = -1
	l.lineItemCounts = nil
}

// usesFastPathLayout reports whether the current line assignments come from a
// fast-path pass covering the whole collection.
func (l *LinedFlowLayout) usesFastPathLayout() bool {
	return l.fastPathLayout
}

// lineIndexOf returns the line currently holding itemIndex: exact within the
// sized window (or everywhere on the fast path), estimated from the snapped
// average outside it. Returns -1 when no layout exists yet.
func (l *LinedFlowLayout) lineIndexOf(itemIndex int) int {
	if l.usesFastPathLayout() {
		running := 0
		for lineIndex, count := range l.lineItemCounts {
			running += count
			if itemIndex < running {
				return lineIndex
			}
		}
		return len(l.lineItemCounts) - 1
	}

	if l.firstSizedItemIndex >= 0 &&
		itemIndex >= l.firstSizedItemIndex && itemIndex <= l.lastSizedItemIndex {
		running := l.firstSizedItemIndex
		for at, count := range l.lineItemCounts {
			running += count
			if itemIndex < running {
				return l.firstSizedLineIndex + at
			}
		}
	}

	if l.averageItems.snapped <= 0 {
		return -1
	}
	return lineIndexFromAverage(itemIndex, l.averageItems.snapped)
}

// firstItemIndexInLine returns the first sized item on a sized line, or -1
// when the line lies outside the sized window.
func (l *LinedFlowLayout) firstItemIndexInLine(lineIndex int) int {
	if l.usesFastPathLayout() {
		if lineIndex < 0 || lineIndex >= len(l.lineItemCounts) {
			return -1
		}
		running := 0
		for at := 0; at < lineIndex; at++ {
			running += l.lineItemCounts[at]
		}
		return running
	}

	if l.firstSizedLineIndex < 0 ||
		lineIndex < l.firstSizedLineIndex || lineIndex > l.lastSizedLineIndex {
		return -1
	}
	running := l.firstSizedItemIndex
	for at := 0; at < lineIndex-l.firstSizedLineIndex; at++ {
		running += l.lineItemCounts[at]
	}
	return running
}

// lastItemIndexInLine returns the last sized item on a sized line, or -1.
func (l *LinedFlowLayout) lastItemIndexInLine(lineIndex int) int {
	first := l.firstItemIndexInLine(lineIndex)
	if first < 0 {
		return -1
	}
	at := lineIndex
	if !l.usesFastPathLayout() {
		at = lineIndex - l.firstSizedLineIndex
	}
	if at < 0 || at >= len(l.lineItemCounts) {
		return -1
	}
	return first + l.lineItemCounts[at] - 1
}

// wrapMultiplierValue returns the equalizing-heuristic margin multiplier,
// honoring the instrumentation override.
func (l *LinedFlowLayout) wrapMultiplierValue() float64 {
	if l.forcedWrapMultiplier > 0 {
		return l.forcedWrapMultiplier
	}
	return defaultWrapMultiplier
}

// Diagnostics.

// FirstRealizedItemIndex returns the first realized item index, or -1.
func (l *LinedFlowLayout) FirstRealizedItemIndex() int {
	if l.elements == nil {
		return -1
	}
	return l.elements.firstIndex()
}

// LastRealizedItemIndex returns the last realized item index, or -1.
func (l *LinedFlowLayout) LastRealizedItemIndex() int {
	if l.elements == nil {
		return -1
	}
	return l.elements.lastIndex()
}

// FirstFrozenItemIndex returns the first item of the frozen zone, or -1.
func (l *LinedFlowLayout) FirstFrozenItemIndex() int { return l.firstFrozenItemIndex }

// LastFrozenItemIndex returns the last item of the frozen zone, or -1.
func (l *LinedFlowLayout) LastFrozenItemIndex() int { return l.lastFrozenItemIndex }

// RawAverageItemsPerLine returns the unsnapped items-per-line estimate.
func (l *LinedFlowLayout) RawAverageItemsPerLine() float64 { return l.averageItems.raw }

// SnappedAverageItemsPerLine returns the estimate snapped to a power of 1.1,
// or 0 before the first measurement.
func (l *LinedFlowLayout) SnappedAverageItemsPerLine() float64 { return l.averageItems.snapped }

// AverageItemAspectRatio returns the average aspect ratio used by the last
// measure pass.
func (l *LinedFlowLayout) AverageItemAspectRatio() float64 { return l.lastAverageAspectRatio }

// LineIndexOfItem returns the line currently holding the item, or -1 before
// the first measure.
func (l *LinedFlowLayout) LineIndexOfItem(itemIndex int) int { return l.lineIndexOf(itemIndex) }

// LastInvalidationTrigger returns why the layout was last invalidated.
// Telemetry only; it does not change behavior.
func (l *LinedFlowLayout) LastInvalidationTrigger() InvalidationTrigger {
	return l.lastInvalidationTrigger
}

// Instrumentation hooks. Not part of the layout contract.

// SetForcedAverageAspectRatio overrides the tracked average aspect ratio.
// Zero restores normal estimation.
func (l *LinedFlowLayout) SetForcedAverageAspectRatio(ratio float64) {
	if l.forcedAverageAspectRatio == ratio {
		return
	}
	l.forcedAverageAspectRatio = ratio
	l.invalidateLayout(TriggerHostInitiated)
}

// SetForcedAverageItemsPerLineDivider divides the raw items-per-line estimate
// for testing. Zero restores normal estimation.
func (l *LinedFlowLayout) SetForcedAverageItemsPerLineDivider(divider float64) {
	if l.forcedAverageItemsPerLineDivider == divider {
		return
	}
	l.forcedAverageItemsPerLineDivider = divider
	l.invalidateLayout(TriggerHostInitiated)
}

// SetForcedWrapMultiplier overrides the equalizing-heuristic margin
// multiplier. Zero restores the default.
func (l *LinedFlowLayout) SetForcedWrapMultiplier(multiplier float64) {
	if l.forcedWrapMultiplier == multiplier {
		return
	}
	l.forcedWrapMultiplier = multiplier
	l.invalidateLayout(TriggerHostInitiated)
}

// FastPathSupported reports whether the single-pass full-collection layout
// may be engaged.
func (l *LinedFlowLayout) FastPathSupported() bool { return l.fastPathSupported }

// SetFastPathSupported turns the fast path off so sizing information for an
// entire small collection can still exercise the regular path.
func (l *LinedFlowLayout) SetFastPathSupported(supported bool) {
	if l.fastPathSupported == supported {
		return
	}
	l.fastPathSupported = supported
	if !supported {
		l.resetItemsInfoForFastPath()
		l.fastArrangeWidths = nil
		l.fastPathLayout = false
	}
	l.invalidateLayout(TriggerHostInitiated)
}
