package layout

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// testElement is an item view with a fixed natural size: measuring never
// changes its desired size, mirroring image-like content.
type testElement struct {
	natural      Size
	minWidth     float64
	maxWidth     float64
	measures     []Size
	arranged     Rect
	arrangeCalls int
}

func (e *testElement) Measure(available Size) { e.measures = append(e.measures, available) }
func (e *testElement) DesiredSize() Size      { return e.natural }
func (e *testElement) RenderSize() Size       { return e.arranged.Size() }
func (e *testElement) MinWidth() float64      { return e.minWidth }
func (e *testElement) MaxWidth() float64      { return e.maxWidth }
func (e *testElement) Arrange(bounds Rect) {
	e.arranged = bounds
	e.arrangeCalls++
}

// scheduledCall is one Dispatcher request captured by the test host.
type scheduledCall struct {
	delay    time.Duration
	callback func()
	canceled bool
	fired    bool
}

// testHost implements LayoutContext and Dispatcher over a fixed element set.
type testHost struct {
	elements    []*testElement
	visible     Rect
	realization Rect
	anchor      int
	createCalls int
	recycled    int
	origin      Point
	scheduled   []*scheduledCall
}

func newTestHost(count int, natural Size) *testHost {
	h := &testHost{anchor: -1}
	for i := 0; i < count; i++ {
		h.elements = append(h.elements, &testElement{natural: natural})
	}
	return h
}

func (h *testHost) ItemCount() int              { return len(h.elements) }
func (h *testHost) VisibleRect() Rect           { return h.visible }
func (h *testHost) RealizationRect() Rect       { return h.realization }
func (h *testHost) RecommendedAnchorIndex() int { return h.anchor }
func (h *testHost) RecycleElement(Element)      { h.recycled++ }
func (h *testHost) SetLayoutOrigin(origin Point) {
	h.origin = origin
}

func (h *testHost) GetOrCreateElement(index int) Element {
	h.createCalls++
	return h.elements[index]
}

func (h *testHost) ScheduleOnce(delay time.Duration, callback func()) func() {
	call := &scheduledCall{delay: delay}
	call.callback = func() {
		call.fired = true
		callback()
	}
	h.scheduled = append(h.scheduled, call)
	return func() { call.canceled = true }
}

// pendingTimers returns the armed calls, neither fired nor canceled, with a
// positive delay (the re-measure timer; zero-delay entries are invalidation
// requests).
func (h *testHost) pendingTimers() []*scheduledCall {
	var timers []*scheduledCall
	for _, call := range h.scheduled {
		if call.delay > 0 && !call.canceled && !call.fired {
			timers = append(timers, call)
		}
	}
	return timers
}

// newBoundLayout builds a layout bound to the host with a fixed line height.
func newBoundLayout(t *testing.T, host *testHost, lineHeight float64) *LinedFlowLayout {
	t.Helper()
	l := NewLinedFlowLayout()
	l.SetLineHeight(lineHeight)
	require.NoError(t, l.InitializeForContext(host))
	return l
}

// measureTwice runs two measure passes so the aspect-ratio store stabilizes
// before assertions; returns the second desired size.
func measureTwice(t *testing.T, l *LinedFlowLayout, host *testHost, available Size) Size {
	t.Helper()
	_, err := l.Measure(host, available)
	require.NoError(t, err)
	size, err := l.Measure(host, available)
	require.NoError(t, err)
	return size
}

func TestMeasure_Unbound(t *testing.T) {
	l := NewLinedFlowLayout()
	_, err := l.Measure(newTestHost(1, NewSize(100, 100)), NewSize(500, 400))
	require.ErrorIs(t, err, ErrLayoutUnbound)
}

func TestInitializeForContext_SecondBindingFails(t *testing.T) {
	host := newTestHost(1, NewSize(100, 100))
	l := NewLinedFlowLayout()
	require.NoError(t, l.InitializeForContext(host))
	require.ErrorIs(t, l.InitializeForContext(newTestHost(1, NewSize(100, 100))), ErrLayoutShared)
}

func TestMeasure_EmptyCollection(t *testing.T) {
	host := newTestHost(0, Size{})
	host.visible = NewRect(0, 0, 500, 400)
	host.realization = NewRect(0, -400, 500, 1200)

	l := newBoundLayout(t, host, 100)
	size, err := l.Measure(host, NewSize(500, 400))
	require.NoError(t, err)
	require.Equal(t, Size{}, size)
	require.Equal(t, 0, host.createCalls)
}

func TestMeasure_ZeroLineHeight(t *testing.T) {
	host := newTestHost(3, NewSize(100, 100))
	host.visible = NewRect(0, 0, 500, 400)
	host.realization = NewRect(0, -400, 500, 1200)

	l := newBoundLayout(t, host, 0)
	size, err := l.Measure(host, NewSize(500, 400))
	require.NoError(t, err)
	require.Equal(t, Size{}, size)
}

func TestMeasure_InfiniteWidthSingleLine(t *testing.T) {
	// Unconstrained width: one line, desired = Σ widths + (N-1)·spacing.
	host := newTestHost(3, NewSize(100, 100))
	host.visible = NewRect(0, 0, 500, 400)
	host.realization = InfiniteRect()

	l := newBoundLayout(t, host, 100)
	l.SetMinItemSpacing(20)

	size, err := l.Measure(host, NewSize(math.Inf(1), 400))
	require.NoError(t, err)
	require.InDelta(t, 340, size.Width, 1e-9) // 3·100 + 2·20
	require.InDelta(t, 100, size.Height, 1e-9)

	l.Arrange(host, size)
	require.Equal(t, NewRect(0, 0, 100, 100), host.elements[0].arranged)
	require.Equal(t, NewRect(120, 0, 100, 100), host.elements[1].arranged)
	require.Equal(t, NewRect(240, 0, 100, 100), host.elements[2].arranged)
}

func TestScenario_SingleWideItem(t *testing.T) {
	// N=1, item 200×100, line height 100, W=500: one line, desired
	// (500, 100), item arranged at (0, 0, 200, 100).
	host := newTestHost(1, NewSize(200, 100))
	host.visible = NewRect(0, 0, 500, 400)
	host.realization = NewRect(0, -400, 500, 1200)

	l := newBoundLayout(t, host, 100)

	size, err := l.Measure(host, NewSize(500, 400))
	require.NoError(t, err)
	require.Equal(t, NewSize(500, 100), size)

	l.Arrange(host, size)
	require.Equal(t, NewRect(0, 0, 200, 100), host.elements[0].arranged)
}

func TestScenario_SimpleWrap(t *testing.T) {
	// N=5, aspect 1.0, line height 100, W=340, spacing 20: the stabilized
	// partition is {3, 2} — line 0 = 100+20+100+20+100 = 340, line 1 = 220.
	host := newTestHost(5, NewSize(100, 100))
	host.visible = NewRect(0, 0, 340, 400)
	host.realization = NewRect(0, -400, 340, 1200)

	l := newBoundLayout(t, host, 100)
	l.SetMinItemSpacing(20)

	size := measureTwice(t, l, host, NewSize(340, 400))
	require.InDelta(t, 340, size.Width, 1e-9)
	require.InDelta(t, 200, size.Height, 1e-9)

	for itemIndex, expectedLine := range []int{0, 0, 0, 1, 1} {
		require.Equal(t, expectedLine, l.LineIndexOfItem(itemIndex), "item %d", itemIndex)
	}

	l.Arrange(host, size)
	require.Equal(t, NewRect(0, 0, 100, 100), host.elements[0].arranged)
	require.Equal(t, NewRect(120, 0, 100, 100), host.elements[1].arranged)
	require.Equal(t, NewRect(240, 0, 100, 100), host.elements[2].arranged)
	require.Equal(t, NewRect(0, 100, 100, 100), host.elements[3].arranged)
	require.Equal(t, NewRect(120, 100, 100, 100), host.elements[4].arranged)
}

func TestScenario_StretchFill(t *testing.T) {
	// Same as the simple wrap but with stretch fill: line 1 items scale by
	// 340/220 = 1.545… to ≈154.5 and stay 20 apart. Arrange snaps sizes and
	// positions to whole pixels at the default rasterization scale of 1.
	host := newTestHost(5, NewSize(100, 100))
	host.visible = NewRect(0, 0, 340, 400)
	host.realization = NewRect(0, -400, 340, 1200)

	l := newBoundLayout(t, host, 100)
	l.SetMinItemSpacing(20)
	l.SetItemsStretch(StretchFill)

	size := measureTwice(t, l, host, NewSize(340, 400))
	l.Arrange(host, size)

	scaled := 100 * 340.0 / 220.0
	require.InDelta(t, math.Round(scaled), host.elements[3].arranged.Width, 1e-6)
	require.InDelta(t, math.Round(scaled), host.elements[4].arranged.Width, 1e-6)
	require.InDelta(t, 0, host.elements[3].arranged.X, 1e-6)
	require.InDelta(t, math.Round(scaled+20), host.elements[4].arranged.X, 1e-6)
	require.InDelta(t, 100, host.elements[3].arranged.Y, 1e-6)
}

func TestScenario_LockSurvivesScrolling(t *testing.T) {
	host := newTestHost(100, NewSize(100, 100))
	host.visible = NewRect(0, 0, 340, 400)
	host.realization = NewRect(0, -400, 340, 1200)

	l := newBoundLayout(t, host, 100)
	measureTwice(t, l, host, NewSize(340, 400))

	lockedLine, err := l.LockItemToLine(50)
	require.NoError(t, err)
	require.GreaterOrEqual(t, lockedLine, 0)
	require.Equal(t, lockedLine, l.LineIndexOfItem(50))

	// Scroll several viewports down; the lock holds as long as neither the
	// collection nor the snapped average changes.
	host.visible = NewRect(0, 1600, 340, 400)
	host.realization = NewRect(0, 1200, 340, 1200)
	measureTwice(t, l, host, NewSize(340, 400))
	require.Equal(t, lockedLine, l.LineIndexOfItem(50))

	// A collection change clears the lock and raises items-unlocked.
	unlocked := false
	l.OnItemsUnlocked(func() { unlocked = true })
	l.OnItemsChanged(host, CollectionChange{Kind: CollectionItemsAdded, Index: 0, Count: 1})
	require.True(t, unlocked)
}

func TestLockItemToLine_Errors(t *testing.T) {
	host := newTestHost(10, NewSize(100, 100))
	host.visible = NewRect(0, 0, 340, 400)
	host.realization = NewRect(0, -400, 340, 1200)
	l := newBoundLayout(t, host, 100)

	_, err := l.LockItemToLine(10)
	require.ErrorIs(t, err, ErrItemIndexOutOfRange)
	_, err = l.LockItemToLine(-1)
	require.ErrorIs(t, err, ErrItemIndexOutOfRange)

	// Before the first measure there is no snapped average: sentinel -1.
	line, err := l.LockItemToLine(5)
	require.NoError(t, err)
	require.Equal(t, -1, line)
}

func TestScenario_FastPath(t *testing.T) {
	const itemCount = 10000
	host := newTestHost(itemCount, NewSize(100, 100))
	host.visible = NewRect(0, 0, 1000, 400)
	host.realization = NewRect(0, -400, 1000, 1200)

	l := newBoundLayout(t, host, 100)

	infoCalls := 0
	l.OnItemsInfoRequested(func(args *ItemsInfoRequestedArgs) {
		infoCalls++
		require.Equal(t, 0, args.ItemsRangeStartIndex())
		require.Equal(t, itemCount, args.ItemsRangeLength())
		ratios := make([]float64, itemCount)
		for i := range ratios {
			ratios[i] = 1.0
		}
		args.SetDesiredAspectRatios(ratios)
	})

	size, err := l.Measure(host, NewSize(1000, 400))
	require.NoError(t, err)
	require.Equal(t, 1, infoCalls)

	// 10 items of width 100 per 1000-wide line → 1000 lines.
	require.InDelta(t, 1000, size.Width, 1e-9)
	require.InDelta(t, 100000, size.Height, 1e-9)
	require.Equal(t, 0, l.LineIndexOfItem(5))
	require.Equal(t, 500, l.LineIndexOfItem(5005))

	// Only a window is realized, not the whole collection.
	realized := l.LastRealizedItemIndex() - l.FirstRealizedItemIndex() + 1
	require.Greater(t, realized, 0)
	require.Less(t, realized, itemCount/10)

	// Scrolling with an unchanged width issues zero sizing requests and only
	// moves the realization window.
	host.visible = NewRect(0, 50000, 1000, 400)
	host.realization = NewRect(0, 49600, 1000, 1200)
	_, err = l.Measure(host, NewSize(1000, 400))
	require.NoError(t, err)
	require.Equal(t, 1, infoCalls)
	require.Greater(t, host.recycled, 0)

	first := l.FirstRealizedItemIndex()
	require.Greater(t, first, 4000)
	require.Less(t, first, 6000)
}

func TestScenario_FastPathPartialAnswerFallsBack(t *testing.T) {
	host := newTestHost(100, NewSize(100, 100))
	host.visible = NewRect(0, 0, 1000, 400)
	host.realization = NewRect(0, -400, 1000, 1200)

	l := newBoundLayout(t, host, 100)
	l.OnItemsInfoRequested(func(args *ItemsInfoRequestedArgs) {
		// Answer only the first half of whatever was requested.
		length := args.ItemsRangeLength() / 2
		if length == 0 {
			return
		}
		args.SetItemsRangeLength(length)
		ratios := make([]float64, length)
		for i := range ratios {
			ratios[i] = 1.0
		}
		args.SetDesiredAspectRatios(ratios)
	})

	size, err := l.Measure(host, NewSize(1000, 400))
	require.NoError(t, err)
	require.Greater(t, size.Height, 0.0)
	require.False(t, l.usesFastPathLayout())
	require.GreaterOrEqual(t, l.RequestedRangeStartIndex(), 0)
	require.Greater(t, l.RequestedRangeLength(), 0)
}

func TestScenario_AnchorRetention(t *testing.T) {
	host := newTestHost(10000, NewSize(100, 100))
	host.visible = NewRect(0, 0, 1000, 400)
	host.realization = NewRect(0, -400, 1000, 1200)

	l := newBoundLayout(t, host, 100)
	measureTwice(t, l, host, NewSize(1000, 400))
	require.Less(t, l.FirstRealizedItemIndex(), 1000)

	// The host recommends a far-away anchor: realization recenters on it.
	host.anchor = 5000
	_, err := l.Measure(host, NewSize(1000, 400))
	require.NoError(t, err)
	require.Greater(t, l.FirstRealizedItemIndex(), 3000)
	require.Less(t, l.LastRealizedItemIndex(), 7000)

	// Transient -1 advertisements keep the anchor alive.
	host.anchor = -1
	for pass := 0; pass < 3; pass++ {
		_, err = l.Measure(host, NewSize(1000, 400))
		require.NoError(t, err)
	}
	require.Greater(t, l.FirstRealizedItemIndex(), 3000)

	// After the retention budget is exhausted realization follows the plain
	// scroll offset again.
	for pass := 0; pass < 10; pass++ {
		_, err = l.Measure(host, NewSize(1000, 400))
		require.NoError(t, err)
	}
	require.Less(t, l.FirstRealizedItemIndex(), 1000)
}

func TestMeasure_Idempotent(t *testing.T) {
	host := newTestHost(50, NewSize(150, 100))
	host.visible = NewRect(0, 0, 800, 400)
	host.realization = NewRect(0, -400, 800, 1200)

	l := newBoundLayout(t, host, 100)
	first := measureTwice(t, l, host, NewSize(800, 400))
	second, err := l.Measure(host, NewSize(800, 400))
	require.NoError(t, err)
	require.Equal(t, first, second)

	counts := append([]int(nil), l.lineItemCounts...)
	_, err = l.Measure(host, NewSize(800, 400))
	require.NoError(t, err)
	require.Equal(t, counts, l.lineItemCounts)
}

func TestRemeasureTimer_BackoffSchedule(t *testing.T) {
	host := newTestHost(10, NewSize(100, 100))
	host.visible = NewRect(0, 0, 500, 400)
	host.realization = NewRect(0, -400, 500, 1200)

	l := newBoundLayout(t, host, 100)
	invalidations := 0
	l.OnMeasureInvalidated(func() { invalidations++ })

	_, err := l.Measure(host, NewSize(500, 400))
	require.NoError(t, err)

	// Elements were realized without sizing info: the poller is armed at
	// the base interval.
	timers := host.pendingTimers()
	require.NotEmpty(t, timers)
	require.Equal(t, 100*time.Millisecond, timers[0].delay)

	// Firing the tick requests a measure and re-arms at 1.5× the interval.
	timers[0].callback()
	require.Greater(t, invalidations, 0)
	timers = host.pendingTimers()
	require.Equal(t, 150*time.Millisecond, timers[len(timers)-1].delay)

	// Destruction stops the timer.
	l.UninitializeForContext(host)
	require.Empty(t, host.pendingTimers())
}

func TestUninitialize_UnlocksAndRecycles(t *testing.T) {
	host := newTestHost(20, NewSize(100, 100))
	host.visible = NewRect(0, 0, 500, 400)
	host.realization = NewRect(0, -400, 500, 1200)

	l := newBoundLayout(t, host, 100)
	measureTwice(t, l, host, NewSize(500, 400))

	_, err := l.LockItemToLine(5)
	require.NoError(t, err)

	unlocked := false
	l.OnItemsUnlocked(func() { unlocked = true })

	l.UninitializeForContext(host)
	require.True(t, unlocked)
	require.Equal(t, -1, l.FirstRealizedItemIndex())
}

func TestRoundingScaleFactor_FallsBackOnError(t *testing.T) {
	host := newTestHost(4, NewSize(100, 100))
	host.visible = NewRect(0, 0, 500, 400)
	host.realization = NewRect(0, -400, 500, 1200)

	l := newBoundLayout(t, host, 100)
	size := measureTwice(t, l, host, NewSize(500, 400))
	l.Arrange(host, size)

	// Plain elements expose no rasterization scale: positions are rounded to
	// whole pixels at the default factor of 1.
	require.Equal(t, 0.0, host.elements[0].arranged.X)
}
