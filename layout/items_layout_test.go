package layout

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// uniformWidths returns an itemWidth func mapping every index to width.
func uniformWidths(width float64) func(int) float64 {
	return func(int) float64 { return width }
}

func widthsFromSlice(widths []float64) func(int) float64 {
	return func(itemIndex int) float64 { return widths[itemIndex] }
}

// requirePartitionInvariants checks the universal partition guarantees:
// the counts sum to the range size and every line holds at least one item.
func requirePartitionInvariants(t *testing.T, layout *itemsLayout, itemTotal int) {
	t.Helper()
	require.Equal(t, itemTotal, layout.itemCount())
	for _, count := range layout.lineItemCounts {
		require.GreaterOrEqual(t, count, 1)
	}
}

func TestComputeItemsLayout_SimpleWrap(t *testing.T) {
	// Five 100-wide items, spacing 20, two lines at width 340:
	// line 0 = 100+20+100+20+100 = 340, line 1 = 100+20+100 = 220.
	layout := computeItemsLayout(partitionInput{
		itemWidth:      uniformWidths(100),
		firstItemIndex: 0,
		lastItemIndex:  4,
		firstLineIndex: 0,
		lastLineIndex:  1,
		availableWidth: 340,
		minItemSpacing: 20,
		wrapMultiplier: 2,
		forward:        true,
	})

	requirePartitionInvariants(t, layout, 5)
	require.Equal(t, []int{3, 2}, layout.lineItemCounts)
	require.InDelta(t, 340, layout.lineItemWidths[0], 1e-9)
	require.InDelta(t, 220, layout.lineItemWidths[1], 1e-9)

	// Without the trailing exemption the under-full last line costs its
	// squared deficit: (220-340)² = 14400.
	require.InDelta(t, 14400, layout.drawback, 1e-9)
}

func TestComputeItemsLayout_TrailingLineExemption(t *testing.T) {
	layout := computeItemsLayout(partitionInput{
		itemWidth:      uniformWidths(100),
		firstItemIndex: 0,
		lastItemIndex:  4,
		firstLineIndex: 0,
		lastLineIndex:  1,
		availableWidth: 340,
		minItemSpacing: 20,
		wrapMultiplier: 2,
		forward:        true,
		lastLineExempt: true,
	})

	require.Equal(t, []int{3, 2}, layout.lineItemCounts)
	require.Equal(t, 0.0, layout.drawback)
}

func TestComputeItemsLayout_OverWidthIsCubic(t *testing.T) {
	// One line, one 350-wide item at width 340: drawback = 10³.
	layout := computeItemsLayout(partitionInput{
		itemWidth:      uniformWidths(350),
		firstItemIndex: 0,
		lastItemIndex:  0,
		firstLineIndex: 0,
		lastLineIndex:  0,
		availableWidth: 340,
		wrapMultiplier: 2,
		forward:        true,
	})

	require.Equal(t, []int{1}, layout.lineItemCounts)
	require.InDelta(t, 1000, layout.drawback, 1e-9)
}

func TestComputeItemsLayout_RemainingItemsFillRemainingLines(t *testing.T) {
	// Three items on three lines must distribute one per line even though
	// they would all fit on the first.
	layout := computeItemsLayout(partitionInput{
		itemWidth:      uniformWidths(10),
		firstItemIndex: 0,
		lastItemIndex:  2,
		firstLineIndex: 0,
		lastLineIndex:  2,
		availableWidth: 1000,
		wrapMultiplier: 2,
		forward:        true,
	})

	requirePartitionInvariants(t, layout, 3)
	require.Equal(t, []int{1, 1, 1}, layout.lineItemCounts)
}

func TestComputeItemsLayout_LockedItemForcesWrap(t *testing.T) {
	// Item 2 locked to line 1: items 0-1 stay on line 0 despite the room.
	locks := newLockTable(map[int]int{2: 1}, nil)

	layout := computeItemsLayout(partitionInput{
		itemWidth:      uniformWidths(50),
		firstItemIndex: 0,
		lastItemIndex:  4,
		firstLineIndex: 0,
		lastLineIndex:  1,
		availableWidth: 1000,
		wrapMultiplier: 2,
		forward:        true,
		locks:          locks,
	})

	requirePartitionInvariants(t, layout, 5)
	require.Equal(t, []int{2, 3}, layout.lineItemCounts)
}

func TestComputeItemsLayout_LockedItemHoldsLine(t *testing.T) {
	// Item 3 locked to line 0 keeps items 0-3 cumulating past the width.
	locks := newLockTable(map[int]int{3: 0}, nil)

	layout := computeItemsLayout(partitionInput{
		itemWidth:      uniformWidths(100),
		firstItemIndex: 0,
		lastItemIndex:  4,
		firstLineIndex: 0,
		lastLineIndex:  1,
		availableWidth: 250,
		minItemSpacing: 0,
		wrapMultiplier: 2,
		forward:        true,
		locks:          locks,
	})

	requirePartitionInvariants(t, layout, 5)
	require.Equal(t, []int{4, 1}, layout.lineItemCounts)
}

func TestComputeItemsLayout_BackwardMatchesForwardOnUniformItems(t *testing.T) {
	in := partitionInput{
		itemWidth:      uniformWidths(100),
		firstItemIndex: 0,
		lastItemIndex:  5,
		firstLineIndex: 0,
		lastLineIndex:  1,
		availableWidth: 340,
		minItemSpacing: 20,
		wrapMultiplier: 2,
		forward:        true,
	}
	forward := computeItemsLayout(in)

	in.forward = false
	backward := computeItemsLayout(in)

	requirePartitionInvariants(t, backward, 6)
	require.Equal(t, forward.itemCount(), backward.itemCount())
	require.Equal(t, []int{3, 3}, forward.lineItemCounts)
	require.Equal(t, []int{3, 3}, backward.lineItemCounts)
}

func TestComputeItemsLayout_SpecialItems(t *testing.T) {
	// Lines {0,1}: [40, 200] and [30, 60]. The head of line 1 (index 2,
	// width 30) is both the smallest head and a head candidate; the tail of
	// line 0 (index 1, width 200) is the only tail candidate.
	layout := computeItemsLayout(partitionInput{
		itemWidth:      widthsFromSlice([]float64{40, 200, 30, 60}),
		firstItemIndex: 0,
		lastItemIndex:  3,
		firstLineIndex: 0,
		lastLineIndex:  1,
		availableWidth: 240,
		wrapMultiplier: 0, // plain fits/does-not-fit decisions
		forward:        true,
	})

	require.Equal(t, []int{2, 2}, layout.lineItemCounts)
	require.Equal(t, 2, layout.smallestHeadItemIndex)
	require.InDelta(t, 30, layout.smallestHeadItemWidth, 1e-9)
	require.Equal(t, 1, layout.smallestHeadLineIndex)
	require.Equal(t, 1, layout.smallestTailItemIndex)
	require.InDelta(t, 200, layout.smallestTailItemWidth, 1e-9)
	require.Equal(t, 0, layout.smallestTailLineIndex)
}

func TestComputeItemsLayout_EqualizingHeuristicPrefersBalance(t *testing.T) {
	// Four 100-wide items on two 310-wide lines, spacing 0. The plain
	// decision would put three on line 0 (300 ≤ 310) leaving one; the
	// equalizing heuristic with the average line width 200 wraps earlier.
	layout := computeItemsLayout(partitionInput{
		itemWidth:             uniformWidths(100),
		firstItemIndex:        0,
		lastItemIndex:         3,
		firstLineIndex:        0,
		lastLineIndex:         1,
		availableWidth:        310,
		averageLineItemsWidth: 200,
		minItemSpacing:        0,
		wrapMultiplier:        0.5,
		forward:               true,
	})

	requirePartitionInvariants(t, layout, 4)
	require.Equal(t, []int{2, 2}, layout.lineItemCounts)
}

func TestComputeItemsLayout_EmptyRange(t *testing.T) {
	layout := computeItemsLayout(partitionInput{
		itemWidth:      uniformWidths(100),
		firstItemIndex: 3,
		lastItemIndex:  2,
		firstLineIndex: 0,
		lastLineIndex:  0,
		availableWidth: 100,
		forward:        true,
	})
	require.Empty(t, layout.lineItemCounts)
	require.Equal(t, 0.0, layout.drawback)
}
