package layout

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArrangeWidth_Resolution(t *testing.T) {
	// clamp(ratio · height · scale, min, max); ratio ≤ 0 uses the average.
	require.InDelta(t, 150, arrangeWidth(1.5, -1, -1, 100, 1.0, 1), 1e-9)
	require.InDelta(t, 100, arrangeWidth(0, -1, -1, 100, 1.0, 1), 1e-9)
	require.InDelta(t, 120, arrangeWidth(1.0, 120, -1, 100, 1.0, 1), 1e-9)
	require.InDelta(t, 90, arrangeWidth(1.5, -1, 90, 100, 1.0, 1), 1e-9)
	require.InDelta(t, 300, arrangeWidth(1.5, -1, -1, 100, 1.0, 2), 1e-9)
}

func TestCombineWidthBounds(t *testing.T) {
	// Minimums combine by max, maximums by min; -1 means unspecified.
	require.Equal(t, 120.0, combineMinWidths(120, 80))
	require.Equal(t, 120.0, combineMinWidths(80, 120))
	require.Equal(t, 80.0, combineMinWidths(-1, 80))
	require.Equal(t, 80.0, combineMinWidths(80, -1))
	require.Equal(t, -1.0, combineMinWidths(-1, -1))

	require.Equal(t, 80.0, combineMaxWidths(120, 80))
	require.Equal(t, 80.0, combineMaxWidths(80, 120))
	require.Equal(t, 80.0, combineMaxWidths(-1, 80))
	require.Equal(t, -1.0, combineMaxWidths(-1, -1))
}

func TestItemsInfoWindow_StitchOnScroll(t *testing.T) {
	host := newTestHost(200, NewSize(100, 100))
	host.visible = NewRect(0, 0, 340, 400)
	host.realization = NewRect(0, -400, 340, 1200)

	l := NewLinedFlowLayout()
	l.SetLineHeight(100)
	require.NoError(t, l.InitializeForContext(host))
	l.SetFastPathSupported(false)

	var requests [][2]int
	l.OnItemsInfoRequested(func(args *ItemsInfoRequestedArgs) {
		requests = append(requests, [2]int{args.ItemsRangeStartIndex(), args.ItemsRangeLength()})
		ratios := make([]float64, args.ItemsRangeLength())
		for i := range ratios {
			ratios[i] = 1.0
		}
		args.SetDesiredAspectRatios(ratios)
	})

	_, err := l.Measure(host, NewSize(340, 400))
	require.NoError(t, err)
	require.NotEmpty(t, requests)
	firstWindow := [2]int{l.itemsInfoFirstIndex, l.itemsInfoLen()}

	// Scroll by a small amount: the overlapping entries are copied and only
	// the missing suffix is requested, never the full window again.
	requests = nil
	host.visible = NewRect(0, 400, 340, 400)
	host.realization = NewRect(0, 0, 340, 1200)
	_, err = l.Measure(host, NewSize(340, 400))
	require.NoError(t, err)

	for _, request := range requests {
		require.Less(t, request[1], firstWindow[1],
			"scroll should request only missing segments, got %v", request)
	}
}

func TestItemsInfoArgs_DetachedWritesAreNoOps(t *testing.T) {
	host := newTestHost(10, NewSize(100, 100))
	host.visible = NewRect(0, 0, 340, 400)
	host.realization = NewRect(0, -400, 340, 1200)

	l := NewLinedFlowLayout()
	l.SetLineHeight(100)
	require.NoError(t, l.InitializeForContext(host))

	var captured *ItemsInfoRequestedArgs
	l.OnItemsInfoRequested(func(args *ItemsInfoRequestedArgs) {
		captured = args
		ratios := make([]float64, args.ItemsRangeLength())
		for i := range ratios {
			ratios[i] = 1.0
		}
		args.SetDesiredAspectRatios(ratios)
	})

	_, err := l.Measure(host, NewSize(340, 400))
	require.NoError(t, err)
	require.NotNil(t, captured)

	// Late writes to the detached args object change nothing.
	before := captured.ItemsRangeLength()
	captured.SetItemsRangeLength(before + 5)
	require.Equal(t, before, captured.ItemsRangeLength())
	captured.SetMinWidth(50)
	require.Equal(t, -1.0, captured.minWidth)
}
