package layout

import (
	"math"
	"time"

	"github.com/Krispeckt/linedflow/internal/core/geom"
)

// LayoutContext is the hosting virtualizing container. It supplies the item
// count and viewport geometry, realizes and recycles element views on demand,
// and receives the absolute layout origin.
//
// A layout instance binds to exactly one context for its whole lifetime.
type LayoutContext interface {
	// ItemCount returns the number of items in the source collection.
	ItemCount() int

	// VisibleRect returns the scroll viewport in layout coordinates.
	VisibleRect() Rect

	// RealizationRect returns the superset of the viewport the host asks the
	// layout to realize. An infinite rect disables virtualization.
	RealizationRect() Rect

	// RecommendedAnchorIndex returns the item index the host wants kept in
	// view during a bring-into-view operation, or -1.
	RecommendedAnchorIndex() int

	// GetOrCreateElement returns the element view for the item at index,
	// creating or recycling one as needed.
	GetOrCreateElement(index int) Element

	// RecycleElement returns an element view to the host's recycle pool.
	RecycleElement(element Element)

	// SetLayoutOrigin tells the host the absolute origin of the laid-out
	// content.
	SetLayoutOrigin(origin Point)
}

// Dispatcher schedules a callback on the layout's thread. Contexts that
// support asynchronous re-measure implement it alongside LayoutContext;
// the returned cancel function stops a pending callback.
//
// The dispatcher must never run a callback concurrently with a measure or
// arrange pass.
type Dispatcher interface {
	ScheduleOnce(delay time.Duration, callback func()) (cancel func())
}

// Element is the realized visual for one item. The layout never interprets
// the item payload; it only drives the element's measure and arrange passes.
type Element interface {
	// Measure asks the element to compute its desired size for the given
	// available size.
	Measure(available Size)

	// DesiredSize returns the size computed by the last Measure call.
	DesiredSize() Size

	// Arrange positions the element within the given bounds.
	Arrange(bounds Rect)

	// RenderSize returns the size the element occupies after Arrange.
	RenderSize() Size
}

// WidthBounds is an optional element capability constraining the width the
// scaler may assign. A bound of 0 (min) or +Inf (max) is unconstrained.
type WidthBounds interface {
	MinWidth() float64
	MaxWidth() float64
}

// RasterizationScaleProvider is an optional element capability exposing the
// display's rasterization scale factor. Fetching it may fail when the element
// has no visual root yet; the layout then falls back to a factor of 1.
type RasterizationScaleProvider interface {
	RasterizationScale() (float64, error)
}

// CollectionChangeKind describes a mutation of the source collection.
type CollectionChangeKind int

const (
	// CollectionReset indicates the whole collection was replaced.
	CollectionReset CollectionChangeKind = iota
	// CollectionItemsAdded indicates Count items were inserted at Index.
	CollectionItemsAdded
	// CollectionItemsRemoved indicates Count items were removed at Index.
	CollectionItemsRemoved
	// CollectionItemsReplaced indicates Count items were replaced in place.
	CollectionItemsReplaced
	// CollectionItemsMoved indicates Count items moved to a new position.
	CollectionItemsMoved
)

// CollectionChange carries the details of a source collection mutation.
type CollectionChange struct {
	Kind  CollectionChangeKind
	Index int
	Count int
}

// VirtualizingLayout is the contract a host drives. LinedFlowLayout is the
// one implementation in this module.
type VirtualizingLayout interface {
	InitializeForContext(ctx LayoutContext) error
	UninitializeForContext(ctx LayoutContext)
	Measure(ctx LayoutContext, availableSize Size) (Size, error)
	Arrange(ctx LayoutContext, finalSize Size) Size
	OnItemsChanged(ctx LayoutContext, change CollectionChange)
}

// elementMinWidth returns the element's minimum width constraint, or 0.
func elementMinWidth(element Element) float64 {
	if wb, ok := element.(WidthBounds); ok {
		return geom.MaxF64(0, wb.MinWidth())
	}
	return 0
}

// elementMaxWidth returns the element's maximum width constraint, or +Inf.
func elementMaxWidth(element Element) float64 {
	if wb, ok := element.(WidthBounds); ok {
		if maxWidth := wb.MaxWidth(); maxWidth > 0 {
			return maxWidth
		}
	}
	return math.Inf(1)
}
