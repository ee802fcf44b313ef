package linedflow

import (
	"github.com/Krispeckt/linedflow/layout"
	"github.com/Krispeckt/linedflow/render"
)

// Type aliases for public API.
//
// These aliases re-export types from the subpackages to present a unified
// and concise public interface under the `linedflow` namespace.
type (
	LinedFlowLayout = layout.LinedFlowLayout // The lined flow layout engine
	LayoutContext   = layout.LayoutContext   // Hosting virtualizing container
	Element         = layout.Element         // Realized item view
	Dispatcher      = layout.Dispatcher      // Host callback scheduler

	WidthBounds                = layout.WidthBounds                // Optional element width constraints
	RasterizationScaleProvider = layout.RasterizationScaleProvider // Optional display scale source

	ItemsInfoRequestedArgs = layout.ItemsInfoRequestedArgs // Per-item sizing event payload
	CollectionChange       = layout.CollectionChange       // Source collection mutation
	CollectionChangeKind   = layout.CollectionChangeKind   // Kind of collection mutation
	ItemsJustification     = layout.ItemsJustification     // Horizontal distribution of a line
	ItemsStretch           = layout.ItemsStretch           // Whether lines fill the available width
	InvalidationTrigger    = layout.InvalidationTrigger    // Telemetry: why the layout invalidated

	Size  = layout.Size  // 2D extent in layout coordinates
	Point = layout.Point // 2D coordinate in layout space
	Rect  = layout.Rect  // Axis-aligned rectangle in layout coordinates

	Font          = render.Font     // Label font for layout previews
	Snapshot      = render.Snapshot // Arranged state captured for rendering
	Box           = render.Box      // One arranged item box
	RenderOptions = render.Options  // Preview rendering options
)

// Justification and stretch options recognized by the layout.
const (
	JustifyStart        = layout.JustifyStart
	JustifyCenter       = layout.JustifyCenter
	JustifyEnd          = layout.JustifyEnd
	JustifySpaceBetween = layout.JustifySpaceBetween
	JustifySpaceAround  = layout.JustifySpaceAround
	JustifySpaceEvenly  = layout.JustifySpaceEvenly

	StretchNone = layout.StretchNone
	StretchFill = layout.StretchFill
)

// Collection change kinds forwarded to OnItemsChanged.
const (
	CollectionReset         = layout.CollectionReset
	CollectionItemsAdded    = layout.CollectionItemsAdded
	CollectionItemsRemoved  = layout.CollectionItemsRemoved
	CollectionItemsReplaced = layout.CollectionItemsReplaced
	CollectionItemsMoved    = layout.CollectionItemsMoved
)

// Binding and argument errors surfaced by the engine.
var (
	ErrLayoutShared        = layout.ErrLayoutShared
	ErrLayoutUnbound       = layout.ErrLayoutUnbound
	ErrItemIndexOutOfRange = layout.ErrItemIndexOutOfRange
)

// Constructors.
var (
	// NewLinedFlowLayout constructs an unbound layout with default
	// configuration.
	NewLinedFlowLayout = layout.NewLinedFlowLayout
)

// Preview rendering utilities.
//
// These functions rasterize an arranged layout for golden-image debugging.
var (
	// RenderSnapshot draws a snapshot of arranged boxes into an RGBA image.
	RenderSnapshot = render.Render

	// LoadFont loads a label font from a .ttf file.
	LoadFont = render.LoadFont

	// LoadFontFromBytes loads a label font from memory.
	LoadFontFromBytes = render.LoadFontFromBytes

	// MustLoadFont loads a label font and panics on failure.
	MustLoadFont = render.MustLoadFont

	// MustLoadFontFromBytes loads a label font from memory and panics on
	// failure.
	MustLoadFontFromBytes = render.MustLoadFontFromBytes

	// SetFaceCacheCapacity limits the number of cached font faces.
	SetFaceCacheCapacity = render.SetFaceCacheCapacity

	// ClearFaceCache clears all cached font faces.
	ClearFaceCache = render.ClearFaceCache
)
