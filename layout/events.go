package layout

// ItemsInfoRequestedArgs is handed to the items-info handler during a measure
// pass. The handler fills in per-item sizing data for the requested range; it
// may widen the range (more data than requested) or narrow it (partial data,
// which forces the regular path).
//
// The args object is detached when the event returns: late writes from a
// handler that captured it become no-ops.
type ItemsInfoRequestedArgs struct {
	itemsRangeStartIndex int
	itemsRangeLength     int
	minWidth             float64
	maxWidth             float64
	desiredAspectRatios  []float64
	minWidths            []float64
	maxWidths            []float64
	detached             bool
}

func newItemsInfoRequestedArgs(startIndex, length int) *ItemsInfoRequestedArgs {
	return &ItemsInfoRequestedArgs{
		itemsRangeStartIndex: startIndex,
		itemsRangeLength:     length,
		minWidth:             -1,
		maxWidth:             -1,
	}
}

// ItemsRangeStartIndex returns the first item index of the requested range.
func (a *ItemsInfoRequestedArgs) ItemsRangeStartIndex() int {
	return a.itemsRangeStartIndex
}

// SetItemsRangeStartIndex lets the handler widen the range it answers for.
// The provided value must not exceed the requested start index.
func (a *ItemsInfoRequestedArgs) SetItemsRangeStartIndex(startIndex int) {
	if a.detached {
		return
	}
	a.itemsRangeStartIndex = startIndex
}

// ItemsRangeLength returns the number of items the handler is asked about.
func (a *ItemsInfoRequestedArgs) ItemsRangeLength() int {
	return a.itemsRangeLength
}

// SetItemsRangeLength lets the handler adjust the range length it answers for.
func (a *ItemsInfoRequestedArgs) SetItemsRangeLength(length int) {
	if a.detached {
		return
	}
	a.itemsRangeLength = length
}

// SetMinWidth sets a minimum arrange width applied to every item in the
// range. -1 leaves it unspecified.
func (a *ItemsInfoRequestedArgs) SetMinWidth(minWidth float64) {
	if a.detached {
		return
	}
	a.minWidth = minWidth
}

// SetMaxWidth sets a maximum arrange width applied to every item in the
// range. -1 leaves it unspecified.
func (a *ItemsInfoRequestedArgs) SetMaxWidth(maxWidth float64) {
	if a.detached {
		return
	}
	a.maxWidth = maxWidth
}

// SetDesiredAspectRatios provides one aspect ratio per item in the range.
// A value of 0 or below means "use the running average aspect ratio".
func (a *ItemsInfoRequestedArgs) SetDesiredAspectRatios(ratios []float64) {
	if a.detached {
		return
	}
	a.desiredAspectRatios = ratios
}

// SetMinWidths provides an optional per-item minimum width array parallel to
// the desired aspect ratios.
func (a *ItemsInfoRequestedArgs) SetMinWidths(minWidths []float64) {
	if a.detached {
		return
	}
	a.minWidths = minWidths
}

// SetMaxWidths provides an optional per-item maximum width array parallel to
// the desired aspect ratios.
func (a *ItemsInfoRequestedArgs) SetMaxWidths(maxWidths []float64) {
	if a.detached {
		return
	}
	a.maxWidths = maxWidths
}

// detach invalidates the args object after the event returns.
func (a *ItemsInfoRequestedArgs) detach() {
	a.detached = true
}

// ItemsInfoRequestedHandler answers a sizing request during measure.
// It runs synchronously inside the measure pass that raised it.
type ItemsInfoRequestedHandler func(args *ItemsInfoRequestedArgs)

// ItemsUnlockedHandler is raised whenever the lock registry is cleared.
type ItemsUnlockedHandler func()

// MeasureInvalidatedHandler is raised, through the host dispatcher when one
// is available, when the layout wants a fresh measure pass.
type MeasureInvalidatedHandler func()
