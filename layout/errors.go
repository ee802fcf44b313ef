package layout

import "errors"

// Binding errors and out-of-range lock requests are the only failures the
// layout propagates; everything else recovers locally so the layout stays
// responsive on garbage input.
var (
	// ErrLayoutShared is returned when a layout already bound to one context
	// is initialized for another. The instance is unusable for the new host.
	ErrLayoutShared = errors.New("linedflow: layout cannot be shared between hosting contexts")

	// ErrLayoutUnbound is returned when Measure or Arrange runs before
	// InitializeForContext.
	ErrLayoutUnbound = errors.New("linedflow: layout is not initialized for a hosting context")

	// ErrItemIndexOutOfRange is returned by LockItemToLine for an index
	// outside the source collection.
	ErrItemIndexOutOfRange = errors.New("linedflow: item index out of range")
)

// InvalidationTrigger records why a layout was last invalidated.
// It exists for telemetry only and does not change behavior.
type InvalidationTrigger int

const (
	// TriggerNone means the layout has not been invalidated yet.
	TriggerNone InvalidationTrigger = iota
	// TriggerHostInitiated marks a host-driven invalidation (property change,
	// explicit relayout, items-info reset).
	TriggerHostInitiated
	// TriggerDesiredSizeChange marks an invalidation caused by an element
	// reporting a new desired width.
	TriggerDesiredSizeChange
	// TriggerSnappedAverageChange marks an invalidation caused by the snapped
	// average items-per-line moving to a new power of 1.1.
	TriggerSnappedAverageChange
	// TriggerCollectionChange marks an invalidation caused by a source
	// collection mutation.
	TriggerCollectionChange
)

// String returns the trigger name for diagnostics output.
func (t InvalidationTrigger) String() string {
	switch t {
	case TriggerHostInitiated:
		return "host-initiated"
	case TriggerDesiredSizeChange:
		return "desired-size-change"
	case TriggerSnappedAverageChange:
		return "snapped-average-change"
	case TriggerCollectionChange:
		return "collection-change"
	}
	return "none"
}
