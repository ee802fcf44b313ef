package layout

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// managerHost is a minimal LayoutContext for exercising the element manager.
type managerHost struct {
	count    int
	created  map[int]Element
	recycled int
}

func newManagerHost(count int) *managerHost {
	return &managerHost{count: count, created: make(map[int]Element)}
}

func (h *managerHost) ItemCount() int               { return h.count }
func (h *managerHost) VisibleRect() Rect            { return Rect{} }
func (h *managerHost) RealizationRect() Rect        { return Rect{} }
func (h *managerHost) RecommendedAnchorIndex() int  { return -1 }
func (h *managerHost) RecycleElement(Element)       { h.recycled++ }
func (h *managerHost) SetLayoutOrigin(Point)        {}
func (h *managerHost) GetOrCreateElement(index int) Element {
	if e, ok := h.created[index]; ok {
		return e
	}
	e := &stubElement{}
	h.created[index] = e
	return e
}

// stubElement satisfies Element with fixed sizes.
type stubElement struct {
	desired  Size
	arranged Rect
}

func (e *stubElement) Measure(Size)        {}
func (e *stubElement) DesiredSize() Size   { return e.desired }
func (e *stubElement) Arrange(bounds Rect) { e.arranged = bounds }
func (e *stubElement) RenderSize() Size    { return e.arranged.Size() }

func TestElementManager_ContiguousGrowth(t *testing.T) {
	host := newManagerHost(100)
	m := newElementManager(host)

	require.Equal(t, -1, m.firstIndex())
	require.Equal(t, 0, m.realizedCount())

	m.ensureRealized(true, 10)
	m.ensureRealized(true, 11)
	m.ensureRealized(true, 12)
	require.Equal(t, 10, m.firstIndex())
	require.Equal(t, 12, m.lastIndex())
	require.Equal(t, 3, m.realizedCount())

	// Backward extension.
	m.ensureRealized(false, 9)
	require.Equal(t, 9, m.firstIndex())
	require.Equal(t, 4, m.realizedCount())

	// Re-requesting a realized index is a no-op.
	m.ensureRealized(true, 11)
	require.Equal(t, 4, m.realizedCount())

	require.NotNil(t, m.get(10))
	require.Nil(t, m.get(50))
}

func TestElementManager_DisconnectedRealizationRestartsWindow(t *testing.T) {
	host := newManagerHost(100)
	m := newElementManager(host)

	m.ensureRealized(true, 0)
	m.ensureRealized(true, 1)

	// Jumping far away recycles the old window and restarts.
	m.ensureRealized(true, 70)
	require.Equal(t, 70, m.firstIndex())
	require.Equal(t, 1, m.realizedCount())
	require.Equal(t, 2, host.recycled)
}

func TestElementManager_DiscardOutside(t *testing.T) {
	host := newManagerHost(100)
	m := newElementManager(host)
	for i := 10; i <= 19; i++ {
		m.ensureRealized(true, i)
	}

	// Drop the head: keep [13, 19].
	m.discardOutside(true, 13)
	require.Equal(t, 13, m.firstIndex())
	require.Equal(t, 7, m.realizedCount())
	require.Equal(t, 3, host.recycled)

	// Drop the tail: keep [13, 16].
	m.discardOutside(false, 17)
	require.Equal(t, 13, m.firstIndex())
	require.Equal(t, 16, m.lastIndex())
	require.Equal(t, 6, host.recycled)

	// Boundaries beyond the window recycle everything.
	m.discardOutside(true, 40)
	require.Equal(t, 0, m.realizedCount())
	require.Equal(t, 10, host.recycled)
}

func TestElementManager_Clear(t *testing.T) {
	host := newManagerHost(10)
	m := newElementManager(host)
	m.ensureRealized(true, 3)
	m.ensureRealized(true, 4)

	m.clear()
	require.Equal(t, 0, m.realizedCount())
	require.Equal(t, -1, m.firstIndex())
	require.Equal(t, -1, m.lastIndex())
	require.Equal(t, 2, host.recycled)
}
