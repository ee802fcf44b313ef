package layout

// elementManager owns the realized item-index window and the index-to-element
// mapping. The realized range is always contiguous: items outside the current
// range can only be added at one of its ends, and discarding recycles whole
// prefixes or suffixes.
type elementManager struct {
	ctx                LayoutContext
	elements           []Element
	firstRealizedIndex int
}

func newElementManager(ctx LayoutContext) *elementManager {
	return &elementManager{ctx: ctx, firstRealizedIndex: -1}
}

// realizedCount returns the number of realized elements.
func (m *elementManager) realizedCount() int {
	return len(m.elements)
}

// firstIndex returns the first realized item index, or -1 when the window is
// empty.
func (m *elementManager) firstIndex() int {
	if len(m.elements) == 0 {
		return -1
	}
	return m.firstRealizedIndex
}

// lastIndex returns the last realized item index, or -1 when the window is
// empty.
func (m *elementManager) lastIndex() int {
	if len(m.elements) == 0 {
		return -1
	}
	return m.firstRealizedIndex + len(m.elements) - 1
}

// isRealized reports whether the item at itemIndex has a realized element.
func (m *elementManager) isRealized(itemIndex int) bool {
	return len(m.elements) > 0 &&
		itemIndex >= m.firstRealizedIndex &&
		itemIndex < m.firstRealizedIndex+len(m.elements)
}

// get returns the element realized for itemIndex, or nil when the index lies
// outside the realized window.
func (m *elementManager) get(itemIndex int) Element {
	if !m.isRealized(itemIndex) {
		return nil
	}
	return m.elements[itemIndex-m.firstRealizedIndex]
}

// ensureRealized realizes the element for itemIndex through the host and
// returns it. The window grows at its near end when forward is false and at
// its far end when forward is true; an index that is not adjacent to the
// current window restarts the window at that index.
func (m *elementManager) ensureRealized(forward bool, itemIndex int) Element {
	if element := m.get(itemIndex); element != nil {
		return element
	}

	element := m.ctx.GetOrCreateElement(itemIndex)
	if element == nil {
		return nil
	}

	switch {
	case len(m.elements) == 0:
		m.firstRealizedIndex = itemIndex
		m.elements = append(m.elements, element)
	case forward && itemIndex == m.firstRealizedIndex+len(m.elements):
		m.elements = append(m.elements, element)
	case !forward && itemIndex == m.firstRealizedIndex-1:
		m.elements = append([]Element{element}, m.elements...)
		m.firstRealizedIndex = itemIndex
	default:
		// Disconnected realization: recycle the current window and restart.
		m.clear()
		m.firstRealizedIndex = itemIndex
		m.elements = append(m.elements, element)
	}
	return element
}

// discardOutside recycles realized elements at one end of the window.
// With forward true, elements before boundaryIndex are recycled; with forward
// false, elements from boundaryIndex onward are recycled.
func (m *elementManager) discardOutside(forward bool, boundaryIndex int) {
	if len(m.elements) == 0 {
		return
	}

	if forward {
		drop := boundaryIndex - m.firstRealizedIndex
		if drop <= 0 {
			return
		}
		if drop >= len(m.elements) {
			m.clear()
			return
		}
		for _, element := range m.elements[:drop] {
			m.ctx.RecycleElement(element)
		}
		m.elements = m.elements[drop:]
		m.firstRealizedIndex = boundaryIndex
		return
	}

	keep := boundaryIndex - m.firstRealizedIndex
	if keep >= len(m.elements) {
		return
	}
	if keep <= 0 {
		m.clear()
		return
	}
	for _, element := range m.elements[keep:] {
		m.ctx.RecycleElement(element)
	}
	m.elements = m.elements[:keep]
}

// clear recycles every realized element and empties the window.
func (m *elementManager) clear() {
	for _, element := range m.elements {
		m.ctx.RecycleElement(element)
	}
	m.elements = nil
	m.firstRealizedIndex = -1
}
