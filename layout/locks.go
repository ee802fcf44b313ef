package layout

import "sort"

// lockTable combines the external lock registry, the internal per-session
// locks of one optimization pass, and the implicit first/last item locks into
// a single lookup for the partitioner.
type lockTable struct {
	lines map[int]int

	sortedItems []int

	implicitFirstItem int
	implicitFirstLine int
	implicitLastItem  int
	implicitLastLine  int
	hasImplicit       bool
}

// newLockTable merges the lock sources. Internal locks win over external ones
// for the same item; implicit first/last locks apply when enabled and not
// superseded.
func newLockTable(external, internal map[int]int) *lockTable {
	t := &lockTable{
		lines:             make(map[int]int, len(external)+len(internal)),
		implicitFirstItem: -1,
		implicitLastItem:  -1,
	}
	for itemIndex, lineIndex := range external {
		t.lines[itemIndex] = lineIndex
	}
	for itemIndex, lineIndex := range internal {
		t.lines[itemIndex] = lineIndex
	}
	t.rebuildIndex()
	return t
}

// withImplicitBounds pins the collection's first and last items to the first
// and last lines.
func (t *lockTable) withImplicitBounds(firstItem, firstLine, lastItem, lastLine int) *lockTable {
	t.hasImplicit = true
	t.implicitFirstItem = firstItem
	t.implicitFirstLine = firstLine
	t.implicitLastItem = lastItem
	t.implicitLastLine = lastLine
	t.rebuildIndex()
	return t
}

func (t *lockTable) rebuildIndex() {
	t.sortedItems = t.sortedItems[:0]
	for itemIndex := range t.lines {
		t.sortedItems = append(t.sortedItems, itemIndex)
	}
	if t.hasImplicit {
		if _, ok := t.lines[t.implicitFirstItem]; !ok {
			t.sortedItems = append(t.sortedItems, t.implicitFirstItem)
		}
		if _, ok := t.lines[t.implicitLastItem]; !ok && t.implicitLastItem != t.implicitFirstItem {
			t.sortedItems = append(t.sortedItems, t.implicitLastItem)
		}
	}
	sort.Ints(t.sortedItems)
}

func (t *lockTable) lockedLine(itemIndex int) (int, bool) {
	if lineIndex, ok := t.lines[itemIndex]; ok {
		return lineIndex, true
	}
	if t.hasImplicit {
		if itemIndex == t.implicitFirstItem {
			return t.implicitFirstLine, true
		}
		if itemIndex == t.implicitLastItem {
			return t.implicitLastLine, true
		}
	}
	return 0, false
}

func (t *lockTable) nextLockedItem(forward bool, firstLineIndex, lastLineIndex, fromItemIndex int) (int, int, bool) {
	if len(t.sortedItems) == 0 {
		return 0, 0, false
	}

	if forward {
		at := sort.SearchInts(t.sortedItems, fromItemIndex)
		for ; at < len(t.sortedItems); at++ {
			itemIndex := t.sortedItems[at]
			lineIndex, _ := t.lockedLine(itemIndex)
			if lineIndex >= firstLineIndex && lineIndex <= lastLineIndex {
				return itemIndex, lineIndex, true
			}
		}
		return 0, 0, false
	}

	at := sort.SearchInts(t.sortedItems, fromItemIndex+1) - 1
	for ; at >= 0; at-- {
		itemIndex := t.sortedItems[at]
		lineIndex, _ := t.lockedLine(itemIndex)
		if lineIndex >= firstLineIndex && lineIndex <= lastLineIndex {
			return itemIndex, lineIndex, true
		}
	}
	return 0, 0, false
}

// LockItemToLine pins the item at itemIndex to the line it currently occupies
// and returns that line index. The assignment survives scrolling until the
// collection or the snapped items-per-line average changes.
//
// Returns -1 (and no error) when called before a snapped average exists; the
// caller should retry after the next measure. Returns ErrItemIndexOutOfRange
// for an index outside the source collection.
func (l *LinedFlowLayout) LockItemToLine(itemIndex int) (int, error) {
	if l.ctx == nil {
		return -1, ErrLayoutUnbound
	}
	if itemIndex < 0 || itemIndex >= l.ctx.ItemCount() {
		return -1, ErrItemIndexOutOfRange
	}
	if l.averageItems.snapped == 0 {
		// No measure has produced a snapped average yet.
		return -1, nil
	}

	lineIndex := l.lineIndexOf(itemIndex)
	if lineIndex < 0 {
		return -1, nil
	}

	if l.lockedItems == nil {
		l.lockedItems = make(map[int]int)
	}
	l.lockedItems[itemIndex] = lineIndex
	l.isFirstOrLastItemLocked = true
	l.closeLockedRunOnLine(lineIndex)

	l.invalidateMeasureAsync()
	return lineIndex, nil
}

// closeLockedRunOnLine locks every item strictly between the outermost locked
// items of a line, so a line's locked membership is always a contiguous run.
func (l *LinedFlowLayout) closeLockedRunOnLine(lineIndex int) {
	lowest, highest := -1, -1
	for itemIndex, locked := range l.lockedItems {
		if locked != lineIndex {
			continue
		}
		if lowest == -1 || itemIndex < lowest {
			lowest = itemIndex
		}
		if highest == -1 || itemIndex > highest {
			highest = itemIndex
		}
	}
	for itemIndex := lowest + 1; itemIndex < highest; itemIndex++ {
		l.lockedItems[itemIndex] = lineIndex
	}
}

// UnlockItems clears every external and implicit item lock and raises the
// items-unlocked event when any existed.
func (l *LinedFlowLayout) UnlockItems() {
	l.unlockItems()
}

func (l *LinedFlowLayout) unlockItems() {
	hadLocks := len(l.lockedItems) > 0 || l.isFirstOrLastItemLocked
	l.lockedItems = nil
	l.isFirstOrLastItemLocked = false

	if hadLocks && l.itemsUnlockedHandler != nil {
		l.itemsUnlockedHandler()
	}
}
