package layout

import "github.com/Krispeckt/linedflow/internal/core/geom"

// lineOffsets resolves a line's starting offset and effective inter-item gap
// for the current justification. remaining is the slack left after item
// widths and minimum spacings.
func lineOffsets(justification ItemsJustification, remaining, minItemSpacing float64, count int) (start, gap float64) {
	if remaining < 0 {
		remaining = 0
	}
	gap = minItemSpacing

	switch justification {
	case JustifyCenter:
		start = remaining / 2
	case JustifyEnd:
		start = remaining
	case JustifySpaceBetween:
		if count > 1 {
			gap += remaining / float64(count-1)
		}
	case JustifySpaceAround:
		if count > 0 {
			extra := remaining / float64(count)
			gap += extra
			start = extra / 2
		}
	case JustifySpaceEvenly:
		if count > 0 {
			extra := remaining / float64(count+1)
			gap += extra
			start = extra
		}
	default: // JustifyStart
	}
	return start, gap
}

// arrangeConstrainedLines places the realized elements line by line. Lines
// are walked from the first line whose membership the committed partition
// knows; items without a realized element are skipped, their widths still
// advance the cursor so neighbors keep their places.
func (l *LinedFlowLayout) arrangeConstrainedLines(finalSize Size) {
	if len(l.lineItemCounts) == 0 {
		return
	}

	availableWidth := finalSize.Width
	pitch := l.linePitch()
	scale := l.roundingScaleFactor

	firstLine := l.firstSizedLineIndex
	firstItem := l.firstSizedItemIndex
	if l.usesFastPathLayout() {
		firstLine = 0
		firstItem = 0
	}

	itemIndex := firstItem
	for at, count := range l.lineItemCounts {
		lineIndex := firstLine + at
		lineTop := float64(lineIndex) * pitch

		lineWidth := 0.0
		for i := 0; i < count; i++ {
			lineWidth += l.arrangeWidthAt(itemIndex + i)
		}
		spacings := float64(geom.MaxInt(0, count-1)) * l.minItemSpacing

		var start, gap float64
		if l.stretch == StretchFill {
			// Scaling already fills the line; distribute the rounding residue
			// across the gaps.
			start = 0
			gap = l.minItemSpacing
			if count > 1 {
				residue := availableWidth - lineWidth - spacings
				if residue > 0 && residue < 1 {
					gap += residue / float64(count-1)
				}
			}
		} else {
			start, gap = lineOffsets(l.justification, availableWidth-lineWidth-spacings, l.minItemSpacing, count)
		}

		x := start
		for i := 0; i < count; i++ {
			width := l.arrangeWidthAt(itemIndex + i)
			if element := l.elements.get(itemIndex + i); element != nil {
				element.Arrange(NewRect(
					geom.RoundToScale(x, scale),
					geom.RoundToScale(lineTop, scale),
					geom.RoundToScale(width, scale),
					geom.RoundToScale(l.actualLineHeight, scale)))
			}
			x += width + gap
		}

		itemIndex += count
	}
}
