package layout

import (
	"math"

	"github.com/Krispeckt/linedflow/internal/core/geom"
	"github.com/Krispeckt/linedflow/internal/ratios"
)

// averageItemsPerLine pairs the direct items-per-line estimate with the value
// snapped to a power of 1.1. The raw value keeps tracking small oscillations
// so a drift across a snapping midpoint does not flip the snapped value.
type averageItemsPerLine struct {
	raw     float64
	snapped float64
}

// snapBase is the base of the power series the average is snapped to.
const snapBase = 1.1

// snapHysteresis is the raw-value drift below which the previous snapped
// value is retained.
const snapHysteresis = 0.1

// averageAspectRatio returns the weighted average aspect ratio of the tracked
// items, or a decaying floor while the first measure passes are still
// populating the store. The forced test hook overrides both.
func (l *LinedFlowLayout) averageAspectRatio(firstSizedItemIndex, lastSizedItemIndex int) float64 {
	if l.forcedAverageAspectRatio > 0 {
		return l.forcedAverageAspectRatio
	}

	if !l.aspectRatios.IsEmpty() {
		average := l.aspectRatios.WeightedAverage(firstSizedItemIndex, lastSizedItemIndex, ratios.MaxWeight)
		if average > 0 {
			if l.measureCountdown > 0 {
				// While the first items may still be unpopulated, clamp the
				// average between 2/3 and 3/2 to avoid extraneous
				// realizations from outlier samples.
				average = geom.ClampF64(average, 2.0/3.0, 1.5)
			}
			l.lastAverageAspectRatio = average
			return average
		}
	}

	// No samples yet: a floor that decays from 1.5 to 1.0 over the first
	// five measure passes.
	floor := 1.0 + 0.5*float64(l.measureCountdown)/float64(measureCountdownStart)
	l.lastAverageAspectRatio = floor
	return floor
}

// averageItemsPerLineFor computes the raw items-per-line estimate for the
// given available width and snaps it with hysteresis against the previous
// pair.
func (l *LinedFlowLayout) averageItemsPerLineFor(availableWidth float64) averageItemsPerLine {
	spacing := l.minItemSpacing
	avgRatio := l.averageAspectRatio(l.firstSizedItemIndex, l.lastSizedItemIndex)
	avgWidth := geom.MaxF64(1, avgRatio*l.actualLineHeight+spacing)
	raw := geom.MaxF64(1, (availableWidth+spacing)/avgWidth)

	if l.forcedAverageItemsPerLineDivider > 0 {
		raw = geom.MaxF64(1, raw/l.forcedAverageItemsPerLineDivider)
	}

	return snapAverageItemsPerLine(l.averageItems, raw)
}

// snapAverageItemsPerLine snaps newRaw to the nearest power of 1.1, retaining
// the previous snapped value when the raw drift stays within the hysteresis
// band.
func snapAverageItemsPerLine(previous averageItemsPerLine, newRaw float64) averageItemsPerLine {
	snapped := snapToPower(newRaw, snapBase)

	if previous.snapped != 0 && snapped != previous.snapped &&
		math.Abs(newRaw-previous.raw) <= snapHysteresis {
		snapped = previous.snapped
	}

	return averageItemsPerLine{raw: newRaw, snapped: snapped}
}

// snapToPower returns the power of base nearest to value in log space.
// Values of 1 or below snap to 1.
func snapToPower(value, base float64) float64 {
	if value <= 1 {
		return 1
	}
	exponent := math.Round(math.Log(value) / math.Log(base))
	return math.Pow(base, exponent)
}

// lineCountFor returns the dense line count implied by an items-per-line
// average. A zero average or empty collection yields zero lines.
func lineCountFor(itemCount int, average float64) int {
	if itemCount <= 0 || average <= 0 {
		return 0
	}
	return int(math.Ceil(float64(itemCount) / average))
}

// lineIndexFromAverage returns the line an unsized item is presumed to occupy
// given the snapped items-per-line average.
func lineIndexFromAverage(itemIndex int, average float64) int {
	if average <= 0 {
		return 0
	}
	return int(float64(itemIndex) / average)
}
