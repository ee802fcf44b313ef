package layout

import (
	"math"
	"time"
)

// The re-measure timer covers hosts whose items load content lazily: the host
// will not re-measure the container when only a child changes, so the layout
// polls. Eight ticks starting at 100 ms, each interval 1.5 times the prior,
// about five seconds in total.
const (
	remeasureTickTotal    = 8
	remeasureBaseInterval = 100 * time.Millisecond
	remeasureBackoff      = 1.5
)

// startRemeasureTimer arms the single-shot timer for the given tick. It is a
// no-op without a host dispatcher.
func (l *LinedFlowLayout) startRemeasureTimer(tickCount int) {
	if l.dispatcher == nil || tickCount >= remeasureTickTotal {
		return
	}
	l.stopRemeasureTimer()

	l.timerTickCount = tickCount
	interval := time.Duration(float64(remeasureBaseInterval) *
		math.Pow(remeasureBackoff, float64(tickCount)))
	l.timerCancel = l.dispatcher.ScheduleOnce(interval, l.remeasureTimerTick)
}

// remeasureTimerTick requests a measure pass and re-arms the timer until the
// tick budget runs out. The host dispatcher guarantees the tick never runs
// concurrently with a measure.
func (l *LinedFlowLayout) remeasureTimerTick() {
	l.timerCancel = nil

	if l.ctx == nil || l.ctx.ItemCount() == 0 {
		return
	}
	if l.measureInvalidatedHandler != nil {
		l.measureInvalidatedHandler()
	}
	if l.timerTickCount+1 < remeasureTickTotal {
		l.startRemeasureTimer(l.timerTickCount + 1)
	}
}

// stopRemeasureTimer cancels a pending tick.
func (l *LinedFlowLayout) stopRemeasureTimer() {
	if l.timerCancel != nil {
		l.timerCancel()
		l.timerCancel = nil
	}
}

// restartRemeasureTimerIfIdle arms the timer from tick zero when it is not
// already pending. Called when an element is realized without sizing info.
func (l *LinedFlowLayout) restartRemeasureTimerIfIdle() {
	if l.timerCancel == nil {
		l.startRemeasureTimer(0)
	}
}
