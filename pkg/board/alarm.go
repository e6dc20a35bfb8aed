//go:build rp2040

package board

import (
	"errors"
	"runtime/interrupt"
	"time"

	"device/rp"
)

// alarmIndex is the TIMER alarm used for scanlines. Alarm 0 belongs to the
// TinyGo runtime.
const alarmIndex = 2

var ErrAlarmInUse = errors.New("alarm already in use")

// activeAlarm is the timer serviced by alarmIRQ.
var activeAlarm *AlarmTimer

// AlarmTimer is a single-shot TIMER alarm. Each Rearm schedules the next
// expiry one period after the previous one, so handler latency does not
// accumulate.
type AlarmTimer struct {
	period  uint32
	next    uint32
	handler func()
	intr    interrupt.Interrupt
}

// NewAlarmTimer creates a stopped alarm firing every period.
func NewAlarmTimer(period time.Duration) *AlarmTimer {
	return &AlarmTimer{period: uint32(period / time.Microsecond)}
}

func (t *AlarmTimer) Start(handler func()) error {
	if activeAlarm != nil && activeAlarm != t {
		return ErrAlarmInUse
	}
	t.handler = handler
	activeAlarm = t

	t.intr = interrupt.New(rp.IRQ_TIMER_IRQ_2, alarmIRQ)
	t.intr.SetPriority(0x00)

	rp.TIMER.INTR.Set(1 << alarmIndex)
	rp.TIMER.INTE.SetBits(1 << alarmIndex)
	t.next = rp.TIMER.TIMERAWL.Get() + t.period
	rp.TIMER.ALARM2.Set(t.next)
	t.intr.Enable()
	return nil
}

func (t *AlarmTimer) Stop() {
	t.intr.Disable()
	rp.TIMER.INTE.ClearBits(1 << alarmIndex)
	rp.TIMER.ARMED.Set(1 << alarmIndex)
	rp.TIMER.INTR.Set(1 << alarmIndex)
	t.handler = nil
	activeAlarm = nil
}

// Rearm schedules the next expiry.
func (t *AlarmTimer) Rearm() {
	t.next += t.period
	rp.TIMER.ALARM2.Set(t.next)
}

func (t *AlarmTimer) OneShot() bool {
	return true
}

func alarmIRQ(interrupt.Interrupt) {
	rp.TIMER.INTR.Set(1 << alarmIndex)
	if t := activeAlarm; t != nil && t.handler != nil {
		t.handler()
	}
}
