package cli

import (
	"testing"
	"time"
)

// fires counts how many times the debouncer delivers within the window.
func fires(d *debouncer, window time.Duration) int {
	n := 0
	deadline := time.After(window)
	for {
		select {
		case <-d.C():
			n++
		case <-deadline:
			return n
		}
	}
}

func TestDebouncerCoalescesBurst(t *testing.T) {
	d := newDebouncer(20 * time.Millisecond)
	defer d.stop()

	d.trigger()
	d.trigger()
	d.trigger()

	if n := fires(d, 200*time.Millisecond); n != 1 {
		t.Errorf("burst of 3 triggers fired %d times, want 1", n)
	}
}

func TestDebouncerDrainsStaleFire(t *testing.T) {
	d := newDebouncer(20 * time.Millisecond)
	defer d.stop()

	// Let the first countdown elapse without consuming the fire, then
	// retrigger. Only the rescheduled fire may come through.
	d.trigger()
	time.Sleep(60 * time.Millisecond)
	d.trigger()

	if n := fires(d, 200*time.Millisecond); n != 1 {
		t.Errorf("retrigger after an unconsumed fire delivered %d times, want 1", n)
	}
}

func TestDebouncerSilentBeforeFirstTrigger(t *testing.T) {
	d := newDebouncer(time.Millisecond)
	select {
	case <-d.C():
		t.Error("fired before any trigger")
	case <-time.After(20 * time.Millisecond):
	}
}
