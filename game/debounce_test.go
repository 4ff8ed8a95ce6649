package game

import (
	"testing"
	"time"
)

func TestDebounce_ResetsOnFalse(t *testing.T) {
	var d Debounce
	start := time.Unix(1000, 0)

	d.Observe(true, start)
	if got := d.Observe(true, start.Add(2*time.Second)); got != 2*time.Second {
		t.Fatalf("elapsed: got %s, want 2s", got)
	}
	if got := d.Observe(false, start.Add(2500*time.Millisecond)); got != 0 {
		t.Errorf("elapsed after false: got %s, want 0", got)
	}
	if _, ok := d.Since(); ok {
		t.Error("Since should be cleared after a false observation")
	}
	// 重新开始计时
	if got := d.Observe(true, start.Add(3*time.Second)); got != 0 {
		t.Errorf("elapsed on restart: got %s, want 0", got)
	}
	if got := d.Observe(true, start.Add(4*time.Second)); got != time.Second {
		t.Errorf("elapsed after restart: got %s, want 1s", got)
	}
}

func TestDebounce_MonotonicWhileHeld(t *testing.T) {
	var d Debounce
	start := time.Unix(1000, 0)
	frame := time.Second / 30

	var prev time.Duration
	for i := 0; i <= 100; i++ {
		got := d.Observe(true, start.Add(time.Duration(i)*frame))
		if got < prev {
			t.Fatalf("tick %d: elapsed decreased from %s to %s", i, prev, got)
		}
		prev = got
	}
	if prev < 3*time.Second {
		t.Errorf("elapsed after 100 frames: got %s, want >= 3s", prev)
	}
	since, ok := d.Since()
	if !ok || !since.Equal(start) {
		t.Errorf("Since: got %v/%v, want %v/true", since, ok, start)
	}
}
