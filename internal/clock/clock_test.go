package clock

import (
	"sync"
	"testing"
	"time"
)

func TestRealClock_Now(t *testing.T) {
	clock := &RealClock{}

	before := time.Now()
	actual := clock.Now()
	after := time.Now()

	if actual.Before(before) || actual.After(after) {
		t.Errorf("RealClock.Now() returned time outside expected range: got %v, expected between %v and %v", actual, before, after)
	}
}

func TestFakeClock(t *testing.T) {
	fixedTime := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	clock := NewFakeClock(fixedTime)

	t.Run("returns fixed time", func(t *testing.T) {
		if got := clock.Now(); !got.Equal(fixedTime) {
			t.Errorf("FakeClock.Now() = %v, want %v", got, fixedTime)
		}
	})

	t.Run("set and advance", func(t *testing.T) {
		newTime := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
		clock.Set(newTime)
		clock.Advance(90 * time.Second)

		want := newTime.Add(90 * time.Second)
		if got := clock.Now(); !got.Equal(want) {
			t.Errorf("FakeClock.Now() = %v, want %v", got, want)
		}
	})
}

func TestSince(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewFakeClock(start)
	clock.Advance(3 * time.Second)

	if got := Since(clock, start); got != 3*time.Second {
		t.Errorf("Since() = %v, want 3s", got)
	}
}

func TestFakeClock_ConcurrentUse(t *testing.T) {
	clock := NewFakeClock(time.Unix(0, 0))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			clock.Advance(time.Second)
			_ = clock.Now()
		}()
	}
	wg.Wait()

	if got := clock.Now(); !got.Equal(time.Unix(8, 0)) {
		t.Errorf("after 8 advances Now() = %v, want %v", got, time.Unix(8, 0))
	}
}
