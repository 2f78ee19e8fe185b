package debounce

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

func TestButtonDefaultsActiveHigh(t *testing.T) {
	src := newFakeSource()
	mock := clock.NewMock()
	b := NewButton(src, mock)
	b.SetInterval(0)
	if err := b.AttachMode(3, ModeInputPulldown); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !b.ActiveLevel() {
		t.Fatal("expected default active level high")
	}

	src.levels[3] = true
	mock.Add(time.Millisecond)
	b.Update()
	if !b.Pressed() || b.Released() {
		t.Errorf("rising edge: pressed=%v released=%v, want true/false", b.Pressed(), b.Released())
	}
	if !b.IsDown() {
		t.Error("expected IsDown after press")
	}

	src.levels[3] = false
	mock.Add(time.Millisecond)
	b.Update()
	if b.Pressed() || !b.Released() {
		t.Errorf("falling edge: pressed=%v released=%v, want false/true", b.Pressed(), b.Released())
	}
	if b.IsDown() {
		t.Error("expected not IsDown after release")
	}
}

func TestButtonActiveLowScenario(t *testing.T) {
	src := newFakeSource()
	src.levels[2] = true // pulled up, not pressed
	mock := clock.NewMock()
	b := NewButton(src, mock)
	b.SetActiveLevel(false)
	b.SetInterval(0)
	if err := b.AttachMode(2, ModeInputPullup); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seq := bits("1 1 1 0 0 0 1 1 1")
	for i, level := range seq {
		src.levels[2] = level
		if i > 0 {
			mock.Add(time.Millisecond)
		}
		if _, err := b.Update(); err != nil {
			t.Fatalf("tick %d: unexpected error: %v", i, err)
		}

		wantPressed := i == 3
		wantReleased := i == 6
		if b.Pressed() != wantPressed {
			t.Errorf("tick %d: pressed = %v, want %v", i, b.Pressed(), wantPressed)
		}
		if b.Released() != wantReleased {
			t.Errorf("tick %d: released = %v, want %v", i, b.Released(), wantReleased)
		}
	}
}

func TestButtonPressedAndReleasedExclusive(t *testing.T) {
	src := newFakeSource()
	mock := clock.NewMock()
	b := NewButton(src, mock)
	b.SetInterval(3)
	if err := b.Attach(0); err != nil {
		t.Fatal(err)
	}

	seq := bits("0 1 1 1 1 0 1 0 0 0 0 1 1 1 1 1 0 0 0 0 0")
	for i, level := range seq {
		src.levels[0] = level
		mock.Add(time.Millisecond)
		b.Update()
		if b.Pressed() && b.Released() {
			t.Fatalf("tick %d: pressed and released both true", i)
		}
		if b.Changed() != (b.Pressed() || b.Released()) {
			t.Fatalf("tick %d: changed=%v but pressed=%v released=%v", i, b.Changed(), b.Pressed(), b.Released())
		}
	}
}

func TestButtonLevelChangeIsNotRetroactive(t *testing.T) {
	src := newFakeSource()
	mock := clock.NewMock()
	b := NewButton(src, mock)
	b.SetInterval(0)
	if err := b.Attach(1); err != nil {
		t.Fatal(err)
	}

	src.levels[1] = true
	mock.Add(time.Millisecond)
	b.Update()
	consumed := b.Pressed()
	if !consumed {
		t.Fatal("expected press with active-high wiring")
	}

	b.SetActiveLevel(false)
	if !consumed {
		t.Error("an already consumed result must not change")
	}

	// The next tick has no flip, so neither edge is reported.
	mock.Add(time.Millisecond)
	b.Update()
	if b.Pressed() || b.Released() {
		t.Error("no edge expected without a flip")
	}

	// The next flip is evaluated with the new level: high to low is a press now.
	src.levels[1] = false
	mock.Add(time.Millisecond)
	b.Update()
	if !b.Pressed() {
		t.Error("expected press under active-low after reconfiguration")
	}
	if b.Released() {
		t.Error("unexpected release")
	}
}

func TestButtonHeldDurationOnRelease(t *testing.T) {
	src := newFakeSource()
	mock := clock.NewMock()
	b := NewButton(src, mock)
	b.SetInterval(10)
	if err := b.Attach(6); err != nil {
		t.Fatal(err)
	}

	src.levels[6] = true
	b.Update()
	mock.Add(10 * time.Millisecond)
	b.Update()
	if !b.Pressed() {
		t.Fatal("expected press")
	}

	mock.Add(700 * time.Millisecond)
	src.levels[6] = false
	b.Update()
	mock.Add(10 * time.Millisecond)
	b.Update()
	if !b.Released() {
		t.Fatal("expected release")
	}
	if b.PreviousDuration() != 710*time.Millisecond {
		t.Errorf("held for %v, want 710ms", b.PreviousDuration())
	}
}
