package gpio

import (
	"errors"
	"testing"

	"github.com/sweeney/envmon/internal/debounce"
)

func TestFakeSourceRead(t *testing.T) {
	f := NewFakeSource(map[int][]bool{
		4: {true, false, true},
	})

	want := []bool{true, false, true, true} // last sample repeats
	for i, w := range want {
		got, err := f.ReadRawState(4)
		if err != nil {
			t.Fatalf("sample %d: unexpected error: %v", i, err)
		}
		if got != w {
			t.Errorf("sample %d: expected %v, got %v", i, w, got)
		}
	}
}

func TestFakeSourcePinsAreIndependent(t *testing.T) {
	f := NewFakeSource(map[int][]bool{
		1: {true, false},
		2: {false, true},
	})

	a, _ := f.ReadRawState(1)
	b, _ := f.ReadRawState(2)
	if a != true || b != false {
		t.Errorf("first reads: got (%v, %v), want (true, false)", a, b)
	}
	a, _ = f.ReadRawState(1)
	b, _ = f.ReadRawState(2)
	if a != false || b != true {
		t.Errorf("second reads: got (%v, %v), want (false, true)", a, b)
	}
}

func TestFakeSourceNoSamples(t *testing.T) {
	f := NewFakeSource(nil)

	_, err := f.ReadRawState(3)
	if err == nil {
		t.Error("expected error with no samples")
	}
}

func TestFakeSourceError(t *testing.T) {
	f := NewFakeSource(map[int][]bool{1: {true}})
	f.ReadError = errors.New("simulated error")

	_, err := f.ReadRawState(1)
	if err == nil {
		t.Fatal("expected error to be returned")
	}
	if err.Error() != "simulated error" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFakeSourcePinError(t *testing.T) {
	f := NewFakeSource(map[int][]bool{1: {true}, 2: {true}})
	f.PinErrors[2] = errors.New("pin 2 gone")

	if _, err := f.ReadRawState(1); err != nil {
		t.Errorf("pin 1: unexpected error: %v", err)
	}
	if _, err := f.ReadRawState(2); err == nil {
		t.Error("pin 2: expected error")
	}
}

func TestFakeSourceConfigure(t *testing.T) {
	f := NewFakeSource(nil)

	if err := f.ConfigurePinMode(5, debounce.ModeInputPullup); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Modes[5] != debounce.ModeInputPullup {
		t.Errorf("expected input-pullup, got %v", f.Modes[5])
	}

	f.ConfigureError = errors.New("nope")
	if err := f.ConfigurePinMode(6, debounce.ModeInput); err == nil {
		t.Error("expected configure error")
	}
	if _, ok := f.Modes[6]; ok {
		t.Error("failed configure must not be recorded")
	}
}

func TestFakeSourceSet(t *testing.T) {
	f := NewFakeSource(map[int][]bool{1: {false, false, false}})
	f.ReadRawState(1)

	f.Set(1, true)
	for i := 0; i < 3; i++ {
		if got, _ := f.ReadRawState(1); !got {
			t.Errorf("read %d: expected held level true", i)
		}
	}
}

func TestFakeSourceClose(t *testing.T) {
	f := NewFakeSource(nil)

	if f.Closed {
		t.Error("should not be closed initially")
	}

	err := f.Close()
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if !f.Closed {
		t.Error("should be closed after Close()")
	}
}

func TestFakeSourceReset(t *testing.T) {
	f := NewFakeSource(map[int][]bool{0: {true, false}})

	// Consume first sample
	f.ReadRawState(0)

	// Reset
	f.Reset()

	// Should read first sample again
	got, _ := f.ReadRawState(0)
	if got != true {
		t.Errorf("after reset: expected true, got %v", got)
	}
}
