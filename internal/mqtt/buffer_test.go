package mqtt

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func TestRingBufferEmptyDrain(t *testing.T) {
	rb := newRingBuffer(10, zaptest.NewLogger(t).Sugar())
	if got := rb.drainAll(); got != nil {
		t.Errorf("expected nil from empty drain, got %d items", len(got))
	}
}

func TestRingBufferPushAndDrain(t *testing.T) {
	rb := newRingBuffer(10, zaptest.NewLogger(t).Sugar())
	for i := 0; i < 5; i++ {
		rb.push(bufferedMsg{topic: "t", payload: []byte{byte(i)}})
	}

	got := rb.drainAll()
	if len(got) != 5 {
		t.Fatalf("expected 5 items, got %d", len(got))
	}
	for i := 0; i < 5; i++ {
		if got[i].payload[0] != byte(i) {
			t.Errorf("item %d: expected payload %d, got %d", i, i, got[i].payload[0])
		}
	}

	if got2 := rb.drainAll(); got2 != nil {
		t.Errorf("expected nil from second drain, got %d items", len(got2))
	}
}

func TestRingBufferOverflowKeepsNewest(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	size := 5
	rb := newRingBuffer(size, zap.New(core).Sugar())

	// 0..7 pushed, 3..7 kept
	for i := 0; i < size+3; i++ {
		rb.push(bufferedMsg{topic: "t", payload: []byte{byte(i)}})
	}
	if rb.len() != size {
		t.Fatalf("expected len %d, got %d", size, rb.len())
	}
	if n := logs.FilterMessageSnippet("buffer full").Len(); n != 1 {
		t.Errorf("expected one overflow warning, got %d", n)
	}

	got := rb.drainAll()
	if len(got) != size {
		t.Fatalf("expected %d items, got %d", size, len(got))
	}
	for i := 0; i < size; i++ {
		want := byte(i + 3)
		if got[i].payload[0] != want {
			t.Errorf("item %d: expected payload %d, got %d", i, want, got[i].payload[0])
		}
	}
	if n := logs.FilterMessageSnippet("3 buffered messages were dropped").Len(); n != 1 {
		t.Errorf("expected drop count on drain, got %d matching logs", n)
	}

	// Overflow warning re-arms after a drain.
	for i := 0; i < size+1; i++ {
		rb.push(bufferedMsg{topic: "t"})
	}
	if n := logs.FilterMessageSnippet("buffer full").Len(); n != 2 {
		t.Errorf("expected a second overflow warning, got %d", n)
	}
}

func TestRingBufferMultipleCycles(t *testing.T) {
	rb := newRingBuffer(5, nil)

	for i := 0; i < 3; i++ {
		rb.push(bufferedMsg{topic: "t", payload: []byte{byte(i)}})
	}
	if got := rb.drainAll(); len(got) != 3 {
		t.Fatalf("cycle 1: expected 3 items, got %d", len(got))
	}

	for i := 10; i < 14; i++ {
		rb.push(bufferedMsg{topic: "t", payload: []byte{byte(i)}})
	}
	got := rb.drainAll()
	if len(got) != 4 {
		t.Fatalf("cycle 2: expected 4 items, got %d", len(got))
	}
	for i, msg := range got {
		want := byte(10 + i)
		if msg.payload[0] != want {
			t.Errorf("cycle 2 item %d: expected %d, got %d", i, want, msg.payload[0])
		}
	}
}

func TestRingBufferMinimumCapacity(t *testing.T) {
	rb := newRingBuffer(0, nil)
	rb.push(bufferedMsg{topic: "a"})
	rb.push(bufferedMsg{topic: "b"})

	got := rb.drainAll()
	if len(got) != 1 || got[0].topic != "b" {
		t.Errorf("expected only the newest message, got %+v", got)
	}
}

func TestRingBufferPreservesFields(t *testing.T) {
	rb := newRingBuffer(10, nil)
	rb.push(bufferedMsg{
		topic:    TopicSystem,
		payload:  []byte(`{"test":true}`),
		qos:      1,
		retained: true,
	})

	got := rb.drainAll()
	if len(got) != 1 {
		t.Fatalf("expected 1 item, got %d", len(got))
	}
	if got[0].topic != TopicSystem {
		t.Errorf("topic: got %s, want %s", got[0].topic, TopicSystem)
	}
	if string(got[0].payload) != `{"test":true}` {
		t.Errorf("payload: got %s", got[0].payload)
	}
	if got[0].qos != 1 {
		t.Errorf("qos: got %d, want 1", got[0].qos)
	}
	if !got[0].retained {
		t.Error("retained: got false, want true")
	}
}
