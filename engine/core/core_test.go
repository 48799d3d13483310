package core

import (
	"testing"
	"time"
)

func TestIdentifierPoolRecyclesSlots(t *testing.T) {
	p := NewIdentifierPool()
	a := p.AquireNewID("a")
	b := p.AquireNewID("b")
	if a == 0 || b == 0 || a == b {
		t.Fatalf("unexpected ids a=%d b=%d", a, b)
	}
	if err := p.ReleaseID(a); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := p.ReleaseID(a); err == nil {
		t.Fatalf("double release should fail")
	}
	c := p.AquireNewID("c")
	if c != a {
		t.Fatalf("expected recycled id %d, got %d", a, c)
	}
	if got := p.InUse(); got != 2 {
		t.Fatalf("InUse = %d, want 2", got)
	}
	if _, ok := p.Owner(0); ok {
		t.Fatalf("id 0 must never be owned")
	}
}

func TestFrameMetricsAverages(t *testing.T) {
	m := NewFrameMetrics()
	for i := 0; i < AVG_COUNT+5; i++ {
		m.Update(FrameSample{ElapsedSeconds: 0.016, Primitives: 40, Batches: 4})
	}
	if got := m.DrawCalls(); got != 4 {
		t.Fatalf("DrawCalls = %v, want 4", got)
	}
	if got := m.BatchingRatio(); got != 10 {
		t.Fatalf("BatchingRatio = %v, want 10", got)
	}
	if ft := m.FrameTime(); ft < 15.9 || ft > 16.1 {
		t.Fatalf("FrameTime = %v", ft)
	}
}

func TestEventBusStopsWhenHandled(t *testing.T) {
	bus := NewEventBus()
	calls := 0
	first := func(code SystemEventCode, sender, listener interface{}, data EventContext) bool {
		calls++
		return data.GUID == "stop"
	}
	second := func(code SystemEventCode, sender, listener interface{}, data EventContext) bool {
		calls++
		return false
	}
	listenerA, listenerB := new(int), new(int)
	if !bus.Register(EVENT_CODE_TEXTURE_READY, listenerA, first) {
		t.Fatal("register first")
	}
	if bus.Register(EVENT_CODE_TEXTURE_READY, listenerA, first) {
		t.Fatal("duplicate listener must be rejected")
	}
	bus.Register(EVENT_CODE_TEXTURE_READY, listenerB, second)

	if !bus.Fire(EVENT_CODE_TEXTURE_READY, nil, EventContext{GUID: "stop"}) {
		t.Fatal("event should be handled")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	bus.Fire(EVENT_CODE_TEXTURE_READY, nil, EventContext{GUID: "go"})
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
	if !bus.Unregister(EVENT_CODE_TEXTURE_READY, listenerA) {
		t.Fatal("unregister")
	}
}

func TestClockElapsed(t *testing.T) {
	now := time.Unix(100, 0)
	c := &Clock{now: func() time.Time { return now }}
	c.Update()
	if c.Elapsed() != 0 {
		t.Fatal("unstarted clock must not advance")
	}
	c.Start()
	now = now.Add(250 * time.Millisecond)
	c.Update()
	if c.Elapsed() != 0.25 {
		t.Fatalf("Elapsed = %v", c.Elapsed())
	}
}

func TestParseLogLevel(t *testing.T) {
	lvl, err := ParseLogLevel(" Debug ")
	if err != nil || lvl != LogLevelDebug {
		t.Fatalf("ParseLogLevel = %v, %v", lvl, err)
	}
	if _, err := ParseLogLevel("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
