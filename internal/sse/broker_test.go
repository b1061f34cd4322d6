package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// drain collects every message currently buffered on ch.
func drain(ch chan []byte) []string {
	var out []string
	for {
		select {
		case msg := <-ch:
			out = append(out, string(msg))
		default:
			return out
		}
	}
}

func receive(t *testing.T, ch chan []byte) string {
	t.Helper()
	select {
	case msg := <-ch:
		return string(msg)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
		return ""
	}
}

func TestNoteEvent(t *testing.T) {
	tests := []struct {
		kind     string
		ids      []int64
		wantType string
		ok       bool
	}{
		{"created", []int64{1}, TypeNoteCreated, true},
		{"updated", []int64{2}, TypeNoteUpdated, true},
		{"deleted", []int64{3, 4}, TypeNoteDeleted, true},
		{"imported", []int64{5}, TypeNotesImported, true},
		{"renamed", []int64{1}, "", false},
		{"created", nil, "", false},
	}
	for _, tt := range tests {
		e, ok := noteEvent(tt.kind, tt.ids)
		if ok != tt.ok || e.Type != tt.wantType {
			t.Errorf("noteEvent(%q, %v) = %q, %v", tt.kind, tt.ids, e.Type, ok)
		}
	}
}

func TestEventEncode(t *testing.T) {
	msg, err := Event{Seq: 12, Type: TypeNoteCreated, Data: map[string]int64{"id": 7}}.encode()
	if err != nil {
		t.Fatal(err)
	}
	want := "id: 12\nevent: note.created\ndata: {\"id\":7}\n\n"
	if string(msg) != want {
		t.Errorf("encode = %q, want %q", msg, want)
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestSequenceIncreases(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: "a", Data: 1})
	b.Publish(Event{Type: "b", Data: 2})

	if first := receive(t, ch); !strings.HasPrefix(first, "id: 1\nevent: a\n") {
		t.Errorf("first = %q", first)
	}
	if second := receive(t, ch); !strings.HasPrefix(second, "id: 2\nevent: b\n") {
		t.Errorf("second = %q", second)
	}
}

func TestPublishNoteEvent_ChangedThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Only the first note event within the interval triggers notes.changed.
	b.PublishNoteEvent("created", 1)
	b.PublishNoteEvent("updated", 1)
	b.Publish(Event{Type: "custom", Data: 0})

	time.Sleep(50 * time.Millisecond)
	changed, other := 0, 0
	for _, s := range drain(ch) {
		if strings.Contains(s, "event: "+TypeNotesChanged) {
			changed++
		} else {
			other++
		}
	}
	if other != 3 {
		t.Errorf("other events = %d, want 3", other)
	}
	if changed != 1 {
		t.Errorf("changed events = %d, want 1 (throttled)", changed)
	}
}

func TestPublishNoteEvent_Payloads(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishNoteEvent("deleted", 3, 4)
	b.PublishNoteEvent("imported", 9)
	b.PublishNoteEvent("bogus", 1)
	b.PublishNoteEvent("created")

	time.Sleep(50 * time.Millisecond)
	all := strings.Join(drain(ch), "")
	for _, want := range []string{
		"event: note.deleted\ndata: {\"ids\":[3,4]}",
		"event: notes.imported\ndata: {\"ids\":[9]}",
	} {
		if !strings.Contains(all, want) {
			t.Errorf("missing %q in %q", want, all)
		}
	}
	if strings.Contains(all, "bogus") || strings.Contains(all, "note.created") {
		t.Errorf("unexpected event in %q", all)
	}
}

func TestPublishNoteEvent_CopiesIDs(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ids := []int64{1, 2}
	b.PublishNoteEvent("deleted", ids...)
	ids[0] = 99

	if msg := receive(t, ch); !strings.Contains(msg, `{"ids":[1,2]}`) {
		t.Errorf("msg = %q", msg)
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100*time.Millisecond, WithHeartbeat(20*time.Millisecond))
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.PublishNoteEvent("updated", 1)
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}
	body := w.Body.String()
	for _, want := range []string{"event: note.updated", "event: notes.changed", ": ping\n\n"} {
		if !strings.Contains(body, want) {
			t.Errorf("handler output missing %q: %q", want, body)
		}
	}

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	for i := 0; i < clientBuffer+10; i++ {
		b.Publish(Event{Type: "test", Data: i})
	}
	time.Sleep(50 * time.Millisecond)
	if got := len(drain(ch)); got != clientBuffer {
		t.Errorf("buffered = %d, want %d", got, clientBuffer)
	}
}

func TestCloseClosesSubscribers(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()

	b.Close()
	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// No-ops after close.
	b.Publish(Event{Type: TypeNoteUpdated, Data: map[string]int64{"id": 1}})
	b.PublishNoteEvent("updated", 1)
	if _, ok := <-b.Subscribe(); ok {
		t.Error("subscribe after close should return a closed channel")
	}
}
