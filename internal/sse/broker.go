// Package sse streams note change notifications to the GUI shell as
// Server-Sent Events.
package sse

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
)

// Event types sent to clients.
const (
	TypeNoteCreated   = "note.created"
	TypeNoteUpdated   = "note.updated"
	TypeNoteDeleted   = "note.deleted"
	TypeNotesImported = "notes.imported"
	TypeNotesChanged  = "notes.changed"
)

const (
	clientBuffer     = 64
	defaultHeartbeat = 25 * time.Second
)

// Event is one message on the stream. Seq is assigned by the broker and sent
// as the SSE id field.
type Event struct {
	Seq  uint64 `json:"-"`
	Type string `json:"type"`
	Data any    `json:"data"`
}

// encode renders the event in text/event-stream framing.
func (e Event) encode() ([]byte, error) {
	payload, err := json.Marshal(e.Data)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 0, len(payload)+len(e.Type)+32)
	buf = append(buf, "id: "...)
	buf = strconv.AppendUint(buf, e.Seq, 10)
	buf = append(buf, "\nevent: "...)
	buf = append(buf, e.Type...)
	buf = append(buf, "\ndata: "...)
	buf = append(buf, payload...)
	buf = append(buf, "\n\n"...)
	return buf, nil
}

// noteEvent maps a service change kind to its wire event. Single-note kinds
// carry {"id"}, batch kinds carry {"ids"}.
func noteEvent(kind string, ids []int64) (Event, bool) {
	if len(ids) == 0 {
		return Event{}, false
	}
	switch kind {
	case "created":
		return Event{Type: TypeNoteCreated, Data: map[string]int64{"id": ids[0]}}, true
	case "updated":
		return Event{Type: TypeNoteUpdated, Data: map[string]int64{"id": ids[0]}}, true
	case "deleted":
		return Event{Type: TypeNoteDeleted, Data: map[string][]int64{"ids": ids}}, true
	case "imported":
		return Event{Type: TypeNotesImported, Data: map[string][]int64{"ids": ids}}, true
	}
	return Event{}, false
}

// Option configures a Broker.
type Option func(*Broker)

// WithHeartbeat sets how often idle streams receive a comment line.
func WithHeartbeat(d time.Duration) Option {
	return func(b *Broker) {
		b.heartbeat = d
	}
}

// outgoing is a queued publish. Note events also request a throttled
// notes.changed summary.
type outgoing struct {
	event   Event
	changed bool
}

// Broker fans events out to connected clients.
//
// One loop goroutine owns the client set, the sequence counter and the
// notes.changed throttle; public methods reach it over channels and never
// block once the broker is closed.
type Broker struct {
	changedMin time.Duration
	heartbeat  time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan outgoing
	countCh       chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker starts a broker that sends at most one notes.changed event per
// changedThrottle.
func NewBroker(changedThrottle time.Duration, opts ...Option) *Broker {
	if changedThrottle <= 0 {
		changedThrottle = 2 * time.Second
	}
	b := &Broker{
		changedMin:    changedThrottle,
		heartbeat:     defaultHeartbeat,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan outgoing, 256),
		countCh:       make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.heartbeat <= 0 {
		b.heartbeat = defaultHeartbeat
	}
	go b.loop()
	return b
}

func (b *Broker) loop() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var seq uint64
	var lastChanged time.Time

	send := func(e Event) {
		seq++
		e.Seq = seq
		msg, err := e.encode()
		if err != nil {
			return
		}
		for ch := range clients {
			select {
			case ch <- msg:
			default:
				// slow client: drop rather than stall every stream
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case out := <-b.publishCh:
			send(out.event)
			if !out.changed {
				continue
			}
			if now := time.Now(); now.Sub(lastChanged) >= b.changedMin {
				lastChanged = now
				send(Event{Type: TypeNotesChanged, Data: map[string]string{}})
			}

		case resp := <-b.countCh:
			resp <- len(clients)
		}
	}
}

// Close stops the loop and closes every client channel. Safe to call twice.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe registers a client. The channel is closed on Unsubscribe or Close.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, clientBuffer)
	if b.closed.Load() {
		close(ch)
		return ch
	}
	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}
	resp := make(chan int, 1)
	select {
	case b.countCh <- resp:
	case <-b.stopped:
		return 0
	}
	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

func (b *Broker) enqueue(out outgoing) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- out:
	case <-b.stopped:
	}
}

// Publish sends an arbitrary event to all clients.
func (b *Broker) Publish(event Event) {
	b.enqueue(outgoing{event: event})
}

// PublishNoteEvent reports a note change of the given kind ("created",
// "updated", "deleted" or "imported"). Unknown kinds and empty id lists are
// ignored.
func (b *Broker) PublishNoteEvent(kind string, ids ...int64) {
	e, ok := noteEvent(kind, append([]int64(nil), ids...))
	if !ok {
		return
	}
	b.enqueue(outgoing{event: e, changed: true})
}

// ServeHTTP streams events to one client until it disconnects.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ping := time.NewTicker(b.heartbeat)
	defer ping.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			if _, err := w.Write([]byte(": ping\n\n")); err != nil {
				return
			}
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if _, err := w.Write(msg); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
