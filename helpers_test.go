package main

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
)

// fakeLoader replays a fixed set of responses instead of driving a browser.
type fakeLoader struct {
	events []ResponseEvent
	err    error
	calls  atomic.Int32
}

func (f *fakeLoader) Load(ctx context.Context, pageURL string, onResponse func(ResponseEvent)) error {
	f.calls.Add(1)
	if f.err != nil {
		return f.err
	}
	for _, ev := range f.events {
		onResponse(ev)
	}
	return nil
}

// blockingLoader holds every load open until its context is cancelled.
type blockingLoader struct {
	started chan struct{}
}

func (l *blockingLoader) Load(ctx context.Context, pageURL string, onResponse func(ResponseEvent)) error {
	l.started <- struct{}{}
	<-ctx.Done()
	return fmt.Errorf("%w: %w", ErrNavigation, ctx.Err())
}

// recordingBus keeps every published message and delivers fired messages to subscribers.
type recordingBus struct {
	mu          sync.Mutex
	messages    []PubSubMessage
	subscribers map[string]func(PubSubMessage)
}

func (b *recordingBus) Publish(_ context.Context, msg PubSubMessage) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, msg)
	return nil
}

func (b *recordingBus) Subscribe(taskID string, callback func(PubSubMessage)) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subscribers == nil {
		b.subscribers = make(map[string]func(PubSubMessage))
	}
	b.subscribers[taskID] = callback
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subscribers, taskID)
	}, nil
}

// fire delivers msg to the subscriber of its task, as a control message would arrive.
func (b *recordingBus) fire(msg PubSubMessage) bool {
	b.mu.Lock()
	callback, ok := b.subscribers[msg.TaskID]
	b.mu.Unlock()
	if ok {
		callback(msg)
	}
	return ok
}

func (b *recordingBus) events() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.messages))
	for _, m := range b.messages {
		out = append(out, m.Event)
	}
	return out
}

func headers(kv ...string) http.Header {
	h := make(http.Header)
	for i := 0; i+1 < len(kv); i += 2 {
		h.Set(kv[i], kv[i+1])
	}
	return h
}

func withLength(n string) http.Header {
	return headers("Content-Length", n)
}

func bodyOf(b []byte) func() ([]byte, error) {
	return func() ([]byte, error) { return b, nil }
}

// samplePage is a small first-party page with one third-party script and one API call.
func samplePage() []ResponseEvent {
	return []ResponseEvent{
		{URL: "https://example.com/", Type: ResourceDocument, Headers: withLength("2048")},
		{URL: "https://example.com/site.css", Type: ResourceStylesheet, Headers: withLength("1024")},
		{URL: "https://cdn.other.net/lib.js", Type: ResourceScript, Headers: withLength("4096")},
		{URL: "https://example.com/logo.png", Type: ResourceImage, Body: bodyOf(make([]byte, 512))},
		{URL: "https://example.com/api/items", Type: ResourceFetch, Headers: withLength("256")},
		{URL: "data:image/png;base64,AAAA", Type: ResourceImage, Headers: withLength("99")},
	}
}

func newTestServer(t *testing.T, loader PageLoader) (*Server, *recordingBus) {
	t.Helper()
	store, err := OpenStore(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	bus := &recordingBus{}
	return &Server{
		analyzer:          NewAnalyzer(loader, DefaultMaxBodyBytes),
		store:             store,
		bus:               bus,
		workers:           2,
		navigationTimeout: DefaultNavigationTimeout,
	}, bus
}
