package mqttpub

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/earth-module/tem-dashboard/internal/catalog"
	"github.com/earth-module/tem-dashboard/internal/model"
	"github.com/earth-module/tem-dashboard/internal/state"
)

type message struct {
	topic   string
	payload []byte
}

type fakeTransport struct {
	mu       sync.Mutex
	messages []message
	err      error
}

func (f *fakeTransport) Publish(topic string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, message{topic: topic, payload: append([]byte(nil), payload...)})
	return nil
}

func (f *fakeTransport) Close() {}

func (f *fakeTransport) topics() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.messages))
	for _, m := range f.messages {
		out = append(out, m.topic)
	}
	return out
}

func (f *fakeTransport) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = nil
}

func (f *fakeTransport) last(topic string) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.messages) - 1; i >= 0; i-- {
		if f.messages[i].topic == topic {
			return f.messages[i].payload
		}
	}
	return nil
}

func newTestFeed(t *testing.T, prefix string) (*Feed, *fakeTransport, *state.Store) {
	t.Helper()
	store := state.New(catalog.Default(), state.Options{})
	transport := &fakeTransport{}
	feed := NewFeed(transport, store, prefix, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return feed, transport, store
}

func TestPublishWritesOnlyChangedTopics(t *testing.T) {
	feed, transport, store := newTestFeed(t, "")

	if err := feed.Publish(store.Snapshot()); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	want := []string{"tem/state", "tem/connection", "tem/outputs/cv1", "tem/outputs/cv2", "tem/outputs/gate1", "tem/outputs/gate2"}
	if got := transport.topics(); len(got) != len(want) {
		t.Fatalf("topics = %v, want %v", got, want)
	} else {
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("topics[%d] = %q, want %q", i, got[i], want[i])
			}
		}
	}
	if string(transport.last("tem/connection")) != "offline" {
		t.Fatalf("connection payload = %q", transport.last("tem/connection"))
	}

	transport.reset()
	snap := store.Merge(state.Partial{Outputs: &model.OutputsPayload{Levels: map[string]float64{"gate1": 0.9}}})
	if err := feed.Publish(snap); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	got := transport.topics()
	if len(got) != 2 || got[0] != "tem/state" || got[1] != "tem/outputs/gate1" {
		t.Fatalf("topics after gate change = %v", got)
	}

	var out outputMessage
	if err := json.Unmarshal(transport.last("tem/outputs/gate1"), &out); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if !out.High || out.Text != "HIGH" || out.Percent != 100 {
		t.Fatalf("gate1 = %+v", out)
	}
}

func TestPublishPropagatesTransportError(t *testing.T) {
	feed, transport, store := newTestFeed(t, "studio/tem/")
	transport.err = errors.New("broker down")
	if err := feed.Publish(store.Snapshot()); err == nil {
		t.Fatal("expected error")
	}

	// A failed connection publish is retried on the next snapshot.
	transport.err = nil
	if err := feed.Publish(store.Snapshot()); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if string(transport.last("studio/tem/connection")) != "offline" {
		t.Fatalf("topics = %v", transport.topics())
	}
}

func TestRunPublishesStoreChanges(t *testing.T) {
	feed, transport, store := newTestFeed(t, "tem")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		feed.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for transport.last("tem/state") == nil {
		if time.Now().After(deadline) {
			t.Fatal("no state published")
		}
		store.Merge(state.Partial{Outputs: &model.OutputsPayload{Levels: map[string]float64{"cv1": 0.5}}})
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
