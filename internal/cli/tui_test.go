package cli

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/forgestats/forgestats/pkg/stats"
)

func TestFetchModelTransitions(t *testing.T) {
	events := make(chan progressEvent, 1)
	m := newFetchModel([]stats.Category{stats.CategoryStars, stats.CategoryForks}, events)

	next, _ := m.Update(eventMsg{category: "stars", state: stateFetching})
	m = next.(fetchModel)
	if m.states["stars"] != stateFetching {
		t.Errorf("stars state = %v, want fetching", m.states["stars"])
	}

	next, _ = m.Update(eventMsg{category: "stars", state: stateDone, detail: "120ms"})
	m = next.(fetchModel)
	if m.states["stars"] != stateDone {
		t.Errorf("stars state = %v, want done", m.states["stars"])
	}

	view := m.View()
	if !strings.Contains(view, "stars") || !strings.Contains(view, "forks") {
		t.Errorf("view missing categories:\n%s", view)
	}
	if !strings.Contains(view, "120ms") {
		t.Errorf("view missing detail:\n%s", view)
	}
}

func TestFetchModelQuitsWhenEventsClose(t *testing.T) {
	events := make(chan progressEvent)
	m := newFetchModel([]stats.Category{stats.CategoryStars}, events)

	_, cmd := m.Update(eventsClosedMsg{})
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
}

func TestTuiHooksNeverBlock(t *testing.T) {
	// Unbuffered channel with no reader: every send must fall through.
	events := make(chan progressEvent)
	h := &tuiFetchHooks{events: events}

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.OnFetchStart(context.Background(), "stars")
		h.OnPage(context.Background(), "stars", 1, 100)
		h.OnRetry(context.Background(), "stars", 1, time.Second, nil)
		h.OnFetchComplete(context.Background(), "stars", time.Second, nil)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hook send blocked")
	}
}

func TestWaitForEventDeliversAndCloses(t *testing.T) {
	events := make(chan progressEvent, 1)
	events <- progressEvent{category: "stars", state: stateDone}

	msg := waitForEvent(events)()
	ev, ok := msg.(eventMsg)
	if !ok || ev.category != "stars" {
		t.Fatalf("msg = %#v", msg)
	}

	close(events)
	if _, ok := waitForEvent(events)().(eventsClosedMsg); !ok {
		t.Fatal("expected eventsClosedMsg after close")
	}
}
