package events

import (
	"testing"

	"github.com/jscyril/golang_music_sync/api"
)

func TestPublish_RoutesByType(t *testing.T) {
	bus := NewEventBus()
	markers := bus.Subscribe(api.EventMarkerCrossed)
	seeks := bus.Subscribe(api.EventSeek)

	bus.Publish(api.Event{Type: api.EventMarkerCrossed, Payload: "a"})

	select {
	case ev := <-markers:
		if ev.Payload != "a" {
			t.Errorf("payload = %v, want a", ev.Payload)
		}
	default:
		t.Fatal("marker subscriber received nothing")
	}

	select {
	case ev := <-seeks:
		t.Errorf("seek subscriber received %v", ev)
	default:
	}
}

func TestSubscribeAll(t *testing.T) {
	bus := NewEventBus()
	all := bus.SubscribeAll()

	for _, et := range api.AllEventTypes {
		bus.Publish(api.Event{Type: et})
	}

	if got := len(all); got != len(api.AllEventTypes) {
		t.Errorf("buffered events = %d, want %d", got, len(api.AllEventTypes))
	}
}

func TestPublish_FullChannelDoesNotBlock(t *testing.T) {
	bus := NewEventBus()
	ch := bus.Subscribe(api.EventCursorChanged)

	for i := 0; i < 100; i++ {
		bus.Publish(api.Event{Type: api.EventCursorChanged, Payload: i})
	}

	if got := len(ch); got != cap(ch) {
		t.Errorf("len = %d, want %d", got, cap(ch))
	}
}

func TestUnsubscribe(t *testing.T) {
	bus := NewEventBus()
	ch := bus.Subscribe(api.EventSeek, api.EventPause)
	bus.Unsubscribe(ch)

	bus.Publish(api.Event{Type: api.EventSeek})

	if _, ok := <-ch; ok {
		t.Error("expected closed channel after Unsubscribe")
	}
}

func TestClose_Idempotent(t *testing.T) {
	bus := NewEventBus()
	ch := bus.SubscribeAll()

	bus.Close()
	bus.Close()

	if _, ok := <-ch; ok {
		t.Error("expected closed channel after Close")
	}

	late := bus.Subscribe(api.EventSeek)
	if _, ok := <-late; ok {
		t.Error("subscribe after Close should return a closed channel")
	}
}
