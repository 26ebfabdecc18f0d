package call

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/carebridge/call-signaling/internal/models"
)

func newTestRelay() (*Relay, *Registry, *Rooms) {
	registry := NewRegistry()
	rooms := NewRooms()
	return NewRelay(registry, rooms, zerolog.Nop()), registry, rooms
}

func TestRelayDeliversOnlyToRoomPeer(t *testing.T) {
	relay, registry, rooms := newTestRelay()

	peerA, peerB, peerC := &fakePeer{}, &fakePeer{}, &fakePeer{}
	registry.Register("a", Identity{UserID: "u-a"}, peerA)
	registry.Register("b", Identity{UserID: "u-b"}, peerB)
	registry.Register("c", Identity{UserID: "u-c"}, peerC)

	rooms.Join("a", "call_apt-1")
	rooms.Join("b", "call_apt-1")
	rooms.Join("c", "call_apt-2")

	ev := models.ServerEvent{Type: models.EventCallOffer, From: "u-a"}
	if err := relay.Send("a", "call_apt-1", ev); err != nil {
		t.Fatalf("send: %v", err)
	}

	if got := peerB.all(); len(got) != 1 || got[0].From != "u-a" {
		t.Errorf("peer B events = %v, want one offer from u-a", got)
	}
	if got := peerA.all(); len(got) != 0 {
		t.Errorf("sender received its own event: %v", got)
	}
	if got := peerC.all(); len(got) != 0 {
		t.Errorf("connection in another room received event: %v", got)
	}
}

func TestRelayRejectsNonMember(t *testing.T) {
	relay, registry, rooms := newTestRelay()

	peerB := &fakePeer{}
	registry.Register("a", Identity{UserID: "u-a"}, &fakePeer{})
	registry.Register("b", Identity{UserID: "u-b"}, peerB)
	rooms.Join("b", "call_apt-1")

	err := relay.Send("a", "call_apt-1", models.ServerEvent{Type: models.EventCallOffer})
	if !errors.Is(err, ErrNotInRoom) {
		t.Fatalf("err = %v, want ErrNotInRoom", err)
	}
	if got := peerB.all(); len(got) != 0 {
		t.Errorf("event from non-member must never be forwarded, got %v", got)
	}
}

func TestRelayDropsForClosedRecipient(t *testing.T) {
	relay, registry, rooms := newTestRelay()

	registry.Register("a", Identity{UserID: "u-a"}, &fakePeer{})
	registry.Register("b", Identity{UserID: "u-b"}, &fakePeer{})
	rooms.Join("a", "call_apt-1")
	rooms.Join("b", "call_apt-1")

	// b's transport closed but its room slot has not been evicted yet.
	registry.Unregister("b")

	if err := relay.Send("a", "call_apt-1", models.ServerEvent{Type: models.EventICECandidate}); err != nil {
		t.Fatalf("send to closed recipient should be a silent drop, got %v", err)
	}
}

func TestRelayPreservesSenderOrder(t *testing.T) {
	relay, registry, rooms := newTestRelay()

	peerB := &fakePeer{}
	registry.Register("a", Identity{UserID: "u-a"}, &fakePeer{})
	registry.Register("b", Identity{UserID: "u-b"}, peerB)
	rooms.Join("a", "call_apt-1")
	rooms.Join("b", "call_apt-1")

	for i := 0; i < 10; i++ {
		ev := models.ServerEvent{
			Type:    models.EventCallMessage,
			Message: fmt.Sprintf("m%d", i),
		}
		if err := relay.Send("a", "call_apt-1", ev); err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}

	got := peerB.all()
	if len(got) != 10 {
		t.Fatalf("delivered = %d, want 10", len(got))
	}
	for i, ev := range got {
		if want := fmt.Sprintf("m%d", i); ev.Message != want {
			t.Errorf("event %d message = %q, want %q", i, ev.Message, want)
		}
	}
}
