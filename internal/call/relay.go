package call

import (
	"github.com/rs/zerolog"

	"github.com/carebridge/call-signaling/internal/models"
)

// Relay forwards signaling events between the members of one room and
// nowhere else. Payloads are opaque: the relay stamps the sender and
// routes by room, nothing more. Delivery is fire-and-forget; a peer
// whose connection is gone simply misses the event.
type Relay struct {
	registry *Registry
	rooms    *Rooms
	log      zerolog.Logger
}

func NewRelay(registry *Registry, rooms *Rooms, log zerolog.Logger) *Relay {
	return &Relay{registry: registry, rooms: rooms, log: log}
}

// Send forwards ev to every member of callID other than the sender.
// Returns ErrNotInRoom when the sender is not a member; the event is
// then dropped and never forwarded anywhere.
func (r *Relay) Send(sender ConnectionID, callID string, ev models.ServerEvent) error {
	recipients, err := r.rooms.Recipients(sender, callID)
	if err != nil {
		return err
	}

	for _, id := range recipients {
		peer, ok := r.registry.Peer(id)
		if !ok {
			// Member closed between snapshot and delivery; best-effort.
			r.log.Debug().Str("callId", callID).Str("to", string(id)).Msg("recipient gone, dropping event")
			continue
		}
		peer.Deliver(ev)
	}
	return nil
}
