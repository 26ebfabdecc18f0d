package call

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/carebridge/call-signaling/internal/models"
)

// Coordinator ties the registry, room table and relay together and
// turns decoded inbound events into outbound ones. It owns no
// transport: connections hand it an ID, an identity and a Peer sink,
// which is what makes the whole core testable without a network.
type Coordinator struct {
	registry *Registry
	rooms    *Rooms
	relay    *Relay
	presence Presence
	log      zerolog.Logger
	now      func() time.Time
}

func NewCoordinator(presence Presence, log zerolog.Logger) *Coordinator {
	registry := NewRegistry()
	rooms := NewRooms()
	return &Coordinator{
		registry: registry,
		rooms:    rooms,
		relay:    NewRelay(registry, rooms, log),
		presence: presence,
		log:      log,
		now:      time.Now,
	}
}

// Connect registers an authenticated connection. Must be called before
// any event from that connection is handled.
func (c *Coordinator) Connect(id ConnectionID, identity Identity, peer Peer) {
	c.registry.Register(id, identity, peer)
	c.log.Info().
		Str("connId", string(id)).
		Str("userId", identity.UserID).
		Str("role", identity.Role).
		Msg("connection registered")
}

// Disconnect unregisters a connection and evicts it from every room it
// was in, notifying each remaining peer with user-left in the same
// turn. Idempotent: the second call for the same id does nothing, so a
// peer never sees a duplicate user-left.
func (c *Coordinator) Disconnect(ctx context.Context, id ConnectionID) {
	identity, ok := c.registry.Identity(id)
	if !ok {
		return
	}
	if !c.registry.Unregister(id) {
		return
	}

	for _, ev := range c.rooms.EvictAll(id) {
		c.notifyLeft(ev.Remaining, identity)
		c.presence.PeerLeft(ctx, appointmentID(ev.CallID), identity.UserID, len(ev.Remaining) == 0)
		c.log.Info().
			Str("connId", string(id)).
			Str("userId", identity.UserID).
			Str("callId", ev.CallID).
			Msg("evicted on disconnect")
	}
}

// HandleEvent dispatches one decoded inbound frame. Errors are local to
// the offending event: they are logged (and for a full room, answered
// with call-busy) but never take down other rooms or connections.
func (c *Coordinator) HandleEvent(ctx context.Context, id ConnectionID, ev models.ClientEvent) {
	identity, ok := c.registry.Identity(id)
	if !ok {
		c.log.Warn().Str("connId", string(id)).Str("type", string(ev.Type)).Msg("event from unregistered connection dropped")
		return
	}
	if ev.AppointmentID == "" {
		c.log.Warn().Str("connId", string(id)).Str("type", string(ev.Type)).Msg("event without appointmentId dropped")
		return
	}

	callID := CallID(ev.AppointmentID)

	switch ev.Type {
	case models.EventJoinCall:
		c.handleJoin(ctx, id, identity, ev.AppointmentID, callID)
	case models.EventLeaveCall:
		c.handleLeave(ctx, id, identity, ev.AppointmentID, callID)
	case models.EventCallOffer:
		c.forward(id, identity, callID, models.ServerEvent{
			Type:  models.EventCallOffer,
			Offer: ev.Offer,
			From:  identity.UserID,
		})
	case models.EventCallAnswer:
		c.forward(id, identity, callID, models.ServerEvent{
			Type:   models.EventCallAnswer,
			Answer: ev.Answer,
			From:   identity.UserID,
		})
	case models.EventICECandidate:
		// A null candidate is a valid end-of-candidates marker and is
		// relayed as-is.
		c.forward(id, identity, callID, models.ServerEvent{
			Type:      models.EventICECandidate,
			Candidate: ev.Candidate,
			From:      identity.UserID,
		})
	case models.EventCallMessage:
		c.handleChat(id, identity, callID, ev)
	default:
		c.log.Warn().Str("connId", string(id)).Str("type", string(ev.Type)).Msg("unknown event type dropped")
	}
}

func (c *Coordinator) handleJoin(ctx context.Context, id ConnectionID, identity Identity, apptID, callID string) {
	res, err := c.rooms.Join(id, callID)
	if err != nil {
		// Room already holds both parties; refuse, mutate nothing.
		c.deliver(id, models.ServerEvent{
			Type:          models.EventCallBusy,
			AppointmentID: apptID,
		})
		c.log.Warn().
			Str("connId", string(id)).
			Str("userId", identity.UserID).
			Str("callId", callID).
			Msg("join refused, room full")
		return
	}
	if res.AlreadyMember {
		c.log.Debug().Str("connId", string(id)).Str("callId", callID).Msg("duplicate join ignored")
		return
	}

	isInitiator := res.IsInitiator
	c.deliver(id, models.ServerEvent{
		Type:        models.EventRoomJoined,
		IsInitiator: &isInitiator,
		UserID:      identity.UserID,
	})
	for _, other := range res.Others {
		c.deliver(other, models.ServerEvent{
			Type:     models.EventUserJoined,
			UserID:   identity.UserID,
			UserRole: identity.Role,
		})
	}

	c.presence.PeerJoined(ctx, apptID, identity.UserID)
	c.log.Info().
		Str("connId", string(id)).
		Str("userId", identity.UserID).
		Str("callId", callID).
		Bool("initiator", isInitiator).
		Msg("joined call room")
}

func (c *Coordinator) handleLeave(ctx context.Context, id ConnectionID, identity Identity, apptID, callID string) {
	remaining, wasMember := c.rooms.Leave(id, callID)
	if !wasMember {
		c.log.Debug().Str("connId", string(id)).Str("callId", callID).Msg("leave for room not joined ignored")
		return
	}

	c.notifyLeft(remaining, identity)
	c.presence.PeerLeft(ctx, apptID, identity.UserID, len(remaining) == 0)
	c.log.Info().
		Str("connId", string(id)).
		Str("userId", identity.UserID).
		Str("callId", callID).
		Msg("left call room")
}

func (c *Coordinator) handleChat(id ConnectionID, identity Identity, callID string, ev models.ClientEvent) {
	senderName := ev.SenderName
	if senderName == "" {
		senderName = identity.DisplayName
	}
	timestamp := ev.Timestamp
	if timestamp == 0 {
		timestamp = c.now().UnixMilli()
	}

	c.forward(id, identity, callID, models.ServerEvent{
		Type:       models.EventCallMessage,
		Message:    ev.Message,
		SenderID:   identity.UserID,
		SenderName: senderName,
		Timestamp:  timestamp,
	})
}

func (c *Coordinator) forward(id ConnectionID, identity Identity, callID string, ev models.ServerEvent) {
	if err := c.relay.Send(id, callID, ev); err != nil {
		c.log.Warn().
			Str("connId", string(id)).
			Str("userId", identity.UserID).
			Str("callId", callID).
			Str("type", string(ev.Type)).
			Err(err).
			Msg("signal dropped")
	}
}

func (c *Coordinator) notifyLeft(remaining []ConnectionID, identity Identity) {
	for _, other := range remaining {
		c.deliver(other, models.ServerEvent{
			Type:   models.EventUserLeft,
			UserID: identity.UserID,
		})
	}
}

func (c *Coordinator) deliver(id ConnectionID, ev models.ServerEvent) {
	if peer, ok := c.registry.Peer(id); ok {
		peer.Deliver(ev)
	}
}

// Stats reports connection and room counts for the health endpoint.
func (c *Coordinator) Stats() (connections, rooms int) {
	return c.registry.Count(), c.rooms.RoomCount()
}

// appointmentID recovers the appointment from a call id. Inverse of
// CallID; only used for presence reporting on eviction, where the
// original event is no longer at hand.
func appointmentID(callID string) string {
	const prefix = "call_"
	if len(callID) > len(prefix) && callID[:len(prefix)] == prefix {
		return callID[len(prefix):]
	}
	return callID
}
