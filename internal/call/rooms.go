package call

import "sync"

// maxRoomMembers bounds a call room to a one-to-one consultation.
const maxRoomMembers = 2

// CallID derives the room key for an appointment. Both peers compute
// the same key from the appointment alone, with no prior coordination.
func CallID(appointmentID string) string {
	return "call_" + appointmentID
}

// JoinResult is what a successful Join reports back to the joiner.
type JoinResult struct {
	// IsInitiator is true when the room was empty before this join;
	// the initiator conventionally creates the WebRTC offer.
	IsInitiator bool
	// AlreadyMember is true when the connection had joined this room
	// before; the join was a no-op and no one should be re-notified.
	AlreadyMember bool
	// Others lists the members present before this join.
	Others []ConnectionID
}

// Eviction records one room a disconnected connection was removed from.
type Eviction struct {
	CallID    string
	Remaining []ConnectionID
}

// Rooms owns the call-id → member-list table and the per-connection
// membership sets. It is the only component that mutates either; one
// lock makes join/leave/evict per-room critical sections, so two
// simultaneous joins can never both come out as initiator.
type Rooms struct {
	mu sync.Mutex
	// members maps callID to its connections in join order.
	members map[string][]ConnectionID
	// joined maps each connection to the set of rooms it is in.
	joined map[ConnectionID]map[string]struct{}
}

func NewRooms() *Rooms {
	return &Rooms{
		members: make(map[string][]ConnectionID),
		joined:  make(map[ConnectionID]map[string]struct{}),
	}
}

// Join admits a connection to a room, creating the room on first join.
// A duplicate join by the same connection is a no-op reported via
// AlreadyMember. A third distinct connection is rejected with
// ErrRoomFull and mutates nothing.
func (r *Rooms) Join(conn ConnectionID, callID string) (JoinResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.joined[conn][callID]; ok {
		return JoinResult{AlreadyMember: true}, nil
	}

	current := r.members[callID]
	if len(current) >= maxRoomMembers {
		return JoinResult{}, ErrRoomFull
	}

	res := JoinResult{
		IsInitiator: len(current) == 0,
		Others:      append([]ConnectionID(nil), current...),
	}

	r.members[callID] = append(current, conn)
	if r.joined[conn] == nil {
		r.joined[conn] = make(map[string]struct{})
	}
	r.joined[conn][callID] = struct{}{}

	return res, nil
}

// Leave removes a connection from a room. Idempotent: leaving a room
// the connection is not in reports wasMember=false and changes nothing.
// An emptied room is pruned from the table entirely.
func (r *Rooms) Leave(conn ConnectionID, callID string) (remaining []ConnectionID, wasMember bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leaveLocked(conn, callID)
}

func (r *Rooms) leaveLocked(conn ConnectionID, callID string) ([]ConnectionID, bool) {
	if _, ok := r.joined[conn][callID]; !ok {
		return nil, false
	}

	delete(r.joined[conn], callID)
	if len(r.joined[conn]) == 0 {
		delete(r.joined, conn)
	}

	current := r.members[callID]
	kept := current[:0]
	for _, id := range current {
		if id != conn {
			kept = append(kept, id)
		}
	}
	if len(kept) == 0 {
		delete(r.members, callID)
		return nil, true
	}
	r.members[callID] = kept
	return append([]ConnectionID(nil), kept...), true
}

// EvictAll removes a connection from every room it is a member of,
// returning the remaining members per room so the caller can notify
// them in the same turn as the disconnect.
func (r *Rooms) EvictAll(conn ConnectionID) []Eviction {
	r.mu.Lock()
	defer r.mu.Unlock()

	rooms := r.joined[conn]
	if len(rooms) == 0 {
		return nil
	}

	evictions := make([]Eviction, 0, len(rooms))
	callIDs := make([]string, 0, len(rooms))
	for callID := range rooms {
		callIDs = append(callIDs, callID)
	}
	for _, callID := range callIDs {
		remaining, _ := r.leaveLocked(conn, callID)
		evictions = append(evictions, Eviction{CallID: callID, Remaining: remaining})
	}
	return evictions
}

// Recipients returns the other members of a room, or ErrNotInRoom when
// the sender is not currently a member. Membership check and member
// snapshot happen under one lock so a concurrent leave cannot slip in
// between them.
func (r *Rooms) Recipients(sender ConnectionID, callID string) ([]ConnectionID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.joined[sender][callID]; !ok {
		return nil, ErrNotInRoom
	}

	var others []ConnectionID
	for _, id := range r.members[callID] {
		if id != sender {
			others = append(others, id)
		}
	}
	return others, nil
}

// Members returns the current member list of a room in join order.
func (r *Rooms) Members(callID string) []ConnectionID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ConnectionID(nil), r.members[callID]...)
}

// RoomCount reports how many rooms currently have members.
func (r *Rooms) RoomCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}
