package call

import (
	"sync"

	"github.com/carebridge/call-signaling/internal/models"
)

// ConnectionID identifies one live transport connection. A user with
// several tabs open holds several independent connections.
type ConnectionID string

// Identity is the authenticated owner of a connection, extracted from
// the connect-time credential before registration.
type Identity struct {
	UserID      string
	Role        string
	DisplayName string
}

// Peer is the outbound side of a connection. Deliver must not block;
// an undeliverable event is dropped (best-effort signaling).
type Peer interface {
	Deliver(ev models.ServerEvent)
}

type connEntry struct {
	identity Identity
	peer     Peer
}

// Registry maps live connections to their authenticated identities and
// outbound sinks. Registration is the gate for every room and relay
// operation; nothing accepts an unregistered connection.
type Registry struct {
	mu    sync.RWMutex
	conns map[ConnectionID]*connEntry
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[ConnectionID]*connEntry)}
}

func (r *Registry) Register(id ConnectionID, identity Identity, peer Peer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[id] = &connEntry{identity: identity, peer: peer}
}

// Identity returns the owner of a connection, if registered.
func (r *Registry) Identity(id ConnectionID) (Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.conns[id]; ok {
		return e.identity, true
	}
	return Identity{}, false
}

// Peer returns the outbound sink for a connection, if registered.
func (r *Registry) Peer(id ConnectionID) (Peer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.conns[id]; ok {
		return e.peer, true
	}
	return nil, false
}

// Unregister removes a connection. Idempotent: the first call removes
// the mapping and reports true, any later call is a no-op.
func (r *Registry) Unregister(id ConnectionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[id]; !ok {
		return false
	}
	delete(r.conns, id)
	return true
}

// Count reports the number of registered connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
