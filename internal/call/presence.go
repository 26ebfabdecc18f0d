package call

import "context"

// Presence receives call membership changes so the surrounding booking
// platform can observe call lifecycle (who is in a call, when it
// started, when it ended). Implementations must tolerate being called
// from the event path and must not fail the signaling operation.
type Presence interface {
	PeerJoined(ctx context.Context, appointmentID, userID string)
	PeerLeft(ctx context.Context, appointmentID, userID string, roomEmpty bool)
}

// NoopPresence discards all presence updates.
type NoopPresence struct{}

func (NoopPresence) PeerJoined(context.Context, string, string) {}

func (NoopPresence) PeerLeft(context.Context, string, string, bool) {}
