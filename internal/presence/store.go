package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/carebridge/call-signaling/config"
	"github.com/carebridge/call-signaling/internal/models"
)

// callTTL bounds how long call keys outlive activity. A consultation
// never legitimately spans a day; expired keys are stale state.
const callTTL = 24 * time.Hour

// Store publishes call presence and lifecycle status to Redis, where
// the booking platform reads it. Per call it keeps a participant set
// (call:{appointmentId}:peers) and a status key
// (call:{appointmentId}:status) that moves waiting → in_progress →
// completed as peers come and go. Failures here are logged and
// swallowed: presence is advisory and must never fail a signaling
// operation.
type Store struct {
	rdb *redis.Client
	log zerolog.Logger
}

// Connect creates the Redis client and verifies the connection.
func Connect(ctx context.Context, cfg config.RedisConfig, log zerolog.Logger) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &Store{rdb: rdb, log: log}, nil
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

func peersKey(appointmentID string) string {
	return "call:" + appointmentID + ":peers"
}

func statusKey(appointmentID string) string {
	return "call:" + appointmentID + ":status"
}

// PeerJoined records a participant and marks the call in progress.
func (s *Store) PeerJoined(ctx context.Context, appointmentID, userID string) {
	pipe := s.rdb.Pipeline()
	pipe.SAdd(ctx, peersKey(appointmentID), userID)
	pipe.Expire(ctx, peersKey(appointmentID), callTTL)
	pipe.Set(ctx, statusKey(appointmentID), models.CallStatusInProgress, callTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Error().Err(err).Str("appointmentId", appointmentID).Msg("failed to record peer join")
	}
}

// PeerLeft removes a participant; when the room has emptied, the call
// is marked completed.
func (s *Store) PeerLeft(ctx context.Context, appointmentID, userID string, roomEmpty bool) {
	pipe := s.rdb.Pipeline()
	pipe.SRem(ctx, peersKey(appointmentID), userID)
	if roomEmpty {
		pipe.Set(ctx, statusKey(appointmentID), models.CallStatusCompleted, callTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Error().Err(err).Str("appointmentId", appointmentID).Msg("failed to record peer leave")
	}
}

// Snapshot returns the current presence view of a call for the REST
// surface. A call with no recorded state reads as waiting and empty.
func (s *Store) Snapshot(ctx context.Context, appointmentID string) (*models.CallInfo, error) {
	status, err := s.rdb.Get(ctx, statusKey(appointmentID)).Result()
	if err == redis.Nil {
		status = models.CallStatusWaiting
	} else if err != nil {
		return nil, fmt.Errorf("read call status: %w", err)
	}

	participants, err := s.rdb.SMembers(ctx, peersKey(appointmentID)).Result()
	if err != nil {
		return nil, fmt.Errorf("read call participants: %w", err)
	}

	return &models.CallInfo{
		AppointmentID:    appointmentID,
		Status:           status,
		Participants:     participants,
		ParticipantCount: len(participants),
	}, nil
}
