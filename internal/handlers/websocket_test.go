package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/carebridge/call-signaling/config"
	"github.com/carebridge/call-signaling/internal/auth"
	"github.com/carebridge/call-signaling/internal/call"
	"github.com/carebridge/call-signaling/internal/models"
)

func newSignalingServer(t *testing.T) (*httptest.Server, *auth.Authenticator) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		ReadLimit:  65536,
		PongWait:   60 * time.Second,
		PingPeriod: 54 * time.Second,
		WriteWait:  10 * time.Second,
	}
	authn := auth.New("test-secret")
	coordinator := call.NewCoordinator(call.NoopPresence{}, zerolog.Nop())

	router := gin.New()
	router.GET("/ws/call", CallSocket(coordinator, authn, cfg, zerolog.Nop()))

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, authn
}

func dialSignaling(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/call?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func mustToken(t *testing.T, authn *auth.Authenticator, userID, role string) string {
	t.Helper()
	token, err := authn.Sign(userID, role, userID)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func sendEvent(t *testing.T, conn *websocket.Conn, ev models.ClientEvent) {
	t.Helper()
	if err := conn.WriteJSON(ev); err != nil {
		t.Fatalf("write event: %v", err)
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) models.ServerEvent {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read event: %v", err)
	}
	var ev models.ServerEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	return ev
}

func TestConnectionRefusedWithoutValidToken(t *testing.T) {
	srv, _ := newSignalingServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/call?token=bogus"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected handshake to fail without a valid token")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %v, want 401", resp)
	}
}

func TestCallFlowOverWebSocket(t *testing.T) {
	srv, authn := newSignalingServer(t)

	connA := dialSignaling(t, srv, mustToken(t, authn, "patient-1", auth.RolePatient))
	connB := dialSignaling(t, srv, mustToken(t, authn, "doctor-1", auth.RoleDoctor))

	sendEvent(t, connA, models.ClientEvent{Type: models.EventJoinCall, AppointmentID: "apt-1"})
	joined := readEvent(t, connA)
	if joined.Type != models.EventRoomJoined || joined.IsInitiator == nil || !*joined.IsInitiator {
		t.Fatalf("A first event = %+v, want room-joined initiator", joined)
	}

	sendEvent(t, connB, models.ClientEvent{Type: models.EventJoinCall, AppointmentID: "apt-1"})
	joined = readEvent(t, connB)
	if joined.Type != models.EventRoomJoined || joined.IsInitiator == nil || *joined.IsInitiator {
		t.Fatalf("B first event = %+v, want room-joined non-initiator", joined)
	}

	userJoined := readEvent(t, connA)
	if userJoined.Type != models.EventUserJoined || userJoined.UserID != "doctor-1" || userJoined.UserRole != auth.RoleDoctor {
		t.Fatalf("A second event = %+v, want user-joined doctor-1", userJoined)
	}

	offer := json.RawMessage(`{"type":"offer","sdp":"v=0"}`)
	sendEvent(t, connA, models.ClientEvent{Type: models.EventCallOffer, AppointmentID: "apt-1", Offer: offer})
	relayed := readEvent(t, connB)
	if relayed.Type != models.EventCallOffer || relayed.From != "patient-1" {
		t.Fatalf("B offer event = %+v", relayed)
	}
	if string(relayed.Offer) != string(offer) {
		t.Errorf("offer = %s, want relayed verbatim", relayed.Offer)
	}

	// B drops without leave-call; A must hear user-left.
	connB.Close()
	left := readEvent(t, connA)
	if left.Type != models.EventUserLeft || left.UserID != "doctor-1" {
		t.Fatalf("A event after disconnect = %+v, want user-left doctor-1", left)
	}
}
