package models

import (
	"encoding/json"
	"testing"
)

func TestNullCandidateSurvivesRelay(t *testing.T) {
	// A null candidate is the end-of-candidates marker and must reach
	// the peer as an explicit null, not be dropped by omitempty.
	var in ClientEvent
	if err := json.Unmarshal([]byte(`{"type":"ice-candidate","appointmentId":"apt-1","candidate":null}`), &in); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if string(in.Candidate) != "null" {
		t.Fatalf("candidate = %q, want raw null", in.Candidate)
	}

	out, err := json.Marshal(ServerEvent{
		Type:      EventICECandidate,
		Candidate: in.Candidate,
		From:      "user-1",
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	raw, ok := decoded["candidate"]
	if !ok {
		t.Fatal("candidate field missing from wire frame")
	}
	if string(raw) != "null" {
		t.Errorf("candidate on wire = %s, want null", raw)
	}
}

func TestOpaquePayloadNotMutated(t *testing.T) {
	sdp := `{"type":"offer","sdp":"v=0\r\no=- 46117 2 IN IP4 127.0.0.1"}`
	var in ClientEvent
	if err := json.Unmarshal([]byte(`{"type":"call-offer","appointmentId":"apt-1","offer":`+sdp+`}`), &in); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if string(in.Offer) != sdp {
		t.Errorf("offer = %s, want untouched payload", in.Offer)
	}
}
