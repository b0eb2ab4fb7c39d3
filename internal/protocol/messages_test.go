package protocol

import (
	"encoding/json"
	"testing"
)

func TestKind(t *testing.T) {
	kind, err := Kind([]byte(`{"type":"call-offer","target":"p1","sdp":"v=0"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if kind != KindCallOffer {
		t.Fatalf("kind = %q", kind)
	}
}

func TestKindMalformed(t *testing.T) {
	if _, err := Kind([]byte(`{not json`)); err == nil {
		t.Fatalf("malformed payload must error")
	}
}

func TestIsSignal(t *testing.T) {
	cases := map[string]bool{
		KindCallOffer:    true,
		KindCallAnswer:   true,
		KindICECandidate: true,
		KindRoomInfo:     false,
		"chat":           false,
		"":               false,
	}
	for kind, want := range cases {
		if got := IsSignal(kind); got != want {
			t.Fatalf("IsSignal(%q) = %v, want %v", kind, got, want)
		}
	}
}

func TestDecodeSignalPreservesPayload(t *testing.T) {
	raw := []byte(`{"type":"ice-candidate","target":"p2","candidate":{"candidate":"candidate:1 1 udp 2130706431 192.0.2.1 54400 typ host","sdpMid":"0"}}`)
	sig, err := DecodeSignal(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sig.Type != KindICECandidate || sig.Target != "p2" {
		t.Fatalf("envelope fields wrong: %+v", sig)
	}
	if sig.Candidate == nil || sig.Candidate.SDPMid == nil || *sig.Candidate.SDPMid != "0" {
		t.Fatalf("candidate payload lost: %+v", sig.Candidate)
	}

	// Routing adds source and must keep everything else intact.
	sig.Source = "p1"
	out, err := json.Marshal(sig)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	round, err := DecodeSignal(out)
	if err != nil {
		t.Fatalf("re-decode: %v", err)
	}
	if round.Source != "p1" || round.Target != "p2" || round.Candidate == nil {
		t.Fatalf("payload not preserved through routing: %+v", round)
	}
}

func TestDecodeSignalMalformed(t *testing.T) {
	if _, err := DecodeSignal([]byte(`{"type":"call-offer","target":5}`)); err == nil {
		t.Fatalf("type mismatch must error")
	}
}
