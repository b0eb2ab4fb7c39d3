package ws

import (
	"context"
	"encoding/json"
	"net"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/hirestack/interview-relay/internal/app"
	"github.com/hirestack/interview-relay/internal/app/orch"
	"github.com/hirestack/interview-relay/internal/config"
	"github.com/hirestack/interview-relay/internal/core"
	"github.com/hirestack/interview-relay/internal/domain"
)

type fakeTranscriber struct {
	mu           sync.Mutex
	audio        [][]byte
	panicForward bool
}

func (f *fakeTranscriber) Start(ctx context.Context) error { return nil }

func (f *fakeTranscriber) ForwardAudio(chunk []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicForward {
		panic("transcriber gave up")
	}
	f.audio = append(f.audio, chunk)
	return nil
}

func (f *fakeTranscriber) Finish() {}

func (f *fakeTranscriber) OnOpen(func())                   {}
func (f *fakeTranscriber) OnTranscript(func(string, bool)) {}
func (f *fakeTranscriber) OnError(func(string))            {}
func (f *fakeTranscriber) OnClosed(func())                 {}

func (f *fakeTranscriber) chunks() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.audio)
}

type fakeFactory struct {
	mu           sync.Mutex
	created      map[domain.ParticipantID]*fakeTranscriber
	panicForward bool
}

func (f *fakeFactory) New(id domain.ParticipantID) core.Transcriber {
	f.mu.Lock()
	defer f.mu.Unlock()
	tr := &fakeTranscriber{panicForward: f.panicForward}
	f.created[id] = tr
	return tr
}

func (f *fakeFactory) of(id domain.ParticipantID) *fakeTranscriber {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created[id]
}

func newTestServer(t *testing.T, pingPeriod time.Duration) (*httptest.Server, *fakeFactory, *orch.Orchestrator) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	f := &fakeFactory{created: make(map[domain.ParticipantID]*fakeTranscriber)}
	o := &orch.Orchestrator{
		Registry:     app.NewRegistry(),
		Rooms:        app.NewDirectory(),
		Transcribers: f,
	}
	cfg := &config.Config{Mode: "release", ReadLimit: 1 << 16, PingPeriod: pingPeriod, SendBuffer: 8}
	ctl := NewController(o, cfg)

	r := gin.New()
	r.GET("/ws", func(c *gin.Context) { ctl.HandleRoom(context.Background(), c) })
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, f, o
}

func dial(t *testing.T, srv *httptest.Server, room, name string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?room=" + url.QueryEscape(room) + "&name=" + url.QueryEscape(name)
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMsg(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("decode %q: %v", data, err)
	}
	return m
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestJoinFlow(t *testing.T) {
	srv, _, _ := newTestServer(t, time.Minute)

	a := dial(t, srv, "r1", "Alice")
	aInfo := readMsg(t, a)
	if aInfo["type"] != "room-info" || aInfo["roomName"] != "r1" {
		t.Fatalf("unexpected first message: %v", aInfo)
	}
	got := aInfo["participants"].([]any)
	if len(got) != 1 || got[0] != "Alice" {
		t.Fatalf("unexpected snapshot: %v", got)
	}

	b := dial(t, srv, "r1", "Bob")
	bInfo := readMsg(t, b)
	parts := bInfo["participants"].([]any)
	if len(parts) != 2 || parts[0] != "Alice" || parts[1] != "Bob" {
		t.Fatalf("unexpected second snapshot: %v", parts)
	}

	joined := readMsg(t, a)
	if joined["type"] != "participant-joined" || joined["identity"] != "Bob" {
		t.Fatalf("expected participant-joined for Bob, got %v", joined)
	}
}

func TestSignalRelayBetweenPeers(t *testing.T) {
	srv, _, _ := newTestServer(t, time.Minute)

	a := dial(t, srv, "r1", "Alice")
	aInfo := readMsg(t, a)
	aID := aInfo["participantId"].(string)

	b := dial(t, srv, "r1", "Bob")
	readMsg(t, b) // room-info
	joined := readMsg(t, a)
	bID := joined["participantId"].(string)

	offer := map[string]any{"type": "call-offer", "target": bID, "sdp": "v=0"}
	if err := a.WriteJSON(offer); err != nil {
		t.Fatalf("write offer: %v", err)
	}

	got := readMsg(t, b)
	if got["type"] != "call-offer" || got["source"] != aID || got["sdp"] != "v=0" {
		t.Fatalf("unexpected relayed offer: %v", got)
	}
}

func TestMalformedControlKeepsConnection(t *testing.T) {
	srv, _, _ := newTestServer(t, time.Minute)

	a := dial(t, srv, "r1", "Alice")
	readMsg(t, a)

	if err := a.WriteMessage(websocket.TextMessage, []byte("{broken")); err != nil {
		t.Fatalf("write: %v", err)
	}

	b := dial(t, srv, "r1", "Bob")
	readMsg(t, b)
	// A still receives traffic after the bad payload.
	joined := readMsg(t, a)
	if joined["type"] != "participant-joined" {
		t.Fatalf("connection should have survived: %v", joined)
	}
}

func TestBinaryFramesReachTranscriber(t *testing.T) {
	srv, f, _ := newTestServer(t, time.Minute)

	a := dial(t, srv, "r1", "Alice")
	aID := domain.ParticipantID(readMsg(t, a)["participantId"].(string))

	if err := a.WriteMessage(websocket.BinaryMessage, []byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	waitFor(t, func() bool {
		tr := f.of(aID)
		return tr != nil && tr.chunks() == 1
	}, "audio chunk to reach the transcriber")
}

func TestDisconnectAnnouncedAndRoomCollapses(t *testing.T) {
	srv, _, o := newTestServer(t, time.Minute)

	a := dial(t, srv, "r1", "Alice")
	readMsg(t, a)
	b := dial(t, srv, "r1", "Bob")
	readMsg(t, b)
	readMsg(t, a) // participant-joined

	_ = b.Close()
	left := readMsg(t, a)
	if left["type"] != "participant-left" || left["identity"] != "Bob" {
		t.Fatalf("expected participant-left for Bob, got %v", left)
	}
	if _, ok := o.Rooms.Get("r1"); !ok {
		t.Fatalf("room should survive while Alice remains")
	}

	_ = a.Close()
	waitFor(t, func() bool {
		_, ok := o.Rooms.Get("r1")
		return !ok
	}, "room deletion after last leave")
}

func TestPumpPanicStillTearsDown(t *testing.T) {
	srv, f, o := newTestServer(t, time.Minute)
	f.mu.Lock()
	f.panicForward = true
	f.mu.Unlock()

	a := dial(t, srv, "r1", "Alice")
	aID := domain.ParticipantID(readMsg(t, a)["participantId"].(string))

	// One audio frame blows up the transcriber inside the read pump.
	// The participant must still be unwound, not leaked.
	if err := a.WriteMessage(websocket.BinaryMessage, []byte{1}); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	waitFor(t, func() bool {
		_, ok := o.Registry.Lookup(aID)
		return !ok
	}, "registry cleanup after the pump panic")
	waitFor(t, func() bool {
		_, ok := o.Rooms.Get("r1")
		return !ok
	}, "room deletion after the pump panic")
}

func TestLivenessTerminatesSilentPeer(t *testing.T) {
	srv, _, o := newTestServer(t, 50*time.Millisecond)

	a := dial(t, srv, "r1", "Alice")
	// Swallow pings instead of answering them, like a half-open transport.
	a.SetPingHandler(func(string) error { return nil })
	readMsg(t, a)

	_ = a.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := a.ReadMessage(); err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				t.Fatalf("server never terminated the silent peer")
			}
			break
		}
	}
	waitFor(t, func() bool {
		_, ok := o.Rooms.Get("r1")
		return !ok
	}, "teardown of the dead connection")
}

func TestLivenessSparesResponsivePeer(t *testing.T) {
	srv, _, o := newTestServer(t, 50*time.Millisecond)

	a := dial(t, srv, "r1", "Alice")
	aID := domain.ParticipantID(readMsg(t, a)["participantId"].(string))

	// The default ping handler answers probes while we sit in ReadMessage.
	_ = a.SetReadDeadline(time.Now().Add(400 * time.Millisecond))
	_, _, err := a.ReadMessage()
	netErr, ok := err.(net.Error)
	if !ok || !netErr.Timeout() {
		t.Fatalf("expected idle timeout on a healthy connection, got %v", err)
	}
	if _, ok := o.Registry.Lookup(aID); !ok {
		t.Fatalf("responsive connection was terminated by the liveness probe")
	}
}
