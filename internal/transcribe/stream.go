// Package transcribe bridges one participant's audio to the external
// streaming speech-to-text service over its realtime websocket endpoint.
package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/hirestack/interview-relay/internal/core"
	"github.com/hirestack/interview-relay/internal/domain"
)

type Config struct {
	URL            string        `mapstructure:"url"`
	APIKey         string        `mapstructure:"api_key"`
	SampleRate     int           `mapstructure:"sample_rate"`
	Channels       int           `mapstructure:"channels"`
	Language       string        `mapstructure:"language"`
	InterimResults bool          `mapstructure:"interim_results"`
	FinishTimeout  time.Duration `mapstructure:"finish_timeout"`
}

// Factory opens one Stream per participant.
type Factory struct {
	cfg Config
}

func NewFactory(cfg Config) *Factory {
	return &Factory{cfg: cfg}
}

func (f *Factory) New(id domain.ParticipantID) core.Transcriber {
	return NewStream(f.cfg, id)
}

// Stream is one streaming recognition session. Event callbacks must be set
// before Start; the reader goroutine emits the open event before any
// transcript, and the closed event exactly once, last.
type Stream struct {
	cfg Config
	id  domain.ParticipantID

	mu     sync.Mutex // guards conn writes and state flags
	conn   *websocket.Conn
	open   bool
	closed bool

	finishOnce sync.Once
	closedOnce sync.Once
	done       chan struct{}

	onOpen       func()
	onTranscript func(text string, final bool)
	onError      func(msg string)
	onClosed     func()
}

func NewStream(cfg Config, id domain.ParticipantID) *Stream {
	return &Stream{cfg: cfg, id: id, done: make(chan struct{})}
}

func (s *Stream) OnOpen(fn func())                   { s.onOpen = fn }
func (s *Stream) OnTranscript(fn func(string, bool)) { s.onTranscript = fn }
func (s *Stream) OnError(fn func(string))            { s.onError = fn }
func (s *Stream) OnClosed(fn func())                 { s.onClosed = fn }

// Start dials the provider, sends the session config and spawns the reader.
// The session lifetime is bound to ctx.
func (s *Stream) Start(ctx context.Context) error {
	header := http.Header{}
	if s.cfg.APIKey != "" {
		header.Set("Authorization", s.cfg.APIKey)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.cfg.URL, header)
	if err != nil {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		return fmt.Errorf("dial transcription service: %w", err)
	}

	cfgMsg := sessionConfig{
		Type:           "config",
		SampleRate:     s.cfg.SampleRate,
		Channels:       s.cfg.Channels,
		Language:       s.cfg.Language,
		InterimResults: s.cfg.InterimResults,
	}
	// The conn is published only once the config write succeeds, so a
	// failed handshake leaves nothing for Finish to wait on.
	if err := conn.WriteJSON(cfgMsg); err != nil {
		_ = conn.Close()
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		return fmt.Errorf("send session config: %w", err)
	}
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	go s.readLoop()
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-s.done:
		}
	}()
	log.Info().Str("module", "transcribe").Str("participant", string(s.id)).Msg("session dialed")
	return nil
}

// ForwardAudio sends one binary chunk iff the session is currently open.
// Chunks arriving earlier or after shutdown are dropped without error;
// losing pre-open audio is an accepted policy, not a fault.
func (s *Stream) ForwardAudio(chunk []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open || s.closed {
		return nil
	}
	if err := s.conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
		return fmt.Errorf("forward audio: %w", err)
	}
	return nil
}

// Finish asks the provider to flush and close, waiting a bounded time for
// its confirmation. Idempotent; safe to call even if Start failed.
func (s *Stream) Finish() {
	s.finishOnce.Do(func() {
		s.mu.Lock()
		conn := s.conn
		if conn != nil && !s.closed {
			_ = conn.SetWriteDeadline(time.Now().Add(time.Second))
			_ = conn.WriteJSON(terminateMessage{Type: msgTerminate})
		}
		s.mu.Unlock()
		if conn == nil {
			return
		}
		select {
		case <-s.done:
		case <-time.After(s.cfg.FinishTimeout):
			log.Warn().Str("module", "transcribe").Str("participant", string(s.id)).Msg("finish timed out, closing anyway")
		}
		_ = conn.Close()
	})
}

func (s *Stream) readLoop() {
	defer s.shutdown()
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		var ev providerEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			log.Warn().Err(err).Str("module", "transcribe").Str("participant", string(s.id)).Msg("bad provider event")
			continue
		}
		switch ev.Type {
		case eventBegin:
			s.mu.Lock()
			s.open = true
			s.mu.Unlock()
			if s.onOpen != nil {
				s.onOpen()
			}
		case eventTurn:
			// Whitespace-only results never surface past the bridge.
			if strings.TrimSpace(ev.Transcript) == "" {
				continue
			}
			if s.onTranscript != nil {
				s.onTranscript(ev.Transcript, ev.EndOfTurn)
			}
		case eventError:
			if s.onError != nil {
				s.onError(ev.Error)
			}
		case eventTermination:
			return
		default:
			log.Debug().Str("module", "transcribe").Str("type", ev.Type).Msg("unhandled provider event")
		}
	}
}

func (s *Stream) shutdown() {
	s.mu.Lock()
	s.open = false
	s.closed = true
	conn := s.conn
	s.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
	s.closedOnce.Do(func() {
		close(s.done)
		if s.onClosed != nil {
			s.onClosed()
		}
		log.Info().Str("module", "transcribe").Str("participant", string(s.id)).Msg("session closed")
	})
}
