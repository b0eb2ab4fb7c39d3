package ws

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/hirestack/interview-relay/internal/domain"
	"github.com/hirestack/interview-relay/internal/protocol"
)

const writeWait = 5 * time.Second

// writePump owns all writes on the socket: queued frames and the liveness
// probes. A connection that did not answer the previous probe is terminated
// on the next tick; the pong handler raises the flag again.
func (ctl *Controller) writePump(ctx context.Context, id domain.ParticipantID, c *wsConn) {
	ticker := time.NewTicker(ctl.Cfg.PingPeriod)
	defer ticker.Stop()
	defer c.Close()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "ws").Str("participant", string(id)).Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "ws").Str("participant", string(id)).Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "ws").Str("participant", string(id)).Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if !c.alive.Swap(false) {
				log.Warn().Str("module", "ws").Str("participant", string(id)).Msg("liveness probe missed, terminating")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().Err(err).Str("module", "ws").Str("participant", string(id)).Msg("writePump ping error")
				return
			}
		}
	}
}

// readPump processes the inbound stream in arrival order: binary frames are
// audio, text frames are control messages.
func (ctl *Controller) readPump(ctx context.Context, id domain.ParticipantID, c *wsConn) {
	defer func() {
		log.Info().Str("module", "ws").Str("participant", string(id)).Msg("readPump closing")
		c.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			return
		default:
			mt, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Info().Err(err).Str("module", "ws").Str("participant", string(id)).Msg("readPump read error")
				return
			}
			switch mt {
			case websocket.BinaryMessage:
				ctl.Orch.OnAudio(id, data)
			case websocket.TextMessage:
				ctl.handleControl(id, data)
			}
		}
	}
}

// handleControl dispatches one inbound JSON message. Malformed payloads are
// logged and dropped; they never terminate the connection. Unrecognized
// kinds are reserved for future control and ignored.
func (ctl *Controller) handleControl(id domain.ParticipantID, data []byte) {
	kind, err := protocol.Kind(data)
	if err != nil {
		log.Warn().Err(err).Str("module", "ws").Str("participant", string(id)).Msg("bad control json")
		return
	}
	if !protocol.IsSignal(kind) {
		log.Debug().Str("module", "ws").Str("participant", string(id)).Str("type", kind).Msg("unknown control message")
		return
	}
	sig, err := protocol.DecodeSignal(data)
	if err != nil {
		log.Warn().Err(err).Str("module", "ws").Str("participant", string(id)).Msg("bad signal payload")
		return
	}
	ctl.Orch.Route(id, sig)
}
