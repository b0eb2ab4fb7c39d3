// Package ws is the participant-facing websocket adapter: it upgrades the
// join request, runs the per-connection pumps and hands decoded traffic to
// the orchestrator.
package ws

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"

	"github.com/hirestack/interview-relay/internal/app/orch"
	"github.com/hirestack/interview-relay/internal/config"
	"github.com/hirestack/interview-relay/internal/domain"
)

type Controller struct {
	Orch *orch.Orchestrator
	Cfg  *config.Config
}

func NewController(o *orch.Orchestrator, cfg *config.Config) *Controller {
	return &Controller{Orch: o, Cfg: cfg}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleRoom upgrades a join request and blocks for the connection's
// lifetime. The room name and display identity come from query parameters
// with defaults applied; neither is a uniqueness key.
func (ctl *Controller) HandleRoom(ctx context.Context, c *gin.Context) {
	roomName := domain.NormalizeRoomName(c.Query("room"))
	identity := c.Query("name")

	wsc, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("upgrade")
		return
	}

	conn := newWSConn(wsc, ctl.Cfg.SendBuffer)
	wsc.SetReadLimit(ctl.Cfg.ReadLimit)
	wsc.SetPongHandler(func(string) error {
		conn.alive.Store(true)
		return nil
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sess := ctl.Orch.Join(ctx, conn, roomName, identity)
	id := sess.Meta().ID
	log.Info().Str("module", "ws").Str("participant", string(id)).Str("room", string(roomName)).Msg("new connection")

	// Deferred so teardown runs even if a pump panics.
	defer ctl.Orch.Leave(id)

	var wg conc.WaitGroup
	wg.Go(func() { ctl.writePump(ctx, id, conn) })
	wg.Go(func() { ctl.readPump(ctx, id, conn) })
	if r := wg.WaitAndRecover(); r != nil {
		conn.Close()
		log.Error().Str("module", "ws").Str("participant", string(id)).Any("panic", r.Value).Msg("pump panicked")
	}
}
