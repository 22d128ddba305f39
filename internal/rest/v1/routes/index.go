package routes

import (
	"strconv"
	"time"

	"github.com/veyronhq/reqforge/internal/rest/v1/respond"
	"github.com/veyronhq/reqforge/internal/websocket"
)

var uptime = time.Now()

type HealthResponse struct {
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

func (rg *RouteGroup) Index(ctx *respond.Ctx) error {
	return ctx.JSON(HealthResponse{
		Version: rg.gctx.Bootstrap().Version,
		Uptime:  strconv.Itoa(int(uptime.UnixMilli())),
	})
}

// WebSocketStatus reports how many clients are currently subscribed to
// request/job event broadcasts.
func (rg *RouteGroup) WebSocketStatus(ctx *respond.Ctx) error {
	return ctx.JSON(map[string]interface{}{
		"connectedUsers": websocket.GetConnectedUsers(),
		"timestamp":      time.Now().Format(time.RFC3339),
	})
}
