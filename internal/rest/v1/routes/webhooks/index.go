// Package webhooks keeps the legacy push-notification receiver registered
// but inert: the pull-based reconciler is the authoritative path for status
// transitions, and this endpoint answers 410 so old downstream configs fail
// loudly instead of silently.
package webhooks

import (
	"log/slog"

	"github.com/veyronhq/reqforge/internal/global"
	"github.com/veyronhq/reqforge/internal/rest/v1/respond"
)

type RouteGroup struct {
	gctx global.Context
}

func NewRouteGroup(gctx global.Context) *RouteGroup {
	return &RouteGroup{gctx: gctx}
}

// Receive acknowledges and discards downstream webhook payloads.
func (rg *RouteGroup) Receive(ctx *respond.Ctx) error {
	slog.Debug("Ignoring webhook delivery; polling reconciler is authoritative",
		"source", ctx.Params("source"))

	ctx.Status(410)
	return ctx.JSON(map[string]string{
		"message": "Webhook ingestion is disabled; request status is reconciled by polling.",
	})
}
