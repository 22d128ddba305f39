package routes

import (
	"github.com/veyronhq/reqforge/internal/global"
)

type RouteGroup struct {
	gctx global.Context
}

func NewRouteGroup(gctx global.Context) *RouteGroup {
	return &RouteGroup{gctx: gctx}
}
