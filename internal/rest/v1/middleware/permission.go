package middleware

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/veyronhq/reqforge/internal/db/repository"
	permsvc "github.com/veyronhq/reqforge/internal/services/permissions"
	"github.com/veyronhq/reqforge/internal/rest/v1/respond"
	apiErrors "github.com/veyronhq/reqforge/pkg/api_errors"
)

// RequirePermission gates a route on the permission engine's resolution
// chain: owner grant, explicit grant, then the enabled role defaults.
func RequirePermission(db *repository.Queries, permission string) fiber.Handler {
	engine := permsvc.NewEngine(db, nil)

	return func(c *fiber.Ctx) error {
		ctx := &respond.Ctx{Ctx: c}

		userClaims := ctx.ParseClaims()
		if userClaims == nil || userClaims.ID == "" {
			return apiErrors.ErrUnauthorized()
		}

		allowed, err := engine.HasPermission(c.Context(), userClaims.ID, permission)
		if err != nil {
			slog.Error("Permission check failed", "error", err, "user_id", userClaims.ID, "permission", permission)
			return apiErrors.ErrInternalServerError().SetDetail("Permission check failed")
		}
		if !allowed {
			return apiErrors.ErrForbidden().SetDetail("Missing required permission: %s", permission)
		}

		return c.Next()
	}
}
