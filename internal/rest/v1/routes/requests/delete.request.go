package requests

import (
	"log/slog"

	"github.com/veyronhq/reqforge/internal/rest/v1/respond"
	apiErrors "github.com/veyronhq/reqforge/pkg/api_errors"
)

// DeleteRequest removes a request. Ownership and delete/manage grants are
// enforced by the lifecycle engine, which also returns the quota slot when
// a pending request disappears.
func (rg *RouteGroup) DeleteRequest(ctx *respond.Ctx) error {
	user := ctx.ParseClaims()
	if user == nil || user.ID == "" {
		return apiErrors.ErrUnauthorized()
	}

	requestID, err := rg.parseRequestID(ctx)
	if err != nil {
		return err
	}

	if err := rg.service.Delete(ctx.Context(), requestID, user.ID); err != nil {
		return err
	}

	slog.Info("Request deleted", "request_id", requestID, "deleted_by", user.ID)

	ctx.Status(204)
	return nil
}
