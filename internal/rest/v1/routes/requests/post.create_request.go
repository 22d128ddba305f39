package requests

import (
	"log/slog"

	"github.com/veyronhq/reqforge/internal/rest/v1/respond"
	apiErrors "github.com/veyronhq/reqforge/pkg/api_errors"
	"github.com/veyronhq/reqforge/pkg/permissions"
	reqsvc "github.com/veyronhq/reqforge/internal/services/requests"
	"github.com/veyronhq/reqforge/pkg/structures"
)

// CreateRequest accepts whole, season, episode, and granular request
// shapes; validation, conflicts, quota, and instance selection all live in
// the lifecycle engine.
func (rg *RouteGroup) CreateRequest(ctx *respond.Ctx) error {
	user := ctx.ParseClaims()
	if user == nil || user.ID == "" {
		return apiErrors.ErrUnauthorized()
	}

	var req structures.CreateRequestRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apiErrors.ErrBadRequest().SetDetail("Invalid request body")
	}
	if err := rg.validate.Struct(req); err != nil {
		return apiErrors.ErrValidationRejected().SetDetail("%s", err.Error())
	}

	// Requests on behalf of another user require the manage grant and an
	// existing target user.
	requestingUserID := user.ID
	if req.OnBehalfOf != nil && *req.OnBehalfOf != "" {
		canManage, err := rg.perms.HasPermission(ctx.Context(), user.ID, permissions.RequestsManage)
		if err != nil {
			slog.Error("Failed to check manage permission", "error", err)
			return apiErrors.ErrInternalServerError().SetDetail("Permission check failed")
		}
		if !canManage {
			return apiErrors.ErrNoManagePermission().SetDetail("You cannot create requests on behalf of other users")
		}
		if _, err := rg.gctx.Crate().Sqlite.Query().GetUserByID(ctx.Context(), *req.OnBehalfOf); err != nil {
			return apiErrors.ErrBadRequest().SetDetail("User specified in on_behalf_of does not exist")
		}
	}

	spec := reqsvc.CreateSpec{
		UserID:        requestingUserID,
		MediaType:     structures.MediaType(req.MediaType),
		TmdbID:        req.TmdbID,
		Title:         req.Title,
		PosterURL:     req.PosterURL,
		Notes:         req.Notes,
		OnBehalfOf:    req.OnBehalfOf,
		QualityTier:   structures.QualityTier(req.QualityTier),
		Kind:          reqsvc.Kind(req.RequestKind),
		SeasonNumber:  req.SeasonNumber,
		EpisodeNumber: req.EpisodeNumber,
		Seasons:       req.Seasons,
		Episodes:      req.Episodes,
	}
	if req.ServiceInstanceID != nil {
		spec.InstanceID = *req.ServiceInstanceID
	}

	// Season lists without an explicit kind are granular creates, matching
	// what older clients send.
	if spec.Kind == "" && (len(req.Seasons) > 0 || len(req.Episodes) > 0) {
		spec.Kind = reqsvc.KindGranular
	}

	result, err := rg.service.Create(ctx.Context(), spec)
	if err != nil {
		return err
	}

	slog.Info("Request created",
		"user_id", requestingUserID,
		"media_type", req.MediaType,
		"tmdb_id", req.TmdbID,
		"rows", len(result.Requests),
		"skipped", len(result.Skipped),
		"auto_approved", result.AutoApproved)

	response := struct {
		Requests    []structures.Request `json:"requests"`
		Skipped     []string             `json:"skipped,omitempty"`
		Status      string               `json:"status"`
		Integration interface{}          `json:"integration,omitempty"`
	}{
		Skipped: result.Skipped,
	}
	for _, request := range result.Requests {
		response.Requests = append(response.Requests, toAPIRequest(request))
	}
	if len(result.Requests) > 0 {
		response.Status = result.Requests[0].Status
	}
	if result.Integration != nil {
		response.Integration = result.Integration
	}

	ctx.Status(201)
	return ctx.JSON(response)
}
