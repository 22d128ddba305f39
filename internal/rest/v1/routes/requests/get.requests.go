package requests

import (
	"database/sql"
	"log/slog"
	"strings"

	"github.com/veyronhq/reqforge/internal/db/repository"
	"github.com/veyronhq/reqforge/internal/rest/v1/respond"
	apiErrors "github.com/veyronhq/reqforge/pkg/api_errors"
	"github.com/veyronhq/reqforge/pkg/permissions"
	"github.com/veyronhq/reqforge/pkg/structures"
)

// GetAllRequests returns all requests (admin only)
func (rg *RouteGroup) GetAllRequests(ctx *respond.Ctx) error {
	user := ctx.ParseClaims()
	if user == nil || user.ID == "" {
		return apiErrors.ErrUnauthorized()
	}

	hasPermission, err := rg.perms.HasPermission(ctx.Context(), user.ID, permissions.RequestsView)
	if err != nil {
		slog.Error("Failed to check permission", "error", err)
		return apiErrors.ErrInternalServerError().SetDetail("Permission check failed")
	}
	if !hasPermission {
		return apiErrors.ErrForbidden().SetDetail("You don't have permission to view all requests")
	}

	filter := repository.RequestFilter{
		UserID:    ctx.Query("user_id"),
		MediaType: ctx.Query("media_type"),
		Limit:     int64(ctx.QueryInt("limit", 0)),
		Offset:    int64(ctx.QueryInt("offset", 0)),
	}
	if status := ctx.Query("status"); status != "" {
		filter.StatusIn = strings.Split(status, ",")
	}

	requests, err := rg.gctx.Crate().Sqlite.Query().FindRequests(ctx.Context(), filter)
	if err != nil {
		slog.Error("Failed to get requests", "error", err)
		return apiErrors.ErrInternalServerError().SetDetail("Failed to retrieve requests")
	}

	// Requester usernames resolved once per distinct user, not per row.
	usernames := make(map[string]string)
	var apiRequests []structures.Request
	for _, request := range requests {
		api := toAPIRequest(request)
		username, ok := usernames[request.UserID]
		if !ok {
			username = request.UserID
			if owner, err := rg.gctx.Crate().Sqlite.Query().GetUserByID(ctx.Context(), request.UserID); err == nil {
				username = owner.Username
			}
			usernames[request.UserID] = username
		}
		api.Username = username
		apiRequests = append(apiRequests, api)
	}

	return ctx.JSON(apiRequests)
}

// GetUserRequests returns current user's requests
func (rg *RouteGroup) GetUserRequests(ctx *respond.Ctx) error {
	user := ctx.ParseClaims()
	if user == nil || user.ID == "" {
		return apiErrors.ErrUnauthorized()
	}

	allRequests, err := rg.gctx.Crate().Sqlite.Query().GetAllRequests(ctx.Context())
	if err != nil {
		slog.Error("Failed to get requests", "error", err)
		return apiErrors.ErrInternalServerError().SetDetail("Failed to retrieve requests")
	}

	var apiRequests []structures.Request
	for _, request := range allRequests {
		if request.UserID == user.ID || (request.OnBehalfOf.Valid && request.OnBehalfOf.String == user.ID) {
			apiRequests = append(apiRequests, toAPIRequest(request))
		}
	}

	return ctx.JSON(apiRequests)
}

// GetPendingRequests returns pending requests (admin only)
func (rg *RouteGroup) GetPendingRequests(ctx *respond.Ctx) error {
	user := ctx.ParseClaims()
	if user == nil || user.ID == "" {
		return apiErrors.ErrUnauthorized()
	}

	hasPermission, err := rg.perms.HasPermission(ctx.Context(), user.ID, permissions.RequestsView)
	if err != nil {
		slog.Error("Failed to check permission", "error", err)
		return apiErrors.ErrInternalServerError().SetDetail("Permission check failed")
	}
	if !hasPermission {
		return apiErrors.ErrForbidden().SetDetail("You don't have permission to view pending requests")
	}

	requests, err := rg.gctx.Crate().Sqlite.Query().GetPendingRequests(ctx.Context())
	if err != nil {
		slog.Error("Failed to get pending requests", "error", err)
		return apiErrors.ErrInternalServerError().SetDetail("Failed to retrieve pending requests")
	}

	var apiRequests []structures.Request
	for _, request := range requests {
		apiRequests = append(apiRequests, toAPIRequest(request))
	}

	return ctx.JSON(apiRequests)
}

// GetRequestByID returns specific request by ID
func (rg *RouteGroup) GetRequestByID(ctx *respond.Ctx) error {
	user := ctx.ParseClaims()
	if user == nil || user.ID == "" {
		return apiErrors.ErrUnauthorized()
	}

	requestID, err := rg.parseRequestID(ctx)
	if err != nil {
		return err
	}

	request, err := rg.gctx.Crate().Sqlite.Query().GetRequestByID(ctx.Context(), requestID)
	if err != nil {
		if err == sql.ErrNoRows {
			return apiErrors.ErrNotFound().SetDetail("Request not found")
		}
		slog.Error("Failed to get request by ID", "error", err, "request_id", requestID)
		return apiErrors.ErrInternalServerError().SetDetail("Failed to retrieve request")
	}

	canViewAll, err := rg.perms.HasPermission(ctx.Context(), user.ID, permissions.RequestsView)
	if err != nil {
		slog.Error("Failed to check permission", "error", err)
		return apiErrors.ErrInternalServerError().SetDetail("Permission check failed")
	}

	isOwner := request.UserID == user.ID
	isOnBehalfOf := request.OnBehalfOf.Valid && request.OnBehalfOf.String == user.ID
	if !canViewAll && !isOwner && !isOnBehalfOf {
		return apiErrors.ErrForbidden().SetDetail("You don't have permission to view this request")
	}

	return ctx.JSON(toAPIRequest(request))
}

// GetRequestStatistics returns request statistics (admin only)
func (rg *RouteGroup) GetRequestStatistics(ctx *respond.Ctx) error {
	user := ctx.ParseClaims()
	if user == nil || user.ID == "" {
		return apiErrors.ErrUnauthorized()
	}

	hasPermission, err := rg.perms.HasPermission(ctx.Context(), user.ID, permissions.RequestsView)
	if err != nil {
		slog.Error("Failed to check permission", "error", err)
		return apiErrors.ErrInternalServerError().SetDetail("Permission check failed")
	}
	if !hasPermission {
		return apiErrors.ErrForbidden().SetDetail("You don't have permission to view request statistics")
	}

	stats, err := rg.gctx.Crate().Sqlite.Query().GetRequestStatistics(ctx.Context())
	if err != nil {
		slog.Error("Failed to get request statistics", "error", err)
		return apiErrors.ErrInternalServerError().SetDetail("Failed to retrieve request statistics")
	}

	return ctx.JSON(structures.RequestStatistics{
		TotalRequests:     stats.TotalRequests,
		PendingRequests:   stats.PendingRequests,
		ApprovedRequests:  stats.ApprovedRequests,
		DeniedRequests:    stats.DeniedRequests,
		FulfilledRequests: stats.FulfilledRequests,
	})
}
