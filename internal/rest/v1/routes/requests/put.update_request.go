package requests

import (
	"log/slog"
	"strconv"

	"github.com/veyronhq/reqforge/internal/rest/v1/respond"
	apiErrors "github.com/veyronhq/reqforge/pkg/api_errors"
	"github.com/veyronhq/reqforge/pkg/structures"
)

func (rg *RouteGroup) parseRequestID(ctx *respond.Ctx) (int64, error) {
	requestID, err := strconv.ParseInt(ctx.Params("id"), 10, 64)
	if err != nil {
		return 0, apiErrors.ErrBadRequest().SetDetail("Invalid request ID")
	}
	return requestID, nil
}

// UpdateRequest moves a request through its lifecycle: approve, reject, or
// mark available. The lifecycle engine owns permission checks, guarded
// transitions, and dispatch.
func (rg *RouteGroup) UpdateRequest(ctx *respond.Ctx) error {
	user := ctx.ParseClaims()
	if user == nil || user.ID == "" {
		return apiErrors.ErrUnauthorized()
	}

	requestID, err := rg.parseRequestID(ctx)
	if err != nil {
		return err
	}

	var req structures.UpdateRequestRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apiErrors.ErrBadRequest().SetDetail("Invalid request body")
	}
	if err := rg.validate.Struct(req); err != nil {
		return apiErrors.ErrValidationRejected().SetDetail("%s", err.Error())
	}

	switch structures.RequestStatus(req.Status) {
	case structures.StatusApproved:
		override := ""
		if req.ServiceInstanceID != nil {
			override = *req.ServiceInstanceID
		}
		request, integration, err := rg.service.Approve(ctx.Context(), requestID, user.ID, override)
		if err != nil {
			return err
		}
		slog.Info("Request approved", "request_id", requestID, "approver_id", user.ID)
		return ctx.JSON(struct {
			Request     structures.Request `json:"request"`
			Integration interface{}        `json:"integration,omitempty"`
		}{
			Request:     toAPIRequest(request),
			Integration: integration,
		})

	case structures.StatusRejected:
		reason := ""
		if req.Notes != nil {
			reason = *req.Notes
		}
		request, err := rg.service.Reject(ctx.Context(), requestID, user.ID, reason)
		if err != nil {
			return err
		}
		slog.Info("Request rejected", "request_id", requestID, "approver_id", user.ID)
		return ctx.JSON(toAPIRequest(request))

	case structures.StatusAvailable:
		request, err := rg.service.MarkAvailable(ctx.Context(), requestID, user.ID)
		if err != nil {
			return err
		}
		slog.Info("Request marked available", "request_id", requestID, "acting_user", user.ID)
		return ctx.JSON(toAPIRequest(request))

	default:
		return apiErrors.ErrValidationRejected().SetDetail("Unsupported status transition '%s'", req.Status)
	}
}

// ApproveRequest is the dedicated approve endpoint.
func (rg *RouteGroup) ApproveRequest(ctx *respond.Ctx) error {
	user := ctx.ParseClaims()
	if user == nil || user.ID == "" {
		return apiErrors.ErrUnauthorized()
	}

	requestID, err := rg.parseRequestID(ctx)
	if err != nil {
		return err
	}

	var body struct {
		ServiceInstanceID string `json:"service_instance_id"`
	}
	// The body is optional; an empty one approves onto the stored instance.
	_ = ctx.BodyParser(&body)

	request, integration, err := rg.service.Approve(ctx.Context(), requestID, user.ID, body.ServiceInstanceID)
	if err != nil {
		return err
	}
	return ctx.JSON(struct {
		Request     structures.Request `json:"request"`
		Integration interface{}        `json:"integration,omitempty"`
	}{
		Request:     toAPIRequest(request),
		Integration: integration,
	})
}

// RejectRequest is the dedicated reject endpoint.
func (rg *RouteGroup) RejectRequest(ctx *respond.Ctx) error {
	user := ctx.ParseClaims()
	if user == nil || user.ID == "" {
		return apiErrors.ErrUnauthorized()
	}

	requestID, err := rg.parseRequestID(ctx)
	if err != nil {
		return err
	}

	var body struct {
		Reason string `json:"reason"`
	}
	_ = ctx.BodyParser(&body)

	request, err := rg.service.Reject(ctx.Context(), requestID, user.ID, body.Reason)
	if err != nil {
		return err
	}
	return ctx.JSON(toAPIRequest(request))
}

// MarkRequestAvailable is the dedicated mark-available endpoint.
func (rg *RouteGroup) MarkRequestAvailable(ctx *respond.Ctx) error {
	user := ctx.ParseClaims()
	if user == nil || user.ID == "" {
		return apiErrors.ErrUnauthorized()
	}

	requestID, err := rg.parseRequestID(ctx)
	if err != nil {
		return err
	}

	request, err := rg.service.MarkAvailable(ctx.Context(), requestID, user.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(toAPIRequest(request))
}
