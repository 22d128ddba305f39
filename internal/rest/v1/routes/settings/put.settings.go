package settings

import (
	"strconv"

	"github.com/veyronhq/reqforge/internal/db/repository"
	"github.com/veyronhq/reqforge/internal/rest/v1/respond"
	apiErrors "github.com/veyronhq/reqforge/pkg/api_errors"
	"github.com/veyronhq/reqforge/pkg/structures"
)

type UpdateSettingsRequest struct {
	BaseURL              *string `json:"base_url,omitempty"`
	Theme                *string `json:"theme,omitempty"`
	DefaultMaxRequests   *int    `json:"default_max_requests,omitempty"`
	LibrarySyncAllowlist *string `json:"library_sync_allowlist,omitempty"`
}

func (rg *RouteGroup) UpdateSettings(ctx *respond.Ctx) error {
	user := ctx.ParseClaims()
	if user == nil || user.ID == "" {
		return apiErrors.ErrUnauthorized()
	}

	var req UpdateSettingsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apiErrors.ErrBadRequest().SetDetail("invalid request body")
	}

	q := rg.gctx.Crate().Sqlite.Query()

	upsert := func(key structures.Setting, value string) error {
		return q.UpsertSetting(ctx.Context(), repository.UpsertSettingParams{
			Key:   key.String(),
			Value: value,
		})
	}

	if req.BaseURL != nil {
		normalized, err := normalizeBaseURL(*req.BaseURL)
		if err != nil {
			return apiErrors.ErrBadRequest().SetDetail("invalid base_url: " + err.Error())
		}
		if err := upsert(structures.SettingBaseURL, normalized); err != nil {
			return apiErrors.ErrInternalServerError().SetDetail("failed to update base URL setting")
		}
	}

	if req.Theme != nil {
		if err := upsert(structures.SettingTheme, *req.Theme); err != nil {
			return apiErrors.ErrInternalServerError().SetDetail("failed to update theme setting")
		}
	}

	if req.DefaultMaxRequests != nil {
		if err := upsert(structures.SettingDefaultMaxRequests, strconv.Itoa(*req.DefaultMaxRequests)); err != nil {
			return apiErrors.ErrInternalServerError().SetDetail("failed to update default max requests setting")
		}
	}

	if req.LibrarySyncAllowlist != nil {
		if err := upsert(structures.SettingLibrarySyncAllowlist, *req.LibrarySyncAllowlist); err != nil {
			return apiErrors.ErrInternalServerError().SetDetail("failed to update library sync allowlist")
		}
	}

	if err := rg.gctx.Crate().Config.Reload(ctx.Context()); err != nil {
		return apiErrors.ErrInternalServerError().SetDetail("settings saved but failed to reload configuration")
	}

	return ctx.JSON(map[string]string{"message": "Settings updated successfully"})
}
