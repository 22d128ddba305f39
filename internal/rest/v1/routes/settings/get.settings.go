package settings

import (
	"github.com/veyronhq/reqforge/internal/rest/v1/respond"
	apiErrors "github.com/veyronhq/reqforge/pkg/api_errors"
	"github.com/veyronhq/reqforge/pkg/structures"
)

type SettingsResponse struct {
	BaseURL               string `json:"base_url,omitempty"`
	Theme                 string `json:"theme"`
	DefaultMaxRequests    int    `json:"default_max_requests"`
	LibrarySyncAllowlist  string `json:"library_sync_allowlist,omitempty"`
	CategoryCacheTTLSecs  int    `json:"category_cache_ttl_seconds"`
}

func (rg *RouteGroup) GetSettings(ctx *respond.Ctx) error {
	user := ctx.ParseClaims()
	if user == nil || user.ID == "" {
		return apiErrors.ErrUnauthorized()
	}

	q := rg.gctx.Crate().Sqlite.Query()
	cfg := rg.gctx.Crate().Config.Get()

	baseURL, _ := q.GetSetting(ctx.Context(), structures.SettingBaseURL.String())
	theme, _ := q.GetSetting(ctx.Context(), structures.SettingTheme.String())
	if theme == "" {
		theme = "system"
	}
	allowlist, _ := q.GetSetting(ctx.Context(), structures.SettingLibrarySyncAllowlist.String())

	resp := SettingsResponse{
		BaseURL:              baseURL,
		Theme:                theme,
		LibrarySyncAllowlist: allowlist,
	}
	if cfg != nil {
		resp.DefaultMaxRequests = cfg.Requests.DefaultMaxRequests
		resp.CategoryCacheTTLSecs = cfg.CategoryCache.TTLSeconds
	}

	return ctx.JSON(resp)
}
