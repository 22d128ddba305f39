package structures

type Setting string

const (
	// SettingMediaServerType indicates the type of media server being used. Either "emby" or "jellyfin".
	SettingMediaServerType Setting = "media_server_type"
	// SettingMediaServerURL indicates the URL of the media server.
	SettingMediaServerURL Setting = "media_server_url"
	// SettingMediaServerAPIKey indicates the API key for the media server.
	SettingMediaServerAPIKey Setting = "media_server_api_key"
	// SettingTMDBAPIKey indicates the API key used for TMDB metadata lookups.
	SettingTMDBAPIKey Setting = "tmdb_api_key"
	// SettingBaseURL indicates the externally reachable base URL of this instance.
	SettingBaseURL Setting = "base_url"
	// SettingTheme indicates the active UI theme name.
	SettingTheme Setting = "theme"
	// SettingDefaultMaxRequests is the fallback per-user request quota applied
	// when a role and a user's custom permissions are both silent on the limit.
	SettingDefaultMaxRequests Setting = "default_max_requests"
	// SettingLibrarySyncAllowlist is a comma-separated list of library section
	// ids the library sync job is restricted to, empty meaning "all".
	SettingLibrarySyncAllowlist Setting = "library_sync_allowlist"
	// SettingCategoryCacheTTLSeconds controls how long category listing pages
	// are cached before being refreshed from upstream discovery sources.
	SettingCategoryCacheTTLSeconds Setting = "category_cache_ttl_seconds"

	// SettingEmailSettings holds the outbound SMTP configuration as a JSON blob.
	SettingEmailSettings Setting = "email_settings"
)

func (s Setting) String() string {
	return string(s)
}
