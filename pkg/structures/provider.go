package structures

type Provider string

const (
	ProviderEmby     Provider = "emby"
	ProviderJellyfin Provider = "jellyfin"
)
