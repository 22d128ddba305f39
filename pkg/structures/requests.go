package structures

// Request is the API representation of a media request.
type Request struct {
	ID                int64          `json:"id"`
	UserID            string         `json:"user_id"`
	Username          string         `json:"username,omitempty"`
	MediaType         string         `json:"media_type"`
	TmdbID            *int64         `json:"tmdb_id,omitempty"`
	Title             string         `json:"title"`
	Status            string         `json:"status"`
	Notes             string         `json:"notes,omitempty"`
	PosterURL         string         `json:"poster_url,omitempty"`
	OnBehalfOf        string         `json:"on_behalf_of,omitempty"`
	ApproverID        string         `json:"approver_id,omitempty"`
	ApprovedAt        string         `json:"approved_at,omitempty"`
	QualityTier       string         `json:"quality_tier,omitempty"`
	ServiceInstanceID string         `json:"service_instance_id,omitempty"`
	RadarrID          *int64         `json:"radarr_id,omitempty"`
	SonarrID          *int64         `json:"sonarr_id,omitempty"`
	SeasonNumber      *int64         `json:"season_number,omitempty"`
	EpisodeNumber     *int64         `json:"episode_number,omitempty"`
	IsSeasonRequest   bool           `json:"is_season_request,omitempty"`
	IsEpisodeRequest  bool           `json:"is_episode_request,omitempty"`
	Seasons           []int          `json:"seasons,omitempty"`
	SeasonStatuses    map[string]SeasonInfo `json:"season_statuses,omitempty"`
	FulfilledAt       string         `json:"fulfilled_at,omitempty"`
	CreatedAt         string         `json:"created_at"`
	UpdatedAt         string         `json:"updated_at"`
}

// CreateRequestRequest is the create-request payload. The struct tags are
// enforced by the validator middleware before the lifecycle engine runs.
type CreateRequestRequest struct {
	MediaType         string        `json:"media_type" validate:"required,oneof=movie tv"`
	TmdbID            int64         `json:"tmdb_id" validate:"required,min=1"`
	Title             string        `json:"title" validate:"required,min=1"`
	Notes             *string       `json:"notes,omitempty"`
	PosterURL         *string       `json:"poster_url,omitempty"`
	OnBehalfOf        *string       `json:"on_behalf_of,omitempty"`
	RequestKind       string        `json:"request_kind" validate:"omitempty,oneof=whole season episode granular"`
	SeasonNumber      int           `json:"season_number" validate:"omitempty,min=1"`
	EpisodeNumber     int           `json:"episode_number" validate:"omitempty,min=1"`
	Seasons           []int         `json:"seasons,omitempty"`
	Episodes          map[int][]int `json:"episodes,omitempty"`
	ServiceInstanceID *string       `json:"service_instance_id,omitempty"`
	QualityTier       string        `json:"quality_tier" validate:"omitempty,oneof=standard 4k hdr"`
}

// UpdateRequestRequest moves a request through its lifecycle.
type UpdateRequestRequest struct {
	Status            string  `json:"status" validate:"required,oneof=approved rejected available"`
	Notes             *string `json:"notes,omitempty"`
	ServiceInstanceID *string `json:"service_instance_id,omitempty"`
}

// RequestStatistics summarizes requests across the system.
type RequestStatistics struct {
	TotalRequests     int64 `json:"total_requests"`
	PendingRequests   int64 `json:"pending_requests"`
	ApprovedRequests  int64 `json:"approved_requests"`
	DeniedRequests    int64 `json:"denied_requests"`
	FulfilledRequests int64 `json:"fulfilled_requests"`
}

// SeasonInfo represents the status of a specific season
type SeasonInfo struct {
	Status            string `json:"status"`             // "pending", "approved", "fulfilled", "partial"
	Episodes          string `json:"episodes"`           // "available/total" e.g., "10/10" or "5/12"
	AvailableEpisodes int    `json:"available_episodes"` // Number of episodes available
	TotalEpisodes     int    `json:"total_episodes"`     // Total episodes in season
	LastUpdated       string `json:"last_updated"`       // When status was last updated
}

// SeasonAvailability represents what's available in the media server
type SeasonAvailability struct {
	ID                int    `json:"id"`
	TmdbID            int    `json:"tmdb_id"`
	SeasonNumber      int    `json:"season_number"`
	EpisodeCount      int    `json:"episode_count"`
	AvailableEpisodes int    `json:"available_episodes"`
	IsComplete        bool   `json:"is_complete"`
	LastUpdated       string `json:"last_updated"`
}

// ShowAvailability represents the overall availability of a TV show
type ShowAvailability struct {
	TmdbID        int                  `json:"tmdb_id"`
	Title         string               `json:"title"`
	TotalSeasons  int                  `json:"total_seasons"`
	Seasons       []SeasonAvailability `json:"seasons"`
	OverallStatus string               `json:"overall_status"` // "not_available", "partial", "complete"
}
