package structures

// STRUCTURES FOR TMDB API RESPONSES

type TMDBPageResults struct {
	Page         int64 `json:"page"`
	TotalPages   int64 `json:"total_pages"`
	TotalResults int64 `json:"total_results"`
}

type TMDBMediaResponse struct {
	TMDBPageResults
	Results []TMDBMediaItem `json:"results"`
}

type TMDBMediaItem struct {
	Adult            bool     `json:"adult,omitempty"`
	BackdropPath     string   `json:"backdrop_path,omitempty"`
	GenreIDs         []int64  `json:"genre_ids,omitempty"`
	ID               int64    `json:"id"`
	OriginalLanguage string   `json:"original_language"`
	OriginalTitle    string   `json:"original_title,omitempty"`
	Overview         string   `json:"overview,omitempty"`
	PosterPath       string   `json:"poster_path,omitempty"`
	ReleaseDate      string   `json:"release_date,omitempty"`
	Title            string   `json:"title,omitempty"`
	VoteAverage      float32  `json:"vote_average,omitempty"`
	VoteCount        int64    `json:"vote_count,omitempty"`
	Popularity       float32  `json:"popularity,omitempty"`
	FirstAirDate     string   `json:"first_air_date,omitempty"`
	Name             string   `json:"name,omitempty"`
	OriginCountry    []string `json:"origin_country,omitempty"`
	OriginalName     string   `json:"original_name,omitempty"`
	MediaType        string   `json:"media_type,omitempty"`
}

type CastMember struct {
	Adult              bool    `json:"adult"`
	Character          string  `json:"character"`
	CreditID           string  `json:"credit_id"`
	Gender             int     `json:"gender"`
	ID                 int     `json:"id"`
	KnownForDepartment string  `json:"known_for_department"`
	Name               string  `json:"name"`
	Order              int     `json:"order"`
	OriginalName       string  `json:"original_name"`
	Popularity         float64 `json:"popularity"`
	ProfilePath        string  `json:"profile_path"`
}

type CrewMember struct {
	Adult              bool    `json:"adult"`
	CreditID           string  `json:"credit_id"`
	Department         string  `json:"department"`
	Gender             int     `json:"gender"`
	ID                 int     `json:"id"`
	Job                string  `json:"job"`
	KnownForDepartment string  `json:"known_for_department"`
	Name               string  `json:"name"`
	OriginalName       string  `json:"original_name"`
	Popularity         float64 `json:"popularity"`
	ProfilePath        string  `json:"profile_path"`
}

type Episode struct {
	AirDate        string       `json:"air_date"`
	EpisodeNumber  int          `json:"episode_number"`
	EpisodeType    string       `json:"episode_type"`
	ID             int          `json:"id"`
	Name           string       `json:"name"`
	Overview       string       `json:"overview"`
	ProductionCode string       `json:"production_code"`
	Runtime        int          `json:"runtime"`
	SeasonNumber   int          `json:"season_number"`
	ShowID         int          `json:"show_id"`
	StillPath      string       `json:"still_path"`
	VoteAverage    float64      `json:"vote_average"`
	VoteCount      int          `json:"vote_count"`
	Crew           []CrewMember `json:"crew"`
	GuestStars     []CastMember `json:"guest_stars"`
}

type SeasonDetails struct {
	ID           string    `json:"_id"`
	AirDate      string    `json:"air_date"`
	Name         string    `json:"name"`
	Overview     string    `json:"overview"`
	IDNum        int       `json:"id"` // note: duplicated as both _id (string) and id (int)
	PosterPath   string    `json:"poster_path"`
	SeasonNumber int       `json:"season_number"`
	VoteAverage  float64   `json:"vote_average"`
	Episodes     []Episode `json:"episodes"`
}

type DiscoverMovieParams struct {
	Page int `url:"page,omitempty"`

	// Date range filters
	ReleaseDateGTE string `url:"release_date.gte,omitempty"` // Format: YYYY-MM-DD
	ReleaseDateLTE string `url:"release_date.lte,omitempty"` // Format: YYYY-MM-DD

	// Genres
	WithGenres string `url:"with_genres,omitempty"` // TMDB genre ID(s), comma/pipe separated

	// TMDB user score (vote_average)
	VoteAverageGTE float64 `url:"vote_average.gte,omitempty"`
	VoteAverageLTE float64 `url:"vote_average.lte,omitempty"`

	// TMDB user vote count
	VoteCountGTE int `url:"vote_count.gte,omitempty"`
	VoteCountLTE int `url:"vote_count.lte,omitempty"`

	// Sorting (optional, but often useful)
	SortBy string `url:"sort_by,omitempty"`
}
