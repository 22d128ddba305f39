package reconciler

import (
	"context"
	"database/sql"
	"testing"

	"github.com/veyronhq/reqforge/internal/db/repository"
	"github.com/veyronhq/reqforge/internal/integrations/radarr"
	"github.com/veyronhq/reqforge/internal/integrations/sonarr"
	"github.com/veyronhq/reqforge/internal/testutil"
)

// fakeRadarr serves a fixed library and queue per instance id.
type fakeRadarr struct {
	radarr.Service
	movies map[string][]radarr.MovieResponse
	queue  map[string][]radarr.QueueRecord
}

func (f *fakeRadarr) GetMovies(ctx context.Context, instance repository.ArrService) ([]radarr.MovieResponse, error) {
	return f.movies[instance.ID], nil
}

func (f *fakeRadarr) GetQueue(ctx context.Context, instance repository.ArrService) ([]radarr.QueueRecord, error) {
	return f.queue[instance.ID], nil
}

type fakeSonarr struct {
	sonarr.Service
	series map[string][]sonarr.SeriesResponse
	queue  map[string][]sonarr.QueueRecord
}

func (f *fakeSonarr) GetSeries(ctx context.Context, instance repository.ArrService) ([]sonarr.SeriesResponse, error) {
	return f.series[instance.ID], nil
}

func (f *fakeSonarr) GetQueue(ctx context.Context, instance repository.ArrService) ([]sonarr.QueueRecord, error) {
	return f.queue[instance.ID], nil
}

func seedRequest(t *testing.T, queries *repository.Queries, userID string, tmdbID int64, mediaType, status, instanceID string) int64 {
	t.Helper()
	row, err := queries.CreateRequest(context.Background(), repository.CreateRequestParams{
		UserID:            userID,
		MediaType:         mediaType,
		TmdbID:            sql.NullInt64{Int64: tmdbID, Valid: true},
		Title:             sql.NullString{String: "title", Valid: true},
		Status:            status,
		ServiceInstanceID: sql.NullString{String: instanceID, Valid: instanceID != ""},
	})
	if err != nil {
		t.Fatal(err)
	}
	return row.ID
}

func TestReconcilerAdvancesRequests(t *testing.T) {
	_, queries := testutil.NewDB(t)
	ctx := context.Background()

	testutil.SeedUser(t, queries, "u1", "u1")
	testutil.SeedInstance(t, queries, repository.CreateArrServiceParams{
		ID: "m1", Type: "radarr", Name: "movies", BaseUrl: "http://m1", ApiKey: "k",
	})
	testutil.SeedInstance(t, queries, repository.CreateArrServiceParams{
		ID: "t1", Type: "sonarr", Name: "series", BaseUrl: "http://t1", ApiKey: "k",
	})

	// Movie 603 (radarr id 77) has a file; 604 (radarr id 88) is
	// mid-download; 605 is unknown downstream.
	hasFileID := seedRequest(t, queries, "u1", 603, "movie", "downloading", "m1")
	inQueueID := seedRequest(t, queries, "u1", 604, "movie", "approved", "m1")
	untouchedID := seedRequest(t, queries, "u1", 605, "movie", "approved", "m1")

	// Series with episode files counts as available.
	seriesID := seedRequest(t, queries, "u1", 1399, "tv", "downloading", "t1")

	fakeR := &fakeRadarr{
		movies: map[string][]radarr.MovieResponse{
			"m1": {
				{ID: 77, TmdbID: 603, HasFile: true},
				{ID: 88, TmdbID: 604, HasFile: false},
			},
		},
		queue: map[string][]radarr.QueueRecord{
			"m1": {{ID: 1, MovieID: 88, Status: "downloading"}},
		},
	}
	fakeS := &fakeSonarr{
		series: map[string][]sonarr.SeriesResponse{
			"t1": {func() sonarr.SeriesResponse {
				s := sonarr.SeriesResponse{ID: 5, TmdbID: 1399}
				s.Statistics.EpisodeFileCount = 3
				return s
			}()},
		},
	}

	service := New(queries, fakeR, fakeS)
	summary, err := service.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Checked != 4 {
		t.Errorf("checked = %d, want 4", summary.Checked)
	}
	if summary.Available != 2 {
		t.Errorf("available transitions = %d, want 2", summary.Available)
	}
	if summary.Downloading != 1 {
		t.Errorf("downloading transitions = %d, want 1", summary.Downloading)
	}

	assertStatus := func(id int64, want string) {
		t.Helper()
		row, err := queries.GetRequestByID(ctx, id)
		if err != nil {
			t.Fatal(err)
		}
		if row.Status != want {
			t.Errorf("request %d status = %s, want %s", id, row.Status, want)
		}
	}
	assertStatus(hasFileID, "available")
	assertStatus(inQueueID, "downloading")
	assertStatus(untouchedID, "approved")
	assertStatus(seriesID, "available")

	// A second pass is a no-op: guarded updates flip nothing.
	summary, err = service.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Available != 0 {
		t.Errorf("second pass available = %d, want 0", summary.Available)
	}
	// The in-queue request is still downloading, so it is re-observed but
	// not re-transitioned.
	assertStatus(inQueueID, "downloading")
}

func TestReconcilerNeverRegressesAvailable(t *testing.T) {
	_, queries := testutil.NewDB(t)
	ctx := context.Background()

	testutil.SeedUser(t, queries, "u1", "u1")
	testutil.SeedInstance(t, queries, repository.CreateArrServiceParams{
		ID: "m1", Type: "radarr", Name: "movies", BaseUrl: "http://m1", ApiKey: "k",
	})

	id := seedRequest(t, queries, "u1", 603, "movie", "available", "m1")

	// Downstream now reports the movie as mid-download again; an available
	// request must not regress.
	fakeR := &fakeRadarr{
		movies: map[string][]radarr.MovieResponse{
			"m1": {{ID: 77, TmdbID: 603, HasFile: false}},
		},
		queue: map[string][]radarr.QueueRecord{
			"m1": {{ID: 1, MovieID: 77, Status: "downloading"}},
		},
	}

	service := New(queries, fakeR, &fakeSonarr{})
	if _, err := service.Run(ctx); err != nil {
		t.Fatal(err)
	}

	row, err := queries.GetRequestByID(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if row.Status != "available" {
		t.Errorf("available request regressed to %s", row.Status)
	}
}
