package requests

import (
	"context"
	"database/sql"
	"sync/atomic"
	"testing"

	"github.com/veyronhq/reqforge/internal/db/repository"
	"github.com/veyronhq/reqforge/internal/integrations/radarr"
	"github.com/veyronhq/reqforge/internal/integrations/sonarr"
	"github.com/veyronhq/reqforge/internal/services/dispatcher"
	"github.com/veyronhq/reqforge/internal/services/instances"
	permsvc "github.com/veyronhq/reqforge/internal/services/permissions"
	"github.com/veyronhq/reqforge/internal/testutil"
	apiErrors "github.com/veyronhq/reqforge/pkg/api_errors"
	"github.com/veyronhq/reqforge/pkg/permissions"
	"github.com/veyronhq/reqforge/pkg/structures"
)

// fakeRadarr records AddMovie calls and answers with a fixed downstream id.
type fakeRadarr struct {
	radarr.Service
	addCalls int64
}

func (f *fakeRadarr) AddMovie(ctx context.Context, instance repository.ArrService, input radarr.AddMovieInput) (*radarr.AddMovieResponse, error) {
	atomic.AddInt64(&f.addCalls, 1)
	return &radarr.AddMovieResponse{ID: 77, Title: input.Title, TmdbID: input.TmdbID}, nil
}

func (f *fakeRadarr) GetMovieByTMDBID(ctx context.Context, instance repository.ArrService, tmdbID int64) (*radarr.MovieResponse, error) {
	return nil, nil
}

// fakeSonarr records AddSeries calls with their inputs.
type fakeSonarr struct {
	sonarr.Service
	addCalls int64
	lastAdd  sonarr.AddSeriesInput
}

func (f *fakeSonarr) AddSeries(ctx context.Context, instance repository.ArrService, input sonarr.AddSeriesInput) (*sonarr.AddSeriesResponse, error) {
	atomic.AddInt64(&f.addCalls, 1)
	f.lastAdd = input
	return &sonarr.AddSeriesResponse{ID: 55, Title: input.Title, TmdbID: input.TmdbID}, nil
}

func (f *fakeSonarr) GetSeriesByTMDBID(ctx context.Context, instance repository.ArrService, tmdbID int64) (*sonarr.SeriesResponse, error) {
	return nil, nil
}

type harness struct {
	queries *repository.Queries
	engine  *permsvc.Engine
	service *Service
	radarr  *fakeRadarr
	sonarr  *fakeSonarr
}

func newHarness(t *testing.T) *harness {
	_, queries := testutil.NewDB(t)
	engine := permsvc.NewEngine(queries, nil)
	selector := instances.New(queries, engine)
	fakeR := &fakeRadarr{}
	fakeS := &fakeSonarr{}
	disp := dispatcher.New(queries, fakeR, fakeS)
	service := New(queries, engine, selector, disp, nil)

	testutil.SeedInstance(t, queries, repository.CreateArrServiceParams{
		ID: "m1", Type: "radarr", Name: "movies", BaseUrl: "http://m1", ApiKey: "k",
		QualityProfile: "4", RootFolderPath: "/movies", IsDefaultMovie: true,
	})
	testutil.SeedInstance(t, queries, repository.CreateArrServiceParams{
		ID: "t1", Type: "sonarr", Name: "series", BaseUrl: "http://t1", ApiKey: "k",
		QualityProfile: "6", RootFolderPath: "/tv", IsDefaultTv: true,
	})

	return &harness{queries: queries, engine: engine, service: service, radarr: fakeR, sonarr: fakeS}
}

func (h *harness) count(t *testing.T, userID string) int64 {
	t.Helper()
	profile, err := h.queries.GetUserRequestProfile(context.Background(), userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0
		}
		t.Fatal(err)
	}
	return profile.CurrentRequestCount
}

func errCode(err error) int {
	if apiErr, ok := err.(apiErrors.APIError); ok {
		return apiErr.Code()
	}
	return 0
}

func TestAutoApprovedMovieHappyPath(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	testutil.SeedUser(t, h.queries, "u1", "u1")
	testutil.GrantPermission(t, h.queries, "u1", permissions.RequestMovies)
	testutil.GrantPermission(t, h.queries, "u1", permissions.RequestAutoApproveMovies)

	result, err := h.service.Create(ctx, CreateSpec{
		UserID:    "u1",
		MediaType: structures.MediaTypeMovie,
		TmdbID:    603,
		Title:     "The Matrix",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !result.AutoApproved {
		t.Fatal("expected auto-approval")
	}
	if result.Integration == nil || result.Integration.ServiceID != 77 {
		t.Fatalf("expected integration result with radarr id 77, got %+v", result.Integration)
	}

	row, err := h.queries.GetRequestByID(ctx, result.Requests[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if row.Status != "downloading" {
		t.Errorf("status = %s, want downloading after successful dispatch", row.Status)
	}
	if !row.RadarrID.Valid || row.RadarrID.Int64 != 77 {
		t.Errorf("radarr_id = %+v, want 77", row.RadarrID)
	}
	if !row.ServiceInstanceID.Valid || row.ServiceInstanceID.String != "m1" {
		t.Errorf("service_instance_id = %+v, want m1", row.ServiceInstanceID)
	}
	if got := h.count(t, "u1"); got != 0 {
		t.Errorf("auto-approved requests must not count as pending, count = %d", got)
	}
}

func TestPendingApproveDispatchFlow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	testutil.SeedUser(t, h.queries, "u2", "u2")
	testutil.SeedUser(t, h.queries, "admin", "admin")
	testutil.GrantPermission(t, h.queries, "u2", permissions.RequestSeries)
	testutil.GrantPermission(t, h.queries, "admin", permissions.Owner)

	result, err := h.service.Create(ctx, CreateSpec{
		UserID:    "u2",
		MediaType: structures.MediaTypeTV,
		TmdbID:    1399,
		Title:     "Game of Thrones",
	})
	if err != nil {
		t.Fatal(err)
	}
	requestID := result.Requests[0].ID
	if result.Requests[0].Status != "pending" {
		t.Fatalf("status = %s, want pending", result.Requests[0].Status)
	}
	if got := h.count(t, "u2"); got != 1 {
		t.Fatalf("count after pending create = %d, want 1", got)
	}

	approved, integration, err := h.service.Approve(ctx, requestID, "admin", "")
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if integration == nil || integration.ServiceID != 55 {
		t.Fatalf("expected sonarr dispatch, got %+v", integration)
	}
	if approved.ApproverID.String != "admin" {
		t.Errorf("approver_id = %s, want admin", approved.ApproverID.String)
	}
	if got := h.count(t, "u2"); got != 0 {
		t.Errorf("count after approve = %d, want 0", got)
	}

	// Approve is idempotent: same downstream id, no second pending flip.
	_, integration2, err := h.service.Approve(ctx, requestID, "admin", "")
	if err != nil {
		t.Fatalf("second Approve: %v", err)
	}
	if integration2 == nil || integration2.ServiceID != 55 {
		t.Errorf("idempotent approve lost the downstream id: %+v", integration2)
	}
	if calls := atomic.LoadInt64(&h.sonarr.addCalls); calls != 1 {
		t.Errorf("AddSeries called %d times, want 1 (idempotent by request)", calls)
	}

	// Reject after approve is forbidden.
	if _, err := h.service.Reject(ctx, requestID, "admin", ""); err == nil {
		t.Error("reject of an approved request must fail")
	}
}

func TestMovieDuplicateConflict(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	testutil.SeedUser(t, h.queries, "u1", "u1")
	testutil.GrantPermission(t, h.queries, "u1", permissions.RequestMovies)

	if _, err := h.service.Create(ctx, CreateSpec{
		UserID: "u1", MediaType: structures.MediaTypeMovie, TmdbID: 603, Title: "The Matrix",
	}); err != nil {
		t.Fatal(err)
	}
	_, err := h.service.Create(ctx, CreateSpec{
		UserID: "u1", MediaType: structures.MediaTypeMovie, TmdbID: 603, Title: "The Matrix",
	})
	if errCode(err) != errCode(apiErrors.ErrAlreadyRequestedMovie()) {
		t.Errorf("expected already-requested-movie conflict, got %v", err)
	}

	// Conflict failures are atomic: exactly one row, count still 1.
	if got := h.count(t, "u1"); got != 1 {
		t.Errorf("count after rejected duplicate = %d, want 1", got)
	}
}

func TestPartialRejectedUnderWholeSeries(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	testutil.SeedUser(t, h.queries, "u1", "u1")
	testutil.GrantPermission(t, h.queries, "u1", permissions.RequestSeries)

	if _, err := h.service.Create(ctx, CreateSpec{
		UserID: "u1", MediaType: structures.MediaTypeTV, TmdbID: 456, Title: "Show",
	}); err != nil {
		t.Fatal(err)
	}

	_, err := h.service.Create(ctx, CreateSpec{
		UserID: "u1", MediaType: structures.MediaTypeTV, TmdbID: 456, Title: "Show",
		Kind: KindSeason, SeasonNumber: 2,
	})
	if errCode(err) != errCode(apiErrors.ErrWholeSeriesExists()) {
		t.Errorf("expected whole-series conflict for season create, got %v", err)
	}

	_, err = h.service.Create(ctx, CreateSpec{
		UserID: "u1", MediaType: structures.MediaTypeTV, TmdbID: 456, Title: "Show",
		Kind: KindEpisode, SeasonNumber: 4, EpisodeNumber: 1,
	})
	if errCode(err) != errCode(apiErrors.ErrWholeSeriesExists()) {
		t.Errorf("expected whole-series conflict for episode create, got %v", err)
	}
}

func TestWholeSeriesSupersedesPartials(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	testutil.SeedUser(t, h.queries, "u1", "u1")
	testutil.GrantPermission(t, h.queries, "u1", permissions.RequestSeries)

	if _, err := h.service.Create(ctx, CreateSpec{
		UserID: "u1", MediaType: structures.MediaTypeTV, TmdbID: 456, Title: "Show",
		Kind: KindSeason, SeasonNumber: 2,
	}); err != nil {
		t.Fatal(err)
	}

	// Creating a whole-series request over an existing partial is allowed.
	if _, err := h.service.Create(ctx, CreateSpec{
		UserID: "u1", MediaType: structures.MediaTypeTV, TmdbID: 456, Title: "Show",
	}); err != nil {
		t.Errorf("whole-series create over a partial should supersede, got %v", err)
	}
}

func TestGranularCreateSkipsConflictsAndBatchesDispatch(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	testutil.SeedUser(t, h.queries, "u1", "u1")
	testutil.GrantPermission(t, h.queries, "u1", permissions.RequestSeries)
	testutil.GrantPermission(t, h.queries, "u1", permissions.RequestAutoApproveSeries)

	// Pre-existing season-2 partial.
	if _, err := h.queries.CreateRequest(ctx, repository.CreateRequestParams{
		UserID:          "u1",
		MediaType:       "tv",
		TmdbID:          sql.NullInt64{Int64: 456, Valid: true},
		Title:           sql.NullString{String: "Show", Valid: true},
		Status:          "approved",
		IsSeasonRequest: true,
		SeasonNumber:    sql.NullInt64{Int64: 2, Valid: true},
	}); err != nil {
		t.Fatal(err)
	}

	result, err := h.service.Create(ctx, CreateSpec{
		UserID:    "u1",
		MediaType: structures.MediaTypeTV,
		TmdbID:    456,
		Title:     "Show",
		Kind:      KindGranular,
		Seasons:   []int{2, 3},
		Episodes:  map[int][]int{4: {1, 2}},
	})
	if err != nil {
		t.Fatalf("granular Create: %v", err)
	}

	// Season 2 skipped, season 3 + S04E01 + S04E02 created.
	if len(result.Skipped) != 1 || result.Skipped[0] != "season 2" {
		t.Errorf("skipped = %v, want [season 2]", result.Skipped)
	}
	if len(result.Requests) != 3 {
		t.Fatalf("created %d rows, want 3", len(result.Requests))
	}

	// One coordinated dispatch carrying the union.
	if calls := atomic.LoadInt64(&h.sonarr.addCalls); calls != 1 {
		t.Fatalf("AddSeries called %d times, want exactly 1 for the batch", calls)
	}
	if h.sonarr.lastAdd.MonitorType != sonarr.MonitorSpecificEpisodes {
		t.Errorf("monitor type = %s, want specificEpisodes", h.sonarr.lastAdd.MonitorType)
	}
	if len(h.sonarr.lastAdd.Episodes[4]) != 2 {
		t.Errorf("episode union = %v, want S4 episodes [1 2]", h.sonarr.lastAdd.Episodes)
	}
	seasonSet := make(map[int]bool)
	for _, season := range h.sonarr.lastAdd.Seasons {
		seasonSet[season] = true
	}
	if !seasonSet[3] || !seasonSet[4] {
		t.Errorf("season union = %v, want to include 3 and 4", h.sonarr.lastAdd.Seasons)
	}

	// All created rows carry the shared sonarr id.
	for _, request := range result.Requests {
		row, err := h.queries.GetRequestByID(ctx, request.ID)
		if err != nil {
			t.Fatal(err)
		}
		if !row.SonarrID.Valid || row.SonarrID.Int64 != 55 {
			t.Errorf("row %d sonarr_id = %+v, want 55", row.ID, row.SonarrID)
		}
	}
}

func TestDeleteRoundTrip(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	testutil.SeedUser(t, h.queries, "u1", "u1")
	testutil.GrantPermission(t, h.queries, "u1", permissions.RequestMovies)

	before := h.count(t, "u1")
	result, err := h.service.Create(ctx, CreateSpec{
		UserID: "u1", MediaType: structures.MediaTypeMovie, TmdbID: 603, Title: "The Matrix",
	})
	if err != nil {
		t.Fatal(err)
	}
	requestID := result.Requests[0].ID

	if err := h.service.Delete(ctx, requestID, "u1"); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if got := h.count(t, "u1"); got != before {
		t.Errorf("count after create+delete = %d, want %d", got, before)
	}

	// Second delete finds nothing.
	err = h.service.Delete(ctx, requestID, "u1")
	if errCode(err) != errCode(apiErrors.ErrNotFound()) {
		t.Errorf("second delete should be NOT_FOUND, got %v", err)
	}
}

func TestDeleteRequiresOwnershipOrGrant(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	testutil.SeedUser(t, h.queries, "u1", "u1")
	testutil.SeedUser(t, h.queries, "stranger", "stranger")
	testutil.SeedUser(t, h.queries, "mod", "mod")
	testutil.GrantPermission(t, h.queries, "u1", permissions.RequestMovies)
	testutil.GrantPermission(t, h.queries, "mod", permissions.RequestsDelete)

	result, err := h.service.Create(ctx, CreateSpec{
		UserID: "u1", MediaType: structures.MediaTypeMovie, TmdbID: 603, Title: "The Matrix",
	})
	if err != nil {
		t.Fatal(err)
	}
	requestID := result.Requests[0].ID

	if err := h.service.Delete(ctx, requestID, "stranger"); err == nil {
		t.Error("a stranger must not delete someone else's request")
	}
	if err := h.service.Delete(ctx, requestID, "mod"); err != nil {
		t.Errorf("delete grant should allow deletion: %v", err)
	}
}

func TestMarkAvailableRules(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	testutil.SeedUser(t, h.queries, "u1", "u1")
	testutil.SeedUser(t, h.queries, "admin", "admin")
	testutil.GrantPermission(t, h.queries, "u1", permissions.RequestMovies)
	testutil.GrantPermission(t, h.queries, "admin", permissions.Owner)

	result, err := h.service.Create(ctx, CreateSpec{
		UserID: "u1", MediaType: structures.MediaTypeMovie, TmdbID: 603, Title: "The Matrix",
	})
	if err != nil {
		t.Fatal(err)
	}
	requestID := result.Requests[0].ID

	updated, err := h.service.MarkAvailable(ctx, requestID, "admin")
	if err != nil {
		t.Fatalf("MarkAvailable: %v", err)
	}
	if updated.Status != "available" {
		t.Errorf("status = %s, want available", updated.Status)
	}
	if got := h.count(t, "u1"); got != 0 {
		t.Errorf("count after available-from-pending = %d, want 0", got)
	}

	// Rejected requests cannot be revived.
	rejected, err := h.service.Create(ctx, CreateSpec{
		UserID: "u1", MediaType: structures.MediaTypeMovie, TmdbID: 604, Title: "Reloaded",
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := h.service.Reject(ctx, rejected.Requests[0].ID, "admin", "no"); err != nil {
		t.Fatal(err)
	}
	if _, err := h.service.MarkAvailable(ctx, rejected.Requests[0].ID, "admin"); err == nil {
		t.Error("mark-available must refuse rejected requests")
	}
}

func TestQuotaExceededCreate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	testutil.SeedUser(t, h.queries, "u1", "u1")
	testutil.GrantPermission(t, h.queries, "u1", permissions.RequestMovies)
	if err := h.queries.UpsertUserRequestProfile(ctx, repository.UpsertUserRequestProfileParams{
		UserID:      "u1",
		MaxRequests: sql.NullInt64{Int64: 1, Valid: true},
	}); err != nil {
		t.Fatal(err)
	}

	if _, err := h.service.Create(ctx, CreateSpec{
		UserID: "u1", MediaType: structures.MediaTypeMovie, TmdbID: 603, Title: "The Matrix",
	}); err != nil {
		t.Fatal(err)
	}
	_, err := h.service.Create(ctx, CreateSpec{
		UserID: "u1", MediaType: structures.MediaTypeMovie, TmdbID: 604, Title: "Reloaded",
	})
	if errCode(err) != errCode(apiErrors.ErrQuotaExceeded()) {
		t.Errorf("expected quota exceeded, got %v", err)
	}
}

func TestMediaTypeForbidden(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	testutil.SeedUser(t, h.queries, "u1", "u1")
	// Movies only, no TV grant.
	testutil.GrantPermission(t, h.queries, "u1", permissions.RequestMovies)

	_, err := h.service.Create(ctx, CreateSpec{
		UserID: "u1", MediaType: structures.MediaTypeTV, TmdbID: 1399, Title: "GoT",
	})
	if errCode(err) != errCode(apiErrors.ErrMediaTypeForbidden()) {
		t.Errorf("expected media-type forbidden, got %v", err)
	}
}
