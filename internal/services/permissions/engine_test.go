package permissions

import (
	"context"
	"database/sql"
	"testing"

	"github.com/veyronhq/reqforge/internal/db/repository"
	"github.com/veyronhq/reqforge/internal/testutil"
	"github.com/veyronhq/reqforge/pkg/permissions"
	"github.com/veyronhq/reqforge/pkg/structures"
)

func TestHasPermissionResolutionOrder(t *testing.T) {
	_, queries := testutil.NewDB(t)
	engine := NewEngine(queries, nil)
	ctx := context.Background()

	testutil.SeedUser(t, queries, "owner-user", "owner")
	testutil.SeedUser(t, queries, "granted-user", "granted")
	testutil.SeedUser(t, queries, "default-user", "defaulted")
	testutil.SeedUser(t, queries, "plain-user", "plain")

	testutil.GrantPermission(t, queries, "owner-user", permissions.Owner)
	testutil.GrantPermission(t, queries, "granted-user", permissions.RequestMovies)

	// Role-style default: enabled for everyone without an explicit grant.
	if err := queries.EnsureDefaultPermissionExists(ctx, permissions.RequestSeries); err != nil {
		t.Fatal(err)
	}
	if err := queries.UpdateDefaultPermission(ctx, repository.UpdateDefaultPermissionParams{
		PermissionID: permissions.RequestSeries,
		Enabled:      true,
	}); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name   string
		userID string
		flag   string
		want   bool
	}{
		{"owner short-circuits any flag", "owner-user", permissions.AdminSystem, true},
		{"explicit grant", "granted-user", permissions.RequestMovies, true},
		{"explicit grant does not leak", "granted-user", permissions.AdminUsers, false},
		{"enabled default applies", "plain-user", permissions.RequestSeries, true},
		{"deny when nothing matches", "plain-user", permissions.RequestMovies, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := engine.HasPermission(ctx, tc.userID, tc.flag)
			if err != nil {
				t.Fatalf("HasPermission: %v", err)
			}
			if got != tc.want {
				t.Errorf("HasPermission(%s, %s) = %v, want %v", tc.userID, tc.flag, got, tc.want)
			}
		})
	}
}

func TestCanRequestMediaTypeTriState(t *testing.T) {
	_, queries := testutil.NewDB(t)
	engine := NewEngine(queries, nil)
	ctx := context.Background()

	testutil.SeedUser(t, queries, "u1", "u1")
	testutil.GrantPermission(t, queries, "u1", permissions.RequestMovies)

	// Flag chain grants movies.
	ok, err := engine.CanRequestMediaType(ctx, "u1", structures.MediaTypeMovie)
	if err != nil || !ok {
		t.Fatalf("expected movie access via flag, got %v %v", ok, err)
	}

	// A hard false override wins over the flag.
	if err := queries.UpsertUserRequestProfile(ctx, repository.UpsertUserRequestProfileParams{
		UserID:           "u1",
		CanRequestMovies: sql.NullBool{Bool: false, Valid: true},
	}); err != nil {
		t.Fatal(err)
	}
	ok, err = engine.CanRequestMediaType(ctx, "u1", structures.MediaTypeMovie)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("hard override should deny movies despite the flag")
	}

	// A hard true override grants TV with no flag at all.
	if err := queries.UpsertUserRequestProfile(ctx, repository.UpsertUserRequestProfileParams{
		UserID:       "u1",
		CanRequestTv: sql.NullBool{Bool: true, Valid: true},
	}); err != nil {
		t.Fatal(err)
	}
	ok, err = engine.CanRequestMediaType(ctx, "u1", structures.MediaTypeTV)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("hard override should grant tv without a flag")
	}
}

func TestQuotaEdge(t *testing.T) {
	_, queries := testutil.NewDB(t)
	engine := NewEngine(queries, nil)
	ctx := context.Background()

	testutil.SeedUser(t, queries, "u1", "u1")
	if err := queries.UpsertUserRequestProfile(ctx, repository.UpsertUserRequestProfileParams{
		UserID:      "u1",
		MaxRequests: sql.NullInt64{Int64: 2, Valid: true},
	}); err != nil {
		t.Fatal(err)
	}

	// At limit-1, exactly one further create is allowed.
	if err := engine.IncrementRequestCount(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	ok, _, err := engine.CanMakeRequest(ctx, "u1")
	if err != nil || !ok {
		t.Fatalf("expected request allowed at count 1/2, got %v %v", ok, err)
	}

	if err := engine.IncrementRequestCount(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	ok, reason, err := engine.CanMakeRequest(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected quota exceeded at count 2/2")
	}
	if reason != "Request limit reached (2/2)" {
		t.Errorf("unexpected reason %q", reason)
	}

	// REQUEST_UNLIMITED ignores the limit regardless of count.
	testutil.GrantPermission(t, queries, "u1", permissions.RequestUnlimited)
	ok, _, err = engine.CanMakeRequest(ctx, "u1")
	if err != nil || !ok {
		t.Fatalf("unlimited flag should bypass quota, got %v %v", ok, err)
	}
}

func TestSyncRequestCountsHealsDrift(t *testing.T) {
	_, queries := testutil.NewDB(t)
	engine := NewEngine(queries, nil)
	ctx := context.Background()

	testutil.SeedUser(t, queries, "u1", "u1")
	testutil.SeedUser(t, queries, "u2", "u2")

	for i := 0; i < 3; i++ {
		if _, err := queries.CreateRequest(ctx, repository.CreateRequestParams{
			UserID:    "u1",
			MediaType: "movie",
			TmdbID:    sql.NullInt64{Int64: int64(100 + i), Valid: true},
			Status:    "pending",
		}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := queries.CreateRequest(ctx, repository.CreateRequestParams{
		UserID:    "u2",
		MediaType: "movie",
		TmdbID:    sql.NullInt64{Int64: 999, Valid: true},
		Status:    "approved",
	}); err != nil {
		t.Fatal(err)
	}

	// Drift: counters wildly wrong.
	if err := queries.SetUserRequestCount(ctx, repository.SetUserRequestCountParams{UserID: "u1", CurrentRequestCount: 40}); err != nil {
		t.Fatal(err)
	}
	if err := queries.SetUserRequestCount(ctx, repository.SetUserRequestCountParams{UserID: "u2", CurrentRequestCount: 7}); err != nil {
		t.Fatal(err)
	}

	if err := engine.SyncRequestCounts(ctx); err != nil {
		t.Fatal(err)
	}

	p1, err := queries.GetUserRequestProfile(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if p1.CurrentRequestCount != 3 {
		t.Errorf("u1 count = %d, want 3", p1.CurrentRequestCount)
	}
	p2, err := queries.GetUserRequestProfile(ctx, "u2")
	if err != nil {
		t.Fatal(err)
	}
	if p2.CurrentRequestCount != 0 {
		t.Errorf("u2 count = %d, want 0 (approved requests are not pending)", p2.CurrentRequestCount)
	}

	// Idempotent: a second run changes nothing.
	if err := engine.SyncRequestCounts(ctx); err != nil {
		t.Fatal(err)
	}
	p1, _ = queries.GetUserRequestProfile(ctx, "u1")
	if p1.CurrentRequestCount != 3 {
		t.Errorf("second sync drifted u1 to %d", p1.CurrentRequestCount)
	}
}
