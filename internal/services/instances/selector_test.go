package instances

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/veyronhq/reqforge/internal/db/repository"
	permsvc "github.com/veyronhq/reqforge/internal/services/permissions"
	"github.com/veyronhq/reqforge/internal/testutil"
	apiErrors "github.com/veyronhq/reqforge/pkg/api_errors"
	"github.com/veyronhq/reqforge/pkg/structures"
)

func newSelector(t *testing.T) (*Service, *repository.Queries) {
	_, queries := testutil.NewDB(t)
	engine := permsvc.NewEngine(queries, nil)
	return New(queries, engine), queries
}

func TestSoleInstanceFallback(t *testing.T) {
	selector, queries := newSelector(t)
	ctx := context.Background()

	testutil.SeedUser(t, queries, "u1", "u1")
	testutil.SeedInstance(t, queries, repository.CreateArrServiceParams{
		ID: "r1", Type: "radarr", Name: "movies-main", BaseUrl: "http://r1", ApiKey: "k",
	})

	// No profile row, no grants, no default flag: the sole enabled
	// instance of the type is still reachable.
	chosen, candidates, err := selector.Select(ctx, "u1", structures.MediaTypeMovie, structures.QualityTierStandard, "")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if chosen.ID != "r1" || len(candidates) != 1 {
		t.Errorf("expected sole instance r1, got %s (%d candidates)", chosen.ID, len(candidates))
	}
}

func TestTwoInstancesNoDefaultFails(t *testing.T) {
	selector, queries := newSelector(t)
	ctx := context.Background()

	testutil.SeedUser(t, queries, "u1", "u1")
	testutil.SeedInstance(t, queries, repository.CreateArrServiceParams{
		ID: "r1", Type: "radarr", Name: "alpha", BaseUrl: "http://r1", ApiKey: "k",
	})
	testutil.SeedInstance(t, queries, repository.CreateArrServiceParams{
		ID: "r2", Type: "radarr", Name: "beta", BaseUrl: "http://r2", ApiKey: "k",
	})

	_, _, err := selector.Select(ctx, "u1", structures.MediaTypeMovie, structures.QualityTierStandard, "")
	if err == nil {
		t.Fatal("expected INSTANCE_UNAVAILABLE with two non-default instances and no grants")
	}
	var apiErr apiErrors.APIError
	if !asAPIError(err, &apiErr) || apiErr.Code() != apiErrors.ErrInstanceUnavailable().Code() {
		t.Errorf("expected instance-unavailable kind, got %v", err)
	}
}

func TestDefaultAndTierRanking(t *testing.T) {
	selector, queries := newSelector(t)
	ctx := context.Background()

	testutil.SeedUser(t, queries, "u1", "u1")
	testutil.GrantPermission(t, queries, "u1", "owner")

	testutil.SeedInstance(t, queries, repository.CreateArrServiceParams{
		ID: "std", Type: "radarr", Name: "zz-standard", BaseUrl: "http://std", ApiKey: "k",
		IsDefaultMovie: true,
	})
	testutil.SeedInstance(t, queries, repository.CreateArrServiceParams{
		ID: "uhd", Type: "radarr", Name: "aa-uhd", BaseUrl: "http://uhd", ApiKey: "k",
		Is4k: true, Is4kDefault: true, QualityTier: "4k",
	})

	// Standard request goes to the movie default despite name ordering.
	chosen, _, err := selector.Select(ctx, "u1", structures.MediaTypeMovie, structures.QualityTierStandard, "")
	if err != nil {
		t.Fatal(err)
	}
	if chosen.ID != "std" {
		t.Errorf("standard request chose %s, want std", chosen.ID)
	}

	// Preferred id wins when accessible.
	chosen, _, err = selector.Select(ctx, "u1", structures.MediaTypeMovie, structures.QualityTierStandard, "uhd")
	if err != nil {
		t.Fatal(err)
	}
	if chosen.ID != "uhd" {
		t.Errorf("preferred id ignored, got %s", chosen.ID)
	}
}

func TestInstanceGrantsAndCategoryAccess(t *testing.T) {
	selector, queries := newSelector(t)
	ctx := context.Background()

	testutil.SeedUser(t, queries, "u1", "u1")
	testutil.SeedInstance(t, queries, repository.CreateArrServiceParams{
		ID: "r1", Type: "radarr", Name: "anime", BaseUrl: "http://r1", ApiKey: "k",
		InstanceCategory: sql.NullString{String: "anime", Valid: true},
	})
	testutil.SeedInstance(t, queries, repository.CreateArrServiceParams{
		ID: "r2", Type: "radarr", Name: "general", BaseUrl: "http://r2", ApiKey: "k",
	})

	grants, _ := json.Marshal(map[string]bool{"category_anime": true})
	if err := queries.UpsertUserRequestProfile(ctx, repository.UpsertUserRequestProfileParams{
		UserID:              "u1",
		InstancePermissions: sql.NullString{String: string(grants), Valid: true},
	}); err != nil {
		t.Fatal(err)
	}

	candidates, err := selector.AvailableInstances(ctx, "u1", structures.MediaTypeMovie, structures.QualityTierStandard)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 1 || candidates[0].ID != "r1" {
		t.Fatalf("expected only the category-granted instance, got %d candidates", len(candidates))
	}

	// An explicit instance deny beats the category grant.
	grants, _ = json.Marshal(map[string]bool{"category_anime": true, "instance_r1": false})
	if err := queries.UpsertUserRequestProfile(ctx, repository.UpsertUserRequestProfileParams{
		UserID:              "u1",
		InstancePermissions: sql.NullString{String: string(grants), Valid: true},
	}); err != nil {
		t.Fatal(err)
	}
	candidates, err = selector.AvailableInstances(ctx, "u1", structures.MediaTypeMovie, structures.QualityTierStandard)
	if err != nil {
		t.Fatal(err)
	}
	for _, candidate := range candidates {
		if candidate.ID == "r1" {
			t.Error("instance-level deny should override the category grant")
		}
	}
}

func TestValidateInstanceAccessWrongType(t *testing.T) {
	selector, queries := newSelector(t)
	ctx := context.Background()

	testutil.SeedUser(t, queries, "u1", "u1")
	testutil.GrantPermission(t, queries, "u1", "owner")
	testutil.SeedInstance(t, queries, repository.CreateArrServiceParams{
		ID: "s1", Type: "sonarr", Name: "tv", BaseUrl: "http://s1", ApiKey: "k",
	})

	if _, err := selector.ValidateInstanceAccess(ctx, "u1", "s1", structures.MediaTypeMovie, structures.QualityTierStandard); err == nil {
		t.Error("a sonarr instance must not validate for a movie request")
	}
	if _, err := selector.ValidateInstanceAccess(ctx, "u1", "missing", structures.MediaTypeMovie, structures.QualityTierStandard); err == nil {
		t.Error("a missing instance must not validate")
	}
}

func asAPIError(err error, target *apiErrors.APIError) bool {
	if apiErr, ok := err.(apiErrors.APIError); ok {
		*target = apiErr
		return true
	}
	return false
}
