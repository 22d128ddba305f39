package catalogcache

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/veyronhq/reqforge/internal/db/repository"
	"github.com/veyronhq/reqforge/internal/testutil"
	"github.com/veyronhq/reqforge/pkg/structures"
)

func seedLibraryMovie(t *testing.T, conn *sql.DB, id, tmdbID string) {
	t.Helper()
	_, err := conn.Exec(
		"INSERT INTO library_items (id, name, type, tmdb_id) VALUES (?, ?, 'movie', ?)",
		id, "Movie "+id, tmdbID,
	)
	if err != nil {
		t.Fatal(err)
	}
}

func TestAnnotatePrefersLibraryOverRequests(t *testing.T) {
	conn, queries := testutil.NewDB(t)
	ctx := context.Background()

	testutil.SeedUser(t, queries, "u1", "u1")
	seedLibraryMovie(t, conn, "lib-1", "603")

	// 603 is both in the library and requested; in_plex wins. 604 is only
	// requested; 605 is unknown.
	for tmdbID, status := range map[int64]string{603: "available", 604: "downloading"} {
		if _, err := queries.CreateRequest(ctx, repository.CreateRequestParams{
			UserID:    "u1",
			MediaType: "movie",
			TmdbID:    sql.NullInt64{Int64: tmdbID, Valid: true},
			Status:    status,
		}); err != nil {
			t.Fatal(err)
		}
	}

	service := New(queries, nil)
	items := []structures.TMDBMediaItem{{ID: 603}, {ID: 604}, {ID: 605}}
	annotated, err := service.Annotate(ctx, structures.MediaTypeMovie, items)
	if err != nil {
		t.Fatalf("Annotate: %v", err)
	}

	byID := make(map[int64]AnnotatedItem)
	for _, item := range annotated {
		byID[item.ID] = item
	}

	if !byID[603].InPlex || byID[603].Status != StatusInPlex {
		t.Errorf("603 = %+v, want in_plex", byID[603])
	}
	if byID[604].InPlex || byID[604].Status != StatusRequestedDownloading {
		t.Errorf("604 = %+v, want requested_downloading", byID[604])
	}
	if byID[605].InPlex || byID[605].Status != "" {
		t.Errorf("605 = %+v, want unannotated", byID[605])
	}
}

func TestGetReturnsStaleRowOnExpiry(t *testing.T) {
	_, queries := testutil.NewDB(t)
	ctx := context.Background()

	// A row whose TTL is already past.
	if err := queries.UpsertCategoryCacheEntry(ctx, repository.UpsertCategoryCacheEntryParams{
		MediaType: "movie",
		Category:  "popular",
		Page:      1,
		Data:      `{"media_type":"movie","category":"popular","page":1}`,
		ExpiresAt: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatal(err)
	}

	service := New(queries, nil)
	page, hit, err := service.Get(ctx, structures.MediaTypeMovie, "popular", 1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if hit {
		t.Error("expired row reported as a fresh hit")
	}
	if page == nil || page.Category != "popular" {
		t.Errorf("stale row not served: %+v", page)
	}

	// A key never written is a clean miss.
	page, hit, err = service.Get(ctx, structures.MediaTypeTV, "popular", 1)
	if err != nil {
		t.Fatal(err)
	}
	if page != nil || hit {
		t.Errorf("unknown key returned %+v hit=%v", page, hit)
	}
}
