package repository

// Hand-written alongside the generated queries: the request listing filter
// is combinatorial, which sqlc's static queries cannot express without one
// query per filter shape.

import (
	"context"
	"fmt"
	"strings"
)

// RequestFilter narrows a request listing. Zero values mean "no filter";
// Limit of zero means no limit.
type RequestFilter struct {
	UserID    string
	MediaType string
	StatusIn  []string
	TmdbID    int64
	Limit     int64
	Offset    int64
}

// FindRequests runs a filtered, newest-first request listing.
func (q *Queries) FindRequests(ctx context.Context, filter RequestFilter) ([]Request, error) {
	var (
		conditions []string
		args       []interface{}
	)

	if filter.UserID != "" {
		conditions = append(conditions, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.MediaType != "" {
		conditions = append(conditions, "media_type = ?")
		args = append(args, filter.MediaType)
	}
	if len(filter.StatusIn) > 0 {
		placeholders := strings.Repeat(",?", len(filter.StatusIn))[1:]
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", placeholders))
		for _, status := range filter.StatusIn {
			args = append(args, status)
		}
	}
	if filter.TmdbID > 0 {
		conditions = append(conditions, "tmdb_id = ?")
		args = append(args, filter.TmdbID)
	}

	query := "SELECT " + requestColumns + " FROM requests"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanRequests(rows)
}
