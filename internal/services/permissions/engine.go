// Package permissions resolves a user's effective capabilities: the flag
// resolution chain, per-media-type request gates, auto-approval, instance
// access, and the request quota with its drift-healing recompute.
package permissions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/veyronhq/reqforge/internal/db/repository"
	"github.com/veyronhq/reqforge/internal/services/configservice"
	"github.com/veyronhq/reqforge/pkg/permissions"
	"github.com/veyronhq/reqforge/pkg/structures"
)

// defaultMaxRequests applies when neither a per-user override nor the
// settings row carries a limit.
const defaultMaxRequests = 20

type Engine struct {
	repo   *repository.Queries
	config *configservice.Service
}

func NewEngine(repo *repository.Queries, config *configservice.Service) *Engine {
	return &Engine{
		repo:   repo,
		config: config,
	}
}

// IsOwner reports whether the user holds the irrevocable owner grant.
func (e *Engine) IsOwner(ctx context.Context, userID string) (bool, error) {
	return e.repo.CheckUserPermission(ctx, repository.CheckUserPermissionParams{
		UserID:       userID,
		PermissionID: permissions.Owner,
	})
}

// HasPermission resolves a flag through the chain: owner short-circuit,
// explicit per-user grant, then the enabled defaults, then deny.
func (e *Engine) HasPermission(ctx context.Context, userID, flag string) (bool, error) {
	owner, err := e.IsOwner(ctx, userID)
	if err != nil {
		return false, err
	}
	if owner {
		return true, nil
	}

	granted, err := e.repo.CheckUserPermission(ctx, repository.CheckUserPermissionParams{
		UserID:       userID,
		PermissionID: flag,
	})
	if err != nil {
		return false, err
	}
	if granted {
		return true, nil
	}

	defaults, err := e.repo.GetDefaultPermissions(ctx)
	if err != nil {
		return false, err
	}
	for _, perm := range defaults {
		if perm.PermissionID == flag {
			return true, nil
		}
	}
	return false, nil
}

// CanRequestMediaType gates request creation per media type. The tri-state
// profile columns are a hard override in either direction; absent a profile
// row the flag chain decides.
func (e *Engine) CanRequestMediaType(ctx context.Context, userID string, mediaType structures.MediaType) (bool, error) {
	owner, err := e.IsOwner(ctx, userID)
	if err != nil {
		return false, err
	}
	if owner {
		return true, nil
	}

	profile, err := e.repo.GetUserRequestProfile(ctx, userID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, err
	}
	if err == nil {
		if mediaType == structures.MediaTypeMovie && profile.CanRequestMovies.Valid {
			return profile.CanRequestMovies.Bool, nil
		}
		if mediaType == structures.MediaTypeTV && profile.CanRequestTv.Valid {
			return profile.CanRequestTv.Bool, nil
		}
	}

	flag := permissions.RequestMovies
	if mediaType == structures.MediaTypeTV {
		flag = permissions.RequestSeries
	}
	return e.HasPermission(ctx, userID, flag)
}

// ShouldAutoApprove reports whether a new request for this media type and
// tier is born approved.
func (e *Engine) ShouldAutoApprove(ctx context.Context, userID string, mediaType structures.MediaType, tier structures.QualityTier) (bool, error) {
	var flag string
	switch {
	case mediaType == structures.MediaTypeMovie && tier == structures.QualityTier4K:
		flag = permissions.RequestAutoApprove4KMovies
	case mediaType == structures.MediaTypeMovie:
		flag = permissions.RequestAutoApproveMovies
	case tier == structures.QualityTier4K:
		flag = permissions.RequestAutoApprove4KSeries
	default:
		flag = permissions.RequestAutoApproveSeries
	}
	return e.HasPermission(ctx, userID, flag)
}

// RequestLimit resolves the quota: per-user override first, then the
// settings row, then the built-in default. A zero or negative limit means
// unlimited.
func (e *Engine) RequestLimit(ctx context.Context, userID string) (int64, error) {
	profile, err := e.repo.GetUserRequestProfile(ctx, userID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	if err == nil && profile.MaxRequests.Valid {
		return profile.MaxRequests.Int64, nil
	}

	if e.config != nil {
		if cfg := e.config.Get(); cfg != nil && cfg.Requests.DefaultMaxRequests > 0 {
			return int64(cfg.Requests.DefaultMaxRequests), nil
		}
	}
	return defaultMaxRequests, nil
}

// CanMakeRequest enforces the quota. The reason string is user-facing and
// carries the current/limit pair.
func (e *Engine) CanMakeRequest(ctx context.Context, userID string) (bool, string, error) {
	unlimited, err := e.HasPermission(ctx, userID, permissions.RequestUnlimited)
	if err != nil {
		return false, "", err
	}
	if unlimited {
		return true, "", nil
	}

	limit, err := e.RequestLimit(ctx, userID)
	if err != nil {
		return false, "", err
	}
	if limit <= 0 {
		return true, "", nil
	}

	profile, err := e.repo.GetUserRequestProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return true, "", nil
		}
		return false, "", err
	}

	if profile.CurrentRequestCount >= limit {
		return false, fmt.Sprintf("Request limit reached (%d/%d)", profile.CurrentRequestCount, limit), nil
	}
	return true, "", nil
}

func (e *Engine) IncrementRequestCount(ctx context.Context, userID string) error {
	return e.repo.IncrementUserRequestCount(ctx, userID)
}

func (e *Engine) DecrementRequestCount(ctx context.Context, userID string) error {
	return e.repo.DecrementUserRequestCount(ctx, userID)
}

// SyncRequestCounts recomputes every user's pending count from the requests
// table. It is idempotent and runs at startup so quota checks never trust a
// counter that survived a crash.
func (e *Engine) SyncRequestCounts(ctx context.Context) error {
	if err := e.repo.ResetAllRequestCounts(ctx); err != nil {
		return fmt.Errorf("failed to reset request counts: %w", err)
	}

	counts, err := e.repo.CountPendingPerUser(ctx)
	if err != nil {
		return fmt.Errorf("failed to count pending requests: %w", err)
	}

	for _, row := range counts {
		if err := e.repo.SetUserRequestCount(ctx, repository.SetUserRequestCountParams{
			UserID:              row.UserID,
			CurrentRequestCount: row.PendingCount,
		}); err != nil {
			return fmt.Errorf("failed to set request count for %s: %w", row.UserID, err)
		}
	}

	slog.Info("Synced request counts", "users", len(counts))
	return nil
}

// instanceGrants is the decoded instance_permissions blob: "instance_<id>"
// and "category_<tag>" keys mapping to explicit allow/deny.
type instanceGrants map[string]bool

func (e *Engine) grants(ctx context.Context, userID string) (instanceGrants, bool, error) {
	profile, err := e.repo.GetUserRequestProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if !profile.InstancePermissions.Valid || profile.InstancePermissions.String == "" {
		return nil, true, nil
	}

	var grants instanceGrants
	if err := json.Unmarshal([]byte(profile.InstancePermissions.String), &grants); err != nil {
		slog.Warn("Malformed instance_permissions blob", "user_id", userID, "error", err)
		return nil, true, nil
	}
	return grants, true, nil
}

// CanAccessInstance decides instance reachability for one user. The chain:
// owner grant, explicit instance grant, category grant, the type's default
// instance, and finally the sole-enabled-instance fallback.
func (e *Engine) CanAccessInstance(ctx context.Context, userID string, instance repository.ArrService, mediaType structures.MediaType, enabledOfType int) (bool, error) {
	owner, err := e.IsOwner(ctx, userID)
	if err != nil {
		return false, err
	}
	if owner {
		return true, nil
	}

	grants, _, err := e.grants(ctx, userID)
	if err != nil {
		return false, err
	}
	if grants != nil {
		if allowed, ok := grants["instance_"+instance.ID]; ok {
			return allowed, nil
		}
		if instance.InstanceCategory.Valid {
			if allowed, ok := grants["category_"+instance.InstanceCategory.String]; ok {
				return allowed, nil
			}
		}
	}

	// No explicit grant either way: defaults for the requested media type
	// stay reachable, as does the only enabled instance of the type.
	if mediaType == structures.MediaTypeMovie && instance.IsDefaultMovie {
		return true, nil
	}
	if mediaType == structures.MediaTypeTV && instance.IsDefaultTv {
		return true, nil
	}
	if enabledOfType == 1 {
		return true, nil
	}
	return false, nil
}
