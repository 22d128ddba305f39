// Package requests is the request lifecycle engine: creation with conflict
// and quota enforcement, approval and rejection, availability marking, and
// deletion, with dispatch handed to the integration dispatcher.
package requests

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/veyronhq/reqforge/internal/db/repository"
	"github.com/veyronhq/reqforge/internal/services/dispatcher"
	"github.com/veyronhq/reqforge/internal/services/instances"
	permsvc "github.com/veyronhq/reqforge/internal/services/permissions"
	apiErrors "github.com/veyronhq/reqforge/pkg/api_errors"
	"github.com/veyronhq/reqforge/pkg/permissions"
	"github.com/veyronhq/reqforge/pkg/structures"
)

// Notifier is the slice of the notification service the lifecycle engine
// fires into; kept narrow so tests can fake it.
type Notifier interface {
	NotifyRequestApproved(ctx context.Context, userID string, mediaTitle, mediaType string, tmdbID *int64, requestID *string) error
	NotifyRequestDenied(ctx context.Context, userID string, mediaTitle, mediaType, reason string, tmdbID *int64, requestID *string) error
	NotifyMediaAvailable(ctx context.Context, userID string, mediaTitle, mediaType string, tmdbID *int64) error
}

// Kind describes the shape of a create call.
type Kind string

const (
	KindWhole    Kind = "whole"
	KindSeason   Kind = "season"
	KindEpisode  Kind = "episode"
	KindGranular Kind = "granular"
)

// CreateSpec is the caller-facing description of a new request.
type CreateSpec struct {
	UserID      string
	MediaType   structures.MediaType
	TmdbID      int64
	Title       string
	PosterURL   *string
	Notes       *string
	OnBehalfOf  *string
	QualityTier structures.QualityTier
	InstanceID  string // optional hint; validated against the caller's access
	Kind        Kind

	// Season/episode selection for KindSeason, KindEpisode and KindGranular.
	SeasonNumber  int
	EpisodeNumber int
	Seasons       []int
	Episodes      map[int][]int
}

// CreateResult reports what a create call produced.
type CreateResult struct {
	Requests     []repository.Request
	Skipped      []string
	AutoApproved bool
	Integration  *dispatcher.Result
}

type Service struct {
	repo       *repository.Queries
	perms      *permsvc.Engine
	selector   *instances.Service
	dispatcher *dispatcher.Service
	notifier   Notifier
}

func New(repo *repository.Queries, perms *permsvc.Engine, selector *instances.Service, disp *dispatcher.Service, notifier Notifier) *Service {
	return &Service{
		repo:       repo,
		perms:      perms,
		selector:   selector,
		dispatcher: disp,
		notifier:   notifier,
	}
}

func (s *Service) validate(spec *CreateSpec) error {
	if !spec.MediaType.Valid() {
		return apiErrors.ErrInvalidMediaType().SetDetail("Media type '%s' is not supported", spec.MediaType)
	}
	if spec.TmdbID <= 0 {
		return apiErrors.ErrMissingTMDBID()
	}
	if spec.QualityTier == "" {
		spec.QualityTier = structures.QualityTierStandard
	}
	if !spec.QualityTier.Valid() {
		return apiErrors.ErrValidationRejected().SetDetail("Unknown quality tier '%s'", spec.QualityTier)
	}
	if spec.Kind == "" {
		spec.Kind = KindWhole
	}
	if spec.Kind != KindWhole && spec.MediaType != structures.MediaTypeTV {
		return apiErrors.ErrValidationRejected().SetDetail("Season and episode requests only apply to TV")
	}
	if spec.Kind == KindSeason && spec.SeasonNumber <= 0 {
		return apiErrors.ErrInvalidSeasons()
	}
	if spec.Kind == KindEpisode && (spec.SeasonNumber <= 0 || spec.EpisodeNumber <= 0) {
		return apiErrors.ErrInvalidSeasons()
	}
	return nil
}

func nullInt(v int) sql.NullInt64 {
	if v <= 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(v), Valid: true}
}

func nullStr(v *string) sql.NullString {
	if v == nil || *v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

// conflictForSeason reports the conflict error for a single season create,
// nil when the season is free.
func (s *Service) conflictForSeason(ctx context.Context, userID string, tmdbID int64, season int) (error, error) {
	_, err := s.repo.GetSeasonRequest(ctx, repository.GetSeasonRequestParams{
		UserID:       userID,
		TmdbID:       sql.NullInt64{Int64: tmdbID, Valid: true},
		SeasonNumber: sql.NullInt64{Int64: int64(season), Valid: true},
	})
	if err == nil {
		return apiErrors.ErrSeasonExists().SetDetail("Season %d is already requested", season), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return nil, nil
}

func (s *Service) conflictForEpisode(ctx context.Context, userID string, tmdbID int64, season, episode int) (error, error) {
	// A season-level request already covers every episode in it.
	if conflict, err := s.conflictForSeason(ctx, userID, tmdbID, season); err != nil || conflict != nil {
		return conflict, err
	}
	_, err := s.repo.GetEpisodeRequest(ctx, repository.GetEpisodeRequestParams{
		UserID:        userID,
		TmdbID:        sql.NullInt64{Int64: tmdbID, Valid: true},
		SeasonNumber:  sql.NullInt64{Int64: int64(season), Valid: true},
		EpisodeNumber: sql.NullInt64{Int64: int64(episode), Valid: true},
	})
	if err == nil {
		return apiErrors.ErrEpisodeExists().SetDetail("S%02dE%02d is already requested", season, episode), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return nil, nil
}

// checkConflicts enforces the cross-request rules before anything is
// written. Whole-series supersession is allowed and reported as nil.
func (s *Service) checkConflicts(ctx context.Context, spec CreateSpec) error {
	tmdbID := sql.NullInt64{Int64: spec.TmdbID, Valid: true}

	if spec.MediaType == structures.MediaTypeMovie {
		exists, err := s.repo.CheckUserRequestExists(ctx, repository.CheckUserRequestExistsParams{
			TmdbID:    tmdbID,
			MediaType: spec.MediaType.String(),
			UserID:    spec.UserID,
		})
		if err != nil {
			return err
		}
		if exists {
			return apiErrors.ErrAlreadyRequestedMovie()
		}
		return nil
	}

	whole, err := s.repo.GetWholeSeriesRequest(ctx, repository.GetWholeSeriesRequestParams{
		UserID: spec.UserID,
		TmdbID: tmdbID,
	})
	wholeExists := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	switch spec.Kind {
	case KindWhole:
		if wholeExists {
			return apiErrors.ErrWholeSeriesExists().SetDetail("Existing request is %s", whole.Status)
		}
		// Partial rows may exist; the whole-series request supersedes them.
		return nil
	default:
		// Every partial shape is rejected under an existing whole-series
		// request, including granular batches.
		if wholeExists {
			return apiErrors.ErrWholeSeriesExists().SetDetail("Existing request is %s", whole.Status)
		}
	}

	switch spec.Kind {
	case KindSeason:
		conflict, err := s.conflictForSeason(ctx, spec.UserID, spec.TmdbID, spec.SeasonNumber)
		if err != nil {
			return err
		}
		return conflict
	case KindEpisode:
		conflict, err := s.conflictForEpisode(ctx, spec.UserID, spec.TmdbID, spec.SeasonNumber, spec.EpisodeNumber)
		if err != nil {
			return err
		}
		return conflict
	}
	return nil
}

// Create validates, persists, and (for auto-approved callers) dispatches a
// new request. Validation and conflict failures are atomic: nothing is
// written and no count moves.
func (s *Service) Create(ctx context.Context, spec CreateSpec) (*CreateResult, error) {
	if err := s.validate(&spec); err != nil {
		return nil, err
	}

	allowed, err := s.perms.CanRequestMediaType(ctx, spec.UserID, spec.MediaType)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apiErrors.ErrMediaTypeForbidden()
	}

	ok, reason, err := s.perms.CanMakeRequest(ctx, spec.UserID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apiErrors.ErrQuotaExceeded().SetDetail("%s", reason)
	}

	if err := s.checkConflicts(ctx, spec); err != nil {
		return nil, err
	}

	instance, _, err := s.selector.Select(ctx, spec.UserID, spec.MediaType, spec.QualityTier, spec.InstanceID)
	if err != nil {
		return nil, err
	}

	autoApprove, err := s.perms.ShouldAutoApprove(ctx, spec.UserID, spec.MediaType, spec.QualityTier)
	if err != nil {
		slog.Warn("Auto-approve check failed, falling back to pending", "user_id", spec.UserID, "error", err)
		autoApprove = false
	}

	if spec.Kind == KindGranular {
		return s.createGranular(ctx, spec, instance, autoApprove)
	}

	params := s.baseParams(spec, instance.ID, autoApprove)
	switch spec.Kind {
	case KindSeason:
		params.IsSeasonRequest = true
		params.SeasonNumber = nullInt(spec.SeasonNumber)
	case KindEpisode:
		params.IsEpisodeRequest = true
		params.SeasonNumber = nullInt(spec.SeasonNumber)
		params.EpisodeNumber = nullInt(spec.EpisodeNumber)
	}

	request, err := s.repo.CreateRequest(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	result := &CreateResult{Requests: []repository.Request{request}, AutoApproved: autoApprove}

	if autoApprove {
		result.Integration = s.dispatch(ctx, []repository.Request{request})
	} else {
		if err := s.perms.IncrementRequestCount(ctx, spec.UserID); err != nil {
			slog.Error("Failed to increment request count", "user_id", spec.UserID, "error", err)
		}
	}

	return result, nil
}

func (s *Service) baseParams(spec CreateSpec, instanceID string, autoApprove bool) repository.CreateRequestParams {
	params := repository.CreateRequestParams{
		UserID:            spec.UserID,
		MediaType:         spec.MediaType.String(),
		TmdbID:            sql.NullInt64{Int64: spec.TmdbID, Valid: true},
		Title:             sql.NullString{String: spec.Title, Valid: spec.Title != ""},
		Status:            structures.StatusPending.String(),
		Notes:             nullStr(spec.Notes),
		PosterUrl:         nullStr(spec.PosterURL),
		OnBehalfOf:        nullStr(spec.OnBehalfOf),
		ServiceInstanceID: sql.NullString{String: instanceID, Valid: instanceID != ""},
		QualityTier:       spec.QualityTier.String(),
	}
	if autoApprove {
		params.Status = structures.StatusApproved.String()
		params.ApproverID = sql.NullString{String: spec.UserID, Valid: true}
		params.ApprovedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
	}
	return params
}

// createGranular emits one row per selected season and episode, skipping
// conflicting selections, and dispatches the surviving rows as a single
// coordinated batch when auto-approved.
func (s *Service) createGranular(ctx context.Context, spec CreateSpec, instance repository.ArrService, autoApprove bool) (*CreateResult, error) {
	result := &CreateResult{AutoApproved: autoApprove}

	for _, season := range spec.Seasons {
		conflict, err := s.conflictForSeason(ctx, spec.UserID, spec.TmdbID, season)
		if err != nil {
			return nil, err
		}
		if conflict != nil {
			result.Skipped = append(result.Skipped, fmt.Sprintf("season %d", season))
			continue
		}

		params := s.baseParams(spec, instance.ID, autoApprove)
		params.IsSeasonRequest = true
		params.SeasonNumber = nullInt(season)
		request, err := s.repo.CreateRequest(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("failed to create season request: %w", err)
		}
		result.Requests = append(result.Requests, request)
	}

	for season, episodes := range spec.Episodes {
		for _, episode := range episodes {
			conflict, err := s.conflictForEpisode(ctx, spec.UserID, spec.TmdbID, season, episode)
			if err != nil {
				return nil, err
			}
			if conflict != nil {
				result.Skipped = append(result.Skipped, fmt.Sprintf("S%02dE%02d", season, episode))
				continue
			}

			params := s.baseParams(spec, instance.ID, autoApprove)
			params.IsEpisodeRequest = true
			params.SeasonNumber = nullInt(season)
			params.EpisodeNumber = nullInt(episode)
			request, err := s.repo.CreateRequest(ctx, params)
			if err != nil {
				return nil, fmt.Errorf("failed to create episode request: %w", err)
			}
			result.Requests = append(result.Requests, request)
		}
	}

	if len(result.Requests) == 0 {
		return result, nil
	}

	if autoApprove {
		// One coordinated dispatch for the whole batch, not N independent
		// calls.
		result.Integration = s.dispatch(ctx, result.Requests)
	} else {
		for range result.Requests {
			if err := s.perms.IncrementRequestCount(ctx, spec.UserID); err != nil {
				slog.Error("Failed to increment request count", "user_id", spec.UserID, "error", err)
			}
		}
	}

	return result, nil
}

// dispatch hands rows to the integration dispatcher. Failures are logged
// and swallowed: the rows stay approved and the submission job retries.
func (s *Service) dispatch(ctx context.Context, rows []repository.Request) *dispatcher.Result {
	var (
		integration *dispatcher.Result
		err         error
	)
	if structures.MediaType(rows[0].MediaType) == structures.MediaTypeTV && len(rows) > 0 {
		integration, err = s.dispatcher.IntegrateSeriesBatch(ctx, rows)
	} else {
		integration, err = s.dispatcher.Integrate(ctx, rows[0])
	}
	if err != nil {
		slog.Error("Dispatch failed; request remains approved for retry",
			"request_id", rows[0].ID,
			"error", err)
		return nil
	}
	return integration
}

// requirePermission resolves an acting user's grant or returns FORBIDDEN.
func (s *Service) requirePermission(ctx context.Context, userID, flag string) error {
	allowed, err := s.perms.HasPermission(ctx, userID, flag)
	if err != nil {
		return err
	}
	if !allowed {
		return apiErrors.ErrInsufficientPermissions()
	}
	return nil
}

func (s *Service) load(ctx context.Context, id int64) (repository.Request, error) {
	request, err := s.repo.GetRequestByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return repository.Request{}, apiErrors.ErrNotFound().SetDetail("Request not found")
		}
		return repository.Request{}, err
	}
	return request, nil
}

// Approve transitions PENDING -> APPROVED and hands off to the dispatcher.
// Approving a request that is already approved, or already dispatched
// (downloading or downloaded), is a no-op that re-reports the downstream
// id. Integration failures do not fail the approval.
func (s *Service) Approve(ctx context.Context, id int64, actingUserID string, overrideInstanceID string) (repository.Request, *dispatcher.Result, error) {
	if err := s.requirePermission(ctx, actingUserID, permissions.RequestsApprove); err != nil {
		return repository.Request{}, nil, err
	}

	request, err := s.load(ctx, id)
	if err != nil {
		return repository.Request{}, nil, err
	}

	switch structures.RequestStatus(request.Status) {
	case structures.StatusPending, structures.StatusApproved, structures.StatusDownloading, structures.StatusDownloaded:
	default:
		return repository.Request{}, nil, apiErrors.ErrConflict().SetDetail("Cannot approve a %s request", request.Status)
	}

	if overrideInstanceID != "" {
		instance, err := s.selector.ValidateInstanceAccess(ctx, request.UserID, overrideInstanceID, structures.MediaType(request.MediaType), structures.QualityTier(request.QualityTier))
		if err != nil {
			return repository.Request{}, nil, err
		}
		if err := s.repo.SetRequestInstance(ctx, repository.SetRequestInstanceParams{
			ServiceInstanceID: sql.NullString{String: instance.ID, Valid: true},
			ID:                id,
		}); err != nil {
			return repository.Request{}, nil, err
		}
	} else if !request.ServiceInstanceID.Valid {
		// The instance may have been disabled between create and approve;
		// re-run selection on the owner's behalf.
		instance, _, err := s.selector.Select(ctx, request.UserID, structures.MediaType(request.MediaType), structures.QualityTier(request.QualityTier), "")
		if err != nil {
			return repository.Request{}, nil, err
		}
		if err := s.repo.SetRequestInstance(ctx, repository.SetRequestInstanceParams{
			ServiceInstanceID: sql.NullString{String: instance.ID, Valid: true},
			ID:                id,
		}); err != nil {
			return repository.Request{}, nil, err
		}
	}

	// Guarded transition: of two concurrent approvers exactly one flips the
	// row, the other observes zero rows and proceeds idempotently.
	flipped, err := s.repo.ApprovePendingRequest(ctx, repository.ApprovePendingRequestParams{
		ApproverID: sql.NullString{String: actingUserID, Valid: true},
		ID:         id,
	})
	if err != nil {
		return repository.Request{}, nil, err
	}
	if flipped > 0 {
		if err := s.perms.DecrementRequestCount(ctx, request.UserID); err != nil {
			slog.Error("Failed to decrement request count", "user_id", request.UserID, "error", err)
		}
	}

	request, err = s.load(ctx, id)
	if err != nil {
		return repository.Request{}, nil, err
	}

	integration := s.dispatch(ctx, []repository.Request{request})

	if flipped > 0 && s.notifier != nil && request.Title.Valid {
		requestIDStr := strconv.FormatInt(id, 10)
		var tmdbID *int64
		if request.TmdbID.Valid {
			tmdbID = &request.TmdbID.Int64
		}
		if err := s.notifier.NotifyRequestApproved(ctx, request.UserID, request.Title.String, request.MediaType, tmdbID, &requestIDStr); err != nil {
			slog.Error("Failed to send approval notification", "request_id", id, "error", err)
		}
	}

	return request, integration, nil
}

// Reject transitions PENDING -> REJECTED. Rejecting from any other state is
// a conflict; there is no dispatch.
func (s *Service) Reject(ctx context.Context, id int64, actingUserID, reason string) (repository.Request, error) {
	if err := s.requirePermission(ctx, actingUserID, permissions.RequestsApprove); err != nil {
		return repository.Request{}, err
	}

	request, err := s.load(ctx, id)
	if err != nil {
		return repository.Request{}, err
	}

	flipped, err := s.repo.RejectPendingRequest(ctx, repository.RejectPendingRequestParams{
		ApproverID: sql.NullString{String: actingUserID, Valid: true},
		ID:         id,
	})
	if err != nil {
		return repository.Request{}, err
	}
	if flipped == 0 {
		return repository.Request{}, apiErrors.ErrConflict().SetDetail("Cannot reject a %s request", request.Status)
	}

	if err := s.perms.DecrementRequestCount(ctx, request.UserID); err != nil {
		slog.Error("Failed to decrement request count", "user_id", request.UserID, "error", err)
	}

	if s.notifier != nil && request.Title.Valid {
		requestIDStr := strconv.FormatInt(id, 10)
		var tmdbID *int64
		if request.TmdbID.Valid {
			tmdbID = &request.TmdbID.Int64
		}
		if err := s.notifier.NotifyRequestDenied(ctx, request.UserID, request.Title.String, request.MediaType, reason, tmdbID, &requestIDStr); err != nil {
			slog.Error("Failed to send rejection notification", "request_id", id, "error", err)
		}
	}

	return s.load(ctx, id)
}

// MarkAvailable jumps a request to AVAILABLE from any state except
// REJECTED. Admin-only.
func (s *Service) MarkAvailable(ctx context.Context, id int64, actingUserID string) (repository.Request, error) {
	if err := s.requirePermission(ctx, actingUserID, permissions.RequestsManage); err != nil {
		return repository.Request{}, err
	}

	request, err := s.load(ctx, id)
	if err != nil {
		return repository.Request{}, err
	}
	if structures.RequestStatus(request.Status) == structures.StatusRejected {
		return repository.Request{}, apiErrors.ErrConflict().SetDetail("Cannot mark a rejected request available")
	}

	wasPending := structures.RequestStatus(request.Status) == structures.StatusPending

	updated, err := s.repo.FulfillRequest(ctx, id)
	if err != nil {
		return repository.Request{}, err
	}
	if wasPending {
		if err := s.perms.DecrementRequestCount(ctx, request.UserID); err != nil {
			slog.Error("Failed to decrement request count", "user_id", request.UserID, "error", err)
		}
	}

	if s.notifier != nil && updated.Title.Valid {
		var tmdbID *int64
		if updated.TmdbID.Valid {
			tmdbID = &updated.TmdbID.Int64
		}
		if err := s.notifier.NotifyMediaAvailable(ctx, updated.UserID, updated.Title.String, updated.MediaType, tmdbID); err != nil {
			slog.Error("Failed to send availability notification", "request_id", id, "error", err)
		}
	}

	return updated, nil
}

// Delete removes a request. Owners may delete their own; otherwise a
// delete or manage grant is required. A pending delete returns the quota
// slot before the row disappears.
func (s *Service) Delete(ctx context.Context, id int64, actingUserID string) error {
	request, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if request.UserID != actingUserID {
		canDelete, err := s.perms.HasPermission(ctx, actingUserID, permissions.RequestsDelete)
		if err != nil {
			return err
		}
		if !canDelete {
			canManage, err := s.perms.HasPermission(ctx, actingUserID, permissions.RequestsManage)
			if err != nil {
				return err
			}
			if !canManage {
				return apiErrors.ErrInsufficientPermissions()
			}
		}
	}

	if structures.RequestStatus(request.Status) == structures.StatusPending {
		if err := s.perms.DecrementRequestCount(ctx, request.UserID); err != nil {
			slog.Error("Failed to decrement request count", "user_id", request.UserID, "error", err)
		}
	}

	return s.repo.DeleteRequest(ctx, id)
}
