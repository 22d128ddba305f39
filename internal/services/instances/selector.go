// Package instances enumerates configured downstream instances and picks
// the one a request should be dispatched to, honoring per-user grants,
// per-type defaults, and the requested quality tier.
package instances

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/veyronhq/reqforge/internal/db/repository"
	permsvc "github.com/veyronhq/reqforge/internal/services/permissions"
	apiErrors "github.com/veyronhq/reqforge/pkg/api_errors"
	"github.com/veyronhq/reqforge/pkg/structures"
)

type Service struct {
	repo  *repository.Queries
	perms *permsvc.Engine
}

func New(repo *repository.Queries, perms *permsvc.Engine) *Service {
	return &Service{
		repo:  repo,
		perms: perms,
	}
}

// ListByType returns enabled instances of the service type backing a media
// type, in selection order.
func (s *Service) ListByType(ctx context.Context, mediaType structures.MediaType) ([]repository.ArrService, error) {
	instances, err := s.repo.GetArrServiceByType(ctx, mediaType.ServiceType().String())
	if err != nil {
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}
	return instances, nil
}

func isDefaultFor(instance repository.ArrService, mediaType structures.MediaType) bool {
	if mediaType == structures.MediaTypeMovie {
		return instance.IsDefaultMovie
	}
	return instance.IsDefaultTv
}

func tierMatches(instance repository.ArrService, tier structures.QualityTier) bool {
	if instance.QualityTier == tier.String() {
		return true
	}
	// Legacy rows predate the quality_tier column and only carry the 4k
	// flags; treat them as their flag implies.
	if tier == structures.QualityTier4K {
		return instance.Is4k || instance.Is4kDefault
	}
	return false
}

// rank orders candidates: media-type default first, then tier match, then
// name for a stable tiebreak.
func rank(candidates []repository.ArrService, mediaType structures.MediaType, tier structures.QualityTier) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if isDefaultFor(a, mediaType) != isDefaultFor(b, mediaType) {
			return isDefaultFor(a, mediaType)
		}
		if tierMatches(a, tier) != tierMatches(b, tier) {
			return tierMatches(a, tier)
		}
		if tier == structures.QualityTier4K && a.Is4kDefault != b.Is4kDefault {
			return a.Is4kDefault
		}
		return a.Name < b.Name
	})
}

// AvailableInstances returns the ordered candidate set the user may reach
// for (mediaType, tier).
func (s *Service) AvailableInstances(ctx context.Context, userID string, mediaType structures.MediaType, tier structures.QualityTier) ([]repository.ArrService, error) {
	instances, err := s.ListByType(ctx, mediaType)
	if err != nil {
		return nil, err
	}

	var candidates []repository.ArrService
	for _, instance := range instances {
		allowed, err := s.perms.CanAccessInstance(ctx, userID, instance, mediaType, len(instances))
		if err != nil {
			return nil, err
		}
		if allowed {
			candidates = append(candidates, instance)
		}
	}

	rank(candidates, mediaType, tier)
	return candidates, nil
}

// Select picks the instance a request should target. The preferred id wins
// when it is in the candidate set; otherwise the ranking decides. An empty
// candidate set is INSTANCE_UNAVAILABLE.
func (s *Service) Select(ctx context.Context, userID string, mediaType structures.MediaType, tier structures.QualityTier, preferredID string) (repository.ArrService, []repository.ArrService, error) {
	candidates, err := s.AvailableInstances(ctx, userID, mediaType, tier)
	if err != nil {
		return repository.ArrService{}, nil, err
	}
	if len(candidates) == 0 {
		return repository.ArrService{}, nil, apiErrors.ErrInstanceUnavailable().SetDetail("No %s instance is reachable for this request", mediaType.ServiceType())
	}

	if preferredID != "" {
		for _, candidate := range candidates {
			if candidate.ID == preferredID {
				return candidate, candidates, nil
			}
		}
		return repository.ArrService{}, candidates, apiErrors.ErrInstanceUnavailable().SetDetail("The requested instance is not available to you")
	}

	return candidates[0], candidates, nil
}

// ValidateInstanceAccess mirrors Select for a specific id, used when a
// caller passes an instance hint or an approver overrides the target.
func (s *Service) ValidateInstanceAccess(ctx context.Context, userID, instanceID string, mediaType structures.MediaType, tier structures.QualityTier) (repository.ArrService, error) {
	instance, err := s.repo.GetArrServiceByID(ctx, instanceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return repository.ArrService{}, apiErrors.ErrInstanceUnavailable().SetDetail("Instance does not exist")
		}
		return repository.ArrService{}, err
	}
	if !instance.Enabled {
		return repository.ArrService{}, apiErrors.ErrInstanceUnavailable().SetDetail("Instance %s is disabled", instance.Name)
	}
	if instance.Type != mediaType.ServiceType().String() {
		return repository.ArrService{}, apiErrors.ErrInstanceUnavailable().SetDetail("Instance %s does not serve %s requests", instance.Name, mediaType)
	}

	enabled, err := s.ListByType(ctx, mediaType)
	if err != nil {
		return repository.ArrService{}, err
	}
	allowed, err := s.perms.CanAccessInstance(ctx, userID, instance, mediaType, len(enabled))
	if err != nil {
		return repository.ArrService{}, err
	}
	if !allowed {
		return repository.ArrService{}, apiErrors.ErrInstanceUnavailable().SetDetail("You do not have access to instance %s", instance.Name)
	}
	return instance, nil
}
