package usecase

import (
	"context"

	"github.com/shandysiswandi/loginguard/internal/guard/entity"
)

// PolicyGet returns the policy as parsed from the current configuration.
func (s *Usecase) PolicyGet(ctx context.Context) (*entity.Policy, error) {
	ctx, span := s.startSpan(ctx, "PolicyGet")
	defer span.End()

	if _, err := s.authenticatedAndAuthorized(ctx, entity.PermPolicy, entity.ActRead); err != nil {
		return nil, err
	}

	policy := entity.ParsePolicy(s.cfg)
	return &policy, nil
}
