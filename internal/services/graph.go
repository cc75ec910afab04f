package services

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/anonto42/vidspace/backend/internal/docstore"
	"github.com/anonto42/vidspace/backend/internal/models"
)

// Follow adds the edge follower -> followee and notifies the followee.
// Self-follows, unknown handles and existing edges are no-ops.
func (s *Service) Follow(ctx context.Context, follower, followee string) (models.FollowStatus, error) {
	return s.setEdge(ctx, follower, followee, true)
}

// Unfollow removes the edge follower -> followee. Missing edges are no-ops.
func (s *Service) Unfollow(ctx context.Context, follower, followee string) (models.FollowStatus, error) {
	return s.setEdge(ctx, follower, followee, false)
}

func (s *Service) setEdge(ctx context.Context, follower, followee string, on bool) (status models.FollowStatus, err error) {
	op := "unfollow"
	if on {
		op = "follow"
	}
	defer func() { observe(op, err) }()

	status = models.FollowStatus{Follower: follower, Followee: followee}
	if follower == followee {
		return status, nil
	}

	changed, err := s.accounts.FollowEdge(ctx, follower, followee, on)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return status, nil
		}
		return status, storageErr(op, err)
	}
	status.Following = on

	if on && changed {
		s.notifyBestEffort(ctx, "follow", followee,
			fmt.Sprintf("@%s started following you!", follower), models.LinkProfile, follower)
	}
	if changed {
		s.log.Debug().Str("follower", follower).Str("followee", followee).Bool("following", on).Msg("follow edge changed")
	}
	return status, nil
}

// IsFollowing reports whether a follows b.
func (s *Service) IsFollowing(ctx context.Context, a, b string) (bool, error) {
	acc, err := s.accounts.GetAccount(ctx, a)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return false, nil
		}
		return false, storageErr("is following", err)
	}
	return slices.Contains(acc.Following, b), nil
}

// Followers returns the handles following h.
func (s *Service) Followers(ctx context.Context, h string) ([]string, error) {
	acc, err := s.accounts.GetAccount(ctx, h)
	if err != nil {
		return nil, storageErr("followers", err)
	}
	return append([]string{}, acc.Followers...), nil
}

// Following returns the handles h follows.
func (s *Service) Following(ctx context.Context, h string) ([]string, error) {
	acc, err := s.accounts.GetAccount(ctx, h)
	if err != nil {
		return nil, storageErr("following", err)
	}
	return append([]string{}, acc.Following...), nil
}
