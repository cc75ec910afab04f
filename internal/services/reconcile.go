package services

import (
	"context"
	"errors"
	"slices"

	"github.com/anonto42/vidspace/backend/internal/docstore"
	"github.com/anonto42/vidspace/backend/internal/metrics"
	"github.com/anonto42/vidspace/backend/internal/models"
)

// ReconcileReport counts the records a reconciliation pass rewrote.
type ReconcileReport struct {
	FollowerSets int `json:"follower_sets"`
	LikeCounters int `json:"like_counters"`
}

// Reconcile repairs derived state left inconsistent by a partially applied
// two-document update. Followers sets are rebuilt from following sets, which
// are always written first, and like counters are recomputed from the
// interaction ledgers. Every rewrite is conditional on the record still
// holding the value the pass observed; a record that moved in the meantime
// is left for the next pass.
func (s *Service) Reconcile(ctx context.Context) (report ReconcileReport, err error) {
	defer func() { observe("reconcile", err) }()

	if report.FollowerSets, err = s.reconcileFollowers(ctx); err != nil {
		return report, err
	}
	if report.LikeCounters, err = s.reconcileLikes(ctx); err != nil {
		return report, err
	}
	if report.FollowerSets > 0 || report.LikeCounters > 0 {
		s.log.Warn().
			Int("follower_sets", report.FollowerSets).
			Int("like_counters", report.LikeCounters).
			Msg("reconcile repaired records")
	}
	return report, nil
}

func (s *Service) reconcileFollowers(ctx context.Context) (int, error) {
	accounts, err := s.accounts.GetAccounts(ctx)
	if err != nil {
		return 0, storageErr("reconcile followers", err)
	}

	want := make(map[string][]string, len(accounts))
	for _, a := range accounts {
		for _, f := range a.Following {
			if f != a.Handle && !slices.Contains(want[f], a.Handle) {
				want[f] = append(want[f], a.Handle)
			}
		}
	}

	repaired := 0
	for _, a := range accounts {
		if sameSet(a.Followers, want[a.Handle]) {
			continue
		}
		// The snapshot may be stale; confirm each edge against the
		// follower's current following set before rewriting.
		expected, err := s.confirmFollowers(ctx, a.Handle, a.Followers, want[a.Handle])
		if err != nil {
			return repaired, err
		}
		observed := a.Followers
		changed := false
		err = s.accounts.MutateAccount(ctx, a.Handle, func(acc *models.Account) (bool, error) {
			changed = sameSet(acc.Followers, observed) && !sameSet(acc.Followers, expected)
			if changed {
				acc.Followers = expected
			}
			return changed, nil
		})
		if err != nil && !errors.Is(err, docstore.ErrNotFound) {
			return repaired, storageErr("reconcile followers", err)
		}
		if changed {
			repaired++
			metrics.Repairs.WithLabelValues("followers").Inc()
		}
	}
	return repaired, nil
}

// confirmFollowers re-reads every candidate follower of handle and keeps only
// those whose following set names handle.
func (s *Service) confirmFollowers(ctx context.Context, handle string, have, want []string) ([]string, error) {
	var candidates []string
	for _, h := range append(append([]string{}, have...), want...) {
		if !slices.Contains(candidates, h) {
			candidates = append(candidates, h)
		}
	}
	out := []string{}
	for _, h := range candidates {
		if h == handle {
			continue
		}
		follows, err := s.IsFollowing(ctx, h, handle)
		if err != nil {
			return nil, err
		}
		if follows {
			out = append(out, h)
		}
	}
	return out, nil
}

func (s *Service) reconcileLikes(ctx context.Context) (int, error) {
	// Counters are read before the ledgers. A toggle landing after the read
	// moves the counter, which makes the conditional write below skip it.
	videos, err := s.videos.GetVideos(ctx)
	if err != nil {
		return 0, storageErr("reconcile likes", err)
	}
	ledgers, err := s.interactions.GetInteractions(ctx)
	if err != nil {
		return 0, storageErr("reconcile likes", err)
	}
	counts := make(map[string]int)
	for _, l := range ledgers {
		seen := make(map[string]struct{}, len(l.Likes))
		for _, id := range l.Likes {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			counts[id]++
		}
	}

	repaired := 0
	for _, v := range videos {
		want, observed := counts[v.ID], v.Likes
		if observed == want {
			continue
		}
		changed := false
		err := s.videos.MutateVideo(ctx, v.ID, func(video *models.Video) (bool, error) {
			changed = video.Likes == observed
			if changed {
				video.Likes = want
			}
			return changed, nil
		})
		if err != nil && !errors.Is(err, docstore.ErrNotFound) {
			return repaired, storageErr("reconcile likes", err)
		}
		if changed {
			repaired++
			metrics.Repairs.WithLabelValues("likes").Inc()
		}
	}
	return repaired, nil
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for _, x := range a {
		if !slices.Contains(b, x) {
			return false
		}
	}
	for _, x := range b {
		if !slices.Contains(a, x) {
			return false
		}
	}
	return true
}
