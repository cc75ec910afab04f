package services

import (
	"context"
	"errors"
	"sort"

	"github.com/anonto42/vidspace/backend/internal/docstore"
	"github.com/anonto42/vidspace/backend/internal/models"
)

// ComposeFeed returns the viewer's feed: videos by accounts the viewer follows,
// in storage order, followed by every other video ranked by likes. No video
// appears twice. Unknown viewers get the ranked tier only.
func (s *Service) ComposeFeed(ctx context.Context, viewer string) ([]models.Video, error) {
	return s.composeFeed(ctx, viewer, 0)
}

// ComposeFeedLimit is ComposeFeed capped at limit items. A non-positive limit
// uses the configured default.
func (s *Service) ComposeFeedLimit(ctx context.Context, viewer string, limit int) ([]models.Video, error) {
	if limit <= 0 {
		limit = s.feedLimit
	}
	return s.composeFeed(ctx, viewer, limit)
}

func (s *Service) composeFeed(ctx context.Context, viewer string, limit int) ([]models.Video, error) {
	var following []string
	acc, err := s.accounts.GetAccount(ctx, viewer)
	switch {
	case err == nil:
		following = acc.Following
	case !errors.Is(err, docstore.ErrNotFound):
		return nil, storageErr("feed", err)
	}

	videos, err := s.videos.GetVideos(ctx)
	if err != nil {
		return nil, storageErr("feed", err)
	}

	feed := rankFeed(following, videos)
	if limit > 0 && len(feed) > limit {
		feed = feed[:limit]
	}
	return feed, nil
}

// rankFeed builds the two tiers. The ranked tier orders by likes, then
// creation time, then id, all descending.
func rankFeed(following []string, videos []models.Video) []models.Video {
	followed := make(map[string]struct{}, len(following))
	for _, h := range following {
		followed[h] = struct{}{}
	}

	seen := make(map[string]struct{}, len(videos))
	feed := make([]models.Video, 0, len(videos))
	for _, v := range videos {
		if _, ok := followed[v.Owner]; !ok {
			continue
		}
		if _, dup := seen[v.ID]; dup {
			continue
		}
		seen[v.ID] = struct{}{}
		feed = append(feed, v)
	}

	trending := append([]models.Video(nil), videos...)
	sort.SliceStable(trending, func(i, j int) bool {
		if trending[i].Likes != trending[j].Likes {
			return trending[i].Likes > trending[j].Likes
		}
		return newer(trending[i], trending[j])
	})
	for _, v := range trending {
		if _, dup := seen[v.ID]; dup {
			continue
		}
		seen[v.ID] = struct{}{}
		feed = append(feed, v)
	}
	return feed
}
