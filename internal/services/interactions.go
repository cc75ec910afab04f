package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/anonto42/vidspace/backend/internal/docstore"
	"github.com/anonto42/vidspace/backend/internal/models"
)

// LikeResult is the state of a like after a toggle.
type LikeResult struct {
	VideoID string `json:"video_id"`
	Liked   bool   `json:"liked"`
	Likes   int    `json:"likes"`
}

// ToggleLike flips handle's like on a video. The ledger entry and the
// video's counter change together. Turning a like on notifies the owner
// unless the owner liked their own video.
func (s *Service) ToggleLike(ctx context.Context, handle, id string) (res LikeResult, err error) {
	defer func() { observe("toggle_like", err) }()

	liked, video, err := s.interactions.ToggleLike(ctx, handle, id)
	if err != nil {
		return LikeResult{}, storageErr("toggle like", err)
	}
	if liked && handle != video.Owner {
		s.notifyBestEffort(ctx, "like", video.Owner,
			fmt.Sprintf("@%s liked your video!", handle), models.LinkVideo, id)
	}
	return LikeResult{VideoID: id, Liked: liked, Likes: video.Likes}, nil
}

// ToggleSave flips a video in handle's saved set and reports the new state.
func (s *Service) ToggleSave(ctx context.Context, handle, id string) (saved bool, err error) {
	defer func() { observe("toggle_save", err) }()

	saved, err = s.interactions.ToggleSave(ctx, handle, id)
	if err != nil {
		return false, storageErr("toggle save", err)
	}
	return saved, nil
}

// Saved returns the videos handle saved, skipping ones deleted since.
func (s *Service) Saved(ctx context.Context, handle string) ([]models.Video, error) {
	ledger, err := s.interactions.GetInteraction(ctx, handle)
	if err != nil {
		return nil, storageErr("saved", err)
	}
	videos := make([]models.Video, 0, len(ledger.Saved))
	for _, id := range ledger.Saved {
		v, err := s.videos.GetVideo(ctx, id)
		if errors.Is(err, docstore.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, storageErr("saved", err)
		}
		videos = append(videos, *v)
	}
	return videos, nil
}

// Interactions returns handle's liked and saved sets.
func (s *Service) Interactions(ctx context.Context, handle string) (*models.Interaction, error) {
	ledger, err := s.interactions.GetInteraction(ctx, handle)
	if err != nil {
		return nil, storageErr("interactions", err)
	}
	return ledger, nil
}
