package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"github.com/anonto42/vidspace/backend/internal/blobstore"
	"github.com/anonto42/vidspace/backend/internal/docstore"
	"github.com/anonto42/vidspace/backend/internal/metrics"
	"github.com/anonto42/vidspace/backend/internal/models"
)

// Publish records a video whose media is already stored under mediaRef and
// notifies every account following owner at this moment.
func (s *Service) Publish(ctx context.Context, owner, mediaRef, caption, hashtags string) (id string, err error) {
	defer func() { observe("publish", err) }()

	if err := validate(&models.PublishRequest{MediaRef: mediaRef, Caption: caption, Hashtags: hashtags}); err != nil {
		return "", err
	}
	acc, err := s.accounts.GetAccount(ctx, owner)
	if err != nil {
		return "", storageErr("publish", err)
	}
	return s.publish(ctx, acc, primitive.NewObjectID().Hex(), mediaRef, caption, hashtags)
}

// Upload stores media bytes through the blob store under a fresh content id
// and publishes it.
func (s *Service) Upload(ctx context.Context, owner string, data []byte, caption, hashtags string) (id string, err error) {
	defer func() { observe("upload", err) }()

	// The media ref is filled in after the blob write.
	if err := validate(&models.PublishRequest{MediaRef: "-", Caption: caption, Hashtags: hashtags}); err != nil {
		return "", err
	}
	acc, err := s.accounts.GetAccount(ctx, owner)
	if err != nil {
		return "", storageErr("upload", err)
	}

	id = primitive.NewObjectID().Hex()
	ref, err := s.blobs.Store(ctx, data, id)
	if err != nil {
		if errors.Is(err, blobstore.ErrEmpty) {
			return "", fmt.Errorf("%w: %w", ErrValidation, err)
		}
		return "", fmt.Errorf("store media: %w: %w", ErrStorageUnavailable, err)
	}
	return s.publish(ctx, acc, id, ref, caption, hashtags)
}

func (s *Service) publish(ctx context.Context, owner *models.Account, id, mediaRef, caption, hashtags string) (string, error) {
	video := &models.Video{
		ID:        id,
		Owner:     owner.Handle,
		Caption:   caption,
		Hashtags:  hashtags,
		MediaRef:  mediaRef,
		CreatedAt: s.now().UTC(),
		Comments:  []models.Comment{},
	}
	if err := s.videos.CreateVideo(ctx, video); err != nil {
		return "", storageErr("publish", err)
	}

	s.fanOutPublish(ctx, owner.Handle, id, append([]string{}, owner.Followers...))
	s.log.Info().Str("owner", owner.Handle).Str("video_id", id).Msg("video published")
	return id, nil
}

// fanOutPublish notifies followers concurrently. Failures are dropped.
func (s *Service) fanOutPublish(ctx context.Context, owner, id string, followers []string) {
	text := fmt.Sprintf("@%s posted a new video!", owner)

	var g errgroup.Group
	g.SetLimit(s.fanOut)
	for _, f := range followers {
		g.Go(func() error {
			s.notifyBestEffort(ctx, "publish", f, text, models.LinkVideo, id)
			return nil
		})
	}
	_ = g.Wait()
}

// RecordView increments a video's view counter. Unknown ids and storage
// failures are ignored.
func (s *Service) RecordView(ctx context.Context, id string) {
	err := s.videos.MutateVideo(ctx, id, func(v *models.Video) (bool, error) {
		v.Views++
		return true, nil
	})
	switch {
	case err == nil:
		observe("record_view", nil)
	case errors.Is(err, docstore.ErrNotFound):
		s.log.Debug().Str("video_id", id).Msg("view for unknown video")
	default:
		metrics.DroppedSideEffects.WithLabelValues("view").Inc()
		s.log.Warn().Err(err).Str("video_id", id).Msg("view dropped")
	}
}

// AddComment appends a comment and notifies the owner unless the author is
// the owner.
func (s *Service) AddComment(ctx context.Context, id, author, text string) (comment models.Comment, err error) {
	defer func() { observe("comment", err) }()

	if err := validate(&models.CreateCommentRequest{Text: text}); err != nil {
		return models.Comment{}, err
	}

	comment = models.Comment{Author: author, Text: text, Timestamp: s.now().UTC()}
	var owner string
	err = s.videos.MutateVideo(ctx, id, func(v *models.Video) (bool, error) {
		v.Comments = append(v.Comments, comment)
		owner = v.Owner
		return true, nil
	})
	if err != nil {
		return models.Comment{}, storageErr("comment", err)
	}

	if author != owner {
		s.notifyBestEffort(ctx, "comment", owner,
			fmt.Sprintf("@%s commented on your video!", author), models.LinkVideo, id)
	}
	return comment, nil
}

// Delete removes a video. Only its owner may delete it.
func (s *Service) Delete(ctx context.Context, id, requester string) (err error) {
	defer func() { observe("delete", err) }()

	video, err := s.videos.GetVideo(ctx, id)
	if err != nil {
		return storageErr("delete", err)
	}
	if video.Owner != requester {
		return ErrForbidden
	}
	if err := s.videos.DeleteVideo(ctx, id); err != nil {
		return storageErr("delete", err)
	}
	s.log.Info().Str("owner", requester).Str("video_id", id).Msg("video deleted")
	return nil
}

// Video returns one video.
func (s *Service) Video(ctx context.Context, id string) (*models.Video, error) {
	video, err := s.videos.GetVideo(ctx, id)
	if err != nil {
		return nil, storageErr("video", err)
	}
	return video, nil
}

// VideosBy returns owner's videos newest first.
func (s *Service) VideosBy(ctx context.Context, owner string) ([]models.Video, error) {
	videos, err := s.videos.GetVideosByOwner(ctx, owner)
	if err != nil {
		return nil, storageErr("videos by owner", err)
	}
	sort.SliceStable(videos, func(i, j int) bool {
		return newer(videos[i], videos[j])
	})
	return videos, nil
}

// newer orders by creation time, then id, both descending.
func newer(a, b models.Video) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}
