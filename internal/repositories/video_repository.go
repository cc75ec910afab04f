package repositories

import (
	"context"

	"github.com/anonto42/vidspace/backend/internal/docstore"
	"github.com/anonto42/vidspace/backend/internal/models"
)

// VideoRepository defines the interface for video data operations
type VideoRepository interface {
	CreateVideo(ctx context.Context, video *models.Video) error
	GetVideo(ctx context.Context, id string) (*models.Video, error)
	// GetVideos returns every video in storage order.
	GetVideos(ctx context.Context) ([]models.Video, error)
	GetVideosByOwner(ctx context.Context, owner string) ([]models.Video, error)
	MutateVideo(ctx context.Context, id string, fn func(*models.Video) (bool, error)) error
	DeleteVideo(ctx context.Context, id string) error
}

type documentVideoRepository struct {
	store docstore.Store
}

// NewVideoRepository creates a VideoRepository over a document store
func NewVideoRepository(store docstore.Store) VideoRepository {
	return &documentVideoRepository{store: store}
}

func (r *documentVideoRepository) CreateVideo(ctx context.Context, video *models.Video) error {
	doc, err := docstore.Encode(video, video.ID)
	if err != nil {
		return err
	}
	return r.store.Insert(ctx, VideosCollection, doc)
}

func (r *documentVideoRepository) GetVideo(ctx context.Context, id string) (*models.Video, error) {
	doc, err := r.store.GetOne(ctx, VideosCollection, docstore.IDField, id)
	if err != nil {
		return nil, err
	}
	var video models.Video
	if err := docstore.Decode(doc, &video); err != nil {
		return nil, err
	}
	return &video, nil
}

func (r *documentVideoRepository) GetVideos(ctx context.Context) ([]models.Video, error) {
	docs, err := r.store.GetAll(ctx, VideosCollection)
	if err != nil {
		return nil, err
	}
	return decodeAll[models.Video](docs)
}

func (r *documentVideoRepository) GetVideosByOwner(ctx context.Context, owner string) ([]models.Video, error) {
	all, err := r.GetVideos(ctx)
	if err != nil {
		return nil, err
	}
	var videos []models.Video
	for _, v := range all {
		if v.Owner == owner {
			videos = append(videos, v)
		}
	}
	return videos, nil
}

func (r *documentVideoRepository) MutateVideo(ctx context.Context, id string, fn func(*models.Video) (bool, error)) error {
	return r.store.Mutate(ctx, ref(VideosCollection, id), typed(fn))
}

func (r *documentVideoRepository) DeleteVideo(ctx context.Context, id string) error {
	return r.store.Delete(ctx, VideosCollection, docstore.IDField, id)
}
