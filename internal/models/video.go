package models

import "time"

// Video is a published content item with its engagement counters.
type Video struct {
	ID        string    `json:"id"`
	Owner     string    `json:"username"`
	Caption   string    `json:"caption"`
	Hashtags  string    `json:"hashtags"`
	MediaRef  string    `json:"video_data"` // opaque reference from the blob store
	CreatedAt time.Time `json:"timestamp"`
	Likes     int       `json:"likes"`
	Views     int       `json:"views"`
	Comments  []Comment `json:"comments"`
}

// Comment is a single comment on a video
type Comment struct {
	Author    string    `json:"username"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// PublishRequest defines the fields of a new video
type PublishRequest struct {
	MediaRef string `json:"media_ref" validate:"required"`
	Caption  string `json:"caption" validate:"required,max=500"`
	Hashtags string `json:"hashtags" validate:"max=200"`
}

// CreateCommentRequest defines the request body for commenting on a video
type CreateCommentRequest struct {
	Text string `json:"text" validate:"required,max=500"`
}
