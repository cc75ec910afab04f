package models

// FollowStatus describes the edge between two accounts after a follow or
// unfollow request.
type FollowStatus struct {
	Follower  string `json:"follower"`
	Followee  string `json:"followee"`
	Following bool   `json:"following"`
}
