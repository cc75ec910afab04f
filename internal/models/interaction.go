package models

import "slices"

// Interaction is an account's ledger of liked and saved videos. Membership
// in Likes is the only source of truth for whether a like is on.
type Interaction struct {
	Handle string   `json:"id"`
	Likes  []string `json:"likes"`
	Saved  []string `json:"saved"`
}

// HasLiked reports whether videoID is in the liked set.
func (i *Interaction) HasLiked(videoID string) bool {
	return slices.Contains(i.Likes, videoID)
}

// HasSaved reports whether videoID is in the saved set.
func (i *Interaction) HasSaved(videoID string) bool {
	return slices.Contains(i.Saved, videoID)
}

// Toggle flips membership of id in set and reports whether it is now present.
func Toggle(set []string, id string) ([]string, bool) {
	if idx := slices.Index(set, id); idx >= 0 {
		return slices.Delete(set, idx, idx+1), false
	}
	return append(set, id), true
}
