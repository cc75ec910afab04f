package models

import "time"

// Account is a registered user. The handle is the identity key and never
// changes once created.
type Account struct {
	Handle        string         `json:"id"`
	PasswordHash  string         `json:"password"` // bcrypt hash, never the secret itself
	Bio           string         `json:"bio"`
	ProfilePic    string         `json:"profile_pic,omitempty"`
	Followers     []string       `json:"followers"`
	Following     []string       `json:"following"`
	Notifications []Notification `json:"notifications"`
	CreatedAt     time.Time      `json:"created"`
}

// Profile is the public view of an account.
type Profile struct {
	Handle         string    `json:"handle"`
	Bio            string    `json:"bio"`
	ProfilePic     string    `json:"profile_pic,omitempty"`
	Followers      []string  `json:"followers"`
	Following      []string  `json:"following"`
	FollowersCount int       `json:"followers_count"`
	FollowingCount int       `json:"following_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// ToProfile drops the private fields of an account.
func (a *Account) ToProfile() Profile {
	followers := append([]string{}, a.Followers...)
	following := append([]string{}, a.Following...)
	return Profile{
		Handle:         a.Handle,
		Bio:            a.Bio,
		ProfilePic:     a.ProfilePic,
		Followers:      followers,
		Following:      following,
		FollowersCount: len(followers),
		FollowingCount: len(following),
		CreatedAt:      a.CreatedAt,
	}
}

// RegisterRequest defines the request body for creating an account
type RegisterRequest struct {
	Handle   string `json:"handle" validate:"required,handle"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// SignInRequest defines the request body for signing in
type SignInRequest struct {
	Handle   string `json:"handle" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UpdateBioRequest defines the request body for editing a profile
type UpdateBioRequest struct {
	Bio string `json:"bio" validate:"max=200"`
}
