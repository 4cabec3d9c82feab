package domain

// Profile is a read-only snapshot of an Instagram profile, fetched fresh
// per request and never persisted.
type Profile struct {
	Username      string `json:"username"`
	FullName      string `json:"full_name,omitempty"`
	Biography     string `json:"biography,omitempty"`
	Followers     int    `json:"followers"`
	Following     int    `json:"following"`
	PostCount     int    `json:"post_count"`
	IsPrivate     bool   `json:"is_private"`
	IsVerified    bool   `json:"is_verified"`
	ProfilePicURL string `json:"profile_pic_url,omitempty"`
	ExternalURL   string `json:"external_url,omitempty"`

	// Internal fields, not part of the response payload.
	ID              int64  `json:"-"`
	ProfilePicURLHD string `json:"-"`
}
