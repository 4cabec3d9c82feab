package domain

// Stats records the outcome of a composite download. Partial failures are
// accumulated in Errors instead of aborting the whole operation.
type Stats struct {
	Username            string   `json:"username"`
	Posts               int      `json:"total_posts"`
	Stories             int      `json:"total_stories"`
	ProfilePic          bool     `json:"profile_pic_included"`
	TotalFiles          int      `json:"total_files"`
	ZipSizeBytes        int64    `json:"zip_size_bytes"`
	DownloadTimeSeconds float64  `json:"download_time_seconds"`
	Errors              []string `json:"errors,omitempty"`
}

// SinglePost is the result of downloading one post by link or shortcode.
type SinglePost struct {
	Shortcode  string
	Owner      string
	MediaFiles []string
	Folder     string
	IsSidecar  bool
	Metadata   *Post
}
