package downloader

import (
	"context"
	"os"
)

// DownloadProfilePic saves the subject's profile picture into dir, trying the
// HD rendition first and falling back to the standard one. A profile with no
// reachable picture yields ("", nil) so composite downloads can proceed.
func (s *Service) DownloadProfilePic(ctx context.Context, username, dir string) (string, error) {
	profile, err := s.ig.GetProfile(ctx, username)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	candidates := []string{profile.ProfilePicURLHD, profile.ProfilePicURL}
	for _, rawURL := range candidates {
		if rawURL == "" {
			continue
		}
		path, fetchErr := s.fetchToFile(ctx, rawURL, dir, "profile_pic")
		if fetchErr == nil {
			return path, nil
		}
		s.logger.Warn("Profile picture fetch failed, trying fallback",
			"username", username, "error", fetchErr)
	}
	return "", nil
}
