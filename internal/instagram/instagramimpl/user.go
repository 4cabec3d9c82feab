package instagramimpl

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Davincible/goinsta/v3"
	"github.com/orgball2608/insta-downloader-api/internal/domain"
	"github.com/orgball2608/insta-downloader-api/pkg/formatter"
)

// Login connects to Instagram, first from an exported session file and then
// with credentials. Callers treat a failed login as "ready but
// unauthenticated": the client keeps working anonymously and only
// session-gated operations (stories) are refused later.
func (ig *IgImpl) Login(ctx context.Context) error {
	if err := ig.reloadSession(); err == nil {
		ig.setAuthenticated(true)
		ig.Logger.Info("Logged in using existing session", "path", ig.Config.Instagram.SessionPath)
		return nil
	}

	if ig.Config.Instagram.Username == "" || ig.Config.Instagram.Password == "" {
		ig.Logger.Info("No Instagram credentials configured, continuing anonymously")
		return nil
	}

	ig.Logger.Info("Attempting to log in with credentials")

	var loginErr error
	for attempt := 1; attempt <= 3; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		loginErr = ig.Client.Login()
		if loginErr == nil {
			break
		}
		ig.Logger.Error("Login attempt failed", "attempt", attempt, "error", loginErr)
		if attempt < 3 {
			time.Sleep(time.Duration(attempt) * time.Second)
		}
	}
	if loginErr != nil {
		return fmt.Errorf("failed to log in after multiple attempts: %w", loginErr)
	}

	ig.setAuthenticated(true)
	ig.Logger.Info("Logged in with credentials")

	if err := ig.saveSession(); err != nil {
		ig.Logger.Warn("Failed to save Instagram session", "error", err)
	}
	return nil
}

func (ig *IgImpl) reloadSession() error {
	path := ig.Config.Instagram.SessionPath
	if path == "" {
		return fmt.Errorf("no session path configured")
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("session file not found: %w", err)
	}
	client, err := goinsta.Import(path)
	if err != nil {
		return fmt.Errorf("failed to import session: %w", err)
	}
	ig.Client = client
	return nil
}

func (ig *IgImpl) saveSession() error {
	if err := ig.Client.Export(ig.Config.Instagram.SessionPath); err != nil {
		return fmt.Errorf("failed to export session: %w", err)
	}
	return nil
}

func (ig *IgImpl) setAuthenticated(v bool) {
	ig.mu.Lock()
	ig.authenticated = v
	ig.mu.Unlock()
}

func (ig *IgImpl) isAuthenticated() bool {
	ig.mu.Lock()
	defer ig.mu.Unlock()
	return ig.authenticated
}

// visitProfile resolves a username with retry/backoff and proxy rotation.
func (ig *IgImpl) visitProfile(ctx context.Context, username string) (*goinsta.User, error) {
	var user *goinsta.User
	op := func() error {
		var err error
		user, err = ig.Client.Profiles.ByName(username)
		if err != nil {
			return retryableOrPermanent(classify(err, username))
		}
		return nil
	}
	if err := ig.do(ctx, "VisitProfile", op); err != nil {
		return nil, err
	}
	return user, nil
}

func (ig *IgImpl) GetProfile(ctx context.Context, username string) (*domain.Profile, error) {
	user, err := ig.visitProfile(ctx, username)
	if err != nil {
		return nil, err
	}
	ig.Logger.Debug("Profile resolved",
		"username", user.Username,
		"followers", formatter.FormatNumber(user.FollowerCount),
		"posts", formatter.FormatNumber(user.MediaCount),
	)
	return &domain.Profile{
		Username:        user.Username,
		FullName:        user.FullName,
		Biography:       user.Biography,
		Followers:       user.FollowerCount,
		Following:       user.FollowingCount,
		PostCount:       user.MediaCount,
		IsPrivate:       user.IsPrivate,
		IsVerified:      user.IsVerified,
		ProfilePicURL:   user.ProfilePicURL,
		ExternalURL:     user.ExternalURL,
		ID:              user.ID,
		ProfilePicURLHD: user.HdProfilePicURLInfo.URL,
	}, nil
}
