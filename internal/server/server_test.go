package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgball2608/insta-downloader-api/internal/domain"
	"github.com/orgball2608/insta-downloader-api/internal/downloader"
	"github.com/orgball2608/insta-downloader-api/internal/instagram"
	"github.com/orgball2608/insta-downloader-api/internal/workspace"
	"github.com/orgball2608/insta-downloader-api/pkg/config"
	apperrors "github.com/orgball2608/insta-downloader-api/pkg/errors"
	"github.com/orgball2608/insta-downloader-api/pkg/logger"
)

type stubInstagram struct {
	profile      *domain.Profile
	profileErr   error
	posts        []*domain.Post
	postsErr     error
	postsFn      func(ctx context.Context) ([]*domain.Post, error)
	single       *domain.Post
	singleErr    error
	stories      []*domain.StoryItem
	storiesErr   error
	capabilities instagram.Capabilities
}

func (f *stubInstagram) Login(ctx context.Context) error { return nil }

func (f *stubInstagram) GetProfile(ctx context.Context, username string) (*domain.Profile, error) {
	return f.profile, f.profileErr
}

func (f *stubInstagram) GetPosts(ctx context.Context, username string, max int) ([]*domain.Post, error) {
	if f.postsFn != nil {
		return f.postsFn(ctx)
	}
	return f.posts, f.postsErr
}

func (f *stubInstagram) GetPostByShortcode(ctx context.Context, shortcode string) (*domain.Post, error) {
	return f.single, f.singleErr
}

func (f *stubInstagram) GetStories(ctx context.Context, username string) ([]*domain.StoryItem, error) {
	return f.stories, f.storiesErr
}

func (f *stubInstagram) Capabilities() instagram.Capabilities { return f.capabilities }

func newCDN(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("media-bytes"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.App.Name = "Instagram Downloader API"
	cfg.App.Version = "1.0.0"
	cfg.Download.Dir = t.TempDir()
	cfg.Download.MaxConcurrent = 2
	cfg.Download.TimeoutSeconds = 30
	cfg.RateLimit.Requests = 1000
	cfg.RateLimit.PeriodSeconds = 60
	cfg.Thumbnail.AllowedHosts = "cdninstagram.com;fbcdn.net"
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config, ig instagram.Client) *Server {
	t.Helper()
	log := logger.New(logger.Opts{})

	ws, err := workspace.NewManager(cfg.Download.Dir, false, 0, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })

	pool := downloader.NewPool(2, func() (*downloader.Service, error) {
		return downloader.New(downloader.Opts{
			Instagram:     ig,
			Logger:        log,
			MaxConcurrent: cfg.Download.MaxConcurrent,
		}), nil
	})

	return New(Opts{Pool: pool, Workspace: ws, Config: cfg, Logger: log})
}

func doRequest(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "10.0.0.1:51234"
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, testConfig(t), &stubInstagram{})

	rec := doRequest(t, srv, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "1.0.0", body["version"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestProfileEndpoint(t *testing.T) {
	ig := &stubInstagram{profile: &domain.Profile{Username: "alice", Followers: 42}}
	srv := newTestServer(t, testConfig(t), ig)

	rec := doRequest(t, srv, "/profile/alice")
	require.Equal(t, http.StatusOK, rec.Code)

	var body domain.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "alice", body.Username)
	assert.Equal(t, 42, body.Followers)
}

func TestProfileUserNotFound(t *testing.T) {
	ig := &stubInstagram{profileErr: apperrors.UserNotFound("ghost")}
	srv := newTestServer(t, testConfig(t), ig)

	rec := doRequest(t, srv, "/profile/ghost")
	require.Equal(t, http.StatusNotFound, rec.Code)

	body := decodeError(t, rec)
	assert.False(t, body.Success)
	assert.Equal(t, "USER_NOT_FOUND", body.ErrorCode)
	assert.Equal(t, "Instagram user not found: 'ghost'", body.Error)
	assert.NotEmpty(t, body.Timestamp)
}

func TestInvalidUsernameRejected(t *testing.T) {
	srv := newTestServer(t, testConfig(t), &stubInstagram{})

	rec := doRequest(t, srv, "/profile/bad%20name")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, rec).ErrorCode)
}

func TestMaxPostsValidation(t *testing.T) {
	ig := &stubInstagram{profile: &domain.Profile{Username: "alice"}}
	srv := newTestServer(t, testConfig(t), ig)

	rec := doRequest(t, srv, "/profile/alice/posts?max_posts=999")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, rec).ErrorCode)

	rec = doRequest(t, srv, "/download/posts/alice?max_posts=0")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDownloadPostsServesZip(t *testing.T) {
	cdn := newCDN(t)
	ig := &stubInstagram{posts: []*domain.Post{{
		Shortcode: "AAAAA",
		TakenAt:   time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Media:     []domain.Media{{URL: cdn.URL + "/a.jpg"}},
	}}}
	cfg := testConfig(t)
	srv := newTestServer(t, cfg, ig)

	rec := doRequest(t, srv, "/download/posts/alice")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "alice_posts.zip")
	assert.Equal(t, "1", rec.Header().Get("X-Download-Stats-Posts"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "PK"), "body should be a ZIP archive")
}

func TestDownloadPostsNoContentCleansUp(t *testing.T) {
	ig := &stubInstagram{posts: nil}
	cfg := testConfig(t)
	srv := newTestServer(t, cfg, ig)

	rec := doRequest(t, srv, "/download/posts/alice")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NO_CONTENT", decodeError(t, rec).ErrorCode)

	entries, err := os.ReadDir(cfg.Download.Dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "failed download should leave no directory behind")
}

func TestDownloadAllHeaders(t *testing.T) {
	cdn := newCDN(t)
	ig := &stubInstagram{
		capabilities: instagram.Capabilities{Stories: true},
		profile: &domain.Profile{
			Username:      "alice",
			ProfilePicURL: cdn.URL + "/pic.jpg",
		},
		posts: []*domain.Post{{
			Shortcode: "AAAAA",
			TakenAt:   time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
			Media:     []domain.Media{{URL: cdn.URL + "/a.jpg"}},
		}},
		stories: []*domain.StoryItem{{
			ID:       "111",
			TakenAt:  time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC),
			MediaURL: cdn.URL + "/s.jpg",
		}},
	}
	srv := newTestServer(t, testConfig(t), ig)

	rec := doRequest(t, srv, "/download/all/alice")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "1", rec.Header().Get("X-Download-Stats-Posts"))
	assert.Equal(t, "1", rec.Header().Get("X-Download-Stats-Stories"))
	assert.Equal(t, "true", rec.Header().Get("X-Download-Stats-ProfilePic"))
	assert.NotEmpty(t, rec.Header().Get("X-Download-Time-Seconds"))
}

func TestDownloadSinglePostRawFile(t *testing.T) {
	cdn := newCDN(t)
	ig := &stubInstagram{single: &domain.Post{
		Shortcode: "AAAAA",
		TakenAt:   time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Media:     []domain.Media{{URL: cdn.URL + "/a.jpg"}},
	}}
	srv := newTestServer(t, testConfig(t), ig)

	rec := doRequest(t, srv, "/download/post?url=https://www.instagram.com/p/AAAAA/")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "AAAAA_1.jpg")
	assert.Equal(t, "media-bytes", rec.Body.String())
}

func TestDownloadSidecarPostServesZip(t *testing.T) {
	cdn := newCDN(t)
	ig := &stubInstagram{single: &domain.Post{
		Shortcode: "BBBBB",
		TakenAt:   time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Media: []domain.Media{
			{URL: cdn.URL + "/a.jpg"},
			{URL: cdn.URL + "/b.jpg"},
		},
	}}
	srv := newTestServer(t, testConfig(t), ig)

	rec := doRequest(t, srv, "/download/post?url=BBBBB")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "BBBBB.zip")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "PK"))
}

func TestDownloadPostMissingURL(t *testing.T) {
	srv := newTestServer(t, testConfig(t), &stubInstagram{})

	rec := doRequest(t, srv, "/download/post")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProfilePicURLOnly(t *testing.T) {
	ig := &stubInstagram{profile: &domain.Profile{
		Username:        "alice",
		ProfilePicURLHD: "https://scontent.cdninstagram.com/hd.jpg",
	}}
	srv := newTestServer(t, testConfig(t), ig)

	rec := doRequest(t, srv, "/download/profile-pic/alice?url_only=true")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, "https://scontent.cdninstagram.com/hd.jpg", body["profile_pic_url"])
}

func TestProfilePicUnavailableIs404(t *testing.T) {
	ig := &stubInstagram{profile: &domain.Profile{Username: "alice"}}
	srv := newTestServer(t, testConfig(t), ig)

	rec := doRequest(t, srv, "/download/profile-pic/alice")
	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "NO_CONTENT", body.ErrorCode)
	assert.Equal(t, "No profile picture found to download.", body.Error)
}

func TestStoriesLoginRequired(t *testing.T) {
	ig := &stubInstagram{storiesErr: apperrors.LoginRequired("stories download")}
	srv := newTestServer(t, testConfig(t), ig)

	rec := doRequest(t, srv, "/download/stories/alice")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "LOGIN_REQUIRED", decodeError(t, rec).ErrorCode)
}

func TestThumbnailRejectsDisallowedURLs(t *testing.T) {
	srv := newTestServer(t, testConfig(t), &stubInstagram{})

	for _, u := range []string{
		"http://scontent.cdninstagram.com/x.jpg", // not https
		"https://evil.example.com/x.jpg",
		"https://notcdninstagram.com/x.jpg", // suffix match requires a dot boundary
		"",
	} {
		rec := doRequest(t, srv, "/proxy/thumbnail?url="+u)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "url %q", u)
	}
}

func TestDownloadDeadlineRendersTimeout(t *testing.T) {
	ig := &stubInstagram{postsFn: func(ctx context.Context) ([]*domain.Post, error) {
		<-ctx.Done()
		// Mirrors how a deadline surfaces from the retried upstream call:
		// classified as a connection failure, not as a context error.
		return nil, apperrors.Download("Connection error: context deadline exceeded")
	}}
	cfg := testConfig(t)
	cfg.Download.TimeoutSeconds = 1
	srv := newTestServer(t, cfg, ig)

	rec := doRequest(t, srv, "/download/posts/alice")
	require.Equal(t, http.StatusGatewayTimeout, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "TIMEOUT", body.ErrorCode)
	assert.Equal(t, "Operation timed out. Please try again.", body.Error)

	entries, err := os.ReadDir(cfg.Download.Dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "timed-out download should leave no directory behind")
}

func TestRootServesConfiguredWebDir(t *testing.T) {
	cfg := testConfig(t)
	cfg.App.WebDir = t.TempDir()
	page := []byte("<html><body>downloader</body></html>")
	require.NoError(t, os.WriteFile(filepath.Join(cfg.App.WebDir, "index.html"), page, 0o644))
	srv := newTestServer(t, cfg, &stubInstagram{})

	rec := doRequest(t, srv, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, string(page), rec.Body.String())

	rec = doRequest(t, srv, "/static/index.html")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, string(page), rec.Body.String())
}

func TestRootFallsBackToJSONWithoutWebDir(t *testing.T) {
	cfg := testConfig(t)
	srv := newTestServer(t, cfg, &stubInstagram{})

	rec := doRequest(t, srv, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json"))
}

func TestRateLimitEnvelope(t *testing.T) {
	cfg := testConfig(t)
	cfg.RateLimit.Requests = 1
	cfg.RateLimit.PeriodSeconds = 3600
	ig := &stubInstagram{profile: &domain.Profile{Username: "alice"}}
	srv := newTestServer(t, cfg, ig)

	rec := doRequest(t, srv, "/profile/alice")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv, "/profile/alice")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMITED", decodeError(t, rec).ErrorCode)
}
