package downloader

import (
	"context"
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
	"github.com/orgball2608/insta-downloader-api/internal/instagram"
	apperrors "github.com/orgball2608/insta-downloader-api/pkg/errors"
	"github.com/orgball2608/insta-downloader-api/pkg/logger"
)

type fakeInstagram struct {
	profile      *domain.Profile
	profileErr   error
	posts        []*domain.Post
	postsErr     error
	single       *domain.Post
	singleErr    error
	stories      []*domain.StoryItem
	storiesErr   error
	capabilities instagram.Capabilities

	loginCalls int
	loginErr   error
}

func (f *fakeInstagram) Login(ctx context.Context) error {
	f.loginCalls++
	if f.loginErr != nil {
		return f.loginErr
	}
	f.capabilities.Stories = true
	return nil
}

func (f *fakeInstagram) GetProfile(ctx context.Context, username string) (*domain.Profile, error) {
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return f.profile, nil
}

func (f *fakeInstagram) GetPosts(ctx context.Context, username string, max int) ([]*domain.Post, error) {
	if f.postsErr != nil {
		return nil, f.postsErr
	}
	if max > 0 && max < len(f.posts) {
		return f.posts[:max], nil
	}
	return f.posts, nil
}

func (f *fakeInstagram) GetPostByShortcode(ctx context.Context, shortcode string) (*domain.Post, error) {
	if f.singleErr != nil {
		return nil, f.singleErr
	}
	return f.single, nil
}

func (f *fakeInstagram) GetStories(ctx context.Context, username string) ([]*domain.StoryItem, error) {
	if f.storiesErr != nil {
		return nil, f.storiesErr
	}
	return f.stories, nil
}

func (f *fakeInstagram) Capabilities() instagram.Capabilities { return f.capabilities }

var _ instagram.Client = (*fakeInstagram)(nil)

// newCDN serves fake media bytes. Paths containing "broken" return 500.
func newCDN(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "broken") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		switch {
		case strings.HasSuffix(r.URL.Path, ".mp4"):
			w.Header().Set("Content-Type", "video/mp4")
		default:
			w.Header().Set("Content-Type", "image/jpeg")
		}
		_, _ = w.Write([]byte("media-bytes"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestService(ig instagram.Client) *Service {
	return New(Opts{
		Instagram:     ig,
		Logger:        logger.New(logger.Opts{}),
		UserAgent:     "test-agent",
		MaxConcurrent: 2,
	})
}

func testPost(cdn, shortcode string, media int) *domain.Post {
	p := &domain.Post{
		Shortcode: shortcode,
		TakenAt:   time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
		Caption:   "hello #world",
		Hashtags:  []string{"world"},
		Likes:     12,
		Comments:  3,
		Owner:     "alice",
	}
	for i := 0; i < media; i++ {
		p.Media = append(p.Media, domain.Media{URL: cdn + "/" + shortcode + ".jpg"})
	}
	return p
}

func TestDownloadPostsWritesFoldersAndMetadata(t *testing.T) {
	cdn := newCDN(t)
	ig := &fakeInstagram{posts: []*domain.Post{
		testPost(cdn.URL, "AAAAA", 1),
		testPost(cdn.URL, "BBBBB", 2),
	}}
	svc := newTestService(ig)
	dir := t.TempDir()

	downloaded, err := svc.DownloadPosts(context.Background(), "alice", dir, 0, true)
	require.NoError(t, err)
	require.Len(t, downloaded, 2)

	first := filepath.Join(dir, "2024-03-15-AAAAA")
	entries, err := os.ReadDir(first)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"AAAAA_1.jpg", "metadata.txt"}, names)

	meta, err := os.ReadFile(filepath.Join(first, "metadata.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(meta), "Shortcode: AAAAA")
	assert.Contains(t, string(meta), "Hashtags: world")
	assert.Contains(t, string(meta), "hello #world")

	second := filepath.Join(dir, "2024-03-15-BBBBB")
	entries, err = os.ReadDir(second)
	require.NoError(t, err)
	assert.Len(t, entries, 3) // two media files plus metadata
}

func TestDownloadPostsSkipsFailedPost(t *testing.T) {
	cdn := newCDN(t)
	bad := testPost(cdn.URL, "CCCCC", 1)
	bad.Media[0].URL = cdn.URL + "/broken.jpg"
	ig := &fakeInstagram{posts: []*domain.Post{
		bad,
		testPost(cdn.URL, "DDDDD", 1),
	}}
	svc := newTestService(ig)
	dir := t.TempDir()

	downloaded, err := svc.DownloadPosts(context.Background(), "alice", dir, 0, false)
	require.NoError(t, err)
	require.Len(t, downloaded, 1)
	assert.Equal(t, "DDDDD", downloaded[0].Shortcode)
	assert.NoDirExists(t, filepath.Join(dir, "2024-03-15-CCCCC"))
}

func TestDownloadPostByURLSidecar(t *testing.T) {
	cdn := newCDN(t)
	ig := &fakeInstagram{single: testPost(cdn.URL, "EEEEE", 3)}
	svc := newTestService(ig)
	dir := t.TempDir()

	result, err := svc.DownloadPostByURL(context.Background(), "https://www.instagram.com/p/EEEEE/", dir, false)
	require.NoError(t, err)
	assert.Equal(t, "EEEEE", result.Shortcode)
	assert.Equal(t, "alice", result.Owner)
	assert.True(t, result.IsSidecar)
	assert.Len(t, result.MediaFiles, 3)
	for _, f := range result.MediaFiles {
		assert.FileExists(t, f)
	}
}

func TestDownloadPostByURLFetchFailure(t *testing.T) {
	cdn := newCDN(t)
	post := testPost(cdn.URL, "FFFFF", 1)
	post.Media[0].URL = cdn.URL + "/broken.jpg"
	ig := &fakeInstagram{single: post}
	svc := newTestService(ig)

	_, err := svc.DownloadPostByURL(context.Background(), "FFFFF", t.TempDir(), false)
	require.Error(t, err)
	appErr, ok := apperrors.FromError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindDownload, appErr.Kind)
}

func TestDownloadPostByURLNoMedia(t *testing.T) {
	cdn := newCDN(t)
	ig := &fakeInstagram{single: testPost(cdn.URL, "JJJJJ", 0)}
	svc := newTestService(ig)

	_, err := svc.DownloadPostByURL(context.Background(), "JJJJJ", t.TempDir(), false)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNoContent))
}

func TestDownloadProfilePicFallsBackToStandardURL(t *testing.T) {
	cdn := newCDN(t)
	ig := &fakeInstagram{profile: &domain.Profile{
		Username:        "alice",
		ProfilePicURLHD: cdn.URL + "/broken-hd.jpg",
		ProfilePicURL:   cdn.URL + "/pic.jpg",
	}}
	svc := newTestService(ig)
	dir := t.TempDir()

	path, err := svc.DownloadProfilePic(context.Background(), "alice", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "profile_pic.jpg"), path)
	assert.FileExists(t, path)
}

func TestDownloadProfilePicBothURLsFail(t *testing.T) {
	cdn := newCDN(t)
	ig := &fakeInstagram{profile: &domain.Profile{
		Username:        "alice",
		ProfilePicURLHD: cdn.URL + "/broken-hd.jpg",
		ProfilePicURL:   cdn.URL + "/broken.jpg",
	}}
	svc := newTestService(ig)

	path, err := svc.DownloadProfilePic(context.Background(), "alice", t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestDownloadStories(t *testing.T) {
	cdn := newCDN(t)
	taken := time.Date(2024, 3, 16, 8, 0, 0, 0, time.UTC)
	ig := &fakeInstagram{
		capabilities: instagram.Capabilities{Stories: true},
		stories: []*domain.StoryItem{
			{ID: "111", TakenAt: taken, MediaURL: cdn.URL + "/s1.jpg"},
			{ID: "222", TakenAt: taken, MediaURL: cdn.URL + "/s2.mp4", IsVideo: true},
			{ID: "333", TakenAt: taken, MediaURL: cdn.URL + "/broken.jpg"},
		},
	}
	svc := newTestService(ig)
	dir := t.TempDir()

	count, err := svc.DownloadStories(context.Background(), "alice", dir)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.DirExists(t, filepath.Join(dir, "2024-03-16-111"))
	assert.NoDirExists(t, filepath.Join(dir, "2024-03-16-333"))
}

func TestDownloadAllAccumulatesErrors(t *testing.T) {
	cdn := newCDN(t)
	ig := &fakeInstagram{
		capabilities: instagram.Capabilities{Stories: true},
		profile: &domain.Profile{
			Username:        "alice",
			ProfilePicURLHD: cdn.URL + "/broken-hd.jpg",
			ProfilePicURL:   cdn.URL + "/broken.jpg",
		},
		posts:   []*domain.Post{testPost(cdn.URL, "GGGGG", 1)},
		stories: []*domain.StoryItem{},
	}
	svc := newTestService(ig)
	dir := t.TempDir()

	stats := svc.DownloadAll(context.Background(), "alice", dir, 0, false)
	assert.Equal(t, "alice", stats.Username)
	assert.False(t, stats.ProfilePic)
	assert.Equal(t, 1, stats.Posts)
	assert.Equal(t, 0, stats.Stories)
	assert.Empty(t, stats.Errors)
}

func TestDownloadAllPrivatePosts(t *testing.T) {
	cdn := newCDN(t)
	ig := &fakeInstagram{
		profile:  &domain.Profile{Username: "bob", ProfilePicURL: cdn.URL + "/pic.jpg"},
		postsErr: apperrors.PrivateProfile("bob"),
	}
	svc := newTestService(ig)

	stats := svc.DownloadAll(context.Background(), "bob", t.TempDir(), 0, false)
	assert.True(t, stats.ProfilePic)
	assert.Equal(t, 0, stats.Posts)
	require.Len(t, stats.Errors, 1)
	assert.Equal(t, "Posts: Profile is private", stats.Errors[0])
}

func TestListPostsClampsAndRejectsPrivate(t *testing.T) {
	cdn := newCDN(t)
	ig := &fakeInstagram{
		profile: &domain.Profile{Username: "alice", PostCount: 2},
		posts: []*domain.Post{
			testPost(cdn.URL, "HHHHH", 0),
			testPost(cdn.URL, "IIIII", 0),
		},
	}
	svc := newTestService(ig)

	list, err := svc.ListPosts(context.Background(), "alice", 500)
	require.NoError(t, err)
	assert.Equal(t, 2, list.TotalPosts)
	assert.Equal(t, 2, list.ReturnedPosts)

	ig.profile.IsPrivate = true
	_, err = svc.ListPosts(context.Background(), "alice", 5)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindPrivateProfile))
}
