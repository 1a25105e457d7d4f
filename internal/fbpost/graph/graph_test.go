package graph

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/blacktop/fbpost/internal/config"
	"github.com/blacktop/fbpost/internal/fbpost"
	"github.com/blacktop/fbpost/internal/logutil"
	fb "github.com/huandu/facebook/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logutil.SetOutput(io.Discard)
	os.Exit(m.Run())
}

type call struct {
	method string
	path   string
	params fb.Params
}

type fakeSession struct {
	calls  []call
	result fb.Result
	err    error
}

func (s *fakeSession) Get(path string, params fb.Params) (fb.Result, error) {
	s.calls = append(s.calls, call{method: "GET", path: path, params: params})
	return s.result, s.err
}

func (s *fakeSession) Post(path string, params fb.Params) (fb.Result, error) {
	s.calls = append(s.calls, call{method: "POST", path: path, params: params})
	return s.result, s.err
}

func newTestClient(s *fakeSession) *Client {
	return &Client{
		pageID: "1234",
		open:   func(context.Context) session { return s },
	}
}

func writeFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("media"), 0o644))
	return path
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(config.APICredentials{PageID: "1234"})
	require.Error(t, err)
	assert.ErrorIs(t, err, fbpost.ErrConfig)

	var missing fbpost.MissingEnvError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{config.EnvAccessToken}, missing.Variables)

	c, err := New(config.APICredentials{AccessToken: "token", PageID: "1234"})
	require.NoError(t, err)
	assert.Equal(t, "api", c.Name())
}

func TestPostText(t *testing.T) {
	s := &fakeSession{result: fb.Result{"id": "1234_5678"}}
	c := newTestClient(s)

	id, err := c.PostText(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "1234_5678", id)

	require.Len(t, s.calls, 1)
	assert.Equal(t, "POST", s.calls[0].method)
	assert.Equal(t, "/1234/feed", s.calls[0].path)
	assert.Equal(t, "hello", s.calls[0].params["message"])
}

func TestPostTextEmpty(t *testing.T) {
	s := &fakeSession{}
	c := newTestClient(s)

	_, err := c.PostText(context.Background(), "  ")
	assert.ErrorIs(t, err, fbpost.ErrValidation)
	assert.Empty(t, s.calls)
}

func TestPostImagePrefersPostID(t *testing.T) {
	s := &fakeSession{result: fb.Result{"id": "photo-1", "post_id": "1234_99"}}
	c := newTestClient(s)
	path := writeFile(t, "cat.JPG")

	id, err := c.PostImage(context.Background(), path, "caption")
	require.NoError(t, err)
	assert.Equal(t, "1234_99", id)

	require.Len(t, s.calls, 1)
	assert.Equal(t, "/1234/photos", s.calls[0].path)
	assert.Equal(t, "caption", s.calls[0].params["message"])
	assert.NotNil(t, s.calls[0].params["source"])
}

func TestPostImageFallsBackToID(t *testing.T) {
	s := &fakeSession{result: fb.Result{"id": "photo-1"}}
	c := newTestClient(s)

	id, err := c.PostImage(context.Background(), writeFile(t, "cat.png"), "")
	require.NoError(t, err)
	assert.Equal(t, "photo-1", id)
	assert.NotContains(t, s.calls[0].params, "message")
}

func TestPostVideo(t *testing.T) {
	s := &fakeSession{result: fb.Result{"id": "video-1"}}
	c := newTestClient(s)

	id, err := c.PostVideo(context.Background(), writeFile(t, "clip.mp4"), "Title", "Desc")
	require.NoError(t, err)
	assert.Equal(t, "video-1", id)

	require.Len(t, s.calls, 1)
	assert.Equal(t, "/1234/videos", s.calls[0].path)
	assert.Equal(t, "Title", s.calls[0].params["title"])
	assert.Equal(t, "Desc", s.calls[0].params["description"])
}

func TestPostLink(t *testing.T) {
	s := &fakeSession{result: fb.Result{"id": "1234_1"}}
	c := newTestClient(s)

	id, err := c.PostLink(context.Background(), "https://example.com/a", "read this")
	require.NoError(t, err)
	assert.Equal(t, "1234_1", id)
	assert.Equal(t, "https://example.com/a", s.calls[0].params["link"])
	assert.Equal(t, "read this", s.calls[0].params["message"])
}

func TestValidationMakesNoCalls(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.jpg")
	textFile := writeFile(t, "notes.txt")
	video := writeFile(t, "clip.mov")

	tests := []struct {
		name string
		run  func(*Client) error
		kind error
	}{
		{"empty link", func(c *Client) error { _, err := c.PostLink(context.Background(), "", "x"); return err }, fbpost.ErrValidation},
		{"relative link", func(c *Client) error { _, err := c.PostLink(context.Background(), "example.com", "x"); return err }, fbpost.ErrValidation},
		{"ftp link", func(c *Client) error { _, err := c.PostLink(context.Background(), "ftp://example.com", ""); return err }, fbpost.ErrValidation},
		{"missing image", func(c *Client) error { _, err := c.PostImage(context.Background(), missing, ""); return err }, fbpost.ErrUpload},
		{"unsupported image", func(c *Client) error { _, err := c.PostImage(context.Background(), textFile, ""); return err }, fbpost.ErrValidation},
		{"video as image", func(c *Client) error { _, err := c.PostImage(context.Background(), video, ""); return err }, fbpost.ErrValidation},
		{"image as video", func(c *Client) error {
			_, err := c.PostVideo(context.Background(), writeFile(t, "a.gif"), "", "")
			return err
		}, fbpost.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &fakeSession{result: fb.Result{"id": "x"}}
			err := tt.run(newTestClient(s))
			assert.ErrorIs(t, err, tt.kind)
			assert.Empty(t, s.calls)
		})
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
	}{
		{"expired token", &fb.Error{Message: "Error validating access token", Type: "OAuthException", Code: 190}, fbpost.ErrAuth},
		{"session key", &fb.Error{Message: "Session key invalid", Code: 102}, fbpost.ErrAuth},
		{"app permission", &fb.Error{Message: "Application does not have permission", Code: 10}, fbpost.ErrPermission},
		{"publish permission", &fb.Error{Message: "Requires pages_manage_posts", Code: 200}, fbpost.ErrPermission},
		{"upper permission range", &fb.Error{Message: "Permission denied", Code: 299}, fbpost.ErrPermission},
		{"invalid parameter", &fb.Error{Message: "Invalid parameter", Code: 100}, fbpost.ErrValidation},
		{"rate limit", &fb.Error{Message: "Application request limit reached", Code: 4}, fbpost.ErrPostFailed},
		{"transport", errors.New("dial tcp: connection refused"), fbpost.ErrNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &fakeSession{err: tt.err}
			_, err := newTestClient(s).PostText(context.Background(), "hello")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
			assert.ErrorIs(t, err, tt.err)
			assert.Len(t, s.calls, 1)
		})
	}
}

func TestMissingPostID(t *testing.T) {
	s := &fakeSession{result: fb.Result{"success": true}}
	_, err := newTestClient(s).PostText(context.Background(), "hello")
	assert.ErrorIs(t, err, fbpost.ErrPostFailed)
}

func TestPageInfo(t *testing.T) {
	s := &fakeSession{result: fb.Result{
		"id":              "1234",
		"name":            "Test Page",
		"fan_count":       json.Number("42"),
		"followers_count": json.Number("50"),
	}}
	info, err := newTestClient(s).PageInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PageInfo{ID: "1234", Name: "Test Page", FanCount: 42, FollowersCount: 50}, info)

	require.Len(t, s.calls, 1)
	assert.Equal(t, "GET", s.calls[0].method)
	assert.Equal(t, "/1234", s.calls[0].path)
	assert.Equal(t, "id,name,fan_count,followers_count", s.calls[0].params["fields"])
}
