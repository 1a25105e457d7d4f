package fbpost

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/blacktop/fbpost/internal/logutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logutil.SetOutput(io.Discard)
	os.Exit(m.Run())
}

type recordingPoster struct {
	calls []string
	args  [][]string
}

func (p *recordingPoster) Name() string { return "fake" }

func (p *recordingPoster) record(name string, args ...string) (string, error) {
	p.calls = append(p.calls, name)
	p.args = append(p.args, args)
	return name + "-id", nil
}

func (p *recordingPoster) PostText(_ context.Context, message string) (string, error) {
	return p.record("text", message)
}

func (p *recordingPoster) PostImage(_ context.Context, path, caption string) (string, error) {
	return p.record("image", path, caption)
}

func (p *recordingPoster) PostVideo(_ context.Context, path, title, description string) (string, error) {
	return p.record("video", path, title, description)
}

func (p *recordingPoster) PostLink(_ context.Context, url, message string) (string, error) {
	return p.record("link", url, message)
}

type recordingMultiPoster struct {
	recordingPoster
	message string
	media   []string
}

func (p *recordingMultiPoster) CreatePost(_ context.Context, message string, mediaPaths []string) error {
	p.calls = append(p.calls, "create")
	p.message = message
	p.media = mediaPaths
	return nil
}

func tempMedia(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestPublishEmpty(t *testing.T) {
	p := &recordingPoster{}
	_, err := Publish(context.Background(), p, Request{})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, p.calls)
}

func TestPublishRouting(t *testing.T) {
	image := tempMedia(t, "a.jpg", []byte("jpeg"))
	video := tempMedia(t, "b.mp4", []byte("mp4"))

	tests := []struct {
		name string
		req  Request
		call string
		args []string
	}{
		{
			name: "text",
			req:  Request{Message: "hello"},
			call: "text",
			args: []string{"hello"},
		},
		{
			name: "link",
			req:  Request{Message: "read", Link: "https://example.com"},
			call: "link",
			args: []string{"https://example.com", "read"},
		},
		{
			name: "image with link appended",
			req:  Request{Message: "look", MediaPaths: []string{image}, Link: "https://example.com"},
			call: "image",
			args: []string{image, "look\n\nhttps://example.com"},
		},
		{
			name: "video description defaults to message",
			req:  Request{Message: "watch", MediaPaths: []string{video}, Title: "T"},
			call: "video",
			args: []string{video, "T", "watch"},
		},
		{
			name: "video explicit description",
			req:  Request{Message: "watch", MediaPaths: []string{video}, Title: "T", Description: "D"},
			call: "video",
			args: []string{video, "T", "D"},
		},
		{
			name: "extra media ignored",
			req:  Request{Message: "two", MediaPaths: []string{image, video}},
			call: "image",
			args: []string{image, "two"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &recordingPoster{}
			id, err := Publish(context.Background(), p, tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.call+"-id", id)
			assert.Equal(t, []string{tt.call}, p.calls)
			assert.Equal(t, [][]string{tt.args}, p.args)
		})
	}
}

func TestPublishMultiPoster(t *testing.T) {
	a := tempMedia(t, "a.jpg", []byte("jpeg"))
	b := tempMedia(t, "b.png", []byte("png"))

	p := &recordingMultiPoster{}
	id, err := Publish(context.Background(), p, Request{Message: "album", MediaPaths: []string{a, b}, Link: "https://example.com"})
	require.NoError(t, err)
	assert.Empty(t, id)
	assert.Equal(t, []string{"create"}, p.calls)
	assert.Equal(t, "album\n\nhttps://example.com", p.message)
	assert.Equal(t, []string{a, b}, p.media)
}

func TestPublishMultiPosterSingleFile(t *testing.T) {
	a := tempMedia(t, "a.jpg", []byte("jpeg"))

	p := &recordingMultiPoster{}
	_, err := Publish(context.Background(), p, Request{Message: "one", MediaPaths: []string{a}})
	require.NoError(t, err)
	assert.Equal(t, []string{"image"}, p.calls)
}

func TestPublishMissingMedia(t *testing.T) {
	p := &recordingMultiPoster{}
	missing := filepath.Join(t.TempDir(), "missing.jpg")

	_, err := Publish(context.Background(), p, Request{Message: "hi", MediaPaths: []string{missing}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpload)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Empty(t, p.calls)
}

func TestPublishUnknownMedia(t *testing.T) {
	p := &recordingPoster{}
	notes := tempMedia(t, "notes.txt", []byte("plain text notes"))

	_, err := Publish(context.Background(), p, Request{Message: "hi", MediaPaths: []string{notes}})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, p.calls)
}

func TestPublishSniffsExtensionless(t *testing.T) {
	png := []byte("\x89PNG\x0D\x0A\x1A\x0A\x00\x00\x00\x0DIHDR")
	path := tempMedia(t, "upload", png)

	p := &recordingPoster{}
	_, err := Publish(context.Background(), p, Request{Message: "hi", MediaPaths: []string{path}})
	require.NoError(t, err)
	assert.Equal(t, []string{"image"}, p.calls)
}
