package fbpost

import "context"

// Request defines the content of a single post.
type Request struct {
	Message     string
	MediaPaths  []string
	Link        string
	Title       string
	Description string
}

// Empty reports whether the request carries nothing to publish.
func (r Request) Empty() bool {
	return r.Message == "" && len(r.MediaPaths) == 0 && r.Link == ""
}

// Poster abstracts a Facebook backend that can publish content. Each method
// returns the post identifier when the backend exposes one.
type Poster interface {
	Name() string
	PostText(ctx context.Context, message string) (string, error)
	PostImage(ctx context.Context, path, caption string) (string, error)
	PostVideo(ctx context.Context, path, title, description string) (string, error)
	PostLink(ctx context.Context, url, message string) (string, error)
}

// MultiPoster is implemented by backends that attach several media files to
// one post.
type MultiPoster interface {
	Poster
	CreatePost(ctx context.Context, message string, mediaPaths []string) error
}
