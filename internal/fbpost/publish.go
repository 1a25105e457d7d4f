package fbpost

import (
	"context"
	"fmt"

	"github.com/blacktop/fbpost/internal/logutil"
)

// Publish routes req to the matching capability of p and returns the post
// identifier reported by the backend.
func Publish(ctx context.Context, p Poster, req Request) (string, error) {
	if req.Empty() {
		return "", ValidationError{Provider: p.Name(), Reason: "a message, media, or link is required"}
	}

	if len(req.MediaPaths) == 0 {
		if req.Link != "" {
			return p.PostLink(ctx, req.Link, req.Message)
		}
		return p.PostText(ctx, req.Message)
	}

	if err := CheckMediaFiles(p.Name(), req.MediaPaths); err != nil {
		return "", err
	}

	if mp, ok := p.(MultiPoster); ok && len(req.MediaPaths) > 1 {
		return "", mp.CreatePost(ctx, withLink(req.Message, req.Link), req.MediaPaths)
	}

	if len(req.MediaPaths) > 1 {
		logutil.Warnf("%s posts a single attachment; ignoring %d extra file(s)", p.Name(), len(req.MediaPaths)-1)
	}

	first := req.MediaPaths[0]
	kind, err := DetectMediaKind(first)
	if err != nil {
		return "", NewError(ErrIO, p.Name(), "inspect media", err)
	}

	logutil.Debugf("routing %s attachment: path=%s", kind, first)
	switch kind {
	case MediaImage:
		return p.PostImage(ctx, first, withLink(req.Message, req.Link))
	case MediaVideo:
		description := req.Description
		if description == "" {
			description = req.Message
		}
		return p.PostVideo(ctx, first, req.Title, withLink(description, req.Link))
	default:
		return "", ValidationError{Provider: p.Name(), Reason: fmt.Sprintf("unsupported media type for %q", first)}
	}
}

func withLink(message, link string) string {
	if link == "" {
		return message
	}
	if message == "" {
		return link
	}
	return message + "\n\n" + link
}
