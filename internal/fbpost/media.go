package fbpost

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// MediaKind classifies an attachment.
type MediaKind int

const (
	MediaUnknown MediaKind = iota
	MediaImage
	MediaVideo
)

func (k MediaKind) String() string {
	switch k {
	case MediaImage:
		return "image"
	case MediaVideo:
		return "video"
	default:
		return "unknown"
	}
}

var (
	imageExtensions = map[string]struct{}{
		".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".bmp": {}, ".webp": {},
	}
	videoExtensions = map[string]struct{}{
		".mp4": {}, ".mov": {}, ".avi": {}, ".wmv": {}, ".flv": {}, ".mkv": {}, ".webm": {},
	}
)

// KindByExtension classifies path by its file extension only.
func KindByExtension(path string) MediaKind {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := imageExtensions[ext]; ok {
		return MediaImage
	}
	if _, ok := videoExtensions[ext]; ok {
		return MediaVideo
	}
	return MediaUnknown
}

// DetectMediaKind classifies path by extension, falling back to sniffing the
// first bytes of the file.
func DetectMediaKind(path string) (MediaKind, error) {
	if kind := KindByExtension(path); kind != MediaUnknown {
		return kind, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return MediaUnknown, err
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return MediaUnknown, err
	}

	detected := http.DetectContentType(head[:n])
	switch {
	case strings.HasPrefix(detected, "image/"):
		return MediaImage, nil
	case strings.HasPrefix(detected, "video/"):
		return MediaVideo, nil
	}
	return MediaUnknown, nil
}

// CheckMediaFiles verifies that every path exists and is a regular file.
func CheckMediaFiles(provider string, paths []string) error {
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return NewError(ErrUpload, provider, "attach media", fmt.Errorf("media %q: %w", path, err))
		}
		if info.IsDir() {
			return NewError(ErrUpload, provider, "attach media", fmt.Errorf("media %q is a directory", path))
		}
	}
	return nil
}
