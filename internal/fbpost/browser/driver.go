package browser

import (
	"context"
	"errors"
	"time"
)

// ErrElementNotFound is returned by a Driver when a locator matches nothing
// within its wait.
var ErrElementNotFound = errors.New("element not found")

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) " +
	"Chrome/120.0.0.0 Safari/537.36"

// LaunchOptions configure the browser process.
type LaunchOptions struct {
	Headless  bool
	SlowMo    time.Duration
	UserAgent string
	Locale    string
	Timezone  string
	Width     int
	Height    int
}

// DefaultLaunchOptions mirror a desktop Chrome in a Korean locale.
func DefaultLaunchOptions() LaunchOptions {
	return LaunchOptions{
		UserAgent: defaultUserAgent,
		Locale:    "ko-KR",
		Timezone:  "Asia/Seoul",
		Width:     1920,
		Height:    1080,
	}
}

// Driver is the browser automation engine behind a Bot. Implementations own
// exactly one browser process between Launch and Close.
type Driver interface {
	Launch(ctx context.Context, opts LaunchOptions) error
	Navigate(ctx context.Context, url string) error
	WaitForLoad(ctx context.Context) error
	URL(ctx context.Context) (string, error)

	// Click waits up to timeout for a visible match and clicks it.
	Click(ctx context.Context, loc Locator, timeout time.Duration) error
	// Fill replaces the value of an input.
	Fill(ctx context.Context, loc Locator, text string, timeout time.Duration) error
	// Type sends keystrokes to an element, for contenteditable targets.
	Type(ctx context.Context, loc Locator, text string, timeout time.Duration) error
	// SetInputFiles attaches files to a file input, which may be hidden.
	SetInputFiles(ctx context.Context, loc Locator, paths []string, timeout time.Duration) error
	// WaitHidden waits until loc no longer matches a visible element.
	WaitHidden(ctx context.Context, loc Locator, timeout time.Duration) error

	Screenshot(ctx context.Context, path string) error
	Close() error
}
