package browser

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/blacktop/fbpost/internal/config"
	"github.com/blacktop/fbpost/internal/fbpost"
	"github.com/blacktop/fbpost/internal/logutil"
)

// Options tune a Bot's navigation targets and waits.
type Options struct {
	Launch   LaunchOptions
	LoginURL string
	HomeURL  string

	// ElementWait bounds each lookup of a form control or composer element.
	ElementWait time.Duration
	// PopupWait bounds each probe of the popup policy.
	PopupWait time.Duration
	// SettleDelay is the pause after clicks that trigger page transitions.
	SettleDelay time.Duration
	// PollInterval is the URL polling interval during two-factor waits.
	PollInterval time.Duration
	// SubmitTimeout bounds the wait for the composer to close after Post.
	SubmitTimeout time.Duration
}

// DefaultOptions returns the waits used against the live site.
func DefaultOptions() Options {
	return Options{
		Launch:        DefaultLaunchOptions(),
		LoginURL:      config.DefaultLoginURL,
		HomeURL:       config.DefaultHomeURL,
		ElementWait:   10 * time.Second,
		PopupWait:     1500 * time.Millisecond,
		SettleDelay:   3 * time.Second,
		PollInterval:  time.Second,
		SubmitTimeout: 30 * time.Second,
	}
}

// Bot drives one browser session through launch, login, and posting. It is
// not safe for concurrent use.
type Bot struct {
	name   string
	driver Driver
	creds  config.LoginCredentials
	opts   Options
	popups *PopupPolicy
	state  State
}

var _ fbpost.MultiPoster = (*Bot)(nil)

// New returns a Bot in the Uninitialized state.
func New(name string, d Driver, creds config.LoginCredentials, opts Options) *Bot {
	return &Bot{
		name:   name,
		driver: d,
		creds:  creds,
		opts:   opts,
		popups: NewPopupPolicy(opts.PopupWait),
		state:  Uninitialized,
	}
}

// Name returns the provider identifier.
func (b *Bot) Name() string { return b.name }

// State returns the current lifecycle state.
func (b *Bot) State() State { return b.state }

// Launch starts the browser. A failed launch tears down whatever was started
// and leaves the bot Closed.
func (b *Bot) Launch(ctx context.Context) error {
	if b.state != Uninitialized {
		return b.stateError("launch")
	}
	b.setState(LaunchingBrowser)

	logutil.Infof("%s: starting browser (headless=%t)", b.name, b.opts.Launch.Headless)
	if err := b.driver.Launch(ctx, b.opts.Launch); err != nil {
		if cerr := b.driver.Close(); cerr != nil {
			logutil.Debugf("%s: teardown after failed launch: %v", b.name, cerr)
		}
		b.setState(Closed)
		return b.fail(fbpost.ErrLaunch, "launch browser", err)
	}

	b.setState(LoggedOut)
	return nil
}

// Login signs in with the bot's credentials. When Facebook asks for a second
// factor, Login waits up to twoFactorTimeout for it to be completed in the
// browser window. Any failure leaves the bot LoggedOut.
func (b *Bot) Login(ctx context.Context, twoFactorTimeout time.Duration) error {
	if b.state != LoggedOut {
		return b.stateError("login")
	}
	b.setState(LoggingIn)

	if err := b.login(ctx, twoFactorTimeout); err != nil {
		b.setState(LoggedOut)
		return err
	}

	b.setState(LoggedIn)
	logutil.Infof("%s: logged in", b.name)
	b.popups.Pass(ctx, b.driver, PhaseLogin)
	return nil
}

func (b *Bot) login(ctx context.Context, twoFactorTimeout time.Duration) error {
	logutil.Infof("%s: opening login page", b.name)
	if err := b.driver.Navigate(ctx, b.opts.LoginURL); err != nil {
		return b.fail(fbpost.ErrNetwork, "open login page", err)
	}
	b.popups.Pass(ctx, b.driver, PhaseNavigation)

	if err := b.first(emailInput, func(loc Locator) error {
		return b.driver.Fill(ctx, loc, b.creds.Email, b.opts.ElementWait)
	}); err != nil {
		return b.fail(fbpost.ErrComposition, "enter email", err)
	}
	if err := b.first(passwordInput, func(loc Locator) error {
		return b.driver.Fill(ctx, loc, b.creds.Password, b.opts.ElementWait)
	}); err != nil {
		return b.fail(fbpost.ErrComposition, "enter password", err)
	}
	if err := b.first(loginButton, func(loc Locator) error {
		return b.driver.Click(ctx, loc, b.opts.ElementWait)
	}); err != nil {
		return b.fail(fbpost.ErrComposition, "submit login", err)
	}

	if err := b.driver.WaitForLoad(ctx); err != nil {
		logutil.Debugf("%s: wait for load after login: %v", b.name, err)
	}
	if err := sleep(ctx, b.opts.SettleDelay); err != nil {
		return err
	}

	current, err := b.driver.URL(ctx)
	if err != nil {
		return b.fail(fbpost.ErrNetwork, "read location", err)
	}

	if requiresTwoFactor(current) {
		current, err = b.awaitTwoFactor(ctx, twoFactorTimeout)
		if err != nil {
			return err
		}
	}

	if !b.loggedIn(current) {
		return b.fail(fbpost.ErrAuth, "verify login", errors.New("credentials rejected"))
	}
	return nil
}

func (b *Bot) awaitTwoFactor(ctx context.Context, timeout time.Duration) (string, error) {
	logutil.Warnf("%s: two-factor verification required; complete it in the browser within %s", b.name, timeout)

	interval := b.opts.PollInterval
	if interval <= 0 {
		interval = time.Second
	}
	deadline := time.Now().Add(timeout)

	for {
		current, err := b.driver.URL(ctx)
		if err == nil && !requiresTwoFactor(current) {
			logutil.Infof("%s: two-factor verification completed", b.name)
			return current, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return "", b.fail(fbpost.ErrTwoFactorTimeout, "verify login", fmt.Errorf("no verification within %s", timeout))
		}
		logutil.Debugf("%s: waiting for verification, %s left", b.name, remaining.Round(time.Second))
		if err := sleep(ctx, min(interval, remaining)); err != nil {
			return "", err
		}
	}
}

// CreatePost publishes message with mediaPaths attached in order. At least one
// of the two is required. Media are checked before the UI is touched, and the
// bot returns to LoggedIn whether or not the post succeeds.
func (b *Bot) CreatePost(ctx context.Context, message string, mediaPaths []string) error {
	if b.state != LoggedIn {
		return b.stateError("create post")
	}
	if strings.TrimSpace(message) == "" && len(mediaPaths) == 0 {
		return fbpost.ValidationError{Provider: b.name, Reason: "a message or media is required"}
	}

	paths := make([]string, 0, len(mediaPaths))
	for _, p := range mediaPaths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return b.fail(fbpost.ErrUpload, "attach media", err)
		}
		paths = append(paths, abs)
	}
	if err := fbpost.CheckMediaFiles(b.name, paths); err != nil {
		return err
	}

	b.setState(Posting)
	defer func() {
		if b.state == Posting {
			b.setState(LoggedIn)
		}
	}()

	return b.compose(ctx, message, paths)
}

func (b *Bot) compose(ctx context.Context, message string, paths []string) error {
	logutil.Infof("%s: opening composer", b.name)
	if err := b.driver.Navigate(ctx, b.opts.HomeURL); err != nil {
		return b.fail(fbpost.ErrNetwork, "open home page", err)
	}
	b.popups.Pass(ctx, b.driver, PhaseNavigation)

	if err := b.first(composerTrigger, func(loc Locator) error {
		return b.driver.Click(ctx, loc, b.opts.ElementWait)
	}); err != nil {
		return b.fail(fbpost.ErrComposition, "open composer", err)
	}
	if err := sleep(ctx, b.opts.SettleDelay); err != nil {
		return err
	}

	if len(paths) > 0 {
		if err := b.attach(ctx, paths); err != nil {
			return err
		}
	}

	if message != "" {
		if err := b.first(composerTextbox, func(loc Locator) error {
			return b.driver.Type(ctx, loc, message, b.opts.ElementWait)
		}); err != nil {
			return b.fail(fbpost.ErrComposition, "type message", err)
		}
		logutil.Infof("%s: message entered: %s", b.name, preview(message))
	}

	b.popups.Pass(ctx, b.driver, PhaseComposer)

	if err := b.first(postButton, func(loc Locator) error {
		return b.driver.Click(ctx, loc, b.opts.ElementWait)
	}); err != nil {
		return b.fail(fbpost.ErrComposition, "submit post", err)
	}

	if err := b.driver.WaitHidden(ctx, composerDialog, b.opts.SubmitTimeout); err != nil {
		return b.fail(fbpost.ErrPostFailed, "confirm post", err)
	}
	b.popups.Pass(ctx, b.driver, PhaseComposer)

	logutil.Infof("%s: post published", b.name)
	return nil
}

func (b *Bot) attach(ctx context.Context, paths []string) error {
	if err := b.first(photoVideoButton, func(loc Locator) error {
		return b.driver.Click(ctx, loc, b.opts.ElementWait)
	}); err != nil {
		logutil.Debugf("%s: photo/video button not found, using file input directly", b.name)
	}

	for _, path := range paths {
		if err := b.first(fileInput, func(loc Locator) error {
			return b.driver.SetInputFiles(ctx, loc, []string{path}, b.opts.ElementWait)
		}); err != nil {
			return b.fail(fbpost.ErrUpload, "attach media", fmt.Errorf("%s: %w", path, err))
		}
		logutil.Infof("%s: attached %s", b.name, path)
		if err := sleep(ctx, b.opts.SettleDelay); err != nil {
			return err
		}
	}
	return nil
}

// TakeScreenshot writes the current viewport to path, creating parent
// directories as needed.
func (b *Bot) TakeScreenshot(ctx context.Context, path string) error {
	if b.state == Uninitialized || b.state == Closed {
		return b.stateError("screenshot")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return b.fail(fbpost.ErrIO, "screenshot", err)
		}
	}
	if err := b.driver.Screenshot(ctx, path); err != nil {
		return b.fail(fbpost.ErrIO, "screenshot", err)
	}
	logutil.Infof("%s: screenshot saved: %s", b.name, path)
	return nil
}

// Close terminates the browser. Closing a closed bot is a no-op.
func (b *Bot) Close() error {
	switch b.state {
	case Closed:
		return nil
	case Uninitialized:
		b.setState(Closed)
		return nil
	}

	b.setState(Closed)
	if err := b.driver.Close(); err != nil {
		logutil.Warnf("%s: close browser: %v", b.name, err)
		return fmt.Errorf("%s: close browser: %w", b.name, err)
	}
	logutil.Infof("%s: browser closed", b.name)
	return nil
}

// PostText publishes a text-only post.
func (b *Bot) PostText(ctx context.Context, message string) (string, error) {
	return "", b.CreatePost(ctx, message, nil)
}

// PostImage publishes one image with an optional caption.
func (b *Bot) PostImage(ctx context.Context, path, caption string) (string, error) {
	return "", b.CreatePost(ctx, caption, []string{path})
}

// PostVideo publishes one video. The web composer has no title field, so the
// title leads the description.
func (b *Bot) PostVideo(ctx context.Context, path, title, description string) (string, error) {
	return "", b.CreatePost(ctx, joinNonEmpty(title, description), []string{path})
}

// PostLink publishes message followed by the link.
func (b *Bot) PostLink(ctx context.Context, link, message string) (string, error) {
	if strings.TrimSpace(link) == "" {
		return "", fbpost.ValidationError{Provider: b.name, Reason: "link is required"}
	}
	return "", b.CreatePost(ctx, joinNonEmpty(message, link), nil)
}

func (b *Bot) first(locs []Locator, fn func(Locator) error) error {
	var errs []error
	for _, loc := range locs {
		err := fn(loc)
		if err == nil {
			return nil
		}
		logutil.Debugf("%s: selector %s: %v", b.name, loc, err)
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return ErrElementNotFound
	}
	return errors.Join(errs...)
}

func (b *Bot) loggedIn(current string) bool {
	if strings.Contains(current, "login") {
		return false
	}
	u, err := url.Parse(current)
	if err != nil {
		return false
	}
	home, err := url.Parse(b.opts.HomeURL)
	if err != nil || home.Hostname() == "" {
		return strings.HasSuffix(u.Hostname(), "facebook.com")
	}
	return sameSite(u.Hostname(), home.Hostname())
}

func (b *Bot) setState(s State) {
	if b.state != s {
		logutil.Debugf("%s: state %s -> %s", b.name, b.state, s)
	}
	b.state = s
}

func (b *Bot) stateError(op string) error {
	return fmt.Errorf("%s: %s while %s: %w", b.name, op, b.state, ErrInvalidState)
}

func (b *Bot) fail(kind error, step string, err error) error {
	return fbpost.NewError(kind, b.name, step, err)
}

func requiresTwoFactor(current string) bool {
	for _, marker := range twoFactorMarkers {
		if strings.Contains(current, marker) {
			return true
		}
	}
	return false
}

// sameSite reports whether host is home or one of its subdomains, ignoring a
// leading "www.".
func sameSite(host, home string) bool {
	home = strings.TrimPrefix(home, "www.")
	return host == home || strings.HasSuffix(host, "."+home)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func joinNonEmpty(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n\n")
}

func preview(s string) string {
	r := []rune(s)
	if len(r) <= 50 {
		return s
	}
	return string(r[:50]) + "..."
}
