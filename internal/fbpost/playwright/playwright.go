package playwright

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blacktop/fbpost/internal/config"
	"github.com/blacktop/fbpost/internal/fbpost/browser"
	"github.com/blacktop/fbpost/internal/logutil"
	pw "github.com/playwright-community/playwright-go"
)

const (
	providerName = "playwright"

	navigationTimeout = 60 * time.Second
	typingDelay       = 50 * time.Millisecond
)

var launchArgs = []string{
	"--disable-blink-features=AutomationControlled",
	"--disable-notifications",
	"--no-sandbox",
	"--disable-dev-shm-usage",
}

const hideWebdriver = `Object.defineProperty(navigator, 'webdriver', { get: () => undefined });`

// Driver implements browser.Driver on top of Playwright's Chromium.
type Driver struct {
	pw      *pw.Playwright
	browser pw.Browser
	context pw.BrowserContext
	page    pw.Page
}

// New returns a Playwright-backed bot for the configured account.
func New(cfg config.Config) (*browser.Bot, error) {
	creds, err := cfg.Login(providerName)
	if err != nil {
		return nil, err
	}

	opts := browser.DefaultOptions()
	opts.LoginURL = cfg.LoginURL
	opts.HomeURL = cfg.HomeURL
	opts.Launch.Headless = cfg.Headless
	opts.Launch.SlowMo = cfg.SlowMo

	return browser.New(providerName, &Driver{}, creds, opts), nil
}

// Install downloads the Chromium build Playwright drives.
func Install() error {
	if err := pw.Install(&pw.RunOptions{Browsers: []string{"chromium"}, Verbose: logutil.Verbose()}); err != nil {
		return fmt.Errorf("install playwright chromium: %w", err)
	}
	return nil
}

// Launch starts Playwright, Chromium, one context, and one page.
func (d *Driver) Launch(ctx context.Context, opts browser.LaunchOptions) error {
	p, err := pw.Run()
	if err != nil {
		return fmt.Errorf("start playwright: %w", err)
	}
	d.pw = p

	b, err := p.Chromium.Launch(pw.BrowserTypeLaunchOptions{
		Headless: pw.Bool(opts.Headless),
		SlowMo:   pw.Float(float64(opts.SlowMo.Milliseconds())),
		Args:     launchArgs,
	})
	if err != nil {
		return fmt.Errorf("launch chromium: %w", err)
	}
	d.browser = b

	contextOpts := pw.BrowserNewContextOptions{
		Viewport: &pw.Size{Width: opts.Width, Height: opts.Height},
	}
	if opts.UserAgent != "" {
		contextOpts.UserAgent = pw.String(opts.UserAgent)
	}
	if opts.Locale != "" {
		contextOpts.Locale = pw.String(opts.Locale)
	}
	if opts.Timezone != "" {
		contextOpts.TimezoneId = pw.String(opts.Timezone)
	}

	bc, err := b.NewContext(contextOpts)
	if err != nil {
		return fmt.Errorf("create context: %w", err)
	}
	d.context = bc

	page, err := bc.NewPage()
	if err != nil {
		return fmt.Errorf("create page: %w", err)
	}
	if err := page.AddInitScript(pw.Script{Content: pw.String(hideWebdriver)}); err != nil {
		return fmt.Errorf("add init script: %w", err)
	}
	d.page = page

	logutil.Debugf("playwright: chromium started (slow_mo=%s)", opts.SlowMo)
	return nil
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	logutil.Debugf("playwright: goto %s", url)
	if _, err := d.page.Goto(url, pw.PageGotoOptions{
		WaitUntil: pw.WaitUntilStateNetworkidle,
		Timeout:   pw.Float(ms(navigationTimeout)),
	}); err != nil {
		return fmt.Errorf("goto %s: %w", url, err)
	}
	return nil
}

func (d *Driver) WaitForLoad(ctx context.Context) error {
	return d.page.WaitForLoadState(pw.PageWaitForLoadStateOptions{
		State:   pw.LoadStateNetworkidle,
		Timeout: pw.Float(ms(navigationTimeout)),
	})
}

func (d *Driver) URL(ctx context.Context) (string, error) {
	return d.page.URL(), nil
}

func (d *Driver) Click(ctx context.Context, loc browser.Locator, timeout time.Duration) error {
	l, err := d.visible(loc, timeout)
	if err != nil {
		return err
	}
	return l.Click()
}

func (d *Driver) Fill(ctx context.Context, loc browser.Locator, text string, timeout time.Duration) error {
	l, err := d.visible(loc, timeout)
	if err != nil {
		return err
	}
	return l.Fill(text)
}

func (d *Driver) Type(ctx context.Context, loc browser.Locator, text string, timeout time.Duration) error {
	l, err := d.visible(loc, timeout)
	if err != nil {
		return err
	}
	if err := l.Click(); err != nil {
		return err
	}
	return l.PressSequentially(text, pw.LocatorPressSequentiallyOptions{Delay: pw.Float(ms(typingDelay))})
}

func (d *Driver) SetInputFiles(ctx context.Context, loc browser.Locator, paths []string, timeout time.Duration) error {
	l := d.page.Locator(loc.Selector()).First()
	if err := l.WaitFor(pw.LocatorWaitForOptions{
		State:   pw.WaitForSelectorStateAttached,
		Timeout: pw.Float(ms(timeout)),
	}); err != nil {
		return notFound(err)
	}
	return l.SetInputFiles(paths)
}

func (d *Driver) WaitHidden(ctx context.Context, loc browser.Locator, timeout time.Duration) error {
	return d.page.Locator(loc.Selector()).First().WaitFor(pw.LocatorWaitForOptions{
		State:   pw.WaitForSelectorStateHidden,
		Timeout: pw.Float(ms(timeout)),
	})
}

func (d *Driver) Screenshot(ctx context.Context, path string) error {
	if d.page == nil {
		return errors.New("no page open")
	}
	_, err := d.page.Screenshot(pw.PageScreenshotOptions{Path: pw.String(path)})
	return err
}

// Close releases the context, the browser, and the Playwright driver in that
// order. It tolerates a partially completed Launch.
func (d *Driver) Close() error {
	var errs []error
	if d.context != nil {
		if err := d.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close context: %w", err))
		}
		d.context = nil
	}
	if d.browser != nil {
		if err := d.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
		d.browser = nil
	}
	if d.pw != nil {
		if err := d.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop playwright: %w", err))
		}
		d.pw = nil
	}
	d.page = nil
	return errors.Join(errs...)
}

func (d *Driver) visible(loc browser.Locator, timeout time.Duration) (pw.Locator, error) {
	l := d.page.Locator(loc.Selector()).First()
	if err := l.WaitFor(pw.LocatorWaitForOptions{
		State:   pw.WaitForSelectorStateVisible,
		Timeout: pw.Float(ms(timeout)),
	}); err != nil {
		return nil, notFound(err)
	}
	return l, nil
}

func notFound(err error) error {
	if errors.Is(err, pw.ErrTimeout) {
		return fmt.Errorf("%w: %v", browser.ErrElementNotFound, err)
	}
	return err
}

func ms(d time.Duration) float64 {
	return float64(d.Milliseconds())
}
