package selenium

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/blacktop/fbpost/internal/config"
	"github.com/blacktop/fbpost/internal/fbpost/browser"
	"github.com/blacktop/fbpost/internal/logutil"
	wd "github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"
)

const (
	providerName = "selenium"

	pollInterval = 200 * time.Millisecond
	loadTimeout  = 30 * time.Second
)

const (
	hideWebdriver = `Object.defineProperty(navigator, 'webdriver', {get: () => undefined})`
	jsClick       = `arguments[0].click();`
	readyState    = `return document.readyState;`
)

// Driver implements browser.Driver over a local chromedriver.
type Driver struct {
	driverPath string
	port       int

	service *wd.Service
	session wd.WebDriver
}

// New returns a Selenium-backed bot for the configured account.
func New(cfg config.Config) (*browser.Bot, error) {
	creds, err := cfg.Login(providerName)
	if err != nil {
		return nil, err
	}

	opts := browser.DefaultOptions()
	opts.LoginURL = cfg.LoginURL
	opts.HomeURL = cfg.HomeURL
	opts.Launch.Headless = cfg.Headless

	d := &Driver{driverPath: cfg.ChromeDriverPath, port: cfg.ChromeDriverPort}
	return browser.New(providerName, d, creds, opts), nil
}

// findChromeDriver resolves the chromedriver executable.
func findChromeDriver(configured string) (string, error) {
	if configured != "" {
		if _, err := os.Stat(configured); err != nil {
			return "", fmt.Errorf("chromedriver %q: %w", configured, err)
		}
		return configured, nil
	}

	commonPaths := []string{
		"/usr/local/bin/chromedriver",
		"/usr/bin/chromedriver",
		"/opt/homebrew/bin/chromedriver",
	}
	if home, err := os.UserHomeDir(); err == nil {
		commonPaths = append(commonPaths, filepath.Join(home, "bin", "chromedriver"))
	}
	for _, path := range commonPaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	if path, err := exec.LookPath("chromedriver"); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("chromedriver not found; install it or set %s", config.EnvChromeDriverPath)
}

func chromeArgs(opts browser.LaunchOptions) []string {
	args := []string{
		"--disable-blink-features=AutomationControlled",
		"--disable-notifications",
		"--no-sandbox",
		"--disable-dev-shm-usage",
		"--disable-gpu",
		fmt.Sprintf("--window-size=%d,%d", opts.Width, opts.Height),
	}
	if opts.Headless {
		args = append([]string{"--headless=new"}, args...)
	}
	if opts.UserAgent != "" {
		args = append(args, "--user-agent="+opts.UserAgent)
	}
	if opts.Locale != "" {
		args = append(args, "--lang="+opts.Locale)
	}
	return args
}

// Launch starts chromedriver and opens a Chrome session through it.
func (d *Driver) Launch(ctx context.Context, opts browser.LaunchOptions) error {
	driverPath, err := findChromeDriver(d.driverPath)
	if err != nil {
		return err
	}
	logutil.Debugf("selenium: using chromedriver at %s (port %d)", driverPath, d.port)

	service, err := wd.NewChromeDriverService(driverPath, d.port)
	if err != nil {
		return fmt.Errorf("start chromedriver: %w", err)
	}
	d.service = service

	caps := wd.Capabilities{"browserName": "chrome"}
	caps.AddChrome(chrome.Capabilities{
		Args:            chromeArgs(opts),
		ExcludeSwitches: []string{"enable-automation"},
		Prefs: map[string]interface{}{
			"profile.default_content_setting_values.notifications": 2,
		},
	})

	remote, err := wd.NewRemote(caps, fmt.Sprintf("http://localhost:%d/wd/hub", d.port))
	if err != nil {
		if strings.Contains(err.Error(), "cannot find Chrome binary") {
			return fmt.Errorf("create webdriver session: Chrome browser not found: %w", err)
		}
		return fmt.Errorf("create webdriver session: %w", err)
	}
	d.session = remote

	if _, err := d.session.ExecuteScript(hideWebdriver, nil); err != nil {
		logutil.Debugf("selenium: hide webdriver flag: %v", err)
	}
	return nil
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	logutil.Debugf("selenium: get %s", url)
	if err := d.session.Get(url); err != nil {
		return fmt.Errorf("get %s: %w", url, err)
	}
	return d.WaitForLoad(ctx)
}

func (d *Driver) WaitForLoad(ctx context.Context) error {
	return d.session.WaitWithTimeoutAndInterval(func(w wd.WebDriver) (bool, error) {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		state, err := w.ExecuteScript(readyState, nil)
		if err != nil {
			return false, nil
		}
		return state == "complete", nil
	}, loadTimeout, pollInterval)
}

func (d *Driver) URL(ctx context.Context) (string, error) {
	return d.session.CurrentURL()
}

// Click clicks the first visible match, falling back to a script click when
// another element intercepts the pointer.
func (d *Driver) Click(ctx context.Context, loc browser.Locator, timeout time.Duration) error {
	el, err := d.wait(ctx, loc, timeout, true)
	if err != nil {
		return err
	}
	if err := el.Click(); err != nil {
		logutil.Debugf("selenium: native click on %s failed, using script click: %v", loc, err)
		if _, err := d.session.ExecuteScript(jsClick, []interface{}{el}); err != nil {
			return fmt.Errorf("click %s: %w", loc, err)
		}
	}
	return nil
}

func (d *Driver) Fill(ctx context.Context, loc browser.Locator, text string, timeout time.Duration) error {
	el, err := d.wait(ctx, loc, timeout, true)
	if err != nil {
		return err
	}
	if err := el.Clear(); err != nil {
		logutil.Debugf("selenium: clear %s: %v", loc, err)
	}
	return el.SendKeys(text)
}

func (d *Driver) Type(ctx context.Context, loc browser.Locator, text string, timeout time.Duration) error {
	el, err := d.wait(ctx, loc, timeout, true)
	if err != nil {
		return err
	}
	if err := el.Click(); err != nil {
		logutil.Debugf("selenium: focus %s: %v", loc, err)
	}
	return el.SendKeys(text)
}

// SetInputFiles sends each path to a file input. Inputs are usually hidden,
// so only presence is required.
func (d *Driver) SetInputFiles(ctx context.Context, loc browser.Locator, paths []string, timeout time.Duration) error {
	el, err := d.wait(ctx, loc, timeout, false)
	if err != nil {
		return err
	}
	for _, path := range paths {
		if err := el.SendKeys(path); err != nil {
			return fmt.Errorf("attach %s: %w", path, err)
		}
	}
	return nil
}

func (d *Driver) WaitHidden(ctx context.Context, loc browser.Locator, timeout time.Duration) error {
	by, value := locate(loc)
	return d.session.WaitWithTimeoutAndInterval(func(w wd.WebDriver) (bool, error) {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		el, err := w.FindElement(by, value)
		if err != nil {
			return true, nil
		}
		shown, err := el.IsDisplayed()
		if err != nil {
			return true, nil
		}
		return !shown, nil
	}, timeout, pollInterval)
}

func (d *Driver) Screenshot(ctx context.Context, path string) error {
	if d.session == nil {
		return errors.New("no session open")
	}
	data, err := d.session.Screenshot()
	if err != nil {
		return fmt.Errorf("capture screenshot: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Close quits the session and stops chromedriver. It tolerates a partially
// completed Launch.
func (d *Driver) Close() error {
	var errs []error
	if d.session != nil {
		if err := d.session.Quit(); err != nil {
			errs = append(errs, fmt.Errorf("quit session: %w", err))
		}
		d.session = nil
	}
	if d.service != nil {
		if err := d.service.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop chromedriver: %w", err))
		}
		d.service = nil
	}
	return errors.Join(errs...)
}

func (d *Driver) wait(ctx context.Context, loc browser.Locator, timeout time.Duration, visible bool) (wd.WebElement, error) {
	by, value := locate(loc)

	var found wd.WebElement
	err := d.session.WaitWithTimeoutAndInterval(func(w wd.WebDriver) (bool, error) {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		el, err := w.FindElement(by, value)
		if err != nil {
			return false, nil
		}
		if visible {
			shown, err := el.IsDisplayed()
			if err != nil || !shown {
				return false, nil
			}
		}
		found = el
		return true, nil
	}, timeout, pollInterval)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %s", browser.ErrElementNotFound, value)
	}
	return found, nil
}

// locate maps a Locator onto a WebDriver strategy.
func locate(loc browser.Locator) (string, string) {
	if loc.By == browser.ByCSS {
		return wd.ByCSSSelector, loc.Value
	}
	return wd.ByXPATH, loc.XPath()
}
