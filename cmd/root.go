/*
Copyright © 2025 blacktop

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/blacktop/fbpost/internal/config"
	"github.com/blacktop/fbpost/internal/fbpost"
	"github.com/blacktop/fbpost/internal/fbpost/browser"
	"github.com/blacktop/fbpost/internal/fbpost/graph"
	"github.com/blacktop/fbpost/internal/fbpost/playwright"
	"github.com/blacktop/fbpost/internal/fbpost/selenium"
	"github.com/blacktop/fbpost/internal/logutil"
	"github.com/spf13/cobra"
)

var (
	modeFlag         string
	messageFlag      string
	mediaPaths       []string
	linkFlag         string
	titleFlag        string
	descriptionFlag  string
	headless         bool
	twoFactorTimeout time.Duration
	screenshotPath   string
	configPath       string
	dryRun           bool
	verbose          bool
)

var supportedModes = []string{"api", "selenium", "playwright"}

// contentFlags select a non-interactive run.
var contentFlags = []string{"message", "media", "link", "title", "description"}

// backend publishes req with one backend and returns the post identifier.
type backend func(ctx context.Context, cfg config.Config, req fbpost.Request, screenshot string) (string, error)

var backends = map[string]backend{
	"api": postWithAPI,
	"selenium": func(ctx context.Context, cfg config.Config, req fbpost.Request, screenshot string) (string, error) {
		bot, err := selenium.New(cfg)
		if err != nil {
			return "", err
		}
		return postWithBrowser(ctx, bot, cfg, req, screenshot)
	},
	"playwright": func(ctx context.Context, cfg config.Config, req fbpost.Request, screenshot string) (string, error) {
		bot, err := playwright.New(cfg)
		if err != nil {
			return "", err
		}
		return postWithBrowser(ctx, bot, cfg, req, screenshot)
	},
}

// Execute runs the root command.
func Execute() error {
	return newRootCommand().Execute()
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fbpost [message]",
		Short: "Post to Facebook through the Graph API or a browser",
		Long: "fbpost publishes text, photos, videos, and links to Facebook. " +
			"Use --mode api to post to a page with an access token, or --mode selenium/playwright " +
			"to log into a personal account with a browser. Run without flags for an interactive prompt.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		PersistentPreRun: func(*cobra.Command, []string) {
			logutil.SetVerbose(verbose)
		},
		RunE: runRoot,
		Example: `  fbpost --mode api --message "hello world"
  fbpost -m api --media ./uploads/shot.png --message "new release"
  fbpost -m playwright --media a.jpg --media b.jpg "weekend photos"
  fbpost -m selenium --link https://example.com --message "worth a read" --headless`,
	}

	cmd.Flags().StringVarP(&modeFlag, "mode", "m", "", "Backend to use (api, selenium, playwright)")
	cmd.Flags().StringVar(&messageFlag, "message", "", "Message text to post")
	cmd.Flags().StringArrayVar(&mediaPaths, "media", nil, "Path to an image or video to attach (repeatable)")
	cmd.Flags().StringVar(&linkFlag, "link", "", "URL to share")
	cmd.Flags().StringVar(&titleFlag, "title", "", "Video title")
	cmd.Flags().StringVar(&descriptionFlag, "description", "", "Video description (defaults to the message)")
	cmd.Flags().BoolVar(&headless, "headless", false, "Run the browser without a window")
	cmd.Flags().DurationVar(&twoFactorTimeout, "2fa-timeout", config.DefaultTwoFactorTimeout, "How long to wait for two-factor approval")
	cmd.Flags().StringVar(&screenshotPath, "screenshot", "", "Save a browser screenshot after posting")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print actions without posting")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "V", false, "Enable debug logging")
	cmd.Flags().SortFlags = false

	cmd.AddCommand(newInstallBrowsersCommand())

	return cmd
}

func newInstallBrowsersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "install-browsers",
		Short: "Download the Chromium build used by --mode playwright",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), "installing playwright chromium...")
			if err := playwright.Install(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "done")
			return nil
		},
	}
}

func runRoot(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	mode, err := normalizeMode(modeFlag)
	if err != nil {
		return err
	}

	if mode == "" {
		if len(args) > 0 || anyChanged(cmd, contentFlags...) {
			return fmt.Errorf("--mode is required with content flags (one of %s)", strings.Join(supportedModes, ", "))
		}
		return runInteractive(cmd)
	}

	req, err := resolveRequest(args)
	if err != nil {
		return err
	}
	if req.Empty() {
		return fbpost.ValidationError{Provider: mode, Reason: "a message, media, or link is required"}
	}

	if dryRun {
		describe(cmd.OutOrStdout(), mode, req)
		return nil
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	return dispatch(ctx, cmd.OutOrStdout(), cfg, mode, req)
}

// loadConfig reads the configuration and applies explicit flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if cmd.Flags().Changed("headless") {
		cfg.Headless = headless
	}
	if cmd.Flags().Changed("2fa-timeout") {
		if twoFactorTimeout <= 0 {
			return config.Config{}, fbpost.NewError(fbpost.ErrConfig, "config", "--2fa-timeout", fmt.Errorf("must be positive, got %s", twoFactorTimeout))
		}
		cfg.TwoFactorTimeout = twoFactorTimeout
	}
	return cfg, nil
}

func normalizeMode(raw string) (string, error) {
	mode := strings.TrimSpace(strings.ToLower(raw))
	if mode == "" {
		return "", nil
	}
	for _, supported := range supportedModes {
		if mode == supported {
			return mode, nil
		}
	}
	return "", fmt.Errorf("unsupported mode %q (expected one of %s)", raw, strings.Join(supportedModes, ", "))
}

func resolveRequest(args []string) (fbpost.Request, error) {
	message := messageFlag
	if len(args) > 0 {
		if message != "" {
			return fbpost.Request{}, errors.New("provide the message either as an argument or with --message, not both")
		}
		message = strings.Join(args, " ")
	}

	var media []string
	for _, path := range mediaPaths {
		if path = strings.TrimSpace(path); path != "" {
			media = append(media, path)
		}
	}

	return fbpost.Request{
		Message:     strings.TrimSpace(message),
		MediaPaths:  media,
		Link:        strings.TrimSpace(linkFlag),
		Title:       strings.TrimSpace(titleFlag),
		Description: strings.TrimSpace(descriptionFlag),
	}, nil
}

func anyChanged(cmd *cobra.Command, names ...string) bool {
	for _, name := range names {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

func describe(out io.Writer, mode string, req fbpost.Request) {
	fmt.Fprintf(out, "[dry-run] would post via %s: %q\n", mode, req.Message)
	for _, path := range req.MediaPaths {
		kind, err := fbpost.DetectMediaKind(path)
		if err != nil {
			fmt.Fprintf(out, "[dry-run] media: %s (unreadable: %v)\n", path, err)
			continue
		}
		fmt.Fprintf(out, "[dry-run] media: %s (%s)\n", path, kind)
	}
	if req.Link != "" {
		fmt.Fprintf(out, "[dry-run] link: %s\n", req.Link)
	}
	if req.Title != "" || req.Description != "" {
		fmt.Fprintf(out, "[dry-run] video title: %q description: %q\n", req.Title, req.Description)
	}
}

func dispatch(ctx context.Context, out io.Writer, cfg config.Config, mode string, req fbpost.Request) error {
	run, ok := backends[mode]
	if !ok {
		return fmt.Errorf("mode %q is not implemented", mode)
	}

	fmt.Fprintf(out, "posting via %s...\n", mode)
	id, err := run(ctx, cfg, req, screenshotPath)
	if err != nil {
		return err
	}

	if id != "" {
		fmt.Fprintf(out, "posted via %s (id %s)\n", mode, id)
	} else {
		fmt.Fprintf(out, "posted via %s\n", mode)
	}
	return nil
}

func postWithAPI(ctx context.Context, cfg config.Config, req fbpost.Request, _ string) (string, error) {
	creds, err := cfg.API()
	if err != nil {
		return "", err
	}
	client, err := graph.New(creds)
	if err != nil {
		return "", err
	}

	info, err := client.PageInfo(ctx)
	if err != nil {
		return "", err
	}
	logutil.Infof("connected to page %q (%s, %d followers)", info.Name, info.ID, info.FollowersCount)

	return fbpost.Publish(ctx, client, req)
}

func postWithBrowser(ctx context.Context, bot *browser.Bot, cfg config.Config, req fbpost.Request, screenshot string) (string, error) {
	var id string
	err := browser.Run(ctx, bot, func(ctx context.Context, b *browser.Bot) error {
		if err := b.Login(ctx, cfg.TwoFactorTimeout); err != nil {
			return err
		}

		var err error
		id, err = fbpost.Publish(ctx, b, req)

		if screenshot != "" {
			if shotErr := b.TakeScreenshot(ctx, screenshot); shotErr != nil {
				logutil.Warnf("screenshot failed: %v", shotErr)
			}
		}
		return err
	})
	return id, err
}
