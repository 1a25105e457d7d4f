package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/blacktop/fbpost/internal/fbpost"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#1877F2")).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#1877F2")).
			Padding(0, 2)
	menuStyle  = lipgloss.NewStyle().PaddingLeft(2)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

var menuChoices = map[string]string{
	"1": "api",
	"2": "selenium",
	"3": "playwright",
}

// isTerminal reports whether r is an interactive terminal.
var isTerminal = func(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// readLine returns io.EOF once input is exhausted and nothing was read.
func (p *prompter) readLine(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func runInteractive(cmd *cobra.Command) error {
	if !isTerminal(cmd.InOrStdin()) {
		return errors.New("interactive mode needs a terminal; pass --mode and --message instead")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	p := &prompter{in: bufio.NewReader(cmd.InOrStdin()), out: cmd.OutOrStdout()}
	fmt.Fprintln(p.out, bannerStyle.Render("fbpost · Facebook posting tool"))

	for {
		fmt.Fprintln(p.out, menuStyle.Render(strings.Join([]string{
			"",
			"1. Graph API (page access token)",
			"2. Selenium (browser login)",
			"3. Playwright (browser login)",
			"0. Exit",
			"",
		}, "\n")))

		choice, err := p.readLine("Select (0-3): ")
		if errors.Is(err, io.EOF) || choice == "0" {
			fmt.Fprintln(p.out, "bye")
			return nil
		}
		if err != nil {
			return fmt.Errorf("read choice: %w", err)
		}

		mode, ok := menuChoices[choice]
		if !ok {
			fmt.Fprintln(p.out, errorStyle.Render("invalid choice, try again"))
			continue
		}

		req, err := p.request(cfg.UploadsDir)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if mode != "api" {
			fmt.Fprintln(p.out, warnStyle.Render("browser automation may violate Facebook's terms; use a test account"))
		}
		if err := dispatch(cmd.Context(), p.out, cfg, mode, req); err != nil {
			fmt.Fprintln(p.out, errorStyle.Render("error: "+err.Error()))
		}

		if _, err := p.readLine("\nPress Enter to continue..."); errors.Is(err, io.EOF) {
			return nil
		}
	}
}

// request prompts for a message and optional media paths. Paths that do not
// exist are rejected at the prompt.
func (p *prompter) request(uploadsDir string) (fbpost.Request, error) {
	for {
		message, err := p.readLine("\nMessage: ")
		if err != nil {
			return fbpost.Request{}, err
		}

		var media []string
		answer, err := p.readLine("Attach media? (y/N): ")
		if err != nil {
			return fbpost.Request{}, err
		}
		if strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes") {
			fmt.Fprintln(p.out, "Enter file paths, one per line (blank line to finish):")
			for {
				path, err := p.readLine("  path: ")
				if err != nil && !errors.Is(err, io.EOF) {
					return fbpost.Request{}, err
				}
				if path == "" {
					break
				}
				resolved, ok := resolveMediaPath(path, uploadsDir)
				if !ok {
					fmt.Fprintln(p.out, errorStyle.Render("  file not found: "+path))
					continue
				}
				media = append(media, resolved)
				fmt.Fprintln(p.out, okStyle.Render("  added: "+resolved))
			}
		}

		req := fbpost.Request{Message: message, MediaPaths: media}
		if !req.Empty() {
			return req, nil
		}
		fmt.Fprintln(p.out, errorStyle.Render("a message or media is required"))
	}
}

// resolveMediaPath accepts path as given or relative to the uploads directory.
func resolveMediaPath(path, uploadsDir string) (string, bool) {
	candidates := []string{path}
	if uploadsDir != "" && !filepath.IsAbs(path) {
		candidates = append(candidates, filepath.Join(uploadsDir, path))
	}
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

