// internal/browser/launcher.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webdriver-keywords/internal/browser/session"
	"github.com/xkilldash9x/webdriver-keywords/internal/config"
	"github.com/xkilldash9x/webdriver-keywords/internal/driver"
)

// ErrUnsupportedBrowser is returned for browser names no launcher serves.
var ErrUnsupportedBrowser = errors.New("unsupported browser")

// fallbackNames are accepted for compatibility and launched as Chrome.
var fallbackNames = map[string]bool{"firefox": true, "ie": true}

// Launcher starts Chrome sessions over the DevTools protocol, either by
// spawning a local process or by attaching to a running browser.
type Launcher struct {
	cfg    config.BrowserConfig
	logger *zap.Logger
}

// NewLauncher creates a launcher for the given browser settings.
func NewLauncher(cfg config.BrowserConfig, logger *zap.Logger) *Launcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Launcher{cfg: cfg, logger: logger.Named("launcher")}
}

// ResolveName maps a keyword-facing browser name onto the engine actually
// launched. An empty name selects the configured default.
func (l *Launcher) ResolveName(name string) (string, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		n = strings.ToLower(l.cfg.Name)
	}
	switch {
	case n == "" || n == "chrome" || n == "chromium":
		return "chrome", nil
	case fallbackNames[n]:
		l.logger.Warn("Browser is not supported, falling back to chrome.", zap.String("requested", name))
		return "chrome", nil
	}
	return "", fmt.Errorf("%w: %q (supported: chrome, chromium; firefox and ie fall back to chrome)", ErrUnsupportedBrowser, name)
}

// Launch starts a browser and returns a session focused on its first page.
// The browser is not bound to ctx: it lives until the session quits.
func (l *Launcher) Launch(ctx context.Context, name string) (driver.Browser, error) {
	if _, err := l.ResolveName(name); err != nil {
		return nil, err
	}

	root := session.Detach(ctx)
	var allocCtx context.Context
	var allocCancel context.CancelFunc
	if l.cfg.RemoteURL != "" {
		l.logger.Info("Attaching to remote browser.", zap.String("url", l.cfg.RemoteURL))
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(root, l.cfg.RemoteURL)
	} else {
		allocCtx, allocCancel = chromedp.NewExecAllocator(root, AllocatorOptions(l.cfg)...)
	}
	browserCtx, browserCancel := chromedp.NewContext(allocCtx, l.contextOptions()...)
	cancel := func() {
		browserCancel()
		allocCancel()
	}

	if err := session.Attach(ctx, browserCtx, l.cfg.LaunchTimeout); err != nil {
		cancel()
		return nil, fmt.Errorf("browser failed to start: %w", err)
	}

	s, err := session.New(browserCtx, cancel, l.logger, session.DefaultOperationTimeout)
	if err != nil {
		cancel()
		return nil, err
	}
	if l.cfg.RemoteURL != "" && l.cfg.WindowWidth > 0 && l.cfg.WindowHeight > 0 {
		if err := s.SetWindowSize(ctx, l.cfg.WindowWidth, l.cfg.WindowHeight); err != nil {
			l.logger.Debug("Could not size remote window.", zap.Error(err))
		}
	}
	l.logger.Info("Browser started.", zap.String("session_id", s.ID()), zap.Bool("headless", l.cfg.Headless))
	return s, nil
}

func (l *Launcher) contextOptions() []chromedp.ContextOption {
	sugar := l.logger.Sugar()
	opts := []chromedp.ContextOption{
		chromedp.WithLogf(sugar.Debugf),
		chromedp.WithErrorf(sugar.Debugf),
	}
	if l.cfg.Debug {
		opts = append(opts, chromedp.WithDebugf(sugar.Debugf))
	}
	return opts
}

// AllocatorOptions translates browser settings into chromedp exec allocator
// options.
func AllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts, chromedp.Flag("headless", cfg.Headless))
	if cfg.Headless {
		opts = append(opts, chromedp.DisableGPU)
	}
	if cfg.WindowWidth > 0 && cfg.WindowHeight > 0 {
		opts = append(opts, chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	// Containers rarely allow the sandbox or a large /dev/shm.
	if runtime.GOOS == "linux" {
		opts = append(opts,
			chromedp.NoSandbox,
			chromedp.Flag("disable-dev-shm-usage", true),
		)
	}

	for _, arg := range cfg.Args {
		name, value := ParseFlag(arg)
		if name == "" {
			continue
		}
		opts = append(opts, chromedp.Flag(name, value))
	}
	return opts
}

// ParseFlag splits a command-line switch such as "--lang=en-US" or
// "mute-audio" into the name and value chromedp.Flag expects. Switches
// without a value are boolean.
func ParseFlag(arg string) (string, any) {
	key, value, found := strings.Cut(strings.TrimSpace(arg), "=")
	key = strings.TrimLeft(key, "-")
	if !found {
		return key, true
	}
	return key, value
}
