// cmd/session.go
package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webdriver-keywords/internal/browser"
	"github.com/xkilldash9x/webdriver-keywords/internal/config"
	"github.com/xkilldash9x/webdriver-keywords/internal/keywords"
)

// closeTimeout bounds browser shutdown once a command is done, even when its
// own context was canceled by a signal.
const closeTimeout = 15 * time.Second

var (
	passColor  = color.New(color.FgGreen)
	failColor  = color.New(color.FgRed)
	valueColor = color.New(color.FgCyan)
)

// newLauncher can be replaced in tests to run commands against a fake
// browser.
var newLauncher = func(cfg config.BrowserConfig, logger *zap.Logger) keywords.Launcher {
	return browser.NewLauncher(cfg, logger)
}

// newLibrary builds a keyword library from the loaded configuration.
func newLibrary(cfg config.Interface, logger *zap.Logger) *keywords.Library {
	w := cfg.Wait()
	return keywords.NewLibrary(newLauncher(cfg.Browser(), logger), keywords.Options{
		ElementTimeout:  w.ElementTimeout,
		WaitAfterAction: w.PostActionDelay,
		PollInterval:    w.PollInterval,
		ScreenshotDir:   cfg.Screenshot().Dir,
	}, logger)
}

// closeLibrary quits a browser the command left open.
func closeLibrary(lib *keywords.Library, logger *zap.Logger) {
	if !lib.Active() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := lib.CloseBrowser(ctx); err != nil {
		logger.Warn("Failed to close browser on exit.", zap.Error(err))
	}
}

// printPass reports a successful keyword call and its result, if any.
func printPass(w io.Writer, keyword string, args []string, output string) {
	line := keyword
	if len(args) > 0 {
		line += " " + strings.Join(args, " ")
	}
	passColor.Fprint(w, "PASS")
	fmt.Fprintf(w, "  %s", line)
	if output != "" {
		fmt.Fprint(w, " => ")
		valueColor.Fprint(w, output)
	}
	fmt.Fprintln(w)
}

// printFail reports a failed keyword call.
func printFail(w io.Writer, err error) {
	failColor.Fprint(w, "FAIL")
	fmt.Fprintf(w, "  %v\n", err)
}
