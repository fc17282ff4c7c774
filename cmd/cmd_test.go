// cmd/cmd_test.go
package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webdriver-keywords/internal/config"
	"github.com/xkilldash9x/webdriver-keywords/internal/driver/drivertest"
	"github.com/xkilldash9x/webdriver-keywords/internal/keywords"
	"github.com/xkilldash9x/webdriver-keywords/internal/locator"
	"github.com/xkilldash9x/webdriver-keywords/internal/mocks"
)

// isolate runs the test in an empty directory with quiet logging, so no
// ./config.yaml or earlier environment leaks in.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("WDK_LOGGER_LEVEL", "fatal")
	color.NoColor = true
	return dir
}

// executeCommand runs a fresh command tree and returns everything it wrote.
func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	rootCmd := NewRootCommand()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// useFakeBrowser makes every launcher built by a command return fake.
func useFakeBrowser(t *testing.T, fake *drivertest.Fake) *mocks.MockLauncher {
	t.Helper()
	launcher := new(mocks.MockLauncher)
	launcher.On("Launch", mock.Anything, mock.Anything).Return(fake, nil)

	original := newLauncher
	newLauncher = func(config.BrowserConfig, *zap.Logger) keywords.Launcher { return launcher }
	t.Cleanup(func() { newLauncher = original })
	return launcher
}

// newFakeSite is a single window titled "Home" with a greeting element.
func newFakeSite() *drivertest.Fake {
	fake := drivertest.New(&drivertest.Window{Handle: "main", Title: "Home", URL: "about:blank"})
	fake.Put("main", locator.New(locator.ID, "greeting"), &drivertest.Node{Text: "Welcome Home"})
	return fake
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
