// internal/keywords/library_test.go
package keywords

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/webdriver-keywords/internal/driver"
	"github.com/xkilldash9x/webdriver-keywords/internal/driver/drivertest"
	"github.com/xkilldash9x/webdriver-keywords/internal/locator"
	"github.com/xkilldash9x/webdriver-keywords/internal/mocks"
	"github.com/xkilldash9x/webdriver-keywords/internal/wait"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testOptions(t *testing.T) Options {
	return Options{
		ElementTimeout: 150 * time.Millisecond,
		PollInterval:   10 * time.Millisecond,
		ScreenshotDir:  t.TempDir(),
	}
}

// openLibrary returns a library with an open session on fake.
func openLibrary(t *testing.T, fake *drivertest.Fake) (*Library, *mocks.MockLauncher) {
	t.Helper()
	launcher := new(mocks.MockLauncher)
	launcher.On("Launch", mock.Anything, "chrome").Return(fake, nil)
	lib := NewLibrary(launcher, testOptions(t), zaptest.NewLogger(t))
	require.NoError(t, lib.OpenBrowser(context.Background(), "chrome"))
	return lib, launcher
}

func TestLibrary_Defaults(t *testing.T) {
	lib := NewLibrary(new(mocks.MockLauncher), DefaultOptions(), nil)
	assert.Equal(t, 30*time.Second, lib.ElementTimeout())
	assert.Zero(t, lib.WaitAfterAction())
	assert.False(t, lib.Active())
}

func TestLibrary_RequiresSession(t *testing.T) {
	ctx := context.Background()
	lib := NewLibrary(new(mocks.MockLauncher), testOptions(t), zaptest.NewLogger(t))

	assert.ErrorIs(t, lib.ClickElement(ctx, "id", "x"), ErrNoSession)
	assert.ErrorIs(t, lib.NavigateToURL(ctx, "https://example.test"), ErrNoSession)
	_, err := lib.GetPageTitle(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
	assert.ErrorIs(t, lib.SwitchToNextWindow(ctx), ErrNoSession)
	assert.ErrorIs(t, lib.CloseBrowser(ctx), ErrNoSession)
}

func TestOpenBrowser_LoadsBlankPage(t *testing.T) {
	fake := drivertest.New()
	lib, launcher := openLibrary(t, fake)

	assert.True(t, lib.Active())
	want := []drivertest.Action{{Name: "Navigate", Args: []string{"about:blank"}}}
	if diff := cmp.Diff(want, fake.Actions()); diff != "" {
		t.Errorf("actions mismatch (-want +got):\n%s", diff)
	}
	launcher.AssertExpectations(t)
}

func TestOpenBrowser_ReplacesSession(t *testing.T) {
	ctx := context.Background()
	first, second := drivertest.New(), drivertest.New()
	launcher := new(mocks.MockLauncher)
	launcher.On("Launch", mock.Anything, "chrome").Return(first, nil).Once()
	launcher.On("Launch", mock.Anything, "firefox").Return(second, nil).Once()
	lib := NewLibrary(launcher, testOptions(t), zaptest.NewLogger(t))

	require.NoError(t, lib.OpenBrowser(ctx, "chrome"))
	require.NoError(t, lib.OpenBrowser(ctx, "firefox"))

	assert.True(t, first.Closed(), "previous session is closed")
	assert.False(t, second.Closed())
	require.NoError(t, lib.NavigateToURL(ctx, "https://example.test/"))
	assert.Equal(t, 1, first.Calls("Navigate"))
	assert.Equal(t, 2, second.Calls("Navigate"))
	launcher.AssertExpectations(t)
}

func TestOpenBrowser_LaunchFailure(t *testing.T) {
	launcher := new(mocks.MockLauncher)
	launcher.On("Launch", mock.Anything, "chrome").Return(nil, errors.New("chrome not found"))
	lib := NewLibrary(launcher, testOptions(t), zaptest.NewLogger(t))

	err := lib.OpenBrowser(context.Background(), "chrome")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chrome not found")
	assert.False(t, lib.Active())
}

func TestCloseBrowser_InvalidatesSession(t *testing.T) {
	ctx := context.Background()
	fake := drivertest.New()
	lib, _ := openLibrary(t, fake)

	require.NoError(t, lib.CloseBrowser(ctx))
	assert.True(t, fake.Closed())
	assert.False(t, lib.Active())
	assert.ErrorIs(t, lib.ClearBrowserData(ctx), ErrNoSession)
}

func TestSettings(t *testing.T) {
	lib := NewLibrary(new(mocks.MockLauncher), DefaultOptions(), nil)

	require.NoError(t, lib.SetFindElementTimeout(5))
	assert.Equal(t, 5*time.Second, lib.ElementTimeout())
	require.NoError(t, lib.SetWaitAfterAction(0))
	assert.ErrorIs(t, lib.SetFindElementTimeout(-1), ErrInvalidArgument)
	assert.ErrorIs(t, lib.SetWaitAfterAction(-3), ErrInvalidArgument)
	assert.Equal(t, 5*time.Second, lib.ElementTimeout())
}

func TestWaitAfterAction_DelaysLookups(t *testing.T) {
	fake := drivertest.New(&drivertest.Window{Handle: "main", Title: "Slow"})
	launcher := new(mocks.MockLauncher)
	launcher.On("Launch", mock.Anything, "chrome").Return(fake, nil)
	opts := testOptions(t)
	opts.WaitAfterAction = 40 * time.Millisecond
	lib := NewLibrary(launcher, opts, zaptest.NewLogger(t))
	require.NoError(t, lib.OpenBrowser(context.Background(), "chrome"))

	start := time.Now()
	title, err := lib.GetPageTitle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Slow", title)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestClickElement_WaitsForClickable(t *testing.T) {
	fake := drivertest.New()
	lib, _ := openLibrary(t, fake)
	loc := locator.New(locator.ID, "save")
	fake.Put("main", loc, &drivertest.Node{AbsentFor: 2})

	require.NoError(t, lib.ClickElement(context.Background(), "id", "save"))
	actions := fake.Actions()
	require.NotEmpty(t, actions)
	assert.Equal(t, drivertest.Action{Name: "Click", Target: "By.id: save"}, actions[len(actions)-1])
	assert.Equal(t, 3, fake.Calls("FindElement"))
}

func TestClickElement_DisabledTimesOut(t *testing.T) {
	fake := drivertest.New()
	lib, _ := openLibrary(t, fake)
	fake.Put("main", locator.New(locator.Name, "submit"), &drivertest.Node{Disabled: true})

	err := lib.ClickElement(context.Background(), "name", "submit")
	assert.ErrorIs(t, err, wait.ErrTimeout)
	assert.Zero(t, fake.Calls("Click"))
}

func TestUnknownStrategy_FailsWithoutPolling(t *testing.T) {
	fake := drivertest.New()
	lib, _ := openLibrary(t, fake)

	err := lib.ClickElement(context.Background(), "css", "#save")
	assert.ErrorIs(t, err, locator.ErrUnknownStrategy)
	assert.Zero(t, fake.Calls("FindElement"))
}

func TestWriteTextToField(t *testing.T) {
	fake := drivertest.New()
	lib, _ := openLibrary(t, fake)
	node := &drivertest.Node{Value: "old"}
	fake.Put("main", locator.New(locator.XPath, "//input[@name='q']"), node)

	require.NoError(t, lib.WriteTextToField(context.Background(), "xpath", "//input[@name='q']", "golang"))
	assert.Equal(t, "golang", node.Value)
}

func TestSelectDropdownItem(t *testing.T) {
	ctx := context.Background()
	fake := drivertest.New()
	lib, _ := openLibrary(t, fake)
	node := &drivertest.Node{Options: []string{"Red", "Green"}}
	fake.Put("main", locator.New(locator.ID, "color"), node)

	require.NoError(t, lib.SelectDropdownItem(ctx, "id", "color", "Green"))
	assert.Equal(t, "Green", node.Selection)
	assert.ErrorIs(t, lib.SelectDropdownItem(ctx, "id", "color", "Blue"), driver.ErrNoSuchElement)
}

func TestCheckboxes(t *testing.T) {
	ctx := context.Background()
	fake := drivertest.New()
	lib, _ := openLibrary(t, fake)
	node := &drivertest.Node{}
	fake.Put("main", locator.New(locator.ID, "terms"), node)

	require.NoError(t, lib.SelectCheckbox(ctx, "id", "terms"))
	assert.True(t, node.Selected)
	require.NoError(t, lib.SelectCheckbox(ctx, "id", "terms"))
	assert.True(t, node.Selected, "already ticked boxes are left alone")
	assert.Equal(t, 1, fake.Calls("Click"))

	require.NoError(t, lib.UnselectCheckbox(ctx, "id", "terms"))
	assert.False(t, node.Selected)
	require.NoError(t, lib.UnselectCheckbox(ctx, "id", "terms"))
	assert.Equal(t, 2, fake.Calls("Click"))
}

func TestGetTextOfElement(t *testing.T) {
	fake := drivertest.New()
	lib, _ := openLibrary(t, fake)
	fake.Put("main", locator.New(locator.TagName, "h1"), &drivertest.Node{Text: "Hello\nWorld", Hidden: true})

	text, err := lib.GetTextOfElement(context.Background(), "tagName", "h1")
	require.NoError(t, err)
	assert.Equal(t, "Hello World", text, "presence is enough, visibility is not required")
}

func TestElementExistence(t *testing.T) {
	ctx := context.Background()
	fake := drivertest.New()
	lib, _ := openLibrary(t, fake)
	fake.Put("main", locator.New(locator.ID, "banner"), &drivertest.Node{})
	fake.Put("main", locator.New(locator.ID, "spinner"), &drivertest.Node{PresentFor: 2})

	require.NoError(t, lib.ElementExists(ctx, "id", "banner"))
	assert.ErrorIs(t, lib.ElementExists(ctx, "id", "missing"), wait.ErrTimeout)

	require.NoError(t, lib.ElementDoesNotExist(ctx, "id", "missing"))
	require.NoError(t, lib.ElementDoesNotExist(ctx, "id", "spinner"))
	assert.ErrorIs(t, lib.ElementDoesNotExist(ctx, "id", "banner"), wait.ErrTimeout)
}

func TestElementTextKeywords(t *testing.T) {
	ctx := context.Background()
	fake := drivertest.New()
	lib, _ := openLibrary(t, fake)
	fake.Put("main", locator.New(locator.ID, "status"), &drivertest.Node{Text: "xx abc yy"})

	require.NoError(t, lib.ElementTextContains(ctx, "id", "status", "abc"))
	require.NoError(t, lib.ElementTextEquals(ctx, "id", "status", "xx abc yy"))
	require.NoError(t, lib.ElementTextNotContains(ctx, "id", "status", "zzz"))
	require.NoError(t, lib.ElementTextNotEquals(ctx, "id", "status", "abc"))

	err := lib.ElementTextEquals(ctx, "id", "status", "abc")
	var te *wait.TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "text ('abc') to equal the text of element found by By.id: status, which had text ('xx abc yy')", te.Description)

	assert.ErrorIs(t, lib.ElementTextNotContains(ctx, "id", "status", "abc"), wait.ErrTimeout)
}

func TestPopups(t *testing.T) {
	ctx := context.Background()
	fake := drivertest.New()
	lib, _ := openLibrary(t, fake)

	fake.OpenAlert(driver.Alert{Type: "confirm", Message: "Delete?"}, 2)
	require.NoError(t, lib.ClickPopupCancel(ctx))
	fake.OpenAlert(driver.Alert{Type: "alert", Message: "Deleted"}, 0)
	require.NoError(t, lib.ClickPopupOk(ctx))

	actions := fake.Actions()
	want := []drivertest.Action{
		{Name: "DismissAlert", Args: []string{"Delete?"}},
		{Name: "AcceptAlert", Args: []string{"Deleted"}},
	}
	if diff := cmp.Diff(want, actions[len(actions)-2:]); diff != "" {
		t.Errorf("alert actions mismatch (-want +got):\n%s", diff)
	}
	assert.ErrorIs(t, lib.ClickPopupOk(ctx), wait.ErrTimeout)
}

func TestFrames(t *testing.T) {
	ctx := context.Background()
	fake := drivertest.New(&drivertest.Window{
		Handle: "main",
		Frames: map[string]*drivertest.Frame{"payment": {AbsentFor: 1}},
	})
	lib, _ := openLibrary(t, fake)

	require.NoError(t, lib.SwitchToFrame(ctx, "payment"))
	assert.Equal(t, "payment", fake.Frame())
	require.NoError(t, lib.SwitchToDefaultContext(ctx))
	assert.Empty(t, fake.Frame())
	assert.ErrorIs(t, lib.SwitchToFrame(ctx, "ads"), wait.ErrTimeout)
}

func TestWindowKeywords(t *testing.T) {
	ctx := context.Background()
	fake := drivertest.New(
		&drivertest.Window{Handle: "w1", Title: "Home", URL: "https://app.test/home"},
		&drivertest.Window{Handle: "w2", Title: "Dashboard - v2", URL: "https://app.test/dash"},
		&drivertest.Window{Handle: "w3", Title: "Settings", URL: "https://app.test/settings"},
	)
	lib, _ := openLibrary(t, fake)

	require.NoError(t, lib.SwitchToWindowWithTitle(ctx, "Dashboard"))
	assert.Equal(t, driver.WindowHandle("w2"), fake.Focused())

	require.NoError(t, lib.SwitchToWindowWithURL(ctx, "/settings"))
	assert.Equal(t, driver.WindowHandle("w3"), fake.Focused())

	require.NoError(t, lib.SwitchToNextWindow(ctx))
	assert.Equal(t, driver.WindowHandle("w1"), fake.Focused())

	assert.ErrorIs(t, lib.SwitchToWindowWithTitle(ctx, "Profile"), wait.ErrTimeout)
	assert.Equal(t, driver.WindowHandle("w1"), fake.Focused())
}

func TestMouseKeywords(t *testing.T) {
	ctx := context.Background()
	fake := drivertest.New()
	lib, _ := openLibrary(t, fake)
	fake.Put("main", locator.New(locator.ID, "a"), &drivertest.Node{})
	fake.Put("main", locator.New(locator.ID, "b"), &drivertest.Node{})

	require.NoError(t, lib.DragAndDrop(ctx, "id", "a", "id", "b"))
	require.NoError(t, lib.DragAndDropBy(ctx, "id", "a", 10, -5))
	require.NoError(t, lib.MouseDownOnElement(ctx, "id", "a"))
	require.NoError(t, lib.MouseUpOnElement(ctx, "id", "a"))
	require.NoError(t, lib.HoverOnElement(ctx, "id", "b"))
	require.NoError(t, lib.DoubleClickOnElement(ctx, "id", "b"))
	require.NoError(t, lib.RightClickOnElement(ctx, "id", "b"))
	require.NoError(t, lib.ClickOffsetOnElement(ctx, "id", "a", 3, 4))

	want := []drivertest.Action{
		{Name: "DragAndDrop", Target: "By.id: a", Args: []string{"By.id: b"}},
		{Name: "DragAndDropBy", Target: "By.id: a", Args: []string{"10", "-5"}},
		{Name: "MouseDown", Target: "By.id: a"},
		{Name: "MouseUp", Target: "By.id: a"},
		{Name: "Hover", Target: "By.id: b"},
		{Name: "DoubleClick", Target: "By.id: b"},
		{Name: "RightClick", Target: "By.id: b"},
		{Name: "ClickOffset", Target: "By.id: a", Args: []string{"3", "4"}},
	}
	if diff := cmp.Diff(want, fake.Actions()[1:]); diff != "" {
		t.Errorf("mouse actions mismatch (-want +got):\n%s", diff)
	}
}

func TestBrowserKeywords(t *testing.T) {
	ctx := context.Background()
	fake := drivertest.New(&drivertest.Window{
		Handle:  "main",
		Title:   "Example",
		Scripts: map[string]string{"return 1 + 1;": "2"},
	})
	fake.SetPosition(driver.Point{X: 12, Y: 34})
	lib, _ := openLibrary(t, fake)

	require.NoError(t, lib.NavigateToURL(ctx, "https://example.test/"))
	require.NoError(t, lib.ClearBrowserData(ctx))
	require.NoError(t, lib.SetBrowserWindowSize(ctx, 1024, 768))
	w, h := fake.Size()
	assert.Equal(t, 1024, w)
	assert.Equal(t, 768, h)
	assert.ErrorIs(t, lib.SetBrowserWindowSize(ctx, 0, 768), ErrInvalidArgument)

	loc, err := lib.GetBrowserWindowLocation(ctx)
	require.NoError(t, err)
	assert.Equal(t, "(12, 34)", loc)

	title, err := lib.GetPageTitle(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Example", title)

	out, err := lib.ExecuteJavascript(ctx, "return 1 + 1;")
	require.NoError(t, err)
	assert.Equal(t, "2", out)
}

func TestGetPageScreenshot(t *testing.T) {
	fake := drivertest.New()
	lib, _ := openLibrary(t, fake)
	dir := filepath.Join(lib.screenshotDir, "nested")
	lib.screenshotDir = dir
	lib.now = func() time.Time { return time.Date(2026, time.October, 19, 14, 30, 5, 0, time.UTC) }

	path, err := lib.GetPageScreenshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "1019143005.png"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, drivertest.PNG, data)
}

func TestSessionDeath_IsFatal(t *testing.T) {
	fake := drivertest.New()
	lib, _ := openLibrary(t, fake)
	require.NoError(t, lib.SetFindElementTimeout(10))
	fake.Kill()

	start := time.Now()
	err := lib.ElementExists(context.Background(), "id", "anything")
	var fe *wait.FatalError
	require.ErrorAs(t, err, &fe)
	assert.ErrorIs(t, err, driver.ErrSessionClosed)
	assert.Less(t, time.Since(start), time.Second)
}
