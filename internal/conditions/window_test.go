// internal/conditions/window_test.go
package conditions

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/webdriver-keywords/internal/driver"
	"github.com/xkilldash9x/webdriver-keywords/internal/driver/drivertest"
	"github.com/xkilldash9x/webdriver-keywords/internal/wait"
)

func threeWindows(titles ...string) *drivertest.Fake {
	handles := []driver.WindowHandle{"w1", "w2", "w3"}
	windows := make([]*drivertest.Window, len(titles))
	for i, title := range titles {
		windows[i] = &drivertest.Window{Handle: handles[i], Title: title, URL: "https://app.test/" + string(handles[i])}
	}
	return drivertest.New(windows...)
}

func TestWindow_MatchByTitle(t *testing.T) {
	f := threeWindows("Home", "Dashboard - v2", "Settings")
	search := WindowSearch{ProbeScript: TitleProbe, Target: "Dashboard", Mode: MatchByProbeResult}

	h, err := wait.Until(context.Background(), f, Window(search), fastConfig(t))
	require.NoError(t, err)
	assert.Equal(t, driver.WindowHandle("w2"), h)
	assert.Equal(t, driver.WindowHandle("w2"), f.Focused(), "focus stays on the match")
}

func TestWindow_NoMatchRestoresOrigin(t *testing.T) {
	ctx := context.Background()
	f := threeWindows("Home", "Settings", "Profile")
	require.NoError(t, f.SwitchToWindow(ctx, "w3"))
	search := WindowSearch{ProbeScript: TitleProbe, Target: "Dashboard", Mode: MatchByProbeResult}

	_, err := wait.Until(ctx, f, Window(search), fastConfig(t))
	var te *wait.TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "window containing ('Dashboard') to be present found by return window.document.title;", te.Description)
	assert.Equal(t, driver.WindowHandle("w3"), f.Focused())
	assert.Greater(t, te.Attempts, 1)
}

func TestWindow_MatchByURL(t *testing.T) {
	f := threeWindows("Home", "Settings", "Profile")
	search := WindowSearch{ProbeScript: URLProbe, Target: "/w3", Mode: MatchByProbeResult}

	h, err := wait.Until(context.Background(), f, Window(search), fastConfig(t))
	require.NoError(t, err)
	assert.Equal(t, driver.WindowHandle("w3"), h)
}

func TestWindow_WindowOpensLater(t *testing.T) {
	f := threeWindows("Home")
	search := WindowSearch{ProbeScript: TitleProbe, Target: "Report", Mode: MatchByProbeResult}

	var polls int
	cond := Window(search)
	opener := wait.New(cond.Describe, func(ctx context.Context, drv driver.Driver, obs *wait.Observation) (driver.WindowHandle, bool, error) {
		polls++
		if polls == 3 {
			f.AddWindow(&drivertest.Window{Handle: "popup", Title: "Report 2024"})
		}
		return cond.Evaluate(ctx, drv, obs)
	})

	h, err := wait.Until(context.Background(), f, opener, fastConfig(t))
	require.NoError(t, err)
	assert.Equal(t, driver.WindowHandle("popup"), h)
	assert.Equal(t, 3, polls)
}

func TestWindow_ProbeErrorSkipsHandle(t *testing.T) {
	f := drivertest.New(
		&drivertest.Window{Handle: "w1", Title: "Home"},
		&drivertest.Window{Handle: "w2", Title: "Dashboard", ScriptErr: errors.New("execution context was destroyed")},
		&drivertest.Window{Handle: "w3", Title: "Dashboard copy"},
	)
	search := WindowSearch{ProbeScript: TitleProbe, Target: "Dashboard", Mode: MatchByProbeResult}

	h, err := wait.Until(context.Background(), f, Window(search), fastConfig(t))
	require.NoError(t, err)
	assert.Equal(t, driver.WindowHandle("w3"), h)
}

func TestWindow_ClosedBetweenEnumerationAndSwitch(t *testing.T) {
	ctx := context.Background()
	f := drivertest.New(
		&drivertest.Window{Handle: "w1", Title: "Home"},
		&drivertest.Window{Handle: "w2", Title: "Dashboard", SwitchErr: driver.ErrNoSuchWindow},
	)
	search := WindowSearch{ProbeScript: TitleProbe, Target: "Dashboard", Mode: MatchByProbeResult}

	_, err := wait.Until(ctx, f, Window(search), fastConfig(t))
	var te *wait.TimeoutError
	require.ErrorAs(t, err, &te)
	assert.ErrorIs(t, te.LastErr, driver.ErrNoSuchWindow)
	assert.Equal(t, driver.WindowHandle("w1"), f.Focused())
}

func TestWindow_MatchNext(t *testing.T) {
	ctx := context.Background()
	next := WindowSearch{Mode: MatchNext}

	two := threeWindows("Home", "Popup")
	h, err := wait.Until(ctx, two, Window(next), fastConfig(t))
	require.NoError(t, err)
	assert.Equal(t, driver.WindowHandle("w2"), h)
	assert.Equal(t, driver.WindowHandle("w2"), two.Focused())

	// With more than two windows the first non-origin handle in enumeration
	// order wins.
	three := threeWindows("A", "B", "C")
	require.NoError(t, three.SwitchToWindow(ctx, "w2"))
	h, err = wait.Until(ctx, three, Window(next), fastConfig(t))
	require.NoError(t, err)
	assert.Equal(t, driver.WindowHandle("w1"), h)

	one := threeWindows("Alone")
	_, err = wait.Until(ctx, one, Window(next), fastConfig(t))
	var te *wait.TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "another window to be present", te.Description)
	assert.Equal(t, driver.WindowHandle("w1"), one.Focused())
}

func TestWindow_SessionClosedIsFatal(t *testing.T) {
	f := threeWindows("Home", "Dashboard")
	f.Kill()
	search := WindowSearch{ProbeScript: TitleProbe, Target: "Dashboard", Mode: MatchByProbeResult}

	_, err := wait.Until(context.Background(), f, Window(search), fastConfig(t))
	var fe *wait.FatalError
	require.ErrorAs(t, err, &fe)
	assert.ErrorIs(t, err, driver.ErrSessionClosed)
}
