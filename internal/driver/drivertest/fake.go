// internal/driver/drivertest/fake.go
package drivertest

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/xkilldash9x/webdriver-keywords/internal/driver"
	"github.com/xkilldash9x/webdriver-keywords/internal/locator"
)

// PNG is the payload Screenshot returns.
var PNG = []byte("\x89PNG\r\n\x1a\nfake")

// Node is a scripted element. Counters are consumed by the fake as the page is
// polled, so a Node describes how the element behaves over time.
type Node struct {
	Text string
	// Texts, when set, is returned by successive Text reads; the last entry
	// repeats once the sequence is exhausted.
	Texts     []string
	Hidden    bool
	Disabled  bool
	Selected  bool
	Value     string
	Options   []string
	Selection string

	// StaleReads is the number of reads that fail with ErrStaleElement before
	// the node answers normally.
	StaleReads int
	// AbsentFor is the number of lookups that report the element missing
	// before it appears.
	AbsentFor int
	// PresentFor, when positive, removes the element after that many
	// successful lookups. Element references obtained earlier become stale.
	PresentFor int

	lookups int
	reads   int
	removed bool
}

// Frame is a child browsing context reachable by id or name.
type Frame struct {
	AbsentFor int
	Elements  map[locator.Locator]*Node

	attempts int
}

// Window is a scripted top-level window.
type Window struct {
	Handle driver.WindowHandle
	Title  string
	URL    string
	// Scripts maps a script body to its result. Scripts reading
	// document.title or document.URL are answered from Title and URL.
	Scripts   map[string]string
	ScriptErr error
	// SwitchErr makes SwitchToWindow fail for this window, as when it closes
	// between enumeration and focus.
	SwitchErr error
	Elements  map[locator.Locator]*Node
	Frames    map[string]*Frame
}

// Action is one side-effecting call recorded by the fake.
type Action struct {
	Name   string
	Target string
	Args   []string
}

type elementRef struct {
	node *Node
	loc  locator.Locator
}

// Fake is an in-memory driver.Browser. It is safe for concurrent use.
type Fake struct {
	mu sync.Mutex

	id       string
	windows  []*Window
	current  driver.WindowHandle
	frame    string
	closed   bool
	position driver.Point
	size     [2]int

	alert          *driver.Alert
	pendingAlert   *driver.Alert
	alertCountdown int

	nextID   int
	elements map[string]elementRef
	actions  []Action
	calls    map[string]int
}

var _ driver.Browser = (*Fake)(nil)

// New returns a fake focused on the first window. With no windows it creates
// a single blank one.
func New(windows ...*Window) *Fake {
	if len(windows) == 0 {
		windows = []*Window{{Handle: "main", URL: "about:blank"}}
	}
	f := &Fake{
		id:       "fake-session",
		elements: make(map[string]elementRef),
		calls:    make(map[string]int),
	}
	for _, w := range windows {
		f.addWindow(w)
	}
	f.current = windows[0].Handle
	return f
}

func (f *Fake) addWindow(w *Window) {
	if w.Elements == nil {
		w.Elements = make(map[locator.Locator]*Node)
	}
	if w.Frames == nil {
		w.Frames = make(map[string]*Frame)
	}
	f.windows = append(f.windows, w)
}

// AddWindow opens another window without moving focus.
func (f *Fake) AddWindow(w *Window) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addWindow(w)
}

// CloseWindow removes a window from the enumeration.
func (f *Fake) CloseWindow(h driver.WindowHandle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, w := range f.windows {
		if w.Handle == h {
			f.windows = append(f.windows[:i], f.windows[i+1:]...)
			return
		}
	}
}

// Put registers a node in the given window's top-level document.
func (f *Fake) Put(h driver.WindowHandle, loc locator.Locator, n *Node) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w := f.window(h)
	if w == nil {
		panic(fmt.Sprintf("drivertest: unknown window %q", h))
	}
	w.Elements[loc] = n
}

// Remove detaches the node at loc; earlier references to it become stale.
func (f *Fake) Remove(h driver.WindowHandle, loc locator.Locator) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w := f.window(h); w != nil {
		if n, ok := w.Elements[loc]; ok {
			n.removed = true
			delete(w.Elements, loc)
		}
	}
}

// OpenAlert makes a dialog appear after the given number of Alert polls.
func (f *Fake) OpenAlert(a driver.Alert, after int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if after <= 0 {
		f.alert = &a
		return
	}
	f.pendingAlert = &a
	f.alertCountdown = after
}

// Kill simulates the browser process dying: every later call fails with
// ErrSessionClosed.
func (f *Fake) Kill() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

// SetPosition sets the value WindowPosition reports.
func (f *Fake) SetPosition(p driver.Point) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.position = p
}

// Focused returns the focused window handle without counting as a driver call.
func (f *Fake) Focused() driver.WindowHandle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// Frame returns the current frame name; empty for the top-level document.
func (f *Fake) Frame() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frame
}

// Closed reports whether Quit or Kill was called.
func (f *Fake) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Actions returns a copy of the recorded side-effecting calls.
func (f *Fake) Actions() []Action {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Action, len(f.actions))
	copy(out, f.actions)
	return out
}

// Calls returns how many times the named Driver method was invoked.
func (f *Fake) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// Size returns the last size passed to SetWindowSize.
func (f *Fake) Size() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.size[0], f.size[1]
}

func (f *Fake) window(h driver.WindowHandle) *Window {
	for _, w := range f.windows {
		if w.Handle == h {
			return w
		}
	}
	return nil
}

// enter must be called with the lock held. It counts the call and reports a
// closed session.
func (f *Fake) enter(ctx context.Context, method string) error {
	f.calls[method]++
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.closed {
		return driver.ErrSessionClosed
	}
	return nil
}

func (f *Fake) record(name string, target string, args ...string) {
	f.actions = append(f.actions, Action{Name: name, Target: target, Args: args})
}

func (f *Fake) document() (map[locator.Locator]*Node, error) {
	w := f.window(f.current)
	if w == nil {
		return nil, driver.ErrNoSuchWindow
	}
	if f.frame == "" {
		return w.Elements, nil
	}
	fr, ok := w.Frames[f.frame]
	if !ok {
		return nil, driver.ErrNoSuchFrame
	}
	if fr.Elements == nil {
		fr.Elements = make(map[locator.Locator]*Node)
	}
	return fr.Elements, nil
}

// resolve returns the live node behind el, consuming a stale read if one is
// scripted.
func (f *Fake) resolve(el driver.Element) (*Node, error) {
	ref, ok := f.elements[el.ID]
	if !ok || ref.node.removed {
		return nil, driver.ErrStaleElement
	}
	if ref.node.StaleReads > 0 {
		ref.node.StaleReads--
		return nil, driver.ErrStaleElement
	}
	return ref.node, nil
}

func (f *Fake) FindElement(ctx context.Context, loc locator.Locator) (driver.Element, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(ctx, "FindElement"); err != nil {
		return driver.Element{}, err
	}
	doc, err := f.document()
	if err != nil {
		return driver.Element{}, err
	}
	n, ok := doc[loc]
	if !ok || n.removed {
		return driver.Element{}, fmt.Errorf("%w: %s", driver.ErrNoSuchElement, loc)
	}
	n.lookups++
	if n.lookups <= n.AbsentFor {
		return driver.Element{}, fmt.Errorf("%w: %s", driver.ErrNoSuchElement, loc)
	}
	if n.PresentFor > 0 && n.lookups > n.AbsentFor+n.PresentFor {
		n.removed = true
		delete(doc, loc)
		return driver.Element{}, fmt.Errorf("%w: %s", driver.ErrNoSuchElement, loc)
	}
	f.nextID++
	id := "el-" + strconv.Itoa(f.nextID)
	f.elements[id] = elementRef{node: n, loc: loc}
	return driver.Element{ID: id, Locator: loc}, nil
}

func (f *Fake) Text(ctx context.Context, el driver.Element) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(ctx, "Text"); err != nil {
		return "", err
	}
	n, err := f.resolve(el)
	if err != nil {
		return "", err
	}
	if len(n.Texts) == 0 {
		return n.Text, nil
	}
	i := n.reads
	if i >= len(n.Texts) {
		i = len(n.Texts) - 1
	}
	n.reads++
	return n.Texts[i], nil
}

func (f *Fake) IsVisible(ctx context.Context, el driver.Element) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(ctx, "IsVisible"); err != nil {
		return false, err
	}
	n, err := f.resolve(el)
	if err != nil {
		return false, err
	}
	return !n.Hidden, nil
}

func (f *Fake) IsEnabled(ctx context.Context, el driver.Element) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(ctx, "IsEnabled"); err != nil {
		return false, err
	}
	n, err := f.resolve(el)
	if err != nil {
		return false, err
	}
	return !n.Disabled, nil
}

func (f *Fake) IsSelected(ctx context.Context, el driver.Element) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(ctx, "IsSelected"); err != nil {
		return false, err
	}
	n, err := f.resolve(el)
	if err != nil {
		return false, err
	}
	return n.Selected, nil
}

func (f *Fake) WindowHandles(ctx context.Context) ([]driver.WindowHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(ctx, "WindowHandles"); err != nil {
		return nil, err
	}
	out := make([]driver.WindowHandle, 0, len(f.windows))
	for _, w := range f.windows {
		out = append(out, w.Handle)
	}
	return out, nil
}

func (f *Fake) CurrentWindowHandle(ctx context.Context) (driver.WindowHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(ctx, "CurrentWindowHandle"); err != nil {
		return "", err
	}
	return f.current, nil
}

func (f *Fake) SwitchToWindow(ctx context.Context, h driver.WindowHandle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(ctx, "SwitchToWindow"); err != nil {
		return err
	}
	w := f.window(h)
	if w == nil {
		return fmt.Errorf("%w: %s", driver.ErrNoSuchWindow, h)
	}
	if w.SwitchErr != nil {
		return w.SwitchErr
	}
	f.current = h
	f.frame = ""
	return nil
}

func (f *Fake) ExecuteScript(ctx context.Context, script string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(ctx, "ExecuteScript"); err != nil {
		return "", err
	}
	w := f.window(f.current)
	if w == nil {
		return "", driver.ErrNoSuchWindow
	}
	if w.ScriptErr != nil {
		return "", w.ScriptErr
	}
	if out, ok := w.Scripts[script]; ok {
		return out, nil
	}
	switch {
	case strings.Contains(script, "document.title"):
		return w.Title, nil
	case strings.Contains(script, "document.URL"):
		return w.URL, nil
	}
	return "", nil
}

func (f *Fake) Alert(ctx context.Context) (driver.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(ctx, "Alert"); err != nil {
		return driver.Alert{}, err
	}
	if f.alert == nil && f.pendingAlert != nil {
		f.alertCountdown--
		if f.alertCountdown <= 0 {
			f.alert, f.pendingAlert = f.pendingAlert, nil
		}
	}
	if f.alert == nil {
		return driver.Alert{}, driver.ErrNoAlert
	}
	return *f.alert, nil
}

func (f *Fake) SwitchToFrame(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(ctx, "SwitchToFrame"); err != nil {
		return err
	}
	w := f.window(f.current)
	if w == nil {
		return driver.ErrNoSuchWindow
	}
	fr, ok := w.Frames[name]
	if !ok {
		return fmt.Errorf("%w: %s", driver.ErrNoSuchFrame, name)
	}
	fr.attempts++
	if fr.attempts <= fr.AbsentFor {
		return fmt.Errorf("%w: %s", driver.ErrNoSuchFrame, name)
	}
	f.frame = name
	f.record("SwitchToFrame", name)
	return nil
}

func (f *Fake) ID() string { return f.id }

func (f *Fake) Navigate(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(ctx, "Navigate"); err != nil {
		return err
	}
	if w := f.window(f.current); w != nil {
		w.URL = url
	}
	f.frame = ""
	f.record("Navigate", "", url)
	return nil
}

func (f *Fake) Title(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(ctx, "Title"); err != nil {
		return "", err
	}
	w := f.window(f.current)
	if w == nil {
		return "", driver.ErrNoSuchWindow
	}
	return w.Title, nil
}

func (f *Fake) Quit(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(ctx, "Quit"); err != nil {
		return err
	}
	f.closed = true
	f.record("Quit", "")
	return nil
}

func (f *Fake) DeleteAllCookies(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(ctx, "DeleteAllCookies"); err != nil {
		return err
	}
	f.record("DeleteAllCookies", "")
	return nil
}

func (f *Fake) SetWindowSize(ctx context.Context, width, height int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(ctx, "SetWindowSize"); err != nil {
		return err
	}
	f.size = [2]int{width, height}
	f.record("SetWindowSize", "", strconv.Itoa(width), strconv.Itoa(height))
	return nil
}

func (f *Fake) WindowPosition(ctx context.Context) (driver.Point, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(ctx, "WindowPosition"); err != nil {
		return driver.Point{}, err
	}
	return f.position, nil
}

func (f *Fake) Screenshot(ctx context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(ctx, "Screenshot"); err != nil {
		return nil, err
	}
	f.record("Screenshot", "")
	return append([]byte(nil), PNG...), nil
}

func (f *Fake) SwitchToDefaultContent(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(ctx, "SwitchToDefaultContent"); err != nil {
		return err
	}
	f.frame = ""
	f.record("SwitchToDefaultContent", "")
	return nil
}

func (f *Fake) AcceptAlert(ctx context.Context) error {
	return f.closeAlert(ctx, "AcceptAlert")
}

func (f *Fake) DismissAlert(ctx context.Context) error {
	return f.closeAlert(ctx, "DismissAlert")
}

func (f *Fake) closeAlert(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(ctx, name); err != nil {
		return err
	}
	if f.alert == nil {
		return driver.ErrNoAlert
	}
	f.record(name, "", f.alert.Message)
	f.alert = nil
	return nil
}

// act resolves el and records an action against it.
func (f *Fake) act(ctx context.Context, name string, el driver.Element, args ...string) (*Node, error) {
	if err := f.enter(ctx, name); err != nil {
		return nil, err
	}
	n, err := f.resolve(el)
	if err != nil {
		return nil, err
	}
	f.record(name, el.Locator.String(), args...)
	return n, nil
}

func (f *Fake) Click(ctx context.Context, el driver.Element) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, err := f.act(ctx, "Click", el)
	if err != nil {
		return err
	}
	n.Selected = !n.Selected
	return nil
}

func (f *Fake) Clear(ctx context.Context, el driver.Element) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, err := f.act(ctx, "Clear", el)
	if err != nil {
		return err
	}
	n.Value = ""
	return nil
}

func (f *Fake) SendKeys(ctx context.Context, el driver.Element, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, err := f.act(ctx, "SendKeys", el, text)
	if err != nil {
		return err
	}
	n.Value += text
	return nil
}

func (f *Fake) SelectByVisibleText(ctx context.Context, el driver.Element, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(ctx, "SelectByVisibleText"); err != nil {
		return err
	}
	n, err := f.resolve(el)
	if err != nil {
		return err
	}
	for _, opt := range n.Options {
		if opt == text {
			n.Selection = text
			f.record("SelectByVisibleText", el.Locator.String(), text)
			return nil
		}
	}
	return fmt.Errorf("%w: option with text %q", driver.ErrNoSuchElement, text)
}

func (f *Fake) DragAndDrop(ctx context.Context, src, dst driver.Element) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(ctx, "DragAndDrop"); err != nil {
		return err
	}
	if _, err := f.resolve(src); err != nil {
		return err
	}
	if _, err := f.resolve(dst); err != nil {
		return err
	}
	f.record("DragAndDrop", src.Locator.String(), dst.Locator.String())
	return nil
}

func (f *Fake) DragAndDropBy(ctx context.Context, el driver.Element, dx, dy int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, err := f.act(ctx, "DragAndDropBy", el, strconv.Itoa(dx), strconv.Itoa(dy))
	return err
}

func (f *Fake) MouseDown(ctx context.Context, el driver.Element) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, err := f.act(ctx, "MouseDown", el)
	return err
}

func (f *Fake) MouseUp(ctx context.Context, el driver.Element) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, err := f.act(ctx, "MouseUp", el)
	return err
}

func (f *Fake) Hover(ctx context.Context, el driver.Element) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, err := f.act(ctx, "Hover", el)
	return err
}

func (f *Fake) DoubleClick(ctx context.Context, el driver.Element) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, err := f.act(ctx, "DoubleClick", el)
	return err
}

func (f *Fake) RightClick(ctx context.Context, el driver.Element) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, err := f.act(ctx, "RightClick", el)
	return err
}

func (f *Fake) ClickOffset(ctx context.Context, el driver.Element, dx, dy int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, err := f.act(ctx, "ClickOffset", el, strconv.Itoa(dx), strconv.Itoa(dy))
	return err
}
