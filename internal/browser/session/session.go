// internal/browser/session/session.go
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webdriver-keywords/internal/driver"
)

// DefaultOperationTimeout bounds a single DevTools round trip.
const DefaultOperationTimeout = 10 * time.Second

// objectGroup holds the remote element references a session hands out, so
// they can be released together on navigation.
const objectGroup = "wdk-elements"

// tab is an attached page target.
type tab struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// Session is a chromedp-backed browser session implementing driver.Browser.
// Windows are page targets; the handle of a window is its target ID. Element
// references are remote object IDs in the window's main world, which is why
// elements inside same-origin frames stay addressable after switching back.
type Session struct {
	id        string
	ctx       context.Context
	cancel    context.CancelFunc
	logger    *zap.Logger
	opTimeout time.Duration

	mu      sync.Mutex
	tabs    map[driver.WindowHandle]*tab
	order   []driver.WindowHandle
	current driver.WindowHandle
	frames  []string
	dialogs map[driver.WindowHandle]*page.EventJavascriptDialogOpening
	closed  bool

	// waiters are in-flight commands per window, interrupted when a dialog
	// opens there because the browser holds their replies until it closes.
	waiters    map[driver.WindowHandle]map[uint64]context.CancelFunc
	nextWaiter uint64
}

var (
	_ driver.Browser = (*Session)(nil)
	_ ActionExecutor = (*Session)(nil)
)

// New wraps an allocated chromedp context. ctx must already be attached to
// its first page (see Attach); cancel releases the browser and its allocator
// and is called by Quit.
func New(ctx context.Context, cancel context.CancelFunc, logger *zap.Logger, opTimeout time.Duration) (*Session, error) {
	c := chromedp.FromContext(ctx)
	if c == nil || c.Target == nil {
		return nil, fmt.Errorf("%w: no attached page target", chromedp.ErrInvalidContext)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opTimeout <= 0 {
		opTimeout = DefaultOperationTimeout
	}

	id := uuid.New().String()
	h := driver.WindowHandle(c.Target.TargetID)
	s := &Session{
		id:        id,
		ctx:       ctx,
		cancel:    cancel,
		logger:    logger.With(zap.String("session_id", id)),
		opTimeout: opTimeout,
		tabs:      map[driver.WindowHandle]*tab{h: {ctx: ctx, cancel: func() {}}},
		order:     []driver.WindowHandle{h},
		current:   h,
		dialogs:   make(map[driver.WindowHandle]*page.EventJavascriptDialogOpening),
		waiters:   make(map[driver.WindowHandle]map[uint64]context.CancelFunc),
	}
	s.listen(h, ctx)
	return s, nil
}

// Attach performs the first chromedp.Run on ctx, which launches the browser
// or attaches the target. chromedp ties the browser and target lifetime to
// the context of that first Run, so ctx must come straight from
// chromedp.NewContext; parent and timeout only bound how long we wait.
func Attach(parent, ctx context.Context, timeout time.Duration) error {
	done := make(chan error, 1)
	go func() { done <- chromedp.Run(ctx) }()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case err := <-done:
		return err
	case <-parent.Done():
		return parent.Err()
	case <-timer.C:
		return fmt.Errorf("%w: attaching after %s", ErrOperationTimeout, timeout)
	}
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// listen tracks dialogs for the window h.
func (s *Session) listen(h driver.WindowHandle, ctx context.Context) {
	chromedp.ListenTarget(ctx, func(ev interface{}) {
		switch ev := ev.(type) {
		case *page.EventJavascriptDialogOpening:
			s.mu.Lock()
			s.dialogs[h] = ev
			for _, interrupt := range s.waiters[h] {
				interrupt()
			}
			s.mu.Unlock()
			s.logger.Debug("Dialog opened.", zap.String("window", string(h)), zap.String("type", string(ev.Type)))
		case *page.EventJavascriptDialogClosed:
			s.mu.Lock()
			delete(s.dialogs, h)
			s.mu.Unlock()
		}
	})
}

// focused returns the current window and frame path.
func (s *Session) focused() (driver.WindowHandle, *tab, []string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", nil, nil, driver.ErrSessionClosed
	}
	t, ok := s.tabs[s.current]
	if !ok {
		return "", nil, nil, fmt.Errorf("%w: %s", driver.ErrNoSuchWindow, s.current)
	}
	return s.current, t, append([]string(nil), s.frames...), nil
}

// RunActions runs actions in the focused window. An action that makes the
// page open a dialog, such as a click on a button calling confirm(), has done
// its job and reports success.
func (s *Session) RunActions(ctx context.Context, actions ...chromedp.Action) error {
	err := s.run(ctx, actions...)
	if errors.Is(err, errDialogOpened) {
		s.logger.Debug("Dialog opened by action.")
		return nil
	}
	return err
}

// run runs actions in the focused window.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	h, t, _, err := s.focused()
	if err != nil {
		return err
	}
	return s.runOn(ctx, h, t, actions...)
}

// runOn runs actions against the window h, bounded by ctx and the operation
// timeout.
func (s *Session) runOn(ctx context.Context, h driver.WindowHandle, t *tab, actions ...chromedp.Action) error {
	ictx, interrupt := context.WithCancel(ctx)
	defer interrupt()
	key := s.addWaiter(h, interrupt)
	defer s.removeWaiter(h, key)

	runCtx, cancel := CombineContext(t.ctx, ictx)
	defer cancel()
	opCtx, opCancel := context.WithTimeout(runCtx, s.opTimeout)
	defer opCancel()

	err := chromedp.Run(opCtx, actions...)
	if err == nil {
		return nil
	}
	switch {
	case ctx.Err() != nil:
		return ctx.Err()
	case ictx.Err() != nil:
		return errDialogOpened
	case s.ctx.Err() != nil:
		return fmt.Errorf("%w: %v", driver.ErrSessionClosed, err)
	case t.ctx.Err() != nil:
		return fmt.Errorf("%w: %v", driver.ErrNoSuchWindow, err)
	case errors.Is(opCtx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w after %s", ErrOperationTimeout, s.opTimeout)
	}
	return classifyMessage(err)
}

func (s *Session) addWaiter(h driver.WindowHandle, interrupt context.CancelFunc) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextWaiter++
	if s.waiters[h] == nil {
		s.waiters[h] = make(map[uint64]context.CancelFunc)
	}
	s.waiters[h][s.nextWaiter] = interrupt
	return s.nextWaiter
}

func (s *Session) removeWaiter(h driver.WindowHandle, key uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.waiters[h], key)
	if len(s.waiters[h]) == 0 {
		delete(s.waiters, h)
	}
}

// checkDialog fails page queries while a dialog blocks the window.
func (s *Session) checkDialog(h driver.WindowHandle) error {
	s.mu.Lock()
	ev := s.dialogs[h]
	s.mu.Unlock()
	if ev != nil {
		return fmt.Errorf("%w: %s %q", ErrUnexpectedAlert, ev.Type, ev.Message)
	}
	return nil
}

// evaluate runs expr in the focused window's main world.
func (s *Session) evaluate(ctx context.Context, expr string, byValue bool) (*runtime.RemoteObject, error) {
	h, t, _, err := s.focused()
	if err != nil {
		return nil, err
	}
	if err := s.checkDialog(h); err != nil {
		return nil, err
	}

	var res *runtime.RemoteObject
	err = s.runOn(ctx, h, t, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, exc, err := runtime.Evaluate(expr).
			WithReturnByValue(byValue).
			WithAwaitPromise(true).
			WithObjectGroup(objectGroup).
			Do(ctx)
		if err != nil {
			return err
		}
		if exc != nil {
			return exc
		}
		res = obj
		return nil
	}))
	return res, err
}

// callOn calls fn with this bound to el and returns its result by value.
func (s *Session) callOn(ctx context.Context, el driver.Element, fn string) (*runtime.RemoteObject, error) {
	if el.ID == "" {
		return nil, fmt.Errorf("%w: empty element reference", driver.ErrStaleElement)
	}
	h, t, _, err := s.focused()
	if err != nil {
		return nil, err
	}
	if err := s.checkDialog(h); err != nil {
		return nil, err
	}

	var res *runtime.RemoteObject
	err = s.runOn(ctx, h, t, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, exc, err := runtime.CallFunctionOn(fn).
			WithObjectID(runtime.RemoteObjectID(el.ID)).
			WithReturnByValue(true).
			Do(ctx)
		if err != nil {
			return err
		}
		if exc != nil {
			return exc
		}
		res = obj
		return nil
	}))
	return res, err
}

// decode unmarshals a by-value result into v.
func decode(obj *runtime.RemoteObject, v any) error {
	if obj == nil || len(obj.Value) == 0 {
		return errors.New("script returned no value")
	}
	if err := json.Unmarshal([]byte(obj.Value), v); err != nil {
		return fmt.Errorf("failed to decode script result: %w", err)
	}
	return nil
}

func (s *Session) callBool(ctx context.Context, el driver.Element, fn string) (bool, error) {
	obj, err := s.callOn(ctx, el, fn)
	if err != nil {
		return false, err
	}
	var b bool
	return b, decode(obj, &b)
}

func (s *Session) callString(ctx context.Context, el driver.Element, fn string) (string, error) {
	obj, err := s.callOn(ctx, el, fn)
	if err != nil {
		return "", err
	}
	var str string
	return str, decode(obj, &str)
}

// Quit closes the browser. The session is unusable afterwards even when the
// browser does not shut down cleanly.
func (s *Session) Quit(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	tabs := s.tabs
	s.tabs = map[driver.WindowHandle]*tab{}
	s.mu.Unlock()

	for _, t := range tabs {
		t.cancel()
	}

	done := make(chan error, 1)
	go func() { done <- chromedp.Cancel(s.ctx) }()
	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	s.cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("Browser did not shut down cleanly.", zap.Error(err))
		return fmt.Errorf("failed to close browser: %w", err)
	}
	s.logger.Debug("Browser closed.")
	return nil
}

// Closed reports whether Quit has been called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
