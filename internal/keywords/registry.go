// internal/keywords/registry.go
package keywords

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownKeyword is returned when no keyword matches a name.
var ErrUnknownKeyword = errors.New("unknown keyword")

// RunFunc executes a keyword with already-substituted string arguments and
// returns its result, or "" for keywords without one.
type RunFunc func(ctx context.Context, args []string) (string, error)

// Keyword describes one callable keyword.
type Keyword struct {
	Name string
	Args []string
	Doc  string
	Run  RunFunc
}

// Usage renders the keyword with its argument names.
func (k *Keyword) Usage() string {
	if len(k.Args) == 0 {
		return k.Name
	}
	return k.Name + " " + strings.Join(k.Args, " ")
}

// Registry maps keyword names to the library's operations.
type Registry struct {
	byName map[string]*Keyword
	order  []*Keyword
}

// NormalizeName folds case and drops spaces and underscores, so "Click
// Element", "click_element" and "ClickElement" name the same keyword.
func NormalizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if r == ' ' || r == '_' || r == '\t' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (r *Registry) add(k *Keyword) {
	key := NormalizeName(k.Name)
	if _, dup := r.byName[key]; dup {
		panic(fmt.Sprintf("keywords: duplicate keyword %q", k.Name))
	}
	r.byName[key] = k
	r.order = append(r.order, k)
}

// Lookup finds a keyword by (normalized) name.
func (r *Registry) Lookup(name string) (*Keyword, bool) {
	k, ok := r.byName[NormalizeName(name)]
	return k, ok
}

// Keywords returns the keywords in registration order.
func (r *Registry) Keywords() []*Keyword {
	out := make([]*Keyword, len(r.order))
	copy(out, r.order)
	return out
}

// Names returns the keyword names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	for i, k := range r.order {
		out[i] = k.Name
	}
	return out
}

// Run validates the argument count and invokes the named keyword.
func (r *Registry) Run(ctx context.Context, name string, args []string) (string, error) {
	k, ok := r.Lookup(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKeyword, name)
	}
	if len(args) != len(k.Args) {
		return "", fmt.Errorf("%w: %s expects %d argument(s) (%s), got %d",
			ErrInvalidArgument, k.Name, len(k.Args), strings.Join(k.Args, ", "), len(args))
	}
	out, err := k.Run(ctx, args)
	if err != nil {
		return "", fmt.Errorf("%s: %w", k.Name, err)
	}
	return out, nil
}

func intArg(name, value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", ErrInvalidArgument, name, value)
	}
	return n, nil
}

func none(fn func(context.Context) error) RunFunc {
	return func(ctx context.Context, _ []string) (string, error) {
		return "", fn(ctx)
	}
}

func one(fn func(context.Context, string) error) RunFunc {
	return func(ctx context.Context, a []string) (string, error) {
		return "", fn(ctx, a[0])
	}
}

func two(fn func(context.Context, string, string) error) RunFunc {
	return func(ctx context.Context, a []string) (string, error) {
		return "", fn(ctx, a[0], a[1])
	}
}

func three(fn func(context.Context, string, string, string) error) RunFunc {
	return func(ctx context.Context, a []string) (string, error) {
		return "", fn(ctx, a[0], a[1], a[2])
	}
}

func locatorOffset(fn func(context.Context, string, string, int, int) error) RunFunc {
	return func(ctx context.Context, a []string) (string, error) {
		dx, err := intArg("xx", a[2])
		if err != nil {
			return "", err
		}
		dy, err := intArg("yy", a[3])
		if err != nil {
			return "", err
		}
		return "", fn(ctx, a[0], a[1], dx, dy)
	}
}

// NewRegistry registers every keyword of lib.
func NewRegistry(lib *Library) *Registry {
	r := &Registry{byName: make(map[string]*Keyword)}
	locArgs := []string{"by", "id"}
	locTextArgs := []string{"by", "id", "text"}

	r.add(&Keyword{Name: "SetFindElementTimeout", Args: []string{"timeout"},
		Doc: "Sets how many seconds element keywords wait for their condition.",
		Run: func(_ context.Context, a []string) (string, error) {
			n, err := intArg("timeout", a[0])
			if err != nil {
				return "", err
			}
			return "", lib.SetFindElementTimeout(n)
		}})
	r.add(&Keyword{Name: "SetWaitAfterAction", Args: []string{"wait"},
		Doc: "Sets a delay in seconds applied before each element lookup.",
		Run: func(_ context.Context, a []string) (string, error) {
			n, err := intArg("wait", a[0])
			if err != nil {
				return "", err
			}
			return "", lib.SetWaitAfterAction(n)
		}})

	r.add(&Keyword{Name: "OpenBrowser", Args: []string{"browser"},
		Doc: "Opens a new browser session (chrome; firefox and ie run on chrome).",
		Run: one(lib.OpenBrowser)})
	r.add(&Keyword{Name: "CloseBrowser", Doc: "Closes the browser session.", Run: none(lib.CloseBrowser)})
	r.add(&Keyword{Name: "NavigateToURL", Args: []string{"url"}, Doc: "Loads a URL.", Run: one(lib.NavigateToURL)})
	r.add(&Keyword{Name: "ClearBrowserData", Doc: "Deletes all cookies.", Run: none(lib.ClearBrowserData)})
	r.add(&Keyword{Name: "SetBrowserWindowSize", Args: []string{"width", "height"},
		Doc: "Resizes the browser window.",
		Run: func(ctx context.Context, a []string) (string, error) {
			w, err := intArg("width", a[0])
			if err != nil {
				return "", err
			}
			h, err := intArg("height", a[1])
			if err != nil {
				return "", err
			}
			return "", lib.SetBrowserWindowSize(ctx, w, h)
		}})
	r.add(&Keyword{Name: "GetBrowserWindowLocation", Doc: "Returns the window position as (x, y).", Run: query(lib.GetBrowserWindowLocation)})
	r.add(&Keyword{Name: "GetPageTitle", Doc: "Returns the page title.", Run: query(lib.GetPageTitle)})
	r.add(&Keyword{Name: "GetPageScreenshot", Doc: "Saves a PNG screenshot and returns its path.", Run: query(lib.GetPageScreenshot)})
	r.add(&Keyword{Name: "ExecuteJavascript", Args: []string{"jScript"},
		Doc: "Runs a script body in the page and returns its result as a string.",
		Run: func(ctx context.Context, a []string) (string, error) {
			return lib.ExecuteJavascript(ctx, a[0])
		}})

	r.add(&Keyword{Name: "ClickElement", Args: locArgs, Doc: "Clicks an element once it is clickable.", Run: two(lib.ClickElement)})
	r.add(&Keyword{Name: "WriteTextToField", Args: locTextArgs, Doc: "Clears a visible field and types text.", Run: three(lib.WriteTextToField)})
	r.add(&Keyword{Name: "SelectDropdownItem", Args: locTextArgs, Doc: "Selects a dropdown option by its visible text.", Run: three(lib.SelectDropdownItem)})
	r.add(&Keyword{Name: "SelectCheckbox", Args: locArgs, Doc: "Ticks a checkbox.", Run: two(lib.SelectCheckbox)})
	r.add(&Keyword{Name: "UnselectCheckbox", Args: locArgs, Doc: "Unticks a checkbox.", Run: two(lib.UnselectCheckbox)})
	r.add(&Keyword{Name: "GetTextOfElement", Args: locArgs,
		Doc: "Returns an element's text with line breaks as spaces.",
		Run: func(ctx context.Context, a []string) (string, error) {
			return lib.GetTextOfElement(ctx, a[0], a[1])
		}})
	r.add(&Keyword{Name: "ElementExists", Args: locArgs, Doc: "Waits for an element to be visible.", Run: two(lib.ElementExists)})
	r.add(&Keyword{Name: "ElementDoesNotExist", Args: locArgs, Doc: "Waits for an element to be missing or invisible.", Run: two(lib.ElementDoesNotExist)})
	r.add(&Keyword{Name: "ElementTextContains", Args: locTextArgs, Doc: "Waits for an element's text to contain text.", Run: three(lib.ElementTextContains)})
	r.add(&Keyword{Name: "ElementTextEquals", Args: locTextArgs, Doc: "Waits for an element's text to equal text.", Run: three(lib.ElementTextEquals)})
	r.add(&Keyword{Name: "ElementTextNotContains", Args: locTextArgs, Doc: "Waits for an element's text to stop containing text.", Run: three(lib.ElementTextNotContains)})
	r.add(&Keyword{Name: "ElementTextNotEquals", Args: locTextArgs, Doc: "Waits for an element's text to differ from text.", Run: three(lib.ElementTextNotEquals)})

	r.add(&Keyword{Name: "ClickPopupOk", Doc: "Accepts the open dialog.", Run: none(lib.ClickPopupOk)})
	r.add(&Keyword{Name: "ClickPopupCancel", Doc: "Dismisses the open dialog.", Run: none(lib.ClickPopupCancel)})
	r.add(&Keyword{Name: "SwitchToFrame", Args: []string{"id"}, Doc: "Moves into a frame by id or name.", Run: one(lib.SwitchToFrame)})
	r.add(&Keyword{Name: "SwitchToDefaultContext", Doc: "Leaves all frames.", Run: none(lib.SwitchToDefaultContext)})
	r.add(&Keyword{Name: "SwitchToWindowWithTitle", Args: []string{"title"}, Doc: "Focuses the window whose title contains title.", Run: one(lib.SwitchToWindowWithTitle)})
	r.add(&Keyword{Name: "SwitchToWindowWithURL", Args: []string{"url"}, Doc: "Focuses the window whose URL contains url.", Run: one(lib.SwitchToWindowWithURL)})
	r.add(&Keyword{Name: "SwitchToNextWindow", Doc: "Focuses the first window other than the current one.", Run: none(lib.SwitchToNextWindow)})

	r.add(&Keyword{Name: "DragAndDrop", Args: []string{"by1", "id1", "by2", "id2"},
		Doc: "Drags one element onto another.",
		Run: func(ctx context.Context, a []string) (string, error) {
			return "", lib.DragAndDrop(ctx, a[0], a[1], a[2], a[3])
		}})
	r.add(&Keyword{Name: "DragAndDropBy", Args: []string{"by", "id", "xx", "yy"}, Doc: "Drags an element by a pixel offset.", Run: locatorOffset(lib.DragAndDropBy)})
	r.add(&Keyword{Name: "MouseDownOnElement", Args: locArgs, Doc: "Presses the mouse button over an element.", Run: two(lib.MouseDownOnElement)})
	r.add(&Keyword{Name: "MouseUpOnElement", Args: locArgs, Doc: "Releases the mouse button over an element.", Run: two(lib.MouseUpOnElement)})
	r.add(&Keyword{Name: "HoverOnElement", Args: locArgs, Doc: "Moves the pointer over an element.", Run: two(lib.HoverOnElement)})
	r.add(&Keyword{Name: "DoubleClickOnElement", Args: locArgs, Doc: "Double-clicks an element.", Run: two(lib.DoubleClickOnElement)})
	r.add(&Keyword{Name: "RightClickOnElement", Args: locArgs, Doc: "Right-clicks an element.", Run: two(lib.RightClickOnElement)})
	r.add(&Keyword{Name: "ClickOffsetOnElement", Args: []string{"by", "id", "xx", "yy"}, Doc: "Clicks at an offset from an element's centre.", Run: locatorOffset(lib.ClickOffsetOnElement)})

	return r
}

func query(fn func(context.Context) (string, error)) RunFunc {
	return func(ctx context.Context, _ []string) (string, error) {
		return fn(ctx)
	}
}
