// internal/browser/session/js.go
package session

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/webdriver-keywords/internal/locator"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Markers thrown from page scripts and matched by classify.
const (
	staleMarker   = "wdk:stale"
	noFrameMarker = "wdk:no-frame"
)

// literal renders v as a JavaScript literal. Values are always embedded this
// way rather than concatenated, so quotes in locators cannot break out.
func literal(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

// frameDocument evaluates to the document of the frame reached by following
// path (frame ids or names) from the top document, or null when any hop is
// missing or cross-origin.
func frameDocument(path []string) string {
	if path == nil {
		path = []string{}
	}
	return `(function(path) {
	let doc = document;
	for (const name of path) {
		const frame = Array.from(doc.querySelectorAll("iframe, frame")).find(f => f.id === name || f.name === name);
		if (!frame || !frame.contentDocument) {
			return null;
		}
		doc = frame.contentDocument;
	}
	return doc;
})(` + literal(path) + `)`
}

var finders = map[locator.Strategy]string{
	locator.ID:              `return doc.getElementById(value);`,
	locator.Name:            `return doc.querySelector('[name="' + CSS.escape(value) + '"]');`,
	locator.XPath:           `return doc.evaluate(value, doc, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;`,
	locator.ClassName:       `return doc.getElementsByClassName(value)[0] || null;`,
	locator.LinkText:        `return Array.from(doc.querySelectorAll("a")).find(a => a.innerText.trim() === value) || null;`,
	locator.PartialLinkText: `return Array.from(doc.querySelectorAll("a")).find(a => a.innerText.includes(value)) || null;`,
	locator.TagName:         `return doc.getElementsByTagName(value)[0] || null;`,
	locator.CSSSelector:     `return doc.querySelector(value);`,
}

// finderExpression evaluates to the first element matching loc in the frame
// document selected by path, or null.
func finderExpression(path []string, loc locator.Locator) (string, error) {
	body, ok := finders[loc.Strategy()]
	if !ok {
		return "", fmt.Errorf("%w: %s", locator.ErrUnknownStrategy, loc.Strategy())
	}
	return `(function() {
	const doc = ` + frameDocument(path) + `;
	if (!doc) {
		throw new Error("` + noFrameMarker + `");
	}
	const value = ` + literal(loc.Value()) + `;
	` + body + `
})()`, nil
}

// frameExists evaluates to true when path leads to a reachable document.
func frameExists(path []string) string {
	return frameDocument(path) + ` !== null`
}

// scriptExpression runs body as a function in the frame document selected by
// path, with document and window bound to that frame, and stringifies its
// result. undefined and null become "", objects become JSON.
func scriptExpression(path []string, body string) string {
	return `(async function() {
	const doc = ` + frameDocument(path) + `;
	if (!doc) {
		throw new Error("` + noFrameMarker + `");
	}
	const result = await (function(document, window) {
` + body + `
	})(doc, doc.defaultView);
	if (result === undefined || result === null) {
		return "";
	}
	if (typeof result === "object") {
		return JSON.stringify(result);
	}
	return String(result);
})()`
}

// elementFunction wraps body as a function called with this bound to an
// element. Detached elements throw the stale marker.
func elementFunction(body string) string {
	return `function() {
	if (!this.isConnected) {
		throw new Error("` + staleMarker + `");
	}
	` + strings.TrimSpace(body) + `
}`
}

var (
	textFunction = elementFunction(`
	return typeof this.innerText === "string" ? this.innerText : (this.textContent || "");`)

	visibleFunction = elementFunction(`
	const view = this.ownerDocument.defaultView;
	const style = view.getComputedStyle(this);
	if (style.visibility === "hidden" || style.visibility === "collapse") {
		return false;
	}
	for (let n = this; n && n.nodeType === Node.ELEMENT_NODE; n = n.parentElement) {
		const s = view.getComputedStyle(n);
		if (s.display === "none" || s.opacity === "0") {
			return false;
		}
	}
	const rect = this.getBoundingClientRect();
	return rect.width > 0 && rect.height > 0;`)

	enabledFunction = elementFunction(`
	return !this.matches(":disabled");`)

	selectedFunction = elementFunction(`
	return !!(this.checked || this.selected);`)

	clearFunction = elementFunction(`
	this.focus();
	if (this.isContentEditable) {
		this.textContent = "";
	} else {
		this.value = "";
	}
	this.dispatchEvent(new Event("input", {bubbles: true}));
	this.dispatchEvent(new Event("change", {bubbles: true}));`)

	focusFunction = elementFunction(`
	this.focus();
	if (typeof this.value === "string" && typeof this.setSelectionRange === "function") {
		try {
			this.setSelectionRange(this.value.length, this.value.length);
		} catch (e) {}
	}`)

	// centerFunction scrolls the element into view and returns its centre in
	// top-level viewport coordinates, adding the offsets of enclosing frames.
	centerFunction = elementFunction(`
	this.scrollIntoView({block: "center", inline: "center"});
	const rect = this.getBoundingClientRect();
	let x = rect.left + rect.width / 2;
	let y = rect.top + rect.height / 2;
	for (let win = this.ownerDocument.defaultView; win && win.frameElement; win = win.parent) {
		const frame = win.frameElement;
		const box = frame.getBoundingClientRect();
		x += box.left + frame.clientLeft;
		y += box.top + frame.clientTop;
	}
	return {x: x, y: y};`)
)

// selectFunction selects the option of a <select> whose visible text equals
// text after whitespace normalisation, returning false when none does.
func selectFunction(text string) string {
	return elementFunction(`
	if (!this.options) {
		throw new Error("element is not a <select>");
	}
	const norm = s => s.replace(/\s+/g, " ").trim();
	const want = norm(` + literal(text) + `);
	const option = Array.from(this.options).find(o => norm(o.text) === want);
	if (!option) {
		return false;
	}
	if (!option.selected) {
		option.selected = true;
		this.dispatchEvent(new Event("input", {bubbles: true}));
		this.dispatchEvent(new Event("change", {bubbles: true}));
	}
	return true;`)
}
