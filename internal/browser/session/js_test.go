// internal/browser/session/js_test.go
package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/webdriver-keywords/internal/locator"
)

func TestFinderExpression(t *testing.T) {
	tests := []struct {
		strategy locator.Strategy
		contains string
	}{
		{locator.ID, "doc.getElementById(value)"},
		{locator.Name, `'[name="' + CSS.escape(value) + '"]'`},
		{locator.XPath, "XPathResult.FIRST_ORDERED_NODE_TYPE"},
		{locator.ClassName, "doc.getElementsByClassName(value)[0]"},
		{locator.LinkText, "a.innerText.trim() === value"},
		{locator.PartialLinkText, "a.innerText.includes(value)"},
		{locator.TagName, "doc.getElementsByTagName(value)[0]"},
		{locator.CSSSelector, "doc.querySelector(value)"},
	}
	for _, tt := range tests {
		t.Run(tt.strategy.String(), func(t *testing.T) {
			expr, err := finderExpression(nil, locator.New(tt.strategy, "login"))
			require.NoError(t, err)
			assert.Contains(t, expr, tt.contains)
			assert.Contains(t, expr, `const value = "login";`)
			assert.Contains(t, expr, noFrameMarker)
		})
	}

	t.Run("every strategy has a finder", func(t *testing.T) {
		for _, name := range locator.Strategies() {
			loc, err := locator.Resolve(name, "x")
			require.NoError(t, err)
			_, err = finderExpression(nil, loc)
			assert.NoError(t, err, name)
		}
	})

	t.Run("unknown strategy", func(t *testing.T) {
		_, err := finderExpression(nil, locator.New(locator.Strategy(42), "x"))
		assert.ErrorIs(t, err, locator.ErrUnknownStrategy)
	})

	t.Run("values are embedded as literals", func(t *testing.T) {
		expr, err := finderExpression(nil, locator.New(locator.CSSSelector, `input[value="a'b"]`))
		require.NoError(t, err)
		assert.Contains(t, expr, `const value = "input[value=\"a'b\"]";`)
	})
}

func TestFrameDocument(t *testing.T) {
	assert.Contains(t, frameDocument(nil), "})([])")
	assert.Contains(t, frameDocument([]string{"outer", "inner"}), `})(["outer","inner"])`)
	assert.Contains(t, frameExists([]string{"f"}), `})(["f"]) !== null`)
}

func TestScriptExpression(t *testing.T) {
	expr := scriptExpression([]string{"content"}, "return window.document.title;")
	assert.Contains(t, expr, "return window.document.title;")
	assert.Contains(t, expr, `["content"]`)
	assert.Contains(t, expr, "(doc, doc.defaultView)")
	assert.Contains(t, expr, "JSON.stringify(result)")
}

func TestElementFunctions(t *testing.T) {
	for name, fn := range map[string]string{
		"text":     textFunction,
		"visible":  visibleFunction,
		"enabled":  enabledFunction,
		"selected": selectedFunction,
		"clear":    clearFunction,
		"focus":    focusFunction,
		"center":   centerFunction,
		"select":   selectFunction("Two"),
	} {
		assert.Contains(t, fn, "if (!this.isConnected)", name)
		assert.Contains(t, fn, staleMarker, name)
	}
	assert.Contains(t, selectFunction(`say "hi"`), `norm("say \"hi\"")`)
}

func TestLiteral(t *testing.T) {
	assert.Equal(t, `"a"`, literal("a"))
	assert.Equal(t, `["x","y"]`, literal([]string{"x", "y"}))
}
