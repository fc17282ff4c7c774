// internal/locator/locator.go
package locator

import (
	"errors"
	"fmt"
)

// ErrUnknownStrategy is returned when a locator strategy name is not one of the
// recognized selectors. It is a configuration error and is never retried.
var ErrUnknownStrategy = errors.New("unknown locator strategy")

// Strategy identifies how an element query is interpreted by the driver.
type Strategy int

const (
	ID Strategy = iota
	Name
	XPath
	ClassName
	LinkText
	PartialLinkText
	TagName
	CSSSelector
)

// strategyNames holds the external (keyword-facing) names in declaration order.
var strategyNames = [...]string{
	ID:              "id",
	Name:            "name",
	XPath:           "xpath",
	ClassName:       "className",
	LinkText:        "linkText",
	PartialLinkText: "partialLinkText",
	TagName:         "tagName",
	CSSSelector:     "cssSelector",
}

// String returns the keyword-facing name of the strategy.
func (s Strategy) String() string {
	if s < 0 || int(s) >= len(strategyNames) {
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
	return strategyNames[s]
}

// Valid reports whether s is one of the declared strategies.
func (s Strategy) Valid() bool {
	return s >= 0 && int(s) < len(strategyNames)
}

// ParseStrategy maps an exact, case-sensitive strategy name to its Strategy.
func ParseStrategy(name string) (Strategy, error) {
	for i, n := range strategyNames {
		if n == name {
			return Strategy(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q (supported: id, name, xpath, className, linkText, partialLinkText, tagName, cssSelector)", ErrUnknownStrategy, name)
}

// Strategies returns the supported strategy names in declaration order.
func Strategies() []string {
	out := make([]string, len(strategyNames))
	copy(out, strategyNames[:])
	return out
}

// Locator is an immutable (strategy, value) pair. It is re-resolved against the
// live document on every poll and never caches an element handle.
type Locator struct {
	strategy Strategy
	value    string
}

// Resolve builds a Locator from a strategy name and a value.
func Resolve(strategy, value string) (Locator, error) {
	s, err := ParseStrategy(strategy)
	if err != nil {
		return Locator{}, err
	}
	return Locator{strategy: s, value: value}, nil
}

// New builds a Locator from an already-typed strategy.
func New(s Strategy, value string) Locator {
	return Locator{strategy: s, value: value}
}

// Strategy returns the locator's strategy.
func (l Locator) Strategy() Strategy { return l.strategy }

// Value returns the locator's query value.
func (l Locator) Value() string { return l.value }

// String renders the locator the way it appears in diagnostics, e.g. "By.id: login".
func (l Locator) String() string {
	return fmt.Sprintf("By.%s: %s", l.strategy, l.value)
}
