// internal/conditions/text.go
package conditions

import (
	"context"
	"fmt"
	"strings"

	"github.com/xkilldash9x/webdriver-keywords/internal/driver"
	"github.com/xkilldash9x/webdriver-keywords/internal/locator"
	"github.com/xkilldash9x/webdriver-keywords/internal/wait"
)

// TextMode selects how observed text is compared to the expected text.
type TextMode int

const (
	Contains TextMode = iota
	Equals
)

func (m TextMode) String() string {
	if m == Equals {
		return "equals"
	}
	return "contains"
}

// NormalizeText flattens line breaks in rendered text to single spaces.
func NormalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	return strings.ReplaceAll(s, "\n", " ")
}

// TextMatches compares the normalized rendered text of the element matching
// loc against text. The element is looked up again on every poll. A missing
// element and a stale read are both returned as errors so the engine retries
// them and Not does not mistake them for a mismatch.
func TextMatches(loc locator.Locator, text string, mode TextMode) wait.Condition[bool] {
	describe := func(obs wait.Observation) string {
		seen := "<none>"
		if obs.HasText {
			seen = obs.LastText
		}
		if mode == Equals {
			return fmt.Sprintf("text ('%s') to equal the text of element found by %s, which had text ('%s')", text, loc, seen)
		}
		return fmt.Sprintf("text ('%s') to be present in element found by %s, which had text ('%s')", text, loc, seen)
	}

	return wait.New(describe, func(ctx context.Context, drv driver.Driver, obs *wait.Observation) (bool, bool, error) {
		el, err := drv.FindElement(ctx, loc)
		if err != nil {
			return false, false, err
		}
		raw, err := drv.Text(ctx, el)
		if err != nil {
			return false, false, err
		}
		observed := NormalizeText(raw)
		obs.RecordText(observed)

		var match bool
		if mode == Equals {
			match = observed == text
		} else {
			match = strings.Contains(observed, text)
		}
		return match, match, nil
	})
}
