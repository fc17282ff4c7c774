// File: internal/mocks/mocks.go
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/webdriver-keywords/internal/driver"
)

// -- Launcher Mock --

// MockLauncher mocks keywords.Launcher.
type MockLauncher struct {
	mock.Mock
}

// Launch records the call and returns the configured browser. A nil browser
// in the expectation is returned as a nil interface.
func (m *MockLauncher) Launch(ctx context.Context, browserName string) (driver.Browser, error) {
	args := m.Called(ctx, browserName)
	b, _ := args.Get(0).(driver.Browser)
	return b, args.Error(1)
}
