// internal/browser/session/session_test.go
package session

import (
	"context"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNew_RequiresAttachedContext(t *testing.T) {
	_, err := New(context.Background(), func() {}, zaptest.NewLogger(t), time.Second)
	assert.ErrorIs(t, err, chromedp.ErrInvalidContext)
}

func TestAttach_ParentCanceled(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	cancel()

	// A context without an allocator fails fast inside chromedp.Run, so
	// either outcome is an error and the goroutine always finishes.
	err := Attach(parent, context.Background(), time.Second)
	assert.Error(t, err)
}
