// cmd/wdk/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/xkilldash9x/webdriver-keywords/cmd"
	"github.com/xkilldash9x/webdriver-keywords/internal/observability"
)

const panicLogFile = "panic.log"

const banner = `
 wdk  browser keywords over the DevTools protocol
      type "help" for keywords, "exit" to leave

`

// Function variables so tests can replace process-level side effects.
var (
	osWriteFile = os.WriteFile
	osExit      = os.Exit
	execute     = cmd.Execute
)

func main() {
	defer handlePanic()

	// SIGINT and SIGTERM cancel the running keyword and close the browser.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	osExit(run(ctx, os.Args[1:]))
}

// run executes the command line and returns the process exit code. Without
// arguments it starts the interactive keyword shell.
func run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		fmt.Print(banner)
		args = []string{"shell"}
	}
	if err := execute(ctx, args); err != nil {
		if errors.Is(err, context.Canceled) {
			return 0
		}
		return 1
	}
	return 0
}

// handlePanic records a crash in panicLogFile and exits non-zero.
func handlePanic() {
	r := recover()
	if r == nil {
		return
	}
	observability.Sync()

	panicMessage := fmt.Sprintf("panic: %v\n\n%s", r, debug.Stack())
	if err := osWriteFile(panicLogFile, []byte(panicMessage), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: Failed to write panic log: %v\n", err)
		fmt.Fprintf(os.Stderr, "Panic details:\n%s\n", panicMessage)
		osExit(2)
		return
	}
	fmt.Fprintf(os.Stderr, "wdk crashed. Details logged to %s\n", panicLogFile)
	osExit(2)
}
