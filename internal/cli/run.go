package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

// Run is the main entry point. Returns the process exit code. sigCh can be
// nil if signal handling is not needed (e.g. in tests).
func Run(_ io.Reader, out, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	cmd := scanCommand()

	cmdIO := NewIO(out, errOut)

	if len(args) <= 1 {
		cmd.PrintHelp(cmdIO)

		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan int, 1)

	go func() {
		done <- cmd.Run(ctx, cmdIO, args[1:])
	}()

	select {
	case exitCode := <-done:
		return exitCode
	case <-sigCh:
		fprintln(errOut, "shutting down after current block...")
		cancel()
	}

	select {
	case exitCode := <-done:
		return exitCode
	case <-time.After(5 * time.Second):
		fprintln(errOut, "graceful shutdown timed out, forced exit (130)")

		return 130
	case <-sigCh:
		fprintln(errOut, "graceful shutdown interrupted, forced exit (130)")

		return 130
	}
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}
