// Command sat runs source acceptance tests against a connector.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	// Fixture bucket drivers, selected by the URL scheme of fixtures.
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"

	"github.com/as42sl/airbyte/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := cli.NewRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
