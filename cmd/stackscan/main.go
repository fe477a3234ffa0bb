// Command stackscan extracts a software bill of materials from a source tree.
//
//	stackscan scan ./my-project -o sbom.json
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/matzehuels/stackscan/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.New(os.Stderr, cli.LogInfo).RootCommand().ExecuteContext(ctx)
	stop()
	os.Exit(cli.ExitCode(err, os.Stderr))
}
