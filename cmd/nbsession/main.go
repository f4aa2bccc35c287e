// Command nbsession opens published notebooks against a local content store.
package main

import (
	"fmt"
	"os"

	"github.com/tradingstrategy-ai/notebook-webcomponent/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
