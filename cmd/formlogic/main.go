// Command formlogic evaluates form logic and validates submissions.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/formlogic/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "formlogic:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
