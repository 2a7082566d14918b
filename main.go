package main

import (
	"fmt"
	"os"

	"github.com/tylerslaton/olmsync/cmd/cli"
)

const (
	exitErrorTemplateConstant = "%v\n"
)

// main runs a single OLM sync and exits non-zero when any step fails.
func main() {
	if executionError := cli.Execute(); executionError != nil {
		fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)
		os.Exit(1)
	}
}
