// Command rxview runs reactive views from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/go-drift/reactive/cmd/rxview/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
