// ABOUTME: Entry point for the newsdesk CLI
// ABOUTME: Command-line and terminal client for the newsdesk content API

package main

import (
	"fmt"
	"os"

	"github.com/markalston/newsdesk/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
