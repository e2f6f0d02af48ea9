// Command swapi-gateway serves the catalog explorer over HTTP and runs
// one-off queries from the terminal.
package main

import (
	"os"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
