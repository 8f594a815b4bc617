// main is the entry point for the techconnect CLI.
package main

import (
	"fmt"
	"os"

	"github.com/hockijo/techconnect/cmd"
	"github.com/hockijo/techconnect/internal/store"
)

func main() {
	cmd.SetStoreManager(store.Manager)
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

// run executes the root command and closes the store before main exits.
func run() error {
	defer store.CloseStore()
	return cmd.Execute()
}
