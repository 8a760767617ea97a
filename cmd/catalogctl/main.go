// Package main is catalogctl, the admin CLI. It works directly against the
// configured store, so the server need not be running.
package main

import (
	"context"
	"os"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
