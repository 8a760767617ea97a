// Package main provides the entry point for the catalog server.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/catalogapp/catalog-server/internal/di"
	"github.com/catalogapp/catalog-server/internal/logger"
)

func main() {
	injector := di.NewContainer()

	if err := bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap server: %v\n", err)
		os.Exit(1)
	}

	log := do.MustInvoke[*logger.Logger](injector)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	// The container shuts services down in reverse dependency order: the
	// HTTP server drains before the store and search index close.
	if report := injector.Shutdown(); !report.Succeed {
		log.Error("Shutdown error", "error", report.Error())
	}

	log.Info("Server stopped")
}

// bootstrap turns provider panics into an error so a bad config exits
// cleanly.
func bootstrap(injector do.Injector) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	return di.Bootstrap(injector)
}
