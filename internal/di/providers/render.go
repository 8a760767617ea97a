package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/catalogapp/catalog-server/internal/config"
	"github.com/catalogapp/catalog-server/internal/logger"
	"github.com/catalogapp/catalog-server/internal/render"
	"github.com/catalogapp/catalog-server/internal/watcher"
)

// ProvideDataLoader provides the page data loader with the strategy the
// configuration resolves to.
func ProvideDataLoader(i do.Injector) (*render.DataLoader, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	strategy := render.ResolveStrategy(cfg.App.Environment, cfg.Render.InProcess, cfg.Render.Deferred)
	log.Info("Page data strategy selected", "strategy", strategy.String())

	return render.NewDataLoader(render.LoaderOptions{
		Strategy:    strategy,
		DevProxyURL: cfg.Render.DevProxyURL,
		PublicURL:   cfg.Render.PublicURL,
		Logger:      log.Component("render").Logger,
	})
}

// ProvideBundle provides the page bundle over the frontend build directory.
// A missing build is not fatal: pages answer 503 until it appears.
func ProvideBundle(i do.Injector) (*render.Bundle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	loader := do.MustInvoke[*render.DataLoader](i)
	log := do.MustInvoke[*logger.Logger](i)

	bundle := render.NewBundle(cfg.Render.BuildDir, loader, log.Component("render").Logger)
	if _, err := bundle.Load(); err != nil {
		log.Warn("Frontend build not loaded", "dir", cfg.Render.BuildDir, "error", err)
	}
	return bundle, nil
}

// BundleWatcherHandle wraps the build directory watcher with shutdown
// capability. Watcher is nil when watching is off or the directory is
// missing.
type BundleWatcherHandle struct {
	*watcher.Watcher
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *BundleWatcherHandle) Shutdown() error {
	if h.Watcher == nil {
		return nil
	}
	h.cancel()
	return h.Stop()
}

// ProvideBundleWatcher watches the build directory and drops the cached page
// whenever a file in it changes.
func ProvideBundleWatcher(i do.Injector) (*BundleWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	bundle := do.MustInvoke[*render.Bundle](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Render.Watch {
		return &BundleWatcherHandle{}, nil
	}

	w, err := watcher.New(log.Logger, watcher.Options{})
	if err != nil {
		return nil, err
	}
	if err := w.Watch(bundle.Dir()); err != nil {
		log.Warn("Not watching frontend build", "dir", bundle.Dir(), "error", err)
		_ = w.Stop()
		return &BundleWatcherHandle{}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		if err := w.Start(ctx); err != nil && ctx.Err() == nil {
			log.Error("Build watcher error", "error", err)
		}
	}()
	go bundle.Follow(ctx, w.Events())
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-w.Errors():
				if !ok {
					return
				}
				log.Warn("Build watcher", "error", err)
			}
		}
	}()

	log.Info("Watching frontend build", "dir", bundle.Dir())

	return &BundleWatcherHandle{Watcher: w, cancel: cancel}, nil
}
