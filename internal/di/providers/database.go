package providers

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/samber/do/v2"

	"github.com/catalogapp/catalog-server/internal/config"
	"github.com/catalogapp/catalog-server/internal/logger"
	"github.com/catalogapp/catalog-server/internal/store"
	"github.com/catalogapp/catalog-server/internal/store/badgerstore"
	"github.com/catalogapp/catalog-server/internal/store/sqlite"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the store selected by the configured driver.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	s, path, err := OpenStore(cfg, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "driver", cfg.Store.Driver, "path", path)

	return &StoreHandle{Store: s}, nil
}

// OpenStore opens the configured store and reports where it lives.
func OpenStore(cfg *config.Config, logger *slog.Logger) (store.Store, string, error) {
	if err := os.MkdirAll(cfg.Data.Path, 0o755); err != nil {
		return nil, "", fmt.Errorf("create data dir: %w", err)
	}

	switch cfg.Store.Driver {
	case config.DriverSQLite, "":
		path := cfg.DatabasePath()
		s, err := sqlite.Open(path, logger)
		if err != nil {
			return nil, "", err
		}
		return s, path, nil
	case config.DriverBadger:
		path := cfg.BadgerPath()
		s, err := badgerstore.Open(badgerstore.Options{Path: path, Logger: logger})
		if err != nil {
			return nil, "", err
		}
		return s, path, nil
	default:
		return nil, "", fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// ProvideSlogLogger provides access to the underlying slog.Logger for packages that need it.
func ProvideSlogLogger(i do.Injector) (*slog.Logger, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return log.Logger, nil
}
