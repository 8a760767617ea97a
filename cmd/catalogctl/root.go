package main

import (
	"fmt"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/catalogapp/catalog-server/internal/config"
	"github.com/catalogapp/catalog-server/internal/di"
	"github.com/catalogapp/catalog-server/internal/logger"
)

type rootOptions struct {
	dataPath string
	driver   string
	logLevel string
	envFile  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:          "catalogctl",
		Short:        "Administer a catalog data directory.",
		SilenceUsage: true,
	}
	root.DisableAutoGenTag = true

	flags := root.PersistentFlags()
	flags.StringVar(&opts.dataPath, "data-path", "", "data directory (default: $DATA_PATH or ~/Catalog)")
	flags.StringVar(&opts.driver, "store", "", "store driver, sqlite or badger (default: $STORE_DRIVER or sqlite)")
	flags.StringVarP(&opts.logLevel, "log-level", "l", "warn", "log level: debug, info, warn or error")
	flags.StringVar(&opts.envFile, "env-file", ".env", "path to .env file")

	root.AddCommand(
		newUserCmd(opts),
		newTagCmd(opts),
		newEntryCmd(opts),
		newIndexCmd(opts),
	)
	return root
}

// load builds the configuration from the persistent flags, the environment
// and the .env file.
func (o *rootOptions) load() (*config.Config, error) {
	args := []string{"-env-file", o.envFile, "-log-level", o.logLevel}
	if o.dataPath != "" {
		args = append(args, "-data-path", o.dataPath)
	}
	if o.driver != "" {
		args = append(args, "-store", o.driver)
	}
	return config.Load(args)
}

// run opens a container for one command and shuts it down afterwards.
// Logs go to stderr so stdout carries only command output.
func (o *rootOptions) run(cmd *cobra.Command, fn func(injector do.Injector) error) error {
	cfg, err := o.load()
	if err != nil {
		return err
	}

	injector := di.NewContainerWithConfig(cfg)
	do.OverrideValue(injector, logger.New(logger.Config{
		Writer: cmd.ErrOrStderr(),
		Level:  logger.ParseLevel(cfg.Logger.Level),
	}))

	runErr := invoke(injector, fn)
	if report := injector.Shutdown(); !report.Succeed && runErr == nil {
		runErr = report
	}
	return runErr
}

// invoke reports provider panics from do.MustInvoke as errors.
func invoke(injector do.Injector, fn func(do.Injector) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	return fn(injector)
}
