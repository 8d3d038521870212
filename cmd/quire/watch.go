package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/klingtnet/quire/internal/fswatcher"
	"github.com/urfave/cli/v2"
)

// rebuildOnChange builds once and again whenever watcher reports a change, until ctx is done.
// The watcher takes its initial snapshot before the first build starts.
func rebuildOnChange(ctx context.Context, watcher *fswatcher.FSWatcher, logger *slog.Logger, rebuild func(context.Context)) error {
	resultCh := watcher.Watch(ctx)
	rebuild(ctx)

	for result := range resultCh {
		if result.Err != nil {
			return result.Err
		}

		logger.Info("something has changed, rebuilding", "changed", result.Changed)
		rebuild(ctx)
	}

	return nil
}

func watch(c *cli.Context) error {
	logger := newLogger(c)
	config, res, err := setup(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()

	watcher := fswatcher.New(
		c.Duration("check-interval"),
		fswatcher.Root{Name: "content", FS: res.sourceFS},
		fswatcher.Root{Name: "layouts", FS: res.layoutFS},
		fswatcher.Root{Name: "static", FS: res.staticFS},
	)
	logger.Info("watching for changes", "interval", c.Duration("check-interval"))

	err = rebuildOnChange(ctx, watcher, logger, func(ctx context.Context) {
		// Layouts are parsed again since they may have changed.
		gen, err := newGenerator(config, res, logger)
		if err == nil {
			err = gen.Run(ctx)
		}
		if err != nil {
			logger.Error("build failed", "error", err)
		}
	})
	if err != nil {
		return cli.Exit(fmt.Sprintf("watching for changes failed: %s", err.Error()), InternalError)
	}

	return nil
}
