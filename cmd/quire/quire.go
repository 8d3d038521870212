// Package main implements the CLI for quire, a static site generator for blogs.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

const (
	InternalError = iota + 1
	BadArgument
)

func build(c *cli.Context) error {
	logger := newLogger(c)
	config, res, err := setup(c)
	if err != nil {
		return err
	}

	gen, err := newGenerator(config, res, logger)
	if err != nil {
		return err
	}

	err = gen.Run(c.Context)
	if err != nil {
		return cli.Exit(fmt.Sprintf("generator failed: %s", err.Error()), InternalError)
	}

	return nil
}

func main() {
	// Variables of a .env file in the working directory are used as flag values.
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "loading .env failed: %s\n", err.Error())
		os.Exit(BadArgument)
	}

	app := cli.App{
		Name:        "quire",
		Usage:       "build a static blog from markdown files",
		Description: "quire renders posts, pages, listings, a feed and a stylesheet into a static website. Flags overwrite config file settings.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Usage:    "config file to use, JSON or YAML",
				EnvVars:  []string{"QUIRE_CONFIG"},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "content",
				Usage:   "path to source folder containing markdown posts, pages and related files of any type",
				EnvVars: []string{"QUIRE_CONTENT_DIR"},
			},
			&cli.StringFlag{
				Name:    "layouts",
				Usage:   "path to folder containing the layout templates",
				EnvVars: []string{"QUIRE_LAYOUTS_DIR"},
			},
			&cli.StringFlag{
				Name:    "static",
				Usage:   "path to folder containing static files (js, images, ...)",
				EnvVars: []string{"QUIRE_STATIC_DIR"},
			},
			&cli.StringFlag{
				Name:    "output",
				Usage:   "path to output folder",
				EnvVars: []string{"QUIRE_OUTPUT_DIR"},
			},
			&cli.BoolFlag{
				Name:    "drafts",
				Usage:   "render drafts alongside posts",
				EnvVars: []string{"QUIRE_DRAFTS"},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log every written file",
				EnvVars: []string{"QUIRE_VERBOSE"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "build",
				Usage:  "build the website once",
				Action: build,
			},
			{
				Name:  "watch",
				Usage: "rebuild the website on every change",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:    "check-interval",
						Usage:   "time to wait between looking for changes",
						Value:   1 * time.Second,
						EnvVars: []string{"QUIRE_CHECK_INTERVAL"},
					},
				},
				Action: watch,
			},
			{
				Name:      "new",
				Usage:     "create a new post",
				ArgsUsage: "TITLE",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "draft",
						Usage: "create the post as draft",
					},
				},
				Action: newPost,
			},
		},
		Action: build,
	}

	err = app.Run(os.Args)
	if err != nil {
		slog.Error("quire failed", "error", err)
		os.Exit(InternalError)
	}
}
