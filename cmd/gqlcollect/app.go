package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"github.com/urfave/cli/v2"
	"github.com/vvakame/gqlcollect/internal/aggregate"
	"github.com/vvakame/gqlcollect/internal/config"
	gqllog "github.com/vvakame/gqlcollect/internal/log"
	"github.com/vvakame/gqlcollect/internal/loader"
	"github.com/vvakame/gqlcollect/internal/report"
	"github.com/vvakame/gqlcollect/manifest"
)

var errDuplicates = errors.New("duplicate operation or fragment names found")

func newApp(stdout io.Writer) *cli.App {
	return &cli.App{
		Name:      "gqlcollect",
		Usage:     "collect GraphQL operations and fragments into persisted operation files",
		Writer:    stdout,
		ArgsUsage: "[root]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "config file",
				Value:   config.DefaultFileName,
				EnvVars: []string{"GQLCOLLECT_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "root-marker",
				Usage:   "path segment where emitted file names start",
				EnvVars: []string{"GQLCOLLECT_ROOT_MARKER"},
			},
			&cli.StringSliceFlag{
				Name:  "include",
				Usage: "glob of files to scan, relative to root",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "glob of files to skip, relative to root",
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "output directory",
				EnvVars: []string{"GQLCOLLECT_OUT"},
			},
			&cli.StringFlag{
				Name:    "report",
				Usage:   "write a YAML summary to this file",
				EnvVars: []string{"GQLCOLLECT_REPORT"},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "print every normalized query",
			},
			&cli.BoolFlag{
				Name:    "fail-on-duplicate",
				Usage:   "exit with an error when duplicate names are found",
				EnvVars: []string{"GQLCOLLECT_FAIL_ON_DUPLICATE"},
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			logger := stdr.New(log.Default())
			if cfg.Verbose {
				stdr.SetVerbosity(1)
			}
			ctx := logr.NewContext(c.Context, logger)

			return run(ctx, cfg, c.App.Writer)
		},
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"), !c.IsSet("config"))
	if err != nil {
		return nil, err
	}

	if c.Args().Present() {
		cfg.Root = c.Args().First()
	}
	if c.IsSet("root-marker") {
		cfg.RootMarker = c.String("root-marker")
	}
	if c.IsSet("include") {
		cfg.Include = c.StringSlice("include")
	}
	if c.IsSet("exclude") {
		cfg.Exclude = c.StringSlice("exclude")
	}
	if c.IsSet("out") {
		cfg.OutputDir = c.String("out")
	}
	if c.IsSet("report") {
		cfg.ReportFile = c.String("report")
	}
	if c.IsSet("verbose") {
		cfg.Verbose = c.Bool("verbose")
	}
	if c.IsSet("fail-on-duplicate") {
		cfg.FailOnDuplicate = c.Bool("fail-on-duplicate")
	}

	err = cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func run(ctx context.Context, cfg *config.Config, stdout io.Writer) error {
	logger := gqllog.FromContext(ctx)

	docs, err := loader.Load(ctx, cfg)
	if err != nil {
		logger.Error(err, "failed to load documents")
		return err
	}
	logger.V(1).Info("documents loaded", "count", len(docs))

	res := aggregate.Run(ctx, docs, aggregate.Options{
		RootMarker: cfg.RootMarker,
	})

	err = report.Print(stdout, res, cfg.Verbose)
	if err != nil {
		return err
	}

	err = manifest.WriteFiles(cfg.OutputDir, res.Operations, res.Fragments)
	if err != nil {
		logger.Error(err, "failed to write output files", "dir", cfg.OutputDir)
		return err
	}
	logger.Info("output files written", "dir", cfg.OutputDir)

	if cfg.ReportFile != "" {
		err = report.WriteYAML(cfg.ReportFile, res)
		if err != nil {
			logger.Error(err, "failed to write report", "file", cfg.ReportFile)
			return err
		}
	}

	if cfg.FailOnDuplicate && res.HasDuplicates() {
		return errDuplicates
	}

	return nil
}
