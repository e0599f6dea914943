package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/syssam/dynrepo/compiler/gen"
	"github.com/syssam/dynrepo/compiler/load"
)

const watchDebounce = 200 * time.Millisecond

type genOptions struct {
	schema  string
	target  string
	pkg     string
	workers int
	watch   bool
}

func (a *app) genCmd() *cobra.Command {
	opts := &genOptions{}
	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate entities and repositories from a schema file",
		Example: `  dynrepo gen --schema sports.yaml --target ./sports
  dynrepo gen --schema chat.yaml --target ./chat --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runGen(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.schema, "schema", "s", "", "schema file")
	cmd.Flags().StringVarP(&opts.target, "target", "t", ".", "output directory")
	cmd.Flags().StringVar(&opts.pkg, "package", "", "package name (default: the schema package or the target directory)")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "files written in parallel (default: GOMAXPROCS)")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "regenerate when the schema file changes")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}

func (a *app) runGen(ctx context.Context, opts *genOptions) error {
	target, err := filepath.Abs(opts.target)
	if err != nil {
		return fmt.Errorf("resolve target: %w", err)
	}
	generate := func() error {
		spec, err := load.File(opts.schema)
		if err != nil {
			return err
		}
		pkg := opts.pkg
		if pkg == "" {
			pkg = spec.Package
		}
		start := time.Now()
		if err := gen.Generate(ctx, spec.Entities, gen.Config{Target: target, Package: pkg, Workers: opts.workers}); err != nil {
			return err
		}
		a.logger.Info("generated entities", "schema", opts.schema, "target", target, "entities", len(spec.Entities), "took", time.Since(start))
		return nil
	}
	if !opts.watch {
		return generate()
	}
	if err := generate(); err != nil {
		a.logger.Error("generation failed", "err", err)
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return watchFile(ctx, a.logger, opts.schema, watchDebounce, func() {
		if err := generate(); err != nil {
			a.logger.Error("generation failed", "err", err)
		}
	})
}
