package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	// Drivers selectable with --driver.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/syssam/dynrepo/cache"
	"github.com/syssam/dynrepo/dialect"
	"github.com/syssam/dynrepo/dialect/sql"
	"github.com/syssam/dynrepo/examples/chat"
	"github.com/syssam/dynrepo/repository"
)

func (a *app) demoCmd() *cobra.Command {
	var create bool
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Seed a channel and list public channels",
		Long: `demo stores a new public channel in the chat tables, reads it back
through a cached repository and streams all public channels through a
lazy query. Statement statistics are logged when it finishes.`,
		Example: `  dynrepo demo --create
  DYNREPO_DRIVER=pgx DYNREPO_DSN=postgres://localhost/chat dynrepo demo`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runDemo(cmd.Context(), cmd.OutOrStdout(), create)
		},
	}
	cmd.Flags().String("driver", defaultDriver, "database/sql driver: sqlite, pgx, postgres or mysql")
	cmd.Flags().String("dsn", defaultDSN, "data source name")
	cmd.Flags().Duration("slow-threshold", defaultSlowThreshold, "log statements slower than this")
	cmd.Flags().BoolVar(&create, "create", false, "create the chat tables before seeding")
	return cmd
}

func (a *app) runDemo(ctx context.Context, out io.Writer, create bool) error {
	name, dsn := a.v.GetString(cfgKeyDriver), a.v.GetString(cfgKeyDSN)
	drv, err := sql.Open(name, dsn)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer drv.Close()
	stats := sql.NewStatsDriver(drv,
		sql.WithSlowThreshold(a.v.GetDuration(cfgKeySlowThreshold)),
		sql.WithSlowQueryLog(a.logger),
	)
	var d dialect.Driver = stats
	if a.v.GetBool(cfgKeyDebug) {
		d = sql.NewDebugDriver(drv, sql.DebugWithLogger(a.logger))
	}
	if create {
		if err := chat.CreateTables(ctx, d); err != nil {
			return err
		}
	}

	reg := repository.NewRegistry(d, repository.WithLogger(a.logger))
	channels, err := chat.NewChannelRepository(reg)
	if err != nil {
		return err
	}
	seeded, err := channels.Insert(ctx, "demo-"+uuid.NewString()[:8], chat.Public, time.Now().UnixMilli(), false, 500, 100, false, 0)
	if err != nil {
		return err
	}
	a.logger.Info("seeded channel", "name", seeded.Name)

	cached := repository.NewCached(channels.Repository, cache.NewMemory(), time.Minute)
	for range 2 {
		if _, err := cached.GetByID(ctx, seeded.Name); err != nil {
			return err
		}
	}

	n := 0
	for c, err := range channels.FindAll().WhereEquals("type", chat.Public).OrderBy("name").Seq(ctx) {
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%-24s %-8s max %d members\n", c.Name, c.Type, c.MaxMembers)
		n++
	}
	a.logger.Info("demo finished", "public_channels", n, "stats", stats.Stats())
	return nil
}
