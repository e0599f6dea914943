package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	envPrefix      = "DYNREPO"
	configFileName = "dynrepo"
	configFileType = "yaml"

	cfgKeyDriver        = "driver"
	cfgKeyDSN           = "dsn"
	cfgKeyDebug         = "debug"
	cfgKeySlowThreshold = "slow_threshold"

	defaultDriver        = "sqlite"
	defaultDSN           = "file:dynrepo.db?_time_format=sqlite"
	defaultSlowThreshold = 100 * time.Millisecond
)

// flagKeys maps config keys to the flags that set them.
var flagKeys = map[string]string{
	cfgKeyDriver:        "driver",
	cfgKeyDSN:           "dsn",
	cfgKeyDebug:         "debug",
	cfgKeySlowThreshold: "slow-threshold",
}

// app holds the state shared by the subcommands.
type app struct {
	v          *viper.Viper
	logger     *slog.Logger
	configFile string
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	cmd := &cobra.Command{
		Use:   "dynrepo",
		Short: "dynrepo maps Go entities to relational tables",
		Long: `dynrepo generates entity structs, schemas and typed repositories from
a YAML schema file, and runs a demo of the repository engine against
SQLite, PostgreSQL or MySQL.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.loadConfig(cmd)
		},
	}
	cmd.PersistentFlags().StringVar(&a.configFile, "config", "", "config file (default: ./dynrepo.yaml)")
	cmd.PersistentFlags().Bool("debug", false, "log every statement and debug messages")
	cmd.AddCommand(a.genCmd(), a.demoCmd())
	return cmd
}

// loadConfig reads the configuration of the running command and sets up
// the logger. A missing default config file is not an error.
func (a *app) loadConfig(cmd *cobra.Command) error {
	v := a.v
	v.SetDefault(cfgKeyDriver, defaultDriver)
	v.SetDefault(cfgKeyDSN, defaultDSN)
	v.SetDefault(cfgKeySlowThreshold, defaultSlowThreshold)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for key, name := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}
	if a.configFile != "" {
		v.SetConfigFile(a.configFile)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if a.configFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	level := slog.LevelInfo
	if v.GetBool(cfgKeyDebug) {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}
