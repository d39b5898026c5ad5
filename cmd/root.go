// Package cmd implements the command-line interface for webetl.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jonesrussell/webetl/cmd/etl"
	"github.com/jonesrussell/webetl/cmd/ledger"
	"github.com/jonesrussell/webetl/cmd/schedule"
	"github.com/jonesrussell/webetl/cmd/setup"
	"github.com/jonesrussell/webetl/internal/config"
)

// Version is set at build time with -ldflags "-X github.com/jonesrussell/webetl/cmd.Version=...".
var Version = "dev"

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// Debug enables debug logging for all commands.
	Debug bool

	rootCmd = &cobra.Command{
		Use:   "webetl",
		Short: "Declarative web extract, transform and load",
		Long: `webetl crawls declared sources through chains of link-discovery hops,
extracts fields from HTML, RSS and PDF pages, and never fetches a harvested
URL twice for the same source.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command. SIGINT and SIGTERM cancel the command context.
func Execute() error {
	_ = godotenv.Load()

	_ = rootCmd.ParseFlags(os.Args[1:])

	if err := initConfig(); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "webetl version %s\n", Version)
		},
	})

	rootCmd.AddCommand(
		etl.RunCommand(),
		etl.ExtractCommand(),
		etl.TransformCommand(),
		etl.LoadCommand(),
		ledger.FetchesCommand(),
		ledger.HasFetchedCommand(),
		ledger.ResetCommand(),
		schedule.Command(Version),
		setup.InitCommand(),
	)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	if err := config.BindEnv(viper.GetViper()); err != nil {
		return err
	}
	config.SetDefaults(viper.GetViper())

	// The config file is optional: defaults and the environment are enough.
	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: config file not found: %v (using defaults and environment variables)\n", err)
	}

	if err := viper.BindPFlag("app.debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		return fmt.Errorf("failed to bind debug flag: %w", err)
	}

	return nil
}
