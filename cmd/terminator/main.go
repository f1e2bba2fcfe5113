package main

import (
	"fmt"
	"os"

	"github.com/cuemby/terminator/pkg/config"
	"github.com/cuemby/terminator/pkg/log"
	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// cfg is loaded before any subcommand runs
var cfg = config.Default()

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "terminator",
	Short: "Compile TLS terminator pillars into resource graphs",
	Long: `Terminator compiles a declarative description of TLS terminated sites
into the resource graph a configuration management engine applies:
nginx site files, upstream blocks, certificates, rate limit zones,
error pages and outbound firewall rules.

Values the pillar references with _pillar keys are read from a local
store managed with the secret subcommands.`,
	Version:           Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Terminator version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (default $"+config.EnvConfig+")")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.Bool("log-json", false, "Log as JSON instead of console text")
	flags.String("store", "", "Pillar store data directory")
	flags.String("key-file", "", "Sealing key for the pillar store")

	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the config file and lets explicit flags override it
func loadConfig(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	loaded, err := config.Load(path)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		loaded.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-json") {
		loaded.Log.JSON, _ = flags.GetBool("log-json")
	}
	if flags.Changed("store") {
		loaded.Store.DataDir, _ = flags.GetString("store")
	}
	if flags.Changed("key-file") {
		loaded.Store.KeyFile, _ = flags.GetString("key-file")
	}

	log.Init(loaded.LogConfig())
	cfg = loaded
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "Terminator version %s\nCommit: %s\nBuilt: %s\n", Version, Commit, BuildTime)
	},
}
