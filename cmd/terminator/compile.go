package main

import (
	"fmt"
	"io"

	"github.com/cuemby/terminator/pkg/compiler"
	"github.com/cuemby/terminator/pkg/config"
	"github.com/cuemby/terminator/pkg/log"
	"github.com/cuemby/terminator/pkg/metrics"
	"github.com/cuemby/terminator/pkg/pillar"
	"github.com/cuemby/terminator/pkg/types"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Compile a pillar into a resource graph",
	Long: `Compile a TLS terminator pillar into the resource graph applied on the
target host. The graph is written to stdout.

When a pillar store is configured, _pillar references are resolved from
it first. Without a store they are passed through and certificate
material is emitted as contents_pillar references.

Examples:
  # Compile for the installed nginx
  terminator compile -f pillar.yaml --nginx-version 1.18.0

  # Resolve references from a sealed store and emit JSON
  terminator compile -f pillar.yaml --store /var/lib/terminator \
    --key-file /etc/terminator/store.key -o json`,
	RunE: runCompile,
}

func init() {
	compileCmd.Flags().StringP("file", "f", "", "Pillar file, YAML or JSONC, - for stdin (required)")
	compileCmd.Flags().StringP("output", "o", formatYAML, "Output format: yaml or json")
	compileCmd.Flags().String("prefix", config.DefaultPrefix, "Prefix for resource names")
	compileCmd.Flags().String("nginx-version", "", "nginx version on the target host")
	compileCmd.Flags().String("metrics-file", "", "Write Prometheus metrics to this textfile")
	_ = compileCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(compileCmd)
}

func runCompile(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	format, _ := cmd.Flags().GetString("output")

	if cmd.Flags().Changed("prefix") {
		cfg.Prefix, _ = cmd.Flags().GetString("prefix")
	}
	if cmd.Flags().Changed("nginx-version") {
		cfg.PlatformVersion, _ = cmd.Flags().GetString("nginx-version")
	}
	if cmd.Flags().Changed("metrics-file") {
		cfg.Metrics.Textfile, _ = cmd.Flags().GetString("metrics-file")
	}

	return compilePillar(cfg, file, format, cmd.InOrStdin(), cmd.OutOrStdout())
}

// compilePillar runs one compilation and writes the prefixed graph to out
func compilePillar(c *config.Config, file, format string, in io.Reader, out io.Writer) error {
	if format != formatYAML && format != formatJSON {
		return fmt.Errorf("unsupported output format %q (use yaml or json)", format)
	}

	id := uuid.NewString()
	logger := log.WithCompileID(id)

	if c.Metrics.Textfile != "" {
		defer func() {
			if err := metrics.WriteTextfile(c.Metrics.Textfile); err != nil {
				logger.Warn().Err(err).Str("path", c.Metrics.Textfile).Msg("Failed to write metrics")
			}
		}()
	}

	m, err := readPillar(file, in)
	if err != nil {
		return err
	}

	store, err := openStore(c.Store, false)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
		m, err = pillar.Resolve(m, store.Lookup)
		if err != nil {
			return fmt.Errorf("failed to resolve pillar references: %w", err)
		}
	}

	graph, err := compiler.New(c.CompilerOptions()).WithCompileID(id).Compile(m)
	if err != nil {
		if types.IsValidationError(err) {
			logger.Error().Err(err).Msg("Pillar rejected")
			return fmt.Errorf("invalid pillar: %w", err)
		}
		return fmt.Errorf("failed to compile: %w", err)
	}

	logger.Info().
		Str("file", file).
		Int("resources", graph.Len()).
		Bool("resolved", store != nil).
		Msg("Compiled pillar")

	return writeValue(out, format, graph.WithPrefix(c.Prefix))
}
