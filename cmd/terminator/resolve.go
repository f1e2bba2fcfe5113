package main

import (
	"fmt"
	"io"

	"github.com/cuemby/terminator/pkg/config"
	"github.com/cuemby/terminator/pkg/pillar"
	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve _pillar references and print the pillar",
	Long: `Replace every key ending in _pillar with the stripped key and the value
stored under the reference. The pillar itself is not validated.

Example:
  terminator resolve -f pillar.yaml --store /var/lib/terminator`,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		format, _ := cmd.Flags().GetString("output")
		return resolvePillar(cfg, file, format, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	resolveCmd.Flags().StringP("file", "f", "", "Pillar file, YAML or JSONC, - for stdin (required)")
	resolveCmd.Flags().StringP("output", "o", formatYAML, "Output format: yaml or json")
	_ = resolveCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(resolveCmd)
}

func resolvePillar(c *config.Config, file, format string, in io.Reader, out io.Writer) error {
	m, err := readPillar(file, in)
	if err != nil {
		return err
	}

	store, err := openStore(c.Store, true)
	if err != nil {
		return err
	}
	defer store.Close()

	resolved, err := pillar.Resolve(m, store.Lookup)
	if err != nil {
		return fmt.Errorf("failed to resolve pillar references: %w", err)
	}
	return writeValue(out, format, resolved)
}
