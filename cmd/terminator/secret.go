package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/cuemby/terminator/pkg/config"
	"github.com/cuemby/terminator/pkg/pillar"
	"github.com/cuemby/terminator/pkg/security"
	"github.com/spf13/cobra"
)

// Secret commands
var secretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Manage values referenced by _pillar keys",
}

var secretSetCmd = &cobra.Command{
	Use:   "set KEY [VALUE]",
	Short: "Store a value",
	Long: `Store a value under KEY. The value is taken from the argument or from
--from-file. With --yaml it is parsed as YAML, so lists and mappings can
be stored; otherwise it is stored as a string.

Examples:
  terminator secret set certs/example.com/cert --from-file example.com.pem
  terminator secret set upstreams/api --yaml '["10.0.0.1:8080", "10.0.0.2:8080"]'`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		fromFile, _ := cmd.Flags().GetString("from-file")
		asYAML, _ := cmd.Flags().GetBool("yaml")

		var raw []byte
		switch {
		case len(args) == 2 && fromFile != "":
			return fmt.Errorf("give either VALUE or --from-file, not both")
		case len(args) == 2:
			raw = []byte(args[1])
		case fromFile != "":
			data, err := readValueFile(fromFile)
			if err != nil {
				return fmt.Errorf("failed to read value: %w", err)
			}
			raw = data
		default:
			return fmt.Errorf("a VALUE or --from-file is required")
		}

		return setSecret(cfg.Store, args[0], raw, asYAML, cmd.OutOrStdout())
	},
}

var secretGetCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Print a stored value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getSecret(cfg.Store, args[0], cmd.OutOrStdout())
	},
}

var secretDeleteCmd = &cobra.Command{
	Use:   "delete KEY",
	Short: "Delete a stored value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cfg.Store, true)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Delete(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted: %s\n", args[0])
		return nil
	},
}

var secretListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listSecrets(cfg.Store, cmd.OutOrStdout())
	},
}

var secretKeygenCmd = &cobra.Command{
	Use:   "keygen PATH",
	Short: "Generate a sealing key file",
	Long: `Write a new random sealing key to PATH as hex. The file must not exist.
Pass it to --key-file (or store.key_file) to seal stored values.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := writeKeyFile(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Key written: %s\n", args[0])
		return nil
	},
}

func init() {
	secretSetCmd.Flags().String("from-file", "", "Read the value from a file, - for stdin")
	secretSetCmd.Flags().Bool("yaml", false, "Parse the value as YAML")

	secretCmd.AddCommand(secretSetCmd)
	secretCmd.AddCommand(secretGetCmd)
	secretCmd.AddCommand(secretDeleteCmd)
	secretCmd.AddCommand(secretListCmd)
	secretCmd.AddCommand(secretKeygenCmd)

	rootCmd.AddCommand(secretCmd)
}

func setSecret(c config.StoreConfig, key string, raw []byte, asYAML bool, out io.Writer) error {
	var value any = string(raw)
	if asYAML {
		decoded, err := pillar.DecodeValue(raw)
		if err != nil {
			return err
		}
		value = decoded
	}

	store, err := openStore(c, true)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Set(key, value); err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Stored: %s\n", key)
	return nil
}

// getSecret prints strings verbatim and anything else as YAML
func getSecret(c config.StoreConfig, key string, out io.Writer) error {
	store, err := openStore(c, true)
	if err != nil {
		return err
	}
	defer store.Close()

	value, err := store.Get(key)
	if err != nil {
		return err
	}

	if s, ok := value.(string); ok {
		if !strings.HasSuffix(s, "\n") {
			s += "\n"
		}
		_, err := io.WriteString(out, s)
		return err
	}
	return writeValue(out, formatYAML, value)
}

func listSecrets(c config.StoreConfig, out io.Writer) error {
	store, err := openStore(c, true)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List()
	if err != nil {
		return fmt.Errorf("failed to list values: %w", err)
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "KEY\tSEALED\tUPDATED")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%t\t%s\n", e.Key, e.Sealed, e.UpdatedAt.Format(time.RFC3339))
	}
	return w.Flush()
}

func writeKeyFile(path string) error {
	key, err := security.GenerateKey()
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("failed to create key file: %w", err)
	}
	if _, err := fmt.Fprintln(f, hex.EncodeToString(key)); err != nil {
		f.Close()
		return fmt.Errorf("failed to write key file: %w", err)
	}
	return f.Close()
}
