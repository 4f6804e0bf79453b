package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"cob/internal/config"
	"cob/internal/identity"
)

// newInitCmd creates the init command. It does not use the provider's
// App: there is nothing to load until init has run.
func newInitCmd(provider *AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a .cob directory with a fresh signing key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := provider.Out
			if out == nil {
				out = os.Stdout
			}

			dir := provider.CobPath
			if dir == "" {
				cwd, err := os.Getwd()
				if err != nil {
					return err
				}
				dir = filepath.Join(cwd, config.DirName)
			}

			if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err == nil {
				return fmt.Errorf("%s is already initialized", dir)
			}
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("creating %s: %w", dir, err)
			}

			cfg := config.Default()
			if err := cfg.Save(dir); err != nil {
				return fmt.Errorf("writing config: %w", err)
			}

			id, err := identity.Generate()
			if err != nil {
				return err
			}
			if err := id.Save(cfg.KeysDir(dir)); err != nil {
				return err
			}

			if provider.JSONOutput {
				return printJSONTo(out, map[string]string{
					"cob_dir": dir,
					"author":  id.Author(),
				})
			}
			fmt.Fprintf(out, "Initialized %s\n", dir)
			fmt.Fprintf(out, "Author key: %s\n", id.Author())
			return nil
		},
	}
}
