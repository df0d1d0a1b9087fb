// File: cmd/languages.go
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/wxauto/internal/lang"
)

func newLanguagesCmd() *cobra.Command {
	var showKeys bool

	cmd := &cobra.Command{
		Use:   "languages",
		Short: "Lists the shipped keyword tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromContext(cmd.Context())
			if err != nil {
				return err
			}
			tables, err := lang.Load()
			if err != nil {
				return fmt.Errorf("loading language tables: %w", err)
			}

			out := cmd.OutOrStdout()
			active := cfg.Automation().Language
			for _, l := range tables.Languages() {
				marker := " "
				if l == active {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %s\n", marker, l)
			}
			if !showKeys {
				return nil
			}

			table := tables.For(active)
			fmt.Fprintln(out)
			for _, key := range tables.Keys() {
				v, _ := table.Lookup(key)
				fmt.Fprintf(out, "%-20s %q\n", key, v)
			}
			fmt.Fprintf(out, "%-20s [%s]\n", lang.Timestamp, strings.Join(table.List(lang.Timestamp), ", "))
			return nil
		},
	}
	cmd.Flags().BoolVar(&showKeys, "keys", false, "also print every key of the active table")
	return cmd
}
