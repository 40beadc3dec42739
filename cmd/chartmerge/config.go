package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hurttlocker/chartmerge/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect resolved configuration",
	}

	var asJSON bool
	show := &cobra.Command{
		Use:   "show",
		Short: "Print every setting with its value and source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			values := config.Explain(a.v, a.cfg, cmd.Flags(), keyToFlag)
			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(values)
			}

			path := a.cfg.ConfigPath
			if path == "" {
				path = "(none)"
			}
			fmt.Fprintf(w, "Config file: %s\n\n", path)
			for _, rv := range values {
				src := string(rv.Source)
				if rv.From != "" {
					src += " " + rv.From
				}
				fmt.Fprintf(w, "  %-28s %-32s %s\n", rv.Key, rv.Value, src)
			}
			return nil
		},
	}
	show.Flags().BoolVar(&asJSON, "json", false, "print as JSON")

	cmd.AddCommand(show)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "chartmerge %s\n", version)
			return nil
		},
	}
}
