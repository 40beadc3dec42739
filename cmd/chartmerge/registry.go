package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hurttlocker/chartmerge/internal/registry"
)

func newRegistryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect and validate pattern registries",
	}

	var file string
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the active registry as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := a.registry(file)
			if err != nil {
				return err
			}
			data, err := reg.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	show.Flags().StringVarP(&file, "file", "f", "", "registry file (default: configured registry)")

	var validateFile string
	validate := &cobra.Command{
		Use:   "validate",
		Short: "Compile every pattern and check required entries",
		Long: `Load a registry file, compile every header pattern and check that the
required section types are present. Exits non-zero on the first problem.

Examples:
  chartmerge registry validate --file ./registry.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := a.registry(validateFile)
			if err != nil {
				return err
			}
			required := 0
			for _, e := range reg.Entries() {
				if e.Required {
					required++
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registry %s OK: %d section types, %d header patterns, %d required\n",
				reg.Version(), reg.Len(), len(reg.HeaderPatterns()), required)
			return nil
		},
	}
	validate.Flags().StringVarP(&validateFile, "file", "f", "", "registry file (default: configured registry)")

	cmd.AddCommand(show, validate)
	return cmd
}

// registry loads file, falling back to the configured or built-in registry.
func (a *app) registry(file string) (*registry.Registry, error) {
	if file == "" {
		file = a.cfg.RegistryPath
	}
	return registry.LoadOrDefault(file)
}
