// Command chartmerge normalizes multi-encounter clinical charts into a single
// summary document.
package main

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hurttlocker/chartmerge/internal/config"
	"github.com/hurttlocker/chartmerge/internal/logging"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// keyToFlag maps config keys to the flags that override them.
var keyToFlag = map[string]string{
	"mode":           "mode",
	"registry_path":  "registry",
	"tokenizer_path": "tokenizer",
	"log.level":      "log-level",
	"log.format":     "log-format",
	"llm.provider":   "llm",
	"cache.path":     "cache",
	"http.addr":      "addr",
}

// app carries state resolved before any subcommand runs.
type app struct {
	configPath string
	v          *viper.Viper
	cfg        *config.Config
	log        zerolog.Logger
	promReg    *prometheus.Registry
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "chartmerge",
		Short: "Normalize multi-encounter clinical charts",
		Long: `chartmerge turns a raw multi-encounter clinical record into one
normalized summary with a fixed section order.

Configuration is read from ~/.chartmerge/config.yaml, CHARTMERGE_* environment
variables and flags, in increasing order of precedence.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default ~/.chartmerge/config.yaml)")
	pf.String("registry", "", "pattern registry YAML file (default built-in)")
	pf.String("tokenizer", "", "tokenizer.json used to size sections")
	pf.String("log-level", "", "log level (trace, debug, info, warn, error)")
	pf.String("log-format", "", "log format (console or json)")
	pf.String("llm", "", "synthesis model as provider/model, e.g. google/gemini-2.5-flash")
	pf.String("cache", "", "synthesis cache database path")

	root.AddCommand(
		newNormalizeCmd(a),
		newSectionsCmd(a),
		newNotesCmd(a),
		newRegistryCmd(a),
		newServeCmd(a),
		newMCPCmd(a),
		newCacheCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return root
}

// setup loads configuration with flag overrides and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	a.v = config.NewViper()
	if err := config.BindFlags(a.v, cmd.Flags(), keyToFlag); err != nil {
		return err
	}
	cfg, err := config.Load(a.v, a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	log, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Out: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	a.log = log.With().Str("cmd", cmd.Name()).Logger()
	a.promReg = prometheus.NewRegistry()
	return nil
}
