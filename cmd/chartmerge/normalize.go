package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hurttlocker/chartmerge/internal/ingest"
	"github.com/hurttlocker/chartmerge/internal/notes"
)

func newNormalizeCmd(a *app) *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "normalize <file|->",
		Short: "Normalize a chart into one summary document",
		Long: `Normalize a raw chart into a single document with a fixed section order.

Examples:
  # Normalize a file, print the document
  chartmerge normalize chart.txt

  # Read stdin, force the section path, write the run report as JSON
  cat chart.txt | chartmerge normalize --mode sections --format json -

  # Merge narrative fields with a model
  chartmerge normalize --llm google/gemini-2.5-flash chart.txt -o summary.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "text" && format != "json" {
				return fmt.Errorf("--format must be text or json, got %q", format)
			}
			src, err := a.load(cmd, args[0])
			if err != nil {
				return err
			}
			p, cleanup, err := a.pipeline()
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := p.Run(cmd.Context(), src.Text)
			if err != nil {
				return err
			}
			a.log.Info().
				Str("run_id", res.Report.RunID).
				Str("input", src.Path).
				Str("format", src.Format).
				Int("fallbacks", len(res.Report.Fallbacks)).
				Msg("chart normalized")

			var out []byte
			if format == "json" {
				if out, err = json.MarshalIndent(res, "", "  "); err != nil {
					return err
				}
				out = append(out, '\n')
			} else {
				out = []byte(res.Document.Text)
			}
			return writeOutput(cmd.OutOrStdout(), output, out)
		},
	}

	cmd.Flags().String("mode", "", "pipeline mode: auto, notes or sections")
	cmd.Flags().StringVar(&format, "format", "text", "output format: text or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the result to a file instead of stdout")
	return cmd
}

func newSectionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sections <file|->",
		Short: "Split a chart into registry sections and report coverage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := a.load(cmd, args[0])
			if err != nil {
				return err
			}
			p, cleanup, err := a.pipeline()
			if err != nil {
				return err
			}
			defer cleanup()

			rep := p.Agent().Extract(src.Text)
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Coverage: %.1f%% of %d chars\n", rep.Coverage*100, rep.TextLength)
			if rep.FallbackUsed {
				fmt.Fprintln(w, "Fallback: unmatched text kept as other_clinical_data")
			}
			fmt.Fprintf(w, "Sections: %d\n\n", len(rep.Sections))
			for _, s := range rep.Sections {
				fmt.Fprintf(w, "  %-32s %7.2f  %6d chars  ~%d tokens\n", s.SectionType, s.Order, s.CharCount, s.EstimatedTokens)
			}
			return nil
		},
	}
}

func newNotesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "notes <file|->",
		Short: "Classify the encounter notes in a chart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := a.load(cmd, args[0])
			if err != nil {
				return err
			}
			p, cleanup, err := a.pipeline()
			if err != nil {
				return err
			}
			defer cleanup()

			res := p.Classifier().Classify(src.Text)
			w := cmd.OutOrStdout()
			counts := res.Counts()
			parts := make([]string, 0, len(notes.Kinds))
			for _, k := range notes.Kinds {
				parts = append(parts, fmt.Sprintf("%s=%d", k, counts[k]))
			}
			fmt.Fprintf(w, "Notes: %d (%s)\n\n", res.Len(), strings.Join(parts, " "))
			for _, n := range res.All() {
				date := n.Date
				if date == "" {
					date = "-"
				}
				fmt.Fprintf(w, "  %-9s %-12s %s\n", n.Kind, date, n.Title)
			}
			return nil
		},
	}
}

// load reads a chart from a path, or from the command's stdin for "-".
func (a *app) load(cmd *cobra.Command, path string) (*ingest.Source, error) {
	loader := ingest.NewLoader(a.cfg.Input.MaxBytes)
	if path == "-" {
		return loader.Read(cmd.InOrStdin(), "-")
	}
	return loader.Load(cmd.Context(), path)
}

func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// sortedKeys returns map keys in ascending order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
