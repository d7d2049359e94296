package main

import (
	"fmt"
	"io"

	"github.com/MMMiaotl/IngRenoQuote/internal/config"
	"github.com/MMMiaotl/IngRenoQuote/internal/domain/catalog"
	"github.com/MMMiaotl/IngRenoQuote/internal/infra/logger"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check [file.xlsx]",
	Short: "Parse the price workbook and print a summary",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if len(args) == 1 {
			cfg.Catalog.Path = args[0]
		}
		log := logger.NewWithWriter(cfg.App.Env, cmd.ErrOrStderr())
		src, err := newWorkbook(cfg, log).Load(cmd.Context())
		if err != nil {
			return err
		}
		return printSummary(cmd.OutOrStdout(), cfg.Catalog.Path, src)
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func printSummary(w io.Writer, path string, src catalog.Source) error {
	if src.Kind == catalog.SourceFlat {
		fmt.Fprintf(w, "%s: no category structure (%s)\n", path, src.Reason)
		fmt.Fprintf(w, "flat records: %d\n", len(src.Flat))
		return fmt.Errorf("catalog is not hierarchical")
	}
	fmt.Fprintf(w, "%s: %d items\n", path, len(src.Rows))
	for _, cat := range catalog.SortedCategories(src.Rows) {
		subs := map[string]int{}
		var order []string
		for _, r := range src.Rows {
			if r.Category != cat {
				continue
			}
			if _, ok := subs[r.SubCategory]; !ok {
				order = append(order, r.SubCategory)
			}
			subs[r.SubCategory]++
		}
		fmt.Fprintf(w, "  %s\n", cat)
		for _, sub := range order {
			line := fmt.Sprintf("    %s: %d items", sub, subs[sub])
			if p := catalog.BuildPackage(src.Rows, cat, sub); p.ItemCount > 0 {
				line += fmt.Sprintf(", package %s (%d items)", p.Total.StringFixed(2), p.ItemCount)
			}
			fmt.Fprintln(w, line)
		}
	}
	return nil
}
