package main

import (
	"fmt"
	"io"

	"github.com/MMMiaotl/IngRenoQuote/internal/sheet"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var rewriteSheet string

// rewrite перекладывает прайс в стандартную раскладку: строки категорий
// и подкатегорий, колонки Y/Z/AA. Заголовок берётся из исходного файла.
var rewriteCmd = &cobra.Command{
	Use:   "rewrite <in.xlsx> <out.xlsx>",
	Short: "Re-encode a price workbook in the canonical layout",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return rewrite(afero.NewOsFs(), args[0], args[1], rewriteSheet, cmd.OutOrStdout())
	},
}

func init() {
	rewriteCmd.Flags().StringVar(&rewriteSheet, "sheet", "", "sheet name (default: first sheet)")
	rootCmd.AddCommand(rewriteCmd)
}

func rewrite(fsys afero.Fs, in, out, sheetName string, w io.Writer) error {
	data, err := afero.ReadFile(fsys, in)
	if err != nil {
		return err
	}
	layout := sheet.DefaultLayout()
	rows, err := sheet.NewReader(layout, sheetName).ReadStructured(data)
	if err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}
	encoded, err := sheet.NewWriter(layout, sheetName).Encode(rows, data)
	if err != nil {
		return err
	}
	if err := afero.WriteFile(fsys, out, encoded, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(w, "%s -> %s: %d items\n", in, out, len(rows))
	return nil
}
