package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/star/isstrack/internal/csvview"
)

var csvHTML bool

var csvCmd = &cobra.Command{
	Use:   "csv <file>",
	Short: "Render a delimited text file as a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		rows, err := csvview.Parse(f)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if csvHTML {
			if err := csvview.RenderHTML(out, rows); err != nil {
				return err
			}
			fmt.Fprintln(out)
			return nil
		}
		fmt.Fprintln(out, csvview.RenderText(rows))
		return nil
	},
}

func init() {
	csvCmd.Flags().BoolVar(&csvHTML, "html", false, "Print an HTML table instead of a terminal table.")
}
