package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/linkforge/internal/export"
)

var exportFormat string

var exportCmd = &cobra.Command{
	Use:   "export <job-id>",
	Short: "Export a delivered article",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "export")
		}
		if run.Result == nil {
			return eris.Errorf("run %s has no stored result", args[0])
		}

		var out []byte
		switch exportFormat {
		case "html":
			out, err = export.HTML(run.Result)
		case "markdown", "md":
			out, err = export.Markdown(run.Result)
		default:
			return eris.Errorf("unknown format %q (expected html or markdown)", exportFormat)
		}
		if err != nil {
			return err
		}

		_, err = os.Stdout.Write(out)
		return err
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "markdown", "output format (markdown, html)")
	rootCmd.AddCommand(exportCmd)
}
