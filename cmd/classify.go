package main

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/symbology/internal/workspace"
)

var (
	classifySource sourceFlags
	classifyStyle  styleFlags
)

var classifyCmd = &cobra.Command{
	Use:   "classify <path>",
	Short: "Classify a numeric field and print its breaks, colors and legend",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		styler, id, err := loadStyler(ctx, &classifySource, args)
		if err != nil {
			return err
		}
		req, err := classifyStyle.request(id)
		if err != nil {
			return err
		}
		res, err := styler.Apply(ctx, req)
		if err != nil {
			return err
		}

		printResult(cmd.OutOrStdout(), res)
		return nil
	},
}

func printResult(out io.Writer, res workspace.Result) {
	e := res.Entry
	fmt.Fprintf(out, "dataset:  %s (%s)\n", res.DatasetID, e.GeometryType)
	fmt.Fprintf(out, "field:    %s\n", e.Field)
	fmt.Fprintf(out, "method:   %s, %d classes\n", e.Method.Label(), e.ClassCount)
	fmt.Fprintf(out, "palette:  %s[%d]", e.Family, e.SchemeIndex)
	if res.PaletteFellBack {
		fmt.Fprint(out, " (unknown, default used)")
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "values:   n=%d min=%g max=%g mean=%.4g sd=%.4g\n",
		res.Summary.Count, res.Summary.Min, res.Summary.Max, res.Summary.Mean, res.Summary.StdDev)
	fmt.Fprintf(out, "breaks:   %v\n", []float64(e.Breaks))
	fmt.Fprintln(out, "legend:")
	for _, l := range res.Legend.Entries {
		fmt.Fprintf(out, "  %s  %s\n", l.Color, l.Label)
	}
}

func init() {
	classifySource.register(classifyCmd)
	classifyStyle.register(classifyCmd)
	rootCmd.AddCommand(classifyCmd)
}
