package main

import (
	"encoding/json"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/symbology/internal/render"
)

var (
	legendSource sourceFlags
	legendStyle  styleFlags
	legendOut    string
)

var legendCmd = &cobra.Command{
	Use:   "legend <path>",
	Short: "Export the legend of a classification",
	Long:  "Classifies the dataset and writes its legend as an xlsx workbook with --out, or as JSON to stdout.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		styler, id, err := loadStyler(ctx, &legendSource, args)
		if err != nil {
			return err
		}
		req, err := legendStyle.request(id)
		if err != nil {
			return err
		}
		res, err := styler.Apply(ctx, req)
		if err != nil {
			return err
		}

		if legendOut == "" {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res.Legend)
		}
		if err := render.SaveLegendXLSX(legendOut, res.Legend); err != nil {
			return err
		}
		zap.L().Info("legend written",
			zap.String("dataset", id),
			zap.String("path", legendOut),
			zap.Int("classes", len(res.Legend.Entries)),
		)
		return nil
	},
}

func init() {
	legendSource.register(legendCmd)
	legendStyle.register(legendCmd)
	legendCmd.Flags().StringVarP(&legendOut, "out", "o", "", "output xlsx workbook (default JSON on stdout)")
	rootCmd.AddCommand(legendCmd)
}
