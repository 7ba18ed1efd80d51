package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	styleSource sourceFlags
	styleStyle  styleFlags
	styleOut    string
)

var styleCmd = &cobra.Command{
	Use:   "style <path>",
	Short: "Write the dataset as GeoJSON with a style on every feature",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		styler, id, err := loadStyler(ctx, &styleSource, args)
		if err != nil {
			return err
		}
		req, err := styleStyle.request(id)
		if err != nil {
			return err
		}
		if _, err := styler.Apply(ctx, req); err != nil {
			return err
		}

		data, _, err := styler.Render(id)
		if err != nil {
			return err
		}

		if styleOut == "" || styleOut == "-" {
			_, err := cmd.OutOrStdout().Write(data)
			return err
		}
		if err := os.WriteFile(styleOut, data, 0o644); err != nil {
			return eris.Wrapf(err, "style: write %s", styleOut)
		}
		zap.L().Info("styled dataset written",
			zap.String("dataset", id),
			zap.String("path", styleOut),
			zap.Int("bytes", len(data)),
		)
		return nil
	},
}

func init() {
	styleSource.register(styleCmd)
	styleStyle.register(styleCmd)
	styleCmd.Flags().StringVarP(&styleOut, "out", "o", "", "output GeoJSON file (default stdout)")
	rootCmd.AddCommand(styleCmd)
}
