package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/symbology/internal/classify"
	"github.com/sells-group/symbology/internal/palette"
)

var palettesClasses int

var palettesCmd = &cobra.Command{
	Use:   "palettes",
	Short: "List palette families, schemes and classification methods",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg := palette.Default()
		if cfg.Palettes.File != "" {
			if err := reg.LoadFile(cfg.Palettes.File); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		for _, f := range reg.Families() {
			fmt.Fprintf(out, "%s: %s\n", f.Name, f.Description)
			for i, s := range f.Schemes {
				colors := s.Colors
				if palettesClasses > 0 {
					c, err := palette.Interpolate(s.Colors, palettesClasses)
					if err != nil {
						return err
					}
					colors = c
				}
				fmt.Fprintf(out, "  [%d] %-10s %s\n", i, s.Name, strings.Join(colors, " "))
			}
		}

		fmt.Fprintln(out, "methods:")
		for _, m := range classify.Methods {
			fmt.Fprintf(out, "  %-15s %s\n", m, m.Description())
		}
		return nil
	},
}

func init() {
	palettesCmd.Flags().IntVar(&palettesClasses, "classes", 0, "preview each scheme interpolated to this many colors")
	rootCmd.AddCommand(palettesCmd)
}
