package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/menta2k/idphoto/pkg/types"
	"github.com/menta2k/idphoto/pkg/units"
)

func newPresetsCmd() *cobra.Command {
	var dpi float64

	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List photo sizes, background colors and paper formats",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("dpi") {
				dpi = configFromContext(cmd.Context()).Photo.DPI
			}
			return printPresets(cmd.OutOrStdout(), dpi)
		},
	}
	cmd.Flags().Float64Var(&dpi, "dpi", units.DefaultDPI, "resolution used for pixel sizes")
	return cmd
}

func printPresets(w io.Writer, dpi float64) error {
	fmt.Fprintln(w, styleTitle.Render(fmt.Sprintf("Photo sizes @ %g dpi", dpi)))
	for _, p := range types.SizePresets() {
		px, err := units.ToPixels(p.Size, dpi)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  %s%-12s %s  %s\n",
			styleLabel.Render(p.Name), p.Size, styleNumber.Render(fmt.Sprintf("%9s px", px)), styleDim.Render(p.Description))
	}

	fmt.Fprintln(w, styleTitle.Render("Background colors"))
	for _, c := range types.NamedColors() {
		row(w, c.Name, c.Color.Hex())
	}

	fmt.Fprintln(w, styleTitle.Render("Paper"))
	for _, p := range types.PaperPresets() {
		px, err := units.ToPixels(p.Size, dpi)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  %s%-14s %s\n", styleLabel.Render(p.Name), p.Size, styleNumber.Render(px.String()+" px"))
	}
	return nil
}
