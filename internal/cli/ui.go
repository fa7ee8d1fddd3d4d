package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/menta2k/idphoto/pkg/pipeline"
)

var (
	colorCyan  = lipgloss.Color("36")
	colorGreen = lipgloss.Color("35")
	colorAmber = lipgloss.Color("220")
	colorWhite = lipgloss.Color("255")
	colorDim   = lipgloss.Color("240")
)

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleLabel   = lipgloss.NewStyle().Foreground(colorDim).Width(10)
	styleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	styleNumber  = lipgloss.NewStyle().Foreground(colorCyan)
	styleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleWarning = lipgloss.NewStyle().Foreground(colorAmber)
	styleDim     = lipgloss.NewStyle().Foreground(colorDim)
)

const (
	iconSuccess = "✓"
	iconWarning = "!"
	iconArrow   = "→"
)

// outputs lists the files written for one source
type outputs struct {
	photo string
	sheet string
	debug string
}

func printSummary(w io.Writer, src string, job pipeline.Config, r *pipeline.Result, files outputs) {
	fmt.Fprintf(w, "%s %s %s %s\n",
		styleSuccess.Render(iconSuccess), styleValue.Render(src), styleDim.Render(iconArrow), styleValue.Render(files.photo))

	row(w, "size", fmt.Sprintf("%s  %s px @ %s dpi",
		job.Size, styleNumber.Render(r.TargetPx.String()), styleNumber.Render(fmt.Sprintf("%g", job.DPI))))
	row(w, "crop", fmt.Sprintf("%s  [%d,%d %s %d,%d]",
		r.Strategy, r.Crop.Left, r.Crop.Top, iconArrow, r.Crop.Right, r.Crop.Bottom))
	row(w, "color", job.Background.String())

	if r.Sheet != nil {
		if r.Sheet.Count == 0 {
			row(w, "sheet", styleWarning.Render(iconWarning+" photo does not fit on the paper"))
		} else {
			row(w, "sheet", fmt.Sprintf("%s copies %s %s", styleNumber.Render(fmt.Sprint(r.Sheet.Count)), iconArrow, files.sheet))
		}
	}
	if files.debug != "" {
		row(w, "debug", files.debug)
	}
}

func row(w io.Writer, label, value string) {
	fmt.Fprintf(w, "  %s%s\n", styleLabel.Render(label), value)
}
