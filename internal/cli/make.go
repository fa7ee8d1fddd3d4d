package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/menta2k/idphoto/internal/config"
	"github.com/menta2k/idphoto/internal/utils"
	"github.com/menta2k/idphoto/pkg/pipeline"
	"github.com/menta2k/idphoto/pkg/processing"
)

// makeOptions mirrors the configuration file. Only flags the user actually
// set override the loaded configuration.
type makeOptions struct {
	size        string
	widthMM     float64
	heightMM    float64
	color       string
	dpi         float64
	brightness  float64
	subjectCrop bool
	quality     int

	sheet  bool
	paper  string
	margin int
	gap    int

	segmenter string
	rembgURL  string
	detector  string
	cascade   string
	model     string
	visionURL string

	outDir   string
	format   string
	lossless bool
	prefix   string
	suffix   string
	debug    bool
}

func newMakeCmd() *cobra.Command {
	d := config.Default()
	opts := makeOptions{}

	cmd := &cobra.Command{
		Use:   "make <image|url|dir>",
		Short: "Produce an ID photo and print sheet",
		Long: `Produce an ID photo from an image file, an http(s) URL or every image in a directory.

The background is replaced with a solid color, the face is framed for the
chosen size and, unless --sheet=false, copies are tiled onto photo paper.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *configFromContext(cmd.Context())
			opts.apply(cmd.Flags(), &cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runMake(cmd, args[0], &cfg, opts.debug)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.size, "size", d.Photo.Size, "photo size preset (see 'idphoto presets')")
	f.Float64Var(&opts.widthMM, "width-mm", 0, "custom photo width in mm (with --height-mm)")
	f.Float64Var(&opts.heightMM, "height-mm", 0, "custom photo height in mm (with --width-mm)")
	f.StringVarP(&opts.color, "color", "c", d.Photo.Color, "background: blue, red, white, #rrggbb or r,g,b")
	f.Float64Var(&opts.dpi, "dpi", d.Photo.DPI, "print resolution")
	f.Float64Var(&opts.brightness, "brightness", d.Photo.Brightness, "brightness factor in [1.0, 1.5]")
	f.BoolVar(&opts.subjectCrop, "subject-crop", d.Photo.SubjectCrop, "frame around the detected face")
	f.IntVar(&opts.quality, "quality", d.Photo.Quality, "JPEG/WebP quality (1-100)")

	f.BoolVar(&opts.sheet, "sheet", d.Sheet.Enabled, "tile copies onto photo paper")
	f.StringVar(&opts.paper, "paper", d.Sheet.Paper, "paper preset for the sheet")
	f.IntVar(&opts.margin, "margin", d.Sheet.Margin, "sheet margin in pixels")
	f.IntVar(&opts.gap, "gap", d.Sheet.Gap, "gap between copies in pixels")

	f.StringVar(&opts.segmenter, "segmenter", d.Segmentation.Backend, "background removal: rembg, key or none")
	f.StringVar(&opts.rembgURL, "rembg-url", d.Segmentation.URL, "rembg server URL")
	f.StringVar(&opts.detector, "detector", d.Detection.Backend, "face detection: pigo, silhouette, ollama, llamacpp or none")
	f.StringVar(&opts.cascade, "cascade", d.Detection.CascadePath, "pigo facefinder cascade file")
	f.StringVar(&opts.model, "model", d.Detection.Model, "vision model name")
	f.StringVar(&opts.visionURL, "vision-url", d.Detection.URL, "vision model server URL")

	f.StringVarP(&opts.outDir, "out", "o", d.Output.OutputDir, "output directory")
	f.StringVar(&opts.format, "format", d.Output.Format, "photo format: jpg, png or webp")
	f.BoolVar(&opts.lossless, "lossless", d.Output.Lossless, "lossless WebP output")
	f.StringVar(&opts.prefix, "prefix", d.Output.Prefix, "output file name prefix")
	f.StringVar(&opts.suffix, "suffix", d.Output.Suffix, "output file name suffix")
	f.BoolVar(&opts.debug, "debug", false, "also write an overlay showing the face and crop")

	return cmd
}

func (o *makeOptions) apply(f *pflag.FlagSet, c *config.Config) {
	set := f.Changed

	if set("size") {
		c.Photo.Size = o.size
		c.Photo.WidthMM, c.Photo.HeightMM = 0, 0
	}
	if set("width-mm") || set("height-mm") {
		c.Photo.WidthMM, c.Photo.HeightMM = o.widthMM, o.heightMM
	}
	if set("color") {
		c.Photo.Color = o.color
	}
	if set("dpi") {
		c.Photo.DPI = o.dpi
	}
	if set("brightness") {
		c.Photo.Brightness = o.brightness
	}
	if set("subject-crop") {
		c.Photo.SubjectCrop = o.subjectCrop
	}
	if set("quality") {
		c.Photo.Quality = o.quality
	}

	if set("sheet") {
		c.Sheet.Enabled = o.sheet
	}
	if set("paper") {
		c.Sheet.Paper = o.paper
	}
	if set("margin") {
		c.Sheet.Margin = o.margin
	}
	if set("gap") {
		c.Sheet.Gap = o.gap
	}

	if set("segmenter") {
		c.Segmentation.Backend = o.segmenter
	}
	if set("rembg-url") {
		c.Segmentation.URL = o.rembgURL
	}
	if set("detector") {
		c.Detection.Backend = o.detector
	}
	if set("cascade") {
		c.Detection.CascadePath = o.cascade
	}
	if set("model") {
		c.Detection.Model = o.model
	}
	if set("vision-url") {
		c.Detection.URL = o.visionURL
	}

	if set("out") {
		c.Output.OutputDir = o.outDir
	}
	if set("format") {
		c.Output.Format = o.format
	}
	if set("lossless") {
		c.Output.Lossless = o.lossless
	}
	if set("prefix") {
		c.Output.Prefix = o.prefix
	}
	if set("suffix") {
		c.Output.Suffix = o.suffix
	}
}

// maker runs one configured pipeline over a list of sources
type maker struct {
	logger   *log.Logger
	reader   *processing.Processor
	pipeline *pipeline.Pipeline
	job      pipeline.Config
	cfg      *config.Config
	debug    bool
	out      io.Writer
}

func runMake(cmd *cobra.Command, source string, cfg *config.Config, debug bool) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	job, err := cfg.Pipeline()
	if err != nil {
		return err
	}
	seg, err := cfg.NewSegmenter()
	if err != nil {
		return err
	}
	det, err := cfg.NewDetector()
	if err != nil {
		return err
	}
	logger.Debug("backends", "segmenter", cfg.Segmentation.Backend, "detector", cfg.Detection.Backend)

	sources := []string{source}
	if utils.DirExists(source) {
		if sources, err = utils.ListImageFiles(source); err != nil {
			return err
		}
		if len(sources) == 0 {
			return fmt.Errorf("no images found in %s", source)
		}
		logger.Infof("Processing %d images from %s", len(sources), source)
	}

	if err := os.MkdirAll(cfg.Output.OutputDir, 0o755); err != nil {
		return err
	}

	m := &maker{
		logger:   logger,
		reader:   processing.NewProcessor(),
		pipeline: pipeline.New(seg, det, logger),
		job:      job,
		cfg:      cfg,
		debug:    debug,
		out:      cmd.OutOrStdout(),
	}
	for _, src := range sources {
		if err := m.make(ctx, src); err != nil {
			return fmt.Errorf("%s: %w", src, err)
		}
	}
	return nil
}

func (m *maker) make(ctx context.Context, src string) error {
	prog := newProgress(m.logger)

	data, err := m.reader.ReadSource(ctx, src)
	if err != nil {
		return err
	}

	result, err := m.pipeline.Run(ctx, data, m.job)
	if err != nil {
		return err
	}

	o := m.cfg.Output
	files := utils.OutputFiles(src, o.OutputDir, o.Prefix, o.Suffix, o.Format)
	written := outputs{photo: files.Photo}

	if format := strings.ToLower(o.Format); format == "jpg" || format == "jpeg" {
		err = os.WriteFile(files.Photo, result.PhotoJPEG, 0o644)
	} else {
		err = processing.SaveImage(result.Photo, files.Photo, format, m.job.JPEGQuality, o.Lossless, m.job.DPI)
	}
	if err != nil {
		return err
	}

	if result.Sheet != nil {
		if err := os.WriteFile(files.Sheet, result.SheetJPEG, 0o644); err != nil {
			return err
		}
		written.sheet = files.Sheet
	}

	if m.debug {
		overlay := processing.CreateDebugOverlay(result.Composite, result.Face, result.Crop)
		if err := processing.SaveImage(overlay, files.Debug, "png", 0, false, m.job.DPI); err != nil {
			return err
		}
		written.debug = files.Debug
	}

	prog.done("Processed " + src)
	printSummary(m.out, src, m.job, result, written)
	return nil
}
