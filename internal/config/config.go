package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v2"

	"github.com/menta2k/idphoto/pkg/layout"
	"github.com/menta2k/idphoto/pkg/pipeline"
	"github.com/menta2k/idphoto/pkg/types"
)

// Config holds the application configuration
type Config struct {
	Photo        PhotoConfig        `json:"photo" toml:"photo" yaml:"photo"`
	Sheet        SheetConfig        `json:"sheet" toml:"sheet" yaml:"sheet"`
	Segmentation SegmentationConfig `json:"segmentation" toml:"segmentation" yaml:"segmentation"`
	Detection    DetectionConfig    `json:"detection" toml:"detection" yaml:"detection"`
	Output       OutputConfig       `json:"output" toml:"output" yaml:"output"`
	Server       ServerConfig       `json:"server" toml:"server" yaml:"server"`
}

// PhotoConfig describes the photo to produce. WidthMM and HeightMM override
// the Size preset when both are set.
type PhotoConfig struct {
	Size        string  `json:"size" toml:"size" yaml:"size"`
	WidthMM     float64 `json:"width_mm" toml:"width_mm" yaml:"width_mm"`
	HeightMM    float64 `json:"height_mm" toml:"height_mm" yaml:"height_mm"`
	Color       string  `json:"color" toml:"color" yaml:"color"`
	DPI         float64 `json:"dpi" toml:"dpi" yaml:"dpi"`
	Brightness  float64 `json:"brightness" toml:"brightness" yaml:"brightness"`
	SubjectCrop bool    `json:"subject_crop" toml:"subject_crop" yaml:"subject_crop"`
	Quality     int     `json:"quality" toml:"quality" yaml:"quality"`
}

// SheetConfig holds configuration for print sheet tiling
type SheetConfig struct {
	Enabled bool   `json:"enabled" toml:"enabled" yaml:"enabled"`
	Paper   string `json:"paper" toml:"paper" yaml:"paper"`
	Margin  int    `json:"margin" toml:"margin" yaml:"margin"`
	Gap     int    `json:"gap" toml:"gap" yaml:"gap"`
}

// SegmentationConfig selects the background removal backend
type SegmentationConfig struct {
	Backend   string  `json:"backend" toml:"backend" yaml:"backend"`
	URL       string  `json:"url" toml:"url" yaml:"url"`
	Timeout   int     `json:"timeout_seconds" toml:"timeout_seconds" yaml:"timeout_seconds"`
	Tolerance float64 `json:"tolerance" toml:"tolerance" yaml:"tolerance"`
	Feather   float64 `json:"feather" toml:"feather" yaml:"feather"`
}

// DetectionConfig selects the face detection backend
type DetectionConfig struct {
	Backend       string  `json:"backend" toml:"backend" yaml:"backend"`
	CascadePath   string  `json:"cascade_path" toml:"cascade_path" yaml:"cascade_path"`
	URL           string  `json:"url" toml:"url" yaml:"url"`
	Model         string  `json:"model" toml:"model" yaml:"model"`
	MinConfidence float64 `json:"min_confidence" toml:"min_confidence" yaml:"min_confidence"`
}

// OutputConfig holds configuration for output files
type OutputConfig struct {
	Format    string `json:"format" toml:"format" yaml:"format"`
	Lossless  bool   `json:"lossless" toml:"lossless" yaml:"lossless"`
	OutputDir string `json:"output_dir" toml:"output_dir" yaml:"output_dir"`
	Prefix    string `json:"prefix" toml:"prefix" yaml:"prefix"`
	Suffix    string `json:"suffix" toml:"suffix" yaml:"suffix"`
}

// ServerConfig holds configuration for the HTTP API
type ServerConfig struct {
	Addr        string `json:"addr" toml:"addr" yaml:"addr"`
	MaxUploadMB int    `json:"max_upload_mb" toml:"max_upload_mb" yaml:"max_upload_mb"`
}

// Segmentation and detection backends
const (
	BackendRembg      = "rembg"
	BackendKey        = "key"
	BackendNone       = "none"
	BackendPigo       = "pigo"
	BackendOllama     = "ollama"
	BackendLlamaCpp   = "llamacpp"
	BackendSilhouette = "silhouette"
)

var (
	segmentationBackends = []string{BackendRembg, BackendKey, BackendNone}
	detectionBackends    = []string{BackendPigo, BackendOllama, BackendLlamaCpp, BackendSilhouette, BackendNone}
	outputFormats        = []string{"jpg", "jpeg", "png", "webp"}
)

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Photo: PhotoConfig{
			Size:        types.OneInch.Name,
			Color:       "blue",
			DPI:         300,
			Brightness:  1.0,
			SubjectCrop: true,
			Quality:     pipeline.DefaultJPEGQuality,
		},
		Sheet: SheetConfig{
			Enabled: true,
			Paper:   types.Paper4x6.Name,
			Margin:  layout.DefaultMargin,
			Gap:     layout.DefaultGap,
		},
		Segmentation: SegmentationConfig{
			Backend:   BackendKey,
			URL:       "http://localhost:7000",
			Timeout:   120,
			Tolerance: 60,
			Feather:   2,
		},
		Detection: DetectionConfig{
			Backend: BackendSilhouette,
			Model:   "openbmb/minicpm-v4.5",
		},
		Output: OutputConfig{
			Format:    "jpg",
			OutputDir: "./output",
			Suffix:    "_id",
		},
		Server: ServerConfig{
			Addr:        ":8080",
			MaxUploadMB: 20,
		},
	}
}

// LoadFromFile loads configuration from a JSON, TOML or YAML file. Keys
// missing from the file keep their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	switch format := formatOf(filename); format {
	case "json":
		err = json.Unmarshal(data, config)
	case "toml":
		err = toml.Unmarshal(data, config)
	case "yaml":
		err = yaml.Unmarshal(data, config)
	default:
		return nil, fmt.Errorf("unsupported config format %q", filepath.Ext(filename))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration in the format implied by the file extension
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var data []byte
	var err error
	switch format := formatOf(filename); format {
	case "json":
		data, err = json.MarshalIndent(c, "", "  ")
	case "toml":
		var buf bytes.Buffer
		err = toml.NewEncoder(&buf).Encode(c)
		data = buf.Bytes()
	case "yaml":
		data, err = yaml.Marshal(c)
	default:
		return fmt.Errorf("unsupported config format %q", filepath.Ext(filename))
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if _, err := c.Pipeline(); err != nil {
		return err
	}

	if !oneOf(c.Segmentation.Backend, segmentationBackends) {
		return fmt.Errorf("%w: segmentation.backend must be one of %s", types.ErrInvalidParameter, strings.Join(segmentationBackends, ", "))
	}
	if c.Segmentation.Timeout < 0 {
		return fmt.Errorf("%w: segmentation.timeout_seconds must not be negative", types.ErrInvalidParameter)
	}
	if c.Segmentation.Backend == BackendRembg && c.Segmentation.URL == "" {
		return fmt.Errorf("%w: segmentation.url is required for rembg", types.ErrInvalidParameter)
	}
	if c.Segmentation.Tolerance < 0 || c.Segmentation.Feather < 0 {
		return fmt.Errorf("%w: segmentation.tolerance and segmentation.feather must not be negative", types.ErrInvalidParameter)
	}

	if !oneOf(c.Detection.Backend, detectionBackends) {
		return fmt.Errorf("%w: detection.backend must be one of %s", types.ErrInvalidParameter, strings.Join(detectionBackends, ", "))
	}
	switch c.Detection.Backend {
	case BackendPigo:
		if c.Detection.CascadePath == "" {
			return fmt.Errorf("%w: detection.cascade_path is required for pigo", types.ErrInvalidParameter)
		}
	case BackendOllama, BackendLlamaCpp:
		if c.Detection.Model == "" {
			return fmt.Errorf("%w: detection.model is required for %s", types.ErrInvalidParameter, c.Detection.Backend)
		}
	}
	if c.Detection.MinConfidence < 0 || c.Detection.MinConfidence > 1 {
		return fmt.Errorf("%w: detection.min_confidence must be between 0 and 1", types.ErrInvalidParameter)
	}

	if !oneOf(strings.ToLower(c.Output.Format), outputFormats) {
		return fmt.Errorf("%w: output.format must be one of %s", types.ErrInvalidParameter, strings.Join(outputFormats, ", "))
	}
	if c.Server.MaxUploadMB < 1 {
		return fmt.Errorf("%w: server.max_upload_mb must be positive", types.ErrInvalidParameter)
	}

	return nil
}

// PhotoSize resolves the physical photo size
func (c *Config) PhotoSize() (types.PhysicalSize, error) {
	if c.Photo.WidthMM > 0 && c.Photo.HeightMM > 0 {
		return types.PhysicalSize{WidthMM: c.Photo.WidthMM, HeightMM: c.Photo.HeightMM}, nil
	}
	if c.Photo.WidthMM != 0 || c.Photo.HeightMM != 0 {
		return types.PhysicalSize{}, fmt.Errorf("%w: photo.width_mm and photo.height_mm must both be positive", types.ErrInvalidDimension)
	}
	return types.LookupSize(c.Photo.Size)
}

// Pipeline converts the file configuration into a validated job configuration
func (c *Config) Pipeline() (pipeline.Config, error) {
	pc := pipeline.DefaultConfig()

	size, err := c.PhotoSize()
	if err != nil {
		return pc, err
	}
	bg, err := types.ParseColor(c.Photo.Color)
	if err != nil {
		return pc, err
	}

	pc.Size = size
	pc.Background = bg
	pc.DPI = c.Photo.DPI
	pc.Brightness = c.Photo.Brightness
	pc.SubjectCrop = c.Photo.SubjectCrop
	pc.JPEGQuality = c.Photo.Quality

	pc.Sheet = c.Sheet.Enabled
	if c.Sheet.Enabled {
		paper, err := types.LookupPaper(c.Sheet.Paper)
		if err != nil {
			return pc, err
		}
		pc.Paper = paper
	}
	pc.Margin = c.Sheet.Margin
	pc.Gap = c.Sheet.Gap

	if err := pc.Validate(); err != nil {
		return pc, err
	}
	return pc, nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./idphoto.toml"
	}
	return filepath.Join(home, ".config", "idphoto", "config.toml")
}

func formatOf(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return "json"
	case ".toml":
		return "toml"
	case ".yaml", ".yml":
		return "yaml"
	}
	return ""
}

func oneOf(v string, options []string) bool {
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}
