package types

import (
	"fmt"
	"strings"
)

// Background colors accepted by the photo offices we target
var (
	Blue  = Color{R: 0, G: 191, B: 255}
	Red   = Color{R: 255, G: 0, B: 0}
	White = Color{R: 255, G: 255, B: 255}
)

// NamedColor pairs a color with its configuration name
type NamedColor struct {
	Name  string
	Color Color
}

// NamedColors returns the supported background colors
func NamedColors() []NamedColor {
	return []NamedColor{{"blue", Blue}, {"red", Red}, {"white", White}}
}

// LookupColor resolves a background color by name
func LookupColor(name string) (Color, bool) {
	for _, nc := range NamedColors() {
		if strings.EqualFold(nc.Name, name) {
			return nc.Color, true
		}
	}
	return Color{}, false
}

// SizePreset is a named photo size
type SizePreset struct {
	Name        string
	Description string
	Size        PhysicalSize
}

// Common photo sizes
var (
	OneInch  = SizePreset{"1inch", "one-inch ID photo", PhysicalSize{25, 35}}
	TwoInch  = SizePreset{"2inch", "two-inch ID photo", PhysicalSize{35, 49}}
	Passport = SizePreset{"passport", "ICAO passport photo", PhysicalSize{35, 45}}
	USPhoto  = SizePreset{"us", "US passport and visa (2x2in)", PhysicalSize{51, 51}}
	Visa     = SizePreset{"visa", "Schengen-style visa photo", PhysicalSize{33, 48}}
)

// SizePresets returns all known photo sizes
func SizePresets() []SizePreset {
	return []SizePreset{OneInch, TwoInch, Passport, USPhoto, Visa}
}

// LookupSize resolves a photo size preset by name
func LookupSize(name string) (PhysicalSize, error) {
	for _, p := range SizePresets() {
		if strings.EqualFold(p.Name, name) {
			return p.Size, nil
		}
	}
	return PhysicalSize{}, fmt.Errorf("%w: unknown size preset %q", ErrInvalidParameter, name)
}

// PaperPreset is a named print sheet
type PaperPreset struct {
	Name string
	Size PhysicalSize
}

// Photo paper formats
var (
	Paper4x6   = PaperPreset{"4x6", PhysicalSize{101.6, 152.4}}
	Paper5x7   = PaperPreset{"5x7", PhysicalSize{127, 177.8}}
	Paper10x15 = PaperPreset{"10x15", PhysicalSize{100, 150}}
	PaperA4    = PaperPreset{"a4", PhysicalSize{210, 297}}
)

// PaperPresets returns all known paper formats
func PaperPresets() []PaperPreset {
	return []PaperPreset{Paper4x6, Paper5x7, Paper10x15, PaperA4}
}

// LookupPaper resolves a paper preset by name
func LookupPaper(name string) (PhysicalSize, error) {
	for _, p := range PaperPresets() {
		if strings.EqualFold(p.Name, name) {
			return p.Size, nil
		}
	}
	return PhysicalSize{}, fmt.Errorf("%w: unknown paper preset %q", ErrInvalidParameter, name)
}
