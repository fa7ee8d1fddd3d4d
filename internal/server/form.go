package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/menta2k/idphoto/pkg/pipeline"
	"github.com/menta2k/idphoto/pkg/types"
)

// ParseJob overlays the request's form fields on the defaults. Empty
// fields keep the default value. Sheet fields are read only when sheet is set.
func ParseJob(r *http.Request, defaults pipeline.Config, sheet bool) (pipeline.Config, error) {
	cfg := defaults
	cfg.Sheet = sheet

	if name := r.FormValue("size"); name != "" {
		size, err := types.LookupSize(name)
		if err != nil {
			return cfg, err
		}
		cfg.Size = size
	}

	w, h := r.FormValue("width_mm"), r.FormValue("height_mm")
	if w != "" || h != "" {
		if w == "" || h == "" {
			return cfg, fmt.Errorf("%w: width_mm and height_mm must be given together", types.ErrInvalidDimension)
		}
		var err error
		if cfg.Size.WidthMM, err = parseFloat("width_mm", w); err != nil {
			return cfg, err
		}
		if cfg.Size.HeightMM, err = parseFloat("height_mm", h); err != nil {
			return cfg, err
		}
	}

	if v := r.FormValue("color"); v != "" {
		c, err := types.ParseColor(v)
		if err != nil {
			return cfg, err
		}
		cfg.Background = c
	}

	var err error
	if v := r.FormValue("dpi"); v != "" {
		if cfg.DPI, err = parseFloat("dpi", v); err != nil {
			return cfg, err
		}
	}
	if v := r.FormValue("brightness"); v != "" {
		if cfg.Brightness, err = parseFloat("brightness", v); err != nil {
			return cfg, err
		}
	}
	if v := r.FormValue("subject_crop"); v != "" {
		if cfg.SubjectCrop, err = strconv.ParseBool(v); err != nil {
			return cfg, fmt.Errorf("%w: subject_crop %q is not a boolean", types.ErrInvalidParameter, v)
		}
	}

	if !sheet {
		return cfg, nil
	}

	if name := r.FormValue("paper"); name != "" {
		paper, err := types.LookupPaper(name)
		if err != nil {
			return cfg, err
		}
		cfg.Paper = paper
	}
	if v := r.FormValue("margin"); v != "" {
		if cfg.Margin, err = parseInt("margin", v); err != nil {
			return cfg, err
		}
	}
	if v := r.FormValue("gap"); v != "" {
		if cfg.Gap, err = parseInt("gap", v); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

func parseFloat(field, v string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not a number", types.ErrInvalidParameter, field, v)
	}
	return f, nil
}

func parseInt(field, v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not an integer", types.ErrInvalidParameter, field, v)
	}
	return n, nil
}
