// Package server exposes the photo pipeline over HTTP.
//
// Routes:
//
//	POST /v1/photo    multipart "image" plus job fields, returns the photo JPEG
//	POST /v1/sheet    same, plus paper/margin/gap, returns the print sheet JPEG
//	GET  /v1/presets  JSON list of sizes, colors and papers
//	GET  /healthz     liveness check
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/menta2k/idphoto/pkg/pipeline"
	"github.com/menta2k/idphoto/pkg/types"
	"github.com/menta2k/idphoto/pkg/units"
)

// DefaultMaxUpload limits the multipart body when no limit is configured
const DefaultMaxUpload = 20 << 20

// Response headers
const (
	HeaderRequestID    = "X-Request-ID"
	HeaderCropStrategy = "X-Crop-Strategy"
	HeaderTileCount    = "X-Tile-Count"
)

// Server serves pipeline jobs. Every request starts from the defaults and
// overrides them with its form fields.
type Server struct {
	pipeline  *pipeline.Pipeline
	defaults  pipeline.Config
	logger    *log.Logger
	maxUpload int64
	router    chi.Router
}

// New creates a server around a shared pipeline
func New(p *pipeline.Pipeline, defaults pipeline.Config, logger *log.Logger, maxUpload int64) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUpload
	}

	s := &Server{
		pipeline:  p,
		defaults:  defaults,
		logger:    logger,
		maxUpload: maxUpload,
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(s.accessLog)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, "ok")
	})
	r.Route("/v1", func(r chi.Router) {
		r.Get("/presets", s.handlePresets)
		r.Post("/photo", s.handlePhoto)
		r.Post("/sheet", s.handleSheet)
	})

	s.router = r
	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handlePhoto(w http.ResponseWriter, r *http.Request) {
	result, ok := s.run(w, r, false)
	if !ok {
		return
	}
	w.Header().Set(HeaderCropStrategy, string(result.Strategy))
	writeJPEG(w, result.PhotoJPEG)
}

func (s *Server) handleSheet(w http.ResponseWriter, r *http.Request) {
	result, ok := s.run(w, r, true)
	if !ok {
		return
	}
	w.Header().Set(HeaderCropStrategy, string(result.Strategy))
	w.Header().Set(HeaderTileCount, strconv.Itoa(result.Sheet.Count))
	writeJPEG(w, result.SheetJPEG)
}

// run parses the upload and executes the pipeline. It writes the error
// response itself and reports whether the caller should continue.
func (s *Server) run(w http.ResponseWriter, r *http.Request, sheet bool) (*pipeline.Result, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		s.fail(w, r, fmt.Errorf("%w: %v", types.ErrInvalidParameter, err))
		return nil, false
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("image")
	if err != nil {
		s.fail(w, r, fmt.Errorf("%w: missing image upload", types.ErrInvalidParameter))
		return nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.fail(w, r, fmt.Errorf("%w: reading upload: %v", types.ErrInvalidParameter, err))
		return nil, false
	}

	cfg, err := ParseJob(r, s.defaults, sheet)
	if err != nil {
		s.fail(w, r, err)
		return nil, false
	}

	result, err := s.pipeline.Run(r.Context(), data, cfg)
	if err != nil {
		s.fail(w, r, err)
		return nil, false
	}
	return result, true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= 500 {
		s.logger.Error("request failed", "id", w.Header().Get(HeaderRequestID), "path", r.URL.Path, "err", err)
	} else {
		s.logger.Debug("rejected request", "id", w.Header().Get(HeaderRequestID), "path", r.URL.Path, "err", err)
	}
	http.Error(w, err.Error(), status)
}

// StatusFor maps pipeline errors to HTTP status codes
func StatusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrInvalidDimension),
		errors.Is(err, types.ErrInvalidParameter),
		errors.Is(err, types.ErrDimensionMismatch):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrSegmentationFailure):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

type presetSize struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	WidthMM     float64 `json:"width_mm"`
	HeightMM    float64 `json:"height_mm"`
	WidthPx     int     `json:"width_px"`
	HeightPx    int     `json:"height_px"`
}

type presetColor struct {
	Name string `json:"name"`
	Hex  string `json:"hex"`
}

type presetPaper struct {
	Name     string  `json:"name"`
	WidthMM  float64 `json:"width_mm"`
	HeightMM float64 `json:"height_mm"`
}

// Presets is the body of GET /v1/presets. Pixel sizes use the server's DPI.
type Presets struct {
	DPI    float64       `json:"dpi"`
	Sizes  []presetSize  `json:"sizes"`
	Colors []presetColor `json:"colors"`
	Papers []presetPaper `json:"papers"`
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	body := Presets{DPI: s.defaults.DPI}
	for _, p := range types.SizePresets() {
		px, err := units.ToPixels(p.Size, s.defaults.DPI)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		body.Sizes = append(body.Sizes, presetSize{
			Name:        p.Name,
			Description: p.Description,
			WidthMM:     p.Size.WidthMM,
			HeightMM:    p.Size.HeightMM,
			WidthPx:     px.Width,
			HeightPx:    px.Height,
		})
	}
	for _, c := range types.NamedColors() {
		body.Colors = append(body.Colors, presetColor{Name: c.Name, Hex: c.Color.Hex()})
	}
	for _, p := range types.PaperPresets() {
		body.Papers = append(body.Papers, presetPaper{Name: p.Name, WidthMM: p.Size.WidthMM, HeightMM: p.Size.HeightMM})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("encoding presets", "err", err)
	}
}

func writeJPEG(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

// requestID tags every request and response with an id, keeping one the
// client already sent
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"id", ww.Header().Get(HeaderRequestID),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", time.Since(start).Round(time.Millisecond),
		)
	})
}
