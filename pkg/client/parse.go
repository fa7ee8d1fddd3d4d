package client

import (
	"encoding/json"
	"math"
	"regexp"
	"strings"

	"github.com/menta2k/idphoto/pkg/types"
)

var (
	reBlock    = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLine     = regexp.MustCompile(`(?m)^\s*//.*$`)
	reInline   = regexp.MustCompile(`(?m)//.*$`)
	reTrailing = regexp.MustCompile(`,(\s*[}\]])`)
)

// faceReply mirrors the JSON the face prompt asks for. Found is a pointer so
// a reply that only carries a box still counts as a detection.
type faceReply struct {
	Found      *bool     `json:"found"`
	Confidence float64   `json:"confidence"`
	Box        types.Box `json:"box"`
}

// ParseFaceResult turns a model reply into a FaceResult. Replies that cannot
// be parsed report no face rather than an error so callers fall back to a
// center crop.
func ParseFaceResult(raw string) (*types.FaceResult, error) {
	raw = SanitizeModelJSON(raw)

	if !strings.HasPrefix(raw, "{") {
		return &types.FaceResult{}, nil
	}

	var reply faceReply
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		return &types.FaceResult{}, nil
	}

	box := normalizeBox(reply.Box)
	found := !box.Empty()
	if reply.Found != nil {
		found = found && *reply.Found
	}
	if !found {
		return &types.FaceResult{Confidence: reply.Confidence}, nil
	}

	return &types.FaceResult{
		Found:      true,
		Confidence: reply.Confidence,
		Box:        box,
	}, nil
}

// normalizeBox accepts percentages as well as fractions. Fractions that
// overshoot the frame a little are clamped, not rescaled.
func normalizeBox(b types.Box) types.Box {
	m := math.Max(math.Max(b.X, b.Y), math.Max(b.X+b.W, b.Y+b.H))
	if m > 2 && m <= 100 {
		b = types.Box{X: b.X / 100, Y: b.Y / 100, W: b.W / 100, H: b.H / 100}
	}
	return b.Clamp()
}

// SanitizeModelJSON removes code fences, comments, and trailing commas from JSON response
func SanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	// Strip triple-backtick fences if present
	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.TrimSpace(raw)
	raw = strings.Trim(raw, "`")

	raw = reBlock.ReplaceAllString(raw, "")
	raw = reLine.ReplaceAllString(raw, "")
	raw = reInline.ReplaceAllString(raw, "")
	raw = reTrailing.ReplaceAllString(raw, "$1")

	// Keep only the outermost {...}
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}
