package processing

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

var jfifIdent = []byte("JFIF\x00")

// SetJPEGDensity stamps a JFIF APP0 segment with dpi x dpi dots per inch
// into an encoded JPEG. An existing JFIF header right after SOI is patched in
// place, otherwise a new one is inserted.
func SetJPEGDensity(data []byte, dpi float64) ([]byte, error) {
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return nil, fmt.Errorf("not a JPEG stream")
	}
	d := uint16(math.Max(1, math.Min(65535, math.Round(dpi))))

	if hasJFIF(data) {
		out := append([]byte(nil), data...)
		out[13] = 1
		binary.BigEndian.PutUint16(out[14:16], d)
		binary.BigEndian.PutUint16(out[16:18], d)
		return out, nil
	}

	app0 := make([]byte, 0, 18)
	app0 = append(app0, 0xFF, 0xE0, 0x00, 0x10)
	app0 = append(app0, jfifIdent...)
	app0 = append(app0, 0x01, 0x01) // version 1.01
	app0 = append(app0, 0x01)       // units: dots per inch
	app0 = binary.BigEndian.AppendUint16(app0, d)
	app0 = binary.BigEndian.AppendUint16(app0, d)
	app0 = append(app0, 0x00, 0x00) // no thumbnail

	out := make([]byte, 0, len(data)+len(app0))
	out = append(out, data[:2]...)
	out = append(out, app0...)
	out = append(out, data[2:]...)
	return out, nil
}

// JPEGDensity reads the JFIF density of an encoded JPEG. ok is false when
// the stream has no JFIF header or the density is not in dots per inch.
func JPEGDensity(data []byte) (x, y int, ok bool) {
	if !hasJFIF(data) || data[13] != 1 {
		return 0, 0, false
	}
	return int(binary.BigEndian.Uint16(data[14:16])), int(binary.BigEndian.Uint16(data[16:18])), true
}

func hasJFIF(data []byte) bool {
	return len(data) >= 18 &&
		data[0] == 0xFF && data[1] == 0xD8 &&
		data[2] == 0xFF && data[3] == 0xE0 &&
		bytes.Equal(data[6:11], jfifIdent)
}
