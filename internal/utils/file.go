package utils

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var imageExts = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "gif": true,
	"bmp": true, "tif": true, "tiff": true, "webp": true,
}

// OutputSet names the files written for one source photo
type OutputSet struct {
	Photo string
	Sheet string
	Debug string
}

// Extension returns the lower-case file extension without the dot
func Extension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

// IsImageFile reports whether the file has a decodable image extension
func IsImageFile(filename string) bool {
	return imageExts[Extension(filename)]
}

// IsURL reports whether source should be fetched over HTTP
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// BaseName returns the source name without directory or extension. URLs
// use the last path segment and fall back to "photo".
func BaseName(source string) string {
	name := source
	if IsURL(source) {
		name = "photo"
		if u, err := url.Parse(source); err == nil && u.Path != "" && u.Path != "/" {
			name = path.Base(u.Path)
		}
	}
	name = filepath.Base(name)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	if name = SanitizeFilename(name); name == "" {
		return "photo"
	}
	return name
}

// OutputFiles builds the photo, sheet and debug overlay paths for a source
func OutputFiles(source, outputDir, prefix, suffix, format string) OutputSet {
	format = strings.ToLower(format)
	if format == "" || format == "jpeg" {
		format = "jpg"
	}
	stem := prefix + BaseName(source) + suffix
	return OutputSet{
		Photo: filepath.Join(outputDir, fmt.Sprintf("%s.%s", stem, format)),
		Sheet: filepath.Join(outputDir, stem+"_sheet.jpg"),
		Debug: filepath.Join(outputDir, stem+"_debug.png"),
	}
}

// ListImageFiles recursively lists all image files in a directory
func ListImageFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsImageFile(p) {
			files = append(files, p)
		}
		return nil
	})
	return files, err
}

// DirExists checks if a directory exists
func DirExists(dirname string) bool {
	info, err := os.Stat(dirname)
	return err == nil && info.IsDir()
}

// SanitizeFilename replaces characters that are invalid in file names
func SanitizeFilename(filename string) string {
	result := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, filename)
	return strings.Trim(result, " .")
}

// FormatFileSize formats file size in human-readable format
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}

	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
