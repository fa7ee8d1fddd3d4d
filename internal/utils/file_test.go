package utils

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func TestIsImageFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"photo.JPG", true},
		{"scan.tiff", true},
		{"portrait.webp", true},
		{"notes.txt", false},
		{"noext", false},
	}
	for _, tt := range tests {
		if got := IsImageFile(tt.name); got != tt.want {
			t.Errorf("IsImageFile(%q) = %v, expected %v", tt.name, got, tt.want)
		}
	}
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"/tmp/me.jpg", "me"},
		{"shots/anna smith.png", "anna smith"},
		{"https://example.com/img/face.webp?size=large", "face"},
		{"https://example.com/", "photo"},
		{"...", "photo"},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			if got := BaseName(tt.source); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestOutputFiles(t *testing.T) {
	set := OutputFiles("in/me.png", "out", "id_", "_blue", "JPEG")
	want := OutputSet{
		Photo: filepath.Join("out", "id_me_blue.jpg"),
		Sheet: filepath.Join("out", "id_me_blue_sheet.jpg"),
		Debug: filepath.Join("out", "id_me_blue_debug.png"),
	}
	if set != want {
		t.Errorf("Expected %+v, got %+v", want, set)
	}

	if got := OutputFiles("me.png", "out", "", "", "webp").Photo; got != filepath.Join("out", "me.webp") {
		t.Errorf("Expected webp photo, got %s", got)
	}
}

func TestListImageFiles(t *testing.T) {
	dir := t.TempDir()
	os.MkdirAll(filepath.Join(dir, "sub"), 0755)
	for _, name := range []string{"a.jpg", "sub/b.png", "readme.md"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	files, err := ListImageFiles(dir)
	if err != nil {
		t.Fatalf("ListImageFiles failed: %v", err)
	}
	sort.Strings(files)
	if len(files) != 2 || filepath.Base(files[0]) != "a.jpg" || filepath.Base(files[1]) != "b.png" {
		t.Errorf("Unexpected files %v", files)
	}

	if !DirExists(dir) || DirExists(filepath.Join(dir, "a.jpg")) {
		t.Error("DirExists misreported")
	}
}

func TestSanitizeFilename(t *testing.T) {
	if got := SanitizeFilename(" a/b:c*d. "); got != "a_b_c_d" {
		t.Errorf("Expected a_b_c_d, got %q", got)
	}
}

func TestFormatFileSize(t *testing.T) {
	tests := map[int64]string{
		512:         "512 B",
		2048:        "2.0 KB",
		5 << 20:     "5.0 MB",
		3 << 30 / 2: "1.5 GB",
	}
	for size, want := range tests {
		if got := FormatFileSize(size); got != want {
			t.Errorf("FormatFileSize(%d) = %s, expected %s", size, got, want)
		}
	}
}
