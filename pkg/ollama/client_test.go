package ollama

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func chatServer(t *testing.T, content string, seen *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		body, _ := io.ReadAll(r.Body)
		if seen != nil {
			json.Unmarshal(body, seen)
		}

		reply, _ := json.Marshal(map[string]any{
			"model":   "test",
			"message": map[string]string{"role": "assistant", "content": content},
			"done":    true,
		})
		w.Header().Set("Content-Type", "application/x-ndjson")
		w.Write(append(reply, '\n'))
	}))
}

func TestNewClient(t *testing.T) {
	if _, err := NewClient("http://localhost:11434/api/chat"); err != nil {
		t.Errorf("Expected valid URL, got %v", err)
	}
	if _, err := NewClient(""); err != nil {
		t.Errorf("Expected default URL, got %v", err)
	}
	if _, err := NewClient("not a url"); err == nil {
		t.Error("Expected error for URL without scheme")
	}
}

func TestLocateFace(t *testing.T) {
	var seen map[string]any
	server := chatServer(t, `{"found": true, "confidence": 0.8, "box": {"x": 0.4, "y": 0.2, "w": 0.2, "h": 0.25}}`, &seen)
	defer server.Close()

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	res, err := c.LocateFace(context.Background(), "llava", "where is the face?", "aGVsbG8=")
	if err != nil {
		t.Fatalf("LocateFace failed: %v", err)
	}
	if !res.Found || res.Box.W < 0.19 || res.Box.W > 0.21 {
		t.Errorf("Unexpected result %+v", res)
	}

	if seen["model"] != "llava" {
		t.Errorf("Expected model llava in request, got %v", seen["model"])
	}
	if seen["format"] != "json" {
		t.Errorf("Expected json format in request, got %v", seen["format"])
	}
}

func TestSimpleQuery(t *testing.T) {
	server := chatServer(t, "a person in front of a wall", nil)
	defer server.Close()

	c, _ := NewClient(server.URL)
	got, err := c.SimpleQuery(context.Background(), "llava", "describe", "")
	if err != nil {
		t.Fatalf("SimpleQuery failed: %v", err)
	}
	if !strings.Contains(got, "person") {
		t.Errorf("Unexpected reply %q", got)
	}
}

func TestLocateFaceRejectsBadImage(t *testing.T) {
	c, _ := NewClient("http://127.0.0.1:1")
	if _, err := c.LocateFace(context.Background(), "m", "p", "***"); err == nil {
		t.Error("Expected base64 error")
	}
}
