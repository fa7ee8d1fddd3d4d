package segmentation

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// DefaultRembgURL is where `rembg s` listens by default
const DefaultRembgURL = "http://localhost:7000"

// RembgClient talks to a rembg HTTP server
type RembgClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewRembgClient creates a client for the rembg server at serverURL
func NewRembgClient(serverURL string, timeout time.Duration) *RembgClient {
	if serverURL == "" {
		serverURL = DefaultRembgURL
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	return &RembgClient{
		baseURL: strings.TrimSuffix(serverURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Segment uploads the image to /api/remove and returns the PNG cutout
func (c *RembgClient) Segment(ctx context.Context, encoded []byte) ([]byte, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "image")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %v", err)
	}
	if _, err := part.Write(encoded); err != nil {
		return nil, fmt.Errorf("failed to write form file: %v", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart body: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/remove", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rembg returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("rembg returned an empty body")
	}

	return data, nil
}
