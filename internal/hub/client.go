// Package hub is a minimal client for pushing files into a hosted dataset
// repository over its HTTP upload API.
package hub

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const DefaultBaseURL = "https://huggingface.co"

// Client uploads files into a dataset repo.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func New(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// UploadFile writes data to the given path inside the dataset repo,
// overwriting any previous version.
func (c *Client) UploadFile(ctx context.Context, repo, path string, data []byte) error {
	url := fmt.Sprintf("%s/api/datasets/%s/upload/main/%s", c.baseURL, repo, path)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("upload %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("upload %s: status %d: %s", path, resp.StatusCode, body)
	}
	return nil
}
