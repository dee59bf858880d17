// Package upload talks to the external image-upload endpoint.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/loggier/app-corte/internal/form"
)

// DefaultBaseURL is used when BACKEND_BASE_URL is unset.
const DefaultBaseURL = "http://49.12.123.80:3000"

// devHost is the local development host the upload backend sometimes still
// reports in its URLs; responses are rewritten to the public base.
const devHost = "http://localhost:3000"

// Client posts pending files to {BaseURL}/upload as one multipart request.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient builds a client for the configured backend. An empty baseURL
// falls back to the BACKEND_BASE_URL environment variable, then to the
// hardcoded default.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("BACKEND_BASE_URL")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: http.DefaultClient,
	}
}

type uploadResponse struct {
	URLs []string `json:"urls"`
}

// Upload sends every file as a "files" part and returns the URLs the backend
// assigned, already rewritten onto the public base. A non-2xx status or a
// response without a urls array is an error; nothing is retried.
func (c *Client) Upload(ctx context.Context, files []form.File) ([]string, error) {
	if len(files) == 0 {
		return nil, nil
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for _, f := range files {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, f.Name))
		header.Set("Content-Type", f.ContentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, fmt.Errorf("failed to build multipart body: %w", err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, fmt.Errorf("failed to write file %s: %w", f.Name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/upload", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.WithFields(log.Fields{"status": resp.StatusCode, "files": len(files)}).Error("image upload rejected")
		return nil, fmt.Errorf("image upload failed: %s", resp.Status)
	}

	var parsed uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("invalid response from image upload server: %w", err)
	}
	if parsed.URLs == nil {
		return nil, fmt.Errorf("invalid response format from image upload server")
	}

	urls := make([]string, len(parsed.URLs))
	for i, u := range parsed.URLs {
		urls[i] = c.RewriteHost(u)
	}
	log.WithField("count", len(urls)).Info("images uploaded")
	return urls, nil
}

// RewriteHost maps a URL still pointing at the local development host onto
// the configured public base.
func (c *Client) RewriteHost(url string) string {
	if strings.HasPrefix(url, devHost) {
		return c.BaseURL + strings.TrimPrefix(url, devHost)
	}
	return url
}
