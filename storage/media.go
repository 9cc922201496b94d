package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"
	"time"

	"github.com/Mel4sa/WORKNEST-sub000/breaker"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
)

// MediaClient uploads files to the external media service, which answers
// with {"url": "..."} for the stored object.
type MediaClient struct {
	baseURL    string
	apiKey     string
	folder     string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

func NewMediaClient(baseURL, apiKey, folder string) *MediaClient {
	return &MediaClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		folder:  folder,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		breaker: breaker.New("media-service-cb", 10*time.Second),
	}
}

type uploadResponse struct {
	URL string `json:"url"`
}

// objectName keeps the extension and replaces the rest with a uuid, so
// user-supplied names never reach the object store.
func objectName(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return uuid.New().String() + ext
}

func (c *MediaClient) Upload(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, objectName(filename)))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, body); err != nil {
		return "", fmt.Errorf("failed to copy file data: %w", err)
	}
	if c.folder != "" {
		if err := writer.WriteField("folder", c.folder); err != nil {
			return "", fmt.Errorf("failed to write folder field: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", bytes.NewReader(buf.Bytes()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", writer.FormDataContentType())
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return nil, fmt.Errorf("media service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
		}
		var out uploadResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, fmt.Errorf("failed to decode media response: %w", err)
		}
		if out.URL == "" {
			return nil, fmt.Errorf("media service returned no url")
		}
		return out.URL, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}
