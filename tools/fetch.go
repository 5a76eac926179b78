package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxImageBytes = 10 << 20

// ImageFetcher downloads image content referenced by a record.
type ImageFetcher struct {
	HTTPClient *http.Client
	MaxBytes   int
}

func NewImageFetcher() *ImageFetcher {
	return &ImageFetcher{HTTPClient: &http.Client{Timeout: 30 * time.Second}, MaxBytes: maxImageBytes}
}

func (f *ImageFetcher) Fetch(ctx context.Context, url string) (InlineImage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return InlineImage{}, err
	}
	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return InlineImage{}, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return InlineImage{}, fmt.Errorf("fetch image: status %d", resp.StatusCode)
	}

	limit := f.MaxBytes
	if limit <= 0 {
		limit = maxImageBytes
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, int64(limit)+1))
	if err != nil {
		return InlineImage{}, fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 {
		return InlineImage{}, fmt.Errorf("fetch image: empty body")
	}
	if len(data) > limit {
		return InlineImage{}, fmt.Errorf("fetch image: larger than %d bytes", limit)
	}

	mime := strings.TrimSpace(resp.Header.Get("Content-Type"))
	if !IsImageContentType(mime) {
		mime = http.DetectContentType(data)
	}
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	return InlineImage{MIMEType: mime, Data: data}, nil
}
