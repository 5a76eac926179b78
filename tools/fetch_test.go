package tools

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

func imageServer(t *testing.T, status int, contentType string, body []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestImageFetcher_Fetch(t *testing.T) {
	srv := imageServer(t, http.StatusOK, "image/jpeg; charset=binary", []byte("jpeg-bytes"))

	img, err := NewImageFetcher().Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", img.MIMEType)
	assert.Equal(t, []byte("jpeg-bytes"), img.Data)
}

func TestImageFetcher_SniffsWhenContentTypeIsNotAnImage(t *testing.T) {
	srv := imageServer(t, http.StatusOK, "application/octet-stream", pngBytes)

	img, err := NewImageFetcher().Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIMEType)
}

func TestImageFetcher_Failures(t *testing.T) {
	cases := map[string]struct {
		status int
		body   []byte
		msg    string
	}{
		"not found":   {http.StatusNotFound, []byte("gone"), "status 404"},
		"server down": {http.StatusBadGateway, nil, "status 502"},
		"empty body":  {http.StatusOK, nil, "empty body"},
		"too large":   {http.StatusOK, bytes.Repeat([]byte("x"), 65), "larger than 64 bytes"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			srv := imageServer(t, tc.status, "image/png", tc.body)
			f := NewImageFetcher()
			f.MaxBytes = 64

			_, err := f.Fetch(context.Background(), srv.URL)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}

func TestImageFetcher_BodyAtTheCapIsAccepted(t *testing.T) {
	srv := imageServer(t, http.StatusOK, "image/png", bytes.Repeat([]byte("x"), 64))
	f := NewImageFetcher()
	f.MaxBytes = 64

	img, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, img.Data, 64)
}
