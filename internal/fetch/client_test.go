package fetch

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastClient() *Client {
	c := New(nil, nil)
	c.RetryWait = time.Millisecond
	return c
}

func TestDoDecodesBrotli(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("Accept-Encoding"), "br")
		var buf bytes.Buffer
		bw := brotli.NewWriter(&buf)
		bw.Write([]byte(`{"hello":"world"}`))
		bw.Close()
		w.Header().Set("Content-Encoding", "br")
		w.Write(buf.Bytes())
	}))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	var out map[string]string
	require.NoError(t, fastClient().JSON(req, &out))
	assert.Equal(t, "world", out["hello"])
}

func TestJSONStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"bad key"}`))
	}))
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	var out map[string]any
	err := fastClient().JSON(req, &out)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, StatusCode(err))
	assert.Contains(t, err.Error(), "bad key")
}

func TestJSONMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>nope</html>`))
	}))
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	var out map[string]any
	err := fastClient().JSON(req, &out)
	require.Error(t, err)
	assert.Equal(t, 0, StatusCode(err))
}

func TestDownloadRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("PNGDATA"))
	}))
	defer srv.Close()

	data, err := fastClient().Download(context.Background(), srv.URL+"/a.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("PNGDATA"), data)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDownloadNotFoundIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := fastClient().Download(context.Background(), srv.URL+"/missing.jpg")
	require.Error(t, err)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDownloadRejectsOversizedBody(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path == "/fits.jpg" {
			w.Write(bytes.Repeat([]byte("x"), 16))
			return
		}
		w.Write(bytes.Repeat([]byte("x"), 17))
	}))
	defer srv.Close()

	c := fastClient()
	c.MaxBody = 16

	data, err := c.Download(context.Background(), srv.URL+"/big.jpg")
	require.ErrorIs(t, err, ErrBodyTooLarge)
	assert.Nil(t, data)
	assert.Equal(t, int32(1), calls.Load(), "oversized bodies are not retried")

	data, err = c.Download(context.Background(), srv.URL+"/fits.jpg")
	require.NoError(t, err)
	assert.Len(t, data, 16)
}

func TestNewClientBodyLimit(t *testing.T) {
	assert.Equal(t, int64(MaxBodySize), New(nil, nil).MaxBody)
}

func TestFingerprintStable(t *testing.T) {
	a, _ := http.NewRequest(http.MethodGet, "https://api.example.com/search?q=sunset", nil)
	b, _ := http.NewRequest(http.MethodGet, "https://api.example.com/search?q=sunset", nil)
	c, _ := http.NewRequest(http.MethodGet, "https://api.example.com/search?q=beach", nil)
	assert.Equal(t, Fingerprint(a), Fingerprint(b))
	assert.NotEqual(t, Fingerprint(a), Fingerprint(c))
	assert.Len(t, Fingerprint(a), 12)
}

func TestIsRetryableStatus(t *testing.T) {
	for _, code := range []int{429, 500, 502, 503, 504} {
		assert.True(t, IsRetryableStatus(code), code)
	}
	for _, code := range []int{200, 400, 401, 404} {
		assert.False(t, IsRetryableStatus(code), code)
	}
}
