package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Tkdue/magicsearch/internal/asset"
	"github.com/Tkdue/magicsearch/internal/expand"
	"github.com/Tkdue/magicsearch/internal/fetch"
	"github.com/Tkdue/magicsearch/internal/provider"
	"github.com/Tkdue/magicsearch/internal/search"
	"github.com/Tkdue/magicsearch/internal/storage"
	"github.com/Tkdue/magicsearch/internal/transfer"
	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubAdapter struct {
	name asset.Provider
	n    int
}

func (s stubAdapter) Name() asset.Provider { return s.name }
func (s stubAdapter) Ceiling() int         { return 80 }

func (s stubAdapter) Search(_ context.Context, phrase string, _ asset.SearchFilters, _ int) []asset.Asset {
	out := make([]asset.Asset, s.n)
	for i := range out {
		out[i] = asset.Asset{
			Id:         fmt.Sprintf("%s-%d", s.name, i),
			Title:      fmt.Sprintf("%s %s %d", s.name, phrase, i),
			PrimaryUrl: "https://cdn.example.com/x.jpg",
			Provider:   s.name,
			Width:      1920,
			Height:     1080,
			IsPremium:  s.name == asset.Envato,
			Tags:       []string{},
		}
	}
	return out
}

type stubFetch struct{}

func (stubFetch) Download(_ context.Context, rawUrl string) ([]byte, error) {
	if strings.Contains(rawUrl, "missing") {
		return nil, &fetch.StatusError{StatusCode: http.StatusNotFound}
	}
	return []byte("img"), nil
}

func testApp(t *testing.T) *app {
	t.Helper()
	cfg := &Config{}
	cfg.Transfer.Dir = filepath.Join(t.TempDir(), "downloads")
	cfg.Journal.File = filepath.Join(t.TempDir(), "journal.db")
	cfg.setDefaults()

	var adapters []provider.Adapter
	for _, p := range asset.MediaProviders {
		adapters = append(adapters, stubAdapter{name: p, n: 5})
	}
	journal, err := storage.OpenJournal(cfg.Journal.File, nil)
	require.NoError(t, err)
	a := &app{
		cfg:      cfg,
		log:      zap.NewNop(),
		search:   search.New(adapters, expand.New(nil), nil),
		pipeline: transfer.New(stubFetch{}, &transfer.BatchThrottle{Size: 3}, nil),
		journal:  journal,
	}
	a.pipeline.Observe(a.record)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestSearchEndpoint(t *testing.T) {
	a := testApp(t)
	rec := httptest.NewRecorder()
	a.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search?q=sunset&q=beach&count=12", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var res searchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "sunset beach", res.Query)
	assert.Len(t, res.Results, 12)
	assert.Equal(t, asset.Envato, res.Results[0].Provider)
}

func TestSearchEndpointPaging(t *testing.T) {
	a := testApp(t)
	rec := httptest.NewRecorder()
	a.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search?q=cat&count=10&page=2", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var res searchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 2, res.Page)
	assert.Len(t, res.Results, 10)
}

func TestSearchEndpointPageLimit(t *testing.T) {
	a := testApp(t)
	for _, page := range []string{"41", "99999999999"} {
		rec := httptest.NewRecorder()
		a.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search?q=cat&count=10&page="+page, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, page)
		assert.Contains(t, rec.Body.String(), "page must be at most 40", page)
	}

	rec := httptest.NewRecorder()
	a.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search?q=cat&count=1&page=40", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var res searchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, MaxPage, res.Page)
	assert.Empty(t, res.Results, "past the end of the candidates")
}

func TestSearchEndpointBrotli(t *testing.T) {
	a := testApp(t)
	req := httptest.NewRequest(http.MethodGet, "/search?q=cat&count=3", nil)
	req.Header.Set("Accept-Encoding", "br")
	rec := httptest.NewRecorder()
	a.routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "br", rec.Header().Get("Content-Encoding"))
	var res searchResponse
	require.NoError(t, json.NewDecoder(brotli.NewReader(rec.Body)).Decode(&res))
	assert.Len(t, res.Results, 3)
}

func TestSearchEndpointErrors(t *testing.T) {
	a := testApp(t)
	for _, target := range []string{"/search", "/search?q=%20", "/search?q=cat&count=0", "/search?q=cat&count=x", "/search?q=cat&type=fuzzy"} {
		rec := httptest.NewRecorder()
		a.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.Contains(t, rec.Body.String(), "error", target)
	}

	rec := httptest.NewRecorder()
	a.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTransferEndpoint(t *testing.T) {
	a := testApp(t)
	body, _ := json.Marshal(transferRequest{
		Dir: "../../escape",
		Assets: []asset.Asset{
			{Id: "1", Title: "One", PrimaryUrl: "https://cdn.example.com/1.png"},
			{Id: "2", Title: "Two", PrimaryUrl: "https://cdn.example.com/missing.jpg"},
		},
	})
	rec := httptest.NewRecorder()
	a.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/transfer", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	var report transfer.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 1, report.Failed)

	_, err := os.Stat(filepath.Join(a.cfg.Transfer.Dir, "escape", "One.png"))
	assert.NoError(t, err)

	runs, err := a.journal.Runs(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, report.RunId.String(), runs[0].Id)
	assert.Equal(t, 1, runs[0].Failed)
}

func TestTransferEndpointErrors(t *testing.T) {
	a := testApp(t)
	cases := map[string]string{
		"empty assets":   `{"assets": []}`,
		"bad body":       `{`,
		"drive disabled": `{"folder": "cats", "assets": [{"id": "1", "primaryUrl": "https://x/1.jpg"}]}`,
	}
	for name, body := range cases {
		rec := httptest.NewRecorder()
		a.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/transfer", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
	}
}

func TestTransferOneEndpoint(t *testing.T) {
	a := testApp(t)
	cases := []struct {
		body string
		want bool
	}{
		{`{"asset": {"id": "1", "title": "ok", "primaryUrl": "https://x/ok.jpg"}}`, true},
		{`{"asset": {"id": "2", "title": "gone", "primaryUrl": "https://x/missing.jpg"}}`, false},
	}
	for _, tc := range cases {
		body, want := tc.body, tc.want
		rec := httptest.NewRecorder()
		a.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/transfer/one", strings.NewReader(body)))
		require.Equal(t, http.StatusOK, rec.Code)
		var res map[string]bool
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Equal(t, want, res["ok"], body)
	}

	rec := httptest.NewRecorder()
	a.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/transfer/one", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryEndpoint(t *testing.T) {
	a := testApp(t)
	body := `{"assets": [{"id": "1", "title": "a", "primaryUrl": "https://x/a.jpg"}]}`
	rec := httptest.NewRecorder()
	a.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/transfer", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)
	var report transfer.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))

	rec = httptest.NewRecorder()
	a.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/history?run="+report.RunId.String(), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []storage.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "a.jpg", entries[0].Name)
}

func TestConfine(t *testing.T) {
	assert.Equal(t, "root", confine("root", ""))
	assert.Equal(t, filepath.Join("root", "a", "b"), confine("root", "a/b"))
	assert.Equal(t, filepath.Join("root", "etc"), confine("root", "../../etc"))
}
