package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/Tkdue/magicsearch/internal/asset"
	"github.com/Tkdue/magicsearch/internal/search"
	"github.com/andybalholm/brotli"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultCount = 20

var errDriveNotConfigured = errors.New("drive folder not configured")

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP search API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		srv := &http.Server{Addr: a.cfg.Server.Addr, Handler: a.routes()}
		go func() {
			<-ctx.Done()
			shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdown)
		}()

		a.log.Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func (a *app) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, a.requestLog)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("Not Found"))
	})
	r.Get("/search", a.handleSearch)
	r.Post("/transfer", a.handleTransfer)
	r.Post("/transfer/one", a.handleTransferOne)
	r.Get("/history", a.handleHistory)
	return r
}

func (a *app) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		a.log.Info("request",
			zap.String("id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)))
	})
}

type searchResponse struct {
	Query      string        `json:"query"`
	Phrases    []string      `json:"phrases"`
	Page       int           `json:"page"`
	Candidates int           `json:"candidates"`
	Duplicates int           `json:"duplicates"`
	Results    []asset.Asset `json:"results"`
}

func (a *app) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q, hasQ := query["q"]
	if !hasQ {
		a.writeError(w, r, http.StatusBadRequest, "Query Search Parameter ?q= missing")
		return
	}
	count, err := intParam(query.Get("count"), defaultCount)
	if err != nil {
		a.writeError(w, r, http.StatusBadRequest, "count must be a number")
		return
	}
	page, err := intParam(query.Get("page"), 1)
	if err != nil {
		page = 1
	}
	if page > MaxPage {
		a.writeError(w, r, http.StatusBadRequest, "page must be at most "+strconv.Itoa(MaxPage))
		return
	}
	searchType := asset.Specific
	if t := query.Get("type"); t != "" {
		searchType = asset.SearchType(strings.ToLower(t))
	}

	// Non-positive counts are left to the orchestrator to reject.
	window := PageSrc{Page: 1, First: 0, Last: count}
	if count > 0 {
		window = GetResPage(page, count)
	}
	res, err := a.search.Search(r.Context(), search.Request{
		Query:             strings.Join(q, " "),
		Type:              searchType,
		Filters:           asset.ParseFilters(query.Get("size"), query.Get("imageType"), query.Get("color"), query.Get("aspect"), query.Get("rights")),
		AdditionalContext: query.Get("context"),
		DesiredCount:      window.Last,
	})
	if err != nil {
		a.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	a.writeJSON(w, r, http.StatusOK, searchResponse{
		Query:      res.Query,
		Phrases:    res.Phrases,
		Page:       window.Page,
		Candidates: res.Candidates,
		Duplicates: res.Duplicates,
		Results:    window.Slice(res.Assets),
	})
}

type transferRequest struct {
	Folder string        `json:"folder"`
	Dir    string        `json:"dir"`
	Assets []asset.Asset `json:"assets"`
	Asset  *asset.Asset  `json:"asset"`
}

func (a *app) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	sink, err := a.sink(req.Folder, req.Dir, time.Now())
	if err != nil {
		a.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	report, err := a.pipeline.TransferAll(r.Context(), req.Assets, sink)
	if err != nil {
		a.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	a.writeJSON(w, r, http.StatusOK, report)
}

func (a *app) handleTransferOne(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Asset == nil {
		a.writeError(w, r, http.StatusBadRequest, "asset is required")
		return
	}
	sink, err := a.sink(req.Folder, req.Dir, time.Now())
	if err != nil {
		a.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	ok := a.pipeline.TransferOne(r.Context(), *req.Asset, sink)
	a.writeJSON(w, r, http.StatusOK, map[string]bool{"ok": ok})
}

func (a *app) handleHistory(w http.ResponseWriter, r *http.Request) {
	if run := r.URL.Query().Get("run"); run != "" {
		entries, err := a.journal.Entries(r.Context(), run)
		if err != nil {
			a.writeError(w, r, http.StatusInternalServerError, err.Error())
			return
		}
		a.writeJSON(w, r, http.StatusOK, entries)
		return
	}
	limit, _ := intParam(r.URL.Query().Get("limit"), 20)
	runs, err := a.journal.Runs(r.Context(), limit)
	if err != nil {
		a.writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	a.writeJSON(w, r, http.StatusOK, runs)
}

func (a *app) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	body := brotli.HTTPCompressor(w, r)
	defer body.Close()
	w.WriteHeader(status)
	enc := json.NewEncoder(body)
	if a.cfg.Debug.PrettyJson {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		a.log.Warn("encode response", zap.Error(err))
	}
}

func (a *app) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	a.writeJSON(w, r, status, map[string]string{"error": msg})
}

func intParam(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(raw, 10, 0)
	if err != nil {
		return fallback, err
	}
	return int(n), nil
}

// confine resolves dir below root; ".." segments cannot escape it.
func confine(root, dir string) string {
	if dir == "" {
		return root
	}
	return filepath.Join(root, filepath.Clean("/"+dir))
}
