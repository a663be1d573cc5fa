package provider

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Tkdue/magicsearch/internal/asset"
	"github.com/Tkdue/magicsearch/internal/fetch"
	"go.uber.org/zap"
)

// Adapter translates a generic search into one provider's wire protocol and
// normalizes the response. Search never fails: every error is logged and
// turned into an empty result.
type Adapter interface {
	Name() asset.Provider
	// Ceiling is the provider's hard per-call result limit.
	Ceiling() int
	Search(ctx context.Context, phrase string, filters asset.SearchFilters, maxResults int) []asset.Asset
}

// Credentials configure one adapter. BaseUrl overrides the public endpoint.
type Credentials struct {
	Key      string
	EngineId string
	BaseUrl  string
}

var errMissingCredentials = errors.New("credentials not configured")

// Clamp bounds an advisory result count by the provider ceiling.
func Clamp(maxResults, ceiling int) int {
	return min(max(maxResults, 1), ceiling)
}

// base carries what every adapter shares.
type base struct {
	client  *fetch.Client
	baseUrl string
	log     *zap.Logger
}

func newBase(client *fetch.Client, logger *zap.Logger, name asset.Provider, baseUrl, fallback string) base {
	if logger == nil {
		logger = zap.NewNop()
	}
	if baseUrl == "" {
		baseUrl = fallback
	}
	return base{
		client:  client,
		baseUrl: strings.TrimRight(baseUrl, "/"),
		log:     logger.Named(strings.ToLower(string(name))),
	}
}

// settle runs one prepared provider request and absorbs any failure: a
// request that could not be built, a transport error, a non-2xx status or
// a malformed body all yield an empty slice. The result holds only assets
// with at least one URL and never exceeds limit.
func settle[T any](b *base, phrase string, limit int, req *http.Request, err error, convert func(*T) []asset.Asset) []asset.Asset {
	if err != nil {
		b.log.Warn("search skipped", zap.String("phrase", phrase), zap.Error(err))
		return []asset.Asset{}
	}
	fp := fetch.Fingerprint(req)
	var data T
	if err := b.client.JSON(req, &data); err != nil {
		b.log.Warn("search failed",
			zap.String("phrase", phrase),
			zap.String("req", fp),
			zap.Int("status", fetch.StatusCode(err)),
			zap.Error(err))
		return []asset.Asset{}
	}
	items := convert(&data)
	out := make([]asset.Asset, 0, len(items))
	for _, it := range items {
		if !it.HasUrl() {
			continue
		}
		out = append(out, it)
		if len(out) == limit {
			break
		}
	}
	b.log.Debug("search done", zap.String("phrase", phrase), zap.String("req", fp), zap.Int("results", len(out)))
	return out
}

// NewMediaAdapters builds the six media adapters in fan-out order. A
// provider with missing credentials still gets an adapter; it just returns
// nothing.
func NewMediaAdapters(client *fetch.Client, creds map[asset.Provider]Credentials, logger *zap.Logger) []Adapter {
	return []Adapter{
		NewGoogle(client, creds[asset.Google], logger),
		NewUnsplash(client, creds[asset.Unsplash], logger),
		NewPixabay(client, creds[asset.Pixabay], logger),
		NewPexels(client, creds[asset.Pexels], logger),
		NewFreepik(client, creds[asset.Freepik], logger),
		NewEnvato(client, creds[asset.Envato], logger),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
