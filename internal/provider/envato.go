package provider

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Tkdue/magicsearch/internal/asset"
	"github.com/Tkdue/magicsearch/internal/fetch"
	"go.uber.org/zap"
)

type EnvatoImageUrl struct {
	Url    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type EnvatoPreviews struct {
	IconWithVideoPreview struct {
		IconUrl      string           `json:"icon_url"`
		LandscapeUrl string           `json:"landscape_url"`
		ImageUrls    []EnvatoImageUrl `json:"image_urls"`
	} `json:"icon_with_video_preview"`
	LandscapePreview struct {
		LandscapeUrl string `json:"landscape_url"`
	} `json:"landscape_preview"`
}

type EnvatoItem struct {
	Id             flexString     `json:"id"`
	Name           string         `json:"name"`
	AuthorUsername string         `json:"author_username"`
	Url            string         `json:"url"`
	Classification string         `json:"classification"`
	Tags           tagList        `json:"tags"`
	Previews       EnvatoPreviews `json:"previews"`
}

type EnvatoSearchResult struct {
	Matches []EnvatoItem `json:"matches"`
}

// EnvatoApi searches the Envato market catalog. Everything it sells is
// paid, so every asset is premium. No search filter maps onto this
// endpoint without it rejecting the request.
type EnvatoApi struct {
	base
	token string
}

func NewEnvato(client *fetch.Client, creds Credentials, logger *zap.Logger) *EnvatoApi {
	return &EnvatoApi{
		base:  newBase(client, logger, asset.Envato, creds.BaseUrl, "https://api.envato.com/v1"),
		token: creds.Key,
	}
}

func (api *EnvatoApi) Name() asset.Provider { return asset.Envato }

func (api *EnvatoApi) Ceiling() int { return 50 }

func (api *EnvatoApi) Search(ctx context.Context, phrase string, _ asset.SearchFilters, maxResults int) []asset.Asset {
	n := Clamp(maxResults, api.Ceiling())
	req, err := api.request(ctx, phrase, n)
	return settle(&api.base, phrase, n, req, err, api.convert)
}

func (api *EnvatoApi) request(ctx context.Context, phrase string, n int) (*http.Request, error) {
	if api.token == "" {
		return nil, errMissingCredentials
	}
	qParam := url.Values{}
	qParam.Add("term", phrase)
	qParam.Add("page_size", strconv.Itoa(n))
	getReq, err := http.NewRequestWithContext(ctx, http.MethodGet, api.baseUrl+"/discovery/search/search/item?"+qParam.Encode(), nil)
	if err != nil {
		return nil, err
	}
	getReq.Header.Set("Authorization", "Bearer "+api.token)
	getReq.Header.Set("User-Agent", "Mozilla/5.0 (compatible; MagicSearch/1.0)")
	return getReq, nil
}

func (api *EnvatoApi) convert(data *EnvatoSearchResult) []asset.Asset {
	output := make([]asset.Asset, len(data.Matches))
	for i, el := range data.Matches {
		preview := el.Previews.IconWithVideoPreview
		var first EnvatoImageUrl
		if len(preview.ImageUrls) > 0 {
			first = preview.ImageUrls[0]
		}
		primary := firstNonEmpty(preview.LandscapeUrl, first.Url, el.Previews.LandscapePreview.LandscapeUrl)
		w, h := asset.Dimensions(first.Width, first.Height)
		output[i] = asset.Asset{
			Id:              "envato-" + string(el.Id),
			PrimaryUrl:      primary,
			ThumbnailUrl:    firstNonEmpty(preview.IconUrl, primary),
			Title:           firstNonEmpty(el.Name, "Envato Item"),
			Provider:        asset.Envato,
			AttributionName: el.AuthorUsername,
			LicenseLabel:    "Envato Standard License",
			Width:           w,
			Height:          h,
			IsPremium:       true,
			Tags:            tags(el.Tags),
			Category:        el.Classification,
		}
	}
	return output
}
