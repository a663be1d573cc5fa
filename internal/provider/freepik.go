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

type FreepikSource struct {
	Url  string `json:"url"`
	Size string `json:"size"`
}

type FreepikResource struct {
	Id      flexString `json:"id"`
	Title   string     `json:"title"`
	Url     string     `json:"url"`
	Premium bool       `json:"premium"`
	Image   struct {
		Type   string        `json:"type"`
		Source FreepikSource `json:"source"`
	} `json:"image"`
	Thumbnail struct {
		Url string `json:"url"`
	} `json:"thumbnail"`
	Author struct {
		Name string `json:"name"`
	} `json:"author"`
	Tags     tagList `json:"tags"`
	Category string  `json:"category"`
}

type FreepikSearchResult struct {
	Data []FreepikResource `json:"data"`
}

var freepikContentType = map[asset.ImageType]string{
	asset.TypePhoto:        "photo",
	asset.TypeVector:       "vector",
	asset.TypeIllustration: "psd",
}

var freepikOrientation = map[asset.AspectRatio]string{
	asset.AspectWide:   "landscape",
	asset.AspectTall:   "portrait",
	asset.AspectSquare: "square",
}

var freepikColor = map[asset.Color]string{
	asset.ColorRed:    "red",
	asset.ColorBlue:   "blue",
	asset.ColorGreen:  "green",
	asset.ColorYellow: "yellow",
	asset.ColorBlack:  "black",
	asset.ColorWhite:  "white",
}

// FreepikApi searches the Freepik resources catalog. Individual items may
// be premium-licensed, but the catalog as a whole is not, so assets are
// never flagged premium.
type FreepikApi struct {
	base
	apiKey string
}

func NewFreepik(client *fetch.Client, creds Credentials, logger *zap.Logger) *FreepikApi {
	return &FreepikApi{
		base:   newBase(client, logger, asset.Freepik, creds.BaseUrl, "https://api.freepik.com/v1"),
		apiKey: creds.Key,
	}
}

func (api *FreepikApi) Name() asset.Provider { return asset.Freepik }

func (api *FreepikApi) Ceiling() int { return 20 }

func (api *FreepikApi) Search(ctx context.Context, phrase string, filters asset.SearchFilters, maxResults int) []asset.Asset {
	n := Clamp(maxResults, api.Ceiling())
	req, err := api.request(ctx, phrase, filters, n)
	return settle(&api.base, phrase, n, req, err, api.convert)
}

func (api *FreepikApi) request(ctx context.Context, phrase string, filters asset.SearchFilters, n int) (*http.Request, error) {
	if api.apiKey == "" {
		return nil, errMissingCredentials
	}
	qParam := url.Values{}
	qParam.Add("term", phrase)
	qParam.Add("limit", strconv.Itoa(n))
	if v, ok := freepikContentType[filters.ImageType]; ok {
		qParam.Add("filters[content_type]["+v+"]", "1")
	}
	if v, ok := freepikOrientation[filters.AspectRatio]; ok {
		qParam.Add("filters[orientation]["+v+"]", "1")
	}
	if v, ok := freepikColor[filters.ColorFilter]; ok {
		qParam.Add("filters[color]", v)
	}
	if filters.UsageRights == asset.RightsFree {
		qParam.Add("filters[license][freemium]", "1")
	}
	getReq, err := http.NewRequestWithContext(ctx, http.MethodGet, api.baseUrl+"/resources?"+qParam.Encode(), nil)
	if err != nil {
		return nil, err
	}
	getReq.Header.Set("x-freepik-api-key", api.apiKey)
	return getReq, nil
}

func (api *FreepikApi) convert(data *FreepikSearchResult) []asset.Asset {
	output := make([]asset.Asset, len(data.Data))
	for i, el := range data.Data {
		license := "Freepik Free"
		if el.Premium {
			license = "Freepik Premium"
		}
		w, h := asset.Dimensions(parseSize(el.Image.Source.Size))
		output[i] = asset.Asset{
			Id:              "freepik-" + string(el.Id),
			PrimaryUrl:      firstNonEmpty(el.Image.Source.Url, el.Thumbnail.Url),
			ThumbnailUrl:    firstNonEmpty(el.Thumbnail.Url, el.Image.Source.Url),
			Title:           firstNonEmpty(el.Title, "Freepik Resource"),
			Provider:        asset.Freepik,
			AttributionName: el.Author.Name,
			LicenseLabel:    license,
			Width:           w,
			Height:          h,
			Tags:            tags(el.Tags),
			Category:        firstNonEmpty(el.Category, el.Image.Type),
		}
	}
	return output
}
