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

type PixabaySearchItem struct {
	Id            int     `json:"id"`
	Tags          tagList `json:"tags"`
	PreviewUrl    string  `json:"previewURL"`
	WebFormatUrl  string  `json:"webformatURL"`
	LargeImageUrl string  `json:"largeImageURL"`
	ImageWidth    int     `json:"imageWidth"`
	ImageHeight   int     `json:"imageHeight"`
	Type          string  `json:"type"`
	User          string  `json:"user"`
	PageUrl       string  `json:"pageURL"`
}

type PixabaySearchResult struct {
	Total     int                 `json:"total"`
	TotalHits int                 `json:"totalHits"`
	Hits      []PixabaySearchItem `json:"hits"`
}

// Pixabay rejects per_page below this.
const pixabayMinPerPage = 3

var pixabayImageType = map[asset.ImageType]string{
	asset.TypePhoto:        "photo",
	asset.TypeIllustration: "illustration",
	asset.TypeVector:       "vector",
}

var pixabayOrientation = map[asset.AspectRatio]string{
	asset.AspectWide: "horizontal",
	asset.AspectTall: "vertical",
}

var pixabayColor = map[asset.Color]string{
	asset.ColorRed:       "red",
	asset.ColorBlue:      "blue",
	asset.ColorGreen:     "green",
	asset.ColorYellow:    "yellow",
	asset.ColorBlack:     "black",
	asset.ColorWhite:     "white",
	asset.ColorGrayscale: "grayscale",
}

type minSize struct{ width, height int }

var pixabayMinSize = map[asset.ImageSize]minSize{
	asset.SizeSmall:  {640, 480},
	asset.SizeMedium: {1280, 720},
	asset.SizeLarge:  {1920, 1080},
	asset.SizeXLarge: {2560, 1440},
}

type PixabayApi struct {
	base
	apiKey string
}

func NewPixabay(client *fetch.Client, creds Credentials, logger *zap.Logger) *PixabayApi {
	return &PixabayApi{
		base:   newBase(client, logger, asset.Pixabay, creds.BaseUrl, "https://pixabay.com/api"),
		apiKey: creds.Key,
	}
}

func (api *PixabayApi) Name() asset.Provider { return asset.Pixabay }

func (api *PixabayApi) Ceiling() int { return 20 }

func (api *PixabayApi) Search(ctx context.Context, phrase string, filters asset.SearchFilters, maxResults int) []asset.Asset {
	n := Clamp(maxResults, api.Ceiling())
	req, err := api.request(ctx, phrase, filters, n)
	return settle(&api.base, phrase, n, req, err, api.convert)
}

func (api *PixabayApi) request(ctx context.Context, phrase string, filters asset.SearchFilters, n int) (*http.Request, error) {
	if api.apiKey == "" {
		return nil, errMissingCredentials
	}
	qParam := url.Values{}
	qParam.Add("key", api.apiKey)
	qParam.Add("q", phrase)
	qParam.Add("per_page", strconv.Itoa(max(n, pixabayMinPerPage)))
	qParam.Add("safesearch", "true")
	if v, ok := pixabayImageType[filters.ImageType]; ok {
		qParam.Add("image_type", v)
	} else {
		qParam.Add("image_type", "all")
	}
	if v, ok := pixabayOrientation[filters.AspectRatio]; ok {
		qParam.Add("orientation", v)
	}
	if v, ok := pixabayColor[filters.ColorFilter]; ok {
		qParam.Add("colors", v)
	}
	if v, ok := pixabayMinSize[filters.ImageSize]; ok {
		qParam.Add("min_width", strconv.Itoa(v.width))
		qParam.Add("min_height", strconv.Itoa(v.height))
	}
	return http.NewRequestWithContext(ctx, http.MethodGet, api.baseUrl+"/?"+qParam.Encode(), nil)
}

func (api *PixabayApi) convert(data *PixabaySearchResult) []asset.Asset {
	output := make([]asset.Asset, len(data.Hits))
	for i, el := range data.Hits {
		w, h := asset.Dimensions(el.ImageWidth, el.ImageHeight)
		output[i] = asset.Asset{
			Id:              "pixabay-" + strconv.Itoa(el.Id),
			PrimaryUrl:      el.WebFormatUrl,
			ThumbnailUrl:    el.PreviewUrl,
			Title:           joinTags(el.Tags),
			Provider:        asset.Pixabay,
			AttributionName: el.User,
			LicenseLabel:    "Pixabay License",
			Width:           w,
			Height:          h,
			Tags:            tags(el.Tags),
			Category:        el.Type,
		}
	}
	return output
}
