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

type GoogleImage struct {
	ContextLink   string `json:"contextLink"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	ThumbnailLink string `json:"thumbnailLink"`
}

type GoogleItem struct {
	Title       string      `json:"title"`
	Link        string      `json:"link"`
	DisplayLink string      `json:"displayLink"`
	Mime        string      `json:"mime"`
	Image       GoogleImage `json:"image"`
}

type GoogleSearchResult struct {
	Items []GoogleItem `json:"items"`
}

var googleSize = map[asset.ImageSize]string{
	asset.SizeSmall:  "small",
	asset.SizeMedium: "medium",
	asset.SizeLarge:  "large",
	asset.SizeXLarge: "xlarge",
}

var googleImageType = map[asset.ImageType]string{
	asset.TypePhoto:        "photo",
	asset.TypeIllustration: "clipart",
	asset.TypeVector:       "lineart",
}

var googleDominantColor = map[asset.Color]string{
	asset.ColorRed:    "red",
	asset.ColorBlue:   "blue",
	asset.ColorGreen:  "green",
	asset.ColorYellow: "yellow",
	asset.ColorBlack:  "black",
	asset.ColorWhite:  "white",
}

var googleRights = map[asset.UsageRights]string{
	asset.RightsFree:            "cc_publicdomain|cc_attribute|cc_sharealike",
	asset.RightsCommercial:      "cc_publicdomain|cc_attribute|cc_sharealike|cc_nonderived",
	asset.RightsCreativeCommons: "cc_publicdomain|cc_attribute|cc_sharealike|cc_noncommercial|cc_nonderived",
}

// GoogleApi queries a Programmable Search Engine in image mode.
type GoogleApi struct {
	base
	apiKey   string
	engineId string
}

func NewGoogle(client *fetch.Client, creds Credentials, logger *zap.Logger) *GoogleApi {
	return &GoogleApi{
		base:     newBase(client, logger, asset.Google, creds.BaseUrl, "https://www.googleapis.com/customsearch/v1"),
		apiKey:   creds.Key,
		engineId: creds.EngineId,
	}
}

func (api *GoogleApi) Name() asset.Provider { return asset.Google }

func (api *GoogleApi) Ceiling() int { return 10 }

func (api *GoogleApi) Search(ctx context.Context, phrase string, filters asset.SearchFilters, maxResults int) []asset.Asset {
	n := Clamp(maxResults, api.Ceiling())
	req, err := api.request(ctx, phrase, filters, n)
	return settle(&api.base, phrase, n, req, err, api.convert)
}

func (api *GoogleApi) request(ctx context.Context, phrase string, filters asset.SearchFilters, n int) (*http.Request, error) {
	if api.apiKey == "" || api.engineId == "" {
		return nil, errMissingCredentials
	}
	qParam := url.Values{}
	qParam.Add("key", api.apiKey)
	qParam.Add("cx", api.engineId)
	qParam.Add("q", phrase)
	qParam.Add("searchType", "image")
	qParam.Add("num", strconv.Itoa(n))
	if v, ok := googleSize[filters.ImageSize]; ok {
		qParam.Add("imgSize", v)
	}
	if v, ok := googleImageType[filters.ImageType]; ok {
		qParam.Add("imgType", v)
	}
	if filters.ColorFilter == asset.ColorGrayscale {
		qParam.Add("imgColorType", "gray")
	} else if v, ok := googleDominantColor[filters.ColorFilter]; ok {
		qParam.Add("imgDominantColor", v)
	}
	if v, ok := googleRights[filters.UsageRights]; ok {
		qParam.Add("rights", v)
	}
	return http.NewRequestWithContext(ctx, http.MethodGet, api.baseUrl+"?"+qParam.Encode(), nil)
}

func (api *GoogleApi) convert(data *GoogleSearchResult) []asset.Asset {
	output := make([]asset.Asset, len(data.Items))
	for i, el := range data.Items {
		w, h := asset.Dimensions(el.Image.Width, el.Image.Height)
		output[i] = asset.Asset{
			Id:              "google-" + strconv.Itoa(i),
			PrimaryUrl:      el.Link,
			ThumbnailUrl:    firstNonEmpty(el.Image.ThumbnailLink, el.Link),
			Title:           el.Title,
			Provider:        asset.Google,
			AttributionName: el.DisplayLink,
			LicenseLabel:    "Mixed",
			Width:           w,
			Height:          h,
			Tags:            []string{},
		}
	}
	return output
}
