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

type PexelsPhoto struct {
	Id           int            `json:"id"`
	Width        int            `json:"width"`
	Height       int            `json:"height"`
	Url          string         `json:"url"`
	Alt          string         `json:"alt"`
	Photographer string         `json:"photographer"`
	Src          PexelsPhotoSrc `json:"src"`
}

type PexelsPhotoSrc struct {
	Original string `json:"original"`
	Large    string `json:"large"`
	Medium   string `json:"medium"`
}

type PexelsSearchResult struct {
	TotalResults int           `json:"total_results"`
	Page         int           `json:"page"`
	PerPage      int           `json:"per_page"`
	Photos       []PexelsPhoto `json:"photos"`
}

var pexelsOrientation = map[asset.AspectRatio]string{
	asset.AspectWide:   "landscape",
	asset.AspectTall:   "portrait",
	asset.AspectSquare: "square",
}

var pexelsSize = map[asset.ImageSize]string{
	asset.SizeSmall:  "small",
	asset.SizeMedium: "medium",
	asset.SizeLarge:  "large",
	asset.SizeXLarge: "large",
}

var pexelsColor = map[asset.Color]string{
	asset.ColorRed:    "red",
	asset.ColorBlue:   "blue",
	asset.ColorGreen:  "green",
	asset.ColorYellow: "yellow",
	asset.ColorBlack:  "black",
	asset.ColorWhite:  "white",
}

type PexelsApi struct {
	base
	apiKey string
}

func NewPexels(client *fetch.Client, creds Credentials, logger *zap.Logger) *PexelsApi {
	return &PexelsApi{
		base:   newBase(client, logger, asset.Pexels, creds.BaseUrl, "https://api.pexels.com/v1"),
		apiKey: creds.Key,
	}
}

func (api *PexelsApi) Name() asset.Provider { return asset.Pexels }

func (api *PexelsApi) Ceiling() int { return 80 }

func (api *PexelsApi) Search(ctx context.Context, phrase string, filters asset.SearchFilters, maxResults int) []asset.Asset {
	n := Clamp(maxResults, api.Ceiling())
	req, err := api.request(ctx, phrase, filters, n)
	return settle(&api.base, phrase, n, req, err, api.convert)
}

func (api *PexelsApi) request(ctx context.Context, phrase string, filters asset.SearchFilters, n int) (*http.Request, error) {
	if api.apiKey == "" {
		return nil, errMissingCredentials
	}
	qParam := url.Values{}
	qParam.Add("query", phrase)
	qParam.Add("per_page", strconv.Itoa(n))
	if v, ok := pexelsOrientation[filters.AspectRatio]; ok {
		qParam.Add("orientation", v)
	}
	if v, ok := pexelsSize[filters.ImageSize]; ok {
		qParam.Add("size", v)
	}
	if v, ok := pexelsColor[filters.ColorFilter]; ok {
		qParam.Add("color", v)
	}
	getReq, err := http.NewRequestWithContext(ctx, http.MethodGet, api.baseUrl+"/search?"+qParam.Encode(), nil)
	if err != nil {
		return nil, err
	}
	getReq.Header.Set("Authorization", api.apiKey)
	return getReq, nil
}

func (api *PexelsApi) convert(data *PexelsSearchResult) []asset.Asset {
	output := make([]asset.Asset, len(data.Photos))
	for i, el := range data.Photos {
		w, h := asset.Dimensions(el.Width, el.Height)
		output[i] = asset.Asset{
			Id:              "pexels-" + strconv.Itoa(el.Id),
			PrimaryUrl:      el.Src.Large,
			ThumbnailUrl:    el.Src.Medium,
			Title:           firstNonEmpty(el.Alt, "Untitled"),
			Provider:        asset.Pexels,
			AttributionName: el.Photographer,
			LicenseLabel:    "Pexels License",
			Width:           w,
			Height:          h,
			Tags:            []string{},
		}
	}
	return output
}
