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

type UnsplashPhoto struct {
	Id             string             `json:"id"`
	Width          int                `json:"width"`
	Height         int                `json:"height"`
	Description    string             `json:"description"`
	AltDescription string             `json:"alt_description"`
	User           UnsplashUser       `json:"user"`
	Urls           UnsplashUrls       `json:"urls"`
	Links          UnsplashPhotoLinks `json:"links"`
	Tags           tagList            `json:"tags"`
}

type UnsplashUser struct {
	Id       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

type UnsplashPhotoLinks struct {
	Html     string `json:"html"`
	Download string `json:"download"`
}

type UnsplashUrls struct {
	Raw     string `json:"raw"`
	Full    string `json:"full"`
	Regular string `json:"regular"`
	Thumb   string `json:"thumb"`
}

type UnsplashSearchResult struct {
	Total      int             `json:"total"`
	TotalPages int             `json:"total_pages"`
	Results    []UnsplashPhoto `json:"results"`
}

var unsplashOrientation = map[asset.AspectRatio]string{
	asset.AspectWide:   "landscape",
	asset.AspectTall:   "portrait",
	asset.AspectSquare: "squarish",
}

var unsplashColor = map[asset.Color]string{
	asset.ColorRed:       "red",
	asset.ColorBlue:      "blue",
	asset.ColorGreen:     "green",
	asset.ColorYellow:    "yellow",
	asset.ColorBlack:     "black",
	asset.ColorWhite:     "white",
	asset.ColorGrayscale: "black_and_white",
}

type UnsplashApi struct {
	base
	accessKey string
}

func NewUnsplash(client *fetch.Client, creds Credentials, logger *zap.Logger) *UnsplashApi {
	return &UnsplashApi{
		base:      newBase(client, logger, asset.Unsplash, creds.BaseUrl, "https://api.unsplash.com"),
		accessKey: creds.Key,
	}
}

func (unsp *UnsplashApi) Name() asset.Provider { return asset.Unsplash }

func (unsp *UnsplashApi) Ceiling() int { return 30 }

func (unsp *UnsplashApi) Search(ctx context.Context, phrase string, filters asset.SearchFilters, maxResults int) []asset.Asset {
	n := Clamp(maxResults, unsp.Ceiling())
	req, err := unsp.request(ctx, phrase, filters, n)
	return settle(&unsp.base, phrase, n, req, err, unsp.convert)
}

func (unsp *UnsplashApi) request(ctx context.Context, phrase string, filters asset.SearchFilters, n int) (*http.Request, error) {
	if unsp.accessKey == "" {
		return nil, errMissingCredentials
	}
	qParam := url.Values{}
	qParam.Add("query", phrase)
	qParam.Add("per_page", strconv.Itoa(n))
	if v, ok := unsplashOrientation[filters.AspectRatio]; ok {
		qParam.Add("orientation", v)
	}
	if v, ok := unsplashColor[filters.ColorFilter]; ok {
		qParam.Add("color", v)
	}
	getReq, err := http.NewRequestWithContext(ctx, http.MethodGet, unsp.baseUrl+"/search/photos?"+qParam.Encode(), nil)
	if err != nil {
		return nil, err
	}
	getReq.Header.Set("Accept-Version", "v1")
	getReq.Header.Set("Authorization", "Client-ID "+unsp.accessKey)
	return getReq, nil
}

func (unsp *UnsplashApi) convert(data *UnsplashSearchResult) []asset.Asset {
	output := make([]asset.Asset, len(data.Results))
	for i, el := range data.Results {
		w, h := asset.Dimensions(el.Width, el.Height)
		output[i] = asset.Asset{
			Id:              "unsplash-" + el.Id,
			PrimaryUrl:      el.Urls.Regular,
			ThumbnailUrl:    el.Urls.Thumb,
			Title:           firstNonEmpty(el.AltDescription, el.Description, "Untitled"),
			Provider:        asset.Unsplash,
			AttributionName: el.User.Name,
			LicenseLabel:    "Unsplash License",
			Width:           w,
			Height:          h,
			Tags:            tags(el.Tags),
		}
	}
	return output
}
