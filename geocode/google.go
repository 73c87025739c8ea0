package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const DefaultGoogleURL = "https://maps.googleapis.com/maps/api/geocode/json"

const (
	googleStatusOK          = "OK"
	googleStatusZeroResults = "ZERO_RESULTS"
)

// StatusError is returned for any provider status other than OK and
// ZERO_RESULTS.
type StatusError struct {
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return "geocode: provider status " + e.Status
	}
	return fmt.Sprintf("geocode: provider status %s: %s", e.Status, e.Message)
}

// Google talks to the Google Geocoding API.
type Google struct {
	endpoint   string
	apiKey     string
	region     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

type GoogleOption func(*Google)

func WithGoogleEndpoint(endpoint string) GoogleOption {
	return func(g *Google) {
		if strings.TrimSpace(endpoint) != "" {
			g.endpoint = endpoint
		}
	}
}

func WithGoogleHTTPClient(client *http.Client) GoogleOption {
	return func(g *Google) {
		if client != nil {
			g.httpClient = client
		}
	}
}

// WithGoogleRate caps requests per second.
func WithGoogleRate(perSecond float64, burst int) GoogleOption {
	return func(g *Google) {
		if perSecond <= 0 {
			g.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

func NewGoogle(apiKey string, opts ...GoogleOption) *Google {
	g := &Google{
		endpoint:   DefaultGoogleURL,
		apiKey:     apiKey,
		region:     "au",
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Every(20*time.Millisecond), 10),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type googleResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

func (g *Google) Geocode(ctx context.Context, query string) (Result, error) {
	if strings.TrimSpace(query) == "" {
		return Result{Found: false}, nil
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return Result{}, err
	}

	params := url.Values{}
	params.Set("address", query)
	params.Set("key", g.apiKey)
	if g.region != "" {
		params.Set("region", g.region)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint, nil)
	if err != nil {
		return Result{}, eris.Wrap(err, "geocode: build request")
	}
	req.URL.RawQuery = params.Encode()
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return Result{}, eris.Wrap(err, "geocode: google request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, eris.Errorf("geocode: status %d", resp.StatusCode)
	}
	var body googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Result{}, eris.Wrap(err, "geocode: invalid google response")
	}

	switch body.Status {
	case googleStatusOK:
		if len(body.Results) == 0 {
			return Result{Found: false}, nil
		}
		first := body.Results[0]
		return Result{
			Lat:              first.Geometry.Location.Lat,
			Lng:              first.Geometry.Location.Lng,
			Found:            true,
			FormattedAddress: first.FormattedAddress,
		}, nil
	case googleStatusZeroResults:
		return Result{Found: false}, nil
	default:
		return Result{}, &StatusError{Status: body.Status, Message: body.ErrorMessage}
	}
}
