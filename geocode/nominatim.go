package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const (
	DefaultNominatimURL = "https://nominatim.openstreetmap.org"

	// The public instance allows one request per second.
	nominatimInterval  = time.Second
	nominatimUserAgent = "icnatlas-geocoder/0.1"
	nominatimCountries = "au,nz"
	errorBodyLimit     = 200
)

// Nominatim resolves addresses through an OpenStreetMap Nominatim search
// endpoint, restricted to Australia and New Zealand.
type Nominatim struct {
	baseURL      string
	httpClient   *http.Client
	userAgent    string
	countryCodes string
	limiter      *rate.Limiter
}

type NominatimOption func(*Nominatim)

func WithBaseURL(baseURL string) NominatimOption {
	return func(n *Nominatim) {
		if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
			n.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

func WithHTTPClient(client *http.Client) NominatimOption {
	return func(n *Nominatim) {
		if client != nil {
			n.httpClient = client
		}
	}
}

func WithUserAgent(userAgent string) NominatimOption {
	return func(n *Nominatim) {
		if userAgent = strings.TrimSpace(userAgent); userAgent != "" {
			n.userAgent = userAgent
		}
	}
}

// WithCountryCodes replaces the comma separated countrycodes filter. Empty
// searches worldwide.
func WithCountryCodes(codes string) NominatimOption {
	return func(n *Nominatim) {
		n.countryCodes = strings.TrimSpace(codes)
	}
}

// WithMinInterval spaces requests at least interval apart. Zero disables
// limiting.
func WithMinInterval(interval time.Duration) NominatimOption {
	return func(n *Nominatim) {
		n.limiter = newLimiter(interval)
	}
}

func NewNominatim(opts ...NominatimOption) *Nominatim {
	n := &Nominatim{
		baseURL:      DefaultNominatimURL,
		httpClient:   http.DefaultClient,
		userAgent:    nominatimUserAgent,
		countryCodes: nominatimCountries,
		limiter:      newLimiter(nominatimInterval),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// nominatimPlace is one element of the jsonv2 search response. Coordinates
// arrive as decimal strings.
type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocode returns the best match for query. An empty result list is a miss,
// not an error.
func (n *Nominatim) Geocode(ctx context.Context, query string) (Result, error) {
	if n == nil {
		return Result{}, eris.New("geocode: nominatim is nil")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return Result{Found: false}, nil
	}
	if err := n.limiter.Wait(ctx); err != nil {
		return Result{}, eris.Wrap(err, "geocode: nominatim rate limit")
	}

	req, err := n.searchRequest(ctx, query)
	if err != nil {
		return Result{}, err
	}
	resp, err := n.httpClient.Do(req)
	if err != nil {
		return Result{}, eris.Wrap(err, "geocode: nominatim request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return Result{}, eris.Errorf("geocode: nominatim status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return Result{}, eris.Wrap(err, "geocode: invalid nominatim response")
	}
	if len(places) == 0 {
		return Result{Found: false}, nil
	}
	return places[0].result()
}

func (n *Nominatim) searchRequest(ctx context.Context, query string) (*http.Request, error) {
	params := url.Values{}
	params.Set("format", "jsonv2")
	params.Set("limit", "1")
	params.Set("q", query)
	if n.countryCodes != "" {
		params.Set("countrycodes", n.countryCodes)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/search", nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: build nominatim request")
	}
	req.URL.RawQuery = params.Encode()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", n.userAgent)
	return req, nil
}

func (p nominatimPlace) result() (Result, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return Result{}, eris.Wrapf(err, "geocode: nominatim latitude %q", p.Lat)
	}
	lng, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return Result{}, eris.Wrapf(err, "geocode: nominatim longitude %q", p.Lon)
	}
	return Result{Lat: lat, Lng: lng, Found: true, FormattedAddress: p.DisplayName}, nil
}

func newLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}
