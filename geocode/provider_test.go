package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNominatimGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "1 Collins St, Melbourne, VIC, 3000, Australia", r.URL.Query().Get("q"))
		assert.Equal(t, "au,nz", r.URL.Query().Get("countrycodes"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`[{"lat":"-37.8150","lon":"144.9700","display_name":"Collins Street"}]`))
	}))
	defer srv.Close()

	n := NewNominatim(WithBaseURL(srv.URL), WithMinInterval(0))
	res, err := n.Geocode(context.Background(), "1 Collins St, Melbourne, VIC, 3000, Australia")
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, -37.815, res.Lat)
	assert.Equal(t, 144.97, res.Lng)
	assert.Equal(t, "Collins Street", res.FormattedAddress)
}

func TestNominatimEmptyAndErrors(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()
	n := NewNominatim(WithBaseURL(srv.URL), WithMinInterval(0))

	res, err := n.Geocode(context.Background(), "nowhere")
	require.NoError(t, err)
	assert.False(t, res.Found)

	status.Store(http.StatusTooManyRequests)
	_, err = n.Geocode(context.Background(), "nowhere")
	assert.Error(t, err)

	res, err = n.Geocode(context.Background(), "  ")
	require.NoError(t, err)
	assert.False(t, res.Found)
}

func TestNominatimBadResponses(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{name: "server error", status: http.StatusBadGateway, body: "upstream", wantMsg: "nominatim status 502: upstream"},
		{name: "not json", status: http.StatusOK, body: "<html>", wantMsg: "invalid nominatim response"},
		{name: "bad latitude", status: http.StatusOK, body: `[{"lat":"north","lon":"1"}]`, wantMsg: "nominatim latitude"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			n := NewNominatim(WithBaseURL(srv.URL+"/"), WithMinInterval(0), WithCountryCodes(""))
			_, err := n.Geocode(context.Background(), "somewhere")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestGoogleStatuses(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantFound bool
		wantErr   bool
		wantLat   float64
	}{
		{
			name:      "ok",
			body:      `{"status":"OK","results":[{"formatted_address":"Adelaide SA","geometry":{"location":{"lat":-34.92,"lng":138.6}}}]}`,
			wantFound: true,
			wantLat:   -34.92,
		},
		{
			name: "zero results",
			body: `{"status":"ZERO_RESULTS","results":[]}`,
		},
		{
			name:    "denied",
			body:    `{"status":"REQUEST_DENIED","error_message":"bad key"}`,
			wantErr: true,
		},
		{
			name:    "invalid json",
			body:    `<html>`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "secret", r.URL.Query().Get("key"))
				assert.Equal(t, "Adelaide, SA, Australia", r.URL.Query().Get("address"))
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			g := NewGoogle("secret", WithGoogleEndpoint(srv.URL), WithGoogleRate(0, 0))
			res, err := g.Geocode(context.Background(), "Adelaide, SA, Australia")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFound, res.Found)
			assert.Equal(t, tt.wantLat, res.Lat)
		})
	}
}

func TestGoogleStatusErrorMessage(t *testing.T) {
	err := &StatusError{Status: "OVER_QUERY_LIMIT", Message: "slow down"}
	assert.Equal(t, "geocode: provider status OVER_QUERY_LIMIT: slow down", err.Error())
}
