package geocode

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCensusGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/locations/onelineaddress", r.URL.Path)
		assert.Contains(t, r.URL.Query().Get("address"), "123 Main St")
		assert.Equal(t, "Public_AR_Current", r.URL.Query().Get("benchmark"))

		w.Write([]byte(`{"result":{"addressMatches":[{
			"coordinates":{"x":-89.6501,"y":39.7817},
			"matchedAddress":"123 MAIN ST, SPRINGFIELD, IL, 62704"
		}]}}`))
	}))
	defer srv.Close()

	c := NewCensusClient(WithCensusBaseURL(srv.URL))
	res, err := c.Geocode(t.Context(), Address{Street: "123 Main St", City: "Springfield", State: "IL"})
	require.NoError(t, err)

	assert.True(t, res.Matched)
	assert.InDelta(t, 39.7817, res.Latitude, 1e-9)
	assert.InDelta(t, -89.6501, res.Longitude, 1e-9)
	assert.Equal(t, "123 MAIN ST", res.Standardized.Street)
	assert.Equal(t, "SPRINGFIELD", res.Standardized.City)
	assert.Equal(t, "IL", res.Standardized.State)
	assert.Equal(t, "62704", res.Standardized.Zip)
	assert.Equal(t, "census", res.Source)
}

func TestCensusGeocode_NoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":{"addressMatches":[]}}`))
	}))
	defer srv.Close()

	c := NewCensusClient(WithCensusBaseURL(srv.URL))
	res, err := c.Geocode(t.Context(), Address{Street: "1 Nowhere Ln", State: "IL"})
	require.NoError(t, err, "an unmatched address is not an error")
	assert.False(t, res.Matched)
}

func TestCensusGeocode_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewCensusClient(WithCensusBaseURL(srv.URL))
	_, err := c.Geocode(t.Context(), Address{Street: "123 Main St", State: "IL"})
	assert.Error(t, err)
}

func TestCensusGeocode_RetriesTransientStatus(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"result":{"addressMatches":[]}}`))
	}))
	defer srv.Close()

	c := NewCensusClient(WithCensusBaseURL(srv.URL))
	res, err := c.Geocode(t.Context(), Address{Street: "123 Main St", State: "IL"})
	require.NoError(t, err)
	assert.False(t, res.Matched)
	assert.Equal(t, 2, calls)
}
