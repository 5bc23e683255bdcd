package ecweather_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/effective-security/toolchat/pkg/ecweather"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Forecast(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forecast", r.URL.Path)
		assert.Equal(t, "45.4215", r.URL.Query().Get("lat"))
		assert.Equal(t, "-75.6972", r.URL.Query().Get("lon"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"forecasts": [
				{"period": "Tonight", "temperature": -5, "text_summary": "Clear and cold"},
				{"period": "Saturday", "temperature": null, "text_summary": "Chance of flurries"}
			]
		}`))
	}))
	defer server.Close()

	client := ecweather.New(ecweather.WithBaseURL(server.URL))
	periods, err := client.Forecast(context.Background(), 45.4215, -75.6972)
	require.NoError(t, err)
	require.Len(t, periods, 2)

	assert.Equal(t, "Tonight", periods[0].Period)
	require.NotNil(t, periods[0].Temperature)
	assert.Equal(t, float64(-5), *periods[0].Temperature)
	assert.Equal(t, "Clear and cold", periods[0].TextSummary)

	// missing temperature stays nil instead of zero
	assert.Nil(t, periods[1].Temperature)
}

func Test_Forecast_Status(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := ecweather.New(ecweather.WithBaseURL(server.URL))
	_, err := client.Forecast(context.Background(), 1, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
