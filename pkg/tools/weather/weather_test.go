package weather_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/effective-security/toolchat/pkg/ecweather"
	"github.com/effective-security/toolchat/pkg/nws"
	"github.com/effective-security/toolchat/pkg/tools/weather"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func alertsServer(t *testing.T, body string, status int) *nws.Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return nws.New(nws.WithBaseURL(server.URL))
}

func Test_Alerts(t *testing.T) {
	client := alertsServer(t, `{
		"features": [
			{"properties": {"event": "Flood Watch", "areaDesc": "King County", "severity": "Moderate", "description": "Rivers rising", "instruction": "Avoid low areas"}},
			{"properties": {"event": "", "areaDesc": "", "severity": "", "description": "", "instruction": ""}}
		]
	}`, http.StatusOK)

	tool, err := weather.NewAlerts(client)
	require.NoError(t, err)
	assert.Equal(t, "get_alerts", tool.Name())

	out, err := tool.Call(context.Background(), `{"state_abbreviated": "WA"}`)
	require.NoError(t, err)
	assert.Equal(t,
		"Event: Flood Watch\n"+
			"Area: King County\n"+
			"Severity: Moderate\n"+
			"Description: Rivers rising\n"+
			"Instructions: Avoid low areas"+
			"\n---\n"+
			"Event: Unknown\n"+
			"Area: Unknown\n"+
			"Severity: Unknown\n"+
			"Description: No description available\n"+
			"Instructions: No specific instructions provided",
		out)
}

func Test_Alerts_EdgeCases(t *testing.T) {
	t.Run("missing features key", func(t *testing.T) {
		client := alertsServer(t, `{"title": "nothing here"}`, http.StatusOK)
		tool, err := weather.NewAlerts(client)
		require.NoError(t, err)

		out, err := tool.Call(context.Background(), `{"state_abbreviated": "WA"}`)
		require.NoError(t, err)
		assert.Equal(t, "Unable to fetch alerts or no alerts found.", out)
	})

	t.Run("no active alerts", func(t *testing.T) {
		client := alertsServer(t, `{"features": []}`, http.StatusOK)
		tool, err := weather.NewAlerts(client)
		require.NoError(t, err)

		out, err := tool.Call(context.Background(), `{"state_abbreviated": "WA"}`)
		require.NoError(t, err)
		assert.Equal(t, "No active alerts for this state.", out)
	})

	t.Run("upstream failure", func(t *testing.T) {
		client := alertsServer(t, ``, http.StatusBadGateway)
		tool, err := weather.NewAlerts(client)
		require.NoError(t, err)

		out, err := tool.Call(context.Background(), `{"state_abbreviated": "WA"}`)
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("invalid state", func(t *testing.T) {
		client := alertsServer(t, `{"features": []}`, http.StatusOK)
		tool, err := weather.NewAlerts(client)
		require.NoError(t, err)

		for _, input := range []string{`{}`, `{"state_abbreviated": "Washington"}`} {
			out, err := tool.Call(context.Background(), input)
			require.NoError(t, err)
			assert.Equal(t, "State must be provided as a US two-letter code (e.g. NY).", out)
		}
	})
}

func forecastUSServer(t *testing.T) *nws.Client {
	t.Helper()
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	mux.HandleFunc("/points/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"properties": {"forecast": "` + server.URL + `/forecast"}}`))
	})
	mux.HandleFunc("/forecast", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"properties": {
				"periods": [
					{"name": "Tonight", "temperature": 32, "temperatureUnit": "F", "detailedForecast": "Freezing"},
					{"name": "Saturday", "temperature": 78.5, "temperatureUnit": "F", "detailedForecast": "Warm"},
					{"name": "Sunday", "temperature": 20, "temperatureUnit": "C", "detailedForecast": "Already Celsius"},
					{"name": "Monday", "temperature": 50, "temperatureUnit": "F", "detailedForecast": "Mild"},
					{"name": "Tuesday", "temperature": 60, "temperatureUnit": "F", "detailedForecast": "Nice"},
					{"name": "Wednesday", "temperature": 70, "temperatureUnit": "F", "detailedForecast": "Dropped"}
				]
			}
		}`))
	})
	return nws.New(nws.WithBaseURL(server.URL))
}

func Test_ForecastUS(t *testing.T) {
	tool, err := weather.NewForecastUS(forecastUSServer(t))
	require.NoError(t, err)
	assert.Equal(t, "get_forecast_us", tool.Name())

	out, err := tool.Call(context.Background(), `{"latitude": 39.0997, "longitude": -94.5783}`)
	require.NoError(t, err)

	var periods []weather.WeatherData
	require.NoError(t, json.Unmarshal([]byte(out), &periods))
	// only the first five periods are reported
	require.Len(t, periods, 5)

	assert.Equal(t, "Tonight", periods[0].Period)
	require.NotNil(t, periods[0].Temperature)
	assert.Equal(t, float64(0), *periods[0].Temperature)
	assert.Equal(t, "C", periods[0].TemperatureUnit)
	assert.Equal(t, "Freezing", periods[0].DetailedForecast)

	require.NotNil(t, periods[1].Temperature)
	assert.InDelta(t, 25.83, *periods[1].Temperature, 0.001)

	// a period already in Celsius is passed through
	require.NotNil(t, periods[2].Temperature)
	assert.Equal(t, float64(20), *periods[2].Temperature)
}

func Test_ForecastUS_UpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	tool, err := weather.NewForecastUS(nws.New(nws.WithBaseURL(server.URL)))
	require.NoError(t, err)

	out, err := tool.Call(context.Background(), `{"latitude": 39.0997, "longitude": -94.5783}`)
	require.NoError(t, err)
	assert.Equal(t, "[]", out)
}

func Test_ForecastUS_InvalidInput(t *testing.T) {
	tool, err := weather.NewForecastUS(nws.New())
	require.NoError(t, err)

	_, err = tool.Call(context.Background(), `{"latitude": 200, "longitude": 0}`)
	require.Error(t, err)
}

func Test_ForecastCanada(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"forecasts": [
				{"period": "Tonight", "temperature": -5, "text_summary": "Clear and cold"},
				{"period": "Saturday", "temperature": null, "text_summary": "Chance of flurries"}
			]
		}`))
	}))
	t.Cleanup(server.Close)

	tool, err := weather.NewForecastCanada(ecweather.New(ecweather.WithBaseURL(server.URL)))
	require.NoError(t, err)
	assert.Equal(t, "get_forecast_can", tool.Name())

	out, err := tool.Call(context.Background(), `{"latitude": 45.4215, "longitude": -75.6972}`)
	require.NoError(t, err)

	var periods []weather.WeatherData
	require.NoError(t, json.Unmarshal([]byte(out), &periods))
	require.Len(t, periods, 2)

	assert.Equal(t, "Tonight", periods[0].Period)
	require.NotNil(t, periods[0].Temperature)
	assert.Equal(t, float64(-5), *periods[0].Temperature)
	assert.Equal(t, "°C", periods[0].TemperatureUnit)
	assert.Nil(t, periods[1].Temperature)
	assert.Equal(t, "Chance of flurries", periods[1].DetailedForecast)
}

func Test_All(t *testing.T) {
	list, err := weather.All(nws.New(), ecweather.New())
	require.NoError(t, err)
	require.Len(t, list, 3)

	names := make([]string, 0, len(list))
	for _, tool := range list {
		names = append(names, tool.Name())
	}
	assert.Equal(t, []string{"get_alerts", "get_forecast_us", "get_forecast_can"}, names)
}
