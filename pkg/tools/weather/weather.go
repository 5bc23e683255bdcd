// Package weather provides US and Canada weather lookup tools backed
// by the NWS and Environment Canada feeds.
package weather

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolchat/pkg/ecweather"
	"github.com/effective-security/toolchat/pkg/nws"
	"github.com/effective-security/toolchat/pkg/schema"
	"github.com/effective-security/toolchat/pkg/tools"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
	"github.com/go-playground/validator/v10"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/toolchat", "weather")

var validate = validator.New(validator.WithRequiredStructEnabled())

// maxPeriods limits how many forecast periods are returned to the model.
const maxPeriods = 5

// WeatherData is one forecast period in the tool's structured output.
type WeatherData struct {
	Period           string   `json:"period" jsonschema:"title=period,description=Label for the forecast period; e.g. Tonight."`
	Temperature      *float64 `json:"temperature,omitempty" jsonschema:"title=temperature,description=Temperature value in degrees Celsius."`
	TemperatureUnit  string   `json:"temperature_unit,omitempty" jsonschema:"title=temperature_unit,description=Unit for the reported temperature."`
	DetailedForecast string   `json:"detailed_forecast" jsonschema:"title=detailed_forecast,description=Full forecast narrative for the period."`
}

// AlertsRequest is the input of the get_alerts tool.
type AlertsRequest struct {
	State string `json:"state_abbreviated" validate:"required,len=2" jsonschema:"title=state_abbreviated,description=Two-letter US state code (eg. CA; NY)."`
}

// ForecastRequest is the input of the forecast tools.
type ForecastRequest struct {
	Latitude  float64 `json:"latitude" validate:"latitude" jsonschema:"title=latitude,description=Latitude of the location (eg. 39.0997)."`
	Longitude float64 `json:"longitude" validate:"longitude" jsonschema:"title=longitude,description=Longitude of the location (eg. -94.5783)."`
}

// AlertsTool reports active weather alerts for a US state.
type AlertsTool struct {
	funcParams any
	client     *nws.Client
}

var (
	_ tools.Tool[AlertsRequest, string]            = (*AlertsTool)(nil)
	_ tools.Tool[ForecastRequest, []WeatherData]   = (*ForecastUSTool)(nil)
	_ tools.Tool[ForecastRequest, []WeatherData]   = (*ForecastCanadaTool)(nil)
	_ tools.IMCPTool                               = (*AlertsTool)(nil)
	_ tools.IMCPTool                               = (*ForecastUSTool)(nil)
	_ tools.IMCPTool                               = (*ForecastCanadaTool)(nil)
)

// NewAlerts returns the get_alerts tool.
func NewAlerts(client *nws.Client) (*AlertsTool, error) {
	sc, err := schema.New(reflect.TypeOf(AlertsRequest{}))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create schema")
	}
	return &AlertsTool{funcParams: sc.Parameters, client: client}, nil
}

func (t *AlertsTool) Name() string {
	return "get_alerts"
}

func (t *AlertsTool) Description() string {
	return "Get weather alerts for a US State."
}

func (t *AlertsTool) Parameters() any {
	return t.funcParams
}

// Run returns a formatted alert listing. Missing upstream data is not
// an error: the tool reports a descriptive string or nothing at all.
func (t *AlertsTool) Run(ctx context.Context, req *AlertsRequest) (*string, error) {
	if err := validate.Struct(req); err != nil {
		logger.ContextKV(ctx, xlog.WARNING, "tool", t.Name(), "state", req.State, "err", err.Error())
		msg := "State must be provided as a US two-letter code (e.g. NY)."
		return &msg, nil
	}

	collection, err := t.client.ActiveAlerts(ctx, req.State)
	if err != nil {
		logger.ContextKV(ctx, xlog.WARNING, "tool", t.Name(), "state", req.State, "err", err.Error())
		empty := ""
		return &empty, nil
	}

	if collection.Features == nil {
		msg := "Unable to fetch alerts or no alerts found."
		return &msg, nil
	}
	if len(collection.Features) == 0 {
		msg := "No active alerts for this state."
		return &msg, nil
	}

	var parts []string
	for _, alert := range collection.Alerts() {
		parts = append(parts, formatAlert(alert))
	}
	res := strings.Join(parts, "\n---\n")
	return &res, nil
}

func formatAlert(a nws.Alert) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Event: %s\n", values.StringsCoalesce(a.Event, "Unknown"))
	fmt.Fprintf(&buf, "Area: %s\n", values.StringsCoalesce(a.AreaDesc, "Unknown"))
	fmt.Fprintf(&buf, "Severity: %s\n", values.StringsCoalesce(a.Severity, "Unknown"))
	fmt.Fprintf(&buf, "Description: %s\n", values.StringsCoalesce(a.Description, "No description available"))
	fmt.Fprintf(&buf, "Instructions: %s", values.StringsCoalesce(a.Instruction, "No specific instructions provided"))
	return buf.String()
}

func (t *AlertsTool) Call(ctx context.Context, input string) (string, error) {
	var req AlertsRequest
	if err := json.Unmarshal([]byte(input), &req); err != nil {
		return "", errors.WithMessage(tools.ErrFailedUnmarshalInput, err.Error())
	}
	out, err := t.Run(ctx, &req)
	if err != nil {
		return "", err
	}
	return *out, nil
}

func (t *AlertsTool) RegisterMCP(registrator tools.McpServerRegistrator) error {
	return registrator.RegisterTool(t)
}

// ForecastUSTool reports the forecast for a US location.
type ForecastUSTool struct {
	funcParams any
	client     *nws.Client
}

// NewForecastUS returns the get_forecast_us tool.
func NewForecastUS(client *nws.Client) (*ForecastUSTool, error) {
	sc, err := schema.New(reflect.TypeOf(ForecastRequest{}))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create schema")
	}
	return &ForecastUSTool{funcParams: sc.Parameters, client: client}, nil
}

func (t *ForecastUSTool) Name() string {
	return "get_forecast_us"
}

func (t *ForecastUSTool) Description() string {
	return "Get weather forecast for a location in US. Input in longitude and latitude."
}

func (t *ForecastUSTool) Parameters() any {
	return t.funcParams
}

// Run returns up to five forecast periods with temperatures converted
// to Celsius. Missing upstream data yields an empty list, not an error.
func (t *ForecastUSTool) Run(ctx context.Context, req *ForecastRequest) (*[]WeatherData, error) {
	if err := validate.Struct(req); err != nil {
		return nil, errors.WithMessage(tools.ErrFailedUnmarshalInput, err.Error())
	}

	periods, err := t.client.PointForecast(ctx, req.Latitude, req.Longitude)
	if err != nil {
		logger.ContextKV(ctx, xlog.WARNING,
			"tool", t.Name(),
			"latitude", req.Latitude,
			"longitude", req.Longitude,
			"err", err.Error(),
		)
		empty := []WeatherData{}
		return &empty, nil
	}

	forecasts := make([]WeatherData, 0, maxPeriods)
	for _, period := range periods {
		if len(forecasts) == maxPeriods {
			break
		}
		data := WeatherData{
			Period:           values.StringsCoalesce(period.Name, "Unknown"),
			DetailedForecast: period.DetailedForecast,
		}
		celsius := period.Temperature
		if !strings.EqualFold(period.TemperatureUnit, "C") {
			celsius = (celsius - 32.0) * 5.0 / 9.0
		}
		celsius = math.Round(celsius*100) / 100
		data.Temperature = &celsius
		data.TemperatureUnit = "C"
		forecasts = append(forecasts, data)
	}
	return &forecasts, nil
}

func (t *ForecastUSTool) Call(ctx context.Context, input string) (string, error) {
	var req ForecastRequest
	if err := json.Unmarshal([]byte(input), &req); err != nil {
		return "", errors.WithMessage(tools.ErrFailedUnmarshalInput, err.Error())
	}
	return runJSON(ctx, t, &req)
}

func (t *ForecastUSTool) RegisterMCP(registrator tools.McpServerRegistrator) error {
	return registrator.RegisterTool(t)
}

// ForecastCanadaTool reports the forecast for a Canadian location.
type ForecastCanadaTool struct {
	funcParams any
	client     *ecweather.Client
}

// NewForecastCanada returns the get_forecast_can tool.
func NewForecastCanada(client *ecweather.Client) (*ForecastCanadaTool, error) {
	sc, err := schema.New(reflect.TypeOf(ForecastRequest{}))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create schema")
	}
	return &ForecastCanadaTool{funcParams: sc.Parameters, client: client}, nil
}

func (t *ForecastCanadaTool) Name() string {
	return "get_forecast_can"
}

func (t *ForecastCanadaTool) Description() string {
	return "Get weather forecast for a location in Canada. Input in longitude and latitude."
}

func (t *ForecastCanadaTool) Parameters() any {
	return t.funcParams
}

// Run returns up to five Environment Canada forecast periods. Missing
// upstream data yields an empty list, not an error.
func (t *ForecastCanadaTool) Run(ctx context.Context, req *ForecastRequest) (*[]WeatherData, error) {
	if err := validate.Struct(req); err != nil {
		return nil, errors.WithMessage(tools.ErrFailedUnmarshalInput, err.Error())
	}

	periods, err := t.client.Forecast(ctx, req.Latitude, req.Longitude)
	if err != nil {
		logger.ContextKV(ctx, xlog.WARNING,
			"tool", t.Name(),
			"latitude", req.Latitude,
			"longitude", req.Longitude,
			"err", err.Error(),
		)
		empty := []WeatherData{}
		return &empty, nil
	}

	forecasts := make([]WeatherData, 0, maxPeriods)
	for _, period := range periods {
		if len(forecasts) == maxPeriods {
			break
		}
		forecasts = append(forecasts, WeatherData{
			Period:           values.StringsCoalesce(period.Period, "Unknown"),
			Temperature:      period.Temperature,
			TemperatureUnit:  "°C",
			DetailedForecast: period.TextSummary,
		})
	}
	return &forecasts, nil
}

func (t *ForecastCanadaTool) Call(ctx context.Context, input string) (string, error) {
	var req ForecastRequest
	if err := json.Unmarshal([]byte(input), &req); err != nil {
		return "", errors.WithMessage(tools.ErrFailedUnmarshalInput, err.Error())
	}
	return runJSON(ctx, t, &req)
}

func (t *ForecastCanadaTool) RegisterMCP(registrator tools.McpServerRegistrator) error {
	return registrator.RegisterTool(t)
}

// All returns all weather tools wired to the given upstream clients.
func All(nwsClient *nws.Client, ecClient *ecweather.Client) ([]tools.IMCPTool, error) {
	alerts, err := NewAlerts(nwsClient)
	if err != nil {
		return nil, err
	}
	us, err := NewForecastUS(nwsClient)
	if err != nil {
		return nil, err
	}
	can, err := NewForecastCanada(ecClient)
	if err != nil {
		return nil, err
	}
	return []tools.IMCPTool{alerts, us, can}, nil
}

func runJSON[I any](ctx context.Context, t tools.Tool[I, []WeatherData], req *I) (string, error) {
	out, err := t.Run(ctx, req)
	if err != nil {
		return "", err
	}
	bs, err := json.Marshal(out)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal output")
	}
	return string(bs), nil
}
