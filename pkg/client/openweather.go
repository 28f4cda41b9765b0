package client

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/skylite-app/skylite/internal/models"
	"go.uber.org/zap"
)

const (
	DefaultOpenWeatherURL    = "https://api.openweathermap.org"
	DefaultOpenWeatherGeoURL = "http://api.openweathermap.org"
	DefaultOpenWeatherUnits  = "imperial"

	// OpenWeatherWindow is nine 3-hour steps, roughly 27 hours.
	OpenWeatherWindow = 9

	openWeatherExclude     = "minutely,hourly,alerts"
	openWeatherIconDir     = "/assets/OpenWeatherIcons/"
	OpenWeatherDefaultIcon = openWeatherIconDir + "DefaultImageOW.png"
)

var openWeatherIcons = map[string]string{
	"01d": "ClearSkyDay_(01d)",
	"01n": "ClearSkyNight_(01n)",
	"02d": "FewCloudsDay_(02d)",
	"02n": "FewCloudsNight_(02n)",
	"03d": "ScatteredCloudsDay_(03d)",
	"03n": "ScatteredCloudsNight_(03n)",
	"04d": "BrokenCloudsDay_(04d)",
	"04n": "BrokenCloudsNight_(04n)",
	"09d": "ShowerRainDay_(09d)",
	"09n": "ShowerRainNight_(09n)",
	"10d": "RainDay_(10d)",
	"10n": "RainNight_(10n)",
	"11d": "ThunderstormDay_(11d)",
	"11n": "ThunderstormNight_(11n)",
	"13d": "SnowDay_(13d)",
	"13n": "SnowNight_(13n)",
	"50d": "MistDay_(50d)",
	"50n": "MistNight_(50n)",
}

type OpenWeatherClient struct {
	*BaseClient
	apiKey    string
	baseURL   string
	geoURL    string
	units     string
	timezones TimezoneFinder
}

type OpenWeatherOptions struct {
	BaseURL   string
	GeoURL    string
	Units     string
	Timezones TimezoneFinder
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type openWeatherGeoResult struct {
	Name    string   `json:"name"`
	Country string   `json:"country"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
}

type OpenWeatherMain struct {
	Temp      *float64 `json:"temp"`
	FeelsLike *float64 `json:"feels_like"`
	TempMin   *float64 `json:"temp_min"`
	TempMax   *float64 `json:"temp_max"`
	Humidity  *float64 `json:"humidity"`
}

type OpenWeatherCondition struct {
	Description *string `json:"description"`
	Icon        *string `json:"icon"`
}

type OpenWeatherWind struct {
	Speed *float64 `json:"speed"`
}

type OpenWeatherEntry struct {
	Dt         *int64                 `json:"dt"`
	DtTxt      *string                `json:"dt_txt"`
	Main       *OpenWeatherMain       `json:"main"`
	Weather    []OpenWeatherCondition `json:"weather"`
	Wind       *OpenWeatherWind       `json:"wind"`
	Visibility *float64               `json:"visibility"`
}

type OpenWeatherCity struct {
	Name  string `json:"name"`
	Coord *struct {
		Lat *float64 `json:"lat"`
		Lon *float64 `json:"lon"`
	} `json:"coord"`
	Country string `json:"country"`
	Sunrise *int64 `json:"sunrise"`
	Sunset  *int64 `json:"sunset"`
}

type OpenWeatherForecast struct {
	List []OpenWeatherEntry `json:"list"`
	City OpenWeatherCity    `json:"city"`
}

func NewOpenWeatherClient(apiKey string, opts OpenWeatherOptions, config ClientConfig, logger *zap.Logger) *OpenWeatherClient {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultOpenWeatherURL
	}
	if opts.GeoURL == "" {
		opts.GeoURL = DefaultOpenWeatherGeoURL
	}
	if opts.Units == "" {
		opts.Units = DefaultOpenWeatherUnits
	}

	return &OpenWeatherClient{
		BaseClient: NewBaseClient("openweather", config, logger),
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		geoURL:     strings.TrimRight(opts.GeoURL, "/"),
		units:      opts.Units,
		timezones:  opts.Timezones,
	}
}

func (c *OpenWeatherClient) Source() string {
	return models.SourceOpenWeather
}

// ResolveCoordinates geocodes query. Every failure wraps ErrResolve.
func (c *OpenWeatherClient) ResolveCoordinates(ctx context.Context, query string) (Coordinates, error) {
	endpoint := c.geoURL + "/geo/1.0/direct"
	params := url.Values{
		"q":     {query},
		"limit": {"1"},
		"appid": {c.apiKey},
	}

	data, err := c.FetchWithRetry(ctx, endpoint, params)
	if err != nil {
		return Coordinates{}, fmt.Errorf("%w: %w", ErrResolve, err)
	}

	var results []openWeatherGeoResult
	if err := json.Unmarshal(data, &results); err != nil {
		return Coordinates{}, fmt.Errorf("%w: %w: geocoding: %v", ErrResolve, ErrDecode, err)
	}

	if len(results) == 0 || results[0].Lat == nil || results[0].Lon == nil {
		c.logger.Info("No OpenWeather coordinates for query", zap.String("query", query))
		return Coordinates{}, fmt.Errorf("%w: %w: %s", ErrResolve, ErrLocationNotFound, query)
	}

	return Coordinates{Lat: *results[0].Lat, Lon: *results[0].Lon}, nil
}

func (c *OpenWeatherClient) FetchForecast(ctx context.Context, lat, lon float64) (*OpenWeatherForecast, error) {
	endpoint := c.baseURL + "/data/2.5/forecast"
	params := url.Values{
		"lat":     {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":     {strconv.FormatFloat(lon, 'f', -1, 64)},
		"appid":   {c.apiKey},
		"units":   {c.units},
		"exclude": {openWeatherExclude},
	}

	data, err := c.FetchWithRetry(ctx, endpoint, params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch forecast: %w", err)
	}

	var forecast OpenWeatherForecast
	if err := json.Unmarshal(data, &forecast); err != nil {
		return nil, fmt.Errorf("%w: forecast: %v", ErrDecode, err)
	}

	if len(forecast.List) == 0 {
		return nil, fmt.Errorf("%w: forecast for %.4f,%.4f", ErrEmptyResult, lat, lon)
	}

	return &forecast, nil
}

// MapOpenWeatherIcon resolves a day/night icon code to an icon asset path.
func MapOpenWeatherIcon(code string) string {
	name, ok := openWeatherIcons[code]
	if !ok {
		return OpenWeatherDefaultIcon
	}
	return openWeatherIconDir + name + ".png"
}

// ToForecastPoint normalizes one forecast entry. Each field is optional on
// its own.
func (c *OpenWeatherClient) ToForecastPoint(entry OpenWeatherEntry, bundle *OpenWeatherForecast) models.ForecastPoint {
	return c.toForecastPoint(entry, c.DeriveSunriseSunset(bundle))
}

func (c *OpenWeatherClient) toForecastPoint(entry OpenWeatherEntry, sun SunTimes) models.ForecastPoint {
	point := models.ForecastPoint{
		Source:          models.SourceOpenWeather,
		TemperatureUnit: unitSymbol(c.units),
		ConditionText:   models.NotAvailable,
	}

	if entry.DtTxt != nil {
		point.Timestamp = models.NewTimestamp(*entry.DtTxt)
	} else {
		point.Timestamp = models.NewTimestamp("")
	}

	if main := entry.Main; main != nil {
		point.Temperature = models.FromPtr(main.Temp)
		point.FeelsLike = models.FromPtr(main.FeelsLike)
		point.TempMin = models.FromPtr(main.TempMin)
		point.TempMax = models.FromPtr(main.TempMax)

		if main.Humidity != nil {
			h := int(math.Round(*main.Humidity))
			point.Humidity = &h
		}

		point.DewPoint = dewPointInUnits(main.Temp, main.Humidity, c.units)
	}

	if entry.Wind != nil {
		point.WindSpeed = models.FromPtr(entry.Wind.Speed)
	}
	point.Visibility = models.FromPtr(entry.Visibility)

	var code string
	if len(entry.Weather) > 0 {
		condition := entry.Weather[0]
		if condition.Description != nil && *condition.Description != "" {
			point.ConditionText = *condition.Description
		}
		if condition.Icon != nil {
			code = *condition.Icon
		}
	}

	point.IconCode = c.overrideIcon(entry, code, sun)
	point.IconRef = MapOpenWeatherIcon(point.IconCode)

	return point
}

// Process geocodes query and returns at most OpenWeatherWindow normalized points.
func (c *OpenWeatherClient) Process(ctx context.Context, query string) ([]models.ForecastPoint, error) {
	coords, err := c.ResolveCoordinates(ctx, query)
	if err != nil {
		return nil, err
	}

	forecast, err := c.FetchForecast(ctx, coords.Lat, coords.Lon)
	if err != nil {
		return nil, err
	}

	sun := c.DeriveSunriseSunset(forecast)

	entries := forecast.List
	if len(entries) > OpenWeatherWindow {
		entries = entries[:OpenWeatherWindow]
	}

	points := make([]models.ForecastPoint, 0, len(entries))
	for _, entry := range entries {
		points = append(points, c.toForecastPoint(entry, sun))
	}

	c.logger.Debug("OpenWeather forecast normalized",
		zap.String("query", query),
		zap.Float64("lat", coords.Lat),
		zap.Float64("lon", coords.Lon),
		zap.String("sunrise", sun.Sunrise),
		zap.String("sunset", sun.Sunset),
		zap.Int("points", len(points)))

	return points, nil
}

func unitSymbol(units string) string {
	switch units {
	case "metric":
		return "C"
	case "standard":
		return "K"
	default:
		return "F"
	}
}
