package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/skylite-app/skylite/internal/models"
	"go.uber.org/zap"
)

const (
	DefaultAccuWeatherURL = "http://dataservice.accuweather.com"

	// AccuWeatherWindow is the number of hourly entries shown per search.
	AccuWeatherWindow = 12

	accuWeatherIconDir     = "/assets/AccuWeatherIcons/"
	AccuWeatherDefaultIcon = accuWeatherIconDir + "DefaultImageAW.png"
)

var accuWeatherIcons = map[int]string{
	1:  "Sunny_(1)",
	2:  "MostlySunny_(2)",
	3:  "PartlySunny_(3)",
	4:  "IntermittentCloudsAtDay_(4)",
	5:  "HazySunshine_(5)",
	6:  "MostlyCloudyAtDay_(6)",
	7:  "Cloudy_(7)",
	8:  "Dreary(Overcast)_(8)",
	11: "Fog_(11)",
	12: "Showers_(12)",
	13: "MostlyCloudyWithShowers_(13)",
	14: "PartlySunnyWithShowers_(14)",
	15: "ThunderStorms_(15)",
	16: "MostlyCloudyWithThunderStorms_(16)",
	17: "PartlySunnyWithThunderStorms_(17)",
	18: "Rain_(18)",
	19: "Flurries_(19)",
	20: "MostlyCloudyWithFlurriesAtDay_(20)",
	21: "PartlySunnyWithFlurries_(21)",
	22: "Snow_(22)",
	23: "MostlyCloudyWithSnowAtDay_(23)",
	24: "Ice_(24)",
	25: "Sleet_(25)",
	26: "FreezingRain_(26)",
	29: "RainAndSnow_(29)",
	30: "Hot_(30)",
	31: "Cold_(31)",
	32: "Windy_(32)",
	33: "Clear_(33)",
	34: "MostlyClear_(34)",
	35: "PartlyCloudy_(35)",
	36: "IntermittentCloudsAtNight_(36)",
	37: "HazyMoonlight_(37)",
	38: "MostlyCloudyAtNight_(38)",
	39: "PartlyCloudyWithShowers_(39)",
	40: "MostlyCloudyWithShowers_(40)",
	41: "PartlyCloudyWithThunderstorms_(41)",
	42: "MostlyCloudyWithThunderstorms_(42)",
	43: "MostlyCloudyWithFlurriesAtNight_(43)",
	44: "MostlyCloudyWithSnowAtNight_(44)",
}

type AccuWeatherClient struct {
	*BaseClient
	apiKey  string
	baseURL string
}

type AccuWeatherLocation struct {
	Key           string `json:"Key"`
	LocalizedName string `json:"LocalizedName"`
}

type AccuWeatherHour struct {
	DateTime                 *string  `json:"DateTime"`
	WeatherIcon              *int     `json:"WeatherIcon"`
	IconPhrase               *string  `json:"IconPhrase"`
	HasPrecipitation         *bool    `json:"HasPrecipitation"`
	PrecipitationProbability *int     `json:"PrecipitationProbability"`
	IsDaylight               *bool    `json:"IsDaylight"`
	Temperature              *struct {
		Value *float64 `json:"Value"`
		Unit  *string  `json:"Unit"`
	} `json:"Temperature"`
}

func NewAccuWeatherClient(apiKey, baseURL string, config ClientConfig, logger *zap.Logger) *AccuWeatherClient {
	if baseURL == "" {
		baseURL = DefaultAccuWeatherURL
	}
	return &AccuWeatherClient{
		BaseClient: NewBaseClient("accuweather", config, logger),
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

func (c *AccuWeatherClient) Source() string {
	return models.SourceAccuWeather
}

// ResolveLocation returns the location key of the first city matching query.
func (c *AccuWeatherClient) ResolveLocation(ctx context.Context, query string) (string, error) {
	endpoint := c.baseURL + "/locations/v1/cities/search"
	params := url.Values{
		"q":      {query},
		"apikey": {c.apiKey},
	}

	data, err := c.FetchWithRetry(ctx, endpoint, params)
	if err != nil {
		return "", fmt.Errorf("failed to search location: %w", err)
	}

	var locations []AccuWeatherLocation
	if err := json.Unmarshal(data, &locations); err != nil {
		return "", fmt.Errorf("%w: location search: %v", ErrDecode, err)
	}

	if len(locations) == 0 || locations[0].Key == "" {
		c.logger.Info("No AccuWeather location matched", zap.String("query", query))
		return "", fmt.Errorf("%w: %s", ErrLocationNotFound, query)
	}

	return locations[0].Key, nil
}

func (c *AccuWeatherClient) FetchForecast(ctx context.Context, locationKey string) ([]AccuWeatherHour, error) {
	endpoint := fmt.Sprintf("%s/forecasts/v1/hourly/12hour/%s", c.baseURL, url.PathEscape(locationKey))
	params := url.Values{"apikey": {c.apiKey}}

	data, err := c.FetchWithRetry(ctx, endpoint, params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch hourly forecast: %w", err)
	}

	var hours []AccuWeatherHour
	if err := json.Unmarshal(data, &hours); err != nil {
		return nil, fmt.Errorf("%w: hourly forecast: %v", ErrDecode, err)
	}

	if len(hours) == 0 {
		return nil, fmt.Errorf("%w: hourly forecast for %s", ErrEmptyResult, locationKey)
	}

	return hours, nil
}

// MapAccuWeatherIcon resolves a condition code to an icon asset path.
func MapAccuWeatherIcon(code *int) string {
	if code == nil {
		return AccuWeatherDefaultIcon
	}
	name, ok := accuWeatherIcons[*code]
	if !ok {
		return AccuWeatherDefaultIcon
	}
	return accuWeatherIconDir + name + ".png"
}

// ToForecastPoint normalizes one hourly record. Missing fields degrade to
// sentinels or false.
func (c *AccuWeatherClient) ToForecastPoint(hour AccuWeatherHour) models.ForecastPoint {
	point := models.ForecastPoint{
		Source:           models.SourceAccuWeather,
		TemperatureUnit:  "N/A",
		ConditionText:    models.NotAvailable,
		IconRef:          MapAccuWeatherIcon(hour.WeatherIcon),
		HasPrecipitation: hour.HasPrecipitation != nil && *hour.HasPrecipitation,
		IsDaylight:       hour.IsDaylight != nil && *hour.IsDaylight,
	}

	if hour.DateTime != nil {
		point.Timestamp = models.NewTimestamp(*hour.DateTime)
	} else {
		point.Timestamp = models.NewTimestamp("")
	}

	if hour.Temperature != nil {
		point.Temperature = models.FromPtr(hour.Temperature.Value)
		if hour.Temperature.Unit != nil && *hour.Temperature.Unit != "" {
			point.TemperatureUnit = *hour.Temperature.Unit
		}
	}

	if hour.IconPhrase != nil && *hour.IconPhrase != "" {
		point.ConditionText = *hour.IconPhrase
	}

	if hour.WeatherIcon != nil {
		point.IconCode = fmt.Sprint(*hour.WeatherIcon)
	}

	if hour.PrecipitationProbability != nil {
		p := *hour.PrecipitationProbability
		point.PrecipitationProbability = &p
	}

	return point
}

// Process resolves query and returns at most AccuWeatherWindow normalized points.
func (c *AccuWeatherClient) Process(ctx context.Context, query string) ([]models.ForecastPoint, error) {
	key, err := c.ResolveLocation(ctx, query)
	if err != nil {
		return nil, err
	}

	hours, err := c.FetchForecast(ctx, key)
	if err != nil {
		return nil, err
	}

	if len(hours) > AccuWeatherWindow {
		hours = hours[:AccuWeatherWindow]
	}

	points := make([]models.ForecastPoint, 0, len(hours))
	for _, hour := range hours {
		points = append(points, c.ToForecastPoint(hour))
	}

	c.logger.Debug("AccuWeather forecast normalized",
		zap.String("query", query),
		zap.String("location_key", key),
		zap.Int("points", len(points)))

	return points, nil
}
