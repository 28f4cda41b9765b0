package presentation

import (
	"testing"

	"github.com/skylite-app/skylite/internal/models"
)

func fieldValue(t *testing.T, card Card, label string) string {
	t.Helper()
	for _, f := range card.Fields {
		if f.Label == label {
			return f.Value
		}
	}
	t.Fatalf("card has no %q field", label)
	return ""
}

func TestAccuWeatherCards(t *testing.T) {
	probability := 40
	points := []models.ForecastPoint{{
		Timestamp:                models.NewTimestamp("2024-03-10T14:00:00-05:00"),
		Temperature:              models.Some(41),
		TemperatureUnit:          "F",
		ConditionText:            "mostly cloudy with showers",
		IconRef:                  "/assets/AccuWeatherIcons/Showers_(12).png",
		HasPrecipitation:         true,
		PrecipitationProbability: &probability,
	}}

	cards := Cards(models.SourceAccuWeather, points)
	if len(cards) != 1 {
		t.Fatalf("expected one card, got %d", len(cards))
	}

	card := cards[0]
	if card.Title != "Time: March 10, 2024, 02:00 PM (UTC-0500)" {
		t.Fatalf("unexpected title: %s", card.Title)
	}
	if got := fieldValue(t, card, "Temperature"); got != "41°F" {
		t.Fatalf("unexpected temperature: %s", got)
	}
	if got := fieldValue(t, card, "Conditions"); got != "Mostly Cloudy With Showers" {
		t.Fatalf("unexpected conditions: %s", got)
	}
	if fieldValue(t, card, "Precipitation") != "Yes" || fieldValue(t, card, "Day Light") != "No" {
		t.Fatal("unexpected yes/no fields")
	}
	if got := fieldValue(t, card, "Precipitation Probability"); got != "40%" {
		t.Fatalf("unexpected probability: %s", got)
	}
}

func TestOpenWeatherCards(t *testing.T) {
	humidity := 70
	dew := 49.2284
	points := []models.ForecastPoint{{
		Timestamp:       models.NewTimestamp("2024-06-01 12:00:00"),
		Temperature:     models.Some(59),
		TemperatureUnit: "F",
		FeelsLike:       models.Some(57),
		TempMin:         models.Some(55),
		TempMax:         models.Some(61.5),
		Humidity:        &humidity,
		DewPoint:        &dew,
		ConditionText:   "few clouds",
	}}

	card := Cards(models.SourceOpenWeather, points)[0]

	tests := map[string]string{
		"Conditions":      "Few Clouds",
		"Temperature":     "59°F",
		"Max Temperature": "61.5°F",
		"Humidity":        "70%",
		"Dew Point":       "49.23°F",
		"Wind Speed":      models.NotAvailable,
		"Visibility":      models.NotAvailable,
	}
	for label, want := range tests {
		if got := fieldValue(t, card, label); got != want {
			t.Fatalf("%s = %q, want %q", label, got, want)
		}
	}
}

func TestChartsAccuWeather(t *testing.T) {
	v := 41.0
	series := models.Series{Times: []string{"2024-03-10 14:00:00"}, Temperature: []*float64{&v}}

	charts := Charts(models.SourceAccuWeather, series, "F")
	if len(charts) != 1 {
		t.Fatalf("expected one chart, got %d", len(charts))
	}
	if charts[0].LineColor != "#2e38f3" || charts[0].MarkerColor != "#fc0349" || charts[0].Empty != "" {
		t.Fatalf("unexpected chart: %+v", charts[0])
	}
}

func TestChartsOpenWeatherEmptyMetric(t *testing.T) {
	temp, humidity := 59.0, 70.0
	series := models.Series{
		Times:       []string{"2024-06-01 12:00:00"},
		Temperature: []*float64{&temp},
		Humidity:    []*float64{&humidity},
		WindSpeed:   []*float64{nil},
		DewPoint:    []*float64{nil},
	}

	charts := Charts(models.SourceOpenWeather, series, "F")
	if len(charts) != 4 {
		t.Fatalf("expected four charts, got %d", len(charts))
	}

	byKind := make(map[string]Chart)
	for _, c := range charts {
		byKind[c.Kind] = c
	}

	if byKind["temp"].Empty != "" || byKind["temp"].LineColor != "#e84118" {
		t.Fatalf("unexpected temperature chart: %+v", byKind["temp"])
	}
	if byKind["wind_speed"].Empty != "No data available for wind_speed graph." {
		t.Fatalf("unexpected wind chart: %+v", byKind["wind_speed"])
	}
	if byKind["dew_points"].YAxisTitle != "Dew Point (°F)" {
		t.Fatalf("unexpected dew point axis: %s", byKind["dew_points"].YAxisTitle)
	}
}

func TestAttributionLinksDropsIncomplete(t *testing.T) {
	links := AttributionLinks([]models.Attribution{
		{Text: "Icons by Someone", URL: "https://example.com/icons"},
		{Text: "", URL: "https://example.com/missing-text"},
		{Text: "Missing url"},
	})

	if len(links) != 1 || links[0].Text != "Icons by Someone" {
		t.Fatalf("unexpected links: %+v", links)
	}
}
