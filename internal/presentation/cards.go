// Package presentation turns normalized forecast data into view models the
// dashboard front end renders without further logic.
package presentation

import (
	"fmt"
	"strconv"

	"github.com/skylite-app/skylite/internal/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Card struct {
	Title  string  `json:"title"`
	Icon   string  `json:"icon"`
	Fields []Field `json:"fields"`
}

// Cards renders one card per point using the field set of its provider.
func Cards(source string, points []models.ForecastPoint) []Card {
	title := cases.Title(language.English)

	cards := make([]Card, 0, len(points))
	for _, p := range points {
		card := Card{
			Title: "Time: " + p.Timestamp.Display,
			Icon:  p.IconRef,
		}

		switch source {
		case models.SourceAccuWeather:
			card.Fields = accuWeatherFields(p, title)
		default:
			card.Fields = openWeatherFields(p, title)
		}

		cards = append(cards, card)
	}
	return cards
}

func accuWeatherFields(p models.ForecastPoint, title cases.Caser) []Field {
	probability := models.NotAvailable
	if p.PrecipitationProbability != nil {
		probability = strconv.Itoa(*p.PrecipitationProbability) + "%"
	}

	return []Field{
		{"Temperature", withUnit(p.Temperature, "°"+p.TemperatureUnit)},
		{"Conditions", title.String(p.ConditionText)},
		{"Precipitation", yesNo(p.HasPrecipitation)},
		{"Precipitation Probability", probability},
		{"Day Light", yesNo(p.IsDaylight)},
	}
}

func openWeatherFields(p models.ForecastPoint, title cases.Caser) []Field {
	degrees := "°" + p.TemperatureUnit

	humidity := models.NotAvailable
	if p.Humidity != nil {
		humidity = strconv.Itoa(*p.Humidity) + "%"
	}

	dewPoint := models.NotAvailable
	if p.DewPoint != nil {
		dewPoint = fmt.Sprintf("%.2f%s", *p.DewPoint, degrees)
	}

	return []Field{
		{"Conditions", title.String(p.ConditionText)},
		{"Temperature", withUnit(p.Temperature, degrees)},
		{"Feels Like", withUnit(p.FeelsLike, degrees)},
		{"Min Temperature", withUnit(p.TempMin, degrees)},
		{"Max Temperature", withUnit(p.TempMax, degrees)},
		{"Humidity", humidity},
		{"Dew Point", dewPoint},
		{"Wind Speed", withUnit(p.WindSpeed, " "+windUnit(p.TemperatureUnit))},
		{"Visibility", withUnit(p.Visibility, " metres")},
	}
}

func withUnit(m models.Measurement, unit string) string {
	if !m.Valid {
		return models.NotAvailable
	}
	return strconv.FormatFloat(m.Value, 'f', -1, 64) + unit
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

// windUnit follows the upstream unit system: imperial reports miles per hour.
func windUnit(temperatureUnit string) string {
	if temperatureUnit == "F" {
		return "mph"
	}
	return "m/s"
}
