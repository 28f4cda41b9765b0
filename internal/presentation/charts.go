package presentation

import (
	"github.com/skylite-app/skylite/internal/models"
)

type Chart struct {
	Kind        string     `json:"kind"`
	Title       string     `json:"title"`
	XAxisTitle  string     `json:"x_axis_title"`
	YAxisTitle  string     `json:"y_axis_title"`
	LineColor   string     `json:"line_color"`
	MarkerColor string     `json:"marker_color"`
	X           []string   `json:"x"`
	Y           []*float64 `json:"y"`
	Empty       string     `json:"empty,omitempty"`
}

type chartSpec struct {
	kind   string
	title  string
	yAxis  string
	color  string
	values func(models.Series) []*float64
}

func openWeatherCharts(temperatureUnit string) []chartSpec {
	degrees := "°" + temperatureUnit
	return []chartSpec{
		{"temp", "Temperature Over Time", "Temperature (" + degrees + ")", "#e84118",
			func(s models.Series) []*float64 { return s.Temperature }},
		{"humidity", "Humidity Over Time", "Humidity (%)", "#00a8ff",
			func(s models.Series) []*float64 { return s.Humidity }},
		{"dew_points", "Dew Point Over Time", "Dew Point (" + degrees + ")", "#f5cb11",
			func(s models.Series) []*float64 { return s.DewPoint }},
		{"wind_speed", "Wind Speed Over Time", "Wind Speed (" + windUnit(temperatureUnit) + ")", "#4cd137",
			func(s models.Series) []*float64 { return s.WindSpeed }},
	}
}

// Charts builds the chart set of a provider. AccuWeather gets a single
// temperature chart; OpenWeather gets temperature, humidity, dew point and
// wind speed.
func Charts(source string, series models.Series, temperatureUnit string) []Chart {
	if temperatureUnit == "" {
		temperatureUnit = "F"
	}

	if source == models.SourceAccuWeather {
		chart := Chart{
			Kind:        "temp",
			Title:       "Temperature Over Time",
			XAxisTitle:  "Time",
			YAxisTitle:  "Temperature (°" + temperatureUnit + ")",
			LineColor:   "#2e38f3",
			MarkerColor: "#fc0349",
			X:           series.Times,
			Y:           series.Temperature,
		}
		if !hasData(series.Times, series.Temperature) {
			chart.Empty = "No temperature data available for graph!"
		}
		return []Chart{chart}
	}

	specs := openWeatherCharts(temperatureUnit)
	charts := make([]Chart, 0, len(specs))
	for _, spec := range specs {
		chart := Chart{
			Kind:        spec.kind,
			Title:       spec.title,
			XAxisTitle:  "Time",
			YAxisTitle:  spec.yAxis,
			LineColor:   spec.color,
			MarkerColor: spec.color,
			X:           series.Times,
			Y:           spec.values(series),
		}
		if !hasData(series.Times, chart.Y) {
			chart.Empty = "No data available for " + spec.kind + " graph."
		}
		charts = append(charts, chart)
	}
	return charts
}

func hasData(times []string, values []*float64) bool {
	if len(times) == 0 {
		return false
	}
	for _, v := range values {
		if v != nil {
			return true
		}
	}
	return false
}
