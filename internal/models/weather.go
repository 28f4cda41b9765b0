package models

import (
	"encoding/json"

	"github.com/skylite-app/skylite/pkg/timefmt"
)

const (
	SourceAccuWeather = "aw"
	SourceOpenWeather = "ow"

	NotAvailable = timefmt.NotAvailable
)

// SourceLabels maps source ids to provider display names.
var SourceLabels = map[string]string{
	SourceAccuWeather: "AccuWeather",
	SourceOpenWeather: "OpenWeather",
}

// Measurement is an optional numeric reading. Absent readings encode as
// "Not Available" rather than null.
type Measurement struct {
	Value float64
	Valid bool
}

func Some(v float64) Measurement {
	return Measurement{Value: v, Valid: true}
}

// FromPtr converts an optional wire value into a Measurement.
func FromPtr(v *float64) Measurement {
	if v == nil {
		return Measurement{}
	}
	return Some(*v)
}

// Ptr returns nil for an absent reading, for chart slots.
func (m Measurement) Ptr() *float64 {
	if !m.Valid {
		return nil
	}
	v := m.Value
	return &v
}

func (m Measurement) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return json.Marshal(NotAvailable)
	}
	return json.Marshal(m.Value)
}

type Timestamp struct {
	Sortable string `json:"sortable"`
	Display  string `json:"display"`
	Valid    bool   `json:"valid"`
}

// NewTimestamp renders raw in both layouts. An empty or unparseable raw value
// yields an invalid timestamp carrying the sentinel in both fields.
func NewTimestamp(raw string) Timestamp {
	sortable := timefmt.Format(raw, timefmt.SortableLayout)
	return Timestamp{
		Sortable: sortable,
		Display:  timefmt.Format(raw, timefmt.DisplayLayout),
		Valid:    sortable != NotAvailable,
	}
}

type ForecastPoint struct {
	Source                   string      `json:"source"`
	Timestamp                Timestamp   `json:"timestamp"`
	Temperature              Measurement `json:"temperature"`
	TemperatureUnit          string      `json:"temperature_unit"`
	FeelsLike                Measurement `json:"feels_like"`
	TempMin                  Measurement `json:"temp_min"`
	TempMax                  Measurement `json:"temp_max"`
	Humidity                 *int        `json:"humidity"`
	WindSpeed                Measurement `json:"wind_speed"`
	Visibility               Measurement `json:"visibility"`
	DewPoint                 *float64    `json:"dew_point"`
	ConditionText            string      `json:"condition_text"`
	IconCode                 string      `json:"icon_code"`
	IconRef                  string      `json:"icon_ref"`
	IsDaylight               bool        `json:"is_daylight"`
	HasPrecipitation         bool        `json:"has_precipitation"`
	PrecipitationProbability *int        `json:"precipitation_probability"`
}

// Series holds index-aligned chart arrays. A nil slot means the metric was
// missing for that timestamp.
type Series struct {
	Times       []string   `json:"times"`
	Temperature []*float64 `json:"temperature"`
	Humidity    []*float64 `json:"humidity"`
	WindSpeed   []*float64 `json:"wind_speed"`
	DewPoint    []*float64 `json:"dew_point"`
}

func (s Series) Len() int {
	return len(s.Times)
}

// Unavailable is the single failure outcome of a search.
type Unavailable struct {
	Provider string `json:"provider"`
	Reason   string `json:"reason"`
}

func (u *Unavailable) Error() string {
	return u.Reason
}

type SearchResult struct {
	Source      string          `json:"source"`
	Query       string          `json:"query"`
	Generation  uint64          `json:"generation"`
	Points      []ForecastPoint `json:"points"`
	Series      Series          `json:"series"`
	Unavailable *Unavailable    `json:"unavailable,omitempty"`
	Superseded  bool            `json:"superseded"`
}

// OK reports whether the search produced a current, usable result.
func (r *SearchResult) OK() bool {
	return r.Unavailable == nil && !r.Superseded
}

type Attribution struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}
