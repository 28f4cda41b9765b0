package client

import (
	"strings"
	"time"

	"github.com/skylite-app/skylite/pkg/timefmt"
	"go.uber.org/zap"
)

// SunTimes holds the sunrise and sunset of a forecast city in its local zone.
// Valid is false when either time or the zone could not be determined.
type SunTimes struct {
	Sunrise   string         `json:"sunrise"`
	Sunset    string         `json:"sunset"`
	Latitude  *float64       `json:"latitude"`
	Longitude *float64       `json:"longitude"`
	Location  *time.Location `json:"-"`
	Valid     bool           `json:"valid"`

	sunriseAt time.Time
	sunsetAt  time.Time
}

// DeriveSunriseSunset converts the city's epoch sunrise and sunset into the
// zone found for its coordinates and formats them as 12-hour clock times.
func (c *OpenWeatherClient) DeriveSunriseSunset(bundle *OpenWeatherForecast) SunTimes {
	var sun SunTimes
	if bundle == nil {
		return sun
	}

	city := bundle.City
	if city.Coord != nil {
		sun.Latitude = city.Coord.Lat
		sun.Longitude = city.Coord.Lon
	}

	if city.Sunrise == nil || city.Sunset == nil || sun.Latitude == nil || sun.Longitude == nil {
		c.logger.Warn("Forecast city is missing sunrise, sunset or coordinates",
			zap.String("city", city.Name))
		return sun
	}

	loc, err := lookupLocation(c.timezones, *sun.Latitude, *sun.Longitude)
	if err != nil {
		c.logger.Warn("Timezone lookup failed",
			zap.String("city", city.Name),
			zap.Error(err))
		return sun
	}

	sun.Location = loc
	sun.sunriseAt = time.Unix(*city.Sunrise, 0).In(loc)
	sun.sunsetAt = time.Unix(*city.Sunset, 0).In(loc)
	sun.Sunrise = sun.sunriseAt.Format(timefmt.ClockLayout)
	sun.Sunset = sun.sunsetAt.Format(timefmt.ClockLayout)
	sun.Valid = true

	return sun
}

// OverrideIcon corrects the day/night suffix of code using the entry time and
// the city's sunrise/sunset. Any failure leaves code unchanged.
func (c *OpenWeatherClient) OverrideIcon(entry OpenWeatherEntry, code string, bundle *OpenWeatherForecast) string {
	return c.overrideIcon(entry, code, c.DeriveSunriseSunset(bundle))
}

func (c *OpenWeatherClient) overrideIcon(entry OpenWeatherEntry, code string, sun SunTimes) string {
	if code == "" || !sun.Valid {
		return code
	}

	at, ok := entryTime(entry)
	if !ok {
		c.logger.Debug("Entry has no usable time, keeping icon", zap.String("icon", code))
		return code
	}

	local := at.In(sun.Location)
	year, month, day := local.Date()
	sunrise := time.Date(year, month, day, sun.sunriseAt.Hour(), sun.sunriseAt.Minute(), 0, 0, sun.Location)
	sunset := time.Date(year, month, day, sun.sunsetAt.Hour(), sun.sunsetAt.Minute(), 0, 0, sun.Location)

	daytime := !local.Before(sunrise) && !local.After(sunset)

	switch {
	case daytime && strings.HasSuffix(code, "n"):
		return strings.TrimSuffix(code, "n") + "d"
	case !daytime && strings.HasSuffix(code, "d"):
		return strings.TrimSuffix(code, "d") + "n"
	}
	return code
}

// entryTime reads dt_txt, which upstream reports in UTC. Naive layouts parse
// as UTC.
func entryTime(entry OpenWeatherEntry) (time.Time, bool) {
	if entry.DtTxt == nil {
		return time.Time{}, false
	}
	t, _, ok := timefmt.Parse(*entry.DtTxt)
	return t, ok
}
