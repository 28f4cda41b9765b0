package services

import (
	"github.com/skylite-app/skylite/internal/models"
)

// ExtractSeries builds index-aligned chart arrays from normalized points.
// Points without a valid timestamp are skipped in every array; a missing
// metric leaves a nil slot.
func ExtractSeries(points []models.ForecastPoint) models.Series {
	series := models.Series{
		Times:       make([]string, 0, len(points)),
		Temperature: make([]*float64, 0, len(points)),
		Humidity:    make([]*float64, 0, len(points)),
		WindSpeed:   make([]*float64, 0, len(points)),
		DewPoint:    make([]*float64, 0, len(points)),
	}

	for _, point := range points {
		if !point.Timestamp.Valid {
			continue
		}

		series.Times = append(series.Times, point.Timestamp.Sortable)
		series.Temperature = append(series.Temperature, point.Temperature.Ptr())
		series.Humidity = append(series.Humidity, humidityValue(point.Humidity))
		series.WindSpeed = append(series.WindSpeed, point.WindSpeed.Ptr())
		series.DewPoint = append(series.DewPoint, copyFloat(point.DewPoint))
	}

	return series
}

func humidityValue(h *int) *float64 {
	if h == nil {
		return nil
	}
	v := float64(*h)
	return &v
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
