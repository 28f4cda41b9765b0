package client

import "math"

// Magnus coefficients over water.
const (
	magnusA = 17.27
	magnusB = 237.7
)

// DewPoint returns the dew point in Fahrenheit for an air temperature in
// Fahrenheit and a relative humidity in percent. It returns nil when either
// input is missing, humidity is not positive, or the result is not finite.
func DewPoint(tempF, humidity *float64) *float64 {
	if tempF == nil || humidity == nil || *humidity <= 0 {
		return nil
	}

	tempC := fahrenheitToCelsius(*tempF)
	if magnusB+tempC == 0 {
		return nil
	}

	gamma := math.Log(*humidity/100) + magnusA*tempC/(magnusB+tempC)
	denominator := magnusA - gamma
	if denominator == 0 {
		return nil
	}

	dew := celsiusToFahrenheit(magnusB * gamma / denominator)
	if math.IsNaN(dew) || math.IsInf(dew, 0) {
		return nil
	}
	return &dew
}

// dewPointInUnits converts through Fahrenheit so callers can stay in the
// unit system the forecast was requested in.
func dewPointInUnits(temp, humidity *float64, units string) *float64 {
	if temp == nil {
		return nil
	}

	var tempF float64
	switch units {
	case "metric":
		tempF = celsiusToFahrenheit(*temp)
	case "standard":
		tempF = celsiusToFahrenheit(*temp - 273.15)
	default:
		tempF = *temp
	}

	dew := DewPoint(&tempF, humidity)
	if dew == nil {
		return nil
	}

	var out float64
	switch units {
	case "metric":
		out = fahrenheitToCelsius(*dew)
	case "standard":
		out = fahrenheitToCelsius(*dew) + 273.15
	default:
		out = *dew
	}
	return &out
}

func fahrenheitToCelsius(f float64) float64 {
	return (f - 32) * 5 / 9
}

func celsiusToFahrenheit(c float64) float64 {
	return c*9/5 + 32
}
