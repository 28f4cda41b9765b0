package client

import (
	"fmt"
	"time"
)

// TimezoneFinder maps coordinates to an IANA zone name. An empty name means
// no zone was found. github.com/ringsaturn/tzf satisfies it.
type TimezoneFinder interface {
	GetTimezoneName(lng float64, lat float64) string
}

func lookupLocation(finder TimezoneFinder, lat, lon float64) (*time.Location, error) {
	if finder == nil {
		return nil, fmt.Errorf("no timezone finder configured")
	}

	name := finder.GetTimezoneName(lon, lat)
	if name == "" {
		return nil, fmt.Errorf("no timezone for %.4f,%.4f", lat, lon)
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", name, err)
	}
	return loc, nil
}
