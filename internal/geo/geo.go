// Package geo holds geographic value objects: validated coordinates and
// the catalogue of preset cities.
package geo

import (
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mgfn/skycast/internal/support/exception"
)

var validate = validator.New()

// Coordinates is a validated WGS84 point.
type Coordinates struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

// Validate checks the coordinate ranges. Out-of-range values are caller
// misuse.
func (c Coordinates) Validate() error {
	if err := validate.Struct(c); err != nil {
		return exception.New(exception.KindInvalidArgument, "geo",
			"coordinates out of range", err)
	}
	return nil
}

// City is a preset location selectable by code.
type City struct {
	Code        string      `json:"code"`
	Name        string      `json:"name"`
	Coordinates Coordinates `json:"coordinates"`
}

var cities = map[string]City{
	"SAINT_PETERSBURG": {
		Code:        "SAINT_PETERSBURG",
		Name:        "Санкт-Петербург",
		Coordinates: Coordinates{Latitude: 59.9386, Longitude: 30.3141},
	},
	"MOSCOW": {
		Code:        "MOSCOW",
		Name:        "Москва",
		Coordinates: Coordinates{Latitude: 55.7522, Longitude: 37.6156},
	},
}

// CityByCode looks up a preset city. Codes are matched case-insensitively.
func CityByCode(code string) (City, bool) {
	city, ok := cities[strings.ToUpper(strings.TrimSpace(code))]
	return city, ok
}

// Cities returns the catalogue sorted by code.
func Cities() []City {
	list := make([]City, 0, len(cities))
	for _, city := range cities {
		list = append(list, city)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })
	return list
}
