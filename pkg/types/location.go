package types

import (
	"database/sql/driver"

	"github.com/google/uuid"
)

// StoreLocation is the store's public pin.
type StoreLocation struct {
	Alias         string `json:"alias"`
	GoogleMapsURL string `json:"googleMapsUrl"`
}

func (l StoreLocation) Value() (driver.Value, error) {
	return jsonValue(l)
}

func (l *StoreLocation) Scan(value interface{}) error {
	if value == nil {
		*l = StoreLocation{}
		return nil
	}
	var decoded StoreLocation
	if err := scanJSON(value, &decoded); err != nil {
		return err
	}
	*l = decoded
	return nil
}

// UserLocation is one saved delivery location on a user profile.
type UserLocation struct {
	ID            uuid.UUID `json:"id"`
	Alias         string    `json:"alias"`
	GoogleMapsURL string    `json:"googleMapsUrl"`
	IsDefault     bool      `json:"isDefault"`
}

// UserLocations is the ordered list persisted as JSON.
type UserLocations []UserLocation

func (l UserLocations) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return jsonValue(l)
}

func (l *UserLocations) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	var decoded UserLocations
	if err := scanJSON(value, &decoded); err != nil {
		return err
	}
	*l = decoded
	return nil
}

// IndexOf returns the position of the location with id, or -1.
func (l UserLocations) IndexOf(id uuid.UUID) int {
	for i, loc := range l {
		if loc.ID == id {
			return i
		}
	}
	return -1
}
