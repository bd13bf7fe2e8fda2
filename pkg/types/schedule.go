package types

import (
	"database/sql/driver"

	"github.com/angelmondragon/mercadito-backend/pkg/enums"
)

// ScheduleEntry is one weekday's opening hours in HH:mm.
type ScheduleEntry struct {
	Day    enums.Weekday `json:"day"`
	Open   string        `json:"open"`
	Close  string        `json:"close"`
	IsOpen bool          `json:"isOpen"`
}

// Schedule is the weekly opening plan of a store.
type Schedule []ScheduleEntry

func (s Schedule) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	return jsonValue(s)
}

func (s *Schedule) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	var decoded Schedule
	if err := scanJSON(value, &decoded); err != nil {
		return err
	}
	*s = decoded
	return nil
}
