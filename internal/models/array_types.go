package models

import (
	"database/sql/driver"

	"github.com/lib/pq"
)

// StringArray is a custom type for handling TEXT[] columns in PostgreSQL,
// used for the serialized addon id list on bookings.
type StringArray []string

// Value implements the driver.Valuer interface
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return pq.Array([]string{}).Value()
	}
	return pq.Array(a).Value()
}

// Scan implements the sql.Scanner interface
func (a *StringArray) Scan(src interface{}) error {
	if src == nil {
		*a = StringArray{}
		return nil
	}
	slice := (*[]string)(a)
	return pq.Array(slice).Scan(src)
}
