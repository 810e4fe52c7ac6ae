package database

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
)

// StringList is a list of strings persisted as a JSON text column so it
// behaves the same on PostgreSQL, MySQL and SQLite.
//
// Rows written before the column held JSON contain a plain comma separated
// string; those are still readable.
type StringList []string

// Scan implements the sql.Scanner interface.
func (a *StringList) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*a = nil
		return nil
	case []byte:
		return a.parse(string(v))
	case string:
		return a.parse(v)
	default:
		return errors.New("StringList: unsupported scan type")
	}
}

func (a *StringList) parse(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		*a = StringList{}
		return nil
	}
	if strings.HasPrefix(s, "[") {
		return json.Unmarshal([]byte(s), (*[]string)(a))
	}

	parts := strings.Split(s, ",")
	out := make(StringList, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	*a = out
	return nil
}

// Value implements the driver.Valuer interface.
func (a StringList) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	data, err := json.Marshal([]string(a))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// GormDataType returns the GORM data type hint.
func (StringList) GormDataType() string {
	return "text"
}

// UnmarshalJSON accepts either a JSON array or a single comma separated string.
func (a *StringList) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return a.parse(s)
	}
	return json.Unmarshal(data, (*[]string)(a))
}
