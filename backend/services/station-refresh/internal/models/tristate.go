package models

import (
	"database/sql/driver"
	"fmt"
)

// TriState is a boolean that may also be unknown. The zero value is Unknown.
type TriState int8

const (
	Unknown TriState = iota
	True
	False
)

// TriOf lifts a known bool.
func TriOf(b bool) TriState {
	if b {
		return True
	}
	return False
}

// Known reports whether the value is True or False.
func (t TriState) Known() bool {
	return t == True || t == False
}

// Bool returns the value and whether it is known.
func (t TriState) Bool() (value bool, ok bool) {
	switch t {
	case True:
		return true, true
	case False:
		return false, true
	default:
		return false, false
	}
}

func (t TriState) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "unknown"
	}
}

// Value stores Unknown as SQL NULL.
func (t TriState) Value() (driver.Value, error) {
	if v, ok := t.Bool(); ok {
		return v, nil
	}
	return nil, nil
}

// Scan reads a nullable boolean column.
func (t *TriState) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*t = Unknown
	case bool:
		*t = TriOf(v)
	default:
		return fmt.Errorf("models: cannot scan %T into TriState", src)
	}
	return nil
}

// MarshalJSON encodes Unknown as null.
func (t TriState) MarshalJSON() ([]byte, error) {
	switch t {
	case True:
		return []byte("true"), nil
	case False:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}
