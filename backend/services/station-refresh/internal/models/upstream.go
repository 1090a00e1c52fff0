package models

import (
	"bytes"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// UpstreamResponse is the body of GET /v2/networks/{id}.
type UpstreamResponse struct {
	Network UpstreamNetwork `json:"network"`
}

// UpstreamNetwork is the network envelope returned by the aggregator.
type UpstreamNetwork struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Stations []UpstreamStation `json:"stations"`
}

// UpstreamStation is one station as published by the aggregator. Decoding is
// lenient: fields with an unexpected JSON type decode as absent instead of
// failing the whole payload.
type UpstreamStation struct {
	ID         Text   `json:"id"`
	Name       Text   `json:"name"`
	Latitude   Number `json:"latitude"`
	Longitude  Number `json:"longitude"`
	FreeBikes  Number `json:"free_bikes"`
	EmptySlots Number `json:"empty_slots"`
	Timestamp  Text   `json:"timestamp"`
	Extra      Extra  `json:"extra"`

	// Raw is the station object exactly as received.
	Raw []byte `json:"-"`
}

// UnmarshalJSON keeps a copy of the raw object next to the decoded fields.
func (s *UpstreamStation) UnmarshalJSON(data []byte) error {
	type plain UpstreamStation
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*s = UpstreamStation(decoded)
	s.Raw = append([]byte(nil), data...)
	return nil
}

// Number is an optional numeric value. Booleans decode as 1/0 and numeric
// strings are parsed; anything else is absent.
type Number struct {
	Value float64
	Valid bool
}

// Num builds a present Number.
func Num(v float64) Number {
	return Number{Value: v, Valid: true}
}

// Truthy reports present and non-zero.
func (n Number) Truthy() bool {
	return n.Valid && n.Value != 0
}

// OrZero returns the value or 0 when absent.
func (n Number) OrZero() float64 {
	if !n.Valid {
		return 0
	}
	return n.Value
}

func (n *Number) UnmarshalJSON(data []byte) error {
	*n = parseNumber(data)
	return nil
}

func parseNumber(data []byte) Number {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
		return Number{}
	case bytes.Equal(data, []byte("true")):
		return Num(1)
	case bytes.Equal(data, []byte("false")):
		return Num(0)
	case data[0] == '"':
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return Number{}
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return Number{}
		}
		return Num(v)
	default:
		v, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return Number{}
		}
		return Num(v)
	}
}

// Flag is an optional boolean that providers encode as bool, 0/1 or a string.
type Flag int8

const (
	FlagAbsent Flag = iota
	FlagTrue
	FlagFalse
)

// Present reports whether the provider sent a usable value.
func (f Flag) Present() bool {
	return f != FlagAbsent
}

// IsTrue reports present-true.
func (f Flag) IsTrue() bool {
	return f == FlagTrue
}

// Tri converts the flag to a TriState.
func (f Flag) Tri() TriState {
	switch f {
	case FlagTrue:
		return True
	case FlagFalse:
		return False
	default:
		return Unknown
	}
}

func (f *Flag) UnmarshalJSON(data []byte) error {
	*f = parseFlag(data)
	return nil
}

func parseFlag(data []byte) Flag {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return FlagAbsent
		}
		b, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return FlagAbsent
		}
		if b {
			return FlagTrue
		}
		return FlagFalse
	}
	n := parseNumber(data)
	if !n.Valid {
		return FlagAbsent
	}
	if n.Value != 0 {
		return FlagTrue
	}
	return FlagFalse
}

// Text is a string that also accepts numbers and booleans.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
		*t = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*t = ""
			return nil
		}
		*t = Text(s)
	case data[0] == '{', data[0] == '[':
		*t = ""
	default:
		*t = Text(data)
	}
	return nil
}

// Extra holds the provider specific fields the normalizer understands.
type Extra struct {
	Virtual     Flag
	UID         string
	Slots       Number
	Operational Flag
	Online      Flag
	Status      string
	Renting     Flag
	Returning   Flag
	Ebikes      Number
	NormalBikes Number
}

// UnmarshalJSON picks the known keys out of the extra object. Unknown keys are
// ignored and a non-object value yields an empty Extra.
func (e *Extra) UnmarshalJSON(data []byte) error {
	*e = Extra{}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil
	}

	flag := func(key string) Flag {
		if raw, ok := fields[key]; ok {
			return parseFlag(raw)
		}
		return FlagAbsent
	}
	number := func(key string) Number {
		if raw, ok := fields[key]; ok {
			return parseNumber(raw)
		}
		return Number{}
	}
	text := func(key string) string {
		var t Text
		if raw, ok := fields[key]; ok {
			_ = t.UnmarshalJSON(raw)
		}
		return string(t)
	}

	e.Virtual = flag("virtual")
	e.UID = text("uid")
	e.Slots = number("slots")
	e.Operational = flag("operational")
	e.Online = flag("online")
	e.Status = strings.ToLower(strings.TrimSpace(text("status")))
	e.Renting = flag("renting")
	e.Returning = flag("returning")
	e.Ebikes = number("ebikes")
	e.NormalBikes = number("normal_bikes")
	return nil
}
