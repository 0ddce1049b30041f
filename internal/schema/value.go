package schema

import (
	"database/sql/driver"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// Output layouts. They are fixed so that two runs over the same source data
// produce byte-identical files.
const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02 15:04:05"
)

// inputLayouts are tried in order when a date or timestamp arrives as text.
var inputLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"02/01/2006",
	"02/01/2006 15:04:05",
}

// default truthy/falsy sets (lowercased). Includes Portuguese "sim"/"não".
var (
	defaultTruthy = map[string]struct{}{
		"1": {}, "t": {}, "true": {}, "yes": {}, "y": {}, "sim": {}, "s": {},
	}
	defaultFalsy = map[string]struct{}{
		"0": {}, "f": {}, "false": {}, "no": {}, "n": {}, "nao": {}, "não": {},
	}
)

// Parse converts a driver value into the canonical Go value for the field:
// int64, bool, time.Time (UTC), or string for text, money and decimal kinds.
// nil stays nil.
func Parse(f Field, v any) (any, error) {
	if vr, ok := v.(driver.Valuer); ok {
		dv, err := vr.Value()
		if err != nil {
			return nil, err
		}
		v = dv
	}
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	if v == nil {
		return nil, nil
	}

	switch f.Kind() {
	case KindInt:
		return parseInt(v)
	case KindBool:
		return parseBool(f, v)
	case KindDate:
		t, err := parseTime(f, v)
		if err != nil {
			return nil, err
		}
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	case KindTimestamp:
		t, err := parseTime(f, v)
		if err != nil {
			return nil, err
		}
		return t.UTC(), nil
	case KindMoney:
		r, _, err := parseDecimal(v)
		if err != nil {
			return nil, err
		}
		return r.FloatString(2), nil
	case KindDecimal:
		r, scale, err := parseDecimal(v)
		if err != nil {
			return nil, err
		}
		s := r.FloatString(scale)
		if strings.Contains(s, ".") {
			s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
		}
		return s, nil
	default:
		switch t := v.(type) {
		case string:
			return t, nil
		case time.Time:
			return t.UTC().Format(TimestampLayout), nil
		default:
			return fmt.Sprint(t), nil
		}
	}
}

// Format renders a canonical value as CSV text.
func Format(f Field, v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		if f.Kind() == KindDate {
			return t.Format(DateLayout)
		}
		return t.UTC().Format(TimestampLayout)
	default:
		return fmt.Sprint(t)
	}
}

func parseInt(v any) (any, error) {
	switch t := v.(type) {
	case int64:
		return t, nil
	case int:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case int16:
		return int64(t), nil
	case int8:
		return int64(t), nil
	case uint64:
		if t > math.MaxInt64 {
			return nil, fmt.Errorf("value %d overflows int64", t)
		}
		return int64(t), nil
	case uint:
		if uint64(t) > math.MaxInt64 {
			return nil, fmt.Errorf("value %d overflows int64", t)
		}
		return int64(t), nil
	case uint32:
		return int64(t), nil
	case uint16:
		return int64(t), nil
	case uint8:
		return int64(t), nil
	case float64:
		if t != float64(int64(t)) {
			return nil, fmt.Errorf("non-integral value %v", t)
		}
		return int64(t), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return nil, err
		}
		return n, nil
	default:
		return nil, fmt.Errorf("unsupported int source %T", v)
	}
}

func parseBool(f Field, v any) (any, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case int64:
		return t != 0, nil
	case int32:
		return t != 0, nil
	case int:
		return t != 0, nil
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		if inSet(s, f.Truthy, defaultTruthy) {
			return true, nil
		}
		if inSet(s, f.Falsy, defaultFalsy) {
			return false, nil
		}
		return nil, fmt.Errorf("unrecognized boolean %q", t)
	default:
		return nil, fmt.Errorf("unsupported bool source %T", v)
	}
}

// inSet checks custom values when present, the defaults otherwise.
func inSet(s string, custom []string, def map[string]struct{}) bool {
	if len(custom) == 0 {
		_, ok := def[s]
		return ok
	}
	for _, c := range custom {
		if strings.ToLower(c) == s {
			return true
		}
	}
	return false
}

func parseTime(f Field, v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		s := strings.TrimSpace(t)
		if f.Layout != "" {
			if tm, err := time.Parse(f.Layout, s); err == nil {
				return tm, nil
			}
		}
		for _, l := range inputLayouts {
			if tm, err := time.Parse(l, s); err == nil {
				return tm, nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognized date %q", t)
	default:
		return time.Time{}, fmt.Errorf("unsupported date source %T", v)
	}
}

// parseDecimal reads an exact decimal from a driver value or text and
// returns it with the number of fractional digits it was written with.
// Text may use Brazilian formatting such as "R$ 1.234,56".
func parseDecimal(v any) (*big.Rat, int, error) {
	var s string
	switch t := v.(type) {
	case string:
		var err error
		if s, err = canonicalDecimal(t); err != nil {
			return nil, 0, err
		}
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil, 0, fmt.Errorf("non-finite number %v", t)
		}
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		if math.IsNaN(float64(t)) || math.IsInf(float64(t), 0) {
			return nil, 0, fmt.Errorf("non-finite number %v", t)
		}
		s = strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int64, int, int32, int16, int8, uint64, uint, uint32, uint16, uint8:
		s = fmt.Sprint(t)
	default:
		return nil, 0, fmt.Errorf("unsupported numeric source %T", v)
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, 0, fmt.Errorf("invalid number %q", s)
	}
	scale := 0
	if i := strings.IndexByte(s, '.'); i >= 0 {
		scale = len(s) - i - 1
	}
	return r, scale, nil
}

// canonicalDecimal rewrites number text to the plain "-1234.56" form.
// A comma is the decimal separator and dots group thousands; a lone dot with
// no comma is taken as a decimal point, which is how databases render
// numerics as text.
func canonicalDecimal(in string) (string, error) {
	s := strings.TrimSpace(in)
	sign := ""
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		sign, s = s[:1], strings.TrimSpace(s[1:])
	}
	s = strings.TrimSpace(strings.TrimPrefix(s, "R$"))
	if sign == "" && strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	if sign == "+" {
		sign = ""
	}

	intPart, frac := s, ""
	hasFrac := false
	comma := strings.LastIndexByte(s, ',')
	switch {
	case comma >= 0:
		if strings.Count(s, ",") > 1 || strings.LastIndexByte(s, '.') > comma {
			return "", fmt.Errorf("invalid number %q", in)
		}
		intPart, frac, hasFrac = s[:comma], s[comma+1:], true
		if strings.Contains(intPart, ".") {
			var err error
			if intPart, err = ungroup(intPart); err != nil {
				return "", fmt.Errorf("invalid number %q", in)
			}
		}
	case strings.Count(s, ".") > 1:
		var err error
		if intPart, err = ungroup(s); err != nil {
			return "", fmt.Errorf("invalid number %q", in)
		}
	case strings.Contains(s, "."):
		dot := strings.IndexByte(s, '.')
		intPart, frac, hasFrac = s[:dot], s[dot+1:], true
	}

	if !allDigits(intPart) || (hasFrac && !allDigits(frac)) {
		return "", fmt.Errorf("invalid number %q", in)
	}
	if hasFrac {
		return sign + intPart + "." + frac, nil
	}
	return sign + intPart, nil
}

// ungroup removes dot thousands separators, checking the groups are
// well formed ("1.234.567").
func ungroup(s string) (string, error) {
	groups := strings.Split(s, ".")
	if len(groups[0]) == 0 || len(groups[0]) > 3 {
		return "", fmt.Errorf("bad digit grouping")
	}
	for _, g := range groups[1:] {
		if len(g) != 3 {
			return "", fmt.Errorf("bad digit grouping")
		}
	}
	return strings.Join(groups, ""), nil
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
