/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package size implements a binary (base-1024) byte-size type used across the
// runtime to express page bounds, typed-header ceilings and graph size limits
// in a human-readable, viper/JSON/YAML friendly form.
package size

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Size is a byte count stored as a uint64, formatted and parsed in binary
// (1024-based) units.
type Size uint64

const (
	SizeNul  Size = 0
	SizeUnit Size = 1
	SizeKilo Size = SizeUnit << 10
	SizeMega Size = SizeKilo << 10
	SizeGiga Size = SizeMega << 10
	SizeTera Size = SizeGiga << 10
	SizePeta Size = SizeTera << 10
	SizeExa  Size = SizePeta << 10
)

const (
	FormatRound0 = "%.0f"
	FormatRound1 = "%.1f"
	FormatRound2 = "%.2f"
	FormatRound3 = "%.3f"
)

var defaultUnit rune = 'B'

// SetDefaultUnit changes the rune appended after the scale letter by Code
// when the caller passes 0 (e.g. 'i' for "Ki", "Mi", ... IEC-style suffixes).
func SetDefaultUnit(r rune) {
	if r != 0 {
		defaultUnit = r
	}
}

type scale struct {
	size   Size
	letter string
}

var scales = []scale{
	{SizeExa, "E"},
	{SizePeta, "P"},
	{SizeTera, "T"},
	{SizeGiga, "G"},
	{SizeMega, "M"},
	{SizeKilo, "K"},
}

func (s Size) scale() (Size, string) {
	for _, c := range scales {
		if s >= c.size {
			return c.size, c.letter
		}
	}
	return SizeUnit, ""
}

// Unit returns the scale suffix for this size ("B", "KB", "MB", ...). When r
// is non-zero it replaces the trailing 'B' (e.g. Unit('i') on a kilobyte size
// returns "Ki").
func (s Size) Unit(r rune) string {
	_, letter := s.scale()

	suffix := "B"
	if r != 0 {
		suffix = string(r)
	}

	return letter + suffix
}

// Code is Unit using the package default suffix (see SetDefaultUnit) when r
// is zero.
func (s Size) Code(r rune) string {
	if r == 0 {
		r = defaultUnit
	}
	return s.Unit(r)
}

// Format renders the numeric value of s at its natural scale using the given
// fmt float verb (e.g. FormatRound2, or any custom "%.Nf"/"%e" layout).
func (s Size) Format(layout string) string {
	div, _ := s.scale()
	v := float64(s) / float64(div)
	return fmt.Sprintf(layout, v)
}

// String implements fmt.Stringer, formatting with two decimals and the scale
// suffix, e.g. "5.25MB".
func (s Size) String() string {
	return s.Format(FormatRound2) + s.Unit(0)
}

// KiloBytes, MegaBytes, GigaBytes, TeraBytes, PetaBytes and ExaBytes return
// the size floored to the given unit.
func (s Size) KiloBytes() uint64 { return uint64(s / SizeKilo) }
func (s Size) MegaBytes() uint64 { return uint64(s / SizeMega) }
func (s Size) GigaBytes() uint64 { return uint64(s / SizeGiga) }
func (s Size) TeraBytes() uint64 { return uint64(s / SizeTera) }
func (s Size) PetaBytes() uint64 { return uint64(s / SizePeta) }
func (s Size) ExaBytes() uint64  { return uint64(s / SizeExa) }

// Int returns the size as an int64, saturating at math.MaxInt64.
func (s Size) Int() int64 {
	if s > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(s)
}

// Uint returns the size as a uint64.
func (s Size) Uint() uint64 {
	return uint64(s)
}

// Float64 returns the size as a float64.
func (s Size) Float64() float64 {
	return float64(s)
}

func toFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case Size:
		return float64(n), true
	default:
		return 0, false
	}
}

func saturateUint64(f float64) Size {
	if f >= math.MaxUint64 {
		return Size(math.MaxUint64)
	} else if f <= 0 {
		return 0
	}
	return Size(uint64(f))
}

// Mul multiplies s in place by v (any numeric type), ceiling the fractional
// remainder. Overflow saturates at math.MaxUint64.
func (s *Size) Mul(v interface{}) {
	_ = s.MulErr(v)
}

// MulErr is Mul reporting overflow as an error.
func (s *Size) MulErr(v interface{}) error {
	f, ok := toFloat64(v)
	if !ok {
		return fmt.Errorf("invalid multiplier %v", v)
	} else if f < 0 {
		f = 0
	}

	r := math.Ceil(float64(*s) * f)

	if r > math.MaxUint64 {
		*s = Size(uint64(math.MaxUint64))
		return fmt.Errorf("size overflow: multiplication exceeds max uint64")
	}

	*s = saturateUint64(r)
	return nil
}

// Div divides s in place by v, ceiling the fractional remainder.
func (s *Size) Div(v interface{}) {
	_ = s.DivErr(v)
}

// DivErr is Div reporting an invalid (zero or negative) divisor as an error.
func (s *Size) DivErr(v interface{}) error {
	f, ok := toFloat64(v)
	if !ok {
		return fmt.Errorf("invalid diviser %v", v)
	} else if f <= 0 {
		return fmt.Errorf("invalid diviser: %v must be strictly positive", v)
	}

	r := math.Ceil(float64(*s) / f)
	*s = saturateUint64(r)
	return nil
}

// Add adds v (any numeric type) to s in place, saturating at math.MaxUint64.
func (s *Size) Add(v interface{}) {
	_ = s.AddErr(v)
}

// AddErr is Add reporting overflow as an error.
func (s *Size) AddErr(v interface{}) error {
	f, ok := toFloat64(v)
	if !ok {
		return fmt.Errorf("invalid operand %v", v)
	} else if f < 0 {
		f = 0
	}

	r := float64(*s) + f

	if r > math.MaxUint64 {
		*s = Size(uint64(math.MaxUint64))
		return fmt.Errorf("size overflow: addition exceeds max uint64")
	}

	*s = saturateUint64(r)
	return nil
}

// Sub subtracts v from s in place, flooring at zero.
func (s *Size) Sub(v interface{}) {
	f, ok := toFloat64(v)
	if !ok || f < 0 {
		return
	}

	r := float64(*s) - f
	*s = saturateUint64(r)
}

// ParseInt64 / SizeFromInt64 convert an int64 to its absolute Size value.
func ParseInt64(i int64) Size {
	if i < 0 {
		if i == math.MinInt64 {
			return Size(math.MaxInt64) + 1
		}
		i = -i
	}
	return Size(uint64(i))
}

func SizeFromInt64(i int64) Size { return ParseInt64(i) }

// ParseUint64 converts a uint64 to Size directly.
func ParseUint64(u uint64) Size {
	return Size(u)
}

// ParseFloat64 / SizeFromFloat64 floor the absolute value of f into a Size,
// saturating at math.MaxUint64.
func ParseFloat64(f float64) Size {
	if f < 0 {
		f = -f
	}

	f = math.Floor(f)

	if f > math.MaxUint64 || math.IsInf(f, 1) {
		return Size(uint64(math.MaxUint64))
	}

	return Size(uint64(f))
}

func SizeFromFloat64(f float64) Size { return ParseFloat64(f) }

var unitMultiplier = map[string]Size{
	"":  SizeUnit,
	"B": SizeUnit,
	"K": SizeKilo, "KB": SizeKilo,
	"M": SizeMega, "MB": SizeMega,
	"G": SizeGiga, "GB": SizeGiga,
	"T": SizeTera, "TB": SizeTera,
	"P": SizePeta, "PB": SizePeta,
	"E": SizeExa, "EB": SizeExa,
}

// Parse decodes a human-readable size string ("5MB", "1.5GB", "+2K", ...)
// into a Size. Leading/trailing whitespace and matching quotes are trimmed;
// the numeric part may carry a leading '+' and a single decimal point; the
// unit suffix is case-insensitive and may be one or two letters. Negative
// values and un-parseable numbers or units are rejected.
func Parse(in string) (Size, error) {
	s := strings.TrimSpace(in)

	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			s = strings.TrimSpace(s[1 : len(s)-1])
		}
	}

	if s == "" {
		return 0, fmt.Errorf("invalid size: empty value")
	}

	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("invalid size: negative values are not allowed: %q", in)
	}

	s = strings.TrimPrefix(s, "+")

	i := 0
	for i < len(s) && (s[i] >= '0' && s[i] <= '9' || s[i] == '.') {
		i++
	}

	if i == 0 {
		return 0, fmt.Errorf("invalid size: missing numeric value: %q", in)
	}

	numPart := s[:i]
	unitPart := strings.ToUpper(strings.TrimSpace(s[i:]))

	if strings.Count(numPart, ".") > 1 {
		return 0, fmt.Errorf("invalid size: malformed number %q", numPart)
	}

	if unitPart == "" {
		return 0, fmt.Errorf("invalid size: missing unit in %q", in)
	}

	mul, ok := unitMultiplier[unitPart]
	if !ok {
		return 0, fmt.Errorf("invalid size: unknown unit %q", unitPart)
	}

	val, err := strconv.ParseFloat(numPart, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size: malformed number %q: %w", numPart, err)
	}

	r := val * float64(mul)
	if r > math.MaxUint64 {
		return 0, fmt.Errorf("invalid size: %q overflows max uint64", in)
	}

	return Size(uint64(r)), nil
}

// MarshalJSON encodes the size as its quoted String() form.
func (s Size) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(s.String())), nil
}

// UnmarshalJSON accepts either a quoted human-readable string or a bare
// numeric byte count.
func (s *Size) UnmarshalJSON(b []byte) error {
	str := strings.TrimSpace(string(b))

	if len(str) >= 2 && str[0] == '"' && str[len(str)-1] == '"' {
		unquoted, err := strconv.Unquote(str)
		if err != nil {
			return err
		}
		v, err := Parse(unquoted)
		if err != nil {
			return err
		}
		*s = v
		return nil
	}

	u, err := strconv.ParseUint(str, 10, 64)
	if err != nil {
		return err
	}

	*s = Size(u)
	return nil
}

// MarshalYAML encodes the size as its human-readable String() form.
func (s Size) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// UnmarshalYAML decodes a human-readable or bare numeric scalar into a Size.
func (s *Size) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var str string
	if err := unmarshal(&str); err == nil {
		v, err := Parse(str)
		if err != nil {
			return err
		}
		*s = v
		return nil
	}

	var u uint64
	if err := unmarshal(&u); err != nil {
		return err
	}

	*s = Size(u)
	return nil
}

// ViperDecoderHook returns a mapstructure-compatible decode hook that
// converts strings, byte slices and any numeric kind into a Size when the
// target field type is Size. Every other (from, to) type pair passes the
// input through unchanged.
func ViperDecoderHook() func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	sizeType := reflect.TypeOf(Size(0))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != sizeType {
			return data, nil
		}

		switch from.Kind() {
		case reflect.String:
			str, _ := data.(string)
			return Parse(str)

		case reflect.Slice:
			if from.Elem().Kind() == reflect.Uint8 {
				if b, ok := data.([]byte); ok {
					return Parse(string(b))
				}
			}
			return data, nil

		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			v := reflect.ValueOf(data).Int()
			return ParseInt64(v), nil

		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			v := reflect.ValueOf(data).Uint()
			return ParseUint64(v), nil

		case reflect.Float32, reflect.Float64:
			v := reflect.ValueOf(data).Float()
			return ParseFloat64(v), nil

		default:
			return data, nil
		}
	}
}
