// Package nano implements utilities for dealing with 64-bit integer
// timestamps and durations in nanosecond resolution.
package nano

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Ts is a timestamp in nanoseconds relative to the Unix epoch.
type Ts int64

const (
	MinTs = Ts(math.MinInt64)
	MaxTs = Ts(math.MaxInt64)
)

func (t Ts) Time() time.Time {
	sec, ns := t.split()
	return time.Unix(sec, ns).UTC()
}

func (t Ts) split() (int64, int64) {
	return int64(t) / 1e9, int64(t) % 1e9
}

// Unix returns the time in seconds since the Unix epoch, truncating
// any fractional seconds.
func (t Ts) Unix() int64 {
	sec, _ := t.split()
	return sec
}

func (t Ts) String() string {
	return t.StringFloat()
}

// StringFloat formats the timestamp as signed decimal seconds with
// trailing zeros removed from the fraction.
func (t Ts) StringFloat() string {
	return string(t.AppendFloat(nil, -1))
}

// AppendFloat appends the decimal-seconds representation of the timestamp
// to dst.  A negative precision formats the fraction with trailing zeros
// removed (and no decimal point at all for whole seconds) while a
// precision of n formats exactly n fractional digits.
func (t Ts) AppendFloat(dst []byte, precision int) []byte {
	if t < 0 {
		dst = append(dst, '-')
		t = -t
	}
	sec, ns := t.split()
	dst = strconv.AppendInt(dst, sec, 10)
	var frac [9]byte
	for i := 8; i >= 0; i-- {
		frac[i] = byte('0' + ns%10)
		ns /= 10
	}
	digits := frac[:]
	if precision < 0 {
		digits = bytes.TrimRight(digits, "0")
	} else if precision <= 9 {
		digits = digits[:precision]
	} else {
		digits = append(digits, bytes.Repeat([]byte{'0'}, precision-9)...)
	}
	if len(digits) > 0 {
		dst = append(dst, '.')
		dst = append(dst, digits...)
	}
	return dst
}

// Parse interprets s as signed decimal seconds, with an optional
// fractional part and optional exponent, and returns the corresponding Ts.
func Parse(s []byte) (Ts, error) {
	if bytes.IndexAny(s, "eE") >= 0 {
		f, err := strconv.ParseFloat(string(s), 64)
		if err != nil {
			return 0, err
		}
		return Ts(f * 1e9), nil
	}
	b := s
	var neg bool
	if len(b) > 0 && (b[0] == '+' || b[0] == '-') {
		neg = b[0] == '-'
		b = b[1:]
	}
	sec := b
	var frac []byte
	if i := bytes.IndexByte(b, '.'); i >= 0 {
		sec, frac = b[:i], b[i+1:]
	}
	if len(sec) == 0 && len(frac) == 0 {
		return 0, fmt.Errorf("invalid time format: %q", s)
	}
	var ns int64
	if len(sec) > 0 {
		v, err := strconv.ParseUint(string(sec), 10, 63)
		if err != nil {
			return 0, fmt.Errorf("invalid time format: %q", s)
		}
		ns = int64(v) * 1_000_000_000
	}
	scale := int64(100_000_000)
	for _, c := range frac {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("invalid time format: %q", s)
		}
		ns += int64(c-'0') * scale
		scale /= 10
		if scale == 0 {
			break
		}
	}
	if neg {
		ns = -ns
	}
	return Ts(ns), nil
}

// ParseMillis interprets s as an unsigned integer number of milliseconds.
func ParseMillis(s []byte) (Ts, error) {
	if len(s) == 0 {
		return 0, fmt.Errorf("invalid time format: %q", s)
	}
	var v int64
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("invalid time format: %q", s)
		}
		d := int64(c - '0')
		if v > (math.MaxInt64-d)/10 {
			return 0, fmt.Errorf("time overflow: %q", s)
		}
		v = v*10 + d
	}
	if v > math.MaxInt64/1_000_000 {
		return 0, fmt.Errorf("time overflow: %q", s)
	}
	return Ts(v * 1_000_000), nil
}
