package membership

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar date with no time of day or zone. Every stored
// representation is converted into a Date by ParseDate.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func NewDate(year int, month time.Month, day int) (Date, error) {
	d := Date{Year: year, Month: month, Day: day}
	if !d.Valid() {
		return Date{}, fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidDate, year, int(month), day)
	}
	return d, nil
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) Valid() bool {
	if d.Year < 1 || d.Month < time.January || d.Month > time.December {
		return false
	}
	return d.Day >= 1 && d.Day <= daysIn(d.Year, d.Month)
}

// Time returns midnight of d in loc.
func (d Date) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// AddMonths moves d by n calendar months. When the target month is shorter
// than d.Day the result is clamped to that month's last day, so Jan 31 + 1
// month is Feb 29 in a leap year and Feb 28 otherwise.
func (d Date) AddMonths(n int) Date {
	total := int(d.Month) - 1 + n
	year := d.Year + floorDiv(total, 12)
	month := time.Month(total-floorDiv(total, 12)*12 + 1)

	day := d.Day
	if last := daysIn(year, month); day > last {
		day = last
	}
	return Date{Year: year, Month: month, Day: day}
}

func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }
func (d Date) After(o Date) bool  { return d.Compare(o) > 0 }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, string(b))
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s, time.UTC)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

func (d *Date) Scan(src interface{}) error {
	if src == nil {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(src, time.UTC)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDate normalises any representation a membership date has been stored
// in: Date, time.Time, ISO strings, raw Unix milliseconds and Firestore-style
// {seconds, nanoseconds} maps. Instants are read as calendar dates in loc.
func ParseDate(v interface{}, loc *time.Location) (Date, error) {
	if loc == nil {
		loc = time.UTC
	}

	switch val := v.(type) {
	case Date:
		if !val.Valid() {
			return Date{}, fmt.Errorf("%w: %v", ErrInvalidDate, val)
		}
		return val, nil
	case *Date:
		if val == nil {
			return Date{}, ErrInvalidDate
		}
		return ParseDate(*val, loc)
	case string:
		return parseDateString(strings.TrimSpace(val), loc)
	case []byte:
		return parseDateString(strings.TrimSpace(string(val)), loc)
	}

	t, err := parseInstant(v)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t.In(loc)), nil
}

func parseDateString(s string, loc *time.Location) (Date, error) {
	if s == "" {
		return Date{}, fmt.Errorf("%w: empty string", ErrInvalidDate)
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return DateOf(t), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return DateOf(t.In(loc)), nil
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// parseInstant converts the timestamp shapes found in stored documents into
// a time.Time.
func parseInstant(v interface{}) (time.Time, error) {
	switch val := v.(type) {
	case time.Time:
		if val.IsZero() {
			return time.Time{}, fmt.Errorf("%w: zero time", ErrInvalidDate)
		}
		return val, nil
	case *time.Time:
		if val == nil {
			return time.Time{}, ErrInvalidDate
		}
		return parseInstant(*val)
	case string:
		t, err := time.Parse(time.RFC3339, strings.TrimSpace(val))
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, val)
		}
		return t, nil
	case int64:
		return time.UnixMilli(val), nil
	case int:
		return time.UnixMilli(int64(val)), nil
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidDate, val)
		}
		return time.UnixMilli(int64(val)), nil
	case map[string]interface{}:
		return parseSecondsMap(val)
	}
	return time.Time{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidDate, v)
}

func parseSecondsMap(m map[string]interface{}) (time.Time, error) {
	secs, ok := numberField(m, "seconds", "_seconds")
	if !ok {
		return time.Time{}, fmt.Errorf("%w: timestamp map without seconds", ErrInvalidDate)
	}
	nanos, _ := numberField(m, "nanoseconds", "_nanoseconds")
	return time.Unix(secs, nanos), nil
}

func numberField(m map[string]interface{}, keys ...string) (int64, bool) {
	for _, k := range keys {
		switch n := m[k].(type) {
		case int64:
			return n, true
		case int:
			return int64(n), true
		case float64:
			return int64(n), true
		}
	}
	return 0, false
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
