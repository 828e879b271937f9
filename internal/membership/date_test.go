package membership

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, s string) Date {
	t.Helper()
	d, err := ParseDate(s, time.UTC)
	require.NoError(t, err)
	return d
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		start  string
		months int
		want   string
	}{
		{"2024-01-31", 1, "2024-02-29"},
		{"2023-01-31", 1, "2023-02-28"},
		{"2024-01-01", 3, "2024-04-01"},
		{"2024-03-31", 6, "2024-09-30"},
		{"2024-08-31", 6, "2025-02-28"},
		{"2024-12-15", 1, "2025-01-15"},
		{"2024-05-31", 1, "2024-06-30"},
		{"2024-01-15", -1, "2023-12-15"},
	}

	for _, tt := range tests {
		t.Run(tt.start, func(t *testing.T) {
			got := mustDate(t, tt.start).AddMonths(tt.months)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestNewDate_Invalid(t *testing.T) {
	_, err := NewDate(2023, time.February, 29)
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = NewDate(2024, time.February, 29)
	assert.NoError(t, err)
}

func TestParseDate(t *testing.T) {
	ist, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	// 2024-01-31T20:00:00Z is already Feb 1 in India.
	instant := time.Date(2024, 1, 31, 20, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		value interface{}
		want  string
	}{
		{"plain date string", "2024-01-31", "2024-01-31"},
		{"rfc3339 string", "2024-01-31T20:00:00Z", "2024-02-01"},
		{"bytes", []byte("2024-03-05"), "2024-03-05"},
		{"time", instant, "2024-02-01"},
		{"time pointer", &instant, "2024-02-01"},
		{"unix millis", instant.UnixMilli(), "2024-02-01"},
		{"unix millis float", float64(instant.UnixMilli()), "2024-02-01"},
		{"seconds map", map[string]interface{}{"seconds": instant.Unix(), "nanoseconds": int64(0)}, "2024-02-01"},
		{"underscore seconds map", map[string]interface{}{"_seconds": float64(instant.Unix())}, "2024-02-01"},
		{"date", Date{2024, time.July, 4}, "2024-07-04"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.value, ist)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseDate_Rejects(t *testing.T) {
	for _, v := range []interface{}{nil, "", "31/01/2024", "2024-02-30", true, map[string]interface{}{"nanos": 1}, Date{}} {
		_, err := ParseDate(v, time.UTC)
		assert.ErrorIs(t, err, ErrInvalidDate, "%#v", v)
	}
}

func TestDateJSON(t *testing.T) {
	var payload struct {
		Start Date `json:"start"`
		End   Date `json:"end"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"start":"2024-01-31","end":null}`), &payload))
	assert.Equal(t, "2024-01-31", payload.Start.String())
	assert.True(t, payload.End.IsZero())

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":"2024-01-31","end":null}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"start":"tomorrow"}`), &payload))
}

func TestDateSQL(t *testing.T) {
	d := mustDate(t, "2024-02-29")
	v, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", v)

	var scanned Date
	require.NoError(t, scanned.Scan(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, d, scanned)

	require.NoError(t, scanned.Scan(nil))
	assert.True(t, scanned.IsZero())
}

func TestDateCompare(t *testing.T) {
	a := mustDate(t, "2024-04-01")
	b := mustDate(t, "2024-05-01")
	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.Equal(t, 0, a.Compare(a))
}
