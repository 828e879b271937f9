package membership

import (
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeDocument(t *testing.T) {
	ist, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	rec := testRecord()
	data := encodeRecord(rec, ist)

	assert.Equal(t, "m-1", data["userId"])
	assert.Equal(t, 699.0, data["amount"])
	assert.Equal(t, "completed", data["payment_status"])
	assert.Equal(t, []string{"Gym access", "Locker"}, data["features"])

	got, err := decodeDocument(rec.ID, data, ist)
	require.NoError(t, err)
	assert.Equal(t, *rec, got)
}

func TestDecodeDocument_LegacyShapes(t *testing.T) {
	ist, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	// Written by the browser client: JS Date objects become timestamps at
	// local midnight, which are the previous day in UTC.
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, ist)
	data := map[string]interface{}{
		"userId":     "uid-7",
		"plan_id":    "quarterly",
		"plan_name":  "Quarterly Plan",
		"amount":     int64(1999),
		"start_date": start.UTC(),
		"end_date":   map[string]interface{}{"seconds": time.Date(2024, 4, 1, 0, 0, 0, 0, ist).Unix(), "nanoseconds": int64(0)},
		"is_active":  true,
		"created_at": "2024-01-01T05:30:00Z",
		"features":   []interface{}{"Gym access", "Diet plan", 42},
	}

	rec, err := decodeDocument("doc-1", data, ist)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", rec.StartDate.String())
	assert.Equal(t, "2024-04-01", rec.EndDate.String())
	assert.Equal(t, int64(199900), rec.AmountPaise)
	assert.Equal(t, PaymentCompleted, rec.PaymentStatus)
	assert.Equal(t, FeatureList{"Gym access", "Diet plan"}, rec.Features)
	assert.Equal(t, time.Date(2024, 1, 1, 5, 30, 0, 0, time.UTC), rec.CreatedAt.UTC())
}

func TestDecodeDocument_BadDate(t *testing.T) {
	_, err := decodeDocument("doc-2", map[string]interface{}{
		"start_date": "someday",
		"end_date":   "2024-01-01",
	}, time.UTC)
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestEncodeUpdate(t *testing.T) {
	now := time.Date(2024, 5, 10, 10, 0, 0, 0, time.UTC)
	inactive := false
	end := Date{2024, time.May, 10}

	ups := encodeUpdate(RecordUpdate{IsActive: &inactive, EndDate: &end, UpdatedAt: now}, time.UTC)
	assert.Equal(t, []firestore.Update{
		{Path: "is_active", Value: false},
		{Path: "end_date", Value: time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)},
		{Path: "updated_at", Value: now},
	}, ups)

	ups = encodeUpdate(RecordUpdate{UpdatedAt: now}, time.UTC)
	assert.Len(t, ups, 1)
}
