package membership

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Document field names of the memberships collection.
const (
	fieldMemberID      = "userId"
	fieldPlanID        = "plan_id"
	fieldPlanName      = "plan_name"
	fieldAmount        = "amount"
	fieldFeatures      = "features"
	fieldStartDate     = "start_date"
	fieldEndDate       = "end_date"
	fieldIsActive      = "is_active"
	fieldPaymentStatus = "payment_status"
	fieldPaymentMethod = "payment_method"
	fieldCreatedAt     = "created_at"
	fieldUpdatedAt     = "updated_at"
)

// FirestoreRepository stores records as documents keyed by record id.
// Dates are written as timestamps at midnight in loc and amounts in rupees.
type FirestoreRepository struct {
	client     *firestore.Client
	collection string
	loc        *time.Location
	timeout    time.Duration
}

func NewFirestoreRepository(client *firestore.Client, collection string, loc *time.Location, timeout time.Duration) *FirestoreRepository {
	if collection == "" {
		collection = "memberships"
	}
	if loc == nil {
		loc = time.UTC
	}
	return &FirestoreRepository{client: client, collection: collection, loc: loc, timeout: timeout}
}

func (r *FirestoreRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

func (r *FirestoreRepository) ListByMember(ctx context.Context, memberID string) ([]Record, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	iter := r.client.Collection(r.collection).Where(fieldMemberID, "==", memberID).Documents(ctx)
	defer iter.Stop()

	var out []Record
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, storeError("list", err)
		}
		rec, err := decodeDocument(doc.Ref.ID, doc.Data(), r.loc)
		if err != nil {
			return nil, storeError("list", err)
		}
		out = append(out, rec)
	}

	sortNewestFirst(out)
	return out, nil
}

func (r *FirestoreRepository) Insert(ctx context.Context, rec *Record) (string, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if _, err := r.client.Collection(r.collection).Doc(rec.ID).Create(ctx, encodeRecord(rec, r.loc)); err != nil {
		return "", storeError("insert", err)
	}
	return rec.ID, nil
}

func (r *FirestoreRepository) Update(ctx context.Context, id string, upd RecordUpdate) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.client.Collection(r.collection).Doc(id).Update(ctx, encodeUpdate(upd, r.loc))
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	if err != nil {
		return storeError("update", err)
	}
	return nil
}

func (r *FirestoreRepository) InsertExclusive(ctx context.Context, rec *Record, deactivatedAt time.Time) (string, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	col := r.client.Collection(r.collection)
	active := col.Where(fieldMemberID, "==", rec.MemberID).Where(fieldIsActive, "==", true)
	inactive := false

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docs, err := tx.Documents(active).GetAll()
		if err != nil {
			return err
		}
		for _, doc := range docs {
			upd := RecordUpdate{IsActive: &inactive, UpdatedAt: deactivatedAt}
			if err := tx.Update(doc.Ref, encodeUpdate(upd, r.loc)); err != nil {
				return err
			}
		}
		return tx.Create(col.Doc(rec.ID), encodeRecord(rec, r.loc))
	})
	if err != nil {
		return "", storeError("insert_exclusive", err)
	}
	return rec.ID, nil
}

func encodeRecord(rec *Record, loc *time.Location) map[string]interface{} {
	return map[string]interface{}{
		fieldMemberID:      rec.MemberID,
		fieldPlanID:        rec.PlanID,
		fieldPlanName:      rec.PlanName,
		fieldAmount:        float64(rec.AmountPaise) / 100,
		fieldFeatures:      []string(rec.Features),
		fieldStartDate:     rec.StartDate.Time(loc),
		fieldEndDate:       rec.EndDate.Time(loc),
		fieldIsActive:      rec.IsActive,
		fieldPaymentStatus: string(rec.PaymentStatus),
		fieldPaymentMethod: rec.PaymentMethod,
		fieldCreatedAt:     rec.CreatedAt,
		fieldUpdatedAt:     rec.UpdatedAt,
	}
}

func encodeUpdate(upd RecordUpdate, loc *time.Location) []firestore.Update {
	var out []firestore.Update
	if upd.IsActive != nil {
		out = append(out, firestore.Update{Path: fieldIsActive, Value: *upd.IsActive})
	}
	if upd.EndDate != nil {
		out = append(out, firestore.Update{Path: fieldEndDate, Value: upd.EndDate.Time(loc)})
	}
	return append(out, firestore.Update{Path: fieldUpdatedAt, Value: upd.UpdatedAt})
}

// decodeDocument reads a memberships document, including ones written by
// older clients that stored dates as strings, epoch millis or raw
// {seconds, nanoseconds} maps.
func decodeDocument(id string, data map[string]interface{}, loc *time.Location) (Record, error) {
	rec := Record{
		ID:            id,
		MemberID:      stringField(data, fieldMemberID),
		PlanID:        stringField(data, fieldPlanID),
		PlanName:      stringField(data, fieldPlanName),
		PaymentMethod: stringField(data, fieldPaymentMethod),
		PaymentStatus: PaymentStatus(stringField(data, fieldPaymentStatus)),
		Features:      stringsField(data, fieldFeatures),
	}
	if rec.PaymentStatus == "" {
		rec.PaymentStatus = PaymentCompleted
	}
	rec.IsActive, _ = data[fieldIsActive].(bool)

	switch v := data[fieldAmount].(type) {
	case int64:
		rec.AmountPaise = v * 100
	case float64:
		rec.AmountPaise = int64(math.Round(v * 100))
	}

	var err error
	if rec.StartDate, err = ParseDate(data[fieldStartDate], loc); err != nil {
		return Record{}, fmt.Errorf("document %s: start_date: %w", id, err)
	}
	if rec.EndDate, err = ParseDate(data[fieldEndDate], loc); err != nil {
		return Record{}, fmt.Errorf("document %s: end_date: %w", id, err)
	}
	if t, err := parseInstant(data[fieldCreatedAt]); err == nil {
		rec.CreatedAt = t
	}
	if t, err := parseInstant(data[fieldUpdatedAt]); err == nil {
		rec.UpdatedAt = t
	}
	return rec, nil
}

func stringField(data map[string]interface{}, key string) string {
	s, _ := data[key].(string)
	return s
}

// stringsField accepts the []interface{} Firestore returns for arrays as
// well as a plain []string.
func stringsField(data map[string]interface{}, key string) FeatureList {
	switch raw := data[key].(type) {
	case []string:
		return append(FeatureList(nil), raw...)
	case []interface{}:
		var out FeatureList
		for _, v := range raw {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func sortNewestFirst(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
}
