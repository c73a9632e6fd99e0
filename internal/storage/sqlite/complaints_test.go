package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/yegors/complaint-desk/pkg/logger"
)

func newTestStorage(t *testing.T) *ComplaintStorage {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "complaints.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	storage := NewComplaintStorage(db, logger.NewNop())
	if err := storage.InitDB(context.Background()); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	return storage
}

func TestStoreAndGetAllComplaints(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)

	first := &ComplaintRecord{
		Complaint:   "There is an URGENT baggage issue at Chicago airport",
		Category:    "Baggage Issue",
		Location:    "Chicago",
		HasLocation: true,
		Urgency:     "High",
	}
	second := &ComplaintRecord{
		Complaint: "My flight was delayed",
		Category:  "Flight Delay",
		Urgency:   "Normal",
	}

	id1, err := storage.StoreComplaint(ctx, first)
	if err != nil {
		t.Fatalf("StoreComplaint: %v", err)
	}
	id2, err := storage.StoreComplaint(ctx, second)
	if err != nil {
		t.Fatalf("StoreComplaint: %v", err)
	}
	if id2 <= id1 {
		t.Errorf("ids not increasing: %d, %d", id1, id2)
	}
	if first.ID != id1 {
		t.Errorf("record ID = %d, want %d", first.ID, id1)
	}

	records, err := storage.GetAllComplaints(ctx)
	if err != nil {
		t.Fatalf("GetAllComplaints: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	if got := records[0]; got.ID != id1 || got.Location != "Chicago" || !got.HasLocation || got.Category != "Baggage Issue" || got.Urgency != "High" {
		t.Errorf("first record = %+v", got)
	}
	if got := records[1]; got.HasLocation || got.Location != "" || got.Complaint != "My flight was delayed" {
		t.Errorf("second record = %+v", got)
	}
}

func TestGetAllComplaintsEmpty(t *testing.T) {
	records, err := newTestStorage(t).GetAllComplaints(context.Background())
	if err != nil {
		t.Fatalf("GetAllComplaints: %v", err)
	}
	if records == nil || len(records) != 0 {
		t.Errorf("records = %v, want empty slice", records)
	}
}

func TestInitDBIsIdempotent(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)

	if _, err := storage.StoreComplaint(ctx, &ComplaintRecord{Complaint: "a", Category: "Other", Urgency: "Normal"}); err != nil {
		t.Fatalf("StoreComplaint: %v", err)
	}
	if err := storage.InitDB(ctx); err != nil {
		t.Fatalf("second InitDB: %v", err)
	}

	records, err := storage.GetAllComplaints(ctx)
	if err != nil {
		t.Fatalf("GetAllComplaints: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("got %d records after re-init, want 1", len(records))
	}
}

func TestCountBy(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)

	for _, r := range []ComplaintRecord{
		{Complaint: "a", Category: "Flight Delay", Urgency: "Normal"},
		{Complaint: "b", Category: "Flight Delay", Urgency: "High"},
		{Complaint: "c", Category: "Security", Urgency: "Normal"},
	} {
		r := r
		if _, err := storage.StoreComplaint(ctx, &r); err != nil {
			t.Fatalf("StoreComplaint: %v", err)
		}
	}

	counts, err := storage.CountBy(ctx, FieldCategory)
	if err != nil {
		t.Fatalf("CountBy: %v", err)
	}
	want := []CountRow{{Value: "Flight Delay", Count: 2}, {Value: "Security", Count: 1}}
	if len(counts) != len(want) {
		t.Fatalf("counts = %v, want %v", counts, want)
	}
	for i := range want {
		if counts[i] != want[i] {
			t.Errorf("counts[%d] = %v, want %v", i, counts[i], want[i])
		}
	}

	if _, err := storage.CountBy(ctx, "complaint; DROP TABLE complaints_db"); !errors.Is(err, ErrUnknownField) {
		t.Errorf("err = %v, want ErrUnknownField", err)
	}
}
