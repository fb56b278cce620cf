package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"

	"github.com/arkcrm/rentledger/internal/errs"
	"github.com/arkcrm/rentledger/internal/residency"
)

func usd(t *testing.T, minor int64) money.Amount {
	t.Helper()
	a, err := money.NewAmountFromMinorUnits("USD", minor)
	if err != nil {
		t.Fatalf("usd(%d): %v", minor, err)
	}
	return a
}

func resident(t *testing.T, paidUntil *time.Time) residency.Contact {
	t.Helper()
	fee := usd(t, 85000)
	return residency.Contact{
		ID:        uuid.New(),
		FirstName: "Sam",
		LastName:  "Porter",
		Type:      residency.ContactResident,
		Status:    residency.StatusActive,
		Residency: &residency.ResidencyProfile{
			ProgramFee: &fee,
			PaidUntil:  paidUntil,
		},
		CreatedAt: time.Now(),
	}
}

func record(t *testing.T, residentID uuid.UUID, date time.Time, created time.Time) residency.PaymentRecord {
	t.Helper()
	return residency.PaymentRecord{
		ID:           uuid.New(),
		ResidentID:   residentID,
		ResidentName: "Sam Porter",
		Amount:       usd(t, 85000),
		Date:         date,
		PeriodStart:  date,
		PeriodEnd:    date.AddDate(0, 1, 0),
		Method:       residency.MethodCash,
		ProgramFee:   usd(t, 85000),
		Balance:      usd(t, 85000),
		CreatedAt:    created,
	}
}

func TestResidentByIDNotFound(t *testing.T) {
	s := New()
	_, err := s.ResidentByID(context.Background(), uuid.New())
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEligibleForSyncFiltersByTypeAndMarker(t *testing.T) {
	s := New()
	paid := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	eligible := resident(t, &paid)
	s.SeedContact(eligible)

	noMarker := resident(t, nil)
	s.SeedContact(noMarker)

	mentor := resident(t, &paid)
	mentor.Type = residency.ContactMentor
	s.SeedContact(mentor)

	got, err := s.ResidentsEligibleForSync(context.Background())
	if err != nil {
		t.Fatalf("ResidentsEligibleForSync: %v", err)
	}
	if len(got) != 1 || got[0].ID != eligible.ID {
		t.Fatalf("expected only the eligible resident, got %d contacts", len(got))
	}
}

func TestInsertPaymentRejectsInvalid(t *testing.T) {
	s := New()
	res := resident(t, nil)
	s.SeedContact(res)

	rec := record(t, res.ID, time.Now(), time.Now())
	rec.Method = "Barter"
	if _, err := s.InsertPayment(context.Background(), rec); !errors.Is(err, errs.ErrInvalid) {
		t.Fatalf("expected ErrInvalid for unknown method, got %v", err)
	}

	ledger, err := s.Ledger(context.Background(), res.ID)
	if err != nil {
		t.Fatalf("Ledger: %v", err)
	}
	if len(ledger) != 0 {
		t.Fatalf("rejected record must not be stored, found %d", len(ledger))
	}
}

func TestLedgerOrderedByDateThenCreatedAt(t *testing.T) {
	s := New()
	res := resident(t, nil)
	s.SeedContact(res)
	ctx := context.Background()

	base := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	later := record(t, res.ID, base.AddDate(0, 1, 0), base.Add(2*time.Hour))
	sameDayNewer := record(t, res.ID, base, base.Add(time.Hour))
	first := record(t, res.ID, base, base)

	for _, r := range []residency.PaymentRecord{later, sameDayNewer, first} {
		if _, err := s.InsertPayment(ctx, r); err != nil {
			t.Fatalf("InsertPayment: %v", err)
		}
	}

	ledger, err := s.Ledger(ctx, res.ID)
	if err != nil {
		t.Fatalf("Ledger: %v", err)
	}
	want := []uuid.UUID{first.ID, sameDayNewer.ID, later.ID}
	if len(ledger) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(ledger))
	}
	for i, id := range want {
		if ledger[i].ID != id {
			t.Fatalf("position %d: wrong record order", i)
		}
	}
}

func TestUpdateResidentCacheKeepsUnsetFields(t *testing.T) {
	s := New()
	paid := time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)
	res := resident(t, &paid)
	s.SeedContact(res)
	ctx := context.Background()

	bal := usd(t, 170000)
	if err := s.UpdateResidentCache(ctx, res.ID, residency.CacheUpdate{Balance: &bal}); err != nil {
		t.Fatalf("UpdateResidentCache: %v", err)
	}

	got, err := s.ResidentByID(ctx, res.ID)
	if err != nil {
		t.Fatalf("ResidentByID: %v", err)
	}
	if got.Residency.Balance == nil || *got.Residency.Balance != bal {
		t.Fatal("balance was not updated")
	}
	if got.Residency.PaidUntil == nil || !got.Residency.PaidUntil.Equal(paid) {
		t.Fatal("paid-until must survive a balance-only update")
	}
}

func TestDeletePaymentsForResidentCascades(t *testing.T) {
	s := New()
	res := resident(t, nil)
	other := resident(t, nil)
	s.SeedContact(res)
	s.SeedContact(other)
	ctx := context.Background()

	now := time.Now()
	if _, err := s.InsertPayment(ctx, record(t, res.ID, now, now)); err != nil {
		t.Fatalf("InsertPayment: %v", err)
	}
	if _, err := s.InsertPayment(ctx, record(t, other.ID, now, now)); err != nil {
		t.Fatalf("InsertPayment: %v", err)
	}

	if err := s.DeletePaymentsForResident(ctx, res.ID); err != nil {
		t.Fatalf("DeletePaymentsForResident: %v", err)
	}

	gone, _ := s.Ledger(ctx, res.ID)
	if len(gone) != 0 {
		t.Fatalf("ledger should be empty after cascade, got %d", len(gone))
	}
	kept, _ := s.Ledger(ctx, other.ID)
	if len(kept) != 1 {
		t.Fatalf("other resident's ledger must be untouched, got %d", len(kept))
	}
	all, _ := s.AllPayments(ctx)
	if len(all) != 1 {
		t.Fatalf("expected 1 payment overall, got %d", len(all))
	}
}
