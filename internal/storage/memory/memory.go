package memory

// Package memory provides a simple in-memory implementation used for
// development and tests. It keeps code paths easy to follow while
// allowing us to plug in a real DB later.
import (
    "context"
    "sort"
    "sync"
    "time"

    "github.com/google/uuid"

    "github.com/arkcrm/rentledger/internal/errs"
    "github.com/arkcrm/rentledger/internal/residency"
)

// paymentKey tracks ordering for a resident's ledger: asc by (Date, CreatedAt, ID).
type paymentKey struct {
    Date      time.Time
    CreatedAt time.Time
    ID        uuid.UUID
}

// Store is an in-memory implementation of the store adapter used by the
// payment and reconcile services. It is guarded by an RWMutex for
// concurrent reads/writes.
type Store struct {
    mu       sync.RWMutex
    contacts map[uuid.UUID]residency.Contact
    payments map[uuid.UUID]residency.PaymentRecord
    // Per-resident sorted index of payments for ordered ledger scans
    paymentKeysByResident map[uuid.UUID][]paymentKey
}

// New constructs an empty in-memory store.
func New() *Store {
    return &Store{
        contacts:              make(map[uuid.UUID]residency.Contact),
        payments:              make(map[uuid.UUID]residency.PaymentRecord),
        paymentKeysByResident: make(map[uuid.UUID][]paymentKey),
    }
}

// Seed helpers for local dev/tests.
func (s *Store) SeedContact(c residency.Contact) {
    s.mu.Lock()
    s.contacts[c.ID] = c.Clone()
    s.mu.Unlock()
}

func (s *Store) Reset() {
    s.mu.Lock()
    s.contacts = map[uuid.UUID]residency.Contact{}
    s.payments = map[uuid.UUID]residency.PaymentRecord{}
    s.paymentKeysByResident = map[uuid.UUID][]paymentKey{}
    s.mu.Unlock()
}

// ResidentByID returns a contact by id.
func (s *Store) ResidentByID(_ context.Context, id uuid.UUID) (residency.Contact, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    c, ok := s.contacts[id]
    if !ok {
        return residency.Contact{}, errs.ErrNotFound
    }
    return c.Clone(), nil
}

// Residents returns all contacts, newest first.
func (s *Store) Residents(_ context.Context) ([]residency.Contact, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    out := make([]residency.Contact, 0, len(s.contacts))
    for _, c := range s.contacts {
        out = append(out, c.Clone())
    }
    sort.Slice(out, func(i, j int) bool {
        if out[i].CreatedAt.Equal(out[j].CreatedAt) {
            return out[i].ID.String() < out[j].ID.String()
        }
        return out[i].CreatedAt.After(out[j].CreatedAt)
    })
    return out, nil
}

// ResidentsEligibleForSync returns active residents carrying a paid-until
// marker.
func (s *Store) ResidentsEligibleForSync(_ context.Context) ([]residency.Contact, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    out := make([]residency.Contact, 0)
    for _, c := range s.contacts {
        if c.Type != residency.ContactResident {
            continue
        }
        if c.Residency == nil || c.Residency.PaidUntil == nil {
            continue
        }
        out = append(out, c.Clone())
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
    return out, nil
}

// Ledger returns a resident's payments ascending by (date, created_at).
func (s *Store) Ledger(_ context.Context, residentID uuid.UUID) ([]residency.PaymentRecord, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    keys := s.paymentKeysByResident[residentID]
    out := make([]residency.PaymentRecord, 0, len(keys))
    for _, k := range keys {
        if p, ok := s.payments[k.ID]; ok {
            out = append(out, p)
        }
    }
    return out, nil
}

// AllPayments returns every payment, newest date first.
func (s *Store) AllPayments(_ context.Context) ([]residency.PaymentRecord, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    out := make([]residency.PaymentRecord, 0, len(s.payments))
    for _, p := range s.payments {
        out = append(out, p)
    }
    sort.Slice(out, func(i, j int) bool {
        if out[i].Date.Equal(out[j].Date) {
            return out[i].CreatedAt.After(out[j].CreatedAt)
        }
        return out[i].Date.After(out[j].Date)
    })
    return out, nil
}

// InsertPayment validates and stores a record. Records are immutable once
// written.
func (s *Store) InsertPayment(_ context.Context, rec residency.PaymentRecord) (residency.PaymentRecord, error) {
    if err := rec.Validate(); err != nil {
        return residency.PaymentRecord{}, err
    }
    s.mu.Lock()
    defer s.mu.Unlock()
    s.payments[rec.ID] = rec
    s.insertPaymentIndexLocked(rec.ResidentID, paymentKey{Date: rec.Date, CreatedAt: rec.CreatedAt, ID: rec.ID})
    return rec, nil
}

// UpdateResidentCache applies the non-nil fields of upd to the resident's
// residency profile, creating the profile if the contact has none yet.
func (s *Store) UpdateResidentCache(_ context.Context, residentID uuid.UUID, upd residency.CacheUpdate) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    c, ok := s.contacts[residentID]
    if !ok {
        return errs.ErrNotFound
    }
    c = c.Clone()
    if c.Residency == nil {
        c.Residency = &residency.ResidencyProfile{}
    }
    if upd.PaidUntil != nil {
        t := *upd.PaidUntil
        c.Residency.PaidUntil = &t
    }
    if upd.Balance != nil {
        b := *upd.Balance
        c.Residency.Balance = &b
    }
    if upd.LastPaymentDate != nil {
        t := *upd.LastPaymentDate
        c.Residency.LastPaymentDate = &t
    }
    s.contacts[residentID] = c
    return nil
}

// DeletePaymentsForResident drops a resident's whole ledger (contact
// deletion cascade).
func (s *Store) DeletePaymentsForResident(_ context.Context, residentID uuid.UUID) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    for _, k := range s.paymentKeysByResident[residentID] {
        delete(s.payments, k.ID)
    }
    delete(s.paymentKeysByResident, residentID)
    return nil
}

// insertPaymentIndexLocked inserts k into the per-resident sorted index,
// keeping order asc by (Date, CreatedAt, ID). Caller must hold s.mu.
func (s *Store) insertPaymentIndexLocked(residentID uuid.UUID, k paymentKey) {
    keys := s.paymentKeysByResident[residentID]
    i := sort.Search(len(keys), func(i int) bool {
        if keys[i].Date.After(k.Date) {
            return true
        }
        if !keys[i].Date.Equal(k.Date) {
            return false
        }
        if keys[i].CreatedAt.After(k.CreatedAt) {
            return true
        }
        if !keys[i].CreatedAt.Equal(k.CreatedAt) {
            return false
        }
        return keys[i].ID.String() > k.ID.String()
    })
    if i == len(keys) {
        s.paymentKeysByResident[residentID] = append(keys, k)
        return
    }
    keys = append(keys, paymentKey{})
    copy(keys[i+1:], keys[i:])
    keys[i] = k
    s.paymentKeysByResident[residentID] = keys
}
