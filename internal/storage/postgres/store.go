package postgres

// Package postgres provides a pgx-backed storage implementation that satisfies
// the repository and writer interfaces used by the payment and reconcile
// services.
//
// It is intentionally small and explicit. Migrations that create the expected
// schema live under db/migrations. This package focuses on mapping between the
// domain entities and SQL rows; monetary values are stored as minor units next
// to a currency code.

import (
    "context"
    "errors"
    "strings"
    "time"

    "github.com/google/uuid"
    "github.com/govalues/money"
    "github.com/jackc/pgx/v5"
    "github.com/jackc/pgx/v5/pgxpool"

    "github.com/arkcrm/rentledger/internal/errs"
    "github.com/arkcrm/rentledger/internal/meta"
    "github.com/arkcrm/rentledger/internal/residency"
)

// Store holds a pgx connection pool and implements the read/write interfaces
// used across the service layer. All methods are safe for concurrent use.
type Store struct {
    pool     *pgxpool.Pool
    currency string
}

// Open establishes a pgx pool using the provided connection string. The
// currency code is used when rehydrating minor-unit columns.
func Open(ctx context.Context, dsn, currency string) (*Store, error) {
    cfg, err := pgxpool.ParseConfig(dsn)
    if err != nil { return nil, err }
    pool, err := pgxpool.NewWithConfig(ctx, cfg)
    if err != nil { return nil, err }
    // Verify connection
    if err := pool.Ping(ctx); err != nil { pool.Close(); return nil, err }
    return &Store{pool: pool, currency: strings.ToUpper(currency)}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() { if s.pool != nil { s.pool.Close() } }

// Ready pings the pool to verify connectivity.
func (s *Store) Ready(ctx context.Context) error { return s.pool.Ping(ctx) }

// SeedDev inserts one resident with a program fee and paid-until marker for
// quick local testing.
func (s *Store) SeedDev(ctx context.Context) (residency.Contact, error) {
    fee, err := money.NewAmountFromMinorUnits(s.currency, 85000)
    if err != nil { return residency.Contact{}, err }
    moveIn := time.Now().AddDate(0, -2, 0).Truncate(24 * time.Hour)
    paidUntil := moveIn.AddDate(0, 1, 0)
    c := residency.Contact{
        ID:        uuid.New(),
        FirstName: "Dev",
        LastName:  "Resident",
        Type:      residency.ContactResident,
        Status:    residency.StatusActive,
        Residency: &residency.ResidencyProfile{
            ProgramFee: &fee,
            MoveInDate: &moveIn,
            PaidUntil:  &paidUntil,
        },
        CreatedAt: time.Now(),
    }
    if err := s.InsertContact(ctx, c); err != nil { return residency.Contact{}, err }
    return c, nil
}

// --- Contact reads ---

const contactColumns = `
    id, first_name, last_name, type, status, email, phone, address, notes,
    metadata, created_at,
    program_fee_minor, move_in_date, paid_until, balance_minor,
    last_payment_date, discipler, comments, discharge_reason
`

// ResidentByID fetches a single contact by id.
func (s *Store) ResidentByID(ctx context.Context, id uuid.UUID) (residency.Contact, error) {
    row := s.pool.QueryRow(ctx, `
        select `+contactColumns+`
        from contacts
        where id = $1
    `, id)
    c, err := s.scanContact(row)
    if errors.Is(err, pgx.ErrNoRows) { return residency.Contact{}, errs.ErrNotFound }
    if err != nil { return residency.Contact{}, err }
    return c, nil
}

// Residents returns all contacts, newest first.
func (s *Store) Residents(ctx context.Context) ([]residency.Contact, error) {
    rows, err := s.pool.Query(ctx, `
        select `+contactColumns+`
        from contacts
        order by created_at desc, id asc
    `)
    if err != nil { return nil, err }
    defer rows.Close()
    out := make([]residency.Contact, 0)
    for rows.Next() {
        c, err := s.scanContact(rows)
        if err != nil { return nil, err }
        out = append(out, c)
    }
    return out, rows.Err()
}

// ResidentsEligibleForSync returns residents that carry a paid-until marker.
func (s *Store) ResidentsEligibleForSync(ctx context.Context) ([]residency.Contact, error) {
    rows, err := s.pool.Query(ctx, `
        select `+contactColumns+`
        from contacts
        where type = $1 and paid_until is not null
        order by id asc
    `, residency.ContactResident)
    if err != nil { return nil, err }
    defer rows.Close()
    out := make([]residency.Contact, 0)
    for rows.Next() {
        c, err := s.scanContact(rows)
        if err != nil { return nil, err }
        out = append(out, c)
    }
    return out, rows.Err()
}

// --- Contact writes ---

// InsertContact creates a contact row, flattening the residency profile into
// nullable columns.
func (s *Store) InsertContact(ctx context.Context, c residency.Contact) error {
    if err := c.Metadata.Validate(); err != nil { return err }
    md, _ := c.Metadata.MarshalStableJSON()
    var (
        feeMinor, balMinor            *int64
        moveIn, paidUntil, lastPaid   *time.Time
        discipler, comments           string
        discharge                     *string
    )
    if p := c.Residency; p != nil {
        if p.ProgramFee != nil {
            if v, ok := p.ProgramFee.MinorUnits(); ok { feeMinor = &v }
        }
        if p.Balance != nil {
            if v, ok := p.Balance.MinorUnits(); ok { balMinor = &v }
        }
        moveIn, paidUntil, lastPaid = p.MoveInDate, p.PaidUntil, p.LastPaymentDate
        discipler, comments = p.Discipler, p.Comments
        if p.DischargeReason != "" {
            d := string(p.DischargeReason)
            discharge = &d
        }
    }
    _, err := s.pool.Exec(ctx, `
        insert into contacts (
            id, first_name, last_name, type, status, email, phone, address, notes,
            metadata, created_at,
            program_fee_minor, move_in_date, paid_until, balance_minor,
            last_payment_date, discipler, comments, discharge_reason
        ) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
    `, c.ID, c.FirstName, c.LastName, c.Type, c.Status, c.Email, c.Phone, c.Address, c.Notes,
        md, c.CreatedAt,
        feeMinor, moveIn, paidUntil, balMinor,
        lastPaid, discipler, comments, discharge)
    return err
}

// UpdateResidentCache applies the non-nil fields of upd; coalesce keeps
// columns the caller did not set.
func (s *Store) UpdateResidentCache(ctx context.Context, residentID uuid.UUID, upd residency.CacheUpdate) error {
    var balMinor *int64
    if upd.Balance != nil {
        if v, ok := upd.Balance.MinorUnits(); ok { balMinor = &v }
    }
    ct, err := s.pool.Exec(ctx, `
        update contacts
        set paid_until        = coalesce($1, paid_until),
            balance_minor     = coalesce($2, balance_minor),
            last_payment_date = coalesce($3, last_payment_date)
        where id = $4
    `, upd.PaidUntil, balMinor, upd.LastPaymentDate, residentID)
    if err != nil { return err }
    if ct.RowsAffected() == 0 { return errs.ErrNotFound }
    return nil
}

// --- Payment reads ---

const paymentColumns = `
    id, resident_id, resident_name, currency, amount_minor, date,
    period_start, period_end, method, program_fee_minor, balance_minor,
    notes, created_at
`

// Ledger returns a resident's payments ascending by (date, created_at).
func (s *Store) Ledger(ctx context.Context, residentID uuid.UUID) ([]residency.PaymentRecord, error) {
    rows, err := s.pool.Query(ctx, `
        select `+paymentColumns+`
        from payments
        where resident_id = $1
        order by date asc, created_at asc, id asc
    `, residentID)
    if err != nil { return nil, err }
    defer rows.Close()
    return scanPayments(rows)
}

// AllPayments returns every payment, newest date first.
func (s *Store) AllPayments(ctx context.Context) ([]residency.PaymentRecord, error) {
    rows, err := s.pool.Query(ctx, `
        select `+paymentColumns+`
        from payments
        order by date desc, created_at desc, id asc
    `)
    if err != nil { return nil, err }
    defer rows.Close()
    return scanPayments(rows)
}

// --- Payment writes ---

// InsertPayment validates and stores a record.
func (s *Store) InsertPayment(ctx context.Context, rec residency.PaymentRecord) (residency.PaymentRecord, error) {
    if err := rec.Validate(); err != nil { return residency.PaymentRecord{}, err }
    amtMinor, _ := rec.Amount.MinorUnits()
    feeMinor, _ := rec.ProgramFee.MinorUnits()
    balMinor, _ := rec.Balance.MinorUnits()
    _, err := s.pool.Exec(ctx, `
        insert into payments (
            id, resident_id, resident_name, currency, amount_minor, date,
            period_start, period_end, method, program_fee_minor, balance_minor,
            notes, created_at
        ) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
    `, rec.ID, rec.ResidentID, rec.ResidentName, rec.Amount.Curr().Code(), amtMinor, rec.Date,
        rec.PeriodStart, rec.PeriodEnd, rec.Method, feeMinor, balMinor,
        rec.Notes, rec.CreatedAt)
    if err != nil { return residency.PaymentRecord{}, err }
    return rec, nil
}

// DeletePaymentsForResident drops a resident's whole ledger.
func (s *Store) DeletePaymentsForResident(ctx context.Context, residentID uuid.UUID) error {
    _, err := s.pool.Exec(ctx, `delete from payments where resident_id = $1`, residentID)
    return err
}

// --- Row mapping ---

type rowScanner interface{ Scan(dest ...any) error }

func (s *Store) scanContact(row rowScanner) (residency.Contact, error) {
    var (
        c                           residency.Contact
        mdBytes                     []byte
        feeMinor, balMinor          *int64
        moveIn, paidUntil, lastPaid *time.Time
        discipler, comments         string
        discharge                   *string
    )
    err := row.Scan(
        &c.ID, &c.FirstName, &c.LastName, &c.Type, &c.Status, &c.Email, &c.Phone, &c.Address, &c.Notes,
        &mdBytes, &c.CreatedAt,
        &feeMinor, &moveIn, &paidUntil, &balMinor,
        &lastPaid, &discipler, &comments, &discharge,
    )
    if err != nil { return residency.Contact{}, err }
    if len(mdBytes) > 0 {
        var m meta.Metadata
        if err := m.UnmarshalJSON(mdBytes); err == nil { c.Metadata = m }
    }
    hasProfile := feeMinor != nil || balMinor != nil || moveIn != nil || paidUntil != nil ||
        lastPaid != nil || discipler != "" || comments != "" || discharge != nil
    if hasProfile {
        p := &residency.ResidencyProfile{
            MoveInDate:      moveIn,
            PaidUntil:       paidUntil,
            LastPaymentDate: lastPaid,
            Discipler:       discipler,
            Comments:        comments,
        }
        if feeMinor != nil {
            a, err := money.NewAmountFromMinorUnits(s.currency, *feeMinor)
            if err != nil { return residency.Contact{}, err }
            p.ProgramFee = &a
        }
        if balMinor != nil {
            a, err := money.NewAmountFromMinorUnits(s.currency, *balMinor)
            if err != nil { return residency.Contact{}, err }
            p.Balance = &a
        }
        if discharge != nil { p.DischargeReason = residency.DischargeReason(*discharge) }
        c.Residency = p
    }
    return c, nil
}

func scanPayments(rows pgx.Rows) ([]residency.PaymentRecord, error) {
    out := make([]residency.PaymentRecord, 0)
    for rows.Next() {
        var (
            rec                          residency.PaymentRecord
            currency                     string
            amtMinor, feeMinor, balMinor int64
        )
        if err := rows.Scan(
            &rec.ID, &rec.ResidentID, &rec.ResidentName, &currency, &amtMinor, &rec.Date,
            &rec.PeriodStart, &rec.PeriodEnd, &rec.Method, &feeMinor, &balMinor,
            &rec.Notes, &rec.CreatedAt,
        ); err != nil { return nil, err }
        var err error
        if rec.Amount, err = money.NewAmountFromMinorUnits(currency, amtMinor); err != nil { return nil, err }
        if rec.ProgramFee, err = money.NewAmountFromMinorUnits(currency, feeMinor); err != nil { return nil, err }
        if rec.Balance, err = money.NewAmountFromMinorUnits(currency, balMinor); err != nil { return nil, err }
        out = append(out, rec)
    }
    return out, rows.Err()
}
