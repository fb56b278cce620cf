package payment

import (
    "context"
    "fmt"
    "time"

    "github.com/google/uuid"
    "github.com/govalues/money"
    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promauto"
    "log/slog"

    "github.com/arkcrm/rentledger/internal/errs"
    "github.com/arkcrm/rentledger/internal/events"
    "github.com/arkcrm/rentledger/internal/residency"
    "github.com/arkcrm/rentledger/internal/reslock"
)

var paymentsRecorded = promauto.NewCounterVec(
    prometheus.CounterOpts{
        Namespace: "rentledger",
        Name:      "payments_recorded_total",
        Help:      "Payments accepted into the ledger",
    },
    []string{"method"},
)

// Repo defines read operations needed by the service.
type Repo interface {
    ResidentByID(ctx context.Context, id uuid.UUID) (residency.Contact, error)
    Residents(ctx context.Context) ([]residency.Contact, error)
    Ledger(ctx context.Context, residentID uuid.UUID) ([]residency.PaymentRecord, error)
    AllPayments(ctx context.Context) ([]residency.PaymentRecord, error)
}

// Writer defines write operations needed by the service.
type Writer interface {
    InsertPayment(ctx context.Context, rec residency.PaymentRecord) (residency.PaymentRecord, error)
    UpdateResidentCache(ctx context.Context, residentID uuid.UUID, upd residency.CacheUpdate) error
    DeletePaymentsForResident(ctx context.Context, residentID uuid.UUID) error
}

// Request carries an incoming real payment.
type Request struct {
    ResidentID  uuid.UUID
    Amount      money.Amount
    Date        time.Time
    PeriodStart time.Time
    PeriodEnd   time.Time
    Method      residency.PaymentMethod
    Notes       string
}

// Summary is the derived view of one resident's standing, as shown on the
// payment-details panel.
type Summary struct {
    ResidentID     uuid.UUID
    Balance        money.Amount
    NextPaymentDue time.Time
    Status         residency.PaymentStatus
    // DaysPastPaidUntil counts from the cached paid-until marker; negative
    // when paid ahead. Zero when no marker is set.
    DaysPastPaidUntil int
    FeesLate          bool
    FeesCritical      bool
}

// OverdueEntry is one row of the overdue-payments report.
type OverdueEntry struct {
    ResidentID   uuid.UUID
    ResidentName string
    ProgramFee   money.Amount
    DaysOverdue  int
    LastPayment  *time.Time
    LastAmount   money.Amount
    Balance      money.Amount
}

// Service records payments and answers ledger queries.
type Service interface {
    RecordPayment(ctx context.Context, req Request) (residency.PaymentRecord, error)
    LedgerFor(ctx context.Context, residentID uuid.UUID) ([]residency.PaymentRecord, error)
    AllPayments(ctx context.Context) ([]residency.PaymentRecord, error)
    ResidentSummary(ctx context.Context, residentID uuid.UUID, now time.Time) (Summary, error)
    OverdueReport(ctx context.Context, now time.Time) ([]OverdueEntry, error)
    RemoveLedger(ctx context.Context, residentID uuid.UUID) error
}

type service struct {
    repo       Repo
    writer     Writer
    locks      *reslock.Registry
    pub        events.Publisher
    log        *slog.Logger
    defaultFee money.Amount
    now        func() time.Time
}

// New constructs the payment service. A nil publisher disables events.
func New(repo Repo, writer Writer, locks *reslock.Registry, pub events.Publisher, logger *slog.Logger, defaultFee money.Amount) Service {
    if pub == nil {
        pub = events.Nop{}
    }
    return &service{
        repo:       repo,
        writer:     writer,
        locks:      locks,
        pub:        pub,
        log:        logger,
        defaultFee: defaultFee,
        now:        time.Now,
    }
}

// RecordPayment appends a real payment to the resident's ledger and moves
// the cached paid-until marker and balance forward. The ledger read and
// both writes run under the resident's lock so concurrent payments cannot
// compute from the same previous balance.
func (s *service) RecordPayment(ctx context.Context, req Request) (residency.PaymentRecord, error) {
    if req.ResidentID == uuid.Nil {
        return residency.PaymentRecord{}, errs.ErrInvalid
    }
    res, err := s.repo.ResidentByID(ctx, req.ResidentID)
    if err != nil {
        return residency.PaymentRecord{}, err
    }
    fee := res.FeeOrDefault(s.defaultFee)

    unlock := s.locks.Lock(req.ResidentID)
    defer unlock()

    records, err := s.repo.Ledger(ctx, req.ResidentID)
    if err != nil {
        return residency.PaymentRecord{}, err
    }
    previous := fee
    if last, ok := residency.LatestEntry(records); ok {
        previous = last.Balance
    }
    withFee, err := previous.Add(fee)
    if err != nil {
        return residency.PaymentRecord{}, fmt.Errorf("balance: %w", errs.ErrCurrencyMismatch)
    }
    newBalance, err := withFee.Sub(req.Amount)
    if err != nil {
        return residency.PaymentRecord{}, fmt.Errorf("balance: %w", errs.ErrCurrencyMismatch)
    }

    rec := residency.PaymentRecord{
        ID:           uuid.New(),
        ResidentID:   req.ResidentID,
        ResidentName: res.DisplayName(),
        Amount:       req.Amount,
        Date:         req.Date,
        PeriodStart:  req.PeriodStart,
        PeriodEnd:    req.PeriodEnd,
        Method:       req.Method,
        ProgramFee:   fee,
        Balance:      newBalance,
        Notes:        req.Notes,
        CreatedAt:    s.now(),
    }
    if err := rec.Validate(); err != nil {
        return residency.PaymentRecord{}, err
    }
    saved, err := s.writer.InsertPayment(ctx, rec)
    if err != nil {
        return residency.PaymentRecord{}, err
    }
    paymentsRecorded.WithLabelValues(string(rec.Method)).Inc()

    paymentDate := saved.Date
    upd := residency.CacheUpdate{
        PaidUntil:       &saved.PeriodEnd,
        Balance:         &saved.Balance,
        LastPaymentDate: &paymentDate,
    }
    if err := s.writer.UpdateResidentCache(ctx, req.ResidentID, upd); err != nil {
        // Ledger and cache now diverge; the sync engine heals this on its
        // next run. Surface the failure regardless.
        return saved, err
    }
    s.publish(ctx, saved)
    return saved, nil
}

func (s *service) publish(ctx context.Context, rec residency.PaymentRecord) {
    amt, _ := rec.Amount.MinorUnits()
    bal, _ := rec.Balance.MinorUnits()
    ev := events.PaymentRecorded{
        PaymentID:    rec.ID,
        ResidentID:   rec.ResidentID,
        Method:       string(rec.Method),
        Currency:     rec.Amount.Curr().Code(),
        AmountMinor:  amt,
        BalanceMinor: bal,
        PeriodEnd:    rec.PeriodEnd,
        RecordedAt:   rec.CreatedAt,
    }
    if err := s.pub.Publish(ctx, ev); err != nil {
        s.log.Warn("publish payment event", "payment_id", rec.ID, "err", err)
    }
}

func (s *service) LedgerFor(ctx context.Context, residentID uuid.UUID) ([]residency.PaymentRecord, error) {
    if residentID == uuid.Nil {
        return nil, errs.ErrInvalid
    }
    if _, err := s.repo.ResidentByID(ctx, residentID); err != nil {
        return nil, err
    }
    return s.repo.Ledger(ctx, residentID)
}

func (s *service) AllPayments(ctx context.Context) ([]residency.PaymentRecord, error) {
    return s.repo.AllPayments(ctx)
}

// ResidentSummary derives balance, due date and lateness from the ledger
// and the cached paid-until marker.
func (s *service) ResidentSummary(ctx context.Context, residentID uuid.UUID, now time.Time) (Summary, error) {
    res, err := s.repo.ResidentByID(ctx, residentID)
    if err != nil {
        return Summary{}, err
    }
    records, err := s.repo.Ledger(ctx, residentID)
    if err != nil {
        return Summary{}, err
    }
    fee := res.FeeOrDefault(s.defaultFee)
    _, paidThisMonth := residency.PaymentInMonth(records, now)
    due := residency.NextPaymentDue(now, paidThisMonth)

    out := Summary{
        ResidentID:     residentID,
        Balance:        residency.CurrentBalance(records, fee, now),
        NextPaymentDue: due,
        Status:         residency.Status(now, due),
    }
    if res.Residency != nil && res.Residency.PaidUntil != nil {
        paidUntil := *res.Residency.PaidUntil
        out.DaysPastPaidUntil = residency.DaysPastPaidUntil(paidUntil, now)
        out.FeesLate = residency.FeesLate(paidUntil, now)
        out.FeesCritical = residency.FeesCritical(paidUntil, now)
    }
    return out, nil
}

// OverdueReport lists active residents whose latest covered period has
// lapsed, with how far past it they are.
func (s *service) OverdueReport(ctx context.Context, now time.Time) ([]OverdueEntry, error) {
    contacts, err := s.repo.Residents(ctx)
    if err != nil {
        return nil, err
    }
    out := make([]OverdueEntry, 0)
    for _, c := range contacts {
        if c.Type != residency.ContactResident {
            continue
        }
        records, err := s.repo.Ledger(ctx, c.ID)
        if err != nil {
            return nil, err
        }
        last, ok := residency.LatestEntry(records)
        if !ok {
            continue
        }
        days := residency.DaysPastPaidUntil(last.PeriodEnd, now)
        if days <= 0 {
            continue
        }
        lastDate := last.Date
        out = append(out, OverdueEntry{
            ResidentID:   c.ID,
            ResidentName: c.DisplayName(),
            ProgramFee:   c.FeeOrDefault(s.defaultFee),
            DaysOverdue:  days,
            LastPayment:  &lastDate,
            LastAmount:   last.Amount,
            Balance:      last.Balance,
        })
    }
    return out, nil
}

// RemoveLedger drops every payment for a resident. Called by the contact
// collaborator when a contact is deleted.
func (s *service) RemoveLedger(ctx context.Context, residentID uuid.UUID) error {
    if residentID == uuid.Nil {
        return errs.ErrInvalid
    }
    unlock := s.locks.Lock(residentID)
    defer unlock()
    return s.writer.DeletePaymentsForResident(ctx, residentID)
}
