// Package reconcile keeps resident cached fields and the payment ledger
// consistent. It runs once at process start and may be re-run on demand;
// a run that finds everything in sync writes nothing.
package reconcile

import (
    "context"
    "errors"
    "fmt"
    "time"

    "github.com/google/uuid"
    "github.com/govalues/money"
    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promauto"
    "log/slog"

    "github.com/arkcrm/rentledger/internal/errs"
    "github.com/arkcrm/rentledger/internal/residency"
    "github.com/arkcrm/rentledger/internal/reslock"
)

var (
    residentsScanned = promauto.NewCounter(prometheus.CounterOpts{
        Namespace: "rentledger",
        Name:      "sync_residents_scanned_total",
        Help:      "Residents examined by ledger sync",
    })
    syncRecords = promauto.NewCounterVec(prometheus.CounterOpts{
        Namespace: "rentledger",
        Name:      "sync_records_created_total",
        Help:      "Synthetic ledger records written by sync",
    }, []string{"method"})
    syncFailures = promauto.NewCounter(prometheus.CounterOpts{
        Namespace: "rentledger",
        Name:      "sync_failures_total",
        Help:      "Per-resident sync failures (skipped, not fatal)",
    })
)

// Repo defines read operations needed by the engine.
type Repo interface {
    ResidentsEligibleForSync(ctx context.Context) ([]residency.Contact, error)
    ResidentByID(ctx context.Context, id uuid.UUID) (residency.Contact, error)
    Ledger(ctx context.Context, residentID uuid.UUID) ([]residency.PaymentRecord, error)
}

// Writer defines write operations needed by the engine.
type Writer interface {
    InsertPayment(ctx context.Context, rec residency.PaymentRecord) (residency.PaymentRecord, error)
    UpdateResidentCache(ctx context.Context, residentID uuid.UUID, upd residency.CacheUpdate) error
}

// Summary reports what one reconciliation pass did.
type Summary struct {
    ResidentsScanned int `json:"residents_scanned"`
    RecordsCreated   int `json:"records_created"`
    Skipped          int `json:"skipped"`
    Failures         int `json:"failures"`
}

// Engine walks eligible residents and appends synthetic records where the
// cached paid-until marker and the ledger's latest entry disagree.
type Engine struct {
    repo       Repo
    writer     Writer
    locks      *reslock.Registry
    log        *slog.Logger
    defaultFee money.Amount
    now        func() time.Time
}

func New(repo Repo, writer Writer, locks *reslock.Registry, logger *slog.Logger, defaultFee money.Amount) *Engine {
    return &Engine{
        repo:       repo,
        writer:     writer,
        locks:      locks,
        log:        logger,
        defaultFee: defaultFee,
        now:        time.Now,
    }
}

// Run reconciles every eligible resident. A failure for one resident is
// logged and counted, never fatal; only failure to enumerate residents at
// all is returned.
func (e *Engine) Run(ctx context.Context) (Summary, error) {
    residents, err := e.repo.ResidentsEligibleForSync(ctx)
    if err != nil {
        return Summary{}, fmt.Errorf("list residents for sync: %w", err)
    }
    var sum Summary
    for _, res := range residents {
        sum.ResidentsScanned++
        residentsScanned.Inc()
        rec, err := e.syncOne(ctx, res, residency.MethodSystemSync)
        switch {
        case err != nil:
            sum.Failures++
            syncFailures.Inc()
            e.log.Error("ledger sync failed for resident", "resident_id", res.ID, "err", err)
        case rec == nil:
            sum.Skipped++
        default:
            sum.RecordsCreated++
            e.log.Info("ledger sync record created",
                "resident_id", res.ID,
                "period_end", rec.PeriodEnd,
            )
        }
    }
    return sum, nil
}

// SyncResident reconciles a single resident, as happens after an
// out-of-band profile edit. The bridging record is tagged System Update
// to distinguish it from startup sync.
func (e *Engine) SyncResident(ctx context.Context, id uuid.UUID) (*residency.PaymentRecord, error) {
    res, err := e.repo.ResidentByID(ctx, id)
    if err != nil {
        return nil, err
    }
    if res.Type != residency.ContactResident {
        return nil, errs.ErrInvalid
    }
    return e.syncOne(ctx, res, residency.MethodSystemUpdate)
}

// syncOne holds the resident's lock across the read-compare-insert so a
// concurrent payment cannot slip between the ledger read and the write.
// Returns nil when the resident is already in sync or has no marker.
func (e *Engine) syncOne(ctx context.Context, res residency.Contact, method residency.PaymentMethod) (*residency.PaymentRecord, error) {
    prof := res.Residency
    if prof == nil || prof.PaidUntil == nil || prof.PaidUntil.IsZero() {
        return nil, nil
    }
    paidUntil := *prof.PaidUntil
    fee := res.FeeOrDefault(e.defaultFee)
    zero, err := money.NewAmountFromMinorUnits(fee.Curr().Code(), 0)
    if err != nil {
        return nil, err
    }

    unlock := e.locks.Lock(res.ID)
    defer unlock()

    records, err := e.repo.Ledger(ctx, res.ID)
    if err != nil {
        return nil, err
    }

    rec := residency.PaymentRecord{
        ID:           uuid.New(),
        ResidentID:   res.ID,
        ResidentName: res.DisplayName(),
        Amount:       zero,
        Date:         paidUntil,
        PeriodEnd:    paidUntil,
        Method:       method,
        ProgramFee:   fee,
        CreatedAt:    e.now(),
    }
    if last, ok := residency.LatestEntry(records); ok {
        if last.PeriodEnd.Equal(paidUntil) {
            // cache and ledger agree; nothing to write
            return nil, nil
        }
        bal, err := last.Balance.Add(fee)
        if err != nil {
            return nil, fmt.Errorf("bridge balance: %w", errs.ErrCurrencyMismatch)
        }
        rec.PeriodStart = last.PeriodEnd
        rec.Balance = bal
        rec.Notes = "Auto-generated ledger sync to match resident details"
    } else {
        start := paidUntil
        if prof.MoveInDate != nil && !prof.MoveInDate.IsZero() {
            start = *prof.MoveInDate
        }
        rec.PeriodStart = start
        rec.Balance = fee
        rec.Notes = "Auto-generated from resident details during ledger sync"
    }

    if err := rec.Validate(); err != nil {
        return nil, err
    }
    saved, err := e.writer.InsertPayment(ctx, rec)
    if err != nil {
        return nil, err
    }
    syncRecords.WithLabelValues(string(method)).Inc()

    // Point the cached balance at the new latest entry. PaidUntil already
    // matches; last-payment-date is untouched (no real money moved).
    upd := residency.CacheUpdate{Balance: &saved.Balance}
    if err := e.writer.UpdateResidentCache(ctx, res.ID, upd); err != nil {
        if !errors.Is(err, errs.ErrNotFound) {
            return &saved, err
        }
    }
    return &saved, nil
}
