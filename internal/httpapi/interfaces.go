package httpapi

import (
    "context"
    "time"

    "github.com/google/uuid"

    "github.com/arkcrm/rentledger/internal/residency"
    "github.com/arkcrm/rentledger/internal/service/payment"
    "github.com/arkcrm/rentledger/internal/service/reconcile"
)

// PaymentService abstracts the payment operations the API exposes.
type PaymentService interface {
    RecordPayment(ctx context.Context, req payment.Request) (residency.PaymentRecord, error)
    LedgerFor(ctx context.Context, residentID uuid.UUID) ([]residency.PaymentRecord, error)
    AllPayments(ctx context.Context) ([]residency.PaymentRecord, error)
    ResidentSummary(ctx context.Context, residentID uuid.UUID, now time.Time) (payment.Summary, error)
    OverdueReport(ctx context.Context, now time.Time) ([]payment.OverdueEntry, error)
    RemoveLedger(ctx context.Context, residentID uuid.UUID) error
}

// SyncEngine abstracts the reconciliation operations the API exposes.
type SyncEngine interface {
    Run(ctx context.Context) (reconcile.Summary, error)
    SyncResident(ctx context.Context, id uuid.UUID) (*residency.PaymentRecord, error)
}

// ReadyChecker reports whether the backing store can serve traffic.
type ReadyChecker interface {
    Ready(ctx context.Context) error
}
