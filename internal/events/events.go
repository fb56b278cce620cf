// Package events defines the payment events the service emits for
// downstream consumers (bookkeeping exports, notification jobs).
package events

import (
    "context"
    "time"

    "github.com/google/uuid"
)

// PaymentRecorded is emitted after a payment record is durably written.
type PaymentRecorded struct {
    PaymentID    uuid.UUID `json:"payment_id"`
    ResidentID   uuid.UUID `json:"resident_id"`
    Method       string    `json:"method"`
    Currency     string    `json:"currency"`
    AmountMinor  int64     `json:"amount_minor"`
    BalanceMinor int64     `json:"balance_minor"`
    PeriodEnd    time.Time `json:"period_end"`
    RecordedAt   time.Time `json:"recorded_at"`
}

// Publisher delivers events to a broker. Delivery is best-effort from the
// ledger's point of view; a failed publish never fails the payment.
type Publisher interface {
    Publish(ctx context.Context, ev PaymentRecorded) error
}

// Nop discards events. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, PaymentRecorded) error { return nil }
