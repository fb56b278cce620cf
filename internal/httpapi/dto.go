package httpapi

import (
    "time"

    "github.com/google/uuid"

    "github.com/arkcrm/rentledger/internal/residency"
    "github.com/arkcrm/rentledger/internal/service/payment"
)

// postPaymentRequest is the wire form of a real payment. Monetary values are
// minor units alongside an ISO currency code.
type postPaymentRequest struct {
    ResidentID  uuid.UUID `json:"resident_id"`
    Currency    string    `json:"currency"`
    AmountMinor int64     `json:"amount_minor"`
    Date        time.Time `json:"date"`
    PeriodStart time.Time `json:"period_start"`
    PeriodEnd   time.Time `json:"period_end"`
    Method      string    `json:"method"`
    Notes       string    `json:"notes,omitempty"`
}

type paymentResponse struct {
    ID              uuid.UUID `json:"id"`
    ResidentID      uuid.UUID `json:"resident_id"`
    ResidentName    string    `json:"resident_name"`
    Currency        string    `json:"currency"`
    AmountMinor     int64     `json:"amount_minor"`
    Date            time.Time `json:"date"`
    PeriodStart     time.Time `json:"period_start"`
    PeriodEnd       time.Time `json:"period_end"`
    Method          string    `json:"method"`
    ProgramFeeMinor int64     `json:"program_fee_minor"`
    BalanceMinor    int64     `json:"balance_minor"`
    Notes           string    `json:"notes,omitempty"`
    CreatedAt       time.Time `json:"created_at"`
}

func toPaymentResponse(rec residency.PaymentRecord) paymentResponse {
    amt, _ := rec.Amount.MinorUnits()
    fee, _ := rec.ProgramFee.MinorUnits()
    bal, _ := rec.Balance.MinorUnits()
    return paymentResponse{
        ID:              rec.ID,
        ResidentID:      rec.ResidentID,
        ResidentName:    rec.ResidentName,
        Currency:        rec.Amount.Curr().Code(),
        AmountMinor:     amt,
        Date:            rec.Date,
        PeriodStart:     rec.PeriodStart,
        PeriodEnd:       rec.PeriodEnd,
        Method:          string(rec.Method),
        ProgramFeeMinor: fee,
        BalanceMinor:    bal,
        Notes:           rec.Notes,
        CreatedAt:       rec.CreatedAt,
    }
}

func toPaymentResponses(recs []residency.PaymentRecord) []paymentResponse {
    out := make([]paymentResponse, 0, len(recs))
    for _, r := range recs {
        out = append(out, toPaymentResponse(r))
    }
    return out
}

type summaryResponse struct {
    ResidentID        uuid.UUID `json:"resident_id"`
    Currency          string    `json:"currency"`
    BalanceMinor      int64     `json:"balance_minor"`
    NextPaymentDue    time.Time `json:"next_payment_due"`
    Status            string    `json:"status"`
    DaysPastPaidUntil int       `json:"days_past_paid_until"`
    FeesLate          bool      `json:"fees_late"`
    FeesCritical      bool      `json:"fees_critical"`
}

func toSummaryResponse(s payment.Summary) summaryResponse {
    bal, _ := s.Balance.MinorUnits()
    return summaryResponse{
        ResidentID:        s.ResidentID,
        Currency:          s.Balance.Curr().Code(),
        BalanceMinor:      bal,
        NextPaymentDue:    s.NextPaymentDue,
        Status:            string(s.Status),
        DaysPastPaidUntil: s.DaysPastPaidUntil,
        FeesLate:          s.FeesLate,
        FeesCritical:      s.FeesCritical,
    }
}

type overdueEntryResponse struct {
    ResidentID      uuid.UUID  `json:"resident_id"`
    ResidentName    string     `json:"resident_name"`
    Currency        string     `json:"currency"`
    ProgramFeeMinor int64      `json:"program_fee_minor"`
    DaysOverdue     int        `json:"days_overdue"`
    LastPayment     *time.Time `json:"last_payment,omitempty"`
    LastAmountMinor int64      `json:"last_amount_minor"`
    BalanceMinor    int64      `json:"balance_minor"`
}

func toOverdueResponses(entries []payment.OverdueEntry) []overdueEntryResponse {
    out := make([]overdueEntryResponse, 0, len(entries))
    for _, e := range entries {
        fee, _ := e.ProgramFee.MinorUnits()
        last, _ := e.LastAmount.MinorUnits()
        bal, _ := e.Balance.MinorUnits()
        out = append(out, overdueEntryResponse{
            ResidentID:      e.ResidentID,
            ResidentName:    e.ResidentName,
            Currency:        e.ProgramFee.Curr().Code(),
            ProgramFeeMinor: fee,
            DaysOverdue:     e.DaysOverdue,
            LastPayment:     e.LastPayment,
            LastAmountMinor: last,
            BalanceMinor:    bal,
        })
    }
    return out
}
