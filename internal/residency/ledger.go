package residency

// Ledger math: pure derivations over a resident's ordered payment history.
// Nothing here touches storage and nothing here returns an error; empty
// histories get the documented fallback values.

import (
    "time"

    "github.com/govalues/money"
)

const day = 24 * time.Hour

// feeDueDay is the day of the month program fees fall due.
const feeDueDay = 5

// LatestEntry returns the record with the maximum PeriodEnd, ties broken
// by Date and then CreatedAt. This is the single definition of "latest"
// used by ingestion, sync, and reporting alike.
func LatestEntry(records []PaymentRecord) (PaymentRecord, bool) {
    if len(records) == 0 {
        return PaymentRecord{}, false
    }
    best := records[0]
    for _, r := range records[1:] {
        if laterEntry(r, best) {
            best = r
        }
    }
    return best, true
}

func laterEntry(a, b PaymentRecord) bool {
    if !a.PeriodEnd.Equal(b.PeriodEnd) {
        return a.PeriodEnd.After(b.PeriodEnd)
    }
    if !a.Date.Equal(b.Date) {
        return a.Date.After(b.Date)
    }
    // equal period and date: later insertion wins
    return !a.CreatedAt.Before(b.CreatedAt)
}

// PaymentInMonth returns the latest-dated record whose Date falls in the
// same calendar month and year as t.
func PaymentInMonth(records []PaymentRecord, t time.Time) (PaymentRecord, bool) {
    var best PaymentRecord
    found := false
    for _, r := range records {
        if r.Date.Year() != t.Year() || r.Date.Month() != t.Month() {
            continue
        }
        if !found || r.Date.After(best.Date) {
            best = r
            found = true
        }
    }
    return best, found
}

// CurrentBalance derives what the resident owes as of today:
// the balance of this month's payment if one exists, otherwise the latest
// entry's balance plus one program fee, otherwise the fee itself.
func CurrentBalance(records []PaymentRecord, fee money.Amount, today time.Time) money.Amount {
    if p, ok := PaymentInMonth(records, today); ok {
        return p.Balance
    }
    if last, ok := LatestEntry(records); ok {
        if v, err := last.Balance.Add(fee); err == nil {
            return v
        }
        return last.Balance
    }
    return fee
}

// NextPaymentDue returns the 5th of next month when this month is already
// paid, else the 5th of the current month.
func NextPaymentDue(today time.Time, paidThisMonth bool) time.Time {
    if paidThisMonth {
        return time.Date(today.Year(), today.Month()+1, feeDueDay, 0, 0, 0, 0, today.Location())
    }
    return time.Date(today.Year(), today.Month(), feeDueDay, 0, 0, 0, 0, today.Location())
}

// Status classifies lateness against a due date. Whole days are counted by
// truncation, matching the dashboard's behaviour. Callers normally pass the
// result of NextPaymentDue.
func Status(today, due time.Time) PaymentStatus {
    daysLate := int(today.Sub(due) / day)
    switch {
    case daysLate <= 0:
        return StatusOnTime
    case daysLate <= 30:
        return StatusLate
    default:
        return StatusSeverelyLate
    }
}

// DaysPastPaidUntil counts days from the paid-until marker to today,
// rounding any partial day up. Negative when paid ahead.
func DaysPastPaidUntil(paidUntil, today time.Time) int {
    d := today.Sub(paidUntil)
    days := int(d / day)
    if d%day > 0 {
        days++
    }
    return days
}

// FeesLate reports whether fees are more than 15 days past the marker.
func FeesLate(paidUntil, today time.Time) bool {
    if paidUntil.IsZero() {
        return false
    }
    return DaysPastPaidUntil(paidUntil, today) > 15
}

// FeesCritical reports whether fees are more than 30 days past the marker.
func FeesCritical(paidUntil, today time.Time) bool {
    if paidUntil.IsZero() {
        return false
    }
    return DaysPastPaidUntil(paidUntil, today) > 30
}
