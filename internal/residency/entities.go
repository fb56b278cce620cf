package residency

import (
    "time"

    "github.com/google/uuid"
    "github.com/govalues/money"

    "github.com/arkcrm/rentledger/internal/errs"
    "github.com/arkcrm/rentledger/internal/meta"
)

// ContactType enumerates the categories a contact can belong to.
// Only ContactResident and ContactPastResident carry a residency profile.
type ContactType string

const (
    ContactResident         ContactType = "Resident"
    ContactResidentPipeline ContactType = "ResidentPipeline"
    ContactPastResident     ContactType = "PastResident"
    ContactDeclinedResident ContactType = "DeclinedResident"
    ContactMentor           ContactType = "Mentor"
    ContactSponsor          ContactType = "Sponsor"
    ContactVolunteer        ContactType = "Volunteer"
    ContactDonor            ContactType = "Donor"
    ContactBoard            ContactType = "Board"
    ContactReferralSource   ContactType = "ReferralSource"
    ContactPartner          ContactType = "Partner"
)

// ContactStatus marks whether a contact is active in the program's rolodex.
type ContactStatus string

const (
    StatusActive   ContactStatus = "Active"
    StatusInactive ContactStatus = "Inactive"
)

// PaymentMethod enumerates how a payment was received. The two System
// methods are reserved for records written by the sync engine and never
// represent real money movement.
type PaymentMethod string

const (
    MethodCash         PaymentMethod = "Cash"
    MethodCheck        PaymentMethod = "Check"
    MethodCreditCard   PaymentMethod = "Credit Card"
    MethodBankTransfer PaymentMethod = "Bank Transfer"
    MethodMoneyOrder   PaymentMethod = "Money Order"
    MethodSponsored    PaymentMethod = "Sponsored"
    MethodPending      PaymentMethod = "Pending"
    MethodSystemSync   PaymentMethod = "System Sync"
    MethodSystemUpdate PaymentMethod = "System Update"
)

// Valid reports whether m is one of the allowed payment methods.
func (m PaymentMethod) Valid() bool {
    switch m {
    case MethodCash, MethodCheck, MethodCreditCard, MethodBankTransfer,
        MethodMoneyOrder, MethodSponsored, MethodPending, MethodSystemSync, MethodSystemUpdate:
        return true
    }
    return false
}

// System reports whether the method marks a synthetic ledger record.
func (m PaymentMethod) System() bool {
    return m == MethodSystemSync || m == MethodSystemUpdate
}

// PaymentStatus classifies how current a resident is on the monthly fee.
type PaymentStatus string

const (
    StatusOnTime       PaymentStatus = "On Time"
    StatusLate         PaymentStatus = "Late"
    StatusSeverelyLate PaymentStatus = ">30 Days Late"
)

// DischargeReason records why a past resident left the program.
type DischargeReason string

const (
    DischargeRelapse       DischargeReason = "Relapse"
    DischargeHome          DischargeReason = "Discharged Home"
    DischargeForCause      DischargeReason = "Dismissed for Cause"
    DischargeForNonPayment DischargeReason = "Dismissed for Non-Payment"
)

// Contact is a person in the program's rolodex. Residency is nil for
// contact types that never owe program fees.
type Contact struct {
    ID        uuid.UUID
    FirstName string
    LastName  string
    Type      ContactType
    Status    ContactStatus
    Email     string
    Phone     string
    Address   string
    Notes     string
    // Metadata holds additional key-value attributes for the contact.
    Metadata  meta.Metadata
    Residency *ResidencyProfile
    CreatedAt time.Time
}

// ResidencyProfile carries the ledger-relevant fields of a current or past
// resident. PaidUntil and Balance are cached views of the latest ledger
// entry; the sync engine exists to keep them honest.
type ResidencyProfile struct {
    // ProgramFee is the recurring monthly charge. Nil means the configured
    // standard fee applies.
    ProgramFee *money.Amount
    MoveInDate *time.Time
    // PaidUntil is the date through which program fees are considered paid.
    PaidUntil *time.Time
    // Balance mirrors the latest ledger entry's running balance.
    Balance         *money.Amount
    LastPaymentDate *time.Time
    Discipler       string
    Comments        string
    DischargeReason DischargeReason
}

// DisplayName returns the contact's name as shown on the dashboard.
func (c Contact) DisplayName() string { return c.FirstName + " " + c.LastName }

// FeeOrDefault resolves the resident's program fee. Past residents with no
// stored fee owe nothing; active residents fall back to the standard fee.
func (c Contact) FeeOrDefault(standard money.Amount) money.Amount {
    if c.Residency != nil && c.Residency.ProgramFee != nil {
        return *c.Residency.ProgramFee
    }
    if c.Type == ContactPastResident {
        z, _ := money.NewAmountFromMinorUnits(standard.Curr().Code(), 0)
        return z
    }
    return standard
}

// Clone returns a deep copy so callers cannot alias the store's state.
func (c Contact) Clone() Contact {
    out := c
    out.Metadata = c.Metadata.Clone()
    if c.Residency != nil {
        p := *c.Residency
        if p.ProgramFee != nil {
            v := *p.ProgramFee
            p.ProgramFee = &v
        }
        if p.MoveInDate != nil {
            v := *p.MoveInDate
            p.MoveInDate = &v
        }
        if p.PaidUntil != nil {
            v := *p.PaidUntil
            p.PaidUntil = &v
        }
        if p.Balance != nil {
            v := *p.Balance
            p.Balance = &v
        }
        if p.LastPaymentDate != nil {
            v := *p.LastPaymentDate
            p.LastPaymentDate = &v
        }
        out.Residency = &p
    }
    return out
}

// CacheUpdate carries the ledger-derived fields written back onto a
// resident after a payment or sync. Nil fields are left untouched.
type CacheUpdate struct {
    PaidUntil       *time.Time
    Balance         *money.Amount
    LastPaymentDate *time.Time
}

// PaymentRecord is one entry in a resident's ledger. Records are immutable
// once written; corrections are made by appending, never editing.
type PaymentRecord struct {
    ID           uuid.UUID
    ResidentID   uuid.UUID
    ResidentName string
    // Amount is the money actually received. Zero for synthetic records.
    Amount money.Amount
    Date   time.Time
    // PeriodStart..PeriodEnd is the fee interval this record covers.
    // PeriodEnd becomes the resident's new paid-until marker.
    PeriodStart time.Time
    PeriodEnd   time.Time
    Method      PaymentMethod
    ProgramFee  money.Amount
    // Balance is the running balance immediately after this record applies.
    Balance   money.Amount
    Notes     string
    CreatedAt time.Time
}

// Validate checks the record against the rules every store enforces before
// writing: required references, real dates, a known method, and monetary
// fields that agree on currency with a non-negative amount.
func (r PaymentRecord) Validate() error {
    if r.ResidentID == uuid.Nil || r.ResidentName == "" {
        return errs.ErrInvalid
    }
    if r.Date.IsZero() || r.PeriodStart.IsZero() || r.PeriodEnd.IsZero() || r.CreatedAt.IsZero() {
        return errs.ErrInvalidDate
    }
    if !r.Method.Valid() {
        return errs.ErrInvalidMethod
    }
    curr := r.ProgramFee.Curr().Code()
    if curr == "XXX" {
        // zero-value Amount carries the ISO placeholder currency
        return errs.ErrInvalid
    }
    if r.Amount.Curr().Code() != curr || r.Balance.Curr().Code() != curr {
        return errs.ErrCurrencyMismatch
    }
    if units, _ := r.Amount.MinorUnits(); units < 0 {
        return errs.ErrInvalid
    }
    if units, _ := r.ProgramFee.MinorUnits(); units < 0 {
        return errs.ErrInvalid
    }
    return nil
}
