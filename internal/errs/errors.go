package errs

import (
    "errors"
    "fmt"
)

// Common sentinel errors for cross-layer signaling.
var (
    ErrNotFound = errors.New("not_found")
    ErrInvalid  = errors.New("invalid")
    // ErrInvalidMethod indicates a payment method outside the closed enumeration.
    ErrInvalidMethod = fmt.Errorf("invalid_method: %w", ErrInvalid)
    // ErrInvalidDate indicates a missing or zero date on a ledger record.
    ErrInvalidDate = fmt.Errorf("invalid_date: %w", ErrInvalid)
    // ErrCurrencyMismatch indicates a monetary field in a different currency than the ledger's.
    ErrCurrencyMismatch = fmt.Errorf("currency_mismatch: %w", ErrInvalid)
    // ErrStore indicates a storage-layer failure unrelated to the request itself.
    ErrStore = errors.New("store_error")
)
