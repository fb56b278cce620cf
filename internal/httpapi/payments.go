package httpapi

import (
    "encoding/json"
    "net/http"

    "github.com/google/uuid"
    "github.com/govalues/money"

    "github.com/arkcrm/rentledger/internal/dictionary"
    "github.com/arkcrm/rentledger/internal/residency"
    "github.com/arkcrm/rentledger/internal/service/payment"
)

// postPayment records a real payment against a resident's ledger.
func (s *Server) postPayment(w http.ResponseWriter, r *http.Request) {
    var req postPaymentRequest
    dec := json.NewDecoder(r.Body)
    dec.DisallowUnknownFields()
    if err := dec.Decode(&req); err != nil {
        badRequest(w, "invalid JSON: "+err.Error())
        return
    }
    if req.ResidentID == uuid.Nil {
        badRequest(w, "resident_id is required")
        return
    }
    if req.Currency == "" {
        badRequest(w, "currency is required")
        return
    }
    if req.AmountMinor < 0 {
        unprocessable(w, "amount must not be negative", "invalid_amount")
        return
    }
    method := residency.PaymentMethod(req.Method)
    if !method.Valid() {
        unprocessable(w, "unknown payment method", "invalid_method")
        return
    }
    // System methods are written only by the sync engine.
    if dictionary.IsReserved(method) {
        unprocessable(w, "method is reserved for system use", "invalid_method")
        return
    }
    amt, err := money.NewAmountFromMinorUnits(req.Currency, req.AmountMinor)
    if err != nil {
        unprocessable(w, "invalid currency: "+req.Currency, "invalid_currency")
        return
    }

    saved, err := s.pay.RecordPayment(r.Context(), payment.Request{
        ResidentID:  req.ResidentID,
        Amount:      amt,
        Date:        req.Date,
        PeriodStart: req.PeriodStart,
        PeriodEnd:   req.PeriodEnd,
        Method:      method,
        Notes:       req.Notes,
    })
    if err != nil {
        writeDomainErr(w, err)
        return
    }
    toJSON(w, http.StatusCreated, toPaymentResponse(saved))
}

// listPayments returns every recorded payment, newest first.
func (s *Server) listPayments(w http.ResponseWriter, r *http.Request) {
    recs, err := s.pay.AllPayments(r.Context())
    if err != nil {
        writeDomainErr(w, err)
        return
    }
    toJSON(w, http.StatusOK, struct {
        Items []paymentResponse `json:"items"`
    }{Items: toPaymentResponses(recs)})
}
