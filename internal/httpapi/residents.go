package httpapi

import (
    "net/http"
    "time"

    chi "github.com/go-chi/chi/v5"
    "github.com/google/uuid"
)

func residentID(r *http.Request) (uuid.UUID, bool) {
    id, err := uuid.Parse(chi.URLParam(r, "id"))
    if err != nil {
        return uuid.Nil, false
    }
    return id, true
}

// getResidentLedger returns a resident's payment history in chronological order.
func (s *Server) getResidentLedger(w http.ResponseWriter, r *http.Request) {
    id, ok := residentID(r)
    if !ok {
        badRequest(w, "invalid resident id")
        return
    }
    recs, err := s.pay.LedgerFor(r.Context(), id)
    if err != nil {
        writeDomainErr(w, err)
        return
    }
    toJSON(w, http.StatusOK, struct {
        Items []paymentResponse `json:"items"`
    }{Items: toPaymentResponses(recs)})
}

// getResidentSummary returns derived balance, due date and lateness.
// An as_of query parameter (RFC 3339) overrides the evaluation time.
func (s *Server) getResidentSummary(w http.ResponseWriter, r *http.Request) {
    id, ok := residentID(r)
    if !ok {
        badRequest(w, "invalid resident id")
        return
    }
    now := time.Now()
    if asOf := r.URL.Query().Get("as_of"); asOf != "" {
        t, err := time.Parse(time.RFC3339, asOf)
        if err != nil {
            badRequest(w, "as_of must be RFC 3339")
            return
        }
        now = t
    }
    sum, err := s.pay.ResidentSummary(r.Context(), id, now)
    if err != nil {
        writeDomainErr(w, err)
        return
    }
    toJSON(w, http.StatusOK, toSummaryResponse(sum))
}

// deleteResidentPayments removes a resident's whole ledger. Used by the
// contact collaborator when a contact is deleted.
func (s *Server) deleteResidentPayments(w http.ResponseWriter, r *http.Request) {
    id, ok := residentID(r)
    if !ok {
        badRequest(w, "invalid resident id")
        return
    }
    if err := s.pay.RemoveLedger(r.Context(), id); err != nil {
        writeDomainErr(w, err)
        return
    }
    w.WriteHeader(http.StatusNoContent)
}

// getOverdueReport lists residents whose covered period has lapsed.
func (s *Server) getOverdueReport(w http.ResponseWriter, r *http.Request) {
    now := time.Now()
    if asOf := r.URL.Query().Get("as_of"); asOf != "" {
        t, err := time.Parse(time.RFC3339, asOf)
        if err != nil {
            badRequest(w, "as_of must be RFC 3339")
            return
        }
        now = t
    }
    entries, err := s.pay.OverdueReport(r.Context(), now)
    if err != nil {
        writeDomainErr(w, err)
        return
    }
    toJSON(w, http.StatusOK, struct {
        Items []overdueEntryResponse `json:"items"`
    }{Items: toOverdueResponses(entries)})
}
