package httpapi

import (
    "net/http"

    "github.com/arkcrm/rentledger/internal/dictionary"
)

// GET /v1/dictionary returns the pick lists the dashboard renders.
func (s *Server) getDictionary(w http.ResponseWriter, r *http.Request) {
    out := struct {
        ContactTypes     []dictionary.Def `json:"contact_types"`
        PaymentMethods   []dictionary.Def `json:"payment_methods"`
        DischargeReasons []dictionary.Def `json:"discharge_reasons"`
    }{
        ContactTypes:     dictionary.ContactTypes(),
        PaymentMethods:   dictionary.PaymentMethods(),
        DischargeReasons: dictionary.DischargeReasons(),
    }
    toJSON(w, http.StatusOK, out)
}
