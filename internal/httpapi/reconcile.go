package httpapi

import (
    "net/http"
)

// postSync runs a full reconciliation pass over all eligible residents.
func (s *Server) postSync(w http.ResponseWriter, r *http.Request) {
    sum, err := s.sync.Run(r.Context())
    if err != nil {
        writeDomainErr(w, err)
        return
    }
    toJSON(w, http.StatusOK, sum)
}

// postResidentSync reconciles a single resident after a profile edit.
// Returns 200 with the bridging record, or 204 when already in sync.
func (s *Server) postResidentSync(w http.ResponseWriter, r *http.Request) {
    id, ok := residentID(r)
    if !ok {
        badRequest(w, "invalid resident id")
        return
    }
    rec, err := s.sync.SyncResident(r.Context(), id)
    if err != nil {
        writeDomainErr(w, err)
        return
    }
    if rec == nil {
        w.WriteHeader(http.StatusNoContent)
        return
    }
    toJSON(w, http.StatusOK, toPaymentResponse(*rec))
}
