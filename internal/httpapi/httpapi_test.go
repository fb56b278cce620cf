package httpapi

import (
    "bytes"
    "encoding/json"
    "io"
    "log/slog"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/google/uuid"
    "github.com/govalues/money"

    "github.com/arkcrm/rentledger/internal/residency"
    "github.com/arkcrm/rentledger/internal/reslock"
    "github.com/arkcrm/rentledger/internal/service/payment"
    "github.com/arkcrm/rentledger/internal/service/reconcile"
    "github.com/arkcrm/rentledger/internal/storage/memory"
)

func testLogger() *slog.Logger {
    return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type payResp struct {
    ID              string    `json:"id"`
    ResidentID      string    `json:"resident_id"`
    Currency        string    `json:"currency"`
    AmountMinor     int64     `json:"amount_minor"`
    PeriodEnd       time.Time `json:"period_end"`
    Method          string    `json:"method"`
    ProgramFeeMinor int64     `json:"program_fee_minor"`
    BalanceMinor    int64     `json:"balance_minor"`
}

type itemsResp struct {
    Items []payResp `json:"items"`
}

type errResp struct {
    Error string `json:"error"`
    Code  string `json:"code"`
}

func setup(t *testing.T) (*memory.Store, http.Handler, residency.Contact) {
    t.Helper()
    store := memory.New()
    fee, err := money.NewAmountFromMinorUnits("USD", 85000)
    if err != nil {
        t.Fatalf("fee: %v", err)
    }
    moveIn := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
    paidUntil := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
    res := residency.Contact{
        ID:        uuid.New(),
        FirstName: "Jordan",
        LastName:  "Wells",
        Type:      residency.ContactResident,
        Status:    residency.StatusActive,
        Residency: &residency.ResidencyProfile{
            ProgramFee: &fee,
            MoveInDate: &moveIn,
            PaidUntil:  &paidUntil,
        },
        CreatedAt: time.Now(),
    }
    store.SeedContact(res)

    locks := reslock.New()
    pay := payment.New(store, store, locks, nil, testLogger(), fee)
    eng := reconcile.New(store, store, locks, testLogger(), fee)
    h := New(pay, eng, nil, testLogger()).Handler()
    return store, h, res
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
    t.Helper()
    b, _ := json.Marshal(body)
    req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
    req.Header.Set("Content-Type", "application/json")
    rec := httptest.NewRecorder()
    h.ServeHTTP(rec, req)
    return rec
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
    t.Helper()
    req := httptest.NewRequest(http.MethodGet, path, nil)
    rec := httptest.NewRecorder()
    h.ServeHTTP(rec, req)
    return rec
}

func TestPostPayment_ValidAndInvalid(t *testing.T) {
    _, h, res := setup(t)

    body := map[string]any{
        "resident_id":  res.ID.String(),
        "currency":     "USD",
        "amount_minor": 85000,
        "date":         "2024-03-05T00:00:00Z",
        "period_start": "2024-03-05T00:00:00Z",
        "period_end":   "2024-04-05T00:00:00Z",
        "method":       "Cash",
    }
    rec := postJSON(t, h, "/v1/payments", body)
    if rec.Code != http.StatusCreated {
        t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
    }
    var pr payResp
    if err := json.Unmarshal(rec.Body.Bytes(), &pr); err != nil {
        t.Fatalf("decode: %v", err)
    }
    // Empty ledger: previous = fee, so fee + fee - amount = fee
    if pr.BalanceMinor != 85000 || pr.ProgramFeeMinor != 85000 {
        t.Fatalf("unexpected balance math: %+v", pr)
    }

    // reserved method
    body["method"] = "System Sync"
    rec = postJSON(t, h, "/v1/payments", body)
    if rec.Code != http.StatusUnprocessableEntity {
        t.Fatalf("expected 422 for reserved method, got %d", rec.Code)
    }
    var er errResp
    _ = json.Unmarshal(rec.Body.Bytes(), &er)
    if er.Code != "invalid_method" {
        t.Fatalf("expected invalid_method code, got %q", er.Code)
    }

    // unknown method
    body["method"] = "Barter"
    if rec = postJSON(t, h, "/v1/payments", body); rec.Code != http.StatusUnprocessableEntity {
        t.Fatalf("expected 422 for unknown method, got %d", rec.Code)
    }

    // unknown resident
    body["method"] = "Cash"
    body["resident_id"] = uuid.New().String()
    if rec = postJSON(t, h, "/v1/payments", body); rec.Code != http.StatusNotFound {
        t.Fatalf("expected 404 for unknown resident, got %d", rec.Code)
    }

    // garbage body
    req := httptest.NewRequest(http.MethodPost, "/v1/payments", bytes.NewReader([]byte("{")))
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, req)
    if rr.Code != http.StatusBadRequest {
        t.Fatalf("expected 400 for bad JSON, got %d", rr.Code)
    }
}

func TestResidentLedgerAndSummary(t *testing.T) {
    _, h, res := setup(t)

    body := map[string]any{
        "resident_id":  res.ID.String(),
        "currency":     "USD",
        "amount_minor": 85000,
        "date":         "2024-03-05T00:00:00Z",
        "period_start": "2024-03-05T00:00:00Z",
        "period_end":   "2024-04-05T00:00:00Z",
        "method":       "Check",
    }
    if rec := postJSON(t, h, "/v1/payments", body); rec.Code != http.StatusCreated {
        t.Fatalf("post payment: %d: %s", rec.Code, rec.Body.String())
    }

    rec := get(t, h, "/v1/residents/"+res.ID.String()+"/ledger")
    if rec.Code != http.StatusOK {
        t.Fatalf("ledger: %d", rec.Code)
    }
    var items itemsResp
    if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
        t.Fatalf("decode: %v", err)
    }
    if len(items.Items) != 1 || items.Items[0].Method != "Check" {
        t.Fatalf("unexpected ledger: %+v", items)
    }

    // as-of the payment month the resident is on time
    rec = get(t, h, "/v1/residents/"+res.ID.String()+"/summary?as_of=2024-03-10T00:00:00Z")
    if rec.Code != http.StatusOK {
        t.Fatalf("summary: %d: %s", rec.Code, rec.Body.String())
    }
    var sum struct {
        Status       string `json:"status"`
        BalanceMinor int64  `json:"balance_minor"`
    }
    if err := json.Unmarshal(rec.Body.Bytes(), &sum); err != nil {
        t.Fatalf("decode: %v", err)
    }
    if sum.Status != string(residency.StatusOnTime) {
        t.Fatalf("expected on-time, got %q", sum.Status)
    }
    if sum.BalanceMinor != 85000 {
        t.Fatalf("expected balance 85000, got %d", sum.BalanceMinor)
    }

    if rec = get(t, h, "/v1/residents/not-a-uuid/ledger"); rec.Code != http.StatusBadRequest {
        t.Fatalf("expected 400 for bad id, got %d", rec.Code)
    }
    if rec = get(t, h, "/v1/residents/"+uuid.New().String()+"/ledger"); rec.Code != http.StatusNotFound {
        t.Fatalf("expected 404 for unknown resident, got %d", rec.Code)
    }
}

func TestSyncEndpoints(t *testing.T) {
    _, h, res := setup(t)

    // Seeded resident has paid-until but an empty ledger: first run back-fills.
    rec := postJSON(t, h, "/v1/sync", nil)
    if rec.Code != http.StatusOK {
        t.Fatalf("sync: %d: %s", rec.Code, rec.Body.String())
    }
    var sum struct {
        ResidentsScanned int `json:"residents_scanned"`
        RecordsCreated   int `json:"records_created"`
        Skipped          int `json:"skipped"`
    }
    if err := json.Unmarshal(rec.Body.Bytes(), &sum); err != nil {
        t.Fatalf("decode: %v", err)
    }
    if sum.ResidentsScanned != 1 || sum.RecordsCreated != 1 {
        t.Fatalf("unexpected sync summary: %+v", sum)
    }

    ledger := get(t, h, "/v1/residents/"+res.ID.String()+"/ledger")
    var items itemsResp
    if err := json.Unmarshal(ledger.Body.Bytes(), &items); err != nil {
        t.Fatalf("decode: %v", err)
    }
    if len(items.Items) != 1 || items.Items[0].Method != "System Sync" {
        t.Fatalf("expected one System Sync record, got %+v", items)
    }
    if items.Items[0].AmountMinor != 0 || items.Items[0].BalanceMinor != 85000 {
        t.Fatalf("unexpected back-fill values: %+v", items.Items[0])
    }

    // Second run writes nothing
    rec = postJSON(t, h, "/v1/sync", nil)
    if err := json.Unmarshal(rec.Body.Bytes(), &sum); err != nil {
        t.Fatalf("decode: %v", err)
    }
    if sum.RecordsCreated != 0 || sum.Skipped != 1 {
        t.Fatalf("second sync must be a no-op: %+v", sum)
    }

    // Single-resident sync is also a no-op now
    rec = postJSON(t, h, "/v1/residents/"+res.ID.String()+"/sync", nil)
    if rec.Code != http.StatusNoContent {
        t.Fatalf("expected 204 when already in sync, got %d", rec.Code)
    }
    if rec = postJSON(t, h, "/v1/residents/"+uuid.New().String()+"/sync", nil); rec.Code != http.StatusNotFound {
        t.Fatalf("expected 404 for unknown resident, got %d", rec.Code)
    }
}

func TestDeleteResidentPayments(t *testing.T) {
    _, h, res := setup(t)

    body := map[string]any{
        "resident_id":  res.ID.String(),
        "currency":     "USD",
        "amount_minor": 50000,
        "date":         "2024-03-05T00:00:00Z",
        "period_start": "2024-03-05T00:00:00Z",
        "period_end":   "2024-04-05T00:00:00Z",
        "method":       "Money Order",
    }
    if rec := postJSON(t, h, "/v1/payments", body); rec.Code != http.StatusCreated {
        t.Fatalf("post payment: %d", rec.Code)
    }

    req := httptest.NewRequest(http.MethodDelete, "/v1/residents/"+res.ID.String()+"/payments", nil)
    rec := httptest.NewRecorder()
    h.ServeHTTP(rec, req)
    if rec.Code != http.StatusNoContent {
        t.Fatalf("expected 204, got %d", rec.Code)
    }

    ledger := get(t, h, "/v1/residents/"+res.ID.String()+"/ledger")
    var items itemsResp
    if err := json.Unmarshal(ledger.Body.Bytes(), &items); err != nil {
        t.Fatalf("decode: %v", err)
    }
    if len(items.Items) != 0 {
        t.Fatalf("expected empty ledger after delete, got %d", len(items.Items))
    }
}

func TestDictionaryAndHealth(t *testing.T) {
    _, h, _ := setup(t)

    rec := get(t, h, "/v1/dictionary")
    if rec.Code != http.StatusOK {
        t.Fatalf("dictionary: %d", rec.Code)
    }
    var dict struct {
        ContactTypes   []struct{ Code string } `json:"contact_types"`
        PaymentMethods []struct {
            Code     string `json:"code"`
            Reserved bool   `json:"reserved"`
        } `json:"payment_methods"`
    }
    if err := json.Unmarshal(rec.Body.Bytes(), &dict); err != nil {
        t.Fatalf("decode: %v", err)
    }
    if len(dict.ContactTypes) == 0 || len(dict.PaymentMethods) == 0 {
        t.Fatal("dictionary must not be empty")
    }
    reserved := 0
    for _, m := range dict.PaymentMethods {
        if m.Reserved {
            reserved++
        }
    }
    if reserved != 2 {
        t.Fatalf("expected 2 reserved methods, got %d", reserved)
    }

    if rec = get(t, h, "/healthz"); rec.Code != http.StatusOK {
        t.Fatalf("healthz: %d", rec.Code)
    }
    if rec = get(t, h, "/readyz"); rec.Code != http.StatusOK {
        t.Fatalf("readyz: %d", rec.Code)
    }
}
