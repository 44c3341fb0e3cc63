package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/party/service"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/party/store"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/platform/events"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/requestcontext"
)

var (
	issuerAddr  = domain.MustParseAddress("0x00000000000000000000000000000000000000aa")
	citizenAddr = domain.MustParseAddress("0x0000000000000000000000000000000000000001")
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type staticIssuer struct{ addr domain.Address }

func (s staticIssuer) Issuer(ctx context.Context) (domain.Address, error) {
	return s.addr, nil
}

func newPartyRouter(t *testing.T, actor domain.Address) http.Handler {
	t.Helper()
	svc := service.New(store.NewMemoryStore(), staticIssuer{issuerAddr}, events.NewMemoryLog(), nil, testLogger())

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := requestcontext.WithActor(req.Context(), actor)
			ctx = requestcontext.WithTime(ctx, testNow)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	New(svc, testLogger()).Register(r)
	return r
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestAddAndFetchParty(t *testing.T) {
	router := newPartyRouter(t, issuerAddr)

	payload := map[string]any{
		"address":    citizenAddr.String(),
		"role":       1,
		"expiration": testNow.Add(24 * time.Hour).Format(time.RFC3339),
	}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/parties", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 registering party, got %d: %s", rec.Code, rec.Body.String())
	}

	getReq := httptest.NewRequest(http.MethodGet, "/parties/"+citizenAddr.String(), nil)
	getRec := httptest.NewRecorder()
	router.ServeHTTP(getRec, getReq)
	if getRec.Code != http.StatusOK {
		t.Fatalf("expected 200 fetching party, got %d", getRec.Code)
	}

	var resp RecordResponse
	if err := json.NewDecoder(getRec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode record response: %v", err)
	}
	if resp.Role != 1 {
		t.Fatalf("expected role 1, got %d", resp.Role)
	}

	roleReq := httptest.NewRequest(http.MethodGet, "/parties/"+citizenAddr.String()+"/role", nil)
	roleRec := httptest.NewRecorder()
	router.ServeHTTP(roleRec, roleReq)
	var roleResp map[string]uint8
	if err := json.NewDecoder(roleRec.Body).Decode(&roleResp); err != nil {
		t.Fatalf("failed to decode role response: %v", err)
	}
	if roleResp["role"] != 1 {
		t.Fatalf("expected effective role 1, got %d", roleResp["role"])
	}
}

func TestAddPartyRejectsNonIssuer(t *testing.T) {
	router := newPartyRouter(t, citizenAddr)

	payload := map[string]any{
		"address":    citizenAddr.String(),
		"role":       1,
		"expiration": testNow.Add(24 * time.Hour).Format(time.RFC3339),
	}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/parties", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-issuer, got %d", rec.Code)
	}
}

func TestAddPartyValidation(t *testing.T) {
	router := newPartyRouter(t, issuerAddr)

	cases := []struct {
		name    string
		payload map[string]any
		status  int
	}{
		{
			name:    "malformed address",
			payload: map[string]any{"address": "nope", "role": 1, "expiration": testNow.Add(time.Hour)},
			status:  http.StatusBadRequest,
		},
		{
			name:    "unknown role",
			payload: map[string]any{"address": citizenAddr.String(), "role": 9, "expiration": testNow.Add(time.Hour)},
			status:  http.StatusBadRequest,
		},
		{
			name:    "expiration in the past",
			payload: map[string]any{"address": citizenAddr.String(), "role": 1, "expiration": testNow.Add(-time.Hour)},
			status:  http.StatusBadRequest,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, _ := json.Marshal(tc.payload)
			req := httptest.NewRequest(http.MethodPost, "/parties", bytes.NewReader(body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRemoveParty(t *testing.T) {
	router := newPartyRouter(t, issuerAddr)

	payload := map[string]any{
		"address":    citizenAddr.String(),
		"role":       2,
		"expiration": testNow.Add(24 * time.Hour).Format(time.RFC3339),
	}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/parties", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	delReq := httptest.NewRequest(http.MethodDelete, "/parties/"+citizenAddr.String(), nil)
	delRec := httptest.NewRecorder()
	router.ServeHTTP(delRec, delReq)
	if delRec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 removing party, got %d", delRec.Code)
	}

	getReq := httptest.NewRequest(http.MethodGet, "/parties/"+citizenAddr.String(), nil)
	getRec := httptest.NewRecorder()
	router.ServeHTTP(getRec, getReq)
	if getRec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after removal, got %d", getRec.Code)
	}

	delAgain := httptest.NewRequest(http.MethodDelete, "/parties/"+citizenAddr.String(), nil)
	delAgainRec := httptest.NewRecorder()
	router.ServeHTTP(delAgainRec, delAgain)
	if delAgainRec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 removing unknown party, got %d", delAgainRec.Code)
	}
}
