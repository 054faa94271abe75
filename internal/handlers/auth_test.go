package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pawdesk/pawdesk/internal/apperr"
	"github.com/pawdesk/pawdesk/libs/auth"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRequireTenantRejectsMissingToken(t *testing.T) {
	handler := RequireTenant("secret", testLogger(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireTenantRejectsBadSignature(t *testing.T) {
	token, err := auth.SignHS256(auth.Claims{Sub: "u1", BusinessID: 42, Exp: time.Now().Add(time.Hour).Unix()}, "other-secret")
	if err != nil {
		t.Fatal(err)
	}

	handler := RequireTenant("secret", testLogger(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireTenantPassesBusinessID(t *testing.T) {
	token, err := auth.SignHS256(auth.Claims{Sub: "u1", BusinessID: 42, Role: "owner", Exp: time.Now().Add(time.Hour).Unix()}, "secret")
	if err != nil {
		t.Fatal(err)
	}

	var got int64
	handler := RequireTenant("secret", testLogger(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = businessID(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got != 42 {
		t.Errorf("business id = %d, want 42", got)
	}
}

func TestRequireTenantRejectsTokenWithoutBusiness(t *testing.T) {
	token, err := auth.SignHS256(auth.Claims{Sub: "u1", Exp: time.Now().Add(time.Hour).Unix()}, "secret")
	if err != nil {
		t.Fatal(err)
	}

	handler := RequireTenant("secret", testLogger(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestWriteErrorMapsTaxonomy(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", apperr.NotFoundf("order 9"), http.StatusNotFound},
		{"validation", apperr.Validationf("bad input"), http.StatusBadRequest},
		{"provider", apperr.Providerf("checkout failed"), http.StatusBadGateway},
		{"internal", io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, testLogger(), tc.err)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}
