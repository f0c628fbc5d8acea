package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/justicehub/platform/pkg/logger"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.Claims, secret string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func validClaims(subject string) *Claims {
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    "https://idp.example",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		SessionID: "sess_1",
	}
}

func TestAuth(t *testing.T) {
	expired := validClaims("user_1")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	noSubject := validClaims("")
	otherIssuer := validClaims("user_1")
	otherIssuer.Issuer = "https://evil.example"

	tests := []struct {
		name       string
		method     string
		target     string
		header     string
		wantStatus int
		wantUser   string
	}{
		{"valid", http.MethodGet, "/", "Bearer " + signToken(t, validClaims("user_1"), testSecret), http.StatusOK, "user_1"},
		{"lowercase scheme", http.MethodGet, "/", "bearer " + signToken(t, validClaims("user_1"), testSecret), http.StatusOK, "user_1"},
		{"query token on GET", http.MethodGet, "/?access_token=" + signToken(t, validClaims("user_2"), testSecret), "", http.StatusOK, "user_2"},
		{"query token on POST", http.MethodPost, "/?access_token=" + signToken(t, validClaims("user_2"), testSecret), "", http.StatusUnauthorized, ""},
		{"missing header", http.MethodGet, "/", "", http.StatusUnauthorized, ""},
		{"wrong scheme", http.MethodGet, "/", "Basic abc", http.StatusUnauthorized, ""},
		{"wrong secret", http.MethodGet, "/", "Bearer " + signToken(t, validClaims("user_1"), "other"), http.StatusUnauthorized, ""},
		{"expired", http.MethodGet, "/", "Bearer " + signToken(t, expired, testSecret), http.StatusUnauthorized, ""},
		{"no subject", http.MethodGet, "/", "Bearer " + signToken(t, noSubject, testSecret), http.StatusUnauthorized, ""},
		{"wrong issuer", http.MethodGet, "/", "Bearer " + signToken(t, otherIssuer, testSecret), http.StatusUnauthorized, ""},
	}

	verifier := NewHMACVerifier(testSecret, "https://idp.example")

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUser string
			h := Auth(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser = GetUserID(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(tt.method, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if gotUser != tt.wantUser {
				t.Errorf("user = %q, want %q", gotUser, tt.wantUser)
			}
		})
	}
}

func TestAuthRejectsNoneAlgorithm(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, validClaims("user_1")).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := NewHMACVerifier(testSecret, "").Verify(token); err == nil {
		t.Fatal("expected unsigned token to be rejected")
	}
}

func TestLoggingSetsCorrelationID(t *testing.T) {
	var seen string
	h := Logging(logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetCorrelationID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Correlation-ID", "corr-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen != "corr-123" {
		t.Errorf("context correlation id = %q", seen)
	}
	if got := rec.Header().Get("X-Correlation-ID"); got != "corr-123" {
		t.Errorf("header correlation id = %q", got)
	}
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestUserRateLimit(t *testing.T) {
	h := UserRateLimit(2, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(user string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithUserID(req.Context(), user))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if do("a") != http.StatusOK || do("a") != http.StatusOK {
		t.Fatal("first two requests should pass")
	}
	if code := do("a"); code != http.StatusTooManyRequests {
		t.Errorf("third request status = %d, want 429", code)
	}
	if code := do("b"); code != http.StatusOK {
		t.Errorf("other user status = %d, want 200", code)
	}
}

type sample struct {
	Name   string `json:"name" validate:"required,max=5"`
	Status string `json:"status" validate:"omitempty,oneof=open closed"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"valid", `{"name":"abc"}`, ""},
		{"empty body", ``, "request body is empty"},
		{"malformed", `{"name":`, "invalid request body"},
		{"missing required", `{}`, "name is required"},
		{"too long", `{"name":"abcdef"}`, "name must be at most 5"},
		{"oneof", `{"name":"a","status":"x"}`, "status must be one of open closed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dst sample
			err := DecodeJSON(req, &dst)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.wantErr {
				t.Fatalf("error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}
