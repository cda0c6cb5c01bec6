package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func serveAdmin(t *testing.T, secret, authHeader string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/admin/leads", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	called := false
	AdminJWT(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if _, ok := AdminClaimsFromContext(r.Context()); !ok {
			t.Errorf("expected admin claims in context")
		}
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, req)
	return rec, called
}

func TestAdminJWTMissingSecret(t *testing.T) {
	rec, called := serveAdmin(t, "", "Bearer "+signedAdminToken(t, "secret", adminClaims()))
	if called || rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestAdminJWTMissingHeader(t *testing.T) {
	for _, header := range []string{"", "Bearer ", "Basic abc"} {
		rec, called := serveAdmin(t, "secret", header)
		if called || rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected status %d, got %d", header, http.StatusUnauthorized, rec.Code)
		}
	}
}

func TestAdminJWTInvalidToken(t *testing.T) {
	rec, called := serveAdmin(t, "secret", "Bearer "+signedAdminToken(t, "wrong", adminClaims()))
	if called || rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Errorf("expected JSON error body")
	}
}

func TestAdminJWTRejectsExpiredAndIncompleteClaims(t *testing.T) {
	expired := adminClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	noExpiry := adminClaims()
	noExpiry.ExpiresAt = nil
	noSubject := adminClaims()
	noSubject.Subject = ""
	wrongIssuer := adminClaims()
	wrongIssuer.Issuer = "someone-else"

	for name, claims := range map[string]jwt.RegisteredClaims{
		"expired":      expired,
		"no expiry":    noExpiry,
		"no subject":   noSubject,
		"wrong issuer": wrongIssuer,
	} {
		rec, called := serveAdmin(t, "secret", "Bearer "+signedAdminToken(t, "secret", claims))
		if called || rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected status %d, got %d", name, http.StatusUnauthorized, rec.Code)
		}
	}
}

func TestAdminJWTValidToken(t *testing.T) {
	rec, called := serveAdmin(t, "secret", "Bearer "+signedAdminToken(t, "secret", adminClaims()))
	if !called {
		t.Fatalf("expected handler to be called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

func adminClaims() jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   "front-desk",
		Issuer:    AdminIssuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(5 * time.Minute)),
	}
}

func signedAdminToken(t *testing.T, secret string, claims jwt.RegisteredClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}
