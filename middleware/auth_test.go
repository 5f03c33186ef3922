package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"galerie-admin-backend/utils"
)

const testAuthSecret = "test-secret"

func TestAuthMissingToken(t *testing.T) {
	handler := Auth(testAuthSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Code = %v, attendu 401", rr.Code)
	}
}

func TestAuthInvalidFormat(t *testing.T) {
	handler := Auth(testAuthSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "InvalidFormat")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Code = %v, attendu 401", rr.Code)
	}
}

func TestAuthValidToken(t *testing.T) {
	token, err := utils.GenerateToken("admin1", "marie.dupont", testAuthSecret)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	handler := Auth(testAuthSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := GetAdminFromContext(r.Context())
		if claims == nil {
			t.Error("GetAdminFromContext retourne nil")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if claims.AdminID != "admin1" || claims.Username != "marie.dupont" {
			t.Errorf("claims = %+v", claims)
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Code = %v, attendu 200", rr.Code)
	}
}

func TestGuestRejetteTokenValide(t *testing.T) {
	token, err := utils.GenerateToken("admin1", "marie.dupont", testAuthSecret)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	handler := Guest(testAuthSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("Code = %v, attendu 403", rr.Code)
	}
}

func TestGuestLaissePasserSansToken(t *testing.T) {
	handler := Guest(testAuthSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Code = %v, attendu 200", rr.Code)
	}
}
