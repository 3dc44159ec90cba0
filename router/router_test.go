package router

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"go-ledger-api/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func TestRouter_HealthCheck(t *testing.T) {
	r := NewRouter(nil, nil, nil)

	req := httptest.NewRequest("GET", "/health", nil)
	rr := httptest.NewRecorder()

	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"API is healthy and running"}`, rr.Body.String())
}

func TestRouter_APIRequiresAuthentication(t *testing.T) {
	r := NewRouter(nil, nil, nil)

	paths := []struct {
		method string
		path   string
	}{
		{"GET", "/api/me"},
		{"GET", "/api/accounts"},
		{"POST", "/api/accounts"},
		{"GET", "/api/accounts/1/transactions"},
		{"POST", "/api/accounts/1/transactions"},
		{"POST", "/api/transfers"},
	}

	for _, p := range paths {
		req := httptest.NewRequest(p.method, p.path, nil)
		rr := httptest.NewRecorder()

		r.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code, "%s %s", p.method, p.path)
	}
}
