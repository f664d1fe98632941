package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestHandleServiceError_MapsKinds(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("registro: %w", ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{fmt.Errorf("usuario: %w", ErrConflict), http.StatusConflict, "CONFLICT"},
		{fmt.Errorf("fecha: %w", ErrInvalidInput), http.StatusBadRequest, "VALIDATION_ERROR"},
		{fmt.Errorf("token: %w", ErrUnauthorized), http.StatusUnauthorized, "AUTH_ERROR"},
		{fmt.Errorf("borrar: %w", ErrForbidden), http.StatusForbidden, "FORBIDDEN"},
		{errors.New("connection refused"), http.StatusInternalServerError, "DATABASE_ERROR"},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/api/x", nil)

		HandleServiceError(c, tc.err, "test")

		if w.Code != tc.status {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.status, w.Code)
		}
		var body map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body["code"] != tc.code {
			t.Fatalf("%v: expected code %s, got %s", tc.err, tc.code, body["code"])
		}
	}
}

func TestHandleDBError_HidesDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/x", nil)

	HandleDBError(c, errors.New("dial tcp 10.0.0.3:3306: secret-host"), "test")

	if got := w.Body.String(); strings.Contains(got, "secret-host") {
		t.Fatalf("internal detail leaked: %s", got)
	}
}

func TestSanitizeForLog(t *testing.T) {
	out := SanitizeForLog(map[string]interface{}{
		"username": "ana",
		"Password": "hunter2",
		"note":     "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.eyJzdWIiOiIxMjM0NTY3ODkwIn0.abc",
		"count":    3,
	})
	if out["username"] != "ana" || out["count"] != 3 {
		t.Fatalf("non-sensitive values changed: %v", out)
	}
	if out["Password"] != "***REDACTED***" {
		t.Fatalf("password not redacted: %v", out["Password"])
	}
	if out["note"] != "***REDACTED_TOKEN***" {
		t.Fatalf("token-like value not redacted: %v", out["note"])
	}
}
