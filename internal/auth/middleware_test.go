package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentdesk/internal/common/config"
	"rentdesk/internal/common/logger"
)

func testGate(t *testing.T) *Gate {
	return NewGate(config.AuthConfig{
		RoleClaim:    "custom:role",
		SubjectClaim: "sub",
	}, logger.NewTestLogger(t))
}

func tokenWith(t *testing.T, role, subject string) string {
	claims := jwt.MapClaims{"sub": subject}
	if role != "" {
		claims["custom:role"] = role
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func protectedHandler(t *testing.T, gotSubject, gotRole *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*gotSubject = SubjectFromContext(r.Context())
		*gotRole = RoleFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestGate_MissingToken(t *testing.T) {
	gate := testGate(t)
	var subject, role string

	req := httptest.NewRequest(http.MethodPost, "/properties", nil)
	rec := httptest.NewRecorder()

	gate.Require("manager")(protectedHandler(t, &subject, &role)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNAUTHENTICATED")
}

func TestGate_MalformedToken(t *testing.T) {
	gate := testGate(t)
	var subject, role string

	req := httptest.NewRequest(http.MethodPost, "/properties", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()

	gate.Require("manager")(protectedHandler(t, &subject, &role)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "MALFORMED_CREDENTIAL")
}

func TestGate_RoleNotAllowed(t *testing.T) {
	gate := testGate(t)
	var subject, role string

	req := httptest.NewRequest(http.MethodPost, "/properties", nil)
	req.Header.Set("Authorization", "Bearer "+tokenWith(t, "tenant", "tenant-001"))
	rec := httptest.NewRecorder()

	gate.Require("manager")(protectedHandler(t, &subject, &role)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "FORBIDDEN")
}

func TestGate_RoleAllowed(t *testing.T) {
	gate := testGate(t)
	var subject, role string

	req := httptest.NewRequest(http.MethodPost, "/properties", nil)
	req.Header.Set("Authorization", "Bearer "+tokenWith(t, "manager", "manager-001"))
	rec := httptest.NewRecorder()

	gate.Require("manager")(protectedHandler(t, &subject, &role)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "manager-001", subject)
	assert.Equal(t, "manager", role)
}

func TestGate_RoleComparisonIsCaseInsensitive(t *testing.T) {
	gate := testGate(t)
	var subject, role string

	req := httptest.NewRequest(http.MethodGet, "/applications", nil)
	req.Header.Set("Authorization", "Bearer "+tokenWith(t, "Manager", "manager-001"))
	rec := httptest.NewRecorder()

	gate.Require("manager", "tenant")(protectedHandler(t, &subject, &role)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGate_MissingRoleClaimDefaultsToEmpty(t *testing.T) {
	gate := testGate(t)
	var subject, role string

	req := httptest.NewRequest(http.MethodPost, "/properties", nil)
	req.Header.Set("Authorization", "Bearer "+tokenWith(t, "", "user-001"))
	rec := httptest.NewRecorder()

	gate.Require("manager")(protectedHandler(t, &subject, &role)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
