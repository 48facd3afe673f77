package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/config"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte(testSecret))
	assert.NoError(t, err)
	return signed
}

func doRequest(authz string) (*httptest.ResponseRecorder, echo.Context) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := AuthJWT(config.Config{JWTSecret: testSecret})
	handler := mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	_ = handler(c)
	return rec, c
}

func TestAuthJWT_NoHeader(t *testing.T) {
	rec, _ := doRequest("")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthJWT_NotBearer(t *testing.T) {
	rec, _ := doRequest("Basic abc123")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthJWT_InvalidSignature(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1"})
	signed, _ := tok.SignedString([]byte("other-secret"))

	rec, _ := doRequest("Bearer " + signed)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthJWT_Expired(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub":  "u1",
		"role": "customer",
		"tv":   0,
		"exp":  time.Now().Add(-time.Minute).Unix(),
	})

	rec, _ := doRequest("Bearer " + token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// 有効なトークンはuser_id/role/tvをcontextに入れて通す
func TestAuthJWT_Valid(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub":  "u1",
		"role": "customer",
		"tv":   3,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(15 * time.Minute).Unix(),
	})

	rec, c := doRequest("Bearer " + token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", c.Get(CtxUserIDKey))
	assert.Equal(t, "customer", c.Get(CtxUserRoleKey))
	assert.Equal(t, 3, c.Get(CtxTokenVersionKey))
}

func TestAuthJWT_MissingSub(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"role": "customer",
		"tv":   0,
		"exp":  time.Now().Add(15 * time.Minute).Unix(),
	})

	rec, _ := doRequest("Bearer " + token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
